// Package scoring wraps the external text-classification oracle and the
// per-category threshold policy applied to its output.
package scoring

// Category is a classification attribute reported by the scoring oracle.
type Category string

// Categories requested from the oracle for every screened message.
const (
	CategorySevereToxicity Category = "SEVERE_TOXICITY"
	CategoryProfanity      Category = "PROFANITY"
	CategoryIdentityAttack Category = "IDENTITY_ATTACK"
	CategoryThreat         Category = "THREAT"
	CategoryToxicity       Category = "TOXICITY"
	CategoryInsult         Category = "INSULT"
	CategoryIncoherent     Category = "INCOHERENT"
	CategorySpam           Category = "SPAM"
	CategoryLikelyToReject Category = "LIKELY_TO_REJECT"
)

// RequestedCategories lists every category included in an oracle request.
func RequestedCategories() []Category {
	return []Category{
		CategorySevereToxicity,
		CategoryProfanity,
		CategoryIdentityAttack,
		CategoryThreat,
		CategoryToxicity,
		CategoryInsult,
		CategoryIncoherent,
		CategorySpam,
		CategoryLikelyToReject,
	}
}

// ScoreSet maps each category the oracle reported to a value in [0,1].
// Produced fresh per message and never persisted past the screening call.
type ScoreSet map[Category]float64

// FlaggedSet is the subset of a ScoreSet whose values reached their
// category's threshold. Empty means the message is not flagged.
type FlaggedSet map[Category]float64

// ThresholdTable maps each category to its cutoff in [0,1]. Loaded once from
// configuration and read-only afterwards. Per-category cutoffs matter here:
// incoherence and spam need a much higher bar than threat or identity-attack
// categories to avoid over-flagging.
type ThresholdTable map[Category]float64

// DefaultThresholds returns the threshold table used when the operator
// configures none. The global 0.70 cutoff is raised for the noisy categories.
func DefaultThresholds() ThresholdTable {
	return ThresholdTable{
		CategorySevereToxicity: 0.70,
		CategoryProfanity:      0.70,
		CategoryIdentityAttack: 0.70,
		CategoryThreat:         0.70,
		CategoryToxicity:       0.70,
		CategoryInsult:         0.70,
		CategoryIncoherent:     0.99,
		CategorySpam:           0.99,
		CategoryLikelyToReject: 0.99,
	}
}

// Flag returns the categories whose score reached their threshold.
// The comparison is boundary-inclusive: a score exactly equal to the
// threshold flags. Categories without a threshold entry never flag, and
// categories absent from the score set never flag.
func (t ThresholdTable) Flag(scores ScoreSet) FlaggedSet {
	flagged := make(FlaggedSet)

	for category, score := range scores {
		threshold, ok := t[category]
		if !ok {
			continue
		}

		if score >= threshold {
			flagged[category] = score
		}
	}

	return flagged
}
