package utils

import (
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// newNormalizer builds the transform chain that flattens adversarial unicode
// so that screening sees plain text:
// 1. NFKC converts compatibility characters to their canonical forms
// 2. NFD separates characters and their diacritical marks
// 3. Remove diacritical marks (Mn category)
// 4. NFC recombines characters into their canonical forms.
// Spacing and case are kept so the text stays readable in moderator prompts.
// Transformers carry state, so each call gets its own chain.
func newNormalizer() transform.Transformer {
	return transform.Chain(
		norm.NFKC,
		norm.NFD,
		runes.Remove(runes.In(unicode.Mn)),
		norm.NFC,
	)
}

// NormalizeText cleans up message text before screening by removing
// diacritical marks and folding compatibility characters (ℌ𝖾𝗅𝗅𝗈 -> Hello).
// Returns the input unchanged if normalization fails.
func NormalizeText(s string) string {
	if s == "" {
		return ""
	}

	result, _, err := transform.String(newNormalizer(), s)
	if err != nil {
		return s
	}

	return result
}
