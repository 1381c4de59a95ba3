// Package screening turns scored monitored-channel messages into actionable
// moderator prompts.
package screening

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/disgoorg/snowflake/v2"
	"github.com/robalyx/vigil/internal/bot/constants"
	"github.com/robalyx/vigil/internal/history"
	"github.com/robalyx/vigil/internal/reference"
	"github.com/robalyx/vigil/internal/scoring"
	"go.uber.org/zap"
)

// Messenger posts to and reacts in a guild's moderator channel.
type Messenger interface {
	SendModerator(ctx context.Context, guildID snowflake.ID, text string) (snowflake.ID, error)
	ReactModerator(ctx context.Context, guildID, messageID snowflake.ID, emoji string) error
}

// Pipeline screens one monitored-channel message at a time: record it, score
// it, and post a moderator prompt when any category crosses its threshold.
type Pipeline struct {
	scorer     scoring.Client
	thresholds scoring.ThresholdTable
	historyLog history.Log
	messenger  Messenger
	logger     *zap.Logger
}

// New creates a screening pipeline.
func New(
	scorer scoring.Client,
	thresholds scoring.ThresholdTable,
	historyLog history.Log,
	messenger Messenger,
	logger *zap.Logger,
) *Pipeline {
	return &Pipeline{
		scorer:     scorer,
		thresholds: thresholds,
		historyLog: historyLog,
		messenger:  messenger,
		logger:     logger.Named("screening"),
	}
}

// Screen processes one inbound monitored-channel message. Scoring failures
// fail open: the message passes unflagged and the failure is only logged.
func (p *Pipeline) Screen(ctx context.Context, msg *history.Record) error {
	// Record the message for later author analysis regardless of its scores
	if err := p.historyLog.Append(msg); err != nil {
		p.logger.Error("Failed to append history record",
			zap.Uint64("messageID", uint64(msg.MessageID)),
			zap.Error(err))
	}

	scores, err := p.scorer.Score(ctx, msg.Content)
	if err != nil {
		// Never turn a scoring outage into a flag decision
		p.logger.Warn("Scoring unavailable, message passes unscreened",
			zap.Uint64("messageID", uint64(msg.MessageID)),
			zap.Error(err))

		return nil
	}

	flagged := p.thresholds.Flag(scores)
	if len(flagged) == 0 {
		return nil
	}

	p.logger.Info("Message flagged",
		zap.Uint64("messageID", uint64(msg.MessageID)),
		zap.Uint64("authorID", uint64(msg.AuthorID)),
		zap.Int("categories", len(flagged)))

	promptID, err := p.messenger.SendModerator(ctx, msg.GuildID, p.buildPrompt(msg, flagged))
	if err != nil {
		return fmt.Errorf("failed to post moderator prompt: %w", err)
	}

	// Seed the action reactions so moderators can act with one click.
	// Failures leave a perfectly usable prompt behind, so they only log.
	for _, emoji := range []string{
		constants.DeleteActionEmoji,
		constants.SuspendActionEmoji,
		constants.AnalyzeActionEmoji,
	} {
		if err := p.messenger.ReactModerator(ctx, msg.GuildID, promptID, emoji); err != nil {
			p.logger.Warn("Failed to seed action reaction",
				zap.Uint64("promptID", uint64(promptID)),
				zap.String("emoji", emoji),
				zap.Error(err))
		}
	}

	return nil
}

// buildPrompt composes the single moderator-channel post for a flagged
// message: author and verbatim body, the flagged category scores as
// preformatted text, the available actions in bold, and the reference tag in
// a spoiler span.
func (p *Pipeline) buildPrompt(msg *history.Record, flagged scoring.FlaggedSet) string {
	categories := make([]scoring.Category, 0, len(flagged))
	for category := range flagged {
		categories = append(categories, category)
	}

	sort.Slice(categories, func(i, j int) bool { return categories[i] < categories[j] })

	var pairs strings.Builder
	for _, category := range categories {
		pairs.WriteString(fmt.Sprintf("%s: %.2f\n", category, flagged[category]))
	}

	tag := reference.Tag{AuthorID: msg.AuthorID, MessageID: msg.MessageID}

	return fmt.Sprintf(
		"Flagged message:\n```%s: \"%s\"```\n"+
			"These categories passed their acceptable thresholds:\n```%s```\n"+
			"**React with %s to delete the message, %s to suspend the author, or %s to view author analysis.**\n%s",
		msg.AuthorName, msg.Content,
		pairs.String(),
		constants.DeleteActionEmoji, constants.SuspendActionEmoji, constants.AnalyzeActionEmoji,
		tag.Spoiler(),
	)
}
