// Package dispatch resolves moderator reactions on tagged moderator-channel
// posts into actions against the referenced message or author. The reacted-to
// post itself is the only state: everything an action needs is recovered from
// its reference tag, so actions keep working across process restarts.
package dispatch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/disgoorg/snowflake/v2"
	"github.com/robalyx/vigil/internal/analysis"
	"github.com/robalyx/vigil/internal/bot/constants"
	"github.com/robalyx/vigil/internal/history"
	"github.com/robalyx/vigil/internal/reference"
	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"
)

var (
	// ErrMessageGone reports that the referenced message no longer exists.
	// Deleting an already-deleted message degrades to an informational
	// moderator message, never a failure.
	ErrMessageGone = errors.New("referenced message no longer exists")

	// ErrUserNotFound reports that the referenced author no longer exists.
	ErrUserNotFound = errors.New("referenced user no longer exists")
)

// Platform is the slice of the chat platform the dispatcher acts through.
type Platform interface {
	// MessageContent fetches the body of an existing message.
	MessageContent(ctx context.Context, channelID, messageID snowflake.ID) (string, error)

	// DeleteFlagged deletes the given message from the guild's monitored
	// channel. Returns ErrMessageGone when it no longer exists.
	DeleteFlagged(ctx context.Context, guildID, messageID snowflake.ID) error

	// FetchUserName resolves a user identity to its display name.
	// Returns ErrUserNotFound when the account no longer exists.
	FetchUserName(ctx context.Context, userID snowflake.ID) (string, error)

	// Send posts text to a channel.
	Send(ctx context.Context, channelID snowflake.ID, text string) error

	// SendFile posts text with one attached file to a channel.
	SendFile(ctx context.Context, channelID snowflake.ID, text, filename string, data io.Reader) error
}

// Dispatcher maps moderator reactions to actions.
type Dispatcher struct {
	platform   Platform
	historyLog history.Log
	logger     *zap.Logger
}

// New creates a reaction dispatcher.
func New(platform Platform, historyLog history.Log, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{
		platform:   platform,
		historyLog: historyLog,
		logger:     logger.Named("dispatch"),
	}
}

// HandleReaction processes one reaction-add event in a moderator channel.
// Reactions on posts without a valid reference tag are ignored; that is a
// no-op, not an error. Every action tolerates duplicate reactions.
func (d *Dispatcher) HandleReaction(ctx context.Context, guildID, channelID, messageID snowflake.ID, emoji string) error {
	switch emoji {
	case constants.DeleteActionEmoji, constants.SuspendActionEmoji, constants.AnalyzeActionEmoji:
	default:
		return nil
	}

	content, err := d.platform.MessageContent(ctx, channelID, messageID)
	if err != nil {
		// The reacted-to post itself is gone; nothing to act on
		d.logger.Debug("Failed to fetch reacted-to post",
			zap.Uint64("messageID", uint64(messageID)),
			zap.Error(err))

		return nil
	}

	tag, err := reference.Decode(content)
	if err != nil {
		// Post predates the tag scheme or is unrelated
		return nil
	}

	switch emoji {
	case constants.DeleteActionEmoji:
		return d.deleteMessage(ctx, guildID, channelID, tag)
	case constants.SuspendActionEmoji:
		return d.suspendAuthor(ctx, channelID, tag)
	case constants.AnalyzeActionEmoji:
		return d.analyzeAuthor(ctx, channelID, tag)
	}

	return nil
}

// deleteMessage removes the referenced message. A message that is already
// gone (deleted earlier, or by a concurrent moderator) is reported to the
// moderator channel instead of surfacing a platform error.
func (d *Dispatcher) deleteMessage(ctx context.Context, guildID, modChannelID snowflake.ID, tag reference.Tag) error {
	err := d.platform.DeleteFlagged(ctx, guildID, tag.MessageID)

	switch {
	case errors.Is(err, ErrMessageGone):
		return d.platform.Send(ctx, modChannelID,
			fmt.Sprintf("Message %s was already removed.", tag.MessageID))
	case err != nil:
		return fmt.Errorf("failed to delete message %s: %w", tag.MessageID, err)
	}

	d.logger.Info("Deleted flagged message",
		zap.Uint64("messageID", uint64(tag.MessageID)),
		zap.Uint64("authorID", uint64(tag.AuthorID)))

	return d.platform.Send(ctx, modChannelID,
		fmt.Sprintf("Deleted message %s.", tag.MessageID))
}

// suspendAuthor posts the suspension confirmation for the referenced author.
// The original message does not need to exist anymore.
func (d *Dispatcher) suspendAuthor(ctx context.Context, modChannelID snowflake.ID, tag reference.Tag) error {
	name, err := d.platform.FetchUserName(ctx, tag.AuthorID)

	switch {
	case errors.Is(err, ErrUserNotFound):
		return d.platform.Send(ctx, modChannelID,
			fmt.Sprintf("User %s no longer exists.", tag.AuthorID))
	case err != nil:
		return fmt.Errorf("failed to resolve user %s: %w", tag.AuthorID, err)
	}

	d.logger.Info("Suspended user",
		zap.Uint64("authorID", uint64(tag.AuthorID)))

	return d.platform.Send(ctx, modChannelID,
		fmt.Sprintf("User %s (%s) has been suspended pending review.", name, tag.AuthorID))
}

// analyzeAuthor relays the author's history artifacts to the moderator
// channel. Only the author identity is required; artifacts without data are
// skipped rather than failing the whole action.
func (d *Dispatcher) analyzeAuthor(ctx context.Context, modChannelID snowflake.ID, tag reference.Tag) error {
	name, err := d.platform.FetchUserName(ctx, tag.AuthorID)
	if err != nil {
		// Analysis is about history, not the account; fall back to the raw id
		name = tag.AuthorID.String()
	}

	records, err := d.historyLog.QueryByAuthor(tag.AuthorID)
	if err != nil {
		return fmt.Errorf("failed to query history for %s: %w", tag.AuthorID, err)
	}

	if len(records) == 0 {
		return d.platform.Send(ctx, modChannelID,
			fmt.Sprintf("No recorded history for user %s.", name))
	}

	builder := analysis.NewBuilder(records)

	// Generate the artifacts concurrently, then relay them in a fixed order
	var (
		activity *bytes.Buffer
		mentions *bytes.Buffer
		table    string
	)

	p := pool.New()

	p.Go(func() {
		buf, err := builder.ActivityChart()
		if err != nil {
			d.logArtifactSkip("activity chart", tag.AuthorID, err)
			return
		}
		activity = buf
	})
	p.Go(func() {
		buf, err := builder.MentionGraph()
		if err != nil {
			d.logArtifactSkip("mention graph", tag.AuthorID, err)
			return
		}
		mentions = buf
	})
	p.Go(func() {
		text, err := builder.FrequencyTable()
		if err != nil {
			d.logArtifactSkip("frequency table", tag.AuthorID, err)
			return
		}
		table = text
	})

	p.Wait()

	header := fmt.Sprintf("Author analysis for %s (%d recorded messages):", name, len(records))
	if err := d.platform.Send(ctx, modChannelID, header); err != nil {
		return fmt.Errorf("failed to send analysis header: %w", err)
	}

	if activity != nil {
		if err := d.platform.SendFile(ctx, modChannelID, "Activity over the last 24 hours:", "activity.png", activity); err != nil {
			return fmt.Errorf("failed to send activity chart: %w", err)
		}
	}

	if mentions != nil {
		if err := d.platform.SendFile(ctx, modChannelID, "Mention network:", "mentions.png", mentions); err != nil {
			return fmt.Errorf("failed to send mention graph: %w", err)
		}
	}

	if table != "" {
		if err := d.platform.Send(ctx, modChannelID, "Word frequency:\n```"+table+"```"); err != nil {
			return fmt.Errorf("failed to send frequency table: %w", err)
		}
	}

	return nil
}

func (d *Dispatcher) logArtifactSkip(artifact string, authorID snowflake.ID, err error) {
	if errors.Is(err, analysis.ErrNoHistory) {
		d.logger.Debug("Skipping empty artifact",
			zap.String("artifact", artifact),
			zap.Uint64("authorID", uint64(authorID)))

		return
	}

	d.logger.Error("Failed to build artifact",
		zap.String("artifact", artifact),
		zap.Uint64("authorID", uint64(authorID)),
		zap.Error(err))
}
