package bot

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/rest"
	"github.com/disgoorg/snowflake/v2"
	"github.com/robalyx/vigil/internal/dispatch"
	"github.com/robalyx/vigil/internal/report"
	"go.uber.org/zap"
)

// errNoModeratorChannel reports a guild without a resolved review channel.
var errNoModeratorChannel = errors.New("no moderator channel registered for guild")

// platformAdapter implements the chat-platform interfaces the workflow
// packages consume (report.Resolver, report.Notifier, screening.Messenger,
// dispatch.Platform) over the Discord REST API. Platform NotFound responses
// are mapped to the package sentinels at this boundary.
type platformAdapter struct {
	rest     rest.Rest
	channels *channelDirectory
	logger   *zap.Logger
}

func newPlatformAdapter(restClient rest.Rest, channels *channelDirectory, logger *zap.Logger) *platformAdapter {
	return &platformAdapter{
		rest:     restClient,
		channels: channels,
		logger:   logger.Named("platform"),
	}
}

// ResolveMessage resolves a report link triple in stages: guild reachability,
// channel membership, then message fetch.
func (a *platformAdapter) ResolveMessage(
	ctx context.Context, guildID, channelID, messageID snowflake.ID,
) (*report.TargetMessage, error) {
	if _, err := a.rest.GetGuild(guildID, false, rest.WithCtx(ctx)); err != nil {
		return nil, fmt.Errorf("%w: %w", report.ErrGuildNotFound, err)
	}

	channels, err := a.rest.GetGuildChannels(guildID, rest.WithCtx(ctx))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", report.ErrChannelNotFound, err)
	}

	found := false

	for _, channel := range channels {
		if channel.ID() == channelID {
			found = true
			break
		}
	}

	if !found {
		return nil, report.ErrChannelNotFound
	}

	message, err := a.rest.GetMessage(channelID, messageID, rest.WithCtx(ctx))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", report.ErrMessageNotFound, err)
	}

	return &report.TargetMessage{
		GuildID:    guildID,
		ChannelID:  channelID,
		MessageID:  messageID,
		AuthorID:   message.Author.ID,
		AuthorName: message.Author.Username,
		Content:    message.Content,
		Monitored:  a.channels.isMonitored(guildID, channelID),
	}, nil
}

// SendModerator posts text to the guild's review channel.
func (a *platformAdapter) SendModerator(ctx context.Context, guildID snowflake.ID, text string) (snowflake.ID, error) {
	modChannelID, ok := a.channels.moderatorChannel(guildID)
	if !ok {
		return 0, fmt.Errorf("%w: %s", errNoModeratorChannel, guildID)
	}

	message, err := a.rest.CreateMessage(modChannelID,
		discord.NewMessageCreateBuilder().SetContent(text).Build(),
		rest.WithCtx(ctx))
	if err != nil {
		return 0, fmt.Errorf("failed to send moderator message: %w", err)
	}

	return message.ID, nil
}

// ReactModerator adds a reaction to a review-channel post.
func (a *platformAdapter) ReactModerator(ctx context.Context, guildID, messageID snowflake.ID, emoji string) error {
	modChannelID, ok := a.channels.moderatorChannel(guildID)
	if !ok {
		return fmt.Errorf("%w: %s", errNoModeratorChannel, guildID)
	}

	if err := a.rest.AddReaction(modChannelID, messageID, emoji, rest.WithCtx(ctx)); err != nil {
		return fmt.Errorf("failed to add reaction: %w", err)
	}

	return nil
}

// MessageContent fetches the body of an existing message.
func (a *platformAdapter) MessageContent(ctx context.Context, channelID, messageID snowflake.ID) (string, error) {
	message, err := a.rest.GetMessage(channelID, messageID, rest.WithCtx(ctx))
	if err != nil {
		return "", fmt.Errorf("failed to fetch message: %w", err)
	}

	return message.Content, nil
}

// DeleteFlagged deletes the referenced message from the guild's monitored
// channel. The reference tag carries only the author and message identities;
// screened messages always live in the deployment's single monitored channel.
func (a *platformAdapter) DeleteFlagged(ctx context.Context, guildID, messageID snowflake.ID) error {
	monitoredID, ok := a.channels.monitoredChannel(guildID)
	if !ok {
		return fmt.Errorf("no monitored channel registered for guild %s", guildID)
	}

	if err := a.rest.DeleteMessage(monitoredID, messageID, rest.WithCtx(ctx)); err != nil {
		if isNotFound(err) {
			return fmt.Errorf("%w: %s", dispatch.ErrMessageGone, messageID)
		}

		return fmt.Errorf("failed to delete message: %w", err)
	}

	return nil
}

// FetchUserName resolves a user identity to its display name.
func (a *platformAdapter) FetchUserName(ctx context.Context, userID snowflake.ID) (string, error) {
	user, err := a.rest.GetUser(userID, rest.WithCtx(ctx))
	if err != nil {
		if isNotFound(err) {
			return "", fmt.Errorf("%w: %s", dispatch.ErrUserNotFound, userID)
		}

		return "", fmt.Errorf("failed to fetch user: %w", err)
	}

	return user.Username, nil
}

// Send posts text to a channel.
func (a *platformAdapter) Send(ctx context.Context, channelID snowflake.ID, text string) error {
	_, err := a.rest.CreateMessage(channelID,
		discord.NewMessageCreateBuilder().SetContent(text).Build(),
		rest.WithCtx(ctx))
	if err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}

	return nil
}

// SendFile posts text with one attached file to a channel.
func (a *platformAdapter) SendFile(ctx context.Context, channelID snowflake.ID, text, filename string, data io.Reader) error {
	_, err := a.rest.CreateMessage(channelID,
		discord.NewMessageCreateBuilder().
			SetContent(text).
			AddFiles(discord.NewFile(filename, "", data)).
			Build(),
		rest.WithCtx(ctx))
	if err != nil {
		return fmt.Errorf("failed to send file: %w", err)
	}

	return nil
}

// isNotFound reports whether a REST error is a 404 response.
func isNotFound(err error) bool {
	var restErr *rest.Error
	if !errors.As(err, &restErr) {
		return false
	}

	return restErr.Response != nil && restErr.Response.StatusCode == http.StatusNotFound
}
