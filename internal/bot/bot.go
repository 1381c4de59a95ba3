// Package bot wires the chat gateway to the moderation workflow: direct
// messages flow into the report wizard, monitored-channel messages into the
// screening pipeline, and moderator reactions into the action dispatcher.
package bot

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"sync"
	"time"

	"github.com/disgoorg/disgo"
	disgobot "github.com/disgoorg/disgo/bot"
	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/events"
	"github.com/disgoorg/disgo/gateway"
	"github.com/disgoorg/snowflake/v2"
	"github.com/robalyx/vigil/internal/bot/constants"
	"github.com/robalyx/vigil/internal/dispatch"
	"github.com/robalyx/vigil/internal/history"
	"github.com/robalyx/vigil/internal/report"
	"github.com/robalyx/vigil/internal/screening"
	"github.com/robalyx/vigil/internal/scoring"
	"github.com/robalyx/vigil/pkg/utils"
	"go.uber.org/zap"
)

// readyTimeout bounds how long Start waits for the gateway to come up and
// resolve at least one guild's channel pair.
const readyTimeout = 30 * time.Second

// eventTimeout bounds the platform work done for one inbound event.
const eventTimeout = 60 * time.Second

// groupNamePattern extracts the deployment's group number from the bot's own
// display name ("Group 14 Bot" -> 14).
var groupNamePattern = regexp.MustCompile(`[gG]roup (\d+) [bB]ot`)

var (
	// ErrGroupNumberNotFound means neither configuration nor the bot's
	// display name yields a group number; the process refuses to start.
	ErrGroupNumberNotFound = errors.New(
		"group number not found: configure bot.group_number or name the bot \"Group # Bot\"")

	// ErrNoChannelsResolved means no guild exposed the expected channel pair
	// before the ready timeout.
	ErrNoChannelsResolved = errors.New(
		"no guild with the expected monitored and moderator channels was found")
)

// Bot owns the gateway connection and routes its events to the workflow
// components.
type Bot struct {
	client     disgobot.Client
	registry   *report.Registry
	pipeline   *screening.Pipeline
	dispatcher *dispatch.Dispatcher
	channels   *channelDirectory
	logger     *zap.Logger

	groupNumber int

	mu         sync.Mutex
	selfID     snowflake.ID
	resolved   chan struct{}
	resolveErr error
}

// New creates the bot and every workflow component behind it. A groupNumber
// of zero defers group resolution to the bot's display name at ready time.
func New(
	token string,
	groupNumber int,
	scorer scoring.Client,
	thresholds scoring.ThresholdTable,
	historyLog history.Log,
	logger *zap.Logger,
) (*Bot, error) {
	b := &Bot{
		channels:    newChannelDirectory(),
		logger:      logger.Named("bot"),
		groupNumber: groupNumber,
		resolved:    make(chan struct{}),
	}

	client, err := disgo.New(token,
		disgobot.WithGatewayConfigOpts(
			gateway.WithIntents(
				gateway.IntentGuilds,
				gateway.IntentGuildMessages,
				gateway.IntentGuildMessageReactions,
				gateway.IntentDirectMessages,
				gateway.IntentMessageContent,
			),
		),
		disgobot.WithEventListeners(&events.ListenerAdapter{
			OnReady:              b.onReady,
			OnGuildReady:         b.onGuildReady,
			OnGuildJoin:          b.onGuildJoin,
			OnMessageCreate:      b.onMessageCreate,
			OnMessageUpdate:      b.onMessageUpdate,
			OnMessageReactionAdd: b.onMessageReactionAdd,
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create gateway client: %w", err)
	}

	adapter := newPlatformAdapter(client.Rest(), b.channels, logger)

	b.client = client
	b.registry = report.NewRegistry(adapter, adapter, logger)
	b.pipeline = screening.New(scorer, thresholds, historyLog, adapter, logger)
	b.dispatcher = dispatch.New(adapter, historyLog, logger)

	return b, nil
}

// Start opens the gateway connection and waits until at least one guild's
// monitored and moderator channels are resolved. An unresolvable group
// number or channel pair is a startup failure, not a degraded run.
func (b *Bot) Start(ctx context.Context) error {
	if err := b.client.OpenGateway(ctx); err != nil {
		return fmt.Errorf("failed to open gateway: %w", err)
	}

	select {
	case <-b.resolved:
		b.mu.Lock()
		err := b.resolveErr
		b.mu.Unlock()

		if err != nil {
			return err
		}
	case <-time.After(readyTimeout):
		if b.channels.registeredGuilds() == 0 {
			return ErrNoChannelsResolved
		}
	case <-ctx.Done():
		return ctx.Err()
	}

	b.logger.Info("Bot started",
		zap.Int("groupNumber", b.groupNumber),
		zap.Int("guilds", b.channels.registeredGuilds()))

	return nil
}

// Close shuts down the gateway connection.
func (b *Bot) Close(ctx context.Context) {
	b.client.Close(ctx)
}

// onReady records the bot's own identity and resolves the group number from
// its display name when configuration left it unset.
func (b *Bot) onReady(event *events.Ready) {
	b.mu.Lock()
	b.selfID = event.User.ID

	if b.groupNumber == 0 {
		m := groupNamePattern.FindStringSubmatch(event.User.Username)
		if m == nil {
			b.resolveErr = fmt.Errorf("%w: %q", ErrGroupNumberNotFound, event.User.Username)
			b.mu.Unlock()
			close(b.resolved)

			return
		}

		b.groupNumber, _ = strconv.Atoi(m[1])
	}
	b.mu.Unlock()

	b.logger.Info("Gateway ready",
		zap.String("username", event.User.Username),
		zap.Int("groupNumber", b.groupNumber))
}

func (b *Bot) onGuildReady(event *events.GuildReady) {
	b.resolveGuild(event.Guild.ID, event.Guild.Name)
}

func (b *Bot) onGuildJoin(event *events.GuildJoin) {
	b.resolveGuild(event.Guild.ID, event.Guild.Name)
}

// resolveGuild finds the guild's monitored and moderator channels by the
// group naming convention and registers the pair. Guilds without both
// channels are left unrouted.
func (b *Bot) resolveGuild(guildID snowflake.ID, guildName string) {
	b.mu.Lock()
	groupNumber := b.groupNumber
	b.mu.Unlock()

	if groupNumber == 0 {
		return
	}

	channels, err := b.client.Rest().GetGuildChannels(guildID)
	if err != nil {
		b.logger.Error("Failed to list guild channels",
			zap.Uint64("guildID", uint64(guildID)),
			zap.Error(err))

		return
	}

	var monitoredID, moderatorID snowflake.ID

	monitoredName := constants.MonitoredChannelName(groupNumber)
	moderatorName := constants.ModeratorChannelName(groupNumber)

	for _, channel := range channels {
		if channel.Type() != discord.ChannelTypeGuildText {
			continue
		}

		switch channel.Name() {
		case monitoredName:
			monitoredID = channel.ID()
		case moderatorName:
			moderatorID = channel.ID()
		}
	}

	if monitoredID == 0 || moderatorID == 0 {
		b.logger.Error("Guild is missing the expected channels",
			zap.String("guild", guildName),
			zap.String("monitored", monitoredName),
			zap.String("moderator", moderatorName))

		return
	}

	b.channels.register(guildID, monitoredID, moderatorID)

	b.logger.Info("Resolved guild channels",
		zap.String("guild", guildName),
		zap.Uint64("monitoredID", uint64(monitoredID)),
		zap.Uint64("moderatorID", uint64(moderatorID)))

	b.signalResolved()
}

// signalResolved unblocks Start after the first successful registration.
func (b *Bot) signalResolved() {
	b.mu.Lock()
	defer b.mu.Unlock()

	select {
	case <-b.resolved:
	default:
		close(b.resolved)
	}
}

// onMessageCreate routes a new message by its context. Direct messages are
// handled inline so one user's report messages are processed in arrival
// order; monitored-channel screening has no cross-message ordering needs and
// runs as its own task.
func (b *Bot) onMessageCreate(event *events.MessageCreate) {
	b.routeMessage(event.Message, event.GuildID)
}

// onMessageUpdate treats an edited message as a new one and re-enters the
// same routing from scratch.
func (b *Bot) onMessageUpdate(event *events.MessageUpdate) {
	b.routeMessage(event.Message, event.GuildID)
}

func (b *Bot) routeMessage(message discord.Message, guildID *snowflake.ID) {
	b.mu.Lock()
	selfID := b.selfID
	b.mu.Unlock()

	if message.Author.ID == selfID || message.Author.Bot {
		return
	}

	// Flatten adversarial unicode before any screening or command matching
	content := utils.NormalizeText(message.Content)

	if guildID == nil {
		b.handleDirectMessage(message, content)
		return
	}

	if !b.channels.isMonitored(*guildID, message.ChannelID) {
		return
	}

	record := &history.Record{
		MessageID:  message.ID,
		ChannelID:  message.ChannelID,
		GuildID:    *guildID,
		AuthorID:   message.Author.ID,
		AuthorName: message.Author.Username,
		Content:    content,
		Timestamp:  message.CreatedAt,
	}

	for _, mention := range message.Mentions {
		record.Mentions = append(record.Mentions, mention.ID)
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), eventTimeout)
		defer cancel()

		if err := b.pipeline.Screen(ctx, record); err != nil {
			b.logger.Error("Failed to screen message",
				zap.Uint64("messageID", uint64(record.MessageID)),
				zap.Error(err))
		}
	}()
}

// handleDirectMessage advances the sender's report session and sends each
// reply back over the same direct-message channel, in order.
func (b *Bot) handleDirectMessage(message discord.Message, content string) {
	ctx, cancel := context.WithTimeout(context.Background(), eventTimeout)
	defer cancel()

	replies := b.registry.HandleDirectMessage(ctx, message.Author.ID, message.Author.Username, content)

	for _, reply := range replies {
		_, err := b.client.Rest().CreateMessage(message.ChannelID,
			discord.NewMessageCreateBuilder().SetContent(reply).Build())
		if err != nil {
			b.logger.Error("Failed to send report reply",
				zap.Uint64("userID", uint64(message.Author.ID)),
				zap.Error(err))

			return
		}
	}
}

// onMessageReactionAdd forwards moderator-channel reactions to the action
// dispatcher.
func (b *Bot) onMessageReactionAdd(event *events.MessageReactionAdd) {
	b.mu.Lock()
	selfID := b.selfID
	b.mu.Unlock()

	if event.UserID == selfID || event.GuildID == nil {
		return
	}

	if !b.channels.isModerator(*event.GuildID, event.ChannelID) {
		return
	}

	emoji := ""
	if event.Emoji.Name != nil {
		emoji = *event.Emoji.Name
	}

	guildID := *event.GuildID

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), eventTimeout)
		defer cancel()

		if err := b.dispatcher.HandleReaction(ctx, guildID, event.ChannelID, event.MessageID, emoji); err != nil {
			b.logger.Error("Failed to dispatch moderator action",
				zap.Uint64("messageID", uint64(event.MessageID)),
				zap.String("emoji", emoji),
				zap.Error(err))
		}
	}()
}
