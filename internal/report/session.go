// Package report implements the per-user report wizard: a finite state
// machine conducted over direct messages that resolves the message under
// report, collects a reason, and notifies moderators.
package report

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"github.com/disgoorg/snowflake/v2"
	"github.com/google/uuid"
	"github.com/robalyx/vigil/internal/bot/constants"
	"github.com/robalyx/vigil/internal/reference"
	"go.uber.org/zap"
)

// State identifies one step of the report wizard.
type State int

// Wizard states. StateComplete is terminal and reachable from every other
// state via the cancel keyword.
const (
	StateStart State = iota
	StateAwaitingMessageLink
	StateMessageIdentified
	StateViolence
	StateSpam
	StateHate
	StateFalseInfo
	StateHarassment
	StateSockPuppetCheck
	StateBlockUserChoice
	StateComplete
)

// Conversation keywords recognized in direct messages.
const (
	StartKeyword  = "report"
	CancelKeyword = "cancel"
	HelpKeyword   = "help"
)

// Link resolution errors. Each maps to a specific re-prompt; none of them
// terminates or advances the wizard.
var (
	ErrGuildNotFound   = errors.New("guild not reachable by this process")
	ErrChannelNotFound = errors.New("channel not found in guild")
	ErrMessageNotFound = errors.New("message not found in channel")
)

// messageLinkPattern extracts the guild/channel/message triple from a copied
// message link.
var messageLinkPattern = regexp.MustCompile(`/(\d+)/(\d+)/(\d+)`)

// Reply texts shared across states.
const (
	cancelledReply     = "Report cancelled."
	invalidChoiceReply = "I'm sorry, that's not one of the choices. Please try again or say `cancel` to cancel."
	badLinkReply       = "I'm sorry, I couldn't read that link. Please try again or say `cancel` to cancel."
	guildMissingReply  = "I cannot accept reports of messages from guilds that I'm not in. " +
		"Please have the guild owner add me to the guild and try again."
	channelMissingReply = "It seems this channel was deleted or never existed. Please try again or say `cancel` to cancel."
	messageMissingReply = "It seems this message was deleted or never existed. Please try again or say `cancel` to cancel."
)

// thanksReplies closes out a reason branch and offers the block/mute choice.
var thanksReplies = []string{
	"Thanks for letting us know. We'll use this information to alert our content moderation team " +
		"and improve our processes. The message will be reviewed, and the user and/or message will be " +
		"removed if appropriate.",
	"Would you also like to block or mute this user?",
	"1: Block, 2: Mute, 3: None",
}

// sockPuppetReplies asks the follow-up bound to the false-information and
// harassment branches.
var sockPuppetReplies = []string{
	"Do you suspect that this account is a bot or sock puppet user?",
	"1: yes",
	"2: no",
}

// TargetMessage is the resolved message under report. Set once, immutable
// thereafter.
type TargetMessage struct {
	GuildID    snowflake.ID
	ChannelID  snowflake.ID
	MessageID  snowflake.ID
	AuthorID   snowflake.ID
	AuthorName string
	Content    string

	// Monitored marks a target living in the guild's screened channel. The
	// reaction actions delete through that channel, so only monitored targets
	// get an actionable reference tag on the moderator notification.
	Monitored bool
}

// Resolver turns a parsed message link into the message it points at.
// Resolution is staged: the guild must be reachable (ErrGuildNotFound), the
// channel must exist in that guild (ErrChannelNotFound), and the message
// must be fetchable (ErrMessageNotFound).
type Resolver interface {
	ResolveMessage(ctx context.Context, guildID, channelID, messageID snowflake.ID) (*TargetMessage, error)
}

// Notifier posts to the moderator channel of a guild.
type Notifier interface {
	SendModerator(ctx context.Context, guildID snowflake.ID, text string) (snowflake.ID, error)
}

// Session is one user's in-progress report. It is owned exclusively by the
// reporting user's identity; the registry serializes access so no two
// transitions run concurrently on the same session.
type Session struct {
	id           uuid.UUID
	state        State
	target       *TargetMessage
	reporterName string
	resolver     Resolver
	notifier     Notifier
	logger       *zap.Logger
}

// NewSession creates a fresh wizard for the given reporter.
func NewSession(reporterName string, resolver Resolver, notifier Notifier, logger *zap.Logger) *Session {
	id := uuid.New()

	return &Session{
		id:           id,
		state:        StateStart,
		reporterName: reporterName,
		resolver:     resolver,
		notifier:     notifier,
		logger:       logger.Named("report").With(zap.String("reportID", id.String())),
	}
}

// ID returns the report identifier stamped on moderator notifications.
func (s *Session) ID() uuid.UUID { return s.id }

// State returns the wizard's current state.
func (s *Session) State() State { return s.state }

// Complete reports whether the wizard reached its terminal state.
func (s *Session) Complete() bool { return s.state == StateComplete }

// HandleMessage advances the wizard with one direct message from the
// reporting user and returns the replies to send back, in order. Invalid
// input never advances the state and yields exactly one re-prompt; the
// cancel keyword short-circuits to completion from any state.
func (s *Session) HandleMessage(ctx context.Context, content string) []string {
	if content == CancelKeyword {
		s.state = StateComplete
		return []string{cancelledReply}
	}

	switch s.state {
	case StateStart:
		s.state = StateAwaitingMessageLink

		return []string{
			"Thank you for starting the reporting process. " +
				"Say `help` at any time for more information.\n\n" +
				"Please copy paste the link to the message you want to report.\n" +
				"You can obtain this link by right-clicking the message and clicking `Copy Message Link`.",
		}

	case StateAwaitingMessageLink:
		return s.handleMessageLink(ctx, content)

	case StateMessageIdentified:
		guide, ok := guideByMenuKey(content)
		if !ok {
			return []string{invalidChoiceReply}
		}

		s.state = guide.state

		return guide.prompt

	case StateViolence, StateSpam, StateHate, StateFalseInfo, StateHarassment:
		return s.handleSubReason(ctx, content)

	case StateSockPuppetCheck:
		return s.handleSockPuppetCheck(ctx, content)

	case StateBlockUserChoice:
		return s.handleBlockChoice(content)

	case StateComplete:
	}

	return nil
}

// handleMessageLink resolves the reported message link. Any resolution
// failure re-prompts in the same state.
func (s *Session) handleMessageLink(ctx context.Context, content string) []string {
	m := messageLinkPattern.FindStringSubmatch(content)
	if m == nil {
		return []string{badLinkReply}
	}

	// The pattern only admits digit runs, so parse failures (overflow) are
	// treated like an unreadable link.
	guildID, err1 := snowflake.Parse(m[1])
	channelID, err2 := snowflake.Parse(m[2])
	messageID, err3 := snowflake.Parse(m[3])

	if err1 != nil || err2 != nil || err3 != nil {
		return []string{badLinkReply}
	}

	target, err := s.resolver.ResolveMessage(ctx, guildID, channelID, messageID)

	switch {
	case errors.Is(err, ErrGuildNotFound):
		return []string{guildMissingReply}
	case errors.Is(err, ErrChannelNotFound):
		return []string{channelMissingReply}
	case errors.Is(err, ErrMessageNotFound):
		return []string{messageMissingReply}
	case err != nil:
		s.logger.Error("Failed to resolve reported message", zap.Error(err))
		return []string{messageMissingReply}
	}

	s.target = target
	s.state = StateMessageIdentified

	replies := []string{
		"I found this message:",
		"```" + target.AuthorName + ": " + target.Content + "```",
	}

	return append(replies, reasonMenu()...)
}

// handleSubReason validates the sub-reason choice, notifies moderators
// exactly once, and advances to the sock-puppet question or straight to the
// block choice depending on the reason's policy.
func (s *Session) handleSubReason(ctx context.Context, content string) []string {
	guide, ok := guideByState(s.state)
	if !ok {
		return []string{invalidChoiceReply}
	}

	if _, valid := guide.choices[content]; !valid {
		return []string{invalidChoiceReply}
	}

	s.notifyModerators(ctx, guide.composeReason(content))

	if guide.askSockPuppet {
		s.state = StateSockPuppetCheck
		return sockPuppetReplies
	}

	s.state = StateBlockUserChoice

	return thanksReplies
}

// handleSockPuppetCheck records a suspected bot/sock-puppet account.
func (s *Session) handleSockPuppetCheck(ctx context.Context, content string) []string {
	if content != "1" && content != "2" {
		return []string{invalidChoiceReply}
	}

	if content == "1" {
		text := fmt.Sprintf("%s was also flagged as a possible bot or sock puppet account (report %s).",
			s.target.AuthorName, s.id)
		if _, err := s.notifier.SendModerator(ctx, s.target.GuildID, text); err != nil {
			s.logger.Error("Failed to send sock puppet notification", zap.Error(err))
		}
	}

	s.state = StateBlockUserChoice

	return thanksReplies
}

// handleBlockChoice finishes the wizard with the reporter's block/mute
// preference. Choosing neither completes silently.
func (s *Session) handleBlockChoice(content string) []string {
	switch content {
	case "1":
		s.state = StateComplete
		return []string{fmt.Sprintf("You blocked user %s.", s.target.AuthorName)}
	case "2":
		s.state = StateComplete
		return []string{fmt.Sprintf("You muted user %s.", s.target.AuthorName)}
	case "3":
		s.state = StateComplete
		return nil
	default:
		return []string{invalidChoiceReply}
	}
}

// notifyModerators posts the report to the target guild's moderator channel.
// Targets in the monitored channel carry the reference tag that later
// reactions decode; targets elsewhere are reported without one, since the
// delete action only reaches the monitored channel.
func (s *Session) notifyModerators(ctx context.Context, reason string) {
	text := fmt.Sprintf(
		"User-reported message (report %s):\n```%s: \"%s\"```\n"+
			"Message was flagged by user %s for \"%s\".",
		s.id, s.target.AuthorName, s.target.Content,
		s.reporterName, reason,
	)

	if s.target.Monitored {
		tag := reference.Tag{AuthorID: s.target.AuthorID, MessageID: s.target.MessageID}
		text += fmt.Sprintf(
			"\n**React with %s to delete the message, %s to suspend the author, or %s to view author analysis.**\n%s",
			constants.DeleteActionEmoji, constants.SuspendActionEmoji, constants.AnalyzeActionEmoji,
			tag.Spoiler(),
		)
	}

	if _, err := s.notifier.SendModerator(ctx, s.target.GuildID, text); err != nil {
		s.logger.Error("Failed to send report notification", zap.Error(err))
	}
}
