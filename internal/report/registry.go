package report

import (
	"context"
	"strings"
	"sync"

	"github.com/disgoorg/snowflake/v2"
	"go.uber.org/zap"
)

// helpReplies answers the help keyword outside of any session.
var helpReplies = []string{
	"Use the `report` command to begin the reporting process.\n" +
		"Use the `cancel` command to cancel the report process.\n",
}

// Registry holds the active report session per reporting user and enforces
// at most one session per user identity. Sessions live in memory only; an
// abandoned session persists until cancelled or the process restarts, which
// is a known resource-leak risk accepted by design.
type Registry struct {
	mu       sync.Mutex
	sessions map[snowflake.ID]*sessionEntry
	resolver Resolver
	notifier Notifier
	logger   *zap.Logger
}

// sessionEntry pairs a session with the mutex that serializes its
// transitions. The per-entry mutex spans the whole transition, so two
// concurrent direct messages from the same user are processed one after the
// other in arrival order.
type sessionEntry struct {
	mu      sync.Mutex
	session *Session
}

// NewRegistry creates an empty session registry.
func NewRegistry(resolver Resolver, notifier Notifier, logger *zap.Logger) *Registry {
	return &Registry{
		sessions: make(map[snowflake.ID]*sessionEntry),
		resolver: resolver,
		notifier: notifier,
		logger:   logger.Named("registry"),
	}
}

// HandleDirectMessage routes one direct message through the sender's active
// session, creating one when the start keyword opens the conversation, and
// returns the replies to send back. Messages from users without an active
// session that do not start a report yield no reply. A start keyword while a
// session is already active resumes that session instead of creating a
// second one.
func (r *Registry) HandleDirectMessage(ctx context.Context, userID snowflake.ID, username, content string) []string {
	if content == HelpKeyword {
		return helpReplies
	}

	r.mu.Lock()

	entry, ok := r.sessions[userID]
	if !ok {
		if !strings.HasPrefix(content, StartKeyword) {
			r.mu.Unlock()
			return nil
		}

		entry = &sessionEntry{session: NewSession(username, r.resolver, r.notifier, r.logger)}
		r.sessions[userID] = entry

		r.logger.Debug("Opened report session",
			zap.Uint64("userID", uint64(userID)),
			zap.String("reportID", entry.session.ID().String()))
	}

	r.mu.Unlock()

	entry.mu.Lock()
	defer entry.mu.Unlock()

	// A task that grabbed the entry just before another one removed it sees
	// the terminal state and replies nothing.
	if entry.session.Complete() {
		return nil
	}

	replies := entry.session.HandleMessage(ctx, content)

	if entry.session.Complete() {
		r.mu.Lock()
		delete(r.sessions, userID)
		r.mu.Unlock()

		r.logger.Debug("Closed report session",
			zap.Uint64("userID", uint64(userID)),
			zap.String("reportID", entry.session.ID().String()))
	}

	return replies
}

// Active reports whether the given user has a session in progress.
func (r *Registry) Active(userID snowflake.ID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, ok := r.sessions[userID]

	return ok
}

// Len returns the number of active sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.sessions)
}
