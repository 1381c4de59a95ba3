package screening_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/robalyx/vigil/internal/history"
	"github.com/robalyx/vigil/internal/scoring"
	"github.com/robalyx/vigil/internal/screening"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// fakeScorer returns a fixed score set or error.
type fakeScorer struct {
	scores scoring.ScoreSet
	err    error
}

func (s *fakeScorer) Score(_ context.Context, _ string) (scoring.ScoreSet, error) {
	return s.scores, s.err
}

// memoryLog is an in-memory history.Log.
type memoryLog struct {
	mu        sync.Mutex
	records   []*history.Record
	appendErr error
}

func (l *memoryLog) Append(record *history.Record) error {
	if l.appendErr != nil {
		return l.appendErr
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.records = append(l.records, record)

	return nil
}

func (l *memoryLog) QueryByAuthor(authorID snowflake.ID) ([]*history.Record, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	var records []*history.Record

	for _, record := range l.records {
		if record.AuthorID == authorID {
			records = append(records, record)
		}
	}

	return records, nil
}

// fakeMessenger records moderator posts and reactions.
type fakeMessenger struct {
	mu        sync.Mutex
	posts     []string
	reactions []string
	sendErr   error
	reactErr  error
}

func (m *fakeMessenger) SendModerator(_ context.Context, _ snowflake.ID, text string) (snowflake.ID, error) {
	if m.sendErr != nil {
		return 0, m.sendErr
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.posts = append(m.posts, text)

	return snowflake.ID(len(m.posts)), nil
}

func (m *fakeMessenger) ReactModerator(_ context.Context, _, _ snowflake.ID, emoji string) error {
	if m.reactErr != nil {
		return m.reactErr
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.reactions = append(m.reactions, emoji)

	return nil
}

func newTestMessage() *history.Record {
	return &history.Record{
		MessageID:  300,
		ChannelID:  200,
		GuildID:    100,
		AuthorID:   400,
		AuthorName: "offender",
		Content:    "you are terrible",
		Timestamp:  time.Now().UTC(),
	}
}

func newTestPipeline(
	t *testing.T, scorer scoring.Client, messenger screening.Messenger,
) (*screening.Pipeline, *memoryLog) {
	t.Helper()

	log := &memoryLog{}

	return screening.New(scorer, scoring.DefaultThresholds(), log, messenger, zaptest.NewLogger(t)), log
}

func TestScreenFlaggedMessage(t *testing.T) {
	t.Parallel()

	scorer := &fakeScorer{scores: scoring.ScoreSet{
		scoring.CategoryToxicity:       0.91,
		scoring.CategoryInsult:         0.85,
		scoring.CategorySevereToxicity: 0.10,
	}}
	messenger := &fakeMessenger{}
	pipeline, log := newTestPipeline(t, scorer, messenger)

	msg := newTestMessage()
	require.NoError(t, pipeline.Screen(t.Context(), msg))

	// Exactly one moderator post, carrying the author, the verbatim body,
	// the flagged scores, and the reference tag
	require.Len(t, messenger.posts, 1)
	post := messenger.posts[0]
	assert.Contains(t, post, `offender: "you are terrible"`)
	assert.Contains(t, post, "TOXICITY: 0.91")
	assert.Contains(t, post, "INSULT: 0.85")
	assert.NotContains(t, post, "SEVERE_TOXICITY")
	assert.Contains(t, post, "[mr1:400:300]")

	// All three action reactions are seeded on the prompt
	assert.Equal(t, []string{"🗑️", "🔨", "📊"}, messenger.reactions)

	// The message is recorded regardless of flagging
	records, err := log.QueryByAuthor(msg.AuthorID)
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestScreenCleanMessage(t *testing.T) {
	t.Parallel()

	scorer := &fakeScorer{scores: scoring.ScoreSet{
		scoring.CategoryToxicity: 0.12,
		scoring.CategoryInsult:   0.05,
	}}
	messenger := &fakeMessenger{}
	pipeline, log := newTestPipeline(t, scorer, messenger)

	msg := newTestMessage()
	require.NoError(t, pipeline.Screen(t.Context(), msg))

	// No moderator post, but the record still lands in history
	assert.Empty(t, messenger.posts)
	assert.Empty(t, messenger.reactions)

	records, err := log.QueryByAuthor(msg.AuthorID)
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestScreenFailsOpenOnScoringError(t *testing.T) {
	t.Parallel()

	scorer := &fakeScorer{err: fmt.Errorf("%w: timeout", scoring.ErrScoringUnavailable)}
	messenger := &fakeMessenger{}
	pipeline, log := newTestPipeline(t, scorer, messenger)

	// A scoring outage passes the message through without a flag or error
	require.NoError(t, pipeline.Screen(t.Context(), newTestMessage()))
	assert.Empty(t, messenger.posts)

	records, err := log.QueryByAuthor(400)
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestScreenHistoryFailureDoesNotBlockFlagging(t *testing.T) {
	t.Parallel()

	scorer := &fakeScorer{scores: scoring.ScoreSet{scoring.CategoryThreat: 0.99}}
	messenger := &fakeMessenger{}
	log := &memoryLog{appendErr: errors.New("disk full")}
	pipeline := screening.New(scorer, scoring.DefaultThresholds(), log, messenger, zaptest.NewLogger(t))

	require.NoError(t, pipeline.Screen(t.Context(), newTestMessage()))
	assert.Len(t, messenger.posts, 1)
}

func TestScreenSendFailureSurfaces(t *testing.T) {
	t.Parallel()

	scorer := &fakeScorer{scores: scoring.ScoreSet{scoring.CategoryThreat: 0.99}}
	messenger := &fakeMessenger{sendErr: errors.New("channel gone")}
	pipeline, _ := newTestPipeline(t, scorer, messenger)

	require.Error(t, pipeline.Screen(t.Context(), newTestMessage()))
}

func TestScreenReactionFailureKeepsPrompt(t *testing.T) {
	t.Parallel()

	scorer := &fakeScorer{scores: scoring.ScoreSet{scoring.CategoryThreat: 0.99}}
	messenger := &fakeMessenger{reactErr: errors.New("rate limited")}
	pipeline, _ := newTestPipeline(t, scorer, messenger)

	// Failed reaction seeding still leaves the prompt standing
	require.NoError(t, pipeline.Screen(t.Context(), newTestMessage()))
	assert.Len(t, messenger.posts, 1)
	assert.Empty(t, messenger.reactions)
}

func TestScreenBoundaryScoreFlags(t *testing.T) {
	t.Parallel()

	// A score exactly at its threshold flags
	scorer := &fakeScorer{scores: scoring.ScoreSet{scoring.CategoryToxicity: 0.70}}
	messenger := &fakeMessenger{}
	pipeline, _ := newTestPipeline(t, scorer, messenger)

	require.NoError(t, pipeline.Screen(t.Context(), newTestMessage()))
	require.Len(t, messenger.posts, 1)
	assert.Contains(t, messenger.posts[0], "TOXICITY: 0.70")
}
