package runtime

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"chat-relay/domain"
	"chat-relay/domain/event"
	"chat-relay/errors"
)

type captureSink struct {
	mu     sync.Mutex
	events []event.Event
}

func (s *captureSink) Consume(_ context.Context, e event.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, e)
	return nil
}

func (s *captureSink) Received() []event.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]event.Event, len(s.events))
	copy(out, s.events)
	return out
}

type fakeStore struct {
	mu      sync.Mutex
	records []domain.Message
	recent  []domain.Message
	err     error
}

func (s *fakeStore) Append(m domain.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.records = append(s.records, m)
	return nil
}

func (s *fakeStore) Recent(_ int) ([]domain.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.recent, s.err
}

func newTestEngine(store *fakeStore) *Engine {
	return NewEngine(slog.Default(), NewRegistry(), NewSessionLimiter(500*time.Millisecond),
		NewRedactor("test-secret"), store, 200, domain.MaxMessageLength, 64)
}

// drain empties the engine's outbound channel without blocking.
func drain(e *Engine) []event.Event {
	var out []event.Event
	for {
		select {
		case evt := <-e.Events():
			out = append(out, evt)
		default:
			return out
		}
	}
}

func TestEngine_Connect_Replays_History_To_That_Sink_Only(t *testing.T) {
	req := require.New(t)
	store := &fakeStore{recent: []domain.Message{
		{ID: uuid.New(), DisplayName: "Alice", Text: "first", At: time.Now().UTC()},
		{ID: uuid.New(), DisplayName: "Bob", Text: "second", At: time.Now().UTC()},
	}}
	engine := newTestEngine(store)
	sinkA := &captureSink{}
	sinkB := &captureSink{}

	// Given a connected session
	engine.Connect(context.Background(), "203.0.113.7", sinkA)

	// When another session connects
	engine.Connect(context.Background(), "203.0.113.8", sinkB)

	// Then each sink got exactly its own replay
	eventsB := sinkB.Received()
	req.Len(eventsB, 1)
	replay, ok := eventsB[0].(event.HistoryReplay)
	req.True(ok)
	req.Len(replay.Messages, 2)
	req.Equal("first", replay.Messages[0].Text)
	req.Equal("second", replay.Messages[1].Text)
	req.Len(sinkA.Received(), 1)
}

func TestEngine_PostMessage_Accepts_And_Stamps(t *testing.T) {
	req := require.New(t)
	engine := newTestEngine(&fakeStore{})
	id := engine.Connect(context.Background(), "203.0.113.7", &captureSink{})

	// When the session posts a message before announcing
	req.NoError(engine.PostMessage(id, "  hello  "))

	// Then the accepted record is stamped and trimmed
	events := drain(engine)
	req.Len(events, 1)
	accepted, ok := events[0].(event.MessageAccepted)
	req.True(ok)
	req.Equal("hello", accepted.Message.Text)
	req.Equal(domain.AnonymousName, accepted.Message.DisplayName)
	req.Equal(id, accepted.Message.SessionID)
	req.NotEmpty(accepted.Message.IdentityToken)
	req.NotZero(accepted.Message.ID)
	req.False(accepted.Message.At.IsZero())
}

func TestEngine_PostMessage_Second_Inside_Interval_Is_Dropped(t *testing.T) {
	req := require.New(t)
	engine := newTestEngine(&fakeStore{})
	id := engine.Connect(context.Background(), "203.0.113.7", &captureSink{})

	// When two messages arrive back to back
	req.NoError(engine.PostMessage(id, "hi"))
	err := engine.PostMessage(id, "there")

	// Then the second is rejected and never enqueued
	req.ErrorIs(err, errors.ErrRateLimited)
	req.Len(drain(engine), 1)
}

func TestEngine_PostMessage_Rejects_Empty(t *testing.T) {
	req := require.New(t)
	engine := newTestEngine(&fakeStore{})
	id := engine.Connect(context.Background(), "203.0.113.7", &captureSink{})

	err := engine.PostMessage(id, "   \t ")

	req.ErrorIs(err, errors.ErrEmptyMessage)
	req.Empty(drain(engine))
}

func TestEngine_PostMessage_Truncates(t *testing.T) {
	req := require.New(t)
	engine := newTestEngine(&fakeStore{})
	id := engine.Connect(context.Background(), "203.0.113.7", &captureSink{})

	req.NoError(engine.PostMessage(id, strings.Repeat("a", 5000)))

	events := drain(engine)
	req.Len(events, 1)
	req.Len([]rune(events[0].(event.MessageAccepted).Message.Text), domain.MaxMessageLength)
}

func TestEngine_PostMessage_Unknown_Session(t *testing.T) {
	req := require.New(t)
	engine := newTestEngine(&fakeStore{})

	err := engine.PostMessage("nobody", "hi")

	req.ErrorIs(err, errors.ErrSessionUnknown)
}

func TestEngine_Announce_Emits_Join_Notice_With_Origin(t *testing.T) {
	req := require.New(t)
	engine := newTestEngine(&fakeStore{})
	id := engine.Connect(context.Background(), "203.0.113.7", &captureSink{})

	engine.Announce(id, "Alice")

	events := drain(engine)
	req.Len(events, 1)
	notice, ok := events[0].(event.NoticePosted)
	req.True(ok)
	req.Equal("Alice entered the chat.", notice.Text)
	req.Equal(id, notice.Origin)
}

func TestEngine_Typing_Notices(t *testing.T) {
	req := require.New(t)
	engine := newTestEngine(&fakeStore{})
	id := engine.Connect(context.Background(), "203.0.113.7", &captureSink{})
	engine.Announce(id, "Alice")
	drain(engine)

	engine.SetTyping(id, true)
	engine.SetTyping(id, false)

	events := drain(engine)
	req.Len(events, 2)
	req.Equal("Alice is typing...", events[0].(event.NoticePosted).Text)
	req.Equal("Alice stopped typing.", events[1].(event.NoticePosted).Text)
}

func TestEngine_Disconnect_After_Announce_Emits_One_Departure(t *testing.T) {
	req := require.New(t)
	engine := newTestEngine(&fakeStore{})
	id := engine.Connect(context.Background(), "203.0.113.7", &captureSink{})
	engine.Announce(id, "Alice")
	drain(engine)

	// When the transport reports the closure twice
	engine.Disconnect(id)
	engine.Disconnect(id)

	// Then cleanup happened exactly once
	events := drain(engine)
	req.Len(events, 1)
	req.Equal("Alice left the chat.", events[0].(event.NoticePosted).Text)
}

func TestEngine_Disconnect_Without_Announce_Is_Silent(t *testing.T) {
	req := require.New(t)
	engine := newTestEngine(&fakeStore{})
	id := engine.Connect(context.Background(), "203.0.113.7", &captureSink{})

	engine.Disconnect(id)

	req.Empty(drain(engine))
}

func TestEngine_Stats(t *testing.T) {
	req := require.New(t)
	engine := newTestEngine(&fakeStore{})
	id := engine.Connect(context.Background(), "203.0.113.7", &captureSink{})
	req.NoError(engine.PostMessage(id, "hi"))

	stats := engine.Stats()

	req.Equal(1, stats["sessions"])
	req.Equal(uint64(1), stats["accepted"])
}
