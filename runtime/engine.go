// Package runtime hosts the broadcast engine and the shared state it
// mediates: the session registry and the per-session rate limiter.
// It orchestrates the relay without containing transport logic.
package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"chat-relay/contract"
	"chat-relay/domain"
	"chat-relay/domain/event"
	"chat-relay/errors"
)

// Engine is the serialization point of the relay. Every inbound session
// event lands here; accepted messages and notices leave through a single
// buffered channel drained by the broadcast worker, so fan-out order
// matches acceptance order.
type Engine struct {
	log          *slog.Logger
	registry     contract.IRegistry
	limiter      contract.IRateLimiter
	redactor     contract.IRedactor
	store        contract.IHistoryStore
	historyLimit int
	maxLength    int

	// mu serializes admission, timestamping, and enqueue so that
	// timestamps are non-decreasing in channel (and so append) order.
	mu     sync.Mutex
	events chan event.Event

	accepted atomic.Uint64
	dropped  atomic.Uint64
}

func NewEngine(log *slog.Logger, registry contract.IRegistry, limiter contract.IRateLimiter,
	redactor contract.IRedactor, store contract.IHistoryStore,
	historyLimit, maxLength, bufferSize int) *Engine {
	return &Engine{
		log:          log,
		registry:     registry,
		limiter:      limiter,
		redactor:     redactor,
		store:        store,
		historyLimit: historyLimit,
		maxLength:    maxLength,
		events:       make(chan event.Event, bufferSize),
	}
}

// Events exposes the outbound channel consumed by the broadcast worker.
func (e *Engine) Events() chan event.Event { return e.events }

// Connect creates the session, registers it, and replays recent history
// to that one sink only. Messages accepted between the history fetch and
// the first live delivery may reach the client twice; clients key their
// display on the message id.
func (e *Engine) Connect(ctx context.Context, remoteAddress string, sink contract.EventSink) domain.SessionID {
	session := domain.NewSession(e.redactor.Hash(remoteAddress))
	e.registry.Register(session, sink)

	messages, err := e.store.Recent(e.historyLimit)
	if err != nil {
		e.log.Warn("History replay failed", "session_id", session.ID, "error", err)
		return session.ID
	}
	replay := event.HistoryReplay{
		Messages: lo.Map(messages, func(m domain.Message, _ int) domain.PublicMessage {
			return m.Public()
		}),
	}
	if err = sink.Consume(ctx, replay); err != nil {
		e.log.Warn("History delivery failed", "session_id", session.ID, "error", err)
	}
	return session.ID
}

// Announce sets the display name and tells everyone else. The joining
// session does not receive its own join notice.
func (e *Engine) Announce(id domain.SessionID, name string) {
	effective, ok := e.registry.SetDisplayName(id, name)
	if !ok {
		return
	}
	e.dispatch(event.NoticePosted{
		Text:   fmt.Sprintf("%s entered the chat.", effective),
		Origin: id,
	})
}

// SetTyping flips the typing flag and notifies the other sessions.
// Typing events are not rate limited.
func (e *Engine) SetTyping(id domain.SessionID, typing bool) {
	session, ok := e.registry.Get(id)
	if !ok {
		return
	}
	e.registry.SetTyping(id, typing)
	text := fmt.Sprintf("%s is typing...", session.DisplayName)
	if !typing {
		text = fmt.Sprintf("%s stopped typing.", session.DisplayName)
	}
	e.dispatch(event.NoticePosted{Text: text, Origin: id})
}

// PostMessage runs the acceptance path: trim, reject empty, admit
// through the rate limiter, truncate, stamp, enqueue. Rejections are
// silent to the sender; the returned error is for transport logging.
func (e *Engine) PostMessage(id domain.SessionID, text string) error {
	session, ok := e.registry.Get(id)
	if !ok {
		return errors.ErrSessionUnknown
	}
	text, err := domain.SanitizeText(text, e.maxLength)
	if err != nil {
		return err
	}

	e.mu.Lock()
	now := time.Now().UTC()
	if !e.limiter.Allow(id, now) {
		e.mu.Unlock()
		e.dropped.Add(1)
		return errors.ErrRateLimited
	}
	message := domain.Message{
		ID:            uuid.New(),
		SessionID:     id,
		IdentityToken: session.IdentityToken,
		DisplayName:   session.DisplayName,
		Text:          text,
		At:            now,
	}
	accepted := e.dispatch(event.MessageAccepted{Message: message})
	e.mu.Unlock()

	if !accepted {
		return errors.ErrBackpressure
	}
	e.accepted.Add(1)
	return nil
}

// Disconnect removes the session exactly once, drops its limiter state,
// and emits a departure notice only if the session had announced a name.
func (e *Engine) Disconnect(id domain.SessionID) {
	session, ok := e.registry.Remove(id)
	if !ok {
		return
	}
	e.limiter.Forget(id)
	if !session.Announced {
		return
	}
	e.dispatch(event.NoticePosted{
		Text:   fmt.Sprintf("%s left the chat.", session.DisplayName),
		Origin: id,
	})
}

func (e *Engine) Stats() map[string]any {
	return map[string]any{
		"sessions": e.registry.Len(),
		"accepted": e.accepted.Load(),
		"dropped":  e.dropped.Load(),
	}
}

// dispatch enqueues without blocking. A full channel means the broadcast
// worker is far behind; the event is dropped before any append so the
// append/broadcast pairing still holds.
func (e *Engine) dispatch(evt event.Event) bool {
	select {
	case e.events <- evt:
		return true
	default:
		e.dropped.Add(1)
		e.log.Warn("Event channel full, dropping event", "kind", evt.EventKind())
		return false
	}
}
