// Package sink provides EventSink implementations bridging the fan-out
// loop to individual consumers.
package sink

import (
	"context"
	"log/slog"
	"time"

	"chat-relay/domain/event"
	"chat-relay/errors"
)

// ConnSink buffers events for one connection. Consume is called by the
// broadcast worker; the transport's writer goroutine drains Events onto
// the wire. The timeout bounds how long one slow recipient can hold the
// fan-out loop, keeping recipients failure-isolated from each other.
type ConnSink struct {
	Events  chan event.Event
	log     *slog.Logger
	timeout time.Duration
}

func NewConnSink(log *slog.Logger, bufferSize int, timeout time.Duration) *ConnSink {
	return &ConnSink{
		Events:  make(chan event.Event, bufferSize),
		log:     log,
		timeout: timeout,
	}
}

func (s *ConnSink) Consume(ctx context.Context, e event.Event) error {
	select {
	case s.Events <- e:
		return nil
	default:
	}

	timer := time.NewTimer(s.timeout)
	defer timer.Stop()
	select {
	case s.Events <- e:
		return nil
	case <-timer.C:
		s.log.Debug("Sink buffer full, event lost", "kind", e.EventKind())
		return errors.ErrBackpressure
	case <-ctx.Done():
		return ctx.Err()
	}
}
