package sink

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"chat-relay/domain/event"
	"chat-relay/errors"
)

func TestConnSink_Buffers_Events(t *testing.T) {
	req := require.New(t)
	s := NewConnSink(slog.Default(), 2, 10*time.Millisecond)

	req.NoError(s.Consume(context.Background(), event.NoticeBroadcast{Text: "a"}))
	req.NoError(s.Consume(context.Background(), event.NoticeBroadcast{Text: "b"}))

	req.Equal(event.NoticeBroadcast{Text: "a"}, <-s.Events)
	req.Equal(event.NoticeBroadcast{Text: "b"}, <-s.Events)
}

func TestConnSink_Drops_When_Consumer_Stalls(t *testing.T) {
	req := require.New(t)
	s := NewConnSink(slog.Default(), 1, 10*time.Millisecond)

	// Given a full buffer and no reader
	req.NoError(s.Consume(context.Background(), event.NoticeBroadcast{Text: "a"}))

	// Then the next delivery times out instead of blocking the fan-out
	err := s.Consume(context.Background(), event.NoticeBroadcast{Text: "b"})
	req.ErrorIs(err, errors.ErrBackpressure)
}

func TestConnSink_Honors_Context_Cancellation(t *testing.T) {
	req := require.New(t)
	s := NewConnSink(slog.Default(), 1, time.Minute)
	req.NoError(s.Consume(context.Background(), event.NoticeBroadcast{Text: "a"}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := s.Consume(ctx, event.NoticeBroadcast{Text: "b"})
	req.ErrorIs(err, context.Canceled)
}
