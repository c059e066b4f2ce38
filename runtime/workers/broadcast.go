package workers

import (
	"context"
	"log/slog"

	"chat-relay/contract"
	"chat-relay/domain"
	"chat-relay/domain/event"
)

// Ensure *BroadcastWorker implements the contract.Worker interface at
// compile time.
var _ contract.Worker = (*BroadcastWorker)(nil)

// BroadcastWorker is the single consumer of the engine's event channel.
// One goroutine draining one channel is what makes broadcast order equal
// append order for every recipient: messages are persisted and fanned
// out strictly in acceptance order.
type BroadcastWorker struct {
	log      *slog.Logger
	registry contract.IRegistry
	store    contract.IHistoryStore
	events   <-chan event.Event
}

func NewBroadcastWorker(log *slog.Logger, registry contract.IRegistry,
	store contract.IHistoryStore, events <-chan event.Event) *BroadcastWorker {
	return &BroadcastWorker{
		log:      log,
		registry: registry,
		store:    store,
		events:   events,
	}
}

func (w *BroadcastWorker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Context done, stopping broadcast worker")
			return nil
		case evt, ok := <-w.events:
			if !ok {
				w.log.Debug("Event channel closed")
				return nil
			}
			w.handle(ctx, evt)
		}
	}
}

func (w *BroadcastWorker) handle(ctx context.Context, evt event.Event) {
	switch e := evt.(type) {
	case event.MessageAccepted:
		// Persist first, then fan out. An append failure is logged and
		// does not block delivery.
		if err := w.store.Append(e.Message); err != nil {
			w.log.Error("Persisting message failed",
				"message_id", e.Message.ID,
				"error", err)
		}
		w.fanout(ctx, event.MessageBroadcast{Message: e.Message.Public()}, "")
	case event.NoticePosted:
		w.fanout(ctx, event.NoticeBroadcast{Text: e.Text}, e.Origin)
	default:
		w.log.Debug("Unhandled event kind", "kind", evt.EventKind())
	}
}

// fanout delivers one event to the current registry snapshot, skipping
// the origin session when one is set. A failed or slow recipient only
// loses its own copy; sinks bound how long a delivery may take.
func (w *BroadcastWorker) fanout(ctx context.Context, evt event.Event, origin domain.SessionID) {
	for _, m := range w.registry.Snapshot() {
		if origin != "" && m.ID == origin {
			continue
		}
		if err := m.Sink.Consume(ctx, evt); err != nil {
			w.log.Debug("Delivery failed",
				"session_id", m.ID,
				"kind", evt.EventKind(),
				"error", err)
		}
	}
}
