//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"context"
	"reflect"
	"time"

	"chat-relay/domain"
	"chat-relay/domain/event"
)

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
	Start(ctx context.Context, worker Worker)
	Stop()
}

type WorkerName string

// Worker doesn't protect itself
// Can be silly, focused
type Worker interface {
	Run(ctx context.Context) error
}

// GetWorkerName uses reflection to retrieve the type name of the worker.
// This is used for logging and supervision purposes during worker initialization
// or lifecycle events, avoiding the need for manual naming in the Worker interface.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}

type EventSink interface {
	Consume(ctx context.Context, e event.Event) error
}

// Member pairs a session with its delivery sink for fan-out.
type Member struct {
	ID   domain.SessionID
	Sink EventSink
}

type IRegistry interface {
	Register(session *domain.Session, sink EventSink)
	SetDisplayName(id domain.SessionID, name string) (string, bool)
	SetTyping(id domain.SessionID, typing bool)
	Remove(id domain.SessionID) (*domain.Session, bool)
	Get(id domain.SessionID) (*domain.Session, bool)
	Snapshot() []Member
	Len() int
}

type IRateLimiter interface {
	Allow(id domain.SessionID, now time.Time) bool
	Forget(id domain.SessionID)
}

type IRedactor interface {
	Hash(rawAddress string) string
}

type IHistoryStore interface {
	Append(message domain.Message) error
	Recent(limit int) ([]domain.Message, error)
}

type IEngine interface {
	Connect(ctx context.Context, remoteAddress string, sink EventSink) domain.SessionID
	Announce(id domain.SessionID, name string)
	SetTyping(id domain.SessionID, typing bool)
	PostMessage(id domain.SessionID, text string) error
	Disconnect(id domain.SessionID)
	Stats() map[string]any
}
