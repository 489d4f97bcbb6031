//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"context"
	"reflect"

	"chat-relay/domain"
	"chat-relay/domain/event"
)

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
	Start(ctx context.Context, worker Worker)
	Stop()
}

// Worker doesn't protect itself
// Can be silly, focused
type Worker interface {
	Run(ctx context.Context) error
}

// GetWorkerName uses reflection to retrieve the type name of the worker,
// avoiding the need for manual naming in the Worker interface.
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

// EventSink is one session's outbound channel. Consume must not block: a
// full sink reports the failure instead of stalling the caller, so one slow
// session never delays the broadcast task.
type EventSink interface {
	Consume(e event.Outbound) error
	Close()
}

type IRegistry interface {
	Register(sessionID string, sink EventSink) (domain.Session, error)
	Join(sessionID, displayName string) (domain.Session, error)
	Leave(sessionID string)
	Remove(sessionID string)
	Get(sessionID string) (domain.Session, EventSink, bool)
	ForEachActive(fn func(s domain.Session, sink EventSink))
	Count() int
}

// IBus is the backend bus client: one long-lived broadcast feed, one shared
// fire-and-forget push channel, and single-use request/reply exchanges.
type IBus interface {
	ListenFeed(ctx context.Context, handler func(text string)) error
	Push(text string) error
	Exchange(ctx context.Context, service, message string) (map[string]any, error)
}

// IRelay binds backend events to session events and vice versa.
type IRelay interface {
	Connect(sessionID string, sink EventSink) error
	Join(sessionID, displayName string)
	Chat(sessionID, message string)
	Leave(sessionID string)
	Exchange(ctx context.Context, sessionID string, req event.ExchangePayload)
	Disconnect(sessionID string)
	HandleBroadcast(text string)
}
