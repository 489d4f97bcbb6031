package sink

import (
	"sync"

	"chat-relay/domain/event"
	apperrors "chat-relay/errors"
)

// SessionSink is the bounded outbound buffer between the relay and one
// session's write pump. Consume never blocks: when the buffer is full the
// event is dropped and the caller told, so one stalled browser cannot hold
// up the broadcast task.
type SessionSink struct {
	Events chan event.Outbound

	closeOnce sync.Once
	done      chan struct{}
}

func NewSessionSink(bufferSize int) *SessionSink {
	return &SessionSink{
		Events: make(chan event.Outbound, bufferSize),
		done:   make(chan struct{}),
	}
}

func (s *SessionSink) Consume(e event.Outbound) error {
	select {
	case <-s.done:
		return apperrors.ErrSinkClosed
	default:
	}

	select {
	case s.Events <- e:
		return nil
	case <-s.done:
		return apperrors.ErrSinkClosed
	default:
		return apperrors.ErrSinkFull
	}
}

// Close wakes the write pump; events still buffered are discarded.
// Safe to call more than once.
func (s *SessionSink) Close() {
	s.closeOnce.Do(func() { close(s.done) })
}

// Done signals closure to the write pump.
func (s *SessionSink) Done() <-chan struct{} {
	return s.done
}
