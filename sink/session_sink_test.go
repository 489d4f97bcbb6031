package sink

import (
	"testing"

	"chat-relay/domain/event"
	apperrors "chat-relay/errors"

	"github.com/stretchr/testify/require"
)

func TestSessionSink_DropsWhenFull(t *testing.T) {
	req := require.New(t)
	sessionSink := NewSessionSink(1)

	// Given a full buffer
	req.NoError(sessionSink.Consume(event.NewBroadcast("first")))

	// When one more event arrives
	err := sessionSink.Consume(event.NewBroadcast("second"))

	// Then it is dropped, not blocked on
	req.ErrorIs(err, apperrors.ErrSinkFull)

	// And the buffered event is intact
	got := <-sessionSink.Events
	req.Equal(map[string]string{"message": "first"}, got.Data)
}

func TestSessionSink_ConsumeAfterClose(t *testing.T) {
	req := require.New(t)
	sessionSink := NewSessionSink(4)

	sessionSink.Close()

	err := sessionSink.Consume(event.NewBroadcast("too late"))
	req.ErrorIs(err, apperrors.ErrSinkClosed)

	select {
	case <-sessionSink.Done():
	default:
		req.Fail("Done should be closed")
	}
}

func TestSessionSink_CloseIsIdempotent(t *testing.T) {
	sessionSink := NewSessionSink(4)
	sessionSink.Close()
	sessionSink.Close()
}
