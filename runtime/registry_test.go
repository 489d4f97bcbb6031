package runtime

import (
	"testing"

	"chat-relay/contract"
	"chat-relay/domain"
	"chat-relay/domain/event"
	apperrors "chat-relay/errors"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

type nopSink struct{}

func (nopSink) Consume(event.Outbound) error { return nil }
func (nopSink) Close()                       {}

func TestRegistry_Register_Duplicate(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	sessionID := uuid.NewString()

	// Given a registered session
	s, err := registry.Register(sessionID, nopSink{})
	req.NoError(err)
	req.Equal(sessionID, s.ID)
	req.False(s.Joined)

	// When the same identifier registers again
	_, err = registry.Register(sessionID, nopSink{})

	// Then the duplicate is refused
	req.ErrorIs(err, apperrors.ErrDuplicateSession)
	req.Equal(1, registry.Count())
}

func TestRegistry_Join_Unknown(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()

	_, err := registry.Join(uuid.NewString(), "Alice")

	req.ErrorIs(err, apperrors.ErrUnknownSession)
}

func TestRegistry_Join_SetsNameAndMembership(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	sessionID := uuid.NewString()
	_, err := registry.Register(sessionID, nopSink{})
	req.NoError(err)

	s, err := registry.Join(sessionID, "Alice")

	req.NoError(err)
	req.True(s.Joined)
	req.Equal("Alice", s.Name)

	got, _, ok := registry.Get(sessionID)
	req.True(ok)
	req.True(got.Joined)
}

func TestRegistry_LeaveAndRemove_Idempotent(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	sessionID := uuid.NewString()
	_, err := registry.Register(sessionID, nopSink{})
	req.NoError(err)
	_, err = registry.Join(sessionID, "Alice")
	req.NoError(err)

	// When leaving twice and removing twice
	registry.Leave(sessionID)
	registry.Leave(sessionID)
	registry.Remove(sessionID)
	registry.Remove(sessionID)

	// Then no error surfaced and the session is gone
	req.Equal(0, registry.Count())

	// And unknown identifiers are a no-op too
	registry.Leave(uuid.NewString())
	registry.Remove(uuid.NewString())
}

func TestRegistry_ForEachActive_RegistrationOrder(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()

	ids := []string{uuid.NewString(), uuid.NewString(), uuid.NewString()}
	for i, id := range ids {
		_, err := registry.Register(id, nopSink{})
		req.NoError(err)
		// The middle session never joins
		if i != 1 {
			_, err = registry.Join(id, "User")
			req.NoError(err)
		}
	}

	var seen []string
	registry.ForEachActive(func(s domain.Session, _ contract.EventSink) {
		seen = append(seen, s.ID)
	})

	// Then only joined sessions appear, in registration order
	req.Equal([]string{ids[0], ids[2]}, seen)
}

func TestRegistry_ForEachActive_MutationDuringIteration(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()

	ids := []string{uuid.NewString(), uuid.NewString()}
	for _, id := range ids {
		_, err := registry.Register(id, nopSink{})
		req.NoError(err)
		_, err = registry.Join(id, "User")
		req.NoError(err)
	}

	// When the callback mutates the registry mid-iteration
	count := 0
	registry.ForEachActive(func(s domain.Session, _ contract.EventSink) {
		count++
		registry.Remove(ids[0])
	})

	// Then the snapshot stays consistent and nothing deadlocks
	req.Equal(2, count)
	req.Equal(1, registry.Count())
}
