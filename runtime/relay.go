package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"chat-relay/contract"
	"chat-relay/domain"
	"chat-relay/domain/event"
)

// Relay routes between the backend bus and connected sessions. No business
// logic beyond naming, membership checks and fan-out lives here.
type Relay struct {
	log             *slog.Logger
	bus             contract.IBus
	registry        contract.IRegistry
	exchangeTimeout time.Duration
}

func NewRelay(log *slog.Logger, bus contract.IBus, registry contract.IRegistry,
	exchangeTimeout time.Duration) *Relay {
	return &Relay{log: log, bus: bus, registry: registry, exchangeTimeout: exchangeTimeout}
}

// Connect registers a fresh session with membership off.
func (r *Relay) Connect(sessionID string, sink contract.EventSink) error {
	if _, err := r.registry.Register(sessionID, sink); err != nil {
		r.log.Error("Session registration refused", "session_id", sessionID, "error", err)
		return err
	}
	r.log.Info("Web client connected", "session_id", sessionID)
	return nil
}

// HandleBroadcast fans one feed message out to every active session, in
// registration order. Slow sessions drop; the feed task never waits.
func (r *Relay) HandleBroadcast(text string) {
	evt := event.NewBroadcast(text)
	r.registry.ForEachActive(func(s domain.Session, sink contract.EventSink) {
		if err := sink.Consume(evt); err != nil {
			r.log.Warn("Dropping broadcast for slow session", "session_id", s.ID, "error", err)
		}
	})
}

// Join flips membership on, confirms to the joiner and announces the
// arrival. The announcement is best effort: a push failure surfaces to the
// joiner but the join stands.
func (r *Relay) Join(sessionID, displayName string) {
	s, _, ok := r.registry.Get(sessionID)
	if !ok {
		r.log.Error("Join from unregistered session", "session_id", sessionID)
		return
	}

	name := displayName
	if name == "" {
		name = fmt.Sprintf("User_%s", s.ShortID())
	}

	joined, err := r.registry.Join(sessionID, name)
	if err != nil {
		r.log.Error("Join failed", "session_id", sessionID, "error", err)
		r.emit(sessionID, event.NewError("Failed to join chat"))
		return
	}

	r.emit(sessionID, event.NewJoinConfirmed(joined.Name))
	if err := r.bus.Push(fmt.Sprintf("%s joined the chat", joined.Name)); err != nil {
		r.log.Warn("Join announcement failed", "session_id", sessionID, "error", err)
		r.emit(sessionID, event.NewError("Failed to join chat"))
	}
}

// Chat forwards "<name>: <message>" to the push channel. Non-members are
// ignored silently.
func (r *Relay) Chat(sessionID, message string) {
	s, _, ok := r.registry.Get(sessionID)
	if !ok || !s.Joined {
		return
	}
	if err := r.bus.Push(fmt.Sprintf("%s: %s", s.Name, message)); err != nil {
		r.log.Warn("Chat delivery failed", "session_id", sessionID, "error", err)
		r.emit(sessionID, event.NewError("Failed to send message"))
	}
}

// Leave announces the departure before clearing membership, so a failed
// announcement still leaves the session out of the chat. A second leave is
// a no-op.
func (r *Relay) Leave(sessionID string) {
	s, _, ok := r.registry.Get(sessionID)
	if !ok || !s.Joined {
		return
	}
	if err := r.bus.Push(fmt.Sprintf("%s left the chat", s.Name)); err != nil {
		r.log.Warn("Leave announcement failed", "session_id", sessionID, "error", err)
	}
	r.registry.Leave(sessionID)
}

// Exchange runs one request/reply round trip on its own goroutine so a slow
// or dead service never blocks other sessions, the broadcast task, or this
// session's other commands. ctx should be the server's, not the session's:
// a disconnect does not cancel an in-flight exchange, the late result is
// simply discarded.
func (r *Relay) Exchange(ctx context.Context, sessionID string, req event.ExchangePayload) {
	go func() {
		reqCtx, cancel := context.WithTimeout(ctx, r.exchangeTimeout)
		defer cancel()

		response, err := r.bus.Exchange(reqCtx, req.Service, req.Message)
		if err != nil {
			r.log.Warn("Exchange failed",
				"session_id", sessionID, "service", req.Service, "error", err)
			r.emit(sessionID, event.NewError("Failed to send request: "+err.Error()))
			return
		}
		r.emit(sessionID, event.NewExchangeResult(req, response))
	}()
}

// Disconnect drops the session without any announcement. Disconnection is
// not a leave unless the client said so first.
func (r *Relay) Disconnect(sessionID string) {
	r.registry.Remove(sessionID)
	r.log.Info("Web client disconnected", "session_id", sessionID)
}

// emit delivers to one session only. A session gone mid-flight just loses
// the event.
func (r *Relay) emit(sessionID string, evt event.Outbound) {
	_, sink, ok := r.registry.Get(sessionID)
	if !ok {
		return
	}
	if err := sink.Consume(evt); err != nil {
		r.log.Warn("Dropping event for slow session",
			"session_id", sessionID, "event", evt.Event, "error", err)
	}
}
