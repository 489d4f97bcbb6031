package event

import "encoding/json"

// Inbound event names (session -> relay).
const (
	Join            = "join"
	Leave           = "leave"
	ChatMessage     = "chat-message"
	ExchangeRequest = "exchange-request"
)

// Outbound event names (relay -> session).
const (
	BroadcastReceived = "broadcast-received"
	JoinConfirmed     = "join-confirmed"
	ExchangeResult    = "exchange-result"
	Error             = "error"
)

// Inbound is a raw frame read from a session transport. Data stays opaque
// until the event name selects a payload type.
type Inbound struct {
	Event string          `json:"event" validate:"required"`
	Data  json.RawMessage `json:"data"`
}

type JoinPayload struct {
	DisplayName string `json:"displayName"`
}

type ChatPayload struct {
	Message string `json:"message" validate:"required"`
}

type ExchangePayload struct {
	Service string `json:"service" validate:"required"`
	Message string `json:"message"`
}

// Outbound is a frame written back to a session transport.
type Outbound struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

func NewBroadcast(message string) Outbound {
	return Outbound{Event: BroadcastReceived, Data: map[string]string{"message": message}}
}

func NewJoinConfirmed(displayName string) Outbound {
	return Outbound{Event: JoinConfirmed, Data: map[string]string{"displayName": displayName}}
}

// NewExchangeResult carries the original request alongside the reply so the
// client can correlate without any shared state.
func NewExchangeResult(request ExchangePayload, response map[string]any) Outbound {
	return Outbound{Event: ExchangeResult, Data: map[string]any{
		"request":  request,
		"response": response,
	}}
}

func NewError(message string) Outbound {
	return Outbound{Event: Error, Data: map[string]string{"message": message}}
}
