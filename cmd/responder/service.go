package main

import (
	"encoding/json"
	"time"
)

// Responder implements the request/reply services behind the exchange
// endpoint: echo, time and ping, plus a raw-text echo for callers that do
// not speak JSON.
type Responder struct {
	now func() time.Time
}

func NewResponder() *Responder {
	return &Responder{now: time.Now}
}

type request struct {
	Service string `json:"service"`
	Message string `json:"message"`
}

type reply struct {
	Result string `json:"result"`
}

// Process turns one raw request into one raw reply. Every answer is JSON
// with a single "result" field, matching what the relay's fallback parser
// expects.
func (r *Responder) Process(raw []byte) []byte {
	var req request
	if len(raw) == 0 || raw[0] != '{' || json.Unmarshal(raw, &req) != nil {
		return encode("Echo: " + string(raw))
	}

	switch req.Service {
	case "echo":
		return encode(req.Message)
	case "time":
		return encode(r.now().Format("2006-01-02 15:04:05"))
	case "ping":
		return encode("pong")
	default:
		return encode("server response with unknown command")
	}
}

func encode(result string) []byte {
	out, _ := json.Marshal(reply{Result: result})
	return out
}
