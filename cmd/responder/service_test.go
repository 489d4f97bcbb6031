package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func process(t *testing.T, responder *Responder, raw string) string {
	t.Helper()
	out := responder.Process([]byte(raw))
	return string(out)
}

func TestResponder_Echo(t *testing.T) {
	req := require.New(t)
	responder := NewResponder()

	got := process(t, responder, `{"service":"echo","message":"hello there"}`)

	req.JSONEq(`{"result":"hello there"}`, got)
}

func TestResponder_Time(t *testing.T) {
	req := require.New(t)
	responder := NewResponder()
	responder.now = func() time.Time {
		return time.Date(2024, 3, 15, 9, 30, 0, 0, time.UTC)
	}

	got := process(t, responder, `{"service":"time"}`)

	req.JSONEq(`{"result":"2024-03-15 09:30:00"}`, got)
}

func TestResponder_Ping(t *testing.T) {
	req := require.New(t)
	responder := NewResponder()

	got := process(t, responder, `{"service":"ping"}`)

	req.JSONEq(`{"result":"pong"}`, got)
}

func TestResponder_UnknownService(t *testing.T) {
	req := require.New(t)
	responder := NewResponder()

	got := process(t, responder, `{"service":"weather","message":"Paris"}`)

	req.JSONEq(`{"result":"server response with unknown command"}`, got)
}

func TestResponder_RawTextFallsBackToEcho(t *testing.T) {
	req := require.New(t)
	responder := NewResponder()

	// Callers that do not speak JSON still get an answer
	got := process(t, responder, "plain old text")
	req.JSONEq(`{"result":"Echo: plain old text"}`, got)

	// Broken JSON counts as raw text too
	got = process(t, responder, `{"service":`)
	req.JSONEq(`{"result":"Echo: {\"service\":"}`, got)
}
