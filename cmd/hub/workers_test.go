package main

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/go-zeromq/zmq4"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

func TestConsoleWorker_HelpAndStatus(t *testing.T) {
	req := require.New(t)
	hub := newTestHub(t)
	hub.Track("Alice joined the chat")

	var out bytes.Buffer
	worker := &ConsoleWorker{
		log: logs.GetLoggerFromLevel(slog.LevelDebug),
		hub: hub,
		in:  strings.NewReader("help\nstatus\n"),
		out: &out,
	}

	// EOF after the two commands means a clean finish
	req.NoError(worker.Run(context.Background()))

	req.Contains(out.String(), "announce <message>")
	req.Contains(out.String(), "Alice")
}

func TestConsoleWorker_StatusWithoutClients(t *testing.T) {
	req := require.New(t)
	hub := newTestHub(t)

	var out bytes.Buffer
	worker := &ConsoleWorker{
		log: logs.GetLoggerFromLevel(slog.LevelDebug),
		hub: hub,
		in:  strings.NewReader("status\n"),
		out: &out,
	}

	req.NoError(worker.Run(context.Background()))
	req.Contains(out.String(), "Connected clients: None")
}

func TestRelayWorker_WelcomesAndRebroadcasts(t *testing.T) {
	req := require.New(t)
	hub := newTestHub(t)
	req.NoError(hub.Bind("tcp://127.0.0.1:0", "tcp://127.0.0.1:0"))

	worker := NewRelayWorker(logs.GetLoggerFromLevel(slog.LevelDebug), hub)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- worker.Run(ctx) }()

	// Given a join announcement arriving on the intake
	push := zmq4.NewPush(ctx)
	req.NoError(push.Dial(fmt.Sprintf("tcp://%s", hub.pull.Addr())))
	defer push.Close()
	req.NoError(push.Send(zmq4.NewMsgString("Alice joined the chat")))

	// Then presence is updated by the worker
	req.Eventually(func() bool {
		_, ok := hub.JoinedAt("Alice")
		return ok
	}, 2*time.Second, 10*time.Millisecond)

	// And cancelling the context stops the worker once the socket closes
	cancel()
	hub.Close()
	select {
	case err := <-done:
		req.NoError(err)
	case <-time.After(2 * time.Second):
		req.Fail("relay worker did not stop")
	}
}
