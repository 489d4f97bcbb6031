package bus

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"testing"
	"time"

	apperrors "chat-relay/errors"

	"github.com/go-zeromq/zmq4"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

func TestResolver_OverrideAndFallback(t *testing.T) {
	req := require.New(t)
	resolver := NewResolver("tcp://localhost:4646", map[string]string{
		"time": "tcp://timehost:5000",
	})

	req.Equal("tcp://timehost:5000", resolver.Resolve("time"))
	req.Equal("tcp://localhost:4646", resolver.Resolve("echo"))
	req.Equal("tcp://localhost:4646", resolver.Resolve("unknown"))
}

func TestParseReply(t *testing.T) {
	req := require.New(t)

	// Structured replies come through untouched
	req.Equal(map[string]any{"result": "pong"}, parseReply([]byte(`{"result":"pong"}`)))

	// Anything else is wrapped so callers always see a map
	req.Equal(map[string]any{"result": "plain text"}, parseReply([]byte("plain text")))
}

func TestClassify(t *testing.T) {
	req := require.New(t)

	// Given an expired context, any failure counts as a timeout
	expired, cancel := context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
	defer cancel()
	err := classify(expired, fmt.Errorf("receive: socket closed"))
	req.ErrorIs(err, apperrors.ErrTimeout)

	// A live context means the transport itself failed
	err = classify(context.Background(), fmt.Errorf("dial refused"))
	req.ErrorIs(err, apperrors.ErrConnection)
}

// startReplier binds a REP socket on a loopback port and answers each
// request with the given handler. Returns the bound endpoint.
func startReplier(t *testing.T, handler func(raw []byte) []byte) string {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	rep := zmq4.NewRep(ctx)
	require.NoError(t, rep.Listen("tcp://127.0.0.1:0"))
	t.Cleanup(func() {
		cancel()
		_ = rep.Close()
	})

	go func() {
		for {
			msg, err := rep.Recv()
			if err != nil {
				return
			}
			if err := rep.Send(zmq4.NewMsg(handler(msg.Bytes()))); err != nil {
				return
			}
		}
	}()

	return fmt.Sprintf("tcp://%s", rep.Addr())
}

func newTestClient(addr string) *Client {
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	return &Client{
		log:          log,
		subAddr:      "tcp://127.0.0.1:1",
		pushAddr:     "tcp://127.0.0.1:1",
		resolver:     NewResolver(addr, nil),
		dialAttempts: 1,
	}
}

func TestClient_Exchange_RoundTrip(t *testing.T) {
	req := require.New(t)

	addr := startReplier(t, func(raw []byte) []byte {
		var request exchangeRequest
		require.NoError(t, json.Unmarshal(raw, &request))
		reply, _ := json.Marshal(map[string]string{"result": "Echo: " + request.Message})
		return reply
	})
	client := newTestClient(addr)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	reply, err := client.Exchange(ctx, "echo", "hello")

	req.NoError(err)
	req.Equal(map[string]any{"result": "Echo: hello"}, reply)
}

func TestClient_Exchange_RawReplyWrapped(t *testing.T) {
	req := require.New(t)

	addr := startReplier(t, func([]byte) []byte {
		return []byte("not json at all")
	})
	client := newTestClient(addr)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	reply, err := client.Exchange(ctx, "echo", "hello")

	req.NoError(err)
	req.Equal(map[string]any{"result": "not json at all"}, reply)
}

func TestClient_Exchange_TimeoutOnSilentService(t *testing.T) {
	req := require.New(t)

	// Given a service that accepts but never answers
	ctx0, cancel0 := context.WithCancel(context.Background())
	rep := zmq4.NewRep(ctx0)
	require.NoError(t, rep.Listen("tcp://127.0.0.1:0"))
	t.Cleanup(func() {
		cancel0()
		_ = rep.Close()
	})
	client := newTestClient(fmt.Sprintf("tcp://%s", rep.Addr()))

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	start := time.Now()
	_, err := client.Exchange(ctx, "dead", "anyone there")

	// Then the call fails as a timeout instead of hanging
	req.ErrorIs(err, apperrors.ErrTimeout)
	req.Less(time.Since(start), 2*time.Second)
}

func TestClient_PushAndFeed_EndToEnd(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Given a hub shape: a PULL intake and a PUB feed on loopback
	pull := zmq4.NewPull(ctx)
	req.NoError(pull.Listen("tcp://127.0.0.1:0"))
	defer pull.Close()
	pub := zmq4.NewPub(ctx)
	req.NoError(pub.Listen("tcp://127.0.0.1:0"))
	defer pub.Close()

	client := &Client{
		log:          log,
		subAddr:      fmt.Sprintf("tcp://%s", pub.Addr()),
		pushAddr:     fmt.Sprintf("tcp://%s", pull.Addr()),
		resolver:     NewResolver("tcp://127.0.0.1:1", nil),
		dialAttempts: 3,
	}
	defer client.Close()

	received := make(chan string, 1)
	go func() {
		_ = client.ListenFeed(ctx, func(text string) {
			select {
			case received <- text:
			default:
			}
		})
	}()

	// When a message is pushed, the hub sees it on the intake
	req.NoError(client.Push("Alice joined the chat"))
	msg, err := pull.Recv()
	req.NoError(err)
	req.Equal("Alice joined the chat", string(msg.Bytes()))

	// And when the hub publishes, the feed handler is invoked. The publish
	// is repeated because a SUB socket drops anything sent before its
	// subscription is established.
	deadline := time.After(5 * time.Second)
	for {
		req.NoError(pub.Send(zmq4.NewMsgString("SERVER: welcome")))
		select {
		case text := <-received:
			req.Equal("SERVER: welcome", text)
			return
		case <-deadline:
			req.Fail("feed handler never invoked")
		case <-time.After(50 * time.Millisecond):
		}
	}
}
