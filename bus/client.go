package bus

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	apperrors "chat-relay/errors"
	"chat-relay/internal"

	"github.com/avast/retry-go"
	"github.com/go-zeromq/zmq4"
)

const dialRetryDelay = 500 * time.Millisecond

// Client talks to the three backend endpoints: the SUB broadcast feed, the
// PUSH announcement channel and the REQ/REP exchange services.
type Client struct {
	log *slog.Logger

	subAddr      string
	pushAddr     string
	resolver     Resolver
	dialAttempts uint

	mu   sync.Mutex
	push zmq4.Socket
}

func NewClient(log *slog.Logger, cfg internal.Config) *Client {
	return &Client{
		log:          log,
		subAddr:      cfg.SubscribeAddr(),
		pushAddr:     cfg.PushAddr(),
		resolver:     NewResolver(cfg.ReqReplyAddr(), cfg.ServiceOverrides()),
		dialAttempts: uint(cfg.FeedDialAttempts),
	}
}

// ListenFeed owns the long-lived SUB socket. Every broadcast is handed to
// handler in arrival order. It returns nil on ctx cancellation and an error
// on transport failure; the supervisor restarts it in the latter case, which
// also covers re-dialing after the retry budget is spent.
func (c *Client) ListenFeed(ctx context.Context, handler func(text string)) error {
	sub := zmq4.NewSub(ctx,
		zmq4.WithAutomaticReconnect(true),
		zmq4.WithDialerRetry(dialRetryDelay),
	)
	defer sub.Close()

	err := retry.Do(
		func() error { return sub.Dial(c.subAddr) },
		retry.Context(ctx),
		retry.Attempts(c.dialAttempts),
		retry.Delay(dialRetryDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.OnRetry(func(n uint, err error) {
			c.log.Warn("Broadcast feed dial failed, retrying", "attempt", n, "error", err)
		}),
	)
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("%w: subscribe to %s: %v", apperrors.ErrConnection, c.subAddr, err)
	}
	if err := sub.SetOption(zmq4.OptionSubscribe, ""); err != nil {
		return fmt.Errorf("subscribe option: %w", err)
	}
	c.log.Info("Connected to broadcast feed", "address", c.subAddr)

	for {
		msg, err := sub.Recv()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("%w: feed receive: %v", apperrors.ErrConnection, err)
		}
		handler(string(msg.Bytes()))
	}
}

// Push sends one fire-and-forget message on the shared PUSH socket. zmq4
// sockets are not documented as safe for concurrent sends, so a single
// mutex funnels writers. The socket is dialed lazily and kept, which also
// lets a failed first dial heal on the next call.
func (c *Client) Push(text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.push == nil {
		push := zmq4.NewPush(context.Background(), zmq4.WithAutomaticReconnect(true))
		if err := push.Dial(c.pushAddr); err != nil {
			_ = push.Close()
			return fmt.Errorf("%w: push to %s: %v", apperrors.ErrDelivery, c.pushAddr, err)
		}
		c.push = push
	}
	if err := c.push.Send(zmq4.NewMsgString(text)); err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrDelivery, err)
	}
	return nil
}

type exchangeRequest struct {
	Service string `json:"service"`
	Message string `json:"message"`
}

// Exchange performs one request/reply round trip on a dedicated REQ socket.
// A fresh connection per call keeps concurrent exchanges fully isolated: no
// head-of-line blocking between unrelated requests and no correlation ids.
// The socket is released on every exit path.
func (c *Client) Exchange(ctx context.Context, service, message string) (map[string]any, error) {
	addr := c.resolver.Resolve(service)

	req := zmq4.NewReq(ctx)
	defer req.Close()

	// Watchdog: closing the socket on ctx expiry unblocks a pending Recv.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = req.Close()
		case <-done:
		}
	}()

	if err := req.Dial(addr); err != nil {
		return nil, classify(ctx, fmt.Errorf("dial %s: %v", addr, err))
	}

	payload, err := json.Marshal(exchangeRequest{Service: service, Message: message})
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}
	if err := req.Send(zmq4.NewMsg(payload)); err != nil {
		return nil, classify(ctx, fmt.Errorf("send: %v", err))
	}

	reply, err := req.Recv()
	if err != nil {
		return nil, classify(ctx, fmt.Errorf("receive: %v", err))
	}
	return parseReply(reply.Bytes()), nil
}

func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.push == nil {
		return nil
	}
	err := c.push.Close()
	c.push = nil
	return err
}

// classify maps a transport failure onto the error taxonomy. Context expiry
// wins: any error observed after the deadline passed is a timeout.
func classify(ctx context.Context, err error) error {
	if stderrors.Is(ctx.Err(), context.DeadlineExceeded) || stderrors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", apperrors.ErrTimeout, err)
	}
	return fmt.Errorf("%w: %v", apperrors.ErrConnection, err)
}

// parseReply keeps the raw text when a service does not answer with
// structured data.
func parseReply(raw []byte) map[string]any {
	var parsed map[string]any
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return map[string]any{"result": string(raw)}
	}
	return parsed
}
