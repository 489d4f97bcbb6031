package workers

import (
	"context"
	"log/slog"

	"chat-relay/contract"
)

// FeedWorker is the single task reading the broadcast subscription. It owns
// the feed handle exclusively; everything received goes straight into the
// relay's fan-out. Transport failures bubble up to the supervisor, which
// restarts the worker and thereby re-dials the feed.
type FeedWorker struct {
	log   *slog.Logger
	bus   contract.IBus
	relay contract.IRelay
}

func NewFeedWorker(log *slog.Logger, bus contract.IBus, relay contract.IRelay) *FeedWorker {
	return &FeedWorker{log: log, bus: bus, relay: relay}
}

func (w *FeedWorker) Run(ctx context.Context) error {
	return w.bus.ListenFeed(ctx, w.relay.HandleBroadcast)
}
