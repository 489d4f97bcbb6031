package main

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/go-zeromq/zmq4"
)

// Hub is the chat backbone: it binds the PUB broadcast feed and the PULL
// intake, stamps every pulled message with a timestamp and republishes it
// to all subscribers. It also tracks which client names are present, going
// by the join/leave announcements flowing through.
type Hub struct {
	log  *slog.Logger
	pub  zmq4.Socket
	pull zmq4.Socket

	mu      sync.Mutex
	clients map[string]time.Time // name -> joined at
}

func NewHub(ctx context.Context, log *slog.Logger) *Hub {
	return &Hub{
		log:     log,
		pub:     zmq4.NewPub(ctx),
		pull:    zmq4.NewPull(ctx),
		clients: make(map[string]time.Time),
	}
}

func (h *Hub) Bind(pubAddr, pullAddr string) error {
	if err := h.pub.Listen(pubAddr); err != nil {
		return fmt.Errorf("bind publisher %s: %w", pubAddr, err)
	}
	if err := h.pull.Listen(pullAddr); err != nil {
		return fmt.Errorf("bind receiver %s: %w", pullAddr, err)
	}
	h.log.Info("Chat hub bound", "pub", pubAddr, "pull", pullAddr)
	return nil
}

func (h *Hub) Close() {
	_ = h.pub.Close()
	_ = h.pull.Close()
}

// ServerMessage broadcasts an administrative message under the SERVER name.
func (h *Hub) ServerMessage(text string) error {
	return h.broadcast(fmt.Sprintf("SERVER: %s", text))
}

// broadcast publishes with the arrival timestamp prefix every subscriber
// expects. The mutex funnels the console worker and the relay worker onto
// the one PUB socket.
func (h *Hub) broadcast(text string) error {
	stamped := fmt.Sprintf("[%s] %s", time.Now().Format("15:04:05"), text)

	h.mu.Lock()
	defer h.mu.Unlock()
	if err := h.pub.Send(zmq4.NewMsgString(stamped)); err != nil {
		return fmt.Errorf("publish: %w", err)
	}
	h.log.Debug("Relayed", "message", stamped)
	return nil
}

// Receive blocks for the next client message on the PULL socket.
func (h *Hub) Receive() (string, error) {
	msg, err := h.pull.Recv()
	if err != nil {
		return "", err
	}
	return string(msg.Bytes()), nil
}

// Track updates presence bookkeeping from a raw client message and returns
// the name of a client that just joined, if any.
func (h *Hub) Track(message string) (joined string) {
	name, _, _ := strings.Cut(message, " ")
	switch {
	case strings.Contains(message, "joined the chat"):
		h.mu.Lock()
		h.clients[name] = time.Now()
		h.mu.Unlock()
		h.log.Info("Client connected", "name", name)
		return name
	case strings.Contains(message, "left the chat"):
		h.mu.Lock()
		delete(h.clients, name)
		h.mu.Unlock()
		h.log.Info("Client disconnected", "name", name)
	}
	return ""
}

// Clients returns present client names in join order.
func (h *Hub) Clients() []string {
	h.mu.Lock()
	defer h.mu.Unlock()

	names := make([]string, 0, len(h.clients))
	for name := range h.clients {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		return h.clients[names[i]].Before(h.clients[names[j]])
	})
	return names
}

// JoinedAt reports when a present client joined.
func (h *Hub) JoinedAt(name string) (time.Time, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	at, ok := h.clients[name]
	return at, ok
}
