package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/samber/lo"
)

// RelayWorker drains the PULL intake and republishes everything on the
// broadcast feed. New arrivals get a welcome from the server.
type RelayWorker struct {
	log *slog.Logger
	hub *Hub
}

func NewRelayWorker(log *slog.Logger, hub *Hub) *RelayWorker {
	return &RelayWorker{log: log, hub: hub}
}

func (w *RelayWorker) Run(ctx context.Context) error {
	for {
		message, err := w.hub.Receive()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("pull receive: %w", err)
		}

		if joined := w.hub.Track(message); joined != "" {
			if err := w.hub.ServerMessage(fmt.Sprintf("Welcome %s! Chat is now active.", joined)); err != nil {
				w.log.Warn("Welcome message failed", "error", err)
			}
		}
		if err := w.hub.broadcast(message); err != nil {
			w.log.Warn("Relay failed", "message", message, "error", err)
		}
	}
}

// ConsoleWorker reads operator commands from stdin: help, status,
// announce <message>, or a plain message sent to all clients. It finishes
// cleanly on EOF, which the supervisor treats as done, not crashed.
type ConsoleWorker struct {
	log *slog.Logger
	hub *Hub
	in  io.Reader
	out io.Writer
}

func NewConsoleWorker(log *slog.Logger, hub *Hub) *ConsoleWorker {
	return &ConsoleWorker{log: log, hub: hub, in: os.Stdin, out: os.Stdout}
}

func (w *ConsoleWorker) Run(ctx context.Context) error {
	scanner := bufio.NewScanner(w.in)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return nil
		}
		line := strings.TrimSpace(scanner.Text())

		switch {
		case line == "":
		case strings.EqualFold(line, "help"):
			fmt.Fprintln(w.out, "Available commands:")
			fmt.Fprintln(w.out, "  help - Show this help")
			fmt.Fprintln(w.out, "  status - Show connected clients")
			fmt.Fprintln(w.out, "  announce <message> - Send announcement to all clients")
			fmt.Fprintln(w.out, "  Or just type a message to send to clients")
		case strings.EqualFold(line, "status"):
			w.printStatus()
		case len(line) > 9 && strings.EqualFold(line[:9], "announce "):
			if err := w.hub.ServerMessage("ANNOUNCEMENT: " + line[9:]); err != nil {
				w.log.Warn("Announcement failed", "error", err)
			}
		default:
			if err := w.hub.ServerMessage(line); err != nil {
				w.log.Warn("Server message failed", "error", err)
			}
		}
	}
	return scanner.Err()
}

func (w *ConsoleWorker) printStatus() {
	names := w.hub.Clients()
	if len(names) == 0 {
		fmt.Fprintln(w.out, "Connected clients: None")
		return
	}

	table := tablewriter.NewWriter(w.out)
	table.SetHeader([]string{"Client", "Joined At"})
	table.SetAutoWrapText(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetBorder(false)
	table.AppendBulk(lo.Map(names, func(name string, _ int) []string {
		at, _ := w.hub.JoinedAt(name)
		return []string{name, at.Format("15:04:05")}
	}))
	table.Render()
}
