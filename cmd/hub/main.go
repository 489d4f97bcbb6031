package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"chat-relay/runtime/workers"

	"github.com/Netflix/go-env"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"
)

type Config struct {
	PubPort         int           `env:"PUBLISHER_PUB_PORT,default=4545"`
	PullPort        int           `env:"PUBLISHER_PULL_PORT,default=4546"`
	LogLevel        string        `env:"LOG_LEVEL,default=INFO"`
	RestartInterval time.Duration `env:"RESTART_INTERVAL,default=200ms"`
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	_ = godotenv.Load()
	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	hub := NewHub(ctx, log)
	defer hub.Close()

	pubAddr := fmt.Sprintf("tcp://*:%d", config.PubPort)
	pullAddr := fmt.Sprintf("tcp://*:%d", config.PullPort)
	if err := hub.Bind(pubAddr, pullAddr); err != nil {
		return err
	}

	if err := hub.ServerMessage("Chat server is now online! Welcome to the group chat."); err != nil {
		log.Warn("Greeting failed", "error", err)
	}

	// The console worker blocks on stdin, so the supervisor runs aside and
	// the process exit is driven by the signal context alone.
	sup := workers.NewSupervisor(log, config.RestartInterval)
	sup.Add(NewRelayWorker(log, hub), NewConsoleWorker(log, hub))
	go sup.Run(ctx)

	<-ctx.Done()
	sup.Stop()

	if err := hub.ServerMessage("Server is shutting down. Goodbye!"); err != nil {
		log.Warn("Goodbye failed", "error", err)
	}
	log.Info("Chat hub stopped")
	return nil
}
