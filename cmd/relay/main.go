package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"chat-relay/bus"
	"chat-relay/gateway"
	"chat-relay/internal"
	"chat-relay/runtime"
	"chat-relay/runtime/workers"

	"github.com/Netflix/go-env"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

// run wires configuration, the bus client, the relay and the websocket
// gateway, then blocks until a signal or a fatal server error. Returning
// the error instead of exiting keeps every defer (socket teardown, server
// shutdown) running.
func run() error {
	// 1. Configuration & Logger
	_ = godotenv.Load()
	var config internal.Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	// 2. Context & Signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Bus client, registry, relay
	busClient := bus.NewClient(log, config)
	defer func() {
		log.Info("Closing bus client...")
		_ = busClient.Close()
	}()

	registry := runtime.NewRegistry()
	relay := runtime.NewRelay(log, busClient, registry, config.ExchangeTimeout)

	// 4. Broadcast feed under supervision
	sup := workers.NewSupervisor(log, config.RestartInterval)
	sup.Add(workers.NewFeedWorker(log, busClient, relay))
	go sup.Run(ctx)

	// 5. HTTP server: websocket gateway plus optional static web client
	mux := http.NewServeMux()
	mux.Handle("/ws", gateway.NewHandler(ctx, log, relay, config.SessionBufferSize, config.DeliveryTimeout))
	if config.StaticDir != "" {
		mux.Handle("/", http.FileServer(http.Dir(config.StaticDir)))
	}

	address := ":" + config.Port
	server := &http.Server{Addr: address, Handler: mux}

	errChan := make(chan error, 1)
	go func() {
		log.Info("Web relay listening",
			"address", address,
			"feed", config.SubscribeAddr(),
			"push", config.PushAddr(),
			"exchange", config.ReqReplyAddr())
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("http server error: %w", err)
		}
	}()

	// 6. Wait for Stop or Error
	select {
	case <-ctx.Done():
		log.Info("Shutting down gracefully...")
	case err := <-errChan:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	sup.Stop()
	return nil
}
