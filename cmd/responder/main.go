package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/Netflix/go-env"
	"github.com/go-zeromq/zmq4"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"
)

type Config struct {
	Port     int    `env:"REQ_REPLY_PORT,default=4646"`
	LogLevel string `env:"LOG_LEVEL,default=INFO"`
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

// run serves the REP socket until a signal arrives. One request, one reply,
// strictly in turn: that is the REP contract, and the relay opens a fresh
// REQ connection per exchange anyway.
func run() error {
	_ = godotenv.Load()
	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rep := zmq4.NewRep(ctx)
	defer rep.Close()

	address := fmt.Sprintf("tcp://*:%d", config.Port)
	if err := rep.Listen(address); err != nil {
		return fmt.Errorf("bind %s: %w", address, err)
	}
	log.Info("Request-reply responder bound", "address", address)

	responder := NewResponder()
	for {
		msg, err := rep.Recv()
		if err != nil {
			if ctx.Err() != nil {
				log.Info("Responder stopped")
				return nil
			}
			return fmt.Errorf("receive: %w", err)
		}
		log.Debug("Received request", "payload", string(msg.Bytes()))

		if err := rep.Send(zmq4.NewMsg(responder.Process(msg.Bytes()))); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("send reply: %w", err)
		}
	}
}
