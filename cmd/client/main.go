package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"chat-relay/bus"
	"chat-relay/internal"

	"github.com/Netflix/go-env"
	"github.com/gookit/color"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"
)

type ClientConfig struct {
	Name string `env:"CLIENT_NAME,default=Client1"`
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

// run joins the group chat from the terminal: broadcasts scroll in from the
// feed while stdin lines go out on the push channel. `/req <service>
// [message]` performs a request/reply exchange, `quit` leaves.
func run() error {
	_ = godotenv.Load()
	var config internal.Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	var clientConfig ClientConfig
	if _, err := env.UnmarshalFromEnviron(&clientConfig); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	busClient := bus.NewClient(log, config)
	defer busClient.Close()

	name := clientConfig.Name
	color.Green.Printf("=== %s joining the group chat ===\n", name)

	// Broadcasts print from their own goroutine so typing never blocks
	// reception.
	go func() {
		err := busClient.ListenFeed(ctx, func(text string) {
			color.Cyan.Println(text)
		})
		if err != nil {
			log.Error("Broadcast feed lost", "error", err)
		}
	}()

	if err := busClient.Push(fmt.Sprintf("%s joined the chat", name)); err != nil {
		return err
	}
	fmt.Println("Type messages to send, '/req <service> [message]' for an exchange, or 'quit' to exit")

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		switch {
		case line == "":
		case strings.EqualFold(line, "quit"):
			if err := busClient.Push(fmt.Sprintf("%s left the chat", name)); err != nil {
				log.Warn("Leave announcement failed", "error", err)
			}
			fmt.Printf("%s disconnected from group chat\n", name)
			return nil
		case strings.HasPrefix(line, "/req "):
			exchange(ctx, busClient, config, strings.TrimPrefix(line, "/req "))
		default:
			if err := busClient.Push(fmt.Sprintf("%s: %s", name, line)); err != nil {
				color.Red.Println("Send failed:", err)
			}
		}
	}
	return scanner.Err()
}

func exchange(ctx context.Context, busClient *bus.Client, config internal.Config, args string) {
	service, message, _ := strings.Cut(args, " ")

	reqCtx, cancel := context.WithTimeout(ctx, config.ExchangeTimeout)
	defer cancel()

	response, err := busClient.Exchange(reqCtx, service, message)
	if err != nil {
		color.Red.Println("Request failed:", err)
		return
	}
	if result, ok := response["result"]; ok {
		color.Yellow.Printf("Server: %v\n", result)
		return
	}
	color.Yellow.Printf("Server: %v\n", response)
}
