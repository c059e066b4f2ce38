package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/Netflix/go-env"
	"github.com/gookit/color"
	"github.com/mama165/sdk-go/logs"

	"chat-relay/client"
	"chat-relay/transport"
)

// Exit codes for the client application.
const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

// Config defines the client-side environment variables.
type Config struct {
	ServerAddress string `env:"RELAY_SERVER_ADDR,default=localhost:3000"`
	DisplayName   string `env:"RELAY_DISPLAY_NAME"`
	InsecureTLS   bool   `env:"RELAY_INSECURE_TLS,default=false"`
	BufferSize    int    `env:"CONNECTION_BUFFER_SIZE,default=64"`
	LogLevel      string `env:"LOG_LEVEL,default=warn"`
}

func main() {
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Client error: %v\n", err)
	}
	os.Exit(code)
}

func run() (int, error) {
	// 1. Load configuration from environment variables.
	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	// 2. Setup context to handle termination signals (Ctrl+C).
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Connect and announce.
	c, err := client.Dial(ctx, log, config.ServerAddress, config.InsecureTLS, config.BufferSize)
	if err != nil {
		return exitRuntime, err
	}
	defer func() { _ = c.Close() }()

	if config.DisplayName != "" {
		if err := c.Join(config.DisplayName); err != nil {
			return exitRuntime, fmt.Errorf("join failed: %w", err)
		}
	}
	color.Green.Printf(">>> Connected to %s (Ctrl+C or /quit to leave)\n", config.ServerAddress)

	// 4. Render server events as they arrive.
	go func() {
		for env := range c.Events() {
			render(env)
		}
	}()

	// 5. Read stdin lines and relay them.
	scanner := bufio.NewScanner(os.Stdin)
	lines := make(chan string)
	go func() {
		defer close(lines)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return exitOK, nil
		case line, ok := <-lines:
			if !ok || strings.TrimSpace(line) == "/quit" {
				return exitOK, nil
			}
			if strings.TrimSpace(line) == "" {
				continue
			}
			if err := c.Send(line); err != nil {
				return exitRuntime, fmt.Errorf("send failed: %w", err)
			}
		}
	}
}

func render(env transport.Envelope) {
	switch env.Type {
	case transport.TypeHistory:
		for _, m := range env.Messages {
			printMessage(m)
		}
		color.Gray.Printf("--- %d messages replayed ---\n", len(env.Messages))
	case transport.TypeMessage:
		if env.Message != nil {
			printMessage(*env.Message)
		}
	case transport.TypeSystem:
		color.Yellow.Printf("* %s\n", env.Text)
	}
}

func printMessage(m transport.MessagePayload) {
	color.Cyan.Printf("[%s] %s: ", m.At.Local().Format("15:04"), m.Author)
	fmt.Println(m.Text)
}
