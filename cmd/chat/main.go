// Command chat relays a single message and prints the reply, for callers
// that shell out instead of using the HTTP API.
//
//	chat 15550001 "what's for dinner?"
//
// It reads the same environment as the server. The reply is the only thing
// written to stdout; an empty line means the model could not answer.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"chat-relay-backend/internal/config"
	"chat-relay-backend/internal/repository"
	"chat-relay-backend/internal/services"
	"chat-relay-backend/internal/settings"
)

var errUsage = errors.New("usage: chat <phone_number> <message>")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout io.Writer) error {
	if len(args) != 2 {
		return errUsage
	}

	cfg := config.Load()

	messageRepo, closeDB, err := repository.Open(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to open history: %w", err)
	}
	defer closeDB()

	userSettings, err := settings.Load(cfg.UserConfigPath)
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}

	generator, closeModel, err := services.NewGenerator(ctx, services.GeneratorConfig{
		Provider:     cfg.ModelProvider,
		OllamaURL:    cfg.OllamaURL,
		Model:        cfg.ModelName,
		GeminiAPIKey: cfg.GeminiAPIKey,
		GeminiModel:  cfg.GeminiModel,
		Timeout:      cfg.ModelTimeout,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize model: %w", err)
	}
	defer closeModel()

	chatService := services.NewChatService(messageRepo, userSettings, generator, nil, cfg.HistoryLimit)
	reply, err := chatService.Chat(ctx, args[0], args[1])
	if err != nil {
		return err
	}

	fmt.Fprintln(stdout, reply)
	return nil
}
