package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"chat-relay-backend/internal/config"
	"chat-relay-backend/internal/database"
	"chat-relay-backend/internal/handlers"
	"chat-relay-backend/internal/middleware"
	"chat-relay-backend/internal/repository"
	"chat-relay-backend/internal/router"
	"chat-relay-backend/internal/services"
	"chat-relay-backend/internal/settings"
	"chat-relay-backend/internal/telegram"
	"chat-relay-backend/internal/websocket"
)

func main() {
	log.Println("🚀 Starting chat relay...")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ──── Step 1: Load Environment Variables ────
	cfg := config.Load()
	log.Println("✓ Environment variables loaded")

	// ──── Step 2: Open Message Store ────
	messageRepo, closeDB, err := repository.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("✗ Database setup failed: %v", err)
	}
	defer closeDB()

	// ──── Step 3: Load User Settings ────
	userSettings, err := settings.Load(cfg.UserConfigPath)
	if err != nil {
		log.Fatalf("✗ Settings file could not be loaded: %v", err)
	}
	userSettings.Watch()
	log.Printf("✓ Settings loaded from %s", cfg.UserConfigPath)

	// ──── Step 4: Initialize Redis (optional) ────
	var redisClients *database.RedisClients
	if cfg.RedisURL != "" {
		redisClients, err = database.NewRedisClients(cfg.RedisURL)
		if err != nil {
			log.Fatalf("✗ Redis connection failed: %v", err)
		}
		defer redisClients.Close()
		log.Println("✓ Redis connected")
	}

	// ──── Step 5: Initialize Model ────
	generator, closeModel, err := services.NewGenerator(ctx, services.GeneratorConfig{
		Provider:     cfg.ModelProvider,
		OllamaURL:    cfg.OllamaURL,
		Model:        cfg.ModelName,
		GeminiAPIKey: cfg.GeminiAPIKey,
		GeminiModel:  cfg.GeminiModel,
		Timeout:      cfg.ModelTimeout,
	})
	if err != nil {
		log.Fatalf("✗ Model client initialization failed: %v", err)
	}
	defer closeModel()
	log.Printf("✓ Model provider %q ready (timeout %s)", cfg.ModelProvider, cfg.ModelTimeout)

	// ──── Step 6: Wire Services ────
	var wsHub *websocket.Hub
	if redisClients != nil {
		wsHub = websocket.NewHub(redisClients.Publish, redisClients.PubSub, cfg.JWTSecret)
	} else {
		wsHub = websocket.NewHub(nil, nil, cfg.JWTSecret)
	}

	chatService := services.NewChatService(messageRepo, userSettings, generator, wsHub, cfg.HistoryLimit)
	chatHandler := handlers.NewChatHandler(chatService)
	jwtAuth := middleware.NewJWTAuth(cfg.JWTSecret)
	apiLimiter := middleware.NewRateLimiter(cfg.RateLimitPerMinute, time.Minute)
	defer apiLimiter.Stop()
	if !jwtAuth.Enabled() {
		log.Println("⚠ JWT_SECRET not set: relay routes are unauthenticated and /ws is disabled")
	}

	g, gCtx := errgroup.WithContext(ctx)

	// ──── Step 7: Telegram Front End (optional) ────
	var notifier services.Notifier
	if cfg.TelegramBotToken != "" {
		tgBot, err := telegram.New(cfg.TelegramBotToken, chatService, userSettings)
		if err != nil {
			log.Fatalf("✗ Telegram bot initialization failed: %v", err)
		}
		notifier = tgBot
		g.Go(func() error { return tgBot.Run(gCtx) })
		log.Println("✓ Telegram front end started")
	}

	// ──── Step 8: Maintenance Scheduler ────
	scheduler, err := services.NewMaintenanceScheduler(userSettings, notifier, messageRepo, cfg.HistoryRetentionDays)
	if err != nil {
		log.Fatalf("✗ Scheduler initialization failed: %v", err)
	}
	scheduler.Start()
	defer scheduler.Stop()

	// ──── Step 9: Start HTTP Server ────
	server := &http.Server{
		Addr:        fmt.Sprintf(":%s", cfg.Port),
		Handler:     router.New(jwtAuth, apiLimiter, chatHandler, wsHub),
		ReadTimeout: 15 * time.Second,
		// Room for one model call plus its retry.
		WriteTimeout: 2*cfg.ModelTimeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	g.Go(func() error {
		log.Printf("✓ Chat relay ready on http://localhost:%s", cfg.Port)
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	// Graceful shutdown
	g.Go(func() error {
		<-gCtx.Done()
		log.Println("Shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Printf("Server error: %v", err)
		os.Exit(1)
	}
}
