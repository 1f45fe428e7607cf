package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"chat-relay-backend/internal/handlers"
	"chat-relay-backend/internal/middleware"
	"chat-relay-backend/internal/websocket"
)

func New(
	jwtAuth *middleware.JWTAuth,
	apiLimiter *middleware.RateLimiter,
	chatHandler *handlers.ChatHandler,
	wsHub *websocket.Hub,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)

	// Health check
	r.Get("/health", handlers.Health)

	// ──── Relay Routes ────
	r.Group(func(r chi.Router) {
		r.Use(apiLimiter.Middleware)
		r.Use(jwtAuth.Middleware)
		r.Post("/chat", chatHandler.Chat)
		r.Post("/sync_history", chatHandler.SyncHistory)
		r.Get("/history/{phone}", chatHandler.History)
	})

	// ──── WebSocket ────
	r.Get("/ws", wsHub.HandleWebSocket)

	return r
}
