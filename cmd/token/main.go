// Command token mints HS256 tokens for the relay API and websocket stream.
//
//	token -sub whatsapp-bridge -ttl 720h
//	token -sub dashboard -phone 15550001
package main

import (
	"flag"
	"fmt"
	"log"
	"time"

	"chat-relay-backend/internal/config"
	"chat-relay-backend/internal/middleware"
)

func main() {
	subject := flag.String("sub", "", "token subject (required)")
	phone := flag.String("phone", "", "scope the token to one conversation's websocket stream")
	ttl := flag.Duration("ttl", 24*time.Hour, "token lifetime")
	flag.Parse()

	if *subject == "" {
		log.Fatal("-sub is required")
	}

	cfg := config.Load()
	if cfg.JWTSecret == "" {
		log.Fatal("JWT_SECRET is not set")
	}

	token, err := middleware.NewJWTAuth(cfg.JWTSecret).GenerateToken(*subject, *phone, *ttl)
	if err != nil {
		log.Fatalf("failed to sign token: %v", err)
	}
	fmt.Println(token)
}
