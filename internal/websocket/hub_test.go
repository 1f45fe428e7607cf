package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/websocket"

	"chat-relay-backend/internal/models"
)

const testSecret = "test-secret"

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return token
}

func TestHub_RejectsMissingOrInvalidToken(t *testing.T) {
	hub := NewHub(nil, nil, testSecret)

	tests := []struct {
		name  string
		query string
	}{
		{"missing token", ""},
		{"garbage token", "?token=not-a-jwt"},
		{"wrong secret", "?token=" + signToken(t, "other", jwt.MapClaims{"phone": "1"})},
		{"no phone claim", "?token=" + signToken(t, testSecret, jwt.MapClaims{"sub": "1"})},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/ws"+tc.query, nil)
			rr := httptest.NewRecorder()
			hub.HandleWebSocket(rr, req)

			if rr.Code != http.StatusUnauthorized {
				t.Fatalf("expected status %d, got %d", http.StatusUnauthorized, rr.Code)
			}
		})
	}
}

func TestHub_DisabledWithoutSecret(t *testing.T) {
	hub := NewHub(nil, nil, "")

	rr := httptest.NewRecorder()
	hub.HandleWebSocket(rr, httptest.NewRequest(http.MethodGet, "/ws?token=x", nil))

	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected status %d, got %d", http.StatusNotFound, rr.Code)
	}
}

func TestHub_DeliversExchangeInProcess(t *testing.T) {
	hub := NewHub(nil, nil, testSecret)
	srv := httptest.NewServer(http.HandlerFunc(hub.HandleWebSocket))
	defer srv.Close()

	token := signToken(t, testSecret, jwt.MapClaims{"phone": "15550001"})
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?token=" + token

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	defer conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for hub.Watchers("15550001") == 0 {
		if time.Now().After(deadline) {
			t.Fatal("connection was never registered")
		}
		time.Sleep(10 * time.Millisecond)
	}

	hub.PublishExchange(context.Background(), models.ExchangeEvent{Phone: "15550002", Message: "other", Response: "ignored"})
	hub.PublishExchange(context.Background(), models.ExchangeEvent{Phone: "15550001", Message: "hi", Response: "hey there!"})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}

	var msg struct {
		Type    string               `json:"type"`
		Payload models.ExchangeEvent `json:"payload"`
	}
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("invalid event: %v", err)
	}
	if msg.Type != models.WSTypeExchange {
		t.Errorf("expected type %q, got %q", models.WSTypeExchange, msg.Type)
	}
	if msg.Payload.Message != "hi" || msg.Payload.Response != "hey there!" {
		t.Errorf("unexpected payload: %+v", msg.Payload)
	}
}

func TestHub_StalledClientDoesNotBlockPublishing(t *testing.T) {
	hub := NewHub(nil, nil, testSecret)
	srv := httptest.NewServer(http.HandlerFunc(hub.HandleWebSocket))
	defer srv.Close()

	token := signToken(t, testSecret, jwt.MapClaims{"phone": "slow"})
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?token=" + token

	// Never read from this connection.
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	defer conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for hub.Watchers("slow") == 0 {
		if time.Now().After(deadline) {
			t.Fatal("connection was never registered")
		}
		time.Sleep(10 * time.Millisecond)
	}

	big := strings.Repeat("x", 1<<20)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 64; i++ {
			hub.PublishExchange(context.Background(), models.ExchangeEvent{Phone: "slow", Message: "hi", Response: big})
		}
		hub.PublishExchange(context.Background(), models.ExchangeEvent{Phone: "other", Message: "hi", Response: "hello"})
	}()

	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("publishing blocked behind a client that stopped reading")
	}

	if n := hub.Watchers("slow"); n != 0 {
		t.Errorf("expected stalled client to be dropped, still have %d", n)
	}
}
