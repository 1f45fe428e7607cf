package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
)

func setupEnv(t *testing.T, ollamaURL string) {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("MODEL_PROVIDER", "ollama")
	t.Setenv("OLLAMA_URL", ollamaURL)
	t.Setenv("DATABASE_URL", filepath.Join(dir, "whatsapp_history.db"))
	t.Setenv("USER_CONFIG_PATH", filepath.Join(dir, "user_config.json"))
	t.Setenv("MODEL_TIMEOUT", "2s")
}

func TestRun_PrintsReply(t *testing.T) {
	var calls int
	ollama := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		json.NewEncoder(w).Encode(map[string]interface{}{
			"message": map[string]string{"role": "assistant", "content": "Pasta, probably."},
		})
	}))
	defer ollama.Close()
	setupEnv(t, ollama.URL)

	var out bytes.Buffer
	if err := run(context.Background(), []string{"15550001", "what's for dinner?"}, &out); err != nil {
		t.Fatalf("run: %v", err)
	}
	if out.String() != "Pasta, probably.\n" {
		t.Errorf("unexpected output %q", out.String())
	}
	if calls != 1 {
		t.Errorf("expected 1 model call, got %d", calls)
	}
}

func TestRun_ModelDownPrintsEmptyLine(t *testing.T) {
	ollama := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not loaded", http.StatusInternalServerError)
	}))
	defer ollama.Close()
	setupEnv(t, ollama.URL)

	var out bytes.Buffer
	if err := run(context.Background(), []string{"15550001", "hello"}, &out); err != nil {
		t.Fatalf("run: %v", err)
	}
	if out.String() != "\n" {
		t.Errorf("expected an empty reply line, got %q", out.String())
	}
}

func TestRun_Usage(t *testing.T) {
	for _, args := range [][]string{nil, {"15550001"}, {"15550001", "a", "b"}} {
		if err := run(context.Background(), args, &bytes.Buffer{}); !errors.Is(err, errUsage) {
			t.Errorf("run(%q): expected usage error, got %v", args, err)
		}
	}
}
