package models

import (
	"encoding/json"
	"testing"
	"time"
)

func TestHistoryEntry_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantText string
		wantTS   *time.Time
		wantErr  bool
	}{
		{"message key with iso timestamp", `{"message":"hi","timestamp":"2025-03-01T10:00:00Z"}`, "hi", ptr(time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)), false},
		{"body alias", `{"body":"from whatsapp"}`, "from whatsapp", nil, false},
		{"content alias", `{"content":"c"}`, "c", nil, false},
		{"unix seconds", `{"message":"x","timestamp":1740823200}`, "x", ptr(time.Unix(1740823200, 0).UTC()), false},
		{"naive python isoformat", `{"message":"x","timestamp":"2025-03-01T10:00:00.123456"}`, "x", ptr(time.Date(2025, 3, 1, 10, 0, 0, 123456000, time.UTC)), false},
		{"unsupported timestamp", `{"message":"x","timestamp":"yesterday"}`, "", nil, true},
		{"numeric string", `{"message":"x","timestamp":"1740823200"}`, "x", ptr(time.Unix(1740823200, 0).UTC()), false},
		{"seconds past year 9999", `{"message":"x","timestamp":1e300}`, "", nil, true},
		{"negative seconds", `{"message":"x","timestamp":-1}`, "", nil, true},
		{"numeric string past year 9999", `{"message":"x","timestamp":"253402300800"}`, "", nil, true},
		{"iso before 1970", `{"message":"x","timestamp":"0001-01-01T00:00:00Z"}`, "", nil, true},
		{"no text", `{"timestamp":"2025-03-01T10:00:00Z"}`, "", ptr(time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)), false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var e HistoryEntry
			err := json.Unmarshal([]byte(tc.input), &e)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if e.Text != tc.wantText {
				t.Errorf("expected text %q, got %q", tc.wantText, e.Text)
			}
			switch {
			case tc.wantTS == nil && e.Timestamp != nil:
				t.Errorf("expected no timestamp, got %v", e.Timestamp)
			case tc.wantTS != nil && (e.Timestamp == nil || !e.Timestamp.Equal(*tc.wantTS)):
				t.Errorf("expected timestamp %v, got %v", tc.wantTS, e.Timestamp)
			}
		})
	}
}

func ptr(t time.Time) *time.Time { return &t }
