package models

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Message is one row of the append-only history table.
type Message struct {
	ID        int64     `json:"id"`
	Phone     string    `json:"phone"`
	Text      string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// HistoryEntry is a single message in a sync_history payload. The text may
// arrive as "message", "body" or "content"; the timestamp as an ISO-8601
// string or unix seconds.
type HistoryEntry struct {
	Text      string
	Timestamp *time.Time
}

func (e *HistoryEntry) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	for _, key := range []string{"message", "body", "content"} {
		v, ok := raw[key]
		if !ok {
			continue
		}
		var s string
		if err := json.Unmarshal(v, &s); err == nil && s != "" {
			e.Text = s
			break
		}
	}

	if v, ok := raw["timestamp"]; ok {
		ts, err := parseTimestamp(v)
		if err != nil {
			return err
		}
		e.Timestamp = ts
	}
	return nil
}

func parseTimestamp(v json.RawMessage) (*time.Time, error) {
	var s string
	if err := json.Unmarshal(v, &s); err == nil {
		s = strings.TrimSpace(s)
		if s == "" {
			return nil, nil
		}
		for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05.999999", "2006-01-02 15:04:05"} {
			if t, err := time.Parse(layout, s); err == nil {
				return inRange(t)
			}
		}
		if n, err := strconv.ParseFloat(s, 64); err == nil {
			return unixSeconds(n)
		}
		return nil, fmt.Errorf("unsupported timestamp %q", s)
	}

	var n float64
	if err := json.Unmarshal(v, &n); err != nil {
		return nil, err
	}
	return unixSeconds(n)
}

// Stored timestamps are fixed width, so years must stay within 1970..9999.
var (
	minTimestamp = time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC)
	maxTimestamp = time.Date(9999, 12, 31, 23, 59, 59, 0, time.UTC)
)

func unixSeconds(n float64) (*time.Time, error) {
	if !(n >= float64(minTimestamp.Unix()) && n <= float64(maxTimestamp.Unix())) {
		return nil, fmt.Errorf("timestamp %v out of range", n)
	}
	sec := int64(n)
	nsec := int64((n - float64(sec)) * 1e9)
	t := time.Unix(sec, nsec).UTC()
	return &t, nil
}

func inRange(t time.Time) (*time.Time, error) {
	if t.Before(minTimestamp) || t.After(maxTimestamp) {
		return nil, fmt.Errorf("timestamp %s out of range", t.Format(time.RFC3339))
	}
	return &t, nil
}
