package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"chat-relay-backend/internal/models"
)

type stubUsers []models.UserSettings

func (s stubUsers) Users() []models.UserSettings { return s }

type stubNotifier struct {
	sent []string
	fail string
}

func (n *stubNotifier) Notify(ctx context.Context, user models.UserSettings, text string) error {
	if user.Phone == n.fail {
		return errors.New("blocked by user")
	}
	n.sent = append(n.sent, user.Phone+":"+text)
	return nil
}

type stubPruner struct {
	cutoff time.Time
	n      int64
	err    error
}

func (p *stubPruner) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	p.cutoff = cutoff
	return p.n, p.err
}

func TestMaintenanceScheduler_SendGreetingsContinuesPastFailures(t *testing.T) {
	notifier := &stubNotifier{fail: "2"}
	users := stubUsers{{Phone: "1"}, {Phone: "2"}, {Phone: "3"}}

	m, err := NewMaintenanceScheduler(users, notifier, nil, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer m.Stop()

	m.sendGreetings(context.Background())

	if len(notifier.sent) != 2 || notifier.sent[0] != "1:"+GreetingMessage || notifier.sent[1] != "3:"+GreetingMessage {
		t.Fatalf("unexpected greetings %v", notifier.sent)
	}
}

func TestMaintenanceScheduler_Prune(t *testing.T) {
	pruner := &stubPruner{n: 4}
	m, err := NewMaintenanceScheduler(nil, nil, pruner, 30)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer m.Stop()

	now := time.Date(2025, 3, 31, 12, 0, 0, 0, time.UTC)
	m.prune(context.Background(), now)

	want := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	if !pruner.cutoff.Equal(want) {
		t.Errorf("expected cutoff %v, got %v", want, pruner.cutoff)
	}
}

func TestNewMaintenanceScheduler_RegistersOnlyUsefulJobs(t *testing.T) {
	tests := []struct {
		name      string
		notifier  Notifier
		pruner    historyPruner
		retention int
		wantJobs  int
	}{
		{"nothing configured", nil, nil, 0, 0},
		{"greetings only", &stubNotifier{}, nil, 0, 1},
		{"retention disabled", nil, &stubPruner{}, 0, 0},
		{"both", &stubNotifier{}, &stubPruner{}, 7, 2},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			m, err := NewMaintenanceScheduler(stubUsers{}, tc.notifier, tc.pruner, tc.retention)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			defer m.Stop()

			if got := len(m.scheduler.Jobs()); got != tc.wantJobs {
				t.Errorf("expected %d jobs, got %d", tc.wantJobs, got)
			}
		})
	}
}
