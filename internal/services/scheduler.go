package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/go-co-op/gocron/v2"

	"chat-relay-backend/internal/models"
)

const (
	GreetingMessage  = "Hello! Hope you're having a great day! 😊"
	greetingInterval = time.Hour
	pruneInterval    = 24 * time.Hour
	jobTimeout       = 2 * time.Minute
)

// Notifier delivers an unsolicited message to a configured user.
type Notifier interface {
	Notify(ctx context.Context, user models.UserSettings, text string) error
}

type userLister interface {
	Users() []models.UserSettings
}

type historyPruner interface {
	DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// MaintenanceScheduler runs the periodic greeting and history retention jobs.
type MaintenanceScheduler struct {
	scheduler     gocron.Scheduler
	users         userLister
	notifier      Notifier
	pruner        historyPruner
	retentionDays int
}

// NewMaintenanceScheduler registers only the jobs that have something to do:
// greetings need a notifier, pruning needs a positive retention.
func NewMaintenanceScheduler(users userLister, notifier Notifier, pruner historyPruner, retentionDays int) (*MaintenanceScheduler, error) {
	s, err := gocron.NewScheduler(gocron.WithLocation(time.UTC))
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	m := &MaintenanceScheduler{
		scheduler:     s,
		users:         users,
		notifier:      notifier,
		pruner:        pruner,
		retentionDays: retentionDays,
	}

	if notifier != nil && users != nil {
		if _, err := s.NewJob(
			gocron.DurationJob(greetingInterval),
			gocron.NewTask(m.runGreetings),
			gocron.WithName("greetings"),
			gocron.WithSingletonMode(gocron.LimitModeReschedule),
		); err != nil {
			return nil, fmt.Errorf("failed to schedule greetings: %w", err)
		}
	}

	if pruner != nil && retentionDays > 0 {
		if _, err := s.NewJob(
			gocron.DurationJob(pruneInterval),
			gocron.NewTask(m.runPrune),
			gocron.WithName("history-retention"),
			gocron.WithStartAt(gocron.WithStartImmediately()),
			gocron.WithSingletonMode(gocron.LimitModeReschedule),
		); err != nil {
			return nil, fmt.Errorf("failed to schedule retention: %w", err)
		}
	}

	return m, nil
}

func (m *MaintenanceScheduler) Start() {
	m.scheduler.Start()
	log.Printf("Maintenance scheduler started (%d jobs)", len(m.scheduler.Jobs()))
}

func (m *MaintenanceScheduler) Stop() {
	if err := m.scheduler.Shutdown(); err != nil {
		log.Printf("maintenance scheduler: shutdown failed: %v", err)
	}
}

func (m *MaintenanceScheduler) runGreetings() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()
	m.sendGreetings(ctx)
}

func (m *MaintenanceScheduler) sendGreetings(ctx context.Context) {
	for _, user := range m.users.Users() {
		if err := m.notifier.Notify(ctx, user, GreetingMessage); err != nil {
			log.Printf("greetings: failed to send to %s: %v", user.Phone, err)
		}
	}
}

func (m *MaintenanceScheduler) runPrune() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()
	m.prune(ctx, time.Now().UTC())
}

func (m *MaintenanceScheduler) prune(ctx context.Context, now time.Time) {
	cutoff := retentionCutoff(now, m.retentionDays)
	n, err := m.pruner.DeleteBefore(ctx, cutoff)
	if err != nil {
		log.Printf("history retention: delete before %s failed: %v", cutoff.Format(time.RFC3339), err)
		return
	}
	if n > 0 {
		log.Printf("history retention: removed %d messages older than %s", n, cutoff.Format(time.RFC3339))
	}
}

func retentionCutoff(now time.Time, days int) time.Time {
	return now.UTC().AddDate(0, 0, -days)
}
