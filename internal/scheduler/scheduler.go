package scheduler

import (
	"context"
	"log/slog"
	"time"

	"offrecord/internal/config"
	"offrecord/internal/models"
)

// TargetLister finds roster members who still owe their feedback round
type TargetLister interface {
	ListReminderTargets(ctx context.Context, minAge time.Duration) ([]models.ReminderTarget, error)
}

// ReminderMailer sends reminder mails
type ReminderMailer interface {
	SendReminder(to, displayName, groupName string) error
}

// Scheduler periodically reminds members of open groups to submit
type Scheduler struct {
	targets  TargetLister
	mailer   ReminderMailer
	config   *config.ReminderConfig
	stopChan chan struct{}
}

// NewScheduler creates a new scheduler
func NewScheduler(targets TargetLister, mailer ReminderMailer, cfg *config.ReminderConfig) *Scheduler {
	return &Scheduler{
		targets:  targets,
		mailer:   mailer,
		config:   cfg,
		stopChan: make(chan struct{}),
	}
}

// Start launches the reminder loop. A no-op when reminders are disabled.
func (s *Scheduler) Start() {
	if !s.config.Enabled {
		slog.Info("reminder scheduler disabled")
		return
	}

	slog.Info("reminder scheduler started",
		"interval", s.config.Interval,
		"min_age", s.config.MinAge)

	go func() {
		ticker := time.NewTicker(s.config.Interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				s.sendReminders()
			case <-s.stopChan:
				return
			}
		}
	}()
}

// Stop terminates the reminder loop
func (s *Scheduler) Stop() {
	close(s.stopChan)
	slog.Info("reminder scheduler stopped")
}

func (s *Scheduler) sendReminders() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	targets, err := s.targets.ListReminderTargets(ctx, s.config.MinAge)
	if err != nil {
		slog.Error("failed to collect reminder targets", "error", err)
		return
	}
	if len(targets) == 0 {
		return
	}

	sent, failed := 0, 0
	for _, t := range targets {
		if err := s.mailer.SendReminder(t.Email, t.DisplayName, t.GroupName); err != nil {
			slog.Error("reminder mail failed", "group_id", t.GroupID, "email", t.Email, "error", err)
			failed++
			continue
		}
		sent++
	}
	slog.Info("reminders dispatched", "sent", sent, "failed", failed)
}
