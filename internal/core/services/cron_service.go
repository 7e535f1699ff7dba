package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"
)

// Default schedules
const (
	DefaultRefreshSpec  = "15 2 * * *" // 02:15 nightly
	DefaultReminderSpec = "30 8 * * *" // 08:30 daily
	DefaultCleanupSpec  = "45 3 * * *" // 03:45 nightly
)

// CronService runs the periodic, best-effort jobs: loan status refresh for
// reporting, due-soon reminders and expired refresh token cleanup. Nothing
// in the lending rules depends on these jobs having run.
type CronService struct {
	cron         *cron.Cron
	lending      *LendingService
	auth         *AuthService
	loanRepo     LoanRepository
	notifier     NotificationSink
	now          Clock
	refreshSpec  string
	reminderSpec string
	cleanupSpec  string
}

// NewCronService creates a new cron service. Empty specs fall back to the defaults.
func NewCronService(lending *LendingService, auth *AuthService, loanRepo LoanRepository, notifier NotificationSink, now Clock, refreshSpec, reminderSpec, cleanupSpec string) *CronService {
	if now == nil {
		now = time.Now
	}
	if refreshSpec == "" {
		refreshSpec = DefaultRefreshSpec
	}
	if reminderSpec == "" {
		reminderSpec = DefaultReminderSpec
	}
	if cleanupSpec == "" {
		cleanupSpec = DefaultCleanupSpec
	}
	return &CronService{
		cron:         cron.New(),
		lending:      lending,
		auth:         auth,
		loanRepo:     loanRepo,
		notifier:     notifier,
		now:          now,
		refreshSpec:  refreshSpec,
		reminderSpec: reminderSpec,
		cleanupSpec:  cleanupSpec,
	}
}

// Start registers the jobs and starts the scheduler
func (s *CronService) Start() error {
	if _, err := s.cron.AddFunc(s.refreshSpec, func() {
		if _, err := s.lending.RefreshStatuses(context.Background()); err != nil {
			log.Printf("❌ Loan status refresh failed: %v", err)
		}
	}); err != nil {
		return fmt.Errorf("invalid refresh schedule %q: %w", s.refreshSpec, err)
	}

	if _, err := s.cron.AddFunc(s.reminderSpec, func() {
		if _, err := s.SendDueReminders(context.Background()); err != nil {
			log.Printf("❌ Due reminders failed: %v", err)
		}
	}); err != nil {
		return fmt.Errorf("invalid reminder schedule %q: %w", s.reminderSpec, err)
	}

	if _, err := s.cron.AddFunc(s.cleanupSpec, func() {
		n, err := s.auth.CleanupExpiredTokens(context.Background())
		if err != nil {
			log.Printf("❌ Refresh token cleanup failed: %v", err)
			return
		}
		if n > 0 {
			log.Printf("🧹 Deleted %d expired refresh tokens", n)
		}
	}); err != nil {
		return fmt.Errorf("invalid cleanup schedule %q: %w", s.cleanupSpec, err)
	}

	s.cron.Start()
	log.Printf("🚀 CronService started [refresh: %s, reminders: %s, cleanup: %s]", s.refreshSpec, s.reminderSpec, s.cleanupSpec)
	return nil
}

// Stop stops the scheduler and waits for running jobs
func (s *CronService) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	log.Println("🛑 CronService stopped")
}

// SendDueReminders notifies readers whose open loans fall due within the next day
func (s *CronService) SendDueReminders(ctx context.Context) (int, error) {
	now := s.now()
	loans, err := s.loanRepo.ListOpenLoansDueBetween(ctx, now, now.Add(24*time.Hour))
	if err != nil {
		return 0, err
	}

	for _, l := range loans {
		s.notifier.Notify(l.ReaderID, "Loan due soon",
			fmt.Sprintf("Copy #%d is due on %s", l.CopyID, l.DueAt.Format("2006-01-02 15:04")))
	}

	if len(loans) > 0 {
		log.Printf("📅 Sent %d due-soon reminders", len(loans))
	}
	return len(loans), nil
}
