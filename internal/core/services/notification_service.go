package services

import (
	"context"
	"log"
	"sync"
	"time"

	"bilet-lending/internal/core/domain"

	"github.com/gofiber/fiber/v2"
)

// NotificationService is the NotificationSink of the core. Notices are queued
// and delivered by background workers: persisted for the user and, when a
// webhook is configured, pushed to it. Failures are logged and dropped.
type NotificationService struct {
	repo       NotificationRepository
	webhookURL string
	now        Clock

	mu     sync.RWMutex
	closed bool
	queue  chan *domain.Notification
	wg     sync.WaitGroup
}

// NewNotificationService starts workers goroutines draining a queue of size
// queueSize. Call Close to stop them.
func NewNotificationService(repo NotificationRepository, webhookURL string, workers, queueSize int, now Clock) *NotificationService {
	if now == nil {
		now = time.Now
	}
	if workers < 1 {
		workers = 1
	}
	if queueSize < 1 {
		queueSize = 100
	}

	s := &NotificationService{
		repo:       repo,
		webhookURL: webhookURL,
		now:        now,
		queue:      make(chan *domain.Notification, queueSize),
	}
	for i := 0; i < workers; i++ {
		s.wg.Add(1)
		go s.worker(i)
	}
	return s
}

// IsWebhookEnabled checks if webhook delivery is configured
func (s *NotificationService) IsWebhookEnabled() bool {
	return s.webhookURL != ""
}

// Notify enqueues a notice without blocking. A full queue drops the notice.
func (s *NotificationService) Notify(userID uint, title, message string) {
	n := &domain.Notification{
		UserID:    userID,
		Title:     title,
		Message:   message,
		CreatedAt: s.now(),
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		log.Printf("⚠️ Notification for user %d dropped: service closed", userID)
		return
	}

	select {
	case s.queue <- n:
	default:
		log.Printf("⚠️ Notification queue full, dropped notice for user %d: %s", userID, title)
	}
}

// Close stops accepting notices and waits for queued ones to be delivered
func (s *NotificationService) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	close(s.queue)
	s.mu.Unlock()

	s.wg.Wait()
	log.Println("🛑 Notification workers stopped")
}

func (s *NotificationService) worker(id int) {
	defer s.wg.Done()

	for n := range s.queue {
		s.deliver(id, n)
	}
}

func (s *NotificationService) deliver(worker int, n *domain.Notification) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.repo.CreateNotification(ctx, n); err != nil {
		log.Printf("❌ Worker %d failed to store notification for user %d: %v", worker, n.UserID, err)
		return
	}
	if s.webhookURL != "" {
		if err := s.pushWebhook(n); err != nil {
			log.Printf("⚠️ Worker %d webhook delivery failed for notification %d: %v", worker, n.ID, err)
		}
	}
}

// pushWebhook posts the notice as JSON to the configured webhook
func (s *NotificationService) pushWebhook(n *domain.Notification) error {
	agent := fiber.Post(s.webhookURL).
		Timeout(5 * time.Second).
		JSON(n)
	if err := agent.Parse(); err != nil {
		return err
	}

	code, _, errs := agent.Bytes()
	if len(errs) > 0 {
		return errs[0]
	}
	if code >= fiber.StatusBadRequest {
		return fiber.NewError(code, "webhook rejected notification")
	}
	return nil
}

// ListForUser returns the caller's notifications, newest first
func (s *NotificationService) ListForUser(ctx context.Context, p domain.Principal) ([]*domain.Notification, error) {
	if p.UserID == 0 {
		return nil, domain.ErrUnauthorized
	}
	return s.repo.ListNotifications(ctx, p.UserID)
}

// MarkRead flags one of the caller's notifications as read
func (s *NotificationService) MarkRead(ctx context.Context, p domain.Principal, id uint) error {
	if p.UserID == 0 {
		return domain.ErrUnauthorized
	}
	return s.repo.MarkNotificationRead(ctx, id, p.UserID)
}
