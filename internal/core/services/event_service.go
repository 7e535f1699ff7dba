package services

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"bilet-lending/internal/core/domain"
)

// EventService owns event participant membership and capacity
type EventService struct {
	uow       UnitOfWork
	eventRepo EventRepository
	notifier  NotificationSink
	now       Clock
}

// NewEventService creates a new event service
func NewEventService(uow UnitOfWork, eventRepo EventRepository, notifier NotificationSink, now Clock) *EventService {
	if now == nil {
		now = time.Now
	}
	return &EventService{
		uow:       uow,
		eventRepo: eventRepo,
		notifier:  notifier,
		now:       now,
	}
}

// CreateEventInput represents create event input
type CreateEventInput struct {
	Title           string    `json:"title" validate:"required,max=300"`
	Description     string    `json:"description"`
	StartAt         time.Time `json:"start_at" validate:"required"`
	DurationMinutes int       `json:"duration_minutes" validate:"gte=0"`
	Capacity        int       `json:"capacity" validate:"gte=0"`
	CoverURL        string    `json:"cover_url" validate:"omitempty,url"`
}

// Create schedules a new event
func (s *EventService) Create(ctx context.Context, p domain.Principal, input CreateEventInput) (*domain.Event, error) {
	if err := domain.RequireCapability(p, domain.CapStaff...); err != nil {
		return nil, err
	}
	if strings.TrimSpace(input.Title) == "" {
		return nil, fmt.Errorf("%w: title is required", domain.ErrInvalidInput)
	}

	duration := input.DurationMinutes
	if duration <= 0 {
		duration = 60
	}
	createdBy := p.UserID
	event := &domain.Event{
		Title:           input.Title,
		Description:     input.Description,
		StartAt:         input.StartAt,
		DurationMinutes: duration,
		Capacity:        input.Capacity,
		CoverURL:        input.CoverURL,
		CreatedByID:     &createdBy,
		Participants:    domain.NewIDSet(),
		CreatedAt:       s.now(),
	}
	if err := s.eventRepo.CreateEvent(ctx, event); err != nil {
		return nil, err
	}

	log.Printf("📅 Event %d created: %s (capacity %d)", event.ID, event.Title, event.Capacity)
	return event, nil
}

// Get returns an event with its participants
func (s *EventService) Get(ctx context.Context, id uint) (*domain.Event, error) {
	return s.eventRepo.GetEvent(ctx, id)
}

// List returns all events
func (s *EventService) List(ctx context.Context) ([]*domain.Event, error) {
	return s.eventRepo.ListEvents(ctx)
}

// resolveUser picks the member a register/unregister call acts on.
// userID 0 means the caller; only staff may act for somebody else.
func resolveUser(p domain.Principal, userID uint) (uint, error) {
	if p.UserID == 0 {
		return 0, domain.ErrUnauthorized
	}
	if userID == 0 || userID == p.UserID {
		return p.UserID, nil
	}
	if !p.IsStaff() {
		return 0, domain.ErrForbidden
	}
	return userID, nil
}

// Register adds a user to an event. Registering twice is a no-op.
func (s *EventService) Register(ctx context.Context, p domain.Principal, eventID, userID uint) error {
	userID, err := resolveUser(p, userID)
	if err != nil {
		return err
	}

	var (
		event *domain.Event
		added bool
	)
	err = s.uow.Atomic(ctx, func(tx Tx) error {
		var err error
		event, err = tx.LockEvent(eventID)
		if err != nil {
			return err
		}
		if _, err := tx.GetUser(userID); err != nil {
			return err
		}

		member, err := tx.IsParticipant(eventID, userID)
		if err != nil {
			return err
		}
		if member {
			return nil
		}

		taken, err := tx.CountParticipants(eventID)
		if err != nil {
			return err
		}
		if domain.SeatsLeft(event.Capacity, taken) == 0 {
			return domain.ErrEventFull
		}

		added = true
		return tx.AddParticipant(eventID, userID)
	})
	if err != nil {
		return err
	}

	if added {
		if s.notifier != nil {
			s.notifier.Notify(userID, "Event registration", fmt.Sprintf("You are registered for %s", event.Title))
		}
		log.Printf("🎟️ User %d registered for event %d", userID, eventID)
	}
	return nil
}

// Unregister removes a user from an event; absent members are ignored
func (s *EventService) Unregister(ctx context.Context, p domain.Principal, eventID, userID uint) error {
	userID, err := resolveUser(p, userID)
	if err != nil {
		return err
	}

	return s.uow.Atomic(ctx, func(tx Tx) error {
		if _, err := tx.LockEvent(eventID); err != nil {
			return err
		}
		return tx.RemoveParticipant(eventID, userID)
	})
}
