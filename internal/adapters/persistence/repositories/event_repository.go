package repositories

import (
	"context"

	"bilet-lending/internal/adapters/persistence/models"
	"bilet-lending/internal/core/domain"

	"gorm.io/gorm"
)

// eventRepository implements EventRepository interface
type eventRepository struct {
	db *gorm.DB
}

func (r *eventRepository) CreateEvent(ctx context.Context, e *domain.Event) error {
	m := models.EventFromDomain(e)

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(m).Error; err != nil {
			return mapError(err)
		}
		for _, userID := range e.Participants.Slice() {
			if err := tx.Create(&models.EventParticipant{EventID: m.ID, UserID: userID}).Error; err != nil {
				return mapError(err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	e.ID = m.ID
	e.CreatedAt = m.CreatedAt
	if e.Participants == nil {
		e.Participants = domain.NewIDSet()
	}
	return nil
}

func (r *eventRepository) GetEvent(ctx context.Context, id uint) (*domain.Event, error) {
	db := r.db.WithContext(ctx)

	var e models.Event
	if err := db.Where("id = ?", id).First(&e).Error; err != nil {
		return nil, mapError(err)
	}
	ids, err := participantIDs(db, id)
	if err != nil {
		return nil, err
	}
	return e.ToDomain(ids), nil
}

// ListEvents lists events by start time
func (r *eventRepository) ListEvents(ctx context.Context) ([]*domain.Event, error) {
	var rows []models.Event
	if err := r.db.WithContext(ctx).Order("start_at ASC, id ASC").Find(&rows).Error; err != nil {
		return nil, mapError(err)
	}
	if len(rows) == 0 {
		return []*domain.Event{}, nil
	}

	ids := make([]uint, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ID)
	}
	var links []models.EventParticipant
	if err := r.db.WithContext(ctx).Where("event_id IN ?", ids).Find(&links).Error; err != nil {
		return nil, mapError(err)
	}
	members := make(map[uint][]uint)
	for _, link := range links {
		members[link.EventID] = append(members[link.EventID], link.UserID)
	}

	out := make([]*domain.Event, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].ToDomain(members[rows[i].ID]))
	}
	return out, nil
}

func participantIDs(db *gorm.DB, eventID uint) ([]uint, error) {
	var ids []uint
	if err := db.Model(&models.EventParticipant{}).Where("event_id = ?", eventID).Pluck("user_id", &ids).Error; err != nil {
		return nil, mapError(err)
	}
	return ids, nil
}
