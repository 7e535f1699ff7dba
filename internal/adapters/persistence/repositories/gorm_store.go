package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"bilet-lending/internal/adapters/persistence/models"
	"bilet-lending/internal/core/domain"
	"bilet-lending/internal/core/services"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormStore is the SQL-backed Store. Row locks are SELECT ... FOR UPDATE
// inside a database transaction.
type GormStore struct {
	*userRepository
	*refreshTokenRepository
	*catalogRepository
	*loanRepository
	*eventRepository
	*notificationRepository

	db *gorm.DB
}

var _ services.Store = (*GormStore)(nil)

// NewGormStore creates a new GORM store
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{
		userRepository:         &userRepository{db: db},
		refreshTokenRepository: &refreshTokenRepository{db: db},
		catalogRepository:      &catalogRepository{db: db},
		loanRepository:         &loanRepository{db: db},
		eventRepository:        &eventRepository{db: db},
		notificationRepository: &notificationRepository{db: db},
		db:                     db,
	}
}

// Ping checks the database connection
func (s *GormStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return mapError(err)
	}
	return mapError(sqlDB.PingContext(ctx))
}

// Atomic runs fn in a database transaction
func (s *GormStore) Atomic(ctx context.Context, fn func(tx services.Tx) error) error {
	db := s.db.WithContext(ctx).Begin()
	if db.Error != nil {
		return mapError(db.Error)
	}
	defer func() {
		if r := recover(); r != nil {
			db.Rollback()
			panic(r)
		}
	}()

	if err := fn(&gormTx{db: db}); err != nil {
		db.Rollback()
		return err
	}
	if err := db.Commit().Error; err != nil {
		return mapError(err)
	}
	return nil
}

// mapError translates GORM and driver errors into domain errors
func mapError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return domain.ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey), isDuplicateKey(err):
		return domain.ErrDuplicateEntry
	default:
		return fmt.Errorf("%w: %v", domain.ErrStorage, err)
	}
}

// isDuplicateKey catches unique violations the dialector did not translate
func isDuplicateKey(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "Duplicate entry") ||
		strings.Contains(msg, "duplicate key value") ||
		strings.Contains(msg, "UNIQUE constraint failed")
}

// ============================================================
// Transaction
// ============================================================

type gormTx struct {
	db *gorm.DB
}

var _ services.Tx = (*gormTx)(nil)

func (t *gormTx) forUpdate() *gorm.DB {
	return t.db.Clauses(clause.Locking{Strength: "UPDATE"})
}

func (t *gormTx) LockCopy(id int64) (*domain.BookCopy, error) {
	var c models.BookCopy
	if err := t.forUpdate().Where("id = ?", id).First(&c).Error; err != nil {
		return nil, mapError(err)
	}
	return c.ToDomain(), nil
}

func (t *gormTx) LockLoan(id uint) (*domain.Loan, error) {
	var l models.Loan
	if err := t.forUpdate().Where("id = ?", id).First(&l).Error; err != nil {
		return nil, mapError(err)
	}
	return l.ToDomain(), nil
}

func (t *gormTx) LockRenewRequest(id uint) (*domain.RenewRequest, error) {
	var r models.RenewRequest
	if err := t.forUpdate().Where("id = ?", id).First(&r).Error; err != nil {
		return nil, mapError(err)
	}
	return r.ToDomain(), nil
}

func (t *gormTx) LockEvent(id uint) (*domain.Event, error) {
	var e models.Event
	if err := t.forUpdate().Where("id = ?", id).First(&e).Error; err != nil {
		return nil, mapError(err)
	}
	ids, err := participantIDs(t.db, id)
	if err != nil {
		return nil, err
	}
	return e.ToDomain(ids), nil
}

func (t *gormTx) GetUser(id uint) (*domain.User, error) {
	return getUser(t.db, id)
}

func (t *gormTx) GetBookGroup(id uint) (*domain.BookGroup, error) {
	return getBookGroup(t.db, id)
}

func (t *gormTx) GetLoan(id uint) (*domain.Loan, error) {
	var l models.Loan
	if err := t.db.Where("id = ?", id).First(&l).Error; err != nil {
		return nil, mapError(err)
	}
	return l.ToDomain(), nil
}

func (t *gormTx) LatestOpenLoan(copyID int64) (*domain.Loan, error) {
	var l models.Loan
	err := t.db.
		Where("copy_id = ? AND returned_at IS NULL AND status <> ?", copyID, string(domain.LoanCancelled)).
		Order("issued_at DESC, id DESC").
		First(&l).Error
	if err != nil {
		return nil, mapError(err)
	}
	return l.ToDomain(), nil
}

func (t *gormTx) CreateLoan(loan *domain.Loan) error {
	m := models.LoanFromDomain(loan)
	if err := t.db.Create(m).Error; err != nil {
		return mapError(err)
	}
	loan.ID = m.ID
	return nil
}

func (t *gormTx) UpdateLoanReturn(loan *domain.Loan) error {
	return mapError(t.db.Model(&models.Loan{}).
		Where("id = ?", loan.ID).
		Updates(map[string]interface{}{
			"returned_at":      loan.ReturnedAt,
			"return_condition": loan.ReturnCondition,
			"status":           string(loan.Status),
		}).Error)
}

func (t *gormTx) UpdateLoanRenewal(loan *domain.Loan) error {
	return mapError(t.db.Model(&models.Loan{}).
		Where("id = ?", loan.ID).
		Updates(map[string]interface{}{
			"due_at":      loan.DueAt,
			"renew_count": loan.RenewCount,
			"status":      string(loan.Status),
		}).Error)
}

func (t *gormTx) UpdateCopyStatus(id int64, status domain.CopyStatus) error {
	return mapError(t.db.Model(&models.BookCopy{}).
		Where("id = ?", id).
		Update("status", string(status)).Error)
}

func (t *gormTx) CreateRenewRequest(req *domain.RenewRequest) error {
	m := models.RenewRequestFromDomain(req)
	if err := t.db.Create(m).Error; err != nil {
		return mapError(err)
	}
	req.ID = m.ID
	return nil
}

func (t *gormTx) UpdateRenewRequestStatus(id uint, status domain.RenewStatus) error {
	return mapError(t.db.Model(&models.RenewRequest{}).
		Where("id = ?", id).
		Update("status", string(status)).Error)
}

func (t *gormTx) IsParticipant(eventID, userID uint) (bool, error) {
	var count int64
	err := t.db.Model(&models.EventParticipant{}).
		Where("event_id = ? AND user_id = ?", eventID, userID).
		Count(&count).Error
	if err != nil {
		return false, mapError(err)
	}
	return count > 0, nil
}

func (t *gormTx) CountParticipants(eventID uint) (int, error) {
	var count int64
	err := t.db.Model(&models.EventParticipant{}).
		Where("event_id = ?", eventID).
		Count(&count).Error
	if err != nil {
		return 0, mapError(err)
	}
	return int(count), nil
}

func (t *gormTx) AddParticipant(eventID, userID uint) error {
	return mapError(t.db.Create(&models.EventParticipant{EventID: eventID, UserID: userID}).Error)
}

func (t *gormTx) RemoveParticipant(eventID, userID uint) error {
	return mapError(t.db.
		Where("event_id = ? AND user_id = ?", eventID, userID).
		Delete(&models.EventParticipant{}).Error)
}
