package repositories

import (
	"context"
	"time"

	"bilet-lending/internal/adapters/persistence/models"
	"bilet-lending/internal/core/domain"

	"gorm.io/gorm"
)

// loanRepository implements LoanRepository interface
type loanRepository struct {
	db *gorm.DB
}

func (r *loanRepository) GetLoan(ctx context.Context, id uint) (*domain.Loan, error) {
	var l models.Loan
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&l).Error; err != nil {
		return nil, mapError(err)
	}
	return l.ToDomain(), nil
}

// ListLoansByReader lists a reader's open (returned=false) or closed loans, newest first
func (r *loanRepository) ListLoansByReader(ctx context.Context, readerID uint, returned bool) ([]*domain.Loan, error) {
	db := r.db.WithContext(ctx).Where("reader_id = ?", readerID)
	if returned {
		db = db.Where("returned_at IS NOT NULL")
	} else {
		db = db.Where("returned_at IS NULL")
	}
	return findLoans(db)
}

func (r *loanRepository) ListOpenLoans(ctx context.Context) ([]*domain.Loan, error) {
	return findLoans(r.openLoans(ctx))
}

// ListOpenLoansDueBetween lists open loans with from <= due_at < to
func (r *loanRepository) ListOpenLoansDueBetween(ctx context.Context, from, to time.Time) ([]*domain.Loan, error) {
	return findLoans(r.openLoans(ctx).Where("due_at >= ? AND due_at < ?", from, to))
}

// UpdateLoanStatus only touches loans that are still open, so a concurrent
// return always wins over a status refresh
func (r *loanRepository) UpdateLoanStatus(ctx context.Context, id uint, status domain.LoanStatus) error {
	return mapError(r.db.WithContext(ctx).Model(&models.Loan{}).
		Where("id = ? AND returned_at IS NULL AND status <> ?", id, string(domain.LoanCancelled)).
		Update("status", string(status)).Error)
}

func (r *loanRepository) openLoans(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Where("returned_at IS NULL AND status <> ?", string(domain.LoanCancelled))
}

func findLoans(db *gorm.DB) ([]*domain.Loan, error) {
	var rows []models.Loan
	if err := db.Order("issued_at DESC, id DESC").Find(&rows).Error; err != nil {
		return nil, mapError(err)
	}
	out := make([]*domain.Loan, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].ToDomain())
	}
	return out, nil
}

// ============================================================
// Renew requests
// ============================================================

func (r *loanRepository) GetRenewRequest(ctx context.Context, id uint) (*domain.RenewRequest, error) {
	var req models.RenewRequest
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&req).Error; err != nil {
		return nil, mapError(err)
	}
	return req.ToDomain(), nil
}

// ListRenewRequests lists requests in the given status (all when empty), oldest first
func (r *loanRepository) ListRenewRequests(ctx context.Context, status domain.RenewStatus) ([]*domain.RenewRequest, error) {
	db := r.db.WithContext(ctx)
	if status != "" {
		db = db.Where("status = ?", string(status))
	}

	var rows []models.RenewRequest
	if err := db.Order("id ASC").Find(&rows).Error; err != nil {
		return nil, mapError(err)
	}
	out := make([]*domain.RenewRequest, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].ToDomain())
	}
	return out, nil
}
