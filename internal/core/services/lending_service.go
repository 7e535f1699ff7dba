package services

import (
	"context"
	"errors"
	"log"
	"time"

	"bilet-lending/internal/core/domain"
)

// LendingService owns copy status transitions and loan creation/closure
type LendingService struct {
	uow             UnitOfWork
	loanRepo        LoanRepository
	now             Clock
	defaultLoanDays int
}

// NewLendingService creates a new lending service
func NewLendingService(uow UnitOfWork, loanRepo LoanRepository, now Clock, defaultLoanDays int) *LendingService {
	if now == nil {
		now = time.Now
	}
	if defaultLoanDays <= 0 {
		defaultLoanDays = domain.DefaultLoanDays
	}
	return &LendingService{
		uow:             uow,
		loanRepo:        loanRepo,
		now:             now,
		defaultLoanDays: defaultLoanDays,
	}
}

// IssueInput represents issue copy input
type IssueInput struct {
	CopyID   int64 `json:"copy_id" validate:"required"`
	ReaderID uint  `json:"reader_id" validate:"required"`
	LoanDays int   `json:"loan_days" validate:"gte=0,lte=365"`
}

// Issue lends an available copy to a reader
func (s *LendingService) Issue(ctx context.Context, p domain.Principal, input IssueInput) (*domain.Loan, error) {
	if err := domain.RequireCapability(p, domain.CapStaff...); err != nil {
		return nil, err
	}

	loanDays := input.LoanDays
	if loanDays <= 0 {
		loanDays = s.defaultLoanDays
	}

	var loan *domain.Loan
	err := s.uow.Atomic(ctx, func(tx Tx) error {
		bookCopy, err := tx.LockCopy(input.CopyID)
		if err != nil {
			return err
		}
		reader, err := tx.GetUser(input.ReaderID)
		if err != nil {
			return err
		}
		group, err := tx.GetBookGroup(bookCopy.BookGroupID)
		if err != nil {
			return err
		}

		now := s.now()
		if err := domain.CheckAgeLimit(reader, group.AgeLimit, now); err != nil {
			return err
		}
		if bookCopy.Status != domain.CopyAvailable {
			return domain.ErrCopyUnavailable
		}

		issuedBy := p.UserID
		loan = &domain.Loan{
			CopyID:     bookCopy.ID,
			ReaderID:   reader.ID,
			IssuedByID: &issuedBy,
			IssuedAt:   now,
			DueAt:      now.AddDate(0, 0, loanDays),
			Status:     domain.LoanActive,
		}
		if err := tx.CreateLoan(loan); err != nil {
			return err
		}
		return tx.UpdateCopyStatus(bookCopy.ID, domain.CopyIssued)
	})
	if err != nil {
		return nil, err
	}

	log.Printf("📕 Copy %d issued to reader %d (loan %d, due %s)",
		loan.CopyID, loan.ReaderID, loan.ID, loan.DueAt.Format("2006-01-02"))
	return loan, nil
}

// ReturnCopy closes the latest open loan on a copy
func (s *LendingService) ReturnCopy(ctx context.Context, p domain.Principal, copyID int64, condition string) (*domain.Loan, error) {
	if err := domain.RequireCapability(p, domain.CapStaff...); err != nil {
		return nil, err
	}

	var loan *domain.Loan
	err := s.uow.Atomic(ctx, func(tx Tx) error {
		if _, err := tx.LockCopy(copyID); err != nil {
			return err
		}
		open, err := tx.LatestOpenLoan(copyID)
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNoActiveLoan
		}
		if err != nil {
			return err
		}
		loan, err = s.closeLoan(tx, open.ID, condition)
		return err
	})
	if err != nil {
		return nil, err
	}

	log.Printf("📗 Copy %d returned (loan %d)", copyID, loan.ID)
	return loan, nil
}

// MarkReturned closes a loan addressed by id, same effect as ReturnCopy
func (s *LendingService) MarkReturned(ctx context.Context, p domain.Principal, loanID uint, condition string) (*domain.Loan, error) {
	if err := domain.RequireCapability(p, domain.CapStaff...); err != nil {
		return nil, err
	}

	// The copy id of a loan never changes, so it is safe to read it unlocked
	// and take the locks in copy -> loan order.
	existing, err := s.loanRepo.GetLoan(ctx, loanID)
	if err != nil {
		return nil, err
	}

	var loan *domain.Loan
	err = s.uow.Atomic(ctx, func(tx Tx) error {
		if _, err := tx.LockCopy(existing.CopyID); err != nil {
			return err
		}
		var err error
		loan, err = s.closeLoan(tx, loanID, condition)
		return err
	})
	if err != nil {
		return nil, err
	}

	log.Printf("📗 Loan %d marked returned (copy %d)", loan.ID, loan.CopyID)
	return loan, nil
}

// closeLoan must run with the loan's copy already locked
func (s *LendingService) closeLoan(tx Tx, loanID uint, condition string) (*domain.Loan, error) {
	loan, err := tx.LockLoan(loanID)
	if err != nil {
		return nil, err
	}
	if !loan.IsOpen() {
		return nil, domain.ErrNoActiveLoan
	}

	now := s.now()
	loan.ReturnedAt = &now
	loan.ReturnCondition = condition
	loan.Status = domain.DeriveLoanStatus(loan, now)
	if err := tx.UpdateLoanReturn(loan); err != nil {
		return nil, err
	}
	if err := tx.UpdateCopyStatus(loan.CopyID, domain.CopyAvailable); err != nil {
		return nil, err
	}
	return loan, nil
}

// GetLoan returns a loan with its status derived at read time.
// Readers may only see their own loans.
func (s *LendingService) GetLoan(ctx context.Context, p domain.Principal, loanID uint) (*domain.Loan, error) {
	loan, err := s.loanRepo.GetLoan(ctx, loanID)
	if err != nil {
		return nil, err
	}
	if !p.IsStaff() && loan.ReaderID != p.UserID {
		return nil, domain.ErrForbidden
	}
	loan.Status = domain.DeriveLoanStatus(loan, s.now())
	return loan, nil
}

// ListReaderLoans lists the open (returned=false) or closed loans of a reader
func (s *LendingService) ListReaderLoans(ctx context.Context, p domain.Principal, readerID uint, returned bool) ([]*domain.Loan, error) {
	if !p.IsStaff() && readerID != p.UserID {
		return nil, domain.ErrForbidden
	}
	loans, err := s.loanRepo.ListLoansByReader(ctx, readerID, returned)
	if err != nil {
		return nil, err
	}
	now := s.now()
	for _, l := range loans {
		l.Status = domain.DeriveLoanStatus(l, now)
	}
	return loans, nil
}

// IsOverdue reports whether loan is overdue right now
func (s *LendingService) IsOverdue(loan *domain.Loan) bool {
	return domain.IsOverdue(loan, s.now())
}

// RefreshStatuses rewrites the stored status of open loans for reporting.
// Best effort: decisions never rely on the stored value.
func (s *LendingService) RefreshStatuses(ctx context.Context) (int, error) {
	loans, err := s.loanRepo.ListOpenLoans(ctx)
	if err != nil {
		return 0, err
	}

	now := s.now()
	changed := 0
	for _, l := range loans {
		status := domain.DeriveLoanStatus(l, now)
		if status == l.Status {
			continue
		}
		if err := s.loanRepo.UpdateLoanStatus(ctx, l.ID, status); err != nil {
			log.Printf("⚠️ Refresh status of loan %d failed: %v", l.ID, err)
			continue
		}
		changed++
	}

	if changed > 0 {
		log.Printf("🔄 Refreshed status of %d loans", changed)
	}
	return changed, nil
}
