package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"bilet-lending/internal/core/domain"
)

// RenewalService owns the renew request lifecycle
type RenewalService struct {
	uow         UnitOfWork
	loanRepo    LoanRepository
	notifier    NotificationSink
	now         Clock
	maxRenewals int
	defaultDays int
}

// NewRenewalService creates a new renewal service
func NewRenewalService(uow UnitOfWork, loanRepo LoanRepository, notifier NotificationSink, now Clock, maxRenewals, defaultDays int) *RenewalService {
	if now == nil {
		now = time.Now
	}
	if maxRenewals <= 0 {
		maxRenewals = domain.MaxRenewals
	}
	if defaultDays <= 0 {
		defaultDays = domain.DefaultRenewDays
	}
	return &RenewalService{
		uow:         uow,
		loanRepo:    loanRepo,
		notifier:    notifier,
		now:         now,
		maxRenewals: maxRenewals,
		defaultDays: defaultDays,
	}
}

// Extend files a pending renew request for a loan. The loan is not touched.
func (s *RenewalService) Extend(ctx context.Context, p domain.Principal, loanID uint, extraDays int) (*domain.RenewRequest, error) {
	if p.UserID == 0 {
		return nil, domain.ErrUnauthorized
	}
	if extraDays <= 0 {
		extraDays = s.defaultDays
	}

	var req *domain.RenewRequest
	err := s.uow.Atomic(ctx, func(tx Tx) error {
		loan, err := tx.LockLoan(loanID)
		if err != nil {
			return err
		}
		if !p.IsStaff() && loan.ReaderID != p.UserID {
			return domain.ErrForbidden
		}
		if !loan.IsOpen() {
			return domain.ErrNoActiveLoan
		}
		if loan.RenewCount >= s.maxRenewals {
			return domain.ErrRenewalLimitExceeded
		}

		newDue := loan.DueAt.AddDate(0, 0, extraDays)
		req = &domain.RenewRequest{
			LoanID:        loan.ID,
			RequestedByID: p.UserID,
			RequestedAt:   s.now(),
			NewDueAt:      &newDue,
			Status:        domain.RenewPending,
		}
		return tx.CreateRenewRequest(req)
	})
	if err != nil {
		return nil, err
	}

	log.Printf("📝 Renew request %d filed for loan %d by user %d", req.ID, loanID, p.UserID)
	return req, nil
}

// Approve applies a pending renew request to its loan
func (s *RenewalService) Approve(ctx context.Context, p domain.Principal, requestID uint) (*domain.Loan, error) {
	if err := domain.RequireCapability(p, domain.CapStaff...); err != nil {
		return nil, err
	}

	var (
		req  *domain.RenewRequest
		loan *domain.Loan
	)
	err := s.uow.Atomic(ctx, func(tx Tx) error {
		var err error
		req, err = tx.LockRenewRequest(requestID)
		if err != nil {
			return err
		}
		if req.Status != domain.RenewPending {
			return domain.ErrStaleRequest
		}

		loan, err = tx.LockLoan(req.LoanID)
		if err != nil {
			return err
		}
		// A returned loan is history; the request stays pending until rejected
		if !loan.IsOpen() {
			return domain.ErrNoActiveLoan
		}
		// Several requests can be pending for one loan; the cap is enforced
		// again here so approvals never push past it.
		if loan.RenewCount >= s.maxRenewals {
			return domain.ErrRenewalLimitExceeded
		}

		if req.NewDueAt != nil {
			loan.DueAt = *req.NewDueAt
		} else {
			loan.DueAt = loan.DueAt.AddDate(0, 0, domain.DefaultRenewDays)
		}
		loan.RenewCount++
		loan.Status = domain.DeriveLoanStatus(loan, s.now())

		if err := tx.UpdateLoanRenewal(loan); err != nil {
			return err
		}
		req.Status = domain.RenewApproved
		return tx.UpdateRenewRequestStatus(req.ID, domain.RenewApproved)
	})
	if err != nil {
		return nil, err
	}

	s.notify(req.RequestedByID, "Renewal approved",
		fmt.Sprintf("Loan #%d is now due on %s", loan.ID, loan.DueAt.Format("2006-01-02")))
	log.Printf("✅ Renew request %d approved by %d (loan %d, renewals %d)", req.ID, p.UserID, loan.ID, loan.RenewCount)
	return loan, nil
}

// Reject declines a renew request. Rejecting an already rejected request is
// a no-op and an approved request is left as it is; neither is an error.
func (s *RenewalService) Reject(ctx context.Context, p domain.Principal, requestID uint) error {
	if err := domain.RequireCapability(p, domain.CapStaff...); err != nil {
		return err
	}

	var (
		req     *domain.RenewRequest
		changed bool
	)
	err := s.uow.Atomic(ctx, func(tx Tx) error {
		var err error
		req, err = tx.LockRenewRequest(requestID)
		if err != nil {
			return err
		}
		if req.Status != domain.RenewPending {
			return nil
		}
		changed = true
		req.Status = domain.RenewRejected
		return tx.UpdateRenewRequestStatus(req.ID, domain.RenewRejected)
	})
	if err != nil {
		return err
	}

	if changed {
		s.notify(req.RequestedByID, "Renewal rejected",
			fmt.Sprintf("Renew request #%d for loan #%d was rejected", req.ID, req.LoanID))
		log.Printf("❌ Renew request %d rejected by %d", req.ID, p.UserID)
	}
	return nil
}

// ListPending lists renew requests waiting for a decision
func (s *RenewalService) ListPending(ctx context.Context, p domain.Principal) ([]*domain.RenewRequest, error) {
	if err := domain.RequireCapability(p, domain.CapStaff...); err != nil {
		return nil, err
	}
	return s.loanRepo.ListRenewRequests(ctx, domain.RenewPending)
}

func (s *RenewalService) notify(userID uint, title, message string) {
	if s.notifier != nil {
		s.notifier.Notify(userID, title, message)
	}
}
