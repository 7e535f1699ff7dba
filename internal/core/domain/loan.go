package domain

import "time"

const (
	// DefaultLoanDays is used when issue is called without a loan period
	DefaultLoanDays = 21
	// DefaultRenewDays is the extension applied by a renew request
	DefaultRenewDays = 14
	// MaxRenewals caps Loan.RenewCount
	MaxRenewals = 5
)

// IsOverdue reports whether an unreturned loan is past its due date at now
func IsOverdue(l *Loan, now time.Time) bool {
	if l.ReturnedAt != nil {
		return false
	}
	return now.After(l.DueAt)
}

// DeriveLoanStatus computes the status of a loan from its dates.
// Cancelled is terminal and never recomputed.
func DeriveLoanStatus(l *Loan, now time.Time) LoanStatus {
	switch {
	case l.Status == LoanCancelled:
		return LoanCancelled
	case l.ReturnedAt != nil:
		return LoanReturned
	case IsOverdue(l, now):
		return LoanOverdue
	default:
		return LoanActive
	}
}

// IsOpen reports whether the loan still holds its copy
func (l *Loan) IsOpen() bool {
	return l.ReturnedAt == nil && l.Status != LoanCancelled
}

// AgeAt returns the age in whole years of someone born at birth, at now
func AgeAt(birth, now time.Time) int {
	years := now.Year() - birth.Year()
	if now.Month() < birth.Month() || (now.Month() == birth.Month() && now.Day() < birth.Day()) {
		years--
	}
	return years
}

// CheckAgeLimit fails with ErrAgeRestricted when the reader may not take a
// book with the given age limit. An unknown birth date never satisfies a
// non-zero limit.
func CheckAgeLimit(reader *User, ageLimit int, now time.Time) error {
	if ageLimit <= 0 {
		return nil
	}
	if reader.BirthDate == nil {
		return ErrAgeRestricted
	}
	if AgeAt(*reader.BirthDate, now) < ageLimit {
		return ErrAgeRestricted
	}
	return nil
}

// SeatsLeft returns the free places for capacity with taken seats, or -1
// when capacity is unlimited
func SeatsLeft(capacity, taken int) int {
	if capacity <= 0 {
		return -1
	}
	if left := capacity - taken; left > 0 {
		return left
	}
	return 0
}
