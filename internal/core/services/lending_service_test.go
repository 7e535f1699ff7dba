package services_test

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bilet-lending/internal/core/domain"
	"bilet-lending/internal/core/services"
)

func Test_Issue_AgeRestrictedReader(t *testing.T) {
	f := newFixture(t)
	adultsOnly := f.newBookGroup(t, 18)
	f.newCopy(t, adultsOnly.ID, 1)
	tenYears := startTime.AddDate(-10, 0, 0)
	child := f.newUser(t, domain.RoleReader, &tenYears)

	_, err := f.svc.Lending.Issue(f.ctx, f.staff, services.IssueInput{CopyID: 1, ReaderID: child.UserID})

	assert.ErrorIs(t, err, domain.ErrAgeRestricted)
	assert.Equal(t, domain.CopyAvailable, f.copyStatus(t, 1), "failed issue leaves the copy untouched")
	assert.Zero(t, f.openLoansOn(t, 1))
}

func Test_Issue_UnknownBirthDateWithAgeLimit(t *testing.T) {
	f := newFixture(t)
	teen := f.newBookGroup(t, 12)
	f.newCopy(t, teen.ID, 1)
	unknown := f.newUser(t, domain.RoleReader, nil)

	_, err := f.svc.Lending.Issue(f.ctx, f.staff, services.IssueInput{CopyID: 1, ReaderID: unknown.UserID})

	assert.ErrorIs(t, err, domain.ErrAgeRestricted)
}

func Test_Issue_ThenIssueAgainBeforeReturn(t *testing.T) {
	f := newFixture(t)
	f.newCopy(t, f.group.ID, 2)

	loan, err := f.svc.Lending.Issue(f.ctx, f.staff, services.IssueInput{CopyID: 2, ReaderID: f.reader.UserID, LoanDays: 21})
	require.NoError(t, err)

	assert.Equal(t, startTime, loan.IssuedAt)
	assert.Equal(t, loan.IssuedAt.AddDate(0, 0, 21), loan.DueAt)
	assert.Equal(t, domain.LoanActive, loan.Status)
	require.NotNil(t, loan.IssuedByID)
	assert.Equal(t, f.staff.UserID, *loan.IssuedByID)
	assert.Equal(t, domain.CopyIssued, f.copyStatus(t, 2))

	other := f.newUser(t, domain.RoleReader, nil)
	_, err = f.svc.Lending.Issue(f.ctx, f.staff, services.IssueInput{CopyID: 2, ReaderID: other.UserID})
	assert.ErrorIs(t, err, domain.ErrCopyUnavailable)
	assert.Equal(t, 1, f.openLoansOn(t, 2))
}

func Test_Issue_DefaultLoanPeriod(t *testing.T) {
	f := newFixture(t)
	f.newCopy(t, f.group.ID, 3)

	loan := f.issue(t, 3, f.reader)

	assert.Equal(t, startTime.AddDate(0, 0, domain.DefaultLoanDays), loan.DueAt)
}

func Test_Issue_Failures(t *testing.T) {
	f := newFixture(t)
	f.newCopy(t, f.group.ID, 4)
	f.newCopy(t, f.group.ID, 5)
	require.NoError(t, f.svc.Catalog.SetCopyStatus(f.ctx, f.staff, 5, domain.CopyLost))

	tests := []struct {
		name    string
		caller  domain.Principal
		input   services.IssueInput
		wantErr error
	}{
		{
			name:    "missing_copy",
			caller:  f.staff,
			input:   services.IssueInput{CopyID: 999, ReaderID: f.reader.UserID},
			wantErr: domain.ErrNotFound,
		},
		{
			name:    "missing_reader",
			caller:  f.staff,
			input:   services.IssueInput{CopyID: 4, ReaderID: 999},
			wantErr: domain.ErrNotFound,
		},
		{
			name:    "lost_copy",
			caller:  f.staff,
			input:   services.IssueInput{CopyID: 5, ReaderID: f.reader.UserID},
			wantErr: domain.ErrCopyUnavailable,
		},
		{
			name:    "reader_cannot_issue",
			caller:  f.reader,
			input:   services.IssueInput{CopyID: 4, ReaderID: f.reader.UserID},
			wantErr: domain.ErrForbidden,
		},
		{
			name:    "anonymous_cannot_issue",
			caller:  domain.Principal{},
			input:   services.IssueInput{CopyID: 4, ReaderID: f.reader.UserID},
			wantErr: domain.ErrUnauthorized,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.svc.Lending.Issue(f.ctx, tc.caller, tc.input)
			assert.ErrorIs(t, err, tc.wantErr)
		})
	}
	assert.Equal(t, domain.CopyAvailable, f.copyStatus(t, 4))
}

func Test_Issue_ConcurrentOnSameCopy(t *testing.T) {
	f := newFixture(t)
	f.newCopy(t, f.group.ID, 7)
	readers := []domain.Principal{f.reader, f.newUser(t, domain.RoleReader, nil)}

	const attempts = 8
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		ok   int
		errs []error
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(reader domain.Principal) {
			defer wg.Done()
			_, err := f.svc.Lending.Issue(f.ctx, f.staff, services.IssueInput{CopyID: 7, ReaderID: reader.UserID})
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				ok++
				return
			}
			errs = append(errs, err)
		}(readers[i%2])
	}
	wg.Wait()

	assert.Equal(t, 1, ok, "exactly one issue succeeds")
	for _, err := range errs {
		assert.ErrorIs(t, err, domain.ErrCopyUnavailable)
	}
	assert.Equal(t, 1, f.openLoansOn(t, 7))
	assert.Equal(t, domain.CopyIssued, f.copyStatus(t, 7))
}

func Test_ReturnCopy(t *testing.T) {
	f := newFixture(t)
	f.newCopy(t, f.group.ID, 10)
	issued := f.issue(t, 10, f.reader)
	f.clock.Advance(48 * time.Hour)

	loan, err := f.svc.Lending.ReturnCopy(f.ctx, f.staff, 10, "worn cover")
	require.NoError(t, err)

	assert.Equal(t, issued.ID, loan.ID)
	require.NotNil(t, loan.ReturnedAt)
	assert.Equal(t, startTime.Add(48*time.Hour), *loan.ReturnedAt)
	assert.Equal(t, "worn cover", loan.ReturnCondition)
	assert.Equal(t, domain.LoanReturned, loan.Status)
	assert.Equal(t, domain.CopyAvailable, f.copyStatus(t, 10))

	_, err = f.svc.Lending.ReturnCopy(f.ctx, f.staff, 10, "")
	assert.ErrorIs(t, err, domain.ErrNoActiveLoan, "second return reports no active loan")

	stored, err := f.store.GetLoan(f.ctx, issued.ID)
	require.NoError(t, err)
	assert.Equal(t, "worn cover", stored.ReturnCondition, "second return does not touch the closed loan")
}

func Test_ReturnCopy_NeverIssued(t *testing.T) {
	f := newFixture(t)
	f.newCopy(t, f.group.ID, 11)

	_, err := f.svc.Lending.ReturnCopy(f.ctx, f.staff, 11, "")
	assert.ErrorIs(t, err, domain.ErrNoActiveLoan)

	_, err = f.svc.Lending.ReturnCopy(f.ctx, f.staff, 404, "")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func Test_ReturnCopy_ClosesLatestLoan(t *testing.T) {
	f := newFixture(t)
	f.newCopy(t, f.group.ID, 12)

	first := f.issue(t, 12, f.reader)
	_, err := f.svc.Lending.ReturnCopy(f.ctx, f.staff, 12, "")
	require.NoError(t, err)

	f.clock.Advance(time.Hour)
	second := f.issue(t, 12, f.reader)

	loan, err := f.svc.Lending.ReturnCopy(f.ctx, f.staff, 12, "")
	require.NoError(t, err)
	assert.Equal(t, second.ID, loan.ID)
	assert.NotEqual(t, first.ID, loan.ID)
}

func Test_MarkReturned(t *testing.T) {
	f := newFixture(t)
	f.newCopy(t, f.group.ID, 13)
	issued := f.issue(t, 13, f.reader)

	loan, err := f.svc.Lending.MarkReturned(f.ctx, f.staff, issued.ID, "fine")
	require.NoError(t, err)
	assert.Equal(t, domain.LoanReturned, loan.Status)
	assert.Equal(t, domain.CopyAvailable, f.copyStatus(t, 13))

	_, err = f.svc.Lending.MarkReturned(f.ctx, f.staff, issued.ID, "fine")
	assert.ErrorIs(t, err, domain.ErrNoActiveLoan)

	_, err = f.svc.Lending.MarkReturned(f.ctx, f.staff, 999, "")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = f.svc.Lending.MarkReturned(f.ctx, f.reader, issued.ID, "")
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func Test_Issue_AfterReturnKeepsCopyInvariant(t *testing.T) {
	f := newFixture(t)
	f.newCopy(t, f.group.ID, 14)

	for i := 0; i < 3; i++ {
		f.issue(t, 14, f.reader)
		assert.Equal(t, domain.CopyIssued, f.copyStatus(t, 14))
		assert.Equal(t, 1, f.openLoansOn(t, 14))

		_, err := f.svc.Lending.ReturnCopy(f.ctx, f.staff, 14, "")
		require.NoError(t, err)
		assert.Equal(t, domain.CopyAvailable, f.copyStatus(t, 14))
		assert.Zero(t, f.openLoansOn(t, 14))
	}
}

func Test_GetLoan_DerivesOverdue(t *testing.T) {
	f := newFixture(t)
	f.newCopy(t, f.group.ID, 20)
	issued := f.issue(t, 20, f.reader)

	f.clock.Advance(time.Duration(domain.DefaultLoanDays+1) * 24 * time.Hour)

	loan, err := f.svc.Lending.GetLoan(f.ctx, f.reader, issued.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.LoanOverdue, loan.Status)
	assert.True(t, f.svc.Lending.IsOverdue(loan))

	stranger := f.newUser(t, domain.RoleReader, nil)
	_, err = f.svc.Lending.GetLoan(f.ctx, stranger, issued.ID)
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func Test_ListReaderLoans(t *testing.T) {
	f := newFixture(t)
	f.newCopy(t, f.group.ID, 30)
	f.newCopy(t, f.group.ID, 31)
	f.issue(t, 30, f.reader)
	f.clock.Advance(time.Minute)
	returned := f.issue(t, 31, f.reader)
	_, err := f.svc.Lending.ReturnCopy(f.ctx, f.staff, 31, "")
	require.NoError(t, err)

	active, err := f.svc.Lending.ListReaderLoans(f.ctx, f.reader, f.reader.UserID, false)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, int64(30), active[0].CopyID)

	closed, err := f.svc.Lending.ListReaderLoans(f.ctx, f.staff, f.reader.UserID, true)
	require.NoError(t, err)
	require.Len(t, closed, 1)
	assert.Equal(t, returned.ID, closed[0].ID)

	other := f.newUser(t, domain.RoleReader, nil)
	_, err = f.svc.Lending.ListReaderLoans(f.ctx, other, f.reader.UserID, false)
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func Test_RefreshStatuses(t *testing.T) {
	f := newFixture(t)
	f.newCopy(t, f.group.ID, 40)
	f.newCopy(t, f.group.ID, 41)
	late := f.issue(t, 40, f.reader)

	f.clock.Advance(time.Duration(domain.DefaultLoanDays+2) * 24 * time.Hour)
	fresh := f.issue(t, 41, f.reader)

	changed, err := f.svc.Lending.RefreshStatuses(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, changed)

	stored, err := f.store.GetLoan(f.ctx, late.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.LoanOverdue, stored.Status)

	stored, err = f.store.GetLoan(f.ctx, fresh.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.LoanActive, stored.Status)

	changed, err = f.svc.Lending.RefreshStatuses(f.ctx)
	require.NoError(t, err)
	assert.Zero(t, changed, "second run has nothing to do")
}
