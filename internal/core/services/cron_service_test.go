package services_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bilet-lending/internal/core/domain"
	"bilet-lending/internal/core/services"
)

func Test_SendDueReminders(t *testing.T) {
	f := newFixture(t)
	f.newCopy(t, f.group.ID, 1)
	f.newCopy(t, f.group.ID, 2)
	f.newCopy(t, f.group.ID, 3)

	_, err := f.svc.Lending.Issue(f.ctx, f.staff, services.IssueInput{CopyID: 1, ReaderID: f.reader.UserID, LoanDays: 1})
	require.NoError(t, err)
	_, err = f.svc.Lending.Issue(f.ctx, f.staff, services.IssueInput{CopyID: 2, ReaderID: f.reader.UserID, LoanDays: 10})
	require.NoError(t, err)
	_, err = f.svc.Lending.Issue(f.ctx, f.staff, services.IssueInput{CopyID: 3, ReaderID: f.reader.UserID, LoanDays: 1})
	require.NoError(t, err)
	_, err = f.svc.Lending.ReturnCopy(f.ctx, f.staff, 3, "")
	require.NoError(t, err)

	// Copy 1 is due in 23 hours; copy 2 in nine days; copy 3 is back
	f.clock.Advance(time.Hour)

	n, err := f.svc.Cron.SendDueReminders(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	assert.Eventually(t, func() bool {
		notes, err := f.svc.Notifications.ListForUser(f.ctx, f.reader)
		return err == nil && len(notes) == 1 && notes[0].Title == "Loan due soon"
	}, time.Second, 10*time.Millisecond)
}

func Test_Cron_StartRejectsBadSchedule(t *testing.T) {
	f := newFixture(t)

	cron := services.NewCronService(f.svc.Lending, f.svc.Auth, f.store, f.svc.Notifications, nil, "not a spec", "", "")
	assert.Error(t, cron.Start())

	cron = services.NewCronService(f.svc.Lending, f.svc.Auth, f.store, f.svc.Notifications, nil, "", "", "@every 1h")
	require.NoError(t, cron.Start())
	cron.Stop()

	cron = services.NewCronService(f.svc.Lending, f.svc.Auth, f.store, f.svc.Notifications, nil, "", "", "bad cleanup")
	assert.Error(t, cron.Start())

	cron = services.NewCronService(f.svc.Lending, f.svc.Auth, f.store, f.svc.Notifications, nil, "", "", "")
	require.NoError(t, cron.Start())
	cron.Stop()
}

func Test_Cron_RefreshIsBestEffort(t *testing.T) {
	f := newFixture(t)
	f.newCopy(t, f.group.ID, 1)
	loan := f.issue(t, 1, f.reader)
	f.clock.Advance(time.Duration(domain.DefaultLoanDays+1) * 24 * time.Hour)

	// Decisions never read the stored status, so a stale value is harmless
	got, err := f.svc.Lending.GetLoan(f.ctx, f.staff, loan.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.LoanOverdue, got.Status)

	_, err = f.svc.Lending.ReturnCopy(f.ctx, f.staff, 1, "")
	require.NoError(t, err)
	changed, err := f.svc.Lending.RefreshStatuses(f.ctx)
	require.NoError(t, err)
	assert.Zero(t, changed, "closed loans are left alone")
}
