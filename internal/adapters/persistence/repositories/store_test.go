package repositories_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"bilet-lending/internal/adapters/persistence/models"
	"bilet-lending/internal/adapters/persistence/repositories"
	"bilet-lending/internal/core/domain"
	"bilet-lending/internal/core/services"
)

var t0 = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func newGormStore(t *testing.T) *repositories.GormStore {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?_foreign_keys=on"), &gorm.Config{
		Logger:                 logger.Default.LogMode(logger.Silent),
		SkipDefaultTransaction: true,
		TranslateError:         true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, models.AutoMigrate(db))
	return repositories.NewGormStore(db)
}

// forEachStore runs fn against a fresh store of every kind
func forEachStore(t *testing.T, fn func(t *testing.T, store services.Store)) {
	t.Run("memory", func(t *testing.T) {
		fn(t, repositories.NewMemoryStore())
	})
	t.Run("gorm_sqlite", func(t *testing.T) {
		fn(t, newGormStore(t))
	})
}

type seeded struct {
	reader *domain.User
	group  *domain.BookGroup
	copyID int64
}

func seed(t *testing.T, ctx context.Context, store services.Store) seeded {
	t.Helper()

	reader := &domain.User{
		Username:       "C-0001",
		Role:           domain.RoleReader,
		TicketNumber:   "T-0001",
		ContractNumber: "C-0001",
		PasswordHash:   "hash",
		IsActive:       true,
		CreatedAt:      t0,
	}
	require.NoError(t, store.CreateUser(ctx, reader))

	author := &domain.Author{Name: "Leo Tolstoy"}
	require.NoError(t, store.CreateAuthor(ctx, author))
	genre := &domain.Genre{Name: "Novel"}
	require.NoError(t, store.CreateGenre(ctx, genre))

	group := &domain.BookGroup{
		Title:     "War and Peace",
		AgeLimit:  12,
		AuthorIDs: domain.NewIDSet(author.ID),
		GenreIDs:  domain.NewIDSet(genre.ID),
	}
	require.NoError(t, store.CreateBookGroup(ctx, group))

	require.NoError(t, store.CreateCopy(ctx, &domain.BookCopy{
		ID:          1001,
		BookGroupID: group.ID,
		Status:      domain.CopyAvailable,
	}))
	return seeded{reader: reader, group: group, copyID: 1001}
}

func issueLoan(t *testing.T, ctx context.Context, store services.Store, copyID int64, readerID uint, issuedAt time.Time) *domain.Loan {
	t.Helper()

	loan := &domain.Loan{
		CopyID:   copyID,
		ReaderID: readerID,
		IssuedAt: issuedAt,
		DueAt:    issuedAt.AddDate(0, 0, 21),
		Status:   domain.LoanActive,
	}
	require.NoError(t, store.Atomic(ctx, func(tx services.Tx) error {
		if err := tx.CreateLoan(loan); err != nil {
			return err
		}
		return tx.UpdateCopyStatus(copyID, domain.CopyIssued)
	}))
	return loan
}

func Test_Store_Users(t *testing.T) {
	forEachStore(t, func(t *testing.T, store services.Store) {
		ctx := context.Background()
		s := seed(t, ctx, store)

		got, err := store.GetUserByUsername(ctx, "C-0001")
		require.NoError(t, err)
		assert.Equal(t, s.reader.ID, got.ID)
		assert.Equal(t, domain.RoleReader, got.Role)
		assert.True(t, got.IsActive)

		dup := *s.reader
		dup.ID = 0
		dup.Username = "someone-else"
		dup.ContractNumber = "C-0002"
		assert.ErrorIs(t, store.CreateUser(ctx, &dup), domain.ErrDuplicateEntry, "ticket numbers are unique")

		users, total, err := store.ListUsers(ctx, 0, 10)
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		assert.Len(t, users, 1)

		_, err = store.GetUserByID(ctx, 999)
		assert.ErrorIs(t, err, domain.ErrNotFound)

		require.NoError(t, store.DeleteUser(ctx, s.reader.ID))
		assert.ErrorIs(t, store.DeleteUser(ctx, s.reader.ID), domain.ErrNotFound)
	})
}

func Test_Store_Catalog(t *testing.T) {
	forEachStore(t, func(t *testing.T, store services.Store) {
		ctx := context.Background()
		s := seed(t, ctx, store)

		got, err := store.GetBookGroup(ctx, s.group.ID)
		require.NoError(t, err)
		assert.Equal(t, "War and Peace", got.Title)
		assert.Equal(t, 12, got.AgeLimit)
		assert.Equal(t, s.group.AuthorIDs.Slice(), got.AuthorIDs.Slice())
		assert.Equal(t, s.group.GenreIDs.Slice(), got.GenreIDs.Slice())

		groups, total, err := store.ListBookGroups(ctx, 0, 10)
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		require.Len(t, groups, 1)
		assert.Equal(t, 1, groups[0].AuthorIDs.Len())

		err = store.CreateBookGroup(ctx, &domain.BookGroup{Title: "Ghost", AuthorIDs: domain.NewIDSet(404)})
		assert.ErrorIs(t, err, domain.ErrNotFound)
		_, total, err = store.ListBookGroups(ctx, 0, 10)
		require.NoError(t, err)
		assert.Equal(t, int64(1), total, "failed create leaves nothing behind")

		err = store.CreateCopy(ctx, &domain.BookCopy{ID: s.copyID, BookGroupID: s.group.ID, Status: domain.CopyAvailable})
		assert.ErrorIs(t, err, domain.ErrDuplicateEntry)
		err = store.CreateCopy(ctx, &domain.BookCopy{ID: 2002, BookGroupID: 404, Status: domain.CopyAvailable})
		assert.ErrorIs(t, err, domain.ErrNotFound)

		require.NoError(t, store.UpdateCopyCondition(ctx, s.copyID, "scuffed"))
		c, err := store.GetCopy(ctx, s.copyID)
		require.NoError(t, err)
		assert.Equal(t, "scuffed", c.Condition)
		assert.ErrorIs(t, store.UpdateCopyCondition(ctx, 404, "x"), domain.ErrNotFound)

		copies, err := store.ListCopies(ctx, s.group.ID)
		require.NoError(t, err)
		assert.Len(t, copies, 1)
	})
}

func Test_Store_AtomicRollsBack(t *testing.T) {
	forEachStore(t, func(t *testing.T, store services.Store) {
		ctx := context.Background()
		s := seed(t, ctx, store)
		boom := errors.New("boom")

		err := store.Atomic(ctx, func(tx services.Tx) error {
			c, err := tx.LockCopy(s.copyID)
			require.NoError(t, err)
			require.Equal(t, domain.CopyAvailable, c.Status)

			loan := &domain.Loan{CopyID: s.copyID, ReaderID: s.reader.ID, IssuedAt: t0, DueAt: t0.AddDate(0, 0, 21), Status: domain.LoanActive}
			require.NoError(t, tx.CreateLoan(loan))
			require.NoError(t, tx.UpdateCopyStatus(s.copyID, domain.CopyIssued))
			return boom
		})
		assert.ErrorIs(t, err, boom, "fn's error comes back unchanged")

		c, err := store.GetCopy(ctx, s.copyID)
		require.NoError(t, err)
		assert.Equal(t, domain.CopyAvailable, c.Status)

		open, err := store.ListOpenLoans(ctx)
		require.NoError(t, err)
		assert.Empty(t, open)
	})
}

func Test_Store_LoanQueries(t *testing.T) {
	forEachStore(t, func(t *testing.T, store services.Store) {
		ctx := context.Background()
		s := seed(t, ctx, store)

		first := issueLoan(t, ctx, store, s.copyID, s.reader.ID, t0)

		// Close the first loan and open a second one on the same copy
		require.NoError(t, store.Atomic(ctx, func(tx services.Tx) error {
			l, err := tx.LockLoan(first.ID)
			if err != nil {
				return err
			}
			returned := t0.Add(time.Hour)
			l.ReturnedAt = &returned
			l.Status = domain.LoanReturned
			if err := tx.UpdateLoanReturn(l); err != nil {
				return err
			}
			return tx.UpdateCopyStatus(s.copyID, domain.CopyAvailable)
		}))
		second := issueLoan(t, ctx, store, s.copyID, s.reader.ID, t0.Add(2*time.Hour))

		require.NoError(t, store.Atomic(ctx, func(tx services.Tx) error {
			latest, err := tx.LatestOpenLoan(s.copyID)
			require.NoError(t, err)
			assert.Equal(t, second.ID, latest.ID)

			_, err = tx.LatestOpenLoan(404)
			assert.ErrorIs(t, err, domain.ErrNotFound)
			return nil
		}))

		open, err := store.ListLoansByReader(ctx, s.reader.ID, false)
		require.NoError(t, err)
		require.Len(t, open, 1)
		assert.Equal(t, second.ID, open[0].ID)

		closed, err := store.ListLoansByReader(ctx, s.reader.ID, true)
		require.NoError(t, err)
		require.Len(t, closed, 1)
		assert.Equal(t, first.ID, closed[0].ID)
		require.NotNil(t, closed[0].ReturnedAt)
		assert.WithinDuration(t, t0.Add(time.Hour), *closed[0].ReturnedAt, time.Second)

		due, err := store.ListOpenLoansDueBetween(ctx, t0.AddDate(0, 0, 21), t0.AddDate(0, 0, 22))
		require.NoError(t, err)
		require.Len(t, due, 1)
		assert.Equal(t, second.ID, due[0].ID)

		require.NoError(t, store.UpdateLoanStatus(ctx, second.ID, domain.LoanOverdue))
		require.NoError(t, store.UpdateLoanStatus(ctx, first.ID, domain.LoanOverdue))

		got, err := store.GetLoan(ctx, second.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.LoanOverdue, got.Status)
		got, err = store.GetLoan(ctx, first.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.LoanReturned, got.Status, "closed loans are never rewritten")
	})
}

func Test_Store_RenewRequests(t *testing.T) {
	forEachStore(t, func(t *testing.T, store services.Store) {
		ctx := context.Background()
		s := seed(t, ctx, store)
		loan := issueLoan(t, ctx, store, s.copyID, s.reader.ID, t0)

		newDue := loan.DueAt.AddDate(0, 0, 14)
		req := &domain.RenewRequest{LoanID: loan.ID, RequestedByID: s.reader.ID, RequestedAt: t0, NewDueAt: &newDue, Status: domain.RenewPending}
		require.NoError(t, store.Atomic(ctx, func(tx services.Tx) error { return tx.CreateRenewRequest(req) }))
		require.NotZero(t, req.ID)

		require.NoError(t, store.Atomic(ctx, func(tx services.Tx) error {
			r, err := tx.LockRenewRequest(req.ID)
			if err != nil {
				return err
			}
			l, err := tx.LockLoan(r.LoanID)
			if err != nil {
				return err
			}
			l.DueAt = *r.NewDueAt
			l.RenewCount++
			if err := tx.UpdateLoanRenewal(l); err != nil {
				return err
			}
			return tx.UpdateRenewRequestStatus(r.ID, domain.RenewApproved)
		}))

		got, err := store.GetLoan(ctx, loan.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, got.RenewCount)
		assert.WithinDuration(t, newDue, got.DueAt, time.Second)

		pending, err := store.ListRenewRequests(ctx, domain.RenewPending)
		require.NoError(t, err)
		assert.Empty(t, pending)
		all, err := store.ListRenewRequests(ctx, "")
		require.NoError(t, err)
		require.Len(t, all, 1)
		assert.Equal(t, domain.RenewApproved, all[0].Status)

		_, err = store.GetRenewRequest(ctx, 404)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func Test_Store_Participants(t *testing.T) {
	forEachStore(t, func(t *testing.T, store services.Store) {
		ctx := context.Background()
		s := seed(t, ctx, store)

		e := &domain.Event{Title: "Reading club", StartAt: t0, DurationMinutes: 60, Capacity: 2, Participants: domain.NewIDSet()}
		require.NoError(t, store.CreateEvent(ctx, e))

		require.NoError(t, store.Atomic(ctx, func(tx services.Tx) error {
			if _, err := tx.LockEvent(e.ID); err != nil {
				return err
			}
			return tx.AddParticipant(e.ID, s.reader.ID)
		}))

		require.NoError(t, store.Atomic(ctx, func(tx services.Tx) error {
			locked, err := tx.LockEvent(e.ID)
			require.NoError(t, err)
			assert.True(t, locked.Participants.Contains(s.reader.ID))

			member, err := tx.IsParticipant(e.ID, s.reader.ID)
			require.NoError(t, err)
			assert.True(t, member)

			n, err := tx.CountParticipants(e.ID)
			require.NoError(t, err)
			assert.Equal(t, 1, n)
			return nil
		}))

		got, err := store.GetEvent(ctx, e.ID)
		require.NoError(t, err)
		assert.Equal(t, []uint{s.reader.ID}, got.Participants.Slice())

		require.NoError(t, store.Atomic(ctx, func(tx services.Tx) error {
			if err := tx.RemoveParticipant(e.ID, s.reader.ID); err != nil {
				return err
			}
			return tx.RemoveParticipant(e.ID, s.reader.ID)
		}))
		events, err := store.ListEvents(ctx)
		require.NoError(t, err)
		require.Len(t, events, 1)
		assert.Zero(t, events[0].Participants.Len())

		_, err = store.GetEvent(ctx, 404)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func Test_Store_Notifications(t *testing.T) {
	forEachStore(t, func(t *testing.T, store services.Store) {
		ctx := context.Background()
		s := seed(t, ctx, store)

		older := &domain.Notification{UserID: s.reader.ID, Title: "a", Message: "first", CreatedAt: t0}
		newer := &domain.Notification{UserID: s.reader.ID, Title: "b", Message: "second", CreatedAt: t0.Add(time.Minute)}
		require.NoError(t, store.CreateNotification(ctx, older))
		require.NoError(t, store.CreateNotification(ctx, newer))

		require.NoError(t, store.MarkNotificationRead(ctx, older.ID, s.reader.ID))
		assert.ErrorIs(t, store.MarkNotificationRead(ctx, older.ID, s.reader.ID+1), domain.ErrNotFound)

		notes, err := store.ListNotifications(ctx, s.reader.ID)
		require.NoError(t, err)
		require.Len(t, notes, 2)
		assert.Equal(t, newer.ID, notes[0].ID)
		assert.False(t, notes[0].Read)
		assert.True(t, notes[1].Read)
	})
}

func Test_Store_Inventory(t *testing.T) {
	forEachStore(t, func(t *testing.T, store services.Store) {
		ctx := context.Background()
		s := seed(t, ctx, store)

		quiet := &domain.BookGroup{Title: "Quiet"}
		require.NoError(t, store.CreateBookGroup(ctx, quiet))
		require.NoError(t, store.CreateCopy(ctx, &domain.BookCopy{ID: 1002, BookGroupID: s.group.ID, Status: domain.CopyAvailable}))
		issueLoan(t, ctx, store, s.copyID, s.reader.ID, t0)

		total, err := store.CountCopies(ctx, s.group.ID, "")
		require.NoError(t, err)
		assert.Equal(t, int64(2), total)
		available, err := store.CountCopies(ctx, s.group.ID, domain.CopyAvailable)
		require.NoError(t, err)
		assert.Equal(t, int64(1), available)

		top, err := store.TopBookGroupsByLoans(ctx, 10)
		require.NoError(t, err)
		require.Len(t, top, 2)
		assert.Equal(t, domain.BookIssueCount{BookGroupID: s.group.ID, Title: "War and Peace", Issues: 1}, top[0])
		assert.Equal(t, domain.BookIssueCount{BookGroupID: quiet.ID, Title: "Quiet", Issues: 0}, top[1])
	})
}

func Test_Store_ConcurrentIssueSerializedByCopyLock(t *testing.T) {
	forEachStore(t, func(t *testing.T, store services.Store) {
		ctx := context.Background()
		s := seed(t, ctx, store)

		var (
			wg  sync.WaitGroup
			mu  sync.Mutex
			won int
		)
		for i := 0; i < 6; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				err := store.Atomic(ctx, func(tx services.Tx) error {
					c, err := tx.LockCopy(s.copyID)
					if err != nil {
						return err
					}
					if c.Status != domain.CopyAvailable {
						return domain.ErrCopyUnavailable
					}
					loan := &domain.Loan{CopyID: c.ID, ReaderID: s.reader.ID, IssuedAt: t0, DueAt: t0.AddDate(0, 0, 21), Status: domain.LoanActive}
					if err := tx.CreateLoan(loan); err != nil {
						return err
					}
					return tx.UpdateCopyStatus(c.ID, domain.CopyIssued)
				})
				if err == nil {
					mu.Lock()
					won++
					mu.Unlock()
					return
				}
				assert.ErrorIs(t, err, domain.ErrCopyUnavailable)
			}()
		}
		wg.Wait()

		assert.Equal(t, 1, won)
		open, err := store.ListOpenLoans(ctx)
		require.NoError(t, err)
		assert.Len(t, open, 1)
	})
}

func Test_MemoryStore_AtomicRejectsCancelledContext(t *testing.T) {
	store := repositories.NewMemoryStore()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := store.Atomic(ctx, func(tx services.Tx) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, domain.ErrStorage)
	assert.False(t, called)
}

func Test_MemoryStore_ReadsOutsideAtomicAreUncommitted(t *testing.T) {
	store := repositories.NewMemoryStore()
	ctx := context.Background()
	s := seed(t, ctx, store)
	boom := errors.New("boom")

	err := store.Atomic(ctx, func(tx services.Tx) error {
		require.NoError(t, tx.UpdateCopyStatus(s.copyID, domain.CopyLost))

		dirty, err := store.GetCopy(ctx, s.copyID)
		require.NoError(t, err)
		assert.Equal(t, domain.CopyLost, dirty.Status, "uncommitted write is visible")
		return boom
	})
	require.ErrorIs(t, err, boom)

	c, err := store.GetCopy(ctx, s.copyID)
	require.NoError(t, err)
	assert.Equal(t, domain.CopyAvailable, c.Status, "rollback restores the row")
}

func Test_Store_RefreshTokens(t *testing.T) {
	forEachStore(t, func(t *testing.T, store services.Store) {
		ctx := context.Background()
		s := seed(t, ctx, store)

		live := &domain.RefreshToken{UserID: s.reader.ID, TokenHash: "hash-live", ExpiresAt: t0.Add(time.Hour), CreatedAt: t0}
		old := &domain.RefreshToken{UserID: s.reader.ID, TokenHash: "hash-old", ExpiresAt: t0.Add(-time.Hour), CreatedAt: t0}
		require.NoError(t, store.CreateRefreshToken(ctx, live))
		require.NoError(t, store.CreateRefreshToken(ctx, old))
		assert.NotZero(t, live.ID)

		dup := &domain.RefreshToken{UserID: s.reader.ID, TokenHash: "hash-live", ExpiresAt: t0, CreatedAt: t0}
		assert.ErrorIs(t, store.CreateRefreshToken(ctx, dup), domain.ErrDuplicateEntry)

		got, err := store.GetRefreshTokenByHash(ctx, "hash-live")
		require.NoError(t, err)
		assert.Equal(t, live.ID, got.ID)
		assert.False(t, got.IsRevoked())
		_, err = store.GetRefreshTokenByHash(ctx, "nope")
		assert.ErrorIs(t, err, domain.ErrNotFound)

		require.NoError(t, store.RevokeRefreshToken(ctx, live.ID, t0))
		assert.ErrorIs(t, store.RevokeRefreshToken(ctx, live.ID, t0), domain.ErrNotFound, "a token is revoked once")

		got, err = store.GetRefreshTokenByHash(ctx, "hash-live")
		require.NoError(t, err, "revoked tokens stay visible")
		assert.True(t, got.IsRevoked())

		require.NoError(t, store.RevokeUserRefreshTokens(ctx, s.reader.ID, t0))
		got, err = store.GetRefreshTokenByHash(ctx, "hash-old")
		require.NoError(t, err)
		assert.True(t, got.IsRevoked())

		n, err := store.DeleteExpiredRefreshTokens(ctx, t0)
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)
		_, err = store.GetRefreshTokenByHash(ctx, "hash-old")
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}
