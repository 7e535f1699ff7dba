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

func (f *fixture) newEvent(t *testing.T, capacity int) *domain.Event {
	t.Helper()

	e, err := f.svc.Events.Create(f.ctx, f.staff, services.CreateEventInput{
		Title:    "Reading club",
		StartAt:  startTime.AddDate(0, 0, 7),
		Capacity: capacity,
	})
	require.NoError(t, err)
	return e
}

func Test_CreateEvent(t *testing.T) {
	f := newFixture(t)

	e := f.newEvent(t, 10)
	assert.NotZero(t, e.ID)
	assert.Equal(t, 60, e.DurationMinutes, "default duration")
	assert.Zero(t, e.Participants.Len())

	_, err := f.svc.Events.Create(f.ctx, f.reader, services.CreateEventInput{Title: "x", StartAt: startTime})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = f.svc.Events.Create(f.ctx, f.staff, services.CreateEventInput{Title: "  ", StartAt: startTime})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func Test_Register_SetSemantics(t *testing.T) {
	f := newFixture(t)
	e := f.newEvent(t, 2)

	require.NoError(t, f.svc.Events.Register(f.ctx, f.reader, e.ID, 0))
	require.NoError(t, f.svc.Events.Register(f.ctx, f.reader, e.ID, 0), "registering twice is a no-op")

	got, err := f.svc.Events.Get(f.ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, []uint{f.reader.UserID}, got.Participants.Slice())
}

func Test_Register_FullEventStillAcceptsExistingMember(t *testing.T) {
	f := newFixture(t)
	e := f.newEvent(t, 1)
	other := f.newUser(t, domain.RoleReader, nil)

	require.NoError(t, f.svc.Events.Register(f.ctx, f.reader, e.ID, 0))

	assert.ErrorIs(t, f.svc.Events.Register(f.ctx, other, e.ID, 0), domain.ErrEventFull)
	assert.NoError(t, f.svc.Events.Register(f.ctx, f.reader, e.ID, 0))
}

func Test_Register_UnlimitedCapacity(t *testing.T) {
	f := newFixture(t)
	e := f.newEvent(t, 0)

	for i := 0; i < 5; i++ {
		p := f.newUser(t, domain.RoleReader, nil)
		require.NoError(t, f.svc.Events.Register(f.ctx, p, e.ID, 0))
	}

	got, err := f.svc.Events.Get(f.ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, got.Participants.Len())
}

func Test_Register_ConcurrentForLastSeat(t *testing.T) {
	f := newFixture(t)
	e := f.newEvent(t, 1)
	users := []domain.Principal{f.reader, f.newUser(t, domain.RoleReader, nil)}

	var (
		wg   sync.WaitGroup
		errs = make([]error, len(users))
	)
	for i, u := range users {
		wg.Add(1)
		go func(i int, u domain.Principal) {
			defer wg.Done()
			errs[i] = f.svc.Events.Register(f.ctx, u, e.ID, 0)
		}(i, u)
	}
	wg.Wait()

	ok, full := 0, 0
	for _, err := range errs {
		if err == nil {
			ok++
			continue
		}
		require.ErrorIs(t, err, domain.ErrEventFull)
		full++
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, 1, full)

	got, err := f.svc.Events.Get(f.ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Participants.Len())
}

func Test_Register_CapacityNeverExceededUnderLoad(t *testing.T) {
	f := newFixture(t)
	e := f.newEvent(t, 3)

	users := make([]domain.Principal, 12)
	for i := range users {
		users[i] = f.newUser(t, domain.RoleReader, nil)
	}

	var wg sync.WaitGroup
	for _, u := range users {
		wg.Add(1)
		go func(u domain.Principal) {
			defer wg.Done()
			_ = f.svc.Events.Register(f.ctx, u, e.ID, 0)
		}(u)
	}
	wg.Wait()

	got, err := f.svc.Events.Get(f.ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, got.Participants.Len())
}

func Test_Unregister_Idempotent(t *testing.T) {
	f := newFixture(t)
	e := f.newEvent(t, 5)
	require.NoError(t, f.svc.Events.Register(f.ctx, f.reader, e.ID, 0))

	require.NoError(t, f.svc.Events.Unregister(f.ctx, f.reader, e.ID, 0))
	require.NoError(t, f.svc.Events.Unregister(f.ctx, f.reader, e.ID, 0), "second unregister is a no-op")

	got, err := f.svc.Events.Get(f.ctx, e.ID)
	require.NoError(t, err)
	assert.Zero(t, got.Participants.Len())

	assert.ErrorIs(t, f.svc.Events.Unregister(f.ctx, f.reader, 999, 0), domain.ErrNotFound)
}

func Test_Register_OnBehalfOfAnotherUser(t *testing.T) {
	f := newFixture(t)
	e := f.newEvent(t, 5)
	other := f.newUser(t, domain.RoleReader, nil)

	assert.ErrorIs(t, f.svc.Events.Register(f.ctx, f.reader, e.ID, other.UserID), domain.ErrForbidden)
	require.NoError(t, f.svc.Events.Register(f.ctx, f.staff, e.ID, other.UserID))
	assert.ErrorIs(t, f.svc.Events.Register(f.ctx, f.staff, e.ID, 999), domain.ErrNotFound)
	assert.ErrorIs(t, f.svc.Events.Register(f.ctx, f.reader, 999, 0), domain.ErrNotFound)

	got, err := f.svc.Events.Get(f.ctx, e.ID)
	require.NoError(t, err)
	assert.True(t, got.Participants.Contains(other.UserID))

	require.NoError(t, f.svc.Events.Unregister(f.ctx, f.staff, e.ID, other.UserID))
	assert.ErrorIs(t, f.svc.Events.Unregister(f.ctx, f.reader, e.ID, other.UserID), domain.ErrForbidden)
}

func Test_Register_NotifiesMember(t *testing.T) {
	f := newFixture(t)
	e := f.newEvent(t, 5)

	require.NoError(t, f.svc.Events.Register(f.ctx, f.reader, e.ID, 0))
	require.NoError(t, f.svc.Events.Register(f.ctx, f.reader, e.ID, 0))

	assert.Eventually(t, func() bool {
		notes, err := f.svc.Notifications.ListForUser(f.ctx, f.reader)
		return err == nil && len(notes) == 1
	}, time.Second, 10*time.Millisecond, "a repeated registration sends no second notice")
}

func Test_ListEvents_OrderedByStart(t *testing.T) {
	f := newFixture(t)

	later, err := f.svc.Events.Create(f.ctx, f.staff, services.CreateEventInput{Title: "Later", StartAt: startTime.AddDate(0, 1, 0)})
	require.NoError(t, err)
	sooner, err := f.svc.Events.Create(f.ctx, f.staff, services.CreateEventInput{Title: "Sooner", StartAt: startTime.AddDate(0, 0, 1)})
	require.NoError(t, err)

	events, err := f.svc.Events.List(f.ctx)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, sooner.ID, events[0].ID)
	assert.Equal(t, later.ID, events[1].ID)
}
