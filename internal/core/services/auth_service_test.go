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

func (f *fixture) login(t *testing.T, p domain.Principal) *services.AuthResponse {
	t.Helper()

	u, err := f.store.GetUserByID(f.ctx, p.UserID)
	require.NoError(t, err)
	res, err := f.svc.Auth.Login(f.ctx, services.LoginInput{Username: u.Username, Password: "password123"}, "")
	require.NoError(t, err)
	require.NotEmpty(t, res.RefreshToken)
	return res
}

func Test_Refresh_RotatesToken(t *testing.T) {
	f := newFixture(t)
	first := f.login(t, f.reader)

	second, err := f.svc.Auth.Refresh(f.ctx, first.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, first.RefreshToken, second.RefreshToken)
	assert.Equal(t, f.reader.UserID, second.User.ID)

	p, err := f.svc.Auth.Principal(second.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, f.reader, p)

	third, err := f.svc.Auth.Refresh(f.ctx, second.RefreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, third.AccessToken)
}

func Test_Refresh_ReuseRevokesAllSessions(t *testing.T) {
	f := newFixture(t)
	stolen := f.login(t, f.reader)
	other := f.login(t, f.reader)

	rotated, err := f.svc.Auth.Refresh(f.ctx, stolen.RefreshToken)
	require.NoError(t, err)

	_, err = f.svc.Auth.Refresh(f.ctx, stolen.RefreshToken)
	assert.ErrorIs(t, err, domain.ErrTokenRevoked)

	_, err = f.svc.Auth.Refresh(f.ctx, rotated.RefreshToken)
	assert.ErrorIs(t, err, domain.ErrTokenRevoked, "the rotated token dies with the reused one")
	_, err = f.svc.Auth.Refresh(f.ctx, other.RefreshToken)
	assert.ErrorIs(t, err, domain.ErrTokenRevoked, "so does every other session")
}

func Test_Refresh_ConcurrentRotationHasOneWinner(t *testing.T) {
	f := newFixture(t)
	res := f.login(t, f.reader)

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := f.svc.Auth.Refresh(f.ctx, res.RefreshToken); err == nil {
				mu.Lock()
				wins++
				mu.Unlock()
			} else {
				assert.ErrorIs(t, err, domain.ErrTokenRevoked)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, wins)
}

func Test_Refresh_RejectsForeignTokens(t *testing.T) {
	f := newFixture(t)
	res := f.login(t, f.reader)

	_, err := f.svc.Auth.Refresh(f.ctx, res.AccessToken)
	assert.ErrorIs(t, err, domain.ErrUnauthorized, "access tokens do not refresh")

	_, err = f.svc.Auth.Principal(res.RefreshToken)
	assert.Error(t, err, "refresh tokens do not authenticate")

	_, err = f.svc.Auth.Refresh(f.ctx, "not-a-token")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func Test_Refresh_ExpiredAndCleanup(t *testing.T) {
	f := newFixture(t)
	res := f.login(t, f.reader)

	f.clock.Advance(f.svc.Auth.RefreshTTL() + time.Minute)

	_, err := f.svc.Auth.Refresh(f.ctx, res.RefreshToken)
	assert.ErrorIs(t, err, domain.ErrTokenExpired)

	n, err := f.svc.Auth.CleanupExpiredTokens(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, err = f.svc.Auth.Refresh(f.ctx, res.RefreshToken)
	assert.ErrorIs(t, err, domain.ErrUnauthorized, "deleted tokens are unknown")
}

func Test_Logout(t *testing.T) {
	f := newFixture(t)
	res := f.login(t, f.reader)
	kept := f.login(t, f.reader)

	require.NoError(t, f.svc.Auth.Logout(f.ctx, res.RefreshToken))
	require.NoError(t, f.svc.Auth.Logout(f.ctx, res.RefreshToken), "logging out twice is fine")
	require.NoError(t, f.svc.Auth.Logout(f.ctx, "unknown"))

	_, err := f.svc.Auth.Refresh(f.ctx, kept.RefreshToken)
	require.NoError(t, err, "other sessions survive a single logout")
}

func Test_LogoutAll(t *testing.T) {
	f := newFixture(t)
	a := f.login(t, f.reader)
	b := f.login(t, f.reader)
	staff := f.login(t, f.staff)

	require.NoError(t, f.svc.Auth.LogoutAll(f.ctx, f.reader.UserID))

	_, err := f.svc.Auth.Refresh(f.ctx, a.RefreshToken)
	assert.ErrorIs(t, err, domain.ErrTokenRevoked)
	_, err = f.svc.Auth.Refresh(f.ctx, b.RefreshToken)
	assert.ErrorIs(t, err, domain.ErrTokenRevoked)

	_, err = f.svc.Auth.Refresh(f.ctx, staff.RefreshToken)
	assert.NoError(t, err)
}

func Test_Refresh_DeletedUser(t *testing.T) {
	f := newFixture(t)
	res := f.login(t, f.reader)
	require.NoError(t, f.store.DeleteUser(f.ctx, f.reader.UserID))

	_, err := f.svc.Auth.Refresh(f.ctx, res.RefreshToken)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}
