package services_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bilet-lending/internal/core/domain"
	"bilet-lending/internal/core/services"
)

func Test_CreateUser_ReaderSignsInWithContractNumber(t *testing.T) {
	f := newFixture(t)

	u, err := f.svc.Users.Create(f.ctx, f.staff, services.CreateUserInput{
		Username:       "ignored",
		TicketNumber:   "T-9001",
		ContractNumber: "C-9001",
		Password:       "secret-pass",
	})
	require.NoError(t, err)

	assert.Equal(t, domain.RoleReader, u.Role)
	assert.Equal(t, "C-9001", u.Username)
	assert.True(t, u.IsActive)
	assert.NotEqual(t, "secret-pass", u.PasswordHash)

	_, err = f.svc.Users.Create(f.ctx, f.staff, services.CreateUserInput{
		TicketNumber:   "T-9002",
		ContractNumber: "C-9001",
		Password:       "secret-pass",
	})
	assert.ErrorIs(t, err, domain.ErrDuplicateEntry)
}

func Test_CreateUser_Permissions(t *testing.T) {
	f := newFixture(t)
	input := services.CreateUserInput{
		Role:           domain.RoleAdmin,
		Username:       "boss",
		TicketNumber:   "T-7001",
		ContractNumber: "C-7001",
		Password:       "secret-pass",
	}

	_, err := f.svc.Users.Create(f.ctx, f.staff, input)
	assert.ErrorIs(t, err, domain.ErrForbidden, "library staff cannot create admins")

	_, err = f.svc.Users.Create(f.ctx, f.reader, services.CreateUserInput{
		TicketNumber: "T-7002", ContractNumber: "C-7002", Password: "secret-pass",
	})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	u, err := f.svc.Users.Create(f.ctx, f.admin, input)
	require.NoError(t, err)
	assert.Equal(t, "boss", u.Username)
	assert.Equal(t, domain.RoleAdmin, u.Role)
}

func Test_CreateUser_Validation(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Users.Create(f.ctx, f.staff, services.CreateUserInput{
		TicketNumber: "T-1", ContractNumber: "C-1", Password: "short",
	})
	assert.ErrorIs(t, err, services.ErrWeakPassword)

	_, err = f.svc.Users.Create(f.ctx, f.staff, services.CreateUserInput{
		TicketNumber: " ", ContractNumber: "C-1", Password: "long-enough",
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = f.svc.Users.Create(f.ctx, f.admin, services.CreateUserInput{
		Role: "janitor", TicketNumber: "T-1", ContractNumber: "C-1", Password: "long-enough",
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func Test_GetUser_ReadersSeeOnlyThemselves(t *testing.T) {
	f := newFixture(t)

	self, err := f.svc.Users.GetByID(f.ctx, f.reader, f.reader.UserID)
	require.NoError(t, err)
	assert.Equal(t, f.reader.UserID, self.ID)

	_, err = f.svc.Users.GetByID(f.ctx, f.reader, f.staff.UserID)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = f.svc.Users.GetByID(f.ctx, f.staff, 999)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func Test_ListUsers(t *testing.T) {
	f := newFixture(t)

	out, err := f.svc.Users.List(f.ctx, f.staff, 0, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(3), out.Total)
	assert.Len(t, out.Users, 2)

	out, err = f.svc.Users.List(f.ctx, f.staff, 2, 2)
	require.NoError(t, err)
	assert.Len(t, out.Users, 1)

	_, err = f.svc.Users.List(f.ctx, f.reader, 0, 10)
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func Test_DeleteUser(t *testing.T) {
	f := newFixture(t)
	otherAdmin := f.newUser(t, domain.RoleAdmin, nil)

	assert.ErrorIs(t, f.svc.Users.Delete(f.ctx, f.staff, f.reader.UserID), domain.ErrForbidden)
	assert.ErrorIs(t, f.svc.Users.Delete(f.ctx, f.admin, f.admin.UserID), services.ErrCannotDeleteSelf)
	assert.ErrorIs(t, f.svc.Users.Delete(f.ctx, f.admin, otherAdmin.UserID), services.ErrProtectedAccount)
	assert.ErrorIs(t, f.svc.Users.Delete(f.ctx, f.admin, 999), domain.ErrNotFound)

	require.NoError(t, f.svc.Users.Delete(f.ctx, f.admin, f.reader.UserID))
	_, err := f.store.GetUserByID(f.ctx, f.reader.UserID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func Test_Login(t *testing.T) {
	f := newFixture(t)
	reader, err := f.store.GetUserByID(f.ctx, f.reader.UserID)
	require.NoError(t, err)

	res, err := f.svc.Auth.Login(f.ctx, services.LoginInput{Username: reader.Username, Password: "password123"}, domain.RoleReader)
	require.NoError(t, err)
	assert.NotEmpty(t, res.AccessToken)
	assert.Equal(t, reader.ID, res.User.ID)

	p, err := f.svc.Auth.Principal(res.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, f.reader, p)

	_, err = f.svc.Auth.Login(f.ctx, services.LoginInput{Username: reader.Username, Password: "password123"}, domain.RoleLibrary)
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials, "wrong portal")

	_, err = f.svc.Auth.Login(f.ctx, services.LoginInput{Username: reader.Username, Password: "wrong-password"}, "")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)

	_, err = f.svc.Auth.Login(f.ctx, services.LoginInput{Username: "nobody", Password: "password123"}, "")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)

	_, err = f.svc.Auth.Principal("not-a-token")
	assert.Error(t, err)
}
