package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"bilet-lending/internal/core/domain"
	"bilet-lending/internal/pkg/password"
)

// User service errors
var (
	ErrCannotDeleteSelf = errors.New("cannot delete your own account")
	ErrWeakPassword     = errors.New("password must be at least 8 characters")
	ErrProtectedAccount = errors.New("admin accounts cannot be deleted here")
)

// UserService handles reader and staff accounts
type UserService struct {
	userRepo UserRepository
	now      Clock
}

// NewUserService creates a new user service
func NewUserService(userRepo UserRepository, now Clock) *UserService {
	if now == nil {
		now = time.Now
	}
	return &UserService{
		userRepo: userRepo,
		now:      now,
	}
}

// CreateUserInput represents create user input
type CreateUserInput struct {
	FirstName      string      `json:"first_name"`
	LastName       string      `json:"last_name"`
	Role           domain.Role `json:"role" validate:"omitempty,oneof=reader library admin"`
	Phone          *string     `json:"phone"`
	BirthDate      *time.Time  `json:"birth_date"`
	TicketNumber   string      `json:"ticket_number" validate:"required,max=50"`
	ContractNumber string      `json:"contract_number" validate:"required,max=50"`
	Username       string      `json:"username" validate:"omitempty,max=150"`
	Password       string      `json:"password" validate:"required,min=8"`
}

// ListUsersOutput represents list users output
type ListUsersOutput struct {
	Users []*domain.User `json:"users"`
	Total int64          `json:"total"`
}

// Create registers a reader or a staff member. Creating an admin needs an
// admin; anything else needs library staff or admin.
func (s *UserService) Create(ctx context.Context, p domain.Principal, input CreateUserInput) (*domain.User, error) {
	role := input.Role
	if role == "" {
		role = domain.RoleReader
	}
	if !role.Valid() {
		return nil, fmt.Errorf("%w: unknown role %q", domain.ErrInvalidInput, role)
	}

	required := domain.CapStaff
	if role == domain.RoleAdmin {
		required = domain.CapAdmin
	}
	if err := domain.RequireCapability(p, required...); err != nil {
		return nil, err
	}

	return s.create(ctx, role, input)
}

// Bootstrap creates a user without a caller; used by the seeder and the
// admin CLI before any account exists.
func (s *UserService) Bootstrap(ctx context.Context, role domain.Role, input CreateUserInput) (*domain.User, error) {
	if !role.Valid() {
		return nil, fmt.Errorf("%w: unknown role %q", domain.ErrInvalidInput, role)
	}
	return s.create(ctx, role, input)
}

func (s *UserService) create(ctx context.Context, role domain.Role, input CreateUserInput) (*domain.User, error) {
	if strings.TrimSpace(input.TicketNumber) == "" || strings.TrimSpace(input.ContractNumber) == "" {
		return nil, fmt.Errorf("%w: ticket and contract numbers are required", domain.ErrInvalidInput)
	}
	if !password.ValidatePassword(input.Password) {
		return nil, ErrWeakPassword
	}

	// Readers sign in with their contract number
	username := input.ContractNumber
	if role != domain.RoleReader && input.Username != "" {
		username = input.Username
	}

	hashed, err := password.Hash(input.Password)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		Username:       username,
		FirstName:      input.FirstName,
		LastName:       input.LastName,
		Role:           role,
		Phone:          input.Phone,
		BirthDate:      input.BirthDate,
		TicketNumber:   input.TicketNumber,
		ContractNumber: input.ContractNumber,
		PasswordHash:   hashed,
		IsActive:       true,
		CreatedAt:      s.now(),
	}
	if err := s.userRepo.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	log.Printf("👤 User %d created: %s [%s]", user.ID, user.Username, user.Role)
	return user, nil
}

// GetByID returns a user. Readers may only look themselves up.
func (s *UserService) GetByID(ctx context.Context, p domain.Principal, id uint) (*domain.User, error) {
	if !p.IsStaff() && p.UserID != id {
		return nil, domain.ErrForbidden
	}
	return s.userRepo.GetUserByID(ctx, id)
}

// List pages through users (staff only)
func (s *UserService) List(ctx context.Context, p domain.Principal, offset, limit int) (*ListUsersOutput, error) {
	if err := domain.RequireCapability(p, domain.CapStaff...); err != nil {
		return nil, err
	}
	users, total, err := s.userRepo.ListUsers(ctx, offset, limit)
	if err != nil {
		return nil, err
	}
	return &ListUsersOutput{Users: users, Total: total}, nil
}

// Delete removes a reader or library account; admin only
func (s *UserService) Delete(ctx context.Context, p domain.Principal, id uint) error {
	if err := domain.RequireCapability(p, domain.CapAdmin...); err != nil {
		return err
	}
	if p.UserID == id {
		return ErrCannotDeleteSelf
	}
	target, err := s.userRepo.GetUserByID(ctx, id)
	if err != nil {
		return err
	}
	if target.Role == domain.RoleAdmin {
		return ErrProtectedAccount
	}
	return s.userRepo.DeleteUser(ctx, id)
}
