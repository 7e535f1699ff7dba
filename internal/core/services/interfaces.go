package services

import (
	"context"
	"time"

	"bilet-lending/internal/core/domain"
)

// Note: the GORM and in-memory implementations live in
// internal/adapters/persistence/repositories.

// Tx is one unit of work against the catalog store.
// Lock* methods take an exclusive lock on one row that is held until the
// unit of work commits or rolls back. Get* methods return domain.ErrNotFound
// for missing rows; other failures wrap domain.ErrStorage.
type Tx interface {
	LockCopy(id int64) (*domain.BookCopy, error)
	LockLoan(id uint) (*domain.Loan, error)
	LockRenewRequest(id uint) (*domain.RenewRequest, error)
	LockEvent(id uint) (*domain.Event, error)

	GetUser(id uint) (*domain.User, error)
	GetBookGroup(id uint) (*domain.BookGroup, error)
	GetLoan(id uint) (*domain.Loan, error)
	// LatestOpenLoan returns the unreturned loan on copyID with the latest
	// issued_at (ties by highest id), or domain.ErrNotFound.
	LatestOpenLoan(copyID int64) (*domain.Loan, error)

	CreateLoan(loan *domain.Loan) error
	// UpdateLoanReturn persists returned_at, return_condition and status only
	UpdateLoanReturn(loan *domain.Loan) error
	// UpdateLoanRenewal persists due_at, renew_count and status only
	UpdateLoanRenewal(loan *domain.Loan) error
	UpdateCopyStatus(id int64, status domain.CopyStatus) error

	CreateRenewRequest(req *domain.RenewRequest) error
	UpdateRenewRequestStatus(id uint, status domain.RenewStatus) error

	IsParticipant(eventID, userID uint) (bool, error)
	CountParticipants(eventID uint) (int, error)
	AddParticipant(eventID, userID uint) error
	RemoveParticipant(eventID, userID uint) error
}

// UnitOfWork runs fn atomically. If fn returns an error every write made
// through tx is discarded and the error is returned unchanged.
type UnitOfWork interface {
	Atomic(ctx context.Context, fn func(tx Tx) error) error
}

// UserRepository defines user storage
type UserRepository interface {
	CreateUser(ctx context.Context, user *domain.User) error
	GetUserByID(ctx context.Context, id uint) (*domain.User, error)
	GetUserByUsername(ctx context.Context, username string) (*domain.User, error)
	ListUsers(ctx context.Context, offset, limit int) ([]*domain.User, int64, error)
	DeleteUser(ctx context.Context, id uint) error
}

// RefreshTokenRepository defines refresh token storage
type RefreshTokenRepository interface {
	CreateRefreshToken(ctx context.Context, token *domain.RefreshToken) error
	// GetRefreshTokenByHash returns the token whether or not it is revoked
	GetRefreshTokenByHash(ctx context.Context, tokenHash string) (*domain.RefreshToken, error)
	// RevokeRefreshToken revokes one live token. A token that is already
	// revoked is domain.ErrNotFound, so of two concurrent rotations only one wins.
	RevokeRefreshToken(ctx context.Context, id uint, at time.Time) error
	RevokeUserRefreshTokens(ctx context.Context, userID uint, at time.Time) error
	// DeleteExpiredRefreshTokens removes tokens that expired before the given time
	DeleteExpiredRefreshTokens(ctx context.Context, before time.Time) (int64, error)
}

// CatalogRepository defines catalog storage (titles, copies, authors, genres)
type CatalogRepository interface {
	CreateAuthor(ctx context.Context, a *domain.Author) error
	ListAuthors(ctx context.Context) ([]*domain.Author, error)
	CreateGenre(ctx context.Context, g *domain.Genre) error
	ListGenres(ctx context.Context) ([]*domain.Genre, error)

	CreateBookGroup(ctx context.Context, g *domain.BookGroup) error
	GetBookGroup(ctx context.Context, id uint) (*domain.BookGroup, error)
	ListBookGroups(ctx context.Context, offset, limit int) ([]*domain.BookGroup, int64, error)

	CreateCopy(ctx context.Context, c *domain.BookCopy) error
	GetCopy(ctx context.Context, id int64) (*domain.BookCopy, error)
	ListCopies(ctx context.Context, bookGroupID uint) ([]*domain.BookCopy, error)
	UpdateCopyCondition(ctx context.Context, id int64, condition string) error
}

// InventoryRepository defines the read-only projections over the catalog
type InventoryRepository interface {
	// CountCopies counts copies of a title, restricted to status when non-empty
	CountCopies(ctx context.Context, bookGroupID uint, status domain.CopyStatus) (int64, error)
	// TopBookGroupsByLoans ranks titles by historical loan count desc, id asc
	TopBookGroupsByLoans(ctx context.Context, limit int) ([]domain.BookIssueCount, error)
}

// LoanRepository defines loan and renew request reads outside a unit of work.
// Closed loans are immutable, so these reads take no locks.
type LoanRepository interface {
	GetLoan(ctx context.Context, id uint) (*domain.Loan, error)
	ListLoansByReader(ctx context.Context, readerID uint, returned bool) ([]*domain.Loan, error)
	ListOpenLoans(ctx context.Context) ([]*domain.Loan, error)
	ListOpenLoansDueBetween(ctx context.Context, from, to time.Time) ([]*domain.Loan, error)
	UpdateLoanStatus(ctx context.Context, id uint, status domain.LoanStatus) error

	GetRenewRequest(ctx context.Context, id uint) (*domain.RenewRequest, error)
	ListRenewRequests(ctx context.Context, status domain.RenewStatus) ([]*domain.RenewRequest, error)
}

// EventRepository defines event storage outside register/unregister
type EventRepository interface {
	CreateEvent(ctx context.Context, e *domain.Event) error
	GetEvent(ctx context.Context, id uint) (*domain.Event, error)
	ListEvents(ctx context.Context) ([]*domain.Event, error)
}

// NotificationRepository defines notification storage
type NotificationRepository interface {
	CreateNotification(ctx context.Context, n *domain.Notification) error
	ListNotifications(ctx context.Context, userID uint) ([]*domain.Notification, error)
	MarkNotificationRead(ctx context.Context, id, userID uint) error
}

// Store is everything a persistence adapter provides
type Store interface {
	UnitOfWork
	UserRepository
	RefreshTokenRepository
	CatalogRepository
	InventoryRepository
	LoanRepository
	EventRepository
	NotificationRepository
	Ping(ctx context.Context) error
}

// NotificationSink accepts fire-and-forget notices. Implementations must
// not block the caller and must never report delivery failure back.
type NotificationSink interface {
	Notify(userID uint, title, message string)
}

// Clock returns the current time; injected for tests
type Clock func() time.Time
