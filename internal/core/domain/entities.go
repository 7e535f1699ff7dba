package domain

import "time"

// Role represents user role in the system
type Role string

const (
	RoleReader  Role = "reader"
	RoleLibrary Role = "library"
	RoleAdmin   Role = "admin"
)

// Valid reports whether r is one of the known roles
func (r Role) Valid() bool {
	switch r {
	case RoleReader, RoleLibrary, RoleAdmin:
		return true
	}
	return false
}

// CopyStatus is the lifecycle state of a physical copy
type CopyStatus string

const (
	CopyAvailable CopyStatus = "available"
	CopyIssued    CopyStatus = "issued"
	CopyLost      CopyStatus = "lost"
	CopyReserved  CopyStatus = "reserved"
)

// LoanStatus is derived from the loan dates, see DeriveLoanStatus
type LoanStatus string

const (
	LoanActive    LoanStatus = "active"
	LoanReturned  LoanStatus = "returned"
	LoanOverdue   LoanStatus = "overdue"
	LoanCancelled LoanStatus = "cancelled"
)

// RenewStatus is the state of a renew request
type RenewStatus string

const (
	RenewPending  RenewStatus = "pending"
	RenewApproved RenewStatus = "approved"
	RenewRejected RenewStatus = "rejected"
)

// User represents a reader or a staff member
type User struct {
	ID             uint       `json:"id"`
	Username       string     `json:"username"`
	FirstName      string     `json:"first_name"`
	LastName       string     `json:"last_name"`
	Role           Role       `json:"role"`
	Phone          *string    `json:"phone,omitempty"`
	BirthDate      *time.Time `json:"birth_date,omitempty"`
	TicketNumber   string     `json:"ticket_number"`
	ContractNumber string     `json:"contract_number"`
	PasswordHash   string     `json:"-"`
	IsActive       bool       `json:"is_active"`
	CreatedAt      time.Time  `json:"created_at"`
}

// RefreshToken is a stored refresh token. Only the SHA-256 of the token
// is kept; the token itself goes to the client once.
type RefreshToken struct {
	ID        uint
	UserID    uint
	TokenHash string
	ExpiresAt time.Time
	CreatedAt time.Time
	RevokedAt *time.Time
}

func (t *RefreshToken) IsRevoked() bool {
	return t.RevokedAt != nil
}

func (t *RefreshToken) IsExpired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}

// Principal is the authenticated caller of a core operation
type Principal struct {
	UserID uint
	Role   Role
}

// Author of a catalog title
type Author struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

// Genre of a catalog title
type Genre struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

// BookGroup is a catalog title. Physical items are BookCopy records.
type BookGroup struct {
	ID          uint      `json:"id"`
	Title       string    `json:"title"`
	Subtitle    string    `json:"subtitle,omitempty"`
	ISBN        *string   `json:"isbn,omitempty"`
	Publisher   string    `json:"publisher,omitempty"`
	Year        *int      `json:"year,omitempty"`
	Description string    `json:"description,omitempty"`
	CoverURL    string    `json:"cover_url,omitempty"`
	AgeLimit    int       `json:"age_limit"` // 0 = unrestricted
	AuthorIDs   IDSet     `json:"author_ids"`
	GenreIDs    IDSet     `json:"genre_ids"`
	CreatedAt   time.Time `json:"created_at"`
}

// BookCopy is one physical item. ID is assigned by staff, never generated.
type BookCopy struct {
	ID          int64      `json:"id"`
	BookGroupID uint       `json:"book_group_id"`
	Status      CopyStatus `json:"status"`
	Condition   string     `json:"condition,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// Loan is one lending transaction. Never deleted.
type Loan struct {
	ID              uint       `json:"id"`
	CopyID          int64      `json:"copy_id"`
	ReaderID        uint       `json:"reader_id"`
	IssuedByID      *uint      `json:"issued_by_id,omitempty"`
	IssuedAt        time.Time  `json:"issued_at"`
	DueAt           time.Time  `json:"due_at"`
	ReturnedAt      *time.Time `json:"returned_at,omitempty"`
	ReturnCondition string     `json:"return_condition,omitempty"`
	RenewCount      int        `json:"renew_count"`
	Status          LoanStatus `json:"status"`
}

// RenewRequest asks to push a loan's due date out
type RenewRequest struct {
	ID            uint        `json:"id"`
	LoanID        uint        `json:"loan_id"`
	RequestedByID uint        `json:"requested_by_id"`
	RequestedAt   time.Time   `json:"requested_at"`
	NewDueAt      *time.Time  `json:"new_due_at,omitempty"`
	Status        RenewStatus `json:"status"`
}

// Event is a scheduled activity with optional capacity
type Event struct {
	ID              uint      `json:"id"`
	Title           string    `json:"title"`
	Description     string    `json:"description,omitempty"`
	StartAt         time.Time `json:"start_at"`
	DurationMinutes int       `json:"duration_minutes"`
	Capacity        int       `json:"capacity"` // 0 = unlimited
	CoverURL        string    `json:"cover_url,omitempty"`
	CreatedByID     *uint     `json:"created_by_id,omitempty"`
	Participants    IDSet     `json:"participants"`
	CreatedAt       time.Time `json:"created_at"`
}

// Notification is an at-most-once message to a user
type Notification struct {
	ID        uint      `json:"id"`
	UserID    uint      `json:"user_id"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
	Read      bool      `json:"read"`
}

// BookIssueCount is one row of the top books projection
type BookIssueCount struct {
	BookGroupID uint   `json:"book_group_id"`
	Title       string `json:"title"`
	Issues      int64  `json:"issues"`
}
