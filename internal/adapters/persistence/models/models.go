package models

import (
	"time"

	"bilet-lending/internal/core/domain"

	"gorm.io/gorm"
)

// ============================================================
// Users
// ============================================================

// User represents users table
type User struct {
	ID             uint    `gorm:"primaryKey"`
	Username       string  `gorm:"uniqueIndex;size:150;not null"`
	FirstName      string  `gorm:"size:150"`
	LastName       string  `gorm:"size:150"`
	Role           string  `gorm:"size:20;not null;index"`
	Phone          *string `gorm:"uniqueIndex;size:20"`
	BirthDate      *time.Time
	TicketNumber   string    `gorm:"uniqueIndex;size:50;not null"`
	ContractNumber string    `gorm:"uniqueIndex;size:50;not null"`
	Password       string    `gorm:"size:255;not null"`
	IsActive       bool      `gorm:"not null"`
	CreatedAt      time.Time `gorm:"autoCreateTime"`
}

func (User) TableName() string {
	return "users"
}

func (u *User) ToDomain() *domain.User {
	return &domain.User{
		ID:             u.ID,
		Username:       u.Username,
		FirstName:      u.FirstName,
		LastName:       u.LastName,
		Role:           domain.Role(u.Role),
		Phone:          u.Phone,
		BirthDate:      u.BirthDate,
		TicketNumber:   u.TicketNumber,
		ContractNumber: u.ContractNumber,
		PasswordHash:   u.Password,
		IsActive:       u.IsActive,
		CreatedAt:      u.CreatedAt,
	}
}

func UserFromDomain(u *domain.User) *User {
	return &User{
		ID:             u.ID,
		Username:       u.Username,
		FirstName:      u.FirstName,
		LastName:       u.LastName,
		Role:           string(u.Role),
		Phone:          u.Phone,
		BirthDate:      u.BirthDate,
		TicketNumber:   u.TicketNumber,
		ContractNumber: u.ContractNumber,
		Password:       u.PasswordHash,
		IsActive:       u.IsActive,
		CreatedAt:      u.CreatedAt,
	}
}

// RefreshToken represents refresh_tokens table
type RefreshToken struct {
	ID        uint       `gorm:"primaryKey"`
	UserID    uint       `gorm:"index;not null"`
	TokenHash string     `gorm:"size:64;not null;uniqueIndex"`
	ExpiresAt time.Time  `gorm:"not null;index"`
	CreatedAt time.Time  `gorm:"not null"`
	RevokedAt *time.Time `gorm:"index"`
}

func (RefreshToken) TableName() string {
	return "refresh_tokens"
}

func (t *RefreshToken) ToDomain() *domain.RefreshToken {
	return &domain.RefreshToken{
		ID:        t.ID,
		UserID:    t.UserID,
		TokenHash: t.TokenHash,
		ExpiresAt: t.ExpiresAt,
		CreatedAt: t.CreatedAt,
		RevokedAt: t.RevokedAt,
	}
}

func RefreshTokenFromDomain(t *domain.RefreshToken) *RefreshToken {
	return &RefreshToken{
		ID:        t.ID,
		UserID:    t.UserID,
		TokenHash: t.TokenHash,
		ExpiresAt: t.ExpiresAt,
		CreatedAt: t.CreatedAt,
		RevokedAt: t.RevokedAt,
	}
}

// ============================================================
// Catalog
// ============================================================

// Author represents authors table
type Author struct {
	ID   uint   `gorm:"primaryKey"`
	Name string `gorm:"size:255;not null"`
}

func (Author) TableName() string {
	return "authors"
}

// Genre represents genres table
type Genre struct {
	ID   uint   `gorm:"primaryKey"`
	Name string `gorm:"size:100;not null"`
}

func (Genre) TableName() string {
	return "genres"
}

// BookGroup represents book_groups table (one row per catalog title)
type BookGroup struct {
	ID          uint    `gorm:"primaryKey"`
	Title       string  `gorm:"size:300;not null;index"`
	Subtitle    string  `gorm:"size:300"`
	ISBN        *string `gorm:"column:isbn;uniqueIndex;size:20"`
	Publisher   string  `gorm:"size:255"`
	Year        *int
	Description string    `gorm:"type:text"`
	CoverURL    string    `gorm:"size:500"`
	AgeLimit    int       `gorm:"not null;default:0"`
	CreatedAt   time.Time `gorm:"autoCreateTime"`
}

func (BookGroup) TableName() string {
	return "book_groups"
}

// ToDomain maps the row; author and genre sets come from the join tables
func (g *BookGroup) ToDomain(authorIDs, genreIDs []uint) *domain.BookGroup {
	return &domain.BookGroup{
		ID:          g.ID,
		Title:       g.Title,
		Subtitle:    g.Subtitle,
		ISBN:        g.ISBN,
		Publisher:   g.Publisher,
		Year:        g.Year,
		Description: g.Description,
		CoverURL:    g.CoverURL,
		AgeLimit:    g.AgeLimit,
		AuthorIDs:   domain.NewIDSet(authorIDs...),
		GenreIDs:    domain.NewIDSet(genreIDs...),
		CreatedAt:   g.CreatedAt,
	}
}

func BookGroupFromDomain(g *domain.BookGroup) *BookGroup {
	return &BookGroup{
		ID:          g.ID,
		Title:       g.Title,
		Subtitle:    g.Subtitle,
		ISBN:        g.ISBN,
		Publisher:   g.Publisher,
		Year:        g.Year,
		Description: g.Description,
		CoverURL:    g.CoverURL,
		AgeLimit:    g.AgeLimit,
		CreatedAt:   g.CreatedAt,
	}
}

// BookGroupAuthor represents book_group_authors join table
type BookGroupAuthor struct {
	BookGroupID uint `gorm:"primaryKey;autoIncrement:false"`
	AuthorID    uint `gorm:"primaryKey;autoIncrement:false;index"`
}

func (BookGroupAuthor) TableName() string {
	return "book_group_authors"
}

// BookGroupGenre represents book_group_genres join table
type BookGroupGenre struct {
	BookGroupID uint `gorm:"primaryKey;autoIncrement:false"`
	GenreID     uint `gorm:"primaryKey;autoIncrement:false;index"`
}

func (BookGroupGenre) TableName() string {
	return "book_group_genres"
}

// BookCopy represents book_copies table. IDs are the numbers printed on the copy.
type BookCopy struct {
	ID          int64     `gorm:"primaryKey;autoIncrement:false"`
	BookGroupID uint      `gorm:"not null;index"`
	Status      string    `gorm:"size:20;not null;index"`
	Condition   string    `gorm:"size:255"`
	CreatedAt   time.Time `gorm:"autoCreateTime"`
}

func (BookCopy) TableName() string {
	return "book_copies"
}

func (c *BookCopy) ToDomain() *domain.BookCopy {
	return &domain.BookCopy{
		ID:          c.ID,
		BookGroupID: c.BookGroupID,
		Status:      domain.CopyStatus(c.Status),
		Condition:   c.Condition,
		CreatedAt:   c.CreatedAt,
	}
}

func BookCopyFromDomain(c *domain.BookCopy) *BookCopy {
	return &BookCopy{
		ID:          c.ID,
		BookGroupID: c.BookGroupID,
		Status:      string(c.Status),
		Condition:   c.Condition,
		CreatedAt:   c.CreatedAt,
	}
}

// ============================================================
// Lending
// ============================================================

// Loan represents loans table
type Loan struct {
	ID              uint  `gorm:"primaryKey"`
	CopyID          int64 `gorm:"not null;index"`
	ReaderID        uint  `gorm:"not null;index"`
	IssuedByID      *uint
	IssuedAt        time.Time  `gorm:"not null;index"`
	DueAt           time.Time  `gorm:"not null;index"`
	ReturnedAt      *time.Time `gorm:"index"`
	ReturnCondition string     `gorm:"size:255"`
	RenewCount      int        `gorm:"not null;default:0"`
	Status          string     `gorm:"size:20;not null;index"`
}

func (Loan) TableName() string {
	return "loans"
}

func (l *Loan) ToDomain() *domain.Loan {
	return &domain.Loan{
		ID:              l.ID,
		CopyID:          l.CopyID,
		ReaderID:        l.ReaderID,
		IssuedByID:      l.IssuedByID,
		IssuedAt:        l.IssuedAt,
		DueAt:           l.DueAt,
		ReturnedAt:      l.ReturnedAt,
		ReturnCondition: l.ReturnCondition,
		RenewCount:      l.RenewCount,
		Status:          domain.LoanStatus(l.Status),
	}
}

func LoanFromDomain(l *domain.Loan) *Loan {
	return &Loan{
		ID:              l.ID,
		CopyID:          l.CopyID,
		ReaderID:        l.ReaderID,
		IssuedByID:      l.IssuedByID,
		IssuedAt:        l.IssuedAt,
		DueAt:           l.DueAt,
		ReturnedAt:      l.ReturnedAt,
		ReturnCondition: l.ReturnCondition,
		RenewCount:      l.RenewCount,
		Status:          string(l.Status),
	}
}

// RenewRequest represents renew_requests table
type RenewRequest struct {
	ID            uint      `gorm:"primaryKey"`
	LoanID        uint      `gorm:"not null;index"`
	RequestedByID uint      `gorm:"not null"`
	RequestedAt   time.Time `gorm:"not null"`
	NewDueAt      *time.Time
	Status        string `gorm:"size:20;not null;index"`
}

func (RenewRequest) TableName() string {
	return "renew_requests"
}

func (r *RenewRequest) ToDomain() *domain.RenewRequest {
	return &domain.RenewRequest{
		ID:            r.ID,
		LoanID:        r.LoanID,
		RequestedByID: r.RequestedByID,
		RequestedAt:   r.RequestedAt,
		NewDueAt:      r.NewDueAt,
		Status:        domain.RenewStatus(r.Status),
	}
}

func RenewRequestFromDomain(r *domain.RenewRequest) *RenewRequest {
	return &RenewRequest{
		ID:            r.ID,
		LoanID:        r.LoanID,
		RequestedByID: r.RequestedByID,
		RequestedAt:   r.RequestedAt,
		NewDueAt:      r.NewDueAt,
		Status:        string(r.Status),
	}
}

// ============================================================
// Events
// ============================================================

// Event represents events table
type Event struct {
	ID              uint      `gorm:"primaryKey"`
	Title           string    `gorm:"size:300;not null"`
	Description     string    `gorm:"type:text"`
	StartAt         time.Time `gorm:"not null;index"`
	DurationMinutes int       `gorm:"not null"`
	Capacity        int       `gorm:"not null;default:0"`
	CoverURL        string    `gorm:"size:500"`
	CreatedByID     *uint
	CreatedAt       time.Time `gorm:"autoCreateTime"`
}

func (Event) TableName() string {
	return "events"
}

func (e *Event) ToDomain(participantIDs []uint) *domain.Event {
	return &domain.Event{
		ID:              e.ID,
		Title:           e.Title,
		Description:     e.Description,
		StartAt:         e.StartAt,
		DurationMinutes: e.DurationMinutes,
		Capacity:        e.Capacity,
		CoverURL:        e.CoverURL,
		CreatedByID:     e.CreatedByID,
		Participants:    domain.NewIDSet(participantIDs...),
		CreatedAt:       e.CreatedAt,
	}
}

func EventFromDomain(e *domain.Event) *Event {
	return &Event{
		ID:              e.ID,
		Title:           e.Title,
		Description:     e.Description,
		StartAt:         e.StartAt,
		DurationMinutes: e.DurationMinutes,
		Capacity:        e.Capacity,
		CoverURL:        e.CoverURL,
		CreatedByID:     e.CreatedByID,
		CreatedAt:       e.CreatedAt,
	}
}

// EventParticipant represents event_participants table
type EventParticipant struct {
	EventID   uint      `gorm:"primaryKey;autoIncrement:false"`
	UserID    uint      `gorm:"primaryKey;autoIncrement:false;index"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

func (EventParticipant) TableName() string {
	return "event_participants"
}

// ============================================================
// Notifications
// ============================================================

// Notification represents notifications table
type Notification struct {
	ID        uint      `gorm:"primaryKey"`
	UserID    uint      `gorm:"not null;index"`
	Title     string    `gorm:"size:255;not null"`
	Message   string    `gorm:"type:text"`
	IsRead    bool      `gorm:"not null"`
	CreatedAt time.Time `gorm:"not null;index"`
}

func (Notification) TableName() string {
	return "notifications"
}

func (n *Notification) ToDomain() *domain.Notification {
	return &domain.Notification{
		ID:        n.ID,
		UserID:    n.UserID,
		Title:     n.Title,
		Message:   n.Message,
		CreatedAt: n.CreatedAt,
		Read:      n.IsRead,
	}
}

func NotificationFromDomain(n *domain.Notification) *Notification {
	return &Notification{
		ID:        n.ID,
		UserID:    n.UserID,
		Title:     n.Title,
		Message:   n.Message,
		IsRead:    n.Read,
		CreatedAt: n.CreatedAt,
	}
}

// AutoMigrate runs auto migration for all models
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&User{},
		&RefreshToken{},
		// Catalog
		&Author{},
		&Genre{},
		&BookGroup{},
		&BookGroupAuthor{},
		&BookGroupGenre{},
		&BookCopy{},
		// Lending
		&Loan{},
		&RenewRequest{},
		// Events
		&Event{},
		&EventParticipant{},
		&Notification{},
	)
}
