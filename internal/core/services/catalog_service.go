package services

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"bilet-lending/internal/core/domain"
)

// CatalogService manages titles, copies, authors and genres
type CatalogService struct {
	catalogRepo CatalogRepository
	uow         UnitOfWork
	now         Clock
}

// NewCatalogService creates a new catalog service
func NewCatalogService(catalogRepo CatalogRepository, uow UnitOfWork, now Clock) *CatalogService {
	if now == nil {
		now = time.Now
	}
	return &CatalogService{
		catalogRepo: catalogRepo,
		uow:         uow,
		now:         now,
	}
}

// CreateBookGroupInput represents create title input
type CreateBookGroupInput struct {
	Title       string  `json:"title" validate:"required"`
	Subtitle    string  `json:"subtitle"`
	ISBN        *string `json:"isbn" validate:"omitempty,max=20"`
	Publisher   string  `json:"publisher"`
	Year        *int    `json:"year"`
	Description string  `json:"description"`
	CoverURL    string  `json:"cover_url" validate:"omitempty,url"`
	AgeLimit    int     `json:"age_limit" validate:"gte=0,lte=21"`
	AuthorIDs   []uint  `json:"author_ids"`
	GenreIDs    []uint  `json:"genre_ids"`
}

// MaxISBNLength matches the isbn column size
const MaxISBNLength = 20

// CreateCopyInput represents add copy input. ID is the staff-assigned number.
type CreateCopyInput struct {
	ID        int64  `json:"id" validate:"required,gt=0"`
	Condition string `json:"condition"`
}

// CreateAuthor adds an author
func (s *CatalogService) CreateAuthor(ctx context.Context, p domain.Principal, name string) (*domain.Author, error) {
	if err := domain.RequireCapability(p, domain.CapStaff...); err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", domain.ErrInvalidInput)
	}
	a := &domain.Author{Name: name}
	if err := s.catalogRepo.CreateAuthor(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

// ListAuthors returns all authors
func (s *CatalogService) ListAuthors(ctx context.Context) ([]*domain.Author, error) {
	return s.catalogRepo.ListAuthors(ctx)
}

// CreateGenre adds a genre
func (s *CatalogService) CreateGenre(ctx context.Context, p domain.Principal, name string) (*domain.Genre, error) {
	if err := domain.RequireCapability(p, domain.CapStaff...); err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", domain.ErrInvalidInput)
	}
	g := &domain.Genre{Name: name}
	if err := s.catalogRepo.CreateGenre(ctx, g); err != nil {
		return nil, err
	}
	return g, nil
}

// ListGenres returns all genres
func (s *CatalogService) ListGenres(ctx context.Context) ([]*domain.Genre, error) {
	return s.catalogRepo.ListGenres(ctx)
}

// CreateBookGroup adds a catalog title
func (s *CatalogService) CreateBookGroup(ctx context.Context, p domain.Principal, input CreateBookGroupInput) (*domain.BookGroup, error) {
	if err := domain.RequireCapability(p, domain.CapStaff...); err != nil {
		return nil, err
	}
	if strings.TrimSpace(input.Title) == "" {
		return nil, fmt.Errorf("%w: title is required", domain.ErrInvalidInput)
	}
	if input.AgeLimit < 0 {
		return nil, fmt.Errorf("%w: age limit must not be negative", domain.ErrInvalidInput)
	}
	if input.ISBN != nil && strings.TrimSpace(*input.ISBN) == "" {
		input.ISBN = nil
	}
	if input.ISBN != nil && len(*input.ISBN) > MaxISBNLength {
		return nil, fmt.Errorf("%w: isbn longer than %d characters", domain.ErrInvalidInput, MaxISBNLength)
	}

	group := &domain.BookGroup{
		Title:       input.Title,
		Subtitle:    input.Subtitle,
		ISBN:        input.ISBN,
		Publisher:   input.Publisher,
		Year:        input.Year,
		Description: input.Description,
		CoverURL:    input.CoverURL,
		AgeLimit:    input.AgeLimit,
		AuthorIDs:   domain.NewIDSet(input.AuthorIDs...),
		GenreIDs:    domain.NewIDSet(input.GenreIDs...),
		CreatedAt:   s.now(),
	}
	if err := s.catalogRepo.CreateBookGroup(ctx, group); err != nil {
		return nil, err
	}

	log.Printf("📚 Book group %d created: %s", group.ID, group.Title)
	return group, nil
}

// GetBookGroup returns one title
func (s *CatalogService) GetBookGroup(ctx context.Context, id uint) (*domain.BookGroup, error) {
	return s.catalogRepo.GetBookGroup(ctx, id)
}

// ListBookGroups pages through the catalog
func (s *CatalogService) ListBookGroups(ctx context.Context, offset, limit int) ([]*domain.BookGroup, int64, error) {
	return s.catalogRepo.ListBookGroups(ctx, offset, limit)
}

// AddCopy registers a physical copy under a staff-assigned number
func (s *CatalogService) AddCopy(ctx context.Context, p domain.Principal, bookGroupID uint, input CreateCopyInput) (*domain.BookCopy, error) {
	if err := domain.RequireCapability(p, domain.CapStaff...); err != nil {
		return nil, err
	}
	if input.ID <= 0 {
		return nil, fmt.Errorf("%w: copy number must be positive", domain.ErrInvalidInput)
	}
	if _, err := s.catalogRepo.GetBookGroup(ctx, bookGroupID); err != nil {
		return nil, err
	}

	c := &domain.BookCopy{
		ID:          input.ID,
		BookGroupID: bookGroupID,
		Status:      domain.CopyAvailable,
		Condition:   input.Condition,
		CreatedAt:   s.now(),
	}
	if err := s.catalogRepo.CreateCopy(ctx, c); err != nil {
		return nil, err
	}

	log.Printf("📦 Copy %d added to book group %d", c.ID, bookGroupID)
	return c, nil
}

// GetCopy returns one copy
func (s *CatalogService) GetCopy(ctx context.Context, id int64) (*domain.BookCopy, error) {
	return s.catalogRepo.GetCopy(ctx, id)
}

// ListCopies lists the copies of a title
func (s *CatalogService) ListCopies(ctx context.Context, bookGroupID uint) ([]*domain.BookCopy, error) {
	if _, err := s.catalogRepo.GetBookGroup(ctx, bookGroupID); err != nil {
		return nil, err
	}
	return s.catalogRepo.ListCopies(ctx, bookGroupID)
}

// UpdateCondition records the physical condition of a copy
func (s *CatalogService) UpdateCondition(ctx context.Context, p domain.Principal, id int64, condition string) error {
	if err := domain.RequireCapability(p, domain.CapStaff...); err != nil {
		return err
	}
	return s.catalogRepo.UpdateCopyCondition(ctx, id, condition)
}

// SetCopyStatus moves a copy between available, lost and reserved.
// Issued is owned by the lending engine and can be neither set nor left here.
func (s *CatalogService) SetCopyStatus(ctx context.Context, p domain.Principal, id int64, status domain.CopyStatus) error {
	if err := domain.RequireCapability(p, domain.CapStaff...); err != nil {
		return err
	}
	switch status {
	case domain.CopyAvailable, domain.CopyLost, domain.CopyReserved:
	default:
		return domain.ErrInvalidTransition
	}

	return s.uow.Atomic(ctx, func(tx Tx) error {
		c, err := tx.LockCopy(id)
		if err != nil {
			return err
		}
		if c.Status == domain.CopyIssued {
			return domain.ErrInvalidTransition
		}
		return tx.UpdateCopyStatus(id, status)
	})
}
