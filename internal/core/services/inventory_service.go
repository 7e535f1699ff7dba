package services

import (
	"context"

	"bilet-lending/internal/core/domain"
)

// DefaultTopBooksLimit is the size of the top books report
const DefaultTopBooksLimit = 20

// InventoryService provides read-only projections over the catalog
type InventoryService struct {
	catalogRepo   CatalogRepository
	inventoryRepo InventoryRepository
}

// NewInventoryService creates a new inventory service
func NewInventoryService(catalogRepo CatalogRepository, inventoryRepo InventoryRepository) *InventoryService {
	return &InventoryService{
		catalogRepo:   catalogRepo,
		inventoryRepo: inventoryRepo,
	}
}

// Availability summarises the copies of one title
type Availability struct {
	BookGroupID uint  `json:"book_group_id"`
	Copies      int64 `json:"copies"`
	Available   int64 `json:"available"`
}

// CopiesCount counts every copy of a title
func (s *InventoryService) CopiesCount(ctx context.Context, bookGroupID uint) (int64, error) {
	if _, err := s.catalogRepo.GetBookGroup(ctx, bookGroupID); err != nil {
		return 0, err
	}
	return s.inventoryRepo.CountCopies(ctx, bookGroupID, "")
}

// AvailableCount counts the copies of a title that can be issued now
func (s *InventoryService) AvailableCount(ctx context.Context, bookGroupID uint) (int64, error) {
	if _, err := s.catalogRepo.GetBookGroup(ctx, bookGroupID); err != nil {
		return 0, err
	}
	return s.inventoryRepo.CountCopies(ctx, bookGroupID, domain.CopyAvailable)
}

// Availability returns both counts for a title
func (s *InventoryService) Availability(ctx context.Context, bookGroupID uint) (*Availability, error) {
	total, err := s.CopiesCount(ctx, bookGroupID)
	if err != nil {
		return nil, err
	}
	available, err := s.inventoryRepo.CountCopies(ctx, bookGroupID, domain.CopyAvailable)
	if err != nil {
		return nil, err
	}
	return &Availability{BookGroupID: bookGroupID, Copies: total, Available: available}, nil
}

// TopBooksByIssueCount ranks titles by how often their copies were lent
func (s *InventoryService) TopBooksByIssueCount(ctx context.Context, limit int) ([]domain.BookIssueCount, error) {
	if limit <= 0 {
		limit = DefaultTopBooksLimit
	}
	return s.inventoryRepo.TopBookGroupsByLoans(ctx, limit)
}
