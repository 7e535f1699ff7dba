package config

import (
	"context"
	"errors"
	"log"

	"bilet-lending/internal/core/domain"
	"bilet-lending/internal/core/services"
)

// Seeder handles database seeding
type Seeder struct {
	store services.Store
	users *services.UserService
}

// NewSeeder creates a new seeder instance
func NewSeeder(store services.Store, users *services.UserService) *Seeder {
	return &Seeder{store: store, users: users}
}

// Run executes all seeders
func (s *Seeder) Run(ctx context.Context, withDemoData bool) error {
	log.Println("🌱 Running database seeders...")

	if err := s.seedAdminUser(ctx); err != nil {
		log.Printf("⚠️ Admin seeder skipped: %v", err)
	}
	if withDemoData {
		if err := s.seedCatalog(ctx); err != nil {
			log.Printf("⚠️ Catalog seeder skipped: %v", err)
		}
	}

	log.Println("✅ Database seeding completed")
	return nil
}

// seedAdminUser seeds the default admin account.
// Development only; change the password right after the first login.
func (s *Seeder) seedAdminUser(ctx context.Context) error {
	if _, err := s.store.GetUserByUsername(ctx, "admin"); err == nil {
		return nil
	} else if !errors.Is(err, domain.ErrNotFound) {
		return err
	}

	admin, err := s.users.Bootstrap(ctx, domain.RoleAdmin, services.CreateUserInput{
		FirstName:      "System",
		LastName:       "Administrator",
		Username:       "admin",
		TicketNumber:   "ADMIN-0001",
		ContractNumber: "ADMIN-0001",
		Password:       "admin123456",
	})
	if err != nil {
		return err
	}

	log.Printf("✅ Admin user created: %s", admin.Username)
	return nil
}

// seedCatalog adds a small demo catalog when the catalog is empty
func (s *Seeder) seedCatalog(ctx context.Context) error {
	_, total, err := s.store.ListBookGroups(ctx, 0, 1)
	if err != nil {
		return err
	}
	if total > 0 {
		return nil
	}

	author := &domain.Author{Name: "Leo Tolstoy"}
	if err := s.store.CreateAuthor(ctx, author); err != nil {
		return err
	}
	genre := &domain.Genre{Name: "Novel"}
	if err := s.store.CreateGenre(ctx, genre); err != nil {
		return err
	}

	group := &domain.BookGroup{
		Title:     "War and Peace",
		Publisher: "The Russian Messenger",
		AgeLimit:  12,
		AuthorIDs: domain.NewIDSet(author.ID),
		GenreIDs:  domain.NewIDSet(genre.ID),
	}
	if err := s.store.CreateBookGroup(ctx, group); err != nil {
		return err
	}

	for _, id := range []int64{1001, 1002, 1003} {
		if err := s.store.CreateCopy(ctx, &domain.BookCopy{
			ID:          id,
			BookGroupID: group.ID,
			Status:      domain.CopyAvailable,
			Condition:   "good",
		}); err != nil {
			return err
		}
	}

	log.Printf("✅ Demo catalog created: %s with 3 copies", group.Title)
	return nil
}
