package repositories

import (
	"context"
	"fmt"

	"bilet-lending/internal/adapters/persistence/models"
	"bilet-lending/internal/core/domain"

	"gorm.io/gorm"
)

// catalogRepository implements CatalogRepository and InventoryRepository
type catalogRepository struct {
	db *gorm.DB
}

// ============================================================
// Authors & Genres
// ============================================================

func (r *catalogRepository) CreateAuthor(ctx context.Context, a *domain.Author) error {
	m := models.Author{Name: a.Name}
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		return mapError(err)
	}
	a.ID = m.ID
	return nil
}

func (r *catalogRepository) ListAuthors(ctx context.Context) ([]*domain.Author, error) {
	var rows []models.Author
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&rows).Error; err != nil {
		return nil, mapError(err)
	}
	out := make([]*domain.Author, 0, len(rows))
	for _, row := range rows {
		out = append(out, &domain.Author{ID: row.ID, Name: row.Name})
	}
	return out, nil
}

func (r *catalogRepository) CreateGenre(ctx context.Context, g *domain.Genre) error {
	m := models.Genre{Name: g.Name}
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		return mapError(err)
	}
	g.ID = m.ID
	return nil
}

func (r *catalogRepository) ListGenres(ctx context.Context) ([]*domain.Genre, error) {
	var rows []models.Genre
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&rows).Error; err != nil {
		return nil, mapError(err)
	}
	out := make([]*domain.Genre, 0, len(rows))
	for _, row := range rows {
		out = append(out, &domain.Genre{ID: row.ID, Name: row.Name})
	}
	return out, nil
}

// ============================================================
// Book groups
// ============================================================

// CreateBookGroup inserts the title and its author/genre links in one transaction
func (r *catalogRepository) CreateBookGroup(ctx context.Context, g *domain.BookGroup) error {
	m := models.BookGroupFromDomain(g)

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensureAllExist(tx, &models.Author{}, "author", g.AuthorIDs.Slice()); err != nil {
			return err
		}
		if err := ensureAllExist(tx, &models.Genre{}, "genre", g.GenreIDs.Slice()); err != nil {
			return err
		}
		if err := tx.Create(m).Error; err != nil {
			return mapError(err)
		}

		for _, id := range g.AuthorIDs.Slice() {
			if err := tx.Create(&models.BookGroupAuthor{BookGroupID: m.ID, AuthorID: id}).Error; err != nil {
				return mapError(err)
			}
		}
		for _, id := range g.GenreIDs.Slice() {
			if err := tx.Create(&models.BookGroupGenre{BookGroupID: m.ID, GenreID: id}).Error; err != nil {
				return mapError(err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	g.ID = m.ID
	g.CreatedAt = m.CreatedAt
	return nil
}

func ensureAllExist(db *gorm.DB, model interface{}, name string, ids []uint) error {
	if len(ids) == 0 {
		return nil
	}
	var count int64
	if err := db.Model(model).Where("id IN ?", ids).Count(&count).Error; err != nil {
		return mapError(err)
	}
	if int(count) != len(ids) {
		return fmt.Errorf("%w: unknown %s in %v", domain.ErrNotFound, name, ids)
	}
	return nil
}

func (r *catalogRepository) GetBookGroup(ctx context.Context, id uint) (*domain.BookGroup, error) {
	return getBookGroup(r.db.WithContext(ctx), id)
}

func getBookGroup(db *gorm.DB, id uint) (*domain.BookGroup, error) {
	var g models.BookGroup
	if err := db.Where("id = ?", id).First(&g).Error; err != nil {
		return nil, mapError(err)
	}

	var authorIDs, genreIDs []uint
	if err := db.Model(&models.BookGroupAuthor{}).Where("book_group_id = ?", id).Pluck("author_id", &authorIDs).Error; err != nil {
		return nil, mapError(err)
	}
	if err := db.Model(&models.BookGroupGenre{}).Where("book_group_id = ?", id).Pluck("genre_id", &genreIDs).Error; err != nil {
		return nil, mapError(err)
	}
	return g.ToDomain(authorIDs, genreIDs), nil
}

func (r *catalogRepository) ListBookGroups(ctx context.Context, offset, limit int) ([]*domain.BookGroup, int64, error) {
	var (
		rows  []models.BookGroup
		total int64
	)

	if err := r.db.WithContext(ctx).Model(&models.BookGroup{}).Count(&total).Error; err != nil {
		return nil, 0, mapError(err)
	}
	if err := paginate(r.db.WithContext(ctx).Order("id ASC"), offset, limit).Find(&rows).Error; err != nil {
		return nil, 0, mapError(err)
	}
	if len(rows) == 0 {
		return []*domain.BookGroup{}, total, nil
	}

	ids := make([]uint, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ID)
	}

	var (
		authorLinks []models.BookGroupAuthor
		genreLinks  []models.BookGroupGenre
	)
	if err := r.db.WithContext(ctx).Where("book_group_id IN ?", ids).Find(&authorLinks).Error; err != nil {
		return nil, 0, mapError(err)
	}
	if err := r.db.WithContext(ctx).Where("book_group_id IN ?", ids).Find(&genreLinks).Error; err != nil {
		return nil, 0, mapError(err)
	}

	authors := make(map[uint][]uint)
	for _, link := range authorLinks {
		authors[link.BookGroupID] = append(authors[link.BookGroupID], link.AuthorID)
	}
	genres := make(map[uint][]uint)
	for _, link := range genreLinks {
		genres[link.BookGroupID] = append(genres[link.BookGroupID], link.GenreID)
	}

	out := make([]*domain.BookGroup, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].ToDomain(authors[rows[i].ID], genres[rows[i].ID]))
	}
	return out, total, nil
}

// ============================================================
// Copies
// ============================================================

func (r *catalogRepository) CreateCopy(ctx context.Context, c *domain.BookCopy) error {
	db := r.db.WithContext(ctx)
	if err := ensureAllExist(db, &models.BookGroup{}, "book group", []uint{c.BookGroupID}); err != nil {
		return err
	}

	m := models.BookCopyFromDomain(c)
	if err := db.Create(m).Error; err != nil {
		return mapError(err)
	}
	c.CreatedAt = m.CreatedAt
	return nil
}

func (r *catalogRepository) GetCopy(ctx context.Context, id int64) (*domain.BookCopy, error) {
	var c models.BookCopy
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&c).Error; err != nil {
		return nil, mapError(err)
	}
	return c.ToDomain(), nil
}

func (r *catalogRepository) ListCopies(ctx context.Context, bookGroupID uint) ([]*domain.BookCopy, error) {
	var rows []models.BookCopy
	if err := r.db.WithContext(ctx).Where("book_group_id = ?", bookGroupID).Order("id ASC").Find(&rows).Error; err != nil {
		return nil, mapError(err)
	}
	out := make([]*domain.BookCopy, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].ToDomain())
	}
	return out, nil
}

func (r *catalogRepository) UpdateCopyCondition(ctx context.Context, id int64, condition string) error {
	if _, err := r.GetCopy(ctx, id); err != nil {
		return err
	}
	return mapError(r.db.WithContext(ctx).Model(&models.BookCopy{}).
		Where("id = ?", id).
		Update("condition", condition).Error)
}

// ============================================================
// Inventory projections
// ============================================================

func (r *catalogRepository) CountCopies(ctx context.Context, bookGroupID uint, status domain.CopyStatus) (int64, error) {
	db := r.db.WithContext(ctx).Model(&models.BookCopy{}).Where("book_group_id = ?", bookGroupID)
	if status != "" {
		db = db.Where("status = ?", string(status))
	}

	var count int64
	if err := db.Count(&count).Error; err != nil {
		return 0, mapError(err)
	}
	return count, nil
}

// TopBookGroupsByLoans counts every loan ever made per title, titles without
// loans included with zero
func (r *catalogRepository) TopBookGroupsByLoans(ctx context.Context, limit int) ([]domain.BookIssueCount, error) {
	var rows []domain.BookIssueCount

	db := r.db.WithContext(ctx).
		Table("book_groups AS bg").
		Select("bg.id AS book_group_id, bg.title AS title, COUNT(l.id) AS issues").
		Joins("LEFT JOIN book_copies AS bc ON bc.book_group_id = bg.id").
		Joins("LEFT JOIN loans AS l ON l.copy_id = bc.id").
		Group("bg.id, bg.title").
		Order("issues DESC, bg.id ASC")
	if limit > 0 {
		db = db.Limit(limit)
	}

	if err := db.Scan(&rows).Error; err != nil {
		return nil, mapError(err)
	}
	if rows == nil {
		rows = []domain.BookIssueCount{}
	}
	return rows, nil
}
