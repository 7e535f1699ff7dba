package handlers

import (
	"bilet-lending/internal/core/domain"
	"bilet-lending/internal/core/services"
	"bilet-lending/internal/pkg/pagination"
	"bilet-lending/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// CatalogHandler handles titles, copies, authors and genres
type CatalogHandler struct {
	catalogService   *services.CatalogService
	inventoryService *services.InventoryService
}

// NewCatalogHandler creates a new catalog handler
func NewCatalogHandler(catalogService *services.CatalogService, inventoryService *services.InventoryService) *CatalogHandler {
	return &CatalogHandler{
		catalogService:   catalogService,
		inventoryService: inventoryService,
	}
}

// NameRequest is the body for authors and genres
type NameRequest struct {
	Name string `json:"name" validate:"required,max=255"`
}

// ConditionRequest updates a copy's condition note
type ConditionRequest struct {
	Condition string `json:"condition" validate:"max=255"`
}

// CopyStatusRequest moves a copy between available, lost and reserved
type CopyStatusRequest struct {
	Status domain.CopyStatus `json:"status" validate:"required,oneof=available lost reserved"`
}

// ListAuthors godoc
// @Summary List authors
// @Tags Catalog
// @Produce json
// @Success 200 {object} response.Response
// @Router /authors [get]
func (h *CatalogHandler) ListAuthors(c *fiber.Ctx) error {
	authors, err := h.catalogService.ListAuthors(c.UserContext())
	if err != nil {
		return fail(c, err)
	}
	return response.Success(c, "Authors retrieved successfully", authors)
}

// CreateAuthor godoc
// @Summary Create author
// @Tags Catalog
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body NameRequest true "Author"
// @Success 201 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /authors [post]
func (h *CatalogHandler) CreateAuthor(c *fiber.Ctx) error {
	var req NameRequest
	if err := bind(c, &req); err != nil {
		return fail(c, err)
	}
	author, err := h.catalogService.CreateAuthor(c.UserContext(), principal(c), req.Name)
	if err != nil {
		return fail(c, err)
	}
	return response.Created(c, "Author created successfully", author)
}

// ListGenres godoc
// @Summary List genres
// @Tags Catalog
// @Produce json
// @Success 200 {object} response.Response
// @Router /genres [get]
func (h *CatalogHandler) ListGenres(c *fiber.Ctx) error {
	genres, err := h.catalogService.ListGenres(c.UserContext())
	if err != nil {
		return fail(c, err)
	}
	return response.Success(c, "Genres retrieved successfully", genres)
}

// CreateGenre godoc
// @Summary Create genre
// @Tags Catalog
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body NameRequest true "Genre"
// @Success 201 {object} response.Response
// @Router /genres [post]
func (h *CatalogHandler) CreateGenre(c *fiber.Ctx) error {
	var req NameRequest
	if err := bind(c, &req); err != nil {
		return fail(c, err)
	}
	genre, err := h.catalogService.CreateGenre(c.UserContext(), principal(c), req.Name)
	if err != nil {
		return fail(c, err)
	}
	return response.Created(c, "Genre created successfully", genre)
}

// ListBookGroups godoc
// @Summary List catalog titles
// @Tags Catalog
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Items per page" default(20)
// @Success 200 {object} response.Response
// @Router /books [get]
func (h *CatalogHandler) ListBookGroups(c *fiber.Ctx) error {
	params := pagination.GetParams(c)

	groups, total, err := h.catalogService.ListBookGroups(c.UserContext(), params.Offset, params.Limit)
	if err != nil {
		return fail(c, err)
	}
	return response.Success(c, "Books retrieved successfully", pagination.NewPage(groups, params, total))
}

// CreateBookGroup godoc
// @Summary Create catalog title
// @Tags Catalog
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body services.CreateBookGroupInput true "Title"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /books [post]
func (h *CatalogHandler) CreateBookGroup(c *fiber.Ctx) error {
	var req services.CreateBookGroupInput
	if err := bind(c, &req); err != nil {
		return fail(c, err)
	}
	group, err := h.catalogService.CreateBookGroup(c.UserContext(), principal(c), req)
	if err != nil {
		return fail(c, err)
	}
	return response.Created(c, "Book created successfully", group)
}

// GetBookGroup godoc
// @Summary Get catalog title
// @Tags Catalog
// @Produce json
// @Param id path int true "Book group ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /books/{id} [get]
func (h *CatalogHandler) GetBookGroup(c *fiber.Ctx) error {
	id, ok := paramUint(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid book ID")
	}
	group, err := h.catalogService.GetBookGroup(c.UserContext(), id)
	if err != nil {
		return fail(c, err)
	}
	return response.Success(c, "Book retrieved successfully", group)
}

// Availability godoc
// @Summary Copy counts of a title
// @Description Total copies and copies available right now
// @Tags Catalog
// @Produce json
// @Param id path int true "Book group ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /books/{id}/availability [get]
func (h *CatalogHandler) Availability(c *fiber.Ctx) error {
	id, ok := paramUint(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid book ID")
	}
	availability, err := h.inventoryService.Availability(c.UserContext(), id)
	if err != nil {
		return fail(c, err)
	}
	return response.Success(c, "Availability retrieved successfully", availability)
}

// TopBooks godoc
// @Summary Most issued titles
// @Tags Catalog
// @Produce json
// @Param limit query int false "Number of titles" default(20)
// @Success 200 {object} response.Response
// @Router /books/top [get]
func (h *CatalogHandler) TopBooks(c *fiber.Ctx) error {
	limit := pagination.QueryLimit(c, services.DefaultTopBooksLimit, pagination.MaxLimit)
	top, err := h.inventoryService.TopBooksByIssueCount(c.UserContext(), limit)
	if err != nil {
		return fail(c, err)
	}
	return response.Success(c, "Top books retrieved successfully", top)
}

// ListCopies godoc
// @Summary List copies of a title
// @Tags Catalog
// @Produce json
// @Param id path int true "Book group ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /books/{id}/copies [get]
func (h *CatalogHandler) ListCopies(c *fiber.Ctx) error {
	id, ok := paramUint(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid book ID")
	}
	copies, err := h.catalogService.ListCopies(c.UserContext(), id)
	if err != nil {
		return fail(c, err)
	}
	return response.Success(c, "Copies retrieved successfully", copies)
}

// AddCopy godoc
// @Summary Add a physical copy
// @Tags Catalog
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Book group ID"
// @Param body body services.CreateCopyInput true "Copy"
// @Success 201 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /books/{id}/copies [post]
func (h *CatalogHandler) AddCopy(c *fiber.Ctx) error {
	id, ok := paramUint(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid book ID")
	}
	var req services.CreateCopyInput
	if err := bind(c, &req); err != nil {
		return fail(c, err)
	}
	bookCopy, err := h.catalogService.AddCopy(c.UserContext(), principal(c), id, req)
	if err != nil {
		return fail(c, err)
	}
	return response.Created(c, "Copy added successfully", bookCopy)
}

// GetCopy godoc
// @Summary Get a copy
// @Tags Catalog
// @Produce json
// @Param id path int true "Copy ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /copies/{id} [get]
func (h *CatalogHandler) GetCopy(c *fiber.Ctx) error {
	id, ok := paramInt64(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid copy ID")
	}
	bookCopy, err := h.catalogService.GetCopy(c.UserContext(), id)
	if err != nil {
		return fail(c, err)
	}
	return response.Success(c, "Copy retrieved successfully", bookCopy)
}

// UpdateCondition godoc
// @Summary Update a copy's condition
// @Tags Catalog
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Copy ID"
// @Param body body ConditionRequest true "Condition"
// @Success 200 {object} response.Response
// @Router /copies/{id}/condition [patch]
func (h *CatalogHandler) UpdateCondition(c *fiber.Ctx) error {
	id, ok := paramInt64(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid copy ID")
	}
	var req ConditionRequest
	if err := bind(c, &req); err != nil {
		return fail(c, err)
	}
	if err := h.catalogService.UpdateCondition(c.UserContext(), principal(c), id, req.Condition); err != nil {
		return fail(c, err)
	}
	return response.Success(c, "Condition updated successfully", nil)
}

// SetCopyStatus godoc
// @Summary Mark a copy available, lost or reserved
// @Description Issued copies change status only through issue and return
// @Tags Catalog
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Copy ID"
// @Param body body CopyStatusRequest true "Status"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /copies/{id}/status [patch]
func (h *CatalogHandler) SetCopyStatus(c *fiber.Ctx) error {
	id, ok := paramInt64(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid copy ID")
	}
	var req CopyStatusRequest
	if err := bind(c, &req); err != nil {
		return fail(c, err)
	}
	if err := h.catalogService.SetCopyStatus(c.UserContext(), principal(c), id, req.Status); err != nil {
		return fail(c, err)
	}
	return response.Success(c, "Copy status updated successfully", nil)
}
