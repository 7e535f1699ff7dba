package handlers

import (
	"bilet-lending/internal/core/services"
	"bilet-lending/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// LendingHandler handles issue, return and loan lookups
type LendingHandler struct {
	lendingService *services.LendingService
}

// NewLendingHandler creates a new lending handler
func NewLendingHandler(lendingService *services.LendingService) *LendingHandler {
	return &LendingHandler{lendingService: lendingService}
}

// ReturnRequest carries the condition noted at return
type ReturnRequest struct {
	Condition string `json:"condition" validate:"max=255"`
}

// Issue godoc
// @Summary Issue a copy to a reader
// @Tags Lending
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body services.IssueInput true "Issue"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response "age restricted"
// @Failure 404 {object} response.Response
// @Failure 409 {object} response.Response "copy unavailable"
// @Router /loans [post]
func (h *LendingHandler) Issue(c *fiber.Ctx) error {
	var req services.IssueInput
	if err := bind(c, &req); err != nil {
		return fail(c, err)
	}
	loan, err := h.lendingService.Issue(c.UserContext(), principal(c), req)
	if err != nil {
		return fail(c, err)
	}
	return response.Created(c, "Copy issued successfully", loan)
}

// ReturnCopy godoc
// @Summary Return a copy
// @Description Closes the latest open loan on the copy
// @Tags Lending
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Copy ID"
// @Param body body ReturnRequest false "Condition"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response "no active loan"
// @Failure 404 {object} response.Response
// @Router /copies/{id}/return [post]
func (h *LendingHandler) ReturnCopy(c *fiber.Ctx) error {
	id, ok := paramInt64(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid copy ID")
	}
	req, err := optionalReturnBody(c)
	if err != nil {
		return fail(c, err)
	}
	loan, err := h.lendingService.ReturnCopy(c.UserContext(), principal(c), id, req.Condition)
	if err != nil {
		return fail(c, err)
	}
	return response.Success(c, "Copy returned successfully", loan)
}

// MarkReturned godoc
// @Summary Close a loan by id
// @Tags Lending
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Loan ID"
// @Param body body ReturnRequest false "Condition"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response "no active loan"
// @Failure 404 {object} response.Response
// @Router /loans/{id}/return [post]
func (h *LendingHandler) MarkReturned(c *fiber.Ctx) error {
	id, ok := paramUint(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid loan ID")
	}
	req, err := optionalReturnBody(c)
	if err != nil {
		return fail(c, err)
	}
	loan, err := h.lendingService.MarkReturned(c.UserContext(), principal(c), id, req.Condition)
	if err != nil {
		return fail(c, err)
	}
	return response.Success(c, "Loan closed successfully", loan)
}

func optionalReturnBody(c *fiber.Ctx) (ReturnRequest, error) {
	var req ReturnRequest
	if len(c.Body()) == 0 {
		return req, nil
	}
	err := bind(c, &req)
	return req, err
}

// GetLoan godoc
// @Summary Get a loan
// @Description Status is derived from the dates at read time
// @Tags Lending
// @Produce json
// @Security BearerAuth
// @Param id path int true "Loan ID"
// @Success 200 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /loans/{id} [get]
func (h *LendingHandler) GetLoan(c *fiber.Ctx) error {
	id, ok := paramUint(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid loan ID")
	}
	loan, err := h.lendingService.GetLoan(c.UserContext(), principal(c), id)
	if err != nil {
		return fail(c, err)
	}
	return response.Success(c, "Loan retrieved successfully", fiber.Map{
		"loan":    loan,
		"overdue": h.lendingService.IsOverdue(loan),
	})
}

// MyActiveLoans godoc
// @Summary Caller's open loans
// @Tags Lending
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /me/loans/active [get]
func (h *LendingHandler) MyActiveLoans(c *fiber.Ctx) error {
	p := principal(c)
	return h.listLoans(c, p.UserID, false)
}

// MyReturnedLoans godoc
// @Summary Caller's returned loans
// @Tags Lending
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /me/loans/returned [get]
func (h *LendingHandler) MyReturnedLoans(c *fiber.Ctx) error {
	p := principal(c)
	return h.listLoans(c, p.UserID, true)
}

// ReaderLoans godoc
// @Summary A reader's loans (staff)
// @Tags Lending
// @Produce json
// @Security BearerAuth
// @Param id path int true "Reader ID"
// @Param returned query bool false "List returned loans instead of open ones"
// @Success 200 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /users/{id}/loans [get]
func (h *LendingHandler) ReaderLoans(c *fiber.Ctx) error {
	id, ok := paramUint(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid user ID")
	}
	return h.listLoans(c, id, c.QueryBool("returned", false))
}

func (h *LendingHandler) listLoans(c *fiber.Ctx, readerID uint, returned bool) error {
	loans, err := h.lendingService.ListReaderLoans(c.UserContext(), principal(c), readerID, returned)
	if err != nil {
		return fail(c, err)
	}
	return response.Success(c, "Loans retrieved successfully", loans)
}
