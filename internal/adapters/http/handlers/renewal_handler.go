package handlers

import (
	"bilet-lending/internal/core/services"
	"bilet-lending/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// RenewalHandler handles renew requests
type RenewalHandler struct {
	renewalService *services.RenewalService
}

// NewRenewalHandler creates a new renewal handler
func NewRenewalHandler(renewalService *services.RenewalService) *RenewalHandler {
	return &RenewalHandler{renewalService: renewalService}
}

// ExtendRequest asks for extra days on a loan; 0 uses the default
type ExtendRequest struct {
	ExtraDays int `json:"extra_days" validate:"gte=0,lte=90"`
}

// Extend godoc
// @Summary Request a renewal
// @Description Files a pending renew request; the loan changes only on approval
// @Tags Renewals
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Loan ID"
// @Param body body ExtendRequest false "Extra days"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response "renewal limit or closed loan"
// @Failure 403 {object} response.Response
// @Router /loans/{id}/extend [post]
func (h *RenewalHandler) Extend(c *fiber.Ctx) error {
	id, ok := paramUint(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid loan ID")
	}
	var req ExtendRequest
	if len(c.Body()) > 0 {
		if err := bind(c, &req); err != nil {
			return fail(c, err)
		}
	}

	renewal, err := h.renewalService.Extend(c.UserContext(), principal(c), id, req.ExtraDays)
	if err != nil {
		return fail(c, err)
	}
	return response.Created(c, "Renew request submitted", renewal)
}

// ListPending godoc
// @Summary Pending renew requests
// @Tags Renewals
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /renewals [get]
func (h *RenewalHandler) ListPending(c *fiber.Ctx) error {
	requests, err := h.renewalService.ListPending(c.UserContext(), principal(c))
	if err != nil {
		return fail(c, err)
	}
	return response.Success(c, "Renew requests retrieved successfully", requests)
}

// Approve godoc
// @Summary Approve a renew request
// @Tags Renewals
// @Produce json
// @Security BearerAuth
// @Param id path int true "Renew request ID"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response "renewal limit"
// @Failure 409 {object} response.Response "request no longer pending"
// @Router /renewals/{id}/approve [post]
func (h *RenewalHandler) Approve(c *fiber.Ctx) error {
	id, ok := paramUint(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid request ID")
	}
	loan, err := h.renewalService.Approve(c.UserContext(), principal(c), id)
	if err != nil {
		return fail(c, err)
	}
	return response.Success(c, "Renewal approved", loan)
}

// Reject godoc
// @Summary Reject a renew request
// @Description Requests that are no longer pending are left unchanged
// @Tags Renewals
// @Produce json
// @Security BearerAuth
// @Param id path int true "Renew request ID"
// @Success 204
// @Router /renewals/{id}/reject [post]
func (h *RenewalHandler) Reject(c *fiber.Ctx) error {
	id, ok := paramUint(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid request ID")
	}
	if err := h.renewalService.Reject(c.UserContext(), principal(c), id); err != nil {
		return fail(c, err)
	}
	return response.NoContent(c)
}
