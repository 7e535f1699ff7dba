package handlers

import (
	"bilet-lending/internal/core/services"
	"bilet-lending/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// NotificationHandler lets users read their notifications
type NotificationHandler struct {
	notificationService *services.NotificationService
}

// NewNotificationHandler creates a new notification handler
func NewNotificationHandler(notificationService *services.NotificationService) *NotificationHandler {
	return &NotificationHandler{notificationService: notificationService}
}

// List godoc
// @Summary Caller's notifications
// @Tags Notifications
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /me/notifications [get]
func (h *NotificationHandler) List(c *fiber.Ctx) error {
	notes, err := h.notificationService.ListForUser(c.UserContext(), principal(c))
	if err != nil {
		return fail(c, err)
	}
	return response.Success(c, "Notifications retrieved successfully", notes)
}

// MarkRead godoc
// @Summary Mark a notification as read
// @Tags Notifications
// @Produce json
// @Security BearerAuth
// @Param id path int true "Notification ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /me/notifications/{id}/read [post]
func (h *NotificationHandler) MarkRead(c *fiber.Ctx) error {
	id, ok := paramUint(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid notification ID")
	}
	if err := h.notificationService.MarkRead(c.UserContext(), principal(c), id); err != nil {
		return fail(c, err)
	}
	return response.Success(c, "Notification marked as read", nil)
}
