package handlers

import (
	"bilet-lending/internal/core/services"
	"bilet-lending/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// EventHandler handles events and their participants
type EventHandler struct {
	eventService *services.EventService
}

// NewEventHandler creates a new event handler
func NewEventHandler(eventService *services.EventService) *EventHandler {
	return &EventHandler{eventService: eventService}
}

// ParticipantRequest names the member to act on; empty means the caller
type ParticipantRequest struct {
	UserID uint `json:"user_id"`
}

// ListEvents godoc
// @Summary List events
// @Tags Events
// @Produce json
// @Success 200 {object} response.Response
// @Router /events [get]
func (h *EventHandler) ListEvents(c *fiber.Ctx) error {
	events, err := h.eventService.List(c.UserContext())
	if err != nil {
		return fail(c, err)
	}
	return response.Success(c, "Events retrieved successfully", events)
}

// GetEvent godoc
// @Summary Get an event
// @Tags Events
// @Produce json
// @Param id path int true "Event ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /events/{id} [get]
func (h *EventHandler) GetEvent(c *fiber.Ctx) error {
	id, ok := paramUint(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid event ID")
	}
	event, err := h.eventService.Get(c.UserContext(), id)
	if err != nil {
		return fail(c, err)
	}
	return response.Success(c, "Event retrieved successfully", event)
}

// CreateEvent godoc
// @Summary Create an event
// @Tags Events
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body services.CreateEventInput true "Event"
// @Success 201 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /events [post]
func (h *EventHandler) CreateEvent(c *fiber.Ctx) error {
	var req services.CreateEventInput
	if err := bind(c, &req); err != nil {
		return fail(c, err)
	}
	event, err := h.eventService.Create(c.UserContext(), principal(c), req)
	if err != nil {
		return fail(c, err)
	}
	return response.Created(c, "Event created successfully", event)
}

// Register godoc
// @Summary Register for an event
// @Description Registering twice is a no-op. Staff may register another user.
// @Tags Events
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Event ID"
// @Param body body ParticipantRequest false "Member"
// @Success 200 {object} response.Response
// @Failure 409 {object} response.Response "event full"
// @Router /events/{id}/register [post]
func (h *EventHandler) Register(c *fiber.Ctx) error {
	eventID, userID, err := h.participantArgs(c)
	if err != nil {
		return fail(c, err)
	}
	if err := h.eventService.Register(c.UserContext(), principal(c), eventID, userID); err != nil {
		return fail(c, err)
	}
	return response.Success(c, "Registered successfully", nil)
}

// Unregister godoc
// @Summary Leave an event
// @Description Leaving an event you are not registered for is a no-op
// @Tags Events
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Event ID"
// @Param body body ParticipantRequest false "Member"
// @Success 204
// @Router /events/{id}/unregister [post]
func (h *EventHandler) Unregister(c *fiber.Ctx) error {
	eventID, userID, err := h.participantArgs(c)
	if err != nil {
		return fail(c, err)
	}
	if err := h.eventService.Unregister(c.UserContext(), principal(c), eventID, userID); err != nil {
		return fail(c, err)
	}
	return response.NoContent(c)
}

func (h *EventHandler) participantArgs(c *fiber.Ctx) (uint, uint, error) {
	eventID, ok := paramUint(c, "id")
	if !ok {
		return 0, 0, &bindError{message: "Invalid event ID"}
	}
	var req ParticipantRequest
	if len(c.Body()) > 0 {
		if err := bind(c, &req); err != nil {
			return 0, 0, err
		}
	}
	return eventID, req.UserID, nil
}
