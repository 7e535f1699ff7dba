package handlers

import (
	"bilet-lending/internal/core/services"
	"bilet-lending/internal/pkg/pagination"
	"bilet-lending/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// UserHandler handles reader and staff account endpoints
type UserHandler struct {
	userService *services.UserService
}

// NewUserHandler creates a new user handler
func NewUserHandler(userService *services.UserService) *UserHandler {
	return &UserHandler{
		userService: userService,
	}
}

// CreateUser registers a reader or a staff member
// @Summary Create user
// @Description Register a reader (default) or staff account. Creating an admin requires an admin.
// @Tags Users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body services.CreateUserInput true "User data"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /users [post]
func (h *UserHandler) CreateUser(c *fiber.Ctx) error {
	var req services.CreateUserInput
	if err := bind(c, &req); err != nil {
		return fail(c, err)
	}

	user, err := h.userService.Create(c.UserContext(), principal(c), req)
	if err != nil {
		return fail(c, err)
	}
	return response.Created(c, "User created successfully", user)
}

// ListUsers handles listing all users (staff only)
// @Summary List users
// @Tags Users
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Items per page" default(20)
// @Success 200 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /users [get]
func (h *UserHandler) ListUsers(c *fiber.Ctx) error {
	params := pagination.GetParams(c)

	result, err := h.userService.List(c.UserContext(), principal(c), params.Offset, params.Limit)
	if err != nil {
		return fail(c, err)
	}
	return response.Success(c, "Users retrieved successfully", pagination.NewPage(result.Users, params, result.Total))
}

// GetUser handles getting a user by ID
// @Summary Get user by ID
// @Tags Users
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Success 200 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /users/{id} [get]
func (h *UserHandler) GetUser(c *fiber.Ctx) error {
	id, ok := paramUint(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid user ID")
	}

	user, err := h.userService.GetByID(c.UserContext(), principal(c), id)
	if err != nil {
		return fail(c, err)
	}
	return response.Success(c, "User retrieved successfully", user)
}

// DeleteUser handles deleting a user (admin only)
// @Summary Delete user
// @Tags Users
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /users/{id} [delete]
func (h *UserHandler) DeleteUser(c *fiber.Ctx) error {
	id, ok := paramUint(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid user ID")
	}

	if err := h.userService.Delete(c.UserContext(), principal(c), id); err != nil {
		return fail(c, err)
	}
	return response.Success(c, "User deleted successfully", nil)
}
