package handlers

import (
	"time"

	"bilet-lending/internal/core/domain"
	"bilet-lending/internal/core/services"
	"bilet-lending/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// AuthHandler handles authentication endpoints
type AuthHandler struct {
	authService  *services.AuthService
	userService  *services.UserService
	secureCookie bool
	tokenTTL     time.Duration
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *services.AuthService, userService *services.UserService, secureCookie bool, tokenTTL time.Duration) *AuthHandler {
	return &AuthHandler{
		authService:  authService,
		userService:  userService,
		secureCookie: secureCookie,
		tokenTTL:     tokenTTL,
	}
}

// ReaderLogin handles reader portal login (username is the contract number)
// @Summary Reader login
// @Description Authenticate a reader and return an access and refresh token
// @Tags Auth
// @Accept json
// @Produce json
// @Param body body services.LoginInput true "Login credentials"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 401 {object} response.Response
// @Router /auth/reader/login [post]
func (h *AuthHandler) ReaderLogin(c *fiber.Ctx) error {
	return h.login(c, domain.RoleReader)
}

// LibraryLogin handles library staff login
// @Summary Library staff login
// @Description Authenticate a library staff member and return an access token
// @Tags Auth
// @Accept json
// @Produce json
// @Param body body services.LoginInput true "Login credentials"
// @Success 200 {object} response.Response
// @Failure 401 {object} response.Response
// @Router /auth/library/login [post]
func (h *AuthHandler) LibraryLogin(c *fiber.Ctx) error {
	return h.login(c, domain.RoleLibrary)
}

// AdminLogin handles admin login
// @Summary Admin login
// @Description Authenticate an administrator and return an access token
// @Tags Auth
// @Accept json
// @Produce json
// @Param body body services.LoginInput true "Login credentials"
// @Success 200 {object} response.Response
// @Failure 401 {object} response.Response
// @Router /auth/admin/login [post]
func (h *AuthHandler) AdminLogin(c *fiber.Ctx) error {
	return h.login(c, domain.RoleAdmin)
}

func (h *AuthHandler) login(c *fiber.Ctx, role domain.Role) error {
	var req services.LoginInput
	if err := bind(c, &req); err != nil {
		return fail(c, err)
	}

	result, err := h.authService.Login(c.UserContext(), req, role)
	if err != nil {
		return fail(c, err)
	}

	h.setAuthCookies(c, result.AccessToken, result.RefreshToken)
	return response.Success(c, "Login successful", result)
}

// RefreshRequest carries a refresh token for clients that do not keep cookies
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// Refresh rotates the refresh token and issues a new access token
// @Summary Refresh access token
// @Description Exchange a refresh token (cookie or body) for a new token pair. The old refresh token stops working.
// @Tags Auth
// @Accept json
// @Produce json
// @Param body body RefreshRequest false "Refresh token, when not sent as a cookie"
// @Success 200 {object} response.Response
// @Failure 401 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /auth/refresh [post]
func (h *AuthHandler) Refresh(c *fiber.Ctx) error {
	token := refreshTokenFrom(c)
	if token == "" {
		return response.Unauthorized(c, "Refresh token not found")
	}

	result, err := h.authService.Refresh(c.UserContext(), token)
	if err != nil {
		h.clearAuthCookies(c)
		return fail(c, err)
	}

	h.setAuthCookies(c, result.AccessToken, result.RefreshToken)
	return response.Success(c, "Token refreshed successfully", result)
}

// Logout revokes the refresh token and clears the auth cookies
// @Summary Logout
// @Description Revoke the presented refresh token (cookie or body) and clear cookies
// @Tags Auth
// @Accept json
// @Produce json
// @Param body body RefreshRequest false "Refresh token, when not sent as a cookie"
// @Success 200 {object} response.Response
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	if token := refreshTokenFrom(c); token != "" {
		if err := h.authService.Logout(c.UserContext(), token); err != nil {
			return fail(c, err)
		}
	}

	h.clearAuthCookies(c)
	return response.Success(c, "Logged out", nil)
}

// LogoutAll revokes every refresh token of the caller
// @Summary Logout from all devices
// @Tags Auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Failure 401 {object} response.Response
// @Router /auth/logout-all [post]
func (h *AuthHandler) LogoutAll(c *fiber.Ctx) error {
	if err := h.authService.LogoutAll(c.UserContext(), principal(c).UserID); err != nil {
		return fail(c, err)
	}

	h.clearAuthCookies(c)
	return response.Success(c, "Logged out from all devices", nil)
}

// Me returns the authenticated user
// @Summary Current user
// @Tags Auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Failure 401 {object} response.Response
// @Router /auth/me [get]
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	p := principal(c)
	user, err := h.userService.GetByID(c.UserContext(), p, p.UserID)
	if err != nil {
		return fail(c, err)
	}
	return response.Success(c, "User retrieved successfully", user)
}

func (h *AuthHandler) setAuthCookies(c *fiber.Ctx, accessToken, refreshToken string) {
	now := time.Now()
	c.Cookie(h.cookie("access_token", accessToken, now.Add(h.tokenTTL)))
	c.Cookie(h.cookie("refresh_token", refreshToken, now.Add(h.authService.RefreshTTL())))
}

func (h *AuthHandler) clearAuthCookies(c *fiber.Ctx) {
	c.Cookie(h.cookie("access_token", "", time.Unix(0, 0)))
	c.Cookie(h.cookie("refresh_token", "", time.Unix(0, 0)))
}

func (h *AuthHandler) cookie(name, value string, expires time.Time) *fiber.Cookie {
	return &fiber.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Expires:  expires,
		HTTPOnly: true,
		Secure:   h.secureCookie,
		SameSite: "Lax",
	}
}

// refreshTokenFrom reads the refresh token from its cookie, then the body
func refreshTokenFrom(c *fiber.Ctx) string {
	if token := c.Cookies("refresh_token"); token != "" {
		return token
	}
	if len(c.Body()) == 0 {
		return ""
	}
	var req RefreshRequest
	if err := c.BodyParser(&req); err != nil {
		return ""
	}
	return req.RefreshToken
}
