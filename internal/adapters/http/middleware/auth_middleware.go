package middleware

import (
	"errors"
	"strings"

	"bilet-lending/internal/core/domain"
	"bilet-lending/internal/pkg/jwt"
	"bilet-lending/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

const principalKey = "principal"

// TokenVerifier turns an access token into the caller it names
type TokenVerifier interface {
	Principal(token string) (domain.Principal, error)
}

// AuthMiddleware creates authentication middleware
func AuthMiddleware(verifier TokenVerifier) fiber.Handler {
	return func(c *fiber.Ctx) error {
		accessToken := extractToken(c)
		if accessToken == "" {
			return response.Unauthorized(c, "Access token required")
		}

		p, err := verifier.Principal(accessToken)
		if err != nil {
			if errors.Is(err, jwt.ErrTokenExpired) {
				return response.Unauthorized(c, "Access token expired")
			}
			return response.Unauthorized(c, "Invalid access token")
		}

		c.Locals(principalKey, p)
		c.Locals("userID", p.UserID)
		c.Locals("role", string(p.Role))

		return c.Next()
	}
}

// extractToken reads the access token from the cookie, then the Authorization header
func extractToken(c *fiber.Ctx) string {
	if token := c.Cookies("access_token"); token != "" {
		return token
	}
	authHeader := c.Get("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}
	return ""
}

// GetPrincipal returns the authenticated caller, or the zero Principal
func GetPrincipal(c *fiber.Ctx) domain.Principal {
	p, _ := c.Locals(principalKey).(domain.Principal)
	return p
}

// RoleMiddleware rejects callers whose role is not in allowedRoles.
// Services check capabilities again; this only short-circuits the request.
func RoleMiddleware(allowedRoles ...domain.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p := GetPrincipal(c)
		if p.UserID == 0 {
			return response.Unauthorized(c, "Unauthorized")
		}
		for _, role := range allowedRoles {
			if p.Role == role {
				return c.Next()
			}
		}
		return response.Forbidden(c, "You don't have permission to access this resource")
	}
}

// AdminOnly middleware allows only the admin role
func AdminOnly() fiber.Handler {
	return RoleMiddleware(domain.CapAdmin...)
}

// StaffOnly middleware allows library staff and admins
func StaffOnly() fiber.Handler {
	return RoleMiddleware(domain.CapStaff...)
}
