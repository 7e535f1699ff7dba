package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"bilet-lending/internal/core/domain"
	"bilet-lending/internal/pkg/jwt"
	"bilet-lending/internal/pkg/password"
)

// AuthService handles authentication business logic
type AuthService struct {
	userRepo      UserRepository
	tokenRepo     RefreshTokenRepository
	now           Clock
	secret        string
	refreshSecret string
	expiryMins    int
	refreshDays   int
}

// NewAuthService creates a new auth service. An empty refresh secret is
// derived from the access secret; the two must differ so neither token
// passes for the other.
func NewAuthService(userRepo UserRepository, tokenRepo RefreshTokenRepository, now Clock, secret, refreshSecret string, expiryMins, refreshDays int) *AuthService {
	if now == nil {
		now = time.Now
	}
	if expiryMins <= 0 {
		expiryMins = 60
	}
	if refreshDays <= 0 {
		refreshDays = 30
	}
	if refreshSecret == "" || refreshSecret == secret {
		refreshSecret = secret + ":refresh"
	}
	return &AuthService{
		userRepo:      userRepo,
		tokenRepo:     tokenRepo,
		now:           now,
		secret:        secret,
		refreshSecret: refreshSecret,
		expiryMins:    expiryMins,
		refreshDays:   refreshDays,
	}
}

// LoginInput represents login input
type LoginInput struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// AuthResponse represents authentication response
type AuthResponse struct {
	User         *domain.User `json:"user"`
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
}

// RefreshTTL is how long a refresh token lives
func (s *AuthService) RefreshTTL() time.Duration {
	return time.Duration(s.refreshDays) * 24 * time.Hour
}

// Login checks credentials and issues a token pair. role restricts the
// login to one portal (reader, library, admin); empty accepts any role.
func (s *AuthService) Login(ctx context.Context, input LoginInput, role domain.Role) (*AuthResponse, error) {
	user, err := s.userRepo.GetUserByUsername(ctx, input.Username)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}
	if !password.Verify(input.Password, user.PasswordHash) {
		return nil, domain.ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, domain.ErrUserInactive
	}
	if role != "" && user.Role != role {
		return nil, domain.ErrInvalidCredentials
	}

	return s.issue(ctx, user)
}

// Refresh exchanges a refresh token for a new pair. The presented token is
// revoked (rotation). Presenting a token that was already rotated revokes
// every token of its user, since one of the two holders is not the user.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*AuthResponse, error) {
	claims, err := jwt.ValidateRefreshToken(refreshToken, s.refreshSecret)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, domain.ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrUnauthorized, err)
	}

	stored, err := s.tokenRepo.GetRefreshTokenByHash(ctx, password.HashToken(refreshToken))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("%w: unknown refresh token", domain.ErrUnauthorized)
		}
		return nil, err
	}
	if stored.UserID != claims.UserID {
		return nil, fmt.Errorf("%w: unknown refresh token", domain.ErrUnauthorized)
	}

	now := s.now()
	if stored.IsRevoked() {
		if err := s.tokenRepo.RevokeUserRefreshTokens(ctx, stored.UserID, now); err != nil {
			return nil, err
		}
		log.Printf("⚠️ Refresh token reuse for user %d, all sessions revoked", stored.UserID)
		return nil, domain.ErrTokenRevoked
	}
	if stored.IsExpired(now) {
		return nil, domain.ErrTokenExpired
	}

	user, err := s.userRepo.GetUserByID(ctx, stored.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("%w: user no longer exists", domain.ErrUnauthorized)
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, domain.ErrUserInactive
	}

	if err := s.tokenRepo.RevokeRefreshToken(ctx, stored.ID, now); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			// Lost the rotation to a concurrent refresh with the same token
			return nil, domain.ErrTokenRevoked
		}
		return nil, err
	}

	return s.issue(ctx, user)
}

// Logout revokes one refresh token. Unknown or already revoked tokens are
// not an error.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	stored, err := s.tokenRepo.GetRefreshTokenByHash(ctx, password.HashToken(refreshToken))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil
		}
		return err
	}
	if err := s.tokenRepo.RevokeRefreshToken(ctx, stored.ID, s.now()); err != nil && !errors.Is(err, domain.ErrNotFound) {
		return err
	}
	return nil
}

// LogoutAll revokes every refresh token of the user
func (s *AuthService) LogoutAll(ctx context.Context, userID uint) error {
	if err := s.tokenRepo.RevokeUserRefreshTokens(ctx, userID, s.now()); err != nil {
		return err
	}
	log.Printf("🔒 All sessions revoked for user %d", userID)
	return nil
}

// CleanupExpiredTokens deletes refresh tokens past their expiry
func (s *AuthService) CleanupExpiredTokens(ctx context.Context) (int64, error) {
	return s.tokenRepo.DeleteExpiredRefreshTokens(ctx, s.now())
}

// Principal validates an access token and returns the caller it names
func (s *AuthService) Principal(token string) (domain.Principal, error) {
	claims, err := jwt.ValidateAccessToken(token, s.secret)
	if err != nil {
		return domain.Principal{}, err
	}
	return domain.Principal{UserID: claims.UserID, Role: domain.Role(claims.Role)}, nil
}

// issue signs a token pair and stores the refresh token's hash
func (s *AuthService) issue(ctx context.Context, user *domain.User) (*AuthResponse, error) {
	access, err := jwt.GenerateAccessToken(user.ID, user.Username, string(user.Role), s.secret, s.expiryMins)
	if err != nil {
		return nil, err
	}
	refresh, err := jwt.GenerateRefreshToken(user.ID, s.refreshSecret, s.refreshDays)
	if err != nil {
		return nil, err
	}

	now := s.now()
	if err := s.tokenRepo.CreateRefreshToken(ctx, &domain.RefreshToken{
		UserID:    user.ID,
		TokenHash: password.HashToken(refresh),
		ExpiresAt: now.Add(s.RefreshTTL()),
		CreatedAt: now,
	}); err != nil {
		return nil, err
	}

	return &AuthResponse{User: user, AccessToken: access, RefreshToken: refresh}, nil
}
