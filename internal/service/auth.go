package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/bbn-nutrition/storefront/internal/events"
	"github.com/bbn-nutrition/storefront/internal/hash"
	"github.com/bbn-nutrition/storefront/internal/logging"
	"github.com/bbn-nutrition/storefront/internal/models"
	"github.com/bbn-nutrition/storefront/internal/repo"
	"github.com/bbn-nutrition/storefront/internal/tokens"
	"github.com/bbn-nutrition/storefront/internal/transport"
)

// Mock bearer tokens accepted in development setups.
const (
	MockAdminToken = "mock-admin-token"
	MockUserToken  = "mock-user-token"
)

type AuthService struct {
	Repo   *repo.GormRepo
	Issuer *tokens.Issuer
	Events events.Publisher
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *AuthService) Register(ctx context.Context, req transport.RegisterRequest) (*models.User, error) {
	l := logging.FromContext(ctx).With("svc", "auth.register")

	name := strings.TrimSpace(req.Name)
	email := NormalizeEmail(req.Email)
	if name == "" || email == "" || req.Password == "" {
		return nil, fmt.Errorf("%w: name, email and password are required", ErrValidation)
	}

	pwHash, err := hash.HashPassword(req.Password)
	if err != nil {
		l.Error("register_error", "status", 500, "reason", "cannot hash the password", "error", err)
		return nil, err
	}

	user := &models.User{
		Name:         name,
		Email:        email,
		PasswordHash: pwHash,
		Role:         models.RoleUser,
	}
	if err := s.Repo.CreateUserIfNotExists(ctx, user); err != nil {
		if errors.Is(err, repo.ErrUserAlreadyExist) {
			return nil, fmt.Errorf("%w: email already registered", ErrConflict)
		}
		l.Error("register_error", "status", 500, "error", err)
		return nil, err
	}

	publish(ctx, s.Events, events.TopicUsers, user.ID.String(), "user_registered", map[string]any{
		"id":    user.ID,
		"email": user.Email,
	})
	return user, nil
}

func (s *AuthService) Login(ctx context.Context, req transport.LoginRequest) (*transport.LoginResult, error) {
	email := NormalizeEmail(req.Email)
	l := logging.FromContext(ctx).With("svc", "auth.login", "email", email)

	user, err := s.Repo.FindUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		l.Error("login_error", "status", 500, "error", err)
		return nil, err
	}
	if !hash.CheckPassword(user.PasswordHash, req.Password) {
		return nil, ErrInvalidCredentials
	}

	if hash.NeedsRehash(user.PasswordHash) {
		if pw, err := hash.HashPassword(req.Password); err == nil {
			if _, err := s.Repo.UpdateUserFields(ctx, user.ID, map[string]any{"password_hash": pw}); err != nil {
				l.Warn("rehash_error", "error", err)
			}
		}
	}

	return s.issue(ctx, user)
}

func (s *AuthService) issue(ctx context.Context, user *models.User) (*transport.LoginResult, error) {
	pair, err := s.Issuer.IssuePair(user.ID.String(), user.Role)
	if err != nil {
		return nil, err
	}
	if err := s.Repo.AddRefresh(ctx, refreshModel(user, pair)); err != nil {
		return nil, err
	}
	return loginResult(user, pair), nil
}

func refreshModel(user *models.User, pair *tokens.Pair) *models.RefreshToken {
	return &models.RefreshToken{
		TokenHash: tokens.Sha256Hex(pair.RefreshToken),
		JTI:       pair.RefreshJTI,
		UserID:    user.ID,
		Role:      user.Role,
		ExpiresAt: pair.RefreshExp.Unix(),
	}
}

func loginResult(user *models.User, pair *tokens.Pair) *transport.LoginResult {
	return &transport.LoginResult{
		User:         user,
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		AccessExp:    pair.AccessExp,
		RefreshExp:   pair.RefreshExp,
		IsAdmin:      user.IsAdmin(),
	}
}

// Refresh validates rawRefresh, revokes it and issues a new pair. The role
// is re-read from the user record so promotions apply on the next refresh.
func (s *AuthService) Refresh(ctx context.Context, rawRefresh string) (*transport.LoginResult, error) {
	l := logging.FromContext(ctx).With("svc", "auth.refresh")

	if rawRefresh == "" {
		return nil, fmt.Errorf("%w: missing", ErrInvalidRefreshToken)
	}
	claims, err := tokens.RefreshClaimsFromToken(rawRefresh, s.Issuer.RefreshSecret)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRefreshToken, err)
	}

	stored, err := s.Repo.FindRefreshByJTI(ctx, claims.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: unknown token", ErrInvalidRefreshToken)
		}
		return nil, err
	}
	if stored.TokenHash != tokens.Sha256Hex(rawRefresh) {
		return nil, fmt.Errorf("%w: token mismatch", ErrInvalidRefreshToken)
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, fmt.Errorf("%w: bad subject", ErrInvalidRefreshToken)
	}
	user, err := s.Repo.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: user gone", ErrInvalidRefreshToken)
		}
		return nil, err
	}

	pair, err := s.Issuer.IssuePair(user.ID.String(), user.Role)
	if err != nil {
		return nil, err
	}
	if err := s.Repo.RotateRefreshToken(ctx, claims.ID, refreshModel(user, pair)); err != nil {
		if errors.Is(err, repo.ErrTokenRevoked) || errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: expired or revoked", ErrInvalidRefreshToken)
		}
		l.Error("refresh_error", "status", 500, "error", err)
		return nil, err
	}
	return loginResult(user, pair), nil
}

func (s *AuthService) Logout(ctx context.Context, rawRefresh string) error {
	if rawRefresh == "" {
		return nil
	}
	return s.Repo.RevokeRefresh(ctx, rawRefresh)
}

func (s *AuthService) Me(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user, err := s.Repo.GetUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return user, nil
}

// ResolveMockToken maps a development mock token to the oldest user holding
// the matching role.
func (s *AuthService) ResolveMockToken(ctx context.Context, token string) (*models.User, error) {
	var role string
	switch token {
	case MockAdminToken:
		role = models.RoleAdmin
	case MockUserToken:
		role = models.RoleUser
	default:
		return nil, ErrInvalidCredentials
	}
	user, err := s.Repo.FirstUserByRole(ctx, role)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: no %s account for mock token", ErrInvalidCredentials, role)
		}
		return nil, err
	}
	return user, nil
}
