package maintenance

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/bbn-nutrition/storefront/internal/hash"
	"github.com/bbn-nutrition/storefront/internal/models"
	"github.com/bbn-nutrition/storefront/internal/repo"
)

type AdminReport struct {
	UserID  uuid.UUID
	Created bool
}

// FixAdmin makes sure an admin account with the given credentials exists.
// An existing account is promoted, verified and gets the new password.
func FixAdmin(ctx context.Context, r *repo.GormRepo, email, password, name string, l *slog.Logger) (*AdminReport, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, fmt.Errorf("email is required")
	}
	if len(password) < 6 {
		return nil, fmt.Errorf("password must be at least 6 characters")
	}
	pw, err := hash.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u, err := r.FindUserByEmail(ctx, email)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		if name == "" {
			name = "Administrator"
		}
		u = &models.User{
			Name:          name,
			Email:         email,
			PasswordHash:  pw,
			Role:          models.RoleAdmin,
			EmailVerified: true,
		}
		if err := r.CreateUserIfNotExists(ctx, u); err != nil {
			return nil, fmt.Errorf("create admin: %w", err)
		}
		l.Info("admin_created", "email", email, "user_id", u.ID)
		return &AdminReport{UserID: u.ID, Created: true}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find admin: %w", err)
	}

	fields := map[string]any{
		"password_hash":  pw,
		"role":           models.RoleAdmin,
		"email_verified": true,
	}
	if name != "" {
		fields["name"] = name
	}
	u, err = r.UpdateUserFields(ctx, u.ID, fields)
	if err != nil {
		return nil, fmt.Errorf("update admin: %w", err)
	}
	l.Info("admin_updated", "email", email, "user_id", u.ID)
	return &AdminReport{UserID: u.ID}, nil
}
