package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/bbn-nutrition/storefront/internal/events"
	"github.com/bbn-nutrition/storefront/internal/models"
	"github.com/bbn-nutrition/storefront/internal/repo"
	"github.com/bbn-nutrition/storefront/internal/transport"
)

type UserService struct {
	Repo   *repo.GormRepo
	Events events.Publisher
}

func notFound(err error, what string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: %s", ErrNotFound, what)
	}
	return err
}

func (s *UserService) Profile(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user, err := s.Repo.GetUserByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "user")
	}
	return user, nil
}

func (s *UserService) UpdateProfile(ctx context.Context, id uuid.UUID, req transport.UpdateProfileRequest) (*models.User, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrValidation)
	}
	user, err := s.Repo.UpdateUserFields(ctx, id, map[string]any{"name": name})
	if err != nil {
		return nil, notFound(err, "user")
	}
	return user, nil
}

func (s *UserService) AddAddress(ctx context.Context, userID uuid.UUID, req transport.AddressRequest) (*models.Address, error) {
	addr := &models.Address{
		UserID: userID,
		Label:  strings.TrimSpace(req.Label),
		PostalAddress: models.PostalAddress{
			FullName:   strings.TrimSpace(req.FullName),
			Phone:      strings.TrimSpace(req.Phone),
			Street:     strings.TrimSpace(req.Street),
			City:       strings.TrimSpace(req.City),
			State:      strings.TrimSpace(req.State),
			PostalCode: strings.TrimSpace(req.PostalCode),
			Country:    strings.TrimSpace(req.Country),
		},
		IsDefault: req.IsDefault,
	}
	if err := s.Repo.AddAddress(ctx, addr); err != nil {
		return nil, err
	}
	return addr, nil
}

func (s *UserService) DeleteAddress(ctx context.Context, userID, addrID uuid.UUID) error {
	return notFound(s.Repo.DeleteAddress(ctx, userID, addrID), "address")
}

func (s *UserService) List(ctx context.Context, offset, limit int) (int64, []models.User, error) {
	return s.Repo.ListUsers(ctx, offset, limit)
}

// AdminUpdate changes role and verification flags. An admin cannot demote
// themselves.
func (s *UserService) AdminUpdate(ctx context.Context, actorID, id uuid.UUID, req transport.AdminUserPatch) (*models.User, error) {
	fields := map[string]any{}
	if req.Role != nil {
		role := strings.ToLower(strings.TrimSpace(*req.Role))
		if role != models.RoleAdmin && role != models.RoleUser {
			return nil, fmt.Errorf("%w: role must be admin or user", ErrValidation)
		}
		if actorID == id && role != models.RoleAdmin {
			return nil, fmt.Errorf("%w: cannot remove your own admin role", ErrForbidden)
		}
		fields["role"] = role
	}
	if req.EmailVerified != nil {
		fields["email_verified"] = *req.EmailVerified
	}
	if len(fields) == 0 {
		return nil, fmt.Errorf("%w: nothing to update", ErrValidation)
	}

	user, err := s.Repo.UpdateUserFields(ctx, id, fields)
	if err != nil {
		return nil, notFound(err, "user")
	}
	publish(ctx, s.Events, events.TopicUsers, id.String(), "user_updated", fields)
	return user, nil
}

func (s *UserService) Delete(ctx context.Context, actorID, id uuid.UUID) error {
	if actorID == id {
		return fmt.Errorf("%w: cannot delete your own account", ErrForbidden)
	}
	if err := s.Repo.DeleteUser(ctx, id); err != nil {
		return notFound(err, "user")
	}
	publish(ctx, s.Events, events.TopicUsers, id.String(), "user_deleted", map[string]any{"id": id})
	return nil
}
