package transport

import (
	"time"

	"github.com/bbn-nutrition/storefront/internal/models"
)

type RegisterRequest struct {
	Name     string `json:"name"     validate:"required,max=100"`
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=6,max=72"`
}

type LoginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type LoginResult struct {
	User         *models.User
	AccessToken  string
	RefreshToken string
	AccessExp    time.Time
	RefreshExp   time.Time
	IsAdmin      bool
}

type AuthResponse struct {
	User         *models.User `json:"user"`
	Token        string       `json:"token"`
	RefreshToken string       `json:"refreshToken"`
	ExpiresAt    time.Time    `json:"expiresAt"`
}

type UpdateProfileRequest struct {
	Name string `json:"name" validate:"required,max=100"`
}

type AddressRequest struct {
	Label      string `json:"label"`
	FullName   string `json:"fullName"   validate:"required"`
	Phone      string `json:"phone"      validate:"required"`
	Street     string `json:"street"     validate:"required"`
	City       string `json:"city"       validate:"required"`
	State      string `json:"state"`
	PostalCode string `json:"postalCode"`
	Country    string `json:"country"    validate:"required"`
	IsDefault  bool   `json:"isDefault"`
}

type AdminUserPatch struct {
	Role          *string `json:"role"          validate:"omitempty,oneof=admin user"`
	EmailVerified *bool   `json:"emailVerified"`
}
