package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

type User struct {
	ID            uuid.UUID `gorm:"primaryKey"                json:"id"`
	Name          string    `gorm:"not null"                  json:"name"`
	Email         string    `gorm:"uniqueIndex;not null"      json:"email"`
	PasswordHash  string    `gorm:"not null"                  json:"-"`
	Role          string    `gorm:"not null;default:user"     json:"role"`
	EmailVerified bool      `gorm:"not null;default:false"    json:"emailVerified"`
	Addresses     []Address `gorm:"foreignKey:UserID"         json:"addresses"`
	CreatedAt     time.Time `                                 json:"createdAt"`
	UpdatedAt     time.Time `                                 json:"updatedAt"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

func (u *User) IsAdmin() bool { return u.Role == RoleAdmin }

// PostalAddress is shared by saved user addresses and order shipping
// addresses.
type PostalAddress struct {
	FullName   string `json:"fullName"   validate:"required"`
	Phone      string `json:"phone"      validate:"required"`
	Street     string `json:"street"     validate:"required"`
	City       string `json:"city"       validate:"required"`
	State      string `json:"state"`
	PostalCode string `json:"postalCode"`
	Country    string `json:"country"    validate:"required"`
}

type Address struct {
	ID            uuid.UUID `gorm:"primaryKey"        json:"id"`
	UserID        uuid.UUID `gorm:"index;not null"    json:"-"`
	Label         string    `                         json:"label"`
	PostalAddress `gorm:"embedded"`
	IsDefault     bool      `gorm:"not null;default:false" json:"isDefault"`
}

func (a *Address) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

type RefreshToken struct {
	ID        uint      `gorm:"primaryKey"           json:"id"`
	TokenHash string    `gorm:"uniqueIndex;not null" json:"-"`
	JTI       string    `gorm:"uniqueIndex;not null" json:"jti"`
	UserID    uuid.UUID `gorm:"index;not null"       json:"userId"`
	Role      string    `gorm:"not null"             json:"role"`
	ExpiresAt int64     `gorm:"not null"             json:"expiresAt"`
	Revoked   bool      `gorm:"not null;default:false" json:"revoked"`
	CreatedAt time.Time `                            json:"createdAt"`
}
