package repo

import (
	"errors"

	"gorm.io/gorm"
)

var (
	ErrUserAlreadyExist  = errors.New("user already exist")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrTokenRevoked      = errors.New("token expired or revoked")
)

type GormRepo struct {
	DB *gorm.DB
}

func New(db *gorm.DB) *GormRepo {
	return &GormRepo{DB: db}
}
