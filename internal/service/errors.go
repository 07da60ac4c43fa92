package service

import "errors"

var (
	ErrValidation          = errors.New("validation")                // 400
	ErrInvalidCredentials  = errors.New("invalid credentials")       // 401
	ErrInvalidRefreshToken = errors.New("invalid refresh token")     // 401
	ErrForbidden           = errors.New("forbidden")                 // 403
	ErrNotFound            = errors.New("not found")                 // 404
	ErrConflict            = errors.New("conflict")                  // 409
	ErrInsufficientStock   = errors.New("insufficient stock")        // 409
	ErrInvalidTransition   = errors.New("invalid status transition") // 409
)
