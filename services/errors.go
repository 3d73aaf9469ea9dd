package services

import "errors"

// Common errors
var (
	ErrNotFound           = errors.New("resource not found")
	ErrUserNotFound       = errors.New("user not found")
	ErrEventNotFound      = errors.New("event not found")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidInput       = errors.New("invalid input")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid token")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrAlreadyFollowing   = errors.New("already following this event")
	ErrNotFollowing       = errors.New("not following this event")
	ErrStoreConflict      = errors.New("concurrent update conflict")
)
