package models

import "errors"

// Sentinel errors surfaced across repository and service boundaries.
var (
	ErrUserNotFound  = errors.New("user not found")
	ErrBadgeNotFound = errors.New("badge not found")
)
