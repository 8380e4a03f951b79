package user

import "errors"

var (
	ErrInvalidEmail     = errors.New("Invalid email format")
	ErrInvalidPassword  = errors.New("Invalid password format")
	ErrMissingFullname  = errors.New("Full name is required and must be a non-empty string")
	ErrInvalidFullname  = errors.New("Full name contains invalid characters (only letters, spaces, hyphens, and apostrophes allowed)")
	ErrEmailRegistered  = errors.New("Email already registered")
	ErrUserNotFound     = errors.New("User not found")
	ErrInvalidUserID    = errors.New("Invalid user ID format (must be a valid UUID)")
	ErrInvalidRole      = errors.New("Invalid role")
	ErrCannotChangeSelf = errors.New("Administrators cannot change their own role")
)
