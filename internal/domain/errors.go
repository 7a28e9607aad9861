package domain

import "errors"

var (
	// ErrNotFound indicates the requested entity was not found.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists indicates a uniqueness constraint was hit.
	ErrAlreadyExists = errors.New("already exists")
	// ErrUnauthorized indicates the caller has no valid credentials for the resource.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrInvalidInput wraps validation failures that map to a 400.
	ErrInvalidInput = errors.New("invalid input")
)
