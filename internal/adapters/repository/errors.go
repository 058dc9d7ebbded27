package repository

import "errors"

// Sentinel kinds for store errors.
var (
	ErrNotFound      = errors.New("match not found")
	ErrAlreadyExists = errors.New("match already exists")
	ErrConflict      = errors.New("match changed concurrently, retries exhausted")
	ErrInvalidMatch  = errors.New("invalid match")
)
