package domain

import (
	"errors"
)

// Sentinel errors used across all layers.
var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
	ErrValidation    = errors.New("validation error")

	// ErrEmptyEntry is reported for entries with no markup to parse.
	ErrEmptyEntry = errors.New("empty entry")
	// ErrMalformedSource is returned when an export file cannot be split into entries.
	ErrMalformedSource = errors.New("malformed source")
	// ErrLinkLoop is returned when redirect entries point at each other.
	ErrLinkLoop = errors.New("link loop")
)
