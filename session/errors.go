package session

import "errors"

var (
	// ErrUnavailable wraps every backend failure returned by a store.
	ErrUnavailable = errors.New("session store unavailable")
	// ErrNotFound is returned by Lookup when no live record exists for a token id.
	ErrNotFound = errors.New("refresh record not found")
	// ErrInvalidRecord is returned for records that cannot be persisted.
	ErrInvalidRecord = errors.New("invalid refresh record")
	// ErrCorrupt is returned when a stored blob cannot be decoded.
	ErrCorrupt = errors.New("refresh record corrupt")
)
