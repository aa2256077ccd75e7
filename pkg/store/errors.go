package store

import "errors"

var (
	// ErrStoreClosed is returned when an operation is attempted after Close.
	ErrStoreClosed = errors.New("store is closed")

	// ErrInvalidAlignment is returned when a read is attempted at an offset
	// that is not a block multiple. Offsets are produced exclusively by
	// Append, so a misaligned offset means the index handed us a corrupt
	// location. It is an engine bug, never a user error, and is reported
	// rather than silently rounded.
	ErrInvalidAlignment = errors.New("offset is not block-aligned")
)
