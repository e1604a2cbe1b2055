package navigator

import "errors"

var (
	// ErrNoValidRecord indicates a full scan of the ID space found nothing to show.
	ErrNoValidRecord = errors.New("no valid record found")
	// ErrNoMatch indicates no record carries the searched name.
	ErrNoMatch = errors.New("no character matches name")
	// ErrInvalidInput indicates invalid navigation input.
	ErrInvalidInput = errors.New("invalid navigation input")
)
