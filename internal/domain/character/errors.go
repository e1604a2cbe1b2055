package character

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates the dataset has no record for the identifier.
	ErrNotFound = errors.New("character not found")
	// ErrTransport indicates the dataset could not be reached or answered with a server error.
	ErrTransport = errors.New("dataset unavailable")
	// ErrParse indicates the dataset answered with a body that is not a record.
	ErrParse = errors.New("malformed character record")
)

// Kind tags the reason a fetch failed.
type Kind string

const (
	KindNotFound  Kind = "not_found"
	KindTransport Kind = "transport"
	KindParse     Kind = "parse"
)

// FetchError describes a failed fetch against the dataset.
type FetchError struct {
	Kind Kind
	// ID is zero when the whole collection was requested.
	ID  int
	Err error
}

func (e *FetchError) Error() string {
	target := "collection"
	if e.ID != 0 {
		target = fmt.Sprintf("id %d", e.ID)
	}
	if e.Err == nil {
		return fmt.Sprintf("fetch %s: %s", target, e.Kind)
	}
	return fmt.Sprintf("fetch %s: %s: %v", target, e.Kind, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Is matches the sentinel that corresponds to the error kind.
func (e *FetchError) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.Kind == KindNotFound
	case ErrTransport:
		return e.Kind == KindTransport
	case ErrParse:
		return e.Kind == KindParse
	}
	return false
}

// IsAbsent reports whether err means the record cannot be shown but the
// dataset itself is healthy.
func IsAbsent(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, ErrParse)
}
