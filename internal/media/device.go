package media

import (
	"context"
	"errors"
)

var (
	// ErrNotAllowed means the user or policy refused access.
	ErrNotAllowed  = errors.New("media access not allowed")
	// ErrNotFound means no source satisfies the request.
	ErrNotFound    = errors.New("media source not found")
	// ErrNotReadable means the source exists but could not be opened.
	ErrNotReadable = errors.New("media source not readable")
)

// Device acquires local media.
type Device interface {
	GetUserMedia(ctx context.Context, c Constraints) (*Stream, error)
	GetDisplayMedia(ctx context.Context, c DisplayConstraints) (*Stream, error)
}
