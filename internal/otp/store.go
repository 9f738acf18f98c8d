package otp

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by Store.Get for missing or expired entries.
var ErrNotFound = errors.New("otp not found")

// Store keeps at most one active code per email.
type Store interface {
	// Put replaces any existing entry for email.
	Put(ctx context.Context, email, code string, ttl time.Duration) error
	// Get returns the stored code, or ErrNotFound when missing or expired.
	Get(ctx context.Context, email string) (string, error)
	// Delete removes the entry. Deleting an absent entry is not an error.
	Delete(ctx context.Context, email string) error
	// ConsumeIfMatch atomically compares the stored code with code and removes
	// the entry on match. It returns true only when the entry was consumed by
	// this call; a mismatch leaves the entry in place and returns false.
	// Missing or expired entries report ErrNotFound.
	ConsumeIfMatch(ctx context.Context, email, code string) (bool, error)
	// Exists reports whether a non-expired code is stored for email.
	Exists(ctx context.Context, email string) (bool, error)
}

// AttemptCounter is an optional Store capability used for rate limiting.
// Only the shared backend implements it; the service skips limiter logic
// when the capability is absent.
type AttemptCounter interface {
	// IncrAttempts increments the attempt counter for email, (re)applies the
	// window expiry, and returns the post-increment count.
	IncrAttempts(ctx context.Context, email string, window time.Duration) (int64, error)
}
