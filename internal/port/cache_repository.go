package port

import "context"

type IdempotencyStore interface {
	// SetIdempotency claims a key, returns false if it is already taken
	SetIdempotency(ctx context.Context, key string) (bool, error)

	// ReleaseIdempotency frees a key so the request can be retried
	ReleaseIdempotency(ctx context.Context, key string) error
}
