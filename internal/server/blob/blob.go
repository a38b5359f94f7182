// Package blob abstracts the object store holding uploaded file bytes.
// The rest of the server only ever holds keys and URLs, never the content.
package blob

import (
	"context"
	"time"
)

// Store is the outbound interface to object storage.
type Store interface {
	// Put uploads the payload under key and returns the canonical object URL.
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)

	// PresignGet returns a time-limited download URL for an existing object.
	PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error)
}
