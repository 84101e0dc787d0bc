// Package metadata stores small key/value settings in the local database.
package metadata

import (
	"context"
)

// Repository is a key/value store for client metadata.
//
// Get reports found=false (and a nil error) for absent keys. Set upserts.
// Delete of an absent key is not an error.
type Repository interface {
	Get(ctx context.Context, key string) (value []byte, found bool, err error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, keys ...string) error
}
