// Package cache memoizes deterministic pipeline outputs.
//
// Rendering a move scope is a pure function of the dataset bytes and the
// render options, so artifacts can be stored under a key derived from both
// and reused across CLI runs or server requests. Scene state is never
// cached: only finished snapshots and encoded artifacts are.
//
// # Backends
//
//   - [FileCache]: one JSON envelope per key under a directory (CLI default)
//   - [RedisCache]: a shared Redis instance (server deployments)
//   - [NullCache]: caching disabled
//
// # Keys
//
// A [Keyer] derives keys from content hashes and options. [DefaultKeyer]
// hashes option structs with SHA-256; [ScopedKeyer] prefixes every key for
// namespace isolation.
package cache

import (
	"context"
	"time"
)

// Cache stores opaque byte values with an optional time-to-live.
type Cache interface {
	// Get returns the value for key and whether it was present.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A zero ttl never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// Default time-to-live per entry kind.
const (
	TTLSnapshot = 7 * 24 * time.Hour
	TTLArtifact = 7 * 24 * time.Hour
)

// Key kinds, as reported to cache hooks.
const (
	KindSnapshot = "snapshot"
	KindArtifact = "artifact"
)
