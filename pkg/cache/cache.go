// Package cache stores opaque byte entries for sessions, datasets and
// rendered artifacts.
//
// # Backends
//
//   - [FileCache]: one JSON file per entry under a directory, for the CLI
//   - [RedisCache]: a Redis server, for servers sharing state
//   - [NullCache]: stores nothing, for tests or disabled caching
//
// Every backend also implements [Index], a named set of members stored
// next to the entries. The session store uses it to list sessions without
// scanning keys.
//
// # Keys
//
// Keys are built by a [Keyer] so that backends never see ad-hoc strings.
// The segment before the payload is the key type reported to
// [observability.CacheHooks] by [Instrument].
//
// # Errors
//
// Backend failures that may go away on their own, such as a dropped Redis
// connection, are wrapped with [Retryable] and retried by
// [RetryWithBackoff]. A miss is not an error: Get reports it through its
// boolean result.
//
// [observability.CacheHooks]: github.com/matzehuels/graphreveal/pkg/observability.CacheHooks
package cache

import (
	"context"
	"strings"
	"time"
)

// Cache is a byte store with optional expiration. A ttl of zero or less
// keeps the entry until it is deleted.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Index is a named set of string members.
type Index interface {
	AddMember(ctx context.Context, index, member string) error
	RemoveMember(ctx context.Context, index, member string) error
	// Members returns the members in no particular order.
	Members(ctx context.Context, index string) ([]string, error)
}

// IndexedCache is a cache that also keeps indexes.
type IndexedCache interface {
	Cache
	Index
}

// =============================================================================
// Keys
// =============================================================================

// Keyer builds cache keys.
type Keyer interface {
	// SessionKey is the entry holding a persisted session.
	SessionKey(id string) string
	// SessionIndex names the index listing session ids.
	SessionIndex() string
	// DatasetKey is the entry holding an imported dataset.
	DatasetKey(fingerprint string) string
	// RenderKey is the entry holding a rendered view of a dataset.
	RenderKey(fingerprint string, opts RenderKeyOpts) string
}

// RenderKeyOpts are the render inputs that change the output.
type RenderKeyOpts struct {
	// StateHash identifies the visibility state being drawn.
	StateHash string `json:"state"`
	// Format is the output format, "svg" or "dot".
	Format string `json:"format"`
	// Preview is "node:mode" when a preview overlay is drawn.
	Preview string `json:"preview,omitempty"`
}

// DefaultKeyer is the standard key layout.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the standard keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

func (DefaultKeyer) SessionKey(id string) string { return "session:" + id }

func (DefaultKeyer) SessionIndex() string { return "index:sessions" }

func (DefaultKeyer) DatasetKey(fingerprint string) string { return "dataset:" + fingerprint }

func (DefaultKeyer) RenderKey(fingerprint string, opts RenderKeyOpts) string {
	return hashKey("render", fingerprint, opts)
}

// KeyType returns the segment before the last colon of key, or "other".
// Scope prefixes added by [ScopedKeyer] come first and are skipped.
func KeyType(key string) string {
	parts := strings.Split(key, ":")
	if len(parts) < 2 {
		return "other"
	}
	return parts[len(parts)-2]
}
