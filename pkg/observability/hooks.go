// Package observability provides hooks for metrics, tracing, and logging.
//
// This package enables optional instrumentation without adding hard dependencies
// on specific observability backends. Consumers register hooks at startup
// to receive events about ingestion, delta computation, previews, commits,
// layout settling, and cache operations.
//
// # Architecture
//
// The package uses a simple hooks pattern:
//   - Define hook interfaces for different event categories
//   - Provide no-op default implementations
//   - Allow registration of custom implementations at startup
//
// Libraries never import a metrics backend; main wires one in. The
// Prometheus implementation lives in the prom subpackage.
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    h := prom.New(prometheus.NewRegistry())
//	    observability.SetEngineHooks(h)
//	    observability.SetCacheHooks(h)
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	observability.Engine().OnCommit(ctx, "children", shown, hidden, elapsed, err)
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Engine Hooks
// =============================================================================

// EngineHooks receives events from the disclosure engine.
type EngineHooks interface {
	// OnIngest records a dataset load and how many entities were dropped.
	OnIngest(ctx context.Context, nodes, edges, dropped int)

	// OnDeltaComputed records a delta computation.
	OnDeltaComputed(ctx context.Context, mode, direction string, size int, duration time.Duration)

	// OnPreview records a preview being shown.
	OnPreview(ctx context.Context, mode string, ghosts int)

	// OnCommit records a committed change.
	OnCommit(ctx context.Context, mode string, shown, hidden int, duration time.Duration, err error)

	// OnSettleStart records a settle request; superseded is true when it
	// cancelled a pending one.
	OnSettleStart(ctx context.Context, newNodes int, superseded bool)

	// OnSettleComplete records the release at the end of a settle.
	OnSettleComplete(ctx context.Context, duration time.Duration)
}

// =============================================================================
// Cache Hooks
// =============================================================================

// CacheHooks receives events from cache operations.
type CacheHooks interface {
	// OnCacheHit records a cache hit.
	OnCacheHit(ctx context.Context, keyType string)

	// OnCacheMiss records a cache miss.
	OnCacheMiss(ctx context.Context, keyType string)

	// OnCacheSet records a cache write.
	OnCacheSet(ctx context.Context, keyType string, size int)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopEngineHooks is a no-op implementation of EngineHooks.
type NoopEngineHooks struct{}

func (NoopEngineHooks) OnIngest(context.Context, int, int, int)                           {}
func (NoopEngineHooks) OnDeltaComputed(context.Context, string, string, int, time.Duration) {}
func (NoopEngineHooks) OnPreview(context.Context, string, int)                            {}
func (NoopEngineHooks) OnCommit(context.Context, string, int, int, time.Duration, error)  {}
func (NoopEngineHooks) OnSettleStart(context.Context, int, bool)                          {}
func (NoopEngineHooks) OnSettleComplete(context.Context, time.Duration)                   {}

// NoopCacheHooks is a no-op implementation of CacheHooks.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	engineHooks EngineHooks = NoopEngineHooks{}
	cacheHooks  CacheHooks  = NoopCacheHooks{}
	hooksMu     sync.RWMutex
)

// SetEngineHooks registers custom engine hooks.
// This should be called once at application startup before any engine is built.
func SetEngineHooks(h EngineHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		engineHooks = h
	}
}

// SetCacheHooks registers custom cache hooks.
// This should be called once at application startup before any cache operations.
func SetCacheHooks(h CacheHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		cacheHooks = h
	}
}

// Engine returns the registered engine hooks.
func Engine() EngineHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return engineHooks
}

// Cache returns the registered cache hooks.
func Cache() CacheHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return cacheHooks
}

// Reset restores all hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	engineHooks = NoopEngineHooks{}
	cacheHooks = NoopCacheHooks{}
}
