// Package observability provides hooks for metrics, tracing, and logging.
//
// This package enables optional instrumentation without adding hard dependencies
// on specific observability backends. Consumers can register hooks at startup
// to receive events about extraction and rendering.
//
// # Architecture
//
// The package uses a simple hooks pattern:
//   - Define hook interfaces for different event categories
//   - Provide no-op default implementations
//   - Allow registration of custom implementations at startup
//
// This approach:
//   - Avoids import cycles (hooks are registered by main, not by libraries)
//   - Keeps the core library dependency-free from observability frameworks
//   - Allows different backends (OpenTelemetry, Prometheus, DataDog, etc.)
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    observability.SetExtractionHooks(&myExtractionHooks{})
//	    observability.SetRenderHooks(&myRenderHooks{})
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	observability.Extraction().OnModuleStart(ctx, domain, depth)
//	// ... walk the module ...
//	observability.Extraction().OnModuleComplete(ctx, domain, nodeCount, duration, err)
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Extraction Hooks
// =============================================================================

// ExtractionHooks receives events from the extraction walk.
type ExtractionHooks interface {
	// Module events
	OnModuleStart(ctx context.Context, domain string, depth int)
	OnModuleComplete(ctx context.Context, domain string, nodeCount int, duration time.Duration, err error)

	// Node events
	OnNode(ctx context.Context, qualifiedName, kind string)
	OnPlaceholder(ctx context.Context, qualifiedName string)

	// OnSkip records a member dropped because its reference never resolved.
	OnSkip(ctx context.Context, qualifiedName string, err error)
}

// =============================================================================
// Render Hooks
// =============================================================================

// RenderHooks receives events from diagram rendering.
type RenderHooks interface {
	// OnRenderStart records the start of a render pass.
	OnRenderStart(ctx context.Context, format string, nodeCount int)

	// OnRenderComplete records the end of a render pass.
	OnRenderComplete(ctx context.Context, format string, size int, duration time.Duration, err error)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopExtractionHooks is a no-op implementation of ExtractionHooks.
type NoopExtractionHooks struct{}

func (NoopExtractionHooks) OnModuleStart(context.Context, string, int) {}
func (NoopExtractionHooks) OnModuleComplete(context.Context, string, int, time.Duration, error) {
}
func (NoopExtractionHooks) OnNode(context.Context, string, string)    {}
func (NoopExtractionHooks) OnPlaceholder(context.Context, string)     {}
func (NoopExtractionHooks) OnSkip(context.Context, string, error)     {}

// NoopRenderHooks is a no-op implementation of RenderHooks.
type NoopRenderHooks struct{}

func (NoopRenderHooks) OnRenderStart(context.Context, string, int)                        {}
func (NoopRenderHooks) OnRenderComplete(context.Context, string, int, time.Duration, error) {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	extractionHooks ExtractionHooks = NoopExtractionHooks{}
	renderHooks     RenderHooks     = NoopRenderHooks{}
	hooksMu         sync.RWMutex
)

// SetExtractionHooks registers custom extraction hooks.
// This should be called once at application startup before any extraction runs.
func SetExtractionHooks(h ExtractionHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		extractionHooks = h
	}
}

// SetRenderHooks registers custom render hooks.
// This should be called once at application startup before any render runs.
func SetRenderHooks(h RenderHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		renderHooks = h
	}
}

// Extraction returns the registered extraction hooks.
func Extraction() ExtractionHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return extractionHooks
}

// Render returns the registered render hooks.
func Render() RenderHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return renderHooks
}

// Reset restores all hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	extractionHooks = NoopExtractionHooks{}
	renderHooks = NoopRenderHooks{}
}
