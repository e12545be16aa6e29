// Package observability provides hooks for metrics, tracing, and logging.
//
// Instrumentation is optional and backend-agnostic: consumers register hooks
// at startup and the pipeline and session packages emit events through them.
// Without registration every hook is a no-op.
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    observability.SetPipelineHooks(&myPipelineHooks{})
//	    observability.SetSessionHooks(&mySessionHooks{})
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	observability.Pipeline().OnPlanStart(ctx, width, height)
//	// ... compute anchors ...
//	observability.Pipeline().OnPlanComplete(ctx, anchors, duration, err)
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Pipeline Hooks
// =============================================================================

// PipelineHooks receives events from the watermark pipeline.
type PipelineHooks interface {
	// Plan events
	OnPlanStart(ctx context.Context, width, height int)
	OnPlanComplete(ctx context.Context, anchors int, duration time.Duration, err error)

	// Paint events
	OnPaintStart(ctx context.Context, surface string, anchors int)
	OnPaintComplete(ctx context.Context, surface string, painted int, duration time.Duration, err error)

	// Export events
	OnExportStart(ctx context.Context, width, height int)
	OnExportComplete(ctx context.Context, bytes int, duration time.Duration, err error)
}

// =============================================================================
// Session Hooks
// =============================================================================

// SessionHooks receives events from the composer session.
type SessionHooks interface {
	// OnSelect records an image selection attempt.
	OnSelect(ctx context.Context, mime string, accepted bool)

	// OnExportRejected records an export request refused because another
	// export is still in flight.
	OnExportRejected(ctx context.Context)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopPipelineHooks is a no-op implementation of PipelineHooks.
type NoopPipelineHooks struct{}

func (NoopPipelineHooks) OnPlanStart(context.Context, int, int)                     {}
func (NoopPipelineHooks) OnPlanComplete(context.Context, int, time.Duration, error) {}
func (NoopPipelineHooks) OnPaintStart(context.Context, string, int)                 {}
func (NoopPipelineHooks) OnPaintComplete(context.Context, string, int, time.Duration, error) {
}
func (NoopPipelineHooks) OnExportStart(context.Context, int, int)                     {}
func (NoopPipelineHooks) OnExportComplete(context.Context, int, time.Duration, error) {}

// NoopSessionHooks is a no-op implementation of SessionHooks.
type NoopSessionHooks struct{}

func (NoopSessionHooks) OnSelect(context.Context, string, bool) {}
func (NoopSessionHooks) OnExportRejected(context.Context)       {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	pipelineHooks PipelineHooks = NoopPipelineHooks{}
	sessionHooks  SessionHooks  = NoopSessionHooks{}
	hooksMu       sync.RWMutex
)

// SetPipelineHooks registers custom pipeline hooks.
// This should be called once at application startup before any render.
func SetPipelineHooks(h PipelineHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		pipelineHooks = h
	}
}

// SetSessionHooks registers custom session hooks.
func SetSessionHooks(h SessionHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		sessionHooks = h
	}
}

// Pipeline returns the registered pipeline hooks.
func Pipeline() PipelineHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return pipelineHooks
}

// Session returns the registered session hooks.
func Session() SessionHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return sessionHooks
}

// Reset restores all hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	pipelineHooks = NoopPipelineHooks{}
	sessionHooks = NoopSessionHooks{}
}
