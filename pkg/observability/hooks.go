// Package observability provides hooks for logging, metrics, and tracing.
//
// Libraries in this module call hooks to report what they are doing; the
// binary decides what happens with the events. The CLI registers hooks that
// forward everything to its charm logger; tests register recorders. Nothing
// here depends on a particular backend.
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    observability.SetHTTPHooks(&myHTTPHooks{})
//	    observability.SetLifecycleHooks(&myLifecycleHooks{})
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	observability.HTTP().OnRequest(ctx, http.MethodPost, host, "/analyze")
//	observability.Lifecycle().OnTransition(ctx, "loading", "success")
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Lifecycle Hooks
// =============================================================================

// LifecycleHooks receives events from the request lifecycle controller.
type LifecycleHooks interface {
	// OnTransition records a phase change. Phases are lower-case names.
	OnTransition(ctx context.Context, from, to string)

	// OnDispatch records the start of an analysis call.
	OnDispatch(ctx context.Context, requestID, repo string)

	// OnResolve records the end of an analysis call; err is nil on success.
	OnResolve(ctx context.Context, requestID string, duration time.Duration, err error)

	// OnSuppressed records a submit that was ignored because a call is in flight.
	OnSuppressed(ctx context.Context)
}

// =============================================================================
// HTTP Hooks
// =============================================================================

// HTTPHooks receives events from HTTP client operations.
type HTTPHooks interface {
	// OnRequest records an outgoing HTTP request.
	OnRequest(ctx context.Context, method, host, path string)

	// OnResponse records an HTTP response.
	OnResponse(ctx context.Context, method, host, path string, statusCode int, duration time.Duration)

	// OnError records an HTTP error (network failure, unreadable body).
	OnError(ctx context.Context, method, host, path string, err error)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopLifecycleHooks is a no-op implementation of LifecycleHooks.
type NoopLifecycleHooks struct{}

func (NoopLifecycleHooks) OnTransition(context.Context, string, string)            {}
func (NoopLifecycleHooks) OnDispatch(context.Context, string, string)              {}
func (NoopLifecycleHooks) OnResolve(context.Context, string, time.Duration, error) {}
func (NoopLifecycleHooks) OnSuppressed(context.Context)                            {}

// NoopHTTPHooks is a no-op implementation of HTTPHooks.
type NoopHTTPHooks struct{}

func (NoopHTTPHooks) OnRequest(context.Context, string, string, string)                      {}
func (NoopHTTPHooks) OnResponse(context.Context, string, string, string, int, time.Duration) {}
func (NoopHTTPHooks) OnError(context.Context, string, string, string, error)                 {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	lifecycleHooks LifecycleHooks = NoopLifecycleHooks{}
	httpHooks      HTTPHooks      = NoopHTTPHooks{}
	hooksMu        sync.RWMutex
)

// SetLifecycleHooks registers custom lifecycle hooks.
// This should be called once at application startup before any submit.
func SetLifecycleHooks(h LifecycleHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		lifecycleHooks = h
	}
}

// SetHTTPHooks registers custom HTTP hooks.
// This should be called once at application startup before any HTTP operations.
func SetHTTPHooks(h HTTPHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		httpHooks = h
	}
}

// Lifecycle returns the registered lifecycle hooks.
func Lifecycle() LifecycleHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return lifecycleHooks
}

// HTTP returns the registered HTTP hooks.
func HTTP() HTTPHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return httpHooks
}

// Reset restores all hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	lifecycleHooks = NoopLifecycleHooks{}
	httpHooks = NoopHTTPHooks{}
}
