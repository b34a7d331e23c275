// Package promobs provides an observability.Provider that exports metrics to
// Prometheus while delegating tracing and logging to another provider,
// typically a slogobs.Observer. Construct one with [New], mount
// [Observer.Handler] on an HTTP mux to expose the /metrics endpoint, and pass
// the observer through the context with observability.ContextWithObserver.
package promobs
