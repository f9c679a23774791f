// Package interceptors provides the produce and consume pipeline
// machinery: interceptor interfaces, priority-ordered chain compilation,
// and a small catalogue of built-in interceptors.
//
// A compiled pipeline is an immutable function chain. Interceptors are
// ordered by descending numeric priority, so the interceptor registered
// with the highest priority observes a message first on the way in and
// last on the way out. Ties keep registration order.
package interceptors
