package messaging

import (
	"errors"
	"log/slog"
	"sync"
)

// Handle is a live broker session owned by the cache.
type Handle interface {
	Close() error
}

// HandleCache lazily creates and memoizes one broker session per
// distinct type key. Concurrent first access for the same key may run
// the factory more than once, but exactly one result is retained and
// returned to every caller; losing sessions are closed immediately.
type HandleCache struct {
	handles sync.Map // string -> Handle
	logger  *slog.Logger

	closeOnce sync.Once
	closeErr  error
}

// NewHandleCache creates an empty handle cache.
func NewHandleCache(logger *slog.Logger) *HandleCache {
	if logger == nil {
		logger = slog.Default()
	}
	return &HandleCache{logger: logger}
}

// GetOrCreate returns the cached handle for key, invoking factory to
// build one if absent. Factory errors are propagated to the caller that
// triggered creation and nothing is cached.
func (c *HandleCache) GetOrCreate(key string, factory func() (Handle, error)) (Handle, error) {
	if cached, ok := c.handles.Load(key); ok {
		return cached.(Handle), nil
	}

	handle, err := factory()
	if err != nil {
		return nil, err
	}

	actual, raced := c.handles.LoadOrStore(key, handle)
	if raced {
		// Another caller won the publish race; discard our session.
		if closeErr := handle.Close(); closeErr != nil {
			c.logger.Warn("failed to close redundant handle", "key", key, "error", closeErr)
		}
		return actual.(Handle), nil
	}

	c.logger.Debug("handle created", "key", key)
	return handle, nil
}

// Len returns the number of cached handles.
func (c *HandleCache) Len() int {
	count := 0
	c.handles.Range(func(_, _ any) bool {
		count++
		return true
	})
	return count
}

// Close releases every cached handle exactly once. Subsequent calls
// return the first result.
func (c *HandleCache) Close() error {
	c.closeOnce.Do(func() {
		var errs []error
		c.handles.Range(func(key, value any) bool {
			if err := value.(Handle).Close(); err != nil {
				c.logger.Error("failed to close handle", "key", key, "error", err)
				errs = append(errs, err)
			}
			c.handles.Delete(key)
			return true
		})
		c.closeErr = errors.Join(errs...)
	})
	return c.closeErr
}
