package interceptors

import (
	"context"

	"github.com/glimte/kmate-go/contracts"
)

// ProduceDelegate represents the remainder of a produce pipeline: the
// inner interceptors plus the terminal broker write.
type ProduceDelegate func(ctx context.Context, pctx *contracts.ProduceContext) (contracts.DeliveryResult, error)

// ProduceInterceptor wraps outgoing messages. An implementation must
// either call next (possibly after mutating the context) or
// short-circuit; a short-circuiting produce interceptor still owes the
// caller a DeliveryResult.
type ProduceInterceptor interface {
	// Intercept processes an outgoing message and calls the rest of
	// the chain.
	Intercept(ctx context.Context, pctx *contracts.ProduceContext, next ProduceDelegate) (contracts.DeliveryResult, error)

	// Name returns the interceptor name for logging and debugging.
	Name() string
}

// ConsumeDelegate represents the remainder of a consume pipeline: the
// inner interceptors plus the application handler.
type ConsumeDelegate func(ctx context.Context, cctx *contracts.ConsumeContext) error

// ConsumeInterceptor wraps incoming messages. An implementation must
// either call next or short-circuit by returning without calling it.
type ConsumeInterceptor interface {
	// Intercept processes an incoming message and calls the rest of
	// the chain.
	Intercept(ctx context.Context, cctx *contracts.ConsumeContext, next ConsumeDelegate) error

	// Name returns the interceptor name for logging and debugging.
	Name() string
}

// ProduceInterceptorFunc is a function adapter for ProduceInterceptor.
type ProduceInterceptorFunc struct {
	name string
	fn   func(ctx context.Context, pctx *contracts.ProduceContext, next ProduceDelegate) (contracts.DeliveryResult, error)
}

// NewProduceInterceptorFunc creates a function-based produce interceptor.
func NewProduceInterceptorFunc(name string, fn func(ctx context.Context, pctx *contracts.ProduceContext, next ProduceDelegate) (contracts.DeliveryResult, error)) *ProduceInterceptorFunc {
	return &ProduceInterceptorFunc{name: name, fn: fn}
}

// Intercept implements ProduceInterceptor.
func (i *ProduceInterceptorFunc) Intercept(ctx context.Context, pctx *contracts.ProduceContext, next ProduceDelegate) (contracts.DeliveryResult, error) {
	return i.fn(ctx, pctx, next)
}

// Name implements ProduceInterceptor.
func (i *ProduceInterceptorFunc) Name() string { return i.name }

// ConsumeInterceptorFunc is a function adapter for ConsumeInterceptor.
type ConsumeInterceptorFunc struct {
	name string
	fn   func(ctx context.Context, cctx *contracts.ConsumeContext, next ConsumeDelegate) error
}

// NewConsumeInterceptorFunc creates a function-based consume interceptor.
func NewConsumeInterceptorFunc(name string, fn func(ctx context.Context, cctx *contracts.ConsumeContext, next ConsumeDelegate) error) *ConsumeInterceptorFunc {
	return &ConsumeInterceptorFunc{name: name, fn: fn}
}

// Intercept implements ConsumeInterceptor.
func (i *ConsumeInterceptorFunc) Intercept(ctx context.Context, cctx *contracts.ConsumeContext, next ConsumeDelegate) error {
	return i.fn(ctx, cctx, next)
}

// Name implements ConsumeInterceptor.
func (i *ConsumeInterceptorFunc) Name() string { return i.name }
