package interceptors

import (
	"context"
	"sort"

	"github.com/glimte/kmate-go/contracts"
)

// ProduceRegistration pairs a produce interceptor with its priority.
// Higher priority runs earlier (outermost). Interceptors registered
// without an explicit priority default to 0, the innermost position.
type ProduceRegistration struct {
	Interceptor ProduceInterceptor
	Priority    int
}

// ConsumeRegistration pairs a consume interceptor with its priority.
type ConsumeRegistration struct {
	Interceptor ConsumeInterceptor
	Priority    int
}

// CompileProduce builds the callable chain for a produce pipeline.
// Registrations are ordered by descending priority, ties broken by
// registration order, and wrapped around the terminal operation so the
// highest-priority interceptor is the outermost call. The returned
// delegate is immutable and safe for concurrent use.
func CompileProduce(terminal ProduceDelegate, registrations []ProduceRegistration) ProduceDelegate {
	if len(registrations) == 0 {
		return terminal
	}

	sorted := make([]ProduceRegistration, len(registrations))
	copy(sorted, registrations)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Priority > sorted[j].Priority
	})

	// Wrap innermost (lowest priority) first so the highest priority
	// interceptor ends up outermost.
	chain := terminal
	for i := len(sorted) - 1; i >= 0; i-- {
		interceptor := sorted[i].Interceptor
		next := chain
		chain = func(ctx context.Context, pctx *contracts.ProduceContext) (contracts.DeliveryResult, error) {
			return interceptor.Intercept(ctx, pctx, next)
		}
	}

	return chain
}

// CompileConsume builds the callable chain for a consume pipeline,
// using the same ordering rules as CompileProduce.
func CompileConsume(terminal ConsumeDelegate, registrations []ConsumeRegistration) ConsumeDelegate {
	if len(registrations) == 0 {
		return terminal
	}

	sorted := make([]ConsumeRegistration, len(registrations))
	copy(sorted, registrations)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Priority > sorted[j].Priority
	})

	chain := terminal
	for i := len(sorted) - 1; i >= 0; i-- {
		interceptor := sorted[i].Interceptor
		next := chain
		chain = func(ctx context.Context, cctx *contracts.ConsumeContext) error {
			return interceptor.Intercept(ctx, cctx, next)
		}
	}

	return chain
}
