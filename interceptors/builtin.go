package interceptors

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/glimte/kmate-go/contracts"
)

// MessageIDHeader is the header stamped by MessageIDInterceptor.
const MessageIDHeader = "x-message-id"

// Built-in interceptors

// LoggingProduceInterceptor logs produce outcomes.
type LoggingProduceInterceptor struct {
	logger *slog.Logger
}

// NewLoggingProduceInterceptor creates a new logging produce interceptor.
func NewLoggingProduceInterceptor(logger *slog.Logger) *LoggingProduceInterceptor {
	if logger == nil {
		logger = slog.Default()
	}
	return &LoggingProduceInterceptor{logger: logger}
}

// Intercept implements ProduceInterceptor.
func (i *LoggingProduceInterceptor) Intercept(ctx context.Context, pctx *contracts.ProduceContext, next ProduceDelegate) (contracts.DeliveryResult, error) {
	start := time.Now()

	result, err := next(ctx, pctx)
	duration := time.Since(start)

	if err != nil {
		i.logger.Error("produce failed",
			"topic", pctx.Topic(),
			"duration", duration,
			"error", err,
		)
	} else {
		i.logger.Debug("message produced",
			"topic", result.Topic,
			"partition", result.Partition,
			"offset", result.Offset,
			"status", result.Status.String(),
			"duration", duration,
		)
	}

	return result, err
}

// Name implements ProduceInterceptor.
func (i *LoggingProduceInterceptor) Name() string { return "LoggingProduceInterceptor" }

// LoggingConsumeInterceptor logs consume outcomes.
type LoggingConsumeInterceptor struct {
	logger *slog.Logger
}

// NewLoggingConsumeInterceptor creates a new logging consume interceptor.
func NewLoggingConsumeInterceptor(logger *slog.Logger) *LoggingConsumeInterceptor {
	if logger == nil {
		logger = slog.Default()
	}
	return &LoggingConsumeInterceptor{logger: logger}
}

// Intercept implements ConsumeInterceptor.
func (i *LoggingConsumeInterceptor) Intercept(ctx context.Context, cctx *contracts.ConsumeContext, next ConsumeDelegate) error {
	start := time.Now()

	err := next(ctx, cctx)
	duration := time.Since(start)

	if err != nil {
		i.logger.Error("message handling failed",
			"topic", cctx.Topic(),
			"partition", cctx.Partition(),
			"offset", cctx.Offset(),
			"duration", duration,
			"error", err,
		)
		return err
	}

	i.logger.Debug("message handled",
		"topic", cctx.Topic(),
		"partition", cctx.Partition(),
		"offset", cctx.Offset(),
		"duration", duration,
	)
	return nil
}

// Name implements ConsumeInterceptor.
func (i *LoggingConsumeInterceptor) Name() string { return "LoggingConsumeInterceptor" }

// MessageIDInterceptor stamps outgoing messages with a unique id header
// unless one is already present.
type MessageIDInterceptor struct{}

// NewMessageIDInterceptor creates a new message id interceptor.
func NewMessageIDInterceptor() *MessageIDInterceptor {
	return &MessageIDInterceptor{}
}

// Intercept implements ProduceInterceptor.
func (i *MessageIDInterceptor) Intercept(ctx context.Context, pctx *contracts.ProduceContext, next ProduceDelegate) (contracts.DeliveryResult, error) {
	if !pctx.Headers().Has(MessageIDHeader) {
		pctx.SetHeaders(pctx.Headers().Append(MessageIDHeader, []byte(uuid.New().String())))
	}
	return next(ctx, pctx)
}

// Name implements ProduceInterceptor.
func (i *MessageIDInterceptor) Name() string { return "MessageIDInterceptor" }

// MessageValidator validates incoming messages before they reach the
// handler.
type MessageValidator interface {
	Validate(ctx context.Context, message any) error
}

// ValidationInterceptor rejects invalid messages before the handler
// runs.
type ValidationInterceptor struct {
	validator MessageValidator
}

// NewValidationInterceptor creates a new validation interceptor.
func NewValidationInterceptor(validator MessageValidator) *ValidationInterceptor {
	return &ValidationInterceptor{validator: validator}
}

// Intercept implements ConsumeInterceptor.
func (i *ValidationInterceptor) Intercept(ctx context.Context, cctx *contracts.ConsumeContext, next ConsumeDelegate) error {
	if err := i.validator.Validate(ctx, cctx.Message()); err != nil {
		return fmt.Errorf("message validation failed: %w", err)
	}
	return next(ctx, cctx)
}

// Name implements ConsumeInterceptor.
func (i *ValidationInterceptor) Name() string { return "ValidationInterceptor" }
