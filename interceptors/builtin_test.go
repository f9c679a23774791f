package interceptors

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/glimte/kmate-go/contracts"
)

type mockValidator struct {
	mock.Mock
}

func (m *mockValidator) Validate(ctx context.Context, message any) error {
	args := m.Called(ctx, message)
	return args.Error(0)
}

func TestMessageIDInterceptor(t *testing.T) {
	passthrough := func(ctx context.Context, pctx *contracts.ProduceContext) (contracts.DeliveryResult, error) {
		return contracts.DeliveryResult{Headers: pctx.Headers()}, nil
	}

	t.Run("stamps a uuid header when absent", func(t *testing.T) {
		interceptor := NewMessageIDInterceptor()
		pctx := contracts.NewProduceContext("t", contracts.PartitionAny, nil, nil, nil)

		result, err := interceptor.Intercept(context.Background(), pctx, passthrough)

		require.NoError(t, err)
		stamped := result.Headers.Get(MessageIDHeader)
		require.NotNil(t, stamped)
		_, err = uuid.Parse(string(stamped))
		assert.NoError(t, err)
	})

	t.Run("keeps an existing message id", func(t *testing.T) {
		interceptor := NewMessageIDInterceptor()
		headers := contracts.Headers{}.Append(MessageIDHeader, []byte("fixed"))
		pctx := contracts.NewProduceContext("t", contracts.PartitionAny, nil, nil, headers)

		result, err := interceptor.Intercept(context.Background(), pctx, passthrough)

		require.NoError(t, err)
		assert.Equal(t, []byte("fixed"), result.Headers.Get(MessageIDHeader))
		assert.Equal(t, 1, result.Headers.Len())
	})
}

func TestValidationInterceptor(t *testing.T) {
	t.Run("valid message reaches the handler", func(t *testing.T) {
		validator := &mockValidator{}
		validator.On("Validate", mock.Anything, mock.Anything).Return(nil)

		interceptor := NewValidationInterceptor(validator)
		handled := false
		err := interceptor.Intercept(context.Background(), &contracts.ConsumeContext{}, func(ctx context.Context, cctx *contracts.ConsumeContext) error {
			handled = true
			return nil
		})

		assert.NoError(t, err)
		assert.True(t, handled)
		validator.AssertExpectations(t)
	})

	t.Run("invalid message short-circuits with a wrapped error", func(t *testing.T) {
		validationErr := errors.New("missing field")
		validator := &mockValidator{}
		validator.On("Validate", mock.Anything, mock.Anything).Return(validationErr)

		interceptor := NewValidationInterceptor(validator)
		handled := false
		err := interceptor.Intercept(context.Background(), &contracts.ConsumeContext{}, func(ctx context.Context, cctx *contracts.ConsumeContext) error {
			handled = true
			return nil
		})

		assert.ErrorIs(t, err, validationErr)
		assert.False(t, handled)
	})
}

func TestLoggingInterceptors(t *testing.T) {
	t.Run("produce logging passes result and error through", func(t *testing.T) {
		interceptor := NewLoggingProduceInterceptor(nil)
		want := contracts.DeliveryResult{Topic: "t", Partition: 2, Offset: 7, Status: contracts.Persisted}

		result, err := interceptor.Intercept(context.Background(), contracts.NewProduceContext("t", 2, nil, nil, nil), func(ctx context.Context, pctx *contracts.ProduceContext) (contracts.DeliveryResult, error) {
			return want, nil
		})

		require.NoError(t, err)
		assert.Equal(t, want, result)
	})

	t.Run("consume logging passes handler error through", func(t *testing.T) {
		interceptor := NewLoggingConsumeInterceptor(nil)
		handlerErr := errors.New("boom")

		err := interceptor.Intercept(context.Background(), &contracts.ConsumeContext{}, func(ctx context.Context, cctx *contracts.ConsumeContext) error {
			return handlerErr
		})

		assert.ErrorIs(t, err, handlerErr)
	})
}
