package messaging

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/glimte/kmate-go/contracts"
	"github.com/glimte/kmate-go/interceptors"
	"github.com/glimte/kmate-go/internal/kafka"
)

// PoolState is the lifecycle state of a worker pool.
type PoolState int32

const (
	// PoolStopped means the pool has not started or has fully drained.
	PoolStopped PoolState = iota
	// PoolStarting means sessions are being opened.
	PoolStarting
	// PoolPolling means workers are blocked waiting for messages.
	PoolPolling
	// PoolDispatching means at least one worker is running a handler.
	PoolDispatching
	// PoolDraining means shutdown was requested and in-flight handlers
	// are finishing.
	PoolDraining
)

// String implements fmt.Stringer.
func (s PoolState) String() string {
	switch s {
	case PoolStopped:
		return "Stopped"
	case PoolStarting:
		return "Starting"
	case PoolPolling:
		return "Polling"
	case PoolDispatching:
		return "Dispatching"
	case PoolDraining:
		return "Draining"
	default:
		return "Unknown"
	}
}

// ConsumeHandler processes one received message.
type ConsumeHandler interface {
	Handle(ctx context.Context, cctx *contracts.ConsumeContext) error
}

// ConsumeHandlerFunc is a function adapter for ConsumeHandler.
type ConsumeHandlerFunc func(ctx context.Context, cctx *contracts.ConsumeContext) error

// Handle implements ConsumeHandler.
func (f ConsumeHandlerFunc) Handle(ctx context.Context, cctx *contracts.ConsumeContext) error {
	return f(ctx, cctx)
}

// ConsumerSessionBuilder builds a broker consumer session; overridable
// in tests.
type ConsumerSessionBuilder func(settings kafka.ConsumerSettings) (kafka.Consumer, error)

// WorkerPool runs the consume loops for one registered consumer type.
// It compiles the pipeline once, then launches WorkerCount independent
// loops, each owning a private broker session subscribed under the
// shared group id so the broker distributes partitions among them.
type WorkerPool struct {
	typeKey       string
	cfg           ConsumerConfig
	handler       ConsumeHandler
	registrations []interceptors.ConsumeRegistration
	buildSession  ConsumerSessionBuilder
	logger        *slog.Logger

	pipeline interceptors.ConsumeDelegate
	state    atomic.Int32
	inflight atomic.Int64

	mu      sync.Mutex
	started bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// WorkerPoolOption configures a WorkerPool at registration time.
type WorkerPoolOption func(*WorkerPool)

// WithPoolLogger sets the logger.
func WithPoolLogger(logger *slog.Logger) WorkerPoolOption {
	return func(p *WorkerPool) {
		p.logger = logger
	}
}

// WithConsumeInterceptor registers an interceptor with an explicit
// priority. Higher priority runs outermost; ties keep registration
// order.
func WithConsumeInterceptor(interceptor interceptors.ConsumeInterceptor, priority int) WorkerPoolOption {
	return func(p *WorkerPool) {
		p.registrations = append(p.registrations, interceptors.ConsumeRegistration{
			Interceptor: interceptor,
			Priority:    priority,
		})
	}
}

// WithConsumerSessionBuilder replaces the broker session factory. Used
// by tests to substitute in-memory sessions.
func WithConsumerSessionBuilder(builder ConsumerSessionBuilder) WorkerPoolOption {
	return func(p *WorkerPool) {
		p.buildSession = builder
	}
}

// NewWorkerPool creates the worker pool for one consumer type.
func NewWorkerPool(typeKey string, cfg ConsumerConfig, handler ConsumeHandler, options ...WorkerPoolOption) (*WorkerPool, error) {
	if typeKey == "" {
		return nil, fmt.Errorf("type key cannot be empty")
	}
	if handler == nil {
		return nil, fmt.Errorf("handler cannot be nil")
	}

	cfg = cfg.withDefaults()
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid consumer config for %q: %w", typeKey, err)
	}

	p := &WorkerPool{
		typeKey:      typeKey,
		cfg:          cfg,
		handler:      handler,
		buildSession: kafka.NewConsumer,
		logger:       slog.Default(),
	}

	for _, opt := range options {
		opt(p)
	}

	return p, nil
}

// TypeKey returns the registration tag of this consumer.
func (p *WorkerPool) TypeKey() string { return p.typeKey }

// State returns the pool's current lifecycle state.
func (p *WorkerPool) State() PoolState {
	state := PoolState(p.state.Load())
	if state == PoolPolling && p.inflight.Load() > 0 {
		return PoolDispatching
	}
	return state
}

// Start compiles the pipeline, opens one broker session per worker, and
// launches the polling loops. Session creation failures are returned
// synchronously as a *contracts.HandleCreationError and any already
// opened sessions are released.
func (p *WorkerPool) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.started {
		return fmt.Errorf("worker pool %q already started", p.typeKey)
	}

	p.state.Store(int32(PoolStarting))
	p.pipeline = interceptors.CompileConsume(p.dispatch, p.registrations)

	sessions := make([]kafka.Consumer, 0, p.cfg.WorkerCount)
	for i := 0; i < p.cfg.WorkerCount; i++ {
		session, err := p.buildSession(p.cfg.settings())
		if err != nil {
			for _, opened := range sessions {
				opened.Close()
			}
			p.state.Store(int32(PoolStopped))
			return &contracts.HandleCreationError{Role: "consumer", TypeKey: p.typeKey, Err: err}
		}
		sessions = append(sessions, session)
	}

	runCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.started = true
	p.state.Store(int32(PoolPolling))

	for i, session := range sessions {
		p.wg.Add(1)
		go p.runWorker(runCtx, i, session)
	}

	p.logger.Info("worker pool started",
		"type", p.typeKey,
		"topic", p.cfg.Topic,
		"group", p.cfg.GroupID,
		"workers", p.cfg.WorkerCount,
	)
	return nil
}

// Stop cancels the workers and waits for in-flight handlers to finish.
// It is safe to call more than once.
func (p *WorkerPool) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.started {
		return
	}

	p.state.Store(int32(PoolDraining))
	p.cancel()
	p.wg.Wait()
	p.started = false
	p.state.Store(int32(PoolStopped))

	p.logger.Info("worker pool stopped", "type", p.typeKey)
}

// runWorker is one polling loop. The poll call is the only place a
// worker blocks; cancellation is observed between messages.
func (p *WorkerPool) runWorker(ctx context.Context, id int, session kafka.Consumer) {
	defer p.wg.Done()
	defer func() {
		if err := session.Close(); err != nil {
			p.logger.Warn("failed to close consumer session",
				"type", p.typeKey, "worker", id, "error", err)
		}
	}()

	logger := p.logger.With("type", p.typeKey, "worker", id)
	logger.Debug("worker loop started")

	for {
		if ctx.Err() != nil {
			logger.Debug("worker loop exiting")
			return
		}

		record, err := session.Poll(p.cfg.PollTimeout)
		if err != nil {
			logger.Error("poll failed", "error", err)
			continue
		}
		if record == nil {
			continue
		}

		cctx, err := p.buildContext(record, session)
		if err != nil {
			logger.Error("failed to decode message",
				"topic", record.Topic,
				"partition", record.Partition,
				"offset", record.Offset,
				"error", err,
			)
			continue
		}

		p.invoke(ctx, cctx, logger)
	}
}

// invoke runs the compiled pipeline for one message. Handler errors and
// panics are logged and swallowed so one bad message never stops the
// loop or its siblings.
func (p *WorkerPool) invoke(ctx context.Context, cctx *contracts.ConsumeContext, logger *slog.Logger) {
	p.inflight.Add(1)
	defer p.inflight.Add(-1)

	defer func() {
		if r := recover(); r != nil {
			logger.Error("handler panicked",
				"topic", cctx.Topic(),
				"partition", cctx.Partition(),
				"offset", cctx.Offset(),
				"panic", r,
			)
		}
	}()

	if err := p.pipeline(ctx, cctx); err != nil {
		logger.Error("message handling failed",
			"topic", cctx.Topic(),
			"partition", cctx.Partition(),
			"offset", cctx.Offset(),
			"error", err,
		)
	}
}

// dispatch is the terminal pipeline operation: the application handler.
func (p *WorkerPool) dispatch(ctx context.Context, cctx *contracts.ConsumeContext) error {
	return p.handler.Handle(ctx, cctx)
}

// buildContext deserializes one polled record into a consume context
// bound to the session it came from.
func (p *WorkerPool) buildContext(record *kafka.Record, committer contracts.OffsetCommitter) (*contracts.ConsumeContext, error) {
	message := p.cfg.NewMessage()
	if err := p.cfg.ValueDeserializer.Deserialize(record.Value, message); err != nil {
		return nil, fmt.Errorf("value deserialization failed: %w", err)
	}

	var key any = record.Key
	if p.cfg.NewKey != nil && len(record.Key) > 0 {
		typed := p.cfg.NewKey()
		if err := p.cfg.KeyDeserializer.Deserialize(record.Key, typed); err != nil {
			return nil, fmt.Errorf("key deserialization failed: %w", err)
		}
		key = typed
	}

	token := contracts.TopicPartitionOffset{
		Topic:     record.Topic,
		Partition: record.Partition,
		Offset:    record.Offset,
	}
	return contracts.NewConsumeContext(token, key, message, record.Headers, record.Timestamp, committer), nil
}
