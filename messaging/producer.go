package messaging

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/glimte/kmate-go/contracts"
	"github.com/glimte/kmate-go/interceptors"
	"github.com/glimte/kmate-go/internal/kafka"
)

// SessionBuilder builds a broker producer session; overridable in tests.
type SessionBuilder func(settings kafka.ProducerSettings) (kafka.Producer, error)

// Producer is the typed send facade for one registered message type.
// The broker session and the compiled pipeline are both created lazily
// on first use and shared by all callers.
type Producer struct {
	typeKey       string
	cfg           ProducerConfig
	cache         *HandleCache
	logger        *slog.Logger
	registrations []interceptors.ProduceRegistration
	buildSession  SessionBuilder
	batchLimit    int

	compileOnce sync.Once
	pipeline    interceptors.ProduceDelegate
}

// ProducerOption configures a Producer at registration time.
type ProducerOption func(*Producer)

// WithProducerLogger sets the logger.
func WithProducerLogger(logger *slog.Logger) ProducerOption {
	return func(p *Producer) {
		p.logger = logger
	}
}

// WithProduceInterceptor registers an interceptor with an explicit
// priority. Higher priority runs outermost; ties keep registration
// order.
func WithProduceInterceptor(interceptor interceptors.ProduceInterceptor, priority int) ProducerOption {
	return func(p *Producer) {
		p.registrations = append(p.registrations, interceptors.ProduceRegistration{
			Interceptor: interceptor,
			Priority:    priority,
		})
	}
}

// WithBatchConcurrency bounds the fan-out of SendBatch. Defaults to 16.
func WithBatchConcurrency(limit int) ProducerOption {
	return func(p *Producer) {
		if limit > 0 {
			p.batchLimit = limit
		}
	}
}

// WithProducerSessionBuilder replaces the broker session factory. Used
// by tests to substitute in-memory sessions.
func WithProducerSessionBuilder(builder SessionBuilder) ProducerOption {
	return func(p *Producer) {
		p.buildSession = builder
	}
}

// NewProducer creates the send facade for one message type. The type
// key is an explicit tag chosen by the host application; it also keys
// the handle cache entry.
func NewProducer(typeKey string, cfg ProducerConfig, cache *HandleCache, options ...ProducerOption) (*Producer, error) {
	if typeKey == "" {
		return nil, fmt.Errorf("type key cannot be empty")
	}
	if cache == nil {
		return nil, fmt.Errorf("handle cache cannot be nil")
	}

	cfg = cfg.withDefaults()
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid producer config for %q: %w", typeKey, err)
	}

	p := &Producer{
		typeKey:      typeKey,
		cfg:          cfg,
		cache:        cache,
		logger:       slog.Default(),
		buildSession: kafka.NewProducer,
		batchLimit:   16,
	}

	for _, opt := range options {
		opt(p)
	}

	return p, nil
}

// TypeKey returns the registration tag of this producer.
func (p *Producer) TypeKey() string { return p.typeKey }

// SendOptions configures a single send or batch send.
type SendOptions struct {
	Headers   contracts.Headers
	Partition int32
}

// SendOption configures send behavior.
type SendOption func(*SendOptions)

// WithHeaders attaches headers to the outgoing message(s).
func WithHeaders(headers contracts.Headers) SendOption {
	return func(opts *SendOptions) {
		opts.Headers = headers
	}
}

// WithPartition pins the message(s) to an explicit partition instead of
// letting the broker assign one.
func WithPartition(partition int32) SendOption {
	return func(opts *SendOptions) {
		opts.Partition = partition
	}
}

// Send produces one message through the compiled interceptor pipeline
// and returns the broker's delivery result. Broker rejections surface
// as a *contracts.ProduceError; nothing is retried.
func (p *Producer) Send(ctx context.Context, topic string, message any, options ...SendOption) (contracts.DeliveryResult, error) {
	opts := SendOptions{Partition: contracts.PartitionAny}
	for _, opt := range options {
		opt(&opts)
	}

	pctx, err := p.buildContext(topic, message, opts)
	if err != nil {
		return contracts.DeliveryResult{}, err
	}

	return p.compiled()(ctx, pctx)
}

// SendBatch produces messages concurrently against the shared session
// and returns one result per input message, in input order, even when
// individual sends fail; the returned error aggregates the failures.
// Batch sends go straight to the broker; the interceptor chain is
// applied on single sends only.
func (p *Producer) SendBatch(ctx context.Context, topic string, messages []any, options ...SendOption) ([]contracts.DeliveryResult, error) {
	opts := SendOptions{Partition: contracts.PartitionAny}
	for _, opt := range options {
		opt(&opts)
	}

	results := make([]contracts.DeliveryResult, len(messages))
	errs := make([]error, len(messages))

	var g errgroup.Group
	g.SetLimit(p.batchLimit)

	for i, message := range messages {
		i, message := i, message
		g.Go(func() error {
			pctx, err := p.buildContext(topic, message, opts)
			if err != nil {
				results[i] = contracts.DeliveryResult{
					Topic:     topic,
					Partition: opts.Partition,
					Status:    contracts.NotPersisted,
					Message:   message,
					Headers:   opts.Headers,
				}
				errs[i] = err
				return nil
			}
			results[i], errs[i] = p.produce(ctx, pctx)
			return nil
		})
	}

	g.Wait()
	return results, errors.Join(errs...)
}

// buildContext derives the key and assembles the produce context.
func (p *Producer) buildContext(topic string, message any, opts SendOptions) (*contracts.ProduceContext, error) {
	if topic == "" {
		topic = p.cfg.DefaultTopic
	}
	if topic == "" {
		return nil, fmt.Errorf("topic cannot be empty")
	}

	var key []byte
	if p.cfg.KeyExtractor != nil {
		rawKey, err := p.cfg.KeyExtractor(message)
		if err != nil {
			return nil, fmt.Errorf("key extraction failed: %w", err)
		}
		key, err = p.cfg.KeySerializer.Serialize(rawKey)
		if err != nil {
			return nil, fmt.Errorf("key serialization failed: %w", err)
		}
	}

	return contracts.NewProduceContext(topic, opts.Partition, key, message, opts.Headers), nil
}

// compiled returns the memoized pipeline, building it on first use.
func (p *Producer) compiled() interceptors.ProduceDelegate {
	p.compileOnce.Do(func() {
		p.pipeline = interceptors.CompileProduce(p.produce, p.registrations)
		p.logger.Debug("produce pipeline compiled",
			"type", p.typeKey,
			"interceptors", len(p.registrations),
		)
	})
	return p.pipeline
}

// produce is the terminal pipeline operation: serialize and hand the
// message to the broker session.
func (p *Producer) produce(ctx context.Context, pctx *contracts.ProduceContext) (contracts.DeliveryResult, error) {
	result := contracts.DeliveryResult{
		Topic:     pctx.Topic(),
		Partition: pctx.Partition(),
		Status:    contracts.NotPersisted,
		Key:       pctx.Key(),
		Message:   pctx.Message(),
		Headers:   pctx.Headers(),
	}

	session, err := p.session()
	if err != nil {
		return result, err
	}

	value, err := p.cfg.ValueSerializer.Serialize(pctx.Message())
	if err != nil {
		return result, fmt.Errorf("value serialization failed: %w", err)
	}

	delivery, err := session.Produce(ctx, &kafka.OutboundMessage{
		Topic:     pctx.Topic(),
		Partition: pctx.Partition(),
		Key:       pctx.Key(),
		Value:     value,
		Headers:   pctx.Headers(),
	})

	result.Partition = delivery.Partition
	result.Offset = delivery.Offset
	result.Timestamp = delivery.Timestamp
	result.Status = delivery.Status

	if err != nil {
		return result, &contracts.ProduceError{
			Topic:     pctx.Topic(),
			Partition: pctx.Partition(),
			Err:       err,
		}
	}
	return result, nil
}

// session resolves this type's broker session through the handle cache.
func (p *Producer) session() (kafka.Producer, error) {
	handle, err := p.cache.GetOrCreate("producer/"+p.typeKey, func() (Handle, error) {
		return p.buildSession(p.cfg.settings())
	})
	if err != nil {
		return nil, &contracts.HandleCreationError{Role: "producer", TypeKey: p.typeKey, Err: err}
	}
	return handle.(kafka.Producer), nil
}
