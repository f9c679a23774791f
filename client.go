// Package kmate is a typed messaging middleware over Kafka. The host
// application registers producers and consumers under explicit type
// tags; each send and receive runs through a priority-ordered chain of
// interceptors, and each registered consumer type gets its own pool of
// polling workers.
package kmate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/glimte/kmate-go/contracts"
	"github.com/glimte/kmate-go/messaging"
)

// Client is the main entry point. All registration happens before
// Start; the client never discovers anything at runtime.
type Client struct {
	logger  *slog.Logger
	handles *messaging.HandleCache
	acks    *messaging.AckTracker

	mu        sync.Mutex
	producers map[string]*messaging.Producer
	pools     map[string]*messaging.WorkerPool
	started   bool
	closed    bool
}

// clientConfig holds client construction options.
type clientConfig struct {
	logger *slog.Logger
}

// ClientOption configures the client.
type ClientOption func(*clientConfig)

// WithLogger sets the logger for all components.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(cfg *clientConfig) {
		cfg.logger = logger
	}
}

// NewClient creates a new kmate client.
func NewClient(options ...ClientOption) *Client {
	cfg := &clientConfig{
		logger: slog.Default(),
	}
	for _, opt := range options {
		opt(cfg)
	}

	return &Client{
		logger:    cfg.logger,
		handles:   messaging.NewHandleCache(cfg.logger),
		acks:      messaging.NewAckTracker(cfg.logger),
		producers: make(map[string]*messaging.Producer),
		pools:     make(map[string]*messaging.WorkerPool),
	}
}

// RegisterProducer registers a typed producer under an explicit tag.
// The broker session and the interceptor pipeline are created lazily on
// first send.
func (c *Client) RegisterProducer(typeKey string, cfg messaging.ProducerConfig, options ...messaging.ProducerOption) (*messaging.Producer, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, fmt.Errorf("client is closed")
	}
	if _, exists := c.producers[typeKey]; exists {
		return nil, fmt.Errorf("producer %q already registered", typeKey)
	}

	options = append([]messaging.ProducerOption{messaging.WithProducerLogger(c.logger)}, options...)
	producer, err := messaging.NewProducer(typeKey, cfg, c.handles, options...)
	if err != nil {
		return nil, err
	}

	c.producers[typeKey] = producer
	c.logger.Info("producer registered", "type", typeKey)
	return producer, nil
}

// Producer returns a registered producer by tag.
func (c *Client) Producer(typeKey string) (*messaging.Producer, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	producer, ok := c.producers[typeKey]
	return producer, ok
}

// RegisterConsumer registers a typed consumer under an explicit tag.
// Its worker pool starts when Start is called; registering after Start
// starts the pool immediately.
func (c *Client) RegisterConsumer(typeKey string, cfg messaging.ConsumerConfig, handler messaging.ConsumeHandler, options ...messaging.WorkerPoolOption) (*messaging.WorkerPool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, fmt.Errorf("client is closed")
	}
	if _, exists := c.pools[typeKey]; exists {
		return nil, fmt.Errorf("consumer %q already registered", typeKey)
	}

	options = append([]messaging.WorkerPoolOption{messaging.WithPoolLogger(c.logger)}, options...)
	pool, err := messaging.NewWorkerPool(typeKey, cfg, handler, options...)
	if err != nil {
		return nil, err
	}

	if c.started {
		if err := pool.Start(context.Background()); err != nil {
			return nil, err
		}
	}

	c.pools[typeKey] = pool
	c.logger.Info("consumer registered", "type", typeKey)
	return pool, nil
}

// Acks returns the acknowledgment tracker for explicit offset commits.
func (c *Client) Acks() *messaging.AckTracker {
	return c.acks
}

// Ack commits the offset carried by one consume context.
func (c *Client) Ack(ctx context.Context, cctx *contracts.ConsumeContext) error {
	return c.acks.Ack(ctx, cctx)
}

// AckAll commits the offsets of several consume contexts in batched
// requests.
func (c *Client) AckAll(ctx context.Context, cctxs []*contracts.ConsumeContext) error {
	return c.acks.AckAll(ctx, cctxs)
}

// Start launches the worker pools of all registered consumers. If any
// pool fails to start, pools already started are stopped and the error
// is returned.
func (c *Client) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return fmt.Errorf("client is closed")
	}
	if c.started {
		return fmt.Errorf("client already started")
	}

	var startedPools []*messaging.WorkerPool
	for _, pool := range c.pools {
		if err := pool.Start(ctx); err != nil {
			for _, started := range startedPools {
				started.Stop()
			}
			return err
		}
		startedPools = append(startedPools, pool)
	}

	c.started = true
	c.logger.Info("client started", "consumers", len(c.pools), "producers", len(c.producers))
	return nil
}

// Close stops all worker pools, waits for in-flight handlers, and
// releases every cached broker handle exactly once.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true
	c.started = false

	for _, pool := range c.pools {
		pool.Stop()
	}

	var errs []error
	if err := c.handles.Close(); err != nil {
		errs = append(errs, err)
	}

	c.logger.Info("client closed")
	return errors.Join(errs...)
}
