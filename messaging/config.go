package messaging

import (
	"fmt"
	"time"

	"github.com/glimte/kmate-go/internal/kafka"
	"github.com/glimte/kmate-go/serialization"
)

// Acks is the producer acknowledgment level requested from the broker.
type Acks string

const (
	// AcksAll waits for the full in-sync replica set.
	AcksAll Acks = "all"
	// AcksLeader waits for the partition leader only.
	AcksLeader Acks = "1"
	// AcksNone fires and forgets.
	AcksNone Acks = "0"
)

// OffsetReset selects where a consumer group without committed offsets
// starts reading.
type OffsetReset string

const (
	// OffsetResetEarliest starts from the oldest retained message.
	OffsetResetEarliest OffsetReset = "earliest"
	// OffsetResetLatest starts from new messages only.
	OffsetResetLatest OffsetReset = "latest"
)

// KeyExtractor derives the partitioning key from a message body. The
// returned value is run through the configured key serializer.
type KeyExtractor func(message any) (any, error)

// Shared default for all unset serializer and deserializer slots.
var defaultSerializer = serialization.NewJSONSerializer()

// ProducerConfig holds the per-type settings for one registered
// producer. It is treated as immutable after registration.
type ProducerConfig struct {
	BootstrapServers []string
	DefaultTopic     string
	Acks             Acks
	Idempotent       bool
	FlushTimeout     time.Duration

	// KeyExtractor derives the message key; nil produces keyless
	// messages.
	KeyExtractor KeyExtractor

	// KeySerializer and ValueSerializer default to the shared JSON
	// serializer when unset.
	KeySerializer   serialization.Serializer
	ValueSerializer serialization.Serializer
}

func (c ProducerConfig) withDefaults() ProducerConfig {
	if c.Acks == "" {
		c.Acks = AcksAll
	}
	if c.FlushTimeout <= 0 {
		c.FlushTimeout = 5 * time.Second
	}
	if c.KeySerializer == nil {
		c.KeySerializer = defaultSerializer
	}
	if c.ValueSerializer == nil {
		c.ValueSerializer = defaultSerializer
	}
	return c
}

func (c ProducerConfig) validate() error {
	if len(c.BootstrapServers) == 0 {
		return fmt.Errorf("bootstrap servers cannot be empty")
	}
	switch c.Acks {
	case AcksAll, AcksLeader, AcksNone:
	default:
		return fmt.Errorf("invalid acks level %q", c.Acks)
	}
	return nil
}

func (c ProducerConfig) settings() kafka.ProducerSettings {
	return kafka.ProducerSettings{
		BootstrapServers: c.BootstrapServers,
		Acks:             string(c.Acks),
		Idempotent:       c.Idempotent,
		FlushTimeoutMs:   int(c.FlushTimeout.Milliseconds()),
	}
}

// ConsumerConfig holds the per-type settings for one registered
// consumer. It is treated as immutable after registration.
type ConsumerConfig struct {
	BootstrapServers []string
	Topic            string
	GroupID          string

	// WorkerCount is the number of independent polling loops, each
	// owning its own broker session. Defaults to 1.
	WorkerCount int

	// AutoCommit lets the broker client commit offsets periodically.
	// When false the handler must acknowledge explicitly.
	AutoCommit bool

	AutoOffsetReset OffsetReset
	PollTimeout     time.Duration

	// NewMessage produces a fresh message body to deserialize each
	// polled record into. Required.
	NewMessage func() any

	// NewKey pairs with KeyDeserializer to produce typed keys; when
	// either is nil the raw key bytes are passed through.
	NewKey func() any

	// KeyDeserializer and ValueDeserializer default to the shared JSON
	// serializer when unset.
	KeyDeserializer   serialization.Deserializer
	ValueDeserializer serialization.Deserializer
}

func (c ConsumerConfig) withDefaults() ConsumerConfig {
	if c.WorkerCount <= 0 {
		c.WorkerCount = 1
	}
	if c.AutoOffsetReset == "" {
		c.AutoOffsetReset = OffsetResetLatest
	}
	if c.PollTimeout <= 0 {
		c.PollTimeout = 100 * time.Millisecond
	}
	if c.KeyDeserializer == nil {
		c.KeyDeserializer = defaultSerializer
	}
	if c.ValueDeserializer == nil {
		c.ValueDeserializer = defaultSerializer
	}
	return c
}

func (c ConsumerConfig) validate() error {
	if len(c.BootstrapServers) == 0 {
		return fmt.Errorf("bootstrap servers cannot be empty")
	}
	if c.Topic == "" {
		return fmt.Errorf("topic cannot be empty")
	}
	if c.GroupID == "" {
		return fmt.Errorf("group id cannot be empty")
	}
	if c.NewMessage == nil {
		return fmt.Errorf("message factory cannot be nil")
	}
	switch c.AutoOffsetReset {
	case OffsetResetEarliest, OffsetResetLatest:
	default:
		return fmt.Errorf("invalid auto offset reset policy %q", c.AutoOffsetReset)
	}
	return nil
}

func (c ConsumerConfig) settings() kafka.ConsumerSettings {
	return kafka.ConsumerSettings{
		BootstrapServers: c.BootstrapServers,
		GroupID:          c.GroupID,
		Topic:            c.Topic,
		AutoCommit:       c.AutoCommit,
		AutoOffsetReset:  string(c.AutoOffsetReset),
	}
}
