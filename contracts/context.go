package contracts

import (
	"context"
	"time"
)

// PartitionAny lets the broker pick the partition for a produced message.
const PartitionAny int32 = -1

// ProduceContext carries one outgoing message through a produce pipeline.
// Topic, key, and partition are fixed at construction; interceptors may
// replace the headers or the message body but nothing else.
type ProduceContext struct {
	topic     string
	partition int32
	key       []byte
	message   any
	headers   Headers
}

// NewProduceContext builds a produce context for one message. Pass
// PartitionAny to let the broker assign the partition.
func NewProduceContext(topic string, partition int32, key []byte, message any, headers Headers) *ProduceContext {
	return &ProduceContext{
		topic:     topic,
		partition: partition,
		key:       key,
		message:   message,
		headers:   headers,
	}
}

// Topic returns the destination topic.
func (c *ProduceContext) Topic() string { return c.topic }

// Partition returns the explicitly requested partition, or PartitionAny.
func (c *ProduceContext) Partition() int32 { return c.partition }

// Key returns the serialized message key. Callers must not modify it.
func (c *ProduceContext) Key() []byte { return c.key }

// Message returns the message body.
func (c *ProduceContext) Message() any { return c.message }

// SetMessage replaces the message body.
func (c *ProduceContext) SetMessage(message any) { c.message = message }

// Headers returns the current headers.
func (c *ProduceContext) Headers() Headers { return c.headers }

// SetHeaders replaces the headers.
func (c *ProduceContext) SetHeaders(headers Headers) { c.headers = headers }

// OffsetCommitter commits consumed offsets back to the broker. It is
// implemented by the session that owns the partition assignment.
type OffsetCommitter interface {
	CommitOffsets(ctx context.Context, offsets []TopicPartitionOffset) error
}

// ConsumeContext carries one received message through a consume pipeline.
type ConsumeContext struct {
	token     TopicPartitionOffset
	key       any
	message   any
	headers   Headers
	timestamp time.Time
	committer OffsetCommitter
}

// NewConsumeContext builds a consume context for a polled message. The
// committer is the session the message was polled from; it may be nil in
// tests that never acknowledge.
func NewConsumeContext(token TopicPartitionOffset, key any, message any, headers Headers, timestamp time.Time, committer OffsetCommitter) *ConsumeContext {
	return &ConsumeContext{
		token:     token,
		key:       key,
		message:   message,
		headers:   headers,
		timestamp: timestamp,
		committer: committer,
	}
}

// Topic returns the topic the message was received from.
func (c *ConsumeContext) Topic() string { return c.token.Topic }

// Partition returns the partition the message was received from.
func (c *ConsumeContext) Partition() int32 { return c.token.Partition }

// Offset returns the message offset within its partition.
func (c *ConsumeContext) Offset() int64 { return c.token.Offset }

// OffsetToken returns the opaque token identifying this message's
// position, used only for acknowledgment.
func (c *ConsumeContext) OffsetToken() TopicPartitionOffset { return c.token }

// Key returns the message key: the configured key deserializer's output
// when one is set, otherwise the raw key bytes. Nil if the record had no
// key.
func (c *ConsumeContext) Key() any { return c.key }

// Message returns the deserialized message body.
func (c *ConsumeContext) Message() any { return c.message }

// SetMessage replaces the message body.
func (c *ConsumeContext) SetMessage(message any) { c.message = message }

// Headers returns the received headers.
func (c *ConsumeContext) Headers() Headers { return c.headers }

// SetHeaders replaces the headers.
func (c *ConsumeContext) SetHeaders(headers Headers) { c.headers = headers }

// Timestamp returns the producer-side timestamp of the message.
func (c *ConsumeContext) Timestamp() time.Time { return c.timestamp }

// Committer returns the offset committer bound to this message's
// session, or nil if none exists.
func (c *ConsumeContext) Committer() OffsetCommitter { return c.committer }
