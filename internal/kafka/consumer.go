package kafka

import (
	"context"
	"time"

	ck "github.com/confluentinc/confluent-kafka-go/v2/kafka"

	"github.com/glimte/kmate-go/contracts"
)

// Record is one message polled from the broker.
type Record struct {
	Topic     string
	Partition int32
	Offset    int64
	Key       []byte
	Value     []byte
	Headers   contracts.Headers
	Timestamp time.Time
}

// Consumer is one broker consumer session bound to a subscription. Each
// worker loop owns exactly one Consumer; sessions are never shared.
type Consumer interface {
	// Poll blocks up to timeout waiting for one message. It returns
	// (nil, nil) when the timeout elapses without a message.
	Poll(timeout time.Duration) (*Record, error)

	// CommitOffsets commits the given message positions. Implements
	// contracts.OffsetCommitter.
	CommitOffsets(ctx context.Context, offsets []contracts.TopicPartitionOffset) error

	// Close unsubscribes and releases the session.
	Close() error
}

type groupConsumer struct {
	consumer *ck.Consumer
}

// NewConsumer builds a broker consumer session and subscribes it to the
// configured topic.
func NewConsumer(settings ConsumerSettings) (Consumer, error) {
	cfg, err := settings.configMap()
	if err != nil {
		return nil, err
	}

	consumer, err := ck.NewConsumer(cfg)
	if err != nil {
		return nil, err
	}

	if err := consumer.Subscribe(settings.Topic, nil); err != nil {
		consumer.Close()
		return nil, err
	}

	return &groupConsumer{consumer: consumer}, nil
}

// Poll implements Consumer.
func (c *groupConsumer) Poll(timeout time.Duration) (*Record, error) {
	event := c.consumer.Poll(int(timeout.Milliseconds()))
	switch e := event.(type) {
	case *ck.Message:
		if e.TopicPartition.Error != nil {
			return nil, e.TopicPartition.Error
		}
		var topic string
		if e.TopicPartition.Topic != nil {
			topic = *e.TopicPartition.Topic
		}
		headers := make(contracts.Headers, 0, len(e.Headers))
		for _, h := range e.Headers {
			headers = append(headers, contracts.Header{Key: h.Key, Value: h.Value})
		}
		return &Record{
			Topic:     topic,
			Partition: e.TopicPartition.Partition,
			Offset:    int64(e.TopicPartition.Offset),
			Key:       e.Key,
			Value:     e.Value,
			Headers:   headers,
			Timestamp: e.Timestamp,
		}, nil
	case ck.Error:
		return nil, e
	default:
		// Timeout or an event kind we do not surface (stats, rebalance
		// notifications handled internally by the client).
		return nil, nil
	}
}

// CommitOffsets implements Consumer. Committed positions follow the
// broker convention of "next offset to read", so each token's offset is
// advanced by one.
func (c *groupConsumer) CommitOffsets(ctx context.Context, offsets []contracts.TopicPartitionOffset) error {
	if len(offsets) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	partitions := make([]ck.TopicPartition, len(offsets))
	for i, token := range offsets {
		topic := token.Topic
		partitions[i] = ck.TopicPartition{
			Topic:     &topic,
			Partition: token.Partition,
			Offset:    ck.Offset(token.Offset + 1),
		}
	}

	_, err := c.consumer.CommitOffsets(partitions)
	return err
}

// Close implements Consumer.
func (c *groupConsumer) Close() error {
	if err := c.consumer.Unsubscribe(); err != nil {
		c.consumer.Close()
		return err
	}
	return c.consumer.Close()
}
