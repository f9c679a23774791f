package kafka

import (
	"context"
	"time"

	ck "github.com/confluentinc/confluent-kafka-go/v2/kafka"

	"github.com/glimte/kmate-go/contracts"
)

// OutboundMessage is one serialized message ready for the broker.
type OutboundMessage struct {
	Topic     string
	Partition int32 // contracts.PartitionAny lets the broker choose
	Key       []byte
	Value     []byte
	Headers   contracts.Headers
}

// Delivery is the broker's report for one produced message.
type Delivery struct {
	Partition int32
	Offset    int64
	Timestamp time.Time
	Status    contracts.PersistenceStatus
}

// Producer is one broker producer session.
type Producer interface {
	// Produce writes one message and waits for the broker's delivery
	// report. On rejection the returned Delivery carries status
	// NotPersisted; if confirmation never arrives before ctx expires
	// the status is PossiblyPersisted.
	Produce(ctx context.Context, msg *OutboundMessage) (Delivery, error)

	// Close flushes outstanding messages and releases the session.
	Close() error
}

// syncProducer adapts the confluent async producer to the synchronous
// per-message contract above.
type syncProducer struct {
	producer       *ck.Producer
	flushTimeoutMs int
}

// NewProducer builds a broker producer session from settings.
func NewProducer(settings ProducerSettings) (Producer, error) {
	cfg, err := settings.configMap()
	if err != nil {
		return nil, err
	}

	producer, err := ck.NewProducer(cfg)
	if err != nil {
		return nil, err
	}

	flushTimeout := settings.FlushTimeoutMs
	if flushTimeout <= 0 {
		flushTimeout = 5000
	}

	return &syncProducer{producer: producer, flushTimeoutMs: flushTimeout}, nil
}

// Produce implements Producer.
func (p *syncProducer) Produce(ctx context.Context, msg *OutboundMessage) (Delivery, error) {
	topic := msg.Topic
	partition := msg.Partition
	if partition < 0 {
		partition = ck.PartitionAny
	}

	headers := make([]ck.Header, 0, msg.Headers.Len())
	for _, h := range msg.Headers {
		headers = append(headers, ck.Header{Key: h.Key, Value: h.Value})
	}

	deliveryChan := make(chan ck.Event, 1)
	err := p.producer.Produce(&ck.Message{
		TopicPartition: ck.TopicPartition{Topic: &topic, Partition: partition},
		Key:            msg.Key,
		Value:          msg.Value,
		Headers:        headers,
	}, deliveryChan)
	if err != nil {
		return Delivery{Partition: msg.Partition, Status: contracts.NotPersisted}, err
	}

	select {
	case event := <-deliveryChan:
		report, ok := event.(*ck.Message)
		if !ok {
			return Delivery{Partition: msg.Partition, Status: contracts.PossiblyPersisted}, ck.NewError(ck.ErrUnknown, "unexpected delivery event", false)
		}
		if report.TopicPartition.Error != nil {
			return Delivery{
				Partition: report.TopicPartition.Partition,
				Status:    contracts.NotPersisted,
			}, report.TopicPartition.Error
		}
		return Delivery{
			Partition: report.TopicPartition.Partition,
			Offset:    int64(report.TopicPartition.Offset),
			Timestamp: report.Timestamp,
			Status:    contracts.Persisted,
		}, nil
	case <-ctx.Done():
		// The write may still land after we stop waiting.
		return Delivery{Partition: msg.Partition, Status: contracts.PossiblyPersisted}, ctx.Err()
	}
}

// Close implements Producer.
func (p *syncProducer) Close() error {
	p.producer.Flush(p.flushTimeoutMs)
	p.producer.Close()
	return nil
}
