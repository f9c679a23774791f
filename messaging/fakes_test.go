package messaging

import (
	"context"
	"sync"
	"time"

	"github.com/glimte/kmate-go/contracts"
	"github.com/glimte/kmate-go/internal/kafka"
)

// fakeProducerSession is an in-memory kafka.Producer. It assigns
// monotonically increasing offsets and honors explicitly requested
// partitions.
type fakeProducerSession struct {
	mu         sync.Mutex
	produced   []*kafka.OutboundMessage
	nextOffset int64
	closeCount int
	failWith   error
}

func (f *fakeProducerSession) Produce(ctx context.Context, msg *kafka.OutboundMessage) (kafka.Delivery, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.failWith != nil {
		return kafka.Delivery{Partition: msg.Partition, Status: contracts.NotPersisted}, f.failWith
	}

	partition := msg.Partition
	if partition == contracts.PartitionAny {
		partition = 0
	}

	offset := f.nextOffset
	f.nextOffset++
	f.produced = append(f.produced, msg)

	return kafka.Delivery{
		Partition: partition,
		Offset:    offset,
		Timestamp: time.Now(),
		Status:    contracts.Persisted,
	}, nil
}

func (f *fakeProducerSession) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closeCount++
	return nil
}

func (f *fakeProducerSession) producedCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.produced)
}

// fakeConsumerSession is an in-memory kafka.Consumer fed through a
// channel. Poll returns (nil, nil) on timeout like the real session.
type fakeConsumerSession struct {
	records chan *kafka.Record

	mu      sync.Mutex
	commits [][]contracts.TopicPartitionOffset
	closed  bool
}

func newFakeConsumerSession(buffer int) *fakeConsumerSession {
	return &fakeConsumerSession{records: make(chan *kafka.Record, buffer)}
}

func (f *fakeConsumerSession) Poll(timeout time.Duration) (*kafka.Record, error) {
	select {
	case record := <-f.records:
		return record, nil
	case <-time.After(timeout):
		return nil, nil
	}
}

func (f *fakeConsumerSession) CommitOffsets(ctx context.Context, offsets []contracts.TopicPartitionOffset) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	batch := make([]contracts.TopicPartitionOffset, len(offsets))
	copy(batch, offsets)
	f.commits = append(f.commits, batch)
	return nil
}

func (f *fakeConsumerSession) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeConsumerSession) committed() [][]contracts.TopicPartitionOffset {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([][]contracts.TopicPartitionOffset, len(f.commits))
	copy(out, f.commits)
	return out
}

func (f *fakeConsumerSession) isClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}
