package messaging

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glimte/kmate-go/contracts"
)

func consumeContextFor(session *fakeConsumerSession, offset int64) *contracts.ConsumeContext {
	token := contracts.TopicPartitionOffset{Topic: "orders", Partition: 0, Offset: offset}
	return contracts.NewConsumeContext(token, nil, &orderCreated{}, nil, time.Now(), session)
}

func TestAckTracker(t *testing.T) {
	t.Run("Ack commits the single offset token", func(t *testing.T) {
		session := newFakeConsumerSession(0)
		tracker := NewAckTracker(nil)

		err := tracker.Ack(context.Background(), consumeContextFor(session, 7))

		require.NoError(t, err)
		commits := session.committed()
		require.Len(t, commits, 1)
		assert.Equal(t, []contracts.TopicPartitionOffset{
			{Topic: "orders", Partition: 0, Offset: 7},
		}, commits[0])
	})

	t.Run("Ack without a session fails with ErrNoSession", func(t *testing.T) {
		tracker := NewAckTracker(nil)
		token := contracts.TopicPartitionOffset{Topic: "orders", Partition: 0, Offset: 7}
		cctx := contracts.NewConsumeContext(token, nil, &orderCreated{}, nil, time.Now(), nil)

		err := tracker.Ack(context.Background(), cctx)

		var ackErr *contracts.AcknowledgmentError
		require.ErrorAs(t, err, &ackErr)
		assert.ErrorIs(t, err, contracts.ErrNoSession)
	})

	t.Run("Ack wraps commit failures", func(t *testing.T) {
		session := newFakeConsumerSession(0)
		tracker := NewAckTracker(nil)
		commitErr := errors.New("coordinator moved")

		failing := &failingCommitter{inner: session, err: commitErr}
		token := contracts.TopicPartitionOffset{Topic: "orders", Partition: 0, Offset: 7}
		cctx := contracts.NewConsumeContext(token, nil, &orderCreated{}, nil, time.Now(), failing)

		err := tracker.Ack(context.Background(), cctx)

		var ackErr *contracts.AcknowledgmentError
		require.ErrorAs(t, err, &ackErr)
		assert.ErrorIs(t, err, commitErr)
	})

	t.Run("AckAll batches tokens into one request per session", func(t *testing.T) {
		session := newFakeConsumerSession(0)
		tracker := NewAckTracker(nil)

		err := tracker.AckAll(context.Background(), []*contracts.ConsumeContext{
			consumeContextFor(session, 1),
			consumeContextFor(session, 2),
			consumeContextFor(session, 3),
		})

		require.NoError(t, err)
		commits := session.committed()
		require.Len(t, commits, 1)
		assert.Equal(t, []contracts.TopicPartitionOffset{
			{Topic: "orders", Partition: 0, Offset: 1},
			{Topic: "orders", Partition: 0, Offset: 2},
			{Topic: "orders", Partition: 0, Offset: 3},
		}, commits[0])
	})

	t.Run("AckAll groups tokens by owning session", func(t *testing.T) {
		sessionA := newFakeConsumerSession(0)
		sessionB := newFakeConsumerSession(0)
		tracker := NewAckTracker(nil)

		err := tracker.AckAll(context.Background(), []*contracts.ConsumeContext{
			consumeContextFor(sessionA, 1),
			consumeContextFor(sessionB, 5),
			consumeContextFor(sessionA, 2),
		})

		require.NoError(t, err)
		require.Len(t, sessionA.committed(), 1)
		require.Len(t, sessionB.committed(), 1)
		assert.Len(t, sessionA.committed()[0], 2)
		assert.Len(t, sessionB.committed()[0], 1)
	})

	t.Run("AckAll with empty set is a no-op", func(t *testing.T) {
		tracker := NewAckTracker(nil)

		assert.NoError(t, tracker.AckAll(context.Background(), nil))
	})
}

type failingCommitter struct {
	inner contracts.OffsetCommitter
	err   error
}

func (f *failingCommitter) CommitOffsets(ctx context.Context, offsets []contracts.TopicPartitionOffset) error {
	return f.err
}
