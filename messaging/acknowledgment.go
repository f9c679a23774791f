package messaging

import (
	"context"
	"log/slog"

	"github.com/glimte/kmate-go/contracts"
)

// AckTracker commits consumed offsets explicitly. Handlers use it when
// auto-commit is disabled; an unacknowledged message is redelivered by
// the broker's consumer-group machinery, not by this layer.
// Acknowledgment is a side effect only and never alters pipeline
// control flow.
type AckTracker struct {
	logger *slog.Logger
}

// NewAckTracker creates an acknowledgment tracker.
func NewAckTracker(logger *slog.Logger) *AckTracker {
	if logger == nil {
		logger = slog.Default()
	}
	return &AckTracker{logger: logger}
}

// Ack commits the single offset carried by the context. It fails with a
// *contracts.AcknowledgmentError wrapping contracts.ErrNoSession if no
// consumer session is bound to the context.
func (t *AckTracker) Ack(ctx context.Context, cctx *contracts.ConsumeContext) error {
	token := cctx.OffsetToken()

	committer := cctx.Committer()
	if committer == nil {
		return &contracts.AcknowledgmentError{
			Offsets: []contracts.TopicPartitionOffset{token},
			Err:     contracts.ErrNoSession,
		}
	}

	if err := committer.CommitOffsets(ctx, []contracts.TopicPartitionOffset{token}); err != nil {
		return &contracts.AcknowledgmentError{
			Offsets: []contracts.TopicPartitionOffset{token},
			Err:     err,
		}
	}

	t.logger.Debug("offset acknowledged",
		"topic", token.Topic,
		"partition", token.Partition,
		"offset", token.Offset,
	)
	return nil
}

// AckAll commits the offsets of all given contexts, batching one commit
// request per owning session. An empty set is a no-op.
func (t *AckTracker) AckAll(ctx context.Context, cctxs []*contracts.ConsumeContext) error {
	if len(cctxs) == 0 {
		return nil
	}

	// Group tokens by owning session, preserving first-seen order.
	var order []contracts.OffsetCommitter
	batches := make(map[contracts.OffsetCommitter][]contracts.TopicPartitionOffset)
	for _, cctx := range cctxs {
		committer := cctx.Committer()
		if committer == nil {
			return &contracts.AcknowledgmentError{
				Offsets: []contracts.TopicPartitionOffset{cctx.OffsetToken()},
				Err:     contracts.ErrNoSession,
			}
		}
		if _, seen := batches[committer]; !seen {
			order = append(order, committer)
		}
		batches[committer] = append(batches[committer], cctx.OffsetToken())
	}

	for _, committer := range order {
		tokens := batches[committer]
		if err := committer.CommitOffsets(ctx, tokens); err != nil {
			return &contracts.AcknowledgmentError{Offsets: tokens, Err: err}
		}
		t.logger.Debug("offsets acknowledged", "count", len(tokens))
	}
	return nil
}
