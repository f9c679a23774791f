package contracts

import (
	"errors"
	"fmt"
)

// ErrNoSession is returned when an acknowledgment is attempted before a
// consumer session exists for the message's context.
var ErrNoSession = errors.New("no consumer session bound to context")

// HandleCreationError reports a failure to build a broker session while
// resolving a producer or consumer handle. It is surfaced synchronously
// to the caller that triggered creation.
type HandleCreationError struct {
	Role    string // "producer" or "consumer"
	TypeKey string
	Err     error
}

// Error implements error.
func (e *HandleCreationError) Error() string {
	return fmt.Sprintf("failed to create %s handle for %q: %v", e.Role, e.TypeKey, e.Err)
}

// Unwrap returns the underlying cause.
func (e *HandleCreationError) Unwrap() error { return e.Err }

// ProduceError reports that the broker rejected or could not confirm a
// write. The middleware never retries; the error is the caller's to
// handle.
type ProduceError struct {
	Topic     string
	Partition int32
	Err       error
}

// Error implements error.
func (e *ProduceError) Error() string {
	if e.Partition == PartitionAny {
		return fmt.Sprintf("produce to %q failed: %v", e.Topic, e.Err)
	}
	return fmt.Sprintf("produce to %q partition %d failed: %v", e.Topic, e.Partition, e.Err)
}

// Unwrap returns the underlying cause.
func (e *ProduceError) Unwrap() error { return e.Err }

// AcknowledgmentError reports a failed offset commit.
type AcknowledgmentError struct {
	Offsets []TopicPartitionOffset
	Err     error
}

// Error implements error.
func (e *AcknowledgmentError) Error() string {
	return fmt.Sprintf("failed to acknowledge %d offset(s): %v", len(e.Offsets), e.Err)
}

// Unwrap returns the underlying cause.
func (e *AcknowledgmentError) Unwrap() error { return e.Err }
