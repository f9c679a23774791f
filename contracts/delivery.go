package contracts

import "time"

// PersistenceStatus reports how confident the broker is that a produced
// message was written durably.
type PersistenceStatus int

const (
	// NotPersisted means the broker rejected the write or reported a
	// delivery failure.
	NotPersisted PersistenceStatus = iota

	// PossiblyPersisted means the write was handed to the broker but
	// confirmation never arrived; the message may or may not exist.
	PossiblyPersisted

	// Persisted means the broker confirmed the write.
	Persisted
)

// String implements fmt.Stringer.
func (s PersistenceStatus) String() string {
	switch s {
	case Persisted:
		return "Persisted"
	case PossiblyPersisted:
		return "PossiblyPersisted"
	case NotPersisted:
		return "NotPersisted"
	default:
		return "Unknown"
	}
}

// TopicPartitionOffset identifies one physical message position on the
// broker. Consumers treat it as an opaque token used only for
// acknowledgment; a token is never reused across messages.
type TopicPartitionOffset struct {
	Topic     string
	Partition int32
	Offset    int64
}

// DeliveryResult describes the outcome of a produce operation: the
// produced data plus the broker-assigned partition, offset, and
// timestamp.
type DeliveryResult struct {
	Topic     string
	Partition int32
	Offset    int64
	Timestamp time.Time
	Status    PersistenceStatus
	Key       []byte
	Message   any
	Headers   Headers
}
