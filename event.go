package eventstore

import "time"

// EventToStore represents an account event that is to be appended to a stream
type EventToStore struct {
	Event any

	// Optional
	ID                 string
	CausationEventID   string
	CorrelationEventID string
	Meta               map[string]string
	OccurredOn         time.Time
}

// StoredEvent holds a decoded event together with its stream position and meta data
type StoredEvent struct {
	Event any
	Meta  map[string]string

	ID                 string
	Sequence           uint64
	Type               string
	CausationEventID   *string
	CorrelationEventID *string
	StreamID           string
	StreamVersion      int
	OccurredOn         time.Time
}
