package domain

import (
	"context"
	"time"
)

// RawEvent is an undecoded message from the updates topic. Commit, when set,
// acknowledges the message to its source.
type RawEvent struct {
	Key       []byte
	Value     []byte
	Headers   map[string]string
	Topic     string
	Partition int
	Offset    int64
	Timestamp time.Time
	Commit    func(ctx context.Context) error
}
