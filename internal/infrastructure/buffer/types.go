package buffer

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// DefaultBucket holds pending remote writes.
const DefaultBucket = "outbox"

// Item represents a remote write that must be replayed once the remote store is reachable.
type Item struct {
	ID        string          `json:"id"`
	TaskID    string          `json:"task_id,omitempty"`
	Operation string          `json:"operation"`
	Data      json.RawMessage `json:"data,omitempty"`
	Retries   int             `json:"retries"`
	Timestamp time.Time       `json:"timestamp"`

	bucketKey []byte
}

func (i *Item) normalize() {
	if i.ID == "" {
		i.ID = uuid.NewString()
	}
	if i.Timestamp.IsZero() {
		i.Timestamp = time.Now()
	}
}
