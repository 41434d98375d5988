package entity

import (
	"time"

	"github.com/google/uuid"
)

// Status tracks an outbox row: pending -> processing (claimed by the relay)
// -> dispatched (on the broker) -> processed | failed.
type Status string

const (
	Pending    Status = "pending"
	Processing Status = "processing"
	Dispatched Status = "dispatched"
	Processed  Status = "processed"
	Failed     Status = "failed"
)

// QueuedJob is a derivation job persisted in the outbox until it is visible and published.
type QueuedJob struct {
	ID          uuid.UUID  `json:"id"`
	Queue       string     `json:"queue"`
	Payload     []byte     `json:"payload"`
	Status      Status     `json:"status"`
	VisibleAt   time.Time  `json:"visible_at"`
	CreatedAt   time.Time  `json:"created_at"`
	ClaimedAt   *time.Time `json:"claimed_at,omitempty"`
	ProcessedAt *time.Time `json:"processed_at,omitempty"`
	RetryCount  int        `json:"retry_count"`
	LastError   *string    `json:"last_error,omitempty"`
}
