package model

import (
	"time"

	"github.com/google/uuid"
)

// Run statuses. A run either completes fully, completes partially with an
// explicit account of what was skipped, or fails before finishing.
const (
	RunRunning   = "running"
	RunCompleted = "completed"
	RunPartial   = "partial"
	RunFailed    = "failed"
)

// Run is the persisted report for one collection run.
type Run struct {
	RunID            uuid.UUID     `json:"runId"`
	StartedAt        time.Time     `json:"startedAt"`
	FinishedAt       *time.Time    `json:"finishedAt,omitempty"`
	Status           string        `json:"status"`
	ChannelsPlanned  int           `json:"channelsPlanned"`
	VideosFetched    int           `json:"videosFetched"`
	CommentsFetched  int           `json:"commentsFetched"`
	SnapshotsWritten int           `json:"snapshotsWritten"`
	MentionsWritten  int           `json:"mentionsWritten"`
	MetricsWritten   int           `json:"metricsWritten"`
	ItemsSkipped     int           `json:"itemsSkipped"`
	QuotaUsed        int           `json:"quotaUsed"`
	Error            *string       `json:"error,omitempty"`
	Skipped          []SkippedItem `json:"skipped,omitempty"`
}
