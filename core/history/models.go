package history

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Run is one recorded sync run.
type Run struct {
	ID            string    `gorm:"type:char(36);primaryKey" json:"id"`
	Command       string    `gorm:"size:32" json:"command"`
	Stage         string    `gorm:"size:16;index" json:"stage"`
	Action        string    `gorm:"size:32" json:"action"`
	DryRun        bool      `json:"dry_run"`
	Prune         bool      `json:"prune"`
	Creates       int       `json:"creates"`
	Updates       int       `json:"updates"`
	Deletes       int       `json:"deletes"`
	Unchanged     int       `json:"unchanged"`
	FailedBatches int       `json:"failed_batches"`
	Error         string    `gorm:"type:text" json:"error,omitempty"`
	Summary       string    `gorm:"type:text" json:"-"`
	SummaryObject string    `gorm:"size:255" json:"summary_object,omitempty"`
	StartedAt     time.Time `gorm:"index" json:"started_at"`
	FinishedAt    time.Time `json:"finished_at"`
}

// TableName pins the table name.
func (Run) TableName() string {
	return "ioc_sync_runs"
}

// BeforeCreate assigns a random id when none is set.
func (r *Run) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}

// Duration is the wall time of the run.
func (r Run) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}
