package history

import (
	"context"
	"fmt"

	"ioc-sync/core/reconcile"
	"ioc-sync/core/report"

	"gorm.io/gorm"
)

// DefaultLimit is the number of runs returned by Recent when no limit is given.
const DefaultLimit = 20

// Store reads and writes the run ledger.
type Store struct {
	db *gorm.DB
}

// NewStore creates a store over db.
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Migrate creates or updates the ledger table.
func (s *Store) Migrate(ctx context.Context) error {
	if err := s.db.WithContext(ctx).AutoMigrate(&Run{}); err != nil {
		return fmt.Errorf("migrate run history: %w", err)
	}
	return nil
}

// Record inserts a run.
func (s *Store) Record(ctx context.Context, run *Run) error {
	if err := s.db.WithContext(ctx).Create(run).Error; err != nil {
		return fmt.Errorf("record run: %w", err)
	}
	return nil
}

// Recent returns the latest runs, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	var runs []Run
	if err := s.db.WithContext(ctx).Order("started_at DESC").Limit(limit).Find(&runs).Error; err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	return runs, nil
}

// Get returns one run by id.
func (s *Store) Get(ctx context.Context, id string) (*Run, error) {
	var run Run
	if err := s.db.WithContext(ctx).First(&run, "id = ?", id).Error; err != nil {
		return nil, fmt.Errorf("get run %s: %w", id, err)
	}
	return &run, nil
}

// FromSummary fills a run's counters from a summary and apply result.
// result may be nil for dry runs and read-only stages.
func FromSummary(run *Run, s report.Summary, result *reconcile.ApplyResult) error {
	data, err := report.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode summary: %w", err)
	}
	run.Stage = s.Stage
	run.Action = s.Action
	run.DryRun = s.DryRun
	run.Summary = string(data)
	if plan, ok := s.SyncPlan.(reconcile.PlanSummary); ok {
		run.Creates = plan.Create
		run.Updates = plan.Update
		run.Deletes = plan.Delete
		run.Unchanged = plan.Unchanged
	}
	if result != nil {
		run.FailedBatches = result.FailedBatches()
	}
	return nil
}
