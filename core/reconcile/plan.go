package reconcile

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ioc-sync/core/indicator"

	"go.uber.org/zap"
)

// ErrNotConfirmed is returned when a non-dry-run apply lacks confirmation.
var ErrNotConfirmed = errors.New("reconcile: write not confirmed")

// DefaultComment returns the batch comment attached to a run started at t.
func DefaultComment(t time.Time) string {
	return fmt.Sprintf("%s sync_%s", indicator.DescriptionPrefix, t.UTC().Format("20060102"))
}

// ReconcileWithPlan loads the managed snapshot and computes the plan for desired.
// It does NOT execute actions; use ApplyPlan for that.
func ReconcileWithPlan(ctx context.Context, lister Lister, desired []indicator.Record, opts ReconcileOptions) (*ReconcilePlan, error) {
	existing, err := LoadSnapshot(ctx, lister, SnapshotQuery{})
	if err != nil {
		return nil, err
	}
	return Plan(desired, existing, opts.DoPrune), nil
}

// ApplyPlan submits the plan in batches: creates, then updates, then deletes.
//
// A dry run returns bounded samples and never calls the mutator. Otherwise
// opts.Confirmed is required. A failed batch is logged and recorded in the
// result; later batches still run. The returned error is non-nil only for
// refusal or context cancellation.
func ApplyPlan(ctx context.Context, mutator Mutator, plan *ReconcilePlan, opts ReconcileOptions, log *zap.Logger) (*ApplyResult, error) {
	if log == nil {
		log = zap.NewNop()
	}
	result := &ApplyResult{Summary: plan.Summary, DryRun: opts.DryRun}

	if opts.DryRun {
		result.Sample = sample(plan)
		log.Info("dry run, no changes submitted",
			zap.Int("create", plan.Summary.Create),
			zap.Int("update", plan.Summary.Update),
			zap.Int("delete", plan.Summary.Delete),
			zap.Int("unchanged", plan.Summary.Unchanged))
		return result, nil
	}
	if !opts.Confirmed {
		return nil, ErrNotConfirmed
	}

	comment := opts.Comment
	if comment == "" {
		comment = DefaultComment(time.Now())
	}
	mopts := MutationOptions{Comment: comment, Retrodetects: opts.Retrodetects, IgnoreWarnings: true}
	createSize, updateSize, deleteSize := opts.chunkSizes()

	for i, batch := range chunk(plan.Creates, createSize) {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		resp, err := call(ctx, opts.CallTimeout, func(c context.Context) (BatchResponse, error) {
			return mutator.CreateIndicators(c, batch, mopts)
		})
		result.Batches = append(result.Batches, record(log, ActionCreate, i, len(batch), resp, err, samplePayload(batch)))
	}

	updates := make([]indicator.Record, len(plan.Updates))
	for i, u := range plan.Updates {
		updates[i] = u.Record
	}
	for i, batch := range chunk(updates, updateSize) {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		resp, err := call(ctx, opts.CallTimeout, func(c context.Context) (BatchResponse, error) {
			return mutator.UpdateIndicators(c, batch, mopts)
		})
		result.Batches = append(result.Batches, record(log, ActionUpdate, i, len(batch), resp, err, samplePayload(batch)))
	}

	for i, batch := range chunk(plan.Deletes, deleteSize) {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		resp, err := call(ctx, opts.CallTimeout, func(c context.Context) (BatchResponse, error) {
			return mutator.DeleteIndicators(c, batch)
		})
		result.Batches = append(result.Batches, record(log, ActionDelete, i, len(batch), resp, err, nil))
	}

	return result, nil
}

// ReconcileAndApply is a convenience wrapper that plans and optionally applies actions.
func ReconcileAndApply(ctx context.Context, store Store, desired []indicator.Record, opts ReconcileOptions, log *zap.Logger) (*ReconcilePlan, *ApplyResult, error) {
	plan, err := ReconcileWithPlan(ctx, store, desired, opts)
	if err != nil {
		return nil, nil, err
	}
	result, err := ApplyPlan(ctx, store, plan, opts, log)
	return plan, result, err
}

// RemoveAll deletes every managed record in the snapshot, in delete-sized batches.
// It honors DryRun and Confirmed like ApplyPlan.
func RemoveAll(ctx context.Context, store Store, opts ReconcileOptions, log *zap.Logger) (*ReconcilePlan, *ApplyResult, error) {
	existing, err := LoadSnapshot(ctx, store, SnapshotQuery{})
	if err != nil {
		return nil, nil, err
	}
	plan := PlanRemoval(existing)
	result, err := ApplyPlan(ctx, store, plan, opts, log)
	return plan, result, err
}

func call(ctx context.Context, timeout time.Duration, fn func(context.Context) (BatchResponse, error)) (BatchResponse, error) {
	if timeout <= 0 {
		return fn(ctx)
	}
	c, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return fn(c)
}

func record(log *zap.Logger, action ActionType, index, size int, resp BatchResponse, err error, payload map[string]any) BatchResult {
	br := BatchResult{Action: action, Index: index, Size: size, Errors: resp.Errors}
	fields := []zap.Field{
		zap.String("action", string(action)),
		zap.Int("batch", index),
		zap.Int("size", size),
	}
	switch {
	case err != nil:
		br.Err = err.Error()
		log.Error("batch failed", append(fields, zap.Error(err), zap.Any("sample_payload", payload))...)
	case len(resp.Errors) > 0:
		msgs := make([]string, len(resp.Errors))
		for i, e := range resp.Errors {
			msgs[i] = e.String()
		}
		log.Error("batch reported item errors", append(fields, zap.Strings("errors", msgs), zap.Any("sample_payload", payload))...)
	default:
		log.Info("batch submitted", fields...)
	}
	return br
}

func samplePayload(batch []indicator.Record) map[string]any {
	if len(batch) == 0 {
		return nil
	}
	return batch[0].Payload()
}

func sample(plan *ReconcilePlan) *DryRunSample {
	s := &DryRunSample{Creates: []string{}, Updates: []UpdateSample{}, Deletes: []string{}}
	for _, rec := range plan.Creates[:min(len(plan.Creates), sampleSize)] {
		s.Creates = append(s.Creates, rec.Value)
	}
	for _, u := range plan.Updates[:min(len(plan.Updates), sampleSize)] {
		s.Updates = append(s.Updates, UpdateSample{Value: u.Record.Value, Fields: u.Changes})
	}
	s.Deletes = append(s.Deletes, plan.Deletes[:min(len(plan.Deletes), sampleSize)]...)
	return s
}

// chunk splits items into consecutive slices of at most size elements.
func chunk[T any](items []T, size int) [][]T {
	var out [][]T
	for start := 0; start < len(items); start += size {
		end := min(start+size, len(items))
		out = append(out, items[start:end])
	}
	return out
}
