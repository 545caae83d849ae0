// Package reconcile converges the remote indicator inventory onto the desired
// indicator set.
//
// Reconciliation is desired-state driven rather than imperative: every run
// rebuilds the desired records from the feed, loads a snapshot of the records
// this project manages, and computes the minimal set of create, update and
// delete operations between the two.
//
// # Architecture
//
// The package consists of three parts:
//
// 1. Snapshot: paginated listing of managed records, deduplicated by id. A
// failed page aborts the run since no plan can be computed from a partial view.
//
// 2. Engine: Plan matches desired and existing records by (kind, lowercase value),
// compares a fixed field set (lists as case-insensitive sets) and classifies each
// key as create, update, unchanged or, when pruning, delete. Plan is a pure
// function of its inputs.
//
// 3. Applier: ApplyPlan submits the plan in bounded batches. A failing batch is
// logged and recorded, never retried, and never stops the batches after it.
// Mutation requires Confirmed; DryRun never mutates.
//
// # Usage Example
//
//	plan, err := reconcile.ReconcileWithPlan(ctx, client, desired, opts)
//	if err != nil {
//	    return err
//	}
//	result, err := reconcile.ApplyPlan(ctx, client, plan, opts, logger)
package reconcile
