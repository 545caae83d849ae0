package indicators

import (
	"context"
	"fmt"

	"ioc-sync/core/history"
	"ioc-sync/core/indicator"
	"ioc-sync/core/policy"
	"ioc-sync/core/prevalence"
	"ioc-sync/core/reconcile"
	"ioc-sync/core/report"
	"ioc-sync/core/storage"

	"go.uber.org/zap"
)

// Command names recorded in the run history.
const (
	CommandSync      = "sync"
	CommandRemoveAll = "remove-all"
)

// RunOptions are the per-invocation choices of a sync run.
type RunOptions struct {
	Stage        policy.Stage
	Scope        policy.Scope
	Limit        int
	DryRun       bool
	Confirmed    bool
	Prune        bool
	Retrodetects bool
	Comment      string

	SkipPrevalence      bool
	PrevalenceThreshold int
	PrevalenceMax       int
}

// Outcome is everything a run produced. Plan and Result are nil in the
// assess stage; Prevalence is nil outside it or when skipped.
type Outcome struct {
	Summary    report.Summary
	Resolution *Resolution
	Plan       *reconcile.ReconcilePlan
	Result     *reconcile.ApplyResult
	Prevalence *prevalence.Report
	RunID      string
	Archived   string
}

// WithArchive uploads every run summary to bucket under prefix and keeps
// the newest keep objects.
func WithArchive(client storage.Client, bucket, prefix string, keep int) Option {
	return func(s *Service) {
		s.archive = &archive{client: client, bucket: bucket, prefix: prefix, keep: keep}
	}
}

type archive struct {
	client storage.Client
	bucket string
	prefix string
	keep   int
}

// Run executes one sync run. Write stages require opts.DryRun or
// opts.Confirmed; the check happens before any remote call.
func (s *Service) Run(ctx context.Context, opts RunOptions) (*Outcome, error) {
	if opts.Stage.IsWrite() && !opts.DryRun && !opts.Confirmed {
		return nil, reconcile.ErrNotConfirmed
	}

	run := &history.Run{
		Command:   CommandSync,
		Stage:     opts.Stage.String(),
		DryRun:    opts.DryRun,
		Prune:     opts.Prune,
		StartedAt: s.now(),
	}
	out, err := s.run(ctx, opts)
	s.finish(ctx, run, out, err)
	return out, err
}

func (s *Service) run(ctx context.Context, opts RunOptions) (*Outcome, error) {
	entries, stats, err := s.Collect(ctx, opts.Limit)
	if err != nil {
		return nil, fmt.Errorf("collect feed: %w", err)
	}

	res, err := s.Resolve(ctx, opts.Stage, opts.Scope)
	if err != nil {
		return nil, fmt.Errorf("resolve policy: %w", err)
	}

	out := &Outcome{Resolution: res}
	in := report.Input{
		Entries:      entries,
		Stats:        stats,
		Stage:        opts.Stage,
		Action:       res.Action,
		DryRun:       opts.DryRun,
		Scope:        &opts.Scope,
		HostGroupIDs: res.HostGroupIDs,
		Now:          s.now(),
	}

	if opts.Stage == policy.StageAssess {
		if opts.SkipPrevalence {
			s.logger.Info("assess stage selected and prevalence report skipped")
		} else {
			threshold, maxItems := s.prevalenceLimits(opts)
			rep, err := prevalence.Evaluate(ctx, s.inventory, entries, threshold, maxItems, s.logger)
			if err != nil {
				return nil, fmt.Errorf("prevalence report: %w", err)
			}
			if s.metrics != nil {
				s.metrics.ObservePrevalence(rep)
			}
			out.Prevalence = rep
			in.Prevalence = rep
		}
		out.Summary = report.Build(in)
		return out, nil
	}

	ropts := s.settings.Apply.Options()
	ropts.DryRun = opts.DryRun
	ropts.Confirmed = opts.Confirmed
	ropts.DoPrune = opts.Prune
	ropts.Retrodetects = opts.Retrodetects
	ropts.Comment = opts.Comment

	plan, err := reconcile.ReconcileWithPlan(ctx, s.inventory, Desired(entries, res), ropts)
	if err != nil {
		return nil, fmt.Errorf("load managed snapshot: %w", err)
	}
	s.observePlan(opts.Stage, plan)
	out.Plan = plan
	in.Plan = &plan.Summary

	result, err := reconcile.ApplyPlan(ctx, s.inventory, plan, ropts, s.logger)
	if !opts.DryRun {
		s.snapshots.Invalidate()
	}
	if s.metrics != nil {
		s.metrics.ObserveApply(result)
	}
	out.Result = result
	if result != nil {
		in.FailedBatches = result.FailedBatches()
	}
	out.Summary = report.Build(in)
	if err != nil {
		return out, fmt.Errorf("apply plan: %w", err)
	}
	return out, nil
}

func (s *Service) prevalenceLimits(opts RunOptions) (int, int) {
	threshold, maxItems := opts.PrevalenceThreshold, opts.PrevalenceMax
	if threshold <= 0 {
		threshold = s.settings.Policy.PrevalenceThreshold
	}
	if maxItems <= 0 {
		maxItems = s.settings.Policy.PrevalenceMax
	}
	return threshold, maxItems
}

// RemoveOptions gate a remove-all run.
type RemoveOptions struct {
	DryRun    bool
	Confirmed bool
}

// RemoveAll deletes every managed record.
func (s *Service) RemoveAll(ctx context.Context, opts RemoveOptions) (*Outcome, error) {
	run := &history.Run{
		Command:   CommandRemoveAll,
		Stage:     CommandRemoveAll,
		DryRun:    opts.DryRun,
		Prune:     true,
		StartedAt: s.now(),
	}

	ropts := s.settings.Apply.Options()
	ropts.DryRun = opts.DryRun
	ropts.Confirmed = opts.Confirmed

	plan, result, err := reconcile.RemoveAll(ctx, s.inventory, ropts, s.logger)
	var out *Outcome
	if plan != nil {
		s.logger.Info("managed records found",
			zap.Int("count", plan.Existing),
			zap.String("source", indicator.ProjectSource))
		out = &Outcome{Plan: plan, Result: result}
		in := report.Input{Action: "delete", DryRun: opts.DryRun, Plan: &plan.Summary, Now: s.now()}
		in.Stage = policy.Stage(CommandRemoveAll)
		if result != nil {
			in.FailedBatches = result.FailedBatches()
		}
		out.Summary = report.Build(in)
	}
	if !opts.DryRun && result != nil {
		s.snapshots.Invalidate()
	}
	if s.metrics != nil {
		s.metrics.ObserveApply(result)
	}
	if err != nil {
		err = fmt.Errorf("remove all: %w", err)
	}
	s.finish(ctx, run, out, err)
	return out, err
}

// finish archives the summary, records the run and reports its metrics.
func (s *Service) finish(ctx context.Context, run *history.Run, out *Outcome, err error) {
	run.FinishedAt = s.now()
	if err != nil {
		run.Error = err.Error()
	}
	if out != nil {
		if ferr := history.FromSummary(run, out.Summary, out.Result); ferr != nil {
			s.logger.Warn("failed to encode run summary", zap.Error(ferr))
		}
		out.Archived = s.upload(ctx, out.Summary)
		run.SummaryObject = out.Archived
	}
	s.record(ctx, run)
	if out != nil {
		out.RunID = run.ID
	}
	if s.metrics != nil {
		s.metrics.ObserveRun(run.Command, run.Duration(), err)
	}
}

func (s *Service) upload(ctx context.Context, summary report.Summary) string {
	if s.archive == nil {
		return ""
	}
	object := report.ObjectName(s.archive.prefix, summary)
	if _, err := report.Upload(ctx, s.archive.client, s.archive.bucket, object, summary); err != nil {
		s.logger.Warn("failed to archive run summary", zap.String("object", object), zap.Error(err))
		return ""
	}
	prefix := s.archive.prefix
	if prefix != "" {
		prefix += "/"
	}
	removed, err := storage.Retain(ctx, s.archive.client, s.archive.bucket, prefix, s.archive.keep)
	if err != nil {
		s.logger.Warn("failed to prune archived summaries", zap.Error(err))
	} else if len(removed) > 0 {
		s.logger.Debug("pruned archived summaries", zap.Int("count", len(removed)))
	}
	return object
}
