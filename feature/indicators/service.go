package indicators

import (
	"context"
	"errors"
	"time"

	"ioc-sync/core/feed"
	"ioc-sync/core/history"
	"ioc-sync/core/indicator"
	"ioc-sync/core/metrics"
	"ioc-sync/core/policy"
	"ioc-sync/core/prevalence"
	"ioc-sync/core/reconcile"

	"go.uber.org/zap"
)

// ErrHistoryDisabled is returned by History when no run store is configured.
var ErrHistoryDisabled = errors.New("indicators: run history disabled")

// Inventory is the remote store the service reads and writes.
type Inventory interface {
	reconcile.Store
	prevalence.DeviceCounter
	policy.ActionLister
	policy.PlatformLister
	policy.HostGroupResolver
}

// Settings is the static policy of the service.
type Settings struct {
	Policy  policy.Config
	Rollout policy.RolloutConfig
	Safety  policy.SafetyConfig
	Apply   reconcile.Config
}

// FeedPolicy returns the collection policy truncated to limit.
func (s Settings) FeedPolicy(limit int) feed.Policy {
	return feed.Policy{
		ExcludedTools:   s.Safety.ExcludedPlatforms,
		PriorityTools:   s.Rollout.PriorityPlatforms,
		ExcludedDomains: s.Safety.ExcludedDomains,
		Limit:           limit,
	}
}

// Option configures optional collaborators.
type Option func(*Service)

// WithHistory records runs in store.
func WithHistory(store *history.Store) Option {
	return func(s *Service) { s.runs = store }
}

// WithMetrics reports plans, batches and prevalence to m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithSnapshotTTL caches the managed snapshot for read-only plans.
func WithSnapshotTTL(ttl time.Duration) Option {
	return func(s *Service) { s.snapshotTTL = ttl }
}

// Service runs the feed to inventory pipeline.
type Service struct {
	fetcher     feed.Fetcher
	inventory   Inventory
	settings    Settings
	snapshots   *reconcile.SnapshotCache
	snapshotTTL time.Duration
	runs        *history.Store
	metrics     *metrics.Metrics
	archive     *archive
	logger      *zap.Logger
	now         func() time.Time
}

// NewService creates a new indicators service.
func NewService(fetcher feed.Fetcher, inventory Inventory, settings Settings, logger *zap.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Service{
		fetcher:   fetcher,
		inventory: inventory,
		settings:  settings,
		logger:    logger,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.snapshots = reconcile.NewSnapshotCache(inventory, reconcile.SnapshotQuery{}, s.snapshotTTL)
	return s
}

// Collect fetches the feed and returns the ordered desired entries.
func (s *Service) Collect(ctx context.Context, limit int) ([]feed.NormalizedEntry, feed.Stats, error) {
	tools, err := s.fetcher.Fetch(ctx)
	if err != nil {
		return nil, feed.Stats{}, err
	}
	entries, stats := feed.Collect(tools, s.settings.FeedPolicy(limit))
	s.logger.Info("feed collected",
		zap.Int("tools_total", stats.ToolsTotal),
		zap.Int("tools_excluded", stats.ToolsExcluded),
		zap.Int("raw_domains", stats.RawDomains),
		zap.Int("normalized_domains", stats.NormalizedDomains),
		zap.Int("priority_domains", stats.PriorityDomains),
		zap.Int("skipped_placeholders", stats.SkippedPlaceholders),
		zap.Int("skipped_ipv4", stats.SkippedIPv4),
		zap.Int("skipped_excluded_domains", stats.SkippedExcludedDomains),
		zap.Int("deduped", stats.Deduped))
	return entries, stats, nil
}

// Resolution is the policy resolved against the tenant for one run.
type Resolution struct {
	Action       string   `json:"action"`
	Platforms    []string `json:"platforms"`
	HostGroupIDs []string `json:"host_group_ids"`
}

// Resolve looks up the stage action, the platforms and the host-group ids.
func (s *Service) Resolve(ctx context.Context, stage policy.Stage, scope policy.Scope) (*Resolution, error) {
	ids, err := policy.ResolveHostGroupIDs(ctx, s.inventory, scope, s.logger)
	if err != nil {
		return nil, err
	}
	action, err := policy.ResolveActionFrom(ctx, s.inventory, stage, s.settings.Policy.Policy(), s.logger)
	if err != nil {
		return nil, err
	}
	platforms, err := policy.ResolvePlatformsFrom(ctx, s.inventory, s.logger)
	if err != nil {
		return nil, err
	}
	s.logger.Info("policy resolved",
		zap.String("stage", stage.String()),
		zap.String("action", action),
		zap.Strings("platforms", platforms),
		zap.Strings("host_group_ids", ids),
		zap.String("severity", indicator.DefaultSeverity),
		zap.String("source", indicator.ProjectSource))
	return &Resolution{Action: action, Platforms: platforms, HostGroupIDs: ids}, nil
}

// Desired builds the desired records for entries under res.
func Desired(entries []feed.NormalizedEntry, res *Resolution) []indicator.Record {
	return indicator.BuildAll(entries, res.Action, res.Platforms, res.HostGroupIDs)
}

// Preview is a dry-run plan computed from the cached snapshot.
type Preview struct {
	Stage      string                  `json:"stage"`
	Action     string                  `json:"action"`
	Summary    reconcile.PlanSummary   `json:"summary"`
	Sample     *reconcile.DryRunSample `json:"sample"`
	Duplicates int                     `json:"duplicates"`
	Existing   int                     `json:"existing"`
}

// Preview computes what a dry run of stage would change.
func (s *Service) Preview(ctx context.Context, stage policy.Stage, scope policy.Scope, prune bool) (*Preview, error) {
	entries, _, err := s.Collect(ctx, 0)
	if err != nil {
		return nil, err
	}
	res, err := s.Resolve(ctx, stage, scope)
	if err != nil {
		return nil, err
	}
	existing, err := s.snapshots.Get(ctx)
	if err != nil {
		return nil, err
	}

	plan := reconcile.Plan(Desired(entries, res), existing, prune)
	s.observePlan(stage, plan)
	result, err := reconcile.ApplyPlan(ctx, s.inventory, plan, reconcile.ReconcileOptions{DryRun: true}, s.logger)
	if err != nil {
		return nil, err
	}
	return &Preview{
		Stage:      stage.String(),
		Action:     res.Action,
		Summary:    plan.Summary,
		Sample:     result.Sample,
		Duplicates: len(plan.Duplicates),
		Existing:   plan.Existing,
	}, nil
}

// Prevalence evaluates the desired domains against device telemetry.
func (s *Service) Prevalence(ctx context.Context, threshold, maxItems int) (*prevalence.Report, error) {
	entries, _, err := s.Collect(ctx, 0)
	if err != nil {
		return nil, err
	}
	report, err := prevalence.Evaluate(ctx, s.inventory, entries, threshold, maxItems, s.logger)
	if err != nil {
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.ObservePrevalence(report)
	}
	return report, nil
}

// Status reports the managed record count in the tenant.
type Status struct {
	Source     string `json:"source"`
	Managed    int    `json:"managed"`
	Duplicates int    `json:"duplicates"`
}

// Status counts the managed records.
func (s *Service) Status(ctx context.Context) (*Status, error) {
	existing, err := s.snapshots.Get(ctx)
	if err != nil {
		return nil, err
	}
	plan := reconcile.PlanRemoval(existing)
	dup := reconcile.Plan(nil, existing, false)
	return &Status{
		Source:     indicator.ProjectSource,
		Managed:    len(plan.Deletes),
		Duplicates: len(dup.Duplicates),
	}, nil
}

// History returns the most recent runs, newest first.
func (s *Service) History(ctx context.Context, limit int) ([]history.Run, error) {
	if s.runs == nil {
		return nil, ErrHistoryDisabled
	}
	return s.runs.Recent(ctx, limit)
}

func (s *Service) observePlan(stage policy.Stage, plan *reconcile.ReconcilePlan) {
	for _, d := range plan.Duplicates {
		s.logger.Warn("duplicate managed records share a key",
			zap.String("value", d.Key.Value),
			zap.Strings("ids", d.IDs),
			zap.String("kept", d.Kept))
	}
	if s.metrics != nil {
		s.metrics.ObservePlan(stage.String(), plan)
	}
}

func (s *Service) record(ctx context.Context, run *history.Run) {
	if s.runs == nil {
		return
	}
	if err := s.runs.Record(ctx, run); err != nil {
		s.logger.Warn("failed to record run", zap.Error(err))
	}
}
