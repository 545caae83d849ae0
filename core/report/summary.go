package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"ioc-sync/core/feed"
	"ioc-sync/core/policy"
	"ioc-sync/core/prevalence"
	"ioc-sync/core/reconcile"
)

// SchemaVersion is the version of the summary layout.
const SchemaVersion = "1.0"

// Status values for sections that did not run.
const (
	StatusNotApplicable = "not_applicable"
	StatusSkipped       = "skipped"
)

// Counts summarizes the selected entries.
type Counts struct {
	Selected     int `json:"selected"`
	Safe         int `json:"safe"`
	Unsafe       int `json:"unsafe"`
	PriorityHits int `json:"priority_hits"`
}

// Status stands in for a section that did not run.
type Status struct {
	Status string `json:"status"`
}

// ScopeInfo records the host-group scope of a run.
type ScopeInfo struct {
	Global       bool     `json:"global"`
	HostGroups   []string `json:"host_groups"`
	HostGroupIDs []string `json:"host_group_ids"`
}

// Summary is the flat run record.
type Summary struct {
	SchemaVersion string     `json:"summary_schema_version"`
	GeneratedAt   string     `json:"generated_at"`
	Counts        Counts     `json:"counts"`
	SourceStats   feed.Stats `json:"source_stats"`

	// SyncPlan is a reconcile.PlanSummary or a Status.
	SyncPlan any `json:"sync_plan"`

	// PrevalenceStats is a prevalence.Report or a Status.
	PrevalenceStats any `json:"prevalence_stats"`

	Stage         string     `json:"stage"`
	Action        string     `json:"action"`
	DryRun        bool       `json:"dry_run"`
	Scope         *ScopeInfo `json:"scope,omitempty"`
	FailedBatches int        `json:"failed_batches"`
}

// Input gathers everything a summary is built from. Nil Plan or Prevalence
// marks the section as not run.
type Input struct {
	Entries       []feed.NormalizedEntry
	Stats         feed.Stats
	Stage         policy.Stage
	Action        string
	DryRun        bool
	Plan          *reconcile.PlanSummary
	Prevalence    *prevalence.Report
	Scope         *policy.Scope
	HostGroupIDs  []string
	FailedBatches int
	Now           time.Time
}

// Build assembles the summary.
func Build(in Input) Summary {
	now := in.Now
	if now.IsZero() {
		now = time.Now()
	}

	var counts Counts
	counts.Selected = len(in.Entries)
	for _, e := range in.Entries {
		if feed.IsSafeDomainForm(e.Domain) {
			counts.Safe++
		}
		if e.Priority {
			counts.PriorityHits++
		}
	}
	counts.Unsafe = counts.Selected - counts.Safe

	s := Summary{
		SchemaVersion:   SchemaVersion,
		GeneratedAt:     now.UTC().Format("2006-01-02T15:04:05Z"),
		Counts:          counts,
		SourceStats:     in.Stats,
		SyncPlan:        Status{Status: StatusNotApplicable},
		PrevalenceStats: Status{Status: StatusSkipped},
		Stage:           orUnknown(string(in.Stage)),
		Action:          orUnknown(in.Action),
		DryRun:          in.DryRun,
		FailedBatches:   in.FailedBatches,
	}
	if in.Plan != nil {
		s.SyncPlan = *in.Plan
	}
	if in.Prevalence != nil {
		s.PrevalenceStats = *in.Prevalence
	}
	if in.Scope != nil {
		ids := in.HostGroupIDs
		if ids == nil {
			ids = []string{}
		}
		s.Scope = &ScopeInfo{Global: in.Scope.Global(), HostGroups: in.Scope.Names, HostGroupIDs: ids}
	}
	return s
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}

// WriteText prints the operator-facing run summary.
func WriteText(w io.Writer, s Summary) error {
	var b strings.Builder
	b.WriteString("Run Summary\n")
	fmt.Fprintf(&b, "- Stage: %s | Action: %s | Dry run: %t\n", s.Stage, s.Action, s.DryRun)
	if s.Scope != nil {
		if s.Scope.Global {
			b.WriteString("- Scope: global\n")
		} else {
			fmt.Fprintf(&b, "- Scope: host-groups (%d)\n", len(s.Scope.HostGroups))
		}
		if len(s.Scope.HostGroupIDs) > 0 {
			fmt.Fprintf(&b, "- Host group IDs: %s\n", strings.Join(s.Scope.HostGroupIDs, ", "))
		}
	}
	fmt.Fprintf(&b, "- Indicators: selected=%d, priority=%d, safe=%d, unsafe=%d\n",
		s.Counts.Selected, s.Counts.PriorityHits, s.Counts.Safe, s.Counts.Unsafe)
	fmt.Fprintf(&b, "- Source stats: raw_domains=%d, normalized_domains=%d, deduped=%d\n",
		s.SourceStats.RawDomains, s.SourceStats.NormalizedDomains, s.SourceStats.Deduped)

	switch plan := s.SyncPlan.(type) {
	case reconcile.PlanSummary:
		fmt.Fprintf(&b, "- Sync plan: create=%d, update=%d, unchanged=%d, delete=%d\n",
			plan.Create, plan.Update, plan.Unchanged, plan.Delete)
		if s.FailedBatches > 0 {
			fmt.Fprintf(&b, "- Failed batches: %d\n", s.FailedBatches)
		}
	case Status:
		fmt.Fprintf(&b, "- Sync plan: %s\n", plan.Status)
	}
	if rep, ok := s.PrevalenceStats.(prevalence.Report); ok {
		fmt.Fprintf(&b, "- Prevalence: evaluated=%d, high_prevalence_domains=%d\n",
			rep.Evaluated, rep.HighPrevalenceDomains)
	}

	_, err := io.WriteString(w, b.String())
	return err
}
