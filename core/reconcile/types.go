package reconcile

import (
	"strings"
	"time"

	"ioc-sync/core/indicator"
)

// Key identifies a record for matching: kind and value, both lowercased.
type Key struct {
	Kind  string `json:"kind"`
	Value string `json:"value"`
}

// KeyOf builds the reconciliation key for a kind and value.
func KeyOf(kind, value string) Key {
	return Key{Kind: strings.ToLower(kind), Value: strings.ToLower(value)}
}

// RemoteRecord is an indicator as returned by the remote inventory.
// Fields the engine does not compare are ignored when decoding.
type RemoteRecord struct {
	ID              string   `json:"id"`
	Kind            string   `json:"type"`
	Value           string   `json:"value"`
	Action          string   `json:"action"`
	Severity        string   `json:"severity"`
	Source          string   `json:"source"`
	Description     string   `json:"description"`
	AppliedGlobally bool     `json:"applied_globally"`
	Tags            []string `json:"tags"`
	Platforms       []string `json:"platforms"`
	HostGroups      []string `json:"host_groups"`
	CreatedOn       string   `json:"created_on,omitempty"`
	ModifiedOn      string   `json:"modified_on,omitempty"`
}

// Key returns the record's reconciliation key.
func (r RemoteRecord) Key() Key {
	return KeyOf(r.Kind, r.Value)
}

// Update is a desired record that differs from its remote counterpart.
type Update struct {
	// Record is the desired record with the matched remote id attached.
	Record indicator.Record `json:"record"`

	// Changes lists the compared fields that differ, in comparison order.
	Changes []string `json:"changes"`
}

// DuplicateKey reports several remote records sharing one key.
type DuplicateKey struct {
	Key Key `json:"key"`

	// IDs lists every remote id found for the key, sorted.
	IDs []string `json:"ids"`

	// Kept is the id the engine matched against.
	Kept string `json:"kept"`
}

// ReconcilePlan holds the classified operations for one run.
type ReconcilePlan struct {
	// Creates are desired records with no remote counterpart.
	Creates []indicator.Record `json:"creates"`

	// Updates are desired records whose remote counterpart differs.
	Updates []Update `json:"updates"`

	// Deletes are remote ids whose key is no longer desired. Only filled when pruning.
	Deletes []string `json:"deletes"`

	// Unchanged counts desired records identical to their remote counterpart.
	Unchanged int `json:"unchanged"`

	// Existing is the number of records in the snapshot the plan was computed from.
	Existing int `json:"existing"`

	// Duplicates lists keys held by more than one remote record.
	Duplicates []DuplicateKey `json:"duplicates,omitempty"`

	// Summary provides aggregate counts.
	Summary PlanSummary `json:"summary"`
}

// PlanSummary provides aggregate statistics for a reconcile plan.
type PlanSummary struct {
	Create    int `json:"create"`
	Update    int `json:"update"`
	Delete    int `json:"delete"`
	Unchanged int `json:"unchanged"`
}

// ActionType names a kind of batch mutation.
type ActionType string

const (
	// ActionCreate creates new indicators.
	ActionCreate ActionType = "create"
	// ActionUpdate updates existing indicators by id.
	ActionUpdate ActionType = "update"
	// ActionDelete deletes indicators by id.
	ActionDelete ActionType = "delete"
)

// Default batch sizes for ApplyPlan.
const (
	DefaultChunkCreate = 200
	DefaultChunkUpdate = 200
	DefaultChunkDelete = 500

	// sampleSize bounds the dry-run samples.
	sampleSize = 10
)

// ReconcileOptions controls snapshot planning and plan application.
type ReconcileOptions struct {
	// DryRun prevents execution of any mutations if true.
	DryRun bool

	// DoPrune enables deletion of managed records no longer desired.
	DoPrune bool

	// Confirmed indicates the operator confirmed the write.
	// If false, mutations will not execute regardless of DryRun.
	Confirmed bool

	// Retrodetects is passed through to create and update calls.
	Retrodetects bool

	// ChunkCreate, ChunkUpdate and ChunkDelete bound the batch sizes.
	// Zero selects the defaults.
	ChunkCreate int
	ChunkUpdate int
	ChunkDelete int

	// CallTimeout bounds each remote call. Zero means no per-call timeout.
	CallTimeout time.Duration

	// Comment is attached to create and update calls.
	// Empty selects a dated project comment.
	Comment string
}

func (o ReconcileOptions) chunkSizes() (create, update, del int) {
	create, update, del = o.ChunkCreate, o.ChunkUpdate, o.ChunkDelete
	if create <= 0 {
		create = DefaultChunkCreate
	}
	if update <= 0 {
		update = DefaultChunkUpdate
	}
	if del <= 0 {
		del = DefaultChunkDelete
	}
	return create, update, del
}

// UpdateSample describes one planned update in a dry run.
type UpdateSample struct {
	Value  string   `json:"value"`
	Fields []string `json:"fields"`
}

// DryRunSample is the bounded preview returned instead of mutating.
type DryRunSample struct {
	Creates []string       `json:"creates"`
	Updates []UpdateSample `json:"updates"`
	Deletes []string       `json:"deletes"`
}

// BatchResult records the outcome of a single batch call.
type BatchResult struct {
	Action ActionType  `json:"action"`
	Index  int         `json:"index"`
	Size   int         `json:"size"`
	Errors []ItemError `json:"errors,omitempty"`
	Err    string      `json:"error,omitempty"`
}

// Failed reports whether the batch call failed outright or per item.
func (b BatchResult) Failed() bool {
	return b.Err != "" || len(b.Errors) > 0
}

// ApplyResult reports what ApplyPlan did.
type ApplyResult struct {
	// Summary mirrors the plan counts.
	Summary PlanSummary `json:"summary"`

	// DryRun is true when nothing was submitted.
	DryRun bool `json:"dry_run"`

	// Sample is filled for dry runs only.
	Sample *DryRunSample `json:"sample,omitempty"`

	// Batches lists every submitted batch in submission order.
	Batches []BatchResult `json:"batches,omitempty"`
}

// FailedBatches counts batches with a transport error or per-item errors.
func (r *ApplyResult) FailedBatches() int {
	n := 0
	for _, b := range r.Batches {
		if b.Failed() {
			n++
		}
	}
	return n
}
