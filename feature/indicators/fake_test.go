package indicators

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"testing"

	"ioc-sync/core/database"
	"ioc-sync/core/feed"
	"ioc-sync/core/history"
	"ioc-sync/core/indicator"
	"ioc-sync/core/policy"
	"ioc-sync/core/reconcile"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeFetcher serves a fixed feed.
type fakeFetcher struct {
	tools []feed.Tool
	calls int
}

func (f *fakeFetcher) Fetch(context.Context) ([]feed.Tool, error) {
	f.calls++
	return f.tools, nil
}

// fakeInventory is an in-memory record store.
type fakeInventory struct {
	mu        sync.Mutex
	records   map[string]reconcile.RemoteRecord
	nextID    int
	actions   []string
	platforms []string
	groups    []policy.HostGroup
	counts    map[string]int

	creates, updates, deletes int
}

func newFakeInventory() *fakeInventory {
	return &fakeInventory{
		records:   map[string]reconcile.RemoteRecord{},
		actions:   []string{"none", "detect", "prevent", "allow"},
		platforms: []string{"windows", "mac", "linux", "ios"},
		counts:    map[string]int{},
	}
}

func remoteFrom(id string, r indicator.Record) reconcile.RemoteRecord {
	return reconcile.RemoteRecord{
		ID:              id,
		Kind:            r.Kind,
		Value:           r.Value,
		Action:          r.Action,
		Severity:        r.Severity,
		Source:          r.Source,
		Description:     r.Description,
		AppliedGlobally: r.AppliedGlobally,
		Tags:            r.Tags,
		Platforms:       r.Platforms,
		HostGroups:      r.HostGroups,
	}
}

func (f *fakeInventory) seed(r indicator.Record) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	id := fmt.Sprintf("id-%03d", f.nextID)
	f.records[id] = remoteFrom(id, r)
	return id
}

func (f *fakeInventory) all() []reconcile.RemoteRecord {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]reconcile.RemoteRecord, 0, len(f.records))
	for _, r := range f.records {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (f *fakeInventory) ListIndicators(ctx context.Context, filter, after string, limit int) (reconcile.Page, error) {
	return reconcile.Page{Records: f.all()}, nil
}

func (f *fakeInventory) CreateIndicators(ctx context.Context, records []indicator.Record, opts reconcile.MutationOptions) (reconcile.BatchResponse, error) {
	f.mu.Lock()
	f.creates++
	f.mu.Unlock()
	for _, r := range records {
		f.seed(r)
	}
	return reconcile.BatchResponse{}, nil
}

func (f *fakeInventory) UpdateIndicators(ctx context.Context, records []indicator.Record, opts reconcile.MutationOptions) (reconcile.BatchResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates++
	for _, r := range records {
		f.records[r.ID] = remoteFrom(r.ID, r)
	}
	return reconcile.BatchResponse{}, nil
}

func (f *fakeInventory) DeleteIndicators(ctx context.Context, ids []string) (reconcile.BatchResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletes++
	for _, id := range ids {
		delete(f.records, id)
	}
	return reconcile.BatchResponse{}, nil
}

func (f *fakeInventory) CountDevices(ctx context.Context, kind, value string) (int, error) {
	return f.counts[value], nil
}

func (f *fakeInventory) ListActions(context.Context) ([]string, error) {
	return f.actions, nil
}

func (f *fakeInventory) ListPlatforms(context.Context) ([]string, error) {
	return f.platforms, nil
}

func (f *fakeInventory) FindHostGroups(ctx context.Context, names []string) ([]policy.HostGroup, error) {
	var out []policy.HostGroup
	for _, g := range f.groups {
		for _, n := range names {
			if g.Name == n {
				out = append(out, g)
			}
		}
	}
	return out, nil
}

func sampleFeed() []feed.Tool {
	return []feed.Tool{
		{
			Name:        "AnyDesk",
			Description: "Remote desktop software",
			Artifacts: feed.Artifacts{Network: []feed.NetworkArtifact{
				{Domains: []any{"anydesk.com", "*.net.anydesk.com", "user_managed"}},
			}},
		},
		{
			Name:        "TeamViewer",
			Description: "Remote support",
			Artifacts: feed.Artifacts{Network: []feed.NetworkArtifact{
				{Domains: []any{"https://teamviewer.com/download", "10.0.0.1"}},
			}},
		},
		{
			Name: "Atera",
			Artifacts: feed.Artifacts{Network: []feed.NetworkArtifact{
				{Domains: []any{"agent.atera.com"}},
			}},
		},
	}
}

func testSettings() Settings {
	return Settings{
		Policy: policy.Config{
			DeploymentStage:        "assess",
			DeployAction:           "detect",
			ReportActionCandidates: []string{"no_action", "none", "monitor"},
			PrevalenceThreshold:    25,
			PrevalenceMax:          50,
		},
		Apply: reconcile.Config{ChunkCreate: 2, ChunkUpdate: 2, ChunkDelete: 500},
	}
}

func newTestService(t *testing.T, inv *fakeInventory, opts ...Option) (*Service, *fakeFetcher) {
	t.Helper()
	fetcher := &fakeFetcher{tools: sampleFeed()}
	return NewService(fetcher, inv, testSettings(), zap.NewNop(), opts...), fetcher
}

func newHistoryStore(t *testing.T) *history.Store {
	t.Helper()
	db, err := database.Connect(database.Config{Driver: "sqlite", Name: ":memory:"})
	require.NoError(t, err)
	store := history.NewStore(db)
	require.NoError(t, store.Migrate(context.Background()))
	return store
}

func globalScope() policy.Scope {
	return policy.ResolveScope(nil, nil, false)
}
