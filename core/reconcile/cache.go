package reconcile

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"ioc-sync/core/indicator"

	"golang.org/x/sync/singleflight"
)

// DefaultPageSize is the listing page size used by LoadSnapshot.
const DefaultPageSize = 500

// SnapshotQuery selects the managed records to load. Zero fields select the
// project defaults.
type SnapshotQuery struct {
	Source   string
	Kind     string
	PageSize int
}

func (q SnapshotQuery) withDefaults() SnapshotQuery {
	if q.Source == "" {
		q.Source = indicator.ProjectSource
	}
	if q.Kind == "" {
		q.Kind = indicator.KindDomain
	}
	if q.PageSize <= 0 {
		q.PageSize = DefaultPageSize
	}
	return q
}

// Filter renders the query as a filter expression.
func (q SnapshotQuery) Filter() string {
	q = q.withDefaults()
	return fmt.Sprintf("source:'%s'+type:'%s'", escapeFilter(q.Source), escapeFilter(q.Kind))
}

func escapeFilter(v string) string {
	return strings.ReplaceAll(v, "'", `\'`)
}

// LoadSnapshot pages through every managed record, following the cursor until
// it is empty, and deduplicates by id. A repeated id replaces the earlier
// record in place. Any page error aborts the load.
func LoadSnapshot(ctx context.Context, lister Lister, q SnapshotQuery) ([]RemoteRecord, error) {
	q = q.withDefaults()
	filter := q.Filter()

	var (
		records []RemoteRecord
		seen    = make(map[string]int)
		after   string
	)
	for page := 0; ; page++ {
		p, err := lister.ListIndicators(ctx, filter, after, q.PageSize)
		if err != nil {
			return nil, fmt.Errorf("list managed indicators (page %d): %w", page, err)
		}
		for _, rec := range p.Records {
			if rec.ID != "" {
				if i, dup := seen[rec.ID]; dup {
					records[i] = rec
					continue
				}
				seen[rec.ID] = len(records)
			}
			records = append(records, rec)
		}
		if p.After == "" || p.After == after || len(p.Records) == 0 {
			break
		}
		after = p.After
	}
	return records, nil
}

// SnapshotCache shares snapshot loads between concurrent readers.
type SnapshotCache struct {
	lister Lister
	query  SnapshotQuery
	ttl    time.Duration

	mu      sync.RWMutex
	records []RemoteRecord
	built   time.Time
	sf      singleflight.Group
}

// NewSnapshotCache returns a cache over lister. A zero ttl disables caching
// but still collapses concurrent loads into one.
func NewSnapshotCache(lister Lister, q SnapshotQuery, ttl time.Duration) *SnapshotCache {
	return &SnapshotCache{lister: lister, query: q, ttl: ttl}
}

func (c *SnapshotCache) fresh() bool {
	return c.ttl > 0 && !c.built.IsZero() && time.Since(c.built) <= c.ttl
}

// Get returns the cached snapshot, loading it if missing or expired.
func (c *SnapshotCache) Get(ctx context.Context) ([]RemoteRecord, error) {
	c.mu.RLock()
	if c.fresh() {
		records := c.records
		c.mu.RUnlock()
		return records, nil
	}
	c.mu.RUnlock()

	result, err, _ := c.sf.Do("snapshot", func() (interface{}, error) {
		c.mu.RLock()
		if c.fresh() {
			records := c.records
			c.mu.RUnlock()
			return records, nil
		}
		c.mu.RUnlock()

		records, err := LoadSnapshot(ctx, c.lister, c.query)
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		c.records = records
		c.built = time.Now()
		c.mu.Unlock()
		return records, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]RemoteRecord), nil
}

// Invalidate drops the cached snapshot. Call it after a write run.
func (c *SnapshotCache) Invalidate() {
	c.mu.Lock()
	c.records = nil
	c.built = time.Time{}
	c.mu.Unlock()
}
