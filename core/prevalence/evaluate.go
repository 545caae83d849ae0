package prevalence

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"ioc-sync/core/feed"
	"ioc-sync/core/indicator"

	"go.uber.org/zap"
)

const (
	// DefaultThreshold is the device count at which a domain is high prevalence.
	DefaultThreshold = 25

	// DefaultMaxItems bounds the number of count queries per run.
	DefaultMaxItems = 50

	// lowSampleSize bounds the low-prevalence sample in a report.
	lowSampleSize = 20
)

// DeviceCounter reports the number of devices that observed an indicator.
type DeviceCounter interface {
	CountDevices(ctx context.Context, kind, value string) (int, error)
}

// DomainCount is the device count observed for one domain.
type DomainCount struct {
	Tool   string `json:"tool"`
	Domain string `json:"domain"`
	Count  int    `json:"count"`
}

// Report summarizes a prevalence evaluation.
type Report struct {
	Evaluated             int           `json:"evaluated"`
	Threshold             int           `json:"threshold"`
	HighPrevalenceDomains int           `json:"high_prevalence_domains"`
	HighPrevalenceTools   []string      `json:"high_prevalence_tools"`
	LowPrevalenceSample   []DomainCount `json:"low_prevalence_sample"`
}

// Evaluate queries device counts for the safe-form entries, capped to
// maxItems (zero or negative means unlimited), and flags domains and tools
// whose count reaches threshold. A failed count query aborts the evaluation.
func Evaluate(ctx context.Context, counter DeviceCounter, entries []feed.NormalizedEntry, threshold, maxItems int, log *zap.Logger) (*Report, error) {
	if log == nil {
		log = zap.NewNop()
	}

	var filtered []feed.NormalizedEntry
	for _, e := range entries {
		if feed.IsSafeDomainForm(e.Domain) {
			filtered = append(filtered, e)
		}
	}
	if maxItems > 0 && len(filtered) > maxItems {
		filtered = filtered[:maxItems]
	}

	results := make([]DomainCount, 0, len(filtered))
	toolMax := make(map[string]int)
	for _, e := range filtered {
		count, err := counter.CountDevices(ctx, indicator.KindDomain, e.Domain)
		if err != nil {
			return nil, fmt.Errorf("count devices for %s: %w", e.Domain, err)
		}
		results = append(results, DomainCount{Tool: e.Tool, Domain: e.Domain, Count: count})
		if count > toolMax[e.Tool] {
			toolMax[e.Tool] = count
		}
	}

	report := &Report{
		Evaluated:           len(results),
		Threshold:           threshold,
		HighPrevalenceTools: []string{},
		LowPrevalenceSample: []DomainCount{},
	}

	var low []DomainCount
	for _, r := range results {
		if r.Count >= threshold {
			report.HighPrevalenceDomains++
		} else {
			low = append(low, r)
		}
	}
	for tool, peak := range toolMax {
		if peak >= threshold {
			report.HighPrevalenceTools = append(report.HighPrevalenceTools, tool)
		}
	}
	sort.Slice(report.HighPrevalenceTools, func(i, j int) bool {
		a, b := report.HighPrevalenceTools[i], report.HighPrevalenceTools[j]
		if la, lb := strings.ToLower(a), strings.ToLower(b); la != lb {
			return la < lb
		}
		return a < b
	})
	sort.Slice(low, func(i, j int) bool {
		if low[i].Count != low[j].Count {
			return low[i].Count < low[j].Count
		}
		return low[i].Domain < low[j].Domain
	})
	report.LowPrevalenceSample = append(report.LowPrevalenceSample, low[:min(len(low), lowSampleSize)]...)

	log.Info("prevalence report",
		zap.Int("evaluated", report.Evaluated),
		zap.Int("threshold", threshold),
		zap.Int("high_prevalence_domains", report.HighPrevalenceDomains),
		zap.Int("high_prevalence_tools", len(report.HighPrevalenceTools)))
	if len(report.HighPrevalenceTools) > 0 {
		log.Info("allowlist review candidates, add to safety.excluded_platforms",
			zap.Strings("tools", report.HighPrevalenceTools))
	}
	return report, nil
}
