package feed

import (
	"sort"
	"strings"
)

type pairKey struct {
	domain string
	tool   string
}

type aggregate struct {
	tools        map[string]struct{}
	descriptions map[string]struct{}
}

// Collect extracts, filters and aggregates the domains declared by the feed tools.
// The result is ordered with priority domains first, then lexicographically by domain;
// policy.Limit is applied after ordering.
func Collect(tools []Tool, policy Policy) ([]NormalizedEntry, Stats) {
	excludedTools := lowerSet(policy.ExcludedTools)
	priorityTools := lowerSet(policy.PriorityTools)
	excludedDomains := make(map[string]struct{}, len(policy.ExcludedDomains))
	for _, d := range policy.ExcludedDomains {
		if strings.TrimSpace(d) == "" {
			continue
		}
		excludedDomains[NormalizeDomain(d)] = struct{}{}
	}

	stats := Stats{ToolsTotal: len(tools)}
	seen := make(map[pairKey]struct{})
	byDomain := make(map[string]*aggregate)

	for _, tool := range tools {
		name := tool.Name
		if name == "" {
			name = UnknownTool
		}
		name = strings.TrimSpace(name)
		if _, skip := excludedTools[strings.ToLower(name)]; skip {
			stats.ToolsExcluded++
			continue
		}
		desc := strings.TrimSpace(tool.Description)

		for _, net := range tool.Artifacts.Network {
			for _, rawValue := range net.Domains {
				raw, ok := rawValue.(string)
				if !ok {
					continue
				}
				stats.RawDomains++

				domain := NormalizeDomain(raw)
				switch {
				case IsPlaceholder(domain):
					stats.SkippedPlaceholders++
					continue
				case IsIPv4Literal(domain):
					stats.SkippedIPv4++
					continue
				case !IsSafeDomainForm(domain):
					// Malformed values are reported together with placeholders.
					stats.SkippedPlaceholders++
					continue
				}
				if _, excluded := excludedDomains[domain]; excluded {
					stats.SkippedExcludedDomains++
					continue
				}

				key := pairKey{domain: domain, tool: strings.ToLower(name)}
				if _, dup := seen[key]; dup {
					stats.Deduped++
					continue
				}
				seen[key] = struct{}{}

				agg, ok := byDomain[domain]
				if !ok {
					agg = &aggregate{
						tools:        make(map[string]struct{}),
						descriptions: make(map[string]struct{}),
					}
					byDomain[domain] = agg
				}
				agg.tools[name] = struct{}{}
				if desc != "" {
					agg.descriptions[desc] = struct{}{}
				}
			}
		}
	}

	entries := make([]NormalizedEntry, 0, len(byDomain))
	for domain, agg := range byDomain {
		toolNames := sortedFold(agg.tools)
		descriptions := sortedFold(agg.descriptions)

		entry := NormalizedEntry{
			Domain:      domain,
			Tools:       toolNames,
			Tool:        UnknownTool,
			Description: DefaultDescription,
			Priority:    anyIn(toolNames, priorityTools),
		}
		if len(toolNames) > 0 {
			entry.Tool = toolNames[0]
		}
		if len(descriptions) > 0 {
			entry.Description = descriptions[0]
		}
		if entry.Priority {
			stats.PriorityDomains++
		}
		entries = append(entries, entry)
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Priority != entries[j].Priority {
			return entries[i].Priority
		}
		return entries[i].Domain < entries[j].Domain
	})

	if policy.Limit > 0 && len(entries) > policy.Limit {
		entries = entries[:policy.Limit]
	}
	stats.NormalizedDomains = len(entries)

	return entries, stats
}

// lowerSet builds a case-insensitive lookup set, ignoring blank values.
func lowerSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		v = strings.ToLower(strings.TrimSpace(v))
		if v == "" {
			continue
		}
		set[v] = struct{}{}
	}
	return set
}

// sortedFold returns the set members sorted case-insensitively.
// Ties on the folded value fall back to byte order so the result is stable.
func sortedFold(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for v := range set {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool {
		li, lj := strings.ToLower(out[i]), strings.ToLower(out[j])
		if li != lj {
			return li < lj
		}
		return out[i] < out[j]
	})
	return out
}

func anyIn(names []string, set map[string]struct{}) bool {
	for _, n := range names {
		if _, ok := set[strings.ToLower(n)]; ok {
			return true
		}
	}
	return false
}
