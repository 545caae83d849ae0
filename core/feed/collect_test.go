package feed

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tool(name, desc string, domains ...any) Tool {
	return Tool{
		Name:        name,
		Description: desc,
		Artifacts: Artifacts{
			Network: []NetworkArtifact{{Domains: domains}},
		},
	}
}

func domainsOf(entries []NormalizedEntry) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Domain)
	}
	return out
}

// TestCollect_PriorityOrdering tests that priority domains are emitted before the rest.
func TestCollect_PriorityOrdering(t *testing.T) {
	tools := []Tool{
		tool("Plain", "", "a.com"),
		tool("ScreenConnect", "", "b.com"),
	}

	entries, stats := Collect(tools, Policy{PriorityTools: []string{"screenconnect"}})

	assert.Equal(t, []string{"b.com", "a.com"}, domainsOf(entries))
	assert.True(t, entries[0].Priority)
	assert.False(t, entries[1].Priority)
	assert.Equal(t, 1, stats.PriorityDomains)
	assert.Equal(t, 2, stats.NormalizedDomains)
}

// TestCollect_Rejections tests each rejection counter.
func TestCollect_Rejections(t *testing.T) {
	tools := []Tool{
		tool("AnyDesk", "Remote desktop",
			"*.anydesk.com",
			"https://anydesk.com/download",
			"user_managed",
			"N/A",
			"10.0.0.1",
			"localhost",
			"blocked.example",
			42,
		),
		tool("Excluded", "", "excluded-tool.com"),
	}

	policy := Policy{
		ExcludedTools:   []string{" excluded "},
		ExcludedDomains: []string{"https://BLOCKED.example/"},
	}
	entries, stats := Collect(tools, policy)

	require.Len(t, entries, 1)
	assert.Equal(t, "anydesk.com", entries[0].Domain)

	assert.Equal(t, 2, stats.ToolsTotal)
	assert.Equal(t, 1, stats.ToolsExcluded)
	assert.Equal(t, 7, stats.RawDomains, "non-string values are not counted")
	assert.Equal(t, 3, stats.SkippedPlaceholders, "two placeholders and one malformed value")
	assert.Equal(t, 1, stats.SkippedIPv4)
	assert.Equal(t, 1, stats.SkippedExcludedDomains)
	assert.Equal(t, 1, stats.Deduped)
	assert.Equal(t, 1, stats.NormalizedDomains)
}

// TestCollect_Aggregation tests multi-tool attribution on a shared domain.
func TestCollect_Aggregation(t *testing.T) {
	tools := []Tool{
		tool("zoho Assist", "Zoho remote support", "shared.example.com"),
		tool("Atera", "Atera RMM", "shared.example.com"),
		tool("ATERA", "duplicate casing", "shared.example.com"),
		tool("", "", "orphan.example.com"),
	}

	entries, stats := Collect(tools, Policy{})
	require.Len(t, entries, 2)

	orphan := entries[0]
	assert.Equal(t, "orphan.example.com", orphan.Domain)
	assert.Equal(t, UnknownTool, orphan.Tool)
	assert.Equal(t, DefaultDescription, orphan.Description)

	shared := entries[1]
	assert.Equal(t, []string{"Atera", "zoho Assist"}, shared.Tools)
	assert.Equal(t, "Atera", shared.Tool)
	assert.Equal(t, "Atera RMM", shared.Description)
	assert.Equal(t, 1, stats.Deduped)
}

// TestCollect_LimitKeepsPriority tests that truncation happens after ordering.
func TestCollect_LimitKeepsPriority(t *testing.T) {
	tools := []Tool{
		tool("Plain", "", "a.com", "b.com", "c.com"),
		tool("Hot", "", "z.com"),
	}

	entries, stats := Collect(tools, Policy{PriorityTools: []string{"HOT"}, Limit: 2})

	assert.Equal(t, []string{"z.com", "a.com"}, domainsOf(entries))
	assert.Equal(t, 2, stats.NormalizedDomains)
	assert.Equal(t, 1, stats.PriorityDomains)
}

// TestCollect_EntriesAreSafe checks every emitted domain passes the safety gate.
func TestCollect_EntriesAreSafe(t *testing.T) {
	tools := []Tool{
		tool("Mixed", "", "ok.example.com", " *.Wild.Example.com. ", "bad_domain.com", "sp ace.com", "-lead.example.com"),
	}

	entries, _ := Collect(tools, Policy{})
	for _, e := range entries {
		assert.True(t, IsSafeDomainForm(e.Domain), e.Domain)
		assert.NotContains(t, e.Domain, "*")
	}
	assert.Equal(t, []string{"lead.example.com", "ok.example.com", "wild.example.com"}, domainsOf(entries))
}
