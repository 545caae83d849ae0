package indicator

import (
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"

	"ioc-sync/core/feed"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuild_Global(t *testing.T) {
	entry := feed.NormalizedEntry{
		Domain:      "example.com",
		Tools:       []string{"ScreenConnect"},
		Tool:        "ScreenConnect",
		Description: "Remote support",
		Priority:    true,
	}

	rec := Build(entry, "detect", []string{"windows", "mac", "linux"}, nil)

	assert.Equal(t, KindDomain, rec.Kind)
	assert.Equal(t, "example.com", rec.Value)
	assert.Equal(t, "detect", rec.Action)
	assert.Equal(t, DefaultSeverity, rec.Severity)
	assert.Equal(t, ProjectSource, rec.Source)
	assert.Equal(t, ProjectTags(), rec.Tags)
	assert.Equal(t, []string{"windows", "mac", "linux"}, rec.Platforms)
	assert.Empty(t, rec.HostGroups)
	assert.True(t, rec.AppliedGlobally)
	assert.Empty(t, rec.ID)
	assert.Equal(t, "[autormmdetect] tools=ScreenConnect; note=Remote support", rec.Description)
}

func TestBuild_HostGroupScope(t *testing.T) {
	entry := feed.NormalizedEntry{Domain: "example.com", Tool: "A", Tools: []string{"A"}}

	rec := Build(entry, "no_action", nil, []string{"hg-1", "hg-2"})

	assert.False(t, rec.AppliedGlobally)
	assert.Equal(t, []string{"hg-1", "hg-2"}, rec.HostGroups)
	assert.Contains(t, rec.Description, "note="+feed.DefaultDescription)
}

func TestDescribe_ToolOverflow(t *testing.T) {
	tools := make([]string, 0, 9)
	for i := 1; i <= 9; i++ {
		tools = append(tools, fmt.Sprintf("T%d", i))
	}
	entry := feed.NormalizedEntry{Domain: "x.com", Tools: tools, Tool: tools[0], Description: "d"}

	assert.Equal(t, "[autormmdetect] tools=T1, T2, T3, T4, T5, T6, +3 more; note=d", Describe(entry))
}

func TestDescribe_FallsBackToTool(t *testing.T) {
	entry := feed.NormalizedEntry{Domain: "x.com", Tool: "Solo"}
	assert.Equal(t, "[autormmdetect] tools=Solo; note="+feed.DefaultDescription, Describe(entry))
}

func TestDescribe_Truncation(t *testing.T) {
	entry := feed.NormalizedEntry{
		Domain:      "x.com",
		Tool:        "A",
		Tools:       []string{"A"},
		Description: strings.Repeat("é", MaxDescriptionBytes),
	}

	desc := Describe(entry)
	assert.LessOrEqual(t, len(desc), MaxDescriptionBytes)
	assert.True(t, utf8.ValidString(desc))
}

func TestRecord_Payload(t *testing.T) {
	rec := Record{
		Kind:            KindDomain,
		Value:           "example.com",
		Action:          "none",
		Severity:        DefaultSeverity,
		Source:          ProjectSource,
		Description:     "desc",
		Tags:            []string{"a"},
		Platforms:       []string{"windows"},
		AppliedGlobally: true,
	}

	t.Run("Global", func(t *testing.T) {
		out := rec.WithID("abc").Payload()
		assert.Equal(t, "example.com", out["value"])
		assert.Equal(t, "abc", out["id"])
		assert.Equal(t, []string{"windows"}, out["platforms"])
		assert.Equal(t, true, out["applied_globally"])
		assert.NotContains(t, out, "host_groups")
	})

	t.Run("Scoped", func(t *testing.T) {
		scoped := rec
		scoped.HostGroups = []string{"hg"}
		scoped.Platforms = nil
		out := scoped.Payload()
		assert.Equal(t, false, out["applied_globally"])
		assert.Equal(t, []string{"hg"}, out["host_groups"])
		assert.NotContains(t, out, "platforms")
		assert.NotContains(t, out, "id")
	})
}

func TestRecord_WithIDCopies(t *testing.T) {
	rec := Build(feed.NormalizedEntry{Domain: "x.com", Tool: "A"}, "detect", []string{"windows"}, nil)
	updated := rec.WithID("id-1")
	require.Equal(t, "id-1", updated.ID)

	updated.Platforms[0] = "mac"
	assert.Equal(t, "windows", rec.Platforms[0])
	assert.Empty(t, rec.ID)
}
