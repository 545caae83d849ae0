package indicator

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"ioc-sync/core/feed"
)

const (
	// KindDomain is the only indicator kind produced by this pipeline.
	KindDomain = "domain"

	// ProjectSource marks every record managed by this project.
	ProjectSource = "autormmdetect_lolrmm"

	// DefaultSeverity is applied to every managed record.
	DefaultSeverity = "informational"

	// DescriptionPrefix opens every generated description and batch comment.
	DescriptionPrefix = "[autormmdetect]"

	// MaxDescriptionBytes is the remote API's description field limit.
	MaxDescriptionBytes = 4096

	// maxListedTools is the number of tool names spelled out in a description.
	maxListedTools = 6
)

// ProjectTags returns the fixed tag set attached to every managed record.
func ProjectTags() []string {
	return []string{"autormmdetect", "feed_lolrmm", "scope_domain", "managed_by_ioc_sync"}
}

// DefaultPlatforms returns the preferred platform list, in preference order.
func DefaultPlatforms() []string {
	return []string{"windows", "mac", "linux"}
}

// Record is the desired shape of one managed indicator.
type Record struct {
	Kind            string   `json:"type"`
	Value           string   `json:"value"`
	Action          string   `json:"action"`
	Severity        string   `json:"severity"`
	Source          string   `json:"source"`
	Description     string   `json:"description"`
	Tags            []string `json:"tags"`
	Platforms       []string `json:"platforms"`
	HostGroups      []string `json:"host_groups"`
	AppliedGlobally bool     `json:"applied_globally"`

	// ID is set only when the record targets an existing remote indicator.
	ID string `json:"id,omitempty"`
}

// Build maps a normalized feed entry and the resolved policy into a record.
func Build(entry feed.NormalizedEntry, action string, platforms, hostGroups []string) Record {
	return Record{
		Kind:            KindDomain,
		Value:           entry.Domain,
		Action:          action,
		Severity:        DefaultSeverity,
		Source:          ProjectSource,
		Description:     Describe(entry),
		Tags:            ProjectTags(),
		Platforms:       clone(platforms),
		HostGroups:      clone(hostGroups),
		AppliedGlobally: len(hostGroups) == 0,
	}
}

// BuildAll builds one record per entry, preserving order.
func BuildAll(entries []feed.NormalizedEntry, action string, platforms, hostGroups []string) []Record {
	out := make([]Record, 0, len(entries))
	for _, e := range entries {
		out = append(out, Build(e, action, platforms, hostGroups))
	}
	return out
}

// Describe composes the record description from tool attribution and the feed note.
func Describe(entry feed.NormalizedEntry) string {
	tools := entry.Tools
	if len(tools) == 0 {
		tools = []string{entry.Tool}
	}
	note := entry.Description
	if note == "" {
		note = feed.DefaultDescription
	}

	toolText := strings.Join(tools[:min(len(tools), maxListedTools)], ", ")
	if len(tools) > maxListedTools {
		toolText = fmt.Sprintf("%s, +%d more", toolText, len(tools)-maxListedTools)
	}

	return truncate(fmt.Sprintf("%s tools=%s; note=%s", DescriptionPrefix, toolText, note), MaxDescriptionBytes)
}

// WithID returns a copy of r targeting the remote record id.
func (r Record) WithID(id string) Record {
	out := r
	out.Tags = clone(r.Tags)
	out.Platforms = clone(r.Platforms)
	out.HostGroups = clone(r.HostGroups)
	out.ID = id
	return out
}

// Payload renders the record in the remote API's create/update shape.
// Empty platform and host-group lists are omitted, and host-group scoping always
// forces applied_globally off.
func (r Record) Payload() map[string]any {
	payload := map[string]any{
		"type":        r.Kind,
		"value":       r.Value,
		"action":      r.Action,
		"severity":    r.Severity,
		"source":      r.Source,
		"description": r.Description,
		"tags":        r.Tags,
	}
	if len(r.Platforms) > 0 {
		payload["platforms"] = r.Platforms
	}
	if len(r.HostGroups) > 0 {
		payload["host_groups"] = r.HostGroups
		payload["applied_globally"] = false
	} else {
		payload["applied_globally"] = r.AppliedGlobally
	}
	if r.ID != "" {
		payload["id"] = r.ID
	}
	return payload
}

// truncate cuts s to at most n bytes without splitting a UTF-8 sequence.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	cut := n
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

func clone(in []string) []string {
	if in == nil {
		return []string{}
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}
