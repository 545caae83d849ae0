package feed

// UnknownTool is used when a feed entry carries no tool name.
const UnknownTool = "Unknown Tool"

// DefaultDescription is used when none of a domain's tools carry a description.
const DefaultDescription = "Remote monitoring and management domain from LOLRMM"

// Tool is a single entry of the LOLRMM feed.
// Only the fields needed for domain extraction are decoded; everything else is ignored.
type Tool struct {
	Name        string    `json:"Name"`
	Description string    `json:"Description"`
	Artifacts   Artifacts `json:"Artifacts"`
}

// Artifacts groups the artifact kinds declared by a tool.
type Artifacts struct {
	Network []NetworkArtifact `json:"Network"`
}

// NetworkArtifact lists the network indicators of a tool.
// Domains is loosely typed because the feed occasionally carries non-string values.
type NetworkArtifact struct {
	Domains []any `json:"Domains"`
}

// NormalizedEntry is one canonical domain with its aggregated tool attribution.
type NormalizedEntry struct {
	// Domain is the canonical, lowercase domain.
	Domain string `json:"domain"`

	// Tools holds the unique tool names, sorted case-insensitively.
	Tools []string `json:"tools"`

	// Tool is the first entry of Tools, or UnknownTool.
	Tool string `json:"tool"`

	// Description is the first aggregated tool description, or DefaultDescription.
	Description string `json:"description"`

	// Priority is true when any tool is in the configured priority set.
	Priority bool `json:"priority"`
}

// Policy controls which tools and domains are collected and how they are ordered.
type Policy struct {
	// ExcludedTools are tool names skipped entirely (case-insensitive).
	ExcludedTools []string

	// PriorityTools are tool names whose domains are ordered first (case-insensitive).
	PriorityTools []string

	// ExcludedDomains are domains never emitted. They are normalized before matching.
	ExcludedDomains []string

	// Limit truncates the ordered result. Zero or negative means unlimited.
	Limit int
}

// Stats counts what happened to the feed during collection.
type Stats struct {
	ToolsTotal             int `json:"tools_total"`
	ToolsExcluded          int `json:"tools_excluded"`
	RawDomains             int `json:"raw_domains"`
	NormalizedDomains      int `json:"normalized_domains"`
	PriorityDomains        int `json:"priority_domains"`
	SkippedPlaceholders    int `json:"skipped_placeholders"`
	SkippedIPv4            int `json:"skipped_ipv4"`
	SkippedExcludedDomains int `json:"skipped_excluded_domains"`
	Deduped                int `json:"deduped"`
}
