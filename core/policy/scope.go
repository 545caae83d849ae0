package policy

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// ErrNoHostGroupsResolved is returned when host groups are configured but
// none exist remotely. Continuing would roll out globally.
var ErrNoHostGroupsResolved = errors.New("policy: host groups configured but none resolved")

// HostGroup is a remote host group.
type HostGroup struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// HostGroupResolver looks up host groups by name.
type HostGroupResolver interface {
	FindHostGroups(ctx context.Context, names []string) ([]HostGroup, error)
}

// ScopeSource names where the effective host-group list came from.
type ScopeSource string

const (
	ScopeConfig   ScopeSource = "config"
	ScopeOverride ScopeSource = "override"
	ScopeCleared  ScopeSource = "cleared"
)

// Scope is the effective host-group selection for a run.
type Scope struct {
	Names  []string    `json:"names"`
	Source ScopeSource `json:"source"`
}

// Global reports whether records apply to all hosts.
func (s Scope) Global() bool {
	return len(s.Names) == 0
}

// ResolveScope applies command-line overrides to the configured host groups.
// global clears the list. A non-nil override replaces it; an empty override
// clears it, a comma-separated one replaces it.
func ResolveScope(configured []string, override *string, global bool) Scope {
	if global {
		return Scope{Names: []string{}, Source: ScopeCleared}
	}
	if override != nil {
		names := splitList(*override)
		if len(names) == 0 {
			return Scope{Names: []string{}, Source: ScopeCleared}
		}
		return Scope{Names: names, Source: ScopeOverride}
	}
	var names []string
	for _, n := range configured {
		if n = strings.TrimSpace(n); n != "" {
			names = append(names, n)
		}
	}
	if names == nil {
		names = []string{}
	}
	return Scope{Names: names, Source: ScopeConfig}
}

// ResolveHostGroupIDs resolves scope names to ids. A global scope resolves to
// no ids without a lookup. Names that match nothing are logged; when none
// match, ErrNoHostGroupsResolved is returned.
func ResolveHostGroupIDs(ctx context.Context, resolver HostGroupResolver, scope Scope, log *zap.Logger) ([]string, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if scope.Global() {
		return []string{}, nil
	}

	groups, err := resolver.FindHostGroups(ctx, scope.Names)
	if err != nil {
		return nil, fmt.Errorf("find host groups: %w", err)
	}

	found := make(map[string]struct{}, len(groups))
	ids := make([]string, 0, len(groups))
	for _, g := range groups {
		found[g.Name] = struct{}{}
		if g.ID != "" {
			ids = append(ids, g.ID)
		}
	}
	for _, n := range scope.Names {
		if _, ok := found[n]; !ok {
			log.Warn("host group not found", zap.String("name", n))
		}
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("%w: %v", ErrNoHostGroupsResolved, scope.Names)
	}
	return ids, nil
}

func splitList(s string) []string {
	out := []string{}
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// HostGroupFilter renders a name filter for a host-group lookup.
func HostGroupFilter(names []string) string {
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = "'" + strings.ReplaceAll(n, "'", `\'`) + "'"
	}
	return "name:[" + strings.Join(quoted, ",") + "]"
}
