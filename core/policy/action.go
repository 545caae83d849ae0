package policy

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"
)

const (
	// AssessAction is the inert action used by the assess stage.
	AssessAction = "none"

	// DefaultAction is the fallback deploy action.
	DefaultAction = "detect"

	// noAction is accepted on create although the action listing reports "none".
	noAction = "no_action"
)

// ErrNoActions is returned when the remote inventory lists no actions.
var ErrNoActions = errors.New("policy: no indicator actions available")

// ActionLister lists the action names the remote inventory accepts.
type ActionLister interface {
	ListActions(ctx context.Context) ([]string, error)
}

// PlatformLister lists the platform names the remote inventory accepts.
type PlatformLister interface {
	ListPlatforms(ctx context.Context) ([]string, error)
}

// Policy carries the configured action preferences.
type Policy struct {
	DeployAction     string
	ReportCandidates []string
}

// AvailableActions lowercases, deduplicates and sorts action names, adding
// "no_action" when "none" is present.
func AvailableActions(names []string) []string {
	set := make(map[string]struct{}, len(names)+1)
	for _, n := range names {
		if n = strings.ToLower(strings.TrimSpace(n)); n != "" {
			set[n] = struct{}{}
		}
	}
	if _, ok := set[AssessAction]; ok {
		set[noAction] = struct{}{}
	}
	out := make([]string, 0, len(set))
	for n := range set {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// ResolveAction picks the action for stage from the available action names.
func ResolveAction(stage Stage, available []string, p Policy, log *zap.Logger) (string, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if stage == StageAssess {
		return AssessAction, nil
	}

	actions := AvailableActions(available)
	if len(actions) == 0 {
		return "", ErrNoActions
	}
	has := func(a string) bool {
		i := sort.SearchStrings(actions, a)
		return i < len(actions) && actions[i] == a
	}

	if stage == StageReport {
		var candidates []string
		for _, c := range p.ReportCandidates {
			if c = strings.ToLower(strings.TrimSpace(c)); c != "" {
				candidates = append(candidates, c)
			}
		}
		for _, c := range candidates {
			if has(c) {
				return c, nil
			}
		}
		return "", fmt.Errorf("report stage requested but no report action candidate is available (configured %v, available %v)", candidates, actions)
	}

	deploy := strings.ToLower(strings.TrimSpace(p.DeployAction))
	if deploy == "" {
		deploy = DefaultAction
	}
	if has(deploy) {
		return deploy, nil
	}
	if has(DefaultAction) {
		log.Warn("configured deploy action unavailable, using default",
			zap.String("configured", deploy), zap.String("action", DefaultAction))
		return DefaultAction, nil
	}
	log.Warn("configured deploy action unavailable, using first available",
		zap.String("configured", deploy), zap.String("action", actions[0]))
	return actions[0], nil
}

// ResolveActionFrom lists the available actions and resolves the stage's
// action. The assess stage never queries the lister.
func ResolveActionFrom(ctx context.Context, lister ActionLister, stage Stage, p Policy, log *zap.Logger) (string, error) {
	if stage == StageAssess {
		return AssessAction, nil
	}
	names, err := lister.ListActions(ctx)
	if err != nil {
		return "", fmt.Errorf("list actions: %w", err)
	}
	return ResolveAction(stage, names, p, log)
}

// preferredPlatforms is the platform preference order.
var preferredPlatforms = []string{"windows", "mac", "linux"}

// ResolvePlatforms keeps the preferred platforms present in available, in
// preference order. An empty result means the platforms field is omitted.
func ResolvePlatforms(available []string) []string {
	set := make(map[string]struct{}, len(available))
	for _, p := range available {
		set[strings.ToLower(strings.TrimSpace(p))] = struct{}{}
	}
	out := []string{}
	for _, p := range preferredPlatforms {
		if _, ok := set[p]; ok {
			out = append(out, p)
		}
	}
	return out
}

// ResolvePlatformsFrom lists the available platforms and resolves them.
func ResolvePlatformsFrom(ctx context.Context, lister PlatformLister, log *zap.Logger) ([]string, error) {
	names, err := lister.ListPlatforms(ctx)
	if err != nil {
		return nil, fmt.Errorf("list platforms: %w", err)
	}
	platforms := ResolvePlatforms(names)
	if len(platforms) == 0 && log != nil {
		log.Warn("no preferred platform available, omitting platforms")
	}
	return platforms, nil
}
