package policy

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLister struct {
	actions   []string
	platforms []string
	err       error
	calls     int
}

func (f *fakeLister) ListActions(context.Context) ([]string, error) {
	f.calls++
	return f.actions, f.err
}

func (f *fakeLister) ListPlatforms(context.Context) ([]string, error) {
	f.calls++
	return f.platforms, f.err
}

func TestParseStage(t *testing.T) {
	for in, want := range map[string]Stage{"assess": StageAssess, " Report ": StageReport, "DEPLOY": StageDeploy} {
		got, err := ParseStage(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParseStage("prevent")
	assert.Error(t, err)

	assert.False(t, StageAssess.IsWrite())
	assert.True(t, StageReport.IsWrite())
	assert.True(t, StageDeploy.IsWrite())
}

func TestAvailableActions_AddsNoActionForNone(t *testing.T) {
	assert.Equal(t, []string{"detect", "no_action", "none"}, AvailableActions([]string{"None", "detect", "DETECT", " "}))
	assert.Equal(t, []string{"detect"}, AvailableActions([]string{"detect"}))
}

func TestResolveAction(t *testing.T) {
	tests := []struct {
		name      string
		stage     Stage
		available []string
		policy    Policy
		want      string
		wantErr   bool
	}{
		{"assess is inert", StageAssess, nil, Policy{}, "none", false},
		{"report first candidate", StageReport, []string{"none", "detect"}, Policy{ReportCandidates: []string{"no_action", "none"}}, "no_action", false},
		{"report skips missing", StageReport, []string{"monitor", "detect"}, Policy{ReportCandidates: []string{"no_action", "none", "Monitor"}}, "monitor", false},
		{"report none available", StageReport, []string{"detect"}, Policy{ReportCandidates: []string{"no_action"}}, "", true},
		{"deploy configured", StageDeploy, []string{"detect", "prevent"}, Policy{DeployAction: "Prevent"}, "prevent", false},
		{"deploy falls back to detect", StageDeploy, []string{"detect", "allow"}, Policy{DeployAction: "prevent"}, "detect", false},
		{"deploy falls back to first", StageDeploy, []string{"prevent", "allow"}, Policy{DeployAction: "block"}, "allow", false},
		{"no actions", StageDeploy, []string{}, Policy{}, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolveAction(tt.stage, tt.available, tt.policy, nil)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := ResolveAction(StageReport, nil, Policy{}, nil)
	assert.ErrorIs(t, err, ErrNoActions)
}

func TestResolveActionFrom(t *testing.T) {
	lister := &fakeLister{actions: []string{"detect"}}
	got, err := ResolveActionFrom(context.Background(), lister, StageAssess, Policy{}, nil)
	require.NoError(t, err)
	assert.Equal(t, "none", got)
	assert.Equal(t, 0, lister.calls)

	got, err = ResolveActionFrom(context.Background(), lister, StageDeploy, Policy{DeployAction: "detect"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "detect", got)

	_, err = ResolveActionFrom(context.Background(), &fakeLister{err: errors.New("401")}, StageDeploy, Policy{}, nil)
	assert.Error(t, err)
}

func TestResolvePlatforms(t *testing.T) {
	assert.Equal(t, []string{"windows", "linux"}, ResolvePlatforms([]string{"Linux", "android", "Windows"}))
	assert.Equal(t, []string{}, ResolvePlatforms([]string{"ios"}))

	got, err := ResolvePlatformsFrom(context.Background(), &fakeLister{platforms: []string{"mac", "windows", "linux"}}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"windows", "mac", "linux"}, got)
}
