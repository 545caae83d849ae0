package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(Options{Dir: t.TempDir()})
	require.NoError(t, err)

	assert.Equal(t, "https://api.crowdstrike.com", cfg.API.BaseURL)
	assert.Equal(t, "assess", cfg.Policy.DeploymentStage)
	assert.Equal(t, "detect", cfg.Policy.DeployAction)
	assert.Equal(t, []string{"no_action", "none", "monitor"}, cfg.Policy.ReportActionCandidates)
	assert.Equal(t, 25, cfg.Policy.PrevalenceThreshold)
	assert.Equal(t, 50, cfg.Policy.PrevalenceMax)
	assert.Empty(t, cfg.Rollout.HostGroups)
	assert.Equal(t, 200, cfg.Apply.ChunkCreate)
	assert.Equal(t, 500, cfg.Apply.ChunkDelete)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.True(t, cfg.History.Enabled)
	assert.False(t, cfg.Storage.Enabled)
	assert.Empty(t, cfg.Warnings)
}

func TestLoad_SettingsFileAndEnvPrecedence(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, DefaultFile, `
policy:
  deployment_stage: report
  prevalence_threshold: 10
rollout:
  host_groups: [pilot, finance]
safety:
  excluded_domains:
    - example.com
reporting:
  enabled: true
`)
	t.Setenv("POLICY_PREVALENCE_THRESHOLD", "40")

	cfg, err := Load(Options{Dir: dir})
	require.NoError(t, err)

	assert.Equal(t, "report", cfg.Policy.DeploymentStage)
	assert.Equal(t, 40, cfg.Policy.PrevalenceThreshold)
	assert.Equal(t, []string{"pilot", "finance"}, cfg.Rollout.HostGroups)
	assert.Equal(t, []string{"example.com"}, cfg.Safety.ExcludedDomains)
	assert.Equal(t, []string{`unknown config section "reporting" ignored`}, cfg.Warnings)
}

func TestLoad_EnvList(t *testing.T) {
	t.Setenv("ROLLOUT_HOST_GROUPS", "pilot,finance")

	cfg, err := Load(Options{Dir: t.TempDir()})
	require.NoError(t, err)
	assert.Equal(t, []string{"pilot", "finance"}, cfg.Rollout.HostGroups)
}

func TestLoad_LegacyCredentialNames(t *testing.T) {
	t.Setenv("CLIENT_ID", "legacy-id")
	t.Setenv("CLIENT_SECRET", "legacy-secret")

	cfg, err := Load(Options{Dir: t.TempDir()})
	require.NoError(t, err)
	assert.Equal(t, "legacy-id", cfg.API.ClientID)
	assert.Equal(t, "legacy-secret", cfg.API.ClientSecret)
	assert.True(t, cfg.API.HasCredentials())
}

func TestLoad_EnvFile(t *testing.T) {
	dir := t.TempDir()
	env := writeFile(t, dir, "custom.env", "FEED_FILE=/tmp/feed.json\n")
	t.Setenv("FEED_FILE", "")

	cfg, err := Load(Options{Dir: dir, EnvFile: env})
	require.NoError(t, err)
	assert.Equal(t, "/tmp/feed.json", cfg.Feed.File)
}

func TestLoad_ExplicitFileMustExist(t *testing.T) {
	_, err := Load(Options{File: filepath.Join(t.TempDir(), "missing.yaml")})
	assert.Error(t, err)
}

func TestLoad_InvalidYAML(t *testing.T) {
	dir := t.TempDir()
	file := writeFile(t, dir, "bad.yaml", "policy: [unterminated\n")

	_, err := Load(Options{File: file})
	assert.Error(t, err)
}

func TestSections(t *testing.T) {
	s := Sections()
	assert.Contains(t, s, "api")
	assert.Contains(t, s, "rollout")
	assert.NotContains(t, s, "-")
}
