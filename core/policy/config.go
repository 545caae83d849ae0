package policy

// Config holds the rollout policy.
type Config struct {
	// DeploymentStage is the default stage: assess, report, or deploy.
	DeploymentStage string `mapstructure:"deployment_stage" default:"assess"`
	// DeployAction is the preferred action in the deploy stage.
	DeployAction string `mapstructure:"deploy_action" default:"detect"`
	// ReportActionCandidates are tried in order in the report stage.
	ReportActionCandidates []string `mapstructure:"report_action_candidates" default:"no_action,none,monitor"`
	// PrevalenceThreshold is the device count flagging a domain as high prevalence.
	PrevalenceThreshold int `mapstructure:"prevalence_threshold" default:"25"`
	// PrevalenceMax bounds the number of prevalence queries.
	PrevalenceMax int `mapstructure:"prevalence_max" default:"50"`
}

// Policy returns the action preferences.
func (c Config) Policy() Policy {
	return Policy{DeployAction: c.DeployAction, ReportCandidates: c.ReportActionCandidates}
}

// RolloutConfig scopes the rollout.
type RolloutConfig struct {
	// HostGroups restricts records to these host group names. Empty means global.
	HostGroups []string `mapstructure:"host_groups" default:""`
	// PriorityPlatforms are tool names whose domains sort first.
	PriorityPlatforms []string `mapstructure:"priority_platforms" default:""`
}

// SafetyConfig excludes tools and domains from the desired set.
type SafetyConfig struct {
	// ExcludedPlatforms are tool names never turned into indicators.
	ExcludedPlatforms []string `mapstructure:"excluded_platforms" default:""`
	// ExcludedDomains are domains never turned into indicators.
	ExcludedDomains []string `mapstructure:"excluded_domains" default:""`
}
