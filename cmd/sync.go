package cmd

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"ioc-sync/core/metrics"
	"ioc-sync/core/policy"
	"ioc-sync/core/report"
	"ioc-sync/feature/indicators"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	syncStage          string
	syncDryRun         bool
	syncConfirmWrite   bool
	syncPrune          bool
	syncRetrodetects   bool
	syncLimit          int
	syncPrevThreshold  int
	syncPrevMax        int
	syncSkipPrevalence bool
	syncSummaryJSON    string
	syncHostGroups     string
	syncGlobal         bool
	syncFeedFile       string
)

// syncCmd runs one stage of the rollout.
var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Sync LOLRMM domains into the indicator inventory",
	Long: `Fetches the LOLRMM feed, builds the desired domain indicators and
reconciles them with the managed records in the inventory.

The assess stage is read-only and runs the prevalence report. The report and
deploy stages write records and need --confirm-write, an interactive
confirmation, or --dry-run.

Examples:
  # Read-only prevalence review
  ioc-sync sync --stage assess

  # Preview a passive rollout
  ioc-sync sync --stage report --dry-run

  # Deploy to two host groups and remove stale records
  ioc-sync sync --stage deploy --host-groups pilot,finance --prune --confirm-write`,
	RunE: runSync,
}

func init() {
	f := syncCmd.Flags()
	f.StringVar(&syncStage, "stage", "", "Rollout stage: assess, report or deploy (default: policy.deployment_stage)")
	f.BoolVar(&syncDryRun, "dry-run", false, "Show planned changes without writes")
	f.BoolVar(&syncConfirmWrite, "confirm-write", false, "Confirm a non-dry-run report/deploy run without prompting")
	f.BoolVar(&syncPrune, "prune", false, "Delete managed records no longer in the feed")
	f.BoolVar(&syncRetrodetects, "retrodetects", false, "Submit retrodetects on create/update")
	f.IntVar(&syncLimit, "limit", 0, "Limit processed indicators (0=all)")
	f.IntVar(&syncPrevThreshold, "prevalence-threshold", 0, "Device count flagging a domain as high prevalence (default: policy.prevalence_threshold)")
	f.IntVar(&syncPrevMax, "prevalence-max", 0, "Max indicators for the prevalence report (default: policy.prevalence_max)")
	f.BoolVar(&syncSkipPrevalence, "skip-prevalence-report", false, "Skip the prevalence report in the assess stage")
	f.StringVar(&syncSummaryJSON, "summary-json", "", "Write the machine-readable run summary to this file")
	f.StringVar(&syncHostGroups, "host-groups", "", "Comma-separated host group names (overrides rollout.host_groups; empty clears)")
	f.BoolVar(&syncGlobal, "global", false, "Force global deployment (ignores configured host groups)")
	f.StringVar(&syncFeedFile, "feed-file", "", "Read the feed from a saved file instead of downloading it")

	RootCmd.AddCommand(syncCmd)
}

func runSync(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, l, err := loadRuntime()
	if err != nil {
		return err
	}
	defer l.Sync()

	rawStage := syncStage
	if rawStage == "" {
		rawStage = cfg.Policy.DeploymentStage
	}
	stage, err := policy.ParseStage(rawStage)
	if err != nil {
		return err
	}
	if syncFeedFile != "" {
		cfg.Feed.File = syncFeedFile
	}

	var override *string
	if cmd.Flags().Changed("host-groups") {
		override = &syncHostGroups
	}
	scope := policy.ResolveScope(cfg.Rollout.HostGroups, override, syncGlobal)

	l.Info("Configuration",
		zap.String("stage", stage.String()),
		zap.Int("prevalence_threshold", firstPositive(syncPrevThreshold, cfg.Policy.PrevalenceThreshold)),
		zap.Int("limit", syncLimit),
		zap.Int("priority_platforms", len(cfg.Rollout.PriorityPlatforms)),
		zap.Int("excluded_platforms", len(cfg.Safety.ExcludedPlatforms)),
		zap.Int("excluded_domains", len(cfg.Safety.ExcludedDomains)),
		zap.Strings("host_groups", scope.Names),
		zap.String("host_groups_source", string(scope.Source)),
		zap.Bool("dry_run", syncDryRun),
	)

	confirmed := syncConfirmWrite
	if stage.IsWrite() && !syncDryRun && !confirmed {
		if !confirmWrite(cmd.InOrStdin(), cmd.OutOrStdout(), stage, scope) {
			l.Warn("Write not confirmed. No changes were made.")
			return nil
		}
		confirmed = true
	}

	m := metrics.New()
	defer writeMetrics(cfg, l, m)

	svc, err := newService(ctx, cfg, l, m, 0)
	if err != nil {
		return err
	}

	out, err := svc.Run(ctx, indicators.RunOptions{
		Stage:               stage,
		Scope:               scope,
		Limit:               syncLimit,
		DryRun:              syncDryRun,
		Confirmed:           confirmed,
		Prune:               syncPrune,
		Retrodetects:        syncRetrodetects,
		SkipPrevalence:      syncSkipPrevalence,
		PrevalenceThreshold: syncPrevThreshold,
		PrevalenceMax:       syncPrevMax,
	})
	if out != nil {
		logSample(l, out)
		if syncSummaryJSON != "" {
			if werr := report.WriteJSON(syncSummaryJSON, out.Summary); werr != nil {
				l.Error("Failed to write summary", zap.Error(werr))
			}
		}
		if werr := report.WriteText(cmd.OutOrStdout(), out.Summary); werr != nil {
			l.Warn("Failed to print summary", zap.Error(werr))
		}
	}
	if err != nil {
		return err
	}

	l.Info("Done.", zap.String("run_id", out.RunID))
	return nil
}

// confirmWrite asks the operator to confirm a write run. A global rollout
// needs the word GLOBAL, a scoped one needs yes.
func confirmWrite(in io.Reader, out io.Writer, stage policy.Stage, scope policy.Scope) bool {
	fmt.Fprintf(out, "\n!!! SAFETY WARNING: You are about to run in '%s' mode. !!!\n", strings.ToUpper(stage.String()))

	want := "yes"
	if scope.Global() {
		fmt.Fprintln(out, "!!! SCOPE WARNING: This will apply to ALL hosts (Global Scope). !!!")
		fmt.Fprint(out, "Type 'GLOBAL' to confirm global deployment: ")
		want = "GLOBAL"
	} else {
		fmt.Fprintf(out, "Scope: %d Host Groups.\n", len(scope.Names))
		fmt.Fprint(out, "Type 'yes' to confirm deployment: ")
	}

	response, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && response == "" {
		return false
	}
	response = strings.TrimSpace(response)
	if want == "yes" {
		response = strings.ToLower(response)
	}
	return response == want
}

// logSample logs the dry-run samples and any duplicate keys.
func logSample(l *zap.Logger, out *indicators.Outcome) {
	if out.Result == nil || out.Result.Sample == nil {
		return
	}
	s := out.Result.Sample
	for _, v := range s.Creates {
		l.Info("Would create", zap.String("value", v))
	}
	for _, u := range s.Updates {
		l.Info("Would update", zap.String("value", u.Value), zap.Strings("fields", u.Fields))
	}
	for _, id := range s.Deletes {
		l.Info("Would delete", zap.String("id", id))
	}
}

func firstPositive(values ...int) int {
	for _, v := range values {
		if v > 0 {
			return v
		}
	}
	return 0
}
