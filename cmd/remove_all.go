package cmd

import (
	"errors"
	"fmt"

	"ioc-sync/core/metrics"
	"ioc-sync/core/reconcile"
	"ioc-sync/feature/indicators"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	removeDryRun       bool
	removeConfirmWrite bool
)

// removeAllCmd deletes every record managed by this project.
var removeAllCmd = &cobra.Command{
	Use:   "remove-all",
	Short: "Remove ALL indicators created by this project",
	Long: `Deletes every managed indicator (source autormmdetect_lolrmm) from the
inventory in batches. Requires --confirm-write; use --dry-run to see what
would be removed.`,
	RunE: runRemoveAll,
}

func init() {
	removeAllCmd.Flags().BoolVar(&removeDryRun, "dry-run", false, "Show what would be removed without writes")
	removeAllCmd.Flags().BoolVar(&removeConfirmWrite, "confirm-write", false, "Required to remove indicators")
	RootCmd.AddCommand(removeAllCmd)
}

func runRemoveAll(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, l, err := loadRuntime()
	if err != nil {
		return err
	}
	defer l.Sync()

	m := metrics.New()
	defer writeMetrics(cfg, l, m)

	svc, err := newService(ctx, cfg, l, m, 0)
	if err != nil {
		return err
	}

	l.Info("Remove all mode enabled.")
	out, err := svc.RemoveAll(ctx, indicators.RemoveOptions{DryRun: removeDryRun, Confirmed: removeConfirmWrite})
	if errors.Is(err, reconcile.ErrNotConfirmed) && out != nil {
		return fmt.Errorf("pass --confirm-write to remove %d indicators: %w", out.Plan.Summary.Delete, err)
	}
	if err != nil {
		return err
	}

	if out.Plan.Summary.Delete == 0 {
		l.Info("No indicators to remove.")
		return nil
	}
	if removeDryRun {
		logSample(l, out)
		l.Info("Dry-run mode: No changes were made.", zap.Int("would_remove", out.Plan.Summary.Delete))
		return nil
	}

	l.Info("Removal complete.",
		zap.Int("removed", out.Plan.Summary.Delete),
		zap.Int("failed_batches", out.Result.FailedBatches()))
	return nil
}
