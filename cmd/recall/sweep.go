package main

import (
	"fmt"

	"github.com/sandevgo/recall/internal/core"
	"github.com/sandevgo/recall/pkg/log"
	"github.com/sandevgo/recall/pkg/retry"
	"github.com/spf13/cobra"
)

var (
	sweepThreshold float64
	sweepNoPrune   bool
)

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Run the decay and prune maintenance pass",
	Long: `Applies importance decay to every non-pinned memory, then prunes memories
whose importance fell below the threshold. Meant to be invoked on a cadence
by an external scheduler (cron). Safe to re-run: a failed sweep leaves
applied updates in place and the elapsed-time accounting catches up next run.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, flushLog := setupLogger(cmd.Context())
		defer flushLog()

		store, cfg, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer store.Close()

		threshold := sweepThreshold
		if !cmd.Flags().Changed("threshold") {
			threshold = cfg.PruneThreshold
		}

		// Whole sweeps are idempotent, so transient backend faults are
		// worth retrying here even though the store itself never retries.
		retrier := retry.NewDefaultRetrier()

		var decay core.DecayResult
		err = retrier.Do(ctx, func() error {
			var derr error
			decay, derr = store.ApplyDecay(ctx)
			return derr
		})
		if err != nil {
			return fmt.Errorf("decay sweep failed: %w", err)
		}
		fmt.Printf("decayed %d memories over %d day(s)\n", decay.Decayed, decay.DaysElapsed)

		if sweepNoPrune {
			return nil
		}

		var pruned int
		err = retrier.Do(ctx, func() error {
			var perr error
			pruned, perr = store.Prune(ctx, threshold)
			return perr
		})
		if err != nil {
			return fmt.Errorf("prune sweep failed: %w", err)
		}
		log.FromCtx(ctx).Info().Int("pruned", pruned).Msg("sweep finished")
		fmt.Printf("pruned %d memories below importance %.0f\n", pruned, threshold)
		return nil
	},
}

func init() {
	sweepCmd.Flags().Float64VarP(&sweepThreshold, "threshold", "t", 10, "prune floor (importance)")
	sweepCmd.Flags().BoolVar(&sweepNoPrune, "no-prune", false, "apply decay only")
	rootCmd.AddCommand(sweepCmd)
}
