package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var backfillCmd = &cobra.Command{
	Use:   "backfill",
	Short: "Generate predictions for students that have none",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		concurrency, _ := cmd.Flags().GetInt("concurrency")
		if concurrency <= 0 {
			concurrency = a.Cfg.BackfillConcurrency
		}
		res, err := a.Services.Prediction.BackfillMissing(commandContext(cmd), concurrency)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "scanned: %d, generated: %d, failed: %d\n", res.Scanned, res.Generated, res.Failed)
		if res.Failed > 0 {
			return fmt.Errorf("%d predictions failed", res.Failed)
		}
		return nil
	},
}

func init() {
	backfillCmd.Flags().Int("concurrency", 0, "Parallel workers (defaults to BACKFILL_CONCURRENCY)")
}
