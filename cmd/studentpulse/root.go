package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/yungbote/studentpulse-backend/internal/app"
)

var rootCmd = &cobra.Command{
	Use:           "studentpulse",
	Short:         "Student performance prediction API",
	Long:          "studentpulse serves student records, performance predictions and cohort analytics.",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd)
	},
}

func init() {
	rootCmd.PersistentFlags().String("env-file", "", "Load environment from this file before .env")

	serveCmd.Flags().Bool("skip-migrate", false, "Do not auto-migrate the schema on startup")
	rootCmd.Flags().AddFlagSet(serveCmd.Flags())

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(backfillCmd)
}

// newApp wires the application after loading any --env-file.
func newApp(cmd *cobra.Command) (*app.App, error) {
	if p, _ := cmd.Flags().GetString("env-file"); p != "" {
		app.LoadDotEnv(p)
	}
	return app.New(commandContext(cmd))
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
