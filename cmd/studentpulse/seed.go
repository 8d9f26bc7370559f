package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/yungbote/studentpulse-backend/internal/seed"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load the demo cohort and admin account",
	RunE: func(cmd *cobra.Command, args []string) error {
		data := seed.DemoCohort
		if p, _ := cmd.Flags().GetString("file"); p != "" {
			b, err := os.ReadFile(p)
			if err != nil {
				return fmt.Errorf("read seed file: %w", err)
			}
			data = b
		}
		f, err := seed.Parse(data)
		if err != nil {
			return err
		}

		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()
		if err := a.Migrate(); err != nil {
			return err
		}

		res, err := seed.NewSeeder(a.Log, a.Services.Auth, a.Services.Student).Apply(commandContext(cmd), f)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "admin created: %t, students created: %d, skipped: %d, accounts created: %d\n",
			res.AdminCreated, res.StudentsCreated, res.StudentsSkipped, res.AccountsCreated)
		return nil
	},
}

func init() {
	seedCmd.Flags().String("file", "", "YAML seed file (defaults to the embedded demo cohort)")
}
