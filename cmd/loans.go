package cmd

import (
	"fmt"

	"github.com/Lumos-Labs-HQ/libseed/internal/manifest"
	"github.com/Lumos-Labs-HQ/libseed/internal/seeder"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	loansManifest string
	loansCount    int
)

var loansCmd = &cobra.Command{
	Use:   "loans",
	Short: "Add loans and payments to a previous run",
	Long: `Generate more loans and payments for the books and students recorded in
a manifest, and record the new loan ids in it.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		path := loansManifest
		if path == "" {
			path = cfg.Manifest.Path
		}
		m, format, err := manifest.ReadFormat(path)
		if err != nil {
			return err
		}

		count := loansCount
		if !cmd.Flags().Changed("count") {
			count = cfg.Seed.Loans
		}
		if count < 0 {
			return fmt.Errorf("invalid loan count: %d", count)
		}

		ctx := cmd.Context()
		adapter, err := openAdapter(ctx, cfg)
		if err != nil {
			return err
		}
		defer adapter.Close()

		s := seeder.NewSeeder(adapter, cfg.Seed)
		ids, stats, err := s.InsertLoansAndPayments(ctx, m.BookIDs, m.StudentIDs, count)
		if err != nil {
			return err
		}

		m.LoanIDs = append(m.LoanIDs, ids...)
		if err := manifest.Write(path, format, m); err != nil {
			return err
		}

		fmt.Println()
		printLoanStats(stats)
		fmt.Printf("  %-14s %d\n", "seed", s.Seed())
		color.Green("💾 Loan IDs added to %s", path)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(loansCmd)
	loansCmd.Flags().StringVar(&loansManifest, "manifest", "", "Manifest of the run to extend (default generated_ids.json)")
	loansCmd.Flags().IntVar(&loansCount, "count", 0, "Number of loans (default seed.loans)")
}
