package cmd

import (
	"fmt"
	"time"

	"github.com/Lumos-Labs-HQ/libseed/internal/manifest"
	"github.com/Lumos-Labs-HQ/libseed/internal/seeder"
	"github.com/Lumos-Labs-HQ/libseed/internal/types"
	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database",
	Long: `Generate publishers, authors, books (one per record of the books file),
student accounts, loans and payments, then write the manifest of generated ids.

Each entity type is inserted in its own transaction unless --atomic is set.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		adapter, err := openAdapter(ctx, cfg)
		if err != nil {
			return err
		}
		defer adapter.Close()

		rc, err := seeder.NewSeeder(adapter, cfg.Seed).Run(ctx)
		if err != nil {
			return err
		}

		m := newManifest(rc)
		if err := manifest.Write(cfg.Manifest.Path, cfg.Manifest.Format, m); err != nil {
			return err
		}

		printRunSummary(rc)
		color.Green("💾 IDs saved to %s", cfg.Manifest.Path)
		return nil
	},
}

func newManifest(rc *seeder.RunContext) *manifest.Manifest {
	m := &manifest.Manifest{
		RunID:         uuid.NewString(),
		Seed:          rc.Seed,
		PublisherIDs:  orEmpty(rc.PublisherIDs),
		AuthorIDs:     orEmpty(rc.AuthorIDs),
		BookIDs:       orEmpty(rc.BookIDs),
		UserIDs:       orEmpty(rc.UserIDs),
		StudentIDs:    orEmpty(rc.StudentIDs),
		StudentRoleID: rc.StudentRoleID,
		DegreeIDs:     orEmpty(rc.DegreeIDs),
		LoanIDs:       rc.LoanIDs,
	}
	m.Stamp(time.Now())
	return m
}

func orEmpty(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return ids
}

func printRunSummary(rc *seeder.RunContext) {
	fmt.Println()
	color.Cyan("📊 Summary")
	fmt.Printf("  %-14s %d\n", "publishers", len(rc.PublisherIDs))
	fmt.Printf("  %-14s %d\n", "authors", len(rc.AuthorIDs))
	fmt.Printf("  %-14s %d\n", "books", len(rc.BookIDs))
	fmt.Printf("  %-14s %d\n", "users", len(rc.UserIDs))
	fmt.Printf("  %-14s %d\n", "students", len(rc.StudentIDs))
	printLoanStats(rc.Loans)
	fmt.Printf("  %-14s %d\n", "seed", rc.Seed)
}

func printLoanStats(stats seeder.LoanStats) {
	fmt.Printf("  %-14s %d (%d returned)\n", "loans", stats.Loans, stats.Returned)
	for _, t := range []types.PayType{types.PayNormalLoan, types.PayOverdueLoan, types.PaySanction} {
		fmt.Printf("  %-14s %d\n", string(t), stats.Payments[t])
	}
	fmt.Printf("  %-14s %s\n", "total debt", stats.Debt.StringFixed(2))
}

func init() {
	rootCmd.AddCommand(seedCmd)

	flags := seedCmd.Flags()
	flags.String("books", "", "Book metadata file, JSON array or one object per line (default books.json)")
	flags.Int("publishers", 0, "Number of publishers (default 20)")
	flags.Int("authors", 0, "Number of authors (default 20)")
	flags.Int("users", 0, "Number of student accounts (default 50)")
	flags.Int("loans", 0, "Number of loans (default 500)")
	flags.Int64("seed", 0, "Random seed; 0 picks one from the clock")
	flags.String("manifest", "", "Manifest output path (default generated_ids.json)")
	flags.String("format", "", "Manifest format: json or yaml (default from extension)")
	flags.String("loan-tx", "", "Loan transaction mode: batch or loan (default batch)")
	flags.Bool("atomic", false, "Run every stage in one transaction")
	flags.Bool("hash-per-user", false, "Hash the account password per user instead of using the fixture hash")

	viper.BindPFlag("seed.books_file", flags.Lookup("books"))
	viper.BindPFlag("seed.publishers", flags.Lookup("publishers"))
	viper.BindPFlag("seed.authors", flags.Lookup("authors"))
	viper.BindPFlag("seed.users", flags.Lookup("users"))
	viper.BindPFlag("seed.loans", flags.Lookup("loans"))
	viper.BindPFlag("seed.random_seed", flags.Lookup("seed"))
	viper.BindPFlag("manifest.path", flags.Lookup("manifest"))
	viper.BindPFlag("manifest.format", flags.Lookup("format"))
	viper.BindPFlag("seed.loan_tx", flags.Lookup("loan-tx"))
	viper.BindPFlag("seed.atomic", flags.Lookup("atomic"))
	viper.BindPFlag("seed.accounts.hash_per_user", flags.Lookup("hash-per-user"))
}
