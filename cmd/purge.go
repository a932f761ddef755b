package cmd

import (
	"fmt"
	"sort"

	"github.com/Lumos-Labs-HQ/libseed/internal/manifest"
	"github.com/Lumos-Labs-HQ/libseed/internal/seeder"
	"github.com/Lumos-Labs-HQ/libseed/internal/utils"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var purgeManifest string

var purgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Delete the data a previous run created",
	Long: `Delete every publisher, author, book, account and student recorded in a
manifest, together with all loans and payments that reference them. Rows
that were not created by the run are left untouched.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		path := purgeManifest
		if path == "" {
			path = cfg.Manifest.Path
		}
		m, err := manifest.Read(path)
		if err != nil {
			return err
		}

		force, _ := cmd.Flags().GetBool("force")
		input := &utils.InputUtils{}
		color.Yellow("⚠️  This deletes %d books, %d users and %d students recorded in %s, with their loans and payments.",
			len(m.BookIDs), len(m.UserIDs), len(m.StudentIDs), path)
		if !input.AskConfirmation("Continue?", force) {
			color.Yellow("Purge cancelled")
			return nil
		}

		ctx := cmd.Context()
		adapter, err := openAdapter(ctx, cfg)
		if err != nil {
			return err
		}
		defer adapter.Close()

		stats, err := seeder.NewSeeder(adapter, cfg.Seed).Purge(ctx, m)
		if err != nil {
			return err
		}

		tables := make([]string, 0, len(stats))
		for table := range stats {
			tables = append(tables, table)
		}
		sort.Strings(tables)
		for _, table := range tables {
			fmt.Printf("  %-14s %d\n", table, stats[table])
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(purgeCmd)
	purgeCmd.Flags().StringVar(&purgeManifest, "manifest", "", "Manifest of the run to delete (default generated_ids.json)")
}
