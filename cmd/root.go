package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	Version = "1.0.0"
)

var rootCmd = &cobra.Command{
	Use:   "libseed",
	Short: "Seed a library lending database with synthetic test data",
	Long: `
libseed fills the database of a library lending application with
referentially consistent test data: publishers, authors, books, student
accounts, loans and the payments each loan's debt implies.

Reference data (the STUDENT role and the degrees) must already exist.
Every run writes a manifest of the identifiers it generated, which the
loans and purge commands can reuse.

Database Support:
- PostgreSQL (pgx, or lib/pq with database.driver = "pq")
- SQLite (local files)`,

	SilenceUsage:  true,
	SilenceErrors: true,

	Run: func(cmd *cobra.Command, args []string) {
		showVersion, _ := cmd.Flags().GetBool("version")
		if showVersion {
			fmt.Printf("libseed version %s\n", Version)
			os.Exit(0)
		}

		cmd.Help()
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./libseed.config.json)")
	rootCmd.PersistentFlags().BoolP("force", "f", false, "Skip confirmations")

	rootCmd.Flags().BoolP("version", "v", false, "Show CLI version")
}

func initConfig() {
	if err := godotenv.Load(); err != nil {
		godotenv.Load(".env")
		godotenv.Load(".env.local")
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigType("json")
		viper.SetConfigName("libseed.config")
	}

	viper.SetEnvPrefix("LIBSEED")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	viper.ReadInConfig()
}
