package cmd

import (
	"github.com/spf13/cobra"

	"github.com/abhisek/bmc/internal/store"
)

var rootCmd = &cobra.Command{
	Use:   "bmc",
	Short: "Course unit tracker",
	Long: "bmc tracks progress through a course's units, plays their audio and documents\n" +
		"through the system handlers, and unlocks the final exam once every unit is complete.",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runApp(cmd)
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("db", "", "Path to SQLite database file (overrides BMC_DB and db_path)")
	rootCmd.PersistentFlags().String("config", "", "Path to TOML config file")
	rootCmd.PersistentFlags().String("log-file", "", "Write logs to this file")
	rootCmd.Flags().String("link", "", `Location reference to open, e.g. "#unit=u2"`)

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(completeCmd)
	rootCmd.AddCommand(examCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(cacheCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(resetCmd)
}

// resolveDBPath returns the database path using --db flag (highest priority),
// then the configured db_path, then BMC_DB env var, then the default XDG path.
func resolveDBPath(cmd *cobra.Command, configured string) (string, error) {
	if p, _ := cmd.Flags().GetString("db"); p != "" {
		return p, store.EnsureDir(p)
	}
	if configured != "" {
		return configured, store.EnsureDir(configured)
	}
	return store.DefaultDBPath()
}
