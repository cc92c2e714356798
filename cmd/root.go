package cmd

import (
	"github.com/spf13/cobra"

	"github.com/abhisek/wordzipf/internal/store"
)

var rootCmd = &cobra.Command{
	Use:   "wordzipf",
	Short: "Adaptive vocabulary trainer",
	Long: "wordzipf picks words by how common they are (their Zipf score) and " +
		"moves you towards rarer words as you answer correctly.",
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("db", "", "Path to SQLite database file (overrides WORDZIPF_DB env var)")
	rootCmd.PersistentFlags().String("config", "", "Path to a YAML config file")
	rootCmd.PersistentFlags().Bool("no-color", false, "Disable coloured output")

	rootCmd.AddCommand(playCmd)
	rootCmd.AddCommand(levelCmd)
	rootCmd.AddCommand(catalogCmd)
	rootCmd.AddCommand(recentCmd)
	rootCmd.AddCommand(llmCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(resetCmd)
	rootCmd.AddCommand(versionCmd)
}

// resolveDBPath returns the database path using --db flag (highest priority),
// then WORDZIPF_DB env var, then the default XDG path.
func resolveDBPath(cmd *cobra.Command) (string, error) {
	if p, _ := cmd.Flags().GetString("db"); p != "" {
		return p, store.EnsureDir(p)
	}
	return store.DefaultDBPath()
}
