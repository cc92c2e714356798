package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abhisek/wordzipf/internal/recent"
)

var recentCmd = &cobra.Command{
	Use:   "recent",
	Short: "Show or clear recently seen words",
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := openEnv(cmd)
		if err != nil {
			return err
		}
		defer env.Close()

		ctx := cmd.Context()
		log, err := recent.Load(ctx, env.store.KV())
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()

		if clear, _ := cmd.Flags().GetBool("clear"); clear {
			if err := log.Clear(ctx); err != nil {
				return err
			}
			fmt.Fprintln(out, "Recent words cleared.")
			return nil
		}

		words := log.Words()
		if len(words) == 0 {
			fmt.Fprintln(out, "No recent words.")
			return nil
		}
		for i, w := range words {
			fmt.Fprintf(out, "%3d. %s\n", i+1, w)
		}
		return nil
	},
}

func init() {
	recentCmd.Flags().Bool("clear", false, "Forget all recent words")
}
