package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abhisek/wordzipf/internal/store"
)

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Delete saved levels, preferences, recent words and API key",
	RunE: func(cmd *cobra.Command, args []string) error {
		if yes, _ := cmd.Flags().GetBool("yes"); !yes {
			return errors.New("this deletes all saved progress; re-run with --yes to confirm")
		}

		env, err := openEnv(cmd)
		if err != nil {
			return err
		}
		defer env.Close()

		n, err := clearKV(cmd.Context(), env.store.KV())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Removed %d saved entries.\n", n)
		return nil
	},
}

func clearKV(ctx context.Context, kv store.KV) (int, error) {
	keys, err := kv.Keys(ctx)
	if err != nil {
		return 0, fmt.Errorf("list keys: %w", err)
	}
	for _, k := range keys {
		if err := kv.Delete(ctx, k); err != nil {
			return 0, fmt.Errorf("delete %s: %w", k, err)
		}
	}
	return len(keys), nil
}

func init() {
	resetCmd.Flags().Bool("yes", false, "Confirm deletion")
}
