package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/abhisek/wordzipf/internal/difficulty"
	"github.com/abhisek/wordzipf/internal/mode"
	"github.com/abhisek/wordzipf/internal/ui/theme"
)

var levelCmd = &cobra.Command{
	Use:   "level",
	Short: "Show or change the per-mode difficulty level",
}

var levelShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the level of every mode",
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := openEnv(cmd)
		if err != nil {
			return err
		}
		defer env.Close()

		levels, err := difficulty.Load(cmd.Context(), env.store.KV())
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		for _, m := range mode.All {
			fmt.Fprintf(out, "%-10s  %s\n", m, theme.LevelBar(levels.Get(m), difficulty.MinLevel, difficulty.MaxLevel, 20))
		}
		return nil
	},
}

var levelSetCmd = &cobra.Command{
	Use:   "set <mode> <level>",
	Short: "Set a mode's level (higher is easier)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := mode.Parse(args[0])
		if err != nil {
			return err
		}
		v, err := strconv.ParseFloat(args[1], 64)
		if err != nil {
			return fmt.Errorf("invalid level %q: %w", args[1], err)
		}

		env, err := openEnv(cmd)
		if err != nil {
			return err
		}
		defer env.Close()

		levels, err := difficulty.Load(cmd.Context(), env.store.KV())
		if err != nil {
			return err
		}
		got, err := levels.Set(cmd.Context(), m, v)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s level set to %.2f\n", m, got)
		return nil
	},
}

var levelResetCmd = &cobra.Command{
	Use:   "reset [mode]",
	Short: "Reset one mode, or every mode, to the default level",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		modes := mode.All
		if len(args) == 1 {
			m, err := mode.Parse(args[0])
			if err != nil {
				return err
			}
			modes = []mode.Mode{m}
		}

		env, err := openEnv(cmd)
		if err != nil {
			return err
		}
		defer env.Close()

		levels, err := difficulty.Load(cmd.Context(), env.store.KV())
		if err != nil {
			return err
		}
		for _, m := range modes {
			if err := levels.Reset(cmd.Context(), m); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s level reset to %.2f\n", m, difficulty.DefaultLevel)
		}
		return nil
	},
}

func init() {
	levelCmd.AddCommand(levelShowCmd)
	levelCmd.AddCommand(levelSetCmd)
	levelCmd.AddCommand(levelResetCmd)
}
