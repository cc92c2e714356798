package cmd

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	tea "charm.land/bubbletea/v2"
	"github.com/spf13/cobra"

	"github.com/abhisek/wordzipf/internal/dictionary"
	"github.com/abhisek/wordzipf/internal/difficulty"
	"github.com/abhisek/wordzipf/internal/dispute"
	"github.com/abhisek/wordzipf/internal/gateway"
	"github.com/abhisek/wordzipf/internal/llm"
	"github.com/abhisek/wordzipf/internal/mode"
	"github.com/abhisek/wordzipf/internal/recent"
	"github.com/abhisek/wordzipf/internal/sampler"
	"github.com/abhisek/wordzipf/internal/session"
)

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Start a training session",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := openEnv(cmd)
		if err != nil {
			return err
		}
		defer env.Close()
		kv := env.store.KV()

		if key, _ := cmd.Flags().GetString("api-key"); key != "" {
			if err := session.SaveAPIKey(ctx, kv, key); err != nil {
				return fmt.Errorf("save API key: %w", err)
			}
		}

		prefs, err := session.LoadPreferences(ctx, kv)
		if err != nil {
			return err
		}
		if applyPreferenceFlags(cmd, &prefs) {
			if err := session.SavePreferences(ctx, kv, prefs); err != nil {
				return err
			}
		}

		provider, err := env.provider(ctx)
		if err != nil {
			return fmt.Errorf("build LLM provider: %w", err)
		}

		levels, err := difficulty.Load(ctx, kv)
		if err != nil {
			return err
		}
		recentLog, err := recent.Load(ctx, kv)
		if err != nil {
			return err
		}

		deps := session.Deps{
			Catalog:    env.catalog(ctx),
			Levels:     levels,
			Recent:     recentLog,
			Sampler:    sampler.New(rand.NewPCG(uint64(time.Now().UnixNano()), rand.Uint64())),
			Dictionary: dictionary.NewClient(env.cfg.Dictionary.BaseURL, env.log),
			KV:         kv,
			Log:        env.log,
			HasAPIKey:  provider != nil,
		}
		if provider != nil {
			deps.Content = gateway.New(provider, env.cfg.LLM.Timeout)
			deps.Disputes = dispute.New(provider, env.cfg.LLM.Timeout, llm.DisputeRetry())
		}

		m, err := session.LoadMode(ctx, kv)
		if err != nil {
			return err
		}
		sess := session.New(deps, m)
		defer sess.Close()

		if name, _ := cmd.Flags().GetString("mode"); name != "" {
			want, err := mode.Parse(name)
			if err != nil {
				return err
			}
			if err := sess.SwitchMode(ctx, want); err != nil {
				return errors.New(session.Describe(err))
			}
		}

		visited, err := session.HasVisited(ctx, kv)
		if err != nil {
			return err
		}
		rounds, _ := cmd.Flags().GetInt("rounds")

		p := newPlayer(ctx, sess, prefs, rounds, !visited)
		prog := tea.NewProgram(p,
			tea.WithContext(ctx),
			tea.WithInput(cmd.InOrStdin()),
			tea.WithOutput(cmd.OutOrStdout()),
		)
		if _, err := prog.Run(); err != nil {
			return fmt.Errorf("run play: %w", err)
		}
		printSummary(cmd.OutOrStdout(), sess.Summary())
		return p.Err()
	},
}

// applyPreferenceFlags copies explicitly set display flags into prefs and
// reports whether anything changed.
func applyPreferenceFlags(cmd *cobra.Command, prefs *session.Preferences) bool {
	changed := false
	if cmd.Flags().Changed("examples") {
		prefs.ShowExamples, _ = cmd.Flags().GetBool("examples")
		changed = true
	}
	if cmd.Flags().Changed("synonyms") {
		prefs.ShowSynonyms, _ = cmd.Flags().GetBool("synonyms")
		changed = true
	}
	return changed
}

func init() {
	playCmd.Flags().StringP("mode", "m", "", "Training mode: normal, reverse, definition, combo or classic")
	playCmd.Flags().IntP("rounds", "n", 0, "Stop after this many rounds (0 = until :quit)")
	playCmd.Flags().Bool("examples", false, "Show dictionary examples in classic mode (saved)")
	playCmd.Flags().Bool("synonyms", false, "Show dictionary synonyms in classic mode (saved)")
	playCmd.Flags().String("api-key", "", "Save an LLM API key for later sessions")
}
