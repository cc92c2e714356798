package cmd

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/abhisek/wordzipf/internal/catalog"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Query the word frequency list",
}

var catalogRangeCmd = &cobra.Command{
	Use:   "range <level>",
	Short: "List the words around a Zipf level",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		level, err := strconv.ParseFloat(args[0], 64)
		if err != nil {
			return fmt.Errorf("invalid level %q: %w", args[0], err)
		}
		width, _ := cmd.Flags().GetFloat64("width")

		env, err := openEnv(cmd)
		if err != nil {
			return err
		}
		defer env.Close()

		c := env.catalog(cmd.Context())
		words := c.EntriesInRange(level, width)
		out := cmd.OutOrStdout()
		if len(words) == 0 {
			fmt.Fprintf(out, "No words within %.2f of %.2f.\n", width, level)
			return nil
		}
		for _, w := range words {
			e, _ := c.Lookup(w)
			fmt.Fprintf(out, "%-24s %.2f\n", w, e.Zipf)
		}
		fmt.Fprintf(out, "%d words\n", len(words))
		return nil
	},
}

var catalogStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Summarise the word frequency list",
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := openEnv(cmd)
		if err != nil {
			return err
		}
		defer env.Close()

		s := env.catalog(cmd.Context()).Stats()
		out := cmd.OutOrStdout()
		if s.Words == 0 {
			fmt.Fprintln(out, "The word list is empty or could not be loaded.")
			return nil
		}

		fmt.Fprintf(out, "Words: %d  Zipf range: %.2f - %.2f\n", s.Words, s.MinZipf, s.MaxZipf)
		fmt.Fprintln(out, strings.Repeat("─", 40))
		buckets := lo.Keys(s.Buckets)
		sort.Ints(buckets)
		for _, b := range buckets {
			fmt.Fprintf(out, "%d.00 - %d.99  %8d\n", b, b, s.Buckets[b])
		}
		return nil
	},
}

func init() {
	catalogRangeCmd.Flags().Float64P("width", "w", catalog.DefaultHalfWidth, "Half width of the Zipf window")

	catalogCmd.AddCommand(catalogRangeCmd)
	catalogCmd.AddCommand(catalogStatsCmd)
}
