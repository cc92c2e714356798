package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/xuri/excelize/v2"

	"github.com/abhisek/wordzipf/internal/catalog"
	"github.com/abhisek/wordzipf/internal/difficulty"
	"github.com/abhisek/wordzipf/internal/llm"
	"github.com/abhisek/wordzipf/internal/mode"
	"github.com/abhisek/wordzipf/internal/recent"
	"github.com/abhisek/wordzipf/internal/store"
)

const (
	sheetLevels = "Levels"
	sheetRecent = "Recent"
	sheetUsage  = "LLM Usage"
)

// report is everything the export writes.
type report struct {
	Levels map[mode.Mode]float64
	Recent []string
	Zipf   func(word string) (float64, bool)
	Usage  []store.UsageStat
}

var exportCmd = &cobra.Command{
	Use:   "export <file.xlsx>",
	Short: "Export levels, recent words and LLM usage to a spreadsheet",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := openEnv(cmd)
		if err != nil {
			return err
		}
		defer env.Close()

		ctx := cmd.Context()
		kv := env.store.KV()
		levels, err := difficulty.Load(ctx, kv)
		if err != nil {
			return err
		}
		recentLog, err := recent.Load(ctx, kv)
		if err != nil {
			return err
		}
		usage, err := env.store.EventRepo().LLMUsageByModel(ctx)
		if err != nil {
			return fmt.Errorf("query model usage: %w", err)
		}

		r := report{
			Levels: levels.Levels(),
			Recent: recentLog.Words(),
			Usage:  usage,
		}
		if len(r.Recent) > 0 {
			r.Zipf = zipfLookup(env.catalog(ctx))
		}

		if err := writeReport(args[0], r); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", args[0])
		return nil
	},
}

func zipfLookup(c *catalog.Catalog) func(string) (float64, bool) {
	return func(word string) (float64, bool) {
		e, ok := c.Lookup(word)
		return e.Zipf, ok
	}
}

func writeReport(path string, r report) error {
	f := excelize.NewFile()
	defer f.Close()

	f.SetSheetName("Sheet1", sheetLevels)
	f.NewSheet(sheetRecent)
	f.NewSheet(sheetUsage)

	rows := [][]any{{"Mode", "Level"}}
	for _, m := range mode.All {
		level, ok := r.Levels[m]
		if !ok {
			level = difficulty.DefaultLevel
		}
		rows = append(rows, []any{string(m), level})
	}
	if err := setRows(f, sheetLevels, rows); err != nil {
		return err
	}

	rows = [][]any{{"Word", "Zipf"}}
	for _, w := range r.Recent {
		row := []any{w, ""}
		if r.Zipf != nil {
			if z, ok := r.Zipf(w); ok {
				row[1] = z
			}
		}
		rows = append(rows, row)
	}
	if err := setRows(f, sheetRecent, rows); err != nil {
		return err
	}

	rows = [][]any{{"Model", "Calls", "Input Tokens", "Output Tokens", "Cost (USD)"}}
	for _, u := range r.Usage {
		row := []any{u.Model, u.Calls, u.InputTokens, u.OutputTokens, ""}
		if c, ok := llm.EstimateCost(u.Model, u.InputTokens, u.OutputTokens); ok {
			row[4] = c
		}
		rows = append(rows, row)
	}
	if err := setRows(f, sheetUsage, rows); err != nil {
		return err
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	return nil
}

func setRows(f *excelize.File, sheet string, rows [][]any) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write %s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}
