package commands

import (
	"errors"
	"time"

	"botprobe/internal/history"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var historyDb *string
var historyRun *int64
var historyLimit *int

func init() {
	historyDb = historyCmd.Flags().String("db", "", "The sqlite database runs were recorded into (default from config).")
	historyRun = historyCmd.Flags().Int64("run", 0, "Show the rows of a single run instead of listing runs.")
	historyLimit = historyCmd.Flags().Int("limit", 20, "How many of the most recent runs to list.")
	rootCmd.AddCommand(historyCmd)
}

var historyCmd = &cobra.Command{
	Use:   "history [--db <history.db>] [--run <id>]",
	Short: "Lists recorded runs, or the rows of one of them.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("db") {
			cfg.HistoryDb = *historyDb
		}
		if cfg.HistoryDb == "" {
			return errors.New("no history database, pass --db or set history_db in the config")
		}

		store, err := history.Open(cfg.HistoryDb)
		if err != nil {
			return err
		}
		defer store.Close()

		t := newTable(cmd.OutOrStdout())

		if *historyRun > 0 {
			run, err := store.GetRun(cmd.Context(), *historyRun)
			if err != nil {
				return err
			}
			results, err := store.GetResults(cmd.Context(), run.ID)
			if err != nil {
				return err
			}
			t.SetTitle("%s #%d against %s", run.Kind, run.ID, run.BotUrl)
			t.AppendHeader(table.Row{"#", "Input", "Status", "Class", "Took", "Reply"})
			t.SetColumnConfigs([]table.ColumnConfig{
				{Number: 2, WidthMax: 40},
				{Number: 6, WidthMax: 80},
			})
			for _, r := range results {
				t.AppendRow(table.Row{r.Index, r.Input, r.Status, r.Class, r.Duration.String(), r.Reply})
			}
			t.Render()
			return nil
		}

		runs, err := store.ListRuns(cmd.Context(), *historyLimit)
		if err != nil {
			return err
		}
		t.AppendHeader(table.Row{"ID", "Kind", "Started", "Finished", "Total", "OK", "Failed", "Input"})
		for _, run := range runs {
			finished := "interrupted"
			if !run.FinishedAt.IsZero() {
				finished = run.FinishedAt.Format(time.DateTime)
			}
			t.AppendRow(table.Row{
				run.ID,
				run.Kind,
				run.StartedAt.Format(time.DateTime),
				finished,
				run.Total,
				run.Ok,
				run.Failed,
				run.InputPath,
			})
		}
		t.Render()
		return nil
	},
}
