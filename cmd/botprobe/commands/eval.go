package commands

import (
	"fmt"
	"io"
	"log/slog"

	"botprobe/internal/components/chrono"
	"botprobe/internal/evaluate"
	"botprobe/internal/runner"
	"botprobe/internal/suite"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var evalCases *string
var evalReport *string
var evalSamples *int
var evalBot botFlags

func init() {
	evalCases = evalCmd.Flags().String("cases", "", "JSONL file of {\"input\", \"expected\"} records (default from config).")
	evalReport = evalCmd.Flags().String("report", "", "Where the JSON report is written (default from config).")
	evalSamples = evalCmd.Flags().Int("samples", 5, "How many results to print after the summary.")
	evalBot = addBotFlags(evalCmd)
	rootCmd.AddCommand(evalCmd)
}

var evalCmd = &cobra.Command{
	Use:   "eval [--cases <eval.jsonl>] [--report <report.json>]",
	Short: "Scores the bot's replies against expected replies.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		evalBot.apply(cmd, &cfg)
		if cmd.Flags().Changed("cases") {
			cfg.EvalCasesPath = *evalCases
		}
		if cmd.Flags().Changed("report") {
			cfg.EvalReportPath = *evalReport
		}

		cases, err := suite.LoadEvalCases(cfg.EvalCasesPath)
		if err != nil {
			return err
		}
		if len(cases) == 0 {
			return fmt.Errorf("no usable cases in %s", cfg.EvalCasesPath)
		}

		s, err := newSession(cfg, runner.Options{
			Kind:       "eval",
			InputPath:  cfg.EvalCasesPath,
			OutputPath: cfg.EvalReportPath,
			Progress:   cmd.OutOrStdout(),
		})
		if err != nil {
			return err
		}
		defer s.Close()

		slog.Info("starting evaluation", "url", cfg.BotUrl, "cases", len(cases))
		report, err := evaluate.New(s.runner, chrono.NewStandardImpl(nil)).Run(cmd.Context(), cases)
		if err != nil {
			return err
		}
		err = evaluate.WriteReport(cfg.EvalReportPath, report)
		if err != nil {
			return err
		}

		renderEvalSummary(cmd.OutOrStdout(), report, cfg.EvalReportPath, *evalSamples)
		if report.Summary.Interrupted {
			return fmt.Errorf("evaluation interrupted after %d of %d cases", len(report.Results), len(cases))
		}
		return nil
	},
}

func renderEvalSummary(w io.Writer, report evaluate.Report, reportPath string, samples int) {
	t := newTable(w)
	t.SetTitle("Evaluation results")
	t.AppendRows([]table.Row{
		{"Total examples", report.Summary.TotalExamples},
		{"Exact matches", report.Summary.ExactMatches},
		{"Exact match accuracy", fmt.Sprintf("%.1f%%", report.Summary.ExactMatchAccuracy)},
		{"Average similarity", fmt.Sprintf("%.1f%%", report.Summary.AverageSimilarity)},
		{"Report", reportPath},
	})
	t.Render()

	if samples <= 0 || len(report.Results) == 0 {
		return
	}
	sample := newTable(w)
	sample.AppendHeader(table.Row{"#", "Input", "Expected", "Predicted", "Match"})
	sample.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, WidthMax: 40},
		{Number: 3, WidthMax: 40},
		{Number: 4, WidthMax: 40},
	})
	for i, r := range report.Results {
		if i >= samples {
			break
		}
		match := "no"
		if r.ExactMatch {
			match = "yes"
		}
		sample.AppendRow(table.Row{r.Index, r.Input, r.Expected, r.Predicted, match})
	}
	sample.Render()
}
