package commands

import (
	"fmt"
	"log/slog"

	"botprobe/internal/resultfile"
	"botprobe/internal/runner"
	"botprobe/internal/suite"

	"github.com/spf13/cobra"
)

var runInput *string
var runOutput *string
var runBot botFlags

func init() {
	runInput = runCmd.Flags().StringP("input", "i", "", "The file with one test message per line (default from config).")
	runOutput = runCmd.Flags().StringP("output", "o", "", "The CSV results table, overwritten on every run (default from config).")
	runBot = addBotFlags(runCmd)
	rootCmd.AddCommand(runCmd)
}

var runCmd = &cobra.Command{
	Use:   "run [--input <messages.txt>] [--output <results.csv>]",
	Short: "Sends every message of the input file to the bot and writes the replies to a CSV table.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		runBot.apply(cmd, &cfg)
		if cmd.Flags().Changed("input") {
			cfg.InputPath = *runInput
		}
		if cmd.Flags().Changed("output") {
			cfg.OutputPath = *runOutput
		}

		inputs, err := suite.LoadInputs(cfg.InputPath)
		if err != nil {
			return err
		}

		s, err := newSession(cfg, runner.Options{
			Kind:       "run",
			InputPath:  cfg.InputPath,
			OutputPath: cfg.OutputPath,
			Progress:   cmd.OutOrStdout(),
		})
		if err != nil {
			return err
		}
		defer s.Close()

		out, err := resultfile.Create(cfg.OutputPath)
		if err != nil {
			return err
		}

		slog.Info("starting run", "url", cfg.BotUrl, "cases", len(inputs), "output", cfg.OutputPath)
		summary, runErr := s.runner.Run(cmd.Context(), inputs, out)
		closeErr := out.Close()
		if runErr != nil {
			return runErr
		}
		if closeErr != nil {
			return fmt.Errorf("close results file: %w", closeErr)
		}

		renderSummary(cmd.OutOrStdout(), summary, cfg.OutputPath)
		if summary.Interrupted {
			return fmt.Errorf("run interrupted after %d of %d messages", summary.Total(), len(inputs))
		}
		return nil
	},
}
