package commands

import (
	"context"
	"fmt"
	"os"

	"botprobe/internal/config"
	"botprobe/lib/telemetry"

	"github.com/spf13/cobra"
)

var configPath *string
var verbose *bool

func init() {
	configPath = rootCmd.PersistentFlags().String("config", config.DefaultName, "The json5 config file, a .local override next to it is merged in.")
	verbose = rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Log every request and response.")
}

var rootCmd = &cobra.Command{
	Use:           "botprobe",
	Short:         "botprobe replays test messages against a chatbot endpoint and records its replies.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		telemetry.InitSlog(*verbose)
	},
}

// ExecuteContext runs the command line, errors are printed to stderr and returned.
func ExecuteContext(ctx context.Context) error {
	err := rootCmd.ExecuteContext(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
	}
	return err
}
