package commands

import (
	"botprobe/internal/resultfile"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var reportMarkdown *bool
var reportWidth *int

func init() {
	reportMarkdown = reportCmd.Flags().Bool("markdown", false, "Render the table as markdown.")
	reportWidth = reportCmd.Flags().Int("width", 80, "Maximum width of the reply column, 0 disables wrapping.")
	rootCmd.AddCommand(reportCmd)
}

var reportCmd = &cobra.Command{
	Use:   "report <results.csv>",
	Short: "Pretty prints a results table written by run.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rows, err := resultfile.Read(args[0])
		if err != nil {
			return err
		}

		t := newTable(cmd.OutOrStdout())
		t.AppendHeader(table.Row{"#", "Input", "Status", "Reply"})
		if *reportWidth > 0 && !*reportMarkdown {
			t.SetColumnConfigs([]table.ColumnConfig{
				{Number: 2, WidthMax: *reportWidth / 2},
				{Number: 4, WidthMax: *reportWidth},
			})
		}
		for _, row := range rows {
			t.AppendRow(table.Row{row.Index, row.Input, row.Status, row.Reply})
		}
		t.AppendFooter(table.Row{"", "", "rows", len(rows)})

		if *reportMarkdown {
			t.RenderMarkdown()
			return nil
		}
		t.Render()
		return nil
	},
}
