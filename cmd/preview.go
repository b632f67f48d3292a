package cmd

import (
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"gopunch/attendance"
	"gopunch/config"
	"gopunch/importer"
	"gopunch/output"
	"gopunch/pipeline"
)

var (
	previewInput     string
	previewLayout    string
	previewSentinels string
	previewCutoff    string
	previewLimit     int
)

var previewCmd = &cobra.Command{
	Use:   "preview",
	Short: "Print the attendance table for a punch log without writing a file",
	Example: `
  # Show the first 20 rows
  gopunch preview -i punches.txt --limit 20

  # Show every row for a fixed layout
  gopunch preview -i punches.txt --layout terminal --limit 0
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadAndValidate()
		if err != nil {
			return err
		}
		if previewLimit < 0 {
			return fmt.Errorf("invalid --limit value: %d", previewLimit)
		}

		sentinels, err := output.SentinelsForStyle(firstNonEmpty(previewSentinels, cfg.Output.Sentinels))
		if err != nil {
			return err
		}
		opts, err := resolveRunOptions(*cfg, previewLayout, previewCutoff)
		if err != nil {
			return err
		}

		data, err := importer.ReadFile(previewInput)
		if err != nil {
			return err
		}
		result, err := pipeline.Run(data, opts)
		if err != nil {
			return fmt.Errorf("preview %s: %w", previewInput, err)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Input: %s (%s), Layout: %s, Encoding: %s, Lines read: %d, Records: %d, Malformed: %d\n\n",
			previewInput,
			humanize.Bytes(uint64(len(data))),
			result.Parse.Layout,
			result.Parse.Encoding,
			result.Parse.LinesRead,
			len(result.Parse.Records),
			result.Parse.Malformed,
		)
		if err := printRows(out, result.Rows, sentinels, previewLimit); err != nil {
			return err
		}
		fmt.Fprintf(out, "\nEmployees: %d, Days: %d, Missing check-in: %d, Missing check-out: %d\n",
			result.Summary.Employees,
			result.Summary.Days,
			result.Summary.MissingCheckIn,
			result.Summary.MissingCheckOut,
		)
		printLayoutWarning(cmd.ErrOrStderr(), result.Parse)
		printLineErrors(cmd.ErrOrStderr(), result.Parse)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(previewCmd)

	previewCmd.Flags().StringVarP(&previewInput, "input", "i", "", "Input punch log path")
	previewCmd.Flags().StringVarP(&previewLayout, "layout", "l", "", "Line layout: auto or a configured layout name (default from config)")
	previewCmd.Flags().StringVar(&previewSentinels, "sentinels", "", "Placeholder style for missing times: lower|title (default from config)")
	previewCmd.Flags().StringVar(&previewCutoff, "cutoff", "", "Latest time of day at which a single punch counts as check-in, HH:MM:SS (default from config)")
	previewCmd.Flags().IntVar(&previewLimit, "limit", 50, "Maximum number of rows to print (0 prints all)")

	_ = previewCmd.MarkFlagRequired("input")
}

// printRows writes the table with the same columns as the exported sheet.
func printRows(w io.Writer, rows []attendance.Row, sentinels output.Sentinels, limit int) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tEMPLOYEE NAME\tDATE\tCHECK-IN\tCHECK-OUT\tPUNCHES")

	shown := rows
	if limit > 0 && len(rows) > limit {
		shown = rows[:limit]
	}
	for _, row := range shown {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%d\n",
			strconv.FormatInt(row.EmployeeID, 10),
			row.EmployeeName,
			row.Date.Format("2006-01-02"),
			output.FormatMark(row.CheckIn, sentinels.NoLogin),
			output.FormatMark(row.CheckOut, sentinels.NoLogout),
			row.Punches,
		)
	}
	if err := tw.Flush(); err != nil {
		return fmt.Errorf("print rows: %w", err)
	}
	if len(shown) < len(rows) {
		fmt.Fprintf(w, "... %d more row(s), use --limit 0 to print all\n", len(rows)-len(shown))
	}
	return nil
}
