package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"gopunch/config"
	"gopunch/importer"
	"gopunch/internal/timeutil"
	"gopunch/output"
	"gopunch/pipeline"
)

var (
	convertInput     string
	convertOutput    string
	convertLayout    string
	convertFormat    string
	convertSentinels string
	convertCutoff    string
)

// maxPrintedLineErrors bounds the malformed-line warnings printed after a run.
const maxPrintedLineErrors = 10

type convertRequest struct {
	Input     string
	Output    string
	Layout    string
	Format    string
	Sentinels string
	Cutoff    string
}

var convertCmd = &cobra.Command{
	Use:   "convert",
	Short: "Convert a punch-clock log into a check-in/check-out spreadsheet",
	Long: `Read one raw fingerprint log, derive one check-in and check-out per employee and day,
and write the attendance table to Excel or CSV.

Lines that cannot be parsed (too few fields, non-numeric id, invalid date/time) are skipped
and reported. When the log cannot be decoded or contains no valid punch, no file is written.

When --format is omitted, the format is inferred from the --output extension.`,
	Example: `
  # Convert with automatic layout detection
  gopunch convert -i punches.txt -o attendance.xlsx

  # Force a layout and write CSV with title-case placeholders
  gopunch convert -i punches.txt -o attendance.csv --layout company --sentinels title

  # Treat a lone punch after 13:00 as a check-out
  gopunch convert -i punches.txt -o attendance.xlsx --cutoff 13:00:00
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadAndValidate()
		if err != nil {
			return err
		}

		_, err = convertFile(*cfg, convertRequest{
			Input:     convertInput,
			Output:    convertOutput,
			Layout:    convertLayout,
			Format:    convertFormat,
			Sentinels: convertSentinels,
			Cutoff:    convertCutoff,
		}, cmd.OutOrStdout(), cmd.ErrOrStderr())
		return err
	},
}

func init() {
	rootCmd.AddCommand(convertCmd)

	convertCmd.Flags().StringVarP(&convertInput, "input", "i", "", "Input punch log path")
	convertCmd.Flags().StringVarP(&convertOutput, "output", "o", "", "Output file path")
	convertCmd.Flags().StringVarP(&convertLayout, "layout", "l", "", "Line layout: auto or a configured layout name (default from config)")
	convertCmd.Flags().StringVarP(&convertFormat, "format", "f", "", "Output format: excel|csv (optional, inferred from output extension)")
	convertCmd.Flags().StringVar(&convertSentinels, "sentinels", "", "Placeholder style for missing times: lower|title (default from config)")
	convertCmd.Flags().StringVar(&convertCutoff, "cutoff", "", "Latest time of day at which a single punch counts as check-in, HH:MM:SS (default from config)")

	_ = convertCmd.MarkFlagRequired("input")
	_ = convertCmd.MarkFlagRequired("output")
}

func convertFile(cfg config.Config, req convertRequest, stdout, stderr io.Writer) (*pipeline.Result, error) {
	format := strings.TrimSpace(req.Format)
	if format == "" {
		format = output.DetectFormat(req.Output)
	}
	format, err := output.CanonicalFormat(format)
	if err != nil {
		return nil, err
	}
	sentinels, err := output.SentinelsForStyle(firstNonEmpty(req.Sentinels, cfg.Output.Sentinels))
	if err != nil {
		return nil, err
	}
	opts, err := resolveRunOptions(cfg, req.Layout, req.Cutoff)
	if err != nil {
		return nil, err
	}

	data, err := importer.ReadFile(req.Input)
	if err != nil {
		return nil, err
	}
	result, err := pipeline.Run(data, opts)
	if err != nil {
		return nil, fmt.Errorf("convert %s: %w", req.Input, err)
	}

	if err := output.WriteFile(req.Output, format, result.Rows, sentinels); err != nil {
		return nil, err
	}

	fmt.Fprintf(stdout, "Conversion completed. Input: %s (%s), Layout: %s, Encoding: %s, Lines read: %d, Records: %d, Malformed: %d\n",
		req.Input,
		humanize.Bytes(uint64(len(data))),
		result.Parse.Layout,
		result.Parse.Encoding,
		result.Parse.LinesRead,
		len(result.Parse.Records),
		result.Parse.Malformed,
	)
	fmt.Fprintf(stdout, "Attendance rows: %d, Employees: %d, Missing check-in: %d, Missing check-out: %d, Format: %s, File: %s\n",
		result.Summary.Rows,
		result.Summary.Employees,
		result.Summary.MissingCheckIn,
		result.Summary.MissingCheckOut,
		format,
		req.Output,
	)
	printLayoutWarning(stderr, result.Parse)
	printLineErrors(stderr, result.Parse)

	return result, nil
}

// resolveRunOptions applies command-line overrides on top of the loaded configuration.
func resolveRunOptions(cfg config.Config, layout, cutoff string) (pipeline.Options, error) {
	policy, err := cfg.AttendancePolicy()
	if err != nil {
		return pipeline.Options{}, err
	}
	if strings.TrimSpace(cutoff) != "" {
		offset, err := timeutil.ParseClock(cutoff)
		if err != nil {
			return pipeline.Options{}, fmt.Errorf("invalid --cutoff value: %w", err)
		}
		if offset <= 0 {
			return pipeline.Options{}, fmt.Errorf("invalid --cutoff value: must be after 00:00:00")
		}
		policy.SinglePunchCutoff = offset
	}

	opts := pipeline.Options{
		Layout:  firstNonEmpty(layout, cfg.Parser.Layout),
		Layouts: cfg.ImportLayouts(),
		Policy:  policy,
	}
	if !strings.EqualFold(opts.Layout, pipeline.LayoutAuto) {
		if _, err := importer.LayoutByName(opts.Layout, opts.Layouts); err != nil {
			return pipeline.Options{}, err
		}
	}
	return opts, nil
}

func printLayoutWarning(w io.Writer, parsed *importer.Result) {
	if len(parsed.Ambiguous) == 0 {
		return
	}
	fmt.Fprintf(w, "Warning: layout %s chosen, but %s parsed as many records; names may differ, pass --layout to choose\n",
		parsed.Layout, strings.Join(parsed.Ambiguous, ", "))
}

func printLineErrors(w io.Writer, parsed *importer.Result) {
	if parsed.Malformed == 0 {
		return
	}
	fmt.Fprintf(w, "Warning: skipped %d malformed line(s)\n", parsed.Malformed)
	for i, lineErr := range parsed.Errors {
		if i == maxPrintedLineErrors {
			fmt.Fprintf(w, "  ... and %d more\n", parsed.Malformed-maxPrintedLineErrors)
			break
		}
		fmt.Fprintf(w, "  %v\n", lineErr)
	}
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if strings.TrimSpace(value) != "" {
			return strings.TrimSpace(value)
		}
	}
	return ""
}

