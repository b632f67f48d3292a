package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"gopunch/config"
	"gopunch/pipeline"
)

var layoutsCmd = &cobra.Command{
	Use:   "layouts",
	Short: "List the configured punch log layouts",
	Long: `List the line layouts known to the parser, in the order automatic detection tries them.

Each line of a punch log ends with: employee id, date, time, AM/PM and a number of
constant columns. Layouts differ in the leading prefix columns and the count of
trailing constants.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadAndValidate()
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		selected := cfg.Parser.Layout
		if strings.EqualFold(selected, pipeline.LayoutAuto) {
			fmt.Fprintln(out, "Active layout: auto (the layout parsing the most lines wins, ties go to the earlier one)")
		} else {
			fmt.Fprintf(out, "Active layout: %s\n", selected)
		}
		for i, layout := range cfg.ImportLayouts() {
			fmt.Fprintf(out, "%d. %s, min fields: %d\n", i+1, layout, layout.MinTokens())
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(layoutsCmd)
}
