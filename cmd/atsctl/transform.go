package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"alfredoptarigan/ats-analyzer/internal/report"
)

var transformCmd = &cobra.Command{
	Use:   "transform [file|-]",
	Short: "Sanitize raw model output into a report",
	Long:  "Strip code fences, check the required keys and unescape strings in a raw model response read from a file or stdin.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runTransform,
}

var (
	transformOutFile  string
	transformMarkdown bool
)

func init() {
	transformCmd.Flags().StringVarP(&transformOutFile, "out", "o", "", "Write the report to this file instead of stdout")
	transformCmd.Flags().BoolVar(&transformMarkdown, "markdown", false, "Render the report as Markdown")

	rootCmd.AddCommand(transformCmd)
}

func runTransform(cmd *cobra.Command, args []string) error {
	var (
		raw []byte
		err error
	)
	if len(args) == 0 || args[0] == "-" {
		raw, err = io.ReadAll(cmd.InOrStdin())
	} else {
		raw, err = os.ReadFile(args[0])
	}
	if err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}

	result, err := report.Transform(string(raw))
	if err != nil {
		return err
	}

	printWarnings(cmd.ErrOrStderr(), report.Validate(result))
	return writeReport(transformOutFile, result, transformMarkdown)
}
