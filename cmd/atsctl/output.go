package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"alfredoptarigan/ats-analyzer/internal/report"
)

// writeReport prints the report as indented JSON, or as Markdown when
// markdown is set, to path or stdout when path is empty.
func writeReport(path string, result *report.Result, markdown bool) error {
	var out []byte
	if markdown {
		out = []byte(report.Render(result.Typed()))
	} else {
		b, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode report: %w", err)
		}
		out = append(b, '\n')
	}

	if path == "" {
		_, err := os.Stdout.Write(out)
		return err
	}
	if err := os.WriteFile(path, out, 0o644); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}
	return nil
}

func printWarnings(w io.Writer, warnings []string) {
	for _, warning := range warnings {
		fmt.Fprintf(w, "warning: %s\n", warning)
	}
}
