// Command atsctl runs the resume analysis pipeline from the command line and
// manages the reference guidance collection.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:           "atsctl",
	Short:         "ATS resume analyzer tools",
	Long:          "atsctl analyzes resumes without the API server, sanitizes raw model output and ingests reference guidance into Qdrant.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
