package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"alfredoptarigan/ats-analyzer/internal/bootstrap"
	"alfredoptarigan/ats-analyzer/internal/config"
	"alfredoptarigan/ats-analyzer/internal/logger"
	"alfredoptarigan/ats-analyzer/internal/services"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <resume>",
	Short: "Analyze a resume file and print the ATS report",
	Long:  "Extract text from a PDF, DOCX or TXT resume, score it with the configured LLM provider and print the sanitized report. Nothing is stored.",
	Args:  cobra.ExactArgs(1),
	RunE:  runAnalyze,
}

var (
	analyzeOutFile  string
	analyzeMarkdown bool
)

func init() {
	analyzeCmd.Flags().StringVarP(&analyzeOutFile, "out", "o", "", "Write the report to this file instead of stdout")
	analyzeCmd.Flags().BoolVar(&analyzeMarkdown, "markdown", false, "Render the report as Markdown")

	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	log := logger.Configure(cfg.Server.Env, cfg.Server.LogLevel)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	path := args[0]
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read resume: %w", err)
	}

	content, err := services.NewExtractorService().Extract(filepath.Base(path), data)
	if err != nil {
		return err
	}
	log.Infof("📖 Extracted %d characters from %s", len(content.Text), filepath.Base(path))

	ctx := cmd.Context()
	llm, err := services.NewLLMService(ctx, cfg.LLM)
	if err != nil {
		return fmt.Errorf("failed to initialize LLM provider: %w", err)
	}

	guidance, _, err := bootstrap.Guidance(ctx, cfg, llm)
	if err != nil {
		return err
	}

	analyzer := bootstrap.Analyzer(cfg, llm, guidance, nil, nil, nil, nil)
	outcome, err := analyzer.AnalyzeText(ctx, content.Text)
	if err != nil {
		return err
	}

	printWarnings(cmd.ErrOrStderr(), outcome.Warnings)
	if outcome.Truncated {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: resume text truncated to %d characters\n", cfg.Analysis.MaxChars)
	}

	return writeReport(analyzeOutFile, outcome.Result, analyzeMarkdown)
}
