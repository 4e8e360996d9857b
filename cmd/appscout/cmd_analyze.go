package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var analyzeOutput string

var analyzeCmd = &cobra.Command{
	Use:   "analyze [root]",
	Short: "Infer data models and features and print them as JSON",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runAnalyze,
}

func init() {
	analyzeCmd.Flags().StringVarP(&analyzeOutput, "output", "o", "", "Write the analysis to a file instead of stdout")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	root := rootArg(args)
	cfg, err := loadConfig(root)
	if err != nil {
		return err
	}
	m, stopMetrics := startMetrics(cmd.Context(), cfg)
	defer stopMetrics()

	a, err := newAnalyzer(cfg, m)
	if err != nil {
		return err
	}
	res, err := a.Analyze(cmd.Context(), root)
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(res.Analysis, "", "  ")
	if err != nil {
		return fmt.Errorf("encode analysis: %w", err)
	}
	data = append(data, '\n')
	if analyzeOutput == "" {
		_, err = cmd.OutOrStdout().Write(data)
		return err
	}
	if err := os.WriteFile(analyzeOutput, data, 0o644); err != nil {
		return fmt.Errorf("write analysis: %w", err)
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "→ Wrote %d models and %d features to %s\n", len(res.Models), len(res.Features), analyzeOutput)
	return nil
}
