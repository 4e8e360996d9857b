package main

import (
	"github.com/spf13/cobra"
)

var genOpts generateOptions

var generateCmd = &cobra.Command{
	Use:   "generate [root]",
	Short: "Write the schema, API handlers and scenario script for a project",
	Long: `Analyzes the project and writes:
  - prisma/schema.prisma
  - one CRUD handler per model under the app or pages API directory
  - .appscout/scenarios.json

With --sql the equivalent Postgres DDL is written too; with --apply-dsn it
is applied to that database.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runGenerate,
}

func init() {
	generateCmd.Flags().StringVar(&genOpts.sqlPath, "sql", "", "Also write Postgres DDL to this path")
	generateCmd.Flags().StringVar(&genOpts.applyDSN, "apply-dsn", "", "Apply the Postgres DDL to this database")
	generateCmd.Flags().BoolVar(&genOpts.endpoints, "endpoints", true, "Generate CRUD API handlers")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	root := rootArg(args)
	cfg, err := loadConfig(root)
	if err != nil {
		return err
	}
	if genOpts.sqlPath == "" {
		genOpts.sqlPath = cfg.Output.SQL
	}
	m, stopMetrics := startMetrics(cmd.Context(), cfg)
	defer stopMetrics()

	a, err := newAnalyzer(cfg, m)
	if err != nil {
		return err
	}
	res, err := runAnalysis(cmd.Context(), a, root)
	if err != nil {
		return err
	}
	_, err = generateArtifacts(cmd.Context(), cfg, res, genOpts)
	return err
}
