package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/v0xg/appscout/internal/ai"
	"github.com/v0xg/appscout/internal/config"
	"github.com/v0xg/appscout/internal/crawler"
	"github.com/v0xg/appscout/internal/scenario"
)

var (
	suggestURL      string
	suggestProvider string
	suggestModel    string
)

var suggestCmd = &cobra.Command{
	Use:   "suggest [root]",
	Short: "Crawl a running instance and add AI-suggested scenarios to the script",
	Long: `Crawls the running application's home page, sends its interactive
structure and the inferred analysis to a language model, and appends the
suggested scenarios to the scenario script.

The application must already be running. API keys are read from
APPSCOUT_ANTHROPIC_KEY / ANTHROPIC_API_KEY, APPSCOUT_OPENAI_KEY /
OPENAI_API_KEY or APPSCOUT_GEMINI_KEY / GEMINI_API_KEY.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSuggest,
}

func init() {
	suggestCmd.Flags().StringVar(&suggestURL, "url", "", "URL of the running app (default: app.base_url)")
	suggestCmd.Flags().StringVar(&suggestProvider, "provider", "", "AI provider: claude, openai, gemini (default: ai.provider or claude)")
	suggestCmd.Flags().StringVar(&suggestModel, "model", "", "Specific model override")
	suggestCmd.Flags().StringVar(&profile, "profile", "", "Chrome/Chromium profile directory for authenticated sessions (close browser first)")
}

func runSuggest(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	root := rootArg(args)
	cfg, err := loadConfig(root)
	if err != nil {
		return err
	}
	cfg.Merge(&config.Config{AI: config.AIConfig{Provider: suggestProvider, Model: suggestModel}})
	if cfg.AI.Provider == "" {
		cfg.AI.Provider = "claude"
	}
	url := suggestURL
	if url == "" {
		url = cfg.App.BaseURL
	}
	m, stopMetrics := startMetrics(ctx, cfg)
	defer stopMetrics()

	a, err := newAnalyzer(cfg, m)
	if err != nil {
		return err
	}
	res, err := runAnalysis(ctx, a, root)
	if err != nil {
		return err
	}

	fmt.Printf("→ Crawling %s... ", url)
	browser, err := crawler.Launch(ctx, browserOptions(cfg))
	if err != nil {
		fmt.Println("failed")
		return err
	}
	defer browser.Close()
	pageMap, err := browser.Crawl(ctx, url)
	if err != nil {
		fmt.Println("failed")
		return fmt.Errorf("crawl failed: %w", err)
	}
	fmt.Printf("done (found %d interactive elements)\n", len(pageMap.Elements))

	fmt.Printf("→ Asking %s for scenarios... ", cfg.AI.Provider)
	provider, err := ai.NewProvider(ctx, cfg.AI.Provider, cfg.AI.Model)
	if err != nil {
		fmt.Println("failed")
		return fmt.Errorf("AI provider init failed: %w", err)
	}
	existing, err := loadOrSynthesize(cfg, res)
	if err != nil {
		fmt.Println("failed")
		return err
	}
	suggested, err := ai.Suggest(ctx, provider, pageMap, res.Analysis, existing, logger)
	if err != nil {
		fmt.Println("failed")
		return err
	}
	fmt.Printf("done (%d scenarios)\n", len(suggested))
	for _, sc := range suggested {
		fmt.Printf("    + %s (%d steps)\n", sc.Name, len(sc.Steps))
	}

	path := config.Resolve(res.Root, cfg.Output.Scenarios)
	if err := scenario.WriteScript(path, append(existing, suggested...)); err != nil {
		return err
	}
	fmt.Printf("→ Updated %s\n", path)
	return nil
}
