package main

import (
	"context"

	"github.com/v0xg/appscout/internal/config"
	"github.com/v0xg/appscout/internal/crawler"
	"github.com/v0xg/appscout/internal/executor"
)

var profile string

func browserOptions(cfg *config.Config) crawler.Options {
	return crawler.Options{
		Bin:         cfg.Browser.Bin,
		Headless:    cfg.Browser.Headless,
		Width:       cfg.Browser.Width,
		Height:      cfg.Browser.Height,
		NavTimeout:  cfg.Browser.NavTimeout,
		StepTimeout: cfg.Browser.StepTimeout,
		ProfileDir:  profile,
	}
}

// sessionLauncher adapts crawler.Launch to the executor's session type.
func sessionLauncher(cfg *config.Config) executor.LaunchFunc {
	opts := browserOptions(cfg)
	return func(ctx context.Context) (executor.Session, error) {
		b, err := crawler.Launch(ctx, opts)
		if err != nil {
			return nil, err
		}
		return b, nil
	}
}
