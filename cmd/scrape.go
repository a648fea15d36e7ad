package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/doormap/internal/model"
	"github.com/sells-group/doormap/internal/pipeline"
	"github.com/sells-group/doormap/internal/registry"
	"github.com/sells-group/doormap/internal/store"
)

var scrapeCmd = &cobra.Command{
	Use:   "scrape",
	Short: "Scrape neighborhoods, streets, doors and meeting points",
	Long: `Walk the address registry one level at a time: neighborhoods, streets,
door numbers and meeting-point coordinates. Every level is cached; a level
that is already cached is never fetched again.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := cfg.Validate("scrape"); err != nil {
			return err
		}

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		if st != nil {
			defer st.Close() //nolint:errcheck
		}

		run := startRun(ctx, st, "scrape")
		res, err := scrape(ctx, st)
		var summary model.RunSummary
		if res != nil {
			summary.Doors = len(res.Doors)
		}
		finishRun(ctx, st, run, summary, err)
		return err
	},
}

// scrape runs the scrape stages against the configured registry.
func scrape(ctx context.Context, st store.Store) (*pipeline.ScrapeResult, error) {
	log := zap.L().With(zap.String("command", "scrape"))

	backend, err := initCache(st)
	if err != nil {
		return nil, err
	}

	reg := registry.NewClient(newFetcher(), cfg.Registry.BaseURL)
	res, err := pipeline.NewScraper(reg, backend).Run(ctx)
	if err != nil {
		return nil, err
	}

	log.Info("scrape complete",
		zap.Int("neighborhoods", res.Neighborhoods),
		zap.Int("streets", res.Streets),
		zap.Int("doors", len(res.Doors)),
		zap.Int("areas", len(res.MeetingPoints)),
	)
	return res, nil
}

func init() {
	rootCmd.AddCommand(scrapeCmd)
}
