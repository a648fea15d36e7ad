package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/doormap/internal/model"
	"github.com/sells-group/doormap/internal/pipeline"
	"github.com/sells-group/doormap/internal/store"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Scrape, validate the geocoder result and render the maps",
	Long: `Run the scrape stages, then merge the downloaded batch geocoder result
with the doors, validate every geocode and write the area colors, the report
and the point and coverage GeoJSON files.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := cfg.Validate("scrape"); err != nil {
			return err
		}
		if err := cfg.Validate("render"); err != nil {
			return err
		}

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		if st != nil {
			defer st.Close() //nolint:errcheck
		}

		run := startRun(ctx, st, "run")
		res, err := runAll(ctx, st)
		var summary model.RunSummary
		if res != nil {
			summary = model.RunSummary{Doors: res.Doors, Valid: res.Valid}
		}
		finishRun(ctx, st, run, summary, err)
		if err != nil {
			return err
		}

		fmt.Fprintf(os.Stdout, "Number of door numbers: %d\n", res.Doors)
		fmt.Fprintf(os.Stdout, "Number of correctly geocoded door numbers: %d\n", res.Valid)
		return nil
	},
}

// runAll scrapes and renders.
func runAll(ctx context.Context, st store.Store) (*pipeline.RenderResult, error) {
	log := zap.L().With(zap.String("command", "run"))

	scraped, err := scrape(ctx, st)
	if err != nil {
		return nil, err
	}

	backend, err := initCache(st)
	if err != nil {
		return nil, err
	}
	rc, err := renderConfig()
	if err != nil {
		return nil, err
	}
	palette, err := newPalette()
	if err != nil {
		return nil, err
	}

	res, err := pipeline.NewRenderer(rc, backend, palette).Run(ctx, scraped.Doors)
	if err != nil {
		return nil, err
	}

	log.Info("run complete",
		zap.Int("doors", res.Doors),
		zap.Int("valid", res.Valid),
		zap.Int("areas", res.Areas),
		zap.String("points", res.PointsPath),
		zap.String("coverage", res.CoveragePath),
		zap.String("report", res.ReportPath),
	)
	return res, nil
}

func init() {
	rootCmd.AddCommand(runCmd)
}
