package main

import (
	"context"
	"errors"
	"io/fs"
	"math/rand/v2"
	"os"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/doormap/internal/cache"
	"github.com/sells-group/doormap/internal/fetcher"
	"github.com/sells-group/doormap/internal/geocode"
	"github.com/sells-group/doormap/internal/mapgen"
	"github.com/sells-group/doormap/internal/model"
	"github.com/sells-group/doormap/internal/pipeline"
	"github.com/sells-group/doormap/internal/report"
	"github.com/sells-group/doormap/internal/store"
)

func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		dsn := cfg.Store.DatabaseURL
		if dsn == "" {
			dsn = "doormap.db"
		}
		return store.NewSQLite(dsn)
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL)
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

// openStore opens and migrates the configured store. It returns nil when no
// store driver is configured.
func openStore(ctx context.Context) (store.Store, error) {
	if cfg.Store.Driver == "" {
		return nil, nil
	}
	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}
	return st, nil
}

func initCache(st store.Store) (cache.Backend, error) {
	switch cfg.Cache.Backend {
	case "store":
		if st == nil {
			return nil, eris.New("cache backend store requires store.driver")
		}
		return cache.NewStoreBackend(st), nil
	case "file", "":
		return cache.NewFileBackend(cfg.Cache.Dir), nil
	default:
		return nil, eris.Errorf("unsupported cache backend: %s", cfg.Cache.Backend)
	}
}

func newFetcher() *fetcher.HTTPFetcher {
	return fetcher.NewHTTPFetcher(fetcher.HTTPOptions{
		UserAgent:  cfg.Fetch.UserAgent,
		Timeout:    time.Duration(cfg.Fetch.TimeoutSecs) * time.Second,
		MaxRetries: cfg.Fetch.MaxRetries,
		RateLimit:  rate.Limit(cfg.Fetch.RateLimit),
	})
}

func locality() geocode.Locality {
	return geocode.Locality{
		District: cfg.Region.District,
		City:     cfg.Region.City,
		Country:  cfg.Region.Country,
	}
}

// newPalette seeds a palette from output.color_seed, or randomly when it is
// zero. With output.reuse_colors an existing colors file is loaded first.
func newPalette() (*mapgen.Palette, error) {
	seed := cfg.Output.ColorSeed
	if seed == 0 {
		seed = rand.Uint64()
	}
	rng := rand.New(rand.NewPCG(seed, seed))

	if !cfg.Output.ReuseColors {
		return mapgen.NewPalette(rng, cfg.Output.Opacity), nil
	}

	path := cfg.Output.Path(cfg.Output.ColorsFile)
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return mapgen.NewPalette(rng, cfg.Output.Opacity), nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "open colors file %s", path)
	}
	defer f.Close() //nolint:errcheck

	return mapgen.LoadPalette(f, rng, cfg.Output.Opacity)
}

func renderConfig() (pipeline.RenderConfig, error) {
	format, err := report.ParseFormat(cfg.Output.ReportFormat)
	if err != nil {
		return pipeline.RenderConfig{}, err
	}
	return pipeline.RenderConfig{
		ResultFile:   cfg.Geocoder.ResultFile,
		Box:          cfg.Region.BBox,
		ColorsPath:   cfg.Output.Path(cfg.Output.ColorsFile),
		PointsPath:   cfg.Output.Path(cfg.Output.PointsFile),
		CoveragePath: cfg.Output.Path(cfg.Output.CoverageFile),
		ReportPath:   cfg.Output.ReportPath(),
		ReportFormat: format,
	}, nil
}

// startRun records a running command in the ledger. Ledger failures are
// logged and never abort the command.
func startRun(ctx context.Context, st store.Store, command string) *model.Run {
	if st == nil {
		return nil
	}
	run, err := st.StartRun(ctx, command)
	if err != nil {
		zap.L().Warn("failed to record run start", zap.String("command", command), zap.Error(err))
		return nil
	}
	return run
}

// finishRun marks run complete or failed depending on cause.
func finishRun(ctx context.Context, st store.Store, run *model.Run, summary model.RunSummary, cause error) {
	if st == nil || run == nil {
		return
	}
	// the command context may already be cancelled
	ctx = context.WithoutCancel(ctx)

	var err error
	if cause != nil {
		err = st.FailRun(ctx, run.ID, cause)
	} else {
		err = st.CompleteRun(ctx, run.ID, summary)
	}
	if err != nil {
		zap.L().Warn("failed to record run outcome", zap.String("run_id", run.ID), zap.Error(err))
	}
}
