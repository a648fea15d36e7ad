package pipeline

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/doormap/internal/cache"
	"github.com/sells-group/doormap/internal/geocode"
	"github.com/sells-group/doormap/internal/mapgen"
	"github.com/sells-group/doormap/internal/model"
	"github.com/sells-group/doormap/internal/report"
)

// ErrResultFileMissing means the batch geocoder result has not been
// downloaded to the configured path.
var ErrResultFileMissing = eris.New("pipeline: geocoder result file missing")

// RenderConfig names the render inputs and outputs.
type RenderConfig struct {
	ResultFile   string
	Box          model.BoundingBox
	ColorsPath   string
	PointsPath   string
	CoveragePath string
	ReportPath   string
	ReportFormat report.Format
}

// RenderResult summarizes a render.
type RenderResult struct {
	Doors        int
	Valid        int
	Areas        int
	ColorsPath   string
	PointsPath   string
	CoveragePath string
	ReportPath   string
}

// Renderer merges geocoder output with scraped doors and writes the maps.
type Renderer struct {
	cfg     RenderConfig
	cache   cache.Backend
	palette *mapgen.Palette
}

// NewRenderer creates a Renderer. The palette may already hold colors from
// an earlier run.
func NewRenderer(cfg RenderConfig, b cache.Backend, palette *mapgen.Palette) *Renderer {
	return &Renderer{cfg: cfg, cache: b, palette: palette}
}

// Run renders the maps for doors.
func (r *Renderer) Run(ctx context.Context, doors []model.PlacedDoor) (*RenderResult, error) {
	if _, err := os.Stat(r.cfg.ResultFile); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, eris.Wrapf(ErrResultFileMissing, "%s", r.cfg.ResultFile)
		}
		return nil, eris.Wrapf(err, "pipeline: stat %s", r.cfg.ResultFile)
	}

	records, err := runStage[model.AddressRecord](ctx, r.cache, StageGeocodedDoors, func(context.Context) ([]model.AddressRecord, error) {
		rows, err := geocode.ReadResultsFile(r.cfg.ResultFile)
		if err != nil {
			return nil, err
		}
		merged, err := Merge(doors, geocode.TopCandidates(rows))
		if err != nil {
			return nil, err
		}
		Validate(merged, r.cfg.Box)
		return merged, nil
	})
	if err != nil {
		return nil, err
	}

	areas := make([]string, len(records))
	for i, rec := range records {
		areas[i] = rec.Area
	}
	r.palette.Assign(areas)
	if err := r.writeColors(); err != nil {
		return nil, err
	}

	correct := Correct(records)
	zap.L().Info("pipeline: geocoding checked",
		zap.Int("doors", len(records)),
		zap.Int("correct", len(correct)),
	)

	if err := report.Write(r.cfg.ReportPath, r.cfg.ReportFormat, correct); err != nil {
		return nil, eris.Wrap(err, "pipeline: write report")
	}
	if err := mapgen.WriteFeatureCollection(r.cfg.CoveragePath, mapgen.CoverageFeatures(correct, r.palette)); err != nil {
		return nil, eris.Wrap(err, "pipeline: write coverage map")
	}
	if err := mapgen.WriteFeatureCollection(r.cfg.PointsPath, mapgen.PointFeatures(correct, r.palette)); err != nil {
		return nil, eris.Wrap(err, "pipeline: write point map")
	}

	return &RenderResult{
		Doors:        len(records),
		Valid:        len(correct),
		Areas:        r.palette.Len(),
		ColorsPath:   r.cfg.ColorsPath,
		PointsPath:   r.cfg.PointsPath,
		CoveragePath: r.cfg.CoveragePath,
		ReportPath:   r.cfg.ReportPath,
	}, nil
}

func (r *Renderer) writeColors() error {
	if err := os.MkdirAll(filepath.Dir(r.cfg.ColorsPath), 0o755); err != nil {
		return eris.Wrapf(err, "pipeline: create dir for %s", r.cfg.ColorsPath)
	}
	f, err := os.Create(r.cfg.ColorsPath)
	if err != nil {
		return eris.Wrapf(err, "pipeline: create %s", r.cfg.ColorsPath)
	}
	if _, err := r.palette.WriteTo(f); err != nil {
		_ = f.Close()
		return err
	}
	return eris.Wrapf(f.Close(), "pipeline: close %s", r.cfg.ColorsPath)
}
