// Package pipeline runs the scrape and render stages of a doormap run.
package pipeline

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/doormap/internal/cache"
)

// Stage cache keys.
const (
	StageNeighborhoods = "neighborhoods"
	StageStreets       = "streets"
	StageDoors         = "doors"
	StageCoordinates   = "coordinates"
	StageMeetingPoints = "meeting_points"
	StageGeocodedDoors = "geocoded_doors"
)

// runStage loads or computes one cached stage and logs how long it took.
func runStage[T any](ctx context.Context, b cache.Backend, key string, fetch cache.FetchFunc[T]) ([]T, error) {
	start := time.Now()
	rows, err := cache.LoadOrFetch(ctx, b, key, fetch)
	if err != nil {
		zap.L().Error("pipeline: stage failed", zap.String("stage", key), zap.Error(err))
		return nil, eris.Wrapf(err, "pipeline: stage %s", key)
	}
	zap.L().Info("pipeline: stage complete",
		zap.String("stage", key),
		zap.Int("rows", len(rows)),
		zap.Int64("duration_ms", time.Since(start).Milliseconds()),
	)
	return rows, nil
}
