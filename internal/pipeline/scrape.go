package pipeline

import (
	"context"
	"math"

	"github.com/rotisserie/eris"

	"github.com/sells-group/doormap/internal/cache"
	"github.com/sells-group/doormap/internal/mapgen"
	"github.com/sells-group/doormap/internal/model"
)

// Registry lists the address hierarchy of the municipality.
type Registry interface {
	Neighborhoods(ctx context.Context) ([]model.Neighborhood, error)
	Streets(ctx context.Context, n model.Neighborhood) ([]model.Street, error)
	Doors(ctx context.Context, s model.Street) ([]model.Door, error)
	MeetingPoint(ctx context.Context, area string) (model.MeetingPoint, error)
}

// ScrapeResult holds the outputs of a scrape.
type ScrapeResult struct {
	Neighborhoods int
	Streets       int
	Doors         []model.PlacedDoor
	MeetingPoints []model.MeetingPoint
}

// Scraper walks the registry one level at a time, caching every level.
type Scraper struct {
	reg   Registry
	cache cache.Backend
}

// NewScraper creates a Scraper.
func NewScraper(reg Registry, b cache.Backend) *Scraper {
	return &Scraper{reg: reg, cache: b}
}

// Run executes the neighborhoods, streets, doors and coordinates stages in
// order and derives the meeting points. Any registry failure aborts the run.
func (s *Scraper) Run(ctx context.Context) (*ScrapeResult, error) {
	neighborhoods, err := runStage[model.Neighborhood](ctx, s.cache, StageNeighborhoods, s.reg.Neighborhoods)
	if err != nil {
		return nil, err
	}

	streets, err := runStage[model.Street](ctx, s.cache, StageStreets, func(ctx context.Context) ([]model.Street, error) {
		var out []model.Street
		for _, n := range neighborhoods {
			rows, err := s.reg.Streets(ctx, n)
			if err != nil {
				return nil, err
			}
			out = append(out, rows...)
		}
		return out, nil
	})
	if err != nil {
		return nil, err
	}

	doors, err := runStage[model.Door](ctx, s.cache, StageDoors, func(ctx context.Context) ([]model.Door, error) {
		var out []model.Door
		for _, st := range streets {
			rows, err := s.reg.Doors(ctx, st)
			if err != nil {
				return nil, err
			}
			out = append(out, rows...)
		}
		return out, nil
	})
	if err != nil {
		return nil, err
	}

	placed, err := runStage[model.PlacedDoor](ctx, s.cache, StageCoordinates, func(ctx context.Context) ([]model.PlacedDoor, error) {
		return s.placeDoors(ctx, doors)
	})
	if err != nil {
		return nil, err
	}

	points, err := runStage[model.MeetingPoint](ctx, s.cache, StageMeetingPoints, func(context.Context) ([]model.MeetingPoint, error) {
		return MeetingPoints(placed), nil
	})
	if err != nil {
		return nil, err
	}

	return &ScrapeResult{
		Neighborhoods: len(neighborhoods),
		Streets:       len(streets),
		Doors:         placed,
		MeetingPoints: points,
	}, nil
}

// placeDoors looks up the meeting point of each distinct area once and
// attaches it to every door of that area.
func (s *Scraper) placeDoors(ctx context.Context, doors []model.Door) ([]model.PlacedDoor, error) {
	points := make(map[string]model.MeetingPoint)
	for _, d := range doors {
		if _, ok := points[d.Area]; ok {
			continue
		}
		mp, err := s.reg.MeetingPoint(ctx, d.Area)
		if err != nil {
			return nil, eris.Wrapf(err, "pipeline: meeting point of area %s", d.Area)
		}
		points[d.Area] = mp
	}

	out := make([]model.PlacedDoor, len(doors))
	for i, d := range doors {
		out[i] = model.PlacedDoor{Door: d, MeetLatitude: math.NaN(), MeetLongitude: math.NaN()}
		if mp, ok := points[d.Area]; ok {
			out[i].MeetLatitude = mp.Latitude
			out[i].MeetLongitude = mp.Longitude
		}
	}
	return out, nil
}

// MeetingPoints returns one point per area, taken from the area's first door,
// with areas in sorted order.
func MeetingPoints(doors []model.PlacedDoor) []model.MeetingPoint {
	first := make(map[string]model.PlacedDoor)
	var areas []string
	for _, d := range doors {
		if _, ok := first[d.Area]; ok {
			continue
		}
		first[d.Area] = d
		areas = append(areas, d.Area)
	}
	mapgen.SortAreas(areas)

	out := make([]model.MeetingPoint, 0, len(areas))
	for _, a := range areas {
		d := first[a]
		out = append(out, model.MeetingPoint{Area: a, Latitude: d.MeetLatitude, Longitude: d.MeetLongitude})
	}
	return out
}
