package mapgen

import (
	"cmp"
	"encoding/json"
	"os"
	"path/filepath"
	"slices"
	"strconv"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"

	"github.com/sells-group/doormap/internal/model"
)

// Feature property names understood by the map viewer.
const (
	PropFillColor = "fill-color"
	PropLineWidth = "line-width"
	PropArea      = "area"
)

func properties(area string, p *Palette) map[string]any {
	return map[string]any{
		PropFillColor: p.Color(area),
		PropLineWidth: "0",
		PropArea:      area,
	}
}

// PointFeatures returns one Point feature per correctly geocoded record.
func PointFeatures(records []model.AddressRecord, p *Palette) []*geojson.Feature {
	features := make([]*geojson.Feature, 0, len(records))
	for _, r := range records {
		if !r.CorrectGeocoding {
			continue
		}
		features = append(features, &geojson.Feature{
			Geometry:   geom.NewPointFlat(geom.XY, []float64{r.Longitude, r.Latitude}),
			Properties: properties(r.Area, p),
		})
	}
	return features
}

// CoverageFeatures returns one convex-hull feature per area of the correctly
// geocoded records.
func CoverageFeatures(records []model.AddressRecord, p *Palette) []*geojson.Feature {
	byArea := make(map[string][]geom.Coord)
	for _, r := range records {
		if !r.CorrectGeocoding {
			continue
		}
		byArea[r.Area] = append(byArea[r.Area], geom.Coord{r.Longitude, r.Latitude})
	}

	areas := make([]string, 0, len(byArea))
	for a := range byArea {
		areas = append(areas, a)
	}
	SortAreas(areas)

	features := make([]*geojson.Feature, 0, len(areas))
	for _, a := range areas {
		features = append(features, &geojson.Feature{
			Geometry:   ConvexHull(byArea[a]),
			Properties: properties(a, p),
		})
	}
	return features
}

// SortAreas orders area keys numerically where they are integers, with
// non-numeric keys after them in lexical order.
func SortAreas(areas []string) {
	slices.SortFunc(areas, func(a, b string) int {
		na, errA := strconv.Atoi(a)
		nb, errB := strconv.Atoi(b)
		switch {
		case errA == nil && errB == nil:
			return cmp.Compare(na, nb)
		case errA == nil:
			return -1
		case errB == nil:
			return 1
		}
		return cmp.Compare(a, b)
	})
}

// WriteFeatureCollection writes features to path as a GeoJSON
// FeatureCollection, creating parent directories.
func WriteFeatureCollection(path string, features []*geojson.Feature) error {
	if features == nil {
		features = []*geojson.Feature{}
	}
	data, err := json.Marshal(&geojson.FeatureCollection{Features: features})
	if err != nil {
		return eris.Wrap(err, "mapgen: encode feature collection")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return eris.Wrapf(err, "mapgen: create dir for %s", path)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return eris.Wrapf(err, "mapgen: write %s", path)
	}
	return nil
}

// ReadFeatureCollection reads a GeoJSON FeatureCollection from path.
func ReadFeatureCollection(path string) (*geojson.FeatureCollection, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "mapgen: read %s", path)
	}
	var fc geojson.FeatureCollection
	if err := json.Unmarshal(data, &fc); err != nil {
		return nil, eris.Wrapf(err, "mapgen: decode %s", path)
	}
	return &fc, nil
}
