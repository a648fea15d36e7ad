package mapgen

import (
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/xy"
)

// ConvexHull returns the smallest convex geometry containing coords, which
// are (longitude, latitude) pairs. Degenerate inputs collapse: no points
// gives nil, one distinct point a Point, collinear points a LineString.
func ConvexHull(coords []geom.Coord) geom.T {
	distinct := dedupe(coords)
	switch len(distinct) {
	case 0:
		return nil
	case 1:
		return geom.NewPointFlat(geom.XY, distinct[0])
	case 2:
		return geom.NewLineStringFlat(geom.XY, append(append([]float64{}, distinct[0]...), distinct[1]...))
	}

	flat := make([]float64, 0, 2*len(distinct))
	for _, c := range distinct {
		flat = append(flat, c[0], c[1])
	}
	return xy.ConvexHullFlat(geom.XY, flat)
}

func dedupe(coords []geom.Coord) []geom.Coord {
	type key struct{ x, y float64 }
	seen := make(map[key]bool, len(coords))
	out := make([]geom.Coord, 0, len(coords))
	for _, c := range coords {
		if len(c) < 2 {
			continue
		}
		k := key{c[0], c[1]}
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, geom.Coord{c[0], c[1]})
	}
	return out
}
