package geocheck

import (
	"strings"

	"github.com/sells-group/doormap/internal/model"
)

// Candidate is one geocoded location together with the address fields it is
// checked against. Nil text fields are unavailable.
type Candidate struct {
	Street        *string
	Neighborhood  *string
	LocationLabel *string
	Latitude      float64
	Longitude     float64
}

// Result is the outcome of validating a Candidate.
type Result struct {
	Valid             bool
	StreetFound       bool
	NeighborhoodFound bool
	WithinBBox        bool
	Reason            string
}

// Validate accepts a candidate when its point lies inside box, its label
// starts with the street name followed by a space, and its label contains the
// neighborhood name anywhere. Comparison is on Turkish-folded text.
func Validate(c Candidate, box model.BoundingBox) Result {
	label, ok := NormalizeField(c.LocationLabel)
	if !ok {
		return Result{Reason: "location label unavailable"}
	}
	street, ok := NormalizeField(c.Street)
	if !ok {
		return Result{Reason: "street unavailable"}
	}
	neighborhood, ok := NormalizeField(c.Neighborhood)
	if !ok {
		return Result{Reason: "neighborhood unavailable"}
	}

	r := Result{
		// Anchored at the start of the label; the neighborhood check is not.
		StreetFound:       strings.HasPrefix(label, street+" "),
		NeighborhoodFound: strings.Contains(label, neighborhood),
		WithinBBox:        box.Contains(c.Latitude, c.Longitude),
	}
	r.Valid = r.WithinBBox && r.StreetFound && r.NeighborhoodFound

	switch {
	case r.Valid:
	case !r.WithinBBox:
		r.Reason = "outside bounding box"
	case !r.StreetFound:
		r.Reason = "street not at start of label"
	default:
		r.Reason = "neighborhood not in label"
	}
	return r
}
