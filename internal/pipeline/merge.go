package pipeline

import (
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/doormap/internal/geocheck"
	"github.com/sells-group/doormap/internal/model"
)

// ErrRowCountMismatch means the geocoder returned a different number of top
// candidates than there are doors, so rows cannot be joined by position.
var ErrRowCountMismatch = eris.New("pipeline: geocoded row count does not match door count")

// Merge joins doors with top geocoder candidates by position.
func Merge(doors []model.PlacedDoor, rows []model.GeocodedRow) ([]model.AddressRecord, error) {
	if len(doors) != len(rows) {
		return nil, eris.Wrapf(ErrRowCountMismatch, "%d doors, %d geocoded rows", len(doors), len(rows))
	}

	out := make([]model.AddressRecord, len(doors))
	for i, d := range doors {
		g := rows[i]
		rec := model.AddressRecord{
			PlacedDoor:     d,
			RecID:          g.RecID,
			SeqNumber:      g.SeqNumber,
			Latitude:       g.Latitude,
			Longitude:      g.Longitude,
			HouseNumber:    g.HouseNumber,
			GeocodedStreet: g.Street,
			District:       g.District,
			City:           g.City,
			PostalCode:     g.PostalCode,
			Country:        g.Country,
		}
		if g.LocationLabel != nil {
			rec.LocationLabel = *g.LocationLabel
		}
		out[i] = rec
	}
	return out, nil
}

// Validate sets CorrectGeocoding on every record and returns how many passed.
// Empty text cells count as unavailable.
func Validate(records []model.AddressRecord, box model.BoundingBox) int {
	valid := 0
	for i := range records {
		r := &records[i]
		res := geocheck.Validate(geocheck.Candidate{
			Street:        optional(r.Street),
			Neighborhood:  optional(r.Neighborhood),
			LocationLabel: optional(r.LocationLabel),
			Latitude:      r.Latitude,
			Longitude:     r.Longitude,
		}, box)

		r.CorrectGeocoding = res.Valid
		if res.Valid {
			valid++
			continue
		}
		zap.L().Debug("geocode rejected",
			zap.String("rec_id", r.RecID),
			zap.String("door_id", r.ID),
			zap.String("reason", res.Reason),
		)
	}
	return valid
}

// Correct returns the records that passed validation.
func Correct(records []model.AddressRecord) []model.AddressRecord {
	out := make([]model.AddressRecord, 0, len(records))
	for _, r := range records {
		if r.CorrectGeocoding {
			out = append(out, r)
		}
	}
	return out
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
