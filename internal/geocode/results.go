package geocode

import (
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/doormap/internal/fetcher"
	"github.com/sells-group/doormap/internal/model"
)

// resultRow is a result line as text. Both the geocoder's own column names
// and the hand-renamed ones (latitude, longitude, street_name) are accepted.
type resultRow struct {
	RecID            string `csv:"recId"`
	SeqNumber        string `csv:"SeqNumber"`
	SeqLength        string `csv:"seqLength"`
	Latitude         string `csv:"latitude"`
	DisplayLatitude  string `csv:"displayLatitude"`
	Longitude        string `csv:"longitude"`
	DisplayLongitude string `csv:"displayLongitude"`
	LocationLabel    string `csv:"locationLabel"`
	HouseNumber      string `csv:"houseNumber"`
	Street           string `csv:"street"`
	StreetName       string `csv:"street_name"`
	District         string `csv:"district"`
	City             string `csv:"city"`
	PostalCode       string `csv:"postalCode"`
	County           string `csv:"county"`
	State            string `csv:"state"`
	Country          string `csv:"country"`
}

// ReadResultsFile opens and parses a batch geocoder result file.
func ReadResultsFile(path string) ([]model.GeocodedRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "geocode: open results %s", path)
	}
	defer f.Close() //nolint:errcheck
	return ReadResults(f)
}

// ReadResults parses pipe-delimited geocoder output. Empty location labels
// are nil and empty coordinates are NaN.
func ReadResults(r io.Reader) ([]model.GeocodedRow, error) {
	raw, err := fetcher.ReadDelimited[resultRow](r, fetcher.CSVOptions{Delimiter: '|', LazyQuotes: true})
	if err != nil {
		return nil, eris.Wrap(err, "geocode: read results")
	}

	rows := make([]model.GeocodedRow, 0, len(raw))
	for i, rr := range raw {
		row, err := rr.toModel()
		if err != nil {
			return nil, eris.Wrapf(err, "geocode: result row %d", i+1)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func (rr resultRow) toModel() (model.GeocodedRow, error) {
	seq, err := parseInt(rr.SeqNumber)
	if err != nil {
		return model.GeocodedRow{}, eris.Wrap(err, "SeqNumber")
	}
	seqLen, err := parseInt(rr.SeqLength)
	if err != nil {
		return model.GeocodedRow{}, eris.Wrap(err, "seqLength")
	}
	lat, err := parseCoord(firstNonEmpty(rr.Latitude, rr.DisplayLatitude))
	if err != nil {
		return model.GeocodedRow{}, eris.Wrap(err, "latitude")
	}
	lon, err := parseCoord(firstNonEmpty(rr.Longitude, rr.DisplayLongitude))
	if err != nil {
		return model.GeocodedRow{}, eris.Wrap(err, "longitude")
	}

	row := model.GeocodedRow{
		RecID:       rr.RecID,
		SeqNumber:   seq,
		SeqLength:   seqLen,
		Latitude:    lat,
		Longitude:   lon,
		HouseNumber: rr.HouseNumber,
		Street:      firstNonEmpty(rr.StreetName, rr.Street),
		District:    rr.District,
		City:        rr.City,
		PostalCode:  rr.PostalCode,
		County:      rr.County,
		State:       rr.State,
		Country:     rr.Country,
	}
	if rr.LocationLabel != "" {
		label := rr.LocationLabel
		row.LocationLabel = &label
	}
	return row, nil
}

// TopCandidates keeps the best candidate (SeqNumber 1) of each record, in
// file order.
func TopCandidates(rows []model.GeocodedRow) []model.GeocodedRow {
	out := make([]model.GeocodedRow, 0, len(rows))
	for _, r := range rows {
		if r.SeqNumber == 1 {
			out = append(out, r)
		}
	}
	return out
}

func parseInt(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	return strconv.Atoi(s)
}

func parseCoord(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return math.NaN(), nil
	}
	return strconv.ParseFloat(s, 64)
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
