// Package registry is a client for the municipal address registry API.
package registry

import (
	"bytes"
	"context"
	"encoding/json"
	"net/url"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/doormap/internal/fetcher"
	"github.com/sells-group/doormap/internal/model"
)

// ErrNoCoordinates is returned when the registry has no meeting point for an area.
var ErrNoCoordinates = eris.New("registry: no coordinates for area")

const (
	neighborhoodsPath = "/GetAllNeighborhood"
	streetsPath       = "/GetStreetByNeighborhoodName"
	doorsPath         = "/GetDoorNoByStreetId"
	coordinatesPath   = "/GetCoordinateByDoorNo"
)

// Client lists neighborhoods, streets, doors and meeting points.
type Client struct {
	f       fetcher.Fetcher
	baseURL string
}

// NewClient creates a registry client rooted at baseURL.
func NewClient(f fetcher.Fetcher, baseURL string) *Client {
	return &Client{f: f, baseURL: strings.TrimRight(baseURL, "/")}
}

// field accepts JSON strings, numbers and null, keeping the text form.
type field string

func (v *field) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*v = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*v = field(s)
		return nil
	}
	*v = field(b)
	return nil
}

type neighborhoodJSON struct {
	ID             field `json:"id"`
	NeighborhoodID field `json:"neighborhoodid"`
	Name           field `json:"neighborhoodname"`
}

type streetJSON struct {
	ID       field `json:"id"`
	StreetID field `json:"streetid"`
	Name     field `json:"streetname"`
}

type doorJSON struct {
	ID           field `json:"id"`
	Neighborhood field `json:"neighborhood"`
	Street       field `json:"street"`
	AddressType  field `json:"addresstype"`
	DoorNo       field `json:"doorno"`
	Area         field `json:"area"`
	Editor       field `json:"editor"`
	DateCreated  field `json:"datecreated"`
	DateModified field `json:"datemodified"`
	RowVersion   field `json:"rowversion"`
}

type coordinateJSON struct {
	Latitude  field `json:"latitude"`
	Longitude field `json:"longitude"`
}

// Neighborhoods lists every neighborhood.
func (c *Client) Neighborhoods(ctx context.Context) ([]model.Neighborhood, error) {
	var raw []neighborhoodJSON
	if err := c.f.GetJSON(ctx, c.baseURL+neighborhoodsPath, nil, &raw); err != nil {
		return nil, eris.Wrap(err, "registry: neighborhoods")
	}
	out := make([]model.Neighborhood, 0, len(raw))
	for _, r := range raw {
		out = append(out, model.Neighborhood{
			ID:             string(r.ID),
			NeighborhoodID: string(r.NeighborhoodID),
			Name:           string(r.Name),
		})
	}
	return out, nil
}

// Streets lists the streets of a neighborhood. The API takes the neighborhood
// name in its streetname parameter.
func (c *Client) Streets(ctx context.Context, n model.Neighborhood) ([]model.Street, error) {
	params := url.Values{"streetname": {n.Name}}
	var raw []streetJSON
	if err := c.f.GetJSON(ctx, c.baseURL+streetsPath, params, &raw); err != nil {
		return nil, eris.Wrapf(err, "registry: streets of %s", n.Name)
	}
	out := make([]model.Street, 0, len(raw))
	for _, r := range raw {
		out = append(out, model.Street{
			ID:             string(r.ID),
			StreetID:       string(r.StreetID),
			Name:           string(r.Name),
			NeighborhoodID: n.ID,
		})
	}
	return out, nil
}

// Doors lists the door numbers of a street. The API takes the street id in its
// neighborhoodname parameter.
func (c *Client) Doors(ctx context.Context, s model.Street) ([]model.Door, error) {
	params := url.Values{
		"neighborhoodname": {s.StreetID},
		"streetname":       {s.Name},
	}
	var raw []doorJSON
	if err := c.f.GetJSON(ctx, c.baseURL+doorsPath, params, &raw); err != nil {
		return nil, eris.Wrapf(err, "registry: doors of %s", s.Name)
	}
	out := make([]model.Door, 0, len(raw))
	for _, r := range raw {
		out = append(out, model.Door{
			ID:           string(r.ID),
			Neighborhood: string(r.Neighborhood),
			Street:       string(r.Street),
			AddressType:  string(r.AddressType),
			DoorNo:       string(r.DoorNo),
			Area:         string(r.Area),
			Editor:       string(r.Editor),
			DateCreated:  string(r.DateCreated),
			DateModified: string(r.DateModified),
			RowVersion:   string(r.RowVersion),
		})
	}
	return out, nil
}

// MeetingPoint returns the meeting coordinate of an area. The API takes the
// area in its doorno parameter and may return several rows; the first wins.
func (c *Client) MeetingPoint(ctx context.Context, area string) (model.MeetingPoint, error) {
	params := url.Values{"doorno": {area}}
	var raw []coordinateJSON
	if err := c.f.GetJSON(ctx, c.baseURL+coordinatesPath, params, &raw); err != nil {
		return model.MeetingPoint{}, eris.Wrapf(err, "registry: coordinates of area %s", area)
	}
	if len(raw) == 0 {
		return model.MeetingPoint{}, eris.Wrapf(ErrNoCoordinates, "area %s", area)
	}

	lat, err := ParseDecimal(string(raw[0].Latitude))
	if err != nil {
		return model.MeetingPoint{}, eris.Wrapf(err, "registry: latitude of area %s", area)
	}
	lon, err := ParseDecimal(string(raw[0].Longitude))
	if err != nil {
		return model.MeetingPoint{}, eris.Wrapf(err, "registry: longitude of area %s", area)
	}
	return model.MeetingPoint{Area: area, Latitude: lat, Longitude: lon}, nil
}

// ParseDecimal parses a number written with a decimal comma ("41,0123").
func ParseDecimal(s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(s), ",", "."), 64)
	if err != nil {
		return 0, eris.Wrapf(err, "parse decimal %q", s)
	}
	return v, nil
}
