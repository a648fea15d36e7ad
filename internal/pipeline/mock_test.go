package pipeline

import (
	"context"
	"errors"

	"github.com/sells-group/doormap/internal/model"
	"github.com/sells-group/doormap/internal/registry"
)

// fakeRegistry serves a fixed address hierarchy and counts calls per method.
type fakeRegistry struct {
	neighborhoods []model.Neighborhood
	streets       map[string][]model.Street // by neighborhood name
	doors         map[string][]model.Door   // by street id
	points        map[string]model.MeetingPoint

	failStreets bool
	calls       map[string]int
}

func newFakeRegistry() *fakeRegistry {
	return &fakeRegistry{
		neighborhoods: []model.Neighborhood{
			{ID: "1", NeighborhoodID: "101", Name: "BARIŞ"},
			{ID: "2", NeighborhoodID: "102", Name: "KAVAKLI"},
		},
		streets: map[string][]model.Street{
			"BARIŞ":   {{ID: "10", StreetID: "5501", Name: "ATATÜRK"}},
			"KAVAKLI": {{ID: "11", StreetID: "5502", Name: "GÜL"}},
		},
		doors: map[string][]model.Door{
			"5501": {
				{ID: "100", Neighborhood: "BARIŞ", Street: "ATATÜRK", AddressType: "CADDE", DoorNo: "1", Area: "10"},
				{ID: "101", Neighborhood: "BARIŞ", Street: "ATATÜRK", AddressType: "CADDE", DoorNo: "3", Area: "2"},
			},
			"5502": {
				{ID: "102", Neighborhood: "KAVAKLI", Street: "GÜL", AddressType: "SOKAK", DoorNo: "5", Area: "10"},
			},
		},
		points: map[string]model.MeetingPoint{
			"10": {Area: "10", Latitude: 41.0, Longitude: 28.6},
			"2":  {Area: "2", Latitude: 40.99, Longitude: 28.65},
		},
		calls: map[string]int{},
	}
}

func (f *fakeRegistry) Neighborhoods(context.Context) ([]model.Neighborhood, error) {
	f.calls["neighborhoods"]++
	return f.neighborhoods, nil
}

func (f *fakeRegistry) Streets(_ context.Context, n model.Neighborhood) ([]model.Street, error) {
	f.calls["streets"]++
	if f.failStreets {
		return nil, errors.New("connection reset")
	}
	var out []model.Street
	for _, s := range f.streets[n.Name] {
		s.NeighborhoodID = n.ID
		out = append(out, s)
	}
	return out, nil
}

func (f *fakeRegistry) Doors(_ context.Context, s model.Street) ([]model.Door, error) {
	f.calls["doors"]++
	return f.doors[s.StreetID], nil
}

func (f *fakeRegistry) MeetingPoint(_ context.Context, area string) (model.MeetingPoint, error) {
	f.calls["coordinates"]++
	mp, ok := f.points[area]
	if !ok {
		return model.MeetingPoint{}, registry.ErrNoCoordinates
	}
	return mp, nil
}
