package pipeline

import (
	"math"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/doormap/internal/model"
)

var testBox = model.BoundingBox{MinLat: 40.955247, MaxLat: 41.031174, MinLon: 28.591098, MaxLon: 28.700961}

func ptr(s string) *string { return &s }

func placed(id, street, neighborhood, area string) model.PlacedDoor {
	return model.PlacedDoor{Door: model.Door{ID: id, Street: street, Neighborhood: neighborhood, Area: area}}
}

func TestMerge(t *testing.T) {
	doors := []model.PlacedDoor{
		placed("1", "ATATÜRK", "BARIŞ", "3"),
		placed("2", "GÜL", "KAVAKLI", "4"),
	}
	rows := []model.GeocodedRow{
		{RecID: "1", SeqNumber: 1, Latitude: 41.0, Longitude: 28.6, LocationLabel: ptr("Atatürk Caddesi 1, Barış"), Street: "Atatürk Caddesi"},
		{RecID: "2", SeqNumber: 1, Latitude: math.NaN(), Longitude: math.NaN()},
	}

	got, err := Merge(doors, rows)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "1", got[0].ID)
	assert.Equal(t, "ATATÜRK", got[0].Street, "door street is kept")
	assert.Equal(t, "Atatürk Caddesi", got[0].GeocodedStreet)
	assert.Equal(t, "Atatürk Caddesi 1, Barış", got[0].LocationLabel)
	assert.Equal(t, "2", got[1].RecID)
	assert.Empty(t, got[1].LocationLabel)
	assert.True(t, math.IsNaN(got[1].Latitude))
}

func TestMerge_CountMismatch(t *testing.T) {
	_, err := Merge([]model.PlacedDoor{placed("1", "A", "B", "1")}, nil)
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrRowCountMismatch))
	assert.Contains(t, err.Error(), "1 doors, 0 geocoded rows")
}

func TestMerge_Empty(t *testing.T) {
	got, err := Merge(nil, nil)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestValidate(t *testing.T) {
	rec := func(street, neighborhood, label string, lat, lon float64) model.AddressRecord {
		r := model.AddressRecord{LocationLabel: label, Latitude: lat, Longitude: lon}
		r.Street = street
		r.Neighborhood = neighborhood
		return r
	}
	records := []model.AddressRecord{
		rec("ATATÜRK", "BARIŞ", "Atatürk Caddesi 12, Barış, Beylikdüzü", 41.0, 28.65),
		rec("ATATÜRK", "BARIŞ", "Atatürk Caddesi 12, Barış, Beylikdüzü", 41.2, 28.65),
		rec("ATATÜRK", "BARIŞ", "", 41.0, 28.65),
		rec("ATATÜRK", "", "Atatürk Caddesi 12, Barış", 41.0, 28.65),
		rec("İNÖNÜ", "BARIŞ", "Atatürk Caddesi 12, Barış", 41.0, 28.65),
		rec("ATATÜRK", "BARIŞ", "Atatürk Caddesi 12, Barış", math.NaN(), math.NaN()),
	}

	valid := Validate(records, testBox)
	assert.Equal(t, 1, valid)

	want := []bool{true, false, false, false, false, false}
	for i, w := range want {
		assert.Equal(t, w, records[i].CorrectGeocoding, "record %d", i)
	}
}

func TestCorrect(t *testing.T) {
	records := []model.AddressRecord{
		{RecID: "1", CorrectGeocoding: true},
		{RecID: "2"},
		{RecID: "3", CorrectGeocoding: true},
	}
	got := Correct(records)
	require.Len(t, got, 2)
	assert.Equal(t, "1", got[0].RecID)
	assert.Equal(t, "3", got[1].RecID)
}

func TestOptional(t *testing.T) {
	assert.Nil(t, optional(""))
	require.NotNil(t, optional("x"))
	assert.Equal(t, "x", *optional("x"))
}
