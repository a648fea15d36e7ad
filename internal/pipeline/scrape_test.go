package pipeline

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/doormap/internal/cache"
	"github.com/sells-group/doormap/internal/model"
	"github.com/sells-group/doormap/internal/registry"
)

func TestScraper_Run(t *testing.T) {
	dir := t.TempDir()
	reg := newFakeRegistry()
	s := NewScraper(reg, cache.NewFileBackend(dir))

	res, err := s.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, res.Neighborhoods)
	assert.Equal(t, 2, res.Streets)
	require.Len(t, res.Doors, 3)

	assert.Equal(t, "100", res.Doors[0].ID)
	assert.Equal(t, 41.0, res.Doors[0].MeetLatitude)
	assert.Equal(t, 28.65, res.Doors[1].MeetLongitude)
	assert.Equal(t, 28.6, res.Doors[2].MeetLongitude)

	// one lookup per distinct area
	assert.Equal(t, 2, reg.calls["coordinates"])

	require.Len(t, res.MeetingPoints, 2)
	assert.Equal(t, model.MeetingPoint{Area: "2", Latitude: 40.99, Longitude: 28.65}, res.MeetingPoints[0])
	assert.Equal(t, model.MeetingPoint{Area: "10", Latitude: 41.0, Longitude: 28.6}, res.MeetingPoints[1])

	for _, key := range []string{StageNeighborhoods, StageStreets, StageDoors, StageCoordinates, StageMeetingPoints} {
		_, err := os.Stat(filepath.Join(dir, key+".csv"))
		assert.NoError(t, err, key)
	}
}

func TestScraper_StreetsCarryNeighborhoodID(t *testing.T) {
	dir := t.TempDir()
	s := NewScraper(newFakeRegistry(), cache.NewFileBackend(dir))
	_, err := s.Run(context.Background())
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, StageStreets+".csv"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "10,5501,ATATÜRK,1")
	assert.Contains(t, string(data), "11,5502,GÜL,2")
}

func TestScraper_SecondRunUsesCache(t *testing.T) {
	dir := t.TempDir()
	first := newFakeRegistry()
	_, err := NewScraper(first, cache.NewFileBackend(dir)).Run(context.Background())
	require.NoError(t, err)

	second := newFakeRegistry()
	res, err := NewScraper(second, cache.NewFileBackend(dir)).Run(context.Background())
	require.NoError(t, err)

	assert.Empty(t, second.calls, "no registry calls on a warm cache")
	assert.Len(t, res.Doors, 3)
	assert.Equal(t, 41.0, res.Doors[0].MeetLatitude)
}

func TestScraper_RegistryFailureIsFatal(t *testing.T) {
	dir := t.TempDir()
	reg := newFakeRegistry()
	reg.failStreets = true

	_, err := NewScraper(reg, cache.NewFileBackend(dir)).Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "stage streets")

	_, statErr := os.Stat(filepath.Join(dir, StageStreets+".csv"))
	assert.True(t, os.IsNotExist(statErr), "failed stage is not cached")
	_, statErr = os.Stat(filepath.Join(dir, StageNeighborhoods+".csv"))
	assert.NoError(t, statErr, "completed stage stays cached")
}

func TestScraper_MissingCoordinatesIsFatal(t *testing.T) {
	reg := newFakeRegistry()
	delete(reg.points, "2")

	_, err := NewScraper(reg, cache.NewFileBackend(t.TempDir())).Run(context.Background())
	require.Error(t, err)
	assert.True(t, eris.Is(err, registry.ErrNoCoordinates))
}

func TestMeetingPoints(t *testing.T) {
	doors := []model.PlacedDoor{
		{Door: model.Door{Area: "10"}, MeetLatitude: 1, MeetLongitude: 2},
		{Door: model.Door{Area: "9"}, MeetLatitude: 3, MeetLongitude: 4},
		{Door: model.Door{Area: "10"}, MeetLatitude: 5, MeetLongitude: 6},
		{Door: model.Door{Area: "x"}, MeetLatitude: math.NaN(), MeetLongitude: math.NaN()},
	}

	got := MeetingPoints(doors)
	require.Len(t, got, 3)
	assert.Equal(t, "9", got[0].Area)
	assert.Equal(t, model.MeetingPoint{Area: "10", Latitude: 1, Longitude: 2}, got[1])
	assert.Equal(t, "x", got[2].Area)
	assert.True(t, math.IsNaN(got[2].Latitude))
}

func TestMeetingPoints_Empty(t *testing.T) {
	assert.Empty(t, MeetingPoints(nil))
}
