package main

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/doormap/internal/cache"
	"github.com/sells-group/doormap/internal/config"
	"github.com/sells-group/doormap/internal/model"
	"github.com/sells-group/doormap/internal/store"
)

// registryServer serves a two-door registry.
func registryServer(t *testing.T) *httptest.Server {
	t.Helper()
	payloads := map[string]any{
		"/Home/GetAllNeighborhood": []map[string]any{
			{"id": 1, "neighborhoodid": 101, "neighborhoodname": "BARIŞ"},
		},
		"/Home/GetStreetByNeighborhoodName": []map[string]any{
			{"id": 10, "streetid": 5501, "streetname": "ATATÜRK"},
		},
		"/Home/GetDoorNoByStreetId": []map[string]any{
			{"id": 100, "neighborhood": "BARIŞ", "street": "ATATÜRK", "addresstype": "CADDE", "doorno": "1", "area": 4},
			{"id": 101, "neighborhood": "BARIŞ", "street": "ATATÜRK", "addresstype": "MEYDAN", "doorno": "3", "area": 4},
		},
		"/Home/GetCoordinateByDoorNo": []map[string]any{
			{"latitude": "41,001", "longitude": "28,641"},
		},
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := payloads[r.URL.Path]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_ = json.NewEncoder(w).Encode(body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

// useConfig installs a test configuration rooted in a temp dir.
func useConfig(t *testing.T, registryURL string) string {
	t.Helper()
	dir := t.TempDir()
	prev := cfg
	t.Cleanup(func() { cfg = prev })

	cfg = &config.Config{
		Registry: config.RegistryConfig{BaseURL: registryURL + "/Home"},
		Fetch:    config.FetchConfig{UserAgent: "doormap-test", TimeoutSecs: 5, MaxRetries: 1, RateLimit: 1000},
		Geocoder: config.GeocoderConfig{
			AppID:      "id",
			AppCode:    "code",
			BodyFile:   filepath.Join(dir, "post_data.txt"),
			ResultFile: filepath.Join(dir, "result_out.txt"),
		},
		Region: config.RegionConfig{
			District: "Beylikdüzü",
			City:     "Istanbul",
			Country:  "TUR",
			BBox:     model.BoundingBox{MinLat: 40.955247, MaxLat: 41.031174, MinLon: 28.591098, MaxLon: 28.700961},
		},
		Cache: config.CacheConfig{Backend: "file", Dir: filepath.Join(dir, "data")},
		Output: config.OutputConfig{
			Dir:          filepath.Join(dir, "out"),
			ColorsFile:   "area_colors.txt",
			PointsFile:   "doors.geojson",
			CoverageFile: "areas.geojson",
			ReportFile:   "correct",
			ReportFormat: "csv",
			Opacity:      0.4,
			ColorSeed:    3,
		},
	}
	return dir
}

func TestWriteBatchBody(t *testing.T) {
	srv := registryServer(t)
	useConfig(t, srv.URL)

	unknown, err := writeBatchBody(context.Background(), cfg.Geocoder.BodyFile)
	require.NoError(t, err)
	assert.Equal(t, []string{"MEYDAN"}, unknown)

	data, err := os.ReadFile(cfg.Geocoder.BodyFile)
	require.NoError(t, err)
	assert.Equal(t,
		"recId|searchText|country\n"+
			"1|ATATÜRK Caddesi 1 BARIŞ Beylikdüzü Istanbul|TUR\n"+
			"2|ATATÜRK MEYDAN 3 BARIŞ Beylikdüzü Istanbul|TUR",
		string(data))
}

func TestSubmitBatch(t *testing.T) {
	useConfig(t, "http://unused")

	var gotBody string
	geo := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		assert.Equal(t, "id", r.URL.Query().Get("app_id"))
		_, _ = w.Write([]byte(`<ns2:SearchBatch xmlns:ns2="http://www.navteq.com/lbsp/Search-Batch/1"><Response><MetaInfo><RequestId>job-1</RequestId></MetaInfo><Status>accepted</Status></Response></ns2:SearchBatch>`))
	}))
	defer geo.Close()
	cfg.Geocoder.URL = geo.URL

	require.NoError(t, os.WriteFile(cfg.Geocoder.BodyFile, []byte("recId|searchText|country\n1|x|TUR"), 0o644))

	job, err := submitBatch(context.Background(), cfg.Geocoder.BodyFile)
	require.NoError(t, err)
	assert.Equal(t, "job-1", job.RequestID)
	assert.Equal(t, "accepted", job.Status)
	assert.Equal(t, "recId|searchText|country\n1|x|TUR", gotBody)
}

func TestSubmitBatch_MissingBody(t *testing.T) {
	useConfig(t, "http://unused")
	_, err := submitBatch(context.Background(), filepath.Join(t.TempDir(), "missing.txt"))
	assert.Error(t, err)
}

func TestRunAll_WithLedger(t *testing.T) {
	srv := registryServer(t)
	dir := useConfig(t, srv.URL)
	cfg.Store = config.StoreConfig{Driver: "sqlite", DatabaseURL: filepath.Join(dir, "doormap.db")}

	result := "recId|SeqNumber|seqLength|displayLatitude|displayLongitude|locationLabel|street\n" +
		"1|1|1|41.001|28.641|Atatürk Caddesi 1, Barış, Beylikdüzü|Atatürk Caddesi\n" +
		"2|1|1|41.002|28.642|Cumhuriyet Meydanı, Esenyurt|Cumhuriyet Meydanı\n"
	require.NoError(t, os.WriteFile(cfg.Geocoder.ResultFile, []byte(result), 0o644))

	ctx := context.Background()
	st, err := openStore(ctx)
	require.NoError(t, err)
	require.NotNil(t, st)
	defer st.Close() //nolint:errcheck

	run := startRun(ctx, st, "run")
	require.NotNil(t, run)
	res, err := runAll(ctx, st)
	require.NoError(t, err)
	finishRun(ctx, st, run, model.RunSummary{Doors: res.Doors, Valid: res.Valid}, nil)

	assert.Equal(t, 2, res.Doors)
	assert.Equal(t, 1, res.Valid)
	assert.Equal(t, 1, res.Areas)

	for _, p := range []string{res.ColorsPath, res.PointsPath, res.CoveragePath, res.ReportPath} {
		_, err := os.Stat(p)
		assert.NoError(t, err, p)
	}
	assert.True(t, strings.HasSuffix(res.ReportPath, "correct.csv"))

	runs, err := st.ListRuns(ctx, store.RunFilter{Command: "run"})
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, model.RunStatusComplete, runs[0].Status)
	assert.Equal(t, 2, runs[0].Doors)
	assert.Equal(t, 1, runs[0].Valid)
}

func TestRunAll_MissingResultFile(t *testing.T) {
	srv := registryServer(t)
	useConfig(t, srv.URL)

	_, err := runAll(context.Background(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "result file missing")
}

func TestFinishRun_RecordsFailure(t *testing.T) {
	dir := useConfig(t, "http://unused")
	cfg.Store = config.StoreConfig{Driver: "sqlite", DatabaseURL: filepath.Join(dir, "ledger.db")}

	ctx := context.Background()
	st, err := openStore(ctx)
	require.NoError(t, err)
	defer st.Close() //nolint:errcheck

	run := startRun(ctx, st, "scrape")
	require.NotNil(t, run)
	finishRun(ctx, st, run, model.RunSummary{}, errors.New("registry down"))

	runs, err := st.ListRuns(ctx, store.RunFilter{})
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, model.RunStatusFailed, runs[0].Status)
	assert.Contains(t, runs[0].Error, "registry down")
}

func TestLedgerHelpers_NoStore(t *testing.T) {
	assert.Nil(t, startRun(context.Background(), nil, "run"))
	finishRun(context.Background(), nil, nil, model.RunSummary{}, nil)
}

func TestOpenStore_NoDriver(t *testing.T) {
	useConfig(t, "http://unused")
	st, err := openStore(context.Background())
	require.NoError(t, err)
	assert.Nil(t, st)
}

func TestInitCache(t *testing.T) {
	useConfig(t, "http://unused")

	b, err := initCache(nil)
	require.NoError(t, err)
	assert.IsType(t, &cache.FileBackend{}, b)

	cfg.Cache.Backend = "store"
	_, err = initCache(nil)
	assert.Error(t, err)

	cfg.Cache.Backend = "redis"
	_, err = initCache(nil)
	assert.Error(t, err)
}

func TestNewPalette_ReuseColors(t *testing.T) {
	useConfig(t, "http://unused")
	cfg.Output.ReuseColors = true

	// no colors file yet
	p, err := newPalette()
	require.NoError(t, err)
	assert.Zero(t, p.Len())

	require.NoError(t, os.MkdirAll(cfg.Output.Dir, 0o755))
	path := cfg.Output.Path(cfg.Output.ColorsFile)
	require.NoError(t, os.WriteFile(path, []byte("4,rgba(9, 9, 9, 0.40)\n"), 0o644))

	p, err = newPalette()
	require.NoError(t, err)
	assert.Equal(t, "rgba(9, 9, 9, 0.40)", p.Color("4"))
}

func TestRenderConfig(t *testing.T) {
	useConfig(t, "http://unused")
	rc, err := renderConfig()
	require.NoError(t, err)
	assert.Equal(t, cfg.Geocoder.ResultFile, rc.ResultFile)
	assert.Equal(t, cfg.Output.Path("doors.geojson"), rc.PointsPath)

	cfg.Output.ReportFormat = "pdf"
	_, err = renderConfig()
	assert.Error(t, err)
}
