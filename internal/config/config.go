package config

import (
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/sells-group/doormap/internal/model"
)

// Config holds the full application configuration.
type Config struct {
	Registry RegistryConfig `yaml:"registry" mapstructure:"registry"`
	Fetch    FetchConfig    `yaml:"fetch" mapstructure:"fetch"`
	Geocoder GeocoderConfig `yaml:"geocoder" mapstructure:"geocoder"`
	Region   RegionConfig   `yaml:"region" mapstructure:"region"`
	Cache    CacheConfig    `yaml:"cache" mapstructure:"cache"`
	Store    StoreConfig    `yaml:"store" mapstructure:"store"`
	Output   OutputConfig   `yaml:"output" mapstructure:"output"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
}

// RegistryConfig points at the municipal address registry.
type RegistryConfig struct {
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// FetchConfig tunes the shared HTTP client.
type FetchConfig struct {
	UserAgent   string  `yaml:"user_agent" mapstructure:"user_agent"`
	TimeoutSecs int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	MaxRetries  int     `yaml:"max_retries" mapstructure:"max_retries"`
	RateLimit   float64 `yaml:"rate_limit" mapstructure:"rate_limit"`
}

// GeocoderConfig holds batch geocoder credentials and file locations.
type GeocoderConfig struct {
	URL        string `yaml:"url" mapstructure:"url"`
	AppID      string `yaml:"app_id" mapstructure:"app_id"`
	AppCode    string `yaml:"app_code" mapstructure:"app_code"`
	MailTo     string `yaml:"mailto" mapstructure:"mailto"`
	BodyFile   string `yaml:"body_file" mapstructure:"body_file"`
	ResultFile string `yaml:"result_file" mapstructure:"result_file"`
}

// RegionConfig describes the municipality being mapped.
type RegionConfig struct {
	District string            `yaml:"district" mapstructure:"district"`
	City     string            `yaml:"city" mapstructure:"city"`
	Country  string            `yaml:"country" mapstructure:"country"`
	BBox     model.BoundingBox `yaml:"bbox" mapstructure:"bbox"`
}

// CacheConfig selects where stage results are memoized.
type CacheConfig struct {
	Backend string `yaml:"backend" mapstructure:"backend"` // "file" or "store"
	Dir     string `yaml:"dir" mapstructure:"dir"`
}

// StoreConfig configures the database backend. An empty driver disables the
// run ledger.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// OutputConfig names the rendered files.
type OutputConfig struct {
	Dir          string  `yaml:"dir" mapstructure:"dir"`
	ColorsFile   string  `yaml:"colors_file" mapstructure:"colors_file"`
	PointsFile   string  `yaml:"points_file" mapstructure:"points_file"`
	CoverageFile string  `yaml:"coverage_file" mapstructure:"coverage_file"`
	ReportFile   string  `yaml:"report_file" mapstructure:"report_file"`
	ReportFormat string  `yaml:"report_format" mapstructure:"report_format"`
	ReuseColors  bool    `yaml:"reuse_colors" mapstructure:"reuse_colors"`
	Opacity      float64 `yaml:"opacity" mapstructure:"opacity"`
	ColorSeed    uint64  `yaml:"color_seed" mapstructure:"color_seed"`
}

// Path joins name onto the output directory.
func (o OutputConfig) Path(name string) string {
	return filepath.Join(o.Dir, name)
}

// ReportPath is the report file with the extension of the report format.
func (o OutputConfig) ReportPath() string {
	format := strings.ToLower(o.ReportFormat)
	if format == "" {
		format = "csv"
	}
	return o.Path(o.ReportFile + "." + format)
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment. Variables in a .env
// file in the working directory are exported first; real environment
// variables win over them.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("DOORMAP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults. Every key needs one so environment overrides reach Unmarshal.
	v.SetDefault("registry.base_url", "http://www.beylikduzuhazir.com/Home")
	v.SetDefault("fetch.user_agent", "doormap/1.0")
	v.SetDefault("fetch.timeout_secs", 30)
	v.SetDefault("fetch.max_retries", 1)
	v.SetDefault("fetch.rate_limit", 5.0)
	v.SetDefault("geocoder.url", "https://batch.geocoder.api.here.com/6.2/jobs")
	v.SetDefault("geocoder.app_id", "")
	v.SetDefault("geocoder.app_code", "")
	v.SetDefault("geocoder.mailto", "")
	v.SetDefault("geocoder.body_file", "post_data.txt")
	v.SetDefault("geocoder.result_file", "geocoder_result_out.txt")
	v.SetDefault("region.district", "Beylikdüzü")
	v.SetDefault("region.city", "Istanbul")
	v.SetDefault("region.country", "TUR")
	v.SetDefault("region.bbox.min_lat", 40.955247)
	v.SetDefault("region.bbox.max_lat", 41.031174)
	v.SetDefault("region.bbox.min_lon", 28.591098)
	v.SetDefault("region.bbox.max_lon", 28.700961)
	v.SetDefault("cache.backend", "file")
	v.SetDefault("cache.dir", "data")
	v.SetDefault("store.driver", "")
	v.SetDefault("store.database_url", "")
	v.SetDefault("output.dir", "out")
	v.SetDefault("output.colors_file", "area_colors.txt")
	v.SetDefault("output.points_file", "geocoded_doors.geojson")
	v.SetDefault("output.coverage_file", "meeting_areas.geojson")
	v.SetDefault("output.report_file", "correctly_geocoded_doors")
	v.SetDefault("output.report_format", "csv")
	v.SetDefault("output.reuse_colors", false)
	v.SetDefault("output.opacity", 0.4)
	v.SetDefault("output.color_seed", 0)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks the fields a mode needs and reports every problem at once.
// Modes: "scrape", "submit", "render" and "store".
func (c *Config) Validate(mode string) error {
	var errs []string
	switch mode {
	case "scrape":
		if c.Registry.BaseURL == "" {
			errs = append(errs, "registry.base_url is required")
		}
		errs = append(errs, c.cacheErrors()...)
	case "submit":
		if c.Geocoder.URL == "" {
			errs = append(errs, "geocoder.url is required")
		}
		if c.Geocoder.AppID == "" {
			errs = append(errs, "geocoder.app_id is required")
		}
		if c.Geocoder.AppCode == "" {
			errs = append(errs, "geocoder.app_code is required")
		}
	case "render":
		if c.Geocoder.ResultFile == "" {
			errs = append(errs, "geocoder.result_file is required")
		}
		b := c.Region.BBox
		if b.MinLat > b.MaxLat || b.MinLon > b.MaxLon {
			errs = append(errs, "region.bbox minimums must not exceed maximums")
		}
		switch strings.ToLower(c.Output.ReportFormat) {
		case "csv", "xlsx":
		default:
			errs = append(errs, "output.report_format must be csv or xlsx")
		}
		errs = append(errs, c.cacheErrors()...)
	case "store":
		errs = append(errs, c.storeErrors()...)
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if len(errs) > 0 {
		return eris.Errorf("config: %s", strings.Join(errs, "; "))
	}
	return nil
}

func (c *Config) cacheErrors() []string {
	switch c.Cache.Backend {
	case "file":
		if c.Cache.Dir == "" {
			return []string{"cache.dir is required for the file backend"}
		}
		return nil
	case "store":
		return c.storeErrors()
	default:
		return []string{"cache.backend must be file or store"}
	}
}

func (c *Config) storeErrors() []string {
	var errs []string
	switch c.Store.Driver {
	case "sqlite", "postgres":
	case "":
		errs = append(errs, "store.driver is required")
	default:
		errs = append(errs, "store.driver must be sqlite or postgres")
	}
	if c.Store.DatabaseURL == "" {
		errs = append(errs, "store.database_url is required")
	}
	return errs
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
