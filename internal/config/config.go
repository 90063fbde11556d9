package config

import (
	"errors"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/sojunghan/territory-cli/internal/model"
	"github.com/sojunghan/territory-cli/internal/store"
)

// Config holds the full application configuration.
type Config struct {
	Store   StoreConfig   `yaml:"store" mapstructure:"store"`
	Claims  ClaimsConfig  `yaml:"claims" mapstructure:"claims"`
	Geocode GeocodeConfig `yaml:"geocode" mapstructure:"geocode"`
	Server  ServerConfig  `yaml:"server" mapstructure:"server"`
	Map     MapConfig     `yaml:"map" mapstructure:"map"`
	Log     LogConfig     `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the claim store backend.
type StoreConfig struct {
	Driver      string           `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string           `yaml:"database_url" mapstructure:"database_url"`
	Path        string           `yaml:"path" mapstructure:"path"`
	Pool        store.PoolConfig `yaml:"pool" mapstructure:"pool"`
}

// Options converts the section into store.Options.
func (c StoreConfig) Options() store.Options {
	pool := c.Pool
	return store.Options{
		Driver:      c.Driver,
		DatabaseURL: c.DatabaseURL,
		Path:        c.Path,
		Pool:        &pool,
	}
}

// ClaimsConfig holds the exclusion radius per claim kind, in meters.
type ClaimsConfig struct {
	PointRadiusM float64 `yaml:"point_radius_m" mapstructure:"point_radius_m"`
	AreaRadiusM  float64 `yaml:"area_radius_m" mapstructure:"area_radius_m"`
}

// Radii returns the configured radii.
func (c ClaimsConfig) Radii() model.Radii {
	return model.Radii{Point: c.PointRadiusM, Area: c.AreaRadiusM}
}

// GeocodeConfig configures the geocoding providers.
type GeocodeConfig struct {
	KakaoKey         string   `yaml:"kakao_key" mapstructure:"kakao_key"`
	NominatimURL     string   `yaml:"nominatim_url" mapstructure:"nominatim_url"`
	UserAgent        string   `yaml:"user_agent" mapstructure:"user_agent"`
	RatePerSec       float64  `yaml:"rate_per_sec" mapstructure:"rate_per_sec"`
	CacheTTLMins     int      `yaml:"cache_ttl_mins" mapstructure:"cache_ttl_mins"`
	Providers        []string `yaml:"providers" mapstructure:"providers"`
	BatchConcurrency int      `yaml:"batch_concurrency" mapstructure:"batch_concurrency"`
	RetryAttempts    int      `yaml:"retry_attempts" mapstructure:"retry_attempts"`
}

// CacheTTL returns the result cache lifetime. Zero disables caching.
func (c GeocodeConfig) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLMins) * time.Minute
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Port           int      `yaml:"port" mapstructure:"port"`
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
}

// MapConfig is the initial map view handed to clients.
type MapConfig struct {
	CenterLat float64 `yaml:"center_lat" mapstructure:"center_lat" json:"center_lat"`
	CenterLon float64 `yaml:"center_lon" mapstructure:"center_lon" json:"center_lon"`
	Zoom      int     `yaml:"zoom" mapstructure:"zoom" json:"zoom"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from .env, config.yaml and the environment.
func Load() (*Config, error) {
	// .env only seeds variables that are not already set.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, eris.Wrap(err, "config: read .env")
	}

	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("TERRITORY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	radii := model.DefaultRadii()

	// Defaults
	v.SetDefault("store.driver", store.DriverSQLite)
	v.SetDefault("store.path", "territory.db")
	v.SetDefault("store.database_url", "")
	v.SetDefault("store.pool.max_conns", 0)
	v.SetDefault("store.pool.min_conns", 0)
	v.SetDefault("claims.point_radius_m", radii.Point)
	v.SetDefault("claims.area_radius_m", radii.Area)
	v.SetDefault("geocode.kakao_key", "")
	v.SetDefault("geocode.nominatim_url", "https://nominatim.openstreetmap.org")
	v.SetDefault("geocode.user_agent", "sojunghan_bapsang_manager")
	v.SetDefault("geocode.rate_per_sec", 1.0)
	v.SetDefault("geocode.cache_ttl_mins", 60)
	v.SetDefault("geocode.providers", []string{"kakao", "nominatim"})
	v.SetDefault("geocode.batch_concurrency", 4)
	v.SetDefault("geocode.retry_attempts", 3)
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("map.center_lat", 35.1796)
	v.SetDefault("map.center_lon", 129.0756)
	v.SetDefault("map.zoom", 12)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// The original app read the Kakao key unprefixed.
	_ = v.BindEnv("geocode.kakao_key", "TERRITORY_GEOCODE_KAKAO_KEY", "KAKAO_API_KEY")

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

// Validate checks the configuration required by the given mode ("cli" or "serve").
func (c *Config) Validate(mode string) error {
	var errs []string

	switch c.Store.Driver {
	case store.DriverSQLite, store.DriverXLSX:
		if c.Store.Path == "" {
			errs = append(errs, "store.path is required for the "+c.Store.Driver+" driver")
		}
	case store.DriverPostgres:
		if c.Store.DatabaseURL == "" {
			errs = append(errs, "store.database_url is required for the postgres driver")
		}
	default:
		errs = append(errs, "store.driver must be one of sqlite, postgres, xlsx")
	}

	if c.Claims.PointRadiusM <= 0 || c.Claims.AreaRadiusM <= 0 {
		errs = append(errs, "claims radii must be > 0")
	}

	for _, p := range c.Geocode.Providers {
		if p != "kakao" && p != "nominatim" {
			errs = append(errs, "geocode.providers: unknown provider "+p)
		}
	}
	if c.Geocode.BatchConcurrency < 1 || c.Geocode.BatchConcurrency > 32 {
		errs = append(errs, "geocode.batch_concurrency must be between 1 and 32")
	}

	switch mode {
	case "cli":
	case "serve":
		if c.Server.Port <= 0 {
			errs = append(errs, "server.port must be > 0")
		}
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if len(errs) > 0 {
		return eris.Errorf("config: %s", strings.Join(errs, "; "))
	}
	return nil
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
