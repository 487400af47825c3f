package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix is prepended to every environment variable read by Load.
const EnvPrefix = "BESTFOUR"

// Data sources accepted by Config.Source.
const (
	SourceTWSE  = "twse"
	SourceYahoo = "yahoo"
)

type Config struct {
	// DataDir holds the month cache and the refreshed code registry.
	DataDir string `json:"data_dir" envconfig:"DATA_DIR" validate:"required"`

	// Source selects where daily prices come from. "twse" routes 上市 codes to
	// TWSE and 上櫃 codes to TPEx.
	Source      string `json:"source" envconfig:"SOURCE" validate:"oneof=twse yahoo"`
	TWSEBaseURL string `json:"twse_base_url" envconfig:"TWSE_BASE_URL" validate:"required,url"`
	TPEXBaseURL string `json:"tpex_base_url" envconfig:"TPEX_BASE_URL" validate:"required,url"`
	ISINBaseURL string `json:"isin_base_url" envconfig:"ISIN_BASE_URL" validate:"required,url"`
	UserAgent   string `json:"user_agent" envconfig:"USER_AGENT"`

	HTTPTimeout     time.Duration `json:"http_timeout" envconfig:"HTTP_TIMEOUT" validate:"gt=0"`
	RequestInterval time.Duration `json:"request_interval" envconfig:"REQUEST_INTERVAL" validate:"gte=0"`
	FetchRetries    int           `json:"fetch_retries" envconfig:"FETCH_RETRIES" validate:"gte=0,lte=10"`

	CacheEnabled bool   `json:"cache_enabled" envconfig:"CACHE_ENABLED"`
	LogLevel     string `json:"log_level" envconfig:"LOG_LEVEL" validate:"oneof=debug info warn error"`
	Debug        bool   `json:"debug" envconfig:"DEBUG"`
}

// DefaultDataDir is bestfour under the user cache directory, or ./data when
// the platform has none.
func DefaultDataDir() string {
	if cacheDir, err := os.UserCacheDir(); err == nil && cacheDir != "" {
		return filepath.Join(cacheDir, "bestfour")
	}
	currentDir, _ := os.Getwd()
	return filepath.Join(currentDir, "data")
}

func DefaultConfig() *Config {
	return &Config{
		DataDir: DefaultDataDir(),

		Source:      SourceTWSE,
		TWSEBaseURL: "https://www.twse.com.tw",
		TPEXBaseURL: "https://www.tpex.org.tw",
		ISINBaseURL: "https://isin.twse.com.tw",
		UserAgent:   "Mozilla/5.0 (compatible; bestfour/1.0)",

		HTTPTimeout:     30 * time.Second,
		RequestInterval: 1500 * time.Millisecond,
		FetchRetries:    0,

		CacheEnabled: true,
		LogLevel:     "info",
		Debug:        false,
	}
}

// Load builds the effective configuration: defaults, then the JSON file at
// path (skipped when path is empty or missing), then .env and BESTFOUR_*
// environment variables.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if strings.TrimSpace(path) != "" {
		if err := loadConfigFromFile(path, cfg); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("load config %s: %w", path, err)
		}
	}

	_ = godotenv.Load()

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("read environment: %w", err)
	}
	if cfg.Debug {
		cfg.LogLevel = "debug"
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

var validate = validator.New()

func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// StorePath is the sqlite file holding fetched monthly prices.
func (c *Config) StorePath() string {
	return filepath.Join(c.DataDir, "prices.db")
}

// CodesPath is where `codes update` writes the refreshed registry.
func (c *Config) CodesPath() string {
	return filepath.Join(c.DataDir, "codes.csv")
}

// EnsureDirectories creates DataDir when it is missing.
func (c *Config) EnsureDirectories() error {
	path := strings.TrimSpace(c.DataDir)
	if path == "" {
		return nil
	}
	if err := os.MkdirAll(path, 0o755); err != nil {
		return fmt.Errorf("create directory %s: %w", path, err)
	}
	return nil
}
