package config

import (
	_ "embed"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

type Config struct {
	Compare CompareConfig `yaml:"compare"`
	Search  SearchConfig  `yaml:"search"`
	Web     WebConfig     `yaml:"web"`
	Log     LogConfig     `yaml:"log"`
}

type CompareConfig struct {
	Concurrency    int   `yaml:"concurrency"`      // candidates compared at once (default 6)
	FetchTimeoutMs int   `yaml:"fetch_timeout_ms"` // per image fetch (default 15000)
	FetchRetries   int   `yaml:"fetch_retries"`    // extra attempts on network errors and 5xx (default 0)
	FetchMaxBytes  int64 `yaml:"fetch_max_bytes"`  // largest accepted image body
	BatchTimeoutMs int   `yaml:"batch_timeout_ms"` // whole-batch deadline, 0 means none
}

// FetchTimeout returns the per-fetch timeout.
func (c CompareConfig) FetchTimeout() time.Duration {
	return time.Duration(c.FetchTimeoutMs) * time.Millisecond
}

// BatchTimeout returns the batch deadline, zero when disabled.
func (c CompareConfig) BatchTimeout() time.Duration {
	return time.Duration(c.BatchTimeoutMs) * time.Millisecond
}

type SearchConfig struct {
	APIKey   string `yaml:"-"`
	Endpoint string `yaml:"endpoint"`
	TLD      string `yaml:"tld"`
	MaxPages int    `yaml:"max_pages"`
}

type WebConfig struct {
	Host           string   `yaml:"host"`
	Port           int      `yaml:"port"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // text or json
}

// envInt reads an environment variable and parses it as a positive integer.
// Returns the default value if the env var is unset, empty, or invalid.
func envInt(key string, defaultVal int) int {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return n
	}
	return defaultVal
}

// envNonNegative is envInt that also accepts zero.
func envNonNegative(key string, defaultVal int) int {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if n, err := strconv.Atoi(s); err == nil && n >= 0 {
		return n
	}
	return defaultVal
}

func envString(key, defaultVal string) string {
	if s := strings.TrimSpace(os.Getenv(key)); s != "" {
		return s
	}
	return defaultVal
}

// envList reads a comma-separated environment variable.
func envList(key string, defaultVal []string) []string {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	var out []string
	for item := range strings.SplitSeq(s, ",") {
		item = strings.TrimSpace(item)
		if item != "" {
			out = append(out, item)
		}
	}
	return out
}

// Defaults returns the configuration embedded in defaults.yaml.
func Defaults() *Config {
	var cfg Config
	if err := yaml.Unmarshal(defaultsYAML, &cfg); err != nil {
		// This is an embedded file so this error should never happen in practice
		panic("failed to unmarshal embedded defaults.yaml: " + err.Error())
	}
	return &cfg
}

// Load returns the defaults overridden by environment variables.
func Load() *Config {
	cfg := Defaults()

	cfg.Compare = CompareConfig{
		Concurrency:    envInt("IMAGE_FETCH_CONCURRENCY", cfg.Compare.Concurrency),
		FetchTimeoutMs: envInt("IMAGE_FETCH_TIMEOUT_MS", cfg.Compare.FetchTimeoutMs),
		FetchRetries:   envNonNegative("IMAGE_FETCH_RETRIES", cfg.Compare.FetchRetries),
		FetchMaxBytes:  int64(envInt("IMAGE_FETCH_MAX_BYTES", int(cfg.Compare.FetchMaxBytes))),
		BatchTimeoutMs: envNonNegative("COMPARE_BATCH_TIMEOUT_MS", cfg.Compare.BatchTimeoutMs),
	}
	cfg.Search = SearchConfig{
		APIKey:   os.Getenv("SCRAPERAPI_KEY"),
		Endpoint: envString("SCRAPERAPI_URL", cfg.Search.Endpoint),
		TLD:      envString("SEARCH_TLD", cfg.Search.TLD),
		MaxPages: envInt("SEARCH_MAX_PAGES", cfg.Search.MaxPages),
	}
	cfg.Web = WebConfig{
		Host:           envString("WEB_HOST", cfg.Web.Host),
		Port:           envInt("WEB_PORT", cfg.Web.Port),
		AllowedOrigins: envList("WEB_ALLOWED_ORIGINS", cfg.Web.AllowedOrigins),
	}
	cfg.Log = LogConfig{
		Level:  envString("LOG_LEVEL", cfg.Log.Level),
		Format: envString("LOG_FORMAT", cfg.Log.Format),
	}

	return cfg
}
