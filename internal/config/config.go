// Package config defines service configuration and how it is loaded.
package config

import (
	"fmt"
	"slices"
	"strings"
	"time"
	_ "time/tzdata" // timezone names resolve without system zoneinfo
)

// Record sources.
const (
	SourceAirtable = "airtable"
	SourceXLSX     = "xlsx"
	SourceFixture  = "fixture"
)

// Cache backends.
const (
	CacheNone   = "none"
	CacheMemory = "memory"
	CacheRedis  = "redis"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`
	// LogFormat is text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// Source selects the record source: airtable, xlsx or fixture.
	Source string `koanf:"source"`

	AirtableAPIKey   string `koanf:"airtable_api_key"`
	AirtableBaseID   string `koanf:"airtable_base_id"`
	AirtableTableID  string `koanf:"airtable_table_id"`
	AirtableBaseURL  string `koanf:"airtable_base_url"`
	AirtablePageSize int    `koanf:"airtable_page_size"`
	// AirtableDateField is the date column used in filter formulas.
	AirtableDateField string `koanf:"airtable_date_field"`

	// FetchTimeoutMS bounds one source request.
	FetchTimeoutMS int `koanf:"fetch_timeout_ms"`

	XLSXPath  string `koanf:"xlsx_path"`
	XLSXSheet string `koanf:"xlsx_sheet"`

	// SettingsDB is the SQLite file for benchmarks, roles and aliases.
	// Empty keeps settings in memory only.
	SettingsDB string `koanf:"settings_db"`

	// CacheBackend is none, memory or redis.
	CacheBackend  string `koanf:"cache_backend"`
	CacheTTLS     int    `koanf:"cache_ttl_s"`
	RedisAddr     string `koanf:"redis_addr"`
	RedisPassword string `koanf:"redis_password"`
	RedisDB       int    `koanf:"redis_db"`

	// RefreshIntervalS is the periodic refresh period; 0 disables it.
	RefreshIntervalS int `koanf:"refresh_interval_s"`
	// RefreshQueueSize bounds pending refresh jobs.
	RefreshQueueSize int `koanf:"refresh_queue_size"`

	// TopPerRole is how many members each role ranking keeps.
	TopPerRole int `koanf:"top_per_role"`

	// Timezone is the IANA zone used for "today" and preset windows.
	Timezone string `koanf:"timezone"`
}

// New returns a Config filled with defaults.
func New() *Config {
	return &Config{
		LogLevel:          "info",
		LogFormat:         "text",
		Addr:              ":9080",
		Source:            SourceFixture,
		AirtableBaseID:    "appEzxAgICoJK3bFa",
		AirtableTableID:   "tblHHCUcIFMR0p80Z",
		AirtableBaseURL:   "https://api.airtable.com/v0",
		AirtablePageSize:  100,
		AirtableDateField: "Date",
		FetchTimeoutMS:    15_000,
		SettingsDB:        "data/settings.db",
		CacheBackend:      CacheMemory,
		CacheTTLS:         60,
		RedisAddr:         "localhost:6379",
		RefreshIntervalS:  300,
		RefreshQueueSize:  8,
		TopPerRole:        3,
		Timezone:          "UTC",
	}
}

// FetchTimeout is FetchTimeoutMS as a duration.
func (c *Config) FetchTimeout() time.Duration {
	return time.Duration(c.FetchTimeoutMS) * time.Millisecond
}

// CacheTTL is CacheTTLS as a duration.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLS) * time.Second
}

// RefreshInterval is RefreshIntervalS as a duration.
func (c *Config) RefreshInterval() time.Duration {
	return time.Duration(c.RefreshIntervalS) * time.Second
}

// Location resolves Timezone.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("%w: timezone %q: %w", ErrInvalidConfig, c.Timezone, err)
	}
	return loc, nil
}

// Validate checks field values and cross-field requirements.
func (c *Config) Validate() error {
	var problems []string
	add := func(format string, args ...any) { problems = append(problems, fmt.Sprintf(format, args...)) }

	if c.Addr == "" {
		add("addr must not be empty")
	}
	if !slices.Contains([]string{"debug", "info", "warn", "warning", "error"}, strings.ToLower(c.LogLevel)) {
		add("log_level %q is not one of debug, info, warn, error", c.LogLevel)
	}
	if !slices.Contains([]string{"text", "json"}, strings.ToLower(c.LogFormat)) {
		add("log_format %q is not text or json", c.LogFormat)
	}

	switch c.Source {
	case SourceAirtable:
		if c.AirtableBaseID == "" || c.AirtableTableID == "" {
			add("airtable_base_id and airtable_table_id are required for the airtable source")
		}
		if c.AirtablePageSize < 1 || c.AirtablePageSize > 100 {
			add("airtable_page_size must be between 1 and 100")
		}
	case SourceXLSX:
		if c.XLSXPath == "" {
			add("xlsx_path is required for the xlsx source")
		}
	case SourceFixture:
	default:
		add("source %q is not one of airtable, xlsx, fixture", c.Source)
	}
	if c.FetchTimeoutMS <= 0 {
		add("fetch_timeout_ms must be positive")
	}

	switch c.CacheBackend {
	case CacheNone, "":
	case CacheMemory:
	case CacheRedis:
		if c.RedisAddr == "" {
			add("redis_addr is required for the redis cache")
		}
	default:
		add("cache_backend %q is not one of none, memory, redis", c.CacheBackend)
	}
	if c.CacheTTLS < 0 {
		add("cache_ttl_s must not be negative")
	}

	if c.RefreshIntervalS < 0 {
		add("refresh_interval_s must not be negative")
	}
	if c.RefreshQueueSize < 1 {
		add("refresh_queue_size must be at least 1")
	}
	if c.TopPerRole < 1 {
		add("top_per_role must be at least 1")
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		add("timezone %q is unknown", c.Timezone)
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(problems, "; "))
	}
	return nil
}
