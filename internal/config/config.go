package config

import (
	"log"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultTimezone = "Asia/Seoul"

	configPathEnv    = "ROBOPRESS_CONFIG"
	dataDirEnv       = "ROBOPRESS_DATA_DIR"
	listenAddrEnv    = "ROBOPRESS_LISTEN_ADDR"
	sessionIDEnv     = "ROBLOX_SESSION_ID"
	openAIAPIKeyEnv  = "OPENAI_API_KEY"
	openAIModelEnv   = "OPENAI_MODEL"
	openAIBaseURLEnv = "OPENAI_BASE_URL"
)

// Config holds high-level settings required across the application.
type Config struct {
	Logging    LoggingConfig   `yaml:"logging"`
	Server     ServerConfig    `yaml:"server"`
	Scheduler  SchedulerConfig `yaml:"scheduler"`
	Roblox     RobloxConfig    `yaml:"roblox"`
	OpenAI     OpenAIConfig    `yaml:"openai"`
	Storage    StorageConfig   `yaml:"storage"`
	Thumbnails ThumbnailConfig `yaml:"thumbnails"`
}

// LoggingConfig controls slog level and output encoding.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// ServerConfig describes the frontend-facing HTTP listener.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// SchedulerConfig defines when the weekly edition is generated.
type SchedulerConfig struct {
	Weekday  string         `yaml:"weekday"`
	Hour     int            `yaml:"hour"`
	Minute   int            `yaml:"minute"`
	Timezone string         `yaml:"timezone"`
	location *time.Location `yaml:"-"`
}

// Location resolves the scheduler timezone string to a time.Location.
func (s SchedulerConfig) Location() *time.Location {
	if s.location != nil {
		return s.location
	}
	loc, _ := time.LoadLocation(defaultTimezone)
	return loc
}

// WeekdayValue maps the configured weekday name to time.Weekday.
func (s SchedulerConfig) WeekdayValue() time.Weekday {
	switch s.Weekday {
	case "Sunday":
		return time.Sunday
	case "Tuesday":
		return time.Tuesday
	case "Wednesday":
		return time.Wednesday
	case "Thursday":
		return time.Thursday
	case "Friday":
		return time.Friday
	case "Saturday":
		return time.Saturday
	default:
		return time.Monday
	}
}

// RobloxConfig wires the platform API client.
type RobloxConfig struct {
	APIsBaseURL       string `yaml:"apisBaseUrl"`
	GamesBaseURL      string `yaml:"gamesBaseUrl"`
	ThumbnailsBaseURL string `yaml:"thumbnailsBaseUrl"`
	SessionID         string `yaml:"sessionId"`
	RequestsPerSecond int    `yaml:"requestsPerSecond"`
	MaxSortsTried     int    `yaml:"maxSortsTried"`
	BatchLimit        int    `yaml:"batchLimit"`
	FavConcurrency    int    `yaml:"favConcurrency"`
}

// OpenAIConfig defines how to contact the text-generation API.
type OpenAIConfig struct {
	APIKey            string `yaml:"apiKey"`
	Model             string `yaml:"model"`
	BaseURL           string `yaml:"baseUrl"`
	DescriptionBudget int    `yaml:"descriptionBudget"`
}

// StorageConfig holds the snapshot directory and run-history database path.
type StorageConfig struct {
	DataDir     string `yaml:"dataDir"`
	HistoryPath string `yaml:"historyPath"`
}

// ThumbnailConfig bounds the in-memory thumbnail proxy cache.
type ThumbnailConfig struct {
	TTLMinutes int `yaml:"ttlMinutes"`
	Capacity   int `yaml:"capacity"`
}

// Load reads YAML configuration (if present) and applies environment overrides.
func Load() Config {
	cfg := defaultConfig()

	if path := os.Getenv(configPathEnv); path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
		} else {
			var fileCfg Config
			if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
				log.Printf("config: cannot parse %s: %v (falling back to defaults)", path, err)
			} else {
				cfg = mergeConfig(cfg, fileCfg)
			}
		}
	}

	cfg.applyEnvOverrides()
	cfg.bindTimezone()

	return cfg
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(dataDirEnv); v != "" {
		c.Storage.DataDir = v
	}

	if v := os.Getenv(listenAddrEnv); v != "" {
		c.Server.Addr = v
	}

	if v := os.Getenv(sessionIDEnv); v != "" {
		c.Roblox.SessionID = v
	}

	if v := os.Getenv(openAIAPIKeyEnv); v != "" {
		c.OpenAI.APIKey = v
	}

	if v := os.Getenv(openAIModelEnv); v != "" {
		c.OpenAI.Model = v
	}

	if v := os.Getenv(openAIBaseURLEnv); v != "" {
		c.OpenAI.BaseURL = v
	}
}

func (c *Config) bindTimezone() {
	tz := c.Scheduler.Timezone
	if tz == "" {
		tz = defaultTimezone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		log.Printf("config: unknown timezone %s, reverting to %s", tz, defaultTimezone)
		loc, _ = time.LoadLocation(defaultTimezone)
	}
	c.Scheduler.location = loc
}

func mergeConfig(base, override Config) Config {
	if override.Logging.Level != "" {
		base.Logging.Level = override.Logging.Level
	}
	if override.Logging.Format != "" {
		base.Logging.Format = override.Logging.Format
	}

	if override.Server.Addr != "" {
		base.Server.Addr = override.Server.Addr
	}

	if override.Scheduler.Weekday != "" {
		base.Scheduler.Weekday = override.Scheduler.Weekday
	}
	if override.Scheduler.Hour != 0 {
		base.Scheduler.Hour = override.Scheduler.Hour
	}
	if override.Scheduler.Minute != 0 {
		base.Scheduler.Minute = override.Scheduler.Minute
	}
	if override.Scheduler.Timezone != "" {
		base.Scheduler.Timezone = override.Scheduler.Timezone
	}

	if override.Roblox.APIsBaseURL != "" {
		base.Roblox.APIsBaseURL = override.Roblox.APIsBaseURL
	}
	if override.Roblox.GamesBaseURL != "" {
		base.Roblox.GamesBaseURL = override.Roblox.GamesBaseURL
	}
	if override.Roblox.ThumbnailsBaseURL != "" {
		base.Roblox.ThumbnailsBaseURL = override.Roblox.ThumbnailsBaseURL
	}
	if override.Roblox.SessionID != "" {
		base.Roblox.SessionID = override.Roblox.SessionID
	}
	if override.Roblox.RequestsPerSecond != 0 {
		base.Roblox.RequestsPerSecond = override.Roblox.RequestsPerSecond
	}
	if override.Roblox.MaxSortsTried != 0 {
		base.Roblox.MaxSortsTried = override.Roblox.MaxSortsTried
	}
	if override.Roblox.BatchLimit != 0 {
		base.Roblox.BatchLimit = override.Roblox.BatchLimit
	}
	if override.Roblox.FavConcurrency != 0 {
		base.Roblox.FavConcurrency = override.Roblox.FavConcurrency
	}

	if override.OpenAI.APIKey != "" {
		base.OpenAI.APIKey = override.OpenAI.APIKey
	}
	if override.OpenAI.Model != "" {
		base.OpenAI.Model = override.OpenAI.Model
	}
	if override.OpenAI.BaseURL != "" {
		base.OpenAI.BaseURL = override.OpenAI.BaseURL
	}
	if override.OpenAI.DescriptionBudget != 0 {
		base.OpenAI.DescriptionBudget = override.OpenAI.DescriptionBudget
	}

	if override.Storage.DataDir != "" {
		base.Storage.DataDir = override.Storage.DataDir
	}
	if override.Storage.HistoryPath != "" {
		base.Storage.HistoryPath = override.Storage.HistoryPath
	}

	if override.Thumbnails.TTLMinutes != 0 {
		base.Thumbnails.TTLMinutes = override.Thumbnails.TTLMinutes
	}
	if override.Thumbnails.Capacity != 0 {
		base.Thumbnails.Capacity = override.Thumbnails.Capacity
	}

	return base
}

func defaultConfig() Config {
	tz, _ := time.LoadLocation(defaultTimezone)
	return Config{
		Logging: LoggingConfig{Level: "info", Format: "text"},
		Server:  ServerConfig{Addr: ":8080"},
		Scheduler: SchedulerConfig{
			Weekday:  "Monday",
			Hour:     0,
			Minute:   5,
			Timezone: defaultTimezone,
			location: tz,
		},
		Roblox: RobloxConfig{
			APIsBaseURL:       "https://apis.roblox.com",
			GamesBaseURL:      "https://games.roblox.com",
			ThumbnailsBaseURL: "https://thumbnails.roblox.com",
			RequestsPerSecond: 5,
			MaxSortsTried:     30,
			BatchLimit:        25,
			FavConcurrency:    4,
		},
		OpenAI: OpenAIConfig{
			Model:             "gpt-4o-mini",
			DescriptionBudget: 600,
		},
		Storage: StorageConfig{
			DataDir:     "./data/snapshots",
			HistoryPath: "./data/runs.db",
		},
		Thumbnails: ThumbnailConfig{TTLMinutes: 30, Capacity: 256},
	}
}
