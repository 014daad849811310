package config

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the complete application configuration.
type Config struct {
	Server    ServerConfig   `yaml:"server" json:"server"`
	Database  DatabaseConfig `yaml:"database" json:"database"`
	Scanner   ScannerConfig  `yaml:"scanner" json:"scanner"`
	Playlists PlaylistConfig `yaml:"playlists" json:"playlists"`
	Logging   LoggingConfig  `yaml:"logging" json:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host         string        `yaml:"host" json:"host" env:"AIRSONIC_HOST" default:"0.0.0.0"`
	Port         int           `yaml:"port" json:"port" env:"AIRSONIC_PORT" default:"4040"`
	ReadTimeout  time.Duration `yaml:"read_timeout" json:"read_timeout" env:"AIRSONIC_READ_TIMEOUT" default:"30s"`
	WriteTimeout time.Duration `yaml:"write_timeout" json:"write_timeout" env:"AIRSONIC_WRITE_TIMEOUT" default:"30s"`
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	Type       string `yaml:"type" json:"type" env:"DATABASE_TYPE" default:"sqlite"`
	Path       string `yaml:"path" json:"path" env:"AIRSONIC_DATABASE_PATH" default:"data/airsonic.db"`
	Host       string `yaml:"host" json:"host" env:"POSTGRES_HOST" default:"localhost"`
	Port       int    `yaml:"port" json:"port" env:"POSTGRES_PORT" default:"5432"`
	Username   string `yaml:"username" json:"username" env:"POSTGRES_USER" default:"airsonic"`
	Password   string `yaml:"password" json:"password" env:"POSTGRES_PASSWORD"`
	Database   string `yaml:"database" json:"database" env:"POSTGRES_DB" default:"airsonic"`
	LogQueries bool   `yaml:"log_queries" json:"log_queries" env:"DB_LOG_QUERIES" default:"false"`
}

// ScannerConfig holds library scan settings.
type ScannerConfig struct {
	Parallelism        int    `yaml:"parallelism" json:"parallelism" env:"AIRSONIC_SCAN_PARALLELISM" default:"0"` // 0 = NumCPU
	FullScan           bool   `yaml:"full_scan" json:"full_scan" env:"AIRSONIC_FULL_SCAN" default:"false"`
	TimeoutSeconds     int    `yaml:"timeout_seconds" json:"timeout_seconds" env:"AIRSONIC_SCAN_TIMEOUT" default:"3600"`
	FullTimeoutSeconds int    `yaml:"full_timeout_seconds" json:"full_timeout_seconds" env:"AIRSONIC_SCAN_FULL_TIMEOUT" default:"14400"`
	GenreSeparators    string `yaml:"genre_separators" json:"genre_separators" env:"AIRSONIC_GENRE_SEPARATORS" default:";"`
	CueIndexing        bool   `yaml:"cue_indexing" json:"cue_indexing" env:"AIRSONIC_CUE_INDEXING" default:"true"`
	AutoScan           bool   `yaml:"auto_scan" json:"auto_scan" env:"AIRSONIC_AUTO_SCAN" default:"false"`
	Schedule           string `yaml:"schedule" json:"schedule" env:"AIRSONIC_SCAN_SCHEDULE"` // cron spec, empty disables

	// Throttling kicks in when host load crosses these ceilings; 0 disables.
	MaxCPUPercent    float64 `yaml:"max_cpu_percent" json:"max_cpu_percent" env:"AIRSONIC_SCAN_MAX_CPU" default:"85"`
	MaxMemoryPercent float64 `yaml:"max_memory_percent" json:"max_memory_percent" env:"AIRSONIC_SCAN_MAX_MEMORY" default:"90"`
}

// PlaylistConfig holds playlist import settings.
type PlaylistConfig struct {
	Folder string `yaml:"folder" json:"folder" env:"AIRSONIC_PLAYLIST_FOLDER" default:"data/playlists"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level" json:"level" env:"AIRSONIC_LOG_LEVEL" default:"info"`
}

// Load reads configuration from an optional YAML file, then applies
// environment variable overrides and struct-tag defaults.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	applyDefaults(reflect.ValueOf(cfg).Elem())

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		} else if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	applyEnv(reflect.ValueOf(cfg).Elem())
	return cfg, nil
}

func applyDefaults(v reflect.Value) {
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		field := v.Field(i)
		if field.Kind() == reflect.Struct && field.Type() != reflect.TypeOf(time.Duration(0)) {
			applyDefaults(field)
			continue
		}
		def, ok := t.Field(i).Tag.Lookup("default")
		if !ok || !field.IsZero() {
			continue
		}
		setField(field, def)
	}
}

func applyEnv(v reflect.Value) {
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		field := v.Field(i)
		if field.Kind() == reflect.Struct && field.Type() != reflect.TypeOf(time.Duration(0)) {
			applyEnv(field)
			continue
		}
		key, ok := t.Field(i).Tag.Lookup("env")
		if !ok {
			continue
		}
		if val, ok := os.LookupEnv(key); ok && val != "" {
			setField(field, val)
		}
	}
}

func setField(field reflect.Value, raw string) {
	switch field.Kind() {
	case reflect.String:
		field.SetString(raw)
	case reflect.Bool:
		if b, err := strconv.ParseBool(strings.TrimSpace(raw)); err == nil {
			field.SetBool(b)
		}
	case reflect.Int, reflect.Int64:
		if field.Type() == reflect.TypeOf(time.Duration(0)) {
			if d, err := time.ParseDuration(raw); err == nil {
				field.SetInt(int64(d))
			}
			return
		}
		if n, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64); err == nil {
			field.SetInt(n)
		}
	case reflect.Float64:
		if f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64); err == nil {
			field.SetFloat(f)
		}
	}
}

// Timeout returns the effective scan timeout given the full-scan flag.
func (c ScannerConfig) Timeout() time.Duration {
	if c.FullScan {
		return time.Duration(c.FullTimeoutSeconds) * time.Second
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}
