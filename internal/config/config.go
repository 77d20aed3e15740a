// Package config defines the settings schema for the display and loads,
// validates, and persists it as YAML.
package config

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/RonishNadar/mta-train-updates/internal/transit"
)

// App holds process-wide settings.
type App struct {
	PollIntervalSec      int     `yaml:"poll_interval_sec" validate:"gt=0"`
	PrintLimit           int     `yaml:"print_limit" validate:"gt=0"`
	RunForSec            int     `yaml:"run_for_sec" validate:"gte=0"`
	HTTPTimeoutSec       int     `yaml:"http_timeout_sec" validate:"gt=0"`
	LeaveBufferMin       int     `yaml:"leave_buffer_min" validate:"gte=0"`
	TempUnit             string  `yaml:"temp_unit" validate:"oneof=C F"`
	FavoriteStationIndex int     `yaml:"favorite_station_index" validate:"gte=-1"`
	Lat                  float64 `yaml:"lat"`
	Lon                  float64 `yaml:"lon"`
	WeatherRefreshSec    int     `yaml:"weather_refresh_sec" validate:"gte=0"`
}

// Station is one monitored stop+direction pair. Immutable once loaded.
type Station struct {
	StopName       string `yaml:"stop_name" validate:"required"`
	GTFSStopID     string `yaml:"gtfs_stop_id" validate:"required"`
	Direction      string `yaml:"direction" validate:"oneof=N S"`
	DirectionLabel string `yaml:"direction_label"`
	Feed           string `yaml:"feed" validate:"required"`
	RunForSec      int    `yaml:"run_for_sec" validate:"gte=0"`
}

// Key returns the GTFS-Realtime stop_id for this station
// (gtfs_stop_id + direction, e.g. "N03" + "N" -> "N03N").
func (s Station) Key() string {
	return s.GTFSStopID + s.Direction
}

// Config is the root settings structure.
type Config struct {
	App      App       `yaml:"app"`
	Stations []Station `yaml:"stations" validate:"min=1,dive"`
}

// Durations derived from the integer-second fields.

func (a App) PollInterval() time.Duration { return time.Duration(a.PollIntervalSec) * time.Second }

func (a App) HTTPTimeout() time.Duration { return time.Duration(a.HTTPTimeoutSec) * time.Second }

func (a App) LeaveBuffer() time.Duration { return time.Duration(a.LeaveBufferMin) * time.Minute }

func (a App) RunFor() time.Duration { return time.Duration(a.RunForSec) * time.Second }
func (a App) WeatherRefresh() time.Duration {
	return time.Duration(a.WeatherRefreshSec) * time.Second
}

// StaleAfter is the snapshot age beyond which a station's data must not be
// presented as live (3x the poll interval).
func (a App) StaleAfter() time.Duration { return 3 * a.PollInterval() }

// Favorite returns the configured favorite station key, or "" when the index
// is unset or no longer references a station in the list.
func (c *Config) Favorite() string {
	i := c.App.FavoriteStationIndex
	if i < 0 || i >= len(c.Stations) {
		return ""
	}
	return c.Stations[i].Key()
}

// StationByKey returns the station with the given key, if present.
func (c *Config) StationByKey(key string) (Station, bool) {
	for _, st := range c.Stations {
		if st.Key() == key {
			return st, true
		}
	}
	return Station{}, false
}

func applyDefaults(cfg *Config) {
	if cfg.App.TempUnit == "" {
		cfg.App.TempUnit = "F"
	}
	if cfg.App.WeatherRefreshSec == 0 {
		cfg.App.WeatherRefreshSec = 600
	}
}

// Parse unmarshals and validates raw YAML settings.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse settings: %w", err)
	}
	applyDefaults(&cfg)

	v := validator.New()
	if err := v.Struct(cfg.App); err != nil {
		return nil, fmt.Errorf("validate app settings: %w", err)
	}
	if err := v.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("validate settings: %w", err)
	}
	for i, st := range cfg.Stations {
		if err := v.Struct(st); err != nil {
			return nil, fmt.Errorf("validate stations[%d]: %w", i, err)
		}
		if _, ok := transit.FeedURL(st.Feed); !ok {
			return nil, fmt.Errorf("stations[%d].feed %q is not a known feed (have %v)",
				i, st.Feed, transit.FeedNames())
		}
	}
	if i := cfg.App.FavoriteStationIndex; i >= len(cfg.Stations) {
		return nil, fmt.Errorf("favorite_station_index %d out of range (%d stations)", i, len(cfg.Stations))
	}
	return &cfg, nil
}

// Store loads and persists settings. The file path implementation is the
// normal one; tests substitute in-memory stores.
type Store interface {
	Load() (*Config, error)
	Save(*Config) error
}

// FileStore reads and writes a settings YAML file. Safe for concurrent use:
// the settings-page save path and the web editor both write through it.
type FileStore struct {
	Path string

	mu sync.Mutex
}

// Load reads and parses the settings file.
func (f *FileStore) Load() (*Config, error) {
	data, err := f.ReadRaw()
	if err != nil {
		return nil, fmt.Errorf("read settings: %w", err)
	}
	return Parse(data)
}

// Save validates and writes the settings file.
func (f *FileStore) Save(cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}
	if _, err := Parse(data); err != nil {
		return err
	}
	return f.WriteRaw(data)
}

// ReadRaw returns the settings file bytes unparsed (for the web editor).
func (f *FileStore) ReadRaw() ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return os.ReadFile(f.Path)
}

// WriteRaw writes pre-validated settings bytes.
func (f *FileStore) WriteRaw(data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := os.WriteFile(f.Path, data, 0o644); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}
	return nil
}
