// Package config provides configuration loading for the eventsel command.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cyp0633/libeventcal/recurrence"
	"github.com/cyp0633/libeventcal/storage"
	"github.com/cyp0633/libeventcal/timerange"
	"github.com/go-playground/validator/v10"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Config is the root configuration structure.
type Config struct {
	Source   SourceConfig `yaml:"source"`
	Query    string       `yaml:"query"`
	Range    string       `yaml:"range,omitempty" validate:"omitempty,oneof=date week month year upcoming all"` // window around now, replaces the query's
	Location string       `yaml:"location" validate:"omitempty,timezone"`                                       // IANA zone; empty means UTC+1
	Locale   string       `yaml:"locale" validate:"required,bcp47_language_tag"`                                // tag used for facet titles
	Engine   string       `yaml:"engine" validate:"oneof=default high_performance low_memory disabled_cache"`
	LogLevel string       `yaml:"log_level" validate:"required"`
	Output   OutputConfig `yaml:"output"`
	Schema   SchemaConfig `yaml:"schema"`
}

// SourceConfig selects where events are loaded from. Exactly one of
// Manifest and ICS is used; Manifest wins when both are set.
type SourceConfig struct {
	Manifest string `yaml:"manifest,omitempty"`
	ICS      string `yaml:"ics,omitempty"`
	// Folder is the repository folder ICS events are stored below.
	Folder string `yaml:"folder" validate:"required,startswith=/"`
}

// OutputConfig configures how results are printed.
type OutputConfig struct {
	Format string `yaml:"format" validate:"oneof=text ics"`
	// Facets prints the category histogram below this root when set.
	Facets string `yaml:"facets,omitempty"`
	// TopCategories prints the assigned categories grouped under these roots.
	TopCategories []string `yaml:"top_categories,omitempty"`
	// UndatedFolders and ExcludedFolders flag repository folders whose
	// events are listed apart or left out.
	UndatedFolders  []string `yaml:"undated_folders,omitempty" validate:"dive,startswith=/"`
	ExcludedFolders []string `yaml:"excluded_folders,omitempty" validate:"dive,startswith=/"`
}

// SchemaConfig overrides the property names events are read from.
type SchemaConfig struct {
	ResourceType string `yaml:"resource_type,omitempty"`
	TimeStart    string `yaml:"time_start,omitempty"`
	TimeEnd      string `yaml:"time_end,omitempty"`
	Categories   string `yaml:"categories,omitempty"`
	Display      string `yaml:"display,omitempty"`
	Recurrence   string `yaml:"recurrence,omitempty"`
	Title        string `yaml:"title,omitempty"`
	Description  string `yaml:"description,omitempty"`
}

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// LoadFrom reads configuration from a specific path.
func LoadFrom(path string) (*Config, error) {
	path = expandPath(path)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	cfg.applyDefaults()

	// Expand paths
	cfg.Source.Manifest = expandPath(cfg.Source.Manifest)
	cfg.Source.ICS = expandPath(cfg.Source.ICS)

	return &cfg, nil
}

// applyDefaults sets default values for unspecified config options.
func (c *Config) applyDefaults() {
	if c.Source.Folder == "" {
		c.Source.Folder = "/events/"
	}
	if c.Schema.ResourceType == "" {
		c.Schema.ResourceType = storage.DefaultSchema().ResourceType
	}
	if c.Locale == "" {
		c.Locale = "en"
	}
	if c.Engine == "" {
		c.Engine = "default"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.Output.Format == "" {
		c.Output.Format = "text"
	}
}

// QueryString returns Query, or a query selecting every event below the
// source folder when Query is empty.
func (c *Config) QueryString() string {
	if c.Query != "" {
		return c.Query
	}
	return "resource=" + c.Source.Folder + "|resourceType=" + c.Schema.ResourceType
}

// Validate checks the fields that cannot be defaulted.
func (c *Config) Validate() error {
	var errs []error
	if err := validate.Struct(c); err != nil {
		errs = append(errs, fmt.Errorf("validate config: %w", err))
	}
	if _, err := c.SlogLevel(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// TimeLocation resolves Location. An empty name yields timerange.DefaultZone.
func (c *Config) TimeLocation() (*time.Location, error) {
	if c.Location == "" {
		return timerange.DefaultZone, nil
	}
	loc, err := time.LoadLocation(c.Location)
	if err != nil {
		return nil, fmt.Errorf("load location: %w", err)
	}
	return loc, nil
}

// LanguageTag parses Locale.
func (c *Config) LanguageTag() (language.Tag, error) {
	tag, err := language.Parse(c.Locale)
	if err != nil {
		return language.Und, fmt.Errorf("parse locale: %w", err)
	}
	return tag, nil
}

// EngineConfig maps Engine to a recurrence preset.
func (c *Config) EngineConfig() (recurrence.EngineConfig, error) {
	switch c.Engine {
	case "default":
		return recurrence.DefaultEngineConfig, nil
	case "high_performance":
		return recurrence.HighPerformanceConfig, nil
	case "low_memory":
		return recurrence.LowMemoryConfig, nil
	case "disabled_cache":
		return recurrence.DisabledCacheConfig, nil
	}
	return recurrence.EngineConfig{}, fmt.Errorf("unknown engine preset %q", c.Engine)
}

// SlogLevel parses LogLevel.
func (c *Config) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo, fmt.Errorf("parse log level: %w", err)
	}
	return level, nil
}

// RangeKind maps Range to a time range kind. ok is false when Range is empty.
func (c *Config) RangeKind() (kind timerange.Kind, ok bool) {
	switch c.Range {
	case "date":
		return timerange.Date, true
	case "week":
		return timerange.Week, true
	case "month":
		return timerange.Month, true
	case "year":
		return timerange.Year, true
	case "upcoming":
		return timerange.UpcomingAndInProgress, true
	case "all":
		return timerange.CatchAll, true
	}
	return timerange.Unspecified, false
}

// StorageSchema returns the event schema, empty fields taking the defaults.
func (c *Config) StorageSchema() storage.Schema {
	return storage.Schema{
		ResourceType:       c.Schema.ResourceType,
		PropertyTimeStart:  c.Schema.TimeStart,
		PropertyTimeEnd:    c.Schema.TimeEnd,
		PropertyCategories: c.Schema.Categories,
		PropertyDisplay:    c.Schema.Display,
		PropertyRecurrence: c.Schema.Recurrence,
		PropertyTitle:      c.Schema.Title,
		PropertyDesc:       c.Schema.Description,
	}.WithDefaults()
}

// expandPath expands ~ to the user's home directory.
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}
