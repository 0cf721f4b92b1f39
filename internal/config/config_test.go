package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/cyp0633/libeventcal/recurrence"
	"github.com/cyp0633/libeventcal/timerange"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadFrom(t *testing.T) {
	path := writeConfig(t, `
source:
  manifest: export/manifest.xml
query: "resource=/events/|resourceType=np_event|categories=topics/ice/"
location: UTC
locale: nb
engine: low_memory
log_level: debug
output:
  format: ics
  facets: topics/
schema:
  time_start: start
  title: heading
`)

	cfg, err := LoadFrom(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "export/manifest.xml", cfg.Source.Manifest)
	assert.Equal(t, "/events/", cfg.Source.Folder)
	assert.Equal(t, "resource=/events/|resourceType=np_event|categories=topics/ice/", cfg.Query)
	assert.Equal(t, "ics", cfg.Output.Format)
	assert.Equal(t, "topics/", cfg.Output.Facets)

	loc, err := cfg.TimeLocation()
	require.NoError(t, err)
	assert.Equal(t, "UTC", loc.String())

	tag, err := cfg.LanguageTag()
	require.NoError(t, err)
	assert.Equal(t, language.MustParse("nb"), tag)

	engine, err := cfg.EngineConfig()
	require.NoError(t, err)
	assert.Equal(t, recurrence.LowMemoryConfig.CacheConfig, engine.CacheConfig)

	level, err := cfg.SlogLevel()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, level)

	schema := cfg.StorageSchema()
	assert.Equal(t, "start", schema.PropertyTimeStart)
	assert.Equal(t, "heading", schema.PropertyTitle)
	assert.Equal(t, "collector.time", schema.PropertyTimeEnd)
	assert.Equal(t, "np_event", schema.ResourceType)
}

func TestLoadFrom_Defaults(t *testing.T) {
	cfg, err := LoadFrom(writeConfig(t, "source:\n  ics: calendar.ics\n"))
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Empty(t, cfg.Query)
	assert.Equal(t, "resource=/events/|resourceType=np_event", cfg.QueryString())
	assert.Equal(t, "text", cfg.Output.Format)
	assert.Equal(t, "default", cfg.Engine)
	assert.Equal(t, "info", cfg.LogLevel)

	loc, err := cfg.TimeLocation()
	require.NoError(t, err)
	assert.Equal(t, timerange.DefaultZone, loc)
	assert.Equal(t, *Default(), Config{
		Source:   SourceConfig{Folder: "/events/"},
		Locale:   "en",
		Engine:   "default",
		LogLevel: "info",
		Output:   OutputConfig{Format: "text"},
		Schema:   SchemaConfig{ResourceType: "np_event"},
	})
}

func TestQueryString_FollowsFolder(t *testing.T) {
	cfg := Default()
	cfg.Source.Folder = "/cal/"
	cfg.Schema.ResourceType = "np_meeting"
	assert.Equal(t, "resource=/cal/|resourceType=np_meeting", cfg.QueryString())

	cfg.Query = "resource=/other/|resourceType=np_event"
	assert.Equal(t, cfg.Query, cfg.QueryString())
}

func TestLoadFrom_Errors(t *testing.T) {
	_, err := LoadFrom(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = LoadFrom(writeConfig(t, "source: [unclosed"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"location", func(c *Config) { c.Location = "Mars/Olympus" }},
		{"locale", func(c *Config) { c.Locale = "not a tag!" }},
		{"engine", func(c *Config) { c.Engine = "turbo" }},
		{"log level", func(c *Config) { c.LogLevel = "loud" }},
		{"format", func(c *Config) { c.Output.Format = "pdf" }},
		{"range", func(c *Config) { c.Range = "fortnight" }},
		{"undated folder", func(c *Config) { c.Output.UndatedFolders = []string{"events/old/"} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestRangeKind(t *testing.T) {
	cfg := Default()
	_, ok := cfg.RangeKind()
	assert.False(t, ok)

	cfg.Range = "week"
	require.NoError(t, cfg.Validate())
	kind, ok := cfg.RangeKind()
	assert.True(t, ok)
	assert.Equal(t, timerange.Week, kind)

	cfg.Range = "all"
	kind, _ = cfg.RangeKind()
	assert.Equal(t, timerange.CatchAll, kind)
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "cal.ics"), expandPath("~/cal.ics"))
	assert.Equal(t, "/abs/cal.ics", expandPath("/abs/cal.ics"))
}
