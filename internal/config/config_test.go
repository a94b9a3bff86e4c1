package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tana/tana/internal/import/renamer"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	path := writeConfig(t, "{}\n")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9045, cfg.Server.Port)
	assert.Equal(t, "./data/tana.db", cfg.Database.Path)
	assert.Equal(t, renamer.DefaultTemplate, cfg.Library.Template)
	assert.Equal(t, renamer.DefaultTemplateNoTome, cfg.Library.TemplateNoTome)
	assert.Equal(t, 30*time.Second, cfg.Library.CacheTTL)
	assert.Equal(t, 500, cfg.Library.HistoryMaxEntries)
	assert.Equal(t, path, cfg.File)
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 8080
library:
  source_dir: /incoming
  destinations:
    - /bd
    - /manga
  template: "{series} T{tome}{ext}"
  cache_ttl: 1m
  template_rules:
    - filter: manga
      template: "{series} v{tome:03d}{ext}"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "/incoming", cfg.Library.SourceDir)
	assert.Equal(t, []string{"/bd", "/manga"}, cfg.Library.Destinations)
	assert.Equal(t, time.Minute, cfg.Library.CacheTTL)
	require.Len(t, cfg.Library.TemplateRules, 1)
	assert.Equal(t, "manga", cfg.Library.TemplateRules[0].Filter)

	tpl := cfg.Library.TemplateFor("/manga")
	assert.Equal(t, "{series} v{tome:03d}{ext}", tpl.Pattern)
	assert.Equal(t, renamer.DefaultTemplateNoTome, tpl.PatternNoTome)
	assert.Equal(t, "{series} T{tome}{ext}", cfg.Library.TemplateFor("/bd").Pattern)
}

func TestLoad_Env(t *testing.T) {
	path := writeConfig(t, "server:\n  port: 8080\n")
	t.Setenv("TANA_SERVER_PORT", "7000")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 7000, cfg.Server.Port)
}

func TestLoad_InvalidFile(t *testing.T) {
	path := writeConfig(t, "server: [unclosed\n")

	_, err := Load(path)
	assert.Error(t, err)
}

func TestSettings_Normalize(t *testing.T) {
	tests := []struct {
		name    string
		in      Settings
		want    Settings
		wantErr bool
	}{
		{
			name: "trims and defaults",
			in: Settings{
				SourceDir:    "  /incoming ",
				Destinations: []string{" /bd ", "", "  "},
			},
			want: Settings{
				SourceDir:      "/incoming",
				Destinations:   []string{"/bd"},
				Template:       renamer.DefaultTemplate,
				TemplateNoTome: renamer.DefaultTemplateNoTome,
				TemplateRules:  []renamer.Rule{},
			},
		},
		{
			name: "skips incomplete rules and fills one-shot template",
			in: Settings{
				SourceDir:      "/in",
				Destinations:   []string{"/bd"},
				Template:       "{series} - {tome}{ext}",
				TemplateNoTome: "{series} OS{ext}",
				TemplateRules: []renamer.Rule{
					{Filter: "", Template: "{series}{ext}"},
					{Filter: "manga", Template: ""},
					{Filter: " manga ", Template: " {series} v{tome}{ext} "},
				},
			},
			want: Settings{
				SourceDir:      "/in",
				Destinations:   []string{"/bd"},
				Template:       "{series} - {tome}{ext}",
				TemplateNoTome: "{series} OS{ext}",
				TemplateRules: []renamer.Rule{
					{Filter: "manga", Template: "{series} v{tome}{ext}", TemplateNoTome: "{series} OS{ext}"},
				},
			},
		},
		{
			name:    "missing source",
			in:      Settings{Destinations: []string{"/bd"}},
			wantErr: true,
		},
		{
			name:    "no destinations",
			in:      Settings{SourceDir: "/in", Destinations: []string{""}},
			wantErr: true,
		},
		{
			name:    "template without series",
			in:      Settings{SourceDir: "/in", Destinations: []string{"/bd"}, Template: "T{tome}{ext}"},
			wantErr: true,
		},
		{
			name: "rule without ext",
			in: Settings{
				SourceDir:     "/in",
				Destinations:  []string{"/bd"},
				TemplateRules: []renamer.Rule{{Filter: "manga", Template: "{series}"}},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.in.Normalize()
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrInvalidConfig))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLibraryConfig_HasDestination(t *testing.T) {
	lib := LibraryConfig{Settings: Settings{Destinations: []string{"/bd", "/manga"}}}

	assert.True(t, lib.HasDestination("/manga"))
	assert.False(t, lib.HasDestination("/manga/"))
	assert.False(t, lib.HasDestination(""))
}

func TestConfig_Validate(t *testing.T) {
	cfg := Default()
	assert.NoError(t, cfg.Validate(), "empty library is allowed")

	cfg.Server.Port = 0
	assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)

	cfg = Default()
	cfg.Library.SourceDir = "/in"
	assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig, "source without destinations")
}

func TestServerConfig_Address(t *testing.T) {
	c := ServerConfig{Host: "127.0.0.1", Port: 9045}
	assert.Equal(t, "127.0.0.1:9045", c.Address())
}
