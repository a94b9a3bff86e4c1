package config

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tana/tana/internal/import/renamer"
)

func TestStore_UpdatePersists(t *testing.T) {
	path := writeConfig(t, "server:\n  port: 8081\n")
	cfg, err := Load(path)
	require.NoError(t, err)

	store := NewStore(cfg, zerolog.Nop())

	var notified []LibraryConfig
	store.OnChange(func(lib LibraryConfig) { notified = append(notified, lib) })

	saved, err := store.Update(Settings{
		SourceDir:    "/incoming",
		Destinations: []string{"/bd", "/manga"},
		TemplateRules: []renamer.Rule{
			{Filter: "manga", Template: "{series} v{tome:03d}{ext}"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, renamer.DefaultTemplate, saved.Template)

	require.Len(t, notified, 1)
	assert.Equal(t, []string{"/bd", "/manga"}, notified[0].Destinations)
	assert.Equal(t, "/incoming", store.Library().SourceDir)

	reloaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 8081, reloaded.Server.Port, "unrelated sections survive a save")
	assert.Equal(t, "/incoming", reloaded.Library.SourceDir)
	assert.Equal(t, []string{"/bd", "/manga"}, reloaded.Library.Destinations)
	assert.Equal(t, cfg.Library.CacheTTL, reloaded.Library.CacheTTL)
	require.Len(t, reloaded.Library.TemplateRules, 1)
	assert.Equal(t, renamer.DefaultTemplateNoTome, reloaded.Library.TemplateRules[0].TemplateNoTome)
}

func TestStore_UpdateInvalidKeepsState(t *testing.T) {
	cfg := Default()
	cfg.File = writeConfig(t, "{}\n")
	cfg.Library.SourceDir = "/in"
	cfg.Library.Destinations = []string{"/bd"}
	store := NewStore(cfg, zerolog.Nop())

	called := false
	store.OnChange(func(LibraryConfig) { called = true })

	_, err := store.Update(Settings{SourceDir: "", Destinations: []string{"/x"}})
	assert.ErrorIs(t, err, ErrInvalidConfig)
	assert.False(t, called)
	assert.Equal(t, []string{"/bd"}, store.Destinations())
}

func TestStore_CopiesAreIndependent(t *testing.T) {
	cfg := Default()
	cfg.Library.Destinations = []string{"/bd"}
	store := NewStore(cfg, zerolog.Nop())

	lib := store.Library()
	lib.Destinations[0] = "/changed"

	assert.Equal(t, []string{"/bd"}, store.Destinations())
}
