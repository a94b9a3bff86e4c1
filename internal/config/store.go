package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/gofrs/flock"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

// ChangeFunc is called after settings were saved.
type ChangeFunc func(LibraryConfig)

// Store guards the live configuration and persists settings changes.
type Store struct {
	mu     sync.RWMutex
	cfg    Config
	hooks  []ChangeFunc
	logger zerolog.Logger
}

// NewStore wraps a loaded configuration.
func NewStore(cfg *Config, logger zerolog.Logger) *Store {
	c := *cfg
	if c.File == "" {
		c.File = DefaultConfigFile
	}
	return &Store{
		cfg:    c,
		logger: logger.With().Str("component", "config").Logger(),
	}
}

// Config returns a copy of the full configuration.
func (s *Store) Config() Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c := s.cfg
	c.Library = copyLibrary(c.Library)
	return c
}

// Library returns a copy of the library configuration.
func (s *Store) Library() LibraryConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyLibrary(s.cfg.Library)
}

// Destinations returns the configured destination roots in order.
func (s *Store) Destinations() []string {
	return s.Library().Destinations
}

// OnChange registers fn to run after every successful Update.
func (s *Store) OnChange(fn ChangeFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hooks = append(s.hooks, fn)
}

// Update validates settings, writes them to the config file and applies them.
// On error the live configuration is left untouched.
func (s *Store) Update(settings Settings) (Settings, error) {
	clean, err := settings.Normalize()
	if err != nil {
		return Settings{}, err
	}

	s.mu.Lock()
	next := s.cfg
	next.Library = copyLibrary(next.Library)
	next.Library.Settings = clean
	if err := writeFile(next); err != nil {
		s.mu.Unlock()
		return Settings{}, err
	}
	s.cfg = next
	hooks := append([]ChangeFunc(nil), s.hooks...)
	lib := copyLibrary(next.Library)
	s.mu.Unlock()

	s.logger.Info().
		Str("file", next.File).
		Int("destinations", len(clean.Destinations)).
		Int("rules", len(clean.TemplateRules)).
		Msg("Settings saved")

	for _, fn := range hooks {
		fn(lib)
	}
	return clean, nil
}

func copyLibrary(l LibraryConfig) LibraryConfig {
	l.Destinations = append([]string{}, l.Destinations...)
	l.TemplateRules = append(l.TemplateRules[:0:0], l.TemplateRules...)
	return l
}

// fileLayout is the on-disk shape of the config file. Durations are written
// as strings so the file stays readable.
type fileLayout struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Logging  LoggingConfig  `yaml:"logging"`
	Library  struct {
		Settings          `yaml:",inline"`
		CacheTTL          string `yaml:"cache_ttl"`
		Watch             bool   `yaml:"watch"`
		RefreshCron       string `yaml:"refresh_cron"`
		AuditCron         string `yaml:"audit_cron"`
		HistoryMaxEntries int    `yaml:"history_max_entries"`
	} `yaml:"library"`
}

// writeFile saves cfg to cfg.File under an advisory lock, replacing the
// file atomically.
func writeFile(cfg Config) error {
	var doc fileLayout
	doc.Server = cfg.Server
	doc.Database = cfg.Database
	doc.Logging = cfg.Logging
	doc.Library.Settings = cfg.Library.Settings
	doc.Library.CacheTTL = cfg.Library.CacheTTL.String()
	doc.Library.Watch = cfg.Library.Watch
	doc.Library.RefreshCron = cfg.Library.RefreshCron
	doc.Library.AuditCron = cfg.Library.AuditCron
	doc.Library.HistoryMaxEntries = cfg.Library.HistoryMaxEntries

	data, err := yaml.Marshal(&doc)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	dir := filepath.Dir(cfg.File)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	lock := flock.New(cfg.File + ".lock")
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("failed to lock config file: %w", err)
	}
	defer func() { _ = lock.Unlock() }()

	tmp, err := os.CreateTemp(dir, ".config-*.yaml")
	if err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write config: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to write config: %w", err)
	}
	if err := os.Rename(tmpName, cfg.File); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace config: %w", err)
	}
	return nil
}
