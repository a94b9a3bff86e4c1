package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/tana/tana/internal/import/renamer"
)

// DefaultConfigFile is where settings are saved when no file was loaded.
const DefaultConfigFile = "config.yaml"

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server" yaml:"server"`
	Database DatabaseConfig `mapstructure:"database" yaml:"database"`
	Logging  LoggingConfig  `mapstructure:"logging" yaml:"logging"`
	Library  LibraryConfig  `mapstructure:"library" yaml:"library"`

	// File is the config file in use; settings are written back to it.
	File string `mapstructure:"-" yaml:"-"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host string `mapstructure:"host" yaml:"host"`
	Port int    `mapstructure:"port" yaml:"port"`
}

// DatabaseConfig holds database configuration.
type DatabaseConfig struct {
	Path string `mapstructure:"path" yaml:"path"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level      string `mapstructure:"level" yaml:"level"`
	Format     string `mapstructure:"format" yaml:"format"`
	Path       string `mapstructure:"path" yaml:"path"`
	MaxSizeMB  int    `mapstructure:"max_size_mb" yaml:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days" yaml:"max_age_days"`
	Compress   bool   `mapstructure:"compress" yaml:"compress"`
}

// Settings are the library settings editable from the API.
type Settings struct {
	SourceDir      string         `mapstructure:"source_dir" yaml:"source_dir" json:"sourceDir"`
	Destinations   []string       `mapstructure:"destinations" yaml:"destinations" json:"destinations"`
	Template       string         `mapstructure:"template" yaml:"template" json:"template"`
	TemplateNoTome string         `mapstructure:"template_no_tome" yaml:"template_no_tome" json:"templateNoTome"`
	TemplateRules  []renamer.Rule `mapstructure:"template_rules" yaml:"template_rules" json:"templateRules"`
}

// LibraryConfig holds the library settings plus operational knobs.
type LibraryConfig struct {
	Settings `mapstructure:",squash" yaml:",inline"`

	CacheTTL          time.Duration `mapstructure:"cache_ttl" yaml:"cache_ttl"`
	Watch             bool          `mapstructure:"watch" yaml:"watch"`
	RefreshCron       string        `mapstructure:"refresh_cron" yaml:"refresh_cron"`
	AuditCron         string        `mapstructure:"audit_cron" yaml:"audit_cron"`
	HistoryMaxEntries int           `mapstructure:"history_max_entries" yaml:"history_max_entries"`
}

// ErrInvalidConfig is wrapped by every validation failure.
var ErrInvalidConfig = errors.New("invalid configuration")

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 9045,
		},
		Database: DatabaseConfig{
			Path: "./data/tana.db",
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "console",
			MaxSizeMB:  10,
			MaxBackups: 5,
			MaxAgeDays: 30,
			Compress:   true,
		},
		Library: LibraryConfig{
			Settings: Settings{
				Destinations:   []string{},
				Template:       renamer.DefaultTemplate,
				TemplateNoTome: renamer.DefaultTemplateNoTome,
				TemplateRules:  []renamer.Rule{},
			},
			CacheTTL:          30 * time.Second,
			Watch:             true,
			RefreshCron:       "*/5 * * * *",
			AuditCron:         "0 3 * * *",
			HistoryMaxEntries: 500,
		},
	}
}

// Load reads configuration from file and environment variables.
// Priority: environment variables > config file > defaults
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("$HOME/.tana")
	}

	v.SetEnvPrefix("TANA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found, using defaults + env vars
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.File = v.ConfigFileUsed()
	if cfg.File == "" {
		cfg.File = configPath
	}
	if cfg.File == "" {
		cfg.File = DefaultConfigFile
	}
	return cfg, nil
}

// setDefaults sets default values in viper
func setDefaults(v *viper.Viper) {
	d := Default()

	v.SetDefault("server.host", d.Server.Host)
	v.SetDefault("server.port", d.Server.Port)

	v.SetDefault("database.path", d.Database.Path)

	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.format", d.Logging.Format)
	v.SetDefault("logging.path", d.Logging.Path)
	v.SetDefault("logging.max_size_mb", d.Logging.MaxSizeMB)
	v.SetDefault("logging.max_backups", d.Logging.MaxBackups)
	v.SetDefault("logging.max_age_days", d.Logging.MaxAgeDays)
	v.SetDefault("logging.compress", d.Logging.Compress)

	v.SetDefault("library.source_dir", d.Library.SourceDir)
	v.SetDefault("library.destinations", d.Library.Destinations)
	v.SetDefault("library.template", d.Library.Template)
	v.SetDefault("library.template_no_tome", d.Library.TemplateNoTome)
	v.SetDefault("library.template_rules", d.Library.TemplateRules)
	v.SetDefault("library.cache_ttl", d.Library.CacheTTL)
	v.SetDefault("library.watch", d.Library.Watch)
	v.SetDefault("library.refresh_cron", d.Library.RefreshCron)
	v.SetDefault("library.audit_cron", d.Library.AuditCron)
	v.SetDefault("library.history_max_entries", d.Library.HistoryMaxEntries)
}

// Address returns the server address string.
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// GlobalTemplate returns the template used when no rule matches.
func (l *LibraryConfig) GlobalTemplate() renamer.Template {
	return renamer.Template{Pattern: l.Template, PatternNoTome: l.TemplateNoTome}
}

// TemplateFor returns the template that applies to destination.
func (l *LibraryConfig) TemplateFor(destination string) renamer.Template {
	return renamer.ResolveTemplate(l.GlobalTemplate(), l.TemplateRules, destination)
}

// HasDestination reports whether destination is one of the configured roots.
func (l *LibraryConfig) HasDestination(destination string) bool {
	for _, d := range l.Destinations {
		if d == destination {
			return true
		}
	}
	return false
}

// Normalize trims and validates user-supplied settings. Empty destinations
// are dropped, rules without a filter or template are skipped, and a rule's
// one-shot template defaults to the global one.
func (s Settings) Normalize() (Settings, error) {
	out := Settings{
		SourceDir:      strings.TrimSpace(s.SourceDir),
		Destinations:   make([]string, 0, len(s.Destinations)),
		Template:       strings.TrimSpace(s.Template),
		TemplateNoTome: strings.TrimSpace(s.TemplateNoTome),
		TemplateRules:  make([]renamer.Rule, 0, len(s.TemplateRules)),
	}

	if out.SourceDir == "" {
		return Settings{}, fmt.Errorf("%w: source directory is required", ErrInvalidConfig)
	}

	for _, d := range s.Destinations {
		if d = strings.TrimSpace(d); d != "" {
			out.Destinations = append(out.Destinations, d)
		}
	}
	if len(out.Destinations) == 0 {
		return Settings{}, fmt.Errorf("%w: at least one destination is required", ErrInvalidConfig)
	}

	if out.Template == "" {
		out.Template = renamer.DefaultTemplate
	}
	if out.TemplateNoTome == "" {
		out.TemplateNoTome = renamer.DefaultTemplateNoTome
	}
	if err := renamer.ValidatePattern(out.Template); err != nil {
		return Settings{}, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	for _, rule := range s.TemplateRules {
		clean := renamer.Rule{
			Filter:         strings.TrimSpace(rule.Filter),
			Template:       strings.TrimSpace(rule.Template),
			TemplateNoTome: strings.TrimSpace(rule.TemplateNoTome),
		}
		if clean.Filter == "" || clean.Template == "" {
			continue
		}
		if err := renamer.ValidateRule(clean); err != nil {
			return Settings{}, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
		}
		if clean.TemplateNoTome == "" {
			clean.TemplateNoTome = out.TemplateNoTome
		}
		out.TemplateRules = append(out.TemplateRules, clean)
	}

	return out, nil
}

// Validate checks the loaded configuration.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("%w: invalid server port %d", ErrInvalidConfig, c.Server.Port)
	}
	if c.Library.HistoryMaxEntries <= 0 {
		return fmt.Errorf("%w: history_max_entries must be positive", ErrInvalidConfig)
	}
	if c.Library.SourceDir == "" && len(c.Library.Destinations) == 0 {
		// Nothing configured yet; the settings page fills these in.
		return nil
	}
	_, err := c.Library.Normalize()
	return err
}
