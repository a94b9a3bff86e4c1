package main

import (
	"io"
	"strings"
	"sync"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"github.com/tana/tana/internal/config"
	"github.com/tana/tana/internal/import/renamer"
	"github.com/tana/tana/internal/library/audit"
	"github.com/tana/tana/internal/library/catalog"
	"github.com/tana/tana/internal/library/scanner"
	"github.com/tana/tana/internal/logger"
)

type commandContext struct {
	configFlag   *string
	logLevelFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag, logLevelFlag *string) *commandContext {
	return &commandContext{
		configFlag:   configFlag,
		logLevelFlag: logLevelFlag,
	}
}

// ensureConfig loads and validates the configuration once per invocation.
func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.Validate(); err != nil {
			c.configErr = err
			return
		}
		if c.logLevelFlag != nil && *c.logLevelFlag != "" {
			cfg.Logging.Level = *c.logLevelFlag
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

// newLogger builds the application logger writing to out. File logging is
// only enabled for the server.
func (c *commandContext) newLogger(cfg *config.Config, out io.Writer, withFile bool, extra ...io.Writer) *logger.Logger {
	lc := logger.Config{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAgeDays: cfg.Logging.MaxAgeDays,
		Compress:   cfg.Logging.Compress,
		Output:     out,
	}
	if withFile {
		lc.Path = cfg.Logging.Path
	}
	return logger.New(lc, extra...)
}

// library holds the read-only services the one-shot commands share.
type library struct {
	store   *config.Store
	catalog *catalog.Index
	scanner *scanner.Service
	audit   *audit.Engine
}

func newLibrary(cfg *config.Config, log zerolog.Logger) *library {
	store := config.NewStore(cfg, log)
	roots := catalog.RootsFunc(store.Destinations)
	clock := clockwork.NewRealClock()

	index := catalog.NewIndex(catalog.NewFSLister(log), roots,
		catalog.WithClock(clock),
		catalog.WithTTL(cfg.Library.CacheTTL),
		catalog.WithLogger(log),
	)

	templates := func(destination string) renamer.Template {
		lib := store.Library()
		return lib.TemplateFor(destination)
	}

	return &library{
		store:   store,
		catalog: index,
		scanner: scanner.NewService(index, &log),
		audit:   audit.NewEngine(index, roots, templates, clock, log),
	}
}
