package api

import (
	"encoding/json"

	"github.com/tana/tana/internal/config"
	"github.com/tana/tana/internal/import/renamer"
	"github.com/tana/tana/internal/library/audit"
)

// templatesFrom resolves destination templates against the live settings,
// so an audit always uses the rules saved last.
func templatesFrom(store *config.Store) audit.TemplateFunc {
	return func(destination string) renamer.Template {
		lib := store.Library()
		return lib.TemplateFor(destination)
	}
}

// previewTome decodes the tome of a preview request: absent means the
// sample tome, an explicit null means a one-shot.
func previewTome(raw json.RawMessage, sample int) (*int, error) {
	if len(raw) == 0 {
		return &sample, nil
	}
	var tome *int
	if err := json.Unmarshal(raw, &tome); err != nil {
		return nil, err
	}
	return tome, nil
}
