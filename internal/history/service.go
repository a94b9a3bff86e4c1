package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
)

// DefaultMaxEntries bounds the history table when no limit is configured.
const DefaultMaxEntries = 500

// Service provides history management functionality.
type Service struct {
	db         *sql.DB
	maxEntries atomic.Int64
	clock      clockwork.Clock
	logger     zerolog.Logger
}

// NewService creates a new history service.
func NewService(db *sql.DB, logger zerolog.Logger) *Service {
	s := &Service{
		db:     db,
		clock:  clockwork.NewRealClock(),
		logger: logger.With().Str("component", "history").Logger(),
	}
	s.maxEntries.Store(DefaultMaxEntries)
	return s
}

// SetClock replaces the clock used for timestamps.
func (s *Service) SetClock(clock clockwork.Clock) {
	s.clock = clock
}

// SetMaxEntries changes how many entries are kept. Values below one are ignored.
func (s *Service) SetMaxEntries(n int) {
	if n > 0 {
		s.maxEntries.Store(int64(n))
	}
}

// MaxEntries returns the retention limit.
func (s *Service) MaxEntries() int {
	return int(s.maxEntries.Load())
}

// Create inserts a history entry and drops the oldest rows beyond the limit.
func (s *Service) Create(ctx context.Context, input CreateInput) (*Entry, error) {
	details := input.Details
	if details == nil {
		details = map[string]any{}
	}
	data, err := json.Marshal(details)
	if err != nil {
		return nil, fmt.Errorf("failed to encode history details: %w", err)
	}

	now := s.clock.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO history (batch_id, action, details, created_at) VALUES (?, ?, ?, ?)`,
		input.BatchID, string(input.Action), string(data), now)
	if err != nil {
		return nil, fmt.Errorf("failed to insert history entry: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}

	if err := s.trim(ctx); err != nil {
		s.logger.Warn().Err(err).Msg("Failed to trim history")
	}

	return &Entry{
		ID:        id,
		BatchID:   input.BatchID,
		Action:    input.Action,
		Details:   details,
		CreatedAt: now.Format(time.RFC3339),
	}, nil
}

// Log records an action with a typed payload. Failures are logged and
// returned; callers usually ignore them so the file operation stands.
func (s *Service) Log(ctx context.Context, batchID string, action Action, data any) error {
	details, err := ToJSON(data)
	if err != nil {
		s.logger.Warn().Err(err).Str("action", string(action)).Msg("Failed to marshal history data")
		details = nil
	}

	if _, err := s.Create(ctx, CreateInput{BatchID: batchID, Action: action, Details: details}); err != nil {
		s.logger.Error().Err(err).Str("action", string(action)).Msg("Failed to record history")
		return err
	}
	return nil
}

func (s *Service) trim(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM history WHERE id NOT IN (SELECT id FROM history ORDER BY id DESC LIMIT ?)`,
		s.maxEntries.Load())
	return err
}

// List lists history entries newest first with pagination and an optional
// action filter.
func (s *Service) List(ctx context.Context, opts ListOptions) (*ListResponse, error) {
	if opts.Page < 1 {
		opts.Page = 1
	}
	if opts.PageSize < 1 {
		opts.PageSize = 50
	}
	if opts.PageSize > DefaultMaxEntries {
		opts.PageSize = DefaultMaxEntries
	}

	offset := (opts.Page - 1) * opts.PageSize

	var totalCount int64
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM history WHERE (? = '' OR action = ?)`,
		opts.Action, opts.Action).Scan(&totalCount); err != nil {
		return nil, fmt.Errorf("failed to count history: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, batch_id, action, details, created_at FROM history
		 WHERE (? = '' OR action = ?)
		 ORDER BY id DESC LIMIT ? OFFSET ?`,
		opts.Action, opts.Action, opts.PageSize, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list history: %w", err)
	}
	defer rows.Close()

	entries := make([]*Entry, 0, opts.PageSize)
	for rows.Next() {
		var (
			entry     Entry
			action    string
			details   string
			createdAt time.Time
		)
		if err := rows.Scan(&entry.ID, &entry.BatchID, &action, &details, &createdAt); err != nil {
			return nil, err
		}
		entry.Action = Action(action)
		if details != "" {
			var data map[string]any
			if err := json.Unmarshal([]byte(details), &data); err == nil && len(data) > 0 {
				entry.Details = data
			}
		}
		entry.CreatedAt = createdAt.UTC().Format(time.RFC3339)
		entries = append(entries, &entry)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	totalPages := int(totalCount) / opts.PageSize
	if int(totalCount)%opts.PageSize > 0 {
		totalPages++
	}

	return &ListResponse{
		Items:      entries,
		Page:       opts.Page,
		PageSize:   opts.PageSize,
		TotalCount: totalCount,
		TotalPages: totalPages,
	}, nil
}

// DeleteAll deletes all history entries.
func (s *Service) DeleteAll(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM history`)
	return err
}
