package history

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/nyxlab/nyx/api/schemas"
)

var pgJSON = jsoniter.ConfigCompatibleWithStandardLibrary

// DBPool abstracts pgxpool.Pool so the store can be exercised against a mock
// connection in tests.
type DBPool interface {
	Ping(ctx context.Context) error
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Close()
}

// PostgresStore persists history entries in a single history_entries table.
// Result, context and validation payloads land in JSONB columns so the
// structured maps round-trip without a schema per provider.
type PostgresStore struct {
	pool DBPool
	log  *zap.Logger
}

const createHistoryTable = `
CREATE TABLE IF NOT EXISTS history_entries (
    id          TEXT PRIMARY KEY,
    ts          TIMESTAMPTZ NOT NULL,
    query       TEXT NOT NULL,
    result      JSONB NOT NULL,
    context     JSONB,
    success     BOOLEAN NOT NULL,
    validation  JSONB
);
CREATE INDEX IF NOT EXISTS history_entries_ts_idx ON history_entries (ts);
`

// NewPostgresStore verifies the connection and ensures the schema exists.
func NewPostgresStore(ctx context.Context, pool DBPool, logger *zap.Logger) (*PostgresStore, error) {
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	if _, err := pool.Exec(ctx, createHistoryTable); err != nil {
		return nil, fmt.Errorf("failed to ensure history schema: %w", err)
	}

	return &PostgresStore{
		pool: pool,
		log:  logger.Named("history"),
	}, nil
}

// Append inserts one entry. JSON payloads are marshaled here rather than left
// to the driver so a marshal failure surfaces before any row is written.
func (s *PostgresStore) Append(ctx context.Context, entry schemas.HistoryEntry) error {
	resultJSON, err := pgJSON.Marshal(entry.Result)
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}

	var contextJSON []byte
	if entry.Context != nil {
		if contextJSON, err = pgJSON.Marshal(entry.Context); err != nil {
			return fmt.Errorf("failed to marshal context: %w", err)
		}
	}

	var validationJSON []byte
	if entry.Validation != nil {
		if validationJSON, err = pgJSON.Marshal(entry.Validation); err != nil {
			return fmt.Errorf("failed to marshal validation summary: %w", err)
		}
	}

	const sql = `
        INSERT INTO history_entries (id, ts, query, result, context, success, validation)
        VALUES ($1, $2, $3, $4, $5, $6, $7);
    `
	if _, err := s.pool.Exec(ctx, sql,
		entry.ID, entry.Timestamp.UTC(), entry.Query,
		resultJSON, contextJSON, entry.Success, validationJSON,
	); err != nil {
		return fmt.Errorf("failed to insert history entry: %w", err)
	}

	s.log.Debug("Recorded history entry", zap.String("id", entry.ID))
	return nil
}

// Recent returns up to limit entries, oldest first (most recent last).
// limit <= 0 returns everything.
func (s *PostgresStore) Recent(ctx context.Context, limit int) ([]schemas.HistoryEntry, error) {
	sql := `
        SELECT id, ts, query, result, context, success, validation
        FROM history_entries
        ORDER BY ts DESC
    `
	args := []any{}
	if limit > 0 {
		sql += " LIMIT $1"
		args = append(args, limit)
	}

	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	var entries []schemas.HistoryEntry
	for rows.Next() {
		var (
			e              schemas.HistoryEntry
			ts             time.Time
			resultJSON     []byte
			contextJSON    []byte
			validationJSON []byte
		)
		if err := rows.Scan(&e.ID, &ts, &e.Query, &resultJSON, &contextJSON, &e.Success, &validationJSON); err != nil {
			return nil, fmt.Errorf("failed to scan history row: %w", err)
		}
		e.Timestamp = ts

		if len(resultJSON) > 0 {
			if err := pgJSON.Unmarshal(resultJSON, &e.Result); err != nil {
				return nil, fmt.Errorf("failed to unmarshal result for entry %s: %w", e.ID, err)
			}
		}
		if len(contextJSON) > 0 {
			if err := pgJSON.Unmarshal(contextJSON, &e.Context); err != nil {
				return nil, fmt.Errorf("failed to unmarshal context for entry %s: %w", e.ID, err)
			}
		}
		if len(validationJSON) > 0 {
			var summary schemas.ValidationSummary
			if err := pgJSON.Unmarshal(validationJSON, &summary); err != nil {
				return nil, fmt.Errorf("failed to unmarshal validation for entry %s: %w", e.ID, err)
			}
			e.Validation = &summary
		}

		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during row iteration: %w", err)
	}

	// Rows arrive newest first; callers expect chronological order.
	for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
		entries[i], entries[j] = entries[j], entries[i]
	}
	return entries, nil
}

// Len reports the number of stored entries.
func (s *PostgresStore) Len(ctx context.Context) (int, error) {
	var count int
	row := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM history_entries;`)
	if err := row.Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count history entries: %w", err)
	}
	return count, nil
}

// Clear removes all stored entries.
func (s *PostgresStore) Clear(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM history_entries;`); err != nil {
		return fmt.Errorf("failed to clear history: %w", err)
	}
	return nil
}

// Close releases the underlying pool.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
