package theme

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	"github.com/Zachkp/portfolio/internal/db"
)

// MemoryStorage keeps values in a map.
type MemoryStorage struct {
	mu     sync.Mutex
	values map[string]string
}

// NewMemoryStorage returns an empty MemoryStorage.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{values: make(map[string]string)}
}

func (m *MemoryStorage) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *MemoryStorage) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

// SQLiteStorage persists values in the preferences table, scoped to one
// visitor.
type SQLiteStorage struct {
	db        *db.DB
	visitorID string
}

// NewSQLiteStorage returns storage for the given visitor id.
func NewSQLiteStorage(database *db.DB, visitorID string) *SQLiteStorage {
	return &SQLiteStorage{db: database, visitorID: visitorID}
}

func (s *SQLiteStorage) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM preferences WHERE visitor_id = ? AND key = ?`,
		s.visitorID, key,
	).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("reading preference %s: %w", key, err)
	}
	return value, true, nil
}

func (s *SQLiteStorage) Set(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO preferences (visitor_id, key, value, updated_at)
		VALUES (?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT (visitor_id, key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		s.visitorID, key, value,
	)
	if err != nil {
		return fmt.Errorf("writing preference %s: %w", key, err)
	}
	return nil
}

// Counts returns how many visitors have each stored preference.
func Counts(ctx context.Context, database *db.DB) (map[Preference]int64, error) {
	rows, err := database.QueryContext(ctx,
		`SELECT value, COUNT(*) FROM preferences WHERE key = ? GROUP BY value`, StorageKey)
	if err != nil {
		return nil, fmt.Errorf("counting themes: %w", err)
	}
	defer rows.Close()

	counts := make(map[Preference]int64)
	for rows.Next() {
		var value string
		var n int64
		if err := rows.Scan(&value, &n); err != nil {
			return nil, fmt.Errorf("scanning theme count: %w", err)
		}
		if p, ok := Parse(value); ok {
			counts[p] += n
		}
	}
	return counts, rows.Err()
}
