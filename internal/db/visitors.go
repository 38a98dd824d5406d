package db

import (
	"context"
	"fmt"
	"time"
)

// timeLayout matches SQLite's CURRENT_TIMESTAMP so stored times compare as
// strings.
const timeLayout = "2006-01-02 15:04:05"

// Visit is one recorded page view. The client address is stored only as a
// salted hash.
type Visit struct {
	ID        int64     `json:"id"`
	HashedIP  string    `json:"hashed_ip"`
	UserAgent string    `json:"user_agent"`
	Path      string    `json:"path"`
	Timestamp time.Time `json:"timestamp"`
}

// VisitCounts summarises the visitors table.
type VisitCounts struct {
	Total    int64 `json:"total_visitors"`
	Unique   int64 `json:"unique_visitors"`
	Today    int64 `json:"visitors_today"`
	ThisWeek int64 `json:"visitors_this_week"`
}

// RecordVisit stores one page view at the given time.
func (d *DB) RecordVisit(ctx context.Context, hashedIP, userAgent, path string, at time.Time) error {
	_, err := d.ExecContext(ctx,
		`INSERT INTO visitors (hashed_ip, user_agent, path, timestamp) VALUES (?, ?, ?, ?)`,
		hashedIP, userAgent, path, formatTime(at))
	if err != nil {
		return fmt.Errorf("recording visit: %w", err)
	}
	return nil
}

// RecentVisits returns up to limit visits, newest first.
func (d *DB) RecentVisits(ctx context.Context, limit int) ([]Visit, error) {
	rows, err := d.QueryContext(ctx, `
		SELECT id, hashed_ip, COALESCE(user_agent, ''), COALESCE(path, ''), timestamp
		FROM visitors
		ORDER BY timestamp DESC, id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying visits: %w", err)
	}
	defer rows.Close()

	var visits []Visit
	for rows.Next() {
		var v Visit
		var ts sqlTime
		if err := rows.Scan(&v.ID, &v.HashedIP, &v.UserAgent, &v.Path, &ts); err != nil {
			return nil, fmt.Errorf("scanning visit: %w", err)
		}
		v.Timestamp = ts.Time
		visits = append(visits, v)
	}
	return visits, rows.Err()
}

// CountVisits counts all visits, distinct visitors, visits since midnight
// UTC and visits in the seven days before now.
func (d *DB) CountVisits(ctx context.Context, now time.Time) (VisitCounts, error) {
	var c VisitCounts
	now = now.UTC()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	err := d.QueryRowContext(ctx, `
		SELECT
			COUNT(*),
			COUNT(DISTINCT hashed_ip),
			COALESCE(SUM(CASE WHEN timestamp >= ? THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN timestamp >= ? THEN 1 ELSE 0 END), 0)
		FROM visitors`,
		formatTime(midnight), formatTime(now.Add(-7*24*time.Hour)),
	).Scan(&c.Total, &c.Unique, &c.Today, &c.ThisWeek)
	if err != nil {
		return VisitCounts{}, fmt.Errorf("counting visits: %w", err)
	}
	return c, nil
}

// PruneVisits deletes visits recorded before cutoff and reports how many
// were removed.
func (d *DB) PruneVisits(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := d.ExecContext(ctx, `DELETE FROM visitors WHERE timestamp < ?`, formatTime(cutoff))
	if err != nil {
		return 0, fmt.Errorf("pruning visits: %w", err)
	}
	return res.RowsAffected()
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

// sqlTime scans a DATETIME column whether the driver hands back a
// time.Time or the stored text.
type sqlTime struct {
	time.Time
}

func (t *sqlTime) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		t.Time = time.Time{}
		return nil
	case time.Time:
		t.Time = v.UTC()
		return nil
	case string:
		return t.parse(v)
	case []byte:
		return t.parse(string(v))
	default:
		return fmt.Errorf("unsupported time value %T", src)
	}
}

func (t *sqlTime) parse(s string) error {
	for _, layout := range []string{timeLayout, time.RFC3339Nano, "2006-01-02 15:04:05.999999999-07:00"} {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time = parsed.UTC()
			return nil
		}
	}
	return fmt.Errorf("unrecognised time %q", s)
}
