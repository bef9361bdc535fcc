package store

import (
	"context"
	"fmt"
	"os"
)

// Stats holds database statistics.
type Stats struct {
	DBPath        string       `json:"db_path"`
	DBSizeBytes   int64        `json:"db_size_bytes"`
	TotalMemories int          `json:"total_memories"`
	MediaBytes    int64        `json:"media_bytes"`
	Owners        []OwnerStats `json:"owners"`
}

// OwnerStats holds per-owner counts.
type OwnerStats struct {
	Owner string `json:"owner"`
	Count int    `json:"count"`
	Media int    `json:"media"`
}

// Stats returns database statistics. A non-empty owner restricts the per-owner list.
func (s *SQLiteStore) Stats(ctx context.Context, dbPath, owner string) (*Stats, error) {
	st := &Stats{DBPath: dbPath}

	// DB file size
	if info, err := os.Stat(dbPath); err == nil {
		st.DBSizeBytes = info.Size()
	}

	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM memories`).Scan(&st.TotalMemories); err != nil {
		return nil, fmt.Errorf("count memories: %w", err)
	}
	if err := s.db.QueryRowContext(ctx, `SELECT COALESCE(SUM(LENGTH(data)), 0) FROM memories`).Scan(&st.MediaBytes); err != nil {
		return nil, fmt.Errorf("sum media bytes: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT owner, COUNT(*) AS cnt, SUM(CASE WHEN kind != 'Text' THEN 1 ELSE 0 END) AS media
		FROM memories WHERE (? = '' OR owner = ?)
		GROUP BY owner ORDER BY cnt DESC, owner ASC`, owner, owner)
	if err != nil {
		return nil, fmt.Errorf("count by owner: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var o OwnerStats
		if err := rows.Scan(&o.Owner, &o.Count, &o.Media); err != nil {
			return nil, fmt.Errorf("scan owner stats: %w", err)
		}
		st.Owners = append(st.Owners, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("count by owner: %w", err)
	}
	return st, nil
}
