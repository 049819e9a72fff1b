package store

import (
	"context"
	"database/sql"
	"fmt"

	"ffmpeg-architect/internal/domain"
)

// HistoryLimit is the number of rows ListRuns returns.
const HistoryLimit = 50

// InsertRun appends one run record and returns its id. Records are never updated.
func (s *Store) InsertRun(ctx context.Context, record domain.RunRecord) (int64, error) {
	if record.Timestamp.IsZero() {
		record.Timestamp = s.now()
	}
	res, err := s.execWithRetry(ctx,
		`INSERT INTO history (run_id, command, status, stderr, timestamp) VALUES (?, ?, ?, ?, ?)`,
		nullableString(record.RunID),
		record.Command,
		record.Status,
		record.Stderr,
		formatTime(record.Timestamp),
	)
	if err != nil {
		return 0, fmt.Errorf("insert run: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	return id, nil
}

// ListRuns returns the newest HistoryLimit records, newest first.
func (s *Store) ListRuns(ctx context.Context) ([]domain.RunRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, run_id, command, status, stderr, timestamp
         FROM history ORDER BY timestamp DESC, id DESC LIMIT ?`, HistoryLimit)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	records := make([]domain.RunRecord, 0, HistoryLimit)
	for rows.Next() {
		var (
			record    domain.RunRecord
			runID     sql.NullString
			timestamp string
		)
		if err := rows.Scan(&record.ID, &runID, &record.Command, &record.Status, &record.Stderr, &timestamp); err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		record.RunID = runID.String
		record.Timestamp = parseTime(timestamp)
		records = append(records, record)
	}
	return records, rows.Err()
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}
