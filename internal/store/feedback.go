package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/spigell/outlet-matcher/internal/feedback"
)

// Feedback returns the whole feedback log, oldest first.
func (s *Store) Feedback(ctx context.Context) ([]feedback.Record, error) {
	query, args, err := s.sb.Select("id", "outlet_id", "success", "note", "fields", "created_at").
		From("feedback").
		OrderBy("created_at", "id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build feedback query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query feedback: %w", err)
	}
	defer rows.Close()

	var records []feedback.Record
	for rows.Next() {
		var (
			rec       feedback.Record
			success   int
			fields    string
			createdAt string
		)
		if err := rows.Scan(&rec.ID, &rec.OutletID, &success, &rec.Note, &fields, &createdAt); err != nil {
			return nil, fmt.Errorf("scan feedback: %w", err)
		}
		rec.Success = success != 0
		rec.CreatedAt = parseTime(createdAt)
		if fields != "" {
			if err := json.Unmarshal([]byte(fields), &rec.Fields); err != nil {
				return nil, fmt.Errorf("decode feedback %s fields: %w", rec.ID, err)
			}
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate feedback: %w", err)
	}

	return records, nil
}

// SaveFeedback appends a record, assigning its id and timestamp when unset.
func (s *Store) SaveFeedback(ctx context.Context, rec *feedback.Record) error {
	if rec.OutletID == "" {
		return fmt.Errorf("feedback requires an outlet id")
	}
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	fields := []byte("{}")
	if len(rec.Fields) > 0 {
		var err error
		if fields, err = json.Marshal(rec.Fields); err != nil {
			return fmt.Errorf("encode feedback fields: %w", err)
		}
	}

	query, args, err := s.sb.Insert("feedback").
		Columns("id", "outlet_id", "success", "note", "fields", "created_at").
		Values(rec.ID, rec.OutletID, boolToInt(rec.Success), rec.Note, string(fields), formatTime(rec.CreatedAt)).
		ToSql()
	if err != nil {
		return fmt.Errorf("build feedback insert: %w", err)
	}

	return retryOnBusy(ctx, func() error {
		if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("insert feedback: %w", err)
		}
		return nil
	})
}
