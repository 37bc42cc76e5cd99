package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const topOutletsSeparator = "\n"

// Pitch is a submitted pitch with a summary of what it matched.
type Pitch struct {
	ID             string    `json:"id"`
	Abstract       string    `json:"abstract"`
	Industry       string    `json:"industry"`
	Specialization string    `json:"specialization,omitempty"`
	MatchesFound   int       `json:"matches_found"`
	TopOutlets     []string  `json:"top_outlets,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

func (s *Store) SavePitch(ctx context.Context, p *Pitch) error {
	if strings.TrimSpace(p.Abstract) == "" {
		return fmt.Errorf("pitch abstract is empty")
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}

	query, args, err := s.sb.Insert("pitches").
		Columns("id", "abstract", "industry", "specialization", "matches_found", "top_outlets", "created_at").
		Values(p.ID, p.Abstract, p.Industry, p.Specialization, p.MatchesFound,
			strings.Join(p.TopOutlets, topOutletsSeparator), formatTime(p.CreatedAt)).
		ToSql()
	if err != nil {
		return fmt.Errorf("build pitch insert: %w", err)
	}

	return retryOnBusy(ctx, func() error {
		if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("insert pitch: %w", err)
		}
		return nil
	})
}

// Pitches returns the most recent pitches first. A non-positive limit returns all.
func (s *Store) Pitches(ctx context.Context, limit int) ([]Pitch, error) {
	builder := s.sb.Select("id", "abstract", "industry", "specialization", "matches_found", "top_outlets", "created_at").
		From("pitches").
		OrderBy("created_at DESC", "id")
	if limit > 0 {
		builder = builder.Limit(uint64(limit))
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build pitches query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query pitches: %w", err)
	}
	defer rows.Close()

	var pitches []Pitch
	for rows.Next() {
		var (
			p          Pitch
			topOutlets string
			createdAt  string
		)
		if err := rows.Scan(&p.ID, &p.Abstract, &p.Industry, &p.Specialization, &p.MatchesFound, &topOutlets, &createdAt); err != nil {
			return nil, fmt.Errorf("scan pitch: %w", err)
		}
		if topOutlets != "" {
			p.TopOutlets = strings.Split(topOutlets, topOutletsSeparator)
		}
		p.CreatedAt = parseTime(createdAt)
		pitches = append(pitches, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pitches: %w", err)
	}

	return pitches, nil
}
