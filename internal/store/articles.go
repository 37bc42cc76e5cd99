package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"github.com/spigell/outlet-matcher/internal/outlet"
)

// Articles returns recent articles grouped by outlet id, newest first.
func (s *Store) Articles(ctx context.Context) (map[string][]outlet.Article, error) {
	query, args, err := s.sb.Select("id", "outlet_id", "title", "description", "url", "published_at").
		From("outlet_articles").
		OrderBy("outlet_id", "published_at DESC", "id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build articles query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query articles: %w", err)
	}
	defer rows.Close()

	out := make(map[string][]outlet.Article)
	for rows.Next() {
		var (
			a         outlet.Article
			published string
		)
		if err := rows.Scan(&a.ID, &a.OutletID, &a.Title, &a.Description, &a.URL, &published); err != nil {
			return nil, fmt.Errorf("scan article: %w", err)
		}
		a.PublishedAt = parseTime(published)
		out[a.OutletID] = append(out[a.OutletID], a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate articles: %w", err)
	}

	return out, nil
}

// ReplaceArticles swaps the stored articles of one outlet for the given set.
func (s *Store) ReplaceArticles(ctx context.Context, outletID string, articles []outlet.Article) error {
	if outletID == "" {
		return fmt.Errorf("articles require an outlet id")
	}

	fetchedAt := formatTime(time.Now())
	return s.withTx(ctx, func(tx *sql.Tx) error {
		query, args, err := s.sb.Delete("outlet_articles").Where(sq.Eq{"outlet_id": outletID}).ToSql()
		if err != nil {
			return fmt.Errorf("build articles delete: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("delete articles: %w", err)
		}

		if len(articles) == 0 {
			return nil
		}

		insert := s.sb.Insert("outlet_articles").
			Columns("id", "outlet_id", "title", "description", "url", "published_at", "fetched_at")
		for i := range articles {
			a := &articles[i]
			if a.ID == "" {
				a.ID = uuid.NewString()
			}
			a.OutletID = outletID
			insert = insert.Values(a.ID, outletID, a.Title, a.Description, a.URL, formatTime(a.PublishedAt), fetchedAt)
		}

		query, args, err = insert.ToSql()
		if err != nil {
			return fmt.Errorf("build articles insert: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("insert articles: %w", err)
		}
		return nil
	})
}
