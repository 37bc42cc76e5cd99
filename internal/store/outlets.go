package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"github.com/spigell/outlet-matcher/internal/outlet"
)

// outletNamespace derives stable ids for outlets imported without one, so
// re-importing a catalog updates rows instead of duplicating them.
var outletNamespace = uuid.MustParse("6f1d2c4e-5b7a-4c1e-9f3d-2a8b7c6d5e4f")

var outletColumns = []string{
	"id", "name", "url", "editor_contact", "keywords", "audience", "section_name",
	"guidelines", "pitch_tips", "prestige", "ai_partnered", "feed_url",
}

// OutletID returns the id an outlet is stored under.
func OutletID(o *outlet.Outlet) string {
	if o.ID != "" {
		return o.ID
	}
	return uuid.NewSHA1(outletNamespace, []byte(strings.ToLower(strings.TrimSpace(o.Name)))).String()
}

// Outlets returns the full catalog ordered by name. Rows are decoded through
// the catalog record format shared with file imports.
func (s *Store) Outlets(ctx context.Context) (*outlet.Outlets, error) {
	query, args, err := s.sb.Select(outletColumns...).From("outlets").OrderBy("name", "id").ToSql()
	if err != nil {
		return nil, fmt.Errorf("build outlets query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query outlets: %w", err)
	}
	defer rows.Close()

	var records []map[string]any
	for rows.Next() {
		var (
			id, name, url, contact, keywords, audience, section string
			guidelines, tips, prestige, feedURL                 string
			aiPartnered                                         int
		)
		if err := rows.Scan(&id, &name, &url, &contact, &keywords, &audience, &section,
			&guidelines, &tips, &prestige, &aiPartnered, &feedURL); err != nil {
			return nil, fmt.Errorf("scan outlet: %w", err)
		}
		records = append(records, map[string]any{
			"id":             id,
			"Outlet Name":    name,
			"URL":            url,
			"Editor Contact": contact,
			"Keywords":       keywords,
			"Audience":       audience,
			"Section Name":   section,
			"Guidelines":     guidelines,
			"Pitch Tips":     tips,
			"Prestige":       prestige,
			"AI Partnered":   aiPartnered,
			"Feed URL":       feedURL,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate outlets: %w", err)
	}

	return outlet.Decode(records)
}

// UpsertOutlets inserts or updates outlets by id. Outlets without an id get a
// stable one derived from their name, written back to the item.
func (s *Store) UpsertOutlets(ctx context.Context, outlets *outlet.Outlets) (int, error) {
	if outlets.Len() == 0 {
		return 0, nil
	}

	now := formatTime(time.Now())
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		for _, o := range outlets.Items {
			o.ID = OutletID(o)

			query, args, err := s.sb.Insert("outlets").
				Columns(append(outletColumns, "created_at")...).
				Values(o.ID, o.Name, o.URL, o.EditorContact, o.Keywords, o.Audience, o.SectionName,
					o.Guidelines, o.PitchTips, o.Prestige, boolToInt(o.AIPartnered), o.FeedURL, now).
				Suffix(upsertSuffix(outletColumns[1:])).
				ToSql()
			if err != nil {
				return fmt.Errorf("build outlet upsert: %w", err)
			}
			if _, err := tx.ExecContext(ctx, query, args...); err != nil {
				return fmt.Errorf("upsert outlet %q: %w", o.Name, err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	return outlets.Len(), nil
}

// DeleteOutlet removes an outlet together with its articles. Feedback is kept.
func (s *Store) DeleteOutlet(ctx context.Context, id string) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		for _, table := range []string{"outlet_articles", "outlets"} {
			column := "outlet_id"
			if table == "outlets" {
				column = "id"
			}
			query, args, err := s.sb.Delete(table).Where(sq.Eq{column: id}).ToSql()
			if err != nil {
				return fmt.Errorf("build delete from %s: %w", table, err)
			}
			if _, err := tx.ExecContext(ctx, query, args...); err != nil {
				return fmt.Errorf("delete from %s: %w", table, err)
			}
		}
		return nil
	})
}

func upsertSuffix(columns []string) string {
	sets := make([]string, 0, len(columns))
	for _, c := range columns {
		sets = append(sets, fmt.Sprintf("%s = excluded.%s", c, c))
	}
	return "ON CONFLICT (id) DO UPDATE SET " + strings.Join(sets, ", ")
}
