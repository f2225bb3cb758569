package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/christopherklint97/vrcxpredict/internal/analysis"
)

const (
	feedPrefix = "usr"
	feedSuffix = "_feed_online_offline"

	DefaultListLimit   = 200
	DefaultSearchLimit = 50
)

// ValidateTable rejects anything that is not a per-account online/offline
// feed table. Table names are interpolated into SQL, so this is the only
// guard against injection.
func ValidateTable(table string) error {
	if table == "" {
		return fmt.Errorf("%w: no table selected", ErrInvalidTable)
	}
	lower := strings.ToLower(table)
	if !strings.HasPrefix(lower, feedPrefix) || !strings.HasSuffix(lower, feedSuffix) {
		return fmt.Errorf("%w: %q", ErrInvalidTable, table)
	}
	for _, r := range table {
		if !(r == '_' || r >= '0' && r <= '9' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z') {
			return fmt.Errorf("%w: %q contains %q", ErrInvalidTable, table, r)
		}
	}
	return nil
}

// ListTables returns the online/offline feed tables, one per VRChat account
// that VRCX has logged in with.
func (db *DB) ListTables(ctx context.Context) ([]string, error) {
	return db.queryStrings(ctx, "listing tables",
		`SELECT name FROM sqlite_master
		 WHERE type = 'table' AND name LIKE 'usr%\_feed\_online\_offline' ESCAPE '\'
		 ORDER BY name`,
	)
}

// ListDisplayNames returns up to max distinct display names in table.
func (db *DB) ListDisplayNames(ctx context.Context, table string, max int) ([]string, error) {
	if err := ValidateTable(table); err != nil {
		return nil, err
	}
	if max <= 0 {
		max = DefaultListLimit
	}
	return db.queryStrings(ctx, "listing display names",
		`SELECT DISTINCT display_name FROM `+table+`
		 WHERE display_name IS NOT NULL AND display_name <> ''
		 ORDER BY display_name
		 LIMIT ?`,
		max,
	)
}

// SearchDisplayNames returns up to max distinct display names containing
// keyword. An empty keyword matches nothing.
func (db *DB) SearchDisplayNames(ctx context.Context, table, keyword string, max int) ([]string, error) {
	if err := ValidateTable(table); err != nil {
		return nil, err
	}
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return nil, nil
	}
	if max <= 0 {
		max = DefaultSearchLimit
	}
	return db.queryStrings(ctx, "searching display names",
		`SELECT DISTINCT display_name FROM `+table+`
		 WHERE display_name IS NOT NULL AND display_name <> ''
		   AND display_name LIKE ? ESCAPE '\'
		 ORDER BY display_name
		 LIMIT ?`,
		"%"+escapeLike(keyword)+"%", max,
	)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

// ReadUserEvents returns every Online/Offline row for displayName, matched
// case-insensitively, ordered by created_at. Rows are returned raw; parsing
// and filtering happen in the analyzer.
func (db *DB) ReadUserEvents(ctx context.Context, table, displayName string) ([]analysis.RawEvent, error) {
	if err := ValidateTable(table); err != nil {
		return nil, err
	}
	if strings.TrimSpace(displayName) == "" {
		return nil, fmt.Errorf("reading events: display name is empty")
	}

	var events []analysis.RawEvent
	err := db.withRetry(ctx, "reading events", func() error {
		events = events[:0]
		rows, err := db.QueryContext(ctx,
			`SELECT type, created_at FROM `+table+`
			 WHERE display_name = ? COLLATE NOCASE
			 ORDER BY created_at`,
			displayName,
		)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var typ, createdAt *string
			if err := rows.Scan(&typ, &createdAt); err != nil {
				return fmt.Errorf("scanning event: %w", err)
			}
			var e analysis.RawEvent
			if typ != nil {
				e.Type = *typ
			}
			if createdAt != nil {
				e.CreatedAt = *createdAt
			}
			events = append(events, e)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return events, nil
}

// ReadOnlineCreatedAt returns the created_at of every Online row in table,
// across all users.
func (db *DB) ReadOnlineCreatedAt(ctx context.Context, table string) ([]string, error) {
	if err := ValidateTable(table); err != nil {
		return nil, err
	}
	out, err := db.queryStrings(ctx, "reading online events",
		`SELECT created_at FROM `+table+`
		 WHERE type = 'Online'
		 ORDER BY created_at`,
	)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []string{}
	}
	return out, nil
}
