package db

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"transcripts/pkg/domain"
)

// DefaultTable is the SQL table transcripts are mirrored into.
const DefaultTable = "transcript"

var (
	ErrNotConnected = errors.New("database not connected")

	tableNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
)

// sqlColumns is the mirror table layout. url is the key; the rest follows the
// CSV column order with SQL-safe names.
var sqlColumns = []string{
	"url",
	"air_date",
	"show_name",
	"headline",
	"guests",
	"channel_name",
	"program_name",
	"uid",
	"duration",
	"air_year",
	"air_month",
	"air_day",
	"air_time",
	"timezone",
	"path",
	"wordcount",
	"subhead",
	"summary",
	"text",
	"crawled_at",
}

// SQLStore upserts transcripts into a SQL table. The statements only use
// syntax shared by Postgres and SQLite.
type SQLStore struct {
	provider DBProvider
	table    string
}

// NewSQLStore creates a store writing to table through provider. An empty
// table selects DefaultTable.
func NewSQLStore(provider DBProvider, table string) (*SQLStore, error) {
	if table == "" {
		table = DefaultTable
	}
	if !tableNamePattern.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	return &SQLStore{provider: provider, table: table}, nil
}

// EnsureSchema creates the table if it does not exist.
func (s *SQLStore) EnsureSchema(ctx context.Context) error {
	db := s.provider.DB()
	if db == nil {
		return ErrNotConnected
	}

	ddl := fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %s (
  url TEXT PRIMARY KEY,
  air_date TEXT NOT NULL DEFAULT '',
  show_name TEXT NOT NULL DEFAULT '',
  headline TEXT NOT NULL DEFAULT '',
  guests TEXT NOT NULL DEFAULT '',
  channel_name TEXT NOT NULL DEFAULT '',
  program_name TEXT NOT NULL DEFAULT '',
  uid TEXT NOT NULL DEFAULT '',
  duration TEXT NOT NULL DEFAULT '',
  air_year INTEGER,
  air_month INTEGER,
  air_day INTEGER,
  air_time TEXT NOT NULL DEFAULT '',
  timezone TEXT NOT NULL DEFAULT '',
  path TEXT NOT NULL DEFAULT '',
  wordcount INTEGER,
  subhead TEXT NOT NULL DEFAULT '',
  summary TEXT NOT NULL DEFAULT '',
  text TEXT NOT NULL DEFAULT '',
  crawled_at TIMESTAMP
);`, s.table)

	if _, err := db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("create %s table: %w", s.table, err)
	}
	return nil
}

// SaveTranscript inserts rec or overwrites the row with the same URL.
func (s *SQLStore) SaveTranscript(ctx context.Context, rec *domain.Transcript) error {
	db := s.provider.DB()
	if db == nil {
		return ErrNotConnected
	}

	if _, err := db.ExecContext(ctx, s.upsertQuery(), sqlValues(rec)...); err != nil {
		return fmt.Errorf("upsert transcript url=%q: %w", rec.URL, err)
	}
	return nil
}

func (s *SQLStore) upsertQuery() string {
	placeholders := make([]string, len(sqlColumns))
	updates := make([]string, 0, len(sqlColumns)-1)
	for i, col := range sqlColumns {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		if col != "url" {
			updates = append(updates, fmt.Sprintf("%s = excluded.%s", col, col))
		}
	}

	return fmt.Sprintf(`
INSERT INTO %s (%s)
VALUES (%s)
ON CONFLICT (url) DO UPDATE SET %s`,
		s.table,
		strings.Join(sqlColumns, ", "),
		strings.Join(placeholders, ", "),
		strings.Join(updates, ", "))
}

// sqlValues returns rec's fields in sqlColumns order. Date fields of a record
// without a resolved date are NULL.
func sqlValues(rec *domain.Transcript) []any {
	var year, month, day, words any
	if rec.HasDate() {
		year, month, day, words = rec.Year, rec.Month, rec.Day, rec.WordCount
	}

	return []any{
		rec.URL,
		rec.AirDate,
		rec.ShowName,
		rec.Headline,
		rec.Guests,
		rec.Channel,
		rec.Program,
		rec.UID,
		rec.Duration,
		year,
		month,
		day,
		rec.Time,
		rec.Timezone,
		rec.Path,
		words,
		rec.Subhead,
		rec.Summary,
		rec.Text,
		rec.CrawledAt.UTC(),
	}
}

// sqlRow returns rec keyed by mirror column name.
func sqlRow(rec *domain.Transcript) map[string]any {
	values := sqlValues(rec)
	row := make(map[string]any, len(sqlColumns))
	for i, col := range sqlColumns {
		row[col] = values[i]
	}
	return row
}
