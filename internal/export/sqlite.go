package export

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"time"

	_ "modernc.org/sqlite"

	"covidmap/internal/models"
)

// ErrInvalidTableName is returned for table names that are not plain identifiers.
var ErrInvalidTableName = errors.New("invalid table name")

var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// SQLiteSink stores the latest report in a single SQLite table.
type SQLiteSink struct {
	db    *sql.DB
	table string
}

// OpenSQLite opens (creating if needed) the database at path.
func OpenSQLite(path, table string) (*SQLiteSink, error) {
	if !identifierPattern.MatchString(table) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidTableName, table)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	db.SetMaxOpenConns(1)

	return &SQLiteSink{db: db, table: table}, nil
}

// Close releases the database handle.
func (s *SQLiteSink) Close() error {
	return s.db.Close()
}

// Export drops and recreates the table, then inserts every row of report in one transaction.
func (s *SQLiteSink) Export(ctx context.Context, report *models.Report) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	stmts := []string{
		fmt.Sprintf(`DROP TABLE IF EXISTS "%s"`, s.table),
		fmt.Sprintf(`CREATE TABLE "%s" (
			country_region TEXT PRIMARY KEY,
			confirmed INTEGER NOT NULL,
			deaths INTEGER NOT NULL,
			recovered INTEGER NOT NULL,
			active INTEGER NOT NULL,
			iso_alpha TEXT NOT NULL,
			hover_text TEXT NOT NULL,
			metric TEXT NOT NULL,
			reporting_date TEXT NOT NULL,
			run_id TEXT NOT NULL
		)`, s.table),
	}

	for _, stmt := range stmts {
		if _, err = tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("prepare table %s: %w", s.table, err)
		}
	}

	insert, err := tx.PrepareContext(ctx, fmt.Sprintf(
		`INSERT INTO "%s" (country_region, confirmed, deaths, recovered, active, iso_alpha, hover_text, metric, reporting_date, run_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, s.table))
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}

	defer func() {
		_ = insert.Close()
	}()

	date := report.Date.Format(time.DateOnly)

	for _, row := range report.Rows {
		_, err = insert.ExecContext(ctx,
			row.CountryRegion,
			row.Counts.Confirmed,
			row.Counts.Deaths,
			row.Counts.Recovered,
			row.Counts.Active,
			row.ISOAlpha,
			row.HoverText,
			string(report.Metric),
			date,
			report.RunID,
		)
		if err != nil {
			return fmt.Errorf("insert %s: %w", row.CountryRegion, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	return nil
}

// Rows reads back the stored rows ordered by country.
func (s *SQLiteSink) Rows(ctx context.Context) ([]models.JoinedRow, error) {
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(
		`SELECT country_region, confirmed, deaths, recovered, active, iso_alpha, hover_text FROM "%s" ORDER BY country_region`, s.table))
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", s.table, err)
	}

	defer func() {
		_ = rows.Close()
	}()

	var out []models.JoinedRow

	for rows.Next() {
		var r models.JoinedRow
		if err := rows.Scan(&r.CountryRegion, &r.Counts.Confirmed, &r.Counts.Deaths, &r.Counts.Recovered,
			&r.Counts.Active, &r.ISOAlpha, &r.HoverText); err != nil {
			return nil, fmt.Errorf("scan %s: %w", s.table, err)
		}

		r.Country = r.CountryRegion
		out = append(out, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s: %w", s.table, err)
	}

	return out, nil
}
