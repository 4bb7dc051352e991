// Package sqlstore implements the storage interfaces on database/sql for both
// the SQLite and PostgreSQL backends. Queries are written with "?"
// placeholders and rebound per dialect.
package sqlstore

import (
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	apperrors "github.com/julianstephens/habitguard/internal/errors"
	"github.com/julianstephens/habitguard/internal/migration"
	"github.com/julianstephens/habitguard/internal/models"
	"github.com/julianstephens/habitguard/internal/storage"
)

// ExportedTables lists the application tables in dependency order
var ExportedTables = []string{"settings", "items", "log_entries", "reward_rules", "reward_grants"}

type querier interface {
	Exec(query string, args ...any) (sql.Result, error)
	Query(query string, args ...any) (*sql.Rows, error)
	QueryRow(query string, args ...any) *sql.Row
}

type Store struct {
	db      *sql.DB
	q       querier
	dialect migration.Dialect
	inTx    bool
}

func New(db *sql.DB, dialect migration.Dialect) *Store {
	return &Store{db: db, q: db, dialect: dialect}
}

// WithTx runs fn against a copy of the store bound to a single transaction.
// Nested calls reuse the outer transaction.
func (s *Store) WithTx(fn func(storage.Tx) error) error {
	if s.inTx {
		return fn(s)
	}

	sqlTx, err := s.db.Begin()
	if err != nil {
		return apperrors.WrapStore("begin transaction", err)
	}
	defer sqlTx.Rollback()

	txStore := &Store{db: s.db, q: sqlTx, dialect: s.dialect, inTx: true}
	if err := fn(txStore); err != nil {
		return err
	}

	if err := sqlTx.Commit(); err != nil {
		return apperrors.WrapStore("commit transaction", err)
	}
	return nil
}

// bind rewrites "?" placeholders into "$n" for PostgreSQL
func (s *Store) bind(query string) string {
	if s.dialect != migration.Postgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (s *Store) exec(query string, args ...any) (sql.Result, error) {
	return s.q.Exec(s.bind(query), args...)
}

func (s *Store) query(query string, args ...any) (*sql.Rows, error) {
	return s.q.Query(s.bind(query), args...)
}

func (s *Store) queryRow(query string, args ...any) *sql.Row {
	return s.q.QueryRow(s.bind(query), args...)
}

// execOne runs a statement that must touch at least one row
func (s *Store) execOne(op, kind, id, query string, args ...any) error {
	result, err := s.exec(query, args...)
	if err != nil {
		return apperrors.WrapStore(op, err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return apperrors.WrapStore(op, err)
	}
	if rows == 0 {
		return apperrors.NotFound(kind, id)
	}
	return nil
}

// scanErr maps sql.ErrNoRows to ErrNotFound and wraps everything else
func scanErr(op, kind, id string, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return apperrors.NotFound(kind, id)
	}
	return apperrors.WrapStore(op, err)
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

func stringArgs(ids []string) []any {
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return args
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func formatTime(t time.Time) string {
	return t.Format(time.RFC3339)
}

func nullTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: formatTime(*t), Valid: true}
}

func parseTime(field, value string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse %s: %w", field, err)
	}
	return t, nil
}

func parseNullTime(field string, value sql.NullString) (*time.Time, error) {
	if !value.Valid {
		return nil, nil
	}
	t, err := parseTime(field, value.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// Settings

func (s *Store) GetSettings() (models.Settings, error) {
	rows, err := s.query("SELECT key, value FROM settings")
	if err != nil {
		return models.Settings{}, apperrors.WrapStore("get settings", err)
	}
	defer rows.Close()

	data := make(map[string]string)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return models.Settings{}, apperrors.WrapStore("get settings", err)
		}
		data[key] = value
	}
	if err := rows.Err(); err != nil {
		return models.Settings{}, apperrors.WrapStore("get settings", err)
	}
	if len(data) == 0 {
		return models.Settings{}, apperrors.NotFound("settings", "all")
	}

	settings, err := models.MapToSettings(data)
	if err != nil {
		return models.Settings{}, err
	}
	models.ApplyDefaultSettings(&settings)
	return settings, nil
}

func (s *Store) SaveSettings(settings models.Settings) error {
	for key, value := range models.SettingsToMap(settings) {
		if _, err := s.exec(`
			INSERT INTO settings (key, value) VALUES (?, ?)
			ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value); err != nil {
			return apperrors.WrapStore("save settings", err)
		}
	}
	return nil
}

// Export

func (s *Store) ExportTables() (map[string][]map[string]any, error) {
	out := make(map[string][]map[string]any, len(ExportedTables))
	for _, table := range ExportedTables {
		rows, err := s.dumpTable(table)
		if err != nil {
			return nil, apperrors.WrapStore("export "+table, err)
		}
		out[table] = rows
	}
	return out, nil
}

func (s *Store) dumpTable(table string) ([]map[string]any, error) {
	rows, err := s.query("SELECT * FROM " + table)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	result := []map[string]any{}
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		row := make(map[string]any, len(cols))
		for i, col := range cols {
			if b, ok := values[i].([]byte); ok {
				row[col] = string(b)
				continue
			}
			row[col] = values[i]
		}
		result = append(result, row)
	}
	return result, rows.Err()
}
