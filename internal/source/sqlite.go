package source

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sort"

	"github.com/Masterminds/squirrel"
	"github.com/sha1n/mcp-codemaster-server/internal/codes"

	_ "modernc.org/sqlite"
)

const (
	tableName    = "code_name"
	tableOption  = "code_option"
	tablePattern = "code_pattern"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS code_name (
		codeset_id TEXT NOT NULL,
		value TEXT NOT NULL,
		locale TEXT NOT NULL,
		seq INTEGER NOT NULL,
		sort_order INTEGER,
		name TEXT NOT NULL DEFAULT '',
		short_name TEXT NOT NULL DEFAULT '',
		PRIMARY KEY (codeset_id, value, locale)
	)`,
	`CREATE TABLE IF NOT EXISTS code_option (
		codeset_id TEXT NOT NULL,
		value TEXT NOT NULL,
		locale TEXT NOT NULL,
		column_name TEXT NOT NULL,
		text TEXT NOT NULL DEFAULT '',
		PRIMARY KEY (codeset_id, value, locale, column_name)
	)`,
	`CREATE TABLE IF NOT EXISTS code_pattern (
		codeset_id TEXT NOT NULL,
		value TEXT NOT NULL,
		pattern TEXT NOT NULL,
		member INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (codeset_id, value, pattern)
	)`,
	`CREATE INDEX IF NOT EXISTS code_name_seq ON code_name (codeset_id, seq)`,
}

// SQLiteLoader reads code master data from a SQLite database with one table
// for names, one for option columns and one for pattern flags.
type SQLiteLoader struct {
	db     *sql.DB
	sq     squirrel.StatementBuilderType
	logger *slog.Logger
}

// OpenSQLite opens (creating if needed) the database at path and ensures the schema.
func OpenSQLite(ctx context.Context, path string, logger *slog.Logger) (*SQLiteLoader, error) {
	if logger == nil {
		logger = slog.Default()
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	pragmas := []string{
		"PRAGMA busy_timeout = 5000",
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
	}
	for _, pragma := range pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to execute %s: %w", pragma, err)
		}
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	l := &SQLiteLoader{
		db:     db,
		sq:     squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question),
		logger: logger,
	}
	if err := l.CreateSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return l, nil
}

// CreateSchema creates the code tables if they do not exist.
func (l *SQLiteLoader) CreateSchema(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := l.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}
	return nil
}

// Close closes the database.
func (l *SQLiteLoader) Close() error {
	return l.db.Close()
}

// Load returns the rows of one codeset.
func (l *SQLiteLoader) Load(ctx context.Context, codesetID string) ([]codes.Row, error) {
	return l.load(ctx, squirrel.Eq{"codeset_id": codesetID})
}

// LoadAll returns the rows of every codeset.
func (l *SQLiteLoader) LoadAll(ctx context.Context) ([]codes.Row, error) {
	return l.load(ctx, nil)
}

type rowKey struct {
	codesetID string
	value     string
	locale    string
}

type valueKey struct {
	codesetID string
	value     string
}

func (l *SQLiteLoader) load(ctx context.Context, where squirrel.Eq) ([]codes.Row, error) {
	rows, index, err := l.loadNames(ctx, where)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	if err := l.loadOptions(ctx, where, rows, index); err != nil {
		return nil, err
	}
	if err := l.loadPatterns(ctx, where, rows); err != nil {
		return nil, err
	}
	return rows, nil
}

func (l *SQLiteLoader) loadNames(ctx context.Context, where squirrel.Eq) ([]codes.Row, map[rowKey]int, error) {
	q := l.sq.Select("codeset_id", "value", "locale", "sort_order", "name", "short_name").
		From(tableName).
		OrderBy("codeset_id", "seq")
	if len(where) > 0 {
		q = q.Where(where)
	}
	query, args, err := q.ToSql()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build name query: %w", err)
	}

	result, err := l.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to query names: %w", err)
	}
	defer func() { _ = result.Close() }()

	var rows []codes.Row
	index := make(map[rowKey]int)
	for result.Next() {
		var (
			row       codes.Row
			sortOrder sql.NullInt64
		)
		if err := result.Scan(&row.CodesetID, &row.Value, &row.Locale, &sortOrder, &row.Name, &row.ShortName); err != nil {
			return nil, nil, fmt.Errorf("failed to scan name: %w", err)
		}
		if sortOrder.Valid {
			order := int(sortOrder.Int64)
			row.SortOrder = &order
		}
		index[rowKey{row.CodesetID, row.Value, row.Locale}] = len(rows)
		rows = append(rows, row)
	}
	if err := result.Err(); err != nil {
		return nil, nil, fmt.Errorf("failed to read names: %w", err)
	}
	return rows, index, nil
}

func (l *SQLiteLoader) loadOptions(ctx context.Context, where squirrel.Eq, rows []codes.Row, index map[rowKey]int) error {
	q := l.sq.Select("codeset_id", "value", "locale", "column_name", "text").From(tableOption)
	if len(where) > 0 {
		q = q.Where(where)
	}
	query, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("failed to build option query: %w", err)
	}

	result, err := l.db.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to query options: %w", err)
	}
	defer func() { _ = result.Close() }()

	for result.Next() {
		var key rowKey
		var column, text string
		if err := result.Scan(&key.codesetID, &key.value, &key.locale, &column, &text); err != nil {
			return fmt.Errorf("failed to scan option: %w", err)
		}
		i, ok := index[key]
		if !ok {
			l.logger.WarnContext(ctx, "Option without name row", "codeset", key.codesetID, "value", key.value, "locale", key.locale, "column", column)
			continue
		}
		if rows[i].Options == nil {
			rows[i].Options = make(map[string]string)
		}
		rows[i].Options[column] = text
	}
	return result.Err()
}

func (l *SQLiteLoader) loadPatterns(ctx context.Context, where squirrel.Eq, rows []codes.Row) error {
	q := l.sq.Select("codeset_id", "value", "pattern", "member").From(tablePattern)
	if len(where) > 0 {
		q = q.Where(where)
	}
	query, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("failed to build pattern query: %w", err)
	}

	result, err := l.db.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to query patterns: %w", err)
	}
	defer func() { _ = result.Close() }()

	flags := make(map[valueKey]map[string]bool)
	for result.Next() {
		var key valueKey
		var pattern string
		var member bool
		if err := result.Scan(&key.codesetID, &key.value, &pattern, &member); err != nil {
			return fmt.Errorf("failed to scan pattern: %w", err)
		}
		if flags[key] == nil {
			flags[key] = make(map[string]bool)
		}
		flags[key][pattern] = member
	}
	if err := result.Err(); err != nil {
		return fmt.Errorf("failed to read patterns: %w", err)
	}

	for i := range rows {
		rows[i].Patterns = flags[valueKey{rows[i].CodesetID, rows[i].Value}]
	}
	return nil
}

// Import replaces all code data with the rows in one transaction. Row order
// becomes the insertion order of the values.
func (l *SQLiteLoader) Import(ctx context.Context, rows []codes.Row) error {
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin import: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, table := range []string{tableName, tableOption, tablePattern} {
		query, args, err := l.sq.Delete(table).ToSql()
		if err != nil {
			return fmt.Errorf("failed to build delete: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}

	patterns := make(map[valueKey]map[string]bool)
	var order []valueKey
	for seq, row := range rows {
		var sortOrder any
		if row.SortOrder != nil {
			sortOrder = *row.SortOrder
		}
		if err := l.exec(ctx, tx, l.sq.Insert(tableName).
			Columns("codeset_id", "value", "locale", "seq", "sort_order", "name", "short_name").
			Values(row.CodesetID, row.Value, row.Locale, seq, sortOrder, row.Name, row.ShortName)); err != nil {
			return fmt.Errorf("failed to insert %s/%s/%s: %w", row.CodesetID, row.Value, row.Locale, err)
		}

		for _, column := range sortedOptionColumns(row.Options) {
			if err := l.exec(ctx, tx, l.sq.Insert(tableOption).
				Columns("codeset_id", "value", "locale", "column_name", "text").
				Values(row.CodesetID, row.Value, row.Locale, column, row.Options[column])); err != nil {
				return fmt.Errorf("failed to insert option %s of %s/%s: %w", column, row.CodesetID, row.Value, err)
			}
		}

		key := valueKey{row.CodesetID, row.Value}
		if _, ok := patterns[key]; !ok {
			patterns[key] = make(map[string]bool)
			order = append(order, key)
		}
		for pattern, member := range row.Patterns {
			patterns[key][pattern] = patterns[key][pattern] || member
		}
	}

	for _, key := range order {
		for pattern, member := range patterns[key] {
			if err := l.exec(ctx, tx, l.sq.Insert(tablePattern).
				Columns("codeset_id", "value", "pattern", "member").
				Values(key.codesetID, key.value, pattern, member)); err != nil {
				return fmt.Errorf("failed to insert pattern %s of %s/%s: %w", pattern, key.codesetID, key.value, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit import: %w", err)
	}
	l.logger.InfoContext(ctx, "Code data imported", "rows", len(rows), "values", len(order))
	return nil
}

func (l *SQLiteLoader) exec(ctx context.Context, tx *sql.Tx, stmt squirrel.Sqlizer) error {
	query, args, err := stmt.ToSql()
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, query, args...)
	return err
}

func sortedOptionColumns(options map[string]string) []string {
	columns := make([]string, 0, len(options))
	for column := range options {
		columns = append(columns, column)
	}
	sort.Strings(columns)
	return columns
}
