package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/richard-senior/hockey/internal/logger"
)

// execer is satisfied by both *sql.DB and *sql.Tx so the helpers below work inside and
// outside a transaction
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// column is one persisted struct field, described by its tags:
//
//	column    column name, defaults to the lower cased field name
//	dbtype    SQL type, fields without one are not persisted
//	primary   "true" to include the column in the (compound) primary key
//	index     "true" to create a single column index
//	fk        "table.column" foreign key reference
//	fk_delete ON DELETE action, RESTRICT when empty
type column struct {
	index    int
	name     string
	dbType   string
	primary  bool
	indexed  bool
	fk       string
	fkDelete string
}

func columnsOf(t reflect.Type) []column {
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	var cols []column
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() || f.Tag.Get("db") == "-" {
			continue
		}
		dbType := f.Tag.Get("dbtype")
		if dbType == "" {
			continue
		}
		name := f.Tag.Get("column")
		if name == "" {
			name = strings.ToLower(f.Name)
		}
		cols = append(cols, column{
			index:    i,
			name:     name,
			dbType:   dbType,
			primary:  f.Tag.Get("primary") == "true",
			indexed:  f.Tag.Get("index") == "true",
			fk:       f.Tag.Get("fk"),
			fkDelete: f.Tag.Get("fk_delete"),
		})
	}
	return cols
}

// createTableSQL generates CREATE TABLE from the struct tags of obj
func createTableSQL(obj any, table string) string {
	var defs, primaryKeys, foreignKeys []string
	for _, c := range columnsOf(reflect.TypeOf(obj)) {
		dbType := c.dbType
		if c.primary {
			primaryKeys = append(primaryKeys, c.name)
			dbType = strings.TrimSpace(strings.ReplaceAll(dbType, "PRIMARY KEY", ""))
		}
		defs = append(defs, fmt.Sprintf("%s %s", c.name, dbType))

		if ref := strings.Split(c.fk, "."); len(ref) == 2 {
			onDelete := c.fkDelete
			if onDelete == "" {
				onDelete = "RESTRICT"
			}
			foreignKeys = append(foreignKeys, fmt.Sprintf("FOREIGN KEY (%s) REFERENCES %s(%s) ON DELETE %s",
				c.name, ref[0], ref[1], onDelete))
		}
	}
	if len(primaryKeys) > 0 {
		defs = append(defs, fmt.Sprintf("PRIMARY KEY (%s)", strings.Join(primaryKeys, ", ")))
	}
	defs = append(defs, foreignKeys...)
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", table, strings.Join(defs, ", "))
}

func indexSQL(obj any, table string) []string {
	var out []string
	for _, c := range columnsOf(reflect.TypeOf(obj)) {
		if !c.indexed {
			continue
		}
		out = append(out, fmt.Sprintf("CREATE INDEX IF NOT EXISTS idx_%s_%s ON %s(%s)", table, c.name, table, c.name))
	}
	return out
}

// createTable creates the table and its indexes. Index failures are logged, not fatal.
func createTable(ctx context.Context, ex execer, obj any, table string) error {
	query := createTableSQL(obj, table)
	logger.Debug("Creating table with SQL", query)
	if _, err := ex.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to create table %s: %w", table, err)
	}
	for _, q := range indexSQL(obj, table) {
		if _, err := ex.ExecContext(ctx, q); err != nil {
			logger.Warn("Failed to create index", q, err)
		}
	}
	return nil
}

// save inserts obj or, when a row with the same primary key exists, updates it
func save(ctx context.Context, ex execer, obj any, table string) error {
	v := reflect.Indirect(reflect.ValueOf(obj))
	cols := columnsOf(v.Type())

	var where []string
	var keyVals []any
	for _, c := range cols {
		if c.primary {
			where = append(where, c.name+" = ?")
			keyVals = append(keyVals, v.Field(c.index).Interface())
		}
	}
	if len(where) == 0 {
		return fmt.Errorf("table %s has no primary key", table)
	}
	whereClause := strings.Join(where, " AND ")

	var count int
	err := ex.QueryRowContext(ctx, fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE %s", table, whereClause), keyVals...).Scan(&count)
	if err != nil {
		return fmt.Errorf("failed to check existence in %s: %w", table, err)
	}
	if count > 0 {
		return update(ctx, ex, v, cols, table, whereClause, keyVals)
	}
	return insert(ctx, ex, v, cols, table)
}

func insert(ctx context.Context, ex execer, v reflect.Value, cols []column, table string) error {
	names := make([]string, 0, len(cols))
	placeholders := make([]string, 0, len(cols))
	values := make([]any, 0, len(cols))
	for _, c := range cols {
		names = append(names, c.name)
		placeholders = append(placeholders, "?")
		values = append(values, v.Field(c.index).Interface())
	}
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", table, strings.Join(names, ", "), strings.Join(placeholders, ", "))
	if _, err := ex.ExecContext(ctx, query, values...); err != nil {
		return fmt.Errorf("failed to insert into %s: %w", table, err)
	}
	return nil
}

func update(ctx context.Context, ex execer, v reflect.Value, cols []column, table, whereClause string, keyVals []any) error {
	var set []string
	var values []any
	for _, c := range cols {
		if c.primary {
			continue
		}
		set = append(set, c.name+" = ?")
		values = append(values, v.Field(c.index).Interface())
	}
	if len(set) == 0 {
		return nil
	}
	values = append(values, keyVals...)
	query := fmt.Sprintf("UPDATE %s SET %s WHERE %s", table, strings.Join(set, ", "), whereClause)
	if _, err := ex.ExecContext(ctx, query, values...); err != nil {
		return fmt.Errorf("failed to update %s: %w", table, err)
	}
	return nil
}

// findWhere selects every row of table matching where into a slice of T. An empty where
// selects the whole table.
func findWhere[T any](ctx context.Context, ex execer, table, where, orderBy string, args ...any) ([]T, error) {
	var zero T
	cols := columnsOf(reflect.TypeOf(zero))
	names := make([]string, 0, len(cols))
	for _, c := range cols {
		names = append(names, c.name)
	}

	query := fmt.Sprintf("SELECT %s FROM %s", strings.Join(names, ", "), table)
	if where != "" {
		query += " WHERE " + where
	}
	if orderBy != "" {
		query += " ORDER BY " + orderBy
	}
	logger.Debug("FindWhere SQL", query)

	rows, err := ex.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", table, err)
	}
	defer rows.Close()

	var out []T
	for rows.Next() {
		var item T
		v := reflect.ValueOf(&item).Elem()
		dest := make([]any, 0, len(cols))
		for _, c := range cols {
			dest = append(dest, v.Field(c.index).Addr().Interface())
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("failed to scan row from %s: %w", table, err)
		}
		out = append(out, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows from %s: %w", table, err)
	}
	return out, nil
}

// inTx runs fn inside a transaction, rolling back on any error
func inTx(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			logger.Warn("Rollback failed", rbErr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
