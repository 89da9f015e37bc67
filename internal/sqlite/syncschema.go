package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"github.com/myrjola/interrogation/internal/errors"
	"github.com/myrjola/interrogation/internal/random"
)

// querier is implemented by *sql.Tx and *sql.Conn.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// ErrColumnNotAddable is returned when a column of the schema cannot be added to an existing table with ALTER TABLE.
var ErrColumnNotAddable = errors.NewSentinel("column cannot be added to an existing table")

// migrateTo brings the db schema up to the target schema definition without losing data.
//
// The database may be shared with other programs, so the migration only adds what the definition declares:
//
// 1. Creates tables that do not exist yet,
// 2. Adds missing columns to existing tables with ALTER TABLE ADD COLUMN,
// 3. Creates missing indexes and triggers and replaces the ones whose definition changed.
//
// Tables, columns, indexes and triggers the definition does not mention are left alone, and so are other differences
// in existing table definitions such as constraints.
//
// Inspired by https://david.rothlis.net/declarative-schema-migration-for-sqlite/
func (db *Database) migrateTo(ctx context.Context, schemaDefinition string) (err error) {
	// Create schema against a temporary database so that we know what has changed.
	var (
		randomID     string
		dbNameLength uint = 20
	)
	if randomID, err = random.Letters(dbNameLength); err != nil {
		return errors.Wrap(err, "generate random ID")
	}
	schemaTargetDataSourceName := fmt.Sprintf("file:%s?mode=memory&cache=shared", randomID)
	schemaTargetDatabase, err := sql.Open("sqlite3", schemaTargetDataSourceName)
	if err != nil {
		return errors.Wrap(err, "open schema target database")
	}
	// The in-memory database lives as long as one connection to it is open.
	schemaTargetDatabase.SetMaxOpenConns(1)
	schemaTargetDatabase.SetConnMaxLifetime(0)
	defer func() {
		if closeErr := schemaTargetDatabase.Close(); closeErr != nil {
			closeErr = errors.Wrap(closeErr, "close schema target database")
			db.logger.LogAttrs(ctx, slog.LevelError, "failed to close schema target database",
				errors.SlogError(closeErr))
		}
	}()
	if strings.TrimSpace(schemaDefinition) != "" {
		if _, err = schemaTargetDatabase.ExecContext(ctx, schemaDefinition); err != nil {
			return errors.Wrap(err, "migrate schema target database")
		}
	} else if err = schemaTargetDatabase.PingContext(ctx); err != nil {
		return errors.Wrap(err, "open schema target database")
	}

	// ATTACH and PRAGMA foreign_keys are no-ops or errors inside a transaction, so they run on a dedicated connection.
	var conn *sql.Conn
	if conn, err = db.ReadWrite.Conn(ctx); err != nil {
		return errors.Wrap(err, "acquire connection")
	}
	defer func() {
		if closeErr := conn.Close(); closeErr != nil {
			db.logger.LogAttrs(ctx, slog.LevelError, "failed to release connection",
				errors.SlogError(errors.Wrap(closeErr, "close connection")))
		}
	}()

	// Foreign keys are checked once before commit instead of statement by statement.
	if _, err = conn.ExecContext(ctx, "PRAGMA foreign_keys = OFF"); err != nil {
		return errors.Wrap(err, "disable foreign key validation")
	}
	defer func() {
		if _, fkErr := conn.ExecContext(ctx, "PRAGMA foreign_keys = ON"); fkErr != nil {
			err = errors.Join(err, errors.Wrap(fkErr, "re-enable foreign key validation"))
		}
	}()

	if _, err = conn.ExecContext(ctx, "ATTACH DATABASE ? AS schemaTarget", schemaTargetDataSourceName); err != nil {
		return errors.Wrap(err, "attach schema target database")
	}
	defer func() {
		if _, detachErr := conn.ExecContext(ctx, "DETACH DATABASE schemaTarget"); detachErr != nil {
			db.logger.LogAttrs(ctx, slog.LevelError, "failed to detach schema target database",
				errors.SlogError(errors.Wrap(detachErr, "detach")))
		}
	}()

	var tx *sql.Tx
	if tx, err = conn.BeginTx(ctx, nil); err != nil {
		return errors.Wrap(err, "start transaction")
	}
	defer func() {
		if rollbackErr := tx.Rollback(); rollbackErr != nil && !errors.Is(rollbackErr, sql.ErrTxDone) {
			db.logger.LogAttrs(ctx, slog.LevelError, "failed to rollback transaction",
				errors.SlogError(errors.Wrap(rollbackErr, "rollback")))
		}
	}()

	if err = db.migrateTables(ctx, tx); err != nil {
		return errors.Wrap(err, "migrate tables")
	}
	if err = db.migrateIndexesAndTriggers(ctx, tx); err != nil {
		return errors.Wrap(err, "migrate indexes and triggers")
	}

	var violations []string
	if violations, err = db.queryStringSlice(ctx, tx, `SELECT "table" FROM pragma_foreign_key_check`); err != nil {
		return errors.Wrap(err, "foreign key check")
	}
	if len(violations) > 0 {
		return errors.New("foreign key violations", slog.Any("tables", violations))
	}

	if err = tx.Commit(); err != nil {
		return errors.Wrap(err, "commit transaction")
	}
	return nil
}

// migrateTables creates missing tables and adds missing columns to existing ones.
func (db *Database) migrateTables(ctx context.Context, tx querier) error {
	var err error

	var newTableSQLs []string
	if newTableSQLs, err = db.queryNewTableSQLs(ctx, tx); err != nil {
		return errors.Wrap(err, "query new table SQLs")
	}
	for _, newTableSQL := range newTableSQLs {
		db.logger.LogAttrs(ctx, slog.LevelInfo, "creating table", slog.String("query", newTableSQL))
		if _, err = tx.ExecContext(ctx, newTableSQL); err != nil {
			return errors.Wrap(err, "create table")
		}
	}

	var columns []missingColumn
	if columns, err = db.queryMissingColumns(ctx, tx); err != nil {
		return errors.Wrap(err, "query missing columns")
	}
	for _, column := range columns {
		var definition string
		if definition, err = column.definition(); err != nil {
			return err
		}
		addSQL := fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s;", quote(column.table), definition)
		db.logger.LogAttrs(ctx, slog.LevelInfo, "adding column", slog.String("query", addSQL))
		if _, err = tx.ExecContext(ctx, addSQL); err != nil {
			return errors.Wrap(err, "add column", slog.String("query", addSQL))
		}
	}

	var changedTables []changedTable
	if changedTables, err = db.queryChangedTables(ctx, tx); err != nil {
		return errors.Wrap(err, "query changed tables")
	}
	for _, table := range changedTables {
		db.logger.LogAttrs(ctx, slog.LevelInfo, "keeping existing table definition",
			slog.String("table", table.name),
			slog.String("current_sql", table.currentSQL),
			slog.String("new_sql", table.newSQL))
	}
	return nil
}

type missingColumn struct {
	table        string
	name         string
	columnType   string
	notNull      bool
	defaultValue sql.NullString
	primaryKey   bool
}

// definition is the column definition for ALTER TABLE ADD COLUMN. It carries the type, NOT NULL and DEFAULT.
func (c missingColumn) definition() (string, error) {
	attrs := []slog.Attr{slog.String("table", c.table), slog.String("column", c.name)}
	if c.primaryKey {
		return "", errors.Wrap(ErrColumnNotAddable, "primary key column", attrs...)
	}
	if c.notNull && !c.defaultValue.Valid {
		return "", errors.Wrap(ErrColumnNotAddable, "not null column without default", attrs...)
	}
	definition := quote(c.name)
	if c.columnType != "" {
		definition += " " + c.columnType
	}
	if c.notNull {
		definition += " NOT NULL"
	}
	if c.defaultValue.Valid {
		definition += " DEFAULT " + c.defaultValue.String
	}
	return definition, nil
}

type schemaObject struct {
	objectType string
	name       string
	sql        string
}

// migrateIndexesAndTriggers creates the indexes and triggers of the target schema that the current schema lacks and
// replaces the ones whose definition changed.
func (db *Database) migrateIndexesAndTriggers(ctx context.Context, tx querier) error {
	var (
		changed []schemaObject
		missing []schemaObject
		err     error
	)
	if changed, err = db.querySchemaObjects(ctx, tx, `SELECT current.type, current.name, current.sql
FROM sqlite_schema AS current
JOIN schemaTarget.sqlite_schema AS target ON current.name=target.name AND current.type=target.type
WHERE current.type IN ('index', 'trigger') AND current.sql IS NOT NULL AND current.sql <> target.sql;`); err != nil {
		return errors.Wrap(err, "query changed objects")
	}
	for _, object := range changed {
		db.logger.LogAttrs(ctx, slog.LevelInfo, "dropping "+object.objectType, slog.String("name", object.name))
		dropSQL := fmt.Sprintf("DROP %s %s;", strings.ToUpper(object.objectType), quote(object.name))
		if _, err = tx.ExecContext(ctx, dropSQL); err != nil {
			return errors.Wrap(err, "drop", slog.String("query", dropSQL))
		}
	}

	if missing, err = db.querySchemaObjects(ctx, tx, `SELECT target.type, target.name, target.sql
FROM schemaTarget.sqlite_schema AS target
LEFT JOIN sqlite_schema AS current ON current.name=target.name AND current.type=target.type
WHERE target.type IN ('index', 'trigger') AND target.sql IS NOT NULL AND current.type IS NULL;`); err != nil {
		return errors.Wrap(err, "query missing objects")
	}
	for _, object := range missing {
		db.logger.LogAttrs(ctx, slog.LevelInfo, "creating "+object.objectType, slog.String("query", object.sql))
		if _, err = tx.ExecContext(ctx, object.sql); err != nil {
			return errors.Wrap(err, "create", slog.String("query", object.sql))
		}
	}
	return nil
}

func (db *Database) querySchemaObjects(ctx context.Context, tx querier, query string) ([]schemaObject, error) {
	var (
		objects []schemaObject
		rows    *sql.Rows
		err     error
	)
	if rows, err = tx.QueryContext(ctx, query); err != nil {
		return nil, errors.Wrap(err, "query")
	}
	defer db.closeRows(ctx, rows)
	for rows.Next() {
		var object schemaObject
		if err = rows.Scan(&object.objectType, &object.name, &object.sql); err != nil {
			return nil, errors.Wrap(err, "scan schema object")
		}
		objects = append(objects, object)
	}
	if err = rows.Err(); err != nil {
		return nil, errors.Wrap(err, "rows error")
	}
	return objects, nil
}

// queryNewTableSQLs returns a list of SQL statements to create new tables that are present in the target schema but not
// in the current schema.
func (db *Database) queryNewTableSQLs(ctx context.Context, tx querier) ([]string, error) {
	var (
		newTableSQLs []string
		err          error
	)
	if newTableSQLs, err = db.queryStringSlice(ctx, tx, `SELECT target.sql AS sql
FROM schemaTarget.sqlite_schema AS target
LEFT JOIN sqlite_schema AS current ON current.name=target.name AND current.type=target.type
WHERE target.type = 'table' AND current.type IS NULL AND target.name NOT LIKE 'sqlite_%';`); err != nil {
		return nil, errors.Wrap(err, "query string slice")
	}
	return newTableSQLs, nil
}

// queryMissingColumns returns the columns of the target schema that are missing from existing tables.
func (db *Database) queryMissingColumns(ctx context.Context, tx querier) ([]missingColumn, error) {
	var (
		columns []missingColumn
		rows    *sql.Rows
		err     error
	)
	if rows, err = tx.QueryContext(ctx, `SELECT
    target.name, col.name, col.type, col."notnull", col.dflt_value, col.pk > 0
FROM schemaTarget.sqlite_schema AS target
         JOIN sqlite_schema AS current ON current.name=target.name AND current.type=target.type
         JOIN PRAGMA_TABLE_INFO(target.name, 'schemaTarget') AS col
WHERE target.type = 'table' AND target.name NOT LIKE 'sqlite_%'
  AND col.name NOT IN (SELECT name FROM PRAGMA_TABLE_INFO(target.name, 'main'))
ORDER BY target.name, col.cid;`); err != nil {
		return nil, errors.Wrap(err, "query")
	}
	defer db.closeRows(ctx, rows)
	for rows.Next() {
		var column missingColumn
		if err = rows.Scan(&column.table, &column.name, &column.columnType, &column.notNull, &column.defaultValue,
			&column.primaryKey); err != nil {
			return nil, errors.Wrap(err, "scan column")
		}
		columns = append(columns, column)
	}
	if err = rows.Err(); err != nil {
		return nil, errors.Wrap(err, "rows error")
	}
	return columns, nil
}

// queryStringSlice returns a slice of strings from a query and its args.
//
// It is used to query a single column from a table.
func (db *Database) queryStringSlice(ctx context.Context, tx querier, query string, args ...any) ([]string, error) {
	var (
		results []string
		rows    *sql.Rows
		err     error
	)
	if rows, err = tx.QueryContext(ctx, query, args...); err != nil {
		return nil, errors.Wrap(err, "query")
	}
	defer db.closeRows(ctx, rows)
	for rows.Next() {
		var result string
		if err = rows.Scan(&result); err != nil {
			return nil, errors.Wrap(err, "scan table")
		}
		results = append(results, result)
	}
	if err = rows.Err(); err != nil {
		return nil, errors.Wrap(err, "rows error")
	}
	return results, nil
}

type changedTable struct {
	name       string
	currentSQL string
	newSQL     string
}

// queryChangedTables returns a list of tables that have different schema in the current schema and the target schema.
func (db *Database) queryChangedTables(ctx context.Context, tx querier) ([]changedTable, error) {
	var (
		changedTables []changedTable
		rows          *sql.Rows
		err           error
	)
	if rows, err = tx.QueryContext(ctx, `SELECT
    current.name AS changed_table,
    current.sql AS current_sql,
    target.sql AS new_sql
FROM sqlite_schema AS current
         JOIN schemaTarget.sqlite_schema AS target ON current.name=target.name AND current.type=target.type
WHERE current.type = 'table' AND current.name NOT LIKE 'sqlite_%' AND current.sql <> target.sql;
`); err != nil {
		return nil, errors.Wrap(err, "query")
	}
	defer db.closeRows(ctx, rows)
	for rows.Next() {
		var result changedTable
		if err = rows.Scan(&result.name, &result.currentSQL, &result.newSQL); err != nil {
			return nil, errors.Wrap(err, "scan table")
		}
		changedTables = append(changedTables, result)
	}
	if err = rows.Err(); err != nil {
		return nil, errors.Wrap(err, "rows error")
	}
	return changedTables, nil
}

func (db *Database) closeRows(ctx context.Context, rows *sql.Rows) {
	if err := rows.Close(); err != nil {
		err = errors.Wrap(err, "close rows")
		db.logger.LogAttrs(ctx, slog.LevelError, "could not close rows", errors.SlogError(err))
	}
}

// quote returns name as an SQLite identifier.
func quote(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
