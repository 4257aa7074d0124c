package schema

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"

	"github.com/ranjithr99/SQL-AGENT/internal/dbconn"
)

// Introspector reads table and column metadata from a live database
// connection. It opens read-only metadata queries and never mutates the
// target database.
type Introspector struct {
	db      *sql.DB
	dialect dbconn.Dialect
}

func NewIntrospector(db *sql.DB, dialect dbconn.Dialect) *Introspector {
	return &Introspector{db: db, dialect: dialect}
}

// Describe enumerates tables and their columns. A database with zero tables
// yields an empty schema, not an error.
func (i *Introspector) Describe(ctx context.Context) (Schema, error) {
	switch i.dialect {
	case dbconn.DialectSQLite:
		return i.describeSQLite(ctx)
	case dbconn.DialectMySQL:
		return i.describeMySQL(ctx)
	case dbconn.DialectPostgres, dbconn.DialectDuckDB:
		return i.describeInformationSchema(ctx)
	default:
		return Schema{}, fmt.Errorf("unsupported dialect %q", i.dialect)
	}
}

func (i *Introspector) describeInformationSchema(ctx context.Context) (Schema, error) {
	schemaName := "public"
	if i.dialect == dbconn.DialectDuckDB {
		schemaName = "main"
	}

	tableNames, err := i.listTables(ctx, `
SELECT table_name
FROM information_schema.tables
WHERE table_schema = $1 AND table_type = 'BASE TABLE'
ORDER BY table_name`, schemaName)
	if err != nil {
		return Schema{}, err
	}

	result := Schema{}
	for _, tableName := range tableNames {
		columns, err := i.queryColumns(ctx, `
SELECT column_name, data_type, is_nullable
FROM information_schema.columns
WHERE table_schema = $1 AND table_name = $2
ORDER BY ordinal_position`, schemaName, tableName)
		if err != nil {
			return Schema{}, fmt.Errorf("describe columns of %q: %w", tableName, err)
		}

		// Key metadata is best effort: some engines expose only part of
		// information_schema's constraint tables.
		primaryKeys, _ := i.queryPrimaryKeys(ctx, schemaName, tableName)
		foreignKeys, _ := i.queryForeignKeys(ctx, schemaName, tableName)

		for idx := range columns {
			if primaryKeys[columns[idx].Name] {
				columns[idx].PrimaryKey = true
			}
			if ref, ok := foreignKeys[columns[idx].Name]; ok {
				columns[idx].References = ref
			}
		}
		result.Tables = append(result.Tables, Table{Name: tableName, Columns: columns})
	}
	return result, nil
}

func (i *Introspector) describeMySQL(ctx context.Context) (Schema, error) {
	tableNames, err := i.listTables(ctx, `
SELECT table_name
FROM information_schema.tables
WHERE table_schema = DATABASE() AND table_type = 'BASE TABLE'
ORDER BY table_name`)
	if err != nil {
		return Schema{}, err
	}

	result := Schema{}
	for _, tableName := range tableNames {
		rows, err := i.db.QueryContext(ctx, `
SELECT column_name, data_type, is_nullable, column_key
FROM information_schema.columns
WHERE table_schema = DATABASE() AND table_name = ?
ORDER BY ordinal_position`, tableName)
		if err != nil {
			return Schema{}, fmt.Errorf("describe columns of %q: %w", tableName, err)
		}

		var columns []Column
		for rows.Next() {
			var name, dataType, nullable, columnKey string
			if err := rows.Scan(&name, &dataType, &nullable, &columnKey); err != nil {
				_ = rows.Close()
				return Schema{}, fmt.Errorf("scan column of %q: %w", tableName, err)
			}
			columns = append(columns, Column{
				Name:       name,
				Type:       strings.ToUpper(dataType),
				Nullable:   strings.EqualFold(nullable, "YES"),
				PrimaryKey: columnKey == "PRI",
			})
		}
		if err := rows.Close(); err != nil {
			return Schema{}, fmt.Errorf("close column rows of %q: %w", tableName, err)
		}

		foreignKeys, _ := i.queryMySQLForeignKeys(ctx, tableName)
		for idx := range columns {
			if ref, ok := foreignKeys[columns[idx].Name]; ok {
				columns[idx].References = ref
			}
		}
		result.Tables = append(result.Tables, Table{Name: tableName, Columns: columns})
	}
	return result, nil
}

func (i *Introspector) describeSQLite(ctx context.Context) (Schema, error) {
	tableNames, err := i.listTables(ctx, `
SELECT name
FROM sqlite_master
WHERE type = 'table' AND name NOT LIKE 'sqlite_%'
ORDER BY name`)
	if err != nil {
		return Schema{}, err
	}

	result := Schema{}
	for _, tableName := range tableNames {
		rows, err := i.db.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%s)", quoteIdent(tableName)))
		if err != nil {
			return Schema{}, fmt.Errorf("describe columns of %q: %w", tableName, err)
		}

		var columns []Column
		for rows.Next() {
			var (
				cid          int
				name, ctype  string
				notNull, pk  int
				defaultValue sql.NullString
			)
			if err := rows.Scan(&cid, &name, &ctype, &notNull, &defaultValue, &pk); err != nil {
				_ = rows.Close()
				return Schema{}, fmt.Errorf("scan column of %q: %w", tableName, err)
			}
			columns = append(columns, Column{
				Name:       name,
				Type:       strings.ToUpper(ctype),
				Nullable:   notNull == 0 && pk == 0,
				PrimaryKey: pk > 0,
			})
		}
		if err := rows.Close(); err != nil {
			return Schema{}, fmt.Errorf("close column rows of %q: %w", tableName, err)
		}

		foreignKeys, _ := i.querySQLiteForeignKeys(ctx, tableName)
		for idx := range columns {
			if ref, ok := foreignKeys[columns[idx].Name]; ok {
				columns[idx].References = ref
			}
		}
		result.Tables = append(result.Tables, Table{Name: tableName, Columns: columns})
	}
	return result, nil
}

func (i *Introspector) listTables(ctx context.Context, query string, args ...any) ([]string, error) {
	rows, err := i.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan table name: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tables: %w", err)
	}
	sort.Strings(names)
	return names, nil
}

func (i *Introspector) queryColumns(ctx context.Context, query string, args ...any) ([]Column, error) {
	rows, err := i.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var columns []Column
	for rows.Next() {
		var name, dataType, nullable string
		if err := rows.Scan(&name, &dataType, &nullable); err != nil {
			return nil, err
		}
		columns = append(columns, Column{
			Name:     name,
			Type:     strings.ToUpper(dataType),
			Nullable: strings.EqualFold(nullable, "YES"),
		})
	}
	return columns, rows.Err()
}

func (i *Introspector) queryPrimaryKeys(ctx context.Context, schemaName, tableName string) (map[string]bool, error) {
	rows, err := i.db.QueryContext(ctx, `
SELECT kc.column_name
FROM information_schema.table_constraints tc
JOIN information_schema.key_column_usage kc ON tc.constraint_name = kc.constraint_name
WHERE tc.table_schema = $1 AND tc.table_name = $2 AND tc.constraint_type = 'PRIMARY KEY'
ORDER BY kc.ordinal_position`, schemaName, tableName)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	keys := map[string]bool{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		keys[name] = true
	}
	return keys, rows.Err()
}

func (i *Introspector) queryForeignKeys(ctx context.Context, schemaName, tableName string) (map[string]string, error) {
	rows, err := i.db.QueryContext(ctx, `
SELECT kc.column_name, cc.table_name, cc.column_name
FROM information_schema.table_constraints tc
JOIN information_schema.key_column_usage kc ON tc.constraint_name = kc.constraint_name
JOIN information_schema.constraint_column_usage cc ON tc.constraint_name = cc.constraint_name
WHERE tc.table_schema = $1 AND tc.table_name = $2 AND tc.constraint_type = 'FOREIGN KEY'`, schemaName, tableName)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	refs := map[string]string{}
	for rows.Next() {
		var column, refTable, refColumn string
		if err := rows.Scan(&column, &refTable, &refColumn); err != nil {
			return nil, err
		}
		refs[column] = refTable + "(" + refColumn + ")"
	}
	return refs, rows.Err()
}

func (i *Introspector) queryMySQLForeignKeys(ctx context.Context, tableName string) (map[string]string, error) {
	rows, err := i.db.QueryContext(ctx, `
SELECT column_name, referenced_table_name, referenced_column_name
FROM information_schema.key_column_usage
WHERE table_schema = DATABASE() AND table_name = ? AND referenced_table_name IS NOT NULL`, tableName)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	refs := map[string]string{}
	for rows.Next() {
		var column, refTable, refColumn string
		if err := rows.Scan(&column, &refTable, &refColumn); err != nil {
			return nil, err
		}
		refs[column] = refTable + "(" + refColumn + ")"
	}
	return refs, rows.Err()
}

func (i *Introspector) querySQLiteForeignKeys(ctx context.Context, tableName string) (map[string]string, error) {
	rows, err := i.db.QueryContext(ctx, fmt.Sprintf("PRAGMA foreign_key_list(%s)", quoteIdent(tableName)))
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	refs := map[string]string{}
	for rows.Next() {
		var (
			id, seq                     int
			refTable, from, to          string
			onUpdate, onDelete, matchOn string
		)
		if err := rows.Scan(&id, &seq, &refTable, &from, &to, &onUpdate, &onDelete, &matchOn); err != nil {
			return nil, err
		}
		refs[from] = refTable + "(" + to + ")"
	}
	return refs, rows.Err()
}

func quoteIdent(value string) string {
	return `"` + strings.ReplaceAll(value, `"`, `""`) + `"`
}
