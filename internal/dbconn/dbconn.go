package dbconn

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/marcboeker/go-duckdb/v2"
	_ "github.com/mattn/go-sqlite3"
)

// Dialect identifies the SQL flavor spoken by the connected backend. It feeds
// both driver selection and the dialect hint given to the language model.
type Dialect string

const (
	DialectPostgres Dialect = "postgres"
	DialectSQLite   Dialect = "sqlite"
	DialectMySQL    Dialect = "mysql"
	DialectDuckDB   Dialect = "duckdb"
)

type Config struct {
	DSN             string
	Driver          string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxIdleTime time.Duration
	ConnMaxLifetime time.Duration
}

// Open connects to the database described by cfg.DSN. The driver is inferred
// from the DSN scheme unless cfg.Driver overrides it.
func Open(ctx context.Context, cfg Config) (*sql.DB, Dialect, error) {
	if strings.TrimSpace(cfg.DSN) == "" {
		return nil, "", fmt.Errorf("database dsn is required")
	}

	dialect, driver, dataSource, err := Resolve(cfg.DSN, cfg.Driver)
	if err != nil {
		return nil, "", err
	}

	db, err := sql.Open(driver, dataSource)
	if err != nil {
		return nil, "", fmt.Errorf("open %s db: %w", dialect, err)
	}

	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxIdleTime > 0 {
		db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, "", fmt.Errorf("ping %s db: %w", dialect, err)
	}

	return db, dialect, nil
}

// Resolve maps a DSN (and optional driver override) to the dialect, the
// registered driver name, and the data source string the driver expects.
func Resolve(dsn, driverOverride string) (Dialect, string, string, error) {
	dsn = strings.TrimSpace(dsn)

	if override := strings.TrimSpace(driverOverride); override != "" {
		switch override {
		case "pgx", "postgres":
			return DialectPostgres, "pgx", dsn, nil
		case "sqlite", "sqlite3":
			return DialectSQLite, "sqlite3", stripScheme(dsn), nil
		case "mysql":
			return DialectMySQL, "mysql", stripScheme(dsn), nil
		case "duckdb":
			return DialectDuckDB, "duckdb", stripScheme(dsn), nil
		default:
			return "", "", "", fmt.Errorf("unsupported database driver %q", override)
		}
	}

	switch {
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		return DialectPostgres, "pgx", dsn, nil
	case strings.HasPrefix(dsn, "sqlite://"), strings.HasPrefix(dsn, "sqlite3://"):
		return DialectSQLite, "sqlite3", stripScheme(dsn), nil
	case strings.HasPrefix(dsn, "duckdb://"):
		return DialectDuckDB, "duckdb", stripScheme(dsn), nil
	case strings.HasPrefix(dsn, "mysql://"):
		converted, err := mysqlDataSource(dsn)
		if err != nil {
			return "", "", "", err
		}
		return DialectMySQL, "mysql", converted, nil
	case strings.HasSuffix(dsn, ".db"), strings.HasSuffix(dsn, ".sqlite"), dsn == ":memory:":
		// Bare file paths default to SQLite, matching the sample database.
		return DialectSQLite, "sqlite3", dsn, nil
	case strings.HasSuffix(dsn, ".duckdb"):
		return DialectDuckDB, "duckdb", dsn, nil
	default:
		return "", "", "", fmt.Errorf("cannot infer database driver from dsn %q; set SQLAGENT_DB_DRIVER", dsn)
	}
}

func stripScheme(dsn string) string {
	if idx := strings.Index(dsn, "://"); idx >= 0 {
		return dsn[idx+len("://"):]
	}
	return dsn
}

// mysqlDataSource converts a mysql:// URL into the DSN format expected by
// go-sql-driver: user:pass@tcp(host:port)/dbname?params.
func mysqlDataSource(dsn string) (string, error) {
	parsed, err := url.Parse(dsn)
	if err != nil {
		return "", fmt.Errorf("parse mysql dsn: %w", err)
	}

	var builder strings.Builder
	if parsed.User != nil {
		builder.WriteString(parsed.User.Username())
		if password, ok := parsed.User.Password(); ok {
			builder.WriteString(":" + password)
		}
		builder.WriteString("@")
	}
	host := parsed.Host
	if host == "" {
		host = "localhost:3306"
	}
	if !strings.Contains(host, ":") {
		host += ":3306"
	}
	builder.WriteString("tcp(" + host + ")")
	builder.WriteString("/" + strings.TrimPrefix(parsed.Path, "/"))
	if parsed.RawQuery != "" {
		builder.WriteString("?" + parsed.RawQuery)
	}
	return builder.String(), nil
}
