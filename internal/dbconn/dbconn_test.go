package dbconn

import "testing"

func TestResolvePostgresURL(t *testing.T) {
	dialect, driver, dataSource, err := Resolve("postgres://app:secret@db:5432/app?sslmode=disable", "")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if dialect != DialectPostgres || driver != "pgx" {
		t.Fatalf("dialect = %q driver = %q", dialect, driver)
	}
	if dataSource != "postgres://app:secret@db:5432/app?sslmode=disable" {
		t.Fatalf("dataSource = %q", dataSource)
	}
}

func TestResolveSQLiteSchemeStripsPrefix(t *testing.T) {
	dialect, driver, dataSource, err := Resolve("sqlite://example.db", "")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if dialect != DialectSQLite || driver != "sqlite3" {
		t.Fatalf("dialect = %q driver = %q", dialect, driver)
	}
	if dataSource != "example.db" {
		t.Fatalf("dataSource = %q", dataSource)
	}
}

func TestResolveBareFilePathDefaultsToSQLite(t *testing.T) {
	dialect, _, dataSource, err := Resolve("example.db", "")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if dialect != DialectSQLite || dataSource != "example.db" {
		t.Fatalf("dialect = %q dataSource = %q", dialect, dataSource)
	}
}

func TestResolveMySQLURLConvertsDSN(t *testing.T) {
	dialect, driver, dataSource, err := Resolve("mysql://app:secret@db:3306/shop?parseTime=true", "")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if dialect != DialectMySQL || driver != "mysql" {
		t.Fatalf("dialect = %q driver = %q", dialect, driver)
	}
	if dataSource != "app:secret@tcp(db:3306)/shop?parseTime=true" {
		t.Fatalf("dataSource = %q", dataSource)
	}
}

func TestResolveDuckDBScheme(t *testing.T) {
	dialect, driver, dataSource, err := Resolve("duckdb://analytics.duckdb", "")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if dialect != DialectDuckDB || driver != "duckdb" || dataSource != "analytics.duckdb" {
		t.Fatalf("dialect = %q driver = %q dataSource = %q", dialect, driver, dataSource)
	}
}

func TestResolveDriverOverrideWins(t *testing.T) {
	dialect, driver, _, err := Resolve("host=db user=app dbname=app", "postgres")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if dialect != DialectPostgres || driver != "pgx" {
		t.Fatalf("dialect = %q driver = %q", dialect, driver)
	}
}

func TestResolveUnknownSchemeFails(t *testing.T) {
	if _, _, _, err := Resolve("oracle://db/sid", ""); err == nil {
		t.Fatal("expected error for unknown scheme")
	}
}
