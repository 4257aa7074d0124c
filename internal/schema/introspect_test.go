package schema

import (
	"context"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"

	"github.com/ranjithr99/SQL-AGENT/internal/dbconn"
)

func TestDescribePostgresBuildsOrderedSchema(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	defer func() { _ = db.Close() }()

	mock.ExpectQuery(regexp.QuoteMeta(`
SELECT table_name
FROM information_schema.tables
WHERE table_schema = $1 AND table_type = 'BASE TABLE'
ORDER BY table_name`)).
		WithArgs("public").
		WillReturnRows(sqlmock.NewRows([]string{"table_name"}).AddRow("customers"))

	mock.ExpectQuery(regexp.QuoteMeta(`
SELECT column_name, data_type, is_nullable
FROM information_schema.columns
WHERE table_schema = $1 AND table_name = $2
ORDER BY ordinal_position`)).
		WithArgs("public", "customers").
		WillReturnRows(sqlmock.NewRows([]string{"column_name", "data_type", "is_nullable"}).
			AddRow("customer_id", "integer", "NO").
			AddRow("name", "text", "NO").
			AddRow("country", "text", "YES"))

	mock.ExpectQuery("PRIMARY KEY").
		WithArgs("public", "customers").
		WillReturnRows(sqlmock.NewRows([]string{"column_name"}).AddRow("customer_id"))

	mock.ExpectQuery("FOREIGN KEY").
		WithArgs("public", "customers").
		WillReturnRows(sqlmock.NewRows([]string{"column_name", "table_name", "column_name"}))

	introspector := NewIntrospector(db, dbconn.DialectPostgres)
	result, err := introspector.Describe(context.Background())
	if err != nil {
		t.Fatalf("Describe() error = %v", err)
	}

	if len(result.Tables) != 1 {
		t.Fatalf("table count = %d", len(result.Tables))
	}
	table := result.Tables[0]
	if table.Name != "customers" {
		t.Fatalf("table name = %q", table.Name)
	}
	if len(table.Columns) != 3 {
		t.Fatalf("column count = %d", len(table.Columns))
	}
	if !table.Columns[0].PrimaryKey {
		t.Fatal("customer_id should be marked primary key")
	}
	if table.Columns[0].Nullable {
		t.Fatal("customer_id should not be nullable")
	}
	if !table.Columns[2].Nullable {
		t.Fatal("country should be nullable")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestDescribeEmptyDatabaseYieldsEmptySchema(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	defer func() { _ = db.Close() }()

	mock.ExpectQuery("information_schema.tables").
		WithArgs("public").
		WillReturnRows(sqlmock.NewRows([]string{"table_name"}))

	introspector := NewIntrospector(db, dbconn.DialectPostgres)
	result, err := introspector.Describe(context.Background())
	if err != nil {
		t.Fatalf("Describe() error = %v", err)
	}
	if !result.Empty() {
		t.Fatalf("schema should be empty, got %d tables", len(result.Tables))
	}
}

func TestRenderIsStable(t *testing.T) {
	s := Schema{Tables: []Table{
		{
			Name: "customers",
			Columns: []Column{
				{Name: "customer_id", Type: "INTEGER", PrimaryKey: true},
				{Name: "country", Type: "TEXT", Nullable: true},
			},
		},
		{
			Name: "orders",
			Columns: []Column{
				{Name: "order_id", Type: "INTEGER", PrimaryKey: true},
				{Name: "customer_id", Type: "INTEGER", Nullable: true, References: "customers(customer_id)"},
			},
		},
	}}

	first := s.Render()
	second := s.Render()
	if first != second {
		t.Fatal("Render() should be deterministic")
	}

	want := "Table: customers\n" +
		"  customer_id INTEGER NOT NULL PRIMARY KEY\n" +
		"  country TEXT\n" +
		"\n" +
		"Table: orders\n" +
		"  order_id INTEGER NOT NULL PRIMARY KEY\n" +
		"  customer_id INTEGER REFERENCES customers(customer_id)\n"
	if first != want {
		t.Fatalf("Render() =\n%s\nwant:\n%s", first, want)
	}
}

func TestRenderEmptySchema(t *testing.T) {
	if got := (Schema{}).Render(); got != "(no tables)" {
		t.Fatalf("Render() = %q", got)
	}
}
