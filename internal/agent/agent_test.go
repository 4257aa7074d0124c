package agent

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/ranjithr99/SQL-AGENT/internal/config"
	"github.com/ranjithr99/SQL-AGENT/internal/dbconn"
)

type scriptedModel struct {
	responses []string
	errs      []error
	calls     int
	prompts   []string
}

func (m *scriptedModel) Generate(_ context.Context, prompt string) (string, error) {
	m.prompts = append(m.prompts, prompt)
	idx := m.calls
	m.calls++
	if idx < len(m.errs) && m.errs[idx] != nil {
		return "", m.errs[idx]
	}
	if idx < len(m.responses) {
		return m.responses[idx], nil
	}
	return "", errors.New("no scripted response")
}

func (m *scriptedModel) Model() string { return "scripted" }

func testAgentConfig() config.AgentConfig {
	return config.AgentConfig{
		MaxRows:           500,
		RowLimitRewrite:   1000,
		QueryTimeout:      5 * time.Second,
		ExplainSampleRows: 20,
	}
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func expectCustomersSchema(mock sqlmock.Sqlmock) {
	mock.ExpectQuery(regexp.QuoteMeta("FROM sqlite_master")).
		WillReturnRows(sqlmock.NewRows([]string{"name"}).AddRow("customers"))
	mock.ExpectQuery(regexp.QuoteMeta(`PRAGMA table_info("customers")`)).
		WillReturnRows(sqlmock.NewRows([]string{"cid", "name", "type", "notnull", "dflt_value", "pk"}).
			AddRow(0, "id", "INTEGER", 0, nil, 1).
			AddRow(1, "name", "TEXT", 1, nil, 0).
			AddRow(2, "country", "TEXT", 0, nil, 0))
	mock.ExpectQuery(regexp.QuoteMeta(`PRAGMA foreign_key_list("customers")`)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "seq", "table", "from", "to", "on_update", "on_delete", "match"}))
}

func TestProcessNaturalLanguageSuccess(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer func() { _ = db.Close() }()

	expectCustomersSchema(mock)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT country, COUNT(*) AS total FROM customers GROUP BY country\nLIMIT 1000")).
		WillReturnRows(sqlmock.NewRows([]string{"country", "total"}).
			AddRow("US", int64(2)).
			AddRow("DE", int64(1)))

	model := &scriptedModel{responses: []string{
		"```sql\nSELECT country, COUNT(*) AS total FROM customers GROUP BY country\n```",
		"Customers are split across two countries, mostly in the US.",
	}}
	a := New(db, dbconn.DialectSQLite, model, testLogger(), testAgentConfig())

	result := a.ProcessNaturalLanguage(context.Background(), "How many customers per country?")
	if !result.Success {
		t.Fatalf("unexpected failure: %s", result.Error)
	}
	if result.Query != "SELECT country, COUNT(*) AS total FROM customers GROUP BY country\nLIMIT 1000" {
		t.Fatalf("unexpected query: %q", result.Query)
	}
	if !strings.Contains(result.QueryNote, "LIMIT 1000") {
		t.Fatalf("expected rewrite disclosure, got %q", result.QueryNote)
	}
	if result.TableData == nil || !result.TableData.IsTabular {
		t.Fatalf("expected tabular result: %+v", result.TableData)
	}
	if len(result.TableData.Rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(result.TableData.Rows))
	}
	if result.Explanation != "Customers are split across two countries, mostly in the US." {
		t.Fatalf("unexpected explanation: %q", result.Explanation)
	}
	if result.SQLError != "" || result.Error != "" {
		t.Fatalf("unexpected errors: %+v", result)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
	if !strings.Contains(model.prompts[0], "Table: customers") {
		t.Fatalf("expected schema grounding in generation prompt:\n%s", model.prompts[0])
	}
}

func TestProcessNaturalLanguageExtractionFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer func() { _ = db.Close() }()

	expectCustomersSchema(mock)
	model := &scriptedModel{responses: []string{
		"I cannot answer that question with the available tables.",
	}}
	a := New(db, dbconn.DialectSQLite, model, testLogger(), testAgentConfig())

	result := a.ProcessNaturalLanguage(context.Background(), "What is the meaning of life?")
	if !result.Success {
		t.Fatalf("extraction failure must not fail the pipeline: %s", result.Error)
	}
	if result.Query != "" || result.TableData != nil || result.SQLError != "" {
		t.Fatalf("expected no query artifacts: %+v", result)
	}
	if result.Explanation != extractionFallbackMessage {
		t.Fatalf("unexpected explanation: %q", result.Explanation)
	}
	// The schema lookup is the only database traffic on this path.
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestProcessNaturalLanguageValidationRejection(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer func() { _ = db.Close() }()

	expectCustomersSchema(mock)
	model := &scriptedModel{responses: []string{
		"```sql\nDELETE FROM customers WHERE id = 1\n```",
	}}
	a := New(db, dbconn.DialectSQLite, model, testLogger(), testAgentConfig())

	result := a.ProcessNaturalLanguage(context.Background(), "Remove customer 1")
	if !result.Success {
		t.Fatalf("rejection must not fail the pipeline: %s", result.Error)
	}
	if result.Query != "DELETE FROM customers WHERE id = 1" {
		t.Fatalf("expected rejected sql to be disclosed, got %q", result.Query)
	}
	if !strings.Contains(result.Explanation, "only read-only queries are permitted") {
		t.Fatalf("unexpected explanation: %q", result.Explanation)
	}
	if result.TableData != nil {
		t.Fatalf("rejected statements must not execute: %+v", result.TableData)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestProcessNaturalLanguageExecutionFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer func() { _ = db.Close() }()

	expectCustomersSchema(mock)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT missing FROM customers\nLIMIT 1000")).
		WillReturnError(errors.New("no such column: missing"))

	model := &scriptedModel{responses: []string{
		"```sql\nSELECT missing FROM customers\n```",
		"The query referenced a column that does not exist.",
	}}
	a := New(db, dbconn.DialectSQLite, model, testLogger(), testAgentConfig())

	result := a.ProcessNaturalLanguage(context.Background(), "Show missing")
	if !result.Success {
		t.Fatalf("execution failure must not fail the pipeline: %s", result.Error)
	}
	if result.SQLError != "no such column: missing" {
		t.Fatalf("unexpected sql_error: %q", result.SQLError)
	}
	if result.TableData != nil {
		t.Fatalf("failed execution must not produce table data")
	}
	if result.Explanation != "The query referenced a column that does not exist." {
		t.Fatalf("unexpected explanation: %q", result.Explanation)
	}
}

func TestProcessNaturalLanguageSchemaError(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer func() { _ = db.Close() }()

	mock.ExpectQuery(regexp.QuoteMeta("FROM sqlite_master")).
		WillReturnError(errors.New("database is locked"))

	a := New(db, dbconn.DialectSQLite, &scriptedModel{}, testLogger(), testAgentConfig())
	result := a.ProcessNaturalLanguage(context.Background(), "anything")
	if result.Success {
		t.Fatalf("schema failure must fail the pipeline")
	}
	if !strings.Contains(result.Error, "schema introspection failed") {
		t.Fatalf("unexpected error: %q", result.Error)
	}
	if result.Query != "" || result.Explanation != "" || result.TableData != nil {
		t.Fatalf("only the error field may be set: %+v", result)
	}
}

func TestProcessNaturalLanguageModelError(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer func() { _ = db.Close() }()

	expectCustomersSchema(mock)
	model := &scriptedModel{errs: []error{errors.New("rate limited")}}
	a := New(db, dbconn.DialectSQLite, model, testLogger(), testAgentConfig())

	result := a.ProcessNaturalLanguage(context.Background(), "anything")
	if result.Success {
		t.Fatalf("model failure must fail the pipeline")
	}
	if !strings.Contains(result.Error, "model request (generate_sql) failed") {
		t.Fatalf("unexpected error: %q", result.Error)
	}
}

func TestProcessNaturalLanguageExplainFallback(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer func() { _ = db.Close() }()

	expectCustomersSchema(mock)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM customers\nLIMIT 1000")).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(1)))

	model := &scriptedModel{
		responses: []string{"```sql\nSELECT id FROM customers\n```", ""},
		errs:      []error{nil, errors.New("rate limited")},
	}
	a := New(db, dbconn.DialectSQLite, model, testLogger(), testAgentConfig())

	result := a.ProcessNaturalLanguage(context.Background(), "List ids")
	if !result.Success {
		t.Fatalf("explanation failure must not fail the pipeline: %s", result.Error)
	}
	if result.TableData == nil || !result.TableData.IsTabular {
		t.Fatalf("expected tabular result despite explanation failure")
	}
	if result.Explanation != "The query executed successfully and returned 1 row(s)." {
		t.Fatalf("unexpected fallback explanation: %q", result.Explanation)
	}
}

func TestProcessNaturalLanguageEmptyQuestion(t *testing.T) {
	db, _, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer func() { _ = db.Close() }()

	a := New(db, dbconn.DialectSQLite, &scriptedModel{}, testLogger(), testAgentConfig())
	result := a.ProcessNaturalLanguage(context.Background(), "   ")
	if result.Success || result.Error != "question is required" {
		t.Fatalf("unexpected result: %+v", result)
	}
}

func TestProcessNaturalLanguageVerboseKeepsRawResponse(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer func() { _ = db.Close() }()

	expectCustomersSchema(mock)
	raw := "```sql\nDELETE FROM customers\n```"
	model := &scriptedModel{responses: []string{raw}}
	cfg := testAgentConfig()
	cfg.Verbose = true
	a := New(db, dbconn.DialectSQLite, model, testLogger(), cfg)

	result := a.ProcessNaturalLanguage(context.Background(), "wipe it")
	if result.RawResponse != raw {
		t.Fatalf("expected raw response retained, got %q", result.RawResponse)
	}
}

func TestSchemaDescriptionIsCached(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer func() { _ = db.Close() }()

	expectCustomersSchema(mock)
	a := New(db, dbconn.DialectSQLite, &scriptedModel{}, testLogger(), testAgentConfig())

	first, err := a.GetSchema(context.Background())
	if err != nil {
		t.Fatalf("first lookup: %v", err)
	}
	second, err := a.GetSchema(context.Background())
	if err != nil {
		t.Fatalf("second lookup: %v", err)
	}
	if first != second {
		t.Fatalf("cached schema changed between calls")
	}
	if !strings.Contains(first, "Table: customers") {
		t.Fatalf("unexpected schema text:\n%s", first)
	}
	// A second set of metadata queries would trip unmet expectations here.
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}

	a.InvalidateSchema()
	expectCustomersSchema(mock)
	if _, err := a.GetSchema(context.Background()); err != nil {
		t.Fatalf("rebuild after invalidation: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations after invalidation: %v", err)
	}
}

func TestAnalyzeQuery(t *testing.T) {
	db, _, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer func() { _ = db.Close() }()

	model := &scriptedModel{responses: []string{"- Safety: read-only.\n- Performance: fine.\n- Correctness: fine."}}
	a := New(db, dbconn.DialectSQLite, model, testLogger(), testAgentConfig())

	analysis, err := a.AnalyzeQuery(context.Background(), "```sql\nSELECT id FROM customers\n```")
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if analysis.Query != "SELECT id FROM customers" {
		t.Fatalf("expected cleaned query, got %q", analysis.Query)
	}
	if !strings.Contains(analysis.Analysis, "Safety") {
		t.Fatalf("unexpected analysis: %q", analysis.Analysis)
	}

	if _, err := a.AnalyzeQuery(context.Background(), "   "); err == nil {
		t.Fatalf("expected error for empty query")
	}
}
