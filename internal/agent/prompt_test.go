package agent

import (
	"strings"
	"testing"

	"github.com/ranjithr99/SQL-AGENT/internal/dbconn"
)

func TestBuildQueryPromptIsDeterministic(t *testing.T) {
	schemaText := "Table: customers\n  id INTEGER PRIMARY KEY\n"
	question := "How many customers are there?"

	first := BuildQueryPrompt(schemaText, question, dbconn.DialectSQLite)
	second := BuildQueryPrompt(schemaText, question, dbconn.DialectSQLite)
	if first != second {
		t.Fatalf("expected identical prompts for identical inputs")
	}
	for _, fragment := range []string{"SQLite", "Table: customers", question, "fenced code block"} {
		if !strings.Contains(first, fragment) {
			t.Fatalf("prompt missing %q:\n%s", fragment, first)
		}
	}
}

func TestBuildExplainPromptBoundsSample(t *testing.T) {
	outcome := Outcome{
		Columns:  []string{"id"},
		RowCount: 5,
	}
	for i := 1; i <= 5; i++ {
		outcome.Rows = append(outcome.Rows, []any{int64(i)})
	}

	prompt := BuildExplainPrompt("list ids", "SELECT id FROM customers", outcome, 2)
	if !strings.Contains(prompt, "... (3 more rows)") {
		t.Fatalf("expected sample truncation marker:\n%s", prompt)
	}
	if !strings.Contains(prompt, "returned 5 row(s)") {
		t.Fatalf("expected row count:\n%s", prompt)
	}
}

func TestBuildExplainPromptRendersNull(t *testing.T) {
	outcome := Outcome{
		Columns:  []string{"name"},
		Rows:     [][]any{{nil}},
		RowCount: 1,
	}
	prompt := BuildExplainPrompt("q", "SELECT name FROM customers", outcome, 20)
	if !strings.Contains(prompt, "NULL") {
		t.Fatalf("expected NULL rendering:\n%s", prompt)
	}
}

func TestBuildFailureExplainPrompt(t *testing.T) {
	prompt := BuildFailureExplainPrompt("q", "SELECT x FROM y", "no such table: y")
	if !strings.Contains(prompt, "no such table: y") {
		t.Fatalf("expected error message in prompt:\n%s", prompt)
	}
}

func TestBuildAnalysisPrompt(t *testing.T) {
	prompt := BuildAnalysisPrompt("SELECT * FROM orders")
	for _, fragment := range []string{"Safety", "Performance", "Correctness", "SELECT * FROM orders"} {
		if !strings.Contains(prompt, fragment) {
			t.Fatalf("prompt missing %q:\n%s", fragment, prompt)
		}
	}
}
