package agent

import (
	"errors"
	"testing"
)

func TestClassifyTabular(t *testing.T) {
	outcome := Outcome{
		Columns: []string{"country", "total"},
		Rows:    [][]any{{"US", int64(2)}, {"DE", int64(1)}},
	}
	table := Classify(outcome)
	if !table.IsTabular {
		t.Fatalf("expected tabular classification")
	}
	if len(table.Columns) != 2 || len(table.Rows) != 2 {
		t.Fatalf("unexpected table data: %+v", table)
	}
}

func TestClassifyZeroRowsStaysTabular(t *testing.T) {
	table := Classify(Outcome{Columns: []string{"id"}})
	if !table.IsTabular {
		t.Fatalf("expected zero-row outcome to stay tabular")
	}
	if table.Rows == nil {
		t.Fatalf("expected empty row slice, got nil")
	}
	if len(table.Rows) != 0 {
		t.Fatalf("expected no rows, got %d", len(table.Rows))
	}
}

func TestClassifyNonTabular(t *testing.T) {
	if table := Classify(Outcome{Err: errors.New("boom")}); table.IsTabular {
		t.Fatalf("expected failed outcome to be non-tabular")
	}
	if table := Classify(Outcome{}); table.IsTabular {
		t.Fatalf("expected column-less outcome to be non-tabular")
	}
}
