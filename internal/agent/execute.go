package agent

import (
	"context"
	"database/sql"
	"strings"
	"time"
)

// Outcome is the result of executing one validated statement. Driver faults
// are captured in Err and never propagated as raw errors.
type Outcome struct {
	Columns   []string
	Rows      [][]any
	RowCount  int
	Truncated bool
	Duration  time.Duration
	Err       error
}

func (o Outcome) Failed() bool {
	return o.Err != nil
}

// Executor runs validated statements with a per-call timeout and a bounded
// row capture. It never retries: SQL correctness issues are not transient.
type Executor struct {
	DB      *sql.DB
	MaxRows int
	Timeout time.Duration
}

func (e *Executor) Run(ctx context.Context, sqlText string) Outcome {
	sqlText = StripTrailingSemicolon(sqlText)
	if strings.TrimSpace(sqlText) == "" {
		return Outcome{Err: errEmptyStatement}
	}

	if e.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.Timeout)
		defer cancel()
	}

	start := time.Now()
	rows, err := e.DB.QueryContext(ctx, sqlText)
	if err != nil {
		return Outcome{Duration: time.Since(start), Err: err}
	}
	defer func() { _ = rows.Close() }()

	columns, err := rows.Columns()
	if err != nil {
		return Outcome{Duration: time.Since(start), Err: err}
	}

	maxRows := e.MaxRows
	if maxRows <= 0 {
		maxRows = 500
	}

	captured := make([][]any, 0)
	rowCount := 0
	truncated := false
	for rows.Next() {
		rowCount++
		if rowCount > maxRows {
			// Keep counting past the cap so RowCount stays truthful, but
			// stop materializing rows.
			truncated = true
			continue
		}
		values := make([]any, len(columns))
		scanTargets := make([]any, len(columns))
		for i := range values {
			scanTargets[i] = &values[i]
		}
		if err := rows.Scan(scanTargets...); err != nil {
			return Outcome{Duration: time.Since(start), Err: err}
		}
		captured = append(captured, normalizeValues(values))
	}
	if err := rows.Err(); err != nil {
		return Outcome{Duration: time.Since(start), Err: err}
	}

	return Outcome{
		Columns:   columns,
		Rows:      captured,
		RowCount:  rowCount,
		Truncated: truncated,
		Duration:  time.Since(start),
	}
}

func normalizeValues(values []any) []any {
	normalized := make([]any, len(values))
	for i, value := range values {
		switch typed := value.(type) {
		case []byte:
			normalized[i] = string(typed)
		default:
			normalized[i] = typed
		}
	}
	return normalized
}
