package agent

import (
	"fmt"
	"strings"

	"github.com/ranjithr99/SQL-AGENT/internal/dbconn"
)

// BuildQueryPrompt composes the SQL-generation instruction. It is a pure
// function of its inputs: the same schema and question always produce the
// same prompt.
func BuildQueryPrompt(schemaText, question string, dialect dbconn.Dialect) string {
	return fmt.Sprintf(`You convert natural language questions about a relational database into a single %s SQL query.

DATABASE SCHEMA:
%s

RULES:
- Use only the tables and columns listed in the schema above.
- Output exactly one SQL statement.
- Use only SELECT or WITH statements; never emit statements that modify data unless the question explicitly asks for it.
- Prefer explicit column names over SELECT *.
- Return the SQL inside a fenced code block tagged sql, with no explanation.

Question: %s`, dialectLabel(dialect), strings.TrimSpace(schemaText), strings.TrimSpace(question))
}

// BuildExplainPrompt composes the explanation request for a successful
// execution, with a bounded sample of the result rows.
func BuildExplainPrompt(question, sqlText string, outcome Outcome, sampleRows int) string {
	if sampleRows <= 0 {
		sampleRows = 20
	}
	sample := renderSample(outcome, sampleRows)
	return fmt.Sprintf(`A user asked the following question about a database:
%s

This SQL query was executed to answer it:
%s

The query returned %d row(s). Sample of the result:
%s

Describe the result in one or two plain-language sentences. Do not repeat the SQL.`,
		strings.TrimSpace(question), strings.TrimSpace(sqlText), outcome.RowCount, sample)
}

// BuildFailureExplainPrompt asks the model to explain an execution failure in
// plain language.
func BuildFailureExplainPrompt(question, sqlText, errorMessage string) string {
	return fmt.Sprintf(`A user asked the following question about a database:
%s

This SQL query was executed to answer it:
%s

The query failed with this error:
%s

Explain in one or two plain-language sentences what went wrong and how the question might be rephrased. Do not repeat the SQL.`,
		strings.TrimSpace(question), strings.TrimSpace(sqlText), strings.TrimSpace(errorMessage))
}

// BuildAnalysisPrompt asks for a concise safety/performance/correctness
// review of a statement.
func BuildAnalysisPrompt(sqlText string) string {
	return fmt.Sprintf(`Analyze this SQL query concisely (max 3-4 bullet points):

%s

Provide only:
- Safety (any risks?)
- Performance (any optimizations?)
- Correctness (any logical issues?)

Keep each point to 1-2 sentences maximum.`, strings.TrimSpace(sqlText))
}

func renderSample(outcome Outcome, sampleRows int) string {
	if len(outcome.Columns) == 0 {
		return "(no columns)"
	}
	var builder strings.Builder
	builder.WriteString(strings.Join(outcome.Columns, " | "))
	for i, row := range outcome.Rows {
		if i >= sampleRows {
			builder.WriteString(fmt.Sprintf("\n... (%d more rows)", len(outcome.Rows)-sampleRows))
			break
		}
		cells := make([]string, len(row))
		for j, cell := range row {
			if cell == nil {
				cells[j] = "NULL"
				continue
			}
			cells[j] = fmt.Sprintf("%v", cell)
		}
		builder.WriteString("\n" + strings.Join(cells, " | "))
	}
	return builder.String()
}

func dialectLabel(dialect dbconn.Dialect) string {
	switch dialect {
	case dbconn.DialectPostgres:
		return "PostgreSQL"
	case dbconn.DialectSQLite:
		return "SQLite"
	case dbconn.DialectMySQL:
		return "MySQL"
	case dbconn.DialectDuckDB:
		return "DuckDB"
	default:
		return "SQL"
	}
}
