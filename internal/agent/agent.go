package agent

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/ranjithr99/SQL-AGENT/internal/config"
	"github.com/ranjithr99/SQL-AGENT/internal/dbconn"
	"github.com/ranjithr99/SQL-AGENT/internal/llm"
	"github.com/ranjithr99/SQL-AGENT/internal/observability"
	"github.com/ranjithr99/SQL-AGENT/internal/schema"
)

const extractionFallbackMessage = "No SQL could be extracted from the model response. Try rephrasing the question."

// Agent sequences schema introspection, prompt construction, model calls,
// extraction, validation, execution, and explanation into one operation. The
// schema description is built once per instance and shared read-only across
// requests until InvalidateSchema is called.
type Agent struct {
	db           *sql.DB
	dialect      dbconn.Dialect
	model        llm.Client
	logger       *slog.Logger
	cfg          config.AgentConfig
	validator    Validator
	executor     *Executor
	introspector *schema.Introspector

	mu         sync.Mutex
	schemaText string
	schemaSet  bool
}

func New(db *sql.DB, dialect dbconn.Dialect, model llm.Client, logger *slog.Logger, cfg config.AgentConfig) *Agent {
	return &Agent{
		db:           db,
		dialect:      dialect,
		model:        model,
		logger:       logger,
		cfg:          cfg,
		validator:    Validator{RowLimitRewrite: cfg.RowLimitRewrite},
		executor:     &Executor{DB: db, MaxRows: cfg.MaxRows, Timeout: cfg.QueryTimeout},
		introspector: schema.NewIntrospector(db, dialect),
	}
}

// GetSchema returns the cached textual schema description, building it on
// first use.
func (a *Agent) GetSchema(ctx context.Context) (string, error) {
	return a.schemaDescription(ctx)
}

// InvalidateSchema discards the cached schema description so the next call
// rebuilds it. Use after the underlying database schema changed.
func (a *Agent) InvalidateSchema() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.schemaText = ""
	a.schemaSet = false
}

// ProcessNaturalLanguage runs the full pipeline for one question. It always
// returns a well-formed Result; unexpected faults are caught at this boundary
// and reported through the Error field.
func (a *Agent) ProcessNaturalLanguage(ctx context.Context, question string) (result Result) {
	defer func() {
		if recovered := recover(); recovered != nil {
			if a.logger != nil {
				a.logger.ErrorContext(ctx, "pipeline panic", slog.Any("panic", recovered))
			}
			result = Result{Success: false, Error: fmt.Sprintf("unexpected failure: %v", recovered)}
		}
	}()

	observability.IncrementQuestions()
	question = strings.TrimSpace(question)
	if question == "" {
		return Result{Success: false, Error: "question is required"}
	}

	schemaText, err := a.schemaDescription(ctx)
	if err != nil {
		return Result{Success: false, Error: err.Error()}
	}

	prompt := BuildQueryPrompt(schemaText, question, a.dialect)
	raw, err := a.generate(ctx, "generate_sql", prompt)
	if err != nil {
		return Result{Success: false, Error: err.Error()}
	}
	if a.cfg.Verbose {
		result.RawResponse = raw
	}

	extracted, ok := ExtractSQL(raw)
	if !ok {
		observability.IncrementExtractionFailures()
		if a.logger != nil {
			a.logger.InfoContext(ctx, "no sql extracted", slog.String("question", question))
		}
		result.Success = true
		result.Explanation = extractionFallbackMessage
		return result
	}
	if a.logger != nil {
		a.logger.DebugContext(ctx, "sql extracted",
			slog.String("method", string(extracted.Method)),
			slog.String("sql", extracted.SQL),
		)
	}

	verdict := a.validator.Validate(extracted.SQL)
	if !verdict.Allowed {
		observability.IncrementValidationRejections()
		result.Success = true
		result.Query = extracted.SQL
		result.Explanation = "The generated statement was not executed: " + verdict.Reason
		return result
	}

	execSQL := extracted.SQL
	result.Query = extracted.SQL
	if verdict.RewrittenSQL != "" {
		execSQL = verdict.RewrittenSQL
		result.Query = verdict.RewrittenSQL
		result.QueryNote = verdict.Note
	}

	outcome := a.executor.Run(ctx, execSQL)
	result.Success = true
	if outcome.Failed() {
		observability.IncrementSQLErrors()
		result.SQLError = outcome.Err.Error()
		result.Explanation = a.explainFailure(ctx, question, execSQL, outcome.Err)
		return result
	}

	observability.ObserveQueryDuration(outcome.Duration)
	table := Classify(outcome)
	result.TableData = &table
	result.Explanation = a.explainSuccess(ctx, question, execSQL, outcome)
	return result
}

// AnalyzeQuery asks the model for a concise safety/performance/correctness
// review of a statement. The statement is never executed.
func (a *Agent) AnalyzeQuery(ctx context.Context, sqlText string) (Analysis, error) {
	sqlText = CleanSQL(sqlText)
	if sqlText == "" {
		return Analysis{}, fmt.Errorf("query is required")
	}
	analysis, err := a.generate(ctx, "analyze", BuildAnalysisPrompt(sqlText))
	if err != nil {
		return Analysis{}, err
	}
	return Analysis{Query: sqlText, Analysis: strings.TrimSpace(analysis)}, nil
}

func (a *Agent) schemaDescription(ctx context.Context) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.schemaSet {
		return a.schemaText, nil
	}

	described, err := a.introspector.Describe(ctx)
	if err != nil {
		return "", &SchemaError{Err: err}
	}
	a.schemaText = described.Render()
	a.schemaSet = true
	return a.schemaText, nil
}

func (a *Agent) generate(ctx context.Context, purpose, prompt string) (string, error) {
	start := time.Now()
	raw, err := a.model.Generate(ctx, prompt)
	observability.ObserveModelRequestDuration(purpose, time.Since(start))
	if err != nil {
		return "", &ModelError{Purpose: purpose, Err: err}
	}
	return raw, nil
}

func (a *Agent) explainSuccess(ctx context.Context, question, sqlText string, outcome Outcome) string {
	explanation, err := a.generate(ctx, "explain", BuildExplainPrompt(question, sqlText, outcome, a.cfg.ExplainSampleRows))
	if err != nil {
		if a.logger != nil {
			a.logger.WarnContext(ctx, "explanation request failed", slog.Any("error", err))
		}
		return fmt.Sprintf("The query executed successfully and returned %d row(s).", outcome.RowCount)
	}
	return strings.TrimSpace(explanation)
}

func (a *Agent) explainFailure(ctx context.Context, question, sqlText string, execErr error) string {
	explanation, err := a.generate(ctx, "explain_failure", BuildFailureExplainPrompt(question, sqlText, execErr.Error()))
	if err != nil {
		if a.logger != nil {
			a.logger.WarnContext(ctx, "failure explanation request failed", slog.Any("error", err))
		}
		return "The generated query failed to execute. See sql_error for details."
	}
	return strings.TrimSpace(explanation)
}
