package sqlagent

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/ranjithr99/SQL-AGENT/internal/agent"
	"github.com/ranjithr99/SQL-AGENT/internal/config"
	"github.com/ranjithr99/SQL-AGENT/internal/dbconn"
	"github.com/ranjithr99/SQL-AGENT/internal/llm"
	"github.com/ranjithr99/SQL-AGENT/internal/observability"
	"github.com/ranjithr99/SQL-AGENT/internal/sampledb"
)

// Pipeline is the agent surface the CLI drives. The concrete agent satisfies
// it; tests substitute fakes.
type Pipeline interface {
	ProcessNaturalLanguage(ctx context.Context, question string) agent.Result
	GetSchema(ctx context.Context) (string, error)
}

type Options struct {
	Lookup   config.LookupFunc
	Pipeline Pipeline
	Stdin    io.Reader
	Stdout   io.Writer
	Stderr   io.Writer
}

func Run(ctx context.Context, args []string, defaults Options) int {
	stdout := defaults.Stdout
	if stdout == nil {
		stdout = io.Discard
	}
	stderr := defaults.Stderr
	if stderr == nil {
		stderr = io.Discard
	}
	stdin := defaults.Stdin
	if stdin == nil {
		stdin = strings.NewReader("")
	}

	fs := flag.NewFlagSet("sqlagent", flag.ContinueOnError)
	fs.SetOutput(stderr)

	dbDSN := fs.String("db", "", "Database DSN (overrides SQLAGENT_DB_DSN)")
	setup := fs.Bool("setup", false, "Create the sample SQLite database and exit")
	showSchema := fs.Bool("schema", false, "Print the database schema and exit")
	question := fs.String("query", "", "Natural language question to answer")
	interactive := fs.Bool("interactive", false, "Start an interactive session")
	format := fs.String("format", "table", "Output format: table or json")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	switch *format {
	case "table", "json":
	default:
		_, _ = fmt.Fprintf(stderr, "invalid -format %q: expected table or json\n", *format)
		return 2
	}

	cfg, err := loadConfig(defaults.Lookup)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "configuration error: %v\n", err)
		return 1
	}
	if strings.TrimSpace(*dbDSN) != "" {
		cfg.Database.DSN = strings.TrimSpace(*dbDSN)
	}

	if *setup {
		return runSetup(ctx, cfg, stdout, stderr)
	}

	pipeline := defaults.Pipeline
	if pipeline == nil {
		built, closeDB, err := buildPipeline(ctx, cfg, stderr)
		if err != nil {
			_, _ = fmt.Fprintf(stderr, "startup error: %v\n", err)
			return 1
		}
		defer closeDB()
		pipeline = built
	}

	if *showSchema {
		schemaText, err := pipeline.GetSchema(ctx)
		if err != nil {
			_, _ = fmt.Fprintf(stderr, "schema error: %v\n", err)
			return 1
		}
		_, _ = fmt.Fprintln(stdout, "Database Schema:")
		_, _ = fmt.Fprintln(stdout, schemaText)
		return 0
	}

	if strings.TrimSpace(*question) != "" {
		result := pipeline.ProcessNaturalLanguage(ctx, *question)
		if !result.Success {
			_, _ = fmt.Fprintf(stderr, "Error: %s\n", result.Error)
			return 1
		}
		renderResult(stdout, result, *format)
		return 0
	}

	if *interactive {
		return runInteractive(ctx, pipeline, stdin, stdout, stderr, *format)
	}

	fs.Usage()
	return 2
}

func loadConfig(lookup config.LookupFunc) (config.Config, error) {
	if lookup == nil {
		return config.LoadFromEnv("sqlagent")
	}
	return config.Load("sqlagent", lookup)
}

func runSetup(ctx context.Context, cfg config.Config, stdout, stderr io.Writer) int {
	db, dialect, err := dbconn.Open(ctx, dbconn.Config{
		DSN:             cfg.Database.DSN,
		Driver:          cfg.Database.Driver,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxIdleTime: cfg.Database.ConnMaxIdleTime,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	})
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "database error: %v\n", err)
		return 1
	}
	defer func() { _ = db.Close() }()

	if dialect != dbconn.DialectSQLite {
		_, _ = fmt.Fprintf(stderr, "sample setup only supports sqlite databases, got %s\n", dialect)
		return 1
	}

	_, _ = fmt.Fprintf(stdout, "Setting up sample database at %s\n", cfg.Database.DSN)
	if err := sampledb.Setup(ctx, db); err != nil {
		_, _ = fmt.Fprintf(stderr, "setup error: %v\n", err)
		return 1
	}
	_, _ = fmt.Fprintln(stdout, "Sample database created successfully!")
	return 0
}

func buildPipeline(ctx context.Context, cfg config.Config, stderr io.Writer) (Pipeline, func(), error) {
	db, dialect, err := dbconn.Open(ctx, dbconn.Config{
		DSN:             cfg.Database.DSN,
		Driver:          cfg.Database.Driver,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxIdleTime: cfg.Database.ConnMaxIdleTime,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	})
	if err != nil {
		return nil, nil, err
	}

	model, err := llm.New(cfg.AI)
	if err != nil {
		_ = db.Close()
		return nil, nil, err
	}

	logger := observability.NewLogger(cfg, stderr)
	return agent.New(db, dialect, model, logger, cfg.Agent), func() { _ = db.Close() }, nil
}

func runInteractive(ctx context.Context, pipeline Pipeline, stdin io.Reader, stdout, stderr io.Writer, format string) int {
	_, _ = fmt.Fprintln(stdout, "SQL Agent Interactive Mode")
	_, _ = fmt.Fprintln(stdout, "Type 'exit' or 'quit' to end the session")
	_, _ = fmt.Fprintln(stdout, "Type 'schema' to see the database schema")

	scanner := bufio.NewScanner(stdin)
	for {
		_, _ = fmt.Fprint(stdout, "\nEnter your question: ")
		if !scanner.Scan() {
			break
		}
		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}
		switch strings.ToLower(input) {
		case "exit", "quit":
			return 0
		case "schema":
			schemaText, err := pipeline.GetSchema(ctx)
			if err != nil {
				_, _ = fmt.Fprintf(stderr, "schema error: %v\n", err)
				continue
			}
			_, _ = fmt.Fprintln(stdout, schemaText)
			continue
		}

		result := pipeline.ProcessNaturalLanguage(ctx, input)
		if !result.Success {
			_, _ = fmt.Fprintf(stderr, "Error: %s\n", result.Error)
			continue
		}
		renderResult(stdout, result, format)
	}
	return 0
}

func renderResult(w io.Writer, result agent.Result, format string) {
	if format == "json" {
		encoded, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			_, _ = fmt.Fprintf(w, "encoding error: %v\n", err)
			return
		}
		_, _ = fmt.Fprintln(w, string(encoded))
		return
	}

	_, _ = fmt.Fprintln(w, "\nResults:")
	if result.Explanation != "" {
		_, _ = fmt.Fprintln(w, result.Explanation)
	}
	if result.SQLError != "" {
		_, _ = fmt.Fprintf(w, "SQL Execution Error: %s\n", result.SQLError)
	}
	if result.TableData != nil && result.TableData.IsTabular {
		_, _ = fmt.Fprintln(w)
		renderTable(w, result.TableData)
	}
	if result.Query != "" {
		_, _ = fmt.Fprintln(w, "\nGenerated SQL:")
		_, _ = fmt.Fprintln(w, result.Query)
		if result.QueryNote != "" {
			_, _ = fmt.Fprintf(w, "Note: %s\n", result.QueryNote)
		}
	}
}

func renderTable(w io.Writer, table *agent.TableData) {
	widths := make([]int, len(table.Columns))
	for i, column := range table.Columns {
		widths[i] = len(column)
	}
	cells := make([][]string, len(table.Rows))
	for rowIdx, row := range table.Rows {
		cells[rowIdx] = make([]string, len(row))
		for colIdx, cell := range row {
			rendered := "NULL"
			if cell != nil {
				rendered = fmt.Sprintf("%v", cell)
			}
			cells[rowIdx][colIdx] = rendered
			if colIdx < len(widths) && len(rendered) > widths[colIdx] {
				widths[colIdx] = len(rendered)
			}
		}
	}

	writeRow := func(values []string) {
		parts := make([]string, len(values))
		for i, value := range values {
			parts[i] = fmt.Sprintf("%-*s", widths[i], value)
		}
		_, _ = fmt.Fprintln(w, strings.Join(parts, " | "))
	}

	writeRow(table.Columns)
	separators := make([]string, len(widths))
	for i, width := range widths {
		separators[i] = strings.Repeat("-", width)
	}
	_, _ = fmt.Fprintln(w, strings.Join(separators, "-+-"))
	for _, row := range cells {
		writeRow(row)
	}
}
