package db

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/gear6io/airbus/db/script"
	"github.com/gear6io/airbus/pkg/errors"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Queryer is the part of *sql.DB the executor needs
type Queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// RawResult is what the engine returned, before normalization
type RawResult struct {
	QueryID string
	Columns []string
	// Types holds the engine type name of each column, "" when the driver does not report one
	Types []string
	Rows  [][]any
}

// Empty reports whether the statement produced no result set
func (r *RawResult) Empty() bool {
	return len(r.Columns) == 0
}

// Executor runs single statements over one connection
type Executor struct {
	q       Queryer
	verbose bool
	logger  zerolog.Logger
}

// NewExecutor creates an executor over q. With verbose set the statement text is logged.
func NewExecutor(q Queryer, verbose bool, logger zerolog.Logger) *Executor {
	return &Executor{q: q, verbose: verbose, logger: logger}
}

// Execute runs query and materializes every row. Blank SQL returns an empty
// result without contacting the engine. Engine errors are not retried.
func (e *Executor) Execute(ctx context.Context, query string) (*RawResult, error) {
	if strings.TrimSpace(query) == "" {
		e.logger.Info().Msg("Executed sql is empty")
		return &RawResult{Columns: []string{}, Types: []string{}, Rows: [][]any{}}, nil
	}

	queryID := uuid.New().String()
	event := e.logger.Info().Str("query_id", queryID).Str("statement", script.Kind(query))
	if e.verbose {
		event = event.Str("sql", query)
	}
	event.Msg("Starting run sql")

	start := time.Now()
	rows, err := e.q.QueryContext(ctx, query)
	if err != nil {
		return nil, errors.New(ErrExecutionFailed, "query execution failed", err).AddContext("query_id", queryID)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, errors.New(ErrExecutionFailed, "failed to read result columns", err).AddContext("query_id", queryID)
	}

	types := make([]string, len(columns))
	if colTypes, err := rows.ColumnTypes(); err == nil {
		for i, ct := range colTypes {
			types[i] = ct.DatabaseTypeName()
		}
	}

	result := &RawResult{QueryID: queryID, Columns: columns, Types: types, Rows: [][]any{}}
	for rows.Next() {
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, errors.New(ErrExecutionFailed, "failed to scan row", err).AddContext("query_id", queryID)
		}
		result.Rows = append(result.Rows, values)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.New(ErrExecutionFailed, "failed while reading rows", err).AddContext("query_id", queryID)
	}

	e.logger.Info().
		Str("query_id", queryID).
		Int("rows", len(result.Rows)).
		Dur("duration", time.Since(start)).
		Msg("Finished run sql")

	return result, nil
}
