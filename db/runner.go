package db

import (
	"context"
	"strings"
	"time"

	"github.com/gear6io/airbus/config"
	"github.com/gear6io/airbus/db/script"
	"github.com/gear6io/airbus/db/table"
	"github.com/gear6io/airbus/pkg/errors"
	"github.com/gear6io/airbus/storage"
	"github.com/gear6io/airbus/utils"
	"github.com/rs/zerolog"
)

// QueryBlock names the single block of a runner built from inline SQL
const QueryBlock = "query"

// Options select what a runner executes
type Options struct {
	// SQL is a single statement, used when Script is empty
	SQL string
	// Script is a local path or s3://bucket/key of a block script
	Script string
	// Context overrides the configured placeholder values
	Context script.Context
	// Retry overrides the configured retry policy
	Retry *RetryPolicy
	// Opener replaces the configured driver
	Opener Opener
	// Storage replaces the registry built from the storage section
	Storage *storage.Registry
	// Verbose logs the text of every statement
	Verbose bool
}

// Result is the canonical table produced by one block
type Result struct {
	Block   string
	QueryID string
	Table   *table.Table
}

// Runner owns one connection and the blocks it runs over it
type Runner struct {
	runID   string
	script  *script.Script
	handle  *Handle
	verbose bool
	logger  zerolog.Logger
}

// NewRunner loads the blocks, then connects. Configuration problems are reported before any connection attempt.
func NewRunner(ctx context.Context, cfg *config.Config, opts Options, logger zerolog.Logger) (*Runner, error) {
	if strings.TrimSpace(opts.SQL) == "" && strings.TrimSpace(opts.Script) == "" {
		return nil, errors.New(ErrConfigInvalid, "sql and script can not both be empty", nil)
	}

	runID := utils.NewRunID()
	logger = logger.With().Str("run_id", runID).Logger()

	execCtx := script.Merge(script.Context(cfg.Context), opts.Context)

	var blocks *script.Script
	if opts.Script != "" {
		registry := opts.Storage
		if registry == nil {
			var err error
			if registry, err = storage.NewDefaultRegistry(cfg.Storage, logger); err != nil {
				return nil, errors.New(ErrConfigInvalid, "invalid storage configuration", err)
			}
		}

		text, err := registry.ReadText(ctx, opts.Script)
		if err != nil {
			return nil, errors.New(ErrConfigInvalid, "failed to read script", err).AddContext("script", opts.Script)
		}
		blocks = script.Parse(text, execCtx)
		logger.Info().
			Str("script", opts.Script).
			Strs("blocks", blocks.Names()).
			Msg("Parsed sql script")
	} else {
		blocks = script.Single(QueryBlock, opts.SQL, execCtx)
	}

	if missing := blocks.Unresolved(); len(missing) > 0 {
		logger.Warn().Strs("placeholders", missing).Msg("Placeholders without a context value were left in place")
	}

	policy := RetryPolicyFromConfig(cfg.Database.Retry)
	if opts.Retry != nil {
		policy = *opts.Retry
	}

	connector, err := NewConnector(cfg.Database, policy, opts.Opener, logger)
	if err != nil {
		return nil, err
	}

	handle, err := connector.Connect(ctx)
	if err != nil {
		return nil, err
	}

	return &Runner{
		runID:   runID,
		script:  blocks,
		handle:  handle,
		verbose: opts.Verbose,
		logger:  logger,
	}, nil
}

// WithRunner runs fn with a new runner and closes it on every exit path
func WithRunner(ctx context.Context, cfg *config.Config, opts Options, logger zerolog.Logger, fn func(*Runner) error) (err error) {
	r, err := NewRunner(ctx, cfg, opts, logger)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := r.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	return fn(r)
}

// RunID identifies this runner in logs
func (r *Runner) RunID() string {
	return r.runID
}

// StartedAt is the time encoded in the run id
func (r *Runner) StartedAt() time.Time {
	t, _ := utils.RunStartedAt(r.runID)
	return t
}

// Host returns the candidate host the runner is connected to
func (r *Runner) Host() string {
	return r.handle.Host()
}

// Blocks returns the blocks in discovery order
func (r *Runner) Blocks() []script.Block {
	return r.script.Blocks()
}

// Run executes one block by name
func (r *Runner) Run(ctx context.Context, name string) (*Result, error) {
	if r.handle.Closed() {
		return nil, errors.New(ErrRunnerClosed, "runner has been closed", nil).AddContext("block", name)
	}

	sql, ok := r.script.Get(name)
	if !ok {
		return nil, errors.Newf(ErrBlockNotFound, "block %q is not defined", name).AddContext("block", name)
	}

	logger := r.logger.With().Str("block", name).Logger()
	logger.Debug().Msg("Running block")

	raw, err := NewExecutor(r.handle.DB(), r.verbose, logger).Execute(ctx, sql)
	if err != nil {
		return nil, tagBlock(err, name)
	}

	tbl, err := table.NormalizeTyped(raw.Columns, raw.Types, raw.Rows)
	if err != nil {
		return nil, tagBlock(errors.New(ErrExecutionFailed, "failed to normalize result", err).
			AddContext("query_id", raw.QueryID), name)
	}

	return &Result{Block: name, QueryID: raw.QueryID, Table: tbl}, nil
}

// RunAll executes every block in discovery order and stops at the first failure,
// returning the results of the blocks that completed.
func (r *Runner) RunAll(ctx context.Context) ([]*Result, error) {
	results := make([]*Result, 0, r.script.Len())
	for _, name := range r.script.Names() {
		res, err := r.Run(ctx, name)
		if err != nil {
			return results, err
		}
		results = append(results, res)
	}
	return results, nil
}

// Close releases the connection. It is safe to call more than once.
func (r *Runner) Close() error {
	return r.handle.Close()
}

// tagBlock wraps an execution error with the failing block's name
func tagBlock(err error, block string) error {
	tagged := errors.Wrapf(ErrExecutionFailed, err, "block %q failed", block).AddContext("block", block)
	if id := errors.GetContext(err)["query_id"]; id != "" {
		tagged.AddContext("query_id", id)
	}
	return tagged
}
