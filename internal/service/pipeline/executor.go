package pipeline

import (
	"context"
	"strings"
	"time"

	"github.com/sandevgo/talkdata/internal/core"
	"github.com/sandevgo/talkdata/pkg/log"
)

// Executor runs an extracted query against the dataset and classifies what
// happened into the outcome taxonomy. Store errors become an outcome, not a
// Go error, so callers branch on one axis.
type Executor struct {
	store   core.RowStore
	timeout time.Duration
}

func NewExecutor(store core.RowStore, timeout time.Duration) *Executor {
	return &Executor{store: store, timeout: timeout}
}

func (e *Executor) Execute(ctx context.Context, query string) core.Outcome {
	query = strings.TrimSpace(query)
	if query == "" {
		return core.Outcome{Status: core.StatusNoQueryExtracted}
	}

	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	rows, err := e.store.Execute(ctx, query)
	if err != nil {
		log.FromCtx(ctx).Error().Err(err).Str("query", query).Msg("query execution failed")
		return core.Outcome{
			Status:  core.StatusExecutionFailed,
			Query:   query,
			Message: err.Error(),
		}
	}

	if len(rows) == 0 {
		return core.Outcome{Status: core.StatusNoRowsReturned, Query: query}
	}

	return core.Outcome{Status: core.StatusSuccess, Query: query, Rows: rows}
}
