package embed

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/gitrdm/pdkind/internal/parallel"
	"github.com/gitrdm/pdkind/internal/term"
	"github.com/gitrdm/pdkind/pkg/pdkind"
)

// BatchQuery names one query to run as part of a RunMany batch: the
// system to query and the property to check, per the `query`
// command's (system-id, term) pair.
type BatchQuery struct {
	SystemID string
	Property term.T
}

// BatchResult is the outcome of one BatchQuery.
type BatchResult struct {
	SystemID string
	Result   *pdkind.Result
	Err      error
}

// RunMany runs every query in queries against this Context's systems,
// bounded to maxWorkers concurrent queries at a time (0 defaults to
// NumCPU). Each query gets its own driver and solver set, so queries
// for distinct systems (or repeat queries for the same system) never
// share search state, only the term manager.
//
// Each query is wrapped in the pool's deadlock detector so a solver
// call that never returns can't hold a worker (or this call) forever;
// a wedged query surfaces as an error in its BatchResult rather than
// blocking the whole batch.
//
// A host checking many properties, or the same property incrementally
// strengthened across several systems, wants those queries to run
// concurrently rather than one at a time — this is that entry point.
func (c *Context) RunMany(stdctx context.Context, queries []BatchQuery, maxWorkers int) []BatchResult {
	pool := parallel.NewWorkerPool(maxWorkers)
	detector := pool.GetDeadlockDetector()
	results := make([]BatchResult, len(queries))
	var wg sync.WaitGroup

	for i, q := range queries {
		wg.Add(1)
		i, q := i, q
		taskID := fmt.Sprintf("query-%d-%s", i, q.SystemID)
		err := pool.Submit(stdctx, func() {
			defer wg.Done()
			var res *pdkind.Result
			runErr := detector.ExecuteWithDeadlockProtection(stdctx, taskID, q.SystemID, func(ctx context.Context) error {
				var err error
				res, err = c.RunQuery(ctx, q.SystemID, q.Property)
				return err
			})
			results[i] = BatchResult{SystemID: q.SystemID, Result: res, Err: runErr}
		})
		if err != nil {
			results[i] = BatchResult{SystemID: q.SystemID, Err: err}
			wg.Done()
		}
	}

	wg.Wait()
	pool.Shutdown()

	if c.logger != nil {
		c.logger.Info("batch query complete",
			zap.Int("queries", len(queries)),
			zap.String("stats", pool.GetStats().String()))
	}
	return results
}
