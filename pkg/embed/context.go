// Package embed is the host-facing embedding surface of spec.md §6.1:
// the API a driving program links against to create a context, feed it
// transition systems and commands, and observe the search as it runs.
// Everything in pkg/pdkind is usable directly by a Go host; this
// package exists for hosts that want the C-shaped
// create/delete/run/callback contract spec.md describes instead, and
// for the textual command language of spec.md §6.2.
//
// Grounded in the teacher's context_utils.go ContextMonitor/
// OperationTracker pattern: a context type that owns named, trackable
// long-running operations and logs their lifecycle, generalized here
// from minikanren goal evaluation to named transition systems and the
// queries run against them.
package embed

import (
	"context"
	"os"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/gitrdm/pdkind/internal/term"
	"github.com/gitrdm/pdkind/pkg/cex"
	"github.com/gitrdm/pdkind/pkg/errs"
	"github.com/gitrdm/pdkind/pkg/pdkind"
	"github.com/gitrdm/pdkind/pkg/refsolver"
	"github.com/gitrdm/pdkind/pkg/solver"
	"github.com/gitrdm/pdkind/pkg/ts"
)

// NewReachabilityLemmaFunc mirrors spec.md §6.1's
// set_new_reachability_lemma_eh(Context, cb, user) callback shape.
type NewReachabilityLemmaFunc func(ctx context.Context, user any, level int, l term.T)

// ObligationPushedFunc mirrors set_obligation_pushed_eh's callback.
type ObligationPushedFunc func(ctx context.Context, user any, level int, f term.T, c cex.NodeID, depth int)

// NextFrameFunc mirrors add_next_frame_eh's callback.
type NextFrameFunc func(ctx context.Context, user any, level int)

type pendingLemma struct {
	induction bool
	level     int
	f         term.T
	cexCube   term.T
	depth     int
}

// Context is one embedding session: a term manager shared by every
// system registered against it, the named systems themselves, any
// lemmas staged before their system's first query, and the host's
// event-hook registrations. Concurrent use of a single Context from
// multiple goroutines is not supported (the driver it wraps isn't
// either); a host that wants to run independent systems concurrently
// should use RunMany or give each goroutine its own Context.
type Context struct {
	id     uuid.UUID
	mgr    *term.Manager
	opts   pdkind.Options
	logger *zap.Logger

	mu       sync.Mutex
	systems  map[string]*ts.TransitionSystem
	pending  map[string][]pendingLemma
	drivers  map[string]*pdkind.Driver
	lastGood map[string]*pdkind.Result

	newLemmaCB     NewReachabilityLemmaFunc
	newLemmaUser   any
	obligationCB   ObligationPushedFunc
	obligationUser any
	nextFrameCB    NextFrameFunc
	nextFrameUser  any
}

// CreateContext validates raw against spec.md §6.1's option table and
// returns a fresh Context, per create_context(options) -> Context.
func CreateContext(raw map[string]string) (*Context, error) {
	opts, err := pdkind.NewOptions(raw)
	if err != nil {
		return nil, err
	}
	logger, err := newLogger(opts.LogLevel)
	if err != nil {
		return nil, errs.Wrap(errs.Config, err, "embed: building logger")
	}
	return &Context{
		id:       uuid.New(),
		mgr:      term.NewManager(),
		opts:     opts,
		logger:   logger,
		systems:  make(map[string]*ts.TransitionSystem),
		pending:  make(map[string][]pendingLemma),
		drivers:  make(map[string]*pdkind.Driver),
		lastGood: make(map[string]*pdkind.Result),
	}, nil
}

// ID returns this context's instance id, for hosts that log or key by
// context across create_context/delete_context pairs.
func (c *Context) ID() uuid.UUID { return c.id }

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	if level == "debug" {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	return cfg.Build()
}

// DeleteContext releases ctx's resources, per delete_context(Context).
// A term.Manager and the frame/cex stores underneath it are ordinary
// Go heap values with nothing external to release; this mostly flushes
// the logger, the one resource a host can observe outliving the call.
func DeleteContext(ctx *Context) error {
	if ctx.logger == nil {
		return nil
	}
	err := ctx.logger.Sync()
	// Sync on a console/stderr sink routinely reports ENOTTY/EINVAL in
	// test harnesses and CI; don't surface that as a caller-visible
	// failure.
	if err != nil && !strings.Contains(err.Error(), "invalid argument") {
		return err
	}
	return nil
}

// RunOnSource parses text as dialect and registers the result under
// systemID for later command-language references, per
// run_on_source(Context, text, dialect). The embedding surface of
// spec.md §6.1 does not say where a system's id comes from when it
// isn't spelled in the source text itself; this context resolves that
// by taking the id as a parameter, as RunOnFile below does too.
func (c *Context) RunOnSource(systemID, text string, dialect ts.Dialect) (*ts.Parsed, error) {
	parsed, err := ts.ParseSource(c.mgr, text, dialect)
	if err != nil {
		return nil, errs.Wrap(errs.Parse, err, "embed: parsing system %q", systemID)
	}
	c.mu.Lock()
	c.systems[systemID] = parsed.TS
	c.mu.Unlock()
	return parsed, nil
}

// RunOnFile loads path, inferring the dialect from its extension
// (".chc" selects CHC, anything else MCMT), and registers it under
// systemID, per run_on_file(Context, path).
func (c *Context) RunOnFile(systemID, path string) (*ts.Parsed, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errs.Wrap(errs.Parse, err, "embed: reading %s", path)
	}
	dialect := ts.MCMT
	if strings.HasSuffix(path, ".chc") {
		dialect = ts.CHC
	}
	return c.RunOnSource(systemID, string(data), dialect)
}

// TermToString renders t using the command-language syntax AddLemma
// accepts, per term_to_string(Context, T) -> string.
func (c *Context) TermToString(t term.T) string {
	return ts.FormatTerm(c.mgr, t)
}

// SetNewReachabilityLemmaEh registers cb, called with user whenever
// any system's driver installs a new lemma in one of its frames (the
// lemmas the reachability engine learns, and also Init, the property,
// pushed lemmas and lemmas added through AddLemma), per
// set_new_reachability_lemma_eh(Context, cb, user).
func (c *Context) SetNewReachabilityLemmaEh(cb NewReachabilityLemmaFunc, user any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.newLemmaCB, c.newLemmaUser = cb, user
}

// SetObligationPushedEh registers cb, called with user after every
// push attempt, per set_obligation_pushed_eh(Context, cb, user).
func (c *Context) SetObligationPushedEh(cb ObligationPushedFunc, user any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.obligationCB, c.obligationUser = cb, user
}

// AddNextFrameEh registers cb, called with user whenever the outer
// loop advances a frame, per add_next_frame_eh(Context, cb, user).
func (c *Context) AddNextFrameEh(cb NextFrameFunc, user any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nextFrameCB, c.nextFrameUser = cb, user
}

func (c *Context) newSolver() (solver.Solver, error) {
	switch c.opts.Solver {
	case "ref", "":
		return solver.NewIncremental(refsolver.New(c.mgr)), nil
	default:
		return nil, errs.New(errs.Config, "embed: unknown solver backend %q", c.opts.Solver)
	}
}

func (c *Context) newDriver(sys *ts.TransitionSystem, property term.T) (*pdkind.Driver, error) {
	initSolver, err := c.newSolver()
	if err != nil {
		return nil, err
	}
	reachSolver, err := c.newSolver()
	if err != nil {
		return nil, err
	}
	inductionSolver, err := c.newSolver()
	if err != nil {
		return nil, err
	}
	d := pdkind.NewDriver(c.mgr, sys, property, c.opts, initSolver, reachSolver, inductionSolver)
	d.OnNewReachabilityLemma = func(ctx context.Context, level int, l term.T) {
		c.mu.Lock()
		cb, user := c.newLemmaCB, c.newLemmaUser
		c.mu.Unlock()
		if cb != nil {
			cb(ctx, user, level, l)
		}
	}
	d.OnObligationPushed = func(ctx context.Context, level int, f term.T, node cex.NodeID, depth int) {
		c.mu.Lock()
		cb, user := c.obligationCB, c.obligationUser
		c.mu.Unlock()
		if cb != nil {
			cb(ctx, user, level, f, node, depth)
		}
	}
	d.OnNextFrame = func(ctx context.Context, level int) {
		c.mu.Lock()
		cb, user := c.nextFrameCB, c.nextFrameUser
		c.mu.Unlock()
		if cb != nil {
			cb(ctx, user, level)
		}
	}
	return d, nil
}

// RunQuery runs the query form (query <system-id> <term>) directly,
// without going through the textual command language: it builds a
// fresh driver for systemID, applies any lemmas staged by earlier
// AddLemma calls against that system, and runs it to a verdict.
func (c *Context) RunQuery(stdctx context.Context, systemID string, property term.T) (*pdkind.Result, error) {
	c.mu.Lock()
	sys, ok := c.systems[systemID]
	pending := c.pending[systemID]
	c.mu.Unlock()
	if !ok {
		return nil, errs.New(errs.Config, "embed: unknown system %q", systemID)
	}

	d, err := c.newDriver(sys, property)
	if err != nil {
		return nil, err
	}
	for _, pl := range pending {
		if pl.induction {
			d.AddInductionLemma(pl.level, pl.f, pl.cexCube, pl.depth)
		} else {
			d.AddReachabilityLemma(pl.level, pl.f)
		}
	}

	res, err := d.Query(stdctx)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.drivers[systemID] = d
	c.lastGood[systemID] = res
	c.mu.Unlock()

	if c.logger != nil {
		c.logger.Info("query complete",
			zap.String("context", c.id.String()),
			zap.String("system", systemID),
			zap.String("verdict", res.Verdict.String()))
	}
	return res, nil
}

// LastResult returns the outcome of the most recent query run against
// systemID, if any.
func (c *Context) LastResult(systemID string) (*pdkind.Result, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	r, ok := c.lastGood[systemID]
	return r, ok
}
