package embed

import (
	"context"
	"fmt"
	"strconv"

	"github.com/gitrdm/pdkind/internal/term"
	"github.com/gitrdm/pdkind/pkg/errs"
	"github.com/gitrdm/pdkind/pkg/pdkind"
	"github.com/gitrdm/pdkind/pkg/ts"
)

// command is one parsed form of spec.md §6.2's command language:
//
//	(lemma <system-id> <level> <term>)
//	(ilemma <system-id> <level> <term> <cex> <cex-depth>)
//	(query <system-id> <term>)
type command struct {
	kind     string
	systemID string
	level    int
	term     ts.Sexpr
	cex      ts.Sexpr
	cexDepth int
}

func parseCommand(raw string) (*command, error) {
	forms, err := ts.ParseSexprs(raw)
	if err != nil {
		return nil, errs.Wrap(errs.Parse, err, "embed: malformed command")
	}
	if len(forms) != 1 {
		return nil, errs.New(errs.Parse, "embed: expected exactly one command form, got %d", len(forms))
	}
	f := forms[0].List
	if len(f) == 0 {
		return nil, errs.New(errs.Parse, "embed: empty command")
	}
	switch f[0].Atom {
	case "lemma":
		if len(f) != 4 {
			return nil, errs.New(errs.Parse, "embed: lemma takes 3 arguments, got %d", len(f)-1)
		}
		level, err := parseInt(f[2].Atom)
		if err != nil {
			return nil, err
		}
		return &command{kind: "lemma", systemID: f[1].Atom, level: level, term: f[3]}, nil
	case "ilemma":
		if len(f) != 6 {
			return nil, errs.New(errs.Parse, "embed: ilemma takes 5 arguments, got %d", len(f)-1)
		}
		level, err := parseInt(f[2].Atom)
		if err != nil {
			return nil, err
		}
		depth, err := parseInt(f[5].Atom)
		if err != nil {
			return nil, err
		}
		return &command{kind: "ilemma", systemID: f[1].Atom, level: level, term: f[3], cex: f[4], cexDepth: depth}, nil
	case "query":
		if len(f) != 3 {
			return nil, errs.New(errs.Parse, "embed: query takes 2 arguments, got %d", len(f)-1)
		}
		return &command{kind: "query", systemID: f[1].Atom, term: f[2]}, nil
	default:
		return nil, errs.New(errs.Parse, "embed: unknown command %q", f[0].Atom)
	}
}

func parseInt(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, errs.Wrap(errs.Parse, err, "embed: expected an integer, got %q", s)
	}
	return n, nil
}

// AddLemma parses commandText as one of the three command-language
// forms and applies it, per add_lemma(Context, command_text). Once a
// query of the target system has completed, a lemma or ilemma form is
// installed directly in that query's driver (firing its hooks); it is
// not carried into later queries, each of which builds a fresh driver.
// Before that, the lemma is staged, and every later query of the system
// starts with all staged lemmas installed. A query form runs
// immediately and its Result is returned. lemma/ilemma return a nil
// Result.
func (c *Context) AddLemma(commandText string) (*pdkind.Result, error) {
	cmd, err := parseCommand(commandText)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	sys, ok := c.systems[cmd.systemID]
	driver := c.drivers[cmd.systemID]
	c.mu.Unlock()
	if !ok {
		return nil, errs.New(errs.Config, "embed: unknown system %q", cmd.systemID)
	}

	switch cmd.kind {
	case "lemma":
		t, err := sys.ST.BuildTerm(cmd.term)
		if err != nil {
			return nil, errs.Wrap(errs.Parse, err, "embed: lemma term")
		}
		if driver != nil {
			driver.AddReachabilityLemma(cmd.level, t)
			return nil, nil
		}
		c.stageLemma(cmd.systemID, pendingLemma{level: cmd.level, f: t})
		return nil, nil

	case "ilemma":
		t, err := sys.ST.BuildTerm(cmd.term)
		if err != nil {
			return nil, errs.Wrap(errs.Parse, err, "embed: ilemma term")
		}
		cexCube, err := sys.ST.BuildTerm(cmd.cex)
		if err != nil {
			return nil, errs.Wrap(errs.Parse, err, "embed: ilemma counterexample term")
		}
		if driver != nil {
			driver.AddInductionLemma(cmd.level, t, cexCube, cmd.cexDepth)
			return nil, nil
		}
		c.stageLemma(cmd.systemID, pendingLemma{induction: true, level: cmd.level, f: t, cexCube: cexCube, depth: cmd.cexDepth})
		return nil, nil

	case "query":
		t, err := sys.ST.BuildTerm(cmd.term)
		if err != nil {
			return nil, errs.Wrap(errs.Parse, err, "embed: query term")
		}
		return c.RunQuery(context.Background(), cmd.systemID, t)

	default:
		return nil, errs.New(errs.Internal, "embed: unreachable command kind %q", cmd.kind)
	}
}

func (c *Context) stageLemma(systemID string, pl pendingLemma) {
	c.mu.Lock()
	c.pending[systemID] = append(c.pending[systemID], pl)
	c.mu.Unlock()
}

// ReachabilityLemmaToCommand renders a `lemma` command for l at level,
// per reachability_lemma_to_command(ctx, level, T) -> string.
func (c *Context) ReachabilityLemmaToCommand(systemID string, level int, l term.T) string {
	return fmt.Sprintf("(lemma %s %d %s)", systemID, level, ts.FormatTerm(c.mgr, l))
}

// InductionLemmaToCommand renders an `ilemma` command for l, its
// counterexample cube, and depth, per
// induction_lemma_to_command(ctx, level, T, cex, depth) -> string.
func (c *Context) InductionLemmaToCommand(systemID string, level int, l, cexCube term.T, depth int) string {
	return fmt.Sprintf("(ilemma %s %d %s %s %d)", systemID, level, ts.FormatTerm(c.mgr, l), ts.FormatTerm(c.mgr, cexCube), depth)
}
