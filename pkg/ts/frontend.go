package ts

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gitrdm/pdkind/internal/term"
)

// Dialect selects the textual input shape consumed by ParseSource,
// mirroring the two dialects named by spec.md §6.1.
type Dialect string

const (
	MCMT Dialect = "mcmt"
	CHC  Dialect = "chc"
)

// sexpr is a tiny recursive-descent S-expression tree, grounded in
// style (hand-written recursive descent, no parser generator) by
// katalvlaran-lvlath's preference for plain algorithms over generated
// tooling. It is a deliberately minimal stand-in for the full MCMT/CHC
// frontend that spec.md §1 scopes out of the core.
type sexpr struct {
	atom string
	list []sexpr
}

func tokenize(src string) []string {
	var toks []string
	var cur strings.Builder
	flush := func() {
		if cur.Len() > 0 {
			toks = append(toks, cur.String())
			cur.Reset()
		}
	}
	for _, r := range src {
		switch r {
		case '(', ')':
			flush()
			toks = append(toks, string(r))
		case ' ', '\t', '\n', '\r':
			flush()
		default:
			cur.WriteRune(r)
		}
	}
	flush()
	return toks
}

func parseAll(toks []string) ([]sexpr, error) {
	pos := 0
	var parseOne func() (sexpr, error)
	parseOne = func() (sexpr, error) {
		if pos >= len(toks) {
			return sexpr{}, fmt.Errorf("ts: unexpected end of input")
		}
		tok := toks[pos]
		if tok == "(" {
			pos++
			var list []sexpr
			for pos < len(toks) && toks[pos] != ")" {
				e, err := parseOne()
				if err != nil {
					return sexpr{}, err
				}
				list = append(list, e)
			}
			if pos >= len(toks) {
				return sexpr{}, fmt.Errorf("ts: unmatched (")
			}
			pos++ // consume ")"
			return sexpr{list: list}, nil
		}
		if tok == ")" {
			return sexpr{}, fmt.Errorf("ts: unmatched )")
		}
		pos++
		return sexpr{atom: tok}, nil
	}
	var out []sexpr
	for pos < len(toks) {
		e, err := parseOne()
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

var opTable = map[string]term.Op{
	"and": term.OpAnd, "or": term.OpOr, "not": term.OpNot, "=": term.OpEq,
	"<": term.OpLt, "<=": term.OpLe, ">": term.OpGt, ">=": term.OpGe,
	"+": term.OpAdd, "-": term.OpSub, "*": term.OpMul, "ite": term.OpIte,
}

// buildTerm builds a term from e: a bare atom is read as a declared
// variable (a trailing "!" selects the next namespace), then as a
// true/false or integer literal; a list is an operator from opTable
// applied to its built arguments.
func buildTerm(mgr *term.Manager, sorts map[string]term.Sort, e sexpr) (term.T, error) {
	if e.atom != "" {
		name := e.atom
		if strings.HasSuffix(name, "!") {
			base := strings.TrimSuffix(name, "!")
			if sort, ok := sorts[base]; ok {
				return mgr.Var(base, term.Next, sort), nil
			}
			return term.Invalid, fmt.Errorf("ts: unknown variable %q", base)
		}
		if sort, ok := sorts[name]; ok {
			return mgr.Var(name, term.Current, sort), nil
		}
		if name == "true" {
			return mgr.Bool(true), nil
		}
		if name == "false" {
			return mgr.Bool(false), nil
		}
		if v, err := strconv.ParseInt(name, 10, 64); err == nil {
			return mgr.Int(v), nil
		}
		return term.Invalid, fmt.Errorf("ts: unrecognized atom %q", name)
	}
	if len(e.list) == 0 {
		return term.Invalid, fmt.Errorf("ts: empty term")
	}
	head := e.list[0]
	op, ok := opTable[head.atom]
	if !ok {
		return term.Invalid, fmt.Errorf("ts: unknown operator %q", head.atom)
	}
	children := make([]term.T, 0, len(e.list)-1)
	for _, c := range e.list[1:] {
		ct, err := buildTerm(mgr, sorts, c)
		if err != nil {
			return term.Invalid, err
		}
		children = append(children, ct)
	}
	return mgr.App(op, children...), nil
}

func sortFromName(name string) (term.Sort, error) {
	switch name {
	case "Int":
		return term.Int, nil
	case "Bool":
		return term.Bool, nil
	case "Real":
		return term.Real, nil
	default:
		return 0, fmt.Errorf("ts: unknown sort %q", name)
	}
}

// Parsed holds a TransitionSystem and the property parsed alongside it,
// ready to be handed to the pd-kind driver.
type Parsed struct {
	TS       *TransitionSystem
	Property term.T
}

// ParseSource parses src as the given dialect into a TransitionSystem
// and property. For MCMT, the expected top-level forms are:
//
//	(state (x Int) (y Bool) ...)
//	(init <formula>)
//	(trans <formula>)      ; next-state variables spelled "x!"
//	(prop <formula>)
//
// For CHC, src describes a two-predicate Horn clause system (entry
// clause, inductive clause, query clause) which is lowered to the same
// shape, per original_source/src/parser/chc/chc_system.cpp.
func ParseSource(mgr *term.Manager, src string, dialect Dialect) (*Parsed, error) {
	forms, err := parseAll(tokenize(src))
	if err != nil {
		return nil, err
	}
	switch dialect {
	case MCMT:
		return parseMCMT(mgr, forms)
	case CHC:
		return parseCHC(mgr, forms)
	default:
		return nil, fmt.Errorf("ts: unknown dialect %q", dialect)
	}
}

func parseMCMT(mgr *term.Manager, forms []sexpr) (*Parsed, error) {
	sorts := make(map[string]term.Sort)
	var vars []Var
	var init, trans, prop term.T
	haveInit, haveTrans, haveProp := false, false, false

	for _, f := range forms {
		if len(f.list) == 0 {
			continue
		}
		head := f.list[0].atom
		switch head {
		case "state":
			for _, decl := range f.list[1:] {
				if len(decl.list) != 2 {
					return nil, fmt.Errorf("ts: malformed state declaration")
				}
				name := decl.list[0].atom
				sort, err := sortFromName(decl.list[1].atom)
				if err != nil {
					return nil, err
				}
				sorts[name] = sort
				vars = append(vars, Var{Name: name, Sort: sort})
			}
		case "init":
			t, err := buildTerm(mgr, sorts, f.list[1])
			if err != nil {
				return nil, err
			}
			init, haveInit = t, true
		case "trans":
			t, err := buildTerm(mgr, sorts, f.list[1])
			if err != nil {
				return nil, err
			}
			trans, haveTrans = t, true
		case "prop":
			t, err := buildTerm(mgr, sorts, f.list[1])
			if err != nil {
				return nil, err
			}
			prop, haveProp = t, true
		default:
			return nil, fmt.Errorf("ts: unknown top-level form %q", head)
		}
	}
	if !haveInit || !haveTrans || !haveProp {
		return nil, fmt.Errorf("ts: source missing one of state/init/trans/prop")
	}
	st := NewStateType(mgr, vars...)
	return &Parsed{
		TS:       &TransitionSystem{ST: st, Init: init, Trans: trans},
		Property: prop,
	}, nil
}

// parseCHC lowers a minimal two-predicate CHC system:
//
//	(chc-state (x Int) ...)
//	(chc-entry <formula over x>)         ; Inv(x) :- entry-formula(x)
//	(chc-ind <formula over x, x!>)       ; Inv(x') :- Inv(x) and step(x,x')
//	(chc-query <formula over x>)         ; false :- Inv(x) and query-formula(x)
//
// into the same (ST, Init, Trans) / Property shape MCMT produces,
// grounded in original_source/src/parser/chc/chc_system.cpp's
// confirmation that CHC inputs reduce to the same transition-system
// value before reaching the engine. The safety property is the
// negation of the query guard: Inv must never satisfy it.
func parseCHC(mgr *term.Manager, forms []sexpr) (*Parsed, error) {
	sorts := make(map[string]term.Sort)
	var vars []Var
	var entry, ind, query term.T
	haveEntry, haveInd, haveQuery := false, false, false

	for _, f := range forms {
		if len(f.list) == 0 {
			continue
		}
		head := f.list[0].atom
		switch head {
		case "chc-state":
			for _, decl := range f.list[1:] {
				name := decl.list[0].atom
				sort, err := sortFromName(decl.list[1].atom)
				if err != nil {
					return nil, err
				}
				sorts[name] = sort
				vars = append(vars, Var{Name: name, Sort: sort})
			}
		case "chc-entry":
			t, err := buildTerm(mgr, sorts, f.list[1])
			if err != nil {
				return nil, err
			}
			entry, haveEntry = t, true
		case "chc-ind":
			t, err := buildTerm(mgr, sorts, f.list[1])
			if err != nil {
				return nil, err
			}
			ind, haveInd = t, true
		case "chc-query":
			t, err := buildTerm(mgr, sorts, f.list[1])
			if err != nil {
				return nil, err
			}
			query, haveQuery = t, true
		default:
			return nil, fmt.Errorf("ts: unknown CHC form %q", head)
		}
	}
	if !haveEntry || !haveInd || !haveQuery {
		return nil, fmt.Errorf("ts: CHC source missing one of chc-entry/chc-ind/chc-query")
	}
	st := NewStateType(mgr, vars...)
	prop := mgr.Not(query)
	return &Parsed{
		TS:       &TransitionSystem{ST: st, Init: entry, Trans: ind},
		Property: prop,
	}, nil
}
