package ts

import (
	"strings"

	"github.com/gitrdm/pdkind/internal/term"
)

// Sexpr is an exported mirror of the internal sexpr tree, letting a
// command-language layer above this package (one that understands
// lemma/ilemma/query forms, not state/init/trans/prop ones) reuse this
// package's tokenizer and term builder instead of growing a second,
// divergent one.
type Sexpr struct {
	Atom string
	List []Sexpr
}

func exportSexpr(e sexpr) Sexpr {
	out := Sexpr{Atom: e.atom}
	for _, c := range e.list {
		out.List = append(out.List, exportSexpr(c))
	}
	return out
}

func importSexpr(e Sexpr) sexpr {
	out := sexpr{atom: e.Atom}
	for _, c := range e.List {
		out.list = append(out.list, importSexpr(c))
	}
	return out
}

// ParseSexprs tokenizes and parses src into a sequence of top-level
// S-expressions without interpreting them, for callers whose grammar
// isn't the state/init/trans/prop one ParseSource reads.
func ParseSexprs(src string) ([]Sexpr, error) {
	forms, err := parseAll(tokenize(src))
	if err != nil {
		return nil, err
	}
	out := make([]Sexpr, len(forms))
	for i, f := range forms {
		out[i] = exportSexpr(f)
	}
	return out, nil
}

// BuildTerm builds a term from an already-parsed Sexpr over st's
// variables: a bare name resolves to the current-namespace variable,
// a trailing "!" to the next-namespace one, matching the same
// convention buildTerm uses for trans formulas.
func (st *StateType) BuildTerm(e Sexpr) (term.T, error) {
	sorts := make(map[string]term.Sort, len(st.Vars))
	for _, v := range st.Vars {
		sorts[v.Name] = v.Sort
	}
	return buildTerm(st.Mgr, sorts, importSexpr(e))
}

// FormatTerm renders t back into the syntax BuildTerm accepts: current
// variables as their bare name, next-namespace variables with a
// trailing "!", everything else through the same operator names
// buildTerm reads. It is the inverse of BuildTerm, used to render
// lemma and induction-lemma commands for a host to log or replay.
func FormatTerm(mgr *term.Manager, t term.T) string {
	if mgr.IsVar(t) {
		name := mgr.VarName(t)
		if mgr.VarNamespace(t) == term.Next {
			return name + "!"
		}
		return name
	}
	if mgr.IsConst(t) {
		return mgr.String(t)
	}
	op, children, ok := mgr.Op(t)
	if !ok {
		return mgr.String(t)
	}
	parts := make([]string, len(children))
	for i, c := range children {
		parts[i] = FormatTerm(mgr, c)
	}
	return "(" + string(op) + " " + strings.Join(parts, " ") + ")"
}
