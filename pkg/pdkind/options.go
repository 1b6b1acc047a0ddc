package pdkind

import (
	"strconv"

	"github.com/gitrdm/pdkind/pkg/errs"
)

// Options is the recognized-option table of spec.md §6.1. Unlike a
// typed config struct, hosts hand in raw string/string pairs (the
// embedding surface's contract); NewOptions validates and converts
// them once at context creation.
type Options struct {
	Engine            string
	Solver            string
	SolverLogic       string
	MaxFrames         int
	MaxFrameSize      int
	MaxInductionDepth int
	ShowTrace         bool
	ShowInvariant     bool
	LogLevel          string
}

// DefaultMaxFrames/DefaultMaxFrameSize bound the outer loop when a
// host does not set ic3-max-frames/ic3-max-frame-size, per spec.md
// §4.6 step 4 ("If the frame-size ceiling is hit ... unknown").
//
// DefaultMaxInductionDepth bounds how far an obligation's k-induction
// depth is allowed to escalate (induction-max-depth); a property whose
// inductive strengthening genuinely needs more than this many steps is
// reported unknown rather than searched forever at ever-larger depth.
const (
	DefaultMaxFrames         = 1000
	DefaultMaxFrameSize      = 10000
	DefaultMaxInductionDepth = 10
)

// NewOptions validates a raw option map against spec.md §6.1's
// recognized table, returning a ConfigError for anything unrecognized
// or malformed.
func NewOptions(raw map[string]string) (Options, error) {
	opts := Options{
		Engine:            "pd-kind",
		MaxFrames:         DefaultMaxFrames,
		MaxFrameSize:      DefaultMaxFrameSize,
		MaxInductionDepth: DefaultMaxInductionDepth,
	}
	for k, v := range raw {
		switch k {
		case "engine":
			opts.Engine = v
		case "solver":
			opts.Solver = v
		case "solver-logic":
			opts.SolverLogic = v
		case "ic3-max-frames":
			n, err := strconv.Atoi(v)
			if err != nil {
				return Options{}, errs.Wrap(errs.Config, err, "invalid ic3-max-frames %q", v)
			}
			opts.MaxFrames = n
		case "ic3-max-frame-size":
			n, err := strconv.Atoi(v)
			if err != nil {
				return Options{}, errs.Wrap(errs.Config, err, "invalid ic3-max-frame-size %q", v)
			}
			opts.MaxFrameSize = n
		case "induction-max-depth":
			n, err := strconv.Atoi(v)
			if err != nil {
				return Options{}, errs.Wrap(errs.Config, err, "invalid induction-max-depth %q", v)
			}
			opts.MaxInductionDepth = n
		case "show-trace":
			opts.ShowTrace = v == "true" || v == "1"
		case "show-invariant":
			opts.ShowInvariant = v == "true" || v == "1"
		case "log-level":
			opts.LogLevel = v
		default:
			return Options{}, errs.New(errs.Config, "unrecognized option %q", k)
		}
	}
	if opts.Engine != "pd-kind" {
		return Options{}, errs.New(errs.Config, "unknown engine %q", opts.Engine)
	}
	if opts.Solver == "" {
		return Options{}, errs.New(errs.Config, "missing required option \"solver\"")
	}
	return opts, nil
}
