// Package errs defines the pd-kind error taxonomy of spec.md §7. Every
// layer of the core (solver façade, reachability engine, frame store,
// driver) raises errors of one of these kinds so that the driver's
// conversion rules ("BackendUnknown and ResourceExhausted become a
// query verdict of unknown; all other kinds propagate to the embedding
// caller") can dispatch on Kind rather than on ad hoc sentinel values.
//
// The style — a small typed error struct with Unwrap support, rather
// than one sentinel var per failure — is grounded in the example
// pack's preference (katalvlaran-lvlath's per-package errors.go files)
// for errors.Is/As-friendly values, generalized here because spec.md
// §7 itself calls for a closed set of *kinds* rather than per-call-site
// sentinels.
package errs

import "fmt"

// Kind is one of the distinct reportable error kinds of spec.md §7.
type Kind int

const (
	// Config: unrecognized option, missing engine/solver.
	Config Kind = iota
	// Parse: malformed input, raised by the parser frontend and only
	// propagated by the core.
	Parse
	// Protocol: push/pop mismatch, reading a model outside sat,
	// interpolating outside unsat.
	Protocol
	// BackendUnknown: the solver returned unknown on a query the core
	// cannot side-step.
	BackendUnknown
	// ResourceExhausted: frame limit, frame-size limit, obligation
	// attempt cap, or cancellation.
	ResourceExhausted
	// Internal: invariant violation; always fatal.
	Internal
)

func (k Kind) String() string {
	switch k {
	case Config:
		return "ConfigError"
	case Parse:
		return "ParseError"
	case Protocol:
		return "ProtocolError"
	case BackendUnknown:
		return "BackendUnknown"
	case ResourceExhausted:
		return "ResourceExhausted"
	case Internal:
		return "Internal"
	default:
		return "Unknown"
	}
}

// Error is the concrete error value raised by the core.
type Error struct {
	Kind  Kind
	Msg   string
	Cause error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error { return e.Cause }

// New creates an Error of the given kind.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// Wrap creates an Error of the given kind wrapping cause.
func Wrap(kind Kind, cause error, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...), Cause: cause}
}

// Is reports whether err is a *Error of the given kind.
func Is(err error, kind Kind) bool {
	var e *Error
	for err != nil {
		if ee, ok := err.(*Error); ok {
			e = ee
			break
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			break
		}
		err = u.Unwrap()
	}
	return e != nil && e.Kind == kind
}
