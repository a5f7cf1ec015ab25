package diagnostics

import "fmt"

// Code classifies a diagnostic by where in the pipeline it originated.
type Code string

const (
	// Type errors (component A).
	ErrTypeWidthMismatch Code = "T001"
	ErrTypeRigidMismatch Code = "T002"
	ErrTypeOccurs        Code = "T003"
	ErrTypeArityMismatch Code = "T004"

	// Semantic errors (surfaced by the front-end's analyzer, consumed here).
	ErrSemUndefinedSymbol      Code = "S001"
	ErrSemWrongValueCategory   Code = "S002"
	ErrSemImmutabilityViolated Code = "S003"
	ErrSemImpureInPureContext  Code = "S004"
	ErrSemDuplicateName        Code = "S005"

	// Codegen errors (component D).
	ErrCodegenStackTooDeep   Code = "C001"
	ErrCodegenMalformedIR    Code = "C002"
	ErrCodegenUnsupported    Code = "C003"

	// Internal invariants.
	ErrInternal Code = "I001"
)

// DiagnosticError is the single error type that crosses the unit
// boundary. All subsystem-specific errors (UnifyError, Fatal, ...)
// convert to this before being reported to the user.
type DiagnosticError struct {
	Code     Code
	Where    Location
	Message  string
	Warning  bool // true for e.g. deprecated-pragma notices
	Detail   string // e.g. pretty-printed type(s) or op, appended below the message
}

func NewError(code Code, where Location, message string) *DiagnosticError {
	return &DiagnosticError{Code: code, Where: where, Message: message}
}

func NewWarning(code Code, where Location, message string) *DiagnosticError {
	return &DiagnosticError{Code: code, Where: where, Message: message, Warning: true}
}

func (e *DiagnosticError) WithDetail(detail string) *DiagnosticError {
	e.Detail = detail
	return e
}

func (e *DiagnosticError) Error() string {
	kind := "error"
	if e.Warning {
		kind = "warning"
	}
	s := fmt.Sprintf("%s: %s: %s", e.Where, kind, e.Message)
	if e.Detail != "" {
		s += "\n" + e.Detail
	}
	return s
}

// InternalError is raised by Assert below; it always
// indicates a compiler bug, never a user error.
type InternalError struct {
	Where Location
	Msg   string
}

func (e *InternalError) Error() string {
	return fmt.Sprintf("%s: internal error: %s (this is a compiler bug)", e.Where, e.Msg)
}

// Assert panics with an *InternalError if cond is false. Mirrors the
// original `tolk_assert` macro: an assertion failure is always a fatal
// compiler bug, never user-recoverable.
func Assert(cond bool, where Location, msg string) {
	if !cond {
		panic(&InternalError{Where: where, Msg: msg})
	}
}

// Fatal is raised for conditions that abort the whole compilation unit
// (e.g. stack-too-deep) but are not assertion failures - they can be
// attributed to a specific, explicable cause and reported as a normal
// DiagnosticError rather than a bug report.
type Fatal struct {
	Err *DiagnosticError
}

func (f *Fatal) Error() string { return f.Err.Error() }

func NewFatal(code Code, where Location, message string) *Fatal {
	return &Fatal{Err: NewError(code, where, message)}
}
