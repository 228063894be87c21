package errors

import (
	"fmt"
	"strconv"
	"strings"
)

// Phase indicates where in processing the error occurred
type Phase string

const (
	PhaseDecode   Phase = "decode"   // binary module decoding
	PhaseValidate Phase = "validate" // module-level structural checks
	PhaseRuntime  Phase = "runtime"  // instruction execution
	PhaseLoad     Phase = "load"     // reading module bytes
	PhaseConfig   Phase = "config"   // configuration loading
)

// Kind categorizes the error
type Kind string

const (
	KindBadMagic             Kind = "bad_magic"
	KindTruncated            Kind = "truncated"
	KindMalformedVarint      Kind = "malformed_varint"
	KindUnrecognizedSection  Kind = "unrecognized_section"
	KindSectionSize          Kind = "section_size"
	KindInvalidTypeIndex     Kind = "invalid_type_index"
	KindMalformedModule      Kind = "malformed_module"
	KindUnsupported          Kind = "unsupported"
	KindStackUnderflow       Kind = "stack_underflow"
	KindOutOfBounds          Kind = "out_of_bounds"
	KindUnhandledInstruction Kind = "unhandled_instruction"
	KindTypeMismatch         Kind = "type_mismatch"
	KindImmutable            Kind = "immutable"
	KindNotFound             Kind = "not_found"
	KindInvalidInput         Kind = "invalid_input"
)

// Error is the structured error type used throughout the module
type Error struct {
	Value    any
	Cause    error
	Phase    Phase
	Kind     Kind
	Section  string
	Detail   string
	Position int
	located  bool
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if e.Section != "" {
		b.WriteString(" in ")
		b.WriteString(e.Section)
	}

	if e.located {
		b.WriteString(" at offset ")
		b.WriteString(strconv.Itoa(e.Position))
	}

	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Phase == t.Phase && e.Kind == t.Kind
	}
	return false
}

// Located reports whether Position carries a byte offset.
func (e *Error) Located() bool {
	return e.located
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase: phase,
			Kind:  kind,
		},
	}
}

// Section sets the section or component the error belongs to
func (b *Builder) Section(name string) *Builder {
	b.err.Section = name
	return b
}

// At records the byte offset where the error was detected
func (b *Builder) At(pos int) *Builder {
	b.err.Position = pos
	b.err.located = true
	return b
}

// Value sets the offending value
func (b *Builder) Value(v any) *Builder {
	b.err.Value = v
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// Sentinel returns a bare error usable as an errors.Is target.
func Sentinel(phase Phase, kind Kind) *Error {
	return &Error{Phase: phase, Kind: kind}
}

// Convenience constructors for common error patterns

// Truncated creates an error for input that ended mid-read
func Truncated(pos, want, have int) *Error {
	return &Error{
		Phase:    PhaseDecode,
		Kind:     KindTruncated,
		Detail:   fmt.Sprintf("need %d bytes, %d remaining", want, have),
		Position: pos,
		located:  true,
	}
}

// OutOfBounds creates an out of bounds error
func OutOfBounds(phase Phase, what string, index, length int) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindOutOfBounds,
		Detail: fmt.Sprintf("%s index %d out of bounds (length %d)", what, index, length),
		Value:  index,
	}
}

// Unsupported creates an unsupported operation error
func Unsupported(phase Phase, what string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindUnsupported,
		Detail: what,
	}
}

// NotFound creates a not-found error
func NotFound(phase Phase, what, name string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNotFound,
		Detail: fmt.Sprintf("%s %q not found", what, name),
	}
}

// InvalidInput creates an invalid input error
func InvalidInput(phase Phase, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidInput,
		Detail: detail,
	}
}

// Wrap wraps an existing error with additional context
func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   kind,
		Detail: detail,
		Cause:  cause,
	}
}

// Load creates a module loading error
func Load(detail string, cause error) *Error {
	return &Error{
		Phase:  PhaseLoad,
		Kind:   KindInvalidInput,
		Detail: detail,
		Cause:  cause,
	}
}
