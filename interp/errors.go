package interp

import (
	"errors"

	werrors "github.com/wippyai/cwasm/errors"
)

// Execution errors. Match them with errors.Is.
var (
	ErrStackUnderflow       = werrors.Sentinel(werrors.PhaseRuntime, werrors.KindStackUnderflow)
	ErrIndexOutOfRange      = werrors.Sentinel(werrors.PhaseRuntime, werrors.KindOutOfBounds)
	ErrUnhandledInstruction = werrors.Sentinel(werrors.PhaseRuntime, werrors.KindUnhandledInstruction)
	ErrTypeMismatch         = werrors.Sentinel(werrors.PhaseRuntime, werrors.KindTypeMismatch)
	ErrImmutableGlobal      = werrors.Sentinel(werrors.PhaseRuntime, werrors.KindImmutable)
	ErrNotFound             = werrors.Sentinel(werrors.PhaseRuntime, werrors.KindNotFound)
	ErrUnsupported          = werrors.Sentinel(werrors.PhaseRuntime, werrors.KindUnsupported)
)

func underflow(op byte, offset int) error {
	return werrors.New(werrors.PhaseRuntime, werrors.KindStackUnderflow).
		Section(OpName(op)).
		At(offset).
		Value(op).
		Detail("operand stack is empty").
		Build()
}

func outOfRange(op byte, offset int, what string, index uint32, length int) error {
	return werrors.New(werrors.PhaseRuntime, werrors.KindOutOfBounds).
		Section(OpName(op)).
		At(offset).
		Value(index).
		Detail("%s index %d out of bounds (length %d)", what, index, length).
		Build()
}

func malformedLocals(offset int, format string, args ...any) error {
	return werrors.New(werrors.PhaseValidate, werrors.KindMalformedModule).
		Section("locals").
		At(offset).
		Detail(format, args...).
		Build()
}

func truncated(pos, want, have int) error {
	return werrors.Truncated(pos, want, have)
}

// atInstruction attaches a location to a structured error that has none.
func atInstruction(section string, offset int, err error) error {
	var we *werrors.Error
	if !errors.As(err, &we) || we.Located() {
		return err
	}
	b := werrors.New(we.Phase, we.Kind).
		Section(section).
		At(offset).
		Value(we.Value).
		Cause(we.Cause)
	if we.Detail != "" {
		b.Detail("%s", we.Detail)
	}
	return b.Build()
}
