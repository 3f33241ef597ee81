package vm

import (
	"errors"
	"fmt"
)

// ---------------------------------------------------------------------------
// Engine errors
// ---------------------------------------------------------------------------

// ErrorCode identifies the kind of failure an engine operation reported.
type ErrorCode int

const (
	CodeDuplicateAlias ErrorCode = iota + 1
	CodeUnresolvedAlias
	CodeCyclicAliasWithoutSelf
	CodeInfiniteTupleRecursion
	CodeDuplicateName
	CodeIncompatibleTupleShape
	CodeNoSuchProperty
	CodeIndexOutOfRange
	CodeSubsetMismatch
	CodeTypeMismatch
)

var codeNames = map[ErrorCode]string{
	CodeDuplicateAlias:         "DuplicateAlias",
	CodeUnresolvedAlias:        "UnresolvedAlias",
	CodeCyclicAliasWithoutSelf: "CyclicAliasWithoutSelf",
	CodeInfiniteTupleRecursion: "InfiniteTupleRecursion",
	CodeDuplicateName:          "DuplicateName",
	CodeIncompatibleTupleShape: "IncompatibleTupleShape",
	CodeNoSuchProperty:         "NoSuchProperty",
	CodeIndexOutOfRange:        "IndexOutOfRange",
	CodeSubsetMismatch:         "SubsetMismatch",
	CodeTypeMismatch:           "TypeMismatch",
}

func (c ErrorCode) String() string {
	if name, ok := codeNames[c]; ok {
		return name
	}
	return fmt.Sprintf("ErrorCode(%d)", int(c))
}

// Phase tells whether an error belongs to type checking or to execution.
type Phase int

const (
	CompileTime Phase = iota
	Runtime
)

func (p Phase) String() string {
	if p == Runtime {
		return "runtime"
	}
	return "compile-time"
}

// Error is the typed failure returned by every engine operation.
type Error struct {
	Code  ErrorCode
	Phase Phase
	Msg   string
	Cause error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s error %s: %s: %v", e.Phase, e.Code, e.Msg, e.Cause)
	}
	return fmt.Sprintf("%s error %s: %s", e.Phase, e.Code, e.Msg)
}

func (e *Error) Unwrap() error { return e.Cause }

// Is matches any *Error with the same code, so the Err* sentinels can be
// used with errors.Is regardless of phase or message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Code == e.Code && t.Msg == "" && t.Cause == nil
}

// Sentinels for errors.Is.
var (
	ErrDuplicateAlias         = &Error{Code: CodeDuplicateAlias}
	ErrUnresolvedAlias        = &Error{Code: CodeUnresolvedAlias}
	ErrCyclicAliasWithoutSelf = &Error{Code: CodeCyclicAliasWithoutSelf}
	ErrInfiniteTupleRecursion = &Error{Code: CodeInfiniteTupleRecursion}
	ErrDuplicateName          = &Error{Code: CodeDuplicateName}
	ErrIncompatibleTupleShape = &Error{Code: CodeIncompatibleTupleShape}
	ErrNoSuchProperty         = &Error{Code: CodeNoSuchProperty}
	ErrIndexOutOfRange        = &Error{Code: CodeIndexOutOfRange}
	ErrSubsetMismatch         = &Error{Code: CodeSubsetMismatch}
	ErrTypeMismatch           = &Error{Code: CodeTypeMismatch}
)

func compileErr(code ErrorCode, format string, args ...any) *Error {
	return &Error{Code: code, Phase: CompileTime, Msg: fmt.Sprintf(format, args...)}
}

func runtimeErr(code ErrorCode, format string, args ...any) *Error {
	return &Error{Code: code, Phase: Runtime, Msg: fmt.Sprintf(format, args...)}
}

// NewError builds an engine error. Collaborator packages (the alias table,
// the checker) use it so every failure shares one taxonomy.
func NewError(code ErrorCode, phase Phase, format string, args ...any) *Error {
	return &Error{Code: code, Phase: phase, Msg: fmt.Sprintf(format, args...)}
}

// CodeOf returns the code of the first *Error in err's chain, or 0.
func CodeOf(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return 0
}

// PhaseOf returns the phase of the first *Error in err's chain.
func PhaseOf(err error) (Phase, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Phase, true
	}
	return 0, false
}
