// This module implements functions which manipulate errors, classify them by
// the stage of the conformance check that produced them, and provide stack
// trace information.
//
// NOTE: This package intentionally mirrors the standard "errors" module.
// All abicheck code should use this.
package errors

import (
	"bytes"
	stderrors "errors"
	"fmt"
	"runtime"
	"sync"
)

// Kind classifies a failure by where in the pipeline it surfaced.
type Kind int

const (
	Unknown Kind = iota
	// The contract description is malformed, or the two sides disagree on it
	// before anything is built.
	InvalidContract
	// A producer or consumer compile/archive step failed.
	BuildFailure
	// The consumer could not be linked against the producer artifact.
	LinkFailure
	// A computed value differed from the expected one.
	AssertionFailure
	// The process under test terminated abnormally.
	FatalFault
)

var kindNames = map[Kind]string{
	Unknown:          "UNKNOWN_ERROR",
	InvalidContract:  "INVALID_CONTRACT",
	BuildFailure:     "BUILD_FAILURE",
	LinkFailure:      "LINK_FAILURE",
	AssertionFailure: "ASSERTION_FAILURE",
	FatalFault:       "FATAL_FAULT",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("KIND(%d)", int(k))
}

// Process exit codes used by every abicheck binary.
const (
	ExitPassed           = 0
	ExitAssertionFailure = 1
	ExitFatalFault       = 2
	ExitInvalidContract  = 3
	ExitLinkFailure      = 4
	ExitHarnessFailure   = 5
)

// ExitCode maps an error to the process exit code convention.  A nil error
// exits 0.
func ExitCode(err error) int {
	if err == nil {
		return ExitPassed
	}
	switch KindOf(err) {
	case AssertionFailure:
		return ExitAssertionFailure
	case FatalFault:
		return ExitFatalFault
	case InvalidContract:
		return ExitInvalidContract
	case LinkFailure:
		return ExitLinkFailure
	default:
		return ExitHarnessFailure
	}
}

// This interface exposes additional information about the error.
type HarnessError interface {
	// This returns the error message without the stack trace.
	GetMessage() string

	// This returns the wrapped error.  This returns nil if this does not wrap
	// another error.
	GetInner() error

	// This returns the kind set on this error, which may be Unknown.  Use
	// KindOf to resolve the kind of a whole chain.
	GetKind() Kind

	// Implements the built-in error interface.
	Error() string

	// Returns stack frames.
	StackFrames() []StackFrame

	// Returns string representation of stack frames.
	GetStack() string
}

// Represents a single stack frame.
type StackFrame struct {
	PC         uintptr
	Func       *runtime.Func
	FuncName   string
	File       string
	LineNumber int
}

type baseError struct {
	msg   string
	kind  Kind
	inner error

	stack       []uintptr
	framesOnce  sync.Once
	stackFrames []StackFrame
}

// This returns the error string without stack trace information.
func GetMessage(err interface{}) string {
	switch e := err.(type) {
	case HarnessError:
		return extractFullErrorMessage(e, false)
	case error:
		return e.Error()
	default:
		return "Passed a non-error to GetMessage"
	}
}

// This returns a string with all available error information, including inner
// errors that are wrapped by this errors.
func (e *baseError) Error() string {
	return extractFullErrorMessage(e, true)
}

func (e *baseError) GetMessage() string {
	return e.msg
}

func (e *baseError) GetInner() error {
	return e.inner
}

func (e *baseError) GetKind() Kind {
	return e.kind
}

// Unwrap lets the standard library walk the chain.
func (e *baseError) Unwrap() error {
	return e.inner
}

func (e *baseError) StackFrames() []StackFrame {
	e.framesOnce.Do(func() {
		e.stackFrames = make([]StackFrame, 0, len(e.stack))
		frames := runtime.CallersFrames(e.stack)
		for {
			frame, more := frames.Next()
			e.stackFrames = append(e.stackFrames, StackFrame{
				PC:         frame.PC,
				Func:       frame.Func,
				FuncName:   frame.Function,
				File:       frame.File,
				LineNumber: frame.Line,
			})
			if !more {
				break
			}
		}
	})
	return e.stackFrames
}

// Stack frame formatting looks like:
// github.com/dropbox/abicheck/toolchain.(*Toolchain).Link
//	/src/abicheck/toolchain/toolchain.go:87 +0xbf9
func (e *baseError) GetStack() string {
	buf := bytes.NewBuffer(make([]byte, 0, 256))
	for _, frame := range e.StackFrames() {
		_, _ = buf.WriteString(frame.FuncName)
		_, _ = buf.WriteString("\n")
		fmt.Fprintf(buf, "\t%s:%d +0x%x\n",
			frame.File, frame.LineNumber, frame.PC)
	}
	return buf.String()
}

// This returns a new baseError initialized with the given message and
// the current stack trace.
func New(msg string) HarnessError {
	return newError(nil, Unknown, msg)
}

// Same as New, but with fmt.Printf-style parameters.
func Newf(format string, args ...interface{}) HarnessError {
	return newError(nil, Unknown, fmt.Sprintf(format, args...))
}

// Same as Newf, but tags the error with a kind.
func NewKindf(kind Kind, format string, args ...interface{}) HarnessError {
	return newError(nil, kind, fmt.Sprintf(format, args...))
}

// Wraps another error in a new baseError.  The kind of the inner error is
// preserved.
func Wrap(err error, msg string) HarnessError {
	return newError(err, Unknown, msg)
}

// Same as Wrap, but with fmt.Printf-style parameters.
func Wrapf(err error, format string, args ...interface{}) HarnessError {
	return newError(err, Unknown, fmt.Sprintf(format, args...))
}

// Same as Wrapf, but tags the wrapping error with a kind, which takes
// precedence over the kinds of inner errors.
func WrapKindf(
	err error,
	kind Kind,
	format string,
	args ...interface{}) HarnessError {

	return newError(err, kind, fmt.Sprintf(format, args...))
}

// Note that if there is more than one level of redirection to call this
// function, stack frame information will include that level too.
func newError(err error, kind Kind, msg string) *baseError {
	stack := make([]uintptr, 200)
	stackLength := runtime.Callers(3, stack)
	return &baseError{
		msg:   msg,
		kind:  kind,
		stack: stack[:stackLength],
		inner: err,
	}
}

// KindOf returns the outermost non-Unknown kind in the error chain.
func KindOf(err error) Kind {
	for err != nil {
		if hErr, ok := err.(HarnessError); ok && hErr.GetKind() != Unknown {
			return hErr.GetKind()
		}
		err = stderrors.Unwrap(err)
	}
	return Unknown
}

// Constructs full error message for a given HarnessError by traversing
// all of its inner errors. If includeStack is True it will also include
// stack trace from deepest HarnessError in the chain.
func extractFullErrorMessage(e HarnessError, includeStack bool) string {
	var ok bool
	var lastErr HarnessError
	errMsg := bytes.NewBuffer(make([]byte, 0, 1024))

	hErr := e
	for {
		lastErr = hErr
		errMsg.WriteString(hErr.GetMessage())

		innerErr := hErr.GetInner()
		if innerErr == nil {
			break
		}
		hErr, ok = innerErr.(HarnessError)
		if !ok {
			errMsg.WriteString("\n")
			errMsg.WriteString(innerErr.Error())
			break
		}
		errMsg.WriteString("\n")
	}
	if includeStack {
		errMsg.WriteString("\nORIGINAL STACK TRACE:\n")
		errMsg.WriteString(lastErr.GetStack())
	}
	return errMsg.String()
}

// Keep peeling away layers or context until a primitive error is revealed.
func RootError(err error) error {
	for i := 0; i < 20; i++ {
		inner := stderrors.Unwrap(err)
		if inner == nil {
			return err
		}
		err = inner
	}
	return fmt.Errorf("too many iterations: %T", err)
}

// Perform a deep check, unwrapping errors as much as possible and
// comparing the string version of the error.
func IsError(err, errConst error) bool {
	if err == errConst {
		return true
	}
	// Must rely on string equivalence, otherwise a value is not equal
	// to its pointer value.
	rootErrStr := ""
	rootErr := RootError(err)
	if rootErr != nil {
		rootErrStr = rootErr.Error()
	}
	errConstStr := ""
	if errConst != nil {
		errConstStr = errConst.Error()
	}
	return rootErrStr == errConstStr
}
