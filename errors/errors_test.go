package errors

import (
	"fmt"
	"strings"
	"syscall"
	"testing"
	"unicode"

	"github.com/stretchr/testify/require"
)

func TestStackTrace(t *testing.T) {
	const testMsg = "test error"
	er := New(testMsg)

	if er.GetMessage() != testMsg {
		t.Errorf("error message %s != expected %s", er.GetMessage(), testMsg)
	}

	if strings.Index(er.GetStack(), "abicheck/errors/errors.go") != -1 {
		t.Error("stack trace generation code should not be in the error stack trace")
	}

	if strings.Index(er.GetStack(), "TestStackTrace") == -1 {
		t.Error("stack trace must have test code in it")
	}

	for i, r := range er.GetStack() {
		if !(unicode.IsSpace(r) || unicode.IsPrint(r)) {
			t.Errorf("stack trace has an unexpected rune at index %v (%q)", i, r)
			break
		}
	}
}

func TestWrappedError(t *testing.T) {
	const (
		innerMsg  = "I am inner error"
		middleMsg = "I am the middle error"
		outerMsg  = "I am the mighty outer error"
	)
	inner := fmt.Errorf(innerMsg)
	middle := Wrap(inner, middleMsg)
	outer := Wrap(middle, outerMsg)
	errorStr := outer.Error()

	require.Contains(t, errorStr, innerMsg+"\n")
	require.Contains(t, errorStr, middleMsg+"\n")
	require.Contains(t, errorStr, outerMsg+"\n")
	require.Equal(
		t,
		outerMsg+"\n"+middleMsg+"\n"+innerMsg,
		GetMessage(outer))
}

func TestRootErrors(t *testing.T) {
	inner := fmt.Errorf("inner error")
	middle := Wrap(inner, "middle error")
	outer := Wrap(middle, "outer error")

	require.Equal(t, inner, RootError(outer))
}

func TestKindOf(t *testing.T) {
	require.Equal(t, Unknown, KindOf(nil))
	require.Equal(t, Unknown, KindOf(fmt.Errorf("plain")))
	require.Equal(t, Unknown, KindOf(New("untagged")))

	link := NewKindf(LinkFailure, "undefined reference to %s", "add")
	require.Equal(t, LinkFailure, KindOf(link))

	// Untagged wrappers keep the inner kind.
	wrapped := Wrapf(link, "building consumer for %s", "add")
	require.Equal(t, LinkFailure, KindOf(wrapped))

	// Tagged wrappers override it.
	retagged := WrapKindf(wrapped, FatalFault, "consumer crashed")
	require.Equal(t, FatalFault, KindOf(retagged))

	// Standard library wrapping is followed too.
	stdWrapped := fmt.Errorf("context: %w", link)
	require.Equal(t, LinkFailure, KindOf(stdWrapped))
}

func TestExitCode(t *testing.T) {
	require.Equal(t, ExitPassed, ExitCode(nil))
	require.Equal(
		t,
		ExitAssertionFailure,
		ExitCode(NewKindf(AssertionFailure, "vector 0")))
	require.Equal(t, ExitFatalFault, ExitCode(NewKindf(FatalFault, "SIGSEGV")))
	require.Equal(
		t,
		ExitInvalidContract,
		ExitCode(NewKindf(InvalidContract, "bad name")))
	require.Equal(t, ExitLinkFailure, ExitCode(NewKindf(LinkFailure, "ld")))
	require.Equal(t, ExitHarnessFailure, ExitCode(NewKindf(BuildFailure, "cc")))
	require.Equal(t, ExitHarnessFailure, ExitCode(fmt.Errorf("plain")))
}

func TestKindString(t *testing.T) {
	require.Equal(t, "LINK_FAILURE", LinkFailure.String())
	require.Equal(t, "ASSERTION_FAILURE", AssertionFailure.String())
	require.Equal(t, "KIND(42)", Kind(42).String())
}

// ---------------------------------------
// minimal example + test for custom error
//
type toolError struct {
	HarnessError
	code int
}

func newToolError(msg string, code int) toolError {
	return toolError{HarnessError: NewKindf(BuildFailure, "%s", msg), code: code}
}

// ---------------------------------------

func TestCustomError(t *testing.T) {
	toolMsg := "cc exited with status 1"
	outerMsg := "outer msg"

	toolErr := newToolError(toolMsg, 1)
	outerError := Wrap(toolErr, outerMsg)

	errorStr := outerError.Error()
	require.Contains(t, errorStr, toolMsg)
	require.Contains(t, errorStr, outerMsg)
	require.Contains(t, errorStr, "errors.TestCustomError")
	require.Equal(t, BuildFailure, KindOf(outerError))
}

type customErr struct {
}

func (ce *customErr) Error() string { return "testing error" }

type customNestedErr struct {
	Err error
}

func (cne *customNestedErr) Error() string { return "nested testing error" }

func (cne *customNestedErr) Unwrap() error { return cne.Err }

func TestRootError(t *testing.T) {
	err := RootError(nil)
	if err != nil {
		t.Fatalf("expected nil error")
	}
	var ce *customErr
	err = RootError(ce)
	if err != ce {
		t.Fatalf("expected err on invalid nil-ptr custom error %T %v", err, err)
	}
	ce = &customErr{}
	err = RootError(ce)
	if err != ce {
		t.Fatalf("expected err on valid custom error")
	}

	cne := &customNestedErr{}
	err = RootError(cne)
	if err != cne {
		t.Fatalf("expected err on empty custom error: %T %v", err, err)
	}

	cne = &customNestedErr{ce}
	err = RootError(cne)
	if err != ce {
		t.Fatalf("expected ce on valid nested error: %T %v", err, err)
	}

	err = RootError(syscall.ECONNREFUSED)
	if err != syscall.ECONNREFUSED {
		t.Fatalf("expected ECONNREFUSED on valid nested error: %T %v", err, err)
	}
}

func TestIsError(t *testing.T) {
	sentinel := fmt.Errorf("sentinel")
	require.True(t, IsError(sentinel, sentinel))
	require.True(t, IsError(Wrap(sentinel, "outer"), sentinel))
	require.False(t, IsError(Wrap(fmt.Errorf("other"), "outer"), sentinel))
}
