// Extensions to the go-check unittest framework.
//
// NOTE: see https://github.com/go-check/check/pull/6 for reasons why these
// checkers live here.
package gocheck2

import (
	. "gopkg.in/check.v1"

	"github.com/dropbox/abicheck/errors"
)

// -----------------------------------------------------------------------
// IsTrue / IsFalse checker.

type isBoolValueChecker struct {
	*CheckerInfo
	expected bool
}

func (checker *isBoolValueChecker) Check(
	params []interface{},
	names []string) (
	result bool,
	error string) {

	obtained, ok := params[0].(bool)
	if !ok {
		return false, "Argument to " + checker.Name + " must be bool"
	}

	return obtained == checker.expected, ""
}

// The IsTrue checker verifies that the obtained value is true.
//
// For example:
//
//     c.Assert(value, IsTrue)
//
var IsTrue Checker = &isBoolValueChecker{
	&CheckerInfo{Name: "IsTrue", Params: []string{"obtained"}},
	true,
}

// The IsFalse checker verifies that the obtained value is false.
//
// For example:
//
//     c.Assert(value, IsFalse)
//
var IsFalse Checker = &isBoolValueChecker{
	&CheckerInfo{Name: "IsFalse", Params: []string{"obtained"}},
	false,
}

// -----------------------------------------------------------------------
// HasKind checker.

type hasKindChecker struct {
	*CheckerInfo
}

func (checker *hasKindChecker) Check(
	params []interface{},
	names []string) (
	result bool,
	errStr string) {

	err, ok := params[0].(error)
	if !ok {
		return false, "First argument to HasKind must be a non-nil error"
	}
	kind, ok := params[1].(errors.Kind)
	if !ok {
		return false, "Second argument to HasKind must be an errors.Kind"
	}

	return errors.KindOf(err) == kind, ""
}

// The HasKind checker verifies that the obtained error chain resolves to the
// expected errors.Kind.
//
// For example:
//
//     c.Assert(err, HasKind, errors.LinkFailure)
//
var HasKind Checker = &hasKindChecker{
	&CheckerInfo{Name: "HasKind", Params: []string{"obtained", "kind"}},
}
