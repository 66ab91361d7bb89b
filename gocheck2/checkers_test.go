package gocheck2

import (
	"fmt"
	"testing"

	. "gopkg.in/check.v1"

	"github.com/dropbox/abicheck/errors"
)

// Hook up gocheck into go test runner
func Test(t *testing.T) {
	TestingT(t)
}

type CheckersSuite struct{}

var _ = Suite(&CheckersSuite{})

func testCheck(
	c *C,
	checker Checker,
	expectedResult bool,
	expectedErr string,
	params ...interface{}) {

	actualResult, actualErr := checker.Check(params, nil)
	if actualResult != expectedResult || actualErr != expectedErr {
		c.Fatalf(
			"Check returned (%#v, %#v) rather than (%#v, %#v)",
			actualResult, actualErr, expectedResult, expectedErr)
	}
}

func (s *CheckersSuite) TestIsTrue(c *C) {
	testCheck(c, IsTrue, true, "", true)
	testCheck(c, IsTrue, false, "", false)
	testCheck(c, IsTrue, false, "Argument to IsTrue must be bool", 1)
}

func (s *CheckersSuite) TestIsFalse(c *C) {
	testCheck(c, IsFalse, true, "", false)
	testCheck(c, IsFalse, false, "", true)
	testCheck(c, IsFalse, false, "Argument to IsFalse must be bool", "false")
}

func (s *CheckersSuite) TestHasKind(c *C) {
	link := errors.NewKindf(errors.LinkFailure, "undefined symbol")
	testCheck(c, HasKind, true, "", link, errors.LinkFailure)
	testCheck(c, HasKind, true, "", errors.Wrap(link, "outer"), errors.LinkFailure)
	testCheck(c, HasKind, false, "", link, errors.AssertionFailure)
	testCheck(c, HasKind, true, "", fmt.Errorf("plain"), errors.Unknown)

	testCheck(
		c, HasKind, false, "First argument to HasKind must be a non-nil error",
		nil, errors.LinkFailure)
	testCheck(
		c, HasKind, false, "Second argument to HasKind must be an errors.Kind",
		link, 3)
}
