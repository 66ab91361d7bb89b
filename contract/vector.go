package contract

import (
	"fmt"
	"strings"

	"github.com/samber/lo"

	"github.com/dropbox/abicheck/errors"
)

// TestVector is one input/expected-output pair.  Vectors are defined before
// the consumer runs and never modified.
type TestVector struct {
	Inputs   []int64
	Expected int64
}

func (v TestVector) String() string {
	inputs := lo.Map(v.Inputs, func(in int64, _ int) string {
		return fmt.Sprintf("%d", in)
	})
	return fmt.Sprintf("(%s) -> %d", strings.Join(inputs, ", "), v.Expected)
}

// IsZero reports whether every input is zero.
func (v TestVector) IsZero() bool {
	return lo.EveryBy(v.Inputs, func(in int64) bool { return in == 0 })
}

// CheckVector verifies that a vector can be passed to sig without any
// conversion: the arity matches and every value fits its declared type.
func CheckVector(sig Signature, v TestVector) error {
	if len(v.Inputs) != len(sig.Params) {
		return errors.NewKindf(
			errors.InvalidContract,
			"%s takes %d arguments, vector %s has %d",
			sig.Name,
			len(sig.Params),
			v,
			len(v.Inputs))
	}
	for i, in := range v.Inputs {
		if !sig.Params[i].Contains(in) {
			return errors.NewKindf(
				errors.InvalidContract,
				"input %d of vector %s does not fit %s",
				i,
				v,
				sig.Params[i].CType())
		}
	}
	if !sig.Return.Contains(v.Expected) {
		return errors.NewKindf(
			errors.InvalidContract,
			"expected value of vector %s does not fit %s",
			v,
			sig.Return.CType())
	}
	return nil
}

// Suite is one contract description: the contract and its vectors.
type Suite struct {
	Version  int
	Source   string
	Contract Contract
	Vectors  []TestVector
}

// Validate checks the invariants that cannot be expressed as struct rules.
func (s *Suite) Validate() error {
	sig := s.Contract.Signature()
	if !IsCIdentifier(sig.Name) {
		return errors.NewKindf(
			errors.InvalidContract,
			"%q cannot be used as a symbol name",
			sig.Name)
	}
	for _, p := range s.Contract.Params {
		if !IsCIdentifier(p.Name) {
			return errors.NewKindf(
				errors.InvalidContract,
				"%s: %q cannot be used as a parameter name",
				sig.Name,
				p.Name)
		}
	}
	if !sig.Return.Valid() {
		return errors.NewKindf(
			errors.InvalidContract,
			"%s: invalid return type %q",
			s.Contract.Name,
			string(sig.Return))
	}
	for i, p := range sig.Params {
		if !p.Valid() {
			return errors.NewKindf(
				errors.InvalidContract,
				"%s: invalid type %q for parameter %d",
				s.Contract.Name,
				string(p),
				i)
		}
	}
	if len(s.Vectors) == 0 {
		return errors.NewKindf(
			errors.InvalidContract,
			"%s: at least one vector is required",
			s.Contract.Name)
	}
	for i, v := range s.Vectors {
		if err := CheckVector(sig, v); err != nil {
			return errors.Wrapf(err, "vector %d", i)
		}
	}
	if len(sig.Params) > 0 && !lo.SomeBy(s.Vectors, TestVector.IsZero) {
		return errors.NewKindf(
			errors.InvalidContract,
			"%s: no vector has all-zero inputs",
			s.Contract.Name)
	}
	return nil
}
