// Package verifier drives test vectors against a linked symbol and enforces
// fail-fast pass/fail semantics.
//
// The verifier never recovers from a producer that faults.  A panic or a
// signal raised across the boundary terminates the process abnormally, which
// keeps it distinguishable from a clean assertion failure by exit code.
package verifier

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/dropbox/abicheck/contract"
	"github.com/dropbox/abicheck/errors"
)

// Symbol is the consumer's view of a function exported by a producer.
// Implementations are generated bindings whose call resolves at link time;
// there is exactly one per contract in a binary.
type Symbol interface {
	// Signature the binding was generated from.
	Signature() contract.Signature

	// Call invokes the symbol.  len(args) always matches the signature.
	Call(args ...int64) int64
}

type State int

const (
	NotStarted State = iota
	Running
	Passed
	Failed
)

func (s State) String() string {
	switch s {
	case NotStarted:
		return "NotStarted"
	case Running:
		return "Running"
	case Passed:
		return "Passed"
	case Failed:
		return "Failed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Terminal reports whether no further transition is possible.
func (s State) Terminal() bool {
	return s == Passed || s == Failed
}

// Mismatch describes the first vector whose result differed.
type Mismatch struct {
	Index  int
	Vector contract.TestVector
	Got    int64
}

func (m *Mismatch) String() string {
	return fmt.Sprintf(
		"vector %d %s failed: got %d, expected %d",
		m.Index,
		m.Vector,
		m.Got,
		m.Vector.Expected)
}

type Result struct {
	Symbol string
	State  State

	// Number of vectors the symbol was called with.
	Evaluated int

	// Set only when State is Failed.
	Failure *Mismatch
}

// Err returns an AssertionFailure error for a failed run and nil otherwise.
func (r *Result) Err() error {
	if r.State != Failed {
		return nil
	}
	return errors.NewKindf(
		errors.AssertionFailure,
		"%s: %s",
		r.Symbol,
		r.Failure)
}

type Option func(*Verifier)

// WithContract makes RunAll reject a symbol whose signature differs from
// sig before calling it.
func WithContract(sig contract.Signature) Option {
	return func(v *Verifier) {
		v.expected = &sig
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(v *Verifier) {
		v.logger = logger
	}
}

// Verifier runs one batch of vectors against one symbol.  It is single use:
// a Verifier that has left NotStarted never runs again.
type Verifier struct {
	symbol   Symbol
	expected *contract.Signature
	logger   *zap.Logger
	state    State
}

func New(symbol Symbol, opts ...Option) *Verifier {
	v := &Verifier{
		symbol: symbol,
		logger: zap.NewNop(),
		state:  NotStarted,
	}
	for _, opt := range opts {
		opt(v)
	}
	v.logger = v.logger.Named("verifier").With(
		zap.String("symbol", symbol.Signature().Name))
	return v
}

func (v *Verifier) State() State {
	return v.state
}

// RunAll calls the symbol with each vector in order and compares the result
// with exact equality.  It stops at the first mismatch: later vectors are
// never evaluated.  Contract problems are reported as InvalidContract errors
// before the first call.
func (v *Verifier) RunAll(vectors []contract.TestVector) (*Result, error) {
	if v.state != NotStarted {
		return nil, errors.Newf(
			"verifier for %s already ran (state %s)",
			v.symbol.Signature().Name,
			v.state)
	}

	sig := v.symbol.Signature()
	if v.expected != nil {
		if diffs := contract.Compare(*v.expected, sig); len(diffs) > 0 {
			return nil, errors.NewKindf(
				errors.InvalidContract,
				"symbol %s does not match contract %s: %s",
				sig,
				*v.expected,
				strings.Join(diffs, "; "))
		}
	}
	for i, vec := range vectors {
		if err := contract.CheckVector(sig, vec); err != nil {
			return nil, errors.Wrapf(err, "vector %d", i)
		}
	}

	v.state = Running
	result := &Result{Symbol: sig.Name, State: Running}
	for i, vec := range vectors {
		got := v.symbol.Call(vec.Inputs...)
		result.Evaluated++
		if got != vec.Expected {
			v.state = Failed
			result.State = Failed
			result.Failure = &Mismatch{Index: i, Vector: vec, Got: got}
			v.logger.Debug(
				"vector failed",
				zap.Int("index", i),
				zap.Int64s("inputs", vec.Inputs),
				zap.Int64("expected", vec.Expected),
				zap.Int64("got", got))
			return result, nil
		}
		v.logger.Debug(
			"vector passed",
			zap.Int("index", i),
			zap.Int64s("inputs", vec.Inputs))
	}

	v.state = Passed
	result.State = Passed
	return result, nil
}
