package verifier

import (
	"fmt"
	"io"
	"os"

	"github.com/dropbox/abicheck/contract"
	"github.com/dropbox/abicheck/errors"
)

// Run is the body of a consumer program.  It prints the start marker, runs
// every vector, prints the completion marker when all of them pass and
// returns the process exit code.
func Run(
	stdout io.Writer,
	stderr io.Writer,
	symbol Symbol,
	vectors []contract.TestVector,
	opts ...Option) int {

	name := symbol.Signature().Name
	fmt.Fprintf(stdout, "Starting %s verification...\n", name)

	result, err := New(symbol, opts...).RunAll(vectors)
	if err != nil {
		fmt.Fprintf(stderr, "%s: %s\n", name, errors.GetMessage(err))
		return errors.ExitCode(err)
	}
	if err := result.Err(); err != nil {
		fmt.Fprintf(stderr, "%s\n", errors.GetMessage(err))
		return errors.ExitCode(err)
	}

	fmt.Fprintf(stdout, "Finished %s verification successfully!\n", name)
	return errors.ExitPassed
}

// Main runs the vectors and exits the process with Run's exit code.
func Main(symbol Symbol, vectors []contract.TestVector, opts ...Option) {
	os.Exit(Run(os.Stdout, os.Stderr, symbol, vectors, opts...))
}
