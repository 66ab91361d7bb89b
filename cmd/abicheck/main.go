// abicheck generates both sides of a C-ABI boundary from a contract file and
// verifies that a producer built by one toolchain satisfies a consumer built
// by another.
//
// Exit status: 0 passed, 1 a vector failed, 2 the consumer crashed, 3 the
// contract is invalid, 4 the link failed, 5 the build failed.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/dropbox/abicheck/errors"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	app := &app{stdout: stdout, stderr: stderr}
	defer app.close()

	root := app.rootCmd()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	if err := root.Execute(); err != nil {
		fmt.Fprintf(stderr, "abicheck: %s\n", errors.GetMessage(err))
		return errors.ExitCode(err)
	}
	return 0
}
