// Package toolchain drives the external compiler, archiver and linker that
// sit on both sides of a C-ABI boundary, and runs the linked consumer.
//
// The tools are black boxes: each step is one process whose exit status and
// output are captured and classified.  Nothing here inspects object files.
package toolchain

import (
	"bytes"
	"context"
	stderrors "errors"
	"os/exec"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/dropbox/abicheck/errors"
)

// Output is what one external process left behind.
type Output struct {
	Stdout   []byte
	Stderr   []byte
	ExitCode int

	// Non-empty when the process was killed by a signal, e.g.
	// "signal: aborted".  ExitCode is -1 in that case.
	Signal string
}

type Toolchain struct {
	cfg    Config
	logger *zap.Logger
}

func New(cfg Config, logger *zap.Logger) *Toolchain {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Toolchain{
		cfg:    cfg,
		logger: logger.Named("toolchain"),
	}
}

// run executes one tool.  A non-nil error means the process could not be
// started or did not exit with status 0; the returned Output is always
// populated with whatever was captured.
func (t *Toolchain) run(
	ctx context.Context,
	name string,
	args ...string) (*Output, error) {

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	out := &Output{Stdout: stdout.Bytes(), Stderr: stderr.Bytes()}

	var exitErr *exec.ExitError
	switch {
	case err == nil:
	case stderrors.As(err, &exitErr):
		out.ExitCode = exitErr.ExitCode()
		if out.ExitCode == -1 {
			out.Signal = exitErr.ProcessState.String()
		}
	default:
		out.ExitCode = -1
	}

	t.logger.Debug(
		"ran tool",
		zap.String("cmd", name+" "+strings.Join(args, " ")),
		zap.Int("exit", out.ExitCode),
		zap.String("signal", out.Signal),
		zap.Duration("elapsed", time.Since(start)),
		zap.Error(err))
	return out, err
}

func (t *Toolchain) compileArgs(src, obj string, includeDirs []string) []string {
	args := []string{"-std=c99"}
	args = append(args, t.cfg.CFlags...)
	for _, dir := range includeDirs {
		args = append(args, "-I", dir)
	}
	return append(args, "-c", "-o", obj, src)
}

// Compile turns one C source into an object file.
func (t *Toolchain) Compile(
	ctx context.Context,
	src string,
	obj string,
	includeDirs ...string) error {

	out, err := t.run(ctx, t.cfg.CC, t.compileArgs(src, obj, includeDirs)...)
	if err != nil {
		return toolError(err, out, errors.BuildFailure, "compiling %s", src)
	}
	return nil
}

// Archive bundles objects into a static library.
func (t *Toolchain) Archive(ctx context.Context, lib string, objs ...string) error {
	args := append([]string{"rcs", lib}, objs...)
	out, err := t.run(ctx, t.cfg.AR, args...)
	if err != nil {
		return toolError(err, out, errors.BuildFailure, "archiving %s", lib)
	}
	return nil
}

// Link resolves the consumer's references against the producer artifacts.
// inputs must list the consumer objects before the libraries they use.
func (t *Toolchain) Link(ctx context.Context, exe string, inputs ...string) error {
	args := append([]string{"-o", exe}, inputs...)
	args = append(args, t.cfg.LDFlags...)
	out, err := t.run(ctx, t.cfg.CC, args...)
	if err != nil {
		return toolError(err, out, errors.LinkFailure, "linking %s", exe)
	}
	return nil
}

// Execute runs a linked program.  A non-zero exit or a signal is reported in
// the Output, not as an error; the error is set only when the program could
// not be started.
func (t *Toolchain) Execute(ctx context.Context, exe string) (*Output, error) {
	out, err := t.run(ctx, exe)
	if err == nil {
		return out, nil
	}
	var exitErr *exec.ExitError
	if stderrors.As(err, &exitErr) {
		return out, nil
	}
	return out, errors.Wrapf(err, "cannot start %s", exe)
}

func toolError(
	err error,
	out *Output,
	kind errors.Kind,
	format string,
	args ...interface{}) error {

	wrapped := errors.WrapKindf(err, kind, format, args...)
	if out != nil && len(out.Stderr) > 0 {
		return errors.WrapKindf(
			wrapped,
			kind,
			"%s",
			strings.TrimSpace(string(out.Stderr)))
	}
	return wrapped
}
