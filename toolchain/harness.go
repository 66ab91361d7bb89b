package toolchain

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/dropbox/abicheck/codegen"
	"github.com/dropbox/abicheck/contract"
	"github.com/dropbox/abicheck/errors"
)

// Stage is a step of the build-link-run pipeline.
type Stage int

const (
	StageGenerate Stage = iota
	StageProducer
	StageConsumer
	StageLink
	StageRun
)

func (s Stage) String() string {
	switch s {
	case StageGenerate:
		return "generate"
	case StageProducer:
		return "producer"
	case StageConsumer:
		return "consumer"
	case StageLink:
		return "link"
	case StageRun:
		return "run"
	default:
		return fmt.Sprintf("stage(%d)", int(s))
	}
}

// Producer inputs that were built by another toolchain and are linked as
// given.
var prebuiltExts = []string{".a", ".o", ".so", ".dylib"}

type Request struct {
	// Contract the producer implements.
	Producer *contract.Suite

	// Contract the consumer is generated from.  Nil means Producer.  The
	// vectors always come from this suite.
	Consumer *contract.Suite

	// Producer inputs.  C sources are compiled against the generated
	// header; prebuilt artifacts are linked as given.
	Sources []string
}

// Outcome is the result of one conformance check.
type Outcome struct {
	Symbol string

	// The last stage that was attempted.
	Stage Stage

	Passed   bool
	ExitCode int
	Signal   string
	Stdout   []byte
	Stderr   []byte

	// Empty once the work directory has been removed.
	WorkDir string

	err error
}

// Err classifies a failed outcome: BuildFailure, LinkFailure,
// AssertionFailure or FatalFault.  It is nil when the check passed.
func (o *Outcome) Err() error {
	return o.err
}

func (o *Outcome) String() string {
	if o.Passed {
		return fmt.Sprintf("%s: passed", o.Symbol)
	}
	return fmt.Sprintf(
		"%s: failed at %s stage (%s)",
		o.Symbol,
		o.Stage,
		errors.KindOf(o.err))
}

// Harness builds a producer and a consumer from their contracts, links them
// and runs the result.  No state survives between calls to Verify.
type Harness struct {
	cfg    Config
	tc     *Toolchain
	logger *zap.Logger
}

func NewHarness(cfg Config, logger *zap.Logger) *Harness {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Harness{
		cfg:    cfg,
		tc:     New(cfg, logger),
		logger: logger.Named("harness"),
	}
}

// Verify runs one conformance check.  Failures of the code under test are
// reported through the Outcome; the returned error is reserved for requests
// that cannot be attempted at all.
func (h *Harness) Verify(ctx context.Context, req Request) (*Outcome, error) {
	if req.Producer == nil {
		return nil, errors.NewKindf(errors.InvalidContract, "no producer contract")
	}
	consumer := req.Consumer
	if consumer == nil {
		consumer = req.Producer
	}
	if len(req.Sources) == 0 {
		return nil, errors.NewKindf(
			errors.InvalidContract,
			"no producer sources for %s",
			req.Producer.Contract.Name)
	}
	sources, err := absPaths(req.Sources)
	if err != nil {
		return nil, err
	}

	name := consumer.Contract.Name
	workDir, err := os.MkdirTemp(h.cfg.WorkDir, "abicheck-"+name+"-")
	if err != nil {
		return nil, errors.Wrap(err, "cannot create work directory")
	}
	logger := h.logger.With(zap.String("symbol", name), zap.String("workdir", workDir))

	outcome := &Outcome{Symbol: name, WorkDir: workDir}
	if h.cfg.KeepWorkDir {
		logger.Info("keeping work directory")
	} else {
		defer func() {
			_ = os.RemoveAll(workDir)
			outcome.WorkDir = ""
		}()
	}

	outcome.err = h.pipeline(ctx, outcome, req.Producer, consumer, sources, workDir)
	outcome.Passed = outcome.err == nil
	if outcome.Passed {
		logger.Info("conformance check passed")
	} else {
		logger.Warn(
			"conformance check failed",
			zap.Stringer("stage", outcome.Stage),
			zap.Stringer("kind", errors.KindOf(outcome.err)))
	}
	return outcome, nil
}

func (h *Harness) pipeline(
	ctx context.Context,
	outcome *Outcome,
	producer *contract.Suite,
	consumer *contract.Suite,
	sources []string,
	workDir string) error {

	producerDir := filepath.Join(workDir, "producer")
	consumerDir := filepath.Join(workDir, "consumer")

	outcome.Stage = StageGenerate
	if err := generate(producer, codegen.Producer, producerDir); err != nil {
		return errors.Wrap(err, "generating producer declarations")
	}
	if err := generate(consumer, codegen.CConsumer, consumerDir); err != nil {
		return errors.Wrap(err, "generating consumer")
	}

	outcome.Stage = StageProducer
	producerInputs, err := h.buildProducer(ctx, producer, sources, producerDir)
	if err != nil {
		return err
	}

	outcome.Stage = StageConsumer
	names := codegen.FileNames(consumer.Contract.Name)
	consumerObj := filepath.Join(consumerDir, "consumer.o")
	err = h.tc.Compile(
		ctx,
		filepath.Join(consumerDir, names.CVerifier),
		consumerObj,
		consumerDir)
	if err != nil {
		return err
	}

	outcome.Stage = StageLink
	exe := filepath.Join(workDir, "verify")
	linkInputs := append([]string{consumerObj}, producerInputs...)
	if err := h.tc.Link(ctx, exe, linkInputs...); err != nil {
		return err
	}

	outcome.Stage = StageRun
	out, err := h.tc.Execute(ctx, exe)
	if err != nil {
		return err
	}
	outcome.ExitCode = out.ExitCode
	outcome.Signal = out.Signal
	outcome.Stdout = out.Stdout
	outcome.Stderr = out.Stderr
	return classifyRun(consumer.Contract.Name, out)
}

// buildProducer compiles the C sources and the guard into one static library
// and returns the inputs the link step needs.
func (h *Harness) buildProducer(
	ctx context.Context,
	producer *contract.Suite,
	sources []string,
	producerDir string) ([]string, error) {

	cSources, rest := lo.FilterReject(sources, func(src string, _ int) bool {
		return filepath.Ext(src) == ".c"
	})
	prebuilt, unknown := lo.FilterReject(rest, func(src string, _ int) bool {
		return lo.Contains(prebuiltExts, filepath.Ext(src))
	})
	if len(unknown) > 0 {
		return nil, errors.NewKindf(
			errors.BuildFailure,
			"unsupported producer inputs: %s",
			strings.Join(unknown, ", "))
	}

	names := codegen.FileNames(producer.Contract.Name)
	objs := make([]string, 0, len(cSources)+1)

	guardObj := filepath.Join(producerDir, "00_guard.o")
	err := h.tc.Compile(ctx, filepath.Join(producerDir, names.Guard), guardObj, producerDir)
	if err != nil {
		return nil, err
	}
	objs = append(objs, guardObj)

	for i, src := range cSources {
		// A quoted include is searched next to the including file first, so
		// the source is compiled from inside producerDir where only the
		// generated header can satisfy it.  Its own directory stays on the
		// include path for any other local headers.
		unit := fmt.Sprintf("%02d_%s", i+1, filepath.Base(src))
		staged := filepath.Join(producerDir, unit)
		if err := stageSource(src, staged); err != nil {
			return nil, err
		}
		obj := strings.TrimSuffix(staged, ".c") + ".o"
		err := h.tc.Compile(ctx, staged, obj, producerDir, filepath.Dir(src))
		if err != nil {
			return nil, err
		}
		objs = append(objs, obj)
	}

	lib := filepath.Join(producerDir, "libproducer.a")
	if err := h.tc.Archive(ctx, lib, objs...); err != nil {
		return nil, err
	}
	return append([]string{lib}, prebuilt...), nil
}

// classifyRun maps the consumer's exit status to the error taxonomy: 0
// passes, 1 is the consumer's own assertion failure, anything else is a
// fatal fault.
func classifyRun(name string, out *Output) error {
	switch {
	case out.Signal != "":
		return errors.NewKindf(
			errors.FatalFault,
			"%s: consumer terminated abnormally (%s)",
			name,
			out.Signal)
	case out.ExitCode == 0:
		return nil
	case out.ExitCode == errors.ExitAssertionFailure:
		return errors.NewKindf(
			errors.AssertionFailure,
			"%s",
			strings.TrimSpace(string(out.Stderr)))
	default:
		return errors.NewKindf(
			errors.FatalFault,
			"%s: consumer exited with status %d",
			name,
			out.ExitCode)
	}
}

func stageSource(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return errors.WrapKindf(err, errors.BuildFailure, "cannot read %s", src)
	}
	if err := os.WriteFile(dst, data, 0644); err != nil {
		return errors.Wrapf(err, "cannot stage %s", src)
	}
	return nil
}

func generate(suite *contract.Suite, targets codegen.Target, dir string) error {
	files, err := codegen.Render(suite, codegen.Options{Targets: targets})
	if err != nil {
		return err
	}
	return codegen.Write(dir, files)
}

func absPaths(paths []string) ([]string, error) {
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return nil, errors.Wrapf(err, "cannot resolve %s", p)
		}
		if _, err := os.Stat(abs); err != nil {
			return nil, errors.WrapKindf(
				err,
				errors.BuildFailure,
				"producer input %s",
				p)
		}
		out = append(out, abs)
	}
	return out, nil
}
