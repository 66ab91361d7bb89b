package main

import (
	"io"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dropbox/abicheck/contract"
	"github.com/dropbox/abicheck/dlog"
	"github.com/dropbox/abicheck/errors"
)

type app struct {
	stdout io.Writer
	stderr io.Writer

	logLevel         string
	logBufferSize    int
	logFlushInterval time.Duration

	logger   *zap.Logger
	closeLog func() error
}

func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "abicheck",
		Short: "Cross-toolchain C-ABI conformance checks",
		Long: "abicheck renders the header, guard and consumer of a C-ABI " +
			"contract and verifies producers against its test vectors.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.initLogger()
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.logLevel, "log-level", "warn", "debug, info, warn or error")
	flags.IntVar(&a.logBufferSize, "log-buffer-size", 0, "log buffer size in bytes; 0 disables buffering")
	flags.DurationVar(&a.logFlushInterval, "log-flush-interval", time.Second, "maximum time between log flushes")

	root.AddCommand(
		a.generateCmd(),
		a.verifyCmd(),
		a.fingerprintCmd())
	return root
}

func (a *app) initLogger() error {
	logger, closeLog, err := dlog.New(dlog.Config{
		Level:            a.logLevel,
		BufferSize:       a.logBufferSize,
		MaxFlushInterval: a.logFlushInterval,
		Output:           a.stderr,
	})
	if err != nil {
		return errors.Wrap(err, "bad logging flags")
	}
	a.logger = logger
	a.closeLog = closeLog
	return nil
}

func (a *app) close() {
	if a.closeLog != nil {
		_ = a.closeLog()
	}
}

func loadContractFlag(cmd *cobra.Command, name string) (*contract.Suite, error) {
	path, err := cmd.Flags().GetString(name)
	if err != nil {
		return nil, errors.Wrap(err, "bad flag")
	}
	return contract.Load(path)
}
