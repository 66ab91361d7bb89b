package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dropbox/abicheck/contract"
	"github.com/dropbox/abicheck/errors"
	"github.com/dropbox/abicheck/toolchain"
)

func (a *app) verifyCmd() *cobra.Command {
	var (
		sources          []string
		consumerContract string
		keepWorkDir      bool
	)

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Build a producer and a C consumer, link them and run the vectors",
		Long: "verify compiles the producer sources against the contract's " +
			"header, links them with the generated C consumer and runs it. " +
			"Prebuilt producer artifacts (.a, .o, .so) from other toolchains " +
			"are linked as given.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			producer, err := loadContractFlag(cmd, "contract")
			if err != nil {
				return err
			}
			consumer := producer
			if consumerContract != "" {
				consumer, err = contract.Load(consumerContract)
				if err != nil {
					return err
				}
			}

			cfg, err := toolchain.LoadConfig()
			if err != nil {
				return err
			}
			if keepWorkDir {
				cfg.KeepWorkDir = true
			}

			outcome, err := toolchain.NewHarness(cfg, a.logger).Verify(
				cmd.Context(),
				toolchain.Request{
					Producer: producer,
					Consumer: consumer,
					Sources:  sources,
				})
			if err != nil {
				return err
			}

			_, _ = a.stdout.Write(outcome.Stdout)
			_, _ = a.stderr.Write(outcome.Stderr)
			if outcome.WorkDir != "" {
				fmt.Fprintf(a.stderr, "work directory: %s\n", outcome.WorkDir)
			}
			if !outcome.Passed {
				return errors.WrapKindf(
					outcome.Err(),
					errors.KindOf(outcome.Err()),
					"%s",
					outcome)
			}
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringP("contract", "c", "", "contract the producer implements")
	flags.StringSliceVarP(&sources, "producer", "p", nil, "producer sources (.c) or prebuilt artifacts (.a, .o, .so)")
	flags.StringVar(&consumerContract, "consumer-contract", "", "contract the consumer is built from (default: --contract)")
	flags.BoolVar(&keepWorkDir, "keep-workdir", false, "keep the work directory for inspection")
	_ = cmd.MarkFlagRequired("contract")
	_ = cmd.MarkFlagRequired("producer")
	return cmd
}
