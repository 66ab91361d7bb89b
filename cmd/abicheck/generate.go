package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dropbox/abicheck/codegen"
	"github.com/dropbox/abicheck/errors"
)

func (a *app) generateCmd() *cobra.Command {
	var (
		outDir    string
		goPackage string
		targets   string
		check     bool
	)

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Render the header, guard, C consumer and Go binding of a contract",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			suite, err := loadContractFlag(cmd, "contract")
			if err != nil {
				return err
			}
			selected, err := codegen.ParseTargets(targets)
			if err != nil {
				return errors.Wrap(err, "bad --targets")
			}
			files, err := codegen.Render(suite, codegen.Options{
				Targets:   selected,
				GoPackage: goPackage,
			})
			if err != nil {
				return err
			}

			if check {
				if err := codegen.Check(outDir, files); err != nil {
					return err
				}
				fmt.Fprintf(a.stdout, "%s: %d files up to date\n", suite.Contract.Name, len(files))
				return nil
			}

			if err := codegen.Write(outDir, files); err != nil {
				return err
			}
			for _, f := range files {
				a.logger.Info(
					"generated",
					zap.String("contract", suite.Contract.Name),
					zap.String("file", f.Name))
			}
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringP("contract", "c", "", "contract file")
	flags.StringVarP(&outDir, "out", "o", ".", "output directory")
	flags.StringVar(&goPackage, "package", "", "package clause of the Go binding (default: contract name)")
	flags.StringVar(&targets, "targets", "all", "comma separated: header, guard, c-verifier, go-binding, producer, c-consumer, go-consumer, all")
	flags.BoolVar(&check, "check", false, "fail if the files on disk differ from what would be generated")
	_ = cmd.MarkFlagRequired("contract")
	return cmd
}
