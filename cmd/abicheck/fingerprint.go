package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func (a *app) fingerprintCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fingerprint",
		Short: "Print the canonical signature and guard symbol of a contract",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			suite, err := loadContractFlag(cmd, "contract")
			if err != nil {
				return err
			}
			sig := suite.Contract.Signature()
			fmt.Fprintf(a.stdout, "%s\t%s\n", sig, sig.GuardSymbol())
			return nil
		},
	}
	cmd.Flags().StringP("contract", "c", "", "contract file")
	_ = cmd.MarkFlagRequired("contract")
	return cmd
}
