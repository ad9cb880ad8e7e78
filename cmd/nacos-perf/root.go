package main

import (
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "nacos-perf",
		Short:         "Ferramentas de carga para o registro de serviços do nacos",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	rootCmd.AddCommand(newInstanceCmd(newInstanceOptions()))
	return rootCmd
}
