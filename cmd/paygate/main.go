package main

import (
	"os"

	"github.com/spf13/cobra"

	"paygate/internal/interfaces/cli/server"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "paygate",
		Short: "Paygate - payment gateway abstraction service",
		Long:  `Paygate exposes a uniform payment API over heterogeneous payment providers: one contract for paying, verifying, refunding, and webhook processing.`,
	}

	rootCmd.AddCommand(
		server.NewCommand(),
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
