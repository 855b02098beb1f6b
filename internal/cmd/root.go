package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "kelftool",
	Short: "Decrypt, encrypt and check KELF files used by the PlayStation 2",
	Long: `kelftool processes KELF containers: signed and encrypted executables used by the
PlayStation 2 and its derivatives.

Secrets are read from a key store made of NAME=HEX lines. Its path is given by --keys,
the KELFTOOL_KEYS environment variable, or defaults to $HOME/PS2KEYS.dat.`,
}

// Execute the CLI.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
