package cmd

import (
	"bufio"
	"fmt"
	"os"

	"github.com/connesc/kelftool"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(encryptCmd)
}

var encryptCmd = &cobra.Command{
	Use:   "encrypt <input> <output>",
	Short: "Encrypt and sign raw content as a KELF file",
	Long: `Encrypt and sign raw content as a KELF file.

The first 32 bytes of input are encrypted and signed, the rest is stored as is.
Working keys are freshly generated for every file.`,
	Args: cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		keys := mustLoadKeyStore()
		if err := encryptFile(keys, args[0], args[1]); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to encrypt: %v\n", err)
			os.Exit(exitCode(err))
		}
	},
}

func encryptFile(keys kelftool.KeyProvider, inputPath, outputPath string) error {
	input, err := os.Open(inputPath)
	if err != nil {
		return err
	}
	defer input.Close()

	k := kelftool.New(keys, kelftool.WithLogger(newLogger().With("input", inputPath)))
	if err = k.LoadContent(bufio.NewReader(input)); err != nil {
		return err
	}

	return writeFile(outputPath, k.SaveKelf)
}
