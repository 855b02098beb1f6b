package cmd

import (
	"bufio"
	"fmt"
	"os"

	"github.com/connesc/kelftool"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(decryptCmd)
}

var decryptCmd = &cobra.Command{
	Use:   "decrypt <input> <output>",
	Short: "Decrypt a KELF file and check its signatures",
	Long:  "Decrypt a KELF file and check its signatures, then write the decrypted content to output",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		keys := mustLoadKeyStore()
		if err := decryptFile(keys, args[0], args[1]); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to decrypt: %v\n", err)
			os.Exit(exitCode(err))
		}
	},
}

func decryptFile(keys kelftool.KeyProvider, inputPath, outputPath string) error {
	input, err := os.Open(inputPath)
	if err != nil {
		return err
	}
	defer input.Close()

	k := kelftool.New(keys, kelftool.WithLogger(newLogger().With("input", inputPath)))
	if err = k.LoadKelf(bufio.NewReader(input)); err != nil {
		return err
	}

	return writeFile(outputPath, k.SaveContent)
}
