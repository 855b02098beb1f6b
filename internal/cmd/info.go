package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/connesc/kelftool"
	"github.com/spf13/cobra"
)

func init() {
	infoCmd.Flags().AddFlagSet(&processFlags)
	rootCmd.AddCommand(infoCmd)
}

type infoFile struct {
	File *string
	*kelftool.Info
}

var infoCmd = &cobra.Command{
	Use:   "info [file...]",
	Short: "Check KELF files and describe their structure",
	Long:  "Check KELF files given as arguments, or stdin if none is given, and print their header and blocks as JSON",
	Run: func(cmd *cobra.Command, args []string) {
		keys := mustLoadKeyStore()
		err := processFiles(args, os.Stdout, inspect(keys))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Invalid KELF: %v\n", err)
			os.Exit(exitCode(err))
		}
	},
}

func inspect(keys kelftool.KeyProvider) processFunc {
	return func(filename *string, input io.Reader) (interface{}, error) {
		k := kelftool.New(keys, kelftool.WithLogger(newLogger()))
		if err := k.LoadKelf(input); err != nil {
			return nil, err
		}
		return infoFile{
			File: filename,
			Info: k.Info(),
		}, nil
	}
}
