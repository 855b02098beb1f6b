package cmd

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/goccy/go-json"
	"github.com/spf13/pflag"
)

type processFunc func(filename *string, input io.Reader) (interface{}, error)

var (
	processFlags pflag.FlagSet
	compact      = processFlags.BoolP("compact", "c", false, "disable pretty-printing of JSON output")
)

// processFiles runs process on every file and prints results as JSON to output.
//
// Reads stdin if no filenames are given. Stops at the first failure.
func processFiles(filenames []string, output io.Writer, process processFunc) error {
	encoder := json.NewEncoder(output)
	if !*compact {
		encoder.SetIndent("", "  ")
	}
	encoder.SetEscapeHTML(false)

	if len(filenames) == 0 {
		result, err := process(nil, bufio.NewReader(os.Stdin))
		if err != nil {
			return err
		}
		return encoder.Encode(result)
	}

	for _, filename := range filenames {
		if err := processFile(filename, process, encoder); err != nil {
			return err
		}
	}
	return nil
}

func processFile(filename string, process processFunc, encoder *json.Encoder) error {
	file, err := os.Open(filename)
	if err != nil {
		return fmt.Errorf("unable to open file: %w", err)
	}
	defer file.Close()

	result, err := process(&filename, bufio.NewReader(file))
	if err != nil {
		return fmt.Errorf("%s: %w", filename, err)
	}
	return encoder.Encode(result)
}

// writeFile creates the named file and fills it with save.
//
// On failure, the file may have been partially written.
func writeFile(filename string, save func(io.Writer) error) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}

	if err = save(file); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}
