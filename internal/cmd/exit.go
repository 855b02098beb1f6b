package cmd

import (
	"errors"

	"github.com/connesc/kelftool"
	"github.com/connesc/kelftool/keystore"
)

var exitCodes = []struct {
	err  error
	code int
}{
	{kelftool.ErrInvalidKeyCount, 2},
	{kelftool.ErrInvalidHeaderSignature, 3},
	{kelftool.ErrInvalidBitTableSize, 4},
	{kelftool.ErrInvalidBitTableSignature, 5},
	{kelftool.ErrInvalidRootSignature, 6},
	{kelftool.ErrInvalidContentSignature, 7},
	{kelftool.ErrUnsupportedVariant, 8},
	{keystore.ErrOpenFailed, 9},
	{keystore.ErrMalformedEntry, 10},
	{keystore.ErrIncompleteKeyStore, 11},
}

// exitCode maps an error to the process exit status.
func exitCode(err error) int {
	if err == nil {
		return 0
	}
	for _, e := range exitCodes {
		if errors.Is(err, e.err) {
			return e.code
		}
	}
	return 1
}
