package kelftool

import (
	"errors"

	"github.com/connesc/kelftool/kelfutil"
)

var (
	// ErrInvalidKeyCount is returned when DES is used with a key count other than 1, 2 or 3.
	ErrInvalidKeyCount = kelfutil.ErrInvalidKeyCount
	// ErrUnsupportedVariant is returned for headers describing a container shape that is not handled.
	ErrUnsupportedVariant = errors.New("unsupported KELF variant")
	// ErrInvalidHeaderSignature is returned when the header signature does not match.
	ErrInvalidHeaderSignature = errors.New("invalid header signature")
	// ErrInvalidBitTableSize is returned when the bit table does not fit in its declared region.
	ErrInvalidBitTableSize = errors.New("invalid bit table size")
	// ErrInvalidBitTableSignature is returned when the bit table signature does not match.
	ErrInvalidBitTableSignature = errors.New("invalid bit table signature")
	// ErrInvalidRootSignature is returned when the root signature does not match.
	ErrInvalidRootSignature = errors.New("invalid root signature")
	// ErrInvalidContentSignature is returned when a signed block does not match its signature.
	ErrInvalidContentSignature = errors.New("invalid content signature")
)
