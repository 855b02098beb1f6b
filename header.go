package kelftool

import (
	"encoding/binary"
	"fmt"
)

// HeaderLen is the size of an encoded Header.
const HeaderLen = 0x20

// System types.
const (
	SystemTypePS2 = 0 // also used by COH arcade boards
	SystemTypePSX = 1
)

// Header flags.
const (
	FlagUnsupported   = 0x0001
	FlagKeyCountMask  = 0x0030
	FlagKeyCountShift = 4
)

// Fixed-size parts of a container, in file order.
const (
	signatureLen  = 8
	workingKeyLen = 16
	prologueLen   = HeaderLen + signatureLen + 2*workingKeyLen
	epilogueLen   = 2 * signatureLen
)

// Header is the fixed-size record at the beginning of a KELF file.
type Header struct {
	UserDefined     [16]byte
	ContentSize     uint32
	HeaderSize      uint16
	SystemType      uint8
	ApplicationType uint8
	Flags           uint16
	BitCount        uint16
	MGZones         uint32
}

var psxUserDefined = [16]byte{0x01, 0x03, 0x00, 0x04, 0x00, 0x02, 0x00, 0x4A, 0x00, 0x07, 0x01, 0x00, 0x00, 0x00, 0x01, 0x78}

// DefaultHeader returns the header used when building a new container: PSX system and
// application types, 2-key content encryption and the Japan region.
func DefaultHeader() Header {
	return Header{
		UserDefined:     psxUserDefined,
		SystemType:      SystemTypePSX,
		ApplicationType: 1,
		Flags:           0x22c,
		BitCount:        0,
		MGZones:         1,
	}
}

// ParseHeader decodes a header from the first HeaderLen bytes of data.
func ParseHeader(data []byte) (*Header, error) {
	if len(data) < HeaderLen {
		return nil, fmt.Errorf("kelf: header must have length %d, got %d", HeaderLen, len(data))
	}

	header := &Header{
		ContentSize:     binary.LittleEndian.Uint32(data[0x10:]),
		HeaderSize:      binary.LittleEndian.Uint16(data[0x14:]),
		SystemType:      data[0x16],
		ApplicationType: data[0x17],
		Flags:           binary.LittleEndian.Uint16(data[0x18:]),
		BitCount:        binary.LittleEndian.Uint16(data[0x1a:]),
		MGZones:         binary.LittleEndian.Uint32(data[0x1c:]),
	}
	copy(header.UserDefined[:], data[:0x10])

	return header, nil
}

// Bytes encodes the header.
func (h *Header) Bytes() []byte {
	data := make([]byte, HeaderLen)
	copy(data, h.UserDefined[:])
	binary.LittleEndian.PutUint32(data[0x10:], h.ContentSize)
	binary.LittleEndian.PutUint16(data[0x14:], h.HeaderSize)
	data[0x16] = h.SystemType
	data[0x17] = h.ApplicationType
	binary.LittleEndian.PutUint16(data[0x18:], h.Flags)
	binary.LittleEndian.PutUint16(data[0x1a:], h.BitCount)
	binary.LittleEndian.PutUint32(data[0x1c:], h.MGZones)
	return data
}

// ContentKeyCount is the number of DES keys used to encrypt content blocks.
//
// Only 1, 2 and 3 are valid, but the value is returned as is.
func (h *Header) ContentKeyCount() int {
	return int(h.Flags&FlagKeyCountMask) >> FlagKeyCountShift
}

// Check that the header describes a supported container.
func (h *Header) Check() error {
	if h.Flags&FlagUnsupported != 0 {
		return fmt.Errorf("kelf: %w: flags %s", ErrUnsupportedVariant, Hex16(h.Flags))
	}
	if h.BitCount != 0 {
		return fmt.Errorf("kelf: %w: bit count must be 0, got %d", ErrUnsupportedVariant, h.BitCount)
	}
	return nil
}
