package kelftool

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// Hex wraps a []byte so that it encodes to hexadecimal.
type Hex []byte

func (h Hex) String() string {
	return strings.ToUpper(hex.EncodeToString(h))
}

// MarshalText implements encoding.TextMarshaler, also used for JSON encoding.
func (h Hex) MarshalText() ([]byte, error) {
	return []byte(h.String()), nil
}

// Hex8 wraps an uint8 so that it encodes to hexadecimal.
type Hex8 uint8

func (h Hex8) String() string { return formatHex(uint64(h), 2) }

// MarshalText implements encoding.TextMarshaler.
func (h Hex8) MarshalText() ([]byte, error) { return []byte(h.String()), nil }

// Hex16 wraps an uint16 so that it encodes to hexadecimal.
type Hex16 uint16

func (h Hex16) String() string { return formatHex(uint64(h), 4) }

// MarshalText implements encoding.TextMarshaler.
func (h Hex16) MarshalText() ([]byte, error) { return []byte(h.String()), nil }

// Hex32 wraps an uint32 so that it encodes to hexadecimal.
type Hex32 uint32

func (h Hex32) String() string { return formatHex(uint64(h), 8) }

// MarshalText implements encoding.TextMarshaler.
func (h Hex32) MarshalText() ([]byte, error) { return []byte(h.String()), nil }

func formatHex(v uint64, digits int) string {
	return fmt.Sprintf("%0*X", digits, v)
}

// Info summarizes a container, for display purposes.
type Info struct {
	Header HeaderInfo
	Blocks []BlockInfo
}

type HeaderInfo struct {
	UserDefined     Hex
	ContentSize     uint32
	HeaderSize      uint16
	SystemType      Hex8
	ApplicationType Hex8
	Flags           Hex16
	ContentKeyCount int
	Regions         []string
}

type BlockInfo struct {
	Offset    uint32
	Size      uint32
	Encrypted bool
	Signed    bool
	Signature Hex
}

var regionNames = []string{"Japan", "USA", "Europe", "Oceania", "Asia", "Russia", "China", "Mexico"}

// Regions decodes the MagicGate zone mask. Unknown bits are reported in hexadecimal.
func (h *Header) Regions() []string {
	regions := make([]string, 0, 1)
	for i, name := range regionNames {
		if h.MGZones&(1<<i) != 0 {
			regions = append(regions, name)
		}
	}
	if unknown := h.MGZones >> len(regionNames); unknown != 0 {
		regions = append(regions, Hex32(unknown<<len(regionNames)).String())
	}
	return regions
}

// Info describes the header and blocks of the container.
func (k *Kelf) Info() *Info {
	info := &Info{
		Header: HeaderInfo{
			UserDefined:     append(Hex(nil), k.Header.UserDefined[:]...),
			ContentSize:     k.Header.ContentSize,
			HeaderSize:      k.Header.HeaderSize,
			SystemType:      Hex8(k.Header.SystemType),
			ApplicationType: Hex8(k.Header.ApplicationType),
			Flags:           Hex16(k.Header.Flags),
			ContentKeyCount: k.Header.ContentKeyCount(),
			Regions:         k.Header.Regions(),
		},
		Blocks: make([]BlockInfo, 0, len(k.BitTable.Blocks)),
	}

	var offset uint32
	for _, block := range k.BitTable.Blocks {
		info.Blocks = append(info.Blocks, BlockInfo{
			Offset:    offset,
			Size:      block.Size,
			Encrypted: block.Encrypted(),
			Signed:    block.Signed(),
			Signature: append(Hex(nil), block.Signature[:]...),
		})
		offset += block.Size
	}

	return info
}
