package kelftool

import (
	"encoding/binary"
	"fmt"
)

// Block flags.
const (
	BlockEncrypted = 1
	BlockSigned    = 2
)

const (
	bitTableHeaderLen = 8
	bitTableEntryLen  = 16

	// MaxBlocks is the number of blocks that can be stored in a bit table.
	MaxBlocks = 0xff

	// maxBitTableLen is the largest bit table region accepted while loading.
	maxBitTableLen = bitTableHeaderLen + 256*bitTableEntryLen
)

// Block describes a content block.
type Block struct {
	Size      uint32
	Flags     uint32
	Signature [8]byte
}

// Encrypted reports whether the block content is encrypted with Kc.
func (b *Block) Encrypted() bool {
	return b.Flags&BlockEncrypted != 0
}

// Signed reports whether the block content is covered by a signature.
func (b *Block) Signed() bool {
	return b.Flags&BlockSigned != 0
}

// BitTable lists the content blocks of a container, in file order.
type BitTable struct {
	HeaderSize uint32
	Reserved   [3]byte
	Blocks     []Block
}

// bitTableLen is the encoded size of a bit table with the given number of blocks.
func bitTableLen(blockCount int) int {
	return (blockCount*2 + 1) * 8
}

// Len is the encoded size of the bit table.
func (t *BitTable) Len() int {
	return bitTableLen(len(t.Blocks))
}

// ContentLen is the sum of block sizes.
func (t *BitTable) ContentLen() int64 {
	var total int64
	for _, block := range t.Blocks {
		total += int64(block.Size)
	}
	return total
}

// Bytes encodes the bit table.
func (t *BitTable) Bytes() ([]byte, error) {
	if len(t.Blocks) > MaxBlocks {
		return nil, fmt.Errorf("kelf: %w: at most %d blocks can be stored, got %d", ErrInvalidBitTableSize, MaxBlocks, len(t.Blocks))
	}

	data := make([]byte, t.Len())
	binary.LittleEndian.PutUint32(data, t.HeaderSize)
	data[4] = uint8(len(t.Blocks))
	copy(data[5:8], t.Reserved[:])

	for i, block := range t.Blocks {
		entry := data[bitTableHeaderLen+i*bitTableEntryLen:]
		binary.LittleEndian.PutUint32(entry, block.Size)
		binary.LittleEndian.PutUint32(entry[4:], block.Flags)
		copy(entry[8:16], block.Signature[:])
	}

	return data, nil
}

// parseBitTable decodes a decrypted bit table. data may be longer than the encoded table.
func parseBitTable(data []byte) (*BitTable, error) {
	if len(data) < bitTableHeaderLen {
		return nil, fmt.Errorf("kelf: %w: %d bytes is too short", ErrInvalidBitTableSize, len(data))
	}

	blockCount := int(data[4])
	if bitTableLen(blockCount) > len(data) {
		return nil, fmt.Errorf("kelf: %w: %d blocks do not fit in %d bytes", ErrInvalidBitTableSize, blockCount, len(data))
	}

	table := &BitTable{
		HeaderSize: binary.LittleEndian.Uint32(data),
		Blocks:     make([]Block, blockCount),
	}
	copy(table.Reserved[:], data[5:8])

	for i := range table.Blocks {
		entry := data[bitTableHeaderLen+i*bitTableEntryLen:]
		table.Blocks[i].Size = binary.LittleEndian.Uint32(entry)
		table.Blocks[i].Flags = binary.LittleEndian.Uint32(entry[4:])
		copy(table.Blocks[i].Signature[:], entry[8:16])
	}

	return table, nil
}
