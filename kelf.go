package kelftool

import (
	"bytes"
	"crypto/rand"
	"fmt"
	"io"
	"log/slog"

	"github.com/connesc/kelftool/kelfutil"
)

// importedBlockLen is the size of the encrypted and signed block built by LoadContent.
const importedBlockLen = 0x20

// Kelf holds a container in memory, in plaintext form.
//
// A Kelf must not be used concurrently, but several of them can share the same KeyProvider.
type Kelf struct {
	Header   Header
	BitTable BitTable
	Kbit     []byte // unwrapped, 16 bytes
	Kc       []byte // unwrapped, 16 bytes
	Content  []byte // decrypted

	keys   KeyProvider
	signer signer
	logger *slog.Logger
	rand   io.Reader
}

// Option configures a Kelf.
type Option func(*Kelf)

// WithLogger sets the logger receiving debug traces. Nothing is logged by default.
func WithLogger(logger *slog.Logger) Option {
	return func(k *Kelf) {
		k.logger = logger
	}
}

// WithRand sets the source used to generate working keys in LoadContent. Defaults to crypto/rand.
func WithRand(random io.Reader) Option {
	return func(k *Kelf) {
		k.rand = random
	}
}

// New returns an empty Kelf bound to the given keys.
func New(keys KeyProvider, opts ...Option) *Kelf {
	k := &Kelf{
		keys:   keys,
		signer: signer{keys: keys},
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		rand:   rand.Reader,
	}
	for _, opt := range opts {
		opt(k)
	}
	return k
}

// LoadKelf reads a container and verifies all of its signatures.
//
// The Kelf is only modified if the whole container is valid.
func (k *Kelf) LoadKelf(input io.Reader) error {
	reader := kelfutil.NewReader(input)

	rawHeader, err := reader.Next(HeaderLen)
	if err != nil {
		return fmt.Errorf("kelf: failed to read header: %w", err)
	}
	header, err := ParseHeader(rawHeader)
	if err != nil {
		return err
	}
	if err = header.Check(); err != nil {
		return err
	}

	headerSignature, err := reader.Next(signatureLen)
	if err != nil {
		return fmt.Errorf("kelf: failed to read header signature: %w", err)
	}
	expected, err := k.signer.headerSignature(header)
	if err != nil {
		return fmt.Errorf("kelf: failed to compute header signature: %w", err)
	}
	if !bytes.Equal(headerSignature, expected) {
		return fmt.Errorf("kelf: %w", ErrInvalidHeaderSignature)
	}
	k.logger.Debug("header verified", "flags", Hex16(header.Flags), "headerSize", header.HeaderSize)

	kek, err := DeriveKEK(k.keys, header)
	if err != nil {
		return err
	}
	wrappedKeys, err := reader.Next(2 * workingKeyLen)
	if err != nil {
		return fmt.Errorf("kelf: failed to read working keys: %w", err)
	}
	kbit, err := UnwrapKey(wrappedKeys[:workingKeyLen], kek)
	if err != nil {
		return fmt.Errorf("kelf: failed to unwrap Kbit: %w", err)
	}
	kc, err := UnwrapKey(wrappedKeys[workingKeyLen:], kek)
	if err != nil {
		return fmt.Errorf("kelf: failed to unwrap Kc: %w", err)
	}

	bitTableSize := int64(header.HeaderSize) - reader.Offset() - epilogueLen
	if bitTableSize > maxBitTableLen || bitTableSize < bitTableHeaderLen || bitTableSize%kelfutil.UnitSize != 0 {
		return fmt.Errorf("kelf: %w: header size %d leaves %d bytes", ErrInvalidBitTableSize, header.HeaderSize, bitTableSize)
	}

	bitTableReader, err := newDecryptingReader(reader, uint32(bitTableSize), 2, kbit, k.keys.ContentTableIV())
	if err != nil {
		return fmt.Errorf("kelf: failed to initialize bit table decryption: %w", err)
	}
	rawBitTable := make([]byte, bitTableSize)
	if _, err = io.ReadFull(bitTableReader, rawBitTable); err != nil {
		return fmt.Errorf("kelf: failed to read bit table: %w", err)
	}
	// A block count that overflows the region comes from a corrupted table or a wrong Kbit.
	if blockCount := int(rawBitTable[4]); bitTableLen(blockCount) > len(rawBitTable) {
		return fmt.Errorf("kelf: %w: %d blocks do not fit in %d bytes", ErrInvalidBitTableSignature, blockCount, len(rawBitTable))
	}
	bitTable, err := parseBitTable(rawBitTable)
	if err != nil {
		return err
	}

	bitTableSignature, err := reader.Next(signatureLen)
	if err != nil {
		return fmt.Errorf("kelf: failed to read bit table signature: %w", err)
	}
	expected, err = k.signer.bitTableSignature(kbit, kc, rawBitTable[:bitTable.Len()])
	if err != nil {
		return fmt.Errorf("kelf: failed to compute bit table signature: %w", err)
	}
	if !bytes.Equal(bitTableSignature, expected) {
		return fmt.Errorf("kelf: %w", ErrInvalidBitTableSignature)
	}
	k.logger.Debug("bit table verified", "blocks", len(bitTable.Blocks))

	rootSignature, err := reader.Next(signatureLen)
	if err != nil {
		return fmt.Errorf("kelf: failed to read root signature: %w", err)
	}
	expected, err = k.signer.rootSignature(headerSignature, bitTableSignature, bitTable.Blocks)
	if err != nil {
		return fmt.Errorf("kelf: failed to compute root signature: %w", err)
	}
	if !bytes.Equal(rootSignature, expected) {
		return fmt.Errorf("kelf: %w", ErrInvalidRootSignature)
	}
	k.logger.Debug("root signature verified")

	content, err := readBlocks(reader, bitTable.Blocks, header.ContentKeyCount(), kc, k.keys.ContentIV())
	if err != nil {
		return err
	}
	k.logger.Debug("content decrypted", "size", len(content), "keyCount", header.ContentKeyCount())

	if err = k.verifyBlocks(bitTable.Blocks, content); err != nil {
		return err
	}
	k.logger.Debug("content verified")

	k.Header = *header
	k.BitTable = *bitTable
	k.Kbit = kbit
	k.Kc = kc
	k.Content = content
	return nil
}

func (k *Kelf) verifyBlocks(blocks []Block, content []byte) error {
	offset := 0
	for i := range blocks {
		block := &blocks[i]
		data := content[offset : offset+int(block.Size)]
		offset += int(block.Size)

		if !block.Signed() {
			continue
		}

		signature, err := k.signer.blockSignature(block, data)
		if err != nil {
			return fmt.Errorf("kelf: failed to compute signature of block %d: %w", i, err)
		}
		if !bytes.Equal(signature, block.Signature[:]) {
			return fmt.Errorf("kelf: block %d: %w", i, ErrInvalidContentSignature)
		}
	}
	return nil
}

// SaveKelf signs and encrypts the container, then writes it.
//
// Sizes and signatures are recomputed from the plaintext content. The rest of the header is
// written as it is: a container read by LoadKelf keeps its own header, while LoadContent sets the
// default one. The output is written with a single call to Write. If it fails, the output must be
// discarded.
func (k *Kelf) SaveKelf(output io.Writer) error {
	if len(k.Kbit) != workingKeyLen || len(k.Kc) != workingKeyLen {
		return fmt.Errorf("kelf: working keys must have length %d", workingKeyLen)
	}

	header := k.Header
	bitTable := k.BitTable
	bitTable.Blocks = append([]Block(nil), k.BitTable.Blocks...)
	if err := fixSizes(&header, &bitTable, len(k.Content)); err != nil {
		return err
	}
	if err := header.Check(); err != nil {
		return err
	}
	if bitTable.ContentLen() != int64(len(k.Content)) {
		return fmt.Errorf("kelf: blocks cover %d bytes, but content has %d bytes", bitTable.ContentLen(), len(k.Content))
	}

	if err := k.signBlocks(bitTable.Blocks, k.Content); err != nil {
		return err
	}
	rawBitTable, err := bitTable.Bytes()
	if err != nil {
		return err
	}

	headerSignature, err := k.signer.headerSignature(&header)
	if err != nil {
		return fmt.Errorf("kelf: failed to compute header signature: %w", err)
	}
	bitTableSignature, err := k.signer.bitTableSignature(k.Kbit, k.Kc, rawBitTable)
	if err != nil {
		return fmt.Errorf("kelf: failed to compute bit table signature: %w", err)
	}
	rootSignature, err := k.signer.rootSignature(headerSignature, bitTableSignature, bitTable.Blocks)
	if err != nil {
		return fmt.Errorf("kelf: failed to compute root signature: %w", err)
	}

	kek, err := DeriveKEK(k.keys, &header)
	if err != nil {
		return err
	}
	wrappedKbit, err := WrapKey(k.Kbit, kek)
	if err != nil {
		return fmt.Errorf("kelf: failed to wrap Kbit: %w", err)
	}
	wrappedKc, err := WrapKey(k.Kc, kek)
	if err != nil {
		return fmt.Errorf("kelf: failed to wrap Kc: %w", err)
	}

	var buf bytes.Buffer
	buf.Grow(int(header.HeaderSize) + len(k.Content))
	buf.Write(header.Bytes())
	buf.Write(headerSignature)
	buf.Write(wrappedKbit)
	buf.Write(wrappedKc)
	if err = writeEncrypted(&buf, rawBitTable, 2, k.Kbit, k.keys.ContentTableIV()); err != nil {
		return fmt.Errorf("kelf: failed to encrypt bit table: %w", err)
	}
	buf.Write(bitTableSignature)
	buf.Write(rootSignature)
	if err = writeBlocks(&buf, k.Content, bitTable.Blocks, header.ContentKeyCount(), k.Kc, k.keys.ContentIV()); err != nil {
		return err
	}
	k.logger.Debug("container built", "size", buf.Len(), "blocks", len(bitTable.Blocks))

	if _, err = output.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("kelf: failed to write container: %w", err)
	}

	k.Header = header
	k.BitTable = bitTable
	return nil
}

func (k *Kelf) signBlocks(blocks []Block, content []byte) error {
	offset := 0
	for i := range blocks {
		block := &blocks[i]
		data := content[offset : offset+int(block.Size)]
		offset += int(block.Size)

		if !block.Signed() {
			continue
		}

		signature, err := k.signer.blockSignature(block, data)
		if err != nil {
			return fmt.Errorf("kelf: failed to sign block %d: %w", i, err)
		}
		copy(block.Signature[:], signature)
	}
	return nil
}

// fixSizes updates the size fields of header and bitTable to match their content.
func fixSizes(header *Header, bitTable *BitTable, contentLen int) error {
	if len(bitTable.Blocks) > MaxBlocks {
		return fmt.Errorf("kelf: %w: at most %d blocks can be stored, got %d", ErrInvalidBitTableSize, MaxBlocks, len(bitTable.Blocks))
	}
	if uint64(contentLen) > 0xffffffff {
		return fmt.Errorf("kelf: content is too large: %d bytes", contentLen)
	}

	headerSize := prologueLen + bitTable.Len() + epilogueLen
	header.HeaderSize = uint16(headerSize)
	header.ContentSize = uint32(contentLen)
	bitTable.HeaderSize = uint32(headerSize)
	return nil
}

// LoadContent builds a new container from raw content.
//
// The first 0x20 bytes are encrypted and signed, the rest is stored as is. Working keys are
// generated from the random source of the Kelf and the header is DefaultHeader.
func (k *Kelf) LoadContent(input io.Reader) error {
	content, err := io.ReadAll(input)
	if err != nil {
		return fmt.Errorf("kelf: failed to read content: %w", err)
	}
	if len(content) < importedBlockLen {
		return fmt.Errorf("kelf: content must have at least %d bytes, got %d", importedBlockLen, len(content))
	}

	workingKeys := make([]byte, 2*workingKeyLen)
	if _, err = io.ReadFull(k.rand, workingKeys); err != nil {
		return fmt.Errorf("kelf: failed to generate working keys: %w", err)
	}

	header := DefaultHeader()
	bitTable := BitTable{
		Blocks: []Block{
			{Size: importedBlockLen, Flags: BlockEncrypted | BlockSigned},
			{Size: uint32(len(content) - importedBlockLen), Flags: 0},
		},
	}
	if err = fixSizes(&header, &bitTable, len(content)); err != nil {
		return err
	}
	if err = k.signBlocks(bitTable.Blocks, content); err != nil {
		return err
	}

	k.Header = header
	k.BitTable = bitTable
	k.Kbit = workingKeys[:workingKeyLen]
	k.Kc = workingKeys[workingKeyLen:]
	k.Content = content
	k.logger.Debug("content imported", "size", len(content))
	return nil
}

// SaveContent writes the decrypted content.
func (k *Kelf) SaveContent(output io.Writer) error {
	if _, err := output.Write(k.Content); err != nil {
		return fmt.Errorf("kelf: failed to write content: %w", err)
	}
	return nil
}
