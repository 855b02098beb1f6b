package kelftool

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeaderSignature(t *testing.T) {
	keys := testKeys(t)
	header := DefaultHeader()
	header.ContentSize = 0x1000
	header.HeaderSize = 0x80

	signature, err := signer{keys: keys}.headerSignature(&header)
	require.NoError(t, err)

	tag := cbcMACTail(t, keys.SignatureMasterKey(), header.Bytes())
	tag = desBlock(t, keys.SignatureHashKey(), tag, true)
	tag = desBlock(t, keys.SignatureMasterKey(), tag, false)
	assert.Equal(t, tag, signature)

	header.MGZones = 2
	other, err := signer{keys: keys}.headerSignature(&header)
	require.NoError(t, err)
	assert.NotEqual(t, signature, other)
}

func TestBitTableSignature(t *testing.T) {
	keys := testKeys(t)
	s := signer{keys: keys}
	signatureKey := append(keys.SignatureMasterKey(), keys.SignatureHashKey()...)

	table := bytes.Repeat([]byte{0x5a}, 24)
	table[20] = 0x01

	kbit := bytes.Repeat([]byte{0xaa}, 16)
	kc := append(bytes.Repeat([]byte{0x0f}, 8), bytes.Repeat([]byte{0xf0}, 8)...)

	// Equal Kbit halves are folded once, distinct Kc halves are both folded.
	digest := make([]byte, 8)
	for i := range digest {
		digest[i] = 0xaa ^ 0x0f ^ 0xf0 ^ table[i] ^ table[8+i] ^ table[16+i]
	}
	expected := desBlock(t, signatureKey, digest, false)

	signature, err := s.bitTableSignature(kbit, kc, table)
	require.NoError(t, err)
	assert.Equal(t, expected, signature)

	kbit[15] ^= 0x01
	changed, err := s.bitTableSignature(kbit, kc, table)
	require.NoError(t, err)
	assert.NotEqual(t, signature, changed)
}

func TestRootSignature(t *testing.T) {
	keys := testKeys(t)
	s := signer{keys: keys}

	headerSignature := bytes.Repeat([]byte{0x11}, 8)
	bitTableSignature := bytes.Repeat([]byte{0x22}, 8)
	blocks := []Block{
		{Size: 8, Flags: BlockSigned | BlockEncrypted, Signature: [8]byte{1, 2, 3, 4, 5, 6, 7, 8}},
		{Size: 8, Flags: BlockEncrypted, Signature: [8]byte{9, 9, 9, 9, 9, 9, 9, 9}},
	}

	signature, err := s.rootSignature(headerSignature, bitTableSignature, blocks)
	require.NoError(t, err)

	concatenated := append(append(append([]byte{}, headerSignature...), bitTableSignature...), blocks[0].Signature[:]...)
	tail := cbcMACTail(t, keys.RootSignatureMasterKey(), concatenated)
	assert.Equal(t, desBlock(t, keys.RootSignatureHashKey(), tail, true), signature)

	blocks[1].Signature[0] = 0
	unchanged, err := s.rootSignature(headerSignature, bitTableSignature, blocks)
	require.NoError(t, err)
	assert.Equal(t, signature, unchanged, "unsigned blocks are not covered")

	blocks[0].Signature[0] = 0
	changed, err := s.rootSignature(headerSignature, bitTableSignature, blocks)
	require.NoError(t, err)
	assert.NotEqual(t, signature, changed)
}

func TestBlockSignature(t *testing.T) {
	keys := testKeys(t)
	s := signer{keys: keys}
	data := pattern(24)

	encrypted := &Block{Size: 24, Flags: BlockEncrypted | BlockSigned}
	signature, err := s.blockSignature(encrypted, data)
	require.NoError(t, err)

	digest := make([]byte, 8)
	for i := range digest {
		digest[i] = data[i] ^ data[8+i] ^ data[16+i]
	}
	signatureKey := append(keys.SignatureMasterKey(), keys.SignatureHashKey()...)
	assert.Equal(t, desBlock(t, signatureKey, digest, false), signature)

	plain := &Block{Size: 24, Flags: BlockSigned}
	signature, err = s.blockSignature(plain, data)
	require.NoError(t, err)
	expected, err := s.mac(data)
	require.NoError(t, err)
	assert.Equal(t, expected, signature)

	_, err = s.blockSignature(encrypted, data[:20])
	assert.Error(t, err)
	_, err = s.blockSignature(plain, data[:4])
	assert.Error(t, err)
}
