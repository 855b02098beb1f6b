package kelftool

import (
	"bytes"
	"fmt"

	"github.com/connesc/kelftool/kelfutil"
)

// signer computes the signatures of a container.
type signer struct {
	keys KeyProvider
}

func (s signer) masterAndHashKey() []byte {
	return append(s.keys.SignatureMasterKey(), s.keys.SignatureHashKey()...)
}

// mac is a CBC-MAC over data with the signature master key, re-keyed through the hash key.
func (s signer) mac(data []byte) ([]byte, error) {
	if len(data) < kelfutil.UnitSize {
		return nil, fmt.Errorf("cannot sign %d bytes", len(data))
	}

	masterKey := s.keys.SignatureMasterKey()
	encrypted, err := kelfutil.Encrypt(data, 1, masterKey, nullIV)
	if err != nil {
		return nil, err
	}

	tag, err := kelfutil.Decrypt(encrypted[len(encrypted)-8:], 1, s.keys.SignatureHashKey(), nullIV)
	if err != nil {
		return nil, err
	}
	return kelfutil.Encrypt(tag, 1, masterKey, nullIV)
}

func (s signer) headerSignature(header *Header) ([]byte, error) {
	return s.mac(header.Bytes())
}

// bitTableSignature folds both working keys and the plaintext bit table, then encrypts the digest.
func (s signer) bitTableSignature(kbit, kc, table []byte) ([]byte, error) {
	digest := make([]byte, 8)
	copy(digest, kbit[:8])
	if !bytes.Equal(kbit[:8], kbit[8:16]) {
		kelfutil.XOR(digest, digest, kbit[8:16])
	}

	kelfutil.XOR(digest, digest, kc[:8])
	if !bytes.Equal(kc[:8], kc[8:16]) {
		kelfutil.XOR(digest, digest, kc[8:16])
	}

	kelfutil.Fold(digest, table)

	return kelfutil.Encrypt(digest, 2, s.masterAndHashKey(), nullIV)
}

// rootSignature binds the header, the bit table and the signed blocks together.
func (s signer) rootSignature(headerSignature, bitTableSignature []byte, blocks []Block) ([]byte, error) {
	signatures := make([]byte, 0, 16+len(blocks)*8)
	signatures = append(signatures, headerSignature...)
	signatures = append(signatures, bitTableSignature...)
	for _, block := range blocks {
		if block.Signed() {
			signatures = append(signatures, block.Signature[:]...)
		}
	}

	encrypted, err := kelfutil.Encrypt(signatures, 1, s.keys.RootSignatureMasterKey(), nullIV)
	if err != nil {
		return nil, err
	}
	return kelfutil.Decrypt(encrypted[len(encrypted)-8:], 2, s.keys.RootSignatureHashKey(), nullIV)
}

// blockSignature signs the plaintext of a block.
//
// Encrypted blocks are folded before being encrypted with the signature keys, while other blocks
// go through the same MAC as the header.
func (s signer) blockSignature(block *Block, plaintext []byte) ([]byte, error) {
	if !block.Encrypted() {
		return s.mac(plaintext)
	}

	if len(plaintext)%kelfutil.UnitSize != 0 {
		return nil, fmt.Errorf("encrypted block size must be a multiple of %d, got %d", kelfutil.UnitSize, len(plaintext))
	}
	digest := make([]byte, 8)
	kelfutil.Fold(digest, plaintext)

	return kelfutil.Encrypt(digest, 2, s.masterAndHashKey(), nullIV)
}
