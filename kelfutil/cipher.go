package kelfutil

import (
	"crypto/cipher"
	"crypto/des"
	"errors"
	"fmt"
)

// ErrInvalidKeyCount is returned when a DES key count is not 1, 2 or 3.
var ErrInvalidKeyCount = errors.New("invalid DES key count")

// NewBlock returns a DES cipher keyed with keyCount 8-byte keys taken from the beginning of keys.
//
// A count of 1 gives single DES, 2 gives two-key EDE (k1, k2, k1) and 3 gives three-key EDE.
func NewBlock(keyCount int, keys []byte) (cipher.Block, error) {
	if keyCount < 1 || keyCount > 3 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidKeyCount, keyCount)
	}
	if len(keys) < keyCount*des.BlockSize {
		return nil, fmt.Errorf("%d DES keys need %d bytes of key material, got %d", keyCount, keyCount*des.BlockSize, len(keys))
	}

	switch keyCount {
	case 1:
		return des.NewCipher(keys[:8])
	case 2:
		ede := make([]byte, 24)
		copy(ede, keys[:16])
		copy(ede[16:], keys[:8])
		return des.NewTripleDESCipher(ede)
	default:
		return des.NewTripleDESCipher(keys[:24])
	}
}

// NewBlockMode returns a CBC encrypter (or decrypter) for the given keys and IV.
func NewBlockMode(keyCount int, keys, iv []byte, encrypt bool) (cipher.BlockMode, error) {
	block, err := NewBlock(keyCount, keys)
	if err != nil {
		return nil, err
	}
	if len(iv) != des.BlockSize {
		return nil, fmt.Errorf("IV must have length %d, got %d", des.BlockSize, len(iv))
	}

	if encrypt {
		return cipher.NewCBCEncrypter(block, iv), nil
	}
	return cipher.NewCBCDecrypter(block, iv), nil
}

// Encrypt src in CBC mode and return the ciphertext. src is left untouched.
//
// The length of src must be a multiple of the DES block size.
func Encrypt(src []byte, keyCount int, keys, iv []byte) ([]byte, error) {
	return crypt(src, keyCount, keys, iv, true)
}

// Decrypt is the inverse of Encrypt.
func Decrypt(src []byte, keyCount int, keys, iv []byte) ([]byte, error) {
	return crypt(src, keyCount, keys, iv, false)
}

func crypt(src []byte, keyCount int, keys, iv []byte, encrypt bool) ([]byte, error) {
	mode, err := NewBlockMode(keyCount, keys, iv, encrypt)
	if err != nil {
		return nil, err
	}
	if len(src)%des.BlockSize != 0 {
		return nil, fmt.Errorf("input length must be a multiple of %d, got %d", des.BlockSize, len(src))
	}

	dst := make([]byte, len(src))
	mode.CryptBlocks(dst, src)
	return dst, nil
}
