package kelftool

import (
	"fmt"

	"github.com/connesc/kelftool/kelfutil"
)

// KeyProvider gives access to the secrets needed to process KELF containers.
//
// Implementations must be safe for concurrent use and must not let callers modify their
// secrets through the returned slices.
type KeyProvider interface {
	SignatureMasterKey() []byte     // 8 bytes
	SignatureHashKey() []byte       // 8 bytes
	KbitMasterKey() []byte          // 16 bytes
	KbitIV() []byte                 // 8 bytes
	KcMasterKey() []byte            // 16 bytes
	KcIV() []byte                   // 8 bytes
	RootSignatureMasterKey() []byte // 8 bytes
	RootSignatureHashKey() []byte   // 16 bytes
	ContentTableIV() []byte         // 8 bytes
	ContentIV() []byte              // 8 bytes
}

var nullIV = make([]byte, 8)

type cryptFunc func(src []byte, keyCount int, keys, iv []byte) ([]byte, error)

// DeriveKEK computes the key encryption key protecting Kbit and Kc for the given header.
func DeriveKEK(keys KeyProvider, header *Header) ([]byte, error) {
	raw := header.Bytes()
	digest := make([]byte, 8)
	kelfutil.XOR(digest, raw[:8], raw[8:16])

	half := make([]byte, 8)
	kelfutil.XOR(half, keys.KbitIV(), digest)
	kbitHalf, err := kelfutil.Encrypt(half, 2, keys.KbitMasterKey(), nullIV)
	if err != nil {
		return nil, fmt.Errorf("kelf: failed to derive KEK: %w", err)
	}

	kelfutil.XOR(half, keys.KcIV(), digest)
	kcHalf, err := kelfutil.Encrypt(half, 2, keys.KcMasterKey(), nullIV)
	if err != nil {
		return nil, fmt.Errorf("kelf: failed to derive KEK: %w", err)
	}

	return append(kbitHalf, kcHalf...), nil
}

// WrapKey encrypts a working key (Kbit or Kc) with the KEK, one 8-byte half at a time.
func WrapKey(key, kek []byte) ([]byte, error) {
	return wrapUnits(key, kek, kelfutil.Encrypt)
}

// UnwrapKey is the inverse of WrapKey.
func UnwrapKey(wrapped, kek []byte) ([]byte, error) {
	return wrapUnits(wrapped, kek, kelfutil.Decrypt)
}

func wrapUnits(src, kek []byte, crypt cryptFunc) ([]byte, error) {
	if len(src)%kelfutil.UnitSize != 0 {
		return nil, fmt.Errorf("kelf: working key length must be a multiple of %d, got %d", kelfutil.UnitSize, len(src))
	}

	dst := make([]byte, 0, len(src))
	for offset := 0; offset < len(src); offset += kelfutil.UnitSize {
		unit, err := crypt(src[offset:offset+kelfutil.UnitSize], 2, kek, nullIV)
		if err != nil {
			return nil, err
		}
		dst = append(dst, unit...)
	}
	return dst, nil
}
