package kelfutil

import (
	"bytes"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var zeroIV = make([]byte, 8)

func mustHex(t *testing.T, s string) []byte {
	t.Helper()
	b, err := hex.DecodeString(s)
	require.NoError(t, err)
	return b
}

func TestEncryptSingleDESVector(t *testing.T) {
	key := mustHex(t, "133457799BBCDFF1")
	plaintext := mustHex(t, "0123456789ABCDEF")

	ciphertext, err := Encrypt(plaintext, 1, key, zeroIV)
	require.NoError(t, err)
	assert.Equal(t, mustHex(t, "85E813540F0AB405"), ciphertext)

	decrypted, err := Decrypt(ciphertext, 1, key, zeroIV)
	require.NoError(t, err)
	assert.Equal(t, plaintext, decrypted)
}

func TestEncryptInvalidKeyCount(t *testing.T) {
	keys := bytes.Repeat([]byte{0x11}, 32)
	src := make([]byte, 16)

	for _, count := range []int{-1, 0, 4} {
		_, err := Encrypt(src, count, keys, zeroIV)
		assert.ErrorIs(t, err, ErrInvalidKeyCount, "count %d", count)

		_, err = Decrypt(src, count, keys, zeroIV)
		assert.ErrorIs(t, err, ErrInvalidKeyCount, "count %d", count)
	}
}

func TestEncryptKeyCountsDiffer(t *testing.T) {
	keys := mustHex(t, "0123456789ABCDEFFEDCBA987654321089ABCDEF01234567")
	iv := mustHex(t, "1122334455667788")
	src := []byte("sixteen byte msg")

	results := make([][]byte, 0, 3)
	for count := 1; count <= 3; count++ {
		ciphertext, err := Encrypt(src, count, keys, iv)
		require.NoError(t, err)
		require.Len(t, ciphertext, len(src))

		decrypted, err := Decrypt(ciphertext, count, keys, iv)
		require.NoError(t, err)
		assert.Equal(t, src, decrypted)

		results = append(results, ciphertext)
	}

	assert.NotEqual(t, results[0], results[1])
	assert.NotEqual(t, results[0], results[2])
	assert.NotEqual(t, results[1], results[2])
}

func TestEncryptTwoKeyEDEWithEqualHalves(t *testing.T) {
	key := mustHex(t, "133457799BBCDFF1")
	src := mustHex(t, "0123456789ABCDEF0123456789ABCDEF")

	single, err := Encrypt(src, 1, key, zeroIV)
	require.NoError(t, err)

	double, err := Encrypt(src, 2, append(append([]byte{}, key...), key...), zeroIV)
	require.NoError(t, err)

	assert.Equal(t, single, double)
}

func TestEncryptChainsBlocks(t *testing.T) {
	key := mustHex(t, "133457799BBCDFF1")
	src := bytes.Repeat(mustHex(t, "0123456789ABCDEF"), 2)

	ciphertext, err := Encrypt(src, 1, key, zeroIV)
	require.NoError(t, err)
	assert.NotEqual(t, ciphertext[:8], ciphertext[8:])
}

func TestEncryptDoesNotModifyInput(t *testing.T) {
	keys := bytes.Repeat([]byte{0x42}, 16)
	src := bytes.Repeat([]byte{0x01}, 24)
	orig := append([]byte{}, src...)

	_, err := Encrypt(src, 2, keys, zeroIV)
	require.NoError(t, err)
	assert.Equal(t, orig, src)
}

func TestEncryptRejectsBadInput(t *testing.T) {
	keys := bytes.Repeat([]byte{0x42}, 16)

	_, err := Encrypt(make([]byte, 12), 2, keys, zeroIV)
	assert.Error(t, err, "unaligned input")

	_, err = Encrypt(make([]byte, 16), 3, keys, zeroIV)
	assert.Error(t, err, "short key material")

	_, err = Encrypt(make([]byte, 16), 1, keys, make([]byte, 4))
	assert.Error(t, err, "short IV")
}
