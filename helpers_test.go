package kelftool

import (
	"bytes"
	"crypto/cipher"
	"crypto/des"
	"strings"
	"testing"

	"github.com/connesc/kelftool/keystore"
	"github.com/stretchr/testify/require"
)

const testKeyStore = `MG_SIG_MASTER_KEY=0102030405060708
MG_SIG_HASH_KEY=1112131415161718
MG_KBIT_MASTER_KEY=2122232425262728292A2B2C2D2E2F20
MG_KBIT_IV=3132333435363738
MG_KC_MASTER_KEY=4142434445464748494A4B4C4D4E4F40
MG_KC_IV=5152535455565758
MG_ROOTSIG_MASTER_KEY=6162636465666768
MG_ROOTSIG_HASH_KEY=7172737475767778797A7B7C7D7E7F70
MG_CONTENT_TABLE_IV=8182838485868788
MG_CONTENT_IV=9192939495969798
`

func testKeys(t *testing.T) *keystore.KeyStore {
	t.Helper()
	ks, err := keystore.Parse(strings.NewReader(testKeyStore))
	require.NoError(t, err)
	return ks
}

// testRand yields the working keys C0C1..CF (Kbit) then D0D1..DF (Kc).
func testRand() *bytes.Reader {
	random := make([]byte, 32)
	for i := range random {
		random[i] = 0xc0 + byte(i)
	}
	return bytes.NewReader(random)
}

func newTestKelf(t *testing.T) *Kelf {
	t.Helper()
	return New(testKeys(t), WithRand(testRand()))
}

// importContent builds a container from content and returns it encoded.
func importContent(t *testing.T, content []byte) (*Kelf, []byte) {
	t.Helper()
	k := newTestKelf(t)
	require.NoError(t, k.LoadContent(bytes.NewReader(content)))

	var out bytes.Buffer
	require.NoError(t, k.SaveKelf(&out))
	return k, out.Bytes()
}

func pattern(n int) []byte {
	data := make([]byte, n)
	for i := range data {
		data[i] = byte(i*7 + 3)
	}
	return data
}

// desBlock runs a single 8-byte block through DES (one 8-byte key) or 2-key EDE (16-byte key).
func desBlock(t *testing.T, key, src []byte, decrypt bool) []byte {
	t.Helper()

	var block cipher.Block
	var err error
	switch len(key) {
	case 8:
		block, err = des.NewCipher(key)
	case 16:
		block, err = des.NewTripleDESCipher(append(append([]byte{}, key...), key[:8]...))
	default:
		t.Fatalf("unexpected key length %d", len(key))
	}
	require.NoError(t, err)

	dst := make([]byte, 8)
	if decrypt {
		block.Decrypt(dst, src)
	} else {
		block.Encrypt(dst, src)
	}
	return dst
}

// cbcMACTail returns the last block of the single-DES CBC encryption of data with a zero IV.
func cbcMACTail(t *testing.T, key, data []byte) []byte {
	t.Helper()
	state := make([]byte, 8)
	for offset := 0; offset < len(data); offset += 8 {
		for i := range state {
			state[i] ^= data[offset+i]
		}
		state = desBlock(t, key, state, false)
	}
	return state
}
