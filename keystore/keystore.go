// Package keystore loads the secrets needed to process KELF containers.
//
// A key store is a text file made of NAME=HEX lines, one per secret. All ten secrets must be
// present. Blank lines and lines starting with '#' are ignored.
package keystore

import (
	"bufio"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
)

var (
	// ErrOpenFailed is returned by Load when the key store file cannot be opened.
	ErrOpenFailed = errors.New("keystore: failed to open key store")
	// ErrMalformedEntry is returned when a line is not a valid NAME=HEX pair.
	ErrMalformedEntry = errors.New("keystore: malformed entry")
	// ErrIncompleteKeyStore is returned when some secrets are missing.
	ErrIncompleteKeyStore = errors.New("keystore: some keys are missing")
)

// Names of the secrets, as found in key store files.
const (
	SignatureMasterKeyName     = "MG_SIG_MASTER_KEY"
	SignatureHashKeyName       = "MG_SIG_HASH_KEY"
	KbitMasterKeyName          = "MG_KBIT_MASTER_KEY"
	KbitIVName                 = "MG_KBIT_IV"
	KcMasterKeyName            = "MG_KC_MASTER_KEY"
	KcIVName                   = "MG_KC_IV"
	RootSignatureMasterKeyName = "MG_ROOTSIG_MASTER_KEY"
	RootSignatureHashKeyName   = "MG_ROOTSIG_HASH_KEY"
	ContentTableIVName         = "MG_CONTENT_TABLE_IV"
	ContentIVName              = "MG_CONTENT_IV"
)

// KeyStore holds the ten secrets. It is immutable and can be shared between goroutines.
type KeyStore struct {
	sigMaster     [8]byte
	sigHash       [8]byte
	kbitMaster    [16]byte
	kbitIV        [8]byte
	kcMaster      [16]byte
	kcIV          [8]byte
	rootSigMaster [8]byte
	rootSigHash   [16]byte
	contentTabIV  [8]byte
	contentIV     [8]byte
}

func (ks *KeyStore) slots() map[string][]byte {
	return map[string][]byte{
		SignatureMasterKeyName:     ks.sigMaster[:],
		SignatureHashKeyName:       ks.sigHash[:],
		KbitMasterKeyName:          ks.kbitMaster[:],
		KbitIVName:                 ks.kbitIV[:],
		KcMasterKeyName:            ks.kcMaster[:],
		KcIVName:                   ks.kcIV[:],
		RootSignatureMasterKeyName: ks.rootSigMaster[:],
		RootSignatureHashKeyName:   ks.rootSigHash[:],
		ContentTableIVName:         ks.contentTabIV[:],
		ContentIVName:              ks.contentIV[:],
	}
}

// Load the key store at the given path.
func Load(filename string) (*KeyStore, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOpenFailed, err)
	}
	defer file.Close()

	return Parse(file)
}

// Parse a key store from the given Reader.
//
// Unknown names are ignored. When a name appears more than once, the last value wins.
func Parse(input io.Reader) (*KeyStore, error) {
	ks := &KeyStore{}
	slots := ks.slots()
	found := make(map[string]bool, len(slots))

	scanner := bufio.NewScanner(input)
	lineNumber := 0
	for scanner.Scan() {
		lineNumber++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		tokens := strings.Split(line, "=")
		if len(tokens) != 2 {
			return nil, fmt.Errorf("%w: line %d is not a key-value pair", ErrMalformedEntry, lineNumber)
		}
		name, value := strings.TrimSpace(tokens[0]), strings.TrimSpace(tokens[1])

		if len(value)%2 != 0 {
			return nil, fmt.Errorf("%w: line %d has an odd length hex value", ErrMalformedEntry, lineNumber)
		}
		decoded, err := hex.DecodeString(value)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrMalformedEntry, lineNumber, err)
		}

		slot, ok := slots[name]
		if !ok {
			continue
		}
		if len(decoded) != len(slot) {
			return nil, fmt.Errorf("%w: %s must have %d bytes, got %d", ErrMalformedEntry, name, len(slot), len(decoded))
		}
		copy(slot, decoded)
		found[name] = true
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("keystore: failed to read key store: %w", err)
	}

	var missing []string
	for name := range slots {
		if !found[name] {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, fmt.Errorf("%w: %s", ErrIncompleteKeyStore, strings.Join(missing, ", "))
	}

	return ks, nil
}

func (ks *KeyStore) SignatureMasterKey() []byte { k := ks.sigMaster; return k[:] }
func (ks *KeyStore) SignatureHashKey() []byte { k := ks.sigHash; return k[:] }
func (ks *KeyStore) KbitMasterKey() []byte { k := ks.kbitMaster; return k[:] }
func (ks *KeyStore) KbitIV() []byte { k := ks.kbitIV; return k[:] }
func (ks *KeyStore) KcMasterKey() []byte { k := ks.kcMaster; return k[:] }
func (ks *KeyStore) KcIV() []byte { k := ks.kcIV; return k[:] }
func (ks *KeyStore) RootSignatureMasterKey() []byte { k := ks.rootSigMaster; return k[:] }
func (ks *KeyStore) RootSignatureHashKey() []byte { k := ks.rootSigHash; return k[:] }
func (ks *KeyStore) ContentTableIV() []byte { k := ks.contentTabIV; return k[:] }
func (ks *KeyStore) ContentIV() []byte { k := ks.contentIV; return k[:] }
