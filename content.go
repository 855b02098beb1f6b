package kelftool

import (
	"fmt"
	"io"

	"github.com/connesc/cipherio"
	"github.com/connesc/kelftool/kelfutil"
)

// contentKey returns Kc as DES key material for any key count.
//
// Kc only carries two keys: the third one used by 3-key content encryption is all zeroes.
func contentKey(kc []byte) []byte {
	key := make([]byte, 24)
	copy(key, kc)
	return key
}

// newDecryptingReader wraps src to decrypt exactly size bytes in CBC mode.
func newDecryptingReader(src io.Reader, size uint32, keyCount int, keys, iv []byte) (io.Reader, error) {
	if size%kelfutil.UnitSize != 0 {
		return nil, fmt.Errorf("encrypted size must be a multiple of %d, got %d", kelfutil.UnitSize, size)
	}

	mode, err := kelfutil.NewBlockMode(keyCount, keys, iv, false)
	if err != nil {
		return nil, err
	}
	return cipherio.NewBlockReader(io.LimitReader(src, int64(size)), mode), nil
}

// writeEncrypted encrypts data in CBC mode into dst.
func writeEncrypted(dst io.Writer, data []byte, keyCount int, keys, iv []byte) error {
	if len(data)%kelfutil.UnitSize != 0 {
		return fmt.Errorf("encrypted size must be a multiple of %d, got %d", kelfutil.UnitSize, len(data))
	}

	mode, err := kelfutil.NewBlockMode(keyCount, keys, iv, true)
	if err != nil {
		return err
	}

	writer := cipherio.NewBlockWriter(dst, mode)
	if _, err := writer.Write(data); err != nil {
		return err
	}
	return writer.Close()
}

// readBlocks reads the content described by blocks, decrypting encrypted blocks on the fly.
func readBlocks(src io.Reader, blocks []Block, keyCount int, kc, iv []byte) ([]byte, error) {
	var content []byte

	for i, block := range blocks {
		var data io.Reader = io.LimitReader(src, int64(block.Size))
		if block.Encrypted() {
			var err error
			data, err = newDecryptingReader(src, block.Size, keyCount, contentKey(kc), iv)
			if err != nil {
				return nil, fmt.Errorf("kelf: block %d: %w", i, err)
			}
		}

		buf, err := io.ReadAll(data)
		if err != nil {
			return nil, fmt.Errorf("kelf: failed to read block %d: %w", i, err)
		}
		if len(buf) != int(block.Size) {
			return nil, fmt.Errorf("kelf: failed to read block %d: %w", i, io.ErrUnexpectedEOF)
		}
		content = append(content, buf...)
	}

	return content, nil
}

// writeBlocks writes content, encrypting the blocks flagged as such.
func writeBlocks(dst io.Writer, content []byte, blocks []Block, keyCount int, kc, iv []byte) error {
	offset := 0
	for i, block := range blocks {
		data := content[offset : offset+int(block.Size)]
		offset += int(block.Size)

		if !block.Encrypted() {
			if _, err := dst.Write(data); err != nil {
				return err
			}
			continue
		}

		if err := writeEncrypted(dst, data, keyCount, contentKey(kc), iv); err != nil {
			return fmt.Errorf("kelf: block %d: %w", i, err)
		}
	}
	return nil
}
