package kelftool

import (
	"bytes"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInfo(t *testing.T) {
	k, _ := importContent(t, pattern(0x48))

	info := k.Info()
	assert.Equal(t, Hex16(0x22c), info.Header.Flags)
	assert.Equal(t, 2, info.Header.ContentKeyCount)
	assert.Equal(t, uint32(0x48), info.Header.ContentSize)
	assert.Equal(t, uint16(0x80), info.Header.HeaderSize)
	assert.Equal(t, []string{"Japan"}, info.Header.Regions)

	require.Len(t, info.Blocks, 2)
	assert.Equal(t, BlockInfo{
		Offset:    0,
		Size:      0x20,
		Encrypted: true,
		Signed:    true,
		Signature: k.BitTable.Blocks[0].Signature[:],
	}, info.Blocks[0])
	assert.Equal(t, uint32(0x20), info.Blocks[1].Offset)
	assert.Equal(t, uint32(0x28), info.Blocks[1].Size)
}

func TestInfoJSON(t *testing.T) {
	header := DefaultHeader()
	k := &Kelf{Header: header, BitTable: BitTable{Blocks: []Block{{Size: 8, Flags: BlockSigned, Signature: [8]byte{0xab}}}}}

	var out bytes.Buffer
	require.NoError(t, json.NewEncoder(&out).Encode(k.Info()))

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(out.Bytes(), &decoded))

	headerInfo := decoded["Header"].(map[string]interface{})
	assert.Equal(t, "010300040002004A0007010000000178", headerInfo["UserDefined"])
	assert.Equal(t, "01", headerInfo["SystemType"])
	assert.Equal(t, "022C", headerInfo["Flags"])

	blocks := decoded["Blocks"].([]interface{})
	require.Len(t, blocks, 1)
	assert.Equal(t, "AB00000000000000", blocks[0].(map[string]interface{})["Signature"])
}

func TestHexFormatting(t *testing.T) {
	assert.Equal(t, "0A", Hex8(10).String())
	assert.Equal(t, "00FF", Hex16(0xff).String())
	assert.Equal(t, "DEADBEEF", Hex32(0xdeadbeef).String())
	assert.Equal(t, "CAFE", Hex([]byte{0xca, 0xfe}).String())
}
