package sink

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/jjepson/can-parser"
	"github.com/jjepson/can-parser/annex"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testBatch(t *testing.T) canparser.Batch {
	t.Helper()

	var payload [canparser.MaxPayloadLen]byte
	copy(payload[:], []byte{0xFF, 0x7D, 0x83, 0x7D, 0x82, 0x10, 0xFF, 0xFF})

	id, err := canparser.ParseIdentifier("0CF00400")
	require.NoError(t, err)

	return canparser.Batch{
		Frames: []canparser.Frame{
			{
				Timestamp:  1609459200.0,
				Identifier: id,
				Payload:    payload,
				Len:        8,
				SPNs: map[uint16]float32{
					190: 4175.6253, // rounds to 3 decimals on the way out
					512: 0,
				},
			},
		},
		SpecSnapshot: map[uint16]annex.SpecPGN{
			61444: {
				Label:            "Electronic Engine Controller 1",
				Acronym:          "EEC1",
				Length:           8,
				TransmissionRate: "engine speed dependent",
				SPNs: map[uint16]annex.SpecSPN{
					190: {
						Label:      "Engine Speed",
						Units:      "rpm",
						Length:     16,
						Resolution: 0.125,
						Max:        8031.875,
						StartBit:   24,
					},
					512: {
						Label:    "Drivers Demand Engine Torque",
						Units:    "%",
						Length:   8,
						Offset:   -125,
						StartBit: 8,
					},
				},
			},
		},
	}
}

func TestJSON(t *testing.T) {
	b, err := JSON(testBatch(t))
	require.NoError(t, err)

	var doc struct {
		Messages []struct {
			Timestamp  float64 `json:"timestamp"`
			Identifier struct {
				ID       string `json:"id"`
				PGN      uint16 `json:"pgn"`
				Extended bool   `json:"extended"`
			} `json:"identifier"`
			Data string             `json:"data"`
			SPNs map[string]float64 `json:"spns"`
		} `json:"messages"`
		Specs map[string]struct {
			Acronym string `json:"acronym"`
			SPNs    map[string]struct {
				StartBit uint8 `json:"start_bit"`
			} `json:"spns"`
		} `json:"specs"`
	}
	require.NoError(t, json.Unmarshal(b, &doc))

	require.Len(t, doc.Messages, 1)
	msg := doc.Messages[0]
	assert.Equal(t, 1609459200.0, msg.Timestamp)
	assert.Equal(t, "0CF00400", msg.Identifier.ID)
	assert.Equal(t, uint16(61444), msg.Identifier.PGN)
	assert.True(t, msg.Identifier.Extended)
	assert.Equal(t, "FF7D837D8210FFFF", msg.Data)
	assert.Equal(t, 4175.625, msg.SPNs["190"])
	assert.Equal(t, 0.0, msg.SPNs["512"])

	require.Contains(t, doc.Specs, "61444")
	assert.Equal(t, "EEC1", doc.Specs["61444"].Acronym)
	assert.Equal(t, uint8(24), doc.Specs["61444"].SPNs["190"].StartBit)
}

func TestJSONEmptyPayloadRendersEmptyData(t *testing.T) {
	id, err := canparser.ParseIdentifier("123")
	require.NoError(t, err)

	batch := canparser.Batch{Frames: []canparser.Frame{{Identifier: id}}}
	b, err := JSON(batch)
	require.NoError(t, err)

	var doc struct {
		Messages []struct {
			Data string `json:"data"`
		} `json:"messages"`
	}
	require.NoError(t, json.Unmarshal(b, &doc))
	require.Len(t, doc.Messages, 1)
	assert.Equal(t, "", doc.Messages[0].Data)
}

func TestWriteJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.json")
	require.NoError(t, WriteJSON(testBatch(t), path))

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, json.Valid(b))
}
