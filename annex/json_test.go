package annex

import (
	"encoding/json"
	"strconv"
	"testing"

	"github.com/jjepson/can-parser/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testJSONLoader(t *testing.T) *JSONLoader {
	t.Helper()
	loader, err := NewJSONLoaderFromBytes(testutil.LoadBytes(t, "j1939_annex.json"))
	require.NoError(t, err)
	return loader
}

func TestJSONLoaderLookup(t *testing.T) {
	loader := testJSONLoader(t)

	spec, err := loader.Lookup(61444)
	require.NoError(t, err)

	assert.Equal(t, "Electronic Engine Controller 1", spec.Label)
	assert.Equal(t, "EEC1", spec.Acronym)
	assert.Equal(t, uint8(8), spec.Length)
	assert.Equal(t, "engine speed dependent", spec.TransmissionRate)
	require.Len(t, spec.SPNs, 3)

	engineSpeed := spec.SPNs[190]
	assert.Equal(t, "Engine Speed", engineSpeed.Label)
	assert.Equal(t, "rpm", engineSpeed.Units)
	assert.Equal(t, uint8(16), engineSpeed.Length)
	assert.InDelta(t, 0.125, engineSpeed.Resolution, 1e-6)
	assert.InDelta(t, 0.0, engineSpeed.Offset, 1e-6)
	assert.InDelta(t, 8031.875, engineSpeed.Max, 1e-3)
	assert.Equal(t, uint8(24), engineSpeed.StartBit)
}

func TestJSONLoaderStartBitVariants(t *testing.T) {
	loader := testJSONLoader(t)

	spec, err := loader.Lookup(61444)
	require.NoError(t, err)

	// SPNStartBits mixes bare ints and nested arrays; the first array
	// element is the start bit
	assert.Equal(t, uint8(24), spec.SPNs[190].StartBit)
	assert.Equal(t, uint8(8), spec.SPNs[512].StartBit)
	assert.Equal(t, uint8(16), spec.SPNs[513].StartBit)
}

func TestJSONLoaderSkipsUnknownSPNs(t *testing.T) {
	loader := testJSONLoader(t)

	spec, err := loader.Lookup(65262)
	require.NoError(t, err)

	assert.Contains(t, spec.SPNs, uint16(110))
	assert.NotContains(t, spec.SPNs, uint16(9999))
}

func TestJSONLoaderCoversEveryFixturePGN(t *testing.T) {
	loader := testJSONLoader(t)

	var doc struct {
		PGNdb map[string]json.RawMessage `json:"J1939PGNdb"`
	}
	testutil.LoadJSON(t, "j1939_annex.json", &doc)
	require.NotEmpty(t, doc.PGNdb)

	for key := range doc.PGNdb {
		pgn, err := strconv.ParseUint(key, 10, 16)
		require.NoError(t, err)
		_, err = loader.Lookup(uint16(pgn))
		assert.NoError(t, err, "PGN %s", key)
	}
}

func TestJSONLoaderUnknownPGN(t *testing.T) {
	loader := testJSONLoader(t)

	_, err := loader.Lookup(12345)
	assert.ErrorIs(t, err, ErrPGNNotFound)
}

func TestJSONLoaderBadDocument(t *testing.T) {
	_, err := NewJSONLoaderFromBytes([]byte("{ not json"))
	assert.Error(t, err)
}

func TestJSONLoaderNonNumericPGNLength(t *testing.T) {
	doc := `{
	  "J1939PGNdb": {
	    "100": {"Name": "x", "Label": "X", "PGNLength": "eight", "Rate": "", "SPNs": []}
	  },
	  "J1939SPNdb": {}
	}`
	loader, err := NewJSONLoaderFromBytes([]byte(doc))
	require.NoError(t, err)

	_, err = loader.Lookup(100)
	assert.Error(t, err)
}

func TestJSONLoaderMissingStartBitsDefaultToZero(t *testing.T) {
	doc := `{
	  "J1939PGNdb": {
	    "200": {"Name": "No start bits", "Label": "NSB", "PGNLength": "8", "Rate": "", "SPNs": [190]}
	  },
	  "J1939SPNdb": {
	    "190": {"Name": "Engine Speed", "Units": "rpm", "SPNLength": 16, "Resolution": 0.125, "Offset": 0, "OperationalHigh": 8031.875}
	  }
	}`
	loader, err := NewJSONLoaderFromBytes([]byte(doc))
	require.NoError(t, err)

	spec, err := loader.Lookup(200)
	require.NoError(t, err)
	assert.Equal(t, uint8(0), spec.SPNs[190].StartBit)
}
