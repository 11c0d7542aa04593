package canparser

import (
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func candumpParser(t *testing.T) *LineParser {
	t.Helper()
	return NewLineParser(regexp.MustCompile(CandumpTemplate))
}

func TestLineParserCandump(t *testing.T) {
	lp := candumpParser(t)

	line, err := lp.Parse("(1609459200.000000) can0 0CF00400#FF7D837D8210FFFF")
	require.NoError(t, err)

	assert.True(t, line.HasTimestamp)
	assert.Equal(t, 1609459200.0, line.Timestamp)
	assert.True(t, line.HasID)
	assert.Equal(t, "0CF00400", line.ID)
	assert.True(t, line.HasData)
	assert.Equal(t, uint8(8), line.Len)
	assert.Equal(t, []byte{0xFF, 0x7D, 0x83, 0x7D, 0x82, 0x10, 0xFF, 0xFF}, line.Payload[:line.Len])
	// the rest of the fixed buffer stays zero
	for _, b := range line.Payload[line.Len:] {
		assert.Equal(t, byte(0), b)
	}
}

func TestLineParserNoMatch(t *testing.T) {
	lp := candumpParser(t)

	_, err := lp.Parse("garbage")
	assert.ErrorIs(t, err, ErrNoMatch)
}

func TestLineParserOddHexDigitDropped(t *testing.T) {
	lp := candumpParser(t)

	line, err := lp.Parse("(1.000000) can0 123#ABCDE")
	require.NoError(t, err)
	assert.Equal(t, uint8(2), line.Len)
	assert.Equal(t, []byte{0xAB, 0xCD}, line.Payload[:line.Len])
}

func TestLineParserTruncatesTo64Bytes(t *testing.T) {
	lp := candumpParser(t)

	line, err := lp.Parse("(1.000000) can0 123#" + strings.Repeat("AB", 80))
	require.NoError(t, err)
	assert.Equal(t, uint8(64), line.Len)
	for _, b := range line.Payload {
		assert.Equal(t, byte(0xAB), b)
	}
}

func TestLineParserOptionalGroups(t *testing.T) {
	// a template with only an id group yields neither timestamp nor data
	lp := NewLineParser(regexp.MustCompile(`^(?P<id>[0-9A-F]{3,8})$`))

	line, err := lp.Parse("1CF00400")
	require.NoError(t, err)
	assert.False(t, line.HasTimestamp)
	assert.True(t, line.HasID)
	assert.False(t, line.HasData)
	assert.Equal(t, uint8(0), line.Len)
}
