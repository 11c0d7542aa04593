// Package annex resolves a PGN's signal layout from a digital annex
// document (JSON, spreadsheet, or DBC) and caches the result so repeat
// PGNs skip the lookup.
package annex

// SpecSPN is the decoded layout of one Suspect Parameter Number: where in
// the payload it lives and how to scale the raw bits into a physical
// value.
type SpecSPN struct {
	Label       string
	Description string
	Units       string
	Length      uint8
	Resolution  float32
	Offset      float32
	Max         float32
	StartBit    uint8
	Type        string
}

// SpecPGN is the decoded layout of one Parameter Group Number: its
// metadata plus the set of SPNs it carries, keyed by SPN id.
type SpecPGN struct {
	Label            string
	Acronym          string
	Description      string
	PDUFormat        uint8
	PDUSpecific      uint8
	Priority         uint8
	Length           uint8
	TransmissionRate string
	SPNs             map[uint16]SpecSPN
}

// Fixed-width storage widths for the text fields of SpecPGN/SpecSPN.
// Labels, acronyms and units survive fixed-size storage by being
// abbreviated down to these widths and space-padded; callers only ever
// see the trimmed string.
const (
	PGNLabelWidth            = 32
	PGNAcronymWidth          = 10
	PGNTransmissionRateWidth = 50
	SPNLabelWidth            = 32
	SPNUnitsWidth            = 10
	SPNTypeWidth             = 8
)

// CoerceFixedWidth implements the deterministic label-abbreviation rule
// used to fit human-readable names into fixed-width storage:
//
//  1. if s already fits in width, it is used as-is (padding is applied by
//     the caller when serializing to a byte array; CoerceFixedWidth itself
//     returns the trimmed string).
//  2. else if s is entirely ASCII upper-case, it is truncated to width.
//  3. else ASCII spaces are stripped; if still too long, ASCII vowels
//     (aeiouAEIOU) are stripped; if still too long, it is truncated.
//
// The result is always <= width bytes. Idempotent: re-applying it to its
// own output returns the same string.
func CoerceFixedWidth(s string, width int) string {
	if len(s) <= width {
		return s
	}
	if isUpper(s) {
		return s[:width]
	}

	b := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		if s[i] != ' ' {
			b = append(b, s[i])
		}
	}
	if len(b) > width {
		b = stripVowels(b)
	}
	if len(b) > width {
		b = b[:width]
	}
	return string(b)
}

func isUpper(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c >= 'a' && c <= 'z' {
			return false
		}
	}
	return true
}

func stripVowels(b []byte) []byte {
	out := b[:0]
	for _, c := range b {
		switch c {
		case 'a', 'e', 'i', 'o', 'u', 'A', 'E', 'I', 'O', 'U':
			continue
		default:
			out = append(out, c)
		}
	}
	return out
}

// PadRight space-pads s on the right to width bytes. Used by sinks that
// need the literal fixed-width byte array rather than the trimmed string
// (e.g. a BLOB/CHAR(n) column).
func PadRight(s string, width int) []byte {
	out := make([]byte, width)
	n := copy(out, s)
	for i := n; i < width; i++ {
		out[i] = ' '
	}
	return out
}
