package canparser

// SPNLayout describes how to extract and scale one Suspect Parameter
// Number from a payload's bit stream. It mirrors annex.SpecSPN's numeric
// fields; the pipeline copies them from the cached SpecSPN before calling
// ExtractSPN.
type SPNLayout struct {
	StartBit   uint8
	Length     uint8
	Resolution float32
	Offset     float32
	Max        float32
}

// ExtractSPN unpacks an SPN's bits out of payload (little-endian bit order
// within each byte, LSB-first across the field) and applies resolution,
// offset and wrap scaling.
//
// For a non-empty payload, length (a bit count) is silently clamped to
// len(payload)-1 (a byte count) whenever it is larger, whatever StartBit
// is; this preserves a partial decode for short frames rather than
// failing the whole frame. The wrap step, which folds J1939
// not-available/error codes back into range, subtracts max exactly once.
// It is not a modulo: a value more than twice max still reads out of
// bounds afterwards. Known limitation, kept deliberately (DESIGN.md
// "Open Questions").
func ExtractSPN(payload []byte, layout SPNLayout) float32 {
	length := layout.Length
	if maxLen := len(payload) - 1; maxLen >= 0 && int(length) > maxLen {
		length = uint8(maxLen)
	}

	var value float32
	for i := uint8(0); i < length; i++ {
		byteIdx := (layout.StartBit + i) / 8
		bitIdx := (layout.StartBit + i) % 8
		if int(byteIdx) >= len(payload) {
			continue
		}
		bit := (payload[byteIdx] >> bitIdx) & 1
		value += float32(bit) * pow2(i)
	}

	value = value*layout.Resolution + layout.Offset
	if value > layout.Max {
		value -= layout.Max
	}
	return value
}

// pow2 computes 2^n for small, non-negative n without pulling in math.Pow's
// float64 round trip — SPN fields never exceed a few dozen bits.
func pow2(n uint8) float32 {
	v := float32(1)
	for i := uint8(0); i < n; i++ {
		v *= 2
	}
	return v
}
