package canparser

// MaxPayloadLen is the fixed payload buffer size every Frame carries,
// matching CAN-FD's 64-byte maximum.
const MaxPayloadLen = 64

// Frame is a single decoded bus message: a timestamp, a decomposed
// identifier, the raw payload bytes, and any SPNs the annex resolved for
// its PGN. A Frame is immutable once returned by the pipeline.
type Frame struct {
	Timestamp  float64
	Identifier Identifier
	Payload    [MaxPayloadLen]byte
	Len        uint8
	SPNs       map[uint16]float32
}

// PayloadBytes returns the meaningful prefix of the payload buffer, i.e.
// Payload[:Len].
func (f Frame) PayloadBytes() []byte {
	return f.Payload[:f.Len]
}
