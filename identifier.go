// Package canparser decodes raw CAN/J1939 bus frames into structured
// messages using a pluggable digital annex (see package annex) for the
// per-PGN signal (SPN) layout.
package canparser

import (
	"fmt"
	"strconv"
)

// J1939 identifier bit layout constants. pduFormatMask is 10 bits wide
// (0x03FF0000) rather than the canonical 8-bit J1939 mask (0x00FF0000);
// see DESIGN.md "Open Questions" for why the wider mask is kept.
const (
	extendedIDThreshold uint32 = 0x7FF
	errFlagMask         uint32 = 0x20000000
	rtrFlagMask         uint32 = 0x40000000
	priorityMask        uint32 = 0x1C000000
	priorityShift              = 26
	pduFormatMask       uint32 = 0x03FF0000
	pduFormatShift             = 16
	pduSpecificMask     uint32 = 0x0000FF00
	pduSpecificShift           = 8

	// AddressBroadcast is the sentinel destination address meaning
	// "broadcast / not addressed" (PDU2 group broadcast, or non-extended id).
	AddressBroadcast uint8 = 255

	// pduFormatBroadcastBoundary is the PDU1/PDU2 split point: pdu_format
	// values below this are PDU1 (destination-specific), at or above it
	// are PDU2 (broadcast).
	pduFormatBroadcastBoundary = 240
)

// Flags carries the three single-bit indicators encoded in a raw CAN
// identifier.
type Flags struct {
	Extended bool
	Error    bool
	RTR      bool
}

// Identifier is a decoded CAN/J1939 frame identifier: the raw 32-bit id
// plus its J1939 sub-fields, when applicable.
type Identifier struct {
	Raw         uint32
	Priority    uint8
	Destination uint8
	Source      uint8
	PGN         uint16
	Flags       Flags
}

// ParseIdentifier decodes a hexadecimal CAN identifier string into an
// Identifier. Non-extended identifiers (raw <= 0x7FF) leave Priority,
// Source and PGN at their zero values; Destination defaults to
// AddressBroadcast regardless.
func ParseIdentifier(hexID string) (Identifier, error) {
	raw, err := strconv.ParseUint(hexID, 16, 32)
	if err != nil {
		return Identifier{}, fmt.Errorf("canparser: failed to parse identifier %q: %w", hexID, err)
	}

	id := Identifier{
		Raw:         uint32(raw),
		Destination: AddressBroadcast,
	}
	id.Flags.Extended = id.Raw > extendedIDThreshold
	id.Flags.Error = id.Raw&errFlagMask != 0
	id.Flags.RTR = id.Raw&rtrFlagMask != 0

	if id.Flags.Extended {
		decodeJ1939(&id)
	}
	return id, nil
}

// decodeJ1939 fills in the priority/PGN/source/destination sub-fields of an
// extended identifier per J1939's PDU1 (destination-specific) / PDU2
// (broadcast) addressing split.
func decodeJ1939(id *Identifier) {
	id.Priority = uint8((id.Raw & priorityMask) >> priorityShift)
	pduFormat := uint16((id.Raw & pduFormatMask) >> pduFormatShift)
	pduSpecific := uint8((id.Raw & pduSpecificMask) >> pduSpecificShift)
	id.Source = uint8(id.Raw & 0xFF)

	if pduFormat >= pduFormatBroadcastBoundary {
		id.PGN = (pduFormat << 8) | uint16(pduSpecific)
		id.Destination = AddressBroadcast
	} else {
		id.PGN = pduFormat << 8
		id.Destination = pduSpecific
	}
}

// String renders the identifier as an 8-digit uppercase hex string, the
// form used by Frame JSON serialization (see sink/json.go).
func (id Identifier) String() string {
	return fmt.Sprintf("%08X", id.Raw)
}
