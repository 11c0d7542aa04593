// Package sink implements the three standardized consumers of a decoded
// batch: JSON document, CSV tables, and a SQLite database.
package sink

import (
	"encoding/json"
	"fmt"
	"math"
	"os"

	"github.com/jjepson/can-parser"
	"github.com/jjepson/can-parser/annex"
)

// jsonIdentifier is the identifier sub-record of a serialized frame: the
// raw id renders as an 8-digit uppercase hex string.
type jsonIdentifier struct {
	ID          string `json:"id"`
	Priority    uint8  `json:"priority"`
	Source      uint8  `json:"source_address"`
	Destination uint8  `json:"destination_address"`
	PGN         uint16 `json:"pgn"`
	Extended    bool   `json:"extended"`
	Error       bool   `json:"error"`
	RTR         bool   `json:"rtr"`
}

// jsonFrame is one decoded frame: data renders as uppercase hex of the
// meaningful payload prefix (empty when the frame carried no data), and
// SPN values are rounded to 3 decimal places.
type jsonFrame struct {
	Timestamp  float64            `json:"timestamp"`
	Identifier jsonIdentifier     `json:"identifier"`
	Data       string             `json:"data"`
	SPNs       map[string]float64 `json:"spns"`
}

// jsonBatch is the document-sink envelope: the decoded frames alongside
// the PGN layouts the run actually resolved.
type jsonBatch struct {
	Messages []jsonFrame            `json:"messages"`
	Specs    map[string]jsonSpecPGN `json:"specs"`
}

type jsonSpecSPN struct {
	Label       string  `json:"label"`
	Description string  `json:"description"`
	Units       string  `json:"units"`
	Length      uint8   `json:"length"`
	Resolution  float32 `json:"resolution"`
	Offset      float32 `json:"offset"`
	Max         float32 `json:"max"`
	StartBit    uint8   `json:"start_bit"`
	Type        string  `json:"spn_type"`
}

type jsonSpecPGN struct {
	Label            string                 `json:"label"`
	Acronym          string                 `json:"acronym"`
	Description      string                 `json:"description"`
	PDUFormat        uint8                  `json:"pdu_format"`
	PDUSpecific      uint8                  `json:"pdu_specific"`
	Priority         uint8                  `json:"priority"`
	Length           uint8                  `json:"length"`
	TransmissionRate string                 `json:"transmission_rate"`
	SPNs             map[string]jsonSpecSPN `json:"spns"`
}

// JSON renders a Batch as the document sink's JSON encoding.
func JSON(batch canparser.Batch) ([]byte, error) {
	out := jsonBatch{
		Messages: make([]jsonFrame, 0, len(batch.Frames)),
		Specs:    make(map[string]jsonSpecPGN, len(batch.SpecSnapshot)),
	}
	for _, f := range batch.Frames {
		out.Messages = append(out.Messages, toJSONFrame(f))
	}
	for pgn, spec := range batch.SpecSnapshot {
		out.Specs[fmt.Sprintf("%d", pgn)] = toJSONSpecPGN(spec)
	}

	b, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("sink: failed to marshal JSON batch: %w", err)
	}
	return b, nil
}

// WriteJSON renders batch and writes it to path.
func WriteJSON(batch canparser.Batch, path string) error {
	b, err := JSON(batch)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("sink: failed to write JSON output %q: %w", path, err)
	}
	return nil
}

func toJSONFrame(f canparser.Frame) jsonFrame {
	data := ""
	if f.Len > 0 {
		data = fmt.Sprintf("%X", f.PayloadBytes())
	}

	spns := make(map[string]float64, len(f.SPNs))
	for id, v := range f.SPNs {
		spns[fmt.Sprintf("%d", id)] = round3(v)
	}

	id := f.Identifier
	return jsonFrame{
		Timestamp: f.Timestamp,
		Identifier: jsonIdentifier{
			ID:          fmt.Sprintf("%08X", id.Raw),
			Priority:    id.Priority,
			Source:      id.Source,
			Destination: id.Destination,
			PGN:         id.PGN,
			Extended:    id.Flags.Extended,
			Error:       id.Flags.Error,
			RTR:         id.Flags.RTR,
		},
		Data: data,
		SPNs: spns,
	}
}

func toJSONSpecPGN(spec annex.SpecPGN) jsonSpecPGN {
	out := jsonSpecPGN{
		Label:            spec.Label,
		Acronym:          spec.Acronym,
		Description:      spec.Description,
		PDUFormat:        spec.PDUFormat,
		PDUSpecific:      spec.PDUSpecific,
		Priority:         spec.Priority,
		Length:           spec.Length,
		TransmissionRate: spec.TransmissionRate,
		SPNs:             make(map[string]jsonSpecSPN, len(spec.SPNs)),
	}
	for id, spn := range spec.SPNs {
		out.SPNs[fmt.Sprintf("%d", id)] = jsonSpecSPN{
			Label:       spn.Label,
			Description: spn.Description,
			Units:       spn.Units,
			Length:      spn.Length,
			Resolution:  spn.Resolution,
			Offset:      spn.Offset,
			Max:         spn.Max,
			StartBit:    spn.StartBit,
			Type:        spn.Type,
		}
	}
	return out
}

func round3(v float32) float64 {
	return math.Round(float64(v)*1000) / 1000
}
