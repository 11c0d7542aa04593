package annex

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
)

// jsonDocument mirrors the on-disk digital annex JSON schema: two
// top-level dictionaries keyed by the decimal string form of a PGN or
// SPN id.
type jsonDocument struct {
	PGNdb map[string]jsonPGN `json:"J1939PGNdb"`
	SPNdb map[string]jsonSPN `json:"J1939SPNdb"`
}

type jsonPGN struct {
	Name         string            `json:"Name"`
	Label        string            `json:"Label"`
	PGNLength    string            `json:"PGNLength"`
	Rate         string            `json:"Rate"`
	SPNs         []int             `json:"SPNs"`
	SPNStartBits []json.RawMessage `json:"SPNStartBits,omitempty"`
}

type jsonSPN struct {
	Name            string  `json:"Name"`
	Units           string  `json:"Units"`
	SPNLength       uint8   `json:"SPNLength"`
	Resolution      float32 `json:"Resolution"`
	Offset          float32 `json:"Offset"`
	OperationalHigh float32 `json:"OperationalHigh"`
}

// JSONLoader resolves PGN layouts from a parsed J1939PGNdb/J1939SPNdb
// document. It is immutable once constructed, so safe for concurrent
// Lookup calls.
type JSONLoader struct {
	doc jsonDocument
}

// NewJSONLoader reads and parses the annex document at path.
func NewJSONLoader(path string) (*JSONLoader, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("annex: failed to read JSON annex %q: %w", path, err)
	}
	return NewJSONLoaderFromBytes(b)
}

// NewJSONLoaderFromBytes parses an already-loaded JSON annex document, for
// callers that received the annex as a literal string rather than a path.
func NewJSONLoaderFromBytes(b []byte) (*JSONLoader, error) {
	var doc jsonDocument
	if err := json.Unmarshal(b, &doc); err != nil {
		return nil, fmt.Errorf("annex: failed to parse JSON annex: %w", err)
	}
	return &JSONLoader{doc: doc}, nil
}

// Lookup implements Loader.
func (l *JSONLoader) Lookup(pgn uint16) (SpecPGN, error) {
	raw, ok := l.doc.PGNdb[strconv.Itoa(int(pgn))]
	if !ok {
		return SpecPGN{}, fmt.Errorf("%w: %d", ErrPGNNotFound, pgn)
	}

	length, err := strconv.ParseUint(raw.PGNLength, 10, 8)
	if err != nil {
		return SpecPGN{}, fmt.Errorf("annex: PGN %d has non-numeric PGNLength %q: %w", pgn, raw.PGNLength, err)
	}

	spec := SpecPGN{
		Label:            CoerceFixedWidth(raw.Name, PGNLabelWidth),
		Acronym:          CoerceFixedWidth(raw.Label, PGNAcronymWidth),
		Description:      raw.Name,
		Length:           uint8(length),
		TransmissionRate: CoerceFixedWidth(raw.Rate, PGNTransmissionRateWidth),
		SPNs:             make(map[uint16]SpecSPN, len(raw.SPNs)),
	}

	for i, spnID := range raw.SPNs {
		spnRaw, ok := l.doc.SPNdb[strconv.Itoa(spnID)]
		if !ok {
			continue // SPN ids the annex does not define are skipped, not an error
		}
		spec.SPNs[uint16(spnID)] = SpecSPN{
			Label:       CoerceFixedWidth(spnRaw.Name, SPNLabelWidth),
			Description: spnRaw.Name,
			Units:       CoerceFixedWidth(spnRaw.Units, SPNUnitsWidth),
			Length:      spnRaw.SPNLength,
			Resolution:  spnRaw.Resolution,
			Offset:      spnRaw.Offset,
			Max:         spnRaw.OperationalHigh,
			StartBit:    startBitAt(raw.SPNStartBits, i),
		}
	}
	return spec, nil
}

// startBitAt resolves the i'th entry of SPNStartBits, which may be a bare
// int or a [int, ...] array whose first element is the start bit. Missing
// or malformed entries default to 0.
func startBitAt(bits []json.RawMessage, i int) uint8 {
	if i >= len(bits) {
		return 0
	}

	var asInt int
	if err := json.Unmarshal(bits[i], &asInt); err == nil {
		return uint8(asInt)
	}

	var asArray []int
	if err := json.Unmarshal(bits[i], &asArray); err == nil && len(asArray) > 0 {
		return uint8(asArray[0])
	}
	return 0
}
