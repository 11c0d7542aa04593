package annex

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// spgSheetName is the worksheet of the digital annex workbook that
// carries the PGN/SPN rows.
const spgSheetName = "SPs & PGs"

// Column indices (0-based) into the "SPs & PGs" sheet. The layout is
// fixed by the annex generator; a PGN's SPNs occupy consecutive rows that
// repeat the PGN columns.
const (
	colPGN          = 4
	colPGNLabel     = 5
	colPGNAcronym   = 6
	colPGNDesc      = 7
	colPGNPDUFormat = 10
	colPGNPDUSpec   = 11
	colPGNRate      = 13
	colPGNLength    = 14
	colPGNPriority  = 15

	colSPNStartBit = 18
	colSPNID       = 19
	colSPNLabel    = 20
	colSPNDesc     = 21
	colSPNUnits    = 27
	colSPNType     = 30
	colSPNResoln   = 32
	colSPNOffset   = 33
	colSPNMax      = 34
	colSPNLength   = 35
)

// XLSXLoader resolves PGN layouts by scanning the rows of one sheet of a
// digital annex spreadsheet, matching on the PGN column and accumulating
// SPN rows that repeat the same PGN across consecutive rows.
type XLSXLoader struct {
	rows [][]string
}

// NewXLSXLoader opens the workbook at path and reads its "SPs & PGs"
// sheet into memory. The annex is small enough (a few thousand rows)
// that scanning it per-lookup, rather than pre-indexing, is simpler and
// still fast relative to the I/O that produced it; repeat PGNs hit the
// pipeline's cache anyway.
func NewXLSXLoader(path string) (*XLSXLoader, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("annex: failed to open spreadsheet annex %q: %w", path, err)
	}
	defer f.Close()

	rows, err := f.GetRows(spgSheetName)
	if err != nil {
		return nil, fmt.Errorf("annex: failed to read sheet %q of %q: %w", spgSheetName, path, err)
	}
	return &XLSXLoader{rows: rows}, nil
}

// Lookup implements Loader.
func (l *XLSXLoader) Lookup(pgn uint16) (SpecPGN, error) {
	spec, found := scanRowsForPGN(l.rows, pgn)
	if !found {
		return SpecPGN{}, fmt.Errorf("%w: %d", ErrPGNNotFound, pgn)
	}
	return spec, nil
}

// scanRowsForPGN is the pure row-matching logic behind Lookup, pulled out
// so it can be tested against literal [][]string fixtures without an
// actual spreadsheet file.
func scanRowsForPGN(rows [][]string, pgn uint16) (SpecPGN, bool) {
	target := strconv.Itoa(int(pgn))
	var spec SpecPGN
	found := false

	for _, row := range rows {
		if cell(row, colPGN) != target {
			if found {
				break // consecutive-run ended
			}
			continue
		}
		if !found {
			spec = pgnFromRow(row)
			found = true
		}
		if spn, ok := spnFromRow(row); ok {
			if spec.SPNs == nil {
				spec.SPNs = make(map[uint16]SpecSPN)
			}
			spec.SPNs[spn.id] = spn.SpecSPN
		}
	}
	return spec, found
}

func cell(row []string, idx int) string {
	if idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func pgnFromRow(row []string) SpecPGN {
	length, _ := strconv.ParseUint(cell(row, colPGNLength), 10, 8)
	pduFormat, _ := strconv.ParseUint(cell(row, colPGNPDUFormat), 10, 8)
	pduSpecific, _ := strconv.ParseUint(cell(row, colPGNPDUSpec), 10, 8)
	priority, _ := strconv.ParseUint(cell(row, colPGNPriority), 10, 8)

	return SpecPGN{
		Label:            CoerceFixedWidth(cell(row, colPGNLabel), PGNLabelWidth),
		Acronym:          CoerceFixedWidth(cell(row, colPGNAcronym), PGNAcronymWidth),
		Description:      cell(row, colPGNDesc),
		PDUFormat:        uint8(pduFormat),
		PDUSpecific:      uint8(pduSpecific),
		Priority:         uint8(priority),
		Length:           uint8(length),
		TransmissionRate: CoerceFixedWidth(cell(row, colPGNRate), PGNTransmissionRateWidth),
	}
}

type namedSPN struct {
	id uint16
	SpecSPN
}

func spnFromRow(row []string) (namedSPN, bool) {
	idStr := cell(row, colSPNID)
	if idStr == "" {
		return namedSPN{}, false
	}
	id, err := strconv.ParseUint(idStr, 10, 16)
	if err != nil {
		return namedSPN{}, false
	}

	resolution, _ := strconv.ParseFloat(cell(row, colSPNResoln), 32)
	offset, _ := strconv.ParseFloat(cell(row, colSPNOffset), 32)
	max, _ := strconv.ParseFloat(cell(row, colSPNMax), 32)
	length, _ := strconv.ParseUint(cell(row, colSPNLength), 10, 8)

	return namedSPN{
		id: uint16(id),
		SpecSPN: SpecSPN{
			Label:       CoerceFixedWidth(cell(row, colSPNLabel), SPNLabelWidth),
			Description: cell(row, colSPNDesc),
			Units:       CoerceFixedWidth(cell(row, colSPNUnits), SPNUnitsWidth),
			Length:      uint8(length),
			Resolution:  float32(resolution),
			Offset:      float32(offset),
			Max:         float32(max),
			StartBit:    startBitFromCell(cell(row, colSPNStartBit)),
			Type:        CoerceFixedWidth(cell(row, colSPNType), SPNTypeWidth),
		},
	}, true
}

// startBitFromCell parses a "byte.bit" cell (e.g. "4.2") into an
// absolute bit offset: (byte-1)*8 + (round(fraction*8)-1). Both parts
// are 1-based in the sheet.
func startBitFromCell(s string) uint8 {
	if s == "" {
		return 0
	}
	whole, frac, ok := strings.Cut(s, ".")
	byteNum, err := strconv.Atoi(whole)
	if err != nil || byteNum < 1 {
		return 0
	}
	bitNum := 1
	if ok && frac != "" {
		f, err := strconv.ParseFloat("0."+frac, 64)
		if err == nil {
			bitNum = int(f*8 + 0.5)
		}
	}
	return uint8((byteNum-1)*8 + (bitNum - 1))
}
