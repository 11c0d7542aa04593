package sink

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/jjepson/can-parser"
	"github.com/jjepson/can-parser/annex"
)

var specCSVHeader = []string{
	"id", "label", "acronym", "description", "pdu_format", "pdu_specific",
	"priority", "length", "transmission_rate", "spns",
}

var messageCSVHeader = []string{
	"timestamp", "id", "priority", "pgn", "source_address",
	"destination_address", "extended", "error", "rtr", "len", "data", "spns",
}

// CSV renders a Batch as a single concatenated string: one section per
// spec family plus a "messages" section, each a complete CSV table
// introduced by its name.
func CSV(batch canparser.Batch) (string, error) {
	tables, err := csvTables(batch)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	for _, t := range tables {
		sb.WriteString(t.name)
		sb.WriteString(":\n")
		sb.Write(t.content)
		sb.WriteString("\n")
	}
	return sb.String(), nil
}

// WriteCSV renders batch into one file per table, derived from path:
// "out.csv" becomes "out_j1939.csv" and "out_messages.csv".
func WriteCSV(batch canparser.Batch, path string) error {
	tables, err := csvTables(batch)
	if err != nil {
		return err
	}

	ext := filepath.Ext(path)
	stem := strings.TrimSuffix(path, ext)
	for _, t := range tables {
		name := fmt.Sprintf("%s_%s%s", stem, t.name, ext)
		if err := os.WriteFile(name, t.content, 0o644); err != nil {
			return fmt.Errorf("sink: failed to write CSV output %q: %w", name, err)
		}
	}
	return nil
}

type csvTable struct {
	name    string
	content []byte
}

func csvTables(batch canparser.Batch) ([]csvTable, error) {
	spec, err := specToCSV(batch.SpecSnapshot)
	if err != nil {
		return nil, err
	}
	messages, err := messagesToCSV(batch.Frames)
	if err != nil {
		return nil, err
	}
	return []csvTable{
		{name: "j1939", content: spec},
		{name: "messages", content: messages},
	}, nil
}

// specToCSV writes one row per cached PGN, ordered by PGN so output is
// stable across runs. The SPN map lands in a single JSON-encoded column.
func specToCSV(snapshot map[uint16]annex.SpecPGN) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(specCSVHeader); err != nil {
		return nil, fmt.Errorf("sink: csv failed to write header: %w", err)
	}

	pgns := make([]uint16, 0, len(snapshot))
	for pgn := range snapshot {
		pgns = append(pgns, pgn)
	}
	sort.Slice(pgns, func(i, j int) bool { return pgns[i] < pgns[j] })

	for _, pgn := range pgns {
		spec := snapshot[pgn]
		spns, err := json.Marshal(toJSONSpecPGN(spec).SPNs)
		if err != nil {
			return nil, fmt.Errorf("sink: failed to encode SPNs of PGN %d: %w", pgn, err)
		}
		row := []string{
			strconv.Itoa(int(pgn)),
			spec.Label,
			spec.Acronym,
			spec.Description,
			strconv.Itoa(int(spec.PDUFormat)),
			strconv.Itoa(int(spec.PDUSpecific)),
			strconv.Itoa(int(spec.Priority)),
			strconv.Itoa(int(spec.Length)),
			spec.TransmissionRate,
			string(spns),
		}
		if err := w.Write(row); err != nil {
			return nil, fmt.Errorf("sink: csv failed to write row for PGN %d: %w", pgn, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("sink: csv writer failure: %w", err)
	}
	return buf.Bytes(), nil
}

func messagesToCSV(frames []canparser.Frame) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(messageCSVHeader); err != nil {
		return nil, fmt.Errorf("sink: csv failed to write header: %w", err)
	}

	for i, f := range frames {
		jf := toJSONFrame(f)
		spns, err := json.Marshal(jf.SPNs)
		if err != nil {
			return nil, fmt.Errorf("sink: failed to encode SPN values of frame %d: %w", i, err)
		}
		id := f.Identifier
		row := []string{
			strconv.FormatFloat(f.Timestamp, 'f', -1, 64),
			jf.Identifier.ID,
			strconv.Itoa(int(id.Priority)),
			strconv.Itoa(int(id.PGN)),
			strconv.Itoa(int(id.Source)),
			strconv.Itoa(int(id.Destination)),
			strconv.FormatBool(id.Flags.Extended),
			strconv.FormatBool(id.Flags.Error),
			strconv.FormatBool(id.Flags.RTR),
			strconv.Itoa(int(f.Len)),
			jf.Data,
			string(spns),
		}
		if err := w.Write(row); err != nil {
			return nil, fmt.Errorf("sink: csv failed to write row for frame %d: %w", i, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("sink: csv writer failure: %w", err)
	}
	return buf.Bytes(), nil
}
