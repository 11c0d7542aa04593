package sink

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/jjepson/can-parser"
	"github.com/jjepson/can-parser/annex"
	_ "modernc.org/sqlite"
)

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS SpecPGNs (
		id INTEGER PRIMARY KEY,
		label TEXT,
		acronym TEXT,
		description TEXT,
		pdu_format INTEGER,
		pdu_specific INTEGER,
		priority INTEGER,
		length INTEGER,
		transmission_rate TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS SpecSPNs (
		id INTEGER PRIMARY KEY,
		pgn REFERENCES SpecPGNs(id),
		label TEXT,
		description TEXT,
		units TEXT,
		length INTEGER,
		resolution REAL,
		"offset" REAL,
		maximum REAL,
		start_bit INTEGER,
		spn_type TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS CANIDs (
		id INTEGER PRIMARY KEY,
		pgn REFERENCES SpecPGNs(id),
		priority INTEGER,
		destination_address INTEGER,
		source_address INTEGER,
		extended INTEGER,
		error INTEGER,
		rtr INTEGER
	)`,
	`CREATE TABLE IF NOT EXISTS messages (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		timestamp REAL,
		can_id REFERENCES CANIDs(id),
		length INTEGER,
		data BLOB,
		spn_values TEXT
	)`,
}

// WriteSQLite writes batch into a SQLite database at path: the spec
// snapshot into SpecPGNs/SpecSPNs, every distinct identifier into CANIDs
// and every frame into messages. Natural-id tables use INSERT OR IGNORE
// so re-running over the same database stays idempotent.
func WriteSQLite(batch canparser.Batch, path string) error {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("sink: failed to open sqlite database %q: %w", path, err)
	}
	defer db.Close()

	for _, stmt := range sqliteSchema {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("sink: failed to create sqlite tables: %w", err)
		}
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("sink: failed to begin sqlite transaction: %w", err)
	}
	defer tx.Rollback()

	for pgn, spec := range batch.SpecSnapshot {
		if err := insertSpecPGN(tx, pgn, spec); err != nil {
			return err
		}
		for spn, spnSpec := range spec.SPNs {
			if err := insertSpecSPN(tx, pgn, spn, spnSpec); err != nil {
				return err
			}
		}
	}
	for i, frame := range batch.Frames {
		if err := insertCANID(tx, frame.Identifier); err != nil {
			return err
		}
		if err := insertMessage(tx, frame); err != nil {
			return fmt.Errorf("sink: failed to insert frame %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sink: failed to commit sqlite transaction: %w", err)
	}
	return nil
}

func insertSpecPGN(tx *sql.Tx, pgn uint16, spec annex.SpecPGN) error {
	_, err := tx.Exec(
		`INSERT OR IGNORE INTO SpecPGNs (
			id, label, acronym, description, pdu_format, pdu_specific,
			priority, length, transmission_rate
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		pgn, spec.Label, spec.Acronym, spec.Description, spec.PDUFormat,
		spec.PDUSpecific, spec.Priority, spec.Length, spec.TransmissionRate,
	)
	if err != nil {
		return fmt.Errorf("sink: failed to insert PGN %d: %w", pgn, err)
	}
	return nil
}

func insertSpecSPN(tx *sql.Tx, pgn, spn uint16, spec annex.SpecSPN) error {
	_, err := tx.Exec(
		`INSERT OR IGNORE INTO SpecSPNs (
			id, pgn, label, description, units, length, resolution,
			"offset", maximum, start_bit, spn_type
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		spn, pgn, spec.Label, spec.Description, spec.Units, spec.Length,
		spec.Resolution, spec.Offset, spec.Max, spec.StartBit, spec.Type,
	)
	if err != nil {
		return fmt.Errorf("sink: failed to insert SPN %d of PGN %d: %w", spn, pgn, err)
	}
	return nil
}

func insertCANID(tx *sql.Tx, id canparser.Identifier) error {
	_, err := tx.Exec(
		`INSERT OR IGNORE INTO CANIDs (
			id, pgn, priority, destination_address, source_address,
			extended, error, rtr
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		id.Raw, id.PGN, id.Priority, id.Destination, id.Source,
		id.Flags.Extended, id.Flags.Error, id.Flags.RTR,
	)
	if err != nil {
		return fmt.Errorf("sink: failed to insert identifier %08X: %w", id.Raw, err)
	}
	return nil
}

func insertMessage(tx *sql.Tx, frame canparser.Frame) error {
	spns := make(map[string]float64, len(frame.SPNs))
	for id, v := range frame.SPNs {
		spns[fmt.Sprintf("%d", id)] = round3(v)
	}
	spnValues, err := json.Marshal(spns)
	if err != nil {
		return fmt.Errorf("sink: failed to encode SPN values: %w", err)
	}

	_, err = tx.Exec(
		`INSERT OR IGNORE INTO messages (
			timestamp, can_id, length, data, spn_values
		) VALUES (?, ?, ?, ?, ?)`,
		frame.Timestamp, frame.Identifier.Raw, frame.Len,
		frame.PayloadBytes(), string(spnValues),
	)
	return err
}
