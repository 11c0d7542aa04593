package annex

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.einride.tech/can/pkg/dbc"
)

// ErrDBCUnsupported is returned by DBCLoader.Lookup: a DBC database can be
// detected and parsed, but producing a PGN layout from its message/signal
// definitions is reserved for a later revision.
var ErrDBCUnsupported = errors.New("annex: DBC annex lookup is not supported")

// DBCLoader detects and parses a DBC database well enough to validate it,
// but never resolves a PGN layout from it.
type DBCLoader struct {
	defs []dbc.Def
}

// NewDBCLoader parses the DBC database at path.
func NewDBCLoader(path string) (*DBCLoader, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("annex: failed to read DBC annex %q: %w", path, err)
	}
	return NewDBCLoaderFromBytes(filepath.Base(path), b)
}

// NewDBCLoaderFromBytes parses an already-loaded DBC database. name is
// used in parse error positions only.
func NewDBCLoaderFromBytes(name string, b []byte) (*DBCLoader, error) {
	p := dbc.NewParser(name, b)
	if err := p.Parse(); err != nil {
		return nil, fmt.Errorf("annex: failed to parse DBC annex %q: %w", name, err)
	}
	return &DBCLoader{defs: p.Defs()}, nil
}

// Lookup implements Loader. It always fails: see ErrDBCUnsupported.
func (l *DBCLoader) Lookup(pgn uint16) (SpecPGN, error) {
	return SpecPGN{}, fmt.Errorf("%w: PGN %d", ErrDBCUnsupported, pgn)
}
