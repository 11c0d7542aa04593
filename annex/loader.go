package annex

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// Kind identifies which concrete annex format backs a Loader.
type Kind string

const (
	KindJSON    Kind = "json"
	KindXLSX    Kind = "xlsx"
	KindDBC     Kind = "dbc"
	KindUnknown Kind = ""
)

// ErrUnknownKind is returned when a source's format cannot be determined
// from its extension or leading bytes.
var ErrUnknownKind = errors.New("annex: cannot determine digital annex format")

// ErrPGNNotFound is returned by Loader.Lookup when the annex has no entry
// for the requested PGN.
var ErrPGNNotFound = errors.New("annex: PGN not found in digital annex")

// ErrXLSXLiteral is returned when a spreadsheet annex is passed as literal
// content; xlsx can only be read from a file.
var ErrXLSXLiteral = errors.New("annex: spreadsheet annex can only be loaded from a file")

// Loader resolves a PGN to its SpecPGN layout from a specific digital
// annex format. Each concrete implementation (JSON, spreadsheet, DBC)
// wraps a different external parser; the Frame Pipeline only ever talks
// to this interface.
type Loader interface {
	Lookup(pgn uint16) (SpecPGN, error)
}

// maxPathLen bounds how long a source string can be and still be
// considered a file path; anything longer is literal content.
const maxPathLen = 256

// pathShapeRegex is a conservative shape test for file paths: an optional
// drive/root prefix followed by word, space, dot and dash characters
// separated by slashes. A JSON or DBC document never matches it.
var pathShapeRegex = regexp.MustCompile(`^(([\w \.-]|[\\/]){0,2}:?[\\/]?/?)([\w \.-]+[\\/])*([\w \.-])*$`)

// DetectSource classifies a source string as either a file path or
// literal annex content and reports the annex kind. A string is a path
// only if it is short enough, matches the path shape, and names an
// existing file; everything else is treated as content and sniffed by
// its leading bytes.
func DetectSource(s string) (isPath bool, kind Kind, err error) {
	if len(s) <= maxPathLen && pathShapeRegex.MatchString(s) {
		if fi, statErr := os.Stat(s); statErr == nil && !fi.IsDir() {
			kind, err = DetectKind(s)
			return true, kind, err
		}
	}
	kind, err = detectKindFromContent(s)
	return false, kind, err
}

// DetectKind inspects a path's extension first, falling back to peeking
// at its leading bytes when the extension is missing or ambiguous (e.g.
// a path with no suffix, or one mistakenly labelled .txt).
func DetectKind(path string) (Kind, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return KindJSON, nil
	case ".xlsx", ".xlsm":
		return KindXLSX, nil
	case ".dbc":
		return KindDBC, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return KindUnknown, fmt.Errorf("annex: failed to open %q to sniff format: %w", path, err)
	}
	defer f.Close()

	head := make([]byte, len("VERSION"))
	n, _ := f.Read(head)
	return detectKindFromContent(string(head[:n]))
}

// detectKindFromContent sniffs the annex kind from leading bytes: "{"
// opens a JSON document, "PK" is the ZIP magic every xlsx starts with,
// and every DBC database begins with its VERSION line.
func detectKindFromContent(s string) (Kind, error) {
	switch {
	case strings.HasPrefix(s, "{"):
		return KindJSON, nil
	case strings.HasPrefix(s, "PK"):
		return KindXLSX, nil
	case strings.HasPrefix(s, "VERSION"):
		return KindDBC, nil
	default:
		return KindUnknown, ErrUnknownKind
	}
}

// New opens path, detects its digital annex format and returns the
// matching Loader.
func New(path string) (Loader, error) {
	kind, err := DetectKind(path)
	if err != nil {
		return nil, err
	}
	switch kind {
	case KindJSON:
		return NewJSONLoader(path)
	case KindXLSX:
		return NewXLSXLoader(path)
	case KindDBC:
		return NewDBCLoader(path)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownKind, path)
	}
}

// NewFromSource builds a Loader from a string that is either a file path
// or the literal annex document itself. Spreadsheet annexes must come
// from a file; JSON and DBC content may be passed inline.
func NewFromSource(s string) (Loader, error) {
	isPath, kind, err := DetectSource(s)
	if err != nil {
		return nil, err
	}
	if isPath {
		switch kind {
		case KindJSON:
			return NewJSONLoader(s)
		case KindXLSX:
			return NewXLSXLoader(s)
		case KindDBC:
			return NewDBCLoader(s)
		}
		return nil, fmt.Errorf("%w: %s", ErrUnknownKind, s)
	}

	switch kind {
	case KindJSON:
		return NewJSONLoaderFromBytes([]byte(s))
	case KindDBC:
		return NewDBCLoaderFromBytes("annex.dbc", []byte(s))
	case KindXLSX:
		return nil, ErrXLSXLiteral
	}
	return nil, ErrUnknownKind
}
