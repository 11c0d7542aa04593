package canparser

import (
	"fmt"
	"strings"

	"github.com/jjepson/can-parser/annex"
)

// Spec type keys accepted by NewSpecs. Only J1939 decoding is
// implemented today; the other keys are recognized so a caller wiring up
// several annexes fails on typos rather than on protocols that are
// merely not built yet.
const (
	SpecTypeJ1939     = "j1939"
	SpecTypeCAN       = "can"
	SpecTypeUDS       = "uds"
	SpecTypeTransport = "transport"
)

// Specs bundles the per-protocol annex loaders a pipeline may consult.
// Nil fields mean no annex was supplied for that protocol.
type Specs struct {
	J1939 annex.Loader
}

// NewSpecs builds the protocol loaders from a map of spec type key to
// annex source (a file path or a literal document, see
// annex.NewFromSource). Unknown keys are an error.
func NewSpecs(annexes map[string]string) (*Specs, error) {
	specs := &Specs{}
	for key, source := range annexes {
		switch strings.ToLower(key) {
		case SpecTypeJ1939:
			loader, err := annex.NewFromSource(source)
			if err != nil {
				return nil, fmt.Errorf("canparser: failed to load %s annex: %w", SpecTypeJ1939, err)
			}
			specs.J1939 = loader
		case SpecTypeCAN, SpecTypeUDS, SpecTypeTransport:
			// recognized but not decoded yet
		default:
			return nil, fmt.Errorf("canparser: unknown spec key: %s", key)
		}
	}
	return specs, nil
}
