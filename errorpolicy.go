package canparser

import (
	"errors"
	"fmt"
	"sync"

	"github.com/jjepson/can-parser/internal/textutil"
)

// ErrorPolicy selects how the pipeline reacts to a per-line decode
// failure. Any value other than the two constants below is a programming
// error, rejected when the pipeline is built.
type ErrorPolicy string

const (
	// PolicyIgnore drops offending lines silently.
	PolicyIgnore ErrorPolicy = "ignore"
	// PolicyWarn retains offending lines' errors in the warning list and
	// continues.
	PolicyWarn ErrorPolicy = "warn"
)

// ErrUnknownErrorPolicy is returned by NewWarnings (and so by pipeline
// construction) when an ErrorPolicy value is neither PolicyIgnore nor
// PolicyWarn.
var ErrUnknownErrorPolicy = errors.New("canparser: unknown error policy")

// Warnings aggregates "line: reason" entries under a mutex so both the
// sequential and parallel pipeline can share one collector. Order is
// non-deterministic when fed from parallel workers.
type Warnings struct {
	mu      sync.Mutex
	policy  ErrorPolicy
	entries []string
}

// NewWarnings creates a collector enforcing the given policy. policy must
// be PolicyIgnore or PolicyWarn.
func NewWarnings(policy ErrorPolicy) (*Warnings, error) {
	switch policy {
	case PolicyIgnore, PolicyWarn:
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownErrorPolicy, policy)
	}
	return &Warnings{policy: policy}, nil
}

// record applies the configured policy to a per-line failure. Under
// PolicyIgnore it is a no-op; under PolicyWarn it appends a "line: reason"
// entry.
func (w *Warnings) record(line string, err error) {
	if w.policy == PolicyIgnore {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.entries = append(w.entries, fmt.Sprintf("%s: %s", textutil.EscapeControl(line), err))
}

// Entries returns a snapshot of the collected warnings. An empty result
// means the run was fully successful; a non-empty result does not
// invalidate any Frame that did decode.
func (w *Warnings) Entries() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]string, len(w.entries))
	copy(out, w.entries)
	return out
}
