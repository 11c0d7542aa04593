package canparser

import (
	"runtime"
	"sync"

	"github.com/jjepson/can-parser/annex"
)

// Pipeline composes a LineParser, an identifier decoder, an annex-backed
// PGN cache and the SPN bit-extractor into one per-line decode step, run
// either sequentially or over a worker pool. A Pipeline is reusable
// across calls to Run/RunParallel; its cache accumulates across calls.
type Pipeline struct {
	lp     *LineParser
	loader annex.Loader
	cache  *annex.Cache
	policy ErrorPolicy
}

// NewPipeline builds a Pipeline. loader may be nil: frames with extended
// identifiers then decode with an empty SPN map, as if every annex lookup
// missed, unless their PGN is already in the cache (see Cache).
func NewPipeline(lp *LineParser, loader annex.Loader, policy ErrorPolicy) (*Pipeline, error) {
	if _, err := NewWarnings(policy); err != nil {
		return nil, err
	}
	return &Pipeline{lp: lp, loader: loader, cache: annex.NewCache(), policy: policy}, nil
}

// Cache exposes the pipeline's PGN layout cache, e.g. for inspection in
// tests or for seeding before a run.
func (p *Pipeline) Cache() *annex.Cache {
	return p.cache
}

// Run decodes lines sequentially, preserving input order in the returned
// Batch.
func (p *Pipeline) Run(lines []string) (Batch, error) {
	warnings, err := NewWarnings(p.policy)
	if err != nil {
		return Batch{}, err
	}

	frames := make([]Frame, 0, len(lines))
	for _, line := range lines {
		if frame, ok := p.decodeLine(line, warnings); ok {
			frames = append(frames, frame)
		}
	}
	return p.finish(frames, warnings), nil
}

// RunParallel decodes lines over a pool of workers. If workers <= 0, it
// defaults to GOMAXPROCS. The returned Batch has the same multiset of
// Frames as Run would produce, but not necessarily the same order.
func (p *Pipeline) RunParallel(lines []string, workers int) (Batch, error) {
	warnings, err := NewWarnings(p.policy)
	if err != nil {
		return Batch{}, err
	}
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	jobs := make(chan string)
	results := make(chan Frame)

	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			for line := range jobs {
				if frame, ok := p.decodeLine(line, warnings); ok {
					results <- frame
				}
			}
		}()
	}
	go func() {
		for _, line := range lines {
			jobs <- line
		}
		close(jobs)
	}()
	go func() {
		wg.Wait()
		close(results)
	}()

	frames := make([]Frame, 0, len(lines))
	for frame := range results {
		frames = append(frames, frame)
	}
	return p.finish(frames, warnings), nil
}

func (p *Pipeline) finish(frames []Frame, warnings *Warnings) Batch {
	return Batch{
		Frames:       frames,
		SpecSnapshot: p.cache.Snapshot(),
		Warnings:     warnings.Entries(),
	}
}

// decodeLine runs one line through E -> A -> (D/C) -> B. The second
// return value is false when the line should be dropped (no match, or a
// failure under the configured error policy).
func (p *Pipeline) decodeLine(line string, warnings *Warnings) (Frame, bool) {
	parsed, err := p.lp.Parse(line)
	if err != nil {
		warnings.record(line, err)
		return Frame{}, false
	}

	var frame Frame
	if parsed.HasTimestamp {
		frame.Timestamp = parsed.Timestamp
	}
	if parsed.HasData {
		frame.Payload = parsed.Payload
		frame.Len = parsed.Len
	}
	if !parsed.HasID {
		return frame, true
	}

	id, err := ParseIdentifier(parsed.ID)
	if err != nil {
		warnings.record(line, err)
		return Frame{}, false
	}
	frame.Identifier = id

	if id.Flags.Extended {
		// SPN extraction always sees the full 64-byte buffer, not just the
		// decoded prefix: the clamp in ExtractSPN is against the buffer, so
		// a 16-bit SPN in an 8-byte frame still decodes whole.
		frame.SPNs = p.resolveSPNs(id.PGN, frame.Payload[:])
	}
	return frame, true
}

// resolveSPNs resolves the PGN's layout (cache first, annex on a miss)
// and runs the bit-extractor over it. An annex failure yields an empty
// SPN map rather than an error: a PGN the annex is silent on is not a
// per-line failure, and is not cached.
func (p *Pipeline) resolveSPNs(pgn uint16, payload []byte) map[uint16]float32 {
	layout, ok := p.cache.Get(pgn)
	if !ok {
		if p.loader == nil {
			return nil
		}
		found, err := p.loader.Lookup(pgn)
		if err != nil {
			return nil
		}
		p.cache.Put(pgn, found)
		layout = found
	}
	if len(layout.SPNs) == 0 {
		return nil
	}

	spns := make(map[uint16]float32, len(layout.SPNs))
	for id, spec := range layout.SPNs {
		spns[id] = ExtractSPN(payload, SPNLayout{
			StartBit:   spec.StartBit,
			Length:     spec.Length,
			Resolution: spec.Resolution,
			Offset:     spec.Offset,
			Max:        spec.Max,
		})
	}
	return spns
}
