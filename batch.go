package canparser

import "github.com/jjepson/can-parser/annex"

// Batch is the complete result of decoding an input stream: every Frame
// that decoded, in whatever order the pipeline produced them, plus a
// snapshot of every PGN layout the run actually touched. Sinks consume a
// Batch; nothing downstream needs a live handle to the pipeline's cache.
type Batch struct {
	Frames       []Frame
	SpecSnapshot map[uint16]annex.SpecPGN
	Warnings     []string
}
