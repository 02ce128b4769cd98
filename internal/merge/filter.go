package merge

import "github.com/grbltools/gmerge/internal/gcode"

// HeaderKind is the stitching path chosen for a file: the first file keeps
// its full preamble, later files get either a full tool-change block or a
// lightweight retract block.
type HeaderKind int

const (
	HeaderFirst HeaderKind = iota
	HeaderToolChange
	HeaderRetract
)

// String returns the header name used in summaries.
func (h HeaderKind) String() string {
	switch h {
	case HeaderFirst:
		return "first"
	case HeaderToolChange:
		return "tool-change"
	default:
		return "retract"
	}
}

// FileContext is the position-dependent context the filter rules consult.
type FileContext struct {
	Index   int
	IsFirst bool
	IsLast  bool
	Header  HeaderKind
}

// RunState is the per-file mutable tracking state threaded through the
// filter/optimizer pipeline. Reset at the start of each file, mutated
// line-by-line, discarded after the file is processed. Only retained lines
// update it: dropped lines never reach the machine.
type RunState struct {
	CurrentZ      *float64
	FirstMoveSeen bool
	SpindleOn     bool
	ModeSet       bool
}

// observe updates tracking state for a retained line. CurrentZ must be
// updated before the optimizer runs so that a plunge move sees its own
// target depth rather than the height it started from.
func (s *RunState) observe(l gcode.Line) {
	if z, ok := l.Word('Z'); ok {
		zv := z
		s.CurrentZ = &zv
	}
	switch l.Kind {
	case gcode.KindSpindleStart:
		s.SpindleOn = true
	case gcode.KindSpindleStop:
		s.SpindleOn = false
	}
}

// keepLine decides whether a line survives into the output. Rules are
// ordered; the first matching rule wins. Rewriting of kept lines is the
// optimizer's job and independent of this decision.
func keepLine(l gcode.Line, ctx FileContext, st *RunState) bool {
	switch l.Kind {
	case gcode.KindBlank, gcode.KindMarker:
		// Markers are reinserted once at final assembly.
		return false

	case gcode.KindProgramEnd:
		return ctx.IsLast

	case gcode.KindComment:
		return ctx.IsFirst || ctx.Header == HeaderToolChange

	case gcode.KindHoming:
		return ctx.IsFirst

	case gcode.KindModeSet:
		if st.ModeSet {
			return false
		}
		st.ModeSet = true
		return true
	}

	// Non-first retract lines repeat what the stitching block already did.
	if !ctx.IsFirst && l.IsBareZRetract() {
		return false
	}

	// A file joined without a tool change inherits the running setup from
	// the previous file, so its own setup is redundant. The last file keeps
	// everything so the machine ends in a defined state.
	if ctx.Header == HeaderRetract && !ctx.IsLast {
		switch l.Kind {
		case gcode.KindToolSelect, gcode.KindSetup, gcode.KindSpindleStop:
			return false
		}
	}

	return true
}
