package merge

import (
	"github.com/grbltools/gmerge/internal/gcode"
	"github.com/grbltools/gmerge/internal/machine"
)

// Optimizer rewrites retained lines. Two independent rules:
//
//  1. In fast mode, a cutting move executed at or above the safe height is
//     turned into a rapid move with the feedrate word removed. Rapid moves
//     run at the machine maximum, so a programmed feedrate there is
//     meaningless and potentially limiting.
//  2. A rapid move that explicitly carries a feedrate gets the profile's
//     rapid feedrate instead, normalizing inconsistent post-processor output.
type Optimizer struct {
	Fast       bool
	SafeHeight float64
	Profile    machine.Profile
}

// Rewrite returns the output text for a retained line. The state must
// already reflect the line itself (CurrentZ includes the line's own Z), so
// a plunge below the safe height is never converted to a rapid.
func (o Optimizer) Rewrite(l gcode.Line, st *RunState) string {
	text := l.Raw

	if o.Fast && l.IsCutting() && st.CurrentZ != nil && *st.CurrentZ >= o.SafeHeight {
		text = gcode.RewriteRapid(text)
	}

	if l.IsRapid() && l.HasWord('F') {
		text = gcode.ReplaceFeedrate(text, o.Profile.RapidFeedrate)
	}

	return text
}
