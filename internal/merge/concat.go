package merge

import (
	"github.com/grbltools/gmerge/internal/gcode"
	"github.com/grbltools/gmerge/internal/machine"
)

// programMarker bounds every assembled program.
const programMarker = "%"

// programEnd is the canonical program-end command inserted when the last
// file did not carry one of its own.
const programEnd = "M30"

// FileSummary reports what happened to one input file during concatenation.
type FileSummary struct {
	Path     string         `json:"path"`
	Tool     gcode.ToolInfo `json:"tool"`
	Header   string         `json:"header"`
	LinesIn  int            `json:"lines_in"`
	LinesOut int            `json:"lines_out"`
	Stats    FileStats      `json:"stats"`
}

// Concatenate processes files strictly in input order: each file's header
// depends on the previous file's tool identity, so reordering is not
// possible. It returns the assembled program and per-file summaries.
func Concatenate(files []*FileRecord, safeHeight float64, fast bool, profile machine.Profile) ([]string, []FileSummary) {
	seq := Sequencer{SafeHeight: safeHeight}
	opt := Optimizer{Fast: fast, SafeHeight: safeHeight, Profile: profile}

	var body []string
	summaries := make([]FileSummary, 0, len(files))
	spindleOn := false

	for i, f := range files {
		ctx := FileContext{
			Index:   i,
			IsFirst: i == 0,
			IsLast:  i == len(files)-1,
		}
		switch {
		case i == 0:
			ctx.Header = HeaderFirst
		case !gcode.SameTool(files[i-1].Tool, f.Tool):
			ctx.Header = HeaderToolChange
			body = append(body, seq.ToolChange(files[i-1], f, ctx.Index)...)
		default:
			ctx.Header = HeaderRetract
			body = append(body, seq.Retract(ctx.Index)...)
		}

		st := &RunState{}
		kept := 0
		for _, l := range f.Parsed {
			if !keepLine(l, ctx, st) {
				continue
			}
			st.observe(l)
			body = append(body, opt.Rewrite(l, st))
			kept++
			if l.Kind == gcode.KindMotion && !st.FirstMoveSeen {
				st.FirstMoveSeen = true
			}
		}
		spindleOn = st.SpindleOn

		summaries = append(summaries, FileSummary{
			Path:     f.Path,
			Tool:     f.Tool,
			Header:   ctx.Header.String(),
			LinesIn:  len(f.Lines),
			LinesOut: kept,
			Stats:    f.Stats,
		})
	}

	return assemble(body, spindleOn), summaries
}

// assemble wraps the body in program markers, makes sure the program-end
// command appears exactly once immediately before the trailing marker, and
// forces a spindle stop when the last file left the spindle running.
func assemble(body []string, spindleOn bool) []string {
	// Lift every kept program-end command out of the body. A retained line
	// can follow the last file's M30 (a trailing comment, say), so peeling
	// only the tail would leave the original in place and emit a second one.
	end := ""
	kept := make([]string, 0, len(body))
	for _, raw := range body {
		if gcode.Parse(raw).Kind == gcode.KindProgramEnd {
			if end == "" {
				end = raw
			}
			continue
		}
		kept = append(kept, raw)
	}
	for len(kept) > 0 && gcode.Parse(kept[len(kept)-1]).Kind == gcode.KindBlank {
		kept = kept[:len(kept)-1]
	}
	if end == "" {
		end = programEnd
	}

	out := make([]string, 0, len(kept)+4)
	out = append(out, programMarker)
	out = append(out, kept...)
	if spindleOn {
		out = append(out, "M5")
	}
	out = append(out, end, programMarker)
	return out
}
