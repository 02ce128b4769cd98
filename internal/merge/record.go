// Package merge implements the G-code transformation engine: per-file tool
// extraction, safe-height estimation, the line filter/optimizer pipeline,
// tool-change sequencing, multi-file concatenation, and output validation.
package merge

import (
	"github.com/grbltools/gmerge/internal/fsutil"
	"github.com/grbltools/gmerge/internal/gcode"
)

// FileStats summarizes one input program. Computed once when the file is
// first loaded.
type FileStats struct {
	MotionCount  int     `json:"motion_count"`
	SpindleCount int     `json:"spindle_count"`
	MaxFeedrate  float64 `json:"max_feedrate"`
	UsesX        bool    `json:"uses_x"`
	UsesY        bool    `json:"uses_y"`
	UsesZ        bool    `json:"uses_z"`
}

// FileRecord is one input program: its raw lines, classified lines, tool
// identity, and metadata. Immutable for the duration of a run.
type FileRecord struct {
	Path   string
	Lines  []string
	Parsed []gcode.Line
	Tool   gcode.ToolInfo
	Stats  FileStats
}

// Loader reads and memoizes FileRecords keyed by path. Each file is read
// and analyzed at most once per run.
type Loader struct {
	records map[string]*FileRecord
}

// NewLoader creates an empty Loader.
func NewLoader() *Loader {
	return &Loader{records: make(map[string]*FileRecord)}
}

// Load returns the record for path, reading and analyzing the file on
// first access. Missing, unreadable, and empty files surface as access
// errors.
func (l *Loader) Load(path string) (*FileRecord, error) {
	if rec, ok := l.records[path]; ok {
		return rec, nil
	}

	lines, err := fsutil.ReadLines(path)
	if err != nil {
		return nil, err
	}

	parsed := gcode.ParseAll(lines)
	rec := &FileRecord{
		Path:   path,
		Lines:  lines,
		Parsed: parsed,
		Tool:   gcode.ExtractToolInfo(lines),
		Stats:  computeStats(parsed),
	}
	l.records[path] = rec
	return rec, nil
}

// computeStats derives per-file metadata from the classified lines.
func computeStats(parsed []gcode.Line) FileStats {
	var st FileStats
	for _, l := range parsed {
		switch l.Kind {
		case gcode.KindMotion:
			st.MotionCount++
		case gcode.KindSpindleStart, gcode.KindSpindleStop:
			st.SpindleCount++
		}
		if f, ok := l.Word('F'); ok && f > st.MaxFeedrate {
			st.MaxFeedrate = f
		}
		st.UsesX = st.UsesX || l.HasWord('X')
		st.UsesY = st.UsesY || l.HasWord('Y')
		st.UsesZ = st.UsesZ || l.HasWord('Z')
	}
	return st
}
