package merge

import (
	"fmt"

	"github.com/grbltools/gmerge/internal/gcode"
)

// Sequencer emits the stitching blocks between consecutive files.
type Sequencer struct {
	SafeHeight float64
}

// ToolChange emits the full inter-file header: stop the spindle, retract,
// home Z, pause for the operator to swap tools, restore absolute mode.
// fileIndex is the zero-based index of the incoming file.
func (s Sequencer) ToolChange(prev, next *FileRecord, fileIndex int) []string {
	block := []string{
		"",
		fmt.Sprintf("(=== Tool change before file %d ===)", fileIndex+1),
		"M5",
		"G0 Z" + gcode.FormatNumber(s.SafeHeight),
		"G28 Z0",
	}

	if prev.Tool.Number != nil && next.Tool.Number != nil {
		block = append(block, fmt.Sprintf("(%s -> %s)", prev.Tool.Label(), next.Tool.Label()))
	}

	nextLabel := "new tool"
	if next.Tool.Number != nil {
		nextLabel = fmt.Sprintf("T%d", *next.Tool.Number)
	}
	block = append(block,
		fmt.Sprintf("M0 (Change tool to %s)", nextLabel),
		"G90",
		"",
	)
	return block
}

// Retract emits the lightweight block used when no tool change is needed:
// a comment and a single retract to the safe height. No pause, no homing.
func (s Sequencer) Retract(fileIndex int) []string {
	return []string{
		fmt.Sprintf("(File %d: same tool, retracting)", fileIndex+1),
		"G0 Z" + gcode.FormatNumber(s.SafeHeight),
		"",
	}
}
