package gcode

import (
	"regexp"
	"strconv"
	"strings"
)

// ToolInfo describes the cutting tool a program uses. Fields are nil/empty
// when the program never states them. Derived once per file; first match in
// file order wins.
type ToolInfo struct {
	Number      *int     `json:"number,omitempty"`
	Description string   `json:"description,omitempty"`
	Diameter    *float64 `json:"diameter,omitempty"`
}

// toolCommentRe matches CAM tool-definition comments such as
// "(T1  D=6.35 CR=0 - ZMIN=-10.2 - flat end mill)" or "(T2 engraver)".
// Captures: tool number, optional diameter, trailing description.
var toolCommentRe = regexp.MustCompile(`(?i)\(\s*T\s*(\d+)\s+(?:D\s*=\s*([0-9]*\.?[0-9]+)\s*)?([^)]*)\)`)

// toolSelectRe matches an explicit tool-select command at line start.
var toolSelectRe = regexp.MustCompile(`(?i)^T\s*(\d+)`)

// ExtractToolInfo scans lines for the first tool-definition comment; when no
// comment matches it falls back to the first explicit tool-select command.
// It never fails: a ToolInfo with unset fields is returned when nothing
// matches.
func ExtractToolInfo(lines []string) ToolInfo {
	var info ToolInfo

	for _, raw := range lines {
		trimmed := strings.TrimSpace(raw)
		if m := toolCommentRe.FindStringSubmatch(trimmed); m != nil {
			if n, err := strconv.Atoi(m[1]); err == nil {
				info.Number = &n
			}
			if m[2] != "" {
				if d, err := strconv.ParseFloat(m[2], 64); err == nil {
					info.Diameter = &d
				}
			}
			info.Description = cleanDescription(m[3])
			return info
		}
	}

	for _, raw := range lines {
		trimmed := strings.TrimSpace(raw)
		if m := toolSelectRe.FindStringSubmatch(trimmed); m != nil {
			if n, err := strconv.Atoi(m[1]); err == nil {
				info.Number = &n
			}
			return info
		}
	}

	return info
}

// cleanDescription trims separator punctuation CAM posts put between the
// tool geometry fields and the human-readable name.
func cleanDescription(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimLeft(s, "-– ")
	return Collapse(s)
}

// Label renders the tool for comments and pause messages: "T3" when only
// the number is known, "T3 (1/4in flat end mill)" when described.
func (t ToolInfo) Label() string {
	if t.Number == nil {
		return "unknown tool"
	}
	label := "T" + strconv.Itoa(*t.Number)
	if t.Description != "" {
		label += " (" + t.Description + ")"
	}
	return label
}

// SameTool reports whether two tools are known to be the same. Either side
// unknown means no tool change can be proven, which callers treat as "no
// change required".
func SameTool(a, b ToolInfo) bool {
	if a.Number == nil || b.Number == nil {
		return true
	}
	return *a.Number == *b.Number
}
