// Package gcode provides token-level parsing of line-oriented G-code:
// classification of each line into a closed set of kinds, word (address
// letter + number) extraction, and the small rewrites the optimizer needs.
// It does not build a geometric model of the program.
package gcode

import (
	"regexp"
	"strconv"
	"strings"
)

// Kind is the classification of a single G-code line. Every line is
// classified exactly once; downstream rules switch on the kind instead of
// re-matching the text.
type Kind int

const (
	KindBlank Kind = iota
	KindComment
	KindMarker       // bare program start/end marker "%"
	KindProgramEnd   // M2 / M30
	KindHoming       // G28
	KindModeSet      // G90 / G91
	KindSetup        // plane (G17-G19), units (G20/G21), work offset (G54-G59)
	KindToolSelect   // T<n> at line start
	KindSpindleStart // M3 / M4
	KindSpindleStop  // M5
	KindPause        // M0 / M1
	KindMotion       // G0-G3, or a bare axis/feedrate parameter line
	KindOther
)

// String returns a short name for the kind, used in debug logging.
func (k Kind) String() string {
	switch k {
	case KindBlank:
		return "blank"
	case KindComment:
		return "comment"
	case KindMarker:
		return "marker"
	case KindProgramEnd:
		return "program-end"
	case KindHoming:
		return "homing"
	case KindModeSet:
		return "mode-set"
	case KindSetup:
		return "setup"
	case KindToolSelect:
		return "tool-select"
	case KindSpindleStart:
		return "spindle-start"
	case KindSpindleStop:
		return "spindle-stop"
	case KindPause:
		return "pause"
	case KindMotion:
		return "motion"
	default:
		return "other"
	}
}

// Line is one classified G-code line. Raw preserves the original text;
// all predicates operate on the code portion with comments stripped.
type Line struct {
	Raw  string
	Kind Kind
}

var (
	commentRe = regexp.MustCompile(`\([^)]*\)`)
	wordRe    = regexp.MustCompile(`([A-Z])\s*([-+]?[0-9]*\.?[0-9]+)`)
	// commandRe matches any executable command word at line start, used by
	// the output validator to prove the program contains real content.
	commandRe = regexp.MustCompile(`^[GMT]\s*\d`)
)

// Parse classifies text into a Line.
func Parse(text string) Line {
	return Line{Raw: text, Kind: classify(text)}
}

// ParseAll classifies every line of a file.
func ParseAll(lines []string) []Line {
	out := make([]Line, len(lines))
	for i, s := range lines {
		out[i] = Parse(s)
	}
	return out
}

// classify maps a raw line to its kind. The first G, M, or T word decides;
// it is not always the first word on the line, since some posts emit the
// spindle speed before the command ("S12000 M3").
func classify(text string) Kind {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return KindBlank
	}
	if trimmed == "%" {
		return KindMarker
	}
	if strings.HasPrefix(trimmed, "(") {
		return KindComment
	}

	code := strings.ToUpper(stripComments(trimmed))
	modal := false
	for _, w := range wordRe.FindAllStringSubmatch(code, -1) {
		letter := w[1][0]
		switch letter {
		case 'N':
			// N words are line numbers, not commands.
			continue
		case 'X', 'Y', 'Z', 'F', 'S', 'I', 'J', 'R':
			// Axis and parameter words can precede the command word.
			modal = true
			continue
		case 'G', 'M', 'T':
			value, err := strconv.ParseFloat(w[2], 64)
			if err != nil {
				return KindOther
			}
			return classifyCommand(letter, int(value))
		default:
			return KindOther
		}
	}
	if modal {
		// Modal continuation line: axis/feedrate parameters without a
		// command word repeat the previous motion command.
		return KindMotion
	}
	return KindOther
}

// classifyCommand maps a G, M, or T command word to its kind.
func classifyCommand(letter byte, num int) Kind {
	switch letter {
	case 'T':
		return KindToolSelect
	case 'M':
		switch num {
		case 0, 1:
			return KindPause
		case 2, 30:
			return KindProgramEnd
		case 3, 4:
			return KindSpindleStart
		case 5:
			return KindSpindleStop
		default:
			return KindOther
		}
	case 'G':
		switch {
		case num >= 0 && num <= 3:
			return KindMotion
		case num == 28:
			return KindHoming
		case num == 90 || num == 91:
			return KindModeSet
		case num == 17 || num == 18 || num == 19,
			num == 20 || num == 21,
			num >= 54 && num <= 59:
			return KindSetup
		default:
			return KindOther
		}
	}
	return KindOther
}

// stripComments removes parenthesized comments from a line.
func stripComments(text string) string {
	return commentRe.ReplaceAllString(text, "")
}

// Code returns the uppercased code portion of the line, comments stripped.
func (l Line) Code() string {
	return strings.ToUpper(stripComments(l.Raw))
}

// Word returns the numeric value of the first word with the given address
// letter in the code portion of the line.
func (l Line) Word(letter byte) (float64, bool) {
	for _, m := range wordRe.FindAllStringSubmatch(l.Code(), -1) {
		if m[1][0] == letter {
			v, err := strconv.ParseFloat(m[2], 64)
			if err != nil {
				return 0, false
			}
			return v, true
		}
	}
	return 0, false
}

// RawWord returns the numeric value of the first word with the given address
// letter anywhere in text, comments included. Use it for values that live
// inside comment text, such as "(retract to Z15)".
func RawWord(text string, letter byte) (float64, bool) {
	for _, m := range wordRe.FindAllStringSubmatch(strings.ToUpper(text), -1) {
		if m[1][0] == letter {
			v, err := strconv.ParseFloat(m[2], 64)
			if err != nil {
				return 0, false
			}
			return v, true
		}
	}
	return 0, false
}

// HasWord reports whether the line carries a word with the given letter.
func (l Line) HasWord(letter byte) bool {
	_, ok := l.Word(letter)
	return ok
}

// GNumber returns the number of the leading G word, if the line is a
// G command. Line-number (N) words are skipped.
func (l Line) GNumber() (int, bool) {
	for _, m := range wordRe.FindAllStringSubmatch(l.Code(), -1) {
		switch m[1][0] {
		case 'N':
			continue
		case 'G':
			v, err := strconv.ParseFloat(m[2], 64)
			if err != nil {
				return 0, false
			}
			return int(v), true
		default:
			return 0, false
		}
	}
	return 0, false
}

// IsRapid reports whether the line is a rapid (G0) move.
func (l Line) IsRapid() bool {
	n, ok := l.GNumber()
	return ok && n == 0 && l.Kind == KindMotion
}

// IsCutting reports whether the line is a feedrate-controlled move
// (linear or circular interpolation).
func (l Line) IsCutting() bool {
	n, ok := l.GNumber()
	return ok && n >= 1 && n <= 3 && l.Kind == KindMotion
}

// IsBareZRetract reports whether the line is a motion line that moves only
// the Z axis. Such lines are the retracts the previous program ended with.
func (l Line) IsBareZRetract() bool {
	return l.Kind == KindMotion && l.HasWord('Z') && !l.HasWord('X') && !l.HasWord('Y')
}

// IsCommand reports whether the line starts with an executable command word.
func (l Line) IsCommand() bool {
	return commandRe.MatchString(l.Code())
}

var (
	cuttingGRe = regexp.MustCompile(`(?i)\bG0*([123])(\.\d+)?\b`)
	feedWordRe = regexp.MustCompile(`(?i)F\s*[-+]?[0-9]*\.?[0-9]+`)
	spaceRe    = regexp.MustCompile(`\s+`)
)

// RewriteRapid converts a cutting move to a rapid move and removes any
// explicit feedrate word; rapid moves run at the machine maximum, so a
// programmed feedrate is meaningless there. Whitespace is collapsed.
func RewriteRapid(text string) string {
	out := cuttingGRe.ReplaceAllString(text, "G0")
	out = feedWordRe.ReplaceAllString(out, "")
	return Collapse(out)
}

// ReplaceFeedrate substitutes the line's feedrate word with the given value.
// The line is returned unchanged when it carries no feedrate.
func ReplaceFeedrate(text string, feedrate float64) string {
	if !feedWordRe.MatchString(text) {
		return text
	}
	out := feedWordRe.ReplaceAllString(text, "F"+FormatNumber(feedrate))
	return Collapse(out)
}

// Collapse trims the line and collapses internal whitespace runs to single
// spaces.
func Collapse(text string) string {
	return spaceRe.ReplaceAllString(strings.TrimSpace(text), " ")
}

// FormatNumber renders a float the way post-processors do: no exponent,
// no trailing zeros.
func FormatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// BalanceParens returns the net parenthesis balance across lines: opens
// minus closes. Zero means every comment is closed.
func BalanceParens(lines []string) int {
	balance := 0
	for _, line := range lines {
		balance += strings.Count(line, "(") - strings.Count(line, ")")
	}
	return balance
}
