package merge

import (
	"fmt"

	"github.com/grbltools/gmerge/internal/errors"
	"github.com/grbltools/gmerge/internal/gcode"
	"github.com/grbltools/gmerge/internal/machine"
)

// Validate runs post-assembly sanity checks. A program with no executable
// command line is a hard failure: the pipeline produced nothing a machine
// could run. Everything else is a warning; final judgment stays with the
// operator.
func Validate(lines []string, profile machine.Profile) ([]string, error) {
	if len(lines) == 0 {
		return nil, errors.NewValidation("assembled output is empty")
	}

	hasCommand := false
	maxFeed := 0.0
	for _, raw := range lines {
		l := gcode.Parse(raw)
		if l.IsCommand() {
			hasCommand = true
		}
		if f, ok := l.Word('F'); ok && f > maxFeed {
			maxFeed = f
		}
	}
	if !hasCommand {
		return nil, errors.NewValidation("assembled output contains no command lines")
	}

	var warnings []string
	if balance := gcode.BalanceParens(lines); balance != 0 {
		warnings = append(warnings,
			fmt.Sprintf("unbalanced comment parentheses in output (balance %+d)", balance))
	}
	if lines[0] != programMarker || lines[len(lines)-1] != programMarker {
		warnings = append(warnings, "output is missing a program start/end marker")
	}
	if maxFeed > profile.MaxFeedrate {
		warnings = append(warnings, fmt.Sprintf(
			"output feedrate F%s exceeds %s profile maximum F%s",
			gcode.FormatNumber(maxFeed), profile.Name, gcode.FormatNumber(profile.MaxFeedrate)))
	}
	return warnings, nil
}
