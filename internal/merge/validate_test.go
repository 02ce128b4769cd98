package merge

import (
	"strings"
	"testing"

	"github.com/grbltools/gmerge/internal/errors"
)

func TestValidate_HappyPath(t *testing.T) {
	lines := []string{"%", "(job)", "G0 X0", "G1 Z-1 F100", "M30", "%"}
	warnings, err := Validate(lines, genericProfile())
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if len(warnings) != 0 {
		t.Errorf("warnings = %v, want none", warnings)
	}
}

func TestValidate_NoCommandsIsFatal(t *testing.T) {
	lines := []string{"%", "(only comments)", "%"}
	_, err := Validate(lines, genericProfile())
	if !errors.Is(err, errors.ErrValidation) {
		t.Errorf("err = %v, want VALIDATION", err)
	}
}

func TestValidate_EmptyIsFatal(t *testing.T) {
	_, err := Validate(nil, genericProfile())
	if !errors.Is(err, errors.ErrValidation) {
		t.Errorf("err = %v, want VALIDATION", err)
	}
}

func TestValidate_UnbalancedParensWarns(t *testing.T) {
	lines := []string{"%", "(open comment", "G0 X0", "M30", "%"}
	warnings, err := Validate(lines, genericProfile())
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if !containsSubstring(warnings, "unbalanced") {
		t.Errorf("warnings = %v, want parenthesis warning", warnings)
	}
}

func TestValidate_MissingMarkersWarns(t *testing.T) {
	lines := []string{"G0 X0", "M30"}
	warnings, err := Validate(lines, genericProfile())
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if !containsSubstring(warnings, "marker") {
		t.Errorf("warnings = %v, want marker warning", warnings)
	}
}

func TestValidate_FeedrateCeilingWarns(t *testing.T) {
	lines := []string{"%", "G1 X0 F9999", "M30", "%"}
	warnings, err := Validate(lines, genericProfile())
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if !containsSubstring(warnings, "exceeds") {
		t.Errorf("warnings = %v, want feedrate warning", warnings)
	}
}

func containsSubstring(ss []string, sub string) bool {
	for _, s := range ss {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
