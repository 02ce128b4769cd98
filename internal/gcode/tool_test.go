package gcode

import "testing"

func TestExtractToolInfo_Comment(t *testing.T) {
	lines := []string{
		"%",
		"(contour2d)",
		"(T1  D=6.35 CR=0 - ZMIN=-10.2 - flat end mill)",
		"G90 G94",
		"T1 M6",
	}

	info := ExtractToolInfo(lines)
	if info.Number == nil || *info.Number != 1 {
		t.Fatalf("Number = %v, want 1", info.Number)
	}
	if info.Diameter == nil || *info.Diameter != 6.35 {
		t.Fatalf("Diameter = %v, want 6.35", info.Diameter)
	}
	if info.Description != "CR=0 - ZMIN=-10.2 - flat end mill" {
		t.Errorf("Description = %q", info.Description)
	}
}

func TestExtractToolInfo_CommentWithoutDiameter(t *testing.T) {
	lines := []string{"(T7 engraving bit)"}

	info := ExtractToolInfo(lines)
	if info.Number == nil || *info.Number != 7 {
		t.Fatalf("Number = %v, want 7", info.Number)
	}
	if info.Diameter != nil {
		t.Errorf("Diameter = %v, want nil", *info.Diameter)
	}
	if info.Description != "engraving bit" {
		t.Errorf("Description = %q, want %q", info.Description, "engraving bit")
	}
}

func TestExtractToolInfo_FirstMatchWins(t *testing.T) {
	lines := []string{
		"(T2 first tool)",
		"(T9 second tool)",
	}
	info := ExtractToolInfo(lines)
	if info.Number == nil || *info.Number != 2 {
		t.Errorf("Number = %v, want first match 2", info.Number)
	}
}

func TestExtractToolInfo_ToolSelectFallback(t *testing.T) {
	lines := []string{
		"(no tool definition here)",
		"G90",
		"T3 M6",
		"M3 S10000",
	}
	info := ExtractToolInfo(lines)
	if info.Number == nil || *info.Number != 3 {
		t.Fatalf("Number = %v, want 3", info.Number)
	}
	if info.Description != "" {
		t.Errorf("Description = %q, want empty for fallback", info.Description)
	}
}

func TestExtractToolInfo_Nothing(t *testing.T) {
	lines := []string{"G0 X0 Y0", "G1 Z-1 F100", "M30"}
	info := ExtractToolInfo(lines)
	if info.Number != nil || info.Diameter != nil || info.Description != "" {
		t.Errorf("ToolInfo = %+v, want all unset", info)
	}
}

func TestSameTool(t *testing.T) {
	one, two := 1, 2
	tests := []struct {
		name string
		a, b ToolInfo
		want bool
	}{
		{"both known equal", ToolInfo{Number: &one}, ToolInfo{Number: &one}, true},
		{"both known differ", ToolInfo{Number: &one}, ToolInfo{Number: &two}, false},
		{"left unknown", ToolInfo{}, ToolInfo{Number: &two}, true},
		{"right unknown", ToolInfo{Number: &one}, ToolInfo{}, true},
		{"both unknown", ToolInfo{}, ToolInfo{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SameTool(tt.a, tt.b); got != tt.want {
				t.Errorf("SameTool = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestToolLabel(t *testing.T) {
	three := 3
	if got := (ToolInfo{Number: &three, Description: "ball nose"}).Label(); got != "T3 (ball nose)" {
		t.Errorf("Label = %q", got)
	}
	if got := (ToolInfo{Number: &three}).Label(); got != "T3" {
		t.Errorf("Label = %q", got)
	}
	if got := (ToolInfo{}).Label(); got != "unknown tool" {
		t.Errorf("Label = %q", got)
	}
}
