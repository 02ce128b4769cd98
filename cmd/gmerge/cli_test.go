package main

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/urfave/cli/v2"

	"github.com/grbltools/gmerge/internal/config"
	"github.com/grbltools/gmerge/internal/history"
	"github.com/grbltools/gmerge/internal/merge"
)

// setupTestDB creates a temporary run ledger for testing.
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	database, err := history.Init(t.TempDir())
	if err != nil {
		t.Fatalf("failed to init test db: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	return database
}

// runCapture runs the app with the given args and returns captured stdout.
func runCapture(t *testing.T, app *cli.App, args ...string) (string, error) {
	t.Helper()

	oldStdout := os.Stdout
	r, w, _ := os.Pipe()
	os.Stdout = w

	err := app.Run(append([]string{"gmerge"}, args...))

	w.Close()
	var buf bytes.Buffer
	_, _ = buf.ReadFrom(r)
	os.Stdout = oldStdout

	return buf.String(), err
}

func writeTestProgram(t *testing.T, dir, name string, lines ...string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func writeTestPrograms(t *testing.T, dir string) (string, string) {
	t.Helper()
	a := writeTestProgram(t, dir, "rough.nc",
		"(T1 D=6.35 - flat end mill)",
		"G90 G21",
		"T1 M6",
		"M3 S12000",
		"G0 Z15",
		"G0 X0 Y0",
		"G1 Z-1 F300",
		"G1 X50 F1200",
		"M30",
	)
	b := writeTestProgram(t, dir, "finish.nc",
		"(T2 D=3.175 - ball nose)",
		"G90 G21",
		"T2 M6",
		"M3 S10000",
		"G0 Z15",
		"G1 Z-2 F250",
		"G1 Y40 F900",
		"M30",
	)
	return a, b
}

// TestCLIMerge tests the merge command end to end.
func TestCLIMerge(t *testing.T) {
	database := setupTestDB(t)
	app := newCLIApp(database, config.DefaultConfig())

	dir := t.TempDir()
	a, b := writeTestPrograms(t, dir)
	outPath := filepath.Join(dir, "merged.nc")

	stdout, err := runCapture(t, app, "merge", "-o", outPath, a, b)
	if err != nil {
		t.Fatalf("merge command failed: %v", err)
	}

	var output merge.MergeOutput
	if err := json.Unmarshal([]byte(stdout), &output); err != nil {
		t.Fatalf("failed to parse output: %v\nOutput: %s", err, stdout)
	}

	if output.OutputPath != outPath {
		t.Errorf("output_path = %q, want %q", output.OutputPath, outPath)
	}
	if len(output.Files) != 2 {
		t.Errorf("got %d file summaries, want 2", len(output.Files))
	}
	if _, err := os.Stat(outPath); err != nil {
		t.Errorf("output file not written: %v", err)
	}

	runs, err := history.List(database, 10)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(runs) != 1 {
		t.Errorf("got %d history runs, want 1", len(runs))
	}
}

// TestCLIMerge_DryRun verifies nothing is written or recorded.
func TestCLIMerge_DryRun(t *testing.T) {
	database := setupTestDB(t)
	app := newCLIApp(database, config.DefaultConfig())

	dir := t.TempDir()
	a, b := writeTestPrograms(t, dir)
	outPath := filepath.Join(dir, "merged.nc")

	stdout, err := runCapture(t, app, "merge", "--dry-run", "-o", outPath, a, b)
	if err != nil {
		t.Fatalf("merge command failed: %v", err)
	}

	var output merge.MergeOutput
	if err := json.Unmarshal([]byte(stdout), &output); err != nil {
		t.Fatalf("failed to parse output: %v", err)
	}
	if !output.DryRun {
		t.Error("dry_run should be set in output")
	}

	if _, err := os.Stat(outPath); !os.IsNotExist(err) {
		t.Error("dry run should not write the output file")
	}
	runs, _ := history.List(database, 10)
	if len(runs) != 0 {
		t.Errorf("dry run should not be recorded, got %d runs", len(runs))
	}
}

// TestCLIMerge_MissingInput expects an ACCESS error.
func TestCLIMerge_MissingInput(t *testing.T) {
	database := setupTestDB(t)
	app := newCLIApp(database, config.DefaultConfig())

	dir := t.TempDir()
	_, err := runCapture(t, app, "merge",
		"-o", filepath.Join(dir, "merged.nc"),
		filepath.Join(dir, "nope.nc"))
	if err == nil {
		t.Fatal("expected error for missing input")
	}
	if !strings.Contains(err.Error(), "[ACCESS]") {
		t.Errorf("error = %q, want ACCESS code", err.Error())
	}
}

// TestCLIMerge_NoInputs expects an invalid-request error.
func TestCLIMerge_NoInputs(t *testing.T) {
	database := setupTestDB(t)
	app := newCLIApp(database, config.DefaultConfig())

	_, err := runCapture(t, app, "merge", "-o", "merged.nc")
	if err == nil {
		t.Fatal("expected error for no inputs")
	}
	if !strings.Contains(err.Error(), "[INVALID_REQUEST]") {
		t.Errorf("error = %q, want INVALID_REQUEST code", err.Error())
	}
}

// TestCLIMerge_Report verifies the report files are written.
func TestCLIMerge_Report(t *testing.T) {
	database := setupTestDB(t)
	app := newCLIApp(database, config.DefaultConfig())

	dir := t.TempDir()
	a, b := writeTestPrograms(t, dir)
	mdPath := filepath.Join(dir, "merge.md")
	htmlPath := filepath.Join(dir, "merge.html")

	_, err := runCapture(t, app, "merge",
		"-o", filepath.Join(dir, "merged.nc"),
		"--report", mdPath,
		"--html", htmlPath,
		a, b)
	if err != nil {
		t.Fatalf("merge command failed: %v", err)
	}

	md, err := os.ReadFile(mdPath)
	if err != nil {
		t.Fatalf("report not written: %v", err)
	}
	if !strings.Contains(string(md), "# gmerge summary") {
		t.Error("report missing summary heading")
	}

	html, err := os.ReadFile(htmlPath)
	if err != nil {
		t.Fatalf("HTML report not written: %v", err)
	}
	if !strings.Contains(string(html), "<h1") {
		t.Error("HTML report missing rendered heading")
	}
}

// TestCLIEstimate tests the estimate command.
func TestCLIEstimate(t *testing.T) {
	app := newCLIApp(setupTestDB(t), config.DefaultConfig())

	dir := t.TempDir()
	a, _ := writeTestPrograms(t, dir)

	stdout, err := runCapture(t, app, "estimate", "--safe-height", "250", a)
	if err != nil {
		t.Fatalf("estimate command failed: %v", err)
	}

	var output merge.EstimateOutput
	if err := json.Unmarshal([]byte(stdout), &output); err != nil {
		t.Fatalf("failed to parse output: %v", err)
	}
	if output.SafeHeight != 100 {
		t.Errorf("safe_height = %v, want clamped to 100", output.SafeHeight)
	}
	if output.Source != "override" {
		t.Errorf("source = %q, want override", output.Source)
	}
}

// TestCLIInfo tests the info command.
func TestCLIInfo(t *testing.T) {
	app := newCLIApp(setupTestDB(t), config.DefaultConfig())

	dir := t.TempDir()
	a, b := writeTestPrograms(t, dir)

	stdout, err := runCapture(t, app, "info", a, b)
	if err != nil {
		t.Fatalf("info command failed: %v", err)
	}

	var output merge.InfoOutput
	if err := json.Unmarshal([]byte(stdout), &output); err != nil {
		t.Fatalf("failed to parse output: %v", err)
	}
	if len(output.Files) != 2 {
		t.Fatalf("got %d files, want 2", len(output.Files))
	}
	if output.Files[0].Tool.Number == nil || *output.Files[0].Tool.Number != 1 {
		t.Errorf("first tool = %+v, want T1", output.Files[0].Tool)
	}
}

// TestCLIHistory tests the history command.
func TestCLIHistory(t *testing.T) {
	database := setupTestDB(t)
	app := newCLIApp(database, config.DefaultConfig())

	for i, id := range []string{"01AAA", "01BBB", "01CCC"} {
		err := history.Record(database, history.Run{
			ID:         id,
			CreatedAt:  int64(i),
			OutputPath: "merged.nc",
			Machine:    "generic",
		})
		if err != nil {
			t.Fatalf("Record: %v", err)
		}
	}

	stdout, err := runCapture(t, app, "history", "--limit", "2")
	if err != nil {
		t.Fatalf("history command failed: %v", err)
	}

	var output struct {
		Runs []history.Run `json:"runs"`
	}
	if err := json.Unmarshal([]byte(stdout), &output); err != nil {
		t.Fatalf("failed to parse output: %v", err)
	}
	if len(output.Runs) != 2 {
		t.Fatalf("got %d runs, want 2", len(output.Runs))
	}
	if output.Runs[0].ID != "01CCC" {
		t.Errorf("runs[0].ID = %q, want newest first", output.Runs[0].ID)
	}
}

// TestCLIMerge_MachineFlag verifies the profile flag reaches the output.
func TestCLIMerge_MachineFlag(t *testing.T) {
	app := newCLIApp(setupTestDB(t), config.DefaultConfig())

	dir := t.TempDir()
	a, b := writeTestPrograms(t, dir)

	stdout, err := runCapture(t, app, "merge",
		"-o", filepath.Join(dir, "merged.nc"),
		"-m", "xcarve",
		a, b)
	if err != nil {
		t.Fatalf("merge command failed: %v", err)
	}

	var output merge.MergeOutput
	if err := json.Unmarshal([]byte(stdout), &output); err != nil {
		t.Fatalf("failed to parse output: %v", err)
	}
	if output.Machine != "xcarve" {
		t.Errorf("machine = %q, want xcarve", output.Machine)
	}
}

func TestMachineNames(t *testing.T) {
	names := machineNames()
	if !strings.Contains(names, "generic") {
		t.Errorf("machineNames() = %q, want to contain generic", names)
	}
	if !strings.Contains(names, "|") {
		t.Errorf("machineNames() = %q, want pipe-separated", names)
	}
}

func TestIsCLIMode(t *testing.T) {
	oldArgs := os.Args
	defer func() { os.Args = oldArgs }()

	tests := []struct {
		args []string
		want bool
	}{
		{[]string{"gmerge"}, false},
		{[]string{"gmerge", "merge"}, true},
		{[]string{"gmerge", "estimate"}, true},
		{[]string{"gmerge", "info"}, true},
		{[]string{"gmerge", "history"}, true},
		{[]string{"gmerge", "--help"}, true},
		{[]string{"gmerge", "--version"}, true},
		{[]string{"gmerge", "bogus"}, false},
	}
	for _, tt := range tests {
		os.Args = tt.args
		if got := isCLIMode(); got != tt.want {
			t.Errorf("isCLIMode(%v) = %v, want %v", tt.args, got, tt.want)
		}
	}
}
