package merge

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/grbltools/gmerge/internal/config"
	"github.com/grbltools/gmerge/internal/errors"
	"github.com/grbltools/gmerge/internal/fsutil"
	"github.com/grbltools/gmerge/internal/gcode"
	"github.com/grbltools/gmerge/internal/machine"
)

// MergeInput contains parameters for the Merge operation.
type MergeInput struct {
	Inputs []string
	Output string
	// Fast enables rapid-move substitution above the safe height.
	Fast bool
	// DryRun runs the full pipeline but suppresses the file write.
	DryRun bool
	// SafeHeightOverride bypasses the heuristics when set.
	SafeHeightOverride *float64
}

// MergeOutput contains the result of the Merge operation.
type MergeOutput struct {
	OutputPath       string        `json:"output_path"`
	BackupPath       string        `json:"backup_path,omitempty"`
	Lines            []string      `json:"-"`
	TotalLines       int           `json:"total_lines"`
	CommandCount     int           `json:"command_count"`
	SafeHeight       float64       `json:"safe_height"`
	SafeHeightSource string        `json:"safe_height_source"`
	Machine          string        `json:"machine"`
	Fast             bool          `json:"fast"`
	DryRun           bool          `json:"dry_run,omitempty"`
	Files            []FileSummary `json:"files"`
	Warnings         []string      `json:"warnings,omitempty"`
}

// Merge runs the whole pipeline: load and analyze every input, infer the
// safe height from the first file, concatenate with stitching blocks,
// validate, and (unless dry-run) back up and write the output. Access and
// validation errors abort with nothing written.
func Merge(cfg *config.Config, input MergeInput) (*MergeOutput, error) {
	if len(input.Inputs) == 0 {
		return nil, errors.NewInvalidRequest("at least one input file is required")
	}
	if input.Output == "" {
		return nil, errors.NewInvalidRequest("output path is required")
	}

	var warnings []string
	profile, known := machine.Lookup(cfg.Machine)
	if !known {
		warnings = append(warnings, fmt.Sprintf(
			"unknown machine profile %q, using generic", cfg.Machine))
	}

	// Access errors surface before any transformation begins: the output
	// location is checked first, then every input is read up front.
	outputPath := resolveOutputPath(cfg, input.Output)
	if !input.DryRun {
		if err := fsutil.CheckWritable(outputPath); err != nil {
			return nil, err
		}
	}

	loader := NewLoader()
	files := make([]*FileRecord, 0, len(input.Inputs))
	for _, path := range input.Inputs {
		rec, err := loader.Load(path)
		if err != nil {
			return nil, err
		}
		files = append(files, rec)
	}

	est := EstimateSafeHeight(files[0].Parsed, EstimatorConfig{
		Override:  input.SafeHeightOverride,
		Threshold: cfg.FeedrateThreshold,
		Floor:     cfg.SafeHeightFloor,
		Profile:   profile,
	})
	warnings = append(warnings, est.Warnings...)

	lines, summaries := Concatenate(files, est.Height, input.Fast, profile)

	validationWarnings, err := Validate(lines, profile)
	if err != nil {
		return nil, err
	}
	warnings = append(warnings, validationWarnings...)

	out := &MergeOutput{
		OutputPath:       outputPath,
		Lines:            lines,
		TotalLines:       len(lines),
		CommandCount:     countCommands(lines),
		SafeHeight:       est.Height,
		SafeHeightSource: est.Source,
		Machine:          profile.Name,
		Fast:             input.Fast,
		DryRun:           input.DryRun,
		Files:            summaries,
		Warnings:         warnings,
	}

	if input.DryRun {
		return out, nil
	}

	if !cfg.DisableBackup {
		backupPath, err := fsutil.Backup(outputPath, time.Now())
		if err != nil {
			// Secondary artifact: never aborts the primary run.
			out.Warnings = append(out.Warnings, fmt.Sprintf("backup failed: %v", err))
		} else {
			out.BackupPath = backupPath
		}
	}

	if err := fsutil.WriteLines(outputPath, lines); err != nil {
		return nil, err
	}
	return out, nil
}

// resolveOutputPath joins a relative output path with the configured
// output directory, when one is set.
func resolveOutputPath(cfg *config.Config, output string) string {
	if cfg.OutputDir == "" || filepath.IsAbs(output) {
		return output
	}
	return filepath.Join(cfg.OutputDir, output)
}

// countCommands counts executable command lines in the output.
func countCommands(lines []string) int {
	n := 0
	for _, raw := range lines {
		if gcode.Parse(raw).IsCommand() {
			n++
		}
	}
	return n
}

// EstimateInput contains parameters for the Estimate operation.
type EstimateInput struct {
	Input              string
	SafeHeightOverride *float64
}

// EstimateOutput contains the result of the Estimate operation.
type EstimateOutput struct {
	Path       string         `json:"path"`
	SafeHeight float64        `json:"safe_height"`
	Source     string         `json:"source"`
	Machine    string         `json:"machine"`
	Tool       gcode.ToolInfo `json:"tool"`
	Warnings   []string       `json:"warnings,omitempty"`
}

// Estimate runs only the safe-height estimator against one file.
func Estimate(cfg *config.Config, input EstimateInput) (*EstimateOutput, error) {
	if input.Input == "" {
		return nil, errors.NewInvalidRequest("input file is required")
	}

	var warnings []string
	profile, known := machine.Lookup(cfg.Machine)
	if !known {
		warnings = append(warnings, fmt.Sprintf(
			"unknown machine profile %q, using generic", cfg.Machine))
	}

	rec, err := NewLoader().Load(input.Input)
	if err != nil {
		return nil, err
	}

	est := EstimateSafeHeight(rec.Parsed, EstimatorConfig{
		Override:  input.SafeHeightOverride,
		Threshold: cfg.FeedrateThreshold,
		Floor:     cfg.SafeHeightFloor,
		Profile:   profile,
	})

	return &EstimateOutput{
		Path:       rec.Path,
		SafeHeight: est.Height,
		Source:     est.Source,
		Machine:    profile.Name,
		Tool:       rec.Tool,
		Warnings:   append(warnings, est.Warnings...),
	}, nil
}

// InfoOutput contains the result of the Info operation.
type InfoOutput struct {
	Files []FileInfo `json:"files"`
}

// FileInfo is the tool identity and metadata of one input file.
type FileInfo struct {
	Path  string         `json:"path"`
	Tool  gcode.ToolInfo `json:"tool"`
	Lines int            `json:"lines"`
	Stats FileStats      `json:"stats"`
}

// Info reports tool identity and metadata for each file without
// transforming anything.
func Info(paths []string) (*InfoOutput, error) {
	if len(paths) == 0 {
		return nil, errors.NewInvalidRequest("at least one input file is required")
	}

	loader := NewLoader()
	out := &InfoOutput{Files: make([]FileInfo, 0, len(paths))}
	for _, path := range paths {
		rec, err := loader.Load(path)
		if err != nil {
			return nil, err
		}
		out.Files = append(out.Files, FileInfo{
			Path:  rec.Path,
			Tool:  rec.Tool,
			Lines: len(rec.Lines),
			Stats: rec.Stats,
		})
	}
	return out, nil
}
