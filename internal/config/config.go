package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
)

// Config holds application configuration.
type Config struct {
	// Machine selects the active machine profile (generic|shapeoko|xcarve|nomad3).
	// Unknown names fall back to generic with a warning.
	Machine string `json:"machine,omitempty"`

	// FeedrateThreshold is the ratio a feedrate must drop below for the
	// feedrate-drop safe-height heuristic to fire. Default 0.75.
	FeedrateThreshold float64 `json:"feedrate_threshold,omitempty"`

	// SafeHeightFloor is the minimum Z a heuristic candidate must exceed
	// to count as a travel height rather than a cutting depth. Default 1.
	SafeHeightFloor float64 `json:"safe_height_floor,omitempty"`

	// Fast enables rapid-move substitution above the safe height by default;
	// the --fast flag also enables it per run.
	Fast bool `json:"fast,omitempty"`

	// DisableBackup turns off the timestamped backup of a pre-existing
	// output file. Backups are on by default.
	DisableBackup bool `json:"disable_backup,omitempty"`

	// OutputDir, when set, is joined with relative output paths.
	OutputDir string `json:"output_dir,omitempty"`

	// LogFile, when set, duplicates log output into this file.
	LogFile string `json:"log_file,omitempty"`

	// DisabledTools is a list of MCP tool names to exclude from registration.
	// Unknown tool names are logged as warnings.
	DisabledTools []string `json:"disabled_tools,omitempty"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Machine:           "generic",
		FeedrateThreshold: 0.75,
		SafeHeightFloor:   1,
	}
}

// Load loads configuration from baseDir/config.json.
// Returns default config if the file doesn't exist.
// The baseDir parameter allows tests to use t.TempDir() instead of ~/.gmerge.
func Load(baseDir string) (*Config, error) {
	cfg, err := loadFileRaw(filepath.Join(baseDir, "config.json"))
	if err != nil {
		return nil, err
	}
	return Merge(DefaultConfig(), cfg), nil
}

// loadFileRaw loads configuration from a specific file path.
// Returns zero-valued config if the file doesn't exist (not defaults).
func loadFileRaw(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, err
	}

	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Merge combines base and overlay configs.
// Overlay values take precedence for scalars; arrays are merged and deduplicated.
func Merge(base, overlay *Config) *Config {
	result := &Config{}

	// Scalars: overlay wins if non-zero, else base
	result.Machine = overlay.Machine
	if result.Machine == "" {
		result.Machine = base.Machine
	}

	result.FeedrateThreshold = overlay.FeedrateThreshold
	if result.FeedrateThreshold == 0 {
		result.FeedrateThreshold = base.FeedrateThreshold
	}

	result.SafeHeightFloor = overlay.SafeHeightFloor
	if result.SafeHeightFloor == 0 {
		result.SafeHeightFloor = base.SafeHeightFloor
	}

	result.OutputDir = overlay.OutputDir
	if result.OutputDir == "" {
		result.OutputDir = base.OutputDir
	}

	result.LogFile = overlay.LogFile
	if result.LogFile == "" {
		result.LogFile = base.LogFile
	}

	// Booleans: overlay wins if true, else base
	result.Fast = base.Fast || overlay.Fast
	result.DisableBackup = base.DisableBackup || overlay.DisableBackup

	// Arrays: merge and deduplicate
	result.DisabledTools = mergeStringSlice(base.DisabledTools, overlay.DisabledTools)

	return result
}

// mergeStringSlice combines two slices, trims whitespace, and removes duplicates.
func mergeStringSlice(a, b []string) []string {
	seen := make(map[string]bool)
	result := make([]string, 0, len(a)+len(b))

	for _, s := range append(append([]string{}, a...), b...) {
		s = strings.TrimSpace(s)
		if s != "" && !seen[s] {
			seen[s] = true
			result = append(result, s)
		}
	}

	if len(result) == 0 {
		return nil
	}
	return result
}
