package main

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/grbltools/gmerge/internal/config"
	"github.com/grbltools/gmerge/internal/errors"
	"github.com/grbltools/gmerge/internal/history"
	"github.com/grbltools/gmerge/internal/machine"
	"github.com/grbltools/gmerge/internal/merge"
	"github.com/grbltools/gmerge/internal/report"
)

// newCLIApp creates the CLI application with all commands.
func newCLIApp(db *sql.DB, cfg *config.Config) *cli.App {
	app := &cli.App{
		Name:    "gmerge",
		Usage:   "Merge CAM-generated G-code programs into one safe program",
		Version: Version,
		Commands: []*cli.Command{
			mergeCmd(db, cfg),
			estimateCmd(cfg),
			infoCmd(),
			historyCmd(db),
		},
	}
	// Disable default exit error handler to allow proper error return in tests
	app.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return app
}

// mergeCmd creates the merge command.
func mergeCmd(db *sql.DB, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:      "merge",
		Usage:     "Merge G-code files, in argument order, into one program",
		ArgsUsage: "<input>...",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Required: true, Usage: "Output file path"},
			&cli.BoolFlag{Name: "fast", Usage: "Rewrite cutting moves at or above the safe height as rapids"},
			&cli.BoolFlag{Name: "dry-run", Usage: "Run the pipeline without writing the output file"},
			&cli.Float64Flag{Name: "safe-height", Usage: "Safe travel height override, clamped to [1, 100]"},
			&cli.StringFlag{Name: "machine", Aliases: []string{"m"}, Usage: "Machine profile: " + machineNames()},
			&cli.Float64Flag{Name: "feedrate-threshold", Usage: "Feedrate-drop heuristic ratio (default 0.75)"},
			&cli.StringFlag{Name: "output-dir", Usage: "Directory joined with relative output paths"},
			&cli.BoolFlag{Name: "no-backup", Usage: "Skip the timestamped backup of an existing output file"},
			&cli.StringFlag{Name: "report", Usage: "Write a markdown merge report to this path"},
			&cli.StringFlag{Name: "html", Usage: "Write an HTML merge report to this path"},
			&cli.StringFlag{Name: "log-file", Usage: "Duplicate log output into this file"},
			&cli.BoolFlag{Name: "verbose", Usage: "Log at debug level"},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() == 0 {
				return outputError(errors.NewInvalidRequest("at least one input file is required"))
			}

			runCfg := overlayConfig(cfg, c)
			logger := newLogger(c.Bool("verbose"), runCfg.LogFile)

			input := merge.MergeInput{
				Inputs: c.Args().Slice(),
				Output: c.String("output"),
				Fast:   c.Bool("fast") || runCfg.Fast,
				DryRun: c.Bool("dry-run"),
			}
			if c.IsSet("safe-height") {
				v := c.Float64("safe-height")
				input.SafeHeightOverride = &v
			}

			output, err := merge.Merge(runCfg, input)
			if err != nil {
				return outputError(err)
			}

			for _, w := range output.Warnings {
				logger.Warn(w)
			}
			logger.Debug("merge complete",
				"output", output.OutputPath,
				"lines", output.TotalLines,
				"commands", output.CommandCount,
				"safe_height", output.SafeHeight,
				"source", output.SafeHeightSource)

			// Secondary artifacts never fail a merge that already wrote its output.
			if !output.DryRun {
				if err := history.Record(db, history.FromMerge(output, time.Now())); err != nil {
					logger.Warn("failed to record run history", "error", err)
				}
			}
			writeReports(c, output, logger)

			return outputJSON(output)
		},
	}
}

// writeReports renders and writes the markdown and HTML reports if requested.
func writeReports(c *cli.Context, output *merge.MergeOutput, logger *slog.Logger) {
	mdPath := c.String("report")
	htmlPath := c.String("html")
	if mdPath == "" && htmlPath == "" {
		return
	}

	markdown := report.Build(output, time.Now())
	if mdPath != "" {
		if err := report.WriteMarkdown(mdPath, markdown); err != nil {
			logger.Warn("failed to write report", "path", mdPath, "error", err)
		}
	}
	if htmlPath != "" {
		if err := report.WriteHTML(htmlPath, markdown); err != nil {
			logger.Warn("failed to write HTML report", "path", htmlPath, "error", err)
		}
	}
}

// estimateCmd creates the estimate command.
func estimateCmd(cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:      "estimate",
		Usage:     "Infer the safe travel height for one G-code file",
		ArgsUsage: "<input>",
		Flags: []cli.Flag{
			&cli.Float64Flag{Name: "safe-height", Usage: "Safe travel height override, clamped to [1, 100]"},
			&cli.StringFlag{Name: "machine", Aliases: []string{"m"}, Usage: "Machine profile: " + machineNames()},
			&cli.Float64Flag{Name: "feedrate-threshold", Usage: "Feedrate-drop heuristic ratio (default 0.75)"},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return outputError(errors.NewInvalidRequest("exactly one input file is required"))
			}

			input := merge.EstimateInput{Input: c.Args().First()}
			if c.IsSet("safe-height") {
				v := c.Float64("safe-height")
				input.SafeHeightOverride = &v
			}

			output, err := merge.Estimate(overlayConfig(cfg, c), input)
			if err != nil {
				return outputError(err)
			}

			return outputJSON(output)
		},
	}
}

// infoCmd creates the info command.
func infoCmd() *cli.Command {
	return &cli.Command{
		Name:      "info",
		Usage:     "Report tool identity and stats for each file without merging",
		ArgsUsage: "<input>...",
		Action: func(c *cli.Context) error {
			if c.NArg() == 0 {
				return outputError(errors.NewInvalidRequest("at least one input file is required"))
			}

			output, err := merge.Info(c.Args().Slice())
			if err != nil {
				return outputError(err)
			}

			return outputJSON(output)
		},
	}
}

// historyCmd creates the history command.
func historyCmd(db *sql.DB) *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "List recent merge runs, newest first",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "limit", Aliases: []string{"l"}, Value: 20, Usage: "Maximum runs to return"},
		},
		Action: func(c *cli.Context) error {
			runs, err := history.List(db, c.Int("limit"))
			if err != nil {
				return outputError(errors.NewInternal(err))
			}

			return outputJSON(struct {
				Runs []history.Run `json:"runs"`
			}{Runs: runs})
		},
	}
}

// Helper functions

// overlayConfig applies command-line flags on top of the loaded config.
func overlayConfig(cfg *config.Config, c *cli.Context) *config.Config {
	overlay := &config.Config{}
	if c.IsSet("machine") {
		overlay.Machine = c.String("machine")
	}
	if c.IsSet("feedrate-threshold") {
		overlay.FeedrateThreshold = c.Float64("feedrate-threshold")
	}
	if c.IsSet("output-dir") {
		overlay.OutputDir = c.String("output-dir")
	}
	if c.IsSet("log-file") {
		overlay.LogFile = c.String("log-file")
	}
	if c.Bool("no-backup") {
		overlay.DisableBackup = true
	}
	return config.Merge(cfg, overlay)
}

// newLogger builds the CLI logger. Log output goes to stderr so stdout
// stays clean JSON; a configured log file receives a copy.
func newLogger(verbose bool, logFile string) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}

	var w io.Writer = os.Stderr
	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: cannot open log file %s: %v\n", logFile, err)
		} else {
			w = io.MultiWriter(os.Stderr, f)
		}
	}

	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// machineNames joins the known profile names for flag usage strings.
func machineNames() string {
	names := machine.Names()
	out := ""
	for i, n := range names {
		if i > 0 {
			out += "|"
		}
		out += n
	}
	return out
}

// outputJSON marshals result to stdout as JSON.
func outputJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputError formats error for CLI.
func outputError(err error) error {
	if gerr, ok := err.(*errors.GmergeError); ok {
		return cli.Exit(fmt.Sprintf("[%s] %s", gerr.Code, gerr.Message), 1)
	}
	return cli.Exit(err.Error(), 1)
}
