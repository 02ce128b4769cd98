// Package report renders the human-readable summary of a merge run as
// markdown, with optional HTML output for sharing. The report is a side
// artifact: failures writing it never abort the run.
package report

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/yuin/goldmark"

	"github.com/grbltools/gmerge/internal/gcode"
	"github.com/grbltools/gmerge/internal/merge"
)

// Build renders the summary report for a completed merge as markdown.
func Build(out *merge.MergeOutput, now time.Time) string {
	var b strings.Builder

	b.WriteString("# gmerge summary\n\n")
	fmt.Fprintf(&b, "- Generated: %s\n", now.Format(time.RFC3339))
	fmt.Fprintf(&b, "- Output: `%s`\n", out.OutputPath)
	fmt.Fprintf(&b, "- Machine profile: %s\n", out.Machine)
	fmt.Fprintf(&b, "- Safe height: %s (%s)\n",
		gcode.FormatNumber(out.SafeHeight), out.SafeHeightSource)
	fmt.Fprintf(&b, "- Fast mode: %s\n", onOff(out.Fast))
	fmt.Fprintf(&b, "- Total lines: %s (%s commands)\n",
		humanize.Comma(int64(out.TotalLines)), humanize.Comma(int64(out.CommandCount)))
	if out.BackupPath != "" {
		fmt.Fprintf(&b, "- Backup: `%s`\n", out.BackupPath)
	}
	if out.DryRun {
		b.WriteString("- Dry run: nothing was written\n")
	}
	b.WriteString("\n## Input files\n\n")
	b.WriteString(fileTable(out.Files))
	b.WriteString("\n")

	if len(out.Warnings) > 0 {
		b.WriteString("\n## Warnings\n\n")
		for _, w := range out.Warnings {
			fmt.Fprintf(&b, "- %s\n", w)
		}
	}

	return b.String()
}

// fileTable renders the per-file summary as a markdown table.
func fileTable(files []merge.FileSummary) string {
	tbl := table.NewWriter()
	tbl.AppendHeader(table.Row{"#", "File", "Tool", "Header", "Lines in", "Lines out", "Max feed"})
	for i, f := range files {
		tbl.AppendRow(table.Row{
			i + 1,
			filepath.Base(f.Path),
			f.Tool.Label(),
			f.Header,
			f.LinesIn,
			f.LinesOut,
			gcode.FormatNumber(f.Stats.MaxFeedrate),
		})
	}
	return tbl.RenderMarkdown()
}

func onOff(v bool) string {
	if v {
		return "on"
	}
	return "off"
}

// WriteMarkdown writes the rendered report to path.
func WriteMarkdown(path, markdown string) error {
	return os.WriteFile(path, []byte(markdown), 0644)
}

// WriteHTML converts the markdown report to a standalone HTML file.
func WriteHTML(path, markdown string) error {
	var buf bytes.Buffer
	buf.WriteString("<!DOCTYPE html>\n<html><head><meta charset=\"utf-8\"><title>gmerge summary</title></head><body>\n")
	if err := goldmark.Convert([]byte(markdown), &buf); err != nil {
		return err
	}
	buf.WriteString("</body></html>\n")
	return os.WriteFile(path, buf.Bytes(), 0644)
}
