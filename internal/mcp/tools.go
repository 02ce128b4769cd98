package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
)

var mergeToolDef = mcp.NewTool("gcode_merge",
	mcp.WithDescription("Merge a sequence of G-code programs into one output program with tool changes, retracts, and safe-height handling."),
	mcp.WithArray("inputs",
		mcp.Required(),
		mcp.Description("Paths of the G-code files to merge, in machining order."),
		mcp.Items(map[string]any{"type": "string"}),
	),
	mcp.WithString("output",
		mcp.Required(),
		mcp.Description("Path of the merged output file."),
	),
	mcp.WithBoolean("fast",
		mcp.Description("Rewrite cutting moves at or above the safe height as rapids."),
	),
	mcp.WithBoolean("dry_run",
		mcp.Description("Run the full pipeline but do not write the output file."),
	),
	mcp.WithNumber("safe_height",
		mcp.Description("Safe travel height in current units; skips inference when set. Clamped to [1, 100]."),
	),
)

var estimateToolDef = mcp.NewTool("gcode_estimate",
	mcp.WithDescription("Infer the safe travel height for a single G-code file and report which heuristic produced it."),
	mcp.WithString("input",
		mcp.Required(),
		mcp.Description("Path of the G-code file to analyze."),
	),
	mcp.WithNumber("safe_height",
		mcp.Description("Override height; clamped to [1, 100] and reported as source \"override\"."),
	),
)

var infoToolDef = mcp.NewTool("gcode_info",
	mcp.WithDescription("Report the tool identity and basic stats of each G-code file without transforming anything."),
	mcp.WithArray("inputs",
		mcp.Required(),
		mcp.Description("Paths of the G-code files to inspect."),
		mcp.Items(map[string]any{"type": "string"}),
	),
)

var historyToolDef = mcp.NewTool("gcode_history",
	mcp.WithDescription("List recent merge runs recorded in the local run ledger, newest first."),
	mcp.WithNumber("limit",
		mcp.Description("Maximum number of runs to return (default 20)."),
	),
)
