package mcp

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/grbltools/gmerge/internal/config"
	"github.com/grbltools/gmerge/internal/errors"
	"github.com/grbltools/gmerge/internal/history"
	"github.com/grbltools/gmerge/internal/merge"
)

// defaultHistoryLimit caps gcode_history responses when no limit is given.
const defaultHistoryLimit = 20

// Handlers holds dependencies for MCP tool handlers.
type Handlers struct {
	db  *sql.DB
	cfg *config.Config
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(db *sql.DB, cfg *config.Config) *Handlers {
	return &Handlers{db: db, cfg: cfg}
}

// decode round-trips the request arguments through JSON into a typed request
// struct, so handlers never touch the raw argument map.
func decode[T any](req mcp.CallToolRequest) (T, error) {
	var result T
	b, err := json.Marshal(req.GetArguments())
	if err != nil {
		return result, fmt.Errorf("marshal args: %w", err)
	}
	if err := json.Unmarshal(b, &result); err != nil {
		return result, fmt.Errorf("unmarshal args: %w", err)
	}
	return result, nil
}

// Request types for each tool

// MergeRequest represents the arguments for gcode_merge.
type MergeRequest struct {
	Inputs     []string `json:"inputs"`
	Output     string   `json:"output"`
	Fast       bool     `json:"fast,omitempty"`
	DryRun     bool     `json:"dry_run,omitempty"`
	SafeHeight *float64 `json:"safe_height,omitempty"`
}

// EstimateRequest represents the arguments for gcode_estimate.
type EstimateRequest struct {
	Input      string   `json:"input"`
	SafeHeight *float64 `json:"safe_height,omitempty"`
}

// InfoRequest represents the arguments for gcode_info.
type InfoRequest struct {
	Inputs []string `json:"inputs"`
}

// HistoryRequest represents the arguments for gcode_history.
type HistoryRequest struct {
	Limit int `json:"limit,omitempty"`
}

// HistoryResponse wraps the run list returned by gcode_history.
type HistoryResponse struct {
	Runs []history.Run `json:"runs"`
}

// Handler implementations

// HandleMerge handles the gcode_merge tool call.
func (h *Handlers) HandleMerge(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[MergeRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := merge.Merge(h.cfg, merge.MergeInput{
		Inputs:             input.Inputs,
		Output:             input.Output,
		Fast:               input.Fast || h.cfg.Fast,
		DryRun:             input.DryRun,
		SafeHeightOverride: input.SafeHeight,
	})
	if err != nil {
		return errorResult(err), nil
	}

	// Ledger failures never fail a merge that already wrote its output.
	if !result.DryRun {
		run := history.FromMerge(result, time.Now())
		if err := history.Record(h.db, run); err != nil {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("failed to record run history: %v", err))
		}
	}

	return successResult(result)
}

// HandleEstimate handles the gcode_estimate tool call.
func (h *Handlers) HandleEstimate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[EstimateRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := merge.Estimate(h.cfg, merge.EstimateInput{
		Input:              input.Input,
		SafeHeightOverride: input.SafeHeight,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleInfo handles the gcode_info tool call.
func (h *Handlers) HandleInfo(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[InfoRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := merge.Info(input.Inputs)
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleHistory handles the gcode_history tool call.
func (h *Handlers) HandleHistory(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[HistoryRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	limit := input.Limit
	if limit <= 0 {
		limit = defaultHistoryLimit
	}

	runs, err := history.List(h.db, limit)
	if err != nil {
		return errorResult(errors.NewInternal(err)), nil
	}

	return successResult(HistoryResponse{Runs: runs})
}

// Result helpers

// errorResult creates an MCP error result from any error.
// Uses IsError: true so MCP clients recognize failures properly.
// Note: Internal error details are not exposed to prevent leaking sensitive info.
func errorResult(err error) *mcp.CallToolResult {
	var payload map[string]any

	if gerr, ok := err.(*errors.GmergeError); ok {
		errorObj := map[string]any{
			"code":    gerr.Code,
			"message": gerr.Message,
			"status":  gerr.Status,
		}
		// Only include details for non-internal errors to avoid leaking
		// sensitive info like file paths or SQL errors
		if gerr.Code != errors.ErrInternal && gerr.Details != nil {
			errorObj["details"] = gerr.Details
		}
		payload = map[string]any{"error": errorObj}
	} else {
		payload = map[string]any{
			"error": map[string]any{
				"code":    "INTERNAL",
				"message": "an internal error occurred",
				"status":  500,
			},
		}
	}

	content, _ := json.Marshal(payload)
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: string(content)}},
		IsError: true,
	}
}

// successResult creates an MCP success result from any data.
func successResult(data any) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultJSON(data)
}
