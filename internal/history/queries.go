package history

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/grbltools/gmerge/internal/errors"
	"github.com/grbltools/gmerge/internal/merge"
)

// Run is one recorded merge run.
type Run struct {
	ID               string              `json:"id"`
	CreatedAt        int64               `json:"created_at"`
	OutputPath       string              `json:"output_path"`
	Machine          string              `json:"machine"`
	SafeHeight       float64             `json:"safe_height"`
	SafeHeightSource string              `json:"safe_height_source"`
	Fast             bool                `json:"fast"`
	DryRun           bool                `json:"dry_run"`
	InputCount       int                 `json:"input_count"`
	TotalLines       int                 `json:"total_lines"`
	CommandCount     int                 `json:"command_count"`
	Files            []merge.FileSummary `json:"files,omitempty"`
	Warnings         []string            `json:"warnings,omitempty"`
}

// FromMerge builds a Run record from a completed merge.
func FromMerge(out *merge.MergeOutput, now time.Time) Run {
	return Run{
		ID:               NewRunID(now),
		CreatedAt:        now.Unix(),
		OutputPath:       out.OutputPath,
		Machine:          out.Machine,
		SafeHeight:       out.SafeHeight,
		SafeHeightSource: out.SafeHeightSource,
		Fast:             out.Fast,
		DryRun:           out.DryRun,
		InputCount:       len(out.Files),
		TotalLines:       out.TotalLines,
		CommandCount:     out.CommandCount,
		Files:            out.Files,
		Warnings:         out.Warnings,
	}
}

// Record inserts a run into the ledger.
func Record(db *sql.DB, r Run) error {
	filesJSON, err := marshalNullable(r.Files)
	if err != nil {
		return errors.NewInternal(err)
	}
	warningsJSON, err := marshalNullable(r.Warnings)
	if err != nil {
		return errors.NewInternal(err)
	}

	query := `
		INSERT INTO runs (
			id, created_at, output_path, machine,
			safe_height, safe_height_source, fast, dry_run,
			input_count, total_lines, command_count,
			files_json, warnings_json
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err = db.Exec(query,
		r.ID, r.CreatedAt, r.OutputPath, r.Machine,
		r.SafeHeight, r.SafeHeightSource, boolToInt(r.Fast), boolToInt(r.DryRun),
		r.InputCount, r.TotalLines, r.CommandCount,
		filesJSON, warningsJSON,
	)
	if err != nil {
		return errors.NewInternal(err)
	}
	return nil
}

// List returns the most recent runs, newest first.
func List(db *sql.DB, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := db.Query(`
		SELECT id, created_at, output_path, machine,
		       safe_height, safe_height_source, fast, dry_run,
		       input_count, total_lines, command_count,
		       files_json, warnings_json
		FROM runs
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var fast, dryRun int
		var filesJSON, warningsJSON sql.NullString
		if err := rows.Scan(
			&r.ID, &r.CreatedAt, &r.OutputPath, &r.Machine,
			&r.SafeHeight, &r.SafeHeightSource, &fast, &dryRun,
			&r.InputCount, &r.TotalLines, &r.CommandCount,
			&filesJSON, &warningsJSON,
		); err != nil {
			return nil, errors.NewInternal(err)
		}
		r.Fast = fast != 0
		r.DryRun = dryRun != 0
		if filesJSON.Valid {
			if err := json.Unmarshal([]byte(filesJSON.String), &r.Files); err != nil {
				return nil, errors.NewInternal(err)
			}
		}
		if warningsJSON.Valid {
			if err := json.Unmarshal([]byte(warningsJSON.String), &r.Warnings); err != nil {
				return nil, errors.NewInternal(err)
			}
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewInternal(err)
	}
	return runs, nil
}

// marshalNullable marshals v to JSON, or NULL when it is empty.
func marshalNullable[T any](v []T) (sql.NullString, error) {
	if len(v) == 0 {
		return sql.NullString{}, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}

func boolToInt(v bool) int {
	if v {
		return 1
	}
	return 0
}
