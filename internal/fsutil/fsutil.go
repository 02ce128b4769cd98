// Package fsutil wraps the file I/O the pipeline needs: reading input
// programs into lines, writing the merged output atomically, and making
// timestamped backups of a pre-existing output file.
package fsutil

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/grbltools/gmerge/internal/errors"
)

// ReadLines reads a text file and splits it into lines. It returns an
// access error when the file is missing, unreadable, or has no non-blank
// content. Access errors abort the run before any transformation.
func ReadLines(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewAccess(path, "file does not exist")
		}
		return nil, errors.NewAccess(path, err.Error())
	}

	text := strings.ReplaceAll(string(data), "\r\n", "\n")
	lines := strings.Split(text, "\n")
	// Trailing newline produces one empty trailing element; drop it.
	if n := len(lines); n > 0 && lines[n-1] == "" {
		lines = lines[:n-1]
	}

	if !hasContent(lines) {
		return nil, errors.NewAccess(path, "file is empty")
	}
	return lines, nil
}

// hasContent reports whether any line is non-blank.
func hasContent(lines []string) bool {
	for _, l := range lines {
		if strings.TrimSpace(l) != "" {
			return true
		}
	}
	return false
}

// CheckWritable verifies the directory that will hold path exists (creating
// it if needed) and accepts new files. Called before any transformation so a
// bad output location fails fast instead of after the whole pipeline has run.
func CheckWritable(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return errors.NewAccess(path, fmt.Sprintf("cannot create output directory: %v", err))
	}

	randBytes := make([]byte, 8)
	if _, err := rand.Read(randBytes); err != nil {
		return errors.NewInternal(err)
	}
	checkPath := filepath.Join(dir, "."+hex.EncodeToString(randBytes)+".tmp")
	f, err := os.OpenFile(checkPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if err != nil {
		return errors.NewAccess(path, fmt.Sprintf("output directory is not writable: %v", err))
	}
	f.Close()
	os.Remove(checkPath)
	return nil
}

// WriteLines writes lines to path, newline-joined with a trailing newline.
// The write goes to a temp file first and is renamed into place so a failed
// write never leaves a truncated program behind.
func WriteLines(path string, lines []string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return errors.NewAccess(path, fmt.Sprintf("cannot create output directory: %v", err))
	}

	randBytes := make([]byte, 8)
	if _, err := rand.Read(randBytes); err != nil {
		return errors.NewInternal(err)
	}
	tempPath := path + "." + hex.EncodeToString(randBytes) + ".tmp"

	content := strings.Join(lines, "\n") + "\n"
	if err := os.WriteFile(tempPath, []byte(content), 0644); err != nil {
		return errors.NewAccess(path, fmt.Sprintf("cannot write output: %v", err))
	}

	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return errors.NewAccess(path, fmt.Sprintf("cannot replace output: %v", err))
	}
	return nil
}

// Backup copies an existing file to a timestamped sibling and returns the
// backup path. A missing original is not an error: there is nothing to
// back up, and the empty path signals that.
func Backup(path string, now time.Time) (string, error) {
	src, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", err
	}
	defer src.Close()

	backupPath := fmt.Sprintf("%s.%s.bak", path, now.Format("20060102-150405"))
	dst, err := os.Create(backupPath)
	if err != nil {
		return "", err
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		os.Remove(backupPath)
		return "", err
	}
	return backupPath, nil
}
