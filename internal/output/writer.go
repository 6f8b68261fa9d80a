// Package output serializes pipeline documents into the data directory the
// static site reads from.
package output

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"datasync/internal/daterange"
)

// Range is the date window stamped on every document, hyphenated form.
type Range struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

func RangeOf(r daterange.Range) Range {
	return Range{Start: r.StartHyphen(), End: r.EndHyphen()}
}

type Writer struct {
	dir    string
	logger *log.Logger
}

func NewWriter(dir string, logger *log.Logger) *Writer {
	if logger == nil {
		logger = log.Default()
	}
	return &Writer{dir: dir, logger: logger}
}

// Write marshals doc and writes it to <dir>/<name> via a temp file and
// rename, so consumers never observe a half-written document. Returns the
// final path.
func (w *Writer) Write(name string, doc any) (string, error) {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return "", fmt.Errorf("create data dir: %w", err)
	}

	body, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal %s: %w", name, err)
	}
	body = append(body, '\n')

	tmp, err := os.CreateTemp(w.dir, name+".tmp-*")
	if err != nil {
		return "", fmt.Errorf("temp file for %s: %w", name, err)
	}
	if _, err := tmp.Write(body); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", fmt.Errorf("write %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("close %s: %w", name, err)
	}

	path := filepath.Join(w.dir, name)
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("rename %s: %w", name, err)
	}

	w.logger.Printf("wrote %s (%d bytes)", path, len(body))
	return path, nil
}
