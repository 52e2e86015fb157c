// This file provides JSONL export and import of the marks table, with atomic
// writes.
package sqlite

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"github.com/mesh-intelligence/markable/internal/validation"
	"github.com/mesh-intelligence/markable/pkg/types"
)

// ImportResult counts the outcome of ImportJSONL.
type ImportResult struct {
	Imported int `json:"imported"`
	Skipped  int `json:"skipped"`
}

// ExportJSONL writes every mark to path, one JSON object per line, and
// returns the number of marks written. The file is replaced atomically.
func (b *Backend) ExportJSONL(ctx context.Context, path string) (int, error) {
	marks, err := b.All(ctx)
	if err != nil {
		return 0, err
	}
	if err := writeMarks(path, marks); err != nil {
		return 0, fmt.Errorf("exporting %s: %w", path, err)
	}
	return len(marks), nil
}

// ImportJSONL loads marks from a JSONL file in one transaction. Malformed
// lines, invalid marks and marks whose id or triple already exists are
// skipped, so importing the same file twice is harmless.
func (b *Backend) ImportJSONL(ctx context.Context, path string) (ImportResult, error) {
	marks, skipped, err := readMarks(path)
	if err != nil {
		return ImportResult{}, err
	}
	result := ImportResult{Skipped: skipped}

	v := validation.New()
	err = b.WithTx(ctx, func(store types.MarkStore) error {
		for i := range marks {
			m := &marks[i]
			if err := v.Mark(m); err != nil {
				b.log.WithFields(logrus.Fields{
					"mark_id": m.MarkID,
					"error":   err,
				}).Warn("skipping invalid mark")
				result.Skipped++
				continue
			}
			if _, err := store.Insert(ctx, m); err != nil {
				if errors.Is(err, types.ErrDuplicateMark) {
					result.Skipped++
					continue
				}
				return err
			}
			result.Imported++
		}
		return nil
	})
	if err != nil {
		return ImportResult{}, fmt.Errorf("importing %s: %w", path, err)
	}
	return result, nil
}

// maxLineSize bounds a single JSONL record.
const maxLineSize = 1 << 20

// readMarks decodes one mark per line of path. Blank lines are ignored and
// lines that do not decode into a mark are counted as skipped.
func readMarks(path string) ([]types.Mark, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	var (
		marks   []types.Mark
		skipped int
	)
	scanner := bufio.NewScanner(f)
	scanner.Buffer(nil, maxLineSize)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var m types.Mark
		if err := json.Unmarshal(line, &m); err != nil {
			skipped++
			continue
		}
		marks = append(marks, m)
	}
	if err := scanner.Err(); err != nil {
		return nil, 0, fmt.Errorf("scanning %s: %w", path, err)
	}
	return marks, skipped, nil
}

// writeMarks encodes marks into a temp file next to path, syncs it and
// renames it over path. The temp file is removed on any failure.
func writeMarks(path string, marks []*types.Mark) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".marks-*.jsonl.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	w := bufio.NewWriter(tmp)
	enc := json.NewEncoder(w)
	for _, m := range marks {
		if err := enc.Encode(m); err != nil {
			return fmt.Errorf("encoding mark %s: %w", m.MarkID, err)
		}
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("flushing %s: %w", tmp.Name(), err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("syncing %s: %w", tmp.Name(), err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", tmp.Name(), err)
	}
	return os.Rename(tmp.Name(), path)
}
