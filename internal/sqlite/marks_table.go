// This file implements the marks table accessor for the SQLite backend.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mesh-intelligence/markable/pkg/types"
)

var _ types.MarkStore = (*marksTable)(nil)

// timeLayout is fixed-width so that created_at sorts lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// markColumns is the ordered list of columns selected in mark queries.
// Must match the scan order in scanMark.
const markColumns = `mark_id, marker_type, marker_id, markable_type, markable_id, mark, created_at`

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

type marksTable struct {
	q querier
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(timeLayout, s)
}

// scanMark scans a sql.Row or sql.Rows into a types.Mark.
func scanMark(scanner interface{ Scan(dest ...any) error }) (*types.Mark, error) {
	var m types.Mark
	var createdAt string
	err := scanner.Scan(
		&m.MarkID,
		&m.Marker.Type,
		&m.Marker.ID,
		&m.Markable.Type,
		&m.Markable.ID,
		&m.Label,
		&createdAt,
	)
	if err != nil {
		return nil, err
	}
	m.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}
	return &m, nil
}

// Insert appends a mark row. Generates a UUID v7 when MarkID is empty.
// Returns types.ErrDuplicateMark when the unique index rejects the row.
func (mt *marksTable) Insert(ctx context.Context, m *types.Mark) (string, error) {
	if m == nil {
		return "", types.ErrInvalidData
	}
	if m.MarkID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return "", fmt.Errorf("generating UUID v7: %w", err)
		}
		m.MarkID = id.String()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}

	_, err := mt.q.ExecContext(ctx,
		`INSERT INTO marks (`+markColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		m.MarkID,
		m.Marker.Type,
		m.Marker.ID,
		m.Markable.Type,
		m.Markable.ID,
		m.Label,
		formatTime(m.CreatedAt),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return "", types.ErrDuplicateMark
		}
		return "", fmt.Errorf("inserting mark: %w", err)
	}
	return m.MarkID, nil
}

// maxIDsPerStatement keeps IN lists well below SQLite's variable limit.
const maxIDsPerStatement = 500

// DeleteWhere removes rows matching the filter and returns the count. Long
// id lists are deleted in chunks.
func (mt *marksTable) DeleteWhere(ctx context.Context, f types.Filter) (int, error) {
	if len(f.IDs) > maxIDsPerStatement {
		total := 0
		ids := f.IDs
		for len(ids) > 0 {
			n := min(len(ids), maxIDsPerStatement)
			chunk := f
			chunk.IDs = ids[:n]
			deleted, err := mt.DeleteWhere(ctx, chunk)
			if err != nil {
				return total, err
			}
			total += deleted
			ids = ids[n:]
		}
		return total, nil
	}

	where, args := buildWhere(f)
	res, err := mt.q.ExecContext(ctx, `DELETE FROM marks`+where, args...)
	if err != nil {
		return 0, fmt.Errorf("deleting marks: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("counting deleted marks: %w", err)
	}
	return int(n), nil
}

// FindWhere returns rows matching the filter ordered by created_at, then
// insertion order.
func (mt *marksTable) FindWhere(ctx context.Context, f types.Filter) ([]*types.Mark, error) {
	where, args := buildWhere(f)
	rows, err := mt.q.QueryContext(ctx,
		`SELECT `+markColumns+` FROM marks`+where+` ORDER BY created_at ASC, rowid ASC`, args...)
	if err != nil {
		return nil, fmt.Errorf("fetching marks: %w", err)
	}
	defer rows.Close()

	results := []*types.Mark{}
	for rows.Next() {
		m, err := scanMark(rows)
		if err != nil {
			return nil, fmt.Errorf("hydrating mark: %w", err)
		}
		results = append(results, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating marks: %w", err)
	}
	return results, nil
}

// All returns every mark.
func (mt *marksTable) All(ctx context.Context) ([]*types.Mark, error) {
	return mt.FindWhere(ctx, types.Filter{})
}

// buildWhere renders the filter as a WHERE clause with placeholders.
func buildWhere(f types.Filter) (string, []any) {
	var conditions []string
	var args []any

	add := func(column, value string) {
		if value == "" {
			return
		}
		conditions = append(conditions, column+" = ?")
		args = append(args, value)
	}
	add("marker_type", f.MarkerType)
	add("marker_id", f.MarkerID)
	add("markable_type", f.MarkableType)
	add("markable_id", f.MarkableID)
	add("mark", f.Label)

	if f.IDs != nil {
		if len(f.IDs) == 0 {
			conditions = append(conditions, "1 = 0")
		} else {
			placeholders := strings.Repeat("?, ", len(f.IDs)-1) + "?"
			conditions = append(conditions, "mark_id IN ("+placeholders+")")
			for _, id := range f.IDs {
				args = append(args, id)
			}
		}
	}

	if len(conditions) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conditions, " AND "), args
}
