// Package sqlite implements the SQLite backend for mark storage.
package sqlite

// Schema DDL. Statements are idempotent so Attach can run them against an
// existing database.
const (
	createMarks = `CREATE TABLE IF NOT EXISTS marks (
    mark_id TEXT PRIMARY KEY,
    marker_type TEXT NOT NULL,
    marker_id TEXT NOT NULL,
    markable_type TEXT NOT NULL,
    markable_id TEXT NOT NULL,
    mark TEXT NOT NULL CHECK (length(mark) BETWEEN 1 AND 128),
    created_at TEXT NOT NULL
);`
)

// Index DDL for the two query directions: who marked a markable, and what a
// marker marked.
const (
	idxMarksMarkable = `CREATE INDEX IF NOT EXISTS idx_marks_markable ON marks(markable_id, markable_type, mark);`
	idxMarksMarker   = `CREATE INDEX IF NOT EXISTS idx_marks_marker ON marks(marker_id, marker_type, mark);`
	idxMarksUnique   = `CREATE UNIQUE INDEX IF NOT EXISTS idx_marks_unique ON marks(marker_type, marker_id, markable_type, markable_id, mark);`
)

// pragmas configure every new connection.
var pragmas = []string{
	"PRAGMA journal_mode=WAL",
	"PRAGMA synchronous=NORMAL",
	"PRAGMA foreign_keys=ON",
	"PRAGMA busy_timeout=5000",
}

// schemaDDL lists the statements run on every Attach.
var schemaDDL = []string{
	createMarks,
	idxMarksMarkable,
	idxMarksMarker,
}
