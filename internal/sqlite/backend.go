package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"

	"github.com/mesh-intelligence/markable/pkg/types"
)

// DatabaseFile is the database file name created inside DataDir when
// Config.Database is empty.
const DatabaseFile = "marks.db"

var _ types.Backend = (*Backend)(nil)

// Backend implements types.Backend using SQLite.
type Backend struct {
	mu       sync.RWMutex
	attached bool
	config   types.Config
	db       *sql.DB
	marks    *marksTable
	log      *logrus.Logger
}

// NewBackend creates a new SQLite backend instance. The backend is not
// attached; call Attach with a Config to initialize. A nil logger is replaced
// by a default logrus logger.
func NewBackend(logger *logrus.Logger) *Backend {
	if logger == nil {
		logger = logrus.New()
	}
	return &Backend{log: logger}
}

// Open is a convenience that creates a backend and attaches it to the
// database file at path.
func Open(path string, unique bool, logger *logrus.Logger) (*Backend, error) {
	b := NewBackend(logger)
	err := b.Attach(types.Config{
		Backend:     types.BackendSQLite,
		Database:    path,
		UniqueMarks: unique,
	})
	if err != nil {
		return nil, err
	}
	return b, nil
}

// Attach opens the database, applies pragmas and creates the marks table and
// its indexes. Creates DataDir if it does not exist. Existing marks are kept.
// Returns ErrAlreadyAttached if already attached.
func (b *Backend) Attach(config types.Config) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.attached {
		return types.ErrAlreadyAttached
	}

	if err := config.Validate(); err != nil {
		return err
	}

	dbPath := config.Database
	if dbPath == "" {
		dataDir := config.DataDir
		if dataDir == "" {
			dataDir = "."
		}
		dbPath = filepath.Join(dataDir, DatabaseFile)
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return fmt.Errorf("creating data dir: %w", err)
	}

	db, err := sql.Open("sqlite", dsn(dbPath))
	if err != nil {
		return fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(time.Hour)

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return fmt.Errorf("exec pragma %q: %w", pragma, err)
		}
	}

	ddl := schemaDDL
	if config.UniqueMarks {
		ddl = append(ddl[:len(ddl):len(ddl)], idxMarksUnique)
	}
	for _, stmt := range ddl {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return fmt.Errorf("exec schema: %w", err)
		}
	}

	b.db = db
	b.config = config
	b.marks = &marksTable{q: db}
	b.attached = true

	b.log.WithFields(logrus.Fields{
		"database": dbPath,
		"unique":   config.UniqueMarks,
	}).Debug("sqlite backend attached")

	return nil
}

// Detach closes the database. After Detach, all operations return
// ErrDetached. Detach is idempotent.
func (b *Backend) Detach() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return nil
	}

	if err := b.db.Close(); err != nil {
		return err
	}
	b.db = nil
	b.marks = nil
	b.attached = false

	return nil
}

// DB returns the underlying database handle, or nil when detached. Host
// tables resolved by TableResolver live in the same database.
func (b *Backend) DB() *sql.DB {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.db
}

// Insert implements types.MarkStore.
func (b *Backend) Insert(ctx context.Context, m *types.Mark) (string, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if !b.attached {
		return "", types.ErrDetached
	}
	return b.marks.Insert(ctx, m)
}

// DeleteWhere implements types.MarkStore.
func (b *Backend) DeleteWhere(ctx context.Context, f types.Filter) (int, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if !b.attached {
		return 0, types.ErrDetached
	}
	return b.marks.DeleteWhere(ctx, f)
}

// FindWhere implements types.MarkStore.
func (b *Backend) FindWhere(ctx context.Context, f types.Filter) ([]*types.Mark, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if !b.attached {
		return nil, types.ErrDetached
	}
	return b.marks.FindWhere(ctx, f)
}

// All implements types.MarkStore.
func (b *Backend) All(ctx context.Context) ([]*types.Mark, error) {
	return b.FindWhere(ctx, types.Filter{})
}

// WithTx runs fn inside a database transaction. The transaction commits
// when fn returns nil and rolls back otherwise.
func (b *Backend) WithTx(ctx context.Context, fn func(types.MarkStore) error) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if !b.attached {
		return types.ErrDetached
	}

	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(&marksTable{q: tx}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// dsn appends the busy_timeout pragma to dbPath so it holds on every pooled
// connection, not only the one the pragma loop runs on. dbPath may be a
// file: URI that already carries query parameters.
func dsn(dbPath string) string {
	sep := "?"
	if strings.Contains(dbPath, "?") {
		sep = "&"
	}
	return dbPath + sep + "_pragma=busy_timeout(5000)"
}
