// This file resolves mark references against host tables stored in the same
// SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"

	"github.com/mesh-intelligence/markable/pkg/types"
)

// identifierPattern restricts table and column names interpolated into SQL.
var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ErrInvalidIdentifier is returned for table or column names that are not
// plain SQL identifiers.
var ErrInvalidIdentifier = errors.New("invalid SQL identifier")

var _ types.Resolver = (*TableResolver)(nil)

// TableResolver resolves a reference by checking that a row with the
// reference ID exists in a host table. Resolve returns the ID on success.
type TableResolver struct {
	db    *sql.DB
	query string
}

// NewTableResolver creates a resolver for rows of table keyed by idColumn.
func NewTableResolver(db *sql.DB, table, idColumn string) (*TableResolver, error) {
	if !identifierPattern.MatchString(table) {
		return nil, fmt.Errorf("%w: table %q", ErrInvalidIdentifier, table)
	}
	if !identifierPattern.MatchString(idColumn) {
		return nil, fmt.Errorf("%w: column %q", ErrInvalidIdentifier, idColumn)
	}
	return &TableResolver{
		db:    db,
		query: fmt.Sprintf(`SELECT 1 FROM "%s" WHERE "%s" = ? LIMIT 1`, table, idColumn),
	}, nil
}

// Resolve returns ref.ID when the row exists and types.ErrNotFound otherwise.
func (r *TableResolver) Resolve(ctx context.Context, ref types.Ref) (any, error) {
	var one int
	err := r.db.QueryRowContext(ctx, r.query, ref.ID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, types.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", ref, err)
	}
	return ref.ID, nil
}
