package types

import "context"

// MarkStore is the persistence boundary for marks. It enforces no business
// rules: callers validate marker, markable and label before writing.
type MarkStore interface {
	// Insert appends a mark. When MarkID is empty a UUID v7 is generated and
	// when CreatedAt is zero the current time is used. Returns the mark ID.
	// Returns ErrDuplicateMark if the store enforces uniqueness and the
	// (marker, markable, label) triple already exists.
	Insert(ctx context.Context, m *Mark) (string, error)

	// DeleteWhere removes every mark matching the filter and returns the
	// number of rows removed.
	DeleteWhere(ctx context.Context, f Filter) (int, error)

	// FindWhere returns every mark matching the filter, oldest first.
	FindWhere(ctx context.Context, f Filter) ([]*Mark, error)

	// All returns every mark. Intended for maintenance scans only.
	All(ctx context.Context) ([]*Mark, error)
}

// Transactor is implemented by stores that can run several operations
// atomically. fn receives a MarkStore bound to the transaction; returning an
// error from fn rolls every write back.
type Transactor interface {
	WithTx(ctx context.Context, fn func(MarkStore) error) error
}

// Resolver looks up a live record by reference. Resolve returns ErrNotFound
// when the record no longer exists.
type Resolver interface {
	Resolve(ctx context.Context, ref Ref) (any, error)
}

// ResolverFunc adapts a function to the Resolver interface.
type ResolverFunc func(ctx context.Context, ref Ref) (any, error)

// Resolve calls f(ctx, ref).
func (f ResolverFunc) Resolve(ctx context.Context, ref Ref) (any, error) {
	return f(ctx, ref)
}

// Resolvers dispatches to a per-type Resolver. A reference whose type has no
// resolver yields ErrNoResolver.
type Resolvers map[string]Resolver

// Resolve implements Resolver.
func (rs Resolvers) Resolve(ctx context.Context, ref Ref) (any, error) {
	r, ok := rs[ref.Type]
	if !ok {
		return nil, &ResolveError{Ref: ref, Err: ErrNoResolver}
	}
	return r.Resolve(ctx, ref)
}

// ResolveError reports a failed lookup for a reference.
type ResolveError struct {
	Ref Ref
	Err error
}

func (e *ResolveError) Error() string {
	return "resolving " + e.Ref.String() + ": " + e.Err.Error()
}

func (e *ResolveError) Unwrap() error { return e.Err }

// Backend is a MarkStore with an attach/detach lifecycle. Callers attach with
// a Config, use the store, and detach when done.
type Backend interface {
	MarkStore
	Transactor

	// Attach opens the backend described by config. Returns
	// ErrAlreadyAttached if called while already attached.
	Attach(config Config) error

	// Detach releases backend resources. Idempotent: multiple calls succeed.
	// After Detach, store operations return ErrDetached.
	Detach() error
}
