package marks

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/mesh-intelligence/markable/pkg/types"
)

// Reconciler finds and deletes orphan marks: marks whose marker or markable
// no longer resolves to a live record. It is a maintenance routine run on
// demand. A record deleted while a scan is in progress may be missed; running
// it again picks it up.
type Reconciler struct {
	store    types.MarkStore
	resolver types.Resolver
	log      *logrus.Logger
}

// NewReconciler creates a Reconciler over store. Every marker and markable is
// looked up through resolver; a nil logger is replaced by a default one.
func NewReconciler(store types.MarkStore, resolver types.Resolver, logger *logrus.Logger) *Reconciler {
	if logger == nil {
		logger = defaultLogger()
	}
	return &Reconciler{store: store, resolver: resolver, log: logger}
}

// Reconciler returns a Reconciler over the service's store, sharing its
// logger.
func (s *Service) Reconciler(resolver types.Resolver) *Reconciler {
	return NewReconciler(s.store, resolver, s.log)
}

// FindOrphans scans every mark and returns the orphans without deleting
// anything. A resolver error other than types.ErrNotFound aborts the scan.
func (r *Reconciler) FindOrphans(ctx context.Context) ([]*types.Mark, error) {
	if r.resolver == nil {
		return nil, types.ErrNoResolver
	}

	all, err := r.store.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading marks: %w", err)
	}

	live := make(map[types.Ref]bool)
	alive := func(ref types.Ref) (bool, error) {
		if ok, seen := live[ref]; seen {
			return ok, nil
		}
		v, err := r.resolver.Resolve(ctx, ref)
		switch {
		case errors.Is(err, types.ErrNotFound):
			live[ref] = false
		case err != nil:
			return false, fmt.Errorf("resolving %s: %w", ref, err)
		default:
			live[ref] = v != nil
		}
		return live[ref], nil
	}

	orphans := make([]*types.Mark, 0)
	for _, m := range all {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		ok, err := alive(m.Marker)
		if err != nil {
			return nil, err
		}
		if ok {
			ok, err = alive(m.Markable)
			if err != nil {
				return nil, err
			}
		}
		if !ok {
			orphans = append(orphans, m)
		}
	}

	r.log.WithFields(logrus.Fields{
		"scanned":  len(all),
		"orphans":  len(orphans),
		"resolved": len(live),
	}).Debug("orphan scan complete")

	return orphans, nil
}

// DeleteOrphans deletes every orphan mark in one pass and returns how many
// were removed.
func (r *Reconciler) DeleteOrphans(ctx context.Context) (int, error) {
	orphans, err := r.FindOrphans(ctx)
	if err != nil {
		return 0, err
	}
	if len(orphans) == 0 {
		return 0, nil
	}

	ids := make([]string, len(orphans))
	for i, m := range orphans {
		ids[i] = m.MarkID
	}
	n, err := r.store.DeleteWhere(ctx, types.Filter{IDs: ids})
	if err != nil {
		return 0, fmt.Errorf("deleting orphans: %w", err)
	}

	r.log.WithField("deleted", n).Info("orphan marks deleted")
	return n, nil
}
