// Package persist implements slots.Repository over a namespaced key/value
// medium, reading every historical shape through the legacy normalizer and
// applying the retention window on load.
package persist

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/codr1/nailbook/internal/calendar"
	"github.com/codr1/nailbook/internal/legacy"
	"github.com/codr1/nailbook/internal/slots"
)

// Storage namespaces. NamespaceNames is only ever read.
const (
	NamespaceSlots  = "nails.v1.slots"
	NamespaceDone   = "nails.v1.slots.done"
	NamespaceMarked = "nails.v1.markedDays"
	NamespaceNames  = "nails.v1.slots.names"
)

const DefaultRetentionDays = 30

// Medium stores opaque documents by namespace. Get returns nil for an absent
// namespace. Put writes every value in one atomic step.
type Medium interface {
	Get(ctx context.Context, namespace string) ([]byte, error)
	Put(ctx context.Context, values map[string][]byte) error
}

type Options struct {
	// RetentionDays drops entries dated more than this many days before
	// today. Zero means DefaultRetentionDays; negative disables the purge.
	RetentionDays int
	Location      *time.Location
	Now           func() time.Time
	// OnPurge is called with the number of entries dropped by a load.
	OnPurge func(removed int)
}

type Repository struct {
	medium    Medium
	retention int
	loc       *time.Location
	now       func() time.Time
	onPurge   func(int)
}

var _ slots.Repository = (*Repository)(nil)

func NewRepository(medium Medium, opts Options) *Repository {
	r := &Repository{
		medium:    medium,
		retention: opts.RetentionDays,
		loc:       opts.Location,
		now:       opts.Now,
		onPurge:   opts.OnPurge,
	}
	if r.retention == 0 {
		r.retention = DefaultRetentionDays
	}
	if r.loc == nil {
		r.loc = time.Local
	}
	if r.now == nil {
		r.now = time.Now
	}
	return r
}

// Load reads and normalises every namespace. Entries outside the retention
// window are dropped and, when any were, the cleaned state is written back.
func (r *Repository) Load(ctx context.Context) (*slots.Store, error) {
	store, _, err := r.load(ctx)
	return store, err
}

// PurgeNow loads the state, which applies the retention window, and
// reports how many entries were dropped.
func (r *Repository) PurgeNow(ctx context.Context) (int, error) {
	_, removed, err := r.load(ctx)
	return removed, err
}

func (r *Repository) load(ctx context.Context) (*slots.Store, int, error) {
	docs, err := r.documents(ctx)
	if err != nil {
		return nil, 0, err
	}

	now := r.now()
	store, dropped := legacy.Normalize(docs, now.UTC())
	logger := log.Ctx(ctx)
	for _, rec := range dropped {
		logger.Warn().
			Str("component", "persist").
			Str("collection", rec.Collection).
			Str("key", rec.Key).
			Str("reason", rec.Reason).
			Msg("Dropped malformed persisted record")
	}

	removed := r.purge(store, now)
	if removed > 0 {
		logger.Info().
			Str("component", "persist").
			Int("removed", removed).
			Msg("Purged entries outside retention window")
		if err := r.Save(ctx, store); err != nil {
			return nil, 0, fmt.Errorf("write back purged state: %w", err)
		}
	}
	return store, removed, nil
}

// Save writes the canonical open, done and marked-day collections.
func (r *Repository) Save(ctx context.Context, store *slots.Store) error {
	docs, err := legacy.Encode(store)
	if err != nil {
		return err
	}
	return r.medium.Put(ctx, map[string][]byte{
		NamespaceSlots:  docs.Slots,
		NamespaceDone:   docs.Done,
		NamespaceMarked: docs.Marked,
	})
}

// Cutoff returns the first date that survives the retention window, or the
// zero date when retention is disabled.
func (r *Repository) Cutoff() calendar.Date {
	if r.retention < 0 {
		return calendar.Date{}
	}
	return calendar.Today(r.now(), r.loc).AddDays(-r.retention)
}

func (r *Repository) purge(store *slots.Store, now time.Time) int {
	if r.retention < 0 {
		return 0
	}
	cutoff := calendar.Today(now, r.loc).AddDays(-r.retention)
	removed := store.PurgeBefore(cutoff)
	if removed > 0 && r.onPurge != nil {
		r.onPurge(removed)
	}
	return removed
}

func (r *Repository) documents(ctx context.Context) (legacy.Documents, error) {
	var docs legacy.Documents
	targets := []struct {
		namespace string
		dst       *json.RawMessage
	}{
		{NamespaceSlots, &docs.Slots},
		{NamespaceDone, &docs.Done},
		{NamespaceMarked, &docs.Marked},
		{NamespaceNames, &docs.Names},
	}
	for _, target := range targets {
		value, err := r.medium.Get(ctx, target.namespace)
		if err != nil {
			return legacy.Documents{}, fmt.Errorf("read %s: %w", target.namespace, err)
		}
		*target.dst = value
	}
	return docs, nil
}
