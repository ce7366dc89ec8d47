package store

import (
	"context"
	"strings"
)

// Kind identifies one of the two logical cache stores the worker keeps.
type Kind string

const (
	// KindStatic holds the app shell and static assets.
	KindStatic Kind = "static"
	// KindAPI holds snapshots of backend responses.
	KindAPI Kind = "api"
)

// Kinds lists every store kind, in a stable order.
var Kinds = []Kind{KindStatic, KindAPI}

// Generations scopes a Storage to one deploy generation. Store names are
// composed as "<kind>@<generation>"; at most one generation per kind is
// current, and everything else is garbage once activation completes.
type Generations struct {
	storage Storage
	current string
}

// NewGenerations returns a Generations view over storage with the given
// current generation name (typically the deployed version string).
func NewGenerations(storage Storage, current string) *Generations {
	return &Generations{storage: storage, current: current}
}

// Current returns the current generation name.
func (g *Generations) Current() string {
	return g.current
}

// Name returns the store name for a kind under the current generation.
func (g *Generations) Name(kind Kind) string {
	return string(kind) + "@" + g.current
}

// generationOf extracts the generation part of a store name, or "" if the
// name is not generation-scoped.
func generationOf(name string) string {
	if i := strings.LastIndex(name, "@"); i >= 0 {
		return name[i+1:]
	}
	return ""
}

// Open returns a Handle on the current generation's store for kind. The
// handle is tagged with the generation it resolved at acquisition time, so
// deferred writes cannot resurrect a generation deleted in the meantime.
func (g *Generations) Open(ctx context.Context, kind Kind) (*Handle, error) {
	name := g.Name(kind)
	s, err := g.storage.Open(ctx, name)
	if err != nil {
		return nil, err
	}
	return &Handle{
		name:       name,
		generation: g.current,
		storage:    g.storage,
		store:      s,
	}, nil
}

// RemoveOthers deletes every store whose generation is not current, for
// all kinds. Called at activation; returns the removed store names.
func (g *Generations) RemoveOthers(ctx context.Context) ([]string, error) {
	names, err := g.storage.Names(ctx)
	if err != nil {
		return nil, err
	}
	keep := make(map[string]bool, len(Kinds))
	for _, kind := range Kinds {
		keep[g.Name(kind)] = true
	}
	var removed []string
	for _, name := range names {
		if keep[name] {
			continue
		}
		ok, err := g.storage.Remove(ctx, name)
		if err != nil {
			return removed, err
		}
		if ok {
			removed = append(removed, name)
		}
	}
	return removed, nil
}

// RemoveAll deletes every store of every generation unconditionally.
func (g *Generations) RemoveAll(ctx context.Context) error {
	names, err := g.storage.Names(ctx)
	if err != nil {
		return err
	}
	for _, name := range names {
		if _, err := g.storage.Remove(ctx, name); err != nil {
			return err
		}
	}
	return nil
}

// Handle is a generation-tagged reference to one store. Reads go straight
// through; writes re-check that the store still exists so that a purge or
// activation sweep racing a deferred write always wins.
type Handle struct {
	name       string
	generation string
	storage    Storage
	store      Store
}

// Generation returns the generation the handle was resolved against.
func (h *Handle) Generation() string {
	return h.generation
}

// Name returns the underlying store name.
func (h *Handle) Name() string {
	return h.name
}

// Get returns the snapshot stored under key, if any.
func (h *Handle) Get(ctx context.Context, key string) (*Snapshot, bool, error) {
	return h.store.Get(ctx, key)
}

// Put stores snap under key after confirming the handle's store has not
// been deleted since acquisition. A write that loses the race is dropped
// and reported as ErrGenerationGone.
func (h *Handle) Put(ctx context.Context, key string, snap *Snapshot) error {
	ok, err := h.storage.Has(ctx, h.name)
	if err != nil {
		return err
	}
	if !ok {
		return ErrGenerationGone
	}
	snap.Generation = h.generation
	return h.store.Put(ctx, key, snap)
}

// Len returns the number of entries in the handle's store.
func (h *Handle) Len(ctx context.Context) (int, error) {
	return h.store.Len(ctx)
}
