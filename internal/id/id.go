package id

import (
	"fmt"

	"github.com/google/uuid"
)

// Source tags which input dataset an identifier came from
type Source string

const (
	Local    Source = "local"
	Incoming Source = "incoming"
)

// Allocator hands out collision-free identifiers for one entity kind during
// one merge run. Every identifier of that kind from both inputs is seeded as
// taken, so a derived identifier never shadows an input identifier.
type Allocator[T ~string] struct {
	taken map[T]bool
	remap map[Source]map[T]T
}

// NewAllocator returns an allocator with the given identifiers reserved
func NewAllocator[T ~string](seed ...T) *Allocator[T] {
	a := &Allocator[T]{
		taken: make(map[T]bool, len(seed)),
		remap: map[Source]map[T]T{
			Local:    {},
			Incoming: {},
		},
	}
	a.Reserve(seed...)
	return a
}

// Reserve marks identifiers as taken
func (a *Allocator[T]) Reserve(ids ...T) {
	for _, v := range ids {
		a.taken[v] = true
	}
}

// Keep records that old keeps its identifier in the merged result
func (a *Allocator[T]) Keep(src Source, old T) T {
	a.taken[old] = true
	a.remap[src][old] = old
	return old
}

// Rename derives a new identifier for old and caches it, so repeated calls
// for the same (src, old) pair return the same answer.
func (a *Allocator[T]) Rename(src Source, old T) T {
	if v, ok := a.remap[src][old]; ok && v != old {
		return v
	}
	v := a.Fresh(old)
	a.remap[src][old] = v
	return v
}

// Fresh reserves and returns base_N for the smallest N >= 2 that is free.
// The result is not recorded as a mapping.
func (a *Allocator[T]) Fresh(base T) T {
	for n := 2; ; n++ {
		v := T(fmt.Sprintf("%s_%d", base, n))
		if !a.taken[v] {
			a.taken[v] = true
			return v
		}
	}
}

// Reassign points the mapping of (src, old) at v, replacing any earlier
// answer. v must already be reserved.
func (a *Allocator[T]) Reassign(src Source, old, v T) {
	a.remap[src][old] = v
}

// Remap returns the merged identifier for old, or old itself when it was
// never renamed.
func (a *Allocator[T]) Remap(src Source, old T) T {
	if v, ok := a.remap[src][old]; ok {
		return v
	}
	return old
}

// Mapped returns the recorded mapping for old, if any
func (a *Allocator[T]) Mapped(src Source, old T) (T, bool) {
	v, ok := a.remap[src][old]
	return v, ok
}

// New mints a random identifier for an entity created outside a merge
func New() string {
	return uuid.New().String()
}
