// Package ecs implements the component registry (spec.md §4.3): a sparse
// (component-type, entity) -> component store, plus a secondary ordered
// index used to iterate every component that satisfies the Protective
// capability in deterministic, insertion order, regardless of its concrete
// type.
package ecs

import (
	"reflect"

	"github.com/zoudehupowersystem/hecs-cps-sim/internal/model"
)

// Protective is the capability interface spec.md §4.4 asks protective
// components to satisfy, so the protection engine can fan out over a
// heterogeneous set of overcurrent and distance relays without a type
// switch at the call site. selfID is the entity the component protects,
// per spec.md §4.4's pick_up(fault, self_id) signature — a distance relay
// needs it to tell a local fault from a remote one. Concrete types live in
// internal/protection.
type Protective interface {
	PickUp(fault model.FaultInfo, selfID model.Entity) bool
	TripDelayMS(fault model.FaultInfo, selfID model.Entity) int64
	Name() string
}

type protectiveEntry struct {
	entity model.Entity
	comp   Protective
}

// Registry is the (component-type, entity) -> component store. A zero
// Registry is not usable; construct one with NewRegistry.
//
// Like the Scheduler, Registry is not safe for concurrent use — it is only
// ever touched from inside the single logical thread the scheduler drives
// (spec.md §5).
type Registry struct {
	nextEntity uint64
	stores     map[reflect.Type]map[model.Entity]any
	protective []protectiveEntry
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		stores: make(map[reflect.Type]map[model.Entity]any),
	}
}

// Create allocates and returns a fresh Entity. Entities are never reused
// within a Registry's lifetime.
func (r *Registry) Create() model.Entity {
	r.nextEntity++
	return model.Entity(r.nextEntity)
}

// Emplace associates a component of type C with e, overwriting any existing
// component of that exact type already associated with e. Precondition
// violations from emplacing the wrong type at a coordinate (spec.md §7) are
// impossible here by construction: C is fixed by Go's type inference at the
// call site, not by a runtime tag.
func Emplace[C any](r *Registry, e model.Entity, c C) {
	t := reflect.TypeOf((*C)(nil)).Elem()
	store, ok := r.stores[t]
	if !ok {
		store = make(map[model.Entity]any)
		r.stores[t] = store
	}
	store[e] = c

	if p, ok := any(c).(Protective); ok {
		r.protective = append(r.protective, protectiveEntry{entity: e, comp: p})
	}
}

// Get returns the component of type C associated with e, if any.
func Get[C any](r *Registry, e model.Entity) (C, bool) {
	var zero C
	t := reflect.TypeOf((*C)(nil)).Elem()
	store, ok := r.stores[t]
	if !ok {
		return zero, false
	}
	v, ok := store[e]
	if !ok {
		return zero, false
	}
	return v.(C), true
}

// ForEach calls fn for every (entity, component) pair of type C, in
// unspecified order — callers that need determinism over a specific
// capability should use ForEachProtective instead.
func ForEach[C any](r *Registry, fn func(e model.Entity, c C)) {
	t := reflect.TypeOf((*C)(nil)).Elem()
	store, ok := r.stores[t]
	if !ok {
		return
	}
	for e, v := range store {
		fn(e, v.(C))
	}
}

// ForEachProtective calls fn for every component ever emplaced that
// satisfies Protective, in the exact order those components were emplaced.
// This is what the protection engine (spec.md §4.5) fans a fault out over.
func (r *Registry) ForEachProtective(fn func(e model.Entity, p Protective)) {
	for _, entry := range r.protective {
		fn(entry.entity, entry.comp)
	}
}
