package model

// Entity is an opaque identity: components are associated with an Entity by
// the registry, never embedded in it. Entity carries no behavior of its own.
type Entity uint64

// InvalidEntity is never returned by a registry's Create and can be used as
// a sentinel "no entity" value.
const InvalidEntity Entity = 0
