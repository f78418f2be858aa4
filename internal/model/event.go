// Package model holds the plain data types shared across the simulation:
// event identifiers and the payload structs carried by FaultInfo,
// EntityTrip, and FrequencyUpdate events. Nothing in this package touches
// the scheduler or the registry — it is pure data, imported by every other
// internal package.
package model

import "github.com/zoudehupowersystem/hecs-cps-sim/internal/kernel"

// Well-known event ids. Numeric values match the registry in spec.md §6 so
// that CSV/log output referencing an id by number lines up with the spec.
const (
	GeneratorReady    kernel.EventID = 1
	LoadChange        kernel.EventID = 2
	BreakerOpened     kernel.EventID = 6 // payload: Entity
	StabilityConcern  kernel.EventID = 7
	LoadShedRequest   kernel.EventID = 8
	PowerAdjustRequest kernel.EventID = 9
	FaultInfoEvent    kernel.EventID = 100 // payload: FaultInfo
	EntityTrip        kernel.EventID = 101 // payload: Entity
	FrequencyUpdate   kernel.EventID = 200 // payload: FrequencyInfo
)
