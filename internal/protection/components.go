// Package protection implements the protective relay component types
// (spec.md §4.4), the protection engine that fans a fault out over them
// (§4.5), and the breaker agent each protected entity is paired with (§4.6).
package protection

import "github.com/zoudehupowersystem/hecs-cps-sim/internal/model"

// OverCurrentProtection trips when a fault's current reaches PickupKA,
// after a fixed operating delay. StageName distinguishes this stage from
// others on the same entity in logs and CSV/metrics labels.
type OverCurrentProtection struct {
	PickupKA  float64
	DelayMS   int64
	StageName string
}

// PickUp implements ecs.Protective: an overcurrent stage picks up whenever
// the fault current reaches its pickup setting, per spec.md §4.4's
// pick_up = fault.current_kA >= pickup_kA. selfID is unused: spec.md §4.4
// only gates the distance relay's backup zone by self_id.
func (p OverCurrentProtection) PickUp(fault model.FaultInfo, selfID model.Entity) bool {
	return fault.CurrentKA >= p.PickupKA
}

// TripDelayMS implements ecs.Protective: overcurrent protection uses a
// fixed delay independent of the fault, per spec.md §4.4.
func (p OverCurrentProtection) TripDelayMS(fault model.FaultInfo, selfID model.Entity) int64 {
	return p.DelayMS
}

// Name implements ecs.Protective.
func (p OverCurrentProtection) Name() string { return p.StageName }

// DistanceProtection implements a 3-zone distance relay. ZSetOhm[i] is the
// reach (in Ohms) of zone i; TMS[i] is that zone's operating delay in
// milliseconds. Zone 0 is the fastest, most restrictive zone; zone 2 is the
// backup zone with the longest reach and delay.
type DistanceProtection struct {
	ZSetOhm [3]float64
	TMS     [3]int64
}

// zoneFor returns the index of the first (fastest) zone whose reach covers
// the fault's derived impedance, or -1 if no zone picks up. If the fault is
// on a different, known entity than selfID, only zone 2 (the backup zone,
// z3) can pick up, per spec.md §4.4: a relay only sees faults on its own
// feeder at full selectivity; anything else it only backs up.
func (p DistanceProtection) zoneFor(fault model.FaultInfo, selfID model.Entity) int {
	if fault.FaultyEntityID != selfID && fault.FaultyEntityID != model.InvalidEntity {
		if fault.ImpedanceOhm <= p.ZSetOhm[2] {
			return 2
		}
		return -1
	}
	for i, reach := range p.ZSetOhm {
		if fault.ImpedanceOhm <= reach {
			return i
		}
	}
	return -1
}

// PickUp implements ecs.Protective: a distance relay picks up if the
// fault's derived impedance falls within any zone's reach, per spec.md
// §4.4's backup-zone rule (the widest zone is effectively the backup for
// the zones nested inside it).
func (p DistanceProtection) PickUp(fault model.FaultInfo, selfID model.Entity) bool {
	return p.zoneFor(fault, selfID) >= 0
}

// TripDelayMS implements ecs.Protective: the delay of the zone zoneFor
// selects — the first (fastest) covering zone for a local fault, zone 3 for
// a fault on another entity — or 0 when no zone picks up.
func (p DistanceProtection) TripDelayMS(fault model.FaultInfo, selfID model.Entity) int64 {
	zone := p.zoneFor(fault, selfID)
	if zone < 0 {
		return 0
	}
	return p.TMS[zone]
}

// Name implements ecs.Protective.
func (p DistanceProtection) Name() string { return "distance" }
