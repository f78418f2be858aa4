package protection

import (
	"github.com/zoudehupowersystem/hecs-cps-sim/internal/ecs"
	"github.com/zoudehupowersystem/hecs-cps-sim/internal/kernel"
	"github.com/zoudehupowersystem/hecs-cps-sim/internal/model"
	"github.com/zoudehupowersystem/hecs-cps-sim/internal/telemetry"
)

// Engine is the protection engine (spec.md §4.5): a single detached task
// that waits for FaultInfoEvent, normalizes the fault, and fans it out over
// every protective component currently in the registry in insertion order.
// Each component that picks up gets its own detached sub-task that waits
// out that component's trip delay and then triggers EntityTrip for the
// entity it protects.
type Engine struct {
	sched    *kernel.Scheduler
	registry *ecs.Registry
	log      telemetry.Logger
	metrics  *telemetry.Metrics
}

// NewEngine constructs an Engine. log and metrics may be nil in tests.
func NewEngine(sched *kernel.Scheduler, registry *ecs.Registry, log telemetry.Logger, metrics *telemetry.Metrics) *Engine {
	return &Engine{sched: sched, registry: registry, log: log, metrics: metrics}
}

// Start spawns and detaches the engine's main loop task.
func (e *Engine) Start() {
	t := e.sched.Spawn(e.run)
	t.Detach()
}

func (e *Engine) run(tc *kernel.TaskContext) {
	for {
		payload := tc.WaitEvent(model.FaultInfoEvent)
		fault := model.NormalizeFaultInfo(payload.(model.FaultInfo))
		if e.metrics != nil {
			e.metrics.FaultsInjected.Inc()
		}
		if e.log != nil {
			e.log.Info("fault received",
				telemetry.F("current_kA", fault.CurrentKA),
				telemetry.F("impedance_ohm", fault.ImpedanceOhm),
				telemetry.F("entity", fault.FaultyEntityID))
		}

		e.registry.ForEachProtective(func(entity model.Entity, p ecs.Protective) {
			if !p.PickUp(fault, entity) {
				return
			}
			delay := p.TripDelayMS(fault, entity)
			name := p.Name()
			if e.metrics != nil {
				e.metrics.TripsScheduled.Inc()
			}
			if e.log != nil {
				e.log.Info("protection picked up",
					telemetry.F("stage", name),
					telemetry.F("entity", entity),
					telemetry.F("delay_ms", delay))
			}
			trip := e.sched.Spawn(func(tc *kernel.TaskContext) {
				tc.Delay(kernel.TimePoint(delay))
				e.sched.Trigger(model.EntityTrip, entity)
			})
			trip.Detach()
		})
	}
}
