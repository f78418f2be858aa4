package protection

import (
	"github.com/zoudehupowersystem/hecs-cps-sim/internal/kernel"
	"github.com/zoudehupowersystem/hecs-cps-sim/internal/model"
	"github.com/zoudehupowersystem/hecs-cps-sim/internal/telemetry"
)

// BreakerOperatingDelayMS is the fixed delay between an EntityTrip for an
// entity and that entity's breaker reporting BreakerOpened, per spec.md
// §4.6.
const BreakerOperatingDelayMS = 100

// Breaker is one breaker agent (spec.md §4.6): a detached task that watches
// for EntityTrip events naming its own entity and, after a fixed operating
// delay, triggers BreakerOpened for that entity. EntityTrip is a single
// global event shared by every entity's breaker, so a Breaker that observes
// a trip for a different entity re-subscribes immediately without acting.
type Breaker struct {
	sched   *kernel.Scheduler
	entity  model.Entity
	log     telemetry.Logger
	metrics *telemetry.Metrics
}

// NewBreaker constructs a Breaker for entity. log and metrics may be nil.
func NewBreaker(sched *kernel.Scheduler, entity model.Entity, log telemetry.Logger, metrics *telemetry.Metrics) *Breaker {
	return &Breaker{sched: sched, entity: entity, log: log, metrics: metrics}
}

// Start spawns and detaches the breaker's main loop task.
func (b *Breaker) Start() {
	t := b.sched.Spawn(b.run)
	t.Detach()
}

func (b *Breaker) run(tc *kernel.TaskContext) {
	for {
		payload := tc.WaitEvent(model.EntityTrip)
		tripped, ok := payload.(model.Entity)
		if !ok || tripped != b.entity {
			continue
		}
		tc.Delay(BreakerOperatingDelayMS)
		if b.metrics != nil {
			b.metrics.BreakersOpened.Inc()
		}
		if b.log != nil {
			b.log.Info("breaker opened", telemetry.F("entity", b.entity))
		}
		b.sched.Trigger(model.BreakerOpened, b.entity)
	}
}
