package protection

import (
	"github.com/zoudehupowersystem/hecs-cps-sim/internal/kernel"
	"github.com/zoudehupowersystem/hecs-cps-sim/internal/model"
)

// InjectFault is the fault injector's collaborator-visible contract (spec.md
// §4.9): triggering FaultInfoEvent with info is the entirety of what
// injecting a fault means to the rest of the simulation.
func InjectFault(sched *kernel.Scheduler, info model.FaultInfo) {
	sched.Trigger(model.FaultInfoEvent, info)
}
