package vpp

import (
	"github.com/zoudehupowersystem/hecs-cps-sim/internal/ecs"
	"github.com/zoudehupowersystem/hecs-cps-sim/internal/kernel"
	"github.com/zoudehupowersystem/hecs-cps-sim/internal/model"
	"github.com/zoudehupowersystem/hecs-cps-sim/internal/telemetry"
)

// Gating thresholds, per spec.md §4.8.
const (
	FreqChangeThresholdHz = 0.01
	TimeMaxSeconds        = 1.0
)

// Controller is one VPP controller task (spec.md §4.8): a detached loop
// that consumes every FrequencyUpdate and, when gated in, recomputes power
// and integrates SOC for every entity in its population (all entities whose
// FrequencyControlConfig.Kind matches Kind).
type Controller struct {
	sched    *kernel.Scheduler
	registry *ecs.Registry
	kind     model.DeviceKind
	log      telemetry.Logger
	metrics  *telemetry.Metrics

	haveEvent          bool
	lastEventTimeS     float64
	haveFullUpdate     bool
	lastFullUpdateTimeS     float64
	lastFullUpdateFreqDevHz float64
}

// NewController constructs a Controller managing every entity whose
// FrequencyControlConfig.Kind equals kind. log and metrics may be nil.
func NewController(sched *kernel.Scheduler, registry *ecs.Registry, kind model.DeviceKind, log telemetry.Logger, metrics *telemetry.Metrics) *Controller {
	return &Controller{sched: sched, registry: registry, kind: kind, log: log, metrics: metrics}
}

// Start spawns and detaches the controller's main loop task.
func (c *Controller) Start() {
	t := c.sched.Spawn(c.run)
	t.Detach()
}

func (c *Controller) run(tc *kernel.TaskContext) {
	for {
		payload := tc.WaitEvent(model.FrequencyUpdate)
		info := payload.(model.FrequencyInfo)
		c.onFrequencyUpdate(info)
	}
}

func (c *Controller) onFrequencyUpdate(info model.FrequencyInfo) {
	// 1. Monotonic dedupe.
	if c.haveEvent && info.SimTimeSeconds <= c.lastEventTimeS {
		return
	}
	c.haveEvent = true
	c.lastEventTimeS = info.SimTimeSeconds

	// 2. Gating.
	fullUpdate := !c.haveFullUpdate ||
		absFloat(info.FreqDeviationHz-c.lastFullUpdateFreqDevHz) > FreqChangeThresholdHz ||
		(info.SimTimeSeconds-c.lastFullUpdateTimeS) >= TimeMaxSeconds
	if !fullUpdate {
		return
	}

	dt := info.SimTimeSeconds - c.lastFullUpdateTimeS
	firstUpdate := !c.haveFullUpdate

	if c.log != nil {
		c.log.Debug("vpp full update",
			telemetry.F("sim_time_s", info.SimTimeSeconds),
			telemetry.F("freq_dev_hz", info.FreqDeviationHz))
	}

	ecs.ForEach[model.FrequencyControlConfig](c.registry, func(e model.Entity, cfg model.FrequencyControlConfig) {
		if cfg.Kind != c.kind {
			return
		}
		ps, ok := ecs.Get[model.PhysicalState](c.registry, e)
		if !ok {
			return
		}

		if !firstUpdate {
			capacityKWh := cfg.Kind.CapacityKWh()
			ps.SOC -= ps.CurrentPowerKW * (dt / 3600.0) / capacityKWh
			ps.SOC = clamp(ps.SOC, 0.0, 1.0)
		}

		ps.CurrentPowerKW = recomputePowerKW(cfg, ps, info.FreqDeviationHz)
		ecs.Emplace(c.registry, e, ps)

		if c.metrics != nil {
			c.metrics.VPPFullUpdates.Inc()
		}
	})

	c.haveFullUpdate = true
	c.lastFullUpdateTimeS = info.SimTimeSeconds
	c.lastFullUpdateFreqDevHz = info.FreqDeviationHz

	if c.metrics != nil {
		total := 0.0
		ecs.ForEach[model.FrequencyControlConfig](c.registry, func(e model.Entity, _ model.FrequencyControlConfig) {
			if ps, ok := ecs.Get[model.PhysicalState](c.registry, e); ok {
				total += ps.CurrentPowerKW
			}
		})
		c.metrics.VPPAggregatePowerKW.Set(total)
	}
}

// recomputePowerKW implements spec.md §4.8 step 3's power recompute, limits,
// and EV SOC guard, exactly.
func recomputePowerKW(cfg model.FrequencyControlConfig, ps model.PhysicalState, freqDevHz float64) float64 {
	power := cfg.BasePowerKW

	if absFloat(freqDevHz) > cfg.DeadbandHz {
		if freqDevHz < 0 {
			deltaF := freqDevHz + cfg.DeadbandHz
			candidate := -cfg.GainKWPerHz * deltaF
			if cfg.Kind == model.DeviceKindEV {
				if ps.SOC < cfg.SOCMinThreshold && cfg.BasePowerKW < 0 {
					power = 0
				} else {
					// "otherwise keep base" read as "otherwise use the
					// ordinary candidate" — see DESIGN.md's internal/vpp
					// resolution note.
					power = candidate
				}
			} else {
				power = candidate
			}
		} else {
			deltaF := freqDevHz - cfg.DeadbandHz
			power = cfg.BasePowerKW - cfg.GainKWPerHz*deltaF
		}
	}

	power = clamp(power, cfg.MinOutputKW, cfg.MaxOutputKW)

	if cfg.Kind == model.DeviceKindEV {
		if power > 0 && ps.SOC <= cfg.SOCMinThreshold {
			power = 0
		}
		if power < 0 && ps.SOC >= cfg.SOCMaxThreshold {
			power = 0
		}
	}

	return power
}

func absFloat(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

func clamp(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
