// Package vpp implements the frequency oracle (C7) and the VPP controller
// (C8): the analytic disturbance model and the droop-response control loop
// that rides on top of it.
package vpp

import (
	"math"

	"github.com/zoudehupowersystem/hecs-cps-sim/internal/ecs"
	"github.com/zoudehupowersystem/hecs-cps-sim/internal/kernel"
	"github.com/zoudehupowersystem/hecs-cps-sim/internal/model"
	"github.com/zoudehupowersystem/hecs-cps-sim/internal/sink"
	"github.com/zoudehupowersystem/hecs-cps-sim/internal/telemetry"
)

// Deviation formula constants, verbatim, for bit-identical reproducibility.
const (
	constP  = 0.0862
	constM  = 0.1404
	constM1 = 0.1577
	constM2 = 0.0397
	constN  = 0.125
)

// FreqDeviationHz evaluates the analytic disturbance model at tRelSeconds
// (seconds since disturbance start). It returns 0 for tRelSeconds < 0.
func FreqDeviationHz(tRelSeconds float64) float64 {
	if tRelSeconds < 0 {
		return 0
	}
	inner := constM + (constM1*math.Sin(constM*tRelSeconds) - constM*math.Cos(constM*tRelSeconds))
	return -(inner / constM2) * math.Exp(-constN*tRelSeconds) * constP
}

// Oracle is the periodic emitter (spec.md §4.7): every StepMS of virtual
// time it computes the deviation at the current offset from disturbance
// start, publishes a FrequencyUpdate, and appends an aggregate-power CSV
// record summing PhysicalState.CurrentPowerKW across every managed entity.
type Oracle struct {
	sched               *kernel.Scheduler
	registry            *ecs.Registry
	stepMS              kernel.TimePoint
	disturbanceStartSec float64
	csv                 *sink.CSVSink
	log                 telemetry.Logger
}

// NewOracle constructs an Oracle. csv and log may be nil.
func NewOracle(sched *kernel.Scheduler, registry *ecs.Registry, stepMS kernel.TimePoint, disturbanceStartSec float64, csv *sink.CSVSink, log telemetry.Logger) *Oracle {
	return &Oracle{
		sched:               sched,
		registry:            registry,
		stepMS:              stepMS,
		disturbanceStartSec: disturbanceStartSec,
		csv:                 csv,
		log:                 log,
	}
}

// Start spawns and detaches the oracle's main loop task.
func (o *Oracle) Start() {
	t := o.sched.Spawn(o.run)
	t.Detach()
}

func (o *Oracle) run(tc *kernel.TaskContext) {
	for {
		tc.Delay(o.stepMS)

		nowSec := float64(o.sched.Now()) / 1000.0
		tRel := nowSec - o.disturbanceStartSec
		dev := FreqDeviationHz(tRel)

		o.sched.Trigger(model.FrequencyUpdate, model.FrequencyInfo{
			SimTimeSeconds:  nowSec,
			FreqDeviationHz: dev,
		})

		totalKW := 0.0
		ecs.ForEach[model.PhysicalState](o.registry, func(_ model.Entity, ps model.PhysicalState) {
			totalKW += ps.CurrentPowerKW
		})

		if o.csv != nil {
			o.csv.WriteRecord(o.sched.Now(), nowSec, tRel, dev, totalKW)
		}
		if o.log != nil {
			o.log.Debug("frequency sample",
				telemetry.F("sim_time_s", nowSec),
				telemetry.F("freq_dev_hz", dev),
				telemetry.F("total_vpp_power_kw", totalKW))
		}
	}
}
