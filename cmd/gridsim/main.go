// Command gridsim runs a reference cyber-physical power system scenario
// over the simulation kernel: the three protection scenarios from spec.md
// §8 plus an EV/ESS frequency-response population riding the same
// scheduler and virtual clock.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/zoudehupowersystem/hecs-cps-sim/internal/ecs"
	"github.com/zoudehupowersystem/hecs-cps-sim/internal/errs"
	"github.com/zoudehupowersystem/hecs-cps-sim/internal/kernel"
	"github.com/zoudehupowersystem/hecs-cps-sim/internal/model"
	"github.com/zoudehupowersystem/hecs-cps-sim/internal/protection"
	"github.com/zoudehupowersystem/hecs-cps-sim/internal/sink"
	"github.com/zoudehupowersystem/hecs-cps-sim/internal/telemetry"
	"github.com/zoudehupowersystem/hecs-cps-sim/internal/vpp"

	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "gridsim",
		Short: "Discrete-event simulator for cyber-physical power systems",
	}
	root.AddCommand(newRunCmd())
	return root
}

func newRunCmd() *cobra.Command {
	var (
		horizonMS      int64
		stepMS         int64
		disturbanceSec float64
		csvPath        string
		logLevel       string
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the reference scenario to completion",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScenario(scenarioConfig{
				horizonMS:      kernel.TimePoint(horizonMS),
				stepMS:         kernel.TimePoint(stepMS),
				disturbanceSec: disturbanceSec,
				csvPath:        csvPath,
				logLevel:       telemetry.ParseLevel(logLevel),
			})
		},
	}

	cmd.Flags().Int64Var(&horizonMS, "horizon-ms", 70000, "simulation horizon, in virtual milliseconds")
	cmd.Flags().Int64Var(&stepMS, "step-ms", 20, "frequency oracle step, in virtual milliseconds")
	cmd.Flags().Float64Var(&disturbanceSec, "disturbance-s", 5.0, "disturbance start, in virtual seconds")
	cmd.Flags().StringVar(&csvPath, "csv", "gridsim.csv", "path to write the aggregate-power CSV record stream")
	cmd.Flags().StringVar(&logLevel, "log-level", "info", "log level: debug, info, warn, error")

	return cmd
}

type scenarioConfig struct {
	horizonMS      kernel.TimePoint
	stepMS         kernel.TimePoint
	disturbanceSec float64
	csvPath        string
	logLevel       telemetry.Level
}

func runScenario(cfg scenarioConfig) error {
	if cfg.horizonMS <= 0 || cfg.stepMS <= 0 {
		return errs.New(errs.KindConfigInvalid, "run: horizon-ms and step-ms must be positive")
	}

	log := telemetry.NewZerologLogger(os.Stdout, cfg.logLevel)
	reg := prometheus.NewRegistry()
	metrics := telemetry.NewMetrics(reg)

	f, err := os.Create(cfg.csvPath)
	if err != nil {
		return fmt.Errorf("open csv output: %w", err)
	}
	defer f.Close()
	csv := sink.NewCSVSink(f, log.WithComponent("csv"))

	sched := kernel.New()
	registry := ecs.NewRegistry()

	buildProtectionScenario(sched, registry, log, metrics)
	buildVPPScenario(sched, registry)

	oracle := vpp.NewOracle(sched, registry, cfg.stepMS, cfg.disturbanceSec, csv, log.WithComponent("oracle"))
	oracle.Start()

	vpp.NewController(sched, registry, model.DeviceKindEV, log.WithComponent("vpp-ev"), metrics).Start()
	vpp.NewController(sched, registry, model.DeviceKindESS, log.WithComponent("vpp-ess"), metrics).Start()

	sched.RunUntil(cfg.horizonMS)

	log.Info("scenario complete", telemetry.F("horizon_ms", int64(cfg.horizonMS)))
	return nil
}

// buildProtectionScenario reproduces spec.md §8's three end-to-end
// protection scenarios: a line with overcurrent + distance stages, a
// transformer with a single overcurrent stage, plus the faults that
// exercise selective tripping, backup-only tripping, and transformer
// overcurrent.
func buildProtectionScenario(sched *kernel.Scheduler, registry *ecs.Registry, log telemetry.Logger, metrics *telemetry.Metrics) {
	engine := protection.NewEngine(sched, registry, log.WithComponent("protection"), metrics)
	engine.Start()

	line := registry.Create()
	ecs.Emplace(registry, line, protection.OverCurrentProtection{
		PickupKA: 5.0, DelayMS: 200, StageName: "OC-L1P-Fast",
	})
	ecs.Emplace(registry, line, protection.DistanceProtection{
		ZSetOhm: [3]float64{5, 15, 25},
		TMS:     [3]int64{0, 300, 700},
	})
	protection.NewBreaker(sched, line, log.WithComponent("breaker-line"), metrics).Start()

	otherEntity := registry.Create()
	protection.NewBreaker(sched, otherEntity, log.WithComponent("breaker-other"), metrics).Start()

	transformer := registry.Create()
	ecs.Emplace(registry, transformer, protection.OverCurrentProtection{
		PickupKA: 2.5, DelayMS: 300, StageName: "OC-T1P-Main",
	})
	protection.NewBreaker(sched, transformer, log.WithComponent("breaker-transformer"), metrics).Start()

	scheduleFault := func(atMS kernel.TimePoint, info model.FaultInfo) {
		t := sched.Spawn(func(tc *kernel.TaskContext) {
			tc.Delay(atMS - sched.Now())
			protection.InjectFault(sched, model.NormalizeFaultInfo(info))
		})
		t.Detach()
	}

	// Scenario 1: selective overcurrent, fault on the line.
	scheduleFault(6000, model.FaultInfo{CurrentKA: 15, VoltageKV: 220, ImpedanceOhm: 11.73, DistanceKM: 10, FaultyEntityID: line})
	// Scenario 2: backup only, fault elsewhere at impedance 20 ohms (current
	// kept under the line's overcurrent pickup).
	scheduleFault(9000, model.FaultInfo{CurrentKA: 2.0, ImpedanceOhm: 20, FaultyEntityID: otherEntity})
	// Scenario 3: transformer overcurrent.
	scheduleFault(13000, model.FaultInfo{CurrentKA: 3.0, VoltageKV: 220, FaultyEntityID: transformer})
}

// buildVPPScenario reproduces spec.md §8's EV-SOC-floor and ESS-sustained-
// dip frequency-response scenarios.
func buildVPPScenario(_ *kernel.Scheduler, registry *ecs.Registry) {
	evEntity := registry.Create()
	ecs.Emplace(registry, evEntity, model.FrequencyControlConfig{
		Kind: model.DeviceKindEV, BasePowerKW: -5, GainKWPerHz: 100,
		DeadbandHz: 0.03, MaxOutputKW: 50, MinOutputKW: -50,
		SOCMinThreshold: 0.10, SOCMaxThreshold: 0.95,
	})
	ecs.Emplace(registry, evEntity, model.PhysicalState{CurrentPowerKW: -5, SOC: 0.09})

	essEntity := registry.Create()
	ecs.Emplace(registry, essEntity, model.FrequencyControlConfig{
		Kind: model.DeviceKindESS, BasePowerKW: 0, GainKWPerHz: 666.67,
		DeadbandHz: 0.03, MaxOutputKW: 1000, MinOutputKW: -1000,
		SOCMinThreshold: 0.05, SOCMaxThreshold: 0.95,
	})
	ecs.Emplace(registry, essEntity, model.PhysicalState{CurrentPowerKW: 0, SOC: 0.5})
}
