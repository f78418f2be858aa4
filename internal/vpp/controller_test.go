package vpp_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zoudehupowersystem/hecs-cps-sim/internal/ecs"
	"github.com/zoudehupowersystem/hecs-cps-sim/internal/kernel"
	"github.com/zoudehupowersystem/hecs-cps-sim/internal/model"
	"github.com/zoudehupowersystem/hecs-cps-sim/internal/vpp"
)

// TestUnderFrequencyWithinDeadbandNoResponse reproduces spec.md §8 scenario
// 4: a deviation smaller than the deadband must not change device power,
// even though a full update runs (the controller's first sample is always
// gated in).
func TestUnderFrequencyWithinDeadbandNoResponse(t *testing.T) {
	sched := kernel.New()
	registry := ecs.NewRegistry()

	e := registry.Create()
	ecs.Emplace(registry, e, model.FrequencyControlConfig{
		Kind: model.DeviceKindESS, BasePowerKW: 0, GainKWPerHz: 666.67,
		DeadbandHz: 0.03, MaxOutputKW: 1000, MinOutputKW: -1000,
		SOCMinThreshold: 0.05, SOCMaxThreshold: 0.95,
	})
	ecs.Emplace(registry, e, model.PhysicalState{CurrentPowerKW: 0, SOC: 0.5})

	vpp.NewController(sched, registry, model.DeviceKindESS, nil, nil).Start()

	sched.Trigger(model.FrequencyUpdate, model.FrequencyInfo{SimTimeSeconds: 5.1, FreqDeviationHz: -0.02})

	ps, ok := ecs.Get[model.PhysicalState](registry, e)
	require.True(t, ok)
	assert.Equal(t, 0.0, ps.CurrentPowerKW)
}

// TestSustainedDipDischargesESS reproduces spec.md §8 scenario 5.
func TestSustainedDipDischargesESS(t *testing.T) {
	sched := kernel.New()
	registry := ecs.NewRegistry()

	e := registry.Create()
	ecs.Emplace(registry, e, model.FrequencyControlConfig{
		Kind: model.DeviceKindESS, BasePowerKW: 0, GainKWPerHz: 666.67,
		DeadbandHz: 0.03, MaxOutputKW: 1000, MinOutputKW: -1000,
		SOCMinThreshold: 0.05, SOCMaxThreshold: 0.95,
	})
	ecs.Emplace(registry, e, model.PhysicalState{CurrentPowerKW: 0, SOC: 0.5})

	vpp.NewController(sched, registry, model.DeviceKindESS, nil, nil).Start()

	sched.Trigger(model.FrequencyUpdate, model.FrequencyInfo{SimTimeSeconds: 1.0, FreqDeviationHz: -0.2})

	ps, ok := ecs.Get[model.PhysicalState](registry, e)
	require.True(t, ok)
	assert.InDelta(t, 113.3, ps.CurrentPowerKW, 0.1)
}

// TestEVSOCFloorHoldsAtZero reproduces spec.md §8 scenario 6.
func TestEVSOCFloorHoldsAtZero(t *testing.T) {
	sched := kernel.New()
	registry := ecs.NewRegistry()

	e := registry.Create()
	ecs.Emplace(registry, e, model.FrequencyControlConfig{
		Kind: model.DeviceKindEV, BasePowerKW: -5, GainKWPerHz: 100,
		DeadbandHz: 0.03, MaxOutputKW: 50, MinOutputKW: -50,
		SOCMinThreshold: 0.10, SOCMaxThreshold: 0.95,
	})
	ecs.Emplace(registry, e, model.PhysicalState{CurrentPowerKW: -5, SOC: 0.09})

	vpp.NewController(sched, registry, model.DeviceKindEV, nil, nil).Start()

	sched.Trigger(model.FrequencyUpdate, model.FrequencyInfo{SimTimeSeconds: 1.0, FreqDeviationHz: -0.2})

	ps, ok := ecs.Get[model.PhysicalState](registry, e)
	require.True(t, ok)
	assert.Equal(t, 0.0, ps.CurrentPowerKW)
}

// TestMonotonicDedupeDiscardsStaleEvent ensures an event at or before the
// last processed sim time is dropped entirely.
func TestMonotonicDedupeDiscardsStaleEvent(t *testing.T) {
	sched := kernel.New()
	registry := ecs.NewRegistry()

	e := registry.Create()
	ecs.Emplace(registry, e, model.FrequencyControlConfig{
		Kind: model.DeviceKindESS, BasePowerKW: 0, GainKWPerHz: 666.67,
		DeadbandHz: 0.03, MaxOutputKW: 1000, MinOutputKW: -1000,
		SOCMinThreshold: 0.05, SOCMaxThreshold: 0.95,
	})
	ecs.Emplace(registry, e, model.PhysicalState{CurrentPowerKW: 0, SOC: 0.5})

	vpp.NewController(sched, registry, model.DeviceKindESS, nil, nil).Start()

	sched.Trigger(model.FrequencyUpdate, model.FrequencyInfo{SimTimeSeconds: 2.0, FreqDeviationHz: -0.2})
	first, _ := ecs.Get[model.PhysicalState](registry, e)

	// Stale event at an earlier sim time must be discarded, leaving state
	// untouched.
	sched.Trigger(model.FrequencyUpdate, model.FrequencyInfo{SimTimeSeconds: 1.0, FreqDeviationHz: 0.5})
	second, _ := ecs.Get[model.PhysicalState](registry, e)

	assert.Equal(t, first, second)
}

// TestSOCClampedToUnitInterval ensures SOC integration never leaves [0,1].
func TestSOCClampedToUnitInterval(t *testing.T) {
	sched := kernel.New()
	registry := ecs.NewRegistry()

	e := registry.Create()
	ecs.Emplace(registry, e, model.FrequencyControlConfig{
		Kind: model.DeviceKindEV, BasePowerKW: 1000, GainKWPerHz: 0,
		DeadbandHz: 0.03, MaxOutputKW: 1000, MinOutputKW: -1000,
		SOCMinThreshold: 0.0, SOCMaxThreshold: 1.0,
	})
	ecs.Emplace(registry, e, model.PhysicalState{CurrentPowerKW: 1000, SOC: 0.01})

	vpp.NewController(sched, registry, model.DeviceKindEV, nil, nil).Start()

	// First full update just establishes the baseline (SOC integration is
	// skipped on the very first update).
	sched.Trigger(model.FrequencyUpdate, model.FrequencyInfo{SimTimeSeconds: 0.02, FreqDeviationHz: 0})
	// Second update, 1h later at 1000kW discharge, would drive SOC deeply
	// negative without clamping.
	sched.Trigger(model.FrequencyUpdate, model.FrequencyInfo{SimTimeSeconds: 3600.02, FreqDeviationHz: 0})

	ps, ok := ecs.Get[model.PhysicalState](registry, e)
	require.True(t, ok)
	assert.Equal(t, 0.0, ps.SOC)
}
