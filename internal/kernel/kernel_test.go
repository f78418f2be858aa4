package kernel_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zoudehupowersystem/hecs-cps-sim/internal/kernel"
)

func TestSchedulerNowStartsAtZero(t *testing.T) {
	s := kernel.New()
	assert.Equal(t, kernel.TimePoint(0), s.Now())
}

func TestSpawnRunsEagerlyUntilFirstSuspension(t *testing.T) {
	s := kernel.New()
	ran := false
	task := s.Spawn(func(tc *kernel.TaskContext) {
		ran = true
		tc.Delay(10)
		ran = false // never reached before the test asserts
	})
	assert.True(t, ran, "task body must run up to its first suspension before Spawn returns")
	assert.False(t, task.IsDone())
}

func TestDelayResumesAtExactDeadline(t *testing.T) {
	s := kernel.New()
	var resumedAt kernel.TimePoint
	task := s.Spawn(func(tc *kernel.TaskContext) {
		tc.Delay(50)
		resumedAt = s.Now()
	})
	task.Detach()

	s.RunUntil(100)
	assert.Equal(t, kernel.TimePoint(50), resumedAt)
	assert.True(t, task.IsDone())
}

func TestRunOneStepDrainsReadyBeforeTimeJump(t *testing.T) {
	s := kernel.New()
	var order []string

	s.Schedule(func() { order = append(order, "ready-1") })
	slow := s.Spawn(func(tc *kernel.TaskContext) {
		tc.Delay(5)
		order = append(order, "timer")
	})
	slow.Detach()
	s.Schedule(func() { order = append(order, "ready-2") })

	for s.RunOneStep() {
	}

	require.Equal(t, []string{"ready-1", "ready-2", "timer"}, order)
}

func TestTriggerIsOneShot(t *testing.T) {
	s := kernel.New()
	var fires int
	task := s.Spawn(func(tc *kernel.TaskContext) {
		tc.WaitEvent(1)
		fires++
	})
	task.Detach()

	s.Trigger(1, nil)
	s.TriggerEmpty(1) // no one subscribed anymore; must not panic or double-fire
	assert.Equal(t, 1, fires)
}

func TestWaitEventReceivesPayload(t *testing.T) {
	s := kernel.New()
	var got any
	task := s.Spawn(func(tc *kernel.TaskContext) {
		got = tc.WaitEvent(42)
	})
	task.Detach()

	s.Trigger(42, "hello")
	assert.Equal(t, "hello", got)
}

func TestLoopMustReSubscribeEachIteration(t *testing.T) {
	s := kernel.New()
	var received []int
	task := s.Spawn(func(tc *kernel.TaskContext) {
		for i := 0; i < 3; i++ {
			v := tc.WaitEvent(7)
			received = append(received, v.(int))
		}
	})
	task.Detach()

	s.Trigger(7, 1)
	s.Trigger(7, 2)
	s.Trigger(7, 3)
	assert.Equal(t, []int{1, 2, 3}, received)
}

func TestRunUntilAdvancesClockToEndWithNoPendingWork(t *testing.T) {
	s := kernel.New()
	s.RunUntil(1000)
	assert.Equal(t, kernel.TimePoint(1000), s.Now())
}

func TestSetTimeAndAdvanceTime(t *testing.T) {
	s := kernel.New()
	s.SetTime(500)
	assert.Equal(t, kernel.TimePoint(500), s.Now())
	s.AdvanceTime(250)
	assert.Equal(t, kernel.TimePoint(750), s.Now())
}
