package sink

import "github.com/zoudehupowersystem/hecs-cps-sim/internal/telemetry"

// ConsoleSink reports simulation milestones (faults, trips, breaker
// operations, VPP full updates) through a telemetry.Logger. It exists as a
// named type, rather than call sites logging directly, so a run can swap in
// a different sink (e.g. the CSV sink alongside it) without touching the
// domain packages.
type ConsoleSink struct {
	log telemetry.Logger
}

// NewConsoleSink wraps log.
func NewConsoleSink(log telemetry.Logger) *ConsoleSink {
	return &ConsoleSink{log: log}
}

// Event logs a milestone with the given structured fields.
func (c *ConsoleSink) Event(msg string, fields ...telemetry.Field) {
	c.log.Info(msg, fields...)
}
