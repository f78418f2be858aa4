// Package sink implements the two concrete output collaborators spec.md §6
// names but leaves external: a console sink over telemetry.Logger, and a
// CSV sink writing the exact tab-separated format spec.md §6 specifies.
package sink

import (
	"bufio"
	"fmt"
	"io"

	"github.com/zoudehupowersystem/hecs-cps-sim/internal/errs"
	"github.com/zoudehupowersystem/hecs-cps-sim/internal/kernel"
	"github.com/zoudehupowersystem/hecs-cps-sim/internal/telemetry"
)

// CSVHeader is the exact header line spec.md §6 specifies for the
// aggregate-power record stream.
const CSVHeader = "# SimTime_ms\tSimTime_s\tRelativeTime_s\tFreqDeviation_Hz\tTotalVppPower_kW"

// CSVSink buffers the oracle's per-step aggregate record to an underlying
// writer (typically a file). A sink failure is reported once via log and
// then suppressed for the rest of the run, per spec.md §7 — repeatedly
// logging the same I/O failure on every 20ms step would be useless noise.
type CSVSink struct {
	w        *bufio.Writer
	log      telemetry.Logger
	failed   bool
}

// NewCSVSink wraps w, writes the header immediately, and returns the sink.
// log may be nil to suppress the one-time failure report.
func NewCSVSink(w io.Writer, log telemetry.Logger) *CSVSink {
	bw := bufio.NewWriter(w)
	s := &CSVSink{w: bw, log: log}
	s.writeLine(CSVHeader)
	return s
}

// WriteRecord appends one tab-separated record per spec.md §6's exact
// format: "%.0f\t%.3f\t%.3f\t%.5f\t%.2f".
func (s *CSVSink) WriteRecord(simTimeMS kernel.TimePoint, simTimeSec, relTimeSec, freqDevHz, totalPowerKW float64) {
	s.writeLine(fmt.Sprintf("%.0f\t%.3f\t%.3f\t%.5f\t%.2f",
		float64(simTimeMS), simTimeSec, relTimeSec, freqDevHz, totalPowerKW))
}

func (s *CSVSink) writeLine(line string) {
	if s.failed {
		return
	}
	if _, err := fmt.Fprintln(s.w, line); err != nil {
		s.failed = true
		if s.log != nil {
			s.log.Error("csv sink write failed, suppressing further writes",
				errs.Wrap(errs.KindSinkFailure, "sink.csv.write", err))
		}
		return
	}
	if err := s.w.Flush(); err != nil {
		s.failed = true
		if s.log != nil {
			s.log.Error("csv sink flush failed, suppressing further writes",
				errs.Wrap(errs.KindSinkFailure, "sink.csv.flush", err))
		}
	}
}
