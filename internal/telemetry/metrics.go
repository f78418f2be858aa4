package telemetry

import "github.com/prometheus/client_golang/prometheus"

// Metrics bundles the prometheus collectors registered for one simulation
// run. Modeled on cuemby-warren/pkg/metrics's grouping of related counters
// and gauges into a single struct owned by the caller, rather than relying
// on package-level globals.
type Metrics struct {
	FaultsInjected   prometheus.Counter
	TripsScheduled   prometheus.Counter
	BreakersOpened   prometheus.Counter
	VPPFullUpdates   prometheus.Counter
	VPPAggregatePowerKW prometheus.Gauge
}

// NewMetrics constructs and registers a Metrics bundle against reg. Passing
// a fresh prometheus.NewRegistry() per run (rather than the global default
// registry) keeps repeated test runs from colliding on collector names.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		FaultsInjected: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "gridsim_faults_injected_total",
			Help: "Total number of faults injected into the simulation.",
		}),
		TripsScheduled: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "gridsim_trips_scheduled_total",
			Help: "Total number of protection trips scheduled by picked-up relays.",
		}),
		BreakersOpened: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "gridsim_breakers_opened_total",
			Help: "Total number of breaker open operations completed.",
		}),
		VPPFullUpdates: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "gridsim_vpp_full_updates_total",
			Help: "Total number of VPP population members that recomputed power output.",
		}),
		VPPAggregatePowerKW: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "gridsim_vpp_aggregate_power_kw",
			Help: "Current aggregate VPP power output in kW.",
		}),
	}
	reg.MustRegister(m.FaultsInjected, m.TripsScheduled, m.BreakersOpened, m.VPPFullUpdates, m.VPPAggregatePowerKW)
	return m
}
