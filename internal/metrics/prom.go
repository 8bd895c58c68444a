package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"thermal_guard/internal/models"
	"thermal_guard/internal/thermal"
)

var phases = []models.Phase{
	models.PhaseIdle,
	models.PhaseHeating,
	models.PhaseAtTarget,
	models.PhaseFault,
}

// PromObs exports control loop state. It implements thermal.Observer.
type PromObs struct {
	reg *prometheus.Registry

	temperature  *prometheus.GaugeVec
	target       *prometheus.GaugeVec
	power        *prometheus.GaugeVec
	phase        *prometheus.GaugeVec
	faults       *prometheus.CounterVec
	sensorErrors *prometheus.CounterVec
	tick         prometheus.Histogram
	dropped      prometheus.Counter
}

// NewPromObs registers the thermal collectors, plus the Go runtime and
// process collectors, on a private registry.
func NewPromObs() *PromObs {
	p := &PromObs{
		reg: prometheus.NewRegistry(),
		temperature: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "thermal_temperature_celsius",
			Help: "Last valid temperature reading per heater.",
		}, []string{"channel"}),
		target: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "thermal_target_celsius",
			Help: "Requested temperature per heater, 0 when off.",
		}, []string{"channel"}),
		power: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "thermal_heater_power_ratio",
			Help: "Commanded heater duty in 0..1.",
		}, []string{"channel"}),
		phase: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "thermal_heater_phase",
			Help: "1 for the phase the heater is currently in.",
		}, []string{"channel", "phase"}),
		faults: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "thermal_faults_total",
			Help: "Heater faults latched, by reason.",
		}, []string{"channel", "reason"}),
		sensorErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "thermal_sensor_errors_total",
			Help: "Implausible or missing sensor readings.",
		}, []string{"channel", "kind"}),
		tick: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "thermal_tick_duration_seconds",
			Help:    "Time spent in one control loop tick.",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 12),
		}),
		dropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "thermal_events_dropped_total",
			Help: "Non-fault events lost because no consumer kept up.",
		}),
	}
	p.reg.MustRegister(
		p.temperature, p.target, p.power, p.phase,
		p.faults, p.sensorErrors, p.tick, p.dropped,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return p
}

// Handler serves the registry in the Prometheus exposition format.
func (p *PromObs) Handler() http.Handler {
	return promhttp.HandlerFor(p.reg, promhttp.HandlerOpts{
		Registry:      p.reg,
		ErrorHandling: promhttp.ContinueOnError,
	})
}

func (p *PromObs) ObserveTick(d time.Duration) {
	p.tick.Observe(d.Seconds())
}

func (p *PromObs) ObserveHeater(st models.HeaterState) {
	ch := string(st.Channel)
	p.temperature.WithLabelValues(ch).Set(st.CurrentTempC)
	p.target.WithLabelValues(ch).Set(st.TargetTempC)
	p.power.WithLabelValues(ch).Set(st.Power)
	for _, ph := range phases {
		v := 0.0
		if ph == st.Phase {
			v = 1
		}
		p.phase.WithLabelValues(ch, string(ph)).Set(v)
	}
}

func (p *PromObs) SensorError(id models.ChannelID, kind thermal.SensorErrorKind) {
	p.sensorErrors.WithLabelValues(string(id), string(kind)).Inc()
}

func (p *PromObs) Fault(id models.ChannelID, reason models.Verdict) {
	p.faults.WithLabelValues(string(id), string(reason)).Inc()
}

func (p *PromObs) EventDropped() {
	p.dropped.Inc()
}

var _ thermal.Observer = (*PromObs)(nil)
