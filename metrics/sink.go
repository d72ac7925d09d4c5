// Package metrics is a prometheus/client_golang implementation of
// engine.MetricsSink. Each Sink owns its own registry (Sumatoshi-style:
// one registry per exporter instance, never the global default) so
// constructing more than one in a test never panics on a duplicate
// collector registration.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pthm-cable/terrarium/engine"
)

// Sink gauges the latest engine.Metrics pull. Gauges, not counters: the
// engine already tracks cumulative counters internally and Observe is
// called with the current total each tick, not a delta.
type Sink struct {
	registry *prometheus.Registry

	tick             prometheus.Gauge
	aliveParticles   prometheus.Gauge
	totalBirths      prometheus.Gauge
	totalDeaths      prometheus.Gauge
	structureCount   prometheus.Gauge
	communityCount   prometheus.Gauge
	chunkCount       prometheus.Gauge
	activeChunkCount prometheus.Gauge
	gpuFallbacks     prometheus.Gauge
	tickP50Ms        prometheus.Gauge
	tickP95Ms        prometheus.Gauge
	thermostatOutput *prometheus.GaugeVec
	thermostatHealth *prometheus.GaugeVec
}

// NewSink builds a Sink with its own prometheus.Registry.
func NewSink() *Sink {
	ns := "terrarium"
	s := &Sink{
		registry:         prometheus.NewRegistry(),
		tick:             prometheus.NewGauge(prometheus.GaugeOpts{Namespace: ns, Name: "tick", Help: "Current simulation tick."}),
		aliveParticles:   prometheus.NewGauge(prometheus.GaugeOpts{Namespace: ns, Name: "alive_particles", Help: "Number of living particles."}),
		totalBirths:      prometheus.NewGauge(prometheus.GaugeOpts{Namespace: ns, Name: "total_births", Help: "Cumulative particle births."}),
		totalDeaths:      prometheus.NewGauge(prometheus.GaugeOpts{Namespace: ns, Name: "total_deaths", Help: "Cumulative particle deaths."}),
		structureCount:   prometheus.NewGauge(prometheus.GaugeOpts{Namespace: ns, Name: "structure_count", Help: "Number of standing structures."}),
		communityCount:   prometheus.NewGauge(prometheus.GaugeOpts{Namespace: ns, Name: "community_count", Help: "Number of detected communities."}),
		chunkCount:       prometheus.NewGauge(prometheus.GaugeOpts{Namespace: ns, Name: "chunk_count", Help: "Total chunks known to the manager, any lifecycle state."}),
		activeChunkCount: prometheus.NewGauge(prometheus.GaugeOpts{Namespace: ns, Name: "active_chunk_count", Help: "Chunks currently Active or Hyper."}),
		gpuFallbacks:     prometheus.NewGauge(prometheus.GaugeOpts{Namespace: ns, Name: "gpu_fallback_count", Help: "Times the GPU bridge was consulted but a job fell back to CPU."}),
		tickP50Ms:        prometheus.NewGauge(prometheus.GaugeOpts{Namespace: ns, Name: "tick_duration_p50_ms", Help: "Median tick wall-clock duration."}),
		tickP95Ms:        prometheus.NewGauge(prometheus.GaugeOpts{Namespace: ns, Name: "tick_duration_p95_ms", Help: "95th percentile tick wall-clock duration."}),
		thermostatOutput: prometheus.NewGaugeVec(prometheus.GaugeOpts{Namespace: ns, Name: "thermostat_output", Help: "Latest PID output per tracked variable."}, []string{"variable"}),
		thermostatHealth: prometheus.NewGaugeVec(prometheus.GaugeOpts{Namespace: ns, Name: "thermostat_health", Help: "Latest health classification per tracked variable (0=ok, 1=unhealthy, 2=critical)."}, []string{"variable"}),
	}
	s.registry.MustRegister(
		s.tick, s.aliveParticles, s.totalBirths, s.totalDeaths,
		s.structureCount, s.communityCount, s.chunkCount, s.activeChunkCount,
		s.gpuFallbacks, s.tickP50Ms, s.tickP95Ms,
		s.thermostatOutput, s.thermostatHealth,
	)
	return s
}

// Observe implements engine.MetricsSink.
func (s *Sink) Observe(m engine.Metrics) {
	s.tick.Set(float64(m.Tick))
	s.aliveParticles.Set(float64(m.AliveParticles))
	s.totalBirths.Set(float64(m.TotalBirths))
	s.totalDeaths.Set(float64(m.TotalDeaths))
	s.structureCount.Set(float64(m.StructureCount))
	s.communityCount.Set(float64(m.CommunityCount))
	s.chunkCount.Set(float64(m.ChunkCount))
	s.activeChunkCount.Set(float64(m.ActiveChunkCount))
	s.gpuFallbacks.Set(float64(m.GPUFallbackCount))
	s.tickP50Ms.Set(m.TickP50Ms)
	s.tickP95Ms.Set(m.TickP95Ms)
	for _, r := range m.ThermostatReadings {
		s.thermostatOutput.WithLabelValues(string(r.Variable)).Set(r.Output)
		s.thermostatHealth.WithLabelValues(string(r.Variable)).Set(float64(r.Health))
	}
}

// Handler serves the Prometheus text exposition format over this Sink's
// own registry.
func (s *Sink) Handler() http.Handler {
	return promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})
}
