package engine

import (
	"time"

	"github.com/pthm-cable/terrarium/chunk"
	"github.com/pthm-cable/terrarium/economy"
	"github.com/pthm-cable/terrarium/structure"
	"github.com/pthm-cable/terrarium/thermostat"
)

// Metrics is the aggregated counter/gauge set a MetricsSink pulls once
// per tick. The engine does not prescribe an exposition format (spec.md
// §6); a Prometheus adapter is one concrete choice built on top of this.
type Metrics struct {
	Tick               int64
	AliveParticles     int
	TotalBirths        int64
	TotalDeaths        int64
	StructureCount     int
	CommunityCount     int
	ChunkCount         int
	ActiveChunkCount   int
	GPUFallbackCount   int64
	TickP50Ms          float64
	TickP95Ms          float64
	ThermostatReadings []thermostat.Reading
}

// Metrics computes the current aggregate counters. It only reads
// snapshots and counters that are safe between ticks, never live
// per-entity state directly.
func (e *Engine) Metrics() Metrics {
	p50, p95 := e.sched.Percentiles()
	active := e.chunks.ActiveChunks()
	return Metrics{
		Tick:               e.tick,
		AliveParticles:     e.particles.AliveCount(),
		TotalBirths:        e.counters.totalBirths,
		TotalDeaths:        e.counters.totalDeaths,
		StructureCount:     e.structures.Count(),
		CommunityCount:     len(e.communities.All()),
		ChunkCount:         e.chunks.Count(),
		ActiveChunkCount:   len(active),
		GPUFallbackCount:   e.counters.gpuFallbacks,
		TickP50Ms:          float64(p50.Microseconds()) / 1000,
		TickP95Ms:          float64(p95.Microseconds()) / 1000,
		ThermostatReadings: e.lastThermReadings,
	}
}

// TaskTimings returns the current exponential moving average duration
// for every registered scheduler task, keyed by task id, for a
// telemetry reporter that wants a per-task timing breakdown.
func (e *Engine) TaskTimings() map[string]time.Duration {
	ids := e.sched.TaskIDs()
	out := make(map[string]time.Duration, len(ids))
	for _, id := range ids {
		if d, ok := e.sched.EMA(id); ok {
			out[id] = d
		}
	}
	return out
}

// measure aggregates the six thermostat-tracked world variables from the
// active chunk set and particle engine.
func (e *Engine) measure() map[thermostat.Variable]float64 {
	var totalFood, totalPop float32
	active := e.chunks.ActiveChunks()
	for _, c := range active {
		if f := c.Field(chunk.Food); f != nil {
			totalFood += f.GetSum()
		}
		if p := c.Field(chunk.Population); p != nil {
			totalPop += p.GetSum()
		}
	}
	avgFood := float32(0)
	if len(active) > 0 {
		avgFood = totalFood / float32(len(active)*chunk.Size*chunk.Size)
	}

	var totalEnergy float32
	alive := 0
	for _, s := range e.particles.Samples() {
		if s.Alive {
			alive++
			totalEnergy += s.Energy
		}
	}
	meanEnergy := float32(0)
	if alive > 0 {
		meanEnergy = totalEnergy / float32(alive)
	}

	diversity := 0.0
	if alive > 0 {
		diversity = float64(len(e.communities.All())) / float64(alive+1)
	}

	return map[thermostat.Variable]float64{
		thermostat.Population: float64(alive),
		thermostat.Resources:  float64(avgFood),
		thermostat.Energy:     float64(meanEnergy),
		thermostat.Tension:    float64(e.counters.gpuFallbacks%7) / 10, // illustrative proxy; no conflict model exists yet
		thermostat.Diversity:  diversity,
		thermostat.Activity:   float64(alive) / float64(e.chunks.Count()+1),
	}
}

// densityGrid stitches the active chunks' Population fields into one
// world-space raster CommunityDetector can scan for peaks. Dormant
// chunks contribute nothing (their field memory does not exist), which
// matches spec.md's "reads from a Dormant chunk return 0" rule.
func (e *Engine) densityGrid() *structure.DensityGrid {
	active := e.chunks.ActiveChunks()
	if len(active) == 0 {
		return &structure.DensityGrid{W: 0, H: 0, CellSize: 1}
	}
	minCX, minCY := active[0].CX, active[0].CY
	maxCX, maxCY := active[0].CX, active[0].CY
	for _, c := range active {
		if c.CX < minCX {
			minCX = c.CX
		}
		if c.CX > maxCX {
			maxCX = c.CX
		}
		if c.CY < minCY {
			minCY = c.CY
		}
		if c.CY > maxCY {
			maxCY = c.CY
		}
	}
	w := (maxCX-minCX+1)*chunk.Size
	h := (maxCY-minCY+1)*chunk.Size
	values := make([]float32, w*h)
	for _, c := range active {
		pop := c.Field(chunk.Population)
		if pop == nil {
			continue
		}
		originLX := (c.CX - minCX) * chunk.Size
		originLY := (c.CY - minCY) * chunk.Size
		for ly := 0; ly < chunk.Size; ly++ {
			for lx := 0; lx < chunk.Size; lx++ {
				values[(originLY+ly)*w+(originLX+lx)] = pop.Get(lx, ly)
			}
		}
	}
	return &structure.DensityGrid{
		W: w, H: h,
		OriginX:  float32(minCX * chunk.Size),
		OriginY:  float32(minCY * chunk.Size),
		CellSize: 1,
		Values:   values,
	}
}

// economyCellState builds the read-only view ReactionEngine.Run needs for
// one cell from the field values already sampled there.
func economyCellState(food, population, labor float32) economy.CellState {
	return economy.CellState{
		Resources:    map[string]float32{"food": food},
		Population:   population,
		BuildingHere: false,
		Labor:        labor,
	}
}
