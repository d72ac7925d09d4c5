// Package engine owns the tick: it wires the scheduler, the chunk
// manager, the particle engine, the economy, the thermostats, LOD, flow
// field, structures, communities, and the GPU bridge into the single
// multi-rate loop the rest of the system drives through a small set of
// pull (Snapshot) and push (Submit) interfaces.
//
// The engine never imports its own adapters (broadcast, httpcmd,
// persistence, metrics): it depends only on the Broadcaster,
// CommandSink-shaped Submit method, SaveSink, and MetricsSink contracts
// defined here, matching the "transport is outside the core" rule.
package engine

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/pthm-cable/terrarium/agent"
	"github.com/pthm-cable/terrarium/chunk"
	"github.com/pthm-cable/terrarium/config"
	"github.com/pthm-cable/terrarium/economy"
	"github.com/pthm-cable/terrarium/flowfield"
	"github.com/pthm-cable/terrarium/gpubridge"
	"github.com/pthm-cable/terrarium/lod"
	"github.com/pthm-cable/terrarium/scheduler"
	"github.com/pthm-cable/terrarium/structure"
	"github.com/pthm-cable/terrarium/thermostat"
	"github.com/pthm-cable/terrarium/worldgen"
)

// Broadcaster receives one pulled Snapshot per tick boundary. Adapters
// (e.g. a websocket hub) implement this without the engine importing them.
type Broadcaster interface {
	Publish(Snapshot)
}

// MetricsSink receives one pulled Metrics aggregate per tick boundary.
type MetricsSink interface {
	Observe(Metrics)
}

// SaveSink persists and restores a Record. Implementations classify
// failures (integrity vs. I/O) via errors.Is/As over their own sentinel
// errors; the engine only distinguishes success from failure.
type SaveSink interface {
	Save(Record) error
	Load() (Record, error)
}

// chunkEconomy bundles the per-chunk advection/demand state for the one
// tracked resource (food). Scoping these per-chunk, rather than over one
// unbounded world-sized grid, keeps the economy's cost proportional to
// the active set exactly like every other per-chunk system.
type chunkEconomy struct {
	demand   *economy.DemandField
	advector *economy.Advector
}

// Engine is the tick owner. Exactly one goroutine calls AdvanceOneTick.
// Submit and RequestSnapshot are safe to call from any goroutine: both
// only hand a payload to the tick-owning goroutine over a channel and
// block for its reply. Snapshot itself is NOT safe to call from outside
// the tick goroutine — it reads live state directly and must only run
// between ticks on that one goroutine.
type Engine struct {
	mu  sync.Mutex // guards cfg swap, pause state, viewport, command queue drain
	cfg *config.Config

	sched     *scheduler.Scheduler
	chunks    *chunk.Manager
	particles *agent.Engine
	gpu       *gpubridge.Bridge

	reactions *economy.ReactionEngine
	econByKey map[string]*chunkEconomy

	thermo    *thermostat.Bank
	knobsBase thermostat.Knobs

	lodMgr *lod.Manager
	flow   *flowfield.Field

	structures  *structure.Store
	communities *structure.CommunityDetector

	tick    int64
	running bool

	viewport    chunk.Viewport
	hasViewport bool
	subscribed  map[string]bool

	commands     chan Command
	snapshotReqs chan chan Snapshot

	broadcaster Broadcaster
	metricsSink MetricsSink

	stockpile map[string]float32

	lastGenerated     []*chunk.Chunk
	lastThermReadings []thermostat.Reading
	lastKnobs         thermostat.Knobs

	counters counters
}

type counters struct {
	totalBirths, totalDeaths int64
	gpuFallbacks             int64
	overbudgetSkips          int64
}

// New builds an Engine from cfg and registers the default FAST/MEDIUM/SLOW
// task table (SPEC_FULL §7).
func New(cfg *config.Config) *Engine {
	gen := worldgen.New(cfg.Seed)
	mgr := chunk.New(gen, cfg.Chunk.MaxCachedChunks, cfg.Chunk.SleepTimeout)

	tune := agent.Tunables{
		BaseMetabolism:        float32(cfg.Lifecycle.BaseMetabolism),
		MovementCost:          float32(cfg.Lifecycle.MovementCost),
		ReproductionThreshold: float32(cfg.Lifecycle.ReproductionThreshold),
		ReproductionCost:      float32(cfg.Lifecycle.ReproductionCost),
		ReproductionCooldown:  cfg.Lifecycle.ReproductionCooldown,
		ConsumptionEfficiency: float32(cfg.Lifecycle.ConsumptionEfficiency),
		MutationRate:          float32(cfg.Lifecycle.MutationRate),
		MaxSpeed:              float32(cfg.Lifecycle.MaxSpeed),
		Substeps:              cfg.Lifecycle.Substeps,
		VelocityDamping:       float32(cfg.Lifecycle.VelocityDamping),
		Weights: agent.GradientWeights{
			Food:        float32(cfg.Weights.Food),
			Water:       float32(cfg.Weights.Water),
			Trail:       float32(cfg.Weights.Trail),
			Danger:      float32(cfg.Weights.Danger),
			Cost:        float32(cfg.Weights.Cost),
			Crowding:    float32(cfg.Weights.Crowding),
			Exploration: float32(cfg.Weights.Exploration),
			CrowdCap:    float32(cfg.Weights.CrowdCap),
		},
		DayNightPeriodTicks: 2400,
	}

	e := &Engine{
		cfg:        cfg,
		sched:      scheduler.New(cfg.Scheduler.FastInterval, cfg.Scheduler.MediumInterval, cfg.Scheduler.SlowInterval, time.Duration(cfg.Scheduler.MaxTickBudgetMs*float64(time.Millisecond))),
		chunks:     mgr,
		particles:  agent.New(tune),
		gpu:        gpubridge.New(gpubridge.Config{LibPath: cfg.GPU.LibraryPath, MinElements: cfg.GPU.MinElements, Timeout: time.Duration(cfg.GPU.TimeoutMs) * time.Millisecond, Disable: cfg.GPU.Disable}),
		reactions:  economy.NewReactionEngine([]economy.Rule{economy.GatherFoodRule()}),
		econByKey:  make(map[string]*chunkEconomy),
		thermo:     defaultThermostatBank(cfg.Thermostat),
		knobsBase:  defaultKnobs(),
		lodMgr:     lod.NewManager(lod.Thresholds{High: 256, Medium: 768, Low: 2048}),
		flow:       flowfield.New(256, 256),
		structures: structure.NewStore(),
		communities: structure.NewCommunityDetector(
			float32(cfg.Weights.CrowdCap)*4, // admission threshold derived from the crowding cap knob
			float32(chunk.Size)*2,
		),
		subscribed:   make(map[string]bool),
		commands:     make(chan Command, 256),
		snapshotReqs: make(chan chan Snapshot, 64),
		stockpile:    make(map[string]float32),
	}
	e.registerDefaultTasks()
	return e
}

func defaultKnobs() thermostat.Knobs {
	return thermostat.Knobs{
		FertilityMultiplier:  1,
		MortalityMultiplier:  1,
		ResourceRegenRate:    1,
		ConsumptionRate:      1,
		MigrationRate:        1,
		ConflictThreshold:    1,
	}
}

func defaultThermostatBank(cfg config.ThermostatConfig) *thermostat.Bank {
	gains := thermostat.Gains{KP: cfg.KP, KI: cfg.KI, KD: cfg.KD, IntegralClamp: cfg.IntegralClamp, OutputClamp: cfg.OutputClamp, SamplePeriod: cfg.SamplePeriod}
	b := thermostat.NewBank()
	b.Add(thermostat.New(thermostat.Population, 500, [2]float64{0, 1e9}, gains))
	b.Add(thermostat.New(thermostat.Resources, 0.4, [2]float64{0, 1}, gains))
	b.Add(thermostat.New(thermostat.Energy, 0.5, [2]float64{0, 1}, gains))
	b.Add(thermostat.New(thermostat.Tension, 0.2, [2]float64{0, 1}, gains))
	b.Add(thermostat.New(thermostat.Diversity, 0.5, [2]float64{0, 1}, gains))
	b.Add(thermostat.New(thermostat.Activity, 0.5, [2]float64{0, 1}, gains))
	return b
}

// Tick returns the current tick number.
func (e *Engine) Tick() int64 { return e.tick }

// AdvanceOneTick drains queued commands, then runs every due scheduler
// task exactly once. This is the only entry point that mutates
// simulation state; callers (a headless loop, a `run` CLI command) decide
// the cadence.
func (e *Engine) AdvanceOneTick() {
	e.drainCommands()
	e.drainSnapshotRequests()

	e.mu.Lock()
	running := e.running
	e.mu.Unlock()
	if !running {
		return
	}

	e.chunks.SetTick(e.tick)
	e.sched.RunTick(e.tick)
	e.tick++

	if e.broadcaster != nil {
		e.broadcaster.Publish(e.Snapshot())
	}
	if e.metricsSink != nil {
		e.metricsSink.Observe(e.Metrics())
	}
}

// Run drives AdvanceOneTick on cfg.TickMs cadence until stop is closed. The
// loop sleeps the remainder of each period; a tick that overruns its
// period runs the next one immediately, never catching up by skipping.
func (e *Engine) Run(stop <-chan struct{}) {
	period := time.Duration(e.cfg.TickMs) * time.Millisecond
	if period <= 0 {
		period = 50 * time.Millisecond
	}
	ticker := time.NewTicker(period)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			start := time.Now()
			e.AdvanceOneTick()
			elapsed := time.Since(start)
			if elapsed > period {
				slog.Warn("tick exceeded target period", "tick", e.tick-1, "elapsed_ms", elapsed.Milliseconds(), "target_ms", period.Milliseconds())
			}
		}
	}
}

// Config returns the engine's current configuration snapshot. Callers
// must not mutate the returned pointer's fields.
func (e *Engine) Config() *config.Config {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cfg
}

// chunkKey mirrors chunk's private key format for the economy map; it is
// only used as a map key here, never passed back into chunk.
func chunkKey(cx, cy int) string { return fmt.Sprintf("%d,%d", cx, cy) }

func (e *Engine) economyFor(c *chunk.Chunk) *chunkEconomy {
	k := chunkKey(c.CX, c.CY)
	ce, ok := e.econByKey[k]
	if !ok {
		econ := e.cfg.Economy
		ce = &chunkEconomy{
			demand:   economy.NewDemandField(chunk.Size, chunk.Size, 1.0, float32(econ.DemandUrgency), float32(econ.DemandEpsilon), float32(econ.DemandDecay)),
			advector: economy.NewAdvector(chunk.Size, chunk.Size, float32(econ.MaxFlow), float32(econ.Viscosity)),
		}
		e.econByKey[k] = ce
	}
	return ce
}
