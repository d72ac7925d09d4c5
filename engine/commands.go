package engine

import (
	"fmt"

	"github.com/pthm-cable/terrarium/chunk"
	"github.com/pthm-cable/terrarium/config"
)

// CommandKind is one member of the closed command set (spec.md §6).
type CommandKind string

const (
	CmdStart           CommandKind = "start"
	CmdPause           CommandKind = "pause"
	CmdResume          CommandKind = "resume"
	CmdReset           CommandKind = "reset"
	CmdSetConfig       CommandKind = "set_config"
	CmdSpawnParticles  CommandKind = "spawn_particles"
	CmdSubscribeField  CommandKind = "subscribe_field"
	CmdViewportUpdate  CommandKind = "viewport_update"
	CmdRequestChunks   CommandKind = "request_chunks"
)

// Command is the closed, typed payload for every client->engine command.
// Only the fields relevant to Kind are read.
type Command struct {
	Kind CommandKind

	// set_config
	Overlay map[string]any

	// spawn_particles
	SpawnX, SpawnY float32
	SpawnCount     int
	SpawnSeed      uint32

	// subscribe_field
	FieldIDs []string

	// viewport_update
	Viewport chunk.Viewport

	// request_chunks
	ChunkCoords [][2]int

	// result, populated by Submit for a synchronous, boundary-layer
	// typed failure (spec.md §7's "command rejected, engine state
	// unchanged" rule) — every command is validated before it is queued,
	// and a set_config overlay is further validated when applied, leaving
	// the configuration unchanged if it is rejected there.
	result chan error
}

// Submit validates and enqueues cmd for processing at the next tick
// boundary (spec.md §6: "every command is processed between ticks; none
// interrupts a tick in progress"). It blocks until the command has been
// applied or rejected, returning a typed error on rejection; engine state
// is unchanged on any error.
func (e *Engine) Submit(cmd Command) error {
	if err := e.validate(cmd); err != nil {
		return err
	}
	cmd.result = make(chan error, 1)
	e.commands <- cmd
	return <-cmd.result
}

func (e *Engine) validate(cmd Command) error {
	switch cmd.Kind {
	case CmdStart, CmdPause, CmdResume, CmdReset:
		return nil
	case CmdSetConfig:
		if len(cmd.Overlay) == 0 {
			return fmt.Errorf("engine: set_config requires a non-empty overlay")
		}
		return nil
	case CmdSpawnParticles:
		if cmd.SpawnCount <= 0 {
			return fmt.Errorf("engine: spawn_particles count must be > 0, got %d", cmd.SpawnCount)
		}
		return nil
	case CmdSubscribeField:
		if len(cmd.FieldIDs) == 0 {
			return fmt.Errorf("engine: subscribe_field requires at least one field id")
		}
		return nil
	case CmdViewportUpdate:
		if cmd.Viewport.W <= 0 || cmd.Viewport.H <= 0 {
			return fmt.Errorf("engine: viewport_update requires positive width/height")
		}
		return nil
	case CmdRequestChunks:
		if len(cmd.ChunkCoords) == 0 {
			return fmt.Errorf("engine: request_chunks requires at least one coordinate")
		}
		return nil
	default:
		return fmt.Errorf("engine: unknown command kind %q", cmd.Kind)
	}
}

// drainCommands applies every queued command exactly once, between ticks,
// never reordering relative to submission order.
func (e *Engine) drainCommands() {
	for {
		select {
		case cmd := <-e.commands:
			err := e.apply(cmd)
			if cmd.result != nil {
				cmd.result <- err
			}
		default:
			return
		}
	}
}

func (e *Engine) apply(cmd Command) error {
	switch cmd.Kind {
	case CmdStart, CmdResume:
		e.mu.Lock()
		e.running = true
		e.mu.Unlock()
	case CmdPause:
		e.mu.Lock()
		e.running = false
		e.mu.Unlock()
	case CmdReset:
		e.reset()
	case CmdSetConfig:
		merged, err := config.ApplyOverlay(e.cfg, cmd.Overlay)
		if err != nil {
			return fmt.Errorf("engine: set_config rejected: %w", err)
		}
		e.mu.Lock()
		e.cfg = merged
		e.mu.Unlock()
	case CmdSpawnParticles:
		seed := cmd.SpawnSeed
		for i := 0; i < cmd.SpawnCount; i++ {
			e.particles.Spawn(cmd.SpawnX, cmd.SpawnY, float32(e.cfg.Lifecycle.ReproductionThreshold), seed+uint32(i))
		}
	case CmdSubscribeField:
		for _, id := range cmd.FieldIDs {
			e.subscribed[id] = true
		}
	case CmdViewportUpdate:
		e.mu.Lock()
		e.viewport = cmd.Viewport
		e.hasViewport = true
		e.mu.Unlock()
	case CmdRequestChunks:
		for _, coord := range cmd.ChunkCoords {
			e.chunks.EnsureChunkActive(coord[0], coord[1])
		}
	default:
		return fmt.Errorf("engine: unknown command kind %q", cmd.Kind)
	}
	return nil
}

// reset rebuilds the engine in place from its current configuration,
// discarding all simulation state but keeping the command channel and
// any registered adapters.
func (e *Engine) reset() {
	fresh := New(e.cfg)
	e.mu.Lock()
	defer e.mu.Unlock()
	e.chunks = fresh.chunks
	e.particles = fresh.particles
	e.sched = fresh.sched
	e.econByKey = fresh.econByKey
	e.thermo = fresh.thermo
	e.lodMgr = fresh.lodMgr
	e.flow = fresh.flow
	e.structures = fresh.structures
	e.communities = fresh.communities
	e.tick = 0
	e.running = false
	e.counters = counters{}
	e.stockpile = make(map[string]float32)
	e.lastGenerated = nil
	e.lastThermReadings = nil
}

// SetBroadcaster wires the pull-push adapter. Nil disables broadcasting.
func (e *Engine) SetBroadcaster(b Broadcaster) { e.broadcaster = b }

// SetMetricsSink wires the metrics adapter. Nil disables it.
func (e *Engine) SetMetricsSink(m MetricsSink) { e.metricsSink = m }
