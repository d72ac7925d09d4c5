package engine

import (
	"github.com/pthm-cable/terrarium/agent"
	"github.com/pthm-cable/terrarium/chunk"
	"github.com/pthm-cable/terrarium/config"
	"github.com/pthm-cable/terrarium/structure"
)

// ParticleView is the broadcast-facing particle shape (spec.md §6): a
// subset of the internal ECS representation, independent of ark so
// adapters never need to import it.
type ParticleView struct {
	ID     uint64
	X, Y   float32
	Seed   uint32
	Energy float32
	Alive  bool
}

// ChunkSnapshot is the payload defined in spec.md §4.2: the four
// persisted/broadcast fields plus the immutable biome map and chunk
// identity. Wire encoding is the adapter's concern; this is the typed
// accessor the core exposes.
type ChunkSnapshot struct {
	CX, CY           int
	WorldX, WorldY   int
	Size             int
	Generated        bool
	Food, Water      []float32
	Trees, Stone     []float32
	BiomeMap         []byte
}

// Snapshot is the engine's full pull-API payload (spec.md §6).
type Snapshot struct {
	Tick        int64
	Config      *config.Config
	Particles   []ParticleView
	Structures  []*structure.Structure
	Chunks      []ChunkSnapshot
	Metrics     Metrics
}

// RequestSnapshot asks the tick-owning goroutine to build a Snapshot at
// its next drain point and blocks until the reply arrives. Unlike
// Snapshot, this is safe to call from any goroutine — an HTTP handler,
// a CLI reporter on its own timer — because the read itself never runs
// on the caller's goroutine.
func (e *Engine) RequestSnapshot() Snapshot {
	reply := make(chan Snapshot, 1)
	e.snapshotReqs <- reply
	return <-reply
}

// drainSnapshotRequests answers every request queued by RequestSnapshot
// with one Snapshot built on the tick-owning goroutine, shared across
// however many requests piled up since the last drain.
func (e *Engine) drainSnapshotRequests() {
	var snap Snapshot
	var built bool
	for {
		select {
		case reply := <-e.snapshotReqs:
			if !built {
				snap = e.Snapshot()
				built = true
			}
			reply <- snap
		default:
			return
		}
	}
}

// Snapshot builds one read-only pull payload over the current state.
// Called only on the tick-owning goroutine, between ticks (or at a tick
// boundary right after RunTick), never concurrently with a live
// mutation, per spec.md §5's reads-between-ticks rule. Callers on any
// other goroutine must use RequestSnapshot instead.
func (e *Engine) Snapshot() Snapshot {
	samples := e.particles.Samples()
	max := e.cfg.Broadcast.MaxParticlesPerTick
	particles := sampleParticles(samples, max)

	chunks := make([]ChunkSnapshot, 0, len(e.lastGenerated))
	for _, c := range e.lastGenerated {
		chunks = append(chunks, snapshotChunk(c))
	}

	return Snapshot{
		Tick:       e.tick,
		Config:     e.cfg,
		Particles:  particles,
		Structures: e.structures.All(),
		Chunks:     chunks,
		Metrics:    e.Metrics(),
	}
}

func snapshotChunk(c *chunk.Chunk) ChunkSnapshot {
	wx, wy := c.WorldOrigin()
	snap := ChunkSnapshot{
		CX: c.CX, CY: c.CY,
		WorldX: wx, WorldY: wy,
		Size:      chunk.Size,
		Generated: c.Generated,
	}
	if f := c.Field(chunk.Food); f != nil {
		snap.Food = f.Snapshot()
	}
	if f := c.Field(chunk.Water); f != nil {
		snap.Water = f.Snapshot()
	}
	if f := c.Field(chunk.Trees); f != nil {
		snap.Trees = f.Snapshot()
	}
	if f := c.Field(chunk.Stone); f != nil {
		snap.Stone = f.Snapshot()
	}
	if bm := c.BiomeMap(); bm != nil {
		raw := make([]byte, len(bm))
		for i, b := range bm {
			raw[i] = byte(b)
		}
		snap.BiomeMap = raw
	}
	return snap
}

// sampleParticles applies the evenly-spaced stride sampling rule (spec.md
// §6): when live particles exceed maxPerTick, an evenly-spaced index
// stride selects the sample, preserving relative order.
func sampleParticles(samples []agent.Sample, maxPerTick int) []ParticleView {
	if maxPerTick <= 0 || len(samples) <= maxPerTick {
		out := make([]ParticleView, 0, len(samples))
		for _, s := range samples {
			out = append(out, toView(s))
		}
		return out
	}
	stride := float64(len(samples)) / float64(maxPerTick)
	out := make([]ParticleView, 0, maxPerTick)
	for i := 0; i < maxPerTick; i++ {
		idx := int(float64(i) * stride)
		if idx >= len(samples) {
			idx = len(samples) - 1
		}
		out = append(out, toView(samples[idx]))
	}
	return out
}

func toView(s agent.Sample) ParticleView {
	return ParticleView{ID: s.ID, X: s.X, Y: s.Y, Seed: s.Seed, Energy: s.Energy, Alive: s.Alive}
}
