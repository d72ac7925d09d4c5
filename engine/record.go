package engine

import (
	"encoding/binary"
	"hash"
	"math"

	"github.com/cespare/xxhash/v2"

	"github.com/pthm-cable/terrarium/agent"
)

// writeRecordBytes feeds a canonical byte encoding of every
// hash-participating Record field into h, in a fixed field order, so two
// records with identical content always hash identically regardless of
// map iteration or struct layout (spec.md §8 property 9: save/load/save
// round trip is byte-identical up to the timestamp field).
func writeRecordBytes(h hash.Hash64, rec Record) {
	var buf [8]byte
	writeString := func(s string) {
		binary.LittleEndian.PutUint32(buf[:4], uint32(len(s)))
		h.Write(buf[:4])
		h.Write([]byte(s))
	}
	writeU64 := func(v uint64) {
		binary.LittleEndian.PutUint64(buf[:8], v)
		h.Write(buf[:8])
	}
	writeI64 := func(v int64) { writeU64(uint64(v)) }
	writeF32 := func(v float32) {
		binary.LittleEndian.PutUint32(buf[:4], math.Float32bits(v))
		h.Write(buf[:4])
	}

	writeString(rec.Version)
	writeI64(rec.Timestamp)
	writeI64(rec.Tick)

	writeU64(uint64(len(rec.Particles)))
	for _, p := range rec.Particles {
		writeF32(p.X)
		writeF32(p.Y)
		writeF32(p.Energy)
		writeU64(uint64(p.Seed))
	}

	writeU64(uint64(len(rec.DiscoveredArtifactIDs)))
	for _, id := range rec.DiscoveredArtifactIDs {
		writeString(id)
	}
	writeU64(uint64(len(rec.CompletedQuestIDs)))
	for _, id := range rec.CompletedQuestIDs {
		writeString(id)
	}

	writeU64(uint64(len(rec.Communities)))
	for _, c := range rec.Communities {
		writeU64(c.ID)
		writeF32(c.CX)
		writeF32(c.CY)
		writeI64(int64(c.Population))
		writeI64(c.Age)
	}

	writeI64(rec.Stats.TotalBirths)
	writeI64(rec.Stats.TotalDeaths)
	writeI64(rec.Config.Seed)
	writeI64(int64(rec.Config.TickMs))
}

// RecordParticle is the minimal persisted particle shape (spec.md §6):
// position and energy rounded for a stable byte encoding, plus the seed
// everything else (velocity, inventory, alive) is deterministically
// reconstructed from on load.
type RecordParticle struct {
	X, Y   float32 // rounded to 0.1
	Energy float32 // rounded to 0.01
	Seed   uint32
}

// RecordCommunity is the compact community summary spec.md §6 specifies.
type RecordCommunity struct {
	ID         uint64
	CX, CY     float32
	Population int
	Age        int64
}

// RecordConfig is the minimal config subset persisted with a save.
type RecordConfig struct {
	Seed   int64
	TickMs int
}

// RecordStats carries cumulative counters that outlive any one tick.
type RecordStats struct {
	TotalBirths int64
	TotalDeaths int64
}

// Record is the save-record contract of spec.md §6: a single record with
// a version, timestamp, tick, minimal particle list, narrative-content id
// arrays narrative/quest adapters populate (empty here — out of core
// scope per spec.md §1's Non-goals), compact community summaries,
// cumulative stats, a config subset, and an integrity hash over every
// prior field.
type Record struct {
	Version              string
	Timestamp            int64
	Tick                 int64
	Particles            []RecordParticle
	DiscoveredArtifactIDs []string
	CompletedQuestIDs     []string
	Communities           []RecordCommunity
	Stats                 RecordStats
	Config                RecordConfig
	Hash                  uint32
}

func round(v float32, step float32) float32 {
	return float32(math.Round(float64(v/step))) * step
}

// BuildRecord assembles a Record from current state, stamping it with
// the given version and timestamp (both caller-supplied since the engine
// itself avoids wall-clock/random calls on its deterministic path).
func (e *Engine) BuildRecord(version string, timestamp int64) Record {
	samples := e.particles.Samples()
	particles := make([]RecordParticle, 0, len(samples))
	for _, s := range samples {
		if !s.Alive {
			continue
		}
		particles = append(particles, RecordParticle{
			X:      round(s.X, 0.1),
			Y:      round(s.Y, 0.1),
			Energy: round(s.Energy, 0.01),
			Seed:   s.Seed,
		})
	}

	communities := make([]RecordCommunity, 0)
	for _, c := range e.communities.All() {
		communities = append(communities, RecordCommunity{ID: c.ID, CX: c.CX, CY: c.CY, Population: c.Population, Age: c.Age})
	}

	rec := Record{
		Version:   version,
		Timestamp: timestamp,
		Tick:      e.tick,
		Particles: particles,
		Communities: communities,
		Stats: RecordStats{
			TotalBirths: e.counters.totalBirths,
			TotalDeaths: e.counters.totalDeaths,
		},
		Config: RecordConfig{Seed: e.cfg.Seed, TickMs: e.cfg.TickMs},
	}
	rec.Hash = HashRecord(rec)
	return rec
}

// HashRecord computes the 32-bit rolling integrity hash over every field
// of rec that precedes Hash itself, using xxhash.Sum64 truncated to 32
// bits (spec.md §6).
func HashRecord(rec Record) uint32 {
	h := xxhash.New()
	writeRecordBytes(h, rec)
	return uint32(h.Sum64())
}

// LoadRecord verifies rec's integrity hash, rejects on mismatch without
// touching engine state, and otherwise reconstructs particles
// deterministically from the seed (velocity=0, alive=true, inventory
// empty, per spec.md §6).
func (e *Engine) LoadRecord(rec Record) error {
	want := HashRecord(Record{
		Version: rec.Version, Timestamp: rec.Timestamp, Tick: rec.Tick,
		Particles: rec.Particles, DiscoveredArtifactIDs: rec.DiscoveredArtifactIDs,
		CompletedQuestIDs: rec.CompletedQuestIDs, Communities: rec.Communities,
		Stats: rec.Stats, Config: rec.Config,
	})
	if want != rec.Hash {
		return ErrIntegrityMismatch
	}

	fresh := agent.New(e.particles.Tune)
	for _, p := range rec.Particles {
		fresh.Spawn(p.X, p.Y, p.Energy, p.Seed)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.particles = fresh
	e.tick = rec.Tick
	e.counters.totalBirths = rec.Stats.TotalBirths
	e.counters.totalDeaths = rec.Stats.TotalDeaths
	return nil
}

// ErrIntegrityMismatch is the sentinel a SaveSink.Load caller checks for
// with errors.Is to distinguish a corrupt/tampered record from any other
// I/O failure.
var ErrIntegrityMismatch = recordError("engine: save record integrity hash mismatch")

type recordError string

func (e recordError) Error() string { return string(e) }
