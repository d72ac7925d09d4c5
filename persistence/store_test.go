package persistence

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/pthm-cable/terrarium/engine"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "world.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestLoadWithoutSaveReturnsErrNoSavedRecord(t *testing.T) {
	s := openTestStore(t)
	if _, err := s.Load(); !errors.Is(err, ErrNoSavedRecord) {
		t.Fatalf("expected ErrNoSavedRecord, got %v", err)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	s := openTestStore(t)
	rec := engine.Record{
		Version:   "v1",
		Timestamp: 123,
		Tick:      456,
		Particles: []engine.RecordParticle{{X: 1.5, Y: -2.5, Energy: 0.42, Seed: 7}},
		Stats:     engine.RecordStats{TotalBirths: 3, TotalDeaths: 1},
		Config:    engine.RecordConfig{Seed: 42, TickMs: 50},
		Hash:      0xdeadbeef,
	}
	if err := s.Save(rec); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := s.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Version != rec.Version || got.Tick != rec.Tick || got.Hash != rec.Hash {
		t.Fatalf("round trip mismatch: got %+v, want %+v", got, rec)
	}
	if len(got.Particles) != 1 || got.Particles[0] != rec.Particles[0] {
		t.Fatalf("particle round trip mismatch: got %+v", got.Particles)
	}
}

func TestChunkPutGetRoundTrip(t *testing.T) {
	s := openTestStore(t)
	snap := engine.ChunkSnapshot{
		CX: 3, CY: -2,
		WorldX: 192, WorldY: -128,
		Size:      64,
		Generated: true,
		Food:      []float32{0.1, 0.2, 0.3},
		BiomeMap:  []byte{1, 2, 3, 4},
	}
	if err := s.PutChunk(snap); err != nil {
		t.Fatalf("PutChunk: %v", err)
	}

	got, ok, err := s.GetChunk(3, -2)
	if err != nil {
		t.Fatalf("GetChunk: %v", err)
	}
	if !ok {
		t.Fatal("expected chunk to be found")
	}
	if got.WorldX != snap.WorldX || len(got.Food) != len(snap.Food) || len(got.BiomeMap) != len(snap.BiomeMap) {
		t.Fatalf("chunk round trip mismatch: got %+v", got)
	}

	if _, ok, err := s.GetChunk(99, 99); err != nil || ok {
		t.Fatalf("expected miss for unwritten coordinate, got ok=%v err=%v", ok, err)
	}
}

func TestPutChunksBatch(t *testing.T) {
	s := openTestStore(t)
	snaps := []engine.ChunkSnapshot{
		{CX: 0, CY: 0, Generated: true},
		{CX: 1, CY: 0, Generated: true},
		{CX: 0, CY: 1, Generated: true},
	}
	if err := s.PutChunks(snaps); err != nil {
		t.Fatalf("PutChunks: %v", err)
	}
	for _, snap := range snaps {
		if _, ok, err := s.GetChunk(snap.CX, snap.CY); err != nil || !ok {
			t.Fatalf("expected chunk (%d,%d) to round trip, ok=%v err=%v", snap.CX, snap.CY, ok, err)
		}
	}
}
