package engine

import (
	"testing"

	"github.com/pthm-cable/terrarium/chunk"
	"github.com/pthm-cable/terrarium/config"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("config.Load(\"\"): %v", err)
	}
	return cfg
}

func TestAdvanceOneTickNoopUntilStarted(t *testing.T) {
	e := New(testConfig(t))
	e.AdvanceOneTick()
	if e.Tick() != 0 {
		t.Fatalf("expected tick to stay at 0 before start, got %d", e.Tick())
	}
}

func TestStartAdvancesTick(t *testing.T) {
	e := New(testConfig(t))
	if err := e.Submit(Command{Kind: CmdStart}); err != nil {
		t.Fatalf("start: %v", err)
	}
	for i := 0; i < 5; i++ {
		e.AdvanceOneTick()
	}
	if e.Tick() != 5 {
		t.Fatalf("expected tick 5, got %d", e.Tick())
	}
}

func TestPauseStopsAdvancing(t *testing.T) {
	e := New(testConfig(t))
	mustSubmit(t, e, Command{Kind: CmdStart})
	e.AdvanceOneTick()
	mustSubmit(t, e, Command{Kind: CmdPause})
	e.AdvanceOneTick()
	e.AdvanceOneTick()
	if e.Tick() != 1 {
		t.Fatalf("expected tick to stay at 1 while paused, got %d", e.Tick())
	}
	mustSubmit(t, e, Command{Kind: CmdResume})
	e.AdvanceOneTick()
	if e.Tick() != 2 {
		t.Fatalf("expected tick 2 after resume, got %d", e.Tick())
	}
}

func TestSubmitRejectsInvalidCommandWithoutMutatingState(t *testing.T) {
	e := New(testConfig(t))
	mustSubmit(t, e, Command{Kind: CmdStart})
	e.AdvanceOneTick()

	if err := e.Submit(Command{Kind: CmdSpawnParticles, SpawnCount: 0}); err == nil {
		t.Fatal("expected spawn_particles with count=0 to be rejected")
	}
	if e.particles.AliveCount() != 0 {
		t.Fatalf("rejected command must not mutate state, got %d alive particles", e.particles.AliveCount())
	}

	if err := e.Submit(Command{Kind: CmdSetConfig, Overlay: nil}); err == nil {
		t.Fatal("expected set_config with empty overlay to be rejected")
	}

	if err := e.Submit(Command{Kind: CommandKind("bogus")}); err == nil {
		t.Fatal("expected unknown command kind to be rejected")
	}
}

func TestSpawnParticlesIncreasesAliveCount(t *testing.T) {
	e := New(testConfig(t))
	mustSubmit(t, e, Command{Kind: CmdStart})
	mustSubmit(t, e, Command{Kind: CmdSpawnParticles, SpawnX: 10, SpawnY: 10, SpawnCount: 3, SpawnSeed: 1})
	e.AdvanceOneTick()

	if got := e.particles.AliveCount(); got != 3 {
		t.Fatalf("expected 3 alive particles, got %d", got)
	}
}

func TestViewportUpdateDrivesChunkPaging(t *testing.T) {
	e := New(testConfig(t))
	mustSubmit(t, e, Command{Kind: CmdStart})
	mustSubmit(t, e, Command{Kind: CmdViewportUpdate, Viewport: chunk.Viewport{CenterX: 0, CenterY: 0, W: 64, H: 64, Zoom: 1}})

	for i := 0; i < 3; i++ {
		e.AdvanceOneTick()
	}

	if e.chunks.Count() == 0 {
		t.Fatal("expected viewport update to page in at least one chunk")
	}
}

func TestSnapshotAndMetricsReflectTick(t *testing.T) {
	e := New(testConfig(t))
	mustSubmit(t, e, Command{Kind: CmdStart})
	mustSubmit(t, e, Command{Kind: CmdSpawnParticles, SpawnX: 0, SpawnY: 0, SpawnCount: 2, SpawnSeed: 7})
	for i := 0; i < 3; i++ {
		e.AdvanceOneTick()
	}

	snap := e.Snapshot()
	if snap.Tick != e.Tick() {
		t.Fatalf("snapshot tick %d does not match engine tick %d", snap.Tick, e.Tick())
	}
	metrics := e.Metrics()
	if metrics.Tick != e.Tick() {
		t.Fatalf("metrics tick %d does not match engine tick %d", metrics.Tick, e.Tick())
	}
	if metrics.AliveParticles < 0 {
		t.Fatalf("alive particle count must never be negative, got %d", metrics.AliveParticles)
	}
}

func TestResetClearsState(t *testing.T) {
	e := New(testConfig(t))
	mustSubmit(t, e, Command{Kind: CmdStart})
	mustSubmit(t, e, Command{Kind: CmdSpawnParticles, SpawnX: 0, SpawnY: 0, SpawnCount: 2, SpawnSeed: 3})
	e.AdvanceOneTick()
	e.AdvanceOneTick()

	mustSubmit(t, e, Command{Kind: CmdReset})
	if e.Tick() != 0 {
		t.Fatalf("expected tick 0 after reset, got %d", e.Tick())
	}
	if e.particles.AliveCount() != 0 {
		t.Fatalf("expected 0 alive particles after reset, got %d", e.particles.AliveCount())
	}

	e.AdvanceOneTick()
	if e.Tick() != 0 {
		t.Fatalf("reset also paused the engine; tick should stay at 0 until start, got %d", e.Tick())
	}
}

func TestBuildRecordLoadRecordRoundTrip(t *testing.T) {
	e := New(testConfig(t))
	mustSubmit(t, e, Command{Kind: CmdStart})
	mustSubmit(t, e, Command{Kind: CmdSpawnParticles, SpawnX: 5, SpawnY: 5, SpawnCount: 4, SpawnSeed: 99})
	for i := 0; i < 10; i++ {
		e.AdvanceOneTick()
	}

	rec := e.BuildRecord("v1", 1000)
	if rec.Hash == 0 {
		t.Fatal("expected a non-zero integrity hash")
	}
	if len(rec.Particles) == 0 {
		t.Fatal("expected at least one surviving particle in the record")
	}

	loader := New(testConfig(t))
	if err := loader.LoadRecord(rec); err != nil {
		t.Fatalf("LoadRecord: %v", err)
	}
	if loader.Tick() != rec.Tick {
		t.Fatalf("expected loaded tick %d, got %d", rec.Tick, loader.Tick())
	}
	if got := loader.particles.AliveCount(); got != len(rec.Particles) {
		t.Fatalf("expected %d alive particles after load, got %d", len(rec.Particles), got)
	}

	rec2 := loader.BuildRecord("v1", 1000)
	if rec2.Hash != rec.Hash {
		t.Fatalf("save/load/save round trip should hash identically, got %d want %d", rec2.Hash, rec.Hash)
	}
}

func TestLoadRecordRejectsTamperedHash(t *testing.T) {
	e := New(testConfig(t))
	mustSubmit(t, e, Command{Kind: CmdStart})
	mustSubmit(t, e, Command{Kind: CmdSpawnParticles, SpawnX: 0, SpawnY: 0, SpawnCount: 1, SpawnSeed: 1})
	e.AdvanceOneTick()

	rec := e.BuildRecord("v1", 1)
	rec.Hash ^= 0xdeadbeef

	before := e.Tick()
	if err := e.LoadRecord(rec); err != ErrIntegrityMismatch {
		t.Fatalf("expected ErrIntegrityMismatch, got %v", err)
	}
	if e.Tick() != before {
		t.Fatalf("a rejected load must not mutate engine state, tick changed from %d to %d", before, e.Tick())
	}
}

func mustSubmit(t *testing.T, e *Engine, cmd Command) {
	t.Helper()
	if err := e.Submit(cmd); err != nil {
		t.Fatalf("Submit(%v): %v", cmd.Kind, err)
	}
}
