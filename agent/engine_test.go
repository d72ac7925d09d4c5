package agent

import "testing"

func defaultTune() Tunables {
	return Tunables{
		BaseMetabolism:        0.01,
		MovementCost:          0.01,
		ReproductionThreshold: 0.9,
		ReproductionCost:      0.3,
		ReproductionCooldown:  100,
		ConsumptionEfficiency: 0.5,
		MutationRate:          0.01,
		MaxSpeed:              1,
		Substeps:              4,
		VelocityDamping:       0.85,
		Weights:               GradientWeights{Food: 1, Water: 0.5, Trail: 0.2, Danger: 1, Cost: 0.3, Crowding: 0.5, Exploration: 0.4, CrowdCap: 8},
		DayNightPeriodTicks:   1000,
	}
}

func TestSpawnAssignsStableIncreasingIDs(t *testing.T) {
	e := New(defaultTune())
	a := e.Spawn(0, 0, 1, 1)
	b := e.Spawn(1, 1, 1, 2)
	if b != a+1 {
		t.Errorf("expected monotonically increasing ids, got %d then %d", a, b)
	}
	if !e.IsAlive(a) || !e.IsAlive(b) {
		t.Fatal("expected both spawned particles to be alive")
	}
}

func TestTickStatsReconcile(t *testing.T) {
	e := New(defaultTune())
	for i := 0; i < 5; i++ {
		e.Spawn(float32(i), 0, 0.5, uint32(i))
	}
	mgr := newTestManager()
	mgr.EnsureChunkActive(0, 0)

	before := e.AliveCount()
	stats := e.Tick(1, mgr)

	if stats.AliveBefore != before {
		t.Errorf("expected AliveBefore %d, got %d", before, stats.AliveBefore)
	}
	if stats.AliveAfter != stats.AliveBefore+stats.Births-stats.Deaths {
		t.Errorf("expected alive counts to reconcile: before=%d births=%d deaths=%d after=%d",
			stats.AliveBefore, stats.Births, stats.Deaths, stats.AliveAfter)
	}
	if e.AliveCount() != stats.AliveAfter {
		t.Errorf("expected engine's live count to match reported AliveAfter")
	}
}

func TestDeadParticleIDBecomesDangling(t *testing.T) {
	tune := defaultTune()
	tune.BaseMetabolism = 1.0 // guarantee death on the first tick
	e := New(tune)
	id := e.Spawn(0, 0, 0.1, 1)
	mgr := newTestManager()
	mgr.EnsureChunkActive(0, 0)

	e.Tick(1, mgr)

	if e.IsAlive(id) {
		t.Fatal("expected particle to have died from metabolism exceeding energy")
	}
}
