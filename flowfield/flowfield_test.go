package flowfield

import "testing"

func TestBuildFillsDistanceFromSingleSource(t *testing.T) {
	f := New(5, 5)
	f.Build(0, []Seed{Source(2, 2)}, 0)

	if f.DistanceAt(2, 2) != 0 {
		t.Errorf("expected the source cell to have distance 0, got %v", f.DistanceAt(2, 2))
	}
	if f.DistanceAt(3, 2) != 1 {
		t.Errorf("expected an adjacent cell to have distance 1, got %v", f.DistanceAt(3, 2))
	}
	if f.DistanceAt(0, 0) != 4 {
		t.Errorf("expected corner (0,0) to have Manhattan distance 4 from (2,2), got %v", f.DistanceAt(0, 0))
	}
}

func TestBlockedCellsAreUnreachable(t *testing.T) {
	f := New(3, 3)
	// Wall off the source from the rest of the grid.
	f.SetBlocked(1, 0, true)
	f.SetBlocked(0, 1, true)
	f.SetBlocked(1, 1, true)
	f.SetBlocked(2, 1, true)
	f.SetBlocked(1, 2, true)
	f.Build(0, []Seed{Source(1, 1)}, 0)

	// The source itself is blocked, so nothing should be reached at all.
	if f.DistanceAt(0, 0) != float32(9) {
		t.Errorf("expected an unreachable cell to report the sentinel max distance, got %v", f.DistanceAt(0, 0))
	}
}

func TestGradientPointsTowardSource(t *testing.T) {
	f := New(7, 7)
	f.Build(0, []Seed{Source(3, 3)}, 0)

	wx, wy := GridToWorld(5, 3) // two cells to the right of the source
	gx, gy := f.GetAtInterpolated(wx, wy)
	if gx >= 0 {
		t.Errorf("expected the gradient east of the source to point west (negative x), got gx=%v", gx)
	}
	if abs32(gy) > 0.2 {
		t.Errorf("expected a near-zero y component on the horizontal axis, got gy=%v", gy)
	}
}

func TestBuildRateLimitedWhenNotDirty(t *testing.T) {
	f := New(4, 4)
	if !f.Build(0, []Seed{Source(0, 0)}, 10) {
		t.Fatal("expected the first build to run")
	}
	if f.Build(5, []Seed{Source(0, 0)}, 10) {
		t.Error("expected a rebuild before minRebuildTicks has elapsed to be skipped")
	}
	if !f.Build(10, []Seed{Source(0, 0)}, 10) {
		t.Error("expected a rebuild at exactly minRebuildTicks to run")
	}
}

func TestInvalidateForcesRebuildRegardlessOfRateLimit(t *testing.T) {
	f := New(4, 4)
	f.Build(0, []Seed{Source(0, 0)}, 100)
	f.Invalidate()
	if !f.Build(1, []Seed{Source(0, 0)}, 100) {
		t.Error("expected Invalidate to force a rebuild even inside the rate-limit window")
	}
}

func abs32(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}
