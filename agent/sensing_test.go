package agent

import (
	"testing"

	"github.com/pthm-cable/terrarium/chunk"
	"github.com/pthm-cable/terrarium/worldgen"
)

func newTestManager() *chunk.Manager {
	return chunk.New(worldgen.New(1), 0, 0)
}

func TestScorePrefersHigherFood(t *testing.T) {
	mgr := newTestManager()
	mgr.EnsureChunkActive(0, 0)
	mgr.SetValue(chunk.Food, 5, 5, 1.0)

	w := GradientWeights{Food: 1, CrowdCap: 1}
	low := score(mgr, w, chunk.Trail0, 5, 4)
	high := score(mgr, w, chunk.Trail0, 5, 5)
	if high <= low {
		t.Errorf("expected higher food cell to score higher: low=%v high=%v", low, high)
	}
}

func TestScorePenalizesDanger(t *testing.T) {
	mgr := newTestManager()
	mgr.EnsureChunkActive(0, 0)
	mgr.SetValue(chunk.Danger, 5, 5, 1.0)

	w := GradientWeights{Danger: 1, CrowdCap: 1}
	safe := score(mgr, w, chunk.Trail0, 5, 4)
	dangerous := score(mgr, w, chunk.Trail0, 5, 5)
	if dangerous >= safe {
		t.Errorf("expected dangerous cell to score lower: safe=%v dangerous=%v", safe, dangerous)
	}
}

func TestChooseDirectionIsDeterministic(t *testing.T) {
	mgr := newTestManager()
	mgr.EnsureChunkActive(0, 0)
	w := GradientWeights{Food: 1, Water: 1, Trail: 1, CrowdCap: 1}

	dx1, dy1 := chooseDirection(mgr, w, chunk.Trail0, 10, 10, 7, 42, 0x1234)
	dx2, dy2 := chooseDirection(mgr, w, chunk.Trail0, 10, 10, 7, 42, 0x1234)
	if dx1 != dx2 || dy1 != dy2 {
		t.Error("expected identical inputs to choose the same direction")
	}
}
