package agent

import "github.com/pthm-cable/terrarium/chunk"

// candidateOffsets are the 8 Moore neighbors plus the current cell,
// sampled every tick to pick a movement direction.
var candidateOffsets = [9][2]float32{
	{0, 0},
	{1, 0}, {-1, 0}, {0, 1}, {0, -1},
	{1, 1}, {1, -1}, {-1, 1}, {-1, -1},
}

// score evaluates spec's weighted gradient formula at one candidate cell:
//
//	score(c) = wf*food(c) + ww*water(c) + wt*trailSelf(c) - wd*danger(c)
//	           - wc*cost(c) - wx*crowding(c) + we*exploration(c)
func score(mgr *chunk.Manager, w GradientWeights, trailChannel chunk.FieldType, wx, wy float32) float32 {
	food := mgr.GetValue(chunk.Food, wx, wy)
	water := mgr.GetValue(chunk.Water, wx, wy)
	trail := mgr.GetValue(trailChannel, wx, wy)
	danger := mgr.GetValue(chunk.Danger, wx, wy)
	cost := mgr.GetValue(chunk.Cost, wx, wy)
	pop := mgr.GetValue(chunk.Population, wx, wy)

	crowdCap := w.CrowdCap
	if crowdCap <= 0 {
		crowdCap = 1
	}
	crowding := pop / crowdCap
	if crowding > 1 {
		crowding = 1
	}
	exploration := 1 - trail

	return w.Food*food + w.Water*water + w.Trail*trail -
		w.Danger*danger - w.Cost*cost - w.Crowding*crowding + w.Exploration*exploration
}

// chooseDirection scores every candidate offset from (x, y) and returns
// the best-scoring one, breaking ties deterministically via agentHash so
// replay with the same inputs always picks the same direction regardless
// of map iteration order.
func chooseDirection(mgr *chunk.Manager, w GradientWeights, trailChannel chunk.FieldType, x, y float32, tick int64, id uint64, seed uint32) (dx, dy float32) {
	bestScore := float32(0)
	bestIdx := -1
	for i, off := range candidateOffsets {
		s := score(mgr, w, trailChannel, x+off[0], y+off[1])
		switch {
		case bestIdx < 0 || s > bestScore:
			bestScore = s
			bestIdx = i
		case s == bestScore:
			// deterministic tie-break: favor the candidate whose index
			// the agent's hash for this tick selects.
			if agentFloat01(tick, id, seed, uint64(i)) > agentFloat01(tick, id, seed, uint64(bestIdx)) {
				bestIdx = i
			}
		}
	}
	off := candidateOffsets[bestIdx]
	return off[0], off[1]
}
