package agent

// birthRequest is a pending spawn collected during the reproduction scan
// and applied only after the scan finishes, mirroring the
// collect-then-mutate pattern used for death sweeps: mutating the live
// query mid-iteration is never safe.
type birthRequest struct {
	x, y   float32
	energy float32
	seed   uint32
}

// tryReproduce checks one parent's eligibility and, if it reproduces,
// returns the updated parent energy/cooldown plus a birth request for the
// child. ok is false if the parent did not reproduce this tick.
func tryReproduce(tick int64, id uint64, x, y, energy float32, seed uint32, lastReproTick int64, tune Tunables) (newEnergy float32, newLastRepro int64, req birthRequest, ok bool) {
	if energy < tune.ReproductionThreshold {
		return energy, lastReproTick, birthRequest{}, false
	}
	if tick-lastReproTick < tune.ReproductionCooldown {
		return energy, lastReproTick, birthRequest{}, false
	}

	newEnergy = energy - tune.ReproductionCost
	childSeed := mutateSeed(tick, id, seed, tune.MutationRate)

	req = birthRequest{
		x:      x,
		y:      y,
		energy: tune.ReproductionCost,
		seed:   childSeed,
	}
	return newEnergy, tick, req, true
}
