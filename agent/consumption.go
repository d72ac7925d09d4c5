package agent

import "github.com/pthm-cable/terrarium/chunk"

// gatherRate is the fraction of a cell's food/water value harvested per
// tick by an agent occupying it.
const gatherRate = 0.3

// applyMetabolism charges base metabolism plus a movement cost
// proportional to speed, then lets the agent harvest food/water from its
// current cell at consumptionEfficiency, crediting the net gain to
// energy. It returns the updated energy.
func applyMetabolism(mgr *chunk.Manager, x, y, speed float32, energy float32, tune Tunables) float32 {
	energy -= tune.BaseMetabolism
	energy -= tune.MovementCost * speed

	cx, cy := x, y
	food := mgr.GetValue(chunk.Food, cx, cy)
	water := mgr.GetValue(chunk.Water, cx, cy)

	gatheredFood := food * gatherRate
	gatheredWater := water * gatherRate
	if gatheredFood > 0 {
		mgr.AddValue(chunk.Food, cx, cy, -gatheredFood)
		energy += gatheredFood * tune.ConsumptionEfficiency
	}
	if gatheredWater > 0 {
		mgr.AddValue(chunk.Water, cx, cy, -gatheredWater)
		energy += gatheredWater * tune.ConsumptionEfficiency * 0.5
	}

	if energy < 0 {
		energy = 0
	}
	return energy
}

// deposit lays down trail scent in the agent's own channel and bumps the
// cell's population census field, both read back next tick by sensing
// and by any community-detection pass over Population.
func deposit(mgr *chunk.Manager, trailChannel chunk.FieldType, x, y float32) {
	mgr.AddValue(trailChannel, x, y, 1.0)
	mgr.AddValue(chunk.Population, x, y, 1.0)
}
