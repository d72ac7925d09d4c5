package agent

import (
	"github.com/pthm-cable/terrarium/chunk"
	"github.com/pthm-cable/terrarium/components"
)

// stateFor derives the coarse activity state from current speed; this is
// a cosmetic classification read by telemetry and broadcast, not fed
// back into sensing or motion.
func stateFor(speed float32) components.ParticleState {
	if speed <= 0 {
		return components.Idle
	}
	if speed < 0.05 {
		return components.Wandering
	}
	return components.Moving
}

// Tick advances every live particle by one step: sense, move, meter
// metabolism against the field, deposit trail/census, consider
// reproduction, then sweep the dead. Particles are processed in
// ascending id order so a replay with identical inputs is bit-identical
// regardless of the ECS's internal storage order.
func (e *Engine) Tick(tick int64, mgr *chunk.Manager) Stats {
	stats := Stats{AliveBefore: e.AliveCount()}

	rows := e.orderedRows()
	var births []birthRequest
	var dead []entityRow

	dayNight := DayNightPhase(tick, e.Tune.DayNightPeriodTicks)

	for _, row := range rows {
		pos, vel, energy, seed, state, _, repro, id := e.mapper.Get(row.entity)

		trailChannel := chunk.TrailChannel(seed.Value)
		weights := ArchetypeOf(seed.Value).Apply(e.Tune.Weights, dayNight)

		dx, dy := chooseDirection(mgr, weights, trailChannel, pos.X, pos.Y, tick, id.Value, seed.Value)

		nx, ny, nvx, nvy := integrateMotion(pos.X, pos.Y, vel.X, vel.Y, dx, dy, e.Tune.Substeps, e.Tune.VelocityDamping, e.Tune.MaxSpeed)
		pos.X, pos.Y = nx, ny
		vel.X, vel.Y = nvx, nvy
		speed := sqrt32(nvx*nvx + nvy*nvy)

		energy.Value = applyMetabolism(mgr, pos.X, pos.Y, speed, energy.Value, e.Tune)
		if energy.Value <= 0 {
			energy.AliveFlag = false
			state.Value = stateFor(0)
			dead = append(dead, row)
			continue
		}

		deposit(mgr, trailChannel, pos.X, pos.Y)
		state.Value = stateFor(speed)

		if newEnergy, newLastRepro, req, ok := tryReproduce(tick, id.Value, pos.X, pos.Y, energy.Value, seed.Value, repro.LastReproductionTick, e.Tune); ok {
			energy.Value = newEnergy
			repro.LastReproductionTick = newLastRepro
			births = append(births, req)
		}
	}

	for _, b := range births {
		e.Spawn(b.x, b.y, b.energy, b.seed)
		e.births++
	}
	e.sweepDead(dead)

	stats.Births = len(births)
	stats.Deaths = len(dead)
	stats.AliveAfter = e.AliveCount()
	return stats
}
