package agent

import "math"

// GradientWeights are the coefficients of the sensing score:
//
//	score(c) = wf*food(c) + ww*water(c) + wt*trailSelf(c) - wd*danger(c)
//	           - wc*cost(c) - wx*crowding(c) + we*exploration(c)
type GradientWeights struct {
	Food        float32
	Water       float32
	Trail       float32
	Danger      float32
	Cost        float32
	Crowding    float32
	Exploration float32
	CrowdCap    float32 // K_crowd
}

// Archetype is one of eight behavior classes selected by the low 3 bits
// of a particle's seed; each multiplies the base GradientWeights
// element-wise. This is a fixed lookup table, not a learned model — no
// per-particle behavior objects are attached.
type Archetype int

const numArchetypes = 8

// archetypeMultipliers holds one weight-multiplier vector per archetype,
// hand-tuned to give each a distinct character (forager, explorer,
// cautious, social, solitary, opportunist, settler, nomad).
var archetypeMultipliers = [numArchetypes]GradientWeights{
	0: {Food: 1.3, Water: 1.0, Trail: 0.8, Danger: 1.0, Cost: 1.0, Crowding: 1.0, Exploration: 0.6}, // forager
	1: {Food: 0.8, Water: 0.8, Trail: 0.4, Danger: 0.9, Cost: 0.8, Crowding: 0.7, Exploration: 1.6}, // explorer
	2: {Food: 1.0, Water: 1.0, Trail: 0.9, Danger: 1.6, Cost: 1.2, Crowding: 1.1, Exploration: 0.5}, // cautious
	3: {Food: 0.9, Water: 0.9, Trail: 1.5, Danger: 0.9, Cost: 0.9, Crowding: 0.5, Exploration: 0.8}, // social
	4: {Food: 1.0, Water: 1.0, Trail: 0.3, Danger: 1.0, Cost: 1.0, Crowding: 1.8, Exploration: 1.0}, // solitary
	5: {Food: 1.4, Water: 0.7, Trail: 0.7, Danger: 0.7, Cost: 0.6, Crowding: 0.9, Exploration: 1.1}, // opportunist
	6: {Food: 1.1, Water: 1.2, Trail: 1.0, Danger: 1.1, Cost: 1.4, Crowding: 0.8, Exploration: 0.4}, // settler
	7: {Food: 0.9, Water: 0.9, Trail: 0.6, Danger: 0.8, Cost: 0.7, Crowding: 0.6, Exploration: 1.4}, // nomad
}

// ArchetypeOf returns the archetype selected by the low 3 bits of seed.
func ArchetypeOf(seed uint32) Archetype {
	return Archetype(seed & 0b111)
}

// Apply multiplies base element-wise by this archetype's multiplier
// vector and the supplied day/night factor (§12c: a structural hook, not
// an asserted tuning).
func (a Archetype) Apply(base GradientWeights, dayNight float32) GradientWeights {
	m := archetypeMultipliers[a]
	return GradientWeights{
		Food:        base.Food * m.Food,
		Water:       base.Water * m.Water,
		Trail:       base.Trail * m.Trail,
		Danger:      base.Danger * m.Danger * (1 + 0.3*(1-dayNight)), // danger matters more at night
		Cost:        base.Cost * m.Cost,
		Crowding:    base.Crowding * m.Crowding,
		Exploration: base.Exploration * m.Exploration * (0.6 + 0.4*dayNight), // exploration favored by day
		CrowdCap:    base.CrowdCap,
	}
}

// DayNightPhase returns a [0,1] value (1 = full day, 0 = full night) for
// a tick, given a period in ticks. This is the structural hook §12(c)
// leaves undecided in tuning; the cosine shape is illustrative only.
func DayNightPhase(tick int64, periodTicks int64) float32 {
	if periodTicks <= 0 {
		return 1
	}
	frac := float64(tick%periodTicks) / float64(periodTicks)
	// cosine wave: 1 at noon (frac=0.25), 0 at midnight (frac=0.75)
	const twoPi = 2 * math.Pi
	return float32(0.5 + 0.5*math.Cos(twoPi*(frac-0.25)))
}
