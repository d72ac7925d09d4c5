// Package worldgen produces the noise channels ChunkManager's terrain
// generation passes through the biome resolver and resource seeding rules.
package worldgen

import (
	opensimplex "github.com/ojrac/opensimplex-go"
)

// Generator holds one opensimplex instance per disjoint noise channel,
// each seeded independently from the world seed so the four terrain
// channels (and the two river channels) are statistically uncorrelated.
type Generator struct {
	temperature opensimplex.Noise
	moisture    opensimplex.Noise
	elevation   opensimplex.Noise
	continental opensimplex.Noise

	riverA opensimplex.Noise
	riverB opensimplex.Noise

	food  opensimplex.Noise
	tree  opensimplex.Noise
	stone opensimplex.Noise
	water opensimplex.Noise

	Scale      float64
	Octaves    int
	Lacunarity float64
	Gain       float64
}

// New builds a Generator from a world seed. Each channel's seed is the
// world seed offset by a distinct constant so the channels never alias.
func New(worldSeed int64) *Generator {
	return &Generator{
		temperature: opensimplex.New(worldSeed + 1),
		moisture:    opensimplex.New(worldSeed + 104729),
		elevation:   opensimplex.New(worldSeed + 200000033),
		continental: opensimplex.New(worldSeed + 300000049),
		riverA:      opensimplex.New(worldSeed + 400000067),
		riverB:      opensimplex.New(worldSeed + 500000083),
		food:        opensimplex.New(worldSeed + 600000101),
		tree:        opensimplex.New(worldSeed + 700000121),
		stone:       opensimplex.New(worldSeed + 800000143),
		water:       opensimplex.New(worldSeed + 900000163),

		Scale:      0.004,
		Octaves:    4,
		Lacunarity: 2.0,
		Gain:       0.5,
	}
}

func fbm2(n opensimplex.Noise, x, y, scale float64, octaves int, lacunarity, gain float64) float32 {
	var sum, amp, freq float64 = 0, 0.5, scale
	for o := 0; o < octaves; o++ {
		v := (n.Eval2(x*freq, y*freq) + 1) * 0.5
		sum += amp * v
		freq *= lacunarity
		amp *= gain
	}
	return clamp01(float32(sum))
}

func clamp01(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// Terrain returns the four biome-resolver inputs for a world cell.
func (g *Generator) Terrain(worldX, worldY int) (temperature, moisture, elevation, continentality float32) {
	x, y := float64(worldX), float64(worldY)
	temperature = fbm2(g.temperature, x, y, g.Scale, g.Octaves, g.Lacunarity, g.Gain)
	moisture = fbm2(g.moisture, x, y, g.Scale, g.Octaves, g.Lacunarity, g.Gain)
	elevation = fbm2(g.elevation, x, y, g.Scale*0.6, g.Octaves, g.Lacunarity, g.Gain)
	// Continentality varies at a much lower frequency than the other
	// channels: it represents distance-from-ocean at a continent scale.
	continentality = fbm2(g.continental, x, y, g.Scale*0.08, 3, g.Lacunarity, g.Gain)
	return
}

// ridged converts a [0,1] FBM sample into a ridged sample that peaks
// sharply near 1 at noise zero-crossings, the shape river carving needs.
func ridged(v float32) float32 {
	centered := 1 - absf(2*v-1)
	return centered * centered
}

func absf(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}

// RiverValue returns the ridged-noise pair's combined value at a world
// cell; values above a high threshold (caller-supplied, typically ~0.93)
// carve a river line when elevation is mid-range.
func (g *Generator) RiverValue(worldX, worldY int) float32 {
	x, y := float64(worldX), float64(worldY)
	a := fbm2(g.riverA, x, y, g.Scale*1.5, 3, g.Lacunarity, g.Gain)
	b := fbm2(g.riverB, x, y, g.Scale*1.5, 3, g.Lacunarity, g.Gain)
	return ridged(a) * ridged(b)
}

// FoodNoise, TreeNoise, StoneNoise, WaterNoise are the independent,
// biome-agnostic resource seeding channels; the caller applies biome
// multipliers and thresholds.
func (g *Generator) FoodNoise(worldX, worldY int) float32 {
	x, y := float64(worldX), float64(worldY)
	return fbm2(g.food, x, y, g.Scale*2, 3, g.Lacunarity, g.Gain)
}

func (g *Generator) TreeNoise(worldX, worldY int) float32 {
	x, y := float64(worldX), float64(worldY)
	return fbm2(g.tree, x, y, g.Scale*3, 2, g.Lacunarity, g.Gain)
}

func (g *Generator) StoneNoise(worldX, worldY int) float32 {
	x, y := float64(worldX), float64(worldY)
	return fbm2(g.stone, x, y, g.Scale*2.5, 2, g.Lacunarity, g.Gain)
}

func (g *Generator) WaterNoise(worldX, worldY int) float32 {
	x, y := float64(worldX), float64(worldY)
	return fbm2(g.water, x, y, g.Scale*2, 2, g.Lacunarity, g.Gain)
}
