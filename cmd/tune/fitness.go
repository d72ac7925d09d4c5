package main

import (
	"math"
	"sync"

	"github.com/pthm-cable/terrarium/config"
	"github.com/pthm-cable/terrarium/engine"
)

// minViablePopulation below which a run counts as a population collapse.
const minViablePopulation = 3

// statsTailFraction is the trailing share of a run's ticks used to score
// stability; the early ticks are warmup noise while chunks first page in
// and the thermostat bank has not yet converged.
const statsTailFraction = 0.3

// FitnessEvaluator runs headless simulations and scores the resulting
// thermostat stability (lower is better).
type FitnessEvaluator struct {
	params     *ParamVector
	maxTicks   int64
	seeds      []int64
	baseConfig *config.Config
	spawnCount int

	mu          sync.Mutex
	bestFitness float64
}

// NewFitnessEvaluator creates a new evaluator.
func NewFitnessEvaluator(params *ParamVector, maxTicks int64, seeds []int64, baseCfg *config.Config, spawnCount int) *FitnessEvaluator {
	return &FitnessEvaluator{
		params:      params,
		maxTicks:    maxTicks,
		seeds:       seeds,
		baseConfig:  baseCfg,
		spawnCount:  spawnCount,
		bestFitness: math.Inf(1),
	}
}

func (fe *FitnessEvaluator) copyConfig() *config.Config {
	cfg := *fe.baseConfig
	return &cfg
}

// Evaluate computes fitness for a parameter vector (lower = better):
// thermostat-output variance over the run's tail window, penalized
// heavily for any seed that collapses to functional extinction.
func (fe *FitnessEvaluator) Evaluate(x []float64) float64 {
	results := make([]float64, len(fe.seeds))
	var wg sync.WaitGroup
	for i, seed := range fe.seeds {
		wg.Add(1)
		go func(idx int, s int64) {
			defer wg.Done()
			results[idx] = fe.runSeed(x, s)
		}(i, seed)
	}
	wg.Wait()

	var total float64
	for _, r := range results {
		total += r
	}
	avg := total / float64(len(results))

	fe.mu.Lock()
	if avg < fe.bestFitness {
		fe.bestFitness = avg
	}
	fe.mu.Unlock()
	return avg
}

// BestFitness returns the lowest fitness observed across all Evaluate calls.
func (fe *FitnessEvaluator) BestFitness() float64 {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.bestFitness
}

// runSeed runs one headless simulation to maxTicks (or until functional
// extinction) and returns its fitness contribution.
func (fe *FitnessEvaluator) runSeed(x []float64, seed int64) float64 {
	cfg := fe.copyConfig()
	cfg.Seed = seed
	fe.params.ApplyToConfig(cfg, x)

	e := engine.New(cfg)
	if err := e.Submit(engine.Command{Kind: engine.CmdStart}); err != nil {
		return math.Inf(1)
	}
	if err := e.Submit(engine.Command{Kind: engine.CmdSpawnParticles, SpawnCount: fe.spawnCount, SpawnSeed: uint32(seed)}); err != nil {
		return math.Inf(1)
	}

	tailStart := fe.maxTicks - int64(float64(fe.maxTicks)*statsTailFraction)
	var outputSum, outputSumSq float64
	var samples int64
	belowViableTicks := int64(0)
	const extinctionGraceTicks = 600

	for tick := int64(0); tick < fe.maxTicks; tick++ {
		e.AdvanceOneTick()

		m := e.Metrics()
		if m.AliveParticles < minViablePopulation {
			belowViableTicks++
			if belowViableTicks >= extinctionGraceTicks {
				return 1e9 - float64(tick) // earlier collapse scores worse
			}
		} else {
			belowViableTicks = 0
		}

		if tick >= tailStart {
			for _, r := range m.ThermostatReadings {
				outputSum += r.Output
				outputSumSq += r.Output * r.Output
				samples++
			}
		}
	}

	if samples == 0 {
		return math.Inf(1)
	}
	mean := outputSum / float64(samples)
	variance := outputSumSq/float64(samples) - mean*mean
	if variance < 0 {
		variance = 0
	}
	return variance
}
