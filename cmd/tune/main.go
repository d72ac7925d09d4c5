// Package main provides CMA-ES tuning for finding thermostat gains and
// gradient weights that keep a simulation's tracked variables (population,
// resources, energy, tension, diversity, activity) stable over a long run.
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gonum.org/v1/gonum/optimize"
	"gopkg.in/yaml.v3"

	"github.com/pthm-cable/terrarium/config"
)

func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second
	if h > 0 {
		return fmt.Sprintf("%dh%02dm%02ds", h, m, s)
	}
	return fmt.Sprintf("%dm%02ds", m, s)
}

func main() {
	configPath := flag.String("config", "", "base config YAML file (empty = embedded defaults)")
	maxTicks := flag.Int64("max-ticks", 20000, "ticks per evaluation run")
	seeds := flag.Int("seeds", 3, "seeds averaged per evaluation")
	maxEvals := flag.Int("max-evals", 100, "maximum CMA-ES evaluations")
	population := flag.Int("population", 0, "CMA-ES population size (0 = auto)")
	spawnCount := flag.Int("spawn", 400, "particles spawned at tick 0")
	outputDir := flag.String("output", "", "output directory for logs and the tuned config")
	flag.Parse()

	if *outputDir == "" {
		log.Fatal("--output is required")
	}
	if err := os.MkdirAll(*outputDir, 0o755); err != nil {
		log.Fatalf("failed to create output directory: %v", err)
	}

	baseCfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	params := NewParamVector()
	evalSeeds := make([]int64, *seeds)
	for i := range evalSeeds {
		evalSeeds[i] = int64(i*1000 + 42)
	}
	evaluator := NewFitnessEvaluator(params, *maxTicks, evalSeeds, baseCfg, *spawnCount)

	dim := params.Dim()
	initX := params.Normalize(params.DefaultVector())

	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			raw := params.Denormalize(x)
			return evaluator.Evaluate(raw)
		},
	}

	settings := &optimize.Settings{
		FuncEvaluations: *maxEvals,
		Concurrent:      0,
	}

	popSize := *population
	if popSize == 0 {
		popSize = 4 + int(3.0*float64(dim)/2.0)
	}
	method := &optimize.CmaEsChol{
		InitStepSize: 0.3,
		Population:   popSize,
	}

	logPath := filepath.Join(*outputDir, "tune_log.csv")
	logFile, err := os.Create(logPath)
	if err != nil {
		log.Fatalf("failed to create log file: %v", err)
	}
	defer logFile.Close()
	logWriter := csv.NewWriter(logFile)
	defer logWriter.Flush()

	header := []string{"eval", "fitness"}
	for _, spec := range params.Specs {
		header = append(header, spec.Name)
	}
	logWriter.Write(header)

	evalCount := 0
	bestFitness := 1e18
	var bestParams []float64
	startTime := time.Now()

	originalFunc := problem.Func
	problem.Func = func(x []float64) float64 {
		fitness := originalFunc(x)
		evalCount++

		raw := params.Denormalize(x)
		clamped := params.Clamp(raw)
		if fitness < bestFitness {
			bestFitness = fitness
			bestParams = make([]float64, len(clamped))
			copy(bestParams, clamped)
		}

		row := []string{strconv.Itoa(evalCount), fmt.Sprintf("%.6f", fitness)}
		for _, v := range clamped {
			row = append(row, fmt.Sprintf("%.6f", v))
		}
		logWriter.Write(row)
		logWriter.Flush()

		elapsed := time.Since(startTime)
		avgPerEval := elapsed / time.Duration(evalCount)
		remaining := time.Duration(*maxEvals-evalCount) * avgPerEval
		fmt.Printf("eval %d/%d: output-variance=%.4f (best=%.4f) | elapsed: %s, ETA: %s\n",
			evalCount, *maxEvals, fitness, bestFitness, formatDuration(elapsed), formatDuration(remaining))

		return fitness
	}

	fmt.Printf("starting CMA-ES tuning with %d parameters, population=%d, max-evals=%d\n", dim, popSize, *maxEvals)
	fmt.Printf("seeds per evaluation: %d, ticks per run: %d\n", *seeds, *maxTicks)

	result, err := optimize.Minimize(problem, initX, settings, method)
	if err != nil {
		log.Printf("tuning ended: %v", err)
	}
	if bestParams == nil {
		bestParams = params.Denormalize(result.X)
	}

	fmt.Printf("\ntuning complete after %d evaluations in %s\n", evalCount, formatDuration(time.Since(startTime)))
	fmt.Printf("best fitness (thermostat output variance): %.6f\n", bestFitness)
	fmt.Println("\nbest parameters:")
	for i, spec := range params.Specs {
		fmt.Printf("  %s: %.6f\n", spec.Name, bestParams[i])
	}

	bestCfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to reload base config: %v", err)
	}
	params.ApplyToConfig(bestCfg, bestParams)

	configOutPath := filepath.Join(*outputDir, "tuned_config.yaml")
	data, err := yaml.Marshal(bestCfg)
	if err != nil {
		log.Fatalf("failed to marshal tuned config: %v", err)
	}
	if err := os.WriteFile(configOutPath, data, 0o644); err != nil {
		log.Fatalf("failed to write tuned config: %v", err)
	}
	fmt.Printf("\ntuned config saved to: %s\n", configOutPath)
}
