// Package config provides configuration loading and access for the
// simulation engine.
package config

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all simulation configuration parameters.
type Config struct {
	TickMs int   `yaml:"tick_ms"`
	Seed   int64 `yaml:"seed"`

	Lifecycle  LifecycleConfig  `yaml:"lifecycle"`
	Weights    WeightsConfig    `yaml:"weights"`
	Chunk      ChunkConfig      `yaml:"chunk"`
	Scheduler  SchedulerConfig  `yaml:"scheduler"`
	GPU        GPUConfig        `yaml:"gpu"`
	Economy    EconomyConfig    `yaml:"economy"`
	Thermostat ThermostatConfig `yaml:"thermostat"`
	Broadcast  BroadcastConfig  `yaml:"broadcast"`

	Derived DerivedConfig `yaml:"-"`
}

// LifecycleConfig holds per-tick particle metabolism parameters.
type LifecycleConfig struct {
	BaseMetabolism        float64 `yaml:"base_metabolism"`
	MovementCost          float64 `yaml:"movement_cost"`
	ReproductionThreshold float64 `yaml:"reproduction_threshold"`
	ReproductionCost      float64 `yaml:"reproduction_cost"`
	ReproductionCooldown  int64   `yaml:"reproduction_cooldown"`
	ConsumptionEfficiency float64 `yaml:"consumption_efficiency"`
	MutationRate          float64 `yaml:"mutation_rate"`
	MaxSpeed              float64 `yaml:"max_speed"`
	Substeps              int     `yaml:"substeps"`
	VelocityDamping       float64 `yaml:"velocity_damping"`
}

// WeightsConfig holds the default gradient-score weights.
type WeightsConfig struct {
	Food        float64 `yaml:"food"`
	Water       float64 `yaml:"water"`
	Trail       float64 `yaml:"trail"`
	Danger      float64 `yaml:"danger"`
	Cost        float64 `yaml:"cost"`
	Crowding    float64 `yaml:"crowding"`
	Exploration float64 `yaml:"exploration"`
	CrowdCap    float64 `yaml:"crowd_cap"`
}

// ChunkConfig holds the chunk paging policy.
type ChunkConfig struct {
	ActivationRadius int   `yaml:"activation_radius"`
	UnloadRadius     int   `yaml:"unload_radius"` // open question (a): not wired
	MaxCachedChunks  int   `yaml:"max_cached_chunks"`
	SleepTimeout     int64 `yaml:"sleep_timeout"`
}

// SchedulerConfig holds the multi-rate scheduler's intervals and budget.
type SchedulerConfig struct {
	FastInterval    int64   `yaml:"fast_interval"`
	MediumInterval  int64   `yaml:"medium_interval"`
	SlowInterval    int64   `yaml:"slow_interval"`
	MaxTickBudgetMs float64 `yaml:"max_tick_budget_ms"`
}

// GPUConfig holds the offload bridge's eligibility policy.
type GPUConfig struct {
	MinElements int    `yaml:"min_elements"`
	TimeoutMs   int    `yaml:"timeout_ms"`
	Disable     bool   `yaml:"disable"`
	LibraryPath string `yaml:"library_path"`
}

// EconomyConfig holds advection/demand/reaction tuning.
type EconomyConfig struct {
	MaxFlow       float64 `yaml:"max_flow"`
	Viscosity     float64 `yaml:"viscosity"`
	DemandDecay   float64 `yaml:"demand_decay"`
	DemandUrgency float64 `yaml:"demand_urgency"`
	DemandEpsilon float64 `yaml:"demand_epsilon"`
	LaborPerCell  float64 `yaml:"labor_per_cell"`
}

// ThermostatConfig holds the default PID gains shared by the bank, unless
// a variable overrides them individually in code.
type ThermostatConfig struct {
	KP            float64 `yaml:"kp"`
	KI            float64 `yaml:"ki"`
	KD            float64 `yaml:"kd"`
	IntegralClamp float64 `yaml:"integral_clamp"`
	OutputClamp   float64 `yaml:"output_clamp"`
	SamplePeriod  int64   `yaml:"sample_period"`
}

// BroadcastConfig holds the snapshot sampling policy.
type BroadcastConfig struct {
	MaxParticlesPerTick int `yaml:"max_particles_per_tick"`
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	TickDuration float64 // seconds per tick, derived from TickMs
}

var global *Config

// Init loads configuration from the given path, or uses embedded defaults
// if path is empty. Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// MustInit is like Init but panics on error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Load loads configuration from a YAML file, merging with embedded
// defaults. If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	cfg.computeDerived()
	return cfg, nil
}

func (c *Config) computeDerived() {
	if c.TickMs <= 0 {
		c.TickMs = 50
	}
	c.Derived.TickDuration = float64(c.TickMs) / 1000.0
}
