package config

import (
	"bytes"
	"fmt"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// ApplyOverlay merges a partial, dotted-key overlay (as produced by the
// set_config command) into a copy of base and returns the result. It
// never mutates base or the process-wide global; the caller swaps it in
// only after validation succeeds, matching the "engine state unchanged
// on configuration error" rule.
func ApplyOverlay(base *Config, overlay map[string]any) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	raw, err := yaml.Marshal(base)
	if err != nil {
		return nil, fmt.Errorf("marshal base config: %w", err)
	}
	if err := v.ReadConfig(bytes.NewReader(raw)); err != nil {
		return nil, fmt.Errorf("read base config into viper: %w", err)
	}

	for k, val := range overlay {
		v.Set(k, val)
	}

	// Decode through yaml so the struct's yaml tags (snake_case keys) bind;
	// viper's own Unmarshal only matches mapstructure tags and field names.
	mergedRaw, err := yaml.Marshal(v.AllSettings())
	if err != nil {
		return nil, fmt.Errorf("marshal overlaid config: %w", err)
	}
	merged := &Config{}
	if err := yaml.Unmarshal(mergedRaw, merged); err != nil {
		return nil, fmt.Errorf("unmarshal overlaid config: %w", err)
	}
	if err := Validate(merged); err != nil {
		return nil, err
	}
	merged.computeDerived()
	return merged, nil
}

// Validate rejects configurations with out-of-range values. It never
// mutates cfg.
func Validate(cfg *Config) error {
	if cfg.TickMs < 0 {
		return fmt.Errorf("config: tick_ms must be >= 0, got %d", cfg.TickMs)
	}
	if cfg.Chunk.UnloadRadius < 0 {
		return fmt.Errorf("config: chunk.unload_radius must be >= 0, got %d", cfg.Chunk.UnloadRadius)
	}
	if cfg.Chunk.MaxCachedChunks < 0 {
		return fmt.Errorf("config: chunk.max_cached_chunks must be >= 0, got %d", cfg.Chunk.MaxCachedChunks)
	}
	if cfg.Lifecycle.MutationRate < 0 || cfg.Lifecycle.MutationRate > 1 {
		return fmt.Errorf("config: lifecycle.mutation_rate must be in [0,1], got %f", cfg.Lifecycle.MutationRate)
	}
	if cfg.Lifecycle.ConsumptionEfficiency < 0 || cfg.Lifecycle.ConsumptionEfficiency > 1 {
		return fmt.Errorf("config: lifecycle.consumption_efficiency must be in [0,1], got %f", cfg.Lifecycle.ConsumptionEfficiency)
	}
	if cfg.GPU.MinElements < 0 {
		return fmt.Errorf("config: gpu.min_elements must be >= 0, got %d", cfg.GPU.MinElements)
	}
	return nil
}
