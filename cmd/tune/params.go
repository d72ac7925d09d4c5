// Package main provides CMA-ES tuning for the thermostat gains and
// gradient-score weights that govern long-run population stability.
package main

import (
	"github.com/pthm-cable/terrarium/config"
)

// ParamSpec defines a single tunable parameter's bounds and default.
type ParamSpec struct {
	Name    string
	Min     float64
	Max     float64
	Default float64
}

// ParamVector holds the standard set of tunable parameters: the shared
// thermostat gains and the gradient-score weight table.
type ParamVector struct {
	Specs []ParamSpec
}

// NewParamVector creates the standard set of thermostat/weight parameters.
func NewParamVector() *ParamVector {
	return &ParamVector{
		Specs: []ParamSpec{
			{Name: "thermostat_kp", Min: 0.05, Max: 2.0, Default: 0.6},
			{Name: "thermostat_ki", Min: 0.0, Max: 0.5, Default: 0.05},
			{Name: "thermostat_kd", Min: 0.0, Max: 0.5, Default: 0.05},
			{Name: "thermostat_integral_clamp", Min: 0.5, Max: 10.0, Default: 4.0},
			{Name: "thermostat_output_clamp", Min: 0.1, Max: 2.0, Default: 1.0},

			{Name: "weight_food", Min: 0.1, Max: 5.0, Default: 1.5},
			{Name: "weight_water", Min: 0.1, Max: 5.0, Default: 1.0},
			{Name: "weight_trail", Min: 0.0, Max: 2.0, Default: 0.4},
			{Name: "weight_danger", Min: 0.1, Max: 5.0, Default: 1.2},
			{Name: "weight_cost", Min: 0.0, Max: 2.0, Default: 0.3},
			{Name: "weight_crowding", Min: 0.0, Max: 2.0, Default: 0.5},
			{Name: "weight_exploration", Min: 0.0, Max: 1.0, Default: 0.2},
		},
	}
}

// Dim returns the number of parameters.
func (pv *ParamVector) Dim() int {
	return len(pv.Specs)
}

// DefaultVector returns the default parameter values as a slice.
func (pv *ParamVector) DefaultVector() []float64 {
	v := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		v[i] = spec.Default
	}
	return v
}

// Normalize converts raw parameter values to [0,1].
func (pv *ParamVector) Normalize(raw []float64) []float64 {
	out := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		out[i] = (raw[i] - spec.Min) / (spec.Max - spec.Min)
	}
	return out
}

// Denormalize converts [0,1] values back to raw parameter values.
func (pv *ParamVector) Denormalize(normalized []float64) []float64 {
	out := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		out[i] = spec.Min + normalized[i]*(spec.Max-spec.Min)
	}
	return out
}

// Clamp ensures all values are within bounds.
func (pv *ParamVector) Clamp(v []float64) []float64 {
	out := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		val := v[i]
		if val < spec.Min {
			val = spec.Min
		}
		if val > spec.Max {
			val = spec.Max
		}
		out[i] = val
	}
	return out
}

// ApplyToConfig writes clamped parameter values into cfg's thermostat
// gains and gradient weight table.
func (pv *ParamVector) ApplyToConfig(cfg *config.Config, values []float64) {
	c := pv.Clamp(values)
	cfg.Thermostat.KP = c[0]
	cfg.Thermostat.KI = c[1]
	cfg.Thermostat.KD = c[2]
	cfg.Thermostat.IntegralClamp = c[3]
	cfg.Thermostat.OutputClamp = c[4]

	cfg.Weights.Food = c[5]
	cfg.Weights.Water = c[6]
	cfg.Weights.Trail = c[7]
	cfg.Weights.Danger = c[8]
	cfg.Weights.Cost = c[9]
	cfg.Weights.Crowding = c[10]
	cfg.Weights.Exploration = c[11]
}
