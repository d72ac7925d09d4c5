// Package thermostat implements a bank of classic PID controllers, one per
// measured world variable, that the engine consults on its SLOW schedule to
// correct drift in population, resources, energy, tension, diversity, and
// activity.
package thermostat

import "fmt"

// Variable names a measured world quantity the bank tracks.
type Variable string

const (
	Population Variable = "population"
	Resources  Variable = "resources"
	Energy     Variable = "energy"
	Tension    Variable = "tension"
	Diversity  Variable = "diversity"
	Activity   Variable = "activity"
)

// AllVariables lists every variable a default bank controls.
var AllVariables = []Variable{Population, Resources, Energy, Tension, Diversity, Activity}

// Health classifies how far a controller's measured value sits from target.
type Health int

const (
	Healthy Health = iota
	Unhealthy
	Critical
)

func (h Health) String() string {
	switch h {
	case Healthy:
		return "ok"
	case Unhealthy:
		return "unhealthy"
	case Critical:
		return "critical"
	default:
		return "unknown"
	}
}

// Gains holds the three PID coefficients plus the clamps and cadence a
// controller needs. A bank may share one Gains across all variables or
// override individual ones.
type Gains struct {
	KP, KI, KD    float64
	IntegralClamp float64
	OutputClamp   float64
	SamplePeriod  int64 // ticks between updates
}

// Thermostat is a single PID controller bound to one measured variable.
type Thermostat struct {
	Variable Variable
	Target   float64
	Bounds   [2]float64 // [unhealthy, critical] absolute distance from target
	Gains    Gains

	integral    float64
	prevError   float64
	prevOutput  float64
	hasPrev     bool
	initialized bool
	lastTick    int64
}

// New builds a Thermostat for variable v with the given target, health
// bounds, and gains.
func New(v Variable, target float64, bounds [2]float64, gains Gains) *Thermostat {
	return &Thermostat{Variable: v, Target: target, Bounds: bounds, Gains: gains}
}

func clamp(v, lim float64) float64 {
	if lim <= 0 {
		return v
	}
	if v > lim {
		return lim
	}
	if v < -lim {
		return -lim
	}
	return v
}

// Update feeds a new measurement at the given tick and returns the
// corrective signal. Calls between SamplePeriod ticks are ignored: they
// return the last computed output and leave the error (and so the health
// classification), integral and derivative state as they were.
func (t *Thermostat) Update(tick int64, value float64) float64 {
	due := !t.initialized || tick-t.lastTick >= t.Gains.SamplePeriod
	if !due && t.hasPrev {
		return t.lastOutput()
	}
	t.initialized = true

	err := t.Target - value
	t.integral = clamp(t.integral+err, t.Gains.IntegralClamp)

	var derivative float64
	if t.hasPrev {
		derivative = err - t.prevError
	}

	out := t.Gains.KP*err + t.Gains.KI*t.integral + t.Gains.KD*derivative
	out = clamp(out, t.Gains.OutputClamp)

	t.prevError = err
	t.prevOutput = out
	t.hasPrev = true
	t.lastTick = tick
	return out
}

func (t *Thermostat) lastOutput() float64 {
	return t.prevOutput
}

// HealthOf classifies the last observed error's magnitude against Bounds.
func (t *Thermostat) HealthOf() Health {
	dist := t.prevError
	if dist < 0 {
		dist = -dist
	}
	switch {
	case dist >= t.Bounds[1]:
		return Critical
	case dist >= t.Bounds[0]:
		return Unhealthy
	default:
		return Healthy
	}
}

// Reading is a snapshot of one thermostat's state for reporting.
type Reading struct {
	Variable Variable
	Value    float64
	Error    float64
	Output   float64
	Health   Health
	Action   string
}

// Bank owns one Thermostat per measured variable; ApplyOutputs turns its
// readings into global knob values.
type Bank struct {
	thermostats map[Variable]*Thermostat
	order       []Variable
}

// NewBank builds an empty bank; thermostats are added with Add.
func NewBank() *Bank {
	return &Bank{thermostats: make(map[Variable]*Thermostat)}
}

// Add registers a thermostat. Variables are iterated in registration order
// by Readings, for deterministic reporting.
func (b *Bank) Add(t *Thermostat) {
	if _, exists := b.thermostats[t.Variable]; !exists {
		b.order = append(b.order, t.Variable)
	}
	b.thermostats[t.Variable] = t
}

// Update feeds one measurement set and returns a Reading per variable
// that was present in measurements, in registration order.
func (b *Bank) Update(tick int64, measurements map[Variable]float64) []Reading {
	out := make([]Reading, 0, len(b.order))
	for _, v := range b.order {
		value, ok := measurements[v]
		if !ok {
			continue
		}
		th := b.thermostats[v]
		output := th.Update(tick, value)
		health := th.HealthOf()
		out = append(out, Reading{
			Variable: v,
			Value:    value,
			Error:    th.prevError,
			Output:   output,
			Health:   health,
			Action:   suggestedAction(v, th.prevError, health),
		})
	}
	return out
}

// Knobs are the global multipliers the engine derives from thermostat
// output, scaled by (1+output) against the configured base values (see
// ApplyOutputs for which knobs are multiplied and which divided).
type Knobs struct {
	FertilityMultiplier float64
	MortalityMultiplier float64
	ResourceRegenRate   float64
	ConsumptionRate     float64
	MigrationRate       float64
	ConflictThreshold   float64
}

// ApplyOutputs scales each base knob by (1 + the matching thermostat's
// output), reading outputs from the most recent Update call's readings.
// Fertility, resource regen, consumption and migration are multiplied by
// that factor; mortality and the conflict threshold are divided by it.
func ApplyOutputs(base Knobs, readings []Reading) Knobs {
	out := base
	for _, r := range readings {
		factor := 1 + r.Output
		switch r.Variable {
		case Population:
			out.FertilityMultiplier = base.FertilityMultiplier * factor
			out.MortalityMultiplier = base.MortalityMultiplier / factor
		case Resources:
			out.ResourceRegenRate = base.ResourceRegenRate * factor
		case Energy:
			out.ConsumptionRate = base.ConsumptionRate * factor
		case Tension:
			out.ConflictThreshold = base.ConflictThreshold / factor
		case Diversity:
			out.MigrationRate = base.MigrationRate * factor
		case Activity:
			// activity has no dedicated knob; it is reporting-only.
		}
	}
	return out
}

// suggestedAction looks up a fixed, keyed-by-sign-and-type string. It is
// advisory text for operators, never consulted by the simulation itself.
func suggestedAction(v Variable, err float64, h Health) string {
	if h == Healthy {
		return "none"
	}
	sign := "low"
	if err < 0 {
		sign = "high"
	}
	action, ok := actionTable[actionKey{v, sign}]
	if !ok {
		return fmt.Sprintf("investigate %s (%s)", v, sign)
	}
	return action
}

type actionKey struct {
	v    Variable
	sign string
}

var actionTable = map[actionKey]string{
	{Population, "low"}:  "raise fertilityMultiplier or lower mortalityMultiplier",
	{Population, "high"}: "lower fertilityMultiplier or raise mortalityMultiplier",
	{Resources, "low"}:   "raise resourceRegenRate",
	{Resources, "high"}:  "lower resourceRegenRate, check for oversupply",
	{Energy, "low"}:      "lower consumptionRate or raise resourceRegenRate",
	{Energy, "high"}:     "raise consumptionRate, energy surplus unused",
	{Tension, "low"}:     "raise conflictThreshold sensitivity",
	{Tension, "high"}:    "lower conflictThreshold, tension building",
	{Diversity, "low"}:   "raise migrationRate",
	{Diversity, "high"}:  "lower migrationRate, diversity overshooting",
	{Activity, "low"}:    "check scheduler budget, world may be starved of ticks",
	{Activity, "high"}:   "none, high activity is not corrected",
}
