// Package components defines the ECS components ark's World stores for
// every particle. Components hold only raw state; behavior lives in the
// agent package's systems.
package components

// Position is a particle's world-space location. Unbounded: x and y are
// never wrapped or clamped to a world extent.
type Position struct {
	X, Y float32
}

// Velocity is a particle's current velocity in world units per tick.
type Velocity struct {
	X, Y float32
}

// Target is a particle's optional movement destination; Active is false
// when no target is set.
type Target struct {
	X, Y   float32
	Active bool
}

// ID is the particle's stable, never-reused identifier. It is assigned
// once at spawn from a monotonic counter and never changes.
type ID struct {
	Value uint64
}

// Seed is the particle's sole source of per-agent behavioral variation.
type Seed struct {
	Value uint32
}

// Energy holds a particle's metabolic state. AliveFlag false marks it
// queued for removal at the next death sweep.
type Energy struct {
	Value     float32
	AliveFlag bool
}

// State is the particle's current behavior-loop state.
type State struct {
	Value ParticleState
}

// ParticleState enumerates the particle's coarse activity.
type ParticleState int

const (
	Idle ParticleState = iota
	Wandering
	Gathering
	Working
	Resting
	Moving
	Fleeing
	Building
)

// Inventory maps resource name to amount held.
type Inventory struct {
	Items map[string]float32
}

// Repro tracks reproduction bookkeeping.
type Repro struct {
	LastReproductionTick int64
}

// Needs is the optional four-channel wellbeing vector, each in [0,1].
type Needs struct {
	Shelter, Comfort, Wealth, Social float32
	Active                           bool
}

// Goal is an optional free-form goal record; Kind is empty when unset.
type Goal struct {
	Kind   string
	TargetID uint64
	Progress float32
}

// Structures lists the structure ids this particle owns or has built.
type Structures struct {
	OwnedIDs []string
}
