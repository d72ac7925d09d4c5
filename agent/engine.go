// Package agent implements the particle engine: the flat store of agents,
// their sensing/motion/consumption/reproduction/death cycle, and the
// fixed behavior-archetype lookup table that gives each agent distinct
// but non-learned tendencies.
package agent

import (
	"sort"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/terrarium/chunk"
	"github.com/pthm-cable/terrarium/components"
)

// Tunables bundles the lifecycle knobs the engine reads every tick,
// mirrored from config.LifecycleConfig/WeightsConfig so agent does not
// import the config package directly.
type Tunables struct {
	BaseMetabolism        float32
	MovementCost          float32
	ReproductionThreshold float32
	ReproductionCost      float32
	ReproductionCooldown  int64
	ConsumptionEfficiency float32
	MutationRate          float32
	MaxSpeed              float32
	Substeps              int
	VelocityDamping       float32

	Weights GradientWeights

	DayNightPeriodTicks int64
}

// Stats summarizes one tick's particle-engine activity for the engine's
// counters (testable property 5: births/deaths must reconcile exactly).
type Stats struct {
	AliveBefore int
	Births      int
	Deaths      int
	AliveAfter  int
}

// Engine owns the flat particle store: an ark ECS world restricted to the
// components this package defines, plus the monotonic id counter and a
// liveness index used to detect dangling cross-references from
// Structures/Communities without coupling their lifetimes to particles'.
type Engine struct {
	world *ecs.World

	mapper *ecs.Map8[
		components.Position,
		components.Velocity,
		components.Energy,
		components.Seed,
		components.State,
		components.Inventory,
		components.Repro,
		components.ID,
	]
	filter *ecs.Filter8[
		components.Position,
		components.Velocity,
		components.Energy,
		components.Seed,
		components.State,
		components.Inventory,
		components.Repro,
		components.ID,
	]

	targetMap     *ecs.Map1[components.Target]
	needsMap      *ecs.Map1[components.Needs]
	goalMap       *ecs.Map1[components.Goal]
	structuresMap *ecs.Map1[components.Structures]

	nextID uint64
	// liveIndex maps a stable particle id to its current ECS entity.
	// Deletion from this map is the tombstone: a lookup miss means the
	// id belonged to a particle that has since been swept.
	liveIndex map[uint64]ecs.Entity

	Tune Tunables

	births int
	deaths int
}

// New builds an empty particle engine over a fresh ECS world.
func New(tune Tunables) *Engine {
	world := ecs.NewWorld()
	e := &Engine{
		world: world,
		mapper: ecs.NewMap8[
			components.Position,
			components.Velocity,
			components.Energy,
			components.Seed,
			components.State,
			components.Inventory,
			components.Repro,
			components.ID,
		](world),
		filter: ecs.NewFilter8[
			components.Position,
			components.Velocity,
			components.Energy,
			components.Seed,
			components.State,
			components.Inventory,
			components.Repro,
			components.ID,
		](world),
		targetMap:     ecs.NewMap1[components.Target](world),
		needsMap:      ecs.NewMap1[components.Needs](world),
		goalMap:       ecs.NewMap1[components.Goal](world),
		structuresMap: ecs.NewMap1[components.Structures](world),
		liveIndex:     make(map[uint64]ecs.Entity),
		Tune:          tune,
	}
	return e
}

// Spawn creates a new particle at (x, y) with the given seed and energy,
// returning its stable id.
func (e *Engine) Spawn(x, y float32, energy float32, seed uint32) uint64 {
	id := e.nextID
	e.nextID++

	pos := components.Position{X: x, Y: y}
	vel := components.Velocity{X: 0, Y: 0}
	en := components.Energy{Value: energy, AliveFlag: true}
	sd := components.Seed{Value: seed}
	st := components.State{Value: components.Idle}
	inv := components.Inventory{Items: make(map[string]float32)}
	rp := components.Repro{LastReproductionTick: -1 << 62}
	idc := components.ID{Value: id}

	entity := e.mapper.NewEntity(&pos, &vel, &en, &sd, &st, &inv, &rp, &idc)
	e.liveIndex[id] = entity

	// The four occasional-access components are attached to every
	// particle too, so random-access lookups never have to special-case
	// a missing component; they simply read as zero values until set.
	target := components.Target{}
	needs := components.Needs{}
	goal := components.Goal{}
	structures := components.Structures{}
	e.targetMap.Add(entity, &target)
	e.needsMap.Add(entity, &needs)
	e.goalMap.Add(entity, &goal)
	e.structuresMap.Add(entity, &structures)

	return id
}

// AliveCount returns the number of live particles.
func (e *Engine) AliveCount() int {
	return len(e.liveIndex)
}

// IsAlive reports whether id still refers to a live particle; a false
// result distinguishes a dangling (tombstoned) reference from a live one
// without requiring Structures/Communities to hold an owning reference.
func (e *Engine) IsAlive(id uint64) bool {
	_, ok := e.liveIndex[id]
	return ok
}

// entityRow is the per-entity working snapshot used to enforce
// ascending-particle-id processing order within a tick.
type entityRow struct {
	entity ecs.Entity
	id     uint64
}

// orderedRows returns every alive entity's (entity, id) pair sorted by
// ascending id, satisfying the mandatory particle-processing order.
func (e *Engine) orderedRows() []entityRow {
	rows := make([]entityRow, 0, len(e.liveIndex))
	query := e.filter.Query()
	for query.Next() {
		entity := query.Entity()
		_, _, energy, _, _, _, _, id := query.Get()
		if !energy.AliveFlag {
			continue
		}
		rows = append(rows, entityRow{entity: entity, id: id.Value})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].id < rows[j].id })
	return rows
}

// Positions returns the position+liveness of every particle, in the
// shape chunk.Manager.UpdateFromParticles needs.
func (e *Engine) Positions() []chunk.Position {
	out := make([]chunk.Position, 0, len(e.liveIndex))
	query := e.filter.Query()
	for query.Next() {
		pos, _, energy, _, _, _, _, _ := query.Get()
		out = append(out, chunk.Position{X: pos.X, Y: pos.Y, Alive: energy.AliveFlag})
	}
	return out
}

// Sample is the minimal per-particle view external systems (community
// detection, broadcast sampling) need: identity, position, and the
// genetic-signature seed, without exposing ECS internals.
type Sample struct {
	ID     uint64
	X, Y   float32
	Seed   uint32
	Energy float32
	Alive  bool
}

// Samples returns the Sample view of every particle, live or not-yet-swept.
func (e *Engine) Samples() []Sample {
	out := make([]Sample, 0, len(e.liveIndex))
	query := e.filter.Query()
	for query.Next() {
		pos, _, energy, seed, _, _, _, id := query.Get()
		out = append(out, Sample{ID: id.Value, X: pos.X, Y: pos.Y, Seed: seed.Value, Energy: energy.Value, Alive: energy.AliveFlag})
	}
	return out
}

// entity looks an id up in the liveness index; ok is false for a stale
// (tombstoned) id.
func (e *Engine) entity(id uint64) (ecs.Entity, bool) {
	ent, ok := e.liveIndex[id]
	return ent, ok
}

// Target returns the optional movement-destination override for id, if
// it has one set and the id is still live.
func (e *Engine) Target(id uint64) (components.Target, bool) {
	ent, ok := e.entity(id)
	if !ok {
		return components.Target{}, false
	}
	return *e.targetMap.Get(ent), true
}

// SetTarget sets id's movement-destination override.
func (e *Engine) SetTarget(id uint64, t components.Target) {
	if ent, ok := e.entity(id); ok {
		*e.targetMap.Get(ent) = t
	}
}

// Needs returns id's wellbeing vector, if set.
func (e *Engine) Needs(id uint64) (components.Needs, bool) {
	ent, ok := e.entity(id)
	if !ok {
		return components.Needs{}, false
	}
	return *e.needsMap.Get(ent), true
}

// Goal returns id's current free-form goal, if set.
func (e *Engine) Goal(id uint64) (components.Goal, bool) {
	ent, ok := e.entity(id)
	if !ok {
		return components.Goal{}, false
	}
	return *e.goalMap.Get(ent), true
}

// Structures returns the structure ids id owns, if any.
func (e *Engine) Structures(id uint64) (components.Structures, bool) {
	ent, ok := e.entity(id)
	if !ok {
		return components.Structures{}, false
	}
	return *e.structuresMap.Get(ent), true
}
