// Package chunk implements the fixed-size terrain region, its field
// bundle, and the keyed manager that pages regions in and out on demand.
package chunk

import (
	"github.com/pthm-cable/terrarium/biome"
	"github.com/pthm-cable/terrarium/field"
)

// Size is the fixed chunk edge length in cells (S in the design docs).
const Size = 64

// FieldType enumerates the fixed set of field channels a chunk owns.
type FieldType int

const (
	Food FieldType = iota
	Water
	Cost
	Danger
	Trees
	Stone
	Trail0
	Trail1
	Trail2
	Trail3
	Population
	Labor

	numFieldTypes
)

// TrailChannel returns the trail field type for the low two bits of a
// particle seed.
func TrailChannel(seedLow2 uint32) FieldType {
	return Trail0 + FieldType(seedLow2&0b11)
}

// State is a chunk's lifecycle state.
type State int

const (
	Dormant State = iota
	Active
	Hyper
)

// Chunk is a Size×Size region of the world identified by integer chunk
// coordinates. Its world-space origin is (cx*Size, cy*Size).
type Chunk struct {
	CX, CY int

	state State

	fields   [numFieldTypes]*field.Field
	biomeMap []biome.Biome // nil until generated; immutable once generated

	LastAccessed int64 // tick of last reference
	Generated    bool
}

func newChunk(cx, cy int) *Chunk {
	return &Chunk{CX: cx, CY: cy, state: Dormant}
}

// State reports the chunk's current lifecycle state.
func (c *Chunk) State() State { return c.state }

// WorldOrigin returns the world-space coordinate of cell (0,0) in this
// chunk.
func (c *Chunk) WorldOrigin() (int, int) {
	return c.CX * Size, c.CY * Size
}

// Field returns the field for the given type, or nil if the chunk is
// Dormant (no field memory is addressable through a Dormant chunk).
func (c *Chunk) Field(t FieldType) *field.Field {
	if c.state == Dormant {
		return nil
	}
	return c.fields[t]
}

// BiomeMap returns the chunk's raw row-major biome bytes, or nil if
// terrain has not been generated yet. The biome map is immutable once
// generated (invariant b), so this is a direct reference, not a copy.
func (c *Chunk) BiomeMap() []biome.Biome { return c.biomeMap }

// Biome returns the biome at local cell (lx, ly), or Ocean if the chunk
// has not generated terrain yet.
func (c *Chunk) Biome(lx, ly int) biome.Biome {
	if c.biomeMap == nil || lx < 0 || ly < 0 || lx >= Size || ly >= Size {
		return biome.Ocean
	}
	return c.biomeMap[ly*Size+lx]
}

// allocateFields creates the zero-valued field set for an Active chunk.
func (c *Chunk) allocateFields(cfg FieldConfig) {
	for t := FieldType(0); t < numFieldTypes; t++ {
		fc := cfg.forType(t)
		c.fields[t] = field.New(Size, Size, fc.MaxValue, fc.Diffuse, fc.Decay)
		c.fields[t].GrowthRate = fc.GrowthRate
		c.fields[t].Carrying = fc.Carrying
	}
}

// releaseFields drops all field memory, returning the chunk's footprint
// to zero until it is reactivated.
func (c *Chunk) releaseFields() {
	for t := range c.fields {
		c.fields[t] = nil
	}
}

// activate transitions Dormant -> Active, allocating field memory. It is
// idempotent: calling it on an Active or Hyper chunk is a no-op.
func (c *Chunk) activate(cfg FieldConfig) {
	if c.state != Dormant {
		return
	}
	c.allocateFields(cfg)
	c.state = Active
}

// setHyper promotes Active -> Hyper so growth runs on this chunk's slow
// slot. No-op if Dormant (activate first) or already Hyper.
func (c *Chunk) setHyper() {
	if c.state == Active {
		c.state = Hyper
	}
}

// sleep transitions back to Dormant, releasing field memory.
func (c *Chunk) sleep() {
	if c.state == Dormant {
		return
	}
	c.releaseFields()
	c.state = Dormant
}

// step runs diffuseDecayStep on every field, and growthStep on food and
// trees if this chunk is Hyper.
func (c *Chunk) step() {
	if c.state == Dormant {
		return
	}
	for t := FieldType(0); t < numFieldTypes; t++ {
		c.fields[t].DiffuseDecayStep()
	}
	if c.state == Hyper {
		c.fields[Food].GrowthStep()
		c.fields[Trees].GrowthStep()
	}
}
