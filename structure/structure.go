// Package structure owns Structures (built by particles, never owned by
// them) and detects Communities from the chunk population field's density
// peaks. Both reference particles only by id, never by lifetime-coupled
// pointer, per the engine's ownership rule.
package structure

import "github.com/google/uuid"

// Structure is a built artifact at a fixed world position.
type Structure struct {
	ID          uuid.UUID
	Type        string
	X, Y        float32
	Level       int // 1..3, monotonically increasing
	Health      float32
	CreatedTick int64
	LastUsed    int64
	Builders    []uint64 // particle ids, by reference only
	Owner       *uint64  // particle id, by reference only; nil if unowned
}

// Store is a CRUD table over Structures keyed by id.
type Store struct {
	byID map[uuid.UUID]*Structure
}

// NewStore builds an empty structure store.
func NewStore() *Store {
	return &Store{byID: make(map[uuid.UUID]*Structure)}
}

// Create adds a new structure at level 1, health 1, with the given
// builder and creation tick, and returns it.
func (s *Store) Create(typ string, x, y float32, builder uint64, tick int64) *Structure {
	st := &Structure{
		ID:          uuid.New(),
		Type:        typ,
		X:           x,
		Y:           y,
		Level:       1,
		Health:      1,
		CreatedTick: tick,
		LastUsed:    tick,
		Builders:    []uint64{builder},
	}
	s.byID[st.ID] = st
	return st
}

// Get returns a structure by id.
func (s *Store) Get(id uuid.UUID) (*Structure, bool) {
	st, ok := s.byID[id]
	return st, ok
}

// All returns every live structure. Order is unspecified.
func (s *Store) All() []*Structure {
	out := make([]*Structure, 0, len(s.byID))
	for _, st := range s.byID {
		out = append(out, st)
	}
	return out
}

// Count returns the number of live structures.
func (s *Store) Count() int { return len(s.byID) }

// Upgrade raises a structure's level by one, up to the maximum of 3. It is
// a no-op if the structure is already at the maximum or does not exist.
func (s *Store) Upgrade(id uuid.UUID, tick int64) bool {
	st, ok := s.byID[id]
	if !ok || st.Level >= 3 {
		return false
	}
	st.Level++
	st.LastUsed = tick
	return true
}

// Damage reduces health by delta, clamped to [0, 1], destroying (removing)
// the structure if health reaches zero. Returns true if the structure was
// destroyed by this call.
func (s *Store) Damage(id uuid.UUID, delta float32) bool {
	st, ok := s.byID[id]
	if !ok {
		return false
	}
	st.Health -= delta
	if st.Health > 1 {
		st.Health = 1
	}
	if st.Health <= 0 {
		delete(s.byID, id)
		return true
	}
	return false
}

// AddBuilder records another particle id as having contributed to a
// structure's construction.
func (s *Store) AddBuilder(id uuid.UUID, particleID uint64) {
	st, ok := s.byID[id]
	if !ok {
		return
	}
	st.Builders = append(st.Builders, particleID)
}

// SetOwner assigns an owning particle id by reference. Passing nil clears
// ownership.
func (s *Store) SetOwner(id uuid.UUID, particleID *uint64) {
	st, ok := s.byID[id]
	if !ok {
		return
	}
	st.Owner = particleID
}

// Remove deletes a structure outright, final and irreversible.
func (s *Store) Remove(id uuid.UUID) {
	delete(s.byID, id)
}
