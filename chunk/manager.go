package chunk

import (
	"fmt"
	"log/slog"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/pthm-cable/terrarium/biome"
	"github.com/pthm-cable/terrarium/worldgen"
)

// Viewport describes a client's requested view into the world, in world
// coordinates, used to decide which chunks must stay paged in.
type Viewport struct {
	CenterX, CenterY float32
	W, H             float32
	Zoom             float32
}

// bounds returns the world-space rectangle this viewport covers.
func (v Viewport) bounds() (minX, minY, maxX, maxY float32) {
	zoom := v.Zoom
	if zoom <= 0 {
		zoom = 1
	}
	halfW := v.W / (2 * zoom)
	halfH := v.H / (2 * zoom)
	return v.CenterX - halfW, v.CenterY - halfH, v.CenterX + halfW, v.CenterY + halfH
}

// Position is the minimal particle-position shape ChunkManager needs for
// updateFromParticles; agent.Engine.Positions builds these from its live
// particles.
type Position struct {
	X, Y  float32
	Alive bool
}

func key(cx, cy int) string {
	return fmt.Sprintf("%d,%d", cx, cy)
}

func worldToChunk(worldX, worldY float32) (int, int) {
	return floorDiv(int(floorf(worldX)), Size), floorDiv(int(floorf(worldY)), Size)
}

func floorf(v float32) float32 {
	i := int(v)
	if v < 0 && float32(i) != v {
		i--
	}
	return float32(i)
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

// Manager is the keyed map of chunks: it owns every chunk, pages them in
// on demand, and evicts on a hard cap with age-ordered eviction.
type Manager struct {
	chunks map[string]*Chunk

	Gen *worldgen.Generator

	FieldCfg FieldConfig

	MaxCachedChunks int
	SleepTimeout    int64 // ticks
	ActivationRadiusChunks int

	tick int64

	// activeChunks mirrors the non-Dormant subset, maintained in lockstep
	// with every state transition.
	activeChunks map[string]*Chunk
}

// New builds an empty Manager.
func New(gen *worldgen.Generator, maxCached int, sleepTimeout int64) *Manager {
	return &Manager{
		chunks:                 make(map[string]*Chunk),
		activeChunks:           make(map[string]*Chunk),
		Gen:                    gen,
		FieldCfg:               DefaultFieldConfig(),
		MaxCachedChunks:        maxCached,
		SleepTimeout:           sleepTimeout,
		ActivationRadiusChunks: 1,
	}
}

// SetTick records the current world tick; used for lastAccessed bookkeeping
// and sleep-timeout comparisons. The engine calls this once per tick
// before any paging operation.
func (m *Manager) SetTick(tick int64) { m.tick = tick }

// Count returns the number of chunks currently tracked (any state).
func (m *Manager) Count() int { return len(m.chunks) }

// getOrCreateChunk returns the chunk at (cx, cy), creating a Dormant
// placeholder if absent, and bumps lastAccessed.
func (m *Manager) getOrCreateChunk(cx, cy int) *Chunk {
	k := key(cx, cy)
	c, ok := m.chunks[k]
	if !ok {
		c = newChunk(cx, cy)
		m.chunks[k] = c
	}
	c.LastAccessed = m.tick
	return c
}

// EnsureChunkActive activates and generates terrain for (cx, cy) if
// Dormant; idempotent. Returns true if this call generated the chunk.
func (m *Manager) EnsureChunkActive(cx, cy int) (chunk *Chunk, generated bool) {
	c := m.getOrCreateChunk(cx, cy)
	if c.state == Dormant {
		c.activate(m.FieldCfg)
		m.activeChunks[key(cx, cy)] = c
		if !c.Generated {
			m.generateTerrain(c)
			c.Generated = true
			generated = true
		}
	}
	return c, generated
}

// UpdateFromViewport computes the chunk rectangle covering the viewport
// plus a one-chunk border, activates any Dormant chunks in it, and
// returns the chunks newly generated by this call.
func (m *Manager) UpdateFromViewport(v Viewport) []*Chunk {
	minX, minY, maxX, maxY := v.bounds()
	// Inset the corners by one chunk before converting, so the
	// expansion below applies the border exactly once: without the
	// inset, worldToChunk on the raw bounds can already land on the
	// post-border rectangle for viewports whose edges sit on a chunk
	// boundary, and the unconditional expansion would double it.
	minCX, minCY := worldToChunk(minX+Size, minY+Size)
	maxCX, maxCY := worldToChunk(maxX-Size, maxY-Size)

	minCX--
	minCY--
	maxCX++
	maxCY++

	var toGenerate []*Chunk
	for cy := minCY; cy <= maxCY; cy++ {
		for cx := minCX; cx <= maxCX; cx++ {
			c := m.getOrCreateChunk(cx, cy)
			if c.state == Dormant {
				c.activate(m.FieldCfg)
				m.activeChunks[key(cx, cy)] = c
				toGenerate = append(toGenerate, c)
			}
		}
	}
	m.generateTerrainBatch(toGenerate)
	return toGenerate
}

// UpdateFromParticles activates the chunk and 8 Moore neighbors of every
// alive particle position, returning newly generated chunks.
func (m *Manager) UpdateFromParticles(positions []Position) []*Chunk {
	seen := make(map[string]bool)
	var toGenerate []*Chunk
	for _, p := range positions {
		if !p.Alive {
			continue
		}
		cx, cy := worldToChunk(p.X, p.Y)
		for dy := -1; dy <= 1; dy++ {
			for dx := -1; dx <= 1; dx++ {
				ncx, ncy := cx+dx, cy+dy
				k := key(ncx, ncy)
				if seen[k] {
					continue
				}
				seen[k] = true
				c := m.getOrCreateChunk(ncx, ncy)
				if c.state == Dormant {
					c.activate(m.FieldCfg)
					m.activeChunks[k] = c
					toGenerate = append(toGenerate, c)
				}
			}
		}
	}
	m.generateTerrainBatch(toGenerate)
	return toGenerate
}

// generateTerrainBatch fans terrain generation for disjoint chunks out
// across goroutines, joining before returning — each goroutine owns one
// chunk's memory exclusively, so this never violates the single-writer
// tick discipline.
func (m *Manager) generateTerrainBatch(chunks []*Chunk) {
	if len(chunks) == 0 {
		return
	}
	var g errgroup.Group
	for _, c := range chunks {
		c := c
		g.Go(func() error {
			m.generateTerrain(c)
			c.Generated = true
			return nil
		})
	}
	_ = g.Wait() // generateTerrain never errors; fan-out is pure compute
}

// generateTerrain fills one chunk's biome map and seeds its resource
// fields from the four noise channels plus the river-carving pass.
func (m *Manager) generateTerrain(c *Chunk) {
	originX, originY := c.WorldOrigin()
	biomeMap := make([]biome.Biome, Size*Size)

	for ly := 0; ly < Size; ly++ {
		for lx := 0; lx < Size; lx++ {
			wx, wy := originX+lx, originY+ly
			temp, moist, elev, cont := m.Gen.Terrain(wx, wy)
			b := biome.Resolve(temp, moist, elev, cont)

			river := m.Gen.RiverValue(wx, wy)
			if river > 0.93 && elev > 0.3 && elev < 0.7 && b != biome.Ocean {
				b = biome.Lake
			}
			biomeMap[ly*Size+lx] = b

			foodMul := b.FoodMultiplier()
			foodNoise := m.Gen.FoodNoise(wx, wy)
			c.fields[Food].Set(lx, ly, foodNoise*foodMul)

			if !b.Walkable() {
				c.fields[Water].Set(lx, ly, 1.0)
			} else {
				waterNoise := m.Gen.WaterNoise(wx, wy)
				c.fields[Water].Set(lx, ly, waterNoise*0.15)
			}

			treeNoise := m.Gen.TreeNoise(wx, wy)
			if treeNoise > 1-b.TreeDensity() {
				c.fields[Trees].Set(lx, ly, 1.0)
			}

			stoneNoise := m.Gen.StoneNoise(wx, wy)
			localWater := c.fields[Water].Get(lx, ly)
			if stoneNoise > 0.7 && localWater < 0.3 {
				c.fields[Stone].Set(lx, ly, 1.0)
			}
		}
	}
	c.biomeMap = biomeMap
}

// Cleanup evicts the oldest-accessed chunks when the total exceeds
// MaxCachedChunks, then sleeps any chunk whose lastAccessed age exceeds
// SleepTimeout. Eviction is strictly age-ordered, never random.
func (m *Manager) Cleanup() {
	if m.MaxCachedChunks > 0 && len(m.chunks) > m.MaxCachedChunks {
		type entry struct {
			k string
			c *Chunk
		}
		all := make([]entry, 0, len(m.chunks))
		for k, c := range m.chunks {
			all = append(all, entry{k, c})
		}
		sort.Slice(all, func(i, j int) bool {
			return all[i].c.LastAccessed < all[j].c.LastAccessed
		})
		excess := len(m.chunks) - m.MaxCachedChunks
		for i := 0; i < excess; i++ {
			e := all[i]
			e.c.sleep()
			delete(m.activeChunks, e.k)
			delete(m.chunks, e.k)
		}
	}

	if m.SleepTimeout > 0 {
		for k, c := range m.chunks {
			if c.state == Dormant {
				continue
			}
			if m.tick-c.LastAccessed > m.SleepTimeout {
				c.sleep()
				delete(m.activeChunks, k)
			}
		}
	}
}

// Step iterates the active set in (cy, cx) order, running
// diffuseDecayStep on every field; growthStep only runs on Hyper chunks.
func (m *Manager) Step() {
	ordered := m.activeSorted()
	for _, c := range ordered {
		c.step()
	}
}

// ActiveChunks returns every non-Dormant chunk, sorted by (cy, cx) per
// the mandatory chunk-iteration order.
func (m *Manager) ActiveChunks() []*Chunk {
	return m.activeSorted()
}

func (m *Manager) activeSorted() []*Chunk {
	out := make([]*Chunk, 0, len(m.activeChunks))
	for _, c := range m.activeChunks {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CY != out[j].CY {
			return out[i].CY < out[j].CY
		}
		return out[i].CX < out[j].CX
	})
	return out
}

// GetValue routes a world-coordinate read to the owning chunk. Reads from
// a Dormant chunk (or one that has never been referenced) return 0.
func (m *Manager) GetValue(t FieldType, worldX, worldY float32) float32 {
	cx, cy := worldToChunk(worldX, worldY)
	c, ok := m.chunks[key(cx, cy)]
	if !ok || c.state == Dormant {
		return 0
	}
	originX, originY := c.WorldOrigin()
	lx := int(floorf(worldX)) - originX
	ly := int(floorf(worldY)) - originY
	return c.fields[t].Get(lx, ly)
}

// SetValue routes a world-coordinate write to the owning chunk, activating
// it on demand.
func (m *Manager) SetValue(t FieldType, worldX, worldY float32, v float32) {
	cx, cy := worldToChunk(worldX, worldY)
	c, generated := m.EnsureChunkActive(cx, cy)
	_ = generated
	originX, originY := c.WorldOrigin()
	lx := int(floorf(worldX)) - originX
	ly := int(floorf(worldY)) - originY
	c.fields[t].Set(lx, ly, v)
}

// AddValue routes a world-coordinate add to the owning chunk, activating
// it on demand.
func (m *Manager) AddValue(t FieldType, worldX, worldY float32, delta float32) {
	cx, cy := worldToChunk(worldX, worldY)
	c, _ := m.EnsureChunkActive(cx, cy)
	originX, originY := c.WorldOrigin()
	lx := int(floorf(worldX)) - originX
	ly := int(floorf(worldY)) - originY
	c.fields[t].Add(lx, ly, delta)
}

// SetHyper promotes a chunk to Hyper when the manager deems the region
// high-priority (e.g. heavy particle occupancy).
func (m *Manager) SetHyper(cx, cy int) {
	if c, ok := m.chunks[key(cx, cy)]; ok {
		c.setHyper()
	}
}

// ChunkAt returns the chunk at (cx, cy) if it exists.
func (m *Manager) ChunkAt(cx, cy int) (*Chunk, bool) {
	c, ok := m.chunks[key(cx, cy)]
	return c, ok
}

// logf is a small convenience kept here so paging-related warnings share
// one log site and vocabulary.
func (m *Manager) logf(format string, args ...any) {
	slog.Warn(fmt.Sprintf(format, args...))
}
