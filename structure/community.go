package structure

// Community is an aggregated settlement entity derived from clustered
// particle density, not owned or referenced by any particle.
type Community struct {
	ID          uint64
	CX, CY      float32
	Radius      float32
	Population  int
	Signature   [4]float32 // dominant genetic signature, one channel per seed byte
	Members     []uint64   // particle ids, by reference only
	FoundedTick int64
	Age         int64
}

// ParticleSample is the minimal per-particle data the detector needs to
// assign membership and compute a community's genetic signature.
type ParticleSample struct {
	ID   uint64
	X, Y float32
	Seed uint32
}

// DensityGrid is a row-major population sample grid in world space, built
// by the caller from the chunk population field.
type DensityGrid struct {
	W, H             int
	OriginX, OriginY float32
	CellSize         float32
	Values           []float32
}

func (g *DensityGrid) at(x, y int) float32 {
	if x < 0 || x >= g.W || y < 0 || y >= g.H {
		return 0
	}
	return g.Values[y*g.W+x]
}

func (g *DensityGrid) worldOf(x, y int) (float32, float32) {
	return g.OriginX + (float32(x)+0.5)*g.CellSize, g.OriginY + (float32(y)+0.5)*g.CellSize
}

type peakCell struct {
	x, y  int
	value float32
}

// peaks returns grid cells whose value is >= every in-bounds Moore
// neighbor's value and at least minPopulation.
func (g *DensityGrid) peaks(minPopulation float32) []peakCell {
	var out []peakCell
	for y := 0; y < g.H; y++ {
		for x := 0; x < g.W; x++ {
			v := g.at(x, y)
			if v < minPopulation {
				continue
			}
			isPeak := true
			for dy := -1; dy <= 1 && isPeak; dy++ {
				for dx := -1; dx <= 1; dx++ {
					if dx == 0 && dy == 0 {
						continue
					}
					if g.at(x+dx, y+dy) > v {
						isPeak = false
						break
					}
				}
			}
			if isPeak {
				out = append(out, peakCell{x, y, v})
			}
		}
	}
	return out
}

// CommunityDetector re-derives Community records from population-density
// peaks each time Detect runs. It owns no particle or chunk state itself;
// the caller supplies a fresh density grid and particle list every pass,
// matching the SLOW scheduler cadence the engine runs it on.
type CommunityDetector struct {
	MinPopulation float32 // admission threshold
	ClusterRadius float32 // world-space radius defining membership and matching

	communities map[uint64]*Community
	nextID      uint64
}

// NewCommunityDetector builds a detector with no communities yet admitted.
func NewCommunityDetector(minPopulation, clusterRadius float32) *CommunityDetector {
	return &CommunityDetector{
		MinPopulation: minPopulation,
		ClusterRadius: clusterRadius,
		communities:   make(map[uint64]*Community),
	}
}

func distSq(ax, ay, bx, by float32) float32 {
	dx, dy := ax-bx, ay-by
	return dx*dx + dy*dy
}

func membersNear(particles []ParticleSample, cx, cy, radius float32) []ParticleSample {
	r2 := radius * radius
	var out []ParticleSample
	for _, p := range particles {
		if distSq(p.X, p.Y, cx, cy) <= r2 {
			out = append(out, p)
		}
	}
	return out
}

func centroidOf(members []ParticleSample) (cx, cy float32) {
	if len(members) == 0 {
		return 0, 0
	}
	for _, m := range members {
		cx += m.X
		cy += m.Y
	}
	n := float32(len(members))
	return cx / n, cy / n
}

func signatureOf(members []ParticleSample) [4]float32 {
	var sig [4]float32
	if len(members) == 0 {
		return sig
	}
	for _, m := range members {
		sig[0] += float32(m.Seed & 0xFF)
		sig[1] += float32((m.Seed >> 8) & 0xFF)
		sig[2] += float32((m.Seed >> 16) & 0xFF)
		sig[3] += float32((m.Seed >> 24) & 0xFF)
	}
	n := float32(len(members))
	for i := range sig {
		sig[i] = sig[i] / n / 255
	}
	return sig
}

func memberIDs(members []ParticleSample) []uint64 {
	ids := make([]uint64, len(members))
	for i, m := range members {
		ids[i] = m.ID
	}
	return ids
}

// Detect runs one detection pass: existing communities are re-measured
// around their current centroid and either updated or decayed-and-removed
// below half the admission threshold; any density peak not already
// claimed by an existing community within ClusterRadius admits a new one.
func (d *CommunityDetector) Detect(tick int64, grid *DensityGrid, particles []ParticleSample) []*Community {
	for id, c := range d.communities {
		members := membersNear(particles, c.CX, c.CY, d.ClusterRadius)
		if float32(len(members)) < d.MinPopulation/2 {
			delete(d.communities, id)
			continue
		}
		c.CX, c.CY = centroidOf(members)
		c.Population = len(members)
		c.Signature = signatureOf(members)
		c.Members = memberIDs(members)
		c.Age = tick - c.FoundedTick
	}

	for _, pk := range grid.peaks(d.MinPopulation) {
		px, py := grid.worldOf(pk.x, pk.y)
		claimed := false
		for _, c := range d.communities {
			if distSq(px, py, c.CX, c.CY) <= d.ClusterRadius*d.ClusterRadius {
				claimed = true
				break
			}
		}
		if claimed {
			continue
		}
		members := membersNear(particles, px, py, d.ClusterRadius)
		if float32(len(members)) < d.MinPopulation {
			continue
		}
		d.nextID++
		cx, cy := centroidOf(members)
		d.communities[d.nextID] = &Community{
			ID:          d.nextID,
			CX:          cx,
			CY:          cy,
			Radius:      d.ClusterRadius,
			Population:  len(members),
			Signature:   signatureOf(members),
			Members:     memberIDs(members),
			FoundedTick: tick,
			Age:         0,
		}
	}

	out := make([]*Community, 0, len(d.communities))
	for _, c := range d.communities {
		out = append(out, c)
	}
	return out
}

// All returns every currently live community. Order is unspecified.
func (d *CommunityDetector) All() []*Community {
	out := make([]*Community, 0, len(d.communities))
	for _, c := range d.communities {
		out = append(out, c)
	}
	return out
}
