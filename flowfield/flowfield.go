// Package flowfield computes multi-source distance fields over a
// resolution-reduced grid via breadth-first search (not A*: a flow field
// serves many simultaneous seekers converging on a shared set of targets,
// so one BFS amortizes across all of them instead of one search per
// seeker), then derives unit-length gradients for steering.
package flowfield

import "math"

// CellSize is the world-space edge length of one flow-field cell, matching
// the navigation-grid coarsening idiom used elsewhere in this tree.
const CellSize float32 = 16

// unreached marks a cell the BFS never visited (unreachable from every
// source, or blocked).
const unreached = -1

// Field holds a resolution-reduced distance grid and its derived unit
// gradients.
type Field struct {
	W, H int

	dist   []int32
	gradX  []float32
	gradY  []float32
	blocked []bool

	lastBuildTick int64
	dirty         bool
}

// New allocates a W×H flow field, all cells initially unreached.
func New(w, h int) *Field {
	f := &Field{
		W:       w,
		H:       h,
		dist:    make([]int32, w*h),
		gradX:   make([]float32, w*h),
		gradY:   make([]float32, w*h),
		blocked: make([]bool, w*h),
		dirty:   true,
	}
	for i := range f.dist {
		f.dist[i] = unreached
	}
	return f
}

func (f *Field) inBounds(x, y int) bool {
	return x >= 0 && x < f.W && y >= 0 && y < f.H
}

func (f *Field) idx(x, y int) int { return y*f.W + x }

// SetBlocked marks or clears a cell as impassable to the BFS and
// invalidates the field so the next Build recomputes it.
func (f *Field) SetBlocked(x, y int, blocked bool) {
	if !f.inBounds(x, y) {
		return
	}
	f.blocked[f.idx(x, y)] = blocked
	f.dirty = true
}

// Invalidate marks the field for rebuild on the next eligible Build call.
func (f *Field) Invalidate() { f.dirty = true }

// Dirty reports whether the field needs a rebuild.
func (f *Field) Dirty() bool { return f.dirty }

// WorldToGrid converts world coordinates to this field's grid coordinates.
func WorldToGrid(x, y float32) (gx, gy int) {
	return int(x / CellSize), int(y / CellSize)
}

// GridToWorld returns the world-space center of a grid cell.
func GridToWorld(gx, gy int) (x, y float32) {
	return (float32(gx) + 0.5) * CellSize, (float32(gy) + 0.5) * CellSize
}

type queueItem struct{ x, y int }

// Build runs a multi-source BFS from the given seed cells, filling the
// distance grid and its central-difference unit gradients. minRebuildTicks
// rate-limits rebuilds: Build is a no-op (returning false) if the field is
// not dirty and fewer than minRebuildTicks have passed since the last
// build that actually ran.
func (f *Field) Build(tick int64, sources []Seed, minRebuildTicks int64) bool {
	if !f.dirty && tick-f.lastBuildTick < minRebuildTicks {
		return false
	}

	for i := range f.dist {
		f.dist[i] = unreached
	}

	queue := make([]queueItem, 0, len(sources))
	for _, s := range sources {
		if !f.inBounds(s.X, s.Y) || f.blocked[f.idx(s.X, s.Y)] {
			continue
		}
		i := f.idx(s.X, s.Y)
		if f.dist[i] == unreached {
			f.dist[i] = 0
			queue = append(queue, queueItem{s.X, s.Y})
		}
	}

	offsets := [4][2]int{{1, 0}, {-1, 0}, {0, 1}, {0, -1}}
	for head := 0; head < len(queue); head++ {
		cur := queue[head]
		curDist := f.dist[f.idx(cur.x, cur.y)]
		for _, off := range offsets {
			nx, ny := cur.x+off[0], cur.y+off[1]
			if !f.inBounds(nx, ny) || f.blocked[f.idx(nx, ny)] {
				continue
			}
			ni := f.idx(nx, ny)
			if f.dist[ni] != unreached {
				continue
			}
			f.dist[ni] = curDist + 1
			queue = append(queue, queueItem{nx, ny})
		}
	}

	f.computeGradients()
	f.dirty = false
	f.lastBuildTick = tick
	return true
}

// Seed names a BFS seed cell; kept distinct from the internal
// queueItem so callers never need to know the search's internal state.
type Seed struct{ X, Y int }

// Source builds a Seed for a seed cell.
func Source(x, y int) Seed { return Seed{X: x, Y: y} }

func (f *Field) distAt(x, y int) float32 {
	if !f.inBounds(x, y) {
		return float32(len(f.dist)) // treat out-of-bounds as maximally far
	}
	d := f.dist[f.idx(x, y)]
	if d == unreached {
		return float32(len(f.dist))
	}
	return float32(d)
}

func (f *Field) computeGradients() {
	for y := 0; y < f.H; y++ {
		for x := 0; x < f.W; x++ {
			i := f.idx(x, y)
			dxv := f.distAt(x+1, y) - f.distAt(x-1, y)
			dyv := f.distAt(x, y+1) - f.distAt(x, y-1)
			gx, gy := -dxv, -dyv // gradient points toward decreasing distance
			mag := sqrt32(gx*gx + gy*gy)
			if mag > 1e-6 {
				gx /= mag
				gy /= mag
			} else {
				gx, gy = 0, 0
			}
			f.gradX[i] = gx
			f.gradY[i] = gy
		}
	}
}

func sqrt32(v float32) float32 {
	if v <= 0 {
		return 0
	}
	return float32(math.Sqrt(float64(v)))
}

// DistanceAt returns the raw BFS distance (in cells) at a grid cell, or
// the sentinel "maximally far" value if unreached.
func (f *Field) DistanceAt(gx, gy int) float32 { return f.distAt(gx, gy) }

// GetAtInterpolated bilinearly samples the unit-gradient field at a world
// position, clamping the source coordinate into the grid's interior.
func (f *Field) GetAtInterpolated(worldX, worldY float32) (gx, gy float32) {
	fx := worldX/CellSize - 0.5
	fy := worldY/CellSize - 0.5

	maxX := float32(f.W) - 1.001
	maxY := float32(f.H) - 1.001
	if fx < 0 {
		fx = 0
	} else if fx > maxX {
		fx = maxX
	}
	if fy < 0 {
		fy = 0
	} else if fy > maxY {
		fy = maxY
	}

	x0, y0 := int(fx), int(fy)
	x1, y1 := x0+1, y0+1
	if x1 >= f.W {
		x1 = f.W - 1
	}
	if y1 >= f.H {
		y1 = f.H - 1
	}
	tx, ty := fx-float32(x0), fy-float32(y0)

	lerp := func(a, b, t float32) float32 { return a + (b-a)*t }

	gx00, gy00 := f.gradX[f.idx(x0, y0)], f.gradY[f.idx(x0, y0)]
	gx10, gy10 := f.gradX[f.idx(x1, y0)], f.gradY[f.idx(x1, y0)]
	gx01, gy01 := f.gradX[f.idx(x0, y1)], f.gradY[f.idx(x0, y1)]
	gx11, gy11 := f.gradX[f.idx(x1, y1)], f.gradY[f.idx(x1, y1)]

	gx = lerp(lerp(gx00, gx10, tx), lerp(gx01, gx11, tx), ty)
	gy = lerp(lerp(gy00, gy10, tx), lerp(gy01, gy11, tx), ty)
	return gx, gy
}
