// Package field implements the dense scalar grid that underlies every
// per-chunk resource, danger, trail, and population channel.
package field

// Field is a fixed W×H dense grid of float32 values with a scratch buffer
// for diffusion. It is owned exclusively by its enclosing chunk.
type Field struct {
	W, H int

	cur  []float32
	next []float32

	MaxValue float32
	Diffuse  float32 // δ ∈ [0,1]
	Decay    float32 // λ ∈ [0,1]

	GrowthRate float32 // r; zero disables logistic growth
	Carrying   float32 // K
}

// New allocates a Field of the given dimensions, zeroed.
func New(w, h int, maxValue, diffuse, decay float32) *Field {
	return &Field{
		W:        w,
		H:        h,
		cur:      make([]float32, w*h),
		next:     make([]float32, w*h),
		MaxValue: maxValue,
		Diffuse:  diffuse,
		Decay:    decay,
	}
}

func (f *Field) inBounds(x, y int) bool {
	return x >= 0 && x < f.W && y >= 0 && y < f.H
}

func clamp(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Get returns the value at (x, y), or 0 if out of bounds.
func (f *Field) Get(x, y int) float32 {
	if !f.inBounds(x, y) {
		return 0
	}
	return f.cur[y*f.W+x]
}

// Set writes v at (x, y), clamped to [0, MaxValue]. Out-of-bounds is a
// silent no-op.
func (f *Field) Set(x, y int, v float32) {
	if !f.inBounds(x, y) {
		return
	}
	f.cur[y*f.W+x] = clamp(v, 0, f.MaxValue)
}

// Add adds delta at (x, y), clamped to [0, MaxValue]. Out-of-bounds is a
// silent no-op.
func (f *Field) Add(x, y int, delta float32) {
	if !f.inBounds(x, y) {
		return
	}
	i := y*f.W + x
	f.cur[i] = clamp(f.cur[i]+delta, 0, f.MaxValue)
}

// Fill sets every cell to v (clamped).
func (f *Field) Fill(v float32) {
	v = clamp(v, 0, f.MaxValue)
	for i := range f.cur {
		f.cur[i] = v
	}
}

// GetSum returns the sum of all cells.
func (f *Field) GetSum() float32 {
	var sum float32
	for _, v := range f.cur {
		sum += v
	}
	return sum
}

// GetAverage returns the mean of all cells.
func (f *Field) GetAverage() float32 {
	if len(f.cur) == 0 {
		return 0
	}
	return f.GetSum() / float32(len(f.cur))
}

// GetMax returns the maximum cell value.
func (f *Field) GetMax() float32 {
	var m float32
	for _, v := range f.cur {
		if v > m {
			m = v
		}
	}
	return m
}

// Snapshot returns a copy of the current buffer.
func (f *Field) Snapshot() []float32 {
	out := make([]float32, len(f.cur))
	copy(out, f.cur)
	return out
}

// DiffuseDecayStep fuses one diffusion step and one decay step: for each
// cell, next gets the average of up to eight in-bounds Moore neighbors
// blended toward current by Diffuse, then multiplied by (1 - Decay). The
// buffers are swapped at the end; there is no re-swap between the two
// sub-steps.
func (f *Field) DiffuseDecayStep() {
	w, h := f.W, f.H
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := y*w + x
			var sum float32
			var n int
			for dy := -1; dy <= 1; dy++ {
				for dx := -1; dx <= 1; dx++ {
					if dx == 0 && dy == 0 {
						continue
					}
					nx, ny := x+dx, y+dy
					if f.inBounds(nx, ny) {
						sum += f.cur[ny*w+nx]
						n++
					}
				}
			}
			var avg float32
			if n > 0 {
				avg = sum / float32(n)
			}
			v := f.cur[i] + f.Diffuse*(avg-f.cur[i])
			v *= 1 - f.Decay
			f.next[i] = clamp(v, 0, f.MaxValue)
		}
	}
	f.cur, f.next = f.next, f.cur
}

// GrowthStep applies in-place logistic growth: v ← clamp(v + r·v·(1 -
// v/K), 0, MaxValue). No-op when GrowthRate is zero.
func (f *Field) GrowthStep() {
	if f.GrowthRate == 0 || f.Carrying == 0 {
		return
	}
	r, k := f.GrowthRate, f.Carrying
	for i, v := range f.cur {
		v = v + r*v*(1-v/k)
		f.cur[i] = clamp(v, 0, f.MaxValue)
	}
}

// lcgNoise is the linear-congruential generator specified for field
// initialization: x_{n+1} = (1103515245*x_n + 12345) mod 2^31.
type lcgNoise struct {
	state uint64
}

func newLCG(seed uint32) *lcgNoise {
	return &lcgNoise{state: uint64(seed)}
}

// next returns a uniform float in [0, 1).
func (l *lcgNoise) next() float32 {
	l.state = (1103515245*l.state + 12345) % (1 << 31)
	return float32(l.state) / float32(1<<31)
}

// InitNoise fills every cell with clamp(b + (u-0.5)*2a, 0, MaxValue), u
// drawn from a per-cell LCG sequence seeded from the field seed, then runs
// three relaxation sweeps of diffusion.
func (f *Field) InitNoise(base, amplitude float32, seed uint32) {
	rng := newLCG(seed)
	for i := range f.cur {
		u := rng.next()
		f.cur[i] = clamp(base+(u-0.5)*2*amplitude, 0, f.MaxValue)
	}
	savedDecay := f.Decay
	f.Decay = 0
	for i := 0; i < 3; i++ {
		f.DiffuseDecayStep()
	}
	f.Decay = savedDecay
}
