// Package economy implements the resource transport and reaction layer
// that runs above the chunk field grids: semi-Lagrangian advection driven
// by a demand gradient, and a data-driven reaction rule table.
package economy

// Advector transports a resource grid by a velocity field using a
// semi-Lagrangian back-trace, grounded on the bilinear grid sampling the
// teacher's particle-based resource system uses for mass splatting, here
// applied in reverse (gather, not scatter) so the result is unconditionally
// stable regardless of velocity magnitude.
type Advector struct {
	MaxFlow   float32
	Viscosity float32

	VX, VY []float32 // per-cell velocity, row-major W*H
	W, H   int
}

// NewAdvector allocates a zero-velocity advector over a W x H grid.
func NewAdvector(w, h int, maxFlow, viscosity float32) *Advector {
	return &Advector{
		MaxFlow:   maxFlow,
		Viscosity: viscosity,
		VX:        make([]float32, w*h),
		VY:        make([]float32, w*h),
		W:         w,
		H:         h,
	}
}

func clampf(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// UpdateVelocity blends the current velocity field with the demand
// gradient scaled by s: v <- v*mu + (grad*s)*(1-mu), then clamps each
// component to +-MaxFlow.
func (a *Advector) UpdateVelocity(gradX, gradY []float32, s float32) {
	mu := a.Viscosity
	for i := range a.VX {
		a.VX[i] = a.VX[i]*mu + gradX[i]*s*(1-mu)
		a.VY[i] = a.VY[i]*mu + gradY[i]*s*(1-mu)
		a.VX[i] = clampf(a.VX[i], -a.MaxFlow, a.MaxFlow)
		a.VY[i] = clampf(a.VY[i], -a.MaxFlow, a.MaxFlow)
	}
}

// sampleBilinear reads src at continuous coordinates (x, y), clamping the
// source coordinate into [0, w-1.001] x [0, h-1.001] first as the
// back-trace requires.
func sampleBilinear(src []float32, w, h int, x, y float32) float32 {
	x = clampf(x, 0, float32(w)-1.001)
	y = clampf(y, 0, float32(h)-1.001)

	x0 := int(x)
	y0 := int(y)
	x1 := x0 + 1
	y1 := y0 + 1
	if x1 >= w {
		x1 = w - 1
	}
	if y1 >= h {
		y1 = h - 1
	}

	fx := x - float32(x0)
	fy := y - float32(y0)

	i00 := y0*w + x0
	i10 := y0*w + x1
	i01 := y1*w + x0
	i11 := y1*w + x1

	top := src[i00] + (src[i10]-src[i00])*fx
	bottom := src[i01] + (src[i11]-src[i01])*fx
	return top + (bottom-top)*fy
}

// Step advects src into dst over one tick of length dt, back-tracing each
// destination cell to its source position through the current velocity
// field. dst must be pre-sized len(src); it is fully overwritten.
func (a *Advector) Step(src, dst []float32, dt float32) {
	for y := 0; y < a.H; y++ {
		for x := 0; x < a.W; x++ {
			i := y*a.W + x
			srcX := float32(x) - dt*a.VX[i]
			srcY := float32(y) - dt*a.VY[i]
			dst[i] = sampleBilinear(src, a.W, a.H, srcX, srcY)
		}
	}
}
