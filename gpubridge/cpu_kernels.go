package gpubridge

// diffuseDecayCPU is the fixed-reduction-order reference kernel: for each
// cell, the average of its in-bounds Moore neighbors is blended toward the
// current value by diffuse, then the result is scaled by (1 - decay). It
// must agree with field.Field.DiffuseDecayStep bit-for-bit given the same
// inputs, since that is the CPU path this package exists to accelerate.
func diffuseDecayCPU(in, out []float32, w, h int, diffuse, decay float32) {
	inBounds := func(x, y int) bool { return x >= 0 && x < w && y >= 0 && y < h }
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
					if inBounds(nx, ny) {
						sum += in[ny*w+nx]
						n++
					}
				}
			}
			var avg float32
			if n > 0 {
				avg = sum / float32(n)
			}
			v := in[i] + diffuse*(avg-in[i])
			out[i] = v * (1 - decay)
		}
	}
}

// advectCPU back-traces each cell along its velocity and bilinearly
// samples the source buffer, clamping the source coordinate into the
// interior so edge cells never read out of bounds.
func advectCPU(in, vx, vy, out []float32, w, h int, dt float32) {
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := y*w + x
			sx := float32(x) - dt*vx[i]
			sy := float32(y) - dt*vy[i]
			out[i] = sampleBilinearCPU(in, w, h, sx, sy)
		}
	}
}

func sampleBilinearCPU(src []float32, w, h int, x, y float32) float32 {
	maxX := float32(w) - 1.001
	maxY := float32(h) - 1.001
	if x < 0 {
		x = 0
	} else if x > maxX {
		x = maxX
	}
	if y < 0 {
		y = 0
	} else if y > maxY {
		y = maxY
	}

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

	v00 := src[y0*w+x0]
	v10 := src[y0*w+x1]
	v01 := src[y1*w+x0]
	v11 := src[y1*w+x1]

	top := v00 + (v10-v00)*fx
	bot := v01 + (v11-v01)*fx
	return top + (bot-top)*fy
}
