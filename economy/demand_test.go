package economy

import "testing"

func TestRawDemandClampedToUnitRange(t *testing.T) {
	d := NewDemandField(2, 2, 1.0, 5.0, 0.01, 0.5)
	v := d.rawDemand(100, 0) // huge population, no resource: should clamp to 1
	if v != 1 {
		t.Errorf("expected demand clamped to 1, got %v", v)
	}
	v = d.rawDemand(0, 0) // no population: zero demand
	if v != 0 {
		t.Errorf("expected zero population to yield zero demand, got %v", v)
	}
}

func TestDemandUpdateProducesSymmetricGradientAtPeak(t *testing.T) {
	const w, h = 5, 5
	pop := make([]float32, w*h)
	res := make([]float32, w*h)
	pop[2*w+2] = 10 // single population spike at center

	d := NewDemandField(w, h, 1.0, 1.0, 0.01, 1.0)
	d.Update(pop, res)
	d.Update(pop, res)

	// at the exact peak, symmetric neighbors should pull the gradient near zero
	gx := d.GradX()[2*w+2]
	gy := d.GradY()[2*w+2]
	if abs32(gx) > 1e-5 || abs32(gy) > 1e-5 {
		t.Errorf("expected near-zero gradient at a symmetric peak, got gx=%v gy=%v", gx, gy)
	}
}

func TestDemandValuesStayWithinUnitRange(t *testing.T) {
	const w, h = 4, 4
	pop := make([]float32, w*h)
	res := make([]float32, w*h)
	for i := range pop {
		pop[i] = 5
	}
	d := NewDemandField(w, h, 2.0, 3.0, 0.01, 0.3)
	for i := 0; i < 10; i++ {
		d.Update(pop, res)
	}
	for i, v := range d.Values() {
		if v < 0 || v > 1 {
			t.Errorf("expected demand[%d] in [0,1], got %v", i, v)
		}
	}
}
