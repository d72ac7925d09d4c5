package worldgen

import "testing"

func TestTerrainChannelsInRange(t *testing.T) {
	g := New(42)
	for _, p := range [][2]int{{0, 0}, {1000, -500}, {-3000, 7000}} {
		temp, moist, elev, cont := g.Terrain(p[0], p[1])
		for _, v := range []float32{temp, moist, elev, cont} {
			if v < 0 || v > 1 {
				t.Fatalf("terrain channel out of [0,1]: %f at %v", v, p)
			}
		}
	}
}

func TestTerrainDeterministic(t *testing.T) {
	a := New(7)
	b := New(7)
	t1, m1, e1, c1 := a.Terrain(120, 340)
	t2, m2, e2, c2 := b.Terrain(120, 340)
	if t1 != t2 || m1 != m2 || e1 != e2 || c1 != c2 {
		t.Fatalf("expected identical terrain for identical seeds")
	}
}

func TestRiverValueInRange(t *testing.T) {
	g := New(1)
	v := g.RiverValue(512, -256)
	if v < 0 || v > 1 {
		t.Fatalf("river value out of [0,1]: %f", v)
	}
}
