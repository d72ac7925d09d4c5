package biome

import "testing"

func TestResolveIsTotal(t *testing.T) {
	// Every valid (t, m, e, c) must yield a defined biome; sweep a coarse
	// grid across the domain.
	for ti := 0; ti <= 10; ti++ {
		for mi := 0; mi <= 10; mi++ {
			for ei := 0; ei <= 10; ei++ {
				for ci := 0; ci <= 10; ci++ {
					temp := float32(ti) / 10
					moist := float32(mi) / 10
					elev := float32(ei) / 10
					cont := float32(ci) / 10
					b := Resolve(temp, moist, elev, cont)
					if int(b) >= len(names) {
						t.Fatalf("undefined biome for (%f,%f,%f,%f): %v", temp, moist, elev, cont, b)
					}
				}
			}
		}
	}
}

func TestResolveDeterministic(t *testing.T) {
	a := Resolve(0.5, 0.4, 0.3, 0.6)
	b := Resolve(0.5, 0.4, 0.3, 0.6)
	if a != b {
		t.Fatalf("expected deterministic resolve, got %v vs %v", a, b)
	}
}

func TestResolveOceanBelowSeaLevel(t *testing.T) {
	if b := Resolve(0.5, 0.5, 0.0, 0.5); b != Ocean {
		t.Errorf("expected Ocean at elevation 0, got %v", b)
	}
}

func TestResolveMountainAtHighElevation(t *testing.T) {
	b := Resolve(0.3, 0.3, 0.95, 0.5)
	if b != Mountain && b != Snow {
		t.Errorf("expected Mountain or Snow at high elevation, got %v", b)
	}
}
