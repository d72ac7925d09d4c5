package lod

import "testing"

func TestRegionAtHandlesNegativeCoordinates(t *testing.T) {
	r := RegionAt(-1, -1)
	if r.RX != -1 || r.RY != -1 {
		t.Errorf("expected (-1,-1) world coord to floor into region (-1,-1), got %+v", r)
	}
	r2 := RegionAt(0, 0)
	if r2.RX != 0 || r2.RY != 0 {
		t.Errorf("expected origin to map to region (0,0), got %+v", r2)
	}
}

func TestReclassifyAssignsLevelsByDistance(t *testing.T) {
	m := NewManager(DefaultThresholds)
	focus := Focus{X: 0, Y: 0}
	near := RegionAt(100, 0)
	far := RegionAt(10000, 0)

	m.Reclassify([]Region{near, far}, []Focus{focus})

	if m.LevelOf(near) != High {
		t.Errorf("expected a nearby region to classify High, got %v", m.LevelOf(near))
	}
	if m.LevelOf(far) != Dormant {
		t.Errorf("expected a distant region to classify Dormant, got %v", m.LevelOf(far))
	}
}

func TestReclassifyReportsChangedRegionsOnly(t *testing.T) {
	m := NewManager(DefaultThresholds)
	focus := Focus{X: 0, Y: 0}
	region := RegionAt(100, 0)

	changed := m.Reclassify([]Region{region}, []Focus{focus})
	if len(changed) != 1 {
		t.Fatalf("expected the first classification to report a change, got %v", changed)
	}

	changed = m.Reclassify([]Region{region}, []Focus{focus})
	if len(changed) != 0 {
		t.Errorf("expected an unchanged classification to report no changes, got %v", changed)
	}
}

func TestShouldUpdateRespectsLevelPeriod(t *testing.T) {
	m := NewManager(DefaultThresholds)
	region := RegionAt(10000, 0) // classifies Dormant with no foci reclassified -> defaults Dormant
	m.Reclassify([]Region{region}, nil)
	if m.LevelOf(region) != Dormant {
		t.Fatalf("expected a region with no foci to classify Dormant, got %v", m.LevelOf(region))
	}

	if !m.ShouldUpdate(region, 0) {
		t.Fatal("expected the first call at tick 0 to be due")
	}
	if m.ShouldUpdate(region, 10) {
		t.Error("expected tick 10 to not be due yet for a Dormant region (period 50)")
	}
	if !m.ShouldUpdate(region, 50) {
		t.Error("expected tick 50 to be due for a Dormant region (period 50)")
	}
}

func TestHighLevelUpdatesEveryTick(t *testing.T) {
	m := NewManager(DefaultThresholds)
	region := RegionAt(0, 0)
	m.Reclassify([]Region{region}, []Focus{{X: 0, Y: 0}})
	if m.LevelOf(region) != High {
		t.Fatalf("expected a region containing its focus to classify High, got %v", m.LevelOf(region))
	}
	for tick := int64(0); tick < 5; tick++ {
		if !m.ShouldUpdate(region, tick) {
			t.Errorf("expected a High region to be due every tick, failed at tick %d", tick)
		}
	}
}

func TestRegionsFromFociDeduplicates(t *testing.T) {
	foci := []Focus{{X: 10, Y: 10}, {X: 20, Y: 20}, {X: 600, Y: 600}}
	regions := RegionsFromFoci(foci)
	if len(regions) != 2 {
		t.Fatalf("expected two distinct regions from three nearby/far foci, got %d: %+v", len(regions), regions)
	}
}
