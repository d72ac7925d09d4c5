package config

import "testing"

func TestLoadEmbeddedDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.TickMs != 50 {
		t.Errorf("expected default tick_ms 50, got %d", cfg.TickMs)
	}
	if cfg.Lifecycle.ReproductionThreshold != 0.7 {
		t.Errorf("expected reproduction_threshold 0.7, got %f", cfg.Lifecycle.ReproductionThreshold)
	}
}

func TestApplyOverlayPartialUpdate(t *testing.T) {
	base, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	overlay := map[string]any{
		"lifecycle.base_metabolism": 0.05,
	}
	merged, err := ApplyOverlay(base, overlay)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if merged.Lifecycle.BaseMetabolism != 0.05 {
		t.Errorf("expected overlay to update base_metabolism, got %f", merged.Lifecycle.BaseMetabolism)
	}
	if merged.Lifecycle.ReproductionThreshold != base.Lifecycle.ReproductionThreshold {
		t.Errorf("expected unrelated fields to survive the overlay unchanged")
	}
	if base.Lifecycle.BaseMetabolism == 0.05 {
		t.Errorf("ApplyOverlay must not mutate the base config")
	}
}

func TestApplyOverlayRejectsInvalidValue(t *testing.T) {
	base, _ := Load("")
	_, err := ApplyOverlay(base, map[string]any{"lifecycle.mutation_rate": 5.0})
	if err == nil {
		t.Fatal("expected error for out-of-range mutation_rate")
	}
}
