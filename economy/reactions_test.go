package economy

import "testing"

func TestReactionCascadeConcreteScenario(t *testing.T) {
	engine := NewReactionEngine([]Rule{GatherFoodRule()})
	cell := CellState{
		Resources: map[string]float32{"food": 0.3},
		Labor:     0.5,
	}

	deltas := engine.Run(cell)
	if len(deltas) != 1 {
		t.Fatalf("expected exactly one rule to fire, got %d", len(deltas))
	}

	d := deltas[0]
	if d.Rule != "gather_food" {
		t.Errorf("expected gather_food to fire, got %q", d.Rule)
	}

	finalFood := cell.Resources["food"] + d.ResourceDeltas["food"]
	if abs32(finalFood-0.1) > 1e-6 {
		t.Errorf("expected resources.food = 0.1, got %v", finalFood)
	}
	if abs32(d.InventoryGains["food"]-0.15) > 1e-6 {
		t.Errorf("expected inventory.food = 0.15, got %v", d.InventoryGains["food"])
	}
	finalLabor := cell.Labor - d.LaborSpent
	if abs32(finalLabor-0.49) > 1e-6 {
		t.Errorf("expected labor = 0.49, got %v", finalLabor)
	}
}

func TestReactionEngineStopsWhenLaborExhausted(t *testing.T) {
	rule := GatherFoodRule()
	rule.LaborCost = 1.0
	engine := NewReactionEngine([]Rule{rule, rule})
	cell := CellState{
		Resources: map[string]float32{"food": 10},
		Labor:     1.0,
	}
	deltas := engine.Run(cell)
	if len(deltas) != 1 {
		t.Fatalf("expected labor exhaustion to cap firings at 1, got %d", len(deltas))
	}
}

func TestReactionEngineSkipsBelowFieldThreshold(t *testing.T) {
	engine := NewReactionEngine([]Rule{GatherFoodRule()})
	cell := CellState{
		Resources: map[string]float32{"food": 0.1}, // below the 0.2 threshold
		Labor:     1.0,
	}
	deltas := engine.Run(cell)
	if len(deltas) != 0 {
		t.Fatalf("expected no rule to fire below field threshold, got %d", len(deltas))
	}
}

func TestReactionEngineOrdersByPriority(t *testing.T) {
	low := Rule{Name: "low", Priority: 5, Inputs: map[string]float32{}, Outputs: map[string]float32{"x": 1}, Rate: 1}
	high := Rule{Name: "high", Priority: 1, Inputs: map[string]float32{}, Outputs: map[string]float32{"x": 1}, Rate: 1}
	engine := NewReactionEngine([]Rule{low, high})
	deltas := engine.Run(CellState{Resources: map[string]float32{}, Labor: 10})
	if len(deltas) != 2 || deltas[0].Rule != "high" {
		t.Fatalf("expected high-priority rule to run first, got %+v", deltas)
	}
}

func abs32(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}
