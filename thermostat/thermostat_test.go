package thermostat

import "testing"

func defaultGains() Gains {
	return Gains{KP: 0.6, KI: 0.05, KD: 0.1, IntegralClamp: 5, OutputClamp: 2, SamplePeriod: 5}
}

func TestUpdateCorrectsTowardTarget(t *testing.T) {
	th := New(Population, 100, [2]float64{20, 50}, defaultGains())
	out := th.Update(0, 80) // below target: positive error -> positive signal
	if out <= 0 {
		t.Errorf("expected a positive corrective signal when below target, got %v", out)
	}
}

func TestUpdateIgnoresOffCadenceCallsUntilSamplePeriod(t *testing.T) {
	gains := defaultGains()
	gains.OutputClamp = 1000 // avoid saturation masking the recompute
	th := New(Resources, 50, [2]float64{10, 30}, gains)
	first := th.Update(0, 40)
	second := th.Update(1, 10) // not due yet (period=5), should not react to the new value
	if second != first {
		t.Errorf("expected off-cadence update to return the unchanged last output, got first=%v second=%v", first, second)
	}
	third := th.Update(5, 10) // now due
	if third == first {
		t.Errorf("expected the due update at tick 5 to recompute the signal")
	}
}

func TestOutputClampedToConfiguredBound(t *testing.T) {
	gains := defaultGains()
	gains.KP = 1000
	th := New(Energy, 100, [2]float64{10, 30}, gains)
	out := th.Update(0, 0)
	if out > gains.OutputClamp || out < -gains.OutputClamp {
		t.Errorf("expected output clamped to +-%v, got %v", gains.OutputClamp, out)
	}
}

func TestHealthClassification(t *testing.T) {
	th := New(Tension, 0, [2]float64{5, 10}, defaultGains())
	th.Update(0, 2) // error magnitude 2, below both bounds
	if th.HealthOf() != Healthy {
		t.Errorf("expected healthy at error magnitude 2, got %v", th.HealthOf())
	}
	th2 := New(Tension, 0, [2]float64{5, 10}, defaultGains())
	th2.Update(0, 7) // error magnitude 7, between bounds
	if th2.HealthOf() != Unhealthy {
		t.Errorf("expected unhealthy at error magnitude 7, got %v", th2.HealthOf())
	}
	th3 := New(Tension, 0, [2]float64{5, 10}, defaultGains())
	th3.Update(0, 15) // error magnitude 15, past critical bound
	if th3.HealthOf() != Critical {
		t.Errorf("expected critical at error magnitude 15, got %v", th3.HealthOf())
	}
}

func TestBankUpdateReturnsReadingsInRegistrationOrder(t *testing.T) {
	b := NewBank()
	b.Add(New(Energy, 50, [2]float64{10, 30}, defaultGains()))
	b.Add(New(Population, 500, [2]float64{50, 150}, defaultGains()))

	readings := b.Update(0, map[Variable]float64{
		Population: 400,
		Energy:     45,
	})
	if len(readings) != 2 || readings[0].Variable != Energy || readings[1].Variable != Population {
		t.Fatalf("expected readings in registration order [Energy, Population], got %+v", readings)
	}
}

func TestBankUpdateSkipsMissingMeasurements(t *testing.T) {
	b := NewBank()
	b.Add(New(Energy, 50, [2]float64{10, 30}, defaultGains()))
	b.Add(New(Diversity, 1, [2]float64{0.2, 0.5}, defaultGains()))

	readings := b.Update(0, map[Variable]float64{Energy: 40})
	if len(readings) != 1 || readings[0].Variable != Energy {
		t.Fatalf("expected only the measured variable to produce a reading, got %+v", readings)
	}
}

func TestApplyOutputsScalesBaseKnobs(t *testing.T) {
	base := Knobs{FertilityMultiplier: 1, MortalityMultiplier: 1, ResourceRegenRate: 1}
	readings := []Reading{
		{Variable: Population, Output: 0.5},
		{Variable: Resources, Output: -0.2},
	}
	out := ApplyOutputs(base, readings)
	if out.FertilityMultiplier != 1.5 {
		t.Errorf("expected fertilityMultiplier scaled to 1.5, got %v", out.FertilityMultiplier)
	}
	if out.ResourceRegenRate != 0.8 {
		t.Errorf("expected resourceRegenRate scaled to 0.8, got %v", out.ResourceRegenRate)
	}
}

func TestSuggestedActionHealthyIsNone(t *testing.T) {
	th := New(Population, 100, [2]float64{20, 50}, defaultGains())
	th.Update(0, 99)
	readings := []Reading{{Variable: Population, Error: th.prevError, Health: Healthy}}
	if suggestedAction(readings[0].Variable, readings[0].Error, readings[0].Health) != "none" {
		t.Error("expected a healthy reading to suggest no action")
	}
}
