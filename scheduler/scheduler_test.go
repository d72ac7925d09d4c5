package scheduler

import (
	"errors"
	"testing"
	"time"
)

func TestDueRespectsRateClassPeriods(t *testing.T) {
	s := New(1, 5, 20, 0)
	var fastRuns, mediumRuns, slowRuns int
	s.Register(Task{ID: "f", RateClass: Fast, Run: func(int64) error { fastRuns++; return nil }})
	s.Register(Task{ID: "m", RateClass: Medium, Run: func(int64) error { mediumRuns++; return nil }})
	s.Register(Task{ID: "s", RateClass: Slow, Run: func(int64) error { slowRuns++; return nil }})

	for tick := int64(0); tick < 20; tick++ {
		s.RunTick(tick)
	}

	if fastRuns != 20 {
		t.Errorf("expected fast task to run every tick (20), got %d", fastRuns)
	}
	if mediumRuns != 4 {
		t.Errorf("expected medium task to run every 5 ticks (4 times in 20), got %d", mediumRuns)
	}
	if slowRuns != 1 {
		t.Errorf("expected slow task to run once in 20 ticks, got %d", slowRuns)
	}
}

func TestDueOrdersByPriorityThenID(t *testing.T) {
	s := New(1, 5, 20, 0)
	var order []string
	record := func(id string) TaskFunc {
		return func(int64) error { order = append(order, id); return nil }
	}
	s.Register(Task{ID: "b", Priority: 1, RateClass: Fast, Run: record("b")})
	s.Register(Task{ID: "a", Priority: 1, RateClass: Fast, Run: record("a")})
	s.Register(Task{ID: "z", Priority: 0, RateClass: Fast, Run: record("z")})

	s.RunTick(0)

	want := []string{"z", "a", "b"}
	if len(order) != 3 || order[0] != want[0] || order[1] != want[1] || order[2] != want[2] {
		t.Errorf("expected order %v, got %v", want, order)
	}
}

func TestTaskErrorDoesNotStopScheduler(t *testing.T) {
	s := New(1, 5, 20, 0)
	ran := false
	s.Register(Task{ID: "bad", RateClass: Fast, Run: func(int64) error { return errors.New("boom") }})
	s.Register(Task{ID: "good", Priority: 1, RateClass: Fast, Run: func(int64) error { ran = true; return nil }})
	s.RunTick(0)
	if !ran {
		t.Fatal("expected scheduler to continue running tasks after an error")
	}
}

func TestTaskPanicDoesNotStopScheduler(t *testing.T) {
	s := New(1, 5, 20, 0)
	ran := false
	s.Register(Task{ID: "bad", RateClass: Fast, Run: func(int64) error { panic("boom") }})
	s.Register(Task{ID: "good", Priority: 1, RateClass: Fast, Run: func(int64) error { ran = true; return nil }})
	s.RunTick(0)
	if !ran {
		t.Fatal("expected scheduler to continue running tasks after a panic")
	}
}

func TestOverBudgetSkipsRemainder(t *testing.T) {
	s := New(1, 5, 20, 1*time.Nanosecond)
	var secondRan bool
	s.Register(Task{ID: "slow", Priority: 0, RateClass: Fast, Run: func(int64) error {
		time.Sleep(time.Millisecond)
		return nil
	}})
	s.Register(Task{ID: "second", Priority: 1, RateClass: Fast, Run: func(int64) error { secondRan = true; return nil }})
	s.RunTick(0)
	if secondRan {
		t.Fatal("expected over-budget tick to skip the remaining tasks")
	}
}

func TestEMAUpdatesAfterRepeatedRuns(t *testing.T) {
	s := New(1, 5, 20, 0)
	s.Register(Task{ID: "t", RateClass: Fast, Run: func(int64) error { return nil }})
	for tick := int64(0); tick < 5; tick++ {
		s.RunTick(tick)
	}
	if _, ok := s.EMA("t"); !ok {
		t.Fatal("expected an EMA to be recorded for task t")
	}
}

func TestResetClearsCountersAndRings(t *testing.T) {
	s := New(1, 5, 20, 0)
	s.Register(Task{ID: "t", RateClass: Fast, Run: func(int64) error { return nil }})
	for tick := int64(0); tick < 5; tick++ {
		s.RunTick(tick)
	}
	s.Reset()
	if _, ok := s.EMA("t"); ok {
		t.Error("expected Reset to clear EMA data")
	}
	p50, p95 := s.Percentiles()
	if p50 != 0 || p95 != 0 {
		t.Error("expected Reset to clear the timing ring")
	}
	if s.Tick() != 0 {
		t.Error("expected Reset to clear the tick counter")
	}
}
