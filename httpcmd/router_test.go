package httpcmd

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/pthm-cable/terrarium/config"
	"github.com/pthm-cable/terrarium/engine"
)

func testRouter(t *testing.T) (*Router, *engine.Engine) {
	t.Helper()
	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("config.Load: %v", err)
	}
	eng := engine.New(cfg)
	return New(eng), eng
}

func doCommand(t *testing.T, r *Router, name, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/command/"+name, bytes.NewBufferString(body))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestStartCommandSucceeds(t *testing.T) {
	r, eng := testRouter(t)
	rec := doCommand(t, r, "start", "")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d: %s", rec.Code, rec.Body.String())
	}
	eng.AdvanceOneTick()
	if eng.Tick() != 1 {
		t.Fatalf("expected tick 1 after start+advance, got %d", eng.Tick())
	}
}

func TestUnknownCommandRejected(t *testing.T) {
	r, _ := testRouter(t)
	rec := doCommand(t, r, "not_a_real_command", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestSpawnParticlesCommand(t *testing.T) {
	r, eng := testRouter(t)
	doCommand(t, r, "start", "")
	rec := doCommand(t, r, "spawn_particles", `{"X":1,"Y":2,"Count":5,"Seed":11}`)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d: %s", rec.Code, rec.Body.String())
	}
	eng.AdvanceOneTick()
	if got := eng.Snapshot().Metrics.AliveParticles; got != 5 {
		t.Fatalf("expected 5 alive particles, got %d", got)
	}
}

func TestSpawnParticlesInvalidCountRejected(t *testing.T) {
	r, _ := testRouter(t)
	rec := doCommand(t, r, "spawn_particles", `{"Count":0}`)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for count=0, got %d", rec.Code)
	}
}

func TestSetConfigMergesNestedOverlay(t *testing.T) {
	r, eng := testRouter(t)
	rec := doCommand(t, r, "set_config", `{"lifecycle":{"mutation_rate":0.5}}`)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d: %s", rec.Code, rec.Body.String())
	}
	if got := eng.Config().Lifecycle.MutationRate; got != 0.5 {
		t.Fatalf("expected mutation_rate 0.5 after overlay, got %v", got)
	}
}

func TestSnapshotEndpoint(t *testing.T) {
	r, _ := testRouter(t)
	req := httptest.NewRequest(http.MethodGet, "/snapshot", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if rec.Body.Len() == 0 {
		t.Fatal("expected a non-empty snapshot body")
	}
}
