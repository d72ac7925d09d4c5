// Package httpcmd is a gorilla/mux HTTP router translating
// POST /command/{name} requests into engine.Command submissions. It
// holds no simulation state of its own: every request either reaches
// the closed command set the engine already validates, or is rejected
// before ever touching engine.Submit.
package httpcmd

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/spf13/viper"

	"github.com/pthm-cable/terrarium/chunk"
	"github.com/pthm-cable/terrarium/engine"
)

// Router adapts HTTP requests onto an *engine.Engine.
type Router struct {
	mux *mux.Router
	eng *engine.Engine
}

// New builds a Router bound to eng. Mount it directly, or under ServeHTTP.
func New(eng *engine.Engine) *Router {
	r := &Router{eng: eng, mux: mux.NewRouter()}
	r.mux.HandleFunc("/command/{name}", r.handleCommand).Methods(http.MethodPost)
	r.mux.HandleFunc("/snapshot", r.handleSnapshot).Methods(http.MethodGet)
	return r
}

// ServeHTTP implements http.Handler.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

func (r *Router) handleCommand(w http.ResponseWriter, req *http.Request) {
	name := mux.Vars(req)["name"]
	cmd, err := decodeCommand(name, req)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := r.eng.Submit(cmd); err != nil {
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (r *Router) handleSnapshot(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(r.eng.RequestSnapshot()); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// decodeCommand reads the body appropriate to name and builds the
// matching engine.Command. The engine itself still validates every
// field; this only maps HTTP shape onto the typed payload.
func decodeCommand(name string, req *http.Request) (engine.Command, error) {
	kind := engine.CommandKind(name)
	switch kind {
	case engine.CmdStart, engine.CmdPause, engine.CmdResume, engine.CmdReset:
		return engine.Command{Kind: kind}, nil

	case engine.CmdSetConfig:
		var body map[string]any
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
			return engine.Command{}, fmt.Errorf("httpcmd: decode set_config body: %w", err)
		}
		v := viper.New()
		if err := v.MergeConfigMap(body); err != nil {
			return engine.Command{}, fmt.Errorf("httpcmd: merge set_config overlay: %w", err)
		}
		return engine.Command{Kind: kind, Overlay: v.AllSettings()}, nil

	case engine.CmdSpawnParticles:
		var body struct {
			X, Y  float32
			Count int
			Seed  uint32
		}
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
			return engine.Command{}, fmt.Errorf("httpcmd: decode spawn_particles body: %w", err)
		}
		return engine.Command{Kind: kind, SpawnX: body.X, SpawnY: body.Y, SpawnCount: body.Count, SpawnSeed: body.Seed}, nil

	case engine.CmdSubscribeField:
		var body struct {
			FieldIDs []string `json:"field_ids"`
		}
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
			return engine.Command{}, fmt.Errorf("httpcmd: decode subscribe_field body: %w", err)
		}
		return engine.Command{Kind: kind, FieldIDs: body.FieldIDs}, nil

	case engine.CmdViewportUpdate:
		var body chunk.Viewport
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
			return engine.Command{}, fmt.Errorf("httpcmd: decode viewport_update body: %w", err)
		}
		return engine.Command{Kind: kind, Viewport: body}, nil

	case engine.CmdRequestChunks:
		var body struct {
			Coords [][2]int `json:"coords"`
		}
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
			return engine.Command{}, fmt.Errorf("httpcmd: decode request_chunks body: %w", err)
		}
		return engine.Command{Kind: kind, ChunkCoords: body.Coords}, nil

	default:
		return engine.Command{}, fmt.Errorf("httpcmd: unknown command %q", name)
	}
}
