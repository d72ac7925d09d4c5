// Package gpubridge offers optional off-thread compute for the two
// heaviest per-tick field kernels — diffuse-decay and semi-Lagrangian
// advection — via a vendor-agnostic dynamic library loaded through purego.
// The CPU implementation is always correctness-authoritative: the GPU path
// is a best-effort accelerator that is abandoned, permanently, the moment
// it misbehaves.
package gpubridge

import (
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ebitengine/purego"
)

// Config controls offload eligibility and the library to bind.
type Config struct {
	LibPath     string        // dynamic library implementing the compute ABI; empty disables the worker entirely
	MinElements int           // width*height must reach this before a job is considered for offload
	Timeout     time.Duration // bounded wait on the job signal word
	Disable     bool          // explicit operator override, equivalent to a permanently faulted worker
}

// job kinds understood by the bound library's single entry point.
const (
	jobDiffuseDecay int32 = 1
	jobAdvect       int32 = 2
)

// submitFunc mirrors the C ABI: the library writes its result into out and
// stores 1 (success) or -1 (failure) into the signal word. Real
// implementations may do this asynchronously from a device queue thread;
// submitFunc itself only needs to return once the job is queued, and
// runJob then waits on the signal word until the timeout.
type submitFunc func(kind int32, in, out, auxA, auxB *float32, w, h int32, p1, p2 float32, signal *int32) int32

// Bridge owns the optional worker handle and its permanent fault latch.
// A zero Bridge (via New with a disabled Config) always takes the CPU path.
type Bridge struct {
	cfg Config

	loadOnce  sync.Once
	loadErr   error
	submit    submitFunc
	disabled  atomic.Bool
	faultOnce sync.Once
}

// New builds a Bridge. No library is loaded until the first eligible job;
// an empty LibPath or Disable=true short-circuits straight to the CPU path
// without ever touching purego.
func New(cfg Config) *Bridge {
	b := &Bridge{cfg: cfg}
	if cfg.Disable || cfg.LibPath == "" {
		b.disabled.Store(true)
	}
	if cfg.Timeout <= 0 {
		b.cfg.Timeout = 2 * time.Second
	}
	return b
}

// Eligible reports whether a w×h job should even attempt the GPU path.
func (b *Bridge) Eligible(w, h int) bool {
	if b.disabled.Load() {
		return false
	}
	return w*h >= b.cfg.MinElements
}

// Disabled reports whether the worker has been permanently faulted out,
// either by configuration or by a prior runtime failure.
func (b *Bridge) Disabled() bool { return b.disabled.Load() }

func (b *Bridge) ensureLoaded() error {
	b.loadOnce.Do(func() {
		handle, err := purego.Dlopen(b.cfg.LibPath, purego.RTLD_NOW|purego.RTLD_GLOBAL)
		if err != nil {
			b.loadErr = err
			return
		}
		var fn submitFunc
		purego.RegisterLibFunc(&fn, handle, "terrarium_gpu_submit")
		b.submit = fn
	})
	return b.loadErr
}

// disableForever latches the permanent fault state and logs exactly once.
func (b *Bridge) disableForever(reason string, err error) {
	b.faultOnce.Do(func() {
		b.disabled.Store(true)
		slog.Warn("gpu worker disabled for process lifetime", "reason", reason, "err", err)
	})
}

var errTimeout = errors.New("gpu job timed out")

// runJob submits one job and waits on its signal word, or falls back.
// Returns false if the CPU path should be used instead.
func (b *Bridge) runJob(kind int32, in, out, auxA, auxB []float32, w, h int, p1, p2 float32) bool {
	if !b.Eligible(w, h) {
		return false
	}
	if err := b.ensureLoaded(); err != nil {
		b.disableForever("load failure", err)
		return false
	}

	var signal int32
	var auxAPtr, auxBPtr *float32
	if len(auxA) > 0 {
		auxAPtr = &auxA[0]
	}
	if len(auxB) > 0 {
		auxBPtr = &auxB[0]
	}

	deadline := time.Now().Add(b.cfg.Timeout)
	done := make(chan int32, 1)
	go func() {
		done <- b.submit(kind, &in[0], &out[0], auxAPtr, auxBPtr, int32(w), int32(h), p1, p2, &signal)
	}()

	select {
	case rc := <-done:
		if rc != 0 {
			b.disableForever("job failure", errors.New("nonzero submit result"))
			return false
		}
		for atomic.LoadInt32(&signal) == 0 && time.Now().Before(deadline) {
			time.Sleep(50 * time.Microsecond)
		}
		switch atomic.LoadInt32(&signal) {
		case 1:
			return true
		case 0:
			b.disableForever("job timeout", errTimeout)
		default:
			b.disableForever("job failure", errors.New("failure signal"))
		}
		return false
	case <-time.After(b.cfg.Timeout):
		b.disableForever("job timeout", errTimeout)
		return false
	}
}

// DiffuseDecay runs one fused diffuse+decay step over a dense w×h buffer.
// It attempts the GPU path when eligible, falling back to the CPU kernel
// on ineligibility, load failure, job failure, or timeout.
func (b *Bridge) DiffuseDecay(in []float32, w, h int, diffuse, decay float32) []float32 {
	out := make([]float32, w*h)
	if b.runJob(jobDiffuseDecay, in, out, nil, nil, w, h, diffuse, decay) {
		return out
	}
	diffuseDecayCPU(in, out, w, h, diffuse, decay)
	return out
}

// Advect runs one semi-Lagrangian back-trace step over a dense w×h buffer
// given per-cell velocity components vx, vy and a timestep dt.
func (b *Bridge) Advect(in, vx, vy []float32, w, h int, dt float32) []float32 {
	out := make([]float32, w*h)
	if b.runJob(jobAdvect, in, out, vx, vy, w, h, dt, 0) {
		return out
	}
	advectCPU(in, vx, vy, out, w, h, dt)
	return out
}
