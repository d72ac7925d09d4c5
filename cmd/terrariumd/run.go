package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/pthm-cable/terrarium/broadcast"
	"github.com/pthm-cable/terrarium/config"
	"github.com/pthm-cable/terrarium/engine"
	"github.com/pthm-cable/terrarium/httpcmd"
	"github.com/pthm-cable/terrarium/metrics"
	"github.com/pthm-cable/terrarium/persistence"
)

func runCmd() *cobra.Command {
	var (
		configPath  string
		dataDir     string
		addr        string
		metricsAddr string
		saveEvery   int64
		autoStart   bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the engine as a daemon with websocket, HTTP command, and metrics endpoints",
		RunE: func(cmd *cobra.Command, args []string) error {
			slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, nil)))

			cfg, err := config.Load(configPath)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			if err := config.Validate(cfg); err != nil {
				return fmt.Errorf("invalid config: %w", err)
			}

			store, err := persistence.Open(dataDir)
			if err != nil {
				return fmt.Errorf("opening data dir: %w", err)
			}
			defer store.Close()

			e := engine.New(cfg)

			if rec, loadErr := store.Load(); loadErr == nil {
				if err := e.LoadRecord(rec); err != nil {
					slog.Warn("discarding saved record, failed integrity check", "err", err)
				} else {
					slog.Info("restored saved record", "tick", rec.Tick)
				}
			} else if loadErr != persistence.ErrNoSavedRecord {
				slog.Warn("failed to load saved record", "err", loadErr)
			}

			hub := broadcast.NewHub()
			sink := metrics.NewSink()
			e.SetBroadcaster(hub)
			e.SetMetricsSink(sink)

			if autoStart {
				if err := e.Submit(engine.Command{Kind: engine.CmdStart}); err != nil {
					return fmt.Errorf("auto-start: %w", err)
				}
			}

			router := httpcmd.New(e)
			mux := http.NewServeMux()
			mux.Handle("/command/", router)
			mux.Handle("/snapshot", router)
			mux.Handle("/ws", hub)
			apiServer := &http.Server{Addr: addr, Handler: mux}

			metricsServer := &http.Server{Addr: metricsAddr, Handler: sink.Handler()}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			go func() {
				slog.Info("command/websocket server listening", "addr", addr)
				if err := apiServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					slog.Error("command server failed", "err", err)
				}
			}()
			go func() {
				slog.Info("metrics server listening", "addr", metricsAddr)
				if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					slog.Error("metrics server failed", "err", err)
				}
			}()

			// A single goroutine drives both the tick cadence and the
			// autosave cadence so Snapshot/BuildRecord are never called
			// concurrently with AdvanceOneTick (spec.md §5: engine state
			// is read-safe only between ticks, never during one).
			period := time.Duration(cfg.TickMs) * time.Millisecond
			if period <= 0 {
				period = 50 * time.Millisecond
			}
			tickTicker := time.NewTicker(period)
			defer tickTicker.Stop()
			saveTicker := time.NewTicker(time.Duration(saveEvery) * time.Second)
			defer saveTicker.Stop()

			for {
				select {
				case <-ctx.Done():
					persistSnapshot(store, e)
					shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
					defer cancel()
					apiServer.Shutdown(shutdownCtx)
					metricsServer.Shutdown(shutdownCtx)
					return nil
				case <-tickTicker.C:
					e.AdvanceOneTick()
				case <-saveTicker.C:
					persistSnapshot(store, e)
				}
			}
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "config YAML file (empty = embedded defaults)")
	cmd.Flags().StringVar(&dataDir, "data-dir", "./terrarium-data", "leveldb directory for save records and chunk snapshots")
	cmd.Flags().StringVar(&addr, "addr", ":8090", "command/websocket listen address")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", ":9090", "prometheus /metrics listen address")
	cmd.Flags().Int64Var(&saveEvery, "save-every", 30, "seconds between autosaves")
	cmd.Flags().BoolVar(&autoStart, "auto-start", true, "start the simulation immediately instead of waiting for a start command")

	return cmd
}

func persistSnapshot(store *persistence.Store, e *engine.Engine) {
	rec := e.BuildRecord("terrariumd", time.Now().Unix())
	if err := store.Save(rec); err != nil {
		slog.Error("autosave failed", "err", err)
		return
	}
	snap := e.Snapshot()
	if err := store.PutChunks(snap.Chunks); err != nil {
		slog.Error("chunk snapshot persist failed", "err", err)
		return
	}
	slog.Info("autosaved", "tick", rec.Tick, "chunks", len(snap.Chunks))
}
