package main

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/pthm-cable/terrarium/config"
	"github.com/pthm-cable/terrarium/engine"
	"github.com/pthm-cable/terrarium/persistence"
	"github.com/pthm-cable/terrarium/telemetry"
)

func headlessCmd() *cobra.Command {
	var (
		configPath  string
		ticks       int64
		spawnCount  int
		seed        int64
		reportEvery int64
		csvPath     string
		savePath    string
	)

	cmd := &cobra.Command{
		Use:   "headless",
		Short: "Run a fixed number of ticks with no network listeners, for scripted or batch use",
		RunE: func(cmd *cobra.Command, args []string) error {
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, nil)))

			cfg, err := config.Load(configPath)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			if seed != 0 {
				cfg.Seed = seed
			}
			if err := config.Validate(cfg); err != nil {
				return fmt.Errorf("invalid config: %w", err)
			}

			e := engine.New(cfg)
			if err := e.Submit(engine.Command{Kind: engine.CmdStart}); err != nil {
				return fmt.Errorf("starting engine: %w", err)
			}
			if spawnCount > 0 {
				if err := e.Submit(engine.Command{Kind: engine.CmdSpawnParticles, SpawnCount: spawnCount, SpawnSeed: uint32(cfg.Seed)}); err != nil {
					return fmt.Errorf("spawning particles: %w", err)
				}
			}

			reporter := telemetry.NewReporter(os.Stdout)

			var csvLog *telemetry.CSVLog
			if csvPath != "" {
				csvLog, err = telemetry.OpenCSVLog(csvPath)
				if err != nil {
					return fmt.Errorf("opening csv log: %w", err)
				}
				defer csvLog.Close()
			}

			for tick := int64(0); tick < ticks; tick++ {
				e.AdvanceOneTick()

				m := e.Metrics()
				if csvLog != nil {
					if err := csvLog.WriteMetrics(m); err != nil {
						return fmt.Errorf("writing csv row: %w", err)
					}
				}
				if reportEvery > 0 && tick%reportEvery == 0 {
					reporter.Render(m)
				}
			}

			reporter.Render(e.Metrics())

			if savePath != "" {
				store, err := persistence.Open(savePath)
				if err != nil {
					return fmt.Errorf("opening save path: %w", err)
				}
				defer store.Close()
				rec := e.BuildRecord("terrariumd-headless", time.Now().Unix())
				if err := store.Save(rec); err != nil {
					return fmt.Errorf("saving record: %w", err)
				}
				snap := e.Snapshot()
				if err := store.PutChunks(snap.Chunks); err != nil {
					return fmt.Errorf("saving chunks: %w", err)
				}
				fmt.Printf("saved record at tick %d to %s\n", rec.Tick, savePath)
			}

			return nil
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "config YAML file (empty = embedded defaults)")
	cmd.Flags().Int64Var(&ticks, "ticks", 10000, "number of ticks to run")
	cmd.Flags().IntVar(&spawnCount, "spawn", 200, "particles spawned at tick 0")
	cmd.Flags().Int64Var(&seed, "seed", 0, "override the config's world seed (0 = keep config value)")
	cmd.Flags().Int64Var(&reportEvery, "report-every", 1000, "print a table report every N ticks (0 = only at the end)")
	cmd.Flags().StringVar(&csvPath, "csv", "", "append per-tick metrics to this CSV file (empty = disabled)")
	cmd.Flags().StringVar(&savePath, "save", "", "persist a save record + chunk snapshots to this leveldb directory at the end of the run (empty = disabled)")

	return cmd
}
