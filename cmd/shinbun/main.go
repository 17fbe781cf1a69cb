package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"
)

func main() {
	once := flag.Bool("once", false, "run one update cycle and exit")
	force := flag.Bool("force", false, "with -once: run even when data is fresh")
	flag.Parse()

	LoadEnv()

	cfg, err := LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(2)
	}

	if err := InitLogger(cfg.LogPath, cfg.LogLevel); err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(2)
	}
	defer Logger().Close()

	Logger().Info("shinbun v%s starting", VERSION)

	pipeline, err := NewPipeline(cfg)
	if err != nil {
		Logger().Fatal("startup failed: %v", err)
	}

	if *once {
		os.Exit(runOnce(cfg, pipeline, *force))
	}

	runDaemon(cfg, pipeline)
}

// runOnce is batch mode: a single update cycle with the exit code carrying
// the outcome. 0 all sources ok, 1 partial failure, 2 run did not complete.
func runOnce(cfg *Config, pipeline *Pipeline, force bool) int {
	if !force {
		freshness := pipeline.CheckFreshness(time.Now().UTC())
		if !freshness.NeedsUpdate {
			Logger().Info("data is fresh (updated %s ago), next update in %s", freshness.Elapsed, freshness.NextUpdateIn)
			return 0
		}
	}

	report, err := pipeline.Run(context.Background())
	if err != nil {
		Logger().Error("run failed: %v", err)
		return 2
	}
	if report.Failed() {
		return 1
	}
	return 0
}

// runDaemon starts the dashboard and the cron scheduler and blocks until
// a shutdown signal.
func runDaemon(cfg *Config, pipeline *Pipeline) {
	if _, err := LoadState(cfg); err != nil {
		Logger().Warning("failed to load state, starting fresh: %v", err)
	}
	SetSystemStatus("running")

	dashboard := NewDashboard(cfg, pipeline)
	dashboard.Start()

	scheduler := NewScheduler(cfg, dashboard)
	if err := scheduler.Start(); err != nil {
		Logger().Fatal("failed to start scheduler: %v", err)
	}

	if cfg.FetchOnStartup {
		go func() {
			if _, err := dashboard.RunLocked(context.Background()); err != nil {
				Logger().Error("startup run failed: %v", err)
			}
		}()
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	sig := <-stop

	Logger().Info("received %s, shutting down", sig)
	SetSystemStatus("stopping")
	scheduler.Stop()

	stateMutex.Lock()
	state.ShutdownTime = time.Now()
	stateMutex.Unlock()
	if err := SaveState(cfg); err != nil {
		Logger().Warning("failed to persist state on shutdown: %v", err)
	}
}
