package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"

	"github.com/zeusync/galaxy/internal/config"
	"github.com/zeusync/galaxy/internal/core/observability/log"
	"github.com/zeusync/galaxy/internal/core/system"
	"github.com/zeusync/galaxy/internal/core/systems"
	"github.com/zeusync/galaxy/internal/injector"
	"github.com/zeusync/galaxy/internal/telemetry"
)

func main() {
	configPath := flag.String("config", "galaxy.yaml", "path to the YAML configuration")
	steps := flag.Int("steps", -1, "number of steps to run, 0 runs until interrupted (overrides config)")
	logLevel := flag.String("log-level", "", "log level (overrides config)")
	flag.Parse()

	if err := run(*configPath, *steps, *logLevel); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, "galaxy:", err)
		os.Exit(1)
	}
}

func run(configPath string, steps int, logLevel string) error {
	cfg, err := config.LoadFile(configPath)
	if err != nil {
		return err
	}
	if steps >= 0 {
		cfg.Simulation.Steps = steps
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
		if err = cfg.Validate(); err != nil {
			return err
		}
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	galaxy, err := injector.InitializeGalaxy(cfg)
	if err != nil {
		return errors.WithMessage(err, "initialize galaxy")
	}
	logger := log.Provide()
	defer func() { _ = logger.Sync() }()

	stop, err := startTelemetry(ctx, cfg, galaxy, logger)
	if err != nil {
		return err
	}
	defer stop()

	lastStats := time.Now()
	err = galaxy.Run(ctx, cfg.Simulation.DeltaTime, cfg.Simulation.Steps, func(system.StepEvent) error {
		if cfg.Telemetry.StatsInterval > 0 && time.Since(lastStats) >= cfg.Telemetry.StatsInterval {
			lastStats = time.Now()
			logStats(logger, galaxy.Stats())
		}
		return nil
	})
	logStats(logger, galaxy.Stats())
	if errors.Is(err, context.Canceled) {
		logger.Info("Interrupted")
		return nil
	}
	return err
}

func startTelemetry(ctx context.Context, cfg *config.Config, galaxy *system.Galaxy, logger log.Log) (func(), error) {
	var (
		broadcasters []telemetry.Broadcaster
		stops        []func(context.Context) error
	)
	if addr := cfg.Telemetry.WebSocketAddr; addr != "" {
		ws := telemetry.NewWebSocketServer(logger)
		if err := ws.Start(ctx, addr); err != nil {
			return nil, errors.WithMessage(err, "websocket telemetry")
		}
		broadcasters = append(broadcasters, ws)
		stops = append(stops, ws.Stop)
	}
	if addr := cfg.Telemetry.QUICAddr; addr != "" {
		qs := telemetry.NewQUICServer(logger)
		if err := qs.Start(ctx, addr); err != nil {
			return nil, errors.WithMessage(err, "quic telemetry")
		}
		broadcasters = append(broadcasters, qs)
		stops = append(stops, qs.Stop)
	}

	if len(broadcasters) > 0 {
		hub := telemetry.NewHub(logger, broadcasters...)
		if _, err := hub.Attach(ctx, galaxy, cfg.Telemetry.Every); err != nil {
			return nil, err
		}
	}

	return func() {
		shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		for _, stop := range stops {
			if err := stop(shutdown); err != nil {
				logger.Warn("Telemetry shutdown failed", log.Error(err))
			}
		}
	}, nil
}

func logStats(logger log.Log, st system.Stats) {
	logger.Info("Galaxy stats",
		log.Uint64("step", st.Steps),
		log.Float64("time", st.Time),
		log.Int("bodies", st.Bodies),
		log.Uint64("merges", st.Merges),
		log.Float64("total_mass", st.TotalMass),
		log.Vec("momentum", st.Momentum.Xv, st.Momentum.Yv),
		log.Float64("kinetic", st.Kinetic),
		log.Float64("potential", st.Potential),
		log.Float64("energy", st.Kinetic+st.Potential),
		log.Uint64("events_published", st.Events.Published),
		log.Uint64("handler_errors", st.Events.Errors))

	for p := systems.Phase(0); p < systems.PhaseCount; p++ {
		m := st.Passes[p]
		if m.ExecutionCount == 0 {
			continue
		}
		logger.Debug("Pass timings",
			log.String("phase", p.String()),
			log.Uint64("runs", m.ExecutionCount),
			log.Duration("avg", m.AverageExecutionTime),
			log.Duration("max", m.MaxExecutionTime))
	}
}
