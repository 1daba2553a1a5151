package injector

import (
	"github.com/google/wire"
	"github.com/pkg/errors"

	"github.com/zeusync/galaxy/internal/config"
	"github.com/zeusync/galaxy/internal/core/events/bus"
	"github.com/zeusync/galaxy/internal/core/observability/log"
	"github.com/zeusync/galaxy/internal/core/registry"
	"github.com/zeusync/galaxy/internal/core/system"
	"github.com/zeusync/galaxy/internal/core/systems/gravity"
)

var ProviderSet = wire.NewSet(
	ProvideLogger,
	ProvideGravityConfig,
	gravity.New,
	bus.New,
	ProvideStore,
	ProvideSystemConfig,
	ProvideGalaxy,
)

func ProvideLogger(cfg *config.Config) (log.Log, error) {
	return log.New(log.Options{
		Level:  cfg.LogLevel(),
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
}

func ProvideGravityConfig(cfg *config.Config) gravity.Config {
	return gravity.Config{
		G:         cfg.Simulation.Gravity,
		Softening: cfg.Simulation.Softening,
		Workers:   cfg.Simulation.Workers,
	}
}

func ProvideSystemConfig(cfg *config.Config) system.Config {
	return system.Config{
		Workers:     cfg.Simulation.Workers,
		Merge:       cfg.Simulation.Merge,
		DebugChecks: cfg.Simulation.DebugChecks,
		Bounds:      cfg.Simulation.Bounds,
	}
}

func ProvideStore() *registry.Sharded[system.Snapshot] {
	return registry.New[system.Snapshot](0)
}

// ProvideGalaxy builds the galaxy and populates it with the configured bodies.
func ProvideGalaxy(
	cfg *config.Config,
	sc system.Config,
	solver *gravity.Solver,
	events bus.EventBus,
	store *registry.Sharded[system.Snapshot],
	logger log.Log,
) (*system.Galaxy, error) {
	bodies, err := cfg.BuildBodies()
	if err != nil {
		return nil, errors.WithMessage(err, "build bodies")
	}
	g := system.New(sc, solver, events, store, logger)
	for _, b := range bodies {
		g.Add(b)
	}
	logger.Debug("Galaxy populated", log.Int("bodies", g.Len()))
	return g, nil
}
