package injector

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/galaxy/internal/config"
	"github.com/zeusync/galaxy/internal/core/systems/physics"
)

func TestInitializeGalaxy(t *testing.T) {
	cfg := config.Default()
	cfg.Log.Level = "error"
	cfg.Simulation.Merge = true
	cfg.Bodies = []config.Body{
		{Mass: 10},
		{Mass: 1, Pos: [2]float64{5, 0}},
	}
	cfg.Disk = &config.Disk{Count: 4, Radius: 20, BodyMass: 0.1, Seed: 1}

	g, err := InitializeGalaxy(cfg)
	require.NoError(t, err)
	assert.Equal(t, 6, g.Len())
	assert.Len(t, g.Snapshots(), 6)
}

func TestInitializeGalaxy_InvalidBody(t *testing.T) {
	cfg := config.Default()
	cfg.Log.Level = "error"
	cfg.Bodies = []config.Body{{Mass: 0}}

	_, err := InitializeGalaxy(cfg)
	assert.ErrorIs(t, err, physics.ErrInvalidParameter)
}

func TestProvideConfigs(t *testing.T) {
	cfg := config.Default()
	cfg.Simulation.Workers = 3
	cfg.Simulation.Bounds = 50

	gc := ProvideGravityConfig(cfg)
	assert.Equal(t, 1.0, gc.G)
	assert.Equal(t, 3, gc.Workers)

	sc := ProvideSystemConfig(cfg)
	assert.Equal(t, 50.0, sc.Bounds)
	assert.Equal(t, 3, sc.Workers)
}
