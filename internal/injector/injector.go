//go:build wireinject
// +build wireinject

// The build tag makes sure the stub is not built in the final build.

package injector

import (
	"github.com/google/wire"

	"github.com/zeusync/galaxy/internal/config"
	"github.com/zeusync/galaxy/internal/core/system"
)

func InitializeGalaxy(cfg *config.Config) (*system.Galaxy, error) {
	wire.Build(ProviderSet)
	return nil, nil
}
