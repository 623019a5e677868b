//go:build wireinject
// +build wireinject

package di

import (
	"context"

	"github.com/google/wire"

	"coverstack-backend/internal/config"
)

// InitializeApp builds the fully wired service. Run `wire` in this package
// after changing providers; wire_gen.go is the committed output.
func InitializeApp(ctx context.Context, cfg config.Config) (*App, func(), error) {
	wire.Build(
		InfrastructureSet,
		ApplicationSet,
		InterfaceSet,
	)
	return nil, nil, nil
}
