//go:build wireinject
// +build wireinject

// The build tag makes sure the stub is not built in the final build.

package main

import (
	"context"

	"github.com/bionicotaku/lingo-services-journal/internal/controllers"
	loader "github.com/bionicotaku/lingo-services-journal/internal/infrastructure/config_loader"
	"github.com/bionicotaku/lingo-services-journal/internal/infrastructure/database"
	"github.com/bionicotaku/lingo-services-journal/internal/infrastructure/gcs"
	httpserver "github.com/bionicotaku/lingo-services-journal/internal/infrastructure/http_server"
	"github.com/bionicotaku/lingo-services-journal/internal/repositories"
	"github.com/bionicotaku/lingo-services-journal/internal/services"

	"github.com/go-kratos/kratos/v2"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/wire"
)

// wireApp init kratos application.
func wireApp(context.Context, *loader.Bundle, log.Logger) (*kratos.App, func(), error) {
	panic(wire.Build(
		loader.ProviderSet,
		database.ProviderSet,
		gcs.ProviderSet,
		repositories.ProviderSet,
		services.ProviderSet,
		controllers.ProviderSet,
		httpserver.ProviderSet,
		newApp,
	))
}
