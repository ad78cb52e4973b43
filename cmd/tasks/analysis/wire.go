//go:build wireinject
// +build wireinject

// Package main 为 analysis 任务 CLI 提供 Wire 依赖注入定义。
package main

import (
	"context"

	loader "github.com/bionicotaku/lingo-services-journal/internal/infrastructure/config_loader"
	"github.com/bionicotaku/lingo-services-journal/internal/infrastructure/database"
	"github.com/bionicotaku/lingo-services-journal/internal/repositories"
	"github.com/bionicotaku/lingo-services-journal/internal/services"
	analysistasks "github.com/bionicotaku/lingo-services-journal/internal/tasks/analysis"

	"github.com/google/wire"
)

//go:generate go run github.com/google/wire/cmd/wire

func wireAnalysisTask(context.Context, loader.Params) (*analysisTaskApp, func(), error) {
	panic(wire.Build(
		loader.Build,
		loader.ProviderSet,
		provideLogger,
		database.ProviderSet,
		repositories.ProviderSet,
		services.NewAnalysisService,
		analysistasks.ProvideRunner,
		newAnalysisTaskApp,
	))
}
