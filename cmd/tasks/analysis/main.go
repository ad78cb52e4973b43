// Package main 提供分析结果 Runner 的独立进程入口，便于后台单独运行。
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	loader "github.com/bionicotaku/lingo-services-journal/internal/infrastructure/config_loader"
	loginfra "github.com/bionicotaku/lingo-services-journal/internal/infrastructure/logger"
	analysistasks "github.com/bionicotaku/lingo-services-journal/internal/tasks/analysis"
	"github.com/go-kratos/kratos/v2/log"

	_ "go.uber.org/automaxprocs"
)

type analysisTaskApp struct {
	Runner *analysistasks.Runner
	Logger log.Logger
}

func provideLogger(meta loader.ServiceMetadata) (log.Logger, error) {
	return loginfra.NewLogger(loginfra.Config{
		Service: meta.Name,
		Version: meta.Version,
		HostID:  meta.InstanceID,
		Env:     meta.Environment,
	})
}

func newAnalysisTaskApp(logger log.Logger, runner *analysistasks.Runner) (*analysisTaskApp, error) {
	if runner == nil {
		return nil, fmt.Errorf("analysis runner not initialized")
	}
	return &analysisTaskApp{
		Runner: runner,
		Logger: logger,
	}, nil
}

func main() {
	ctx := context.Background()

	confFlag := flag.String("conf", "", "config path or directory, eg: -conf configs")
	flag.Parse()

	params := loader.Params{ConfPath: *confFlag}
	app, cleanup, err := wireAnalysisTask(ctx, params)
	if err != nil {
		panic(err)
	}
	defer cleanup()

	logger := app.Logger
	if logger == nil {
		logger = log.NewStdLogger(os.Stdout)
	}
	helper := log.NewHelper(logger)

	helper.Info("starting analysis result runner")

	runCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := app.Runner.Run(runCtx); err != nil && !errors.Is(err, context.Canceled) {
		helper.Errorf("analysis runner stopped unexpectedly: %v", err)
		os.Exit(1)
	}

	helper.Info("analysis runner stopped")
}
