// Package main boots the Kratos HTTP entrypoint for the journal service.
package main

import (
	"context"
	"flag"
	"os"
	"time"

	loader "github.com/bionicotaku/lingo-services-journal/internal/infrastructure/config_loader"
	loginfra "github.com/bionicotaku/lingo-services-journal/internal/infrastructure/logger"

	"github.com/bionicotaku/lingo-utils/observability"
	"github.com/go-kratos/kratos/v2"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/go-kratos/kratos/v2/transport/http"

	_ "go.uber.org/automaxprocs"
)

// go build -ldflags "-X main.Version=x.y.z"
var (
	// Name is the name of the compiled software.
	Name = "journal"
	// Version is the version of the compiled software.
	Version string

	id, _ = os.Hostname()
)

func newApp(logger log.Logger, hs *http.Server) *kratos.App {
	return kratos.New(
		kratos.ID(id),
		kratos.Name(Name),
		kratos.Version(Version),
		kratos.Metadata(map[string]string{}),
		kratos.Logger(logger),
		kratos.Server(
			hs,
		),
	)
}

func main() {
	var confPath string
	flag.StringVar(&confPath, "conf", "", "config path, eg: -conf configs")
	flag.Parse()

	// Load and normalize configuration (file + .env + env overrides).
	bundle, err := loader.Build(loader.Params{ConfPath: confPath})
	if err != nil {
		panic(err)
	}

	// Build the structured logger used by the entire application.
	loggr, err := loginfra.NewLogger(loginfra.Config{
		Service: bundle.Service.Name,
		Version: bundle.Service.Version,
		HostID:  bundle.Service.InstanceID,
		Env:     bundle.Service.Environment,
	})
	if err != nil {
		panic(err)
	}

	obsShutdown, err := observability.Init(context.Background(), bundle.ObsConfig,
		observability.WithLogger(loggr),
		observability.WithServiceName(bundle.Service.Name),
		observability.WithServiceVersion(bundle.Service.Version),
		observability.WithEnvironment(bundle.Service.Environment),
	)
	if err != nil {
		panic(err)
	}
	defer func() {
		if obsShutdown == nil {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := obsShutdown(ctx); err != nil {
			log.NewHelper(loggr).Warnf("shutdown observability: %v", err)
		}
	}()

	// Assemble all dependencies (pool, storage, handlers) via Wire and create the Kratos app.
	app, cleanupApp, err := wireApp(context.Background(), bundle, loggr)
	if err != nil {
		panic(err)
	}
	defer cleanupApp()

	// Start the application and block until a stop signal is received.
	if err := app.Run(); err != nil {
		panic(err)
	}
}
