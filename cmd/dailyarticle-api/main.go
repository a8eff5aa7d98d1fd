package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/pevans/dailyarticle/api"
	"github.com/pevans/dailyarticle/bootstrap"
	"github.com/pevans/dailyarticle/config"
	"github.com/pevans/dailyarticle/logging"
	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", "", "config file")
	addr := flag.String("addr", "", "listen address (overrides api.addr)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *addr != "" {
		cfg.API.Addr = *addr
	}

	logger, err := logging.New(logging.Config{
		Level:       cfg.Logging.Level,
		Development: cfg.Logging.Development,
	})
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}

	app, err := bootstrap.New(cfg, logger)
	if err != nil {
		logger.Fatal("failed to start", zap.Error(err))
	}
	defer app.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	server := api.NewAPIServer(api.Options{
		Selector: app.Selector,
		Topics:   app.Topics,
		Sources:  app.Sources,
		Runs:     app.RunLog,
		Cache:    app.Cache,
		Settings: app.Config,
		Logger:   logger,
	})

	if err := server.Serve(ctx, cfg.API.Addr); err != nil {
		logger.Error("server failed", zap.Error(err))
		app.Close()
		os.Exit(1)
	}
}
