package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/viper"
	"github.com/xpanvictor/parley/internal/app"
	"github.com/xpanvictor/parley/internal/config"
	"github.com/xpanvictor/parley/pkg/Logger"
)

// Entry point for the voice assistant.
// Loads config, wires every component and runs the selected mode.
func main() {
	mode := flag.String("mode", "", "listen, transcribe or ask")
	question := flag.String("question", "", "question for ask mode")
	serve := flag.Bool("serve", false, "enable the status server")
	flag.Parse()

	// flags override file and env
	v := viper.New()
	if *mode != "" {
		v.Set("mode", *mode)
	}
	if *question != "" {
		v.Set("question", *question)
	}
	if *serve {
		v.Set("server.enabled", true)
	}

	cfg, err := config.LoadWith(v)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	logger := Logger.New(cfg.Debug)
	defer logger.Sync()
	logger.Infow("Logger initialized", "env", cfg.Env, "mode", cfg.Mode)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.NewApp(ctx, cfg, logger, os.Stdin, os.Stdout)
	if err != nil {
		logger.Fatalf("Failed to build application: %v", err)
	}

	runErr := a.Run(ctx)
	stop()

	// 5 secs for an in-flight turn, then give up
	done := make(chan error, 1)
	go func() { done <- a.Close() }()
	select {
	case err := <-done:
		if err != nil {
			logger.Errorf("Shutdown err %v", err)
		}
	case <-time.After(5 * time.Second):
		logger.Warn("shutdown timed out waiting for the current turn")
	}

	if runErr != nil {
		logger.Errorf("exited with error: %v", runErr)
		logger.Sync()
		os.Exit(1)
	}
	logger.Info("Shutdown system")
}
