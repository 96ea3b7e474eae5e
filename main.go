package main

import (
	"context"
	"flag"
	"log"
	"os/signal"
	"syscall"

	"github.com/oh-sansi/olympiad-backend/app"
	"github.com/oh-sansi/olympiad-backend/config"
)

func main() {
	configFile := flag.String("config", "config.yaml", "Path to the configuration file")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadConfig(*configFile)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	application, err := app.NewApp(ctx, cfg)
	if err != nil {
		log.Fatalf("failed to initialize app: %v", err)
	}
	defer func() {
		if err := application.Close(); err != nil {
			log.Printf("error closing database connection: %v", err)
		}
	}()

	if err := application.Run(ctx); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
