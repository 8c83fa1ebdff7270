package main

import (
	"context"
	"errors"
	"log"
	"os/signal"
	"syscall"

	"github.com/mertkaradayi/redflag-sub001/internal/app"
	"github.com/mertkaradayi/redflag-sub001/internal/config"
	"github.com/mertkaradayi/redflag-sub001/internal/suiclient"
	"github.com/mertkaradayi/redflag-sub001/internal/watch"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	a, err := app.New(context.Background(), cfg)
	if err != nil {
		log.Fatalf("Failed to initialize app: %v", err)
	}
	defer a.Close()

	feed := &watch.Feed{
		Source:    a.Chain,
		Cache:     a.Analyzer.Cache,
		Network:   "mainnet",
		EventType: suiclient.DefaultPublishEventType,
		Analyze: func(ctx context.Context, packageID, network string) error {
			_, _, err := a.Analyzer.Analyze(ctx, packageID, network)
			return err
		},
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Println("Watching for package publishes on mainnet")
	if err := feed.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("Feed stopped: %v", err)
	}
	log.Println("Watcher exiting")
}
