// Package watch runs the live ingestion feed: it subscribes to on-chain
// package-publish events and analyzes each new package as it appears, so
// that user-facing lookups are warm cache hits.
package watch

import (
	"context"
	"log"
	"time"

	"github.com/mertkaradayi/redflag-sub001/internal/artifact"
	"github.com/mertkaradayi/redflag-sub001/internal/cache"
	"github.com/mertkaradayi/redflag-sub001/internal/suiclient"
)

// EventSource is the subscription surface of suiclient.Client.
type EventSource interface {
	SubscribeEvents(ctx context.Context, network, eventType string, handle func(suiclient.PublishEvent)) error
}

// CacheReader answers "has this package already been analyzed" without
// triggering work. Satisfied by cache.Cache.
type CacheReader interface {
	Peek(ctx context.Context, key string) (artifact.SafetyCard, bool)
}

// AnalyzeFunc runs the full analysis for one package. In production this is
// a thin wrapper over pipeline.Analyzer.Analyze.
type AnalyzeFunc func(ctx context.Context, packageID, network string) error

type Feed struct {
	Source    EventSource
	Cache     CacheReader
	Analyze   AnalyzeFunc
	Network   string
	EventType string

	// BaseDelay and MaxDelay bound the reconnect backoff. Zero values get
	// defaults of 1s and 60s.
	BaseDelay time.Duration
	MaxDelay  time.Duration
}

// Run blocks, consuming publish events until the context is cancelled.
// Connection failures reconnect with exponential backoff; a failed analysis
// of one package never affects the next.
func (f *Feed) Run(ctx context.Context) error {
	base := f.BaseDelay
	if base <= 0 {
		base = time.Second
	}
	max := f.MaxDelay
	if max <= 0 {
		max = time.Minute
	}

	delay := base
	for {
		err := f.Source.SubscribeEvents(ctx, f.Network, f.EventType, func(ev suiclient.PublishEvent) {
			delay = base
			f.handle(ctx, ev)
		})
		if ctx.Err() != nil {
			return ctx.Err()
		}
		log.Printf("watch: %s stream dropped: %v (reconnecting in %s)", f.Network, err, delay)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		if delay *= 2; delay > max {
			delay = max
		}
	}
}

func (f *Feed) handle(ctx context.Context, ev suiclient.PublishEvent) {
	if ev.PackageID == "" {
		log.Printf("watch: %s event without packageId, skipping", f.Network)
		return
	}
	if f.Cache != nil {
		if _, ok := f.Cache.Peek(ctx, cache.Key(ev.PackageID, f.Network)); ok {
			log.Printf("watch: %s@%s already analyzed, skipping", ev.PackageID, f.Network)
			return
		}
	}
	log.Printf("watch: new package %s@%s (sender %s)", ev.PackageID, f.Network, ev.Sender)
	if err := f.Analyze(ctx, ev.PackageID, f.Network); err != nil {
		log.Printf("watch: analysis of %s@%s failed: %v", ev.PackageID, f.Network, err)
		return
	}
	log.Printf("watch: analysis of %s@%s complete", ev.PackageID, f.Network)
}
