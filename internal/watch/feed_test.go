package watch

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mertkaradayi/redflag-sub001/internal/artifact"
	"github.com/mertkaradayi/redflag-sub001/internal/cache"
	"github.com/mertkaradayi/redflag-sub001/internal/suiclient"
)

type scriptedSource struct {
	batches [][]suiclient.PublishEvent
	dials   int
}

func (s *scriptedSource) SubscribeEvents(ctx context.Context, network, eventType string, handle func(suiclient.PublishEvent)) error {
	if s.dials >= len(s.batches) {
		<-ctx.Done()
		return ctx.Err()
	}
	batch := s.batches[s.dials]
	s.dials++
	for _, ev := range batch {
		handle(ev)
	}
	return errors.New("stream closed")
}

func TestFeed_AnalyzesNewPackagesAndSkipsSeen(t *testing.T) {
	c := cache.New(cache.NewMemoryStore())
	_, _, _ = c.GetOrCompute(context.Background(), cache.Key("0xseen", "mainnet"), func(context.Context) (artifact.SafetyCard, error) {
		return artifact.SafetyCard{RiskLevel: "low"}, nil
	})

	var analyzed []string
	src := &scriptedSource{batches: [][]suiclient.PublishEvent{{
		{PackageID: "0xseen"},
		{PackageID: "0xnew"},
		{}, // no packageId
		{PackageID: "0xboom"},
		{PackageID: "0xafter"},
	}}}

	feed := &Feed{
		Source:  src,
		Cache:   c,
		Network: "mainnet",
		Analyze: func(ctx context.Context, packageID, network string) error {
			analyzed = append(analyzed, packageID+"@"+network)
			if packageID == "0xboom" {
				return errors.New("pipeline failure")
			}
			return nil
		},
		BaseDelay: time.Millisecond,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 250*time.Millisecond)
	defer cancel()
	if err := feed.Run(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Run: %v", err)
	}

	want := []string{"0xnew@mainnet", "0xboom@mainnet", "0xafter@mainnet"}
	if len(analyzed) != len(want) {
		t.Fatalf("analyzed = %v, want %v", analyzed, want)
	}
	for i := range want {
		if analyzed[i] != want[i] {
			t.Fatalf("analyzed[%d] = %s, want %s", i, analyzed[i], want[i])
		}
	}
}

func TestFeed_ReconnectsAfterStreamFailure(t *testing.T) {
	var analyzed int
	src := &scriptedSource{batches: [][]suiclient.PublishEvent{
		{{PackageID: "0xa"}},
		{{PackageID: "0xb"}},
	}}
	feed := &Feed{
		Source:  src,
		Network: "testnet",
		Analyze: func(context.Context, string, string) error {
			analyzed++
			return nil
		},
		BaseDelay: time.Millisecond,
		MaxDelay:  5 * time.Millisecond,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()
	_ = feed.Run(ctx)

	if src.dials != 2 {
		t.Fatalf("expected 2 subscription attempts, got %d", src.dials)
	}
	if analyzed != 2 {
		t.Fatalf("expected 2 analyses across reconnects, got %d", analyzed)
	}
}
