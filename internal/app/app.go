// Package app wires configuration into a ready-to-serve Analyzer. Shared by
// the API server and the live-feed watcher.
package app

import (
	"context"
	"log"

	"github.com/mertkaradayi/redflag-sub001/internal/archive"
	"github.com/mertkaradayi/redflag-sub001/internal/cache"
	"github.com/mertkaradayi/redflag-sub001/internal/config"
	"github.com/mertkaradayi/redflag-sub001/internal/knowledge"
	"github.com/mertkaradayi/redflag-sub001/internal/llmclient"
	"github.com/mertkaradayi/redflag-sub001/internal/pipeline"
	"github.com/mertkaradayi/redflag-sub001/internal/suiclient"
)

type App struct {
	Config   *config.Config
	Chain    *suiclient.Client
	Analyzer *pipeline.Analyzer

	llm llmclient.Client
}

func New(ctx context.Context, cfg *config.Config) (*App, error) {
	gemini, err := llmclient.NewGeminiClient(ctx, cfg.GeminiAPIKey, cfg.Model)
	if err != nil {
		return nil, err
	}
	llm := &llmclient.Retry{Inner: gemini, Timeout: cfg.LLMTimeout}

	var store cache.Store
	if cfg.DatabaseURL != "" {
		pg, err := cache.NewPostgresStore(cfg.DatabaseURL)
		if err != nil {
			gemini.Close()
			return nil, err
		}
		store = pg
	} else {
		log.Println("RESULT_CACHE_PG_DSN not set, using in-memory result cache")
		store = cache.NewMemoryStore()
	}

	chain := suiclient.New(cfg.RPCEndpoints, cfg.WSEndpoints)
	analyzer := &pipeline.Analyzer{
		Chain:     chain,
		LLM:       llm,
		KB:        knowledge.MustLoad(),
		Cache:     cache.New(store),
		DepLookup: cfg.DepLookup,
	}

	if cfg.Archive.Enabled {
		s3, err := archive.NewS3Store(archive.S3Config{
			Endpoint:  cfg.Archive.Endpoint,
			Region:    cfg.Archive.Region,
			AccessKey: cfg.Archive.AccessKey,
			SecretKey: cfg.Archive.SecretKey,
			Bucket:    cfg.Archive.Bucket,
			UseSSL:    cfg.Archive.UseSSL,
		})
		if err != nil {
			log.Printf("Card archive disabled: %v", err)
		} else {
			analyzer.Archive = s3
		}
	}

	return &App{Config: cfg, Chain: chain, Analyzer: analyzer, llm: llm}, nil
}

func (a *App) Close() {
	if a.llm != nil {
		_ = a.llm.Close()
	}
}
