// Command quarry runs the document ingestion and retrieval pipeline.
package main

import (
	"os"

	configfile "github.com/quarry-labs/quarry/internal/adapters/driven/config/file"
	"github.com/quarry-labs/quarry/internal/adapters/driven/fileprovider"
	"github.com/quarry-labs/quarry/internal/adapters/driven/llm/fallback"
	"github.com/quarry-labs/quarry/internal/adapters/driven/llm/heuristic"
	"github.com/quarry-labs/quarry/internal/adapters/driven/llm/openai"
	"github.com/quarry-labs/quarry/internal/adapters/driven/storage/sqlite"
	"github.com/quarry-labs/quarry/internal/adapters/driving/cli"
	"github.com/quarry-labs/quarry/internal/chunking"
	"github.com/quarry-labs/quarry/internal/core/ports/driven"
	"github.com/quarry-labs/quarry/internal/core/services"
	"github.com/quarry-labs/quarry/internal/extractors"
	"github.com/quarry-labs/quarry/internal/logger"
)

// version is overridden at build time via ldflags.
var version = "dev"

func main() {
	if err := run(); err != nil {
		logger.Error("%v", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := configfile.Load(os.Getenv("QUARRY_CONFIG_DIR"))
	if err != nil {
		return err
	}

	store, err := sqlite.NewStore(cfg.DataDir)
	if err != nil {
		return err
	}
	defer store.Close()

	intelligence := buildIntelligence(cfg)
	engine := chunking.New(
		chunking.WithChunkSize(cfg.Chunking.ChunkSize),
		chunking.WithOverlap(cfg.Chunking.Overlap),
	)

	worker := services.NewWorker(
		services.WorkerConfig{
			PollInterval: cfg.Worker.PollInterval,
			MaxAttempts:  cfg.Worker.MaxAttempts,
		},
		store,
		store,
		services.NewExtractionProcessor(fileprovider.New(), extractors.Defaults(), intelligence, engine),
		services.NewEnrichmentProcessor(intelligence, cfg.Exposure.BroadGroups),
		services.NewSemanticsProcessor(intelligence),
	)

	cli.SetVersion(version)
	cli.SetServices(&cli.Services{
		Ingestion: services.NewIngestionService(store),
		Retrieval: services.NewRetrievalService(store, services.NewPolicyService(), cfg.TenantID),
		Diff:      services.NewDiffService(store, intelligence),
		Worker:    worker,
		Store:     store,
		TenantID:  cfg.TenantID,
	})

	return cli.Execute()
}

// buildIntelligence wires the remote model behind the local heuristic
// fallback. Without an API key the heuristic runs alone.
func buildIntelligence(cfg *configfile.Config) driven.Intelligence {
	local := heuristic.New()
	if cfg.OpenAI.APIKey == "" {
		return fallback.New(nil, local)
	}

	remote, err := openai.New(openai.Config{
		APIKey:  cfg.OpenAI.APIKey,
		BaseURL: cfg.OpenAI.BaseURL,
		Model:   cfg.OpenAI.Model,
		Timeout: cfg.OpenAI.Timeout,
	})
	if err != nil {
		logger.Warn("remote model disabled: %v", err)
		return fallback.New(nil, local)
	}
	return fallback.New(remote, local)
}
