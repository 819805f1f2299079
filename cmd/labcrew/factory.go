package main

import (
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"

	"github.com/mcrossley/labcrew/internal/config"
	"github.com/mcrossley/labcrew/internal/extract"
	"github.com/mcrossley/labcrew/internal/llm"
	"github.com/mcrossley/labcrew/internal/orchestrator"
	"github.com/mcrossley/labcrew/internal/pipeline"
	"github.com/mcrossley/labcrew/internal/tool"
)

// buildRegistry wires the production tool set from config.
func buildRegistry(cfg *config.Config) (*tool.Registry, error) {
	reg := tool.NewRegistry()

	reader := tool.NewDocumentReader(extract.Text, tool.DocumentReaderConfig{
		Attempts: cfg.Document.ReadAttempts,
		Backoff:  cfg.Document.ReadBackoff,
	})
	if err := reg.Register(reader); err != nil {
		return nil, err
	}
	if err := reg.Register(tool.NewWebSearch(tool.NewSerperClient(cfg.Serper.APIKey))); err != nil {
		return nil, err
	}
	if err := reg.Register(tool.NewNutritionAnalysis()); err != nil {
		return nil, err
	}
	if err := reg.Register(tool.NewExercisePlanning()); err != nil {
		return nil, err
	}
	return reg, nil
}

// buildRunner assembles the pipeline runner from config: the Claude client,
// the tool registry, and either the built-in pipelines or a custom YAML
// definition. The client is returned alongside the runner so callers can
// report token usage after a run.
func buildRunner(cfg *config.Config) (*pipeline.Runner, *llm.Client, error) {
	client, err := llm.NewClient(llm.ClientConfig{
		Model:         anthropic.Model(cfg.Anthropic.Model),
		APIKey:        cfg.Anthropic.APIKey,
		UseAWSBedrock: cfg.Anthropic.UseBedrock,
		AWSRegion:     cfg.Anthropic.AWSRegion,
		AWSProfile:    cfg.Anthropic.AWSProfile,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("create Claude client: %w", err)
	}

	reg, err := buildRegistry(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("build tool registry: %w", err)
	}

	opts := []orchestrator.Option{orchestrator.WithMaxParallel(cfg.Pipeline.MaxParallel)}

	if cfg.Pipeline.File != "" {
		def, err := pipeline.Load(cfg.Pipeline.File)
		if err != nil {
			return nil, nil, err
		}
		runner, err := pipeline.NewRunnerFromDefinition(client, reg, def, opts...)
		if err != nil {
			return nil, nil, err
		}
		return runner, client, nil
	}
	runner, err := pipeline.NewRunner(client, reg, opts...)
	if err != nil {
		return nil, nil, err
	}
	return runner, client, nil
}
