package main

import (
	"fmt"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"commentgraph/internal/config"
	"commentgraph/internal/corpus"
	"commentgraph/internal/parser"
	"commentgraph/internal/repository"
	"commentgraph/internal/service"
)

// app holds the components shared by every command.
type app struct {
	cfg      *config.Config
	logger   *zap.Logger
	repo     repository.RunRepository
	analyzer *service.Analyzer
}

// newApp loads the configuration, lets override adjust it before validation
// and wires the pipeline. The returned app must be closed.
func newApp(c *cli.Context, override func(*config.Config)) (*app, error) {
	cfg, err := config.LoadConfig(c.String("config"))
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if override != nil {
		override(cfg)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	logger, err := newLogger(cfg.Log.Format)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	a := &app{cfg: cfg, logger: logger}

	if cfg.Database.Enabled {
		repo, err := repository.NewRunRepository(cfg.Database.Type, cfg.Database.Path, logger)
		if err != nil {
			logger.Sync()
			return nil, fmt.Errorf("failed to initialize repository: %w", err)
		}
		a.repo = repo
	}

	policy, _ := parser.ParsePolicy(cfg.Input.LikesPolicy)
	loader := corpus.NewLoader(corpus.Options{
		Extension:   cfg.Input.Extension,
		LikesPolicy: policy,
	}, logger)

	a.analyzer = service.NewAnalyzer(loader, a.repo, logger)
	return a, nil
}

func newLogger(format string) (*zap.Logger, error) {
	if format == "json" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

// options returns the run options described by the configuration.
func (a *app) options() service.Options {
	return service.Options{
		InputDir:    a.cfg.Input.Directory,
		MaxVideos:   a.cfg.Input.MaxVideos,
		Thresholds:  a.cfg.Detector,
		OutputDir:   a.cfg.Output.Directory,
		FlaggedOnly: a.cfg.Output.FlaggedOnly,
		DumpRecords: a.cfg.Output.DumpRecords,
	}
}

func (a *app) Close() {
	if a.repo != nil {
		if err := a.repo.Close(); err != nil {
			a.logger.Warn("Failed to close repository", zap.Error(err))
		}
	}
	a.logger.Sync()
}
