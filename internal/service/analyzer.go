package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"commentgraph/internal/corpus"
	"commentgraph/internal/detector"
	"commentgraph/internal/export"
	"commentgraph/internal/graph"
	"commentgraph/internal/models"
	"commentgraph/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Options are the per-run parameters of the pipeline.
type Options struct {
	InputDir    string
	MaxVideos   int
	Thresholds  detector.Thresholds
	OutputDir   string
	FlaggedOnly bool
	DumpRecords bool
}

// Validate checks the options before any file is touched. Thresholds are
// checked by the detector.
func (o Options) Validate() error {
	if o.InputDir == "" {
		return errors.New("input directory is required")
	}
	if o.OutputDir == "" {
		return errors.New("output directory is required")
	}
	if o.MaxVideos < 1 {
		return fmt.Errorf("max videos must be >= 1, got %d", o.MaxVideos)
	}
	return nil
}

// Analyzer runs the load, build, detect and export pipeline.
type Analyzer struct {
	loader *corpus.Loader
	repo   repository.RunRepository
	logger *zap.Logger
}

// NewAnalyzer creates a new analyzer. repo may be nil, in which case runs are
// not persisted.
func NewAnalyzer(
	loader *corpus.Loader,
	repo repository.RunRepository,
	logger *zap.Logger,
) *Analyzer {
	return &Analyzer{
		loader: loader,
		repo:   repo,
		logger: logger,
	}
}

// HasHistory reports whether runs are persisted.
func (a *Analyzer) HasHistory() bool {
	return a.repo != nil
}

// Run executes one pipeline run and returns its summary. ctx is only
// checked between stages.
func (a *Analyzer) Run(ctx context.Context, opts Options) (*models.Run, error) {
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	det, err := detector.New(opts.Thresholds, a.logger)
	if err != nil {
		return nil, err
	}
	th := det.Thresholds()

	run := &models.Run{
		ID:            uuid.New().String(),
		InputDir:      opts.InputDir,
		MaxVideos:     opts.MaxVideos,
		BotThreshold:  th.Bot,
		SpamThreshold: th.Spam,
		Comparison:    string(th.Comparison),
		StartedAt:     time.Now().UTC(),
	}
	log := a.logger.With(zap.String("run_id", run.ID))
	log.Info("Starting analysis",
		zap.String("input_dir", opts.InputDir),
		zap.Int("max_videos", opts.MaxVideos))

	c := a.loader.Load(opts.InputDir, opts.MaxVideos)
	run.VideosProcessed = len(c.Videos)
	run.FilesSkipped = len(c.Skipped)
	run.RecordsDropped = c.RecordsDropped
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	co := graph.BuildCoCommenter(c.Videos)
	cc := graph.BuildCommenterComment(c.Videos)
	vc := graph.BuildVideoCommenter(c.Videos)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	res := det.Detect(cc.Aggregate)
	run.TotalBotLike = res.Report.TotalBotLike
	run.TotalSpam = res.Report.TotalSpam
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	tables := []*models.Graph{
		co.Table(),
		cc.Table(res, opts.FlaggedOnly),
		vc.Table(),
	}
	for _, g := range tables {
		paths, err := export.Export(g, opts.OutputDir)
		if err != nil {
			return nil, fmt.Errorf("failed to export %s graph: %w", g.Schema, err)
		}
		run.Outputs = append(run.Outputs, paths.Nodes, paths.Edges)
		log.Info("Graph exported",
			zap.String("schema", string(g.Schema)),
			zap.Int("nodes", len(g.Nodes)),
			zap.Int("edges", len(g.Edges)))
	}
	if opts.DumpRecords {
		path, err := export.WriteRecordsJSON(c.Videos, opts.OutputDir)
		if err != nil {
			return nil, fmt.Errorf("failed to dump records: %w", err)
		}
		run.Outputs = append(run.Outputs, path)
	}

	completed := time.Now().UTC()
	run.CompletedAt = &completed

	if a.repo != nil {
		if err := a.repo.SaveRun(run, res.Flagged()); err != nil {
			return nil, fmt.Errorf("failed to save run: %w", err)
		}
	}

	log.Info("Analysis completed",
		zap.Int("videos", run.VideosProcessed),
		zap.Int("skipped_files", run.FilesSkipped),
		zap.Int("total_bot_like_comments", run.TotalBotLike),
		zap.Int("total_spam_comments", run.TotalSpam),
		zap.Duration("elapsed", completed.Sub(run.StartedAt)))

	return run, nil
}

// GetRun returns a stored run.
func (a *Analyzer) GetRun(id string) (*models.Run, error) {
	if a.repo == nil {
		return nil, ErrNoHistory
	}
	return a.repo.GetRun(id)
}

// ListRuns returns the most recent stored runs.
func (a *Analyzer) ListRuns(limit int) ([]*models.Run, error) {
	if a.repo == nil {
		return nil, ErrNoHistory
	}
	return a.repo.ListRuns(limit)
}

// GetFlagged returns the entities flagged by a stored run.
func (a *Analyzer) GetFlagged(runID string) ([]models.FlaggedEntity, error) {
	if a.repo == nil {
		return nil, ErrNoHistory
	}
	return a.repo.GetFlagged(runID)
}

// ErrNoHistory is returned by history lookups when no store is configured.
var ErrNoHistory = errors.New("run history is disabled")
