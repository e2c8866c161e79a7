package handler

import (
	"encoding/csv"
	"errors"
	"io"
	"net/http"
	"strconv"
	"sync"

	"commentgraph/internal/models"
	"commentgraph/internal/repository"
	"commentgraph/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handler handles HTTP requests
type Handler struct {
	analyzer *service.Analyzer
	defaults service.Options
	logger   *zap.Logger

	// The pipeline is single-threaded and writes fixed file names, so
	// analyze requests run one at a time.
	mu sync.Mutex
}

// NewHandler creates a new API handler. defaults are the configured run
// options that analyze requests override.
func NewHandler(analyzer *service.Analyzer, defaults service.Options, logger *zap.Logger) *Handler {
	return &Handler{
		analyzer: analyzer,
		defaults: defaults,
		logger:   logger,
	}
}

// RegisterRoutes registers all API routes
func (h *Handler) RegisterRoutes(r *gin.Engine) {
	api := r.Group("/api/v1")
	{
		api.POST("/analyze", h.Analyze)

		api.GET("/runs", h.ListRuns)
		api.GET("/runs/:id", h.GetRun)
		api.GET("/runs/:id/flagged", h.GetFlagged)
		api.GET("/runs/:id/flagged.csv", h.ExportFlaggedCSV)
	}

	r.GET("/health", h.HealthCheck)
}

// Analyze runs the pipeline synchronously and returns the run summary.
func (h *Handler) Analyze(c *gin.Context) {
	var req models.AnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	opts := h.defaults
	if req.InputDir != "" {
		opts.InputDir = req.InputDir
	}
	if req.MaxVideos != nil {
		opts.MaxVideos = *req.MaxVideos
	}
	if req.BotThreshold != nil {
		opts.Thresholds.Bot = *req.BotThreshold
	}
	if req.SpamThreshold != nil {
		opts.Thresholds.Spam = *req.SpamThreshold
	}
	if req.FlaggedOnly != nil {
		opts.FlaggedOnly = *req.FlaggedOnly
	}

	if err := opts.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := opts.Thresholds.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	run, err := h.analyzer.Run(c.Request.Context(), opts)
	if err != nil {
		h.logger.Error("Analysis failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "analysis failed"})
		return
	}

	c.JSON(http.StatusOK, run)
}

// ListRuns returns the most recent runs
func (h *Handler) ListRuns(c *gin.Context) {
	limit := 20
	if s := c.Query("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit (must be a positive integer)"})
			return
		}
		limit = n
	}

	runs, err := h.analyzer.ListRuns(limit)
	if err != nil {
		h.historyError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"runs":  runs,
		"total": len(runs),
	})
}

// GetRun returns a single run
func (h *Handler) GetRun(c *gin.Context) {
	run, err := h.analyzer.GetRun(c.Param("id"))
	if err != nil {
		h.historyError(c, err)
		return
	}

	c.JSON(http.StatusOK, run)
}

// GetFlagged returns the entities flagged by a run
func (h *Handler) GetFlagged(c *gin.Context) {
	runID := c.Param("id")
	flagged, err := h.analyzer.GetFlagged(runID)
	if err != nil {
		h.historyError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"run_id":  runID,
		"flagged": flagged,
		"total":   len(flagged),
	})
}

// ExportFlaggedCSV exports the entities flagged by a run to CSV
func (h *Handler) ExportFlaggedCSV(c *gin.Context) {
	runID := c.Param("id")
	flagged, err := h.analyzer.GetFlagged(runID)
	if err != nil {
		h.historyError(c, err)
		return
	}

	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", "attachment; filename=flagged_"+runID+".csv")

	writer := csv.NewWriter(c.Writer)
	defer writer.Flush()

	writer.Write([]string{"Id", "Type", "Behavior"})
	for _, f := range flagged {
		writer.Write([]string{f.Entity, string(f.EntityType), f.Behavior})
	}
}

// HealthCheck returns service health
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "commentgraph",
		"history": h.analyzer.HasHistory(),
	})
}

func (h *Handler) historyError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, repository.ErrRunNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "run not found"})
	case errors.Is(err, service.ErrNoHistory):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
	default:
		h.logger.Error("Failed to read run history", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read run history"})
	}
}
