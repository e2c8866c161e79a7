package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"commentgraph/internal/config"
	"commentgraph/internal/detector"
	"commentgraph/internal/handler"
	"commentgraph/internal/models"
)

func analyzeCommand() *cli.Command {
	return &cli.Command{
		Name:  "analyze",
		Usage: "Parse a directory of comment dumps, export the graphs and report detections",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "input",
				Aliases: []string{"i"},
				Usage:   "Read dump files from `DIR`",
			},
			&cli.IntFlag{
				Name:    "max-videos",
				Aliases: []string{"n"},
				Usage:   "Process at most `N` dump files",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Write CSV tables to `DIR`",
			},
			&cli.IntFlag{
				Name:  "bot-threshold",
				Usage: "Distinct authors a text needs to be bot-like",
			},
			&cli.IntFlag{
				Name:  "spam-threshold",
				Usage: "Repeats by one author a text needs to be spam",
			},
			&cli.BoolFlag{
				Name:  "inclusive",
				Usage: "Flag counts equal to a threshold, not only above it",
			},
			&cli.StringFlag{
				Name:  "likes-policy",
				Usage: "Handle malformed Likes lines with drop, zero or abort",
			},
			&cli.BoolFlag{
				Name:  "flagged-only",
				Usage: "Restrict the commenter-comment tables to flagged rows",
			},
			&cli.BoolFlag{
				Name:  "dump-records",
				Usage: "Also write every parsed record to records.json",
			},
			&cli.BoolFlag{
				Name:  "no-history",
				Usage: "Do not record the run in the database",
			},
		},
		Action: runAnalyze,
	}
}

func runAnalyze(c *cli.Context) error {
	a, err := newApp(c, func(cfg *config.Config) {
		if c.IsSet("input") {
			cfg.Input.Directory = c.String("input")
		}
		if c.IsSet("max-videos") {
			cfg.Input.MaxVideos = c.Int("max-videos")
		}
		if c.IsSet("output") {
			cfg.Output.Directory = c.String("output")
		}
		if c.IsSet("bot-threshold") {
			cfg.Detector.Bot = c.Int("bot-threshold")
		}
		if c.IsSet("spam-threshold") {
			cfg.Detector.Spam = c.Int("spam-threshold")
		}
		if c.Bool("inclusive") {
			cfg.Detector.Comparison = detector.GreaterOrEqual
		}
		if c.IsSet("likes-policy") {
			cfg.Input.LikesPolicy = c.String("likes-policy")
		}
		if c.IsSet("flagged-only") {
			cfg.Output.FlaggedOnly = c.Bool("flagged-only")
		}
		if c.IsSet("dump-records") {
			cfg.Output.DumpRecords = c.Bool("dump-records")
		}
		if c.Bool("no-history") {
			cfg.Database.Enabled = false
		}
	})
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	run, err := a.analyzer.Run(ctx, a.options())
	if err != nil {
		return err
	}

	printRun(run)
	return nil
}

func printRun(run *models.Run) {
	fmt.Printf("Run %s\n", run.ID)
	fmt.Printf("  Videos processed:       %d\n", run.VideosProcessed)
	fmt.Printf("  Files skipped:          %d\n", run.FilesSkipped)
	fmt.Printf("  Records dropped:        %d\n", run.RecordsDropped)
	fmt.Println("Detection Report:")
	fmt.Printf("  Total Bot-like Comments: %d\n", run.TotalBotLike)
	fmt.Printf("  Total Spam Comments:     %d\n", run.TotalSpam)
	if len(run.Outputs) > 0 {
		fmt.Println("Outputs:")
		for _, path := range run.Outputs {
			fmt.Printf("  %s\n", path)
		}
	}
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the analysis and run history HTTP API",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Listen on `PORT`",
			},
		},
		Action: runServe,
	}
}

func runServe(c *cli.Context) error {
	a, err := newApp(c, func(cfg *config.Config) {
		if c.IsSet("port") {
			cfg.Server.Port = c.String("port")
		}
	})
	if err != nil {
		return err
	}
	defer a.Close()
	logger := a.logger

	apiHandler := handler.NewHandler(a.analyzer, a.options(), logger)

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Info("Request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)))
	})
	apiHandler.RegisterRoutes(router)

	serverAddr := fmt.Sprintf(":%s", a.cfg.Server.Port)
	srv := &http.Server{
		Addr:    serverAddr,
		Handler: router,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	logger.Info("Server starting",
		zap.String("address", serverAddr),
		zap.Bool("history", a.repo != nil))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return fmt.Errorf("failed to start server: %w", err)
	case <-quit:
	}

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	logger.Info("Server exited")
	return nil
}

func runsCommand() *cli.Command {
	return &cli.Command{
		Name:  "runs",
		Usage: "List recorded runs, or show the entities flagged by one run",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "limit",
				Aliases: []string{"l"},
				Usage:   "Show at most `N` runs",
				Value:   20,
			},
		},
		ArgsUsage: "[RUN_ID]",
		Action:    runRuns,
	}
}

func runRuns(c *cli.Context) error {
	a, err := newApp(c, func(cfg *config.Config) {
		cfg.Database.Enabled = true
	})
	if err != nil {
		return err
	}
	defer a.Close()

	if c.NArg() > 0 {
		runID := c.Args().First()
		run, err := a.analyzer.GetRun(runID)
		if err != nil {
			return err
		}
		printRun(run)

		flagged, err := a.analyzer.GetFlagged(runID)
		if err != nil {
			return err
		}
		fmt.Printf("Flagged entities: %d\n", len(flagged))
		for _, f := range flagged {
			fmt.Printf("  %-9s  %-15s  %s\n", f.EntityType, f.Behavior, f.Entity)
		}
		return nil
	}

	runs, err := a.analyzer.ListRuns(c.Int("limit"))
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("No runs recorded.")
		return nil
	}
	for _, run := range runs {
		fmt.Printf("%s  %s  videos=%d bot-like=%d spam=%d  %s\n",
			run.ID,
			run.StartedAt.Local().Format(time.DateTime),
			run.VideosProcessed,
			run.TotalBotLike,
			run.TotalSpam,
			run.InputDir)
	}
	return nil
}
