package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"commentgraph/internal/config"
)

const version = "0.1.0"

func main() {
	app := &cli.App{
		Name:    "commentgraph",
		Usage:   "Build commenter graphs from YouTube comment dumps and flag bot-like and spam activity",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Load configuration from `FILE`",
				Value:   config.DefaultPath,
			},
		},
		Commands: []*cli.Command{
			analyzeCommand(),
			serveCommand(),
			runsCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}
