package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"

	"github.com/rxtech-lab/argo-quotes/internal/logger"
	"github.com/rxtech-lab/argo-quotes/internal/version"
)

// app carries what the commands share. log is created on first use unless preset.
type app struct {
	out    io.Writer
	errOut io.Writer
	log    *logger.Logger
}

func (a *app) logger(cmd *cli.Command) (*logger.Logger, error) {
	if a.log != nil {
		return a.log, nil
	}

	log, err := logger.NewLoggerWithLevel(cmd.String("log-level"))
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cmd.String("log-level"), err)
	}

	a.log = log

	return log, nil
}

func (a *app) command() *cli.Command {
	return &cli.Command{
		Name:    "quotes",
		Usage:   "Download daily open and close prices and analyse them",
		Version: version.GetVersion(),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				Sources: cli.EnvVars(logger.LevelEnv),
			},
		},
		Commands: []*cli.Command{
			a.fetchCommand(),
			a.seasonalityCommand(),
			a.providersCommand(),
			a.schemaCommand(),
		},
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	a := &app{out: os.Stdout, errOut: os.Stderr, log: nil}
	err := a.command().Run(ctx, os.Args)

	if a.log != nil {
		_ = a.log.Sync()
	}

	stop()

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
