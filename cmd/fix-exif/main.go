package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"

	"exif-fixer/internal/config"
	apperrors "exif-fixer/internal/errors"
	"exif-fixer/internal/logging"
	"exif-fixer/internal/prompt"
	"exif-fixer/internal/reconcile"
	"exif-fixer/internal/services"
	"exif-fixer/internal/utils"
)

func run(ctx context.Context, cmd *cli.Command) error {
	pattern := cmd.Args().First()
	if pattern == "" {
		return fmt.Errorf("%w: a file pattern is required", apperrors.ErrInvalidInput)
	}

	cfg, err := config.Load(cmd.String("config"))
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if cmd.IsSet("skip") {
		cfg.SkipIfPresent = cmd.Bool("skip")
	}
	if cmd.IsSet("start-from") {
		cfg.StartFrom = int(cmd.Int("start-from"))
	}
	if cmd.IsSet("fix-modified-date") {
		cfg.SyncModifiedDate = cmd.Bool("fix-modified-date")
	}
	if cmd.IsSet("offset") {
		cfg.DefaultOffset = cmd.String("offset")
	}
	if cmd.IsSet("log-level") {
		cfg.LogLevel = cmd.String("log-level")
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger := logging.New(os.Stderr, cfg.LogLevel, cfg.LogFormat)

	storage := services.NewStorageService()
	images := services.NewImageService(storage, cfg.PreviewSize)
	defer images.Close()

	console := prompt.NewConsole(os.Stdin, os.Stdout, images)

	files, err := utils.ListCandidates(pattern)
	if err != nil {
		return err
	}
	logger.Debug().Str("pattern", pattern).Int("files", len(files)).Msg("candidates listed")

	runner := services.NewRunner(
		services.NewMetadataService(storage),
		reconcile.NewPolicy(cfg.SkipIfPresent, cfg.DefaultOffset),
		console,
		services.RunnerOptions{
			StartIndex:       cfg.StartIndex(),
			SyncModifiedDate: cfg.SyncModifiedDate,
		},
		logger,
	)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	_, err = runner.Run(ctx, files)
	switch {
	case errors.Is(err, apperrors.ErrNoCandidateFiles):
		console.Notify(reconcile.Event{Kind: reconcile.EventNoFiles})
		return nil
	case errors.Is(err, apperrors.ErrInterrupted):
		console.Notify(reconcile.Event{Kind: reconcile.EventInterrupted})
		logger.Info().Msg("run interrupted")
		return nil
	}
	return err
}

func main() {
	cmd := &cli.Command{
		Name:      "fix-exif",
		Usage:     "Audit and repair the capture time embedded in JPEG and PNG files",
		ArgsUsage: "<file pattern>",
		Action:    run,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "skip",
				Usage: "Skip files for which a capture time already exists",
			},
			&cli.IntFlag{
				Name:  "start-from",
				Usage: "Start from the given (1-based) file number",
			},
			&cli.BoolFlag{
				Name:  "fix-modified-date",
				Usage: "Set the file modified time to the capture time in the Exif",
			},
			&cli.StringFlag{
				Name:  "offset",
				Usage: "UTC offset written with corrected capture times",
				Value: "+09:00",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "Log level (debug, info, warn, error)",
				Value: "info",
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to an optional YAML config file",
				Sources: cli.EnvVars("FIX_EXIF_CONFIG"),
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "fix-exif: %v\n", err)
		os.Exit(1)
	}
}
