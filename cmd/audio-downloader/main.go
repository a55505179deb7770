package main

import (
	"context"
	"log"
	"os"
	"os/signal"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/alanbriolat/audio-downloader"
	"github.com/alanbriolat/audio-downloader/async"
)

func main() {
	config := zap.NewDevelopmentConfig()
	config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	config.Level.SetLevel(zap.InfoLevel)
	logger, err := config.Build()
	if err != nil {
		log.Fatalf("can't initialize zap logger: %v", err)
	}
	defer logger.Sync()
	zap.RedirectStdLog(logger)
	zap.ReplaceGlobals(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = audio_downloader.WithLogger(ctx, logger)

	app := &cli.App{
		Name:  "audio-downloader",
		Usage: "save the audio track of a video, converted by a remote backend",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "backend",
				Value:   audio_downloader.DefaultBackendURL,
				Usage:   "conversion backend base `URL`",
				EnvVars: []string{"AUDIO_DOWNLOADER_BACKEND"},
			},
			&cli.StringFlag{
				Name:    "history",
				Usage:   "record attempts in the database at `PATH`",
				EnvVars: []string{"AUDIO_DOWNLOADER_HISTORY"},
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "enable debug logging",
			},
		},
		Before: func(c *cli.Context) error {
			if c.Bool("debug") {
				config.Level.SetLevel(zap.DebugLevel)
			}
			return nil
		},
		Commands: []*cli.Command{
			downloadCommand(ctx),
			streamCommand(ctx),
			historyCommand(ctx),
			fakeBackendCommand(ctx),
		},
		HideHelpCommand: true,
	}

	result := async.Run(func() error { return app.Run(os.Args) })

	select {
	case err = <-result:
		if err != nil {
			logger.Fatal(err.Error())
		}
	case <-ctx.Done():
		stop()
		err = <-result
		if err != nil {
			logger.Fatal(err.Error())
		}
	}
}
