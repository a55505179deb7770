package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"sync"
	"text/tabwriter"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/alanbriolat/audio-downloader"
	"github.com/alanbriolat/audio-downloader/internal/boltdb"
	"github.com/alanbriolat/audio-downloader/internal/fakebackend"
	"github.com/alanbriolat/audio-downloader/internal/session"
)

var requestFlags = []cli.Flag{
	&cli.BoolFlag{
		Name:  "mp3",
		Value: true,
		Usage: "convert to MP3",
	},
	&cli.BoolFlag{
		Name:  "keep-original",
		Usage: "also keep the original audio",
	},
	&cli.BoolFlag{
		Name:    "yes",
		Aliases: []string{"y"},
		Usage:   "don't ask before using unrecognised URLs",
	},
}

func downloadCommand(ctx context.Context) *cli.Command {
	return &cli.Command{
		Name:      "download",
		Usage:     "download converted audio for each URL",
		ArgsUsage: "URL...",
		Flags: append([]cli.Flag{
			&cli.StringFlag{
				Name:  "target",
				Value: ".",
				Usage: "save downloaded audio to `DIR`",
			},
		}, requestFlags...),
		Action: func(c *cli.Context) error {
			return withSession(ctx, c, func(ses *session.Controller) error {
				for _, source := range c.Args().Slice() {
					if err := ses.StartDownload(ctx, requestFromFlags(c, source)); err != nil {
						return err
					}
				}
				return nil
			})
		},
	}
}

func streamCommand(ctx context.Context) *cli.Command {
	return &cli.Command{
		Name:      "stream",
		Usage:     "follow the backend's progress for each URL",
		ArgsUsage: "URL...",
		Flags:     requestFlags,
		Action: func(c *cli.Context) error {
			return withSession(ctx, c, func(ses *session.Controller) error {
				for _, source := range c.Args().Slice() {
					if err := ses.StreamDownload(ctx, requestFromFlags(c, source)); err != nil {
						return err
					}
				}
				return nil
			})
		},
	}
}

func historyCommand(ctx context.Context) *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "list recorded attempts",
		Action: func(c *cli.Context) error {
			path := c.String("history")
			if path == "" {
				return errors.New("no history database, use --history")
			}
			db, err := boltdb.New(path)
			if err != nil {
				return fmt.Errorf("failed to open history: %w", err)
			}
			defer db.Close()
			records, err := db.ListAttempts()
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "STARTED\tMODE\tRESULT\tURL\tDETAIL")
			for _, r := range records {
				detail := r.SavedPath
				if r.Error != "" {
					detail = r.Error
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", r.StartedAt.Format(time.DateTime), r.Mode, r.Phase, r.URL, detail)
			}
			return w.Flush()
		},
	}
}

func fakeBackendCommand(ctx context.Context) *cli.Command {
	return &cli.Command{
		Name:  "fake-backend",
		Usage: "serve a fake conversion backend for testing",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "listen",
				Value: "127.0.0.1:8080",
				Usage: "listen on `ADDR`",
			},
			&cli.IntFlag{
				Name:  "status",
				Usage: "respond to /download-file with status `CODE`",
			},
			&cli.DurationFlag{
				Name:  "interval",
				Value: 500 * time.Millisecond,
				Usage: "delay between progress events",
			},
		},
		Action: func(c *cli.Context) error {
			logger := audio_downloader.Logger(ctx).Sugar()
			backend := fakebackend.New()
			backend.Status = c.Int("status")
			backend.ErrorText = http.StatusText(backend.Status)
			backend.EventInterval = c.Duration("interval")

			srv := &http.Server{Addr: c.String("listen"), Handler: backend.Handler()}
			var wg sync.WaitGroup
			wg.Add(1)
			go func() {
				defer wg.Done()
				<-ctx.Done()
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := srv.Shutdown(shutdownCtx); err != nil {
					logger.Errorf("shutdown failed: %v", err)
				}
			}()
			logger.Infof("Fake backend listening on http://%s", srv.Addr)
			if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			wg.Wait()
			return nil
		},
	}
}

func requestFromFlags(c *cli.Context, source string) audio_downloader.DownloadRequest {
	return audio_downloader.DownloadRequest{
		URL:          source,
		ConvertMP3:   c.Bool("mp3"),
		KeepOriginal: c.Bool("keep-original"),
	}
}

// withSession runs f with a session configured from the command line, rendering its events to the terminal.
func withSession(ctx context.Context, c *cli.Context, f func(ses *session.Controller) error) error {
	if c.NArg() == 0 {
		return errors.New("no URL given")
	}
	logger := audio_downloader.Logger(ctx).Sugar()

	cfg := session.DefaultConfig
	cfg.BackendURL = c.String("backend")
	if c.IsSet("target") {
		cfg.SaveDir = c.String("target")
	}
	cfg.Confirmer = newPromptConfirmer(os.Stdin, os.Stdout, c.Bool("yes"))
	if path := c.String("history"); path != "" {
		db, err := boltdb.New(path)
		if err != nil {
			return fmt.Errorf("failed to open history: %w", err)
		}
		defer db.Close()
		cfg.History = db
	}

	ses, err := session.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer ses.Close()

	events, err := ses.Subscribe()
	if err != nil {
		return err
	}
	r := newRenderer(os.Stdout)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		r.run(events)
	}()

	err = f(ses)
	if errors.Is(err, context.Canceled) {
		logger.Info("Exiting gracefully...")
		err = nil
	}
	ses.Close()
	wg.Wait()
	return err
}
