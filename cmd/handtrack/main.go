// Command handtrack runs the webcam hand tracking demo: it prints a chosen
// landmark and joint angle of a tracked hand for every frame, and can record
// sessions to SQLite, serve a live view over HTTP and show a preview window.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"

	"github.com/ayusman/handtrack/internal/capture"
	"github.com/ayusman/handtrack/internal/config"
	"github.com/ayusman/handtrack/internal/detector"
	"github.com/ayusman/handtrack/internal/logging"
	"github.com/ayusman/handtrack/internal/pipeline"
	"github.com/ayusman/handtrack/internal/server"
	"github.com/ayusman/handtrack/internal/store"
	"github.com/ayusman/handtrack/internal/tracker"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	if len(args) > 0 && args[0] == "angle" {
		return runAngle(args[1:], os.Stdout)
	}

	cfg, err := config.Load(".env")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	opts, err := parseFlags(args, cfg)
	if errors.Is(err, flag.ErrHelp) {
		return 0
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 2
	}

	logger := logging.MustStderr(opts.Config.LogLevel, "handtrack")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := track(ctx, opts, logger); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

// track wires camera, detector, tracker and pipeline, plus the optional
// recorder, server and preview, and runs the frame loop on this goroutine.
func track(ctx context.Context, opts options, logger *log.Logger) error {
	det, err := newDetector(opts, logger)
	if err != nil {
		return err
	}

	tr := tracker.New(det)
	defer func() {
		if err := tr.Close(); err != nil {
			logger.Warn("closing detector", "err", err)
		}
	}()

	cam := capture.NewCamera(opts.Config.Capture)
	pcfg := pipeline.Config{
		FPS:          opts.Config.Capture.FPS,
		DrawSkeleton: opts.Draw,
		DrawPoints:   opts.Draw,
	}
	pl := pipeline.New(pcfg, cam, tr, logger.WithPrefix("pipeline"))

	pl.Subscribe(newPrinter(os.Stdout, opts).Print)

	var st *store.Store
	if opts.Config.DBPath != "" {
		st, err = store.New(opts.Config.DBPath)
		if err != nil {
			return fmt.Errorf("open store: %w", err)
		}
		defer st.Close()

		sess, err := startSession(st, opts.Config)
		if err != nil {
			return fmt.Errorf("create session: %w", err)
		}
		defer func() {
			if err := st.Sessions().End(sess.ID); err != nil {
				logger.Warn("ending session", "session", sess.ID, "err", err)
			}
		}()

		rec := pipeline.NewRecorder(st, sess.ID, logger.WithPrefix("recorder"))
		pl.Subscribe(rec.Record)
		logger.Info("recording", "db", opts.Config.DBPath, "session", sess.ID)
	}

	if opts.Config.Addr != "" {
		return serveAndTrack(ctx, pl, st, opts, logger)
	}
	return runPipeline(ctx, pl, opts)
}

func serveAndTrack(ctx context.Context, pl *pipeline.Pipeline, st *store.Store, opts options, logger *log.Logger) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	srv := server.New(server.Config{
		Store:  st,
		Frames: pl,
		Logger: logger.WithPrefix("http"),
	})

	srvErr := make(chan error, 1)
	go func() {
		err := srv.ListenAndServe(ctx, opts.Config.Addr)
		if err != nil {
			cancel()
		}
		srvErr <- err
	}()

	runErr := runPipeline(ctx, pl, opts)
	cancel()

	if err := <-srvErr; err != nil {
		return fmt.Errorf("http server: %w", err)
	}
	return runErr
}

func runPipeline(ctx context.Context, pl *pipeline.Pipeline, opts options) error {
	if opts.Window {
		w := newWindow("handtrack")
		defer w.Close()
		pl.SetPreview(w)
	}
	return pl.Run(ctx)
}

// newDetector starts the MediaPipe detector, or a mock detector replaying an
// open palm when -mock is set.
func newDetector(opts options, logger *log.Logger) (detector.Detector, error) {
	if opts.Mock {
		logger.Info("using mock detector")
		mock := detector.NewMockDetector()
		mock.SetHands([]detector.HandLandmarks{detector.OpenPalmLandmarks()})
		return mock, nil
	}

	mp, err := detector.NewMediaPipeDetector(opts.Config.Detector, logger)
	if err != nil {
		return nil, fmt.Errorf("mediapipe detector: %w", err)
	}
	logger.Info("using MediaPipe hand detection", "mode", opts.Config.Detector.Mode, "max_hands", opts.Config.Detector.MaxHands)
	return mp, nil
}

func startSession(st *store.Store, cfg config.Config) (*store.Session, error) {
	sess := &store.Session{
		Source:        cfg.Capture.Source,
		Mode:          cfg.Detector.Mode.String(),
		MaxHands:      cfg.Detector.MaxHands,
		DetectionConf: cfg.Detector.MinConfidence,
		TrackingConf:  cfg.Detector.MinTrackingConf,
	}
	if err := st.Sessions().Create(sess); err != nil {
		return nil, err
	}
	return sess, nil
}
