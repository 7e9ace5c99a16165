package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/ayusman/handtrack/internal/config"
	"github.com/ayusman/handtrack/internal/detector"
)

// options are the resolved settings of a tracking run.
type options struct {
	Config config.Config

	Landmark int
	Hand     int
	Joint    [3]int

	Window bool
	Draw   bool
	Mock   bool
}

// parseFlags layers command-line flags over cfg.
func parseFlags(args []string, cfg config.Config) (options, error) {
	return parseFlagsTo(args, cfg, os.Stderr)
}

func parseFlagsTo(args []string, cfg config.Config, out io.Writer) (options, error) {
	opts := options{Config: cfg}

	fs := flag.NewFlagSet("handtrack", flag.ContinueOnError)
	fs.SetOutput(out)

	mode := cfg.Detector.Mode.String()
	joint := fmt.Sprintf("%d,%d,%d", detector.IndexMCP, detector.IndexPIP, detector.IndexDIP)

	fs.StringVar(&opts.Config.Capture.Source, "camera", cfg.Capture.Source, "Camera index, video file or stream URL")
	fs.IntVar(&opts.Config.Capture.Width, "width", cfg.Capture.Width, "Capture width")
	fs.IntVar(&opts.Config.Capture.Height, "height", cfg.Capture.Height, "Capture height")
	fs.IntVar(&opts.Config.Capture.FPS, "fps", cfg.Capture.FPS, "Processing frame rate")
	fs.StringVar(&mode, "mode", mode, "Detector mode (video, static)")
	fs.IntVar(&opts.Config.Detector.MaxHands, "max-hands", cfg.Detector.MaxHands, "Maximum number of hands to detect")
	fs.Float64Var(&opts.Config.Detector.MinConfidence, "detection-confidence", cfg.Detector.MinConfidence, "Minimum detection confidence (0-1)")
	fs.Float64Var(&opts.Config.Detector.MinTrackingConf, "tracking-confidence", cfg.Detector.MinTrackingConf, "Minimum tracking confidence (0-1)")
	fs.IntVar(&opts.Hand, "hand", 0, "Index of the hand to report")
	fs.IntVar(&opts.Landmark, "landmark", detector.ThumbTip, "Landmark id to print (0-20)")
	fs.StringVar(&joint, "joint", joint, "Landmark triple a,b,c whose angle at b is printed")
	fs.BoolVar(&opts.Window, "window", false, "Show a preview window (press q to quit)")
	fs.BoolVar(&opts.Draw, "draw", true, "Draw the hand skeleton and landmarks on frames")
	fs.BoolVar(&opts.Mock, "mock", false, "Use a mock detector instead of MediaPipe")
	fs.StringVar(&opts.Config.DBPath, "record", cfg.DBPath, "Record the session to this SQLite file")
	fs.StringVar(&opts.Config.Addr, "serve", cfg.Addr, "Serve the live view on this address (e.g. :8080)")
	fs.StringVar(&opts.Config.LogLevel, "log-level", cfg.LogLevel, "Log level (debug, info, warn, error)")

	fs.Usage = func() {
		fmt.Fprintf(out, "handtrack - hand landmark tracking\n\n")
		fmt.Fprintf(out, "Usage:\n")
		fmt.Fprintf(out, "  handtrack [options]\n")
		fmt.Fprintf(out, "  handtrack angle x1,y1 x2,y2 x3,y3\n\n")
		fmt.Fprintf(out, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(out, "\nExamples:\n")
		fmt.Fprintf(out, "  handtrack -window                 Track camera 0 with a preview\n")
		fmt.Fprintf(out, "  handtrack -camera clip.mp4 -record runs.db\n")
		fmt.Fprintf(out, "  handtrack -serve :8080            Live MJPEG and landmark feed\n")
	}

	if err := fs.Parse(args); err != nil {
		return options{}, err
	}
	if fs.NArg() > 0 {
		return options{}, fmt.Errorf("unexpected arguments: %s", strings.Join(fs.Args(), " "))
	}

	m, err := detector.ParseMode(mode)
	if err != nil {
		return options{}, err
	}
	opts.Config.Detector.Mode = m

	if opts.Joint, err = parseJoint(joint); err != nil {
		return options{}, err
	}
	if opts.Landmark < 0 || opts.Landmark >= detector.NumLandmarks {
		return options{}, fmt.Errorf("landmark %d out of range 0-%d", opts.Landmark, detector.NumLandmarks-1)
	}
	if opts.Hand < 0 {
		return options{}, fmt.Errorf("hand index %d is negative", opts.Hand)
	}

	if err := opts.Config.Validate(); err != nil {
		return options{}, err
	}

	return opts, nil
}

// parseJoint parses "a,b,c" into three landmark ids.
func parseJoint(s string) ([3]int, error) {
	var ids [3]int

	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return ids, fmt.Errorf("joint %q: want three landmark ids a,b,c", s)
	}
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil || n < 0 || n >= detector.NumLandmarks {
			return ids, fmt.Errorf("joint %q: %q is not a landmark id", s, p)
		}
		ids[i] = n
	}
	return ids, nil
}
