// Command mouselog prints every pointer move, button press and wheel
// scroll until interrupted.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ayusman/handtrack/internal/inputlog"
	"github.com/ayusman/handtrack/internal/logging"
)

func main() {
	os.Exit(run())
}

func run() int {
	var (
		logLevel     string
		startTimeout time.Duration
	)
	flag.StringVar(&logLevel, "log-level", "warn", "Log level for diagnostics on stderr (debug, info, warn, error)")
	flag.DurationVar(&startTimeout, "start-timeout", inputlog.DefaultStartTimeout, "How long to wait for the input hook to start")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "mouselog - print mouse events\n\n")
		fmt.Fprintf(os.Stderr, "Usage: mouselog [options]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	logger := logging.MustStderr(logLevel, "mouselog")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	h := inputlog.NewGoHook(logger)
	h.StartTimeout = startTimeout

	if err := inputlog.NewLogger(os.Stdout).Run(ctx, h); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}
