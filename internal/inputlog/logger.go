package inputlog

import (
	"context"
	"fmt"
	"io"
)

// Logger writes one line per pointer event. It does no filtering beyond
// skipping button releases, and no buffering.
type Logger struct {
	w io.Writer
}

// NewLogger returns a Logger writing to w.
func NewLogger(w io.Writer) *Logger {
	return &Logger{w: w}
}

// OnMove writes "Pointer moved to (x, y)".
func (l *Logger) OnMove(e MoveEvent) {
	fmt.Fprintf(l.w, "Pointer moved to (%d, %d)\n", e.X, e.Y)
}

// OnClick writes "<button> clicked at (x, y)" for presses only.
func (l *Logger) OnClick(e ClickEvent) {
	if !e.Pressed {
		return
	}
	fmt.Fprintf(l.w, "%s clicked at (%d, %d)\n", e.Button, e.X, e.Y)
}

// OnScroll writes "Scrolled down at (x, y)" for a negative vertical delta and
// "Scrolled up at (x, y)" otherwise.
func (l *Logger) OnScroll(e ScrollEvent) {
	direction := "up"
	if e.DY < 0 {
		direction = "down"
	}
	fmt.Fprintf(l.w, "Scrolled %s at (%d, %d)\n", direction, e.X, e.Y)
}

// Handlers returns the logger's callbacks.
func (l *Logger) Handlers() Handlers {
	return Handlers{
		Move:   l.OnMove,
		Click:  l.OnClick,
		Scroll: l.OnScroll,
	}
}

// Run subscribes to h and blocks until ctx is cancelled, returning nil, or
// until the listener ends on its own, returning its error. A subscription
// failure is returned immediately.
func (l *Logger) Run(ctx context.Context, h Hook) error {
	listener, err := h.Subscribe(l.Handlers())
	if err != nil {
		return fmt.Errorf("subscribe: %w", err)
	}

	done := make(chan error, 1)
	go func() {
		done <- listener.Wait()
	}()

	select {
	case <-ctx.Done():
		listener.Stop()
		<-done
		return nil
	case err := <-done:
		return err
	}
}
