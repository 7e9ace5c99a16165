package inputlog

import (
	"errors"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	hook "github.com/robotn/gohook"
)

// DefaultStartTimeout is how long Subscribe waits for the hook to report that it is enabled.
const DefaultStartTimeout = 2 * time.Second

// libuiohook wheel direction for horizontal scrolling.
const wheelHorizontal = 4

var (
	// ErrHookUnavailable is returned when the OS hook could not be established,
	// for example when accessibility or input permissions are missing.
	ErrHookUnavailable = errors.New("input hook unavailable")

	// ErrHookBusy is returned when a gohook listener is already running in this process.
	ErrHookBusy = errors.New("input hook already running")

	// ErrHookStopped is returned by Wait when the hook ended without Stop being called.
	ErrHookStopped = errors.New("input hook stopped unexpectedly")
)

// gohook's listener is process-wide, whichever GoHook started it.
var (
	hookMu     sync.Mutex
	hookActive bool
)

// GoHook is a Hook backed by github.com/robotn/gohook (libuiohook).
// gohook keeps global state, so only one listener runs at a time.
type GoHook struct {
	// StartTimeout bounds the wait for the hook-enabled event. When it
	// elapses the hook is assumed to be running.
	StartTimeout time.Duration

	logger *log.Logger
	start  func() chan hook.Event
	end    func()
}

// NewGoHook returns a GoHook that logs diagnostics to logger.
func NewGoHook(logger *log.Logger) *GoHook {
	if logger == nil {
		logger = log.Default()
	}
	return &GoHook{
		StartTimeout: DefaultStartTimeout,
		logger:       logger.WithPrefix("hook"),
		start:        hook.Start,
		end:          hook.End,
	}
}

// Subscribe starts the OS hook and dispatches its events to h on a
// dedicated goroutine.
func (g *GoHook) Subscribe(h Handlers) (Listener, error) {
	if !acquireHook() {
		return nil, ErrHookBusy
	}

	events := g.start()
	if err := g.awaitEnabled(events, h); err != nil {
		releaseHook()
		return nil, err
	}

	l := &hookListener{
		owner: g,
		stop:  make(chan struct{}),
		done:  make(chan struct{}),
	}
	go l.run(events, h)

	g.logger.Debug("listening")
	return l, nil
}

func (g *GoHook) awaitEnabled(events chan hook.Event, h Handlers) error {
	if events == nil {
		return ErrHookUnavailable
	}

	timeout := g.StartTimeout
	if timeout <= 0 {
		timeout = DefaultStartTimeout
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case e, ok := <-events:
		if !ok || e.Kind == hook.HookDisabled {
			return ErrHookUnavailable
		}
		if e.Kind != hook.HookEnabled {
			dispatch(e, h)
		}
	case <-timer.C:
		g.logger.Warn("no hook-enabled event, assuming hook is running", "waited", timeout)
	}
	return nil
}

func acquireHook() bool {
	hookMu.Lock()
	defer hookMu.Unlock()
	if hookActive {
		return false
	}
	hookActive = true
	return true
}

func releaseHook() {
	hookMu.Lock()
	defer hookMu.Unlock()
	hookActive = false
}

type hookListener struct {
	owner    *GoHook
	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
	err      error
}

func (l *hookListener) run(events chan hook.Event, h Handlers) {
	defer close(l.done)
	defer releaseHook()

	for {
		select {
		case <-l.stop:
			return
		case e, ok := <-events:
			if !ok || e.Kind == hook.HookDisabled {
				select {
				case <-l.stop:
				default:
					l.err = ErrHookStopped
				}
				return
			}
			dispatch(e, h)
		}
	}
}

func (l *hookListener) Wait() error {
	<-l.done
	return l.err
}

func (l *hookListener) Stop() {
	l.stopOnce.Do(func() {
		close(l.stop)
		l.owner.end()
	})
}

// dispatch translates a gohook event into a handler call.
// gohook names mouse kinds after libuiohook's event ids: MouseHold is the
// press and MouseDown the release. MouseUp (a completed click) is skipped so
// each press is reported once.
func dispatch(e hook.Event, h Handlers) {
	x, y := int(e.X), int(e.Y)

	switch e.Kind {
	case hook.MouseMove, hook.MouseDrag:
		h.move(MoveEvent{X: x, Y: y})
	case hook.MouseHold:
		h.click(ClickEvent{X: x, Y: y, Button: Button(e.Button), Pressed: true})
	case hook.MouseDown:
		h.click(ClickEvent{X: x, Y: y, Button: Button(e.Button), Pressed: false})
	case hook.MouseWheel:
		// libuiohook reports negative rotation when the wheel moves away from the user.
		step := -int(e.Rotation)
		if e.Direction == wheelHorizontal {
			h.scroll(ScrollEvent{X: x, Y: y, DX: -step})
		} else {
			h.scroll(ScrollEvent{X: x, Y: y, DY: step})
		}
	}
}
