// Package inputlog subscribes to OS-level pointer events (move, click,
// scroll) and writes one human-readable line per event.
package inputlog

import "fmt"

// Button identifies a pointer button.
type Button uint16

// Button identifiers, numbered as the OS hook reports them.
const (
	ButtonUnknown Button = iota
	ButtonLeft
	ButtonRight
	ButtonMiddle
	ButtonX1
	ButtonX2
)

func (b Button) String() string {
	switch b {
	case ButtonLeft:
		return "Button.left"
	case ButtonRight:
		return "Button.right"
	case ButtonMiddle:
		return "Button.middle"
	case ButtonX1:
		return "Button.x1"
	case ButtonX2:
		return "Button.x2"
	default:
		return fmt.Sprintf("Button.%d", uint16(b))
	}
}

// MoveEvent reports the pointer's new position.
type MoveEvent struct {
	X, Y int
}

// ClickEvent reports a button press or release at a position.
type ClickEvent struct {
	X, Y    int
	Button  Button
	Pressed bool
}

// ScrollEvent reports a wheel step at a position. Positive DY scrolls up,
// positive DX scrolls right.
type ScrollEvent struct {
	X, Y   int
	DX, DY int
}

// Handlers are the callbacks a Hook invokes. Nil handlers are skipped.
type Handlers struct {
	Move   func(MoveEvent)
	Click  func(ClickEvent)
	Scroll func(ScrollEvent)
}

func (h Handlers) move(e MoveEvent) {
	if h.Move != nil {
		h.Move(e)
	}
}

func (h Handlers) click(e ClickEvent) {
	if h.Click != nil {
		h.Click(e)
	}
}

func (h Handlers) scroll(e ScrollEvent) {
	if h.Scroll != nil {
		h.Scroll(e)
	}
}

// Listener is a running subscription.
type Listener interface {
	// Wait blocks until the listener ends. It returns nil after Stop.
	Wait() error
	// Stop unregisters the callbacks. It is safe to call more than once.
	Stop()
}

// Hook is an OS input-hook facility. Subscribe fails as a whole if the hook
// cannot be established; there is no partially started listener.
type Hook interface {
	Subscribe(h Handlers) (Listener, error)
}
