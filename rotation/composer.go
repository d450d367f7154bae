// Package rotation turns mouse drags into a cumulative view rotation.
//
// Drags are interpreted trackball style: horizontal motion rotates about the
// screen vertical axis and vertical motion about the screen horizontal axis,
// whatever the current orientation of the data.
package rotation

import (
	"errors"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

var (
	ErrNotDragging     = errors.New("rotation: no drag in progress")
	ErrAlreadyDragging = errors.New("rotation: drag already in progress")
)

type State uint8

const (
	StateIdle State = iota
	StateDragging
)

func (s State) String() string {
	if s == StateDragging {
		return "dragging"
	}
	return "idle"
}

// Composer is the drag state machine. On Start it captures the current
// matrix as the gesture base; every Drag recomputes the matrix from that
// base; End commits it and Abort restores the base.
type Composer struct {
	base    mgl64.Mat3
	current mgl64.Mat3
	state   State

	Events Events
}

func NewComposer(initial mgl64.Mat3) *Composer {
	return &Composer{
		base:    initial,
		current: initial,
		state:   StateIdle,
		Events:  NewEvents(),
	}
}

// Matrix returns the rotation to apply to the next frame.
func (c *Composer) Matrix() mgl64.Mat3 {
	return c.current
}

// Base returns the last committed rotation.
func (c *Composer) Base() mgl64.Mat3 {
	return c.base
}

func (c *Composer) State() State {
	return c.state
}

// Dragging reports whether a gesture is in progress.
func (c *Composer) Dragging() bool {
	return c.state == StateDragging
}

// Set replaces the committed rotation, for instance to return to a home
// view. It fails during a drag.
func (c *Composer) Set(m mgl64.Mat3) error {
	if c.state == StateDragging {
		return ErrAlreadyDragging
	}
	c.base = m
	c.current = m
	return nil
}

// Start begins a gesture from the current matrix.
func (c *Composer) Start() error {
	if c.state == StateDragging {
		return ErrAlreadyDragging
	}
	c.state = StateDragging
	c.base = c.current
	c.Events.emit(StartEvent{Base: c.base})
	return nil
}

// Drag updates the gesture with the pointer displacement (dx, dy) in pixels
// since Start. scale is the smaller viewport dimension multiplied by the
// zoom factor; a drag across scale pixels turns the view by a quarter turn.
// A zero displacement, or a non-positive scale, leaves the base unchanged.
func (c *Composer) Drag(dx, dy, scale float64) (mgl64.Mat3, error) {
	if c.state != StateDragging {
		return c.current, ErrNotDragging
	}

	if (dx == 0 && dy == 0) || !(scale > 0) {
		c.current = c.base
	} else {
		phi := -dx / scale * math.Pi / 2
		psi := -dy / scale * math.Pi / 2
		c.current = RotateXY(c.base, phi, psi)
	}

	c.Events.emit(UpdateEvent{Matrix: c.current})
	return c.current, nil
}

// End commits the last computed matrix as the base of the next gesture.
func (c *Composer) End() (mgl64.Mat3, error) {
	if c.state != StateDragging {
		return c.current, ErrNotDragging
	}
	if c.current != c.base {
		c.current = Orthonormalize(c.current)
	}
	c.base = c.current
	c.state = StateIdle
	c.Events.emit(EndEvent{Matrix: c.current})
	return c.current, nil
}

// Abort cancels the gesture and restores the base matrix.
func (c *Composer) Abort() (mgl64.Mat3, error) {
	if c.state != StateDragging {
		return c.current, ErrNotDragging
	}
	c.current = c.base
	c.state = StateIdle
	c.Events.emit(AbortEvent{Base: c.base})
	return c.current, nil
}
