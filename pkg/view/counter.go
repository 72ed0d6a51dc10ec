package view

import (
	"math"
	"time"
)

// TickInterval is the delay between two counter frames.
const TickInterval = 30 * time.Millisecond

// animationSteps is the number of increments a count-up is split into.
const animationSteps = 30

// Counter is one of the headline figures of a report.
type Counter struct {
	Key    string // label key, stable across languages
	Label  string
	Target int
}

// Animation returns a fresh count-up for the counter.
func (c Counter) Animation() *Animation {
	return NewAnimation(c.Target)
}

// Frames returns every value the count-up displays, one per tick. The last
// frame is always exactly Target; a zero target yields the single frame 0.
func (c Counter) Frames() []int {
	a := c.Animation()
	var frames []int
	for {
		v, done := a.Step()
		frames = append(frames, v)
		if done {
			return frames
		}
	}
}

// Animation counts from zero up to a target in fixed increments of
// target/30. It is not safe for concurrent use.
type Animation struct {
	target  int
	step    float64
	current float64
	value   int
	done    bool
}

// NewAnimation creates a count-up to target. Negative targets count to zero.
func NewAnimation(target int) *Animation {
	if target < 0 {
		target = 0
	}
	return &Animation{target: target, step: float64(target) / animationSteps}
}

// Step advances one tick and returns the value to display. Once done is
// true the value stays at the target and further calls change nothing.
func (a *Animation) Step() (value int, done bool) {
	if a.done {
		return a.value, true
	}
	a.current += a.step
	if a.current >= float64(a.target) {
		a.value, a.done = a.target, true
	} else {
		a.value = int(math.Floor(a.current))
	}
	return a.value, a.done
}

// Value returns the currently displayed value.
func (a *Animation) Value() int { return a.value }

// Done reports whether the target has been reached.
func (a *Animation) Done() bool { return a.done }

// Target returns the value the animation ends on.
func (a *Animation) Target() int { return a.target }
