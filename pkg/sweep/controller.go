package sweep

import (
	"sync"
	"time"

	"github.com/firewatchbot/go-firewatch/internal/log"
)

// Controller is a two-state machine: Sweeping advances the angle every
// tick, Halted performs no writes. The transition to Halted fires the
// first tick the halt signal is raised and is terminal for the session;
// only Reset re-arms the sweep. State is owned by the controller and
// mutated only through Tick/Reset, from the main loop.
type Controller struct {
	servo  Servo
	step   float64
	settle time.Duration

	mu    sync.RWMutex
	state State

	ticks     uint64
	halts     uint64
	writeErrs uint64
}

// NewController creates a controller in the Sweeping state at angle 0,
// direction forward. step is degrees per tick; settle is the pause
// applied after each successful servo write.
func NewController(servo Servo, step float64, settle time.Duration) *Controller {
	return &Controller{
		servo:  servo,
		step:   step,
		settle: settle,
		state: State{
			Angle:     MinAngle,
			Direction: Forward,
			Running:   true,
		},
	}
}

// State returns a snapshot of the controller state.
func (c *Controller) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// Halts returns how many times the controller transitioned to Halted.
func (c *Controller) Halts() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.halts
}

// Ticks returns how many ticks were processed while sweeping.
func (c *Controller) Ticks() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.ticks
}

// Tick advances the state machine by one loop tick.
//
// While sweeping, the angle advances by step in the current direction,
// clamped to [MinAngle, MaxAngle]; touching a boundary flips the
// direction for the next tick. The new angle is written to the servo,
// then the settle delay suspends the caller so angle writes and frame
// cadence stay coupled.
//
// A true halt signal wins over stepping: the controller transitions to
// Halted without writing an angle, and every later Tick is a no-op
// until Reset.
func (c *Controller) Tick(halt bool) error {
	c.mu.Lock()

	if !c.state.Running {
		c.mu.Unlock()
		return nil
	}
	c.ticks++

	if halt {
		c.state.Running = false
		c.halts++
		angle := c.state.Angle
		c.mu.Unlock()
		log.Info("target acquired, sweep halted", "angle", angle)
		return nil
	}

	c.state.Angle = clamp(c.state.Angle+c.step*float64(c.state.Direction), MinAngle, MaxAngle)
	if c.state.Angle >= MaxAngle {
		c.state.Direction = Reverse
	} else if c.state.Angle <= MinAngle {
		c.state.Direction = Forward
	}
	angle := c.state.Angle
	c.mu.Unlock()

	if err := c.servo.SetAngle(angle); err != nil {
		c.mu.Lock()
		c.writeErrs++
		c.mu.Unlock()
		return err
	}

	if c.settle > 0 {
		time.Sleep(c.settle)
	}
	return nil
}

// Reset re-arms a halted sweep. The angle and direction are preserved so
// the sweep resumes where it locked. No-op while already sweeping.
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state.Running {
		return
	}
	c.state.Running = true
	log.Info("sweep re-armed", "angle", c.state.Angle, "direction", c.state.Direction.String())
}

// Park centers the servo, typically on shutdown. Works in either state
// and does not alter Running.
func (c *Controller) Park() error {
	const center = (MaxAngle - MinAngle) / 2
	c.mu.Lock()
	c.state.Angle = center
	c.mu.Unlock()
	return c.servo.SetAngle(center)
}
