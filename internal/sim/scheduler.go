package sim

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/san-kum/evsim/internal/dynamo"
	"github.com/san-kum/evsim/internal/physics"
	"github.com/sirupsen/logrus"
)

// ClockMode selects where the scheduler takes each tick's dt from.
type ClockMode string

const (
	// ClockWall uses the wall-clock delta between successive running ticks.
	ClockWall ClockMode = "wall"
	// ClockFixed uses the nominal frame period for every tick.
	ClockFixed ClockMode = "fixed"

	DefaultFrameRate = 60
)

func ParseClockMode(name string) (ClockMode, error) {
	switch ClockMode(strings.ToLower(name)) {
	case ClockWall:
		return ClockWall, nil
	case ClockFixed:
		return ClockFixed, nil
	}
	return "", fmt.Errorf("unknown clock mode %q (want wall or fixed)", name)
}

// frameClock remembers the time of the last running tick. A zero reference
// means the next tick uses the nominal period.
type frameClock struct {
	last time.Time
}

func (c *frameClock) rearm() { c.last = time.Time{} }

func (c *frameClock) next(now time.Time, nominal time.Duration) float64 {
	dt := nominal.Seconds()
	if !c.last.IsZero() {
		dt = now.Sub(c.last).Seconds()
	}
	c.last = now
	return math.Min(dt, physics.MaxStep)
}

// TickAt advances the engine by the wall-clock time since the previous
// running tick, clamped to physics.MaxStep. Ticks while stopped or paused
// leave the reference time untouched.
func (s *Simulator) TickAt(now time.Time, nominal time.Duration) bool {
	s.mu.Lock()
	if s.lifecycle != dynamo.Running {
		s.mu.Unlock()
		return false
	}
	dt := s.clock.next(now, nominal)
	if !(dt > 0) {
		s.mu.Unlock()
		return false
	}
	snap, ok := s.advanceLocked(dt)
	if !ok {
		s.mu.Unlock()
		return false
	}
	s.dispatchLocked(snap)
	return true
}

// Scheduler ticks a Simulator from one goroutine at a fixed frame rate.
type Scheduler struct {
	sim    *Simulator
	period time.Duration
	mode   ClockMode
}

func NewScheduler(sim *Simulator, frameRate int, mode ClockMode) (*Scheduler, error) {
	if frameRate <= 0 {
		return nil, fmt.Errorf("frame rate must be positive, got %d", frameRate)
	}
	if _, err := ParseClockMode(string(mode)); err != nil {
		return nil, err
	}
	return &Scheduler{
		sim:    sim,
		period: time.Second / time.Duration(frameRate),
		mode:   mode,
	}, nil
}

// Period is the nominal interval between ticks.
func (s *Scheduler) Period() time.Duration { return s.period }

func (s *Scheduler) Mode() ClockMode { return s.mode }

// Step performs one scheduled tick at now.
func (s *Scheduler) Step(now time.Time) bool {
	if s.mode == ClockFixed {
		return s.sim.Tick(math.Min(s.period.Seconds(), physics.MaxStep))
	}
	return s.sim.TickAt(now, s.period)
}

// Run ticks until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.period)
	defer ticker.Stop()

	logrus.Debugf("scheduler running at %v (%s clock)", s.period, s.mode)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticker.C:
			s.Step(now)
		}
	}
}
