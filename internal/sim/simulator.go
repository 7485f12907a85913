package sim

import (
	"context"
	"fmt"
	"math"
	"sync"
	"sync/atomic"

	"github.com/san-kum/evsim/internal/dynamo"
	"github.com/san-kum/evsim/internal/history"
	"github.com/san-kum/evsim/internal/physics"
	"github.com/sirupsen/logrus"
)

// Simulator owns the engine state and history buffers and gates ticks by
// lifecycle. Ticks and lifecycle commands serialise on one mutex, so a
// Stop or Reset always lands between two whole ticks. Parameters and the
// drive command are replaced atomically and read once per tick.
//
// Observers are called one publication at a time, in the order snapshots
// were published: dispatch is locked before mu is released.
type Simulator struct {
	mu        sync.Mutex
	lifecycle dynamo.Lifecycle
	state     dynamo.State
	history   *history.Buffers
	models    physics.Models
	clock     frameClock
	ticks     uint64
	resets    uint64
	seq       uint64
	observers []Observer

	dispatch sync.Mutex

	params   atomic.Pointer[physics.Params]
	command  atomic.Uint64
	snapshot atomic.Pointer[Snapshot]
	changed  chan struct{}
}

// New creates a stopped simulator with default engine state and history
// buffers filled with that state.
func New(p physics.Params, models physics.Models) (*Simulator, error) {
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("invalid parameters: %w", err)
	}

	s := &Simulator{
		lifecycle: dynamo.Stopped,
		models:    models,
		changed:   make(chan struct{}, 1),
	}
	s.params.Store(&p)
	s.state = dynamo.DefaultState(p.BatteryVoltage)
	s.history = history.New(history.SampleOf(s.state))
	s.publishLocked()
	return s, nil
}

func (s *Simulator) AddObserver(o Observer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observers = append(s.observers, o)
}

// Snapshot returns the latest published view.
func (s *Simulator) Snapshot() *Snapshot { return s.snapshot.Load() }

func (s *Simulator) State() dynamo.State         { return s.Snapshot().State }
func (s *Simulator) Lifecycle() dynamo.Lifecycle { return s.Snapshot().Lifecycle }
func (s *Simulator) Params() physics.Params      { return *s.params.Load() }
func (s *Simulator) Models() physics.Models      { return s.models }
func (s *Simulator) Command() float64            { return math.Float64frombits(s.command.Load()) }
func (s *Simulator) Changed() <-chan struct{}    { return s.changed }
func (s *Simulator) SetCommand(accel float64)    { s.command.Store(math.Float64bits(accel)) }
func (s *Simulator) History() *history.Buffers   { return s.Snapshot().History }
func (s *Simulator) Ticks() uint64               { return s.Snapshot().Ticks }

// SetParameter validates and applies one numeric parameter. A rejected
// value leaves the previous one in effect.
func (s *Simulator) SetParameter(name string, value float64) error {
	err := s.updateParams(func(p *physics.Params) error {
		return p.SetParam(name, value)
	})
	if err != nil {
		logrus.Warnf("rejected parameter %s=%g: %v", name, value, err)
		return err
	}
	logrus.Debugf("parameter %s=%g", name, value)
	return nil
}

// SetDriveMode switches the drive mode. Unknown names keep the previous mode.
func (s *Simulator) SetDriveMode(name string) error {
	err := s.updateParams(func(p *physics.Params) error {
		return p.SetDriveMode(name)
	})
	if err != nil {
		logrus.Warnf("rejected drive mode %q: %v", name, err)
		return err
	}
	logrus.Infof("drive mode %s", s.Params().DriveMode)
	return nil
}

func (s *Simulator) SetRegenBraking(enabled bool) {
	s.updateParams(func(p *physics.Params) error {
		p.RegenBraking = enabled
		return nil
	})
	logrus.Infof("regenerative braking %t", enabled)
}

// SetParams replaces the whole parameter set after validating it.
func (s *Simulator) SetParams(next physics.Params) error {
	if err := next.Validate(); err != nil {
		return err
	}
	return s.updateParams(func(p *physics.Params) error {
		*p = next
		return nil
	})
}

func (s *Simulator) updateParams(apply func(p *physics.Params) error) error {
	for {
		cur := s.params.Load()
		next := *cur
		if err := apply(&next); err != nil {
			return err
		}
		if s.params.CompareAndSwap(cur, &next) {
			break
		}
	}
	s.mu.Lock()
	s.dispatchLocked(s.publishLocked())
	return nil
}

func (s *Simulator) Start() error {
	return s.transition("start", func(from dynamo.Lifecycle) bool { return from == dynamo.Stopped }, func() {
		s.lifecycle = dynamo.Running
		s.clock.rearm()
	})
}

func (s *Simulator) Pause() error {
	return s.transition("pause", func(from dynamo.Lifecycle) bool { return from == dynamo.Running }, func() {
		s.lifecycle = dynamo.Paused
	})
}

// Resume re-enters Running. The next wall-clock tick uses the nominal period
// instead of the time spent paused.
func (s *Simulator) Resume() error {
	return s.transition("resume", func(from dynamo.Lifecycle) bool { return from == dynamo.Paused }, func() {
		s.lifecycle = dynamo.Running
		s.clock.rearm()
	})
}

// TogglePause flips between Running and Paused.
func (s *Simulator) TogglePause() error {
	if s.Lifecycle() == dynamo.Paused {
		return s.Resume()
	}
	return s.Pause()
}

// Stop halts ticking and keeps the current state.
func (s *Simulator) Stop() error {
	return s.transition("stop", func(from dynamo.Lifecycle) bool { return from != dynamo.Stopped }, func() {
		s.lifecycle = dynamo.Stopped
	})
}

// Reset stops the simulation, restores the default engine state, zeroes the
// command and refills the history buffers.
func (s *Simulator) Reset() error {
	return s.transition("reset", func(dynamo.Lifecycle) bool { return true }, func() {
		s.lifecycle = dynamo.Stopped
		s.state = dynamo.DefaultState(s.params.Load().BatteryVoltage)
		s.history.Fill(history.SampleOf(s.state))
		s.ticks = 0
		s.resets++
		s.command.Store(0)
		s.clock.rearm()
	})
}

func (s *Simulator) transition(op string, allowed func(from dynamo.Lifecycle) bool, apply func()) error {
	s.mu.Lock()
	from := s.lifecycle
	if !allowed(from) {
		s.mu.Unlock()
		return &dynamo.TransitionError{Op: op, From: from}
	}
	apply()
	snap := s.publishLocked()
	logrus.Infof("simulation %s: %s -> %s", op, from, snap.Lifecycle)
	s.dispatchLocked(snap)
	return nil
}

// Tick advances the engine by dt seconds when running. It reports whether
// the state changed. Ticks while stopped or paused, and non-positive dt,
// are discarded.
func (s *Simulator) Tick(dt float64) bool {
	s.mu.Lock()
	if s.lifecycle != dynamo.Running || !(dt > 0) || math.IsInf(dt, 1) {
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

func (s *Simulator) advanceLocked(dt float64) (*Snapshot, bool) {
	p := s.params.Load()
	next, err := physics.AdvanceWith(s.models, s.state, *p, s.Command(), dt)
	if err != nil {
		logrus.Warnf("tick %d discarded: %v", s.ticks, err)
		return nil, false
	}
	s.state = next
	s.history.Record(history.SampleOf(next))
	s.ticks++
	return s.publishLocked(), true
}

func (s *Simulator) publishLocked() *Snapshot {
	s.seq++
	snap := &Snapshot{
		Lifecycle: s.lifecycle,
		State:     s.state,
		Params:    *s.params.Load(),
		Command:   s.Command(),
		Ticks:     s.ticks,
		Resets:    s.resets,
		Seq:       s.seq,
		History:   s.history.Clone(),
	}
	s.snapshot.Store(snap)
	return snap
}

// dispatchLocked signals the change and runs the observers for snap. It is
// called with mu held and releases it; a later publication waits on
// dispatch until these observers return.
func (s *Simulator) dispatchLocked(snap *Snapshot) {
	s.dispatch.Lock()
	observers := s.observers
	s.mu.Unlock()
	defer s.dispatch.Unlock()

	select {
	case s.changed <- struct{}{}:
	default:
	}
	for _, o := range observers {
		o.OnTick(snap)
	}
}

// RunFor starts the simulator if needed and ticks it at a fixed step for
// cfg.Duration seconds, taking each tick's command from cycle when given.
func (s *Simulator) RunFor(ctx context.Context, cfg Config, cycle *Cycle) (*Snapshot, error) {
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}
	if s.Lifecycle() == dynamo.Stopped {
		if err := s.Start(); err != nil {
			return nil, err
		}
	}

	steps := int(math.Round(cfg.Duration / cfg.Dt))
	logrus.Debugf("headless run: %d steps of %.4fs", steps, cfg.Dt)

	t := 0.0
	for i := 0; i < steps; i++ {
		select {
		case <-ctx.Done():
			return s.Snapshot(), ctx.Err()
		default:
		}

		if cycle != nil {
			s.SetCommand(cycle.Command(t, s.State().Speed))
		}
		if s.Tick(cfg.Dt) {
			t += cfg.Dt
		}
	}

	return s.Snapshot(), nil
}

func validateConfig(cfg Config) error {
	if !(cfg.Dt > 0) {
		return fmt.Errorf("dt must be positive, got %f", cfg.Dt)
	}
	if !(cfg.Duration > 0) {
		return fmt.Errorf("duration must be positive, got %f", cfg.Duration)
	}
	return nil
}
