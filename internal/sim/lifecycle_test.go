package sim

import (
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/evsim/internal/dynamo"
	"github.com/san-kum/evsim/internal/history"
	"github.com/san-kum/evsim/internal/physics"
)

var _ = Describe("Simulator", func() {
	var s *Simulator

	BeforeEach(func() {
		var err error
		s, err = New(physics.DefaultParams(), physics.DefaultModels())
		Expect(err).NotTo(HaveOccurred())
	})

	drive := func(n int) {
		s.SetCommand(1.0)
		for i := 0; i < n; i++ {
			Expect(s.Tick(0.1)).To(BeTrue())
		}
	}

	It("starts stopped with default state and filled history", func() {
		Expect(s.Lifecycle()).To(Equal(dynamo.Stopped))
		Expect(s.State()).To(Equal(dynamo.DefaultState(400)))

		want := history.SampleOf(dynamo.DefaultState(400))
		for _, sample := range s.History().All() {
			Expect(sample).To(Equal(want))
		}
	})

	DescribeTable("valid transitions",
		func(setup []func() error, op func(*Simulator) error, want dynamo.Lifecycle) {
			for _, step := range setup {
				Expect(step()).To(Succeed())
			}
			Expect(op(s)).To(Succeed())
			Expect(s.Lifecycle()).To(Equal(want))
		},
		Entry("start from stopped", []func() error{}, (*Simulator).Start, dynamo.Running),
		Entry("pause while running", []func() error{func() error { return s.Start() }}, (*Simulator).Pause, dynamo.Paused),
		Entry("resume while paused", []func() error{func() error { return s.Start() }, func() error { return s.Pause() }}, (*Simulator).Resume, dynamo.Running),
		Entry("stop while running", []func() error{func() error { return s.Start() }}, (*Simulator).Stop, dynamo.Stopped),
		Entry("stop while paused", []func() error{func() error { return s.Start() }, func() error { return s.Pause() }}, (*Simulator).Stop, dynamo.Stopped),
		Entry("reset while running", []func() error{func() error { return s.Start() }}, (*Simulator).Reset, dynamo.Stopped),
		Entry("reset while stopped", []func() error{}, (*Simulator).Reset, dynamo.Stopped),
	)

	DescribeTable("invalid transitions leave the lifecycle unchanged",
		func(running bool, op func(*Simulator) error) {
			if running {
				Expect(s.Start()).To(Succeed())
			}
			before := s.Lifecycle()

			err := op(s)
			Expect(err).To(HaveOccurred())
			Expect(errors.Is(err, dynamo.ErrTransition)).To(BeTrue())

			var te *dynamo.TransitionError
			Expect(errors.As(err, &te)).To(BeTrue())
			Expect(te.From).To(Equal(before))
			Expect(s.Lifecycle()).To(Equal(before))
		},
		Entry("pause while stopped", false, (*Simulator).Pause),
		Entry("resume while stopped", false, (*Simulator).Resume),
		Entry("stop while stopped", false, (*Simulator).Stop),
		Entry("start while running", true, (*Simulator).Start),
		Entry("resume while running", true, (*Simulator).Resume),
	)

	It("toggles between running and paused", func() {
		Expect(s.Start()).To(Succeed())
		Expect(s.TogglePause()).To(Succeed())
		Expect(s.Lifecycle()).To(Equal(dynamo.Paused))
		Expect(s.TogglePause()).To(Succeed())
		Expect(s.Lifecycle()).To(Equal(dynamo.Running))
	})

	Context("when not running", func() {
		It("discards ticks while stopped", func() {
			s.SetCommand(1.0)
			before := s.Snapshot()
			Expect(s.Tick(0.1)).To(BeFalse())
			Expect(s.Snapshot()).To(BeIdenticalTo(before))
		})

		It("discards ticks while paused", func() {
			Expect(s.Start()).To(Succeed())
			drive(5)
			Expect(s.Pause()).To(Succeed())

			state, ticks := s.State(), s.Ticks()
			Expect(s.Tick(0.1)).To(BeFalse())
			Expect(s.TickAt(time.Now(), time.Second/60)).To(BeFalse())
			Expect(s.State()).To(Equal(state))
			Expect(s.Ticks()).To(Equal(ticks))
		})
	})

	It("rejects non-positive and non-finite dt without mutation", func() {
		Expect(s.Start()).To(Succeed())
		before := s.State()
		for _, dt := range []float64{0, -1, nan(), inf()} {
			Expect(s.Tick(dt)).To(BeFalse())
		}
		Expect(s.State()).To(Equal(before))
		Expect(s.Ticks()).To(BeZero())
	})

	It("records one history sample per tick", func() {
		Expect(s.Start()).To(Succeed())
		drive(3)
		Expect(s.Ticks()).To(Equal(uint64(3)))
		Expect(s.History().Latest()).To(Equal(history.SampleOf(s.State())))
	})

	It("keeps the state when stopped", func() {
		Expect(s.Start()).To(Succeed())
		drive(20)
		moving := s.State()
		Expect(moving.Speed).To(BeNumerically(">", 0))

		Expect(s.Stop()).To(Succeed())
		Expect(s.State()).To(Equal(moving))
		Expect(s.Command()).To(Equal(1.0))
	})

	It("restores defaults on reset", func() {
		Expect(s.Start()).To(Succeed())
		drive(20)
		Expect(s.Reset()).To(Succeed())

		def := dynamo.DefaultState(s.Params().BatteryVoltage)
		Expect(s.Lifecycle()).To(Equal(dynamo.Stopped))
		Expect(s.State()).To(Equal(def))
		Expect(s.Command()).To(BeZero())
		Expect(s.Ticks()).To(BeZero())
		for _, sample := range s.History().All() {
			Expect(sample).To(Equal(history.SampleOf(def)))
		}
	})

	It("uses the nominal period for the first wall-clock tick after resume", func() {
		nominal := time.Second / 60
		t0 := time.Unix(1000, 0)

		Expect(s.Start()).To(Succeed())
		s.SetCommand(1.0)
		Expect(s.TickAt(t0, nominal)).To(BeTrue())
		Expect(s.TickAt(t0.Add(20*time.Millisecond), nominal)).To(BeTrue())
		Expect(s.State().Time).To(BeNumerically("~", nominal.Seconds()+0.02, 1e-9))

		Expect(s.Pause()).To(Succeed())
		Expect(s.Resume()).To(Succeed())

		before := s.State().Time
		Expect(s.TickAt(t0.Add(10*time.Second), nominal)).To(BeTrue())
		Expect(s.State().Time - before).To(BeNumerically("~", nominal.Seconds(), 1e-9))
	})

	It("clamps a long wall-clock gap to the maximum step", func() {
		t0 := time.Unix(1000, 0)
		Expect(s.Start()).To(Succeed())
		Expect(s.TickAt(t0, time.Second/60)).To(BeTrue())

		before := s.State().Time
		Expect(s.TickAt(t0.Add(3*time.Second), time.Second/60)).To(BeTrue())
		Expect(s.State().Time - before).To(BeNumerically("~", physics.MaxStep, 1e-9))
	})

	Context("parameters", func() {
		It("keeps the previous value when a change is rejected", func() {
			err := s.SetParameter("vehicle_mass", 10)
			Expect(errors.Is(err, dynamo.ErrParameterBounds)).To(BeTrue())
			Expect(s.Params().VehicleMass).To(Equal(1500.0))

			Expect(s.SetParameter("vehicle_mass", 2000)).To(Succeed())
			Expect(s.Params().VehicleMass).To(Equal(2000.0))
			Expect(s.Snapshot().Params.VehicleMass).To(Equal(2000.0))
		})

		It("rejects unknown parameter names", func() {
			err := s.SetParameter("warp_factor", 9)
			Expect(errors.Is(err, dynamo.ErrUnknownParameter)).To(BeTrue())
		})

		It("keeps the previous drive mode for unknown names", func() {
			Expect(s.SetDriveMode("Sport")).To(Succeed())
			err := s.SetDriveMode("Ludicrous")
			Expect(errors.Is(err, dynamo.ErrUnknownDriveMode)).To(BeTrue())
			Expect(s.Params().DriveMode).To(Equal("Sport"))
		})

		It("toggles regenerative braking", func() {
			s.SetRegenBraking(false)
			Expect(s.Params().RegenBraking).To(BeFalse())
			s.SetRegenBraking(true)
			Expect(s.Params().RegenBraking).To(BeTrue())
		})
	})

	Context("notifications", func() {
		It("signals changes without blocking", func() {
			Expect(s.Start()).To(Succeed())
			drive(10)
			Eventually(s.Changed()).Should(Receive())
			Consistently(s.Changed(), 20*time.Millisecond).ShouldNot(Receive())
		})

		It("calls observers with each published snapshot", func() {
			var seen []uint64
			s.AddObserver(ObserverFunc(func(snap *Snapshot) {
				seen = append(seen, snap.Ticks)
			}))
			Expect(s.Start()).To(Succeed())
			drive(3)
			Expect(seen).To(Equal([]uint64{0, 1, 2, 3}))
		})
	})

	It("hands out snapshots whose history does not change afterwards", func() {
		Expect(s.Start()).To(Succeed())
		drive(1)
		snap := s.Snapshot()
		latest := snap.History.Latest()
		drive(5)
		Expect(snap.History.Latest()).To(Equal(latest))
	})
})
