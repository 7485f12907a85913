package sim

import (
	"context"
	"fmt"
	"sync"

	"github.com/san-kum/evsim/internal/physics"
)

// Variant is one parameter set in an ensemble run.
type Variant struct {
	Name   string
	Params physics.Params
}

// DriveModeVariants returns one variant of base per drive mode.
func DriveModeVariants(base physics.Params) []Variant {
	modes := physics.DriveModes()
	variants := make([]Variant, 0, len(modes))
	for _, mode := range modes {
		p := base
		p.DriveMode = mode
		variants = append(variants, Variant{Name: mode, Params: p})
	}
	return variants
}

// Ensemble runs the same headless configuration against several parameter
// variants, each on its own Simulator.
type Ensemble struct {
	variants []Variant
	models   physics.Models
	segments []Segment
}

// NewEnsemble creates an ensemble. segments may be nil, in which case each
// run keeps a zero command.
func NewEnsemble(variants []Variant, models physics.Models, segments []Segment) *Ensemble {
	return &Ensemble{variants: variants, models: models, segments: segments}
}

// Run executes every variant concurrently and returns the final snapshots in
// variant order.
func (e *Ensemble) Run(ctx context.Context, cfg Config) ([]*Snapshot, error) {
	results := make([]*Snapshot, len(e.variants))
	errs := make([]error, len(e.variants))

	var wg sync.WaitGroup
	for i, v := range e.variants {
		wg.Add(1)
		go func(idx int, v Variant) {
			defer wg.Done()

			sim, err := New(v.Params, e.models)
			if err != nil {
				errs[idx] = fmt.Errorf("variant %s: %w", v.Name, err)
				return
			}

			var cycle *Cycle
			if len(e.segments) > 0 {
				// each run needs its own controller state
				if cycle, err = NewCycle(e.segments); err != nil {
					errs[idx] = err
					return
				}
			}

			results[idx], errs[idx] = sim.RunFor(ctx, cfg, cycle)
			if errs[idx] != nil {
				errs[idx] = fmt.Errorf("variant %s: %w", v.Name, errs[idx])
			}
		}(i, v)
	}

	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	return results, nil
}
