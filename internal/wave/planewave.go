package wave

import (
	"context"

	"github.com/nanobeam-data/exitwave/internal/grid"
)

// PlaneWave builds a uniform unit-amplitude wave function, the source for
// HRTEM-style simulations.
type PlaneWave struct {
	Gr     *grid.Grid
	Energy float64 // eV
}

// Build returns the plane wave as a single-wave batch.
func (p *PlaneWave) Build() (*Waves, error) {
	if err := p.Gr.Adjust(); err != nil {
		return nil, err
	}
	w, err := NewWaves(p.Gr, p.Energy, 1)
	if err != nil {
		return nil, err
	}
	a := w.At(0)
	for i := range a {
		a[i] = 1
	}
	return w, nil
}

// Multislice builds the plane wave on the potential's grid and propagates
// it through the potential, returning the exit wave. A grid that is
// partially defined is completed from the potential.
func (p *PlaneWave) Multislice(ctx context.Context, pot Potential) (*Waves, error) {
	if p.Gr == nil {
		p.Gr = &grid.Grid{}
	}
	if err := p.Gr.Match(pot.Grid()); err != nil {
		return nil, err
	}
	w, err := p.Build()
	if err != nil {
		return nil, err
	}
	if err := w.Multislice(ctx, pot); err != nil {
		return nil, err
	}
	return w, nil
}
