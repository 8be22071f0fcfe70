package wave

import (
	"fmt"
	"math"

	"github.com/nanobeam-data/exitwave/internal/fft"
	"github.com/nanobeam-data/exitwave/internal/grid"
)

// Probe builds focused probe wave functions for STEM-style simulations.
// The CTF's semiangle cutoff defines the condenser aperture and must be
// set.
type Probe struct {
	Gr     *grid.Grid
	Energy float64 // eV
	CTF    CTF
}

// Validate checks that grid, energy and aperture are defined.
func (p *Probe) Validate() error {
	if p.Gr == nil {
		return grid.ErrExtentUndefined
	}
	if err := p.Gr.Adjust(); err != nil {
		return err
	}
	if p.Energy <= 0 {
		return grid.ErrEnergyUndefined
	}
	if p.CTF.SemiangleCutoff <= 0 {
		return fmt.Errorf("wave: probe semiangle cutoff is not defined")
	}
	return nil
}

// Build returns a single probe centered in the grid.
func (p *Probe) Build() (*Waves, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	center := [2]float64{p.Gr.Extent[0] / 2, p.Gr.Extent[1] / 2}
	return p.BuildAt([][2]float64{center})
}

// BuildAt returns a batch with one normalized probe per scan position
// (Å). Probes are built in Fourier space from the aperture and
// aberration surface, with a phase ramp translating each to its
// position.
func (p *Probe) BuildAt(positions [][2]float64) (*Waves, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if len(positions) == 0 {
		return nil, fmt.Errorf("wave: no probe positions")
	}

	w, err := NewWaves(p.Gr, p.Energy, len(positions))
	if err != nil {
		return nil, err
	}

	n0, n1 := p.Gr.Gpts[0], p.Gr.Gpts[1]
	kx, ky := p.Gr.SpatialFrequencies()

	// Transfer surface without the translation ramp, shared by the batch.
	base := make([]complex128, p.Gr.Len())
	for i, kxi := range kx {
		for j, kyj := range ky {
			k2 := kxi*kxi + kyj*kyj
			base[i*n1+j] = p.CTF.Evaluate(p.Energy, k2, math.Atan2(kyj, kxi))
		}
	}

	plan := fft.NewPlan2(n0, n1)
	px := make([]complex128, n0)
	py := make([]complex128, n1)
	for b, pos := range positions {
		for i, kxi := range kx {
			phi := -2 * math.Pi * kxi * pos[0]
			px[i] = complex(math.Cos(phi), math.Sin(phi))
		}
		for j, kyj := range ky {
			phi := -2 * math.Pi * kyj * pos[1]
			py[j] = complex(math.Cos(phi), math.Sin(phi))
		}

		a := w.At(b)
		for i := 0; i < n0; i++ {
			for j := 0; j < n1; j++ {
				a[i*n1+j] = base[i*n1+j] * px[i] * py[j]
			}
		}
		plan.Inverse(a)
	}
	w.Normalize()
	return w, nil
}
