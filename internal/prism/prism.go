// Package prism implements the PRISM scattering-matrix acceleration of
// STEM simulation: a basis of plane waves inside the probe aperture is
// propagated through the specimen once, after which probes at arbitrary
// scan positions are simple coefficient sums over the basis.
package prism

import (
	"context"
	"fmt"
	"math"

	"github.com/nanobeam-data/exitwave/internal/grid"
	"github.com/nanobeam-data/exitwave/internal/units"
	"github.com/nanobeam-data/exitwave/internal/wave"
)

// Prism configures a scattering-matrix build.
type Prism struct {
	Gr              *grid.Grid
	Energy          float64 // eV
	SemiangleCutoff float64 // probe aperture (mrad)
	Interpolation   int     // PRISM interpolation factor f >= 1
}

// Validate checks the configuration, resolving the grid.
func (p *Prism) Validate() error {
	if p.Interpolation < 1 {
		return fmt.Errorf("prism: interpolation factor must be a positive integer, got %d", p.Interpolation)
	}
	if p.Gr == nil {
		return grid.ErrExtentUndefined
	}
	if err := p.Gr.Adjust(); err != nil {
		return err
	}
	if p.Energy <= 0 {
		return grid.ErrEnergyUndefined
	}
	if p.SemiangleCutoff <= 0 {
		return fmt.Errorf("prism: semiangle cutoff is not defined")
	}
	for i := 0; i < 2; i++ {
		if p.Gr.Gpts[i]%p.Interpolation != 0 {
			return fmt.Errorf("prism: gpts %v not divisible by interpolation factor %d", p.Gr.Gpts, p.Interpolation)
		}
	}
	return nil
}

// SMatrix is the built (and possibly specimen-propagated) scattering
// matrix: one stored wave per aperture plane wave.
type SMatrix struct {
	gr            *grid.Grid
	energy        float64
	cutoff        float64
	interpolation int

	kx, ky []float64 // per-beam spatial frequencies (1/Å)
	waves  *wave.Waves
}

// Build constructs the plane-wave basis: every reciprocal-lattice vector
// that is a multiple of the interpolation factor and lies inside the
// aperture.
func (p *Prism) Build() (*SMatrix, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	f := p.Interpolation
	kcut := units.MradToAngstromInv(p.SemiangleCutoff, p.Energy)
	kcut2 := kcut * kcut

	n0, n1 := p.Gr.Gpts[0], p.Gr.Gpts[1]
	fx := grid.Frequencies(n0, p.Gr.Sampling[0])
	fy := grid.Frequencies(n1, p.Gr.Sampling[1])

	var kx, ky []float64
	for i := 0; i < n0; i++ {
		if idxStep(i, n0, f) {
			continue
		}
		for j := 0; j < n1; j++ {
			if idxStep(j, n1, f) {
				continue
			}
			k2 := fx[i]*fx[i] + fy[j]*fy[j]
			if k2 <= kcut2 {
				kx = append(kx, fx[i])
				ky = append(ky, fy[j])
			}
		}
	}
	w, err := wave.NewWaves(p.Gr, p.Energy, len(kx))
	if err != nil {
		return nil, err
	}

	// Each basis wave is exp(2πi k·r), built from separable phase ramps.
	px := make([]complex128, n0)
	py := make([]complex128, n1)
	for b := range kx {
		for i := 0; i < n0; i++ {
			phi := 2 * math.Pi * kx[b] * float64(i) * p.Gr.Sampling[0]
			px[i] = complex(math.Cos(phi), math.Sin(phi))
		}
		for j := 0; j < n1; j++ {
			phi := 2 * math.Pi * ky[b] * float64(j) * p.Gr.Sampling[1]
			py[j] = complex(math.Cos(phi), math.Sin(phi))
		}
		a := w.At(b)
		for i := 0; i < n0; i++ {
			for j := 0; j < n1; j++ {
				a[i*n1+j] = px[i] * py[j]
			}
		}
	}

	return &SMatrix{
		gr:            p.Gr.Copy(),
		energy:        p.Energy,
		cutoff:        p.SemiangleCutoff,
		interpolation: f,
		kx:            kx,
		ky:            ky,
		waves:         w,
	}, nil
}

// idxStep reports whether FFT index i on an n-point axis is NOT a
// multiple of the interpolation factor (counting signed frequencies).
func idxStep(i, n, f int) bool {
	signed := i
	if i >= (n+1)/2 {
		signed = i - n
	}
	return signed%f != 0
}

// NumBeams returns the number of plane waves in the basis.
func (s *SMatrix) NumBeams() int { return len(s.kx) }

// Interpolation returns the interpolation factor.
func (s *SMatrix) Interpolation() int { return s.interpolation }

// Energy returns the beam energy (eV).
func (s *SMatrix) Energy() float64 { return s.energy }

// Multislice propagates the whole basis through the potential in place.
func (s *SMatrix) Multislice(ctx context.Context, pot wave.Potential) error {
	return s.waves.Multislice(ctx, pot)
}

// WindowGrid returns the grid of collapsed probe wave functions: the
// full grid divided by the interpolation factor.
func (s *SMatrix) WindowGrid() *grid.Grid {
	f := float64(s.interpolation)
	g := &grid.Grid{
		Extent: [2]float64{s.gr.Extent[0] / f, s.gr.Extent[1] / f},
		Gpts:   [2]int{s.gr.Gpts[0] / s.interpolation, s.gr.Gpts[1] / s.interpolation},
	}
	_ = g.Adjust()
	return g
}

// BuildAt collapses the scattering matrix into probe wave functions at
// the given scan positions (Å). The optional ctf adds aberrations to the
// collapse coefficients; nil means an ideal aperture-limited probe.
func (s *SMatrix) BuildAt(positions [][2]float64, ctf *wave.CTF) (*wave.Waves, error) {
	if len(positions) == 0 {
		return nil, fmt.Errorf("prism: no probe positions")
	}

	wg := s.WindowGrid()
	out, err := wave.NewWaves(wg, s.energy, len(positions))
	if err != nil {
		return nil, err
	}

	n0, n1 := s.gr.Gpts[0], s.gr.Gpts[1]
	w0, w1 := wg.Gpts[0], wg.Gpts[1]

	// The probe normalization constant: collapsing with it reproduces a
	// unit-intensity probe for unscattered beams.
	scale := complex(1/math.Sqrt(float64(w0*w1)*float64(len(s.kx))), 0)

	coeff := make([]complex128, len(s.kx))
	for b, pos := range positions {
		for n := range s.kx {
			phi := -2 * math.Pi * (s.kx[n]*pos[0] + s.ky[n]*pos[1])
			c := complex(math.Cos(phi), math.Sin(phi))
			if ctf != nil {
				k2 := s.kx[n]*s.kx[n] + s.ky[n]*s.ky[n]
				c *= ctf.Evaluate(s.energy, k2, math.Atan2(s.ky[n], s.kx[n]))
			}
			coeff[n] = c * scale
		}

		// Window origin on the full grid, snapped to a pixel. Without
		// interpolation the window is the whole grid and the probe sits
		// at its true position; with interpolation the window is
		// centered on the scan position.
		var ox, oy int
		if s.interpolation > 1 {
			ox = int(math.Round((pos[0] - wg.Extent[0]/2) / s.gr.Sampling[0]))
			oy = int(math.Round((pos[1] - wg.Extent[1]/2) / s.gr.Sampling[1]))
		}

		dst := out.At(b)
		for i := 0; i < w0; i++ {
			gi := ((ox+i)%n0 + n0) % n0
			for j := 0; j < w1; j++ {
				gj := ((oy+j)%n1 + n1) % n1
				var sum complex128
				for n := range coeff {
					sum += coeff[n] * s.waves.At(n)[gi*n1+gj]
				}
				dst[i*w1+j] = sum
			}
		}
	}
	return out, nil
}
