// Package grid defines the 2-D real-space simulation grid shared by wave
// functions and potentials: a rectangular extent (Å) discretised into grid
// points, together with the reciprocal-space quantities derived from it.
package grid

import (
	"errors"
	"fmt"
	"math"

	"github.com/nanobeam-data/exitwave/internal/units"
)

// Sentinel errors for undefined grid state. The wording is load-bearing:
// callers match on it when deciding whether a simulation can be started.
var (
	ErrExtentUndefined = errors.New("grid extent is not defined")
	ErrEnergyUndefined = errors.New("energy is not defined")
)

// Grid describes a 2-D sampling of a rectangular region. Any two of
// extent, gpts and sampling determine the third; Adjust resolves them.
type Grid struct {
	Extent   [2]float64 // region size (Å)
	Gpts     [2]int     // grid points per dimension
	Sampling [2]float64 // real-space sampling (Å/pixel)
}

// Square returns a grid with equal extent and gpts in both dimensions.
func Square(extent float64, gpts int) (*Grid, error) {
	g := &Grid{Extent: [2]float64{extent, extent}, Gpts: [2]int{gpts, gpts}}
	if err := g.Adjust(); err != nil {
		return nil, err
	}
	return g, nil
}

// FromSampling returns a grid covering extent with the requested sampling.
// The sampling is rounded so an integer number of grid points fits.
func FromSampling(extent [2]float64, sampling float64) (*Grid, error) {
	g := &Grid{
		Extent:   extent,
		Sampling: [2]float64{sampling, sampling},
	}
	if err := g.Adjust(); err != nil {
		return nil, err
	}
	return g, nil
}

// Adjust fills in whichever of extent, gpts or sampling is unset from the
// other two. It returns an error if the grid is under-determined.
func (g *Grid) Adjust() error {
	for i := 0; i < 2; i++ {
		switch {
		case g.Extent[i] > 0 && g.Gpts[i] > 0:
			g.Sampling[i] = g.Extent[i] / float64(g.Gpts[i])
		case g.Extent[i] > 0 && g.Sampling[i] > 0:
			g.Gpts[i] = int(math.Ceil(g.Extent[i] / g.Sampling[i]))
			g.Sampling[i] = g.Extent[i] / float64(g.Gpts[i])
		case g.Gpts[i] > 0 && g.Sampling[i] > 0:
			g.Extent[i] = float64(g.Gpts[i]) * g.Sampling[i]
		default:
			return ErrExtentUndefined
		}
	}
	return nil
}

// Check returns an error unless extent, gpts and sampling are all defined
// and mutually consistent.
func (g *Grid) Check() error {
	for i := 0; i < 2; i++ {
		if g.Extent[i] <= 0 || g.Gpts[i] <= 0 || g.Sampling[i] <= 0 {
			return ErrExtentUndefined
		}
		if math.Abs(g.Extent[i]-float64(g.Gpts[i])*g.Sampling[i]) > 1e-9*g.Extent[i] {
			return fmt.Errorf("grid dimension %d inconsistent: extent %v != gpts %d * sampling %v",
				i, g.Extent[i], g.Gpts[i], g.Sampling[i])
		}
	}
	return nil
}

// Match copies any quantity defined on other but not on g, then adjusts.
// Wave functions and potentials use it to agree on a common grid.
func (g *Grid) Match(other *Grid) error {
	for i := 0; i < 2; i++ {
		if g.Extent[i] <= 0 {
			g.Extent[i] = other.Extent[i]
		}
		if g.Gpts[i] <= 0 {
			g.Gpts[i] = other.Gpts[i]
		}
	}
	return g.Adjust()
}

// Len returns the total number of grid points.
func (g *Grid) Len() int { return g.Gpts[0] * g.Gpts[1] }

// Copy returns a value copy of the grid.
func (g *Grid) Copy() *Grid {
	c := *g
	return &c
}

// FrequencyLimits returns the maximum unaliased spatial frequency (1/Å)
// for each dimension (the Nyquist frequency).
func (g *Grid) FrequencyLimits() [2]float64 {
	return [2]float64{
		1 / (2 * g.Sampling[0]),
		1 / (2 * g.Sampling[1]),
	}
}

// AntialiasCutoff returns the spatial-frequency cutoff (1/Å) of the
// antialiasing aperture used during multislice propagation. Band limiting
// at 2/3 of Nyquist keeps the transmission-propagation product alias free.
func (g *Grid) AntialiasCutoff() float64 {
	lim := g.FrequencyLimits()
	return 2. / 3. * math.Min(lim[0], lim[1])
}

// CutoffAngles returns the per-dimension maximum scattering angles (mrad)
// representable on the grid for the given beam energy (eV), after the
// antialiasing aperture is taken into account.
func (g *Grid) CutoffAngles(energy float64) [2]float64 {
	lim := g.FrequencyLimits()
	cut := g.AntialiasCutoff()
	a := [2]float64{}
	for i := 0; i < 2; i++ {
		k := math.Min(lim[i], cut)
		a[i] = units.AngstromInvToMrad(k, energy)
	}
	return a
}

// AngularSampling returns the reciprocal-space sampling (mrad/pixel) for
// the given beam energy (eV).
func (g *Grid) AngularSampling(energy float64) [2]float64 {
	return [2]float64{
		units.AngstromInvToMrad(1/g.Extent[0], energy),
		units.AngstromInvToMrad(1/g.Extent[1], energy),
	}
}

// Frequencies returns the FFT-ordered spatial frequencies (1/Å) along one
// dimension: n grid points with the given sampling (Å/pixel). Index zero
// is the DC component; negative frequencies occupy the upper half, the
// same layout the FFT produces.
func Frequencies(n int, sampling float64) []float64 {
	k := make([]float64, n)
	d := 1 / (sampling * float64(n))
	for i := 0; i < (n+1)/2; i++ {
		k[i] = float64(i) * d
	}
	for i := (n + 1) / 2; i < n; i++ {
		k[i] = float64(i-n) * d
	}
	return k
}

// SpatialFrequencies returns the FFT-ordered frequencies (1/Å) for both
// grid dimensions.
func (g *Grid) SpatialFrequencies() ([]float64, []float64) {
	return Frequencies(g.Gpts[0], g.Sampling[0]),
		Frequencies(g.Gpts[1], g.Sampling[1])
}
