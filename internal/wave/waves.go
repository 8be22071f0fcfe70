// Package wave implements electron wave functions and their propagation:
// plane-wave and focused-probe builders, FFT-based multislice transmission
// through sliced potentials, contrast-transfer-function application and
// far-field diffraction.
package wave

import (
	"context"
	"fmt"
	"math"
	"math/cmplx"

	"github.com/nanobeam-data/exitwave/internal/fft"
	"github.com/nanobeam-data/exitwave/internal/grid"
	"github.com/nanobeam-data/exitwave/internal/measure"
	"github.com/nanobeam-data/exitwave/internal/units"
)

// Potential is the slice-wise view of a projected potential that
// multislice propagation consumes. Implemented by potential.Potential.
type Potential interface {
	Grid() *grid.Grid
	NumSlices() int
	SliceThickness(i int) float64
	Slice(i int) []float64 // projected potential (V·Å), row-major
}

// Waves is a batch of complex wave functions sharing one grid and beam
// energy. Data is row-major, one grid-sized block per wave.
type Waves struct {
	Gr     *grid.Grid
	Energy float64 // eV
	Data   []complex128
	N      int // batch size
}

// NewWaves allocates a zeroed batch of n wave functions.
func NewWaves(gr *grid.Grid, energy float64, n int) (*Waves, error) {
	if err := gr.Check(); err != nil {
		return nil, err
	}
	if energy <= 0 {
		return nil, grid.ErrEnergyUndefined
	}
	if n < 1 {
		return nil, fmt.Errorf("wave: batch size must be positive, got %d", n)
	}
	return &Waves{
		Gr:     gr.Copy(),
		Energy: energy,
		Data:   make([]complex128, n*gr.Len()),
		N:      n,
	}, nil
}

// At returns the array of wave i, shared with the batch.
func (w *Waves) At(i int) []complex128 {
	l := w.Gr.Len()
	return w.Data[i*l : (i+1)*l]
}

// Copy returns a deep copy of the batch.
func (w *Waves) Copy() *Waves {
	return &Waves{
		Gr:     w.Gr.Copy(),
		Energy: w.Energy,
		Data:   append([]complex128(nil), w.Data...),
		N:      w.N,
	}
}

// Wavelength returns the relativistic electron wavelength (Å).
func (w *Waves) Wavelength() float64 { return units.Wavelength(w.Energy) }

// CutoffAngles returns the per-dimension maximum scattering angles
// (mrad) after antialiasing.
func (w *Waves) CutoffAngles() [2]float64 { return w.Gr.CutoffAngles(w.Energy) }

// AngularSampling returns the reciprocal-space sampling (mrad/pixel).
func (w *Waves) AngularSampling() [2]float64 { return w.Gr.AngularSampling(w.Energy) }

// Intensity returns |ψ|² of wave i.
func (w *Waves) Intensity(i int) []float64 {
	return fft.Abs2(w.At(i), nil)
}

// TotalIntensity returns the summed |ψ|² of wave i.
func (w *Waves) TotalIntensity(i int) float64 {
	var s float64
	for _, v := range w.At(i) {
		s += real(v)*real(v) + imag(v)*imag(v)
	}
	return s
}

// Normalize scales each wave in the batch to unit total intensity.
func (w *Waves) Normalize() {
	for i := 0; i < w.N; i++ {
		total := w.TotalIntensity(i)
		if total == 0 {
			continue
		}
		scale := complex(1/math.Sqrt(total), 0)
		a := w.At(i)
		for j := range a {
			a[j] *= scale
		}
	}
}

// ImageMeasurement returns the real-space intensity of wave i as a
// calibrated measurement.
func (w *Waves) ImageMeasurement(i int) *measure.Measurement {
	return measure.New2D(w.Intensity(i), w.Gr.Gpts,
		measure.SpaceCalibrations(w.Gr.Sampling), "intensity")
}

// DiffractionPattern returns the centered far-field intensity of wave i
// as a measurement calibrated in mrad.
func (w *Waves) DiffractionPattern(i int) *measure.Measurement {
	n0, n1 := w.Gr.Gpts[0], w.Gr.Gpts[1]
	a := append([]complex128(nil), w.At(i)...)
	fft.Forward2(a, n0, n1)
	// Dividing |Ψ|² by the array length keeps the total intensity equal
	// to the real-space total (Parseval).
	scale := 1 / float64(n0*n1)
	intensity := make([]float64, len(a))
	for j, v := range a {
		intensity[j] = (real(v)*real(v) + imag(v)*imag(v)) * scale
	}
	intensity = fft.ShiftFloat2(intensity, n0, n1)
	ang := w.AngularSampling()
	return measure.New2D(intensity, w.Gr.Gpts,
		measure.FourierCalibrations(ang, w.Gr.Gpts), "diffraction")
}

// propagator builds the Fresnel free-space propagator for thickness dz
// (Å), band limited by the antialiasing aperture.
func propagator(gr *grid.Grid, energy, dz float64) []complex128 {
	lambda := units.Wavelength(energy)
	kx, ky := gr.SpatialFrequencies()
	cutoff2 := gr.AntialiasCutoff() * gr.AntialiasCutoff()

	n1 := gr.Gpts[1]
	p := make([]complex128, gr.Len())
	for i, kxi := range kx {
		for j, kyj := range ky {
			k2 := kxi*kxi + kyj*kyj
			if k2 > cutoff2 {
				continue // aperture: evanescent alias band suppressed
			}
			phi := -math.Pi * lambda * k2 * dz
			p[i*n1+j] = cmplx.Exp(complex(0, phi))
		}
	}
	return p
}

// Multislice propagates every wave in the batch through the potential,
// alternating slice transmission and Fresnel propagation. The context is
// checked between slices so long runs can be cancelled.
func (w *Waves) Multislice(ctx context.Context, pot Potential) error {
	if err := w.Gr.Match(pot.Grid()); err != nil {
		return err
	}
	if w.Gr.Gpts != pot.Grid().Gpts {
		return fmt.Errorf("wave: grid %v does not match potential grid %v", w.Gr.Gpts, pot.Grid().Gpts)
	}

	sigma := units.InteractionParameter(w.Energy)
	n0, n1 := w.Gr.Gpts[0], w.Gr.Gpts[1]
	plan := fft.NewPlan2(n0, n1)

	trans := make([]complex128, w.Gr.Len())
	var prop []complex128
	var propDz float64

	for s := 0; s < pot.NumSlices(); s++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		v := pot.Slice(s)
		for i, vi := range v {
			trans[i] = cmplx.Exp(complex(0, sigma*vi))
		}

		dz := pot.SliceThickness(s)
		if prop == nil || dz != propDz {
			prop = propagator(w.Gr, w.Energy, dz)
			propDz = dz
		}

		for b := 0; b < w.N; b++ {
			a := w.At(b)
			for i := range a {
				a[i] *= trans[i]
			}
			plan.Forward(a)
			for i := range a {
				a[i] *= prop[i]
			}
			plan.Inverse(a)
		}
	}
	return nil
}
