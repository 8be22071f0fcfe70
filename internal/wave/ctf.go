package wave

import (
	"fmt"
	"math"
	"math/cmplx"

	"github.com/nanobeam-data/exitwave/internal/fft"
	"github.com/nanobeam-data/exitwave/internal/grid"
	"github.com/nanobeam-data/exitwave/internal/units"
)

// CTF is a contrast transfer function: the frequency-domain operator
// modelling objective-lens aberrations and partial coherence. The zero
// value is an ideal lens with no aperture.
//
// Sign convention: positive Defocus is underfocus, i.e. C10 = -Defocus.
type CTF struct {
	SemiangleCutoff  float64 // aperture semiangle (mrad); 0 means open
	Defocus          float64 // Å
	Cs               float64 // spherical aberration (Å)
	Astigmatism      float64 // twofold astigmatism (Å)
	AstigmatismAngle float64 // azimuth of the astigmatism (rad)
	FocalSpread      float64 // 1/e half-width of the focal distribution (Å)
	AngularSpread    float64 // source angular spread (mrad)
}

// Aperture returns 1 inside the aperture at squared spatial frequency k2
// (1/Å²) for the given beam energy, 0 outside.
func (c *CTF) Aperture(energy, k2 float64) float64 {
	if c.SemiangleCutoff <= 0 {
		return 1
	}
	kcut := units.MradToAngstromInv(c.SemiangleCutoff, energy)
	if k2 > kcut*kcut {
		return 0
	}
	return 1
}

// chi returns the aberration phase (rad) at squared spatial frequency k2
// and azimuth phi.
func (c *CTF) chi(lambda, k2, phi float64) float64 {
	defocusTerm := -c.Defocus
	if c.Astigmatism != 0 {
		defocusTerm += c.Astigmatism * math.Cos(2*(phi-c.AstigmatismAngle))
	}
	return math.Pi*lambda*k2*defocusTerm +
		0.5*math.Pi*c.Cs*lambda*lambda*lambda*k2*k2
}

// Evaluate returns the complex transfer value at squared spatial
// frequency k2 (1/Å²) and azimuth phi (rad) for the given beam energy
// (eV): aperture times coherence envelopes times the aberration phase
// factor exp(-iχ).
func (c *CTF) Evaluate(energy, k2, phi float64) complex128 {
	a := c.Aperture(energy, k2)
	if a == 0 {
		return 0
	}
	lambda := units.Wavelength(energy)

	env := 1.0
	if c.FocalSpread > 0 {
		// Gaussian defocus distribution damps high frequencies.
		u := math.Pi * lambda * c.FocalSpread * k2
		env *= math.Exp(-0.5 * u * u)
	}
	if c.AngularSpread > 0 {
		// Source-spread envelope from the gradient of the phase surface.
		k := math.Sqrt(k2)
		grad := c.Cs*lambda*lambda*k2*k - c.Defocus*k
		u := math.Pi * c.AngularSpread / 1000 / lambda * lambda * grad
		env *= math.Exp(-u * u)
	}

	return complex(a*env, 0) * cmplx.Exp(complex(0, -c.chi(lambda, k2, phi)))
}

// Apply returns a new batch with the transfer function applied to every
// wave: forward FFT, multiply, inverse FFT.
func (c *CTF) Apply(w *Waves) (*Waves, error) {
	if err := w.Gr.Check(); err != nil {
		return nil, err
	}
	if w.Energy <= 0 {
		return nil, fmt.Errorf("wave: ctf: %w", grid.ErrEnergyUndefined)
	}

	out := w.Copy()
	n0, n1 := w.Gr.Gpts[0], w.Gr.Gpts[1]
	kx, ky := w.Gr.SpatialFrequencies()

	h := make([]complex128, w.Gr.Len())
	for i, kxi := range kx {
		for j, kyj := range ky {
			k2 := kxi*kxi + kyj*kyj
			phi := math.Atan2(kyj, kxi)
			h[i*n1+j] = c.Evaluate(w.Energy, k2, phi)
		}
	}

	plan := fft.NewPlan2(n0, n1)
	for b := 0; b < out.N; b++ {
		a := out.At(b)
		plan.Forward(a)
		for i := range a {
			a[i] *= h[i]
		}
		plan.Inverse(a)
	}
	return out, nil
}

// ScherzerDefocus returns the Scherzer defocus (Å) for a spherical
// aberration coefficient Cs (Å) at the given beam energy (eV).
func ScherzerDefocus(cs, energy float64) float64 {
	return 1.2 * math.Sqrt(cs*units.Wavelength(energy))
}

// PointResolution returns the Scherzer point resolution (Å).
func PointResolution(cs, energy float64) float64 {
	lambda := units.Wavelength(energy)
	return 0.6 * math.Pow(lambda, 0.75) * math.Pow(cs, 0.25)
}
