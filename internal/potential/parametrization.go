// Package potential builds projected electrostatic potentials from atomic
// structures: per-element scattering-factor parametrizations, and a slicing
// builder that produces the thin projected-potential layers consumed by
// multislice propagation.
package potential

import (
	"fmt"
	"math"
)

// ScatteringConversion converts an electron scattering amplitude (Å) to a
// potential Fourier component: h²/(2π m₀ e) in V·Å³ (Kirkland 2010,
// appendix C).
const ScatteringConversion = 47.87801

// A Parametrization evaluates tabulated electron scattering factors for
// single atoms. k² arguments are squared spatial frequencies (1/Å²).
type Parametrization interface {
	// Name returns the parametrization identifier, e.g. "peng".
	Name() string

	// ScatteringFactor returns the electron scattering factor (Å) of
	// element z at squared spatial frequency k2.
	ScatteringFactor(z int, k2 float64) (float64, error)

	// ProjectedPotential returns the full projected potential (V·Å) of
	// element z at squared radial distance r2 (Å²) from the nucleus.
	ProjectedPotential(z int, r2 float64) (float64, error)

	// PotentialSliceIntegral returns the potential of element z at squared
	// radial distance r2, integrated along the beam from z0 to z1 relative
	// to the nucleus (V·Å). Parametrizations without an analytic integral
	// return an error.
	PotentialSliceIntegral(z int, r2, z0, z1 float64) (float64, error)
}

// ByName returns the parametrization registered under name.
func ByName(name string) (Parametrization, error) {
	switch name {
	case "peng", "":
		return Peng{}, nil
	case "kirkland":
		return Kirkland{}, nil
	default:
		return nil, fmt.Errorf("potential: unknown parametrization %q", name)
	}
}

// pengEntry holds the five-Gaussian fit f(s) = Σ aᵢ exp(-bᵢ s²) with
// s = k/2 the scattering parameter (1/Å).
type pengEntry struct {
	a [5]float64
	b [5]float64
}

// Peng evaluates the five-Gaussian electron scattering factors of
// Peng et al. (1996). The Gaussian form has analytic projected potentials
// and slice integrals, which makes it the default for finite projection.
type Peng struct{}

// Name implements Parametrization.
func (Peng) Name() string { return "peng" }

func pengParams(z int) (pengEntry, error) {
	e, ok := pengTable[z]
	if !ok {
		return pengEntry{}, fmt.Errorf("potential: no peng parameters for element %d", z)
	}
	return e, nil
}

// ScatteringFactor implements Parametrization.
func (Peng) ScatteringFactor(z int, k2 float64) (float64, error) {
	e, err := pengParams(z)
	if err != nil {
		return 0, err
	}
	s2 := k2 / 4 // s = k/2
	var f float64
	for i := 0; i < 5; i++ {
		f += e.a[i] * math.Exp(-e.b[i]*s2)
	}
	return f, nil
}

// ProjectedPotential implements Parametrization. For a Gaussian fit the
// projection along z is analytic:
//
//	v(ρ) = C Σᵢ aᵢ (4π/bᵢ) exp(-4π² ρ²/bᵢ)
//
// with C the scattering-to-potential conversion.
func (Peng) ProjectedPotential(z int, r2 float64) (float64, error) {
	e, err := pengParams(z)
	if err != nil {
		return 0, err
	}
	var v float64
	for i := 0; i < 5; i++ {
		v += e.a[i] * (4 * math.Pi / e.b[i]) * math.Exp(-4*math.Pi*math.Pi*r2/e.b[i])
	}
	return ScatteringConversion * v, nil
}

// PotentialSliceIntegral implements Parametrization, integrating the 3-D
// Gaussian potential between z0 and z1 relative to the nucleus.
func (Peng) PotentialSliceIntegral(z int, r2, z0, z1 float64) (float64, error) {
	e, err := pengParams(z)
	if err != nil {
		return 0, err
	}
	var v float64
	for i := 0; i < 5; i++ {
		// 3-D potential term: aᵢ (4π/bᵢ)^{3/2} exp(-4π²(ρ²+z²)/bᵢ).
		// ∫ exp(-4π²z²/bᵢ) dz over [z0, z1] = √bᵢ/(4√π) (erf(2πz₁/√bᵢ) - erf(2πz₀/√bᵢ)).
		sb := math.Sqrt(e.b[i])
		amp := e.a[i] * math.Pow(4*math.Pi/e.b[i], 1.5) *
			math.Exp(-4*math.Pi*math.Pi*r2/e.b[i])
		zpart := sb / (4 * math.SqrtPi) *
			(math.Erf(2*math.Pi*z1/sb) - math.Erf(2*math.Pi*z0/sb))
		v += amp * zpart
	}
	return ScatteringConversion * v, nil
}

// kirklandEntry holds Kirkland's Lorentzian-plus-Gaussian fit
// f(k) = Σ aᵢ/(k²+bᵢ) + Σ cᵢ exp(-dᵢ k²).
type kirklandEntry struct {
	a, b, c, d [3]float64
}

// Kirkland evaluates the scattering-factor fits of Kirkland (2010).
// The Lorentzian terms have no closed-form slice integral, so Kirkland
// parameters are only usable with infinite projection.
type Kirkland struct{}

// Name implements Parametrization.
func (Kirkland) Name() string { return "kirkland" }

func kirklandParams(z int) (kirklandEntry, error) {
	e, ok := kirklandTable[z]
	if !ok {
		return kirklandEntry{}, fmt.Errorf("potential: no kirkland parameters for element %d", z)
	}
	return e, nil
}

// ScatteringFactor implements Parametrization.
func (Kirkland) ScatteringFactor(z int, k2 float64) (float64, error) {
	e, err := kirklandParams(z)
	if err != nil {
		return 0, err
	}
	var f float64
	for i := 0; i < 3; i++ {
		f += e.a[i]/(k2+e.b[i]) + e.c[i]*math.Exp(-e.d[i]*k2)
	}
	return f, nil
}

// ProjectedPotential is not available in closed form for the Lorentzian
// terms (it requires the modified Bessel function K₀).
func (Kirkland) ProjectedPotential(z int, r2 float64) (float64, error) {
	return 0, fmt.Errorf("potential: kirkland parametrization supports infinite projection only")
}

// PotentialSliceIntegral is not available for Kirkland parameters.
func (Kirkland) PotentialSliceIntegral(z int, r2, z0, z1 float64) (float64, error) {
	return 0, fmt.Errorf("potential: kirkland parametrization supports infinite projection only")
}
