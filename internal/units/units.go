// Package units provides physical constants and unit conversions for
// electron optics. Lengths are in Ångström, energies in electron volts
// and angles in radians unless a function name says otherwise.
package units

import "math"

// Physical constants (CODATA 2018).
const (
	// PlanckConstant is Planck's constant (J s).
	PlanckConstant = 6.62607015e-34
	// SpeedOfLight is the speed of light in vacuum (m/s).
	SpeedOfLight = 299792458.0
	// ElectronMass is the electron rest mass (kg).
	ElectronMass = 9.1093837015e-31
	// ElementaryCharge is the elementary charge (C).
	ElementaryCharge = 1.602176634e-19
	// BohrRadius is the Bohr radius (Å).
	BohrRadius = 0.5291772109
	// RydbergEnergy is the Rydberg unit of energy (eV).
	RydbergEnergy = 13.605693123
)

// ElectronRestEnergy is the electron rest energy m₀c² (eV).
const ElectronRestEnergy = 510998.95

// RelativisticGamma returns the Lorentz factor for an electron accelerated
// through the given potential (eV).
func RelativisticGamma(energy float64) float64 {
	return 1 + energy/ElectronRestEnergy
}

// Wavelength returns the relativistic de Broglie wavelength (Å) of an
// electron with the given kinetic energy (eV).
func Wavelength(energy float64) float64 {
	return PlanckConstant * SpeedOfLight /
		math.Sqrt(energy*(2*ElectronRestEnergy+energy)) /
		ElementaryCharge * 1e10
}

// InteractionParameter returns the relativistic interaction parameter
// σ (rad/(V·Å)) relating projected potential to phase shift for an
// electron with the given kinetic energy (eV).
func InteractionParameter(energy float64) float64 {
	lambda := Wavelength(energy)
	return 2 * math.Pi / (lambda * energy) *
		(ElectronRestEnergy + energy) / (2*ElectronRestEnergy + energy)
}

// MradToAngstromInv converts a scattering angle (mrad) to a spatial
// frequency (1/Å) for the given beam energy (eV).
func MradToAngstromInv(angle, energy float64) float64 {
	return angle / 1000 / Wavelength(energy)
}

// AngstromInvToMrad converts a spatial frequency (1/Å) to a scattering
// angle (mrad) for the given beam energy (eV).
func AngstromInvToMrad(k, energy float64) float64 {
	return k * Wavelength(energy) * 1000
}
