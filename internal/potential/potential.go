package potential

import (
	"fmt"
	"math"

	"github.com/nanobeam-data/exitwave/internal/atoms"
	"github.com/nanobeam-data/exitwave/internal/fft"
	"github.com/nanobeam-data/exitwave/internal/grid"
)

// Projection selects how atomic potentials are assigned to slices.
type Projection string

const (
	// ProjectionFinite integrates each atom's potential over the exact
	// z-range of every slice it touches. Requires a parametrization with
	// an analytic slice integral.
	ProjectionFinite Projection = "finite"

	// ProjectionInfinite assigns each atom's full projected potential to
	// the single slice containing its nucleus, evaluated in Fourier
	// space. Fast, and the only mode available for parametrizations
	// without analytic integrals.
	ProjectionInfinite Projection = "infinite"
)

// DefaultSliceThickness is the slice thickness (Å) used when a builder
// does not specify one.
const DefaultSliceThickness = 0.5

// DefaultCutoffRadius is the radial truncation (Å) of per-atom
// contributions in finite projection.
const DefaultCutoffRadius = 4.0

// Potential is a sliced projected potential sampled on a grid. Slice
// arrays are row-major gpts[0] x gpts[1] in V·Å.
type Potential struct {
	gr        *grid.Grid
	slices    [][]float64
	thickness float64
}

// Grid returns the xy sampling grid of the slices.
func (p *Potential) Grid() *grid.Grid { return p.gr }

// NumSlices returns the number of slices.
func (p *Potential) NumSlices() int { return len(p.slices) }

// SliceThickness returns the thickness (Å) of slice i. Slices are
// uniform; the index mirrors the accessor shape multislice needs.
func (p *Potential) SliceThickness(i int) float64 { return p.thickness }

// Slice returns the projected potential of slice i (V·Å). The returned
// slice is shared, not copied.
func (p *Potential) Slice(i int) []float64 { return p.slices[i] }

// Depth returns the total thickness (Å).
func (p *Potential) Depth() float64 {
	return p.thickness * float64(len(p.slices))
}

// Project returns the sum of all slices: the total projected potential.
func (p *Potential) Project() []float64 {
	out := make([]float64, p.gr.Len())
	for _, s := range p.slices {
		for i, v := range s {
			out[i] += v
		}
	}
	return out
}

// FromSlices assembles a Potential directly from precomputed slice
// arrays. Used by tests and by callers with externally computed
// potentials.
func FromSlices(gr *grid.Grid, slices [][]float64, thickness float64) (*Potential, error) {
	if err := gr.Check(); err != nil {
		return nil, err
	}
	if thickness <= 0 {
		return nil, fmt.Errorf("potential: slice thickness must be positive, got %v", thickness)
	}
	for i, s := range slices {
		if len(s) != gr.Len() {
			return nil, fmt.Errorf("potential: slice %d has %d points, grid needs %d", i, len(s), gr.Len())
		}
	}
	return &Potential{gr: gr, slices: slices, thickness: thickness}, nil
}

// Builder constructs a sliced potential from an atomic structure.
type Builder struct {
	Atoms *atoms.Atoms

	// Gpts or Sampling defines the grid resolution; extent always comes
	// from the structure's cell. Set one of the two.
	Gpts     [2]int
	Sampling float64

	SliceThickness  float64 // Å; DefaultSliceThickness if zero
	Projection      Projection
	Parametrization Parametrization
	CutoffRadius    float64 // finite projection truncation (Å)
}

// Build validates the builder and computes the sliced potential.
func (b *Builder) Build() (*Potential, error) {
	if b.Atoms == nil || b.Atoms.Len() == 0 {
		return nil, fmt.Errorf("potential: no atoms")
	}
	if !atoms.IsOrthogonal(b.Atoms, 1e-9) {
		return nil, fmt.Errorf("potential: cell is not orthogonal; orthogonalize the structure first")
	}
	ext := b.Atoms.Extent()
	if ext[0] <= 0 || ext[1] <= 0 || ext[2] <= 0 {
		return nil, fmt.Errorf("potential: cell extent not positive: %v", ext)
	}

	gr := &grid.Grid{Extent: [2]float64{ext[0], ext[1]}, Gpts: b.Gpts}
	if b.Sampling > 0 {
		gr.Sampling = [2]float64{b.Sampling, b.Sampling}
	}
	if err := gr.Adjust(); err != nil {
		return nil, err
	}

	dz := b.SliceThickness
	if dz <= 0 {
		dz = DefaultSliceThickness
	}
	n := int(math.Ceil(ext[2]/dz - 1e-9))
	if n < 1 {
		n = 1
	}
	dz = ext[2] / float64(n)

	param := b.Parametrization
	if param == nil {
		param = Peng{}
	}

	wrapped := b.Atoms.Copy()
	wrapped.WrapXY()

	proj := b.Projection
	if proj == "" {
		proj = ProjectionFinite
	}

	slices := make([][]float64, n)
	for i := range slices {
		slices[i] = make([]float64, gr.Len())
	}

	var err error
	switch proj {
	case ProjectionFinite:
		err = buildFinite(wrapped, gr, slices, dz, param, b.CutoffRadius)
	case ProjectionInfinite:
		err = buildInfinite(wrapped, gr, slices, dz, param)
	default:
		err = fmt.Errorf("potential: unknown projection %q", proj)
	}
	if err != nil {
		return nil, err
	}

	return &Potential{gr: gr, slices: slices, thickness: dz}, nil
}

// buildFinite integrates every atom's potential over each slice it
// touches, truncated radially at the cutoff and wrapped periodically in
// the xy plane.
func buildFinite(a *atoms.Atoms, gr *grid.Grid, slices [][]float64, dz float64, param Parametrization, rc float64) error {
	if rc <= 0 {
		rc = DefaultCutoffRadius
	}
	rc2 := rc * rc
	n0, n1 := gr.Gpts[0], gr.Gpts[1]
	d0, d1 := gr.Sampling[0], gr.Sampling[1]
	nSlices := len(slices)

	for i := range a.Positions {
		z := a.Numbers[i]
		x, y, az := a.Positions[i][0], a.Positions[i][1], a.Positions[i][2]

		first := int(math.Floor((az - rc) / dz))
		last := int(math.Ceil((az + rc) / dz))
		if first < 0 {
			first = 0
		}
		if last > nSlices {
			last = nSlices
		}

		i0 := int(math.Floor((x - rc) / d0))
		i1 := int(math.Ceil((x + rc) / d0))
		j0 := int(math.Floor((y - rc) / d1))
		j1 := int(math.Ceil((y + rc) / d1))

		for s := first; s < last; s++ {
			z0 := float64(s)*dz - az
			z1 := z0 + dz
			for ix := i0; ix <= i1; ix++ {
				dx := float64(ix)*d0 - x
				px := ((ix % n0) + n0) % n0
				for iy := j0; iy <= j1; iy++ {
					dy := float64(iy)*d1 - y
					r2 := dx*dx + dy*dy
					if r2 > rc2 {
						continue
					}
					v, err := param.PotentialSliceIntegral(z, r2, z0, z1)
					if err != nil {
						return err
					}
					py := ((iy % n1) + n1) % n1
					slices[s][px*n1+py] += v
				}
			}
		}
	}
	return nil
}

// buildInfinite accumulates per-slice structure factors in Fourier space,
// multiplies by the element scattering factors and transforms back.
func buildInfinite(a *atoms.Atoms, gr *grid.Grid, slices [][]float64, dz float64, param Parametrization) error {
	n0, n1 := gr.Gpts[0], gr.Gpts[1]
	kx, ky := gr.SpatialFrequencies()

	// Scattering factors per element on the 2-D frequency grid.
	feByElement := map[int][]float64{}
	for _, z := range a.Numbers {
		if _, ok := feByElement[z]; ok {
			continue
		}
		fe := make([]float64, n0*n1)
		for i := 0; i < n0; i++ {
			for j := 0; j < n1; j++ {
				k2 := kx[i]*kx[i] + ky[j]*ky[j]
				f, err := param.ScatteringFactor(z, k2)
				if err != nil {
					return err
				}
				fe[i*n1+j] = f
			}
		}
		feByElement[z] = fe
	}

	nSlices := len(slices)
	spectra := make([][]complex128, nSlices)

	px := make([]complex128, n0)
	py := make([]complex128, n1)
	for i := range a.Positions {
		x, y, az := a.Positions[i][0], a.Positions[i][1], a.Positions[i][2]
		s := int(az / dz)
		if s < 0 {
			s = 0
		}
		if s >= nSlices {
			s = nSlices - 1
		}
		if spectra[s] == nil {
			spectra[s] = make([]complex128, n0*n1)
		}

		for ix := 0; ix < n0; ix++ {
			phi := -2 * math.Pi * kx[ix] * x
			px[ix] = complex(math.Cos(phi), math.Sin(phi))
		}
		for iy := 0; iy < n1; iy++ {
			phi := -2 * math.Pi * ky[iy] * y
			py[iy] = complex(math.Cos(phi), math.Sin(phi))
		}

		fe := feByElement[a.Numbers[i]]
		spec := spectra[s]
		for ix := 0; ix < n0; ix++ {
			row := spec[ix*n1 : (ix+1)*n1]
			feRow := fe[ix*n1 : (ix+1)*n1]
			for iy := 0; iy < n1; iy++ {
				row[iy] += complex(feRow[iy], 0) * px[ix] * py[iy]
			}
		}
	}

	scale := ScatteringConversion / (gr.Sampling[0] * gr.Sampling[1])
	for s, spec := range spectra {
		if spec == nil {
			continue
		}
		fft.Inverse2(spec, n0, n1)
		for i, v := range spec {
			slices[s][i] = real(v) * scale
		}
	}
	return nil
}
