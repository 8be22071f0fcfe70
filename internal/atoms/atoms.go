// Package atoms represents atomic structures on orthorhombic and sheared
// cells, with the geometry utilities needed to prepare a structure for
// projected-potential construction: orthogonality checks, cell
// standardization, periodic tiling into a rectangle and duplicate merging.
package atoms

import (
	"fmt"
	"math"
)

// Atoms is a collection of atoms in a periodic cell. Positions are
// Cartesian (Å). Cell rows are the lattice vectors.
type Atoms struct {
	Numbers   []int        // atomic numbers, len == len(Positions)
	Positions [][3]float64 // Cartesian coordinates (Å)
	Cell      [3][3]float64
}

// New creates an Atoms collection, validating that numbers and positions
// have matching lengths.
func New(numbers []int, positions [][3]float64, cell [3][3]float64) (*Atoms, error) {
	if len(numbers) != len(positions) {
		return nil, fmt.Errorf("atoms: %d numbers for %d positions", len(numbers), len(positions))
	}
	for i, z := range numbers {
		if z < 1 || z > maxAtomicNumber {
			return nil, fmt.Errorf("atoms: invalid atomic number %d at index %d", z, i)
		}
	}
	return &Atoms{
		Numbers:   append([]int(nil), numbers...),
		Positions: append([][3]float64(nil), positions...),
		Cell:      cell,
	}, nil
}

// Orthorhombic creates an Atoms collection with a diagonal cell.
func Orthorhombic(numbers []int, positions [][3]float64, a, b, c float64) (*Atoms, error) {
	return New(numbers, positions, [3][3]float64{{a, 0, 0}, {0, b, 0}, {0, 0, c}})
}

// Len returns the number of atoms.
func (a *Atoms) Len() int { return len(a.Numbers) }

// Copy returns a deep copy.
func (a *Atoms) Copy() *Atoms {
	return &Atoms{
		Numbers:   append([]int(nil), a.Numbers...),
		Positions: append([][3]float64(nil), a.Positions...),
		Cell:      a.Cell,
	}
}

// Extent returns the cell diagonal; only meaningful for orthogonal cells.
func (a *Atoms) Extent() [3]float64 {
	return [3]float64{a.Cell[0][0], a.Cell[1][1], a.Cell[2][2]}
}

// Depth returns the cell size along the beam direction (z, Å).
func (a *Atoms) Depth() float64 { return a.Cell[2][2] }

// Select returns a new Atoms holding the atoms at the given indices.
func (a *Atoms) Select(indices []int) *Atoms {
	out := &Atoms{
		Numbers:   make([]int, len(indices)),
		Positions: make([][3]float64, len(indices)),
		Cell:      a.Cell,
	}
	for i, idx := range indices {
		out.Numbers[i] = a.Numbers[idx]
		out.Positions[i] = a.Positions[idx]
	}
	return out
}

// Translate shifts all positions by delta in place.
func (a *Atoms) Translate(delta [3]float64) {
	for i := range a.Positions {
		for j := 0; j < 3; j++ {
			a.Positions[i][j] += delta[j]
		}
	}
}

// Tile repeats the structure nx x ny x nz times along the lattice vectors.
// Only valid for cells without z shear.
func (a *Atoms) Tile(nx, ny, nz int) (*Atoms, error) {
	if nx < 1 || ny < 1 || nz < 1 {
		return nil, fmt.Errorf("atoms: invalid tiling %dx%dx%d", nx, ny, nz)
	}
	reps := [3]int{nx, ny, nz}
	out := &Atoms{Cell: a.Cell}
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			out.Cell[i][j] *= float64(reps[i])
		}
	}
	for ix := 0; ix < nx; ix++ {
		for iy := 0; iy < ny; iy++ {
			for iz := 0; iz < nz; iz++ {
				for i := range a.Positions {
					p := a.Positions[i]
					for j := 0; j < 3; j++ {
						p[j] += float64(ix)*a.Cell[0][j] + float64(iy)*a.Cell[1][j] + float64(iz)*a.Cell[2][j]
					}
					out.Positions = append(out.Positions, p)
					out.Numbers = append(out.Numbers, a.Numbers[i])
				}
			}
		}
	}
	return out, nil
}

// WrapXY maps x/y positions into the cell by periodic wrapping. Only
// valid for orthogonal cells.
func (a *Atoms) WrapXY() {
	ex, ey := a.Cell[0][0], a.Cell[1][1]
	for i := range a.Positions {
		a.Positions[i][0] = wrap(a.Positions[i][0], ex)
		a.Positions[i][1] = wrap(a.Positions[i][1], ey)
	}
}

func wrap(x, period float64) float64 {
	if period <= 0 {
		return x
	}
	x = math.Mod(x, period)
	if x < 0 {
		x += period
	}
	return x
}
