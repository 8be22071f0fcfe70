package atoms

import (
	"fmt"
	"math"
)

const defaultTol = 1e-12

// IsOrthogonal reports whether all off-diagonal cell components are
// below tol.
func IsOrthogonal(a *Atoms, tol float64) bool {
	if tol <= 0 {
		tol = defaultTol
	}
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			if i != j && math.Abs(a.Cell[i][j]) > tol {
				return false
			}
		}
	}
	return true
}

// IsHexagonal reports whether the first two lattice vectors have equal
// length and meet at 60 or 120 degrees, with the third vector along z.
func IsHexagonal(a *Atoms) bool {
	va, vb, vc := a.Cell[0], a.Cell[1], a.Cell[2]

	la := norm3(va)
	lb := norm3(vb)
	lc := norm3(vc)

	if la == 0 || lb == 0 {
		return false
	}
	angle := math.Acos(dot3(va, vb) / (la * lb))

	return closeTo(la, lb) &&
		(closeTo(angle, math.Pi/3) || closeTo(angle, 2*math.Pi/3)) &&
		lc == a.Cell[2][2]
}

// StandardizeCell permutes the lattice vectors, without moving the atoms
// relative to each other, so that each vector's largest component lies on
// the diagonal. An orthorhombic cell becomes diagonal. Negative diagonal
// components are handled by the tol-shifted argmax, matching a cell given
// as |cell| + tol*I.
func StandardizeCell(a *Atoms, tol float64) {
	if tol <= 0 {
		tol = defaultTol
	}
	old := a.Cell

	var abs [3][3]float64
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			abs[i][j] = math.Abs(old[i][j])
			if i == j {
				abs[i][j] += tol
			}
		}
	}

	// Row permutation: row j of the new cell is the old row whose
	// component j is largest.
	var cell [3][3]float64
	for j := 0; j < 3; j++ {
		best := 0
		for i := 1; i < 3; i++ {
			if abs[i][j] > abs[best][j] {
				best = i
			}
		}
		for k := 0; k < 3; k++ {
			cell[j][k] = math.Abs(old[best][k])
		}
	}

	a.Cell = cell

	// Shift positions by half the summed cell change so the structure
	// stays centred.
	var shift [3]float64
	for j := 0; j < 3; j++ {
		for i := 0; i < 3; i++ {
			shift[j] += (cell[i][j] - old[i][j]) / 2
		}
	}
	a.Translate(shift)
}

// MergeOverlapping returns a copy with atoms closer than tol to an
// earlier atom removed. Single-linkage grouping: any chain of pairwise
// distances below tol collapses to the first member.
func MergeOverlapping(a *Atoms, tol float64) *Atoms {
	if tol <= 0 {
		tol = defaultTol
	}
	n := a.Len()
	parent := make([]int, n)
	for i := range parent {
		parent[i] = i
	}
	var find func(int) int
	find = func(i int) int {
		if parent[i] != i {
			parent[i] = find(parent[i])
		}
		return parent[i]
	}
	union := func(i, j int) {
		ri, rj := find(i), find(j)
		if ri != rj {
			if rj < ri {
				ri, rj = rj, ri
			}
			parent[rj] = ri
		}
	}

	tol2 := tol * tol
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			d := dist2(a.Positions[i], a.Positions[j])
			if d < tol2 {
				union(i, j)
			}
		}
	}

	var keep []int
	seen := make(map[int]bool, n)
	for i := 0; i < n; i++ {
		r := find(i)
		if !seen[r] {
			seen[r] = true
			keep = append(keep, r)
		}
	}
	return a.Select(keep)
}

// FillRectangle tiles the structure's periodic images so that the
// rectangle [origin, origin+extent) in the xy plane, padded by margin on
// all sides, is fully covered, and returns the atoms inside it together
// with the index of the source atom for each. The cell may be sheared in
// the xy plane but the third lattice vector must be along z.
func FillRectangle(a *Atoms, origin, extent [2]float64, margin float64) (*Atoms, []int, error) {
	if math.Abs(a.Cell[2][0])+math.Abs(a.Cell[2][1]) > 1e-9 {
		return nil, nil, fmt.Errorf("atoms: third lattice vector must be along z, got %v", a.Cell[2])
	}
	ax, ay := a.Cell[0][0], a.Cell[0][1]
	bx, by := a.Cell[1][0], a.Cell[1][1]

	det := ax*by - ay*bx
	if det == 0 {
		return nil, nil, fmt.Errorf("atoms: singular xy cell")
	}

	lo := [2]float64{origin[0] - margin, origin[1] - margin}
	hi := [2]float64{origin[0] + extent[0] + margin, origin[1] + extent[1] + margin}

	// Map the rectangle corners into fractional coordinates to bound the
	// integer translations that can contribute.
	nMin, nMax := math.Inf(1), math.Inf(-1)
	mMin, mMax := math.Inf(1), math.Inf(-1)
	for _, cx := range []float64{lo[0], hi[0]} {
		for _, cy := range []float64{lo[1], hi[1]} {
			fn := (cx*by - cy*bx) / det
			fm := (cy*ax - cx*ay) / det
			nMin = math.Min(nMin, fn)
			nMax = math.Max(nMax, fn)
			mMin = math.Min(mMin, fm)
			mMax = math.Max(mMax, fm)
		}
	}

	out := &Atoms{
		Cell: [3][3]float64{
			{extent[0] + 2*margin, 0, 0},
			{0, extent[1] + 2*margin, 0},
			{0, 0, a.Cell[2][2]},
		},
	}
	var labels []int

	for n := int(math.Floor(nMin)) - 1; n <= int(math.Ceil(nMax))+1; n++ {
		for m := int(math.Floor(mMin)) - 1; m <= int(math.Ceil(mMax))+1; m++ {
			tx := float64(n)*ax + float64(m)*bx
			ty := float64(n)*ay + float64(m)*by
			for i, p := range a.Positions {
				x := p[0] + tx
				y := p[1] + ty
				if x >= lo[0] && x < hi[0] && y >= lo[1] && y < hi[1] {
					out.Positions = append(out.Positions, [3]float64{x - lo[0], y - lo[1], p[2]})
					out.Numbers = append(out.Numbers, a.Numbers[i])
					labels = append(labels, i)
				}
			}
		}
	}
	return out, labels, nil
}

// Orthogonalize returns an orthogonal representation of a possibly
// sheared structure by tiling n repetitions along x and enough along y,
// then snapping atoms near the far boundaries back and merging
// duplicates. The second lattice vector must lie in the xy plane and the
// third along z.
func Orthogonalize(a *Atoms, n int, tol float64) (*Atoms, error) {
	if tol <= 0 {
		tol = defaultTol
	}
	if n < 1 {
		return nil, fmt.Errorf("atoms: repetitions must be positive, got %d", n)
	}

	w := a.Copy()
	StandardizeCell(w, tol)

	if math.Abs(w.Cell[0][1]) > tol || math.Abs(w.Cell[2][0])+math.Abs(w.Cell[2][1]) > tol {
		return nil, fmt.Errorf("atoms: cell not reducible to orthogonal form: %v", w.Cell)
	}

	m := 1
	if math.Abs(w.Cell[1][0]) > tol {
		m = int(math.Abs(math.Round(w.Cell[0][0] / w.Cell[1][0])))
		if m < 1 {
			m = 1
		}
	}

	extent := [2]float64{w.Cell[0][0] * float64(n), w.Cell[1][1] * float64(m)}
	filled, _, err := FillRectangle(w, [2]float64{0, 0}, extent, 0)
	if err != nil {
		return nil, err
	}

	// Atoms within tol of the upper cell faces belong at the origin side.
	ext := filled.Extent()
	for i := range filled.Positions {
		for j := 0; j < 3; j++ {
			if ext[j]-filled.Positions[i][j] < tol {
				filled.Positions[i][j] -= ext[j]
			}
		}
	}

	return MergeOverlapping(filled, tol), nil
}

func norm3(v [3]float64) float64 {
	return math.Sqrt(v[0]*v[0] + v[1]*v[1] + v[2]*v[2])
}

func dot3(a, b [3]float64) float64 {
	return a[0]*b[0] + a[1]*b[1] + a[2]*b[2]
}

func dist2(a, b [3]float64) float64 {
	dx, dy, dz := a[0]-b[0], a[1]-b[1], a[2]-b[2]
	return dx*dx + dy*dy + dz*dz
}

func closeTo(a, b float64) bool {
	return math.Abs(a-b) <= 1e-8+1e-5*math.Abs(b)
}
