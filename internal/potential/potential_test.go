package potential

import (
	"math"
	"testing"

	"github.com/nanobeam-data/exitwave/internal/atoms"
	"github.com/nanobeam-data/exitwave/internal/grid"
)

func goldAtom(t *testing.T) *atoms.Atoms {
	t.Helper()
	a, err := atoms.Orthorhombic([]int{79}, [][3]float64{{4, 4, 2}}, 8, 8, 4)
	if err != nil {
		t.Fatalf("Orthorhombic: %v", err)
	}
	return a
}

func TestPengScatteringFactor(t *testing.T) {
	p := Peng{}

	f0, err := p.ScatteringFactor(6, 0)
	if err != nil {
		t.Fatalf("ScatteringFactor: %v", err)
	}
	// f(0) is the sum of the Gaussian amplitudes.
	want := 0.0893 + 0.2563 + 0.7570 + 1.0487 + 0.3575
	if math.Abs(f0-want) > 1e-12 {
		t.Errorf("f(0) = %v, want %v", f0, want)
	}

	// Monotone decay with scattering angle.
	prev := f0
	for _, k2 := range []float64{0.5, 1, 4, 16} {
		f, err := p.ScatteringFactor(6, k2)
		if err != nil {
			t.Fatalf("ScatteringFactor: %v", err)
		}
		if f >= prev || f < 0 {
			t.Errorf("f(k2=%v) = %v, want positive and < %v", k2, f, prev)
		}
		prev = f
	}

	if _, err := p.ScatteringFactor(99, 0); err == nil {
		t.Error("expected error for untabulated element")
	}
}

func TestPengProjectionConsistency(t *testing.T) {
	p := Peng{}

	// Integrating the slice integral over all z recovers the full
	// projected potential.
	full, err := p.ProjectedPotential(79, 1.0)
	if err != nil {
		t.Fatalf("ProjectedPotential: %v", err)
	}
	integrated, err := p.PotentialSliceIntegral(79, 1.0, -1e3, 1e3)
	if err != nil {
		t.Fatalf("PotentialSliceIntegral: %v", err)
	}
	if math.Abs(full-integrated) > 1e-9*full {
		t.Errorf("slice integral over all z = %v, projection = %v", integrated, full)
	}

	// Two adjacent slices sum to their union.
	a, _ := p.PotentialSliceIntegral(79, 0.5, -1, 0)
	b, _ := p.PotentialSliceIntegral(79, 0.5, 0, 1)
	ab, _ := p.PotentialSliceIntegral(79, 0.5, -1, 1)
	if math.Abs(a+b-ab) > 1e-12*math.Abs(ab) {
		t.Errorf("slice additivity: %v + %v != %v", a, b, ab)
	}
}

func TestKirklandInfiniteOnly(t *testing.T) {
	k := Kirkland{}
	if _, err := k.ScatteringFactor(14, 0.5); err != nil {
		t.Errorf("ScatteringFactor: %v", err)
	}
	if _, err := k.ProjectedPotential(14, 1); err == nil {
		t.Error("expected error from kirkland real-space projection")
	}
	if _, err := k.PotentialSliceIntegral(14, 1, 0, 1); err == nil {
		t.Error("expected error from kirkland slice integral")
	}
}

func TestByName(t *testing.T) {
	for name, want := range map[string]string{"": "peng", "peng": "peng", "kirkland": "kirkland"} {
		p, err := ByName(name)
		if err != nil {
			t.Fatalf("ByName(%q): %v", name, err)
		}
		if p.Name() != want {
			t.Errorf("ByName(%q).Name() = %q, want %q", name, p.Name(), want)
		}
	}
	if _, err := ByName("lobato"); err == nil {
		t.Error("expected error for unknown parametrization")
	}
}

func TestBuildFinite(t *testing.T) {
	b := &Builder{Atoms: goldAtom(t), Gpts: [2]int{80, 80}, SliceThickness: 1}
	pot, err := b.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	if pot.NumSlices() != 4 {
		t.Errorf("NumSlices = %d, want 4", pot.NumSlices())
	}
	if pot.SliceThickness(0) != 1 {
		t.Errorf("SliceThickness = %v, want 1", pot.SliceThickness(0))
	}
	if math.Abs(pot.Depth()-4) > 1e-12 {
		t.Errorf("Depth = %v, want 4", pot.Depth())
	}

	// The slice containing the atom carries most of the potential, and
	// the maximum sits at the atom position.
	proj := pot.Project()
	maxIdx, maxV := 0, math.Inf(-1)
	for i, v := range proj {
		if v > maxV {
			maxIdx, maxV = i, v
		}
	}
	n1 := pot.Grid().Gpts[1]
	ix, iy := maxIdx/n1, maxIdx%n1
	x := float64(ix) * pot.Grid().Sampling[0]
	y := float64(iy) * pot.Grid().Sampling[1]
	if math.Abs(x-4) > 0.2 || math.Abs(y-4) > 0.2 {
		t.Errorf("potential maximum at (%v, %v), want near (4, 4)", x, y)
	}
	if maxV <= 0 {
		t.Errorf("potential maximum %v, want positive", maxV)
	}
}

func TestBuildInfiniteMatchesFiniteIntegral(t *testing.T) {
	// The summed projected potential must agree between projection modes
	// up to truncation error of the finite cutoff.
	fin, err := (&Builder{
		Atoms:          goldAtom(t),
		Gpts:           [2]int{64, 64},
		SliceThickness: 1,
		Projection:     ProjectionFinite,
		CutoffRadius:   8,
	}).Build()
	if err != nil {
		t.Fatalf("finite Build: %v", err)
	}
	inf, err := (&Builder{
		Atoms:          goldAtom(t),
		Gpts:           [2]int{64, 64},
		SliceThickness: 1,
		Projection:     ProjectionInfinite,
	}).Build()
	if err != nil {
		t.Fatalf("infinite Build: %v", err)
	}

	var sumFin, sumInf float64
	for _, v := range fin.Project() {
		sumFin += v
	}
	for _, v := range inf.Project() {
		sumInf += v
	}
	if sumFin <= 0 || sumInf <= 0 {
		t.Fatalf("non-positive integrated potentials: %v, %v", sumFin, sumInf)
	}
	if math.Abs(sumFin-sumInf) > 0.05*sumInf {
		t.Errorf("integrated potential: finite %v vs infinite %v", sumFin, sumInf)
	}
}

func TestBuildInfiniteDCComponent(t *testing.T) {
	// The mean of the infinite-projection potential equals
	// C·f(0)/(cell area).
	a := goldAtom(t)
	pot, err := (&Builder{
		Atoms:      a,
		Gpts:       [2]int{64, 64},
		Projection: ProjectionInfinite,
	}).Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	f0, _ := Peng{}.ScatteringFactor(79, 0)
	wantMean := ScatteringConversion * f0 / (8 * 8)

	proj := pot.Project()
	var mean float64
	for _, v := range proj {
		mean += v
	}
	mean /= float64(len(proj))

	if math.Abs(mean-wantMean) > 1e-9*wantMean {
		t.Errorf("mean projected potential = %v, want %v", mean, wantMean)
	}
}

func TestBuildErrors(t *testing.T) {
	if _, err := (&Builder{}).Build(); err == nil {
		t.Error("expected error for nil atoms")
	}

	sheared := &atoms.Atoms{
		Numbers:   []int{6},
		Positions: [][3]float64{{0, 0, 0}},
		Cell:      [3][3]float64{{4, 0, 0}, {1, 4, 0}, {0, 0, 4}},
	}
	if _, err := (&Builder{Atoms: sheared, Gpts: [2]int{16, 16}}).Build(); err == nil {
		t.Error("expected error for non-orthogonal cell")
	}

	a := goldAtom(t)
	if _, err := (&Builder{Atoms: a, Gpts: [2]int{16, 16}, Projection: "bogus"}).Build(); err == nil {
		t.Error("expected error for unknown projection")
	}

	// Kirkland cannot do finite projection.
	if _, err := (&Builder{
		Atoms:           a,
		Gpts:            [2]int{16, 16},
		Projection:      ProjectionFinite,
		Parametrization: Kirkland{},
	}).Build(); err == nil {
		t.Error("expected error for kirkland finite projection")
	}
}

func TestFromSlices(t *testing.T) {
	gr, err := grid.Square(4, 8)
	if err != nil {
		t.Fatalf("Square: %v", err)
	}
	sl := [][]float64{make([]float64, 64), make([]float64, 64)}
	pot, err := FromSlices(gr, sl, 0.5)
	if err != nil {
		t.Fatalf("FromSlices: %v", err)
	}
	if pot.NumSlices() != 2 || pot.Depth() != 1 {
		t.Errorf("NumSlices = %d, Depth = %v", pot.NumSlices(), pot.Depth())
	}

	if _, err := FromSlices(gr, [][]float64{make([]float64, 3)}, 0.5); err == nil {
		t.Error("expected error for wrong slice size")
	}
	if _, err := FromSlices(gr, sl, 0); err == nil {
		t.Error("expected error for zero thickness")
	}
}
