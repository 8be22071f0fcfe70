package atoms

import (
	"math"
	"strings"
	"testing"
)

func TestNewValidation(t *testing.T) {
	_, err := New([]int{6, 6}, [][3]float64{{0, 0, 0}}, [3][3]float64{})
	if err == nil {
		t.Error("expected error for mismatched lengths")
	}

	_, err = New([]int{0}, [][3]float64{{0, 0, 0}}, [3][3]float64{})
	if err == nil {
		t.Error("expected error for atomic number 0")
	}
}

func TestTile(t *testing.T) {
	a, err := Orthorhombic([]int{14}, [][3]float64{{1, 1, 1}}, 4, 4, 4)
	if err != nil {
		t.Fatalf("Orthorhombic: %v", err)
	}
	tiled, err := a.Tile(2, 3, 1)
	if err != nil {
		t.Fatalf("Tile: %v", err)
	}
	if tiled.Len() != 6 {
		t.Errorf("Len = %d, want 6", tiled.Len())
	}
	ext := tiled.Extent()
	if ext[0] != 8 || ext[1] != 12 || ext[2] != 4 {
		t.Errorf("Extent = %v, want [8 12 4]", ext)
	}
}

func TestWrapXY(t *testing.T) {
	a, _ := Orthorhombic([]int{1, 1}, [][3]float64{{-1, 0.5, 2}, {5.5, 9, 2}}, 5, 8, 4)
	a.WrapXY()
	if a.Positions[0][0] != 4 {
		t.Errorf("wrapped x = %v, want 4", a.Positions[0][0])
	}
	if a.Positions[1][0] != 0.5 {
		t.Errorf("wrapped x = %v, want 0.5", a.Positions[1][0])
	}
	if a.Positions[1][1] != 1 {
		t.Errorf("wrapped y = %v, want 1", a.Positions[1][1])
	}
	// z untouched
	if a.Positions[0][2] != 2 {
		t.Errorf("z modified: %v", a.Positions[0][2])
	}
}

func TestIsOrthogonal(t *testing.T) {
	ortho, _ := Orthorhombic([]int{6}, [][3]float64{{0, 0, 0}}, 3, 4, 5)
	if !IsOrthogonal(ortho, 0) {
		t.Error("diagonal cell reported non-orthogonal")
	}

	sheared := ortho.Copy()
	sheared.Cell[1][0] = 0.5
	if IsOrthogonal(sheared, 0) {
		t.Error("sheared cell reported orthogonal")
	}
}

func TestIsHexagonal(t *testing.T) {
	// Graphene-like cell: a = 2.46 along x, b rotated 120 degrees.
	a := 2.46
	hex := &Atoms{
		Numbers:   []int{6},
		Positions: [][3]float64{{0, 0, 0}},
		Cell: [3][3]float64{
			{a, 0, 0},
			{-a / 2, a * math.Sqrt(3) / 2, 0},
			{0, 0, 6.7},
		},
	}
	if !IsHexagonal(hex) {
		t.Error("hexagonal cell not recognized")
	}

	cubic, _ := Orthorhombic([]int{6}, [][3]float64{{0, 0, 0}}, 3, 3, 3)
	if IsHexagonal(cubic) {
		t.Error("cubic cell reported hexagonal")
	}
}

func TestMergeOverlapping(t *testing.T) {
	a, _ := Orthorhombic([]int{6, 6, 8},
		[][3]float64{{1, 1, 1}, {1, 1, 1 + 1e-14}, {2, 2, 2}}, 5, 5, 5)
	merged := MergeOverlapping(a, 1e-9)
	if merged.Len() != 2 {
		t.Fatalf("Len = %d, want 2", merged.Len())
	}
}

func TestFillRectangle(t *testing.T) {
	a, _ := Orthorhombic([]int{79}, [][3]float64{{0.5, 0.5, 1}}, 1, 1, 2)
	filled, labels, err := FillRectangle(a, [2]float64{0, 0}, [2]float64{3, 2}, 0)
	if err != nil {
		t.Fatalf("FillRectangle: %v", err)
	}
	if filled.Len() != 6 {
		t.Errorf("Len = %d, want 6", filled.Len())
	}
	for _, l := range labels {
		if l != 0 {
			t.Errorf("label = %d, want 0", l)
		}
	}
	for _, p := range filled.Positions {
		if p[0] < 0 || p[0] >= 3 || p[1] < 0 || p[1] >= 2 {
			t.Errorf("position %v outside rectangle", p)
		}
	}
	ext := filled.Extent()
	if ext[0] != 3 || ext[1] != 2 || ext[2] != 2 {
		t.Errorf("Extent = %v, want [3 2 2]", ext)
	}
}

func TestFillRectangleShearedCell(t *testing.T) {
	sheared := &Atoms{
		Numbers:   []int{6},
		Positions: [][3]float64{{0, 0, 0}},
		Cell: [3][3]float64{
			{2, 0, 0},
			{1, 2, 0}, // sheared along x
			{0, 0, 4},
		},
	}
	filled, _, err := FillRectangle(sheared, [2]float64{0, 0}, [2]float64{4, 4}, 0)
	if err != nil {
		t.Fatalf("FillRectangle: %v", err)
	}
	// Density is 1 atom per 4 Å² of cell area; the 16 Å² rectangle holds 4.
	if filled.Len() != 4 {
		t.Errorf("Len = %d, want 4", filled.Len())
	}
}

func TestOrthogonalizeHexagonal(t *testing.T) {
	a := 2.46
	hex := &Atoms{
		Numbers:   []int{6, 6},
		Positions: [][3]float64{{0, 0, 0}, {0, a / math.Sqrt(3), 0}},
		Cell: [3][3]float64{
			{a, 0, 0},
			{-a / 2, a * math.Sqrt(3) / 2, 0},
			{0, 0, 6.7},
		},
	}
	ortho, err := Orthogonalize(hex, 1, 1e-9)
	if err != nil {
		t.Fatalf("Orthogonalize: %v", err)
	}
	if !IsOrthogonal(ortho, 1e-9) {
		t.Errorf("result not orthogonal: %v", ortho.Cell)
	}
	// The orthogonal cell of a 2-atom hexagonal cell holds 4 atoms.
	if ortho.Len() != 4 {
		t.Errorf("Len = %d, want 4", ortho.Len())
	}
}

func TestReadWriteXYZ(t *testing.T) {
	in := `2
Lattice="4 0 0 0 4 0 0 0 4" Properties=species:S:1:pos:R:3
Si 0.0 0.0 0.0
O  1.5 1.5 1.5
`
	a, err := ReadXYZ(strings.NewReader(in))
	if err != nil {
		t.Fatalf("ReadXYZ: %v", err)
	}
	if a.Len() != 2 {
		t.Fatalf("Len = %d, want 2", a.Len())
	}
	if a.Numbers[0] != 14 || a.Numbers[1] != 8 {
		t.Errorf("Numbers = %v, want [14 8]", a.Numbers)
	}
	if a.Cell[0][0] != 4 || a.Cell[2][2] != 4 {
		t.Errorf("Cell = %v", a.Cell)
	}

	var sb strings.Builder
	if err := WriteXYZ(&sb, a); err != nil {
		t.Fatalf("WriteXYZ: %v", err)
	}
	back, err := ReadXYZ(strings.NewReader(sb.String()))
	if err != nil {
		t.Fatalf("re-read: %v", err)
	}
	if back.Len() != a.Len() || back.Numbers[1] != 8 {
		t.Errorf("round trip lost atoms: %+v", back)
	}
	if math.Abs(back.Positions[1][0]-1.5) > 1e-8 {
		t.Errorf("round trip position = %v", back.Positions[1])
	}
}

func TestReadXYZErrors(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"empty", ""},
		{"bad count", "x\ncomment\n"},
		{"truncated", "3\ncomment\nC 0 0 0\n"},
		{"unknown element", "1\ncomment\nXx 0 0 0\n"},
		{"bad coordinate", "1\ncomment\nC 0 zero 0\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ReadXYZ(strings.NewReader(tt.in)); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestSymbolRoundTrip(t *testing.T) {
	for _, z := range []int{1, 6, 14, 38, 79} {
		sym, err := Symbol(z)
		if err != nil {
			t.Fatalf("Symbol(%d): %v", z, err)
		}
		back, err := AtomicNumber(sym)
		if err != nil {
			t.Fatalf("AtomicNumber(%q): %v", sym, err)
		}
		if back != z {
			t.Errorf("round trip %d -> %q -> %d", z, sym, back)
		}
	}

	if _, err := AtomicNumber("zz"); err == nil {
		t.Error("expected error for unknown symbol")
	}
}
