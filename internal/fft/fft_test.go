package fft

import (
	"math"
	"math/cmplx"
	"testing"
)

func TestForwardInverseRoundTrip(t *testing.T) {
	const rows, cols = 8, 16
	a := make([]complex128, rows*cols)
	for i := range a {
		a[i] = complex(math.Sin(float64(i)*0.37), math.Cos(float64(i)*0.11))
	}
	orig := append([]complex128(nil), a...)

	Forward2(a, rows, cols)
	Inverse2(a, rows, cols)

	for i := range a {
		if cmplx.Abs(a[i]-orig[i]) > 1e-12 {
			t.Fatalf("round trip a[%d] = %v, want %v", i, a[i], orig[i])
		}
	}
}

func TestForwardDCComponent(t *testing.T) {
	const rows, cols = 4, 4
	a := make([]complex128, rows*cols)
	for i := range a {
		a[i] = 1
	}
	Forward2(a, rows, cols)

	// All signal in the DC bin, scaled by the array length.
	if cmplx.Abs(a[0]-complex(rows*cols, 0)) > 1e-12 {
		t.Errorf("DC bin = %v, want %v", a[0], rows*cols)
	}
	for i := 1; i < len(a); i++ {
		if cmplx.Abs(a[i]) > 1e-12 {
			t.Errorf("bin %d = %v, want 0", i, a[i])
		}
	}
}

func TestForwardSingleFrequency(t *testing.T) {
	const rows, cols = 8, 8
	a := make([]complex128, rows*cols)
	// Plane wave exp(2πi x / cols): all energy lands in bin (0, 1).
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			a[r*cols+c] = cmplx.Exp(complex(0, 2*math.Pi*float64(c)/cols))
		}
	}
	Forward2(a, rows, cols)

	for i := range a {
		want := 0.0
		if i == 1 {
			want = rows * cols
		}
		if math.Abs(cmplx.Abs(a[i])-want) > 1e-9 {
			t.Errorf("bin %d magnitude = %v, want %v", i, cmplx.Abs(a[i]), want)
		}
	}
}

func TestShift2MovesDCToCenter(t *testing.T) {
	const rows, cols = 4, 6
	a := make([]complex128, rows*cols)
	a[0] = 1
	s := Shift2(a, rows, cols)
	center := (rows/2)*cols + cols/2
	if s[center] != 1 {
		t.Errorf("shifted DC not at center index %d", center)
	}
}

func TestShiftUnshiftRoundTrip(t *testing.T) {
	for _, dims := range [][2]int{{4, 4}, {5, 5}, {4, 5}, {7, 3}} {
		rows, cols := dims[0], dims[1]
		a := make([]float64, rows*cols)
		for i := range a {
			a[i] = float64(i)
		}
		back := UnshiftFloat2(ShiftFloat2(a, rows, cols), rows, cols)
		for i := range a {
			if back[i] != a[i] {
				t.Fatalf("%dx%d: back[%d] = %v, want %v", rows, cols, i, back[i], a[i])
			}
		}
	}
}

func TestAbs2(t *testing.T) {
	a := []complex128{3 + 4i, 1, 0, -2i}
	got := Abs2(a, nil)
	want := []float64{25, 1, 0, 4}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Abs2[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestParsevalEnergyConservation(t *testing.T) {
	const rows, cols = 16, 16
	a := make([]complex128, rows*cols)
	for i := range a {
		a[i] = complex(math.Sin(float64(i)), 0.5*math.Cos(float64(2*i)))
	}

	var spatial float64
	for _, v := range a {
		spatial += real(v)*real(v) + imag(v)*imag(v)
	}

	Forward2(a, rows, cols)
	var spectral float64
	for _, v := range a {
		spectral += real(v)*real(v) + imag(v)*imag(v)
	}
	spectral /= rows * cols

	if math.Abs(spatial-spectral) > 1e-9*spatial {
		t.Errorf("Parseval mismatch: spatial %v, spectral %v", spatial, spectral)
	}
}
