package measure

import (
	"math"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestNewShapeValidation(t *testing.T) {
	if _, err := New([]int{4, 0}, nil, ""); err == nil {
		t.Error("expected error for zero-sized axis")
	}
	if _, err := New([]int{4}, []Calibration{{}, {}}, ""); err == nil {
		t.Error("expected error for calibration count mismatch")
	}
}

func TestIndexAndSet(t *testing.T) {
	m, err := New([]int{2, 3, 4}, nil, "scan")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if m.Len() != 24 {
		t.Errorf("Len = %d, want 24", m.Len())
	}

	if err := m.Set(7.5, 1, 2, 3); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, err := m.At(1, 2, 3)
	if err != nil {
		t.Fatalf("At: %v", err)
	}
	if got != 7.5 {
		t.Errorf("At = %v, want 7.5", got)
	}
	// Last element of the flat array.
	if m.Data[23] != 7.5 {
		t.Errorf("flat layout wrong: %v", m.Data)
	}

	if _, err := m.At(2, 0, 0); err == nil {
		t.Error("expected out-of-range error")
	}
	if _, err := m.At(0, 0); err == nil {
		t.Error("expected dimension-count error")
	}
}

func TestCalibrationValue(t *testing.T) {
	c := Calibration{Offset: -5, Sampling: 0.5}
	if got := c.Value(0); got != -5 {
		t.Errorf("Value(0) = %v, want -5", got)
	}
	if got := c.Value(20); got != 5 {
		t.Errorf("Value(20) = %v, want 5", got)
	}
}

func TestFourierCalibrationsCentered(t *testing.T) {
	cal := FourierCalibrations([2]float64{2, 2}, [2]int{8, 8})
	// Index 4 (center of a fftshifted 8-wide axis) is zero angle.
	if got := cal[0].Value(4); got != 0 {
		t.Errorf("center angle = %v, want 0", got)
	}
	if cal[0].Units != "mrad" {
		t.Errorf("units = %q, want mrad", cal[0].Units)
	}
}

func TestSumMinMax(t *testing.T) {
	m := New2D([]float64{1, -2, 3, 4}, [2]int{2, 2}, nil, "")
	if got := m.Sum(); got != 6 {
		t.Errorf("Sum = %v, want 6", got)
	}
	min, max := m.MinMax()
	if min != -2 || max != 4 {
		t.Errorf("MinMax = %v, %v, want -2, 4", min, max)
	}
}

func TestWriteCSV2D(t *testing.T) {
	m := New2D([]float64{1, 2, 3, 4}, [2]int{2, 2}, nil, "")
	var sb strings.Builder
	if err := m.WriteCSV(&sb); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}
	want := "1,2\n3,4\n"
	if sb.String() != want {
		t.Errorf("csv = %q, want %q", sb.String(), want)
	}
}

func TestWriteCSVUnsupportedRank(t *testing.T) {
	m, _ := New([]int{2, 2, 2}, nil, "")
	if err := m.WriteCSV(&strings.Builder{}); err == nil {
		t.Error("expected error for 3-D csv export")
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	m, _ := New([]int{3, 5}, []Calibration{
		{Offset: 0, Sampling: 0.1, Units: "Å", Name: "x"},
		{Offset: -1, Sampling: 0.2, Units: "Å", Name: "y"},
	}, "haadf")
	for i := range m.Data {
		m.Data[i] = math.Sqrt(float64(i))
	}

	blob, err := m.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	back, err := Decode(blob)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if diff := cmp.Diff(m, back); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeGarbage(t *testing.T) {
	if _, err := Decode([]byte("not a gzip stream")); err == nil {
		t.Error("expected error")
	}
}

func TestComplexIntensity(t *testing.T) {
	cm, err := NewComplex([]int{2, 2}, nil, "exit wave")
	if err != nil {
		t.Fatalf("NewComplex: %v", err)
	}
	cm.Data[0] = 3 + 4i
	cm.Data[3] = 1i

	in := cm.Intensity()
	if in.Data[0] != 25 || in.Data[3] != 1 {
		t.Errorf("Intensity = %v", in.Data)
	}
	if in.Name != "exit wave intensity" {
		t.Errorf("Name = %q", in.Name)
	}
}
