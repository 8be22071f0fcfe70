package render

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nanobeam-data/exitwave/internal/measure"
)

func testMeasurement2D(t *testing.T) *measure.Measurement {
	t.Helper()
	m, err := measure.New([]int{8, 8}, []measure.Calibration{
		{Sampling: 0.2, Units: "Å", Name: "x"},
		{Sampling: 0.2, Units: "Å", Name: "y"},
	}, "haadf")
	if err != nil {
		t.Fatalf("measure.New() error = %v", err)
	}
	for i := range m.Data {
		m.Data[i] = float64(i % 7)
	}
	return m
}

func testMeasurement1D(t *testing.T) *measure.Measurement {
	t.Helper()
	m, err := measure.New([]int{16}, []measure.Calibration{
		{Sampling: 1, Units: "mrad", Name: "detector angle"},
	}, "radial profile")
	if err != nil {
		t.Fatalf("measure.New() error = %v", err)
	}
	for i := range m.Data {
		m.Data[i] = float64(i)
	}
	return m
}

func TestSaveHeatmapPNG(t *testing.T) {
	path := filepath.Join(t.TempDir(), "haadf.png")
	if err := SaveHeatmapPNG(testMeasurement2D(t), path); err != nil {
		t.Fatalf("SaveHeatmapPNG() error = %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat() error = %v", err)
	}
	if info.Size() == 0 {
		t.Error("SaveHeatmapPNG() wrote an empty file")
	}

	if err := SaveHeatmapPNG(testMeasurement1D(t), path); err == nil {
		t.Error("SaveHeatmapPNG(1-D) error = nil, want error")
	}
}

func TestSaveHeatmapPNGWithoutCalibrations(t *testing.T) {
	m, err := measure.New([]int{4, 4}, nil, "raw")
	if err != nil {
		t.Fatalf("measure.New() error = %v", err)
	}
	for i := range m.Data {
		m.Data[i] = float64(i)
	}

	path := filepath.Join(t.TempDir(), "raw.png")
	if err := SaveHeatmapPNG(m, path); err != nil {
		t.Fatalf("SaveHeatmapPNG() error = %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("Stat() error = %v", err)
	}

	var buf bytes.Buffer
	if err := WriteReport(&buf, "raw", []*measure.Measurement{m}); err != nil {
		t.Fatalf("WriteReport() error = %v", err)
	}
}

func TestSaveLinePNG(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profile.png")
	if err := SaveLinePNG(testMeasurement1D(t), path); err != nil {
		t.Fatalf("SaveLinePNG() error = %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat() error = %v", err)
	}
	if info.Size() == 0 {
		t.Error("SaveLinePNG() wrote an empty file")
	}

	if err := SaveLinePNG(testMeasurement2D(t), path); err == nil {
		t.Error("SaveLinePNG(2-D) error = nil, want error")
	}
}

func TestWriteReport(t *testing.T) {
	var buf bytes.Buffer
	err := WriteReport(&buf, "simulation report", []*measure.Measurement{
		testMeasurement1D(t),
		testMeasurement2D(t),
	})
	if err != nil {
		t.Fatalf("WriteReport() error = %v", err)
	}
	html := buf.String()
	if !strings.Contains(html, "echarts") {
		t.Error("report does not embed echarts")
	}
	for _, name := range []string{"radial profile", "haadf"} {
		if !strings.Contains(html, name) {
			t.Errorf("report missing chart %q", name)
		}
	}
}
