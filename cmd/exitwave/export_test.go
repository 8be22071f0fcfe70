package main

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nanobeam-data/exitwave/internal/fsutil"
	"github.com/nanobeam-data/exitwave/internal/measure"
	"github.com/nanobeam-data/exitwave/internal/store"
)

func seedRun(t *testing.T) (*store.Store, string) {
	t.Helper()

	db, err := store.Open(filepath.Join(t.TempDir(), "runs.db"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { db.Close() })

	ctx := context.Background()
	run, err := db.CreateRun(ctx, "test-run", "")
	if err != nil {
		t.Fatalf("CreateRun() error = %v", err)
	}

	m, err := measure.New([]int{2, 3}, []measure.Calibration{
		{Sampling: 1, Units: "Å", Name: "x"},
		{Sampling: 1, Units: "Å", Name: "y"},
	}, "haadf")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	for i := range m.Data {
		m.Data[i] = float64(i)
	}
	if err := db.SaveMeasurement(ctx, run.ID, "haadf", m); err != nil {
		t.Fatalf("SaveMeasurement() error = %v", err)
	}

	return db, run.ID
}

func TestExportRun(t *testing.T) {
	db, runID := seedRun(t)
	fs := fsutil.NewMemoryFileSystem()

	if err := exportRun(context.Background(), db, fs, runID, "out", false); err != nil {
		t.Fatalf("exportRun() error = %v", err)
	}

	csv, err := fs.ReadFile("out/haadf.csv")
	if err != nil {
		t.Fatalf("ReadFile(haadf.csv) error = %v", err)
	}
	if !strings.Contains(string(csv), "5") {
		t.Errorf("csv does not contain measurement data: %q", csv)
	}

	report, err := fs.ReadFile("out/report.html")
	if err != nil {
		t.Fatalf("ReadFile(report.html) error = %v", err)
	}
	if !strings.Contains(string(report), "echarts") {
		t.Errorf("report does not look like a chart page")
	}
}

func TestExportRunWithImages(t *testing.T) {
	db, runID := seedRun(t)
	dir := t.TempDir()
	var fs fsutil.OSFileSystem

	if err := exportRun(context.Background(), db, fs, runID, dir, true); err != nil {
		t.Fatalf("exportRun() error = %v", err)
	}
	if !fs.Exists(filepath.Join(dir, "haadf.png")) {
		t.Errorf("haadf.png was not written")
	}
}

func TestExportRunMissing(t *testing.T) {
	db, _ := seedRun(t)

	err := exportRun(context.Background(), db, fsutil.NewMemoryFileSystem(), "missing", "out", false)
	if err == nil {
		t.Fatal("exportRun() error = nil, want not found")
	}
}
