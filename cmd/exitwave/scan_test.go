package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
)

const testStructure = `1
Lattice="4.0 0.0 0.0 0.0 4.0 0.0 0.0 0.0 2.0"
Au 2.0 2.0 1.0
`

func writeTestConfig(t *testing.T, extra string) string {
	t.Helper()

	dir := t.TempDir()
	xyzPath := filepath.Join(dir, "gold.xyz")
	if err := os.WriteFile(xyzPath, []byte(testStructure), 0644); err != nil {
		t.Fatalf("write structure: %v", err)
	}

	cfgPath := filepath.Join(dir, "exitwave.yaml")
	content := []byte(sprintfConfig(xyzPath, filepath.Join(dir, "runs.db")) + extra)
	if err := os.WriteFile(cfgPath, content, 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return cfgPath
}

func sprintfConfig(structure, database string) string {
	var buf bytes.Buffer
	buf.WriteString("name: gold-atom\n")
	buf.WriteString("structure: " + structure + "\n")
	buf.WriteString("energy: 60000\n")
	buf.WriteString("grid:\n  sampling: 0.2\n")
	buf.WriteString("probe:\n  semiangle_cutoff: 20\n")
	buf.WriteString("detectors:\n  - type: annular\n    inner: 40\n    outer: 80\n")
	buf.WriteString("scan:\n  type: grid\n  start: [1.0, 1.0]\n  end: [3.0, 3.0]\n  gpts: [2, 2]\n")
	buf.WriteString("output:\n  database: " + database + "\n")
	return buf.String()
}

func TestLoadSimulation(t *testing.T) {
	cfgPath := writeTestConfig(t, "")

	sim, err := loadSimulation(cfgPath)
	if err != nil {
		t.Fatalf("loadSimulation() error = %v", err)
	}
	if got := sim.gr.Gpts; got != [2]int{20, 20} {
		t.Errorf("Gpts = %v, want [20 20]", got)
	}
	if sim.pot.NumSlices() == 0 {
		t.Errorf("potential has no slices")
	}
}

func TestBuildSourceProbe(t *testing.T) {
	cfgPath := writeTestConfig(t, "")

	sim, err := loadSimulation(cfgPath)
	if err != nil {
		t.Fatalf("loadSimulation() error = %v", err)
	}
	src, err := buildSource(context.Background(), sim)
	if err != nil {
		t.Fatalf("buildSource() error = %v", err)
	}
	blank, err := src.Blank()
	if err != nil {
		t.Fatalf("Blank() error = %v", err)
	}
	if blank.Gr.Gpts != [2]int{20, 20} {
		t.Errorf("blank Gpts = %v, want [20 20]", blank.Gr.Gpts)
	}
}

func TestBuildSourcePrism(t *testing.T) {
	cfgPath := writeTestConfig(t, "prism:\n  enabled: true\n  interpolation: 1\n")

	sim, err := loadSimulation(cfgPath)
	if err != nil {
		t.Fatalf("loadSimulation() error = %v", err)
	}
	src, err := buildSource(context.Background(), sim)
	if err != nil {
		t.Fatalf("buildSource() error = %v", err)
	}
	if _, err := src.Blank(); err != nil {
		t.Fatalf("Blank() error = %v", err)
	}
}

func TestScanCommand(t *testing.T) {
	cfgPath := writeTestConfig(t, "")

	cmd := NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--config", cfgPath, "scan"})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if out.Len() == 0 {
		t.Errorf("scan printed no run id")
	}
}

func TestRunCommand(t *testing.T) {
	cfgPath := writeTestConfig(t, "")

	cmd := NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--config", cfgPath, "run"})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if out.Len() == 0 {
		t.Errorf("run printed no run id")
	}
}
