// Package config loads YAML simulation descriptions and assembles the
// domain objects they describe.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/nanobeam-data/exitwave/internal/detect"
	"github.com/nanobeam-data/exitwave/internal/grid"
	"github.com/nanobeam-data/exitwave/internal/potential"
	"github.com/nanobeam-data/exitwave/internal/scan"
	"github.com/nanobeam-data/exitwave/internal/wave"
)

// Config is the root simulation description.
type Config struct {
	Name      string          `yaml:"name"`
	Structure string          `yaml:"structure"` // extended-XYZ file path
	Energy    float64         `yaml:"energy"`    // eV
	Grid      GridConfig      `yaml:"grid"`
	Potential PotentialConfig `yaml:"potential"`
	Probe     ProbeConfig     `yaml:"probe"`
	Prism     PrismConfig     `yaml:"prism"`
	Detectors []DetectorSpec  `yaml:"detectors"`
	Scan      ScanConfig      `yaml:"scan"`
	Output    OutputConfig    `yaml:"output"`
}

// GridConfig sets the simulation grid. Either gpts or sampling may be
// given; extent normally comes from the structure cell.
type GridConfig struct {
	Extent   [2]float64 `yaml:"extent,omitempty"`   // Å
	Gpts     [2]int     `yaml:"gpts,omitempty"`     // pixels
	Sampling float64    `yaml:"sampling,omitempty"` // Å/pixel
}

// PotentialConfig selects how the specimen potential is built.
type PotentialConfig struct {
	SliceThickness  float64 `yaml:"slice_thickness,omitempty"` // Å
	Projection      string  `yaml:"projection,omitempty"`      // finite or infinite
	Parametrization string  `yaml:"parametrization,omitempty"` // peng or kirkland
	CutoffRadius    float64 `yaml:"cutoff_radius,omitempty"`   // Å
}

// ProbeConfig sets the condenser aperture and aberrations.
type ProbeConfig struct {
	SemiangleCutoff  float64 `yaml:"semiangle_cutoff"` // mrad
	Defocus          float64 `yaml:"defocus,omitempty"`
	Cs               float64 `yaml:"cs,omitempty"`
	Astigmatism      float64 `yaml:"astigmatism,omitempty"`
	AstigmatismAngle float64 `yaml:"astigmatism_angle,omitempty"`
	FocalSpread      float64 `yaml:"focal_spread,omitempty"`
	AngularSpread    float64 `yaml:"angular_spread,omitempty"`
}

// PrismConfig enables the scattering-matrix path.
type PrismConfig struct {
	Enabled       bool `yaml:"enabled,omitempty"`
	Interpolation int  `yaml:"interpolation,omitempty"`
}

// DetectorSpec describes one detector.
type DetectorSpec struct {
	Type           string  `yaml:"type"` // annular, flexible, segmented, pixelated
	Inner          float64 `yaml:"inner,omitempty"`
	Outer          float64 `yaml:"outer,omitempty"`
	StepSize       float64 `yaml:"step_size,omitempty"`
	NBinsRadial    int     `yaml:"nbins_radial,omitempty"`
	NBinsAzimuthal int     `yaml:"nbins_azimuthal,omitempty"`
	MaxAngle       float64 `yaml:"max_angle,omitempty"`
	Resample       bool    `yaml:"resample,omitempty"`
}

// ScanConfig describes the probe positions.
type ScanConfig struct {
	Type      string       `yaml:"type"` // grid, line or custom
	Start     [2]float64   `yaml:"start,omitempty"`
	End       [2]float64   `yaml:"end,omitempty"`
	Gpts      [2]int       `yaml:"gpts,omitempty"`
	Positions [][2]float64 `yaml:"positions,omitempty"`
}

// OutputConfig sets where results land.
type OutputConfig struct {
	Database  string `yaml:"database,omitempty"`
	Directory string `yaml:"directory,omitempty"`
}

// Load reads and validates a simulation description.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes and validates a YAML simulation description.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Name == "" {
		c.Name = "simulation"
	}
	if c.Potential.SliceThickness == 0 {
		c.Potential.SliceThickness = potential.DefaultSliceThickness
	}
	if c.Potential.Projection == "" {
		c.Potential.Projection = string(potential.ProjectionFinite)
	}
	if c.Potential.CutoffRadius == 0 {
		c.Potential.CutoffRadius = potential.DefaultCutoffRadius
	}
	if c.Prism.Enabled && c.Prism.Interpolation == 0 {
		c.Prism.Interpolation = 1
	}
	if c.Scan.Type == "" {
		c.Scan.Type = "grid"
	}
	if c.Output.Database == "" {
		c.Output.Database = "runs.db"
	}
	if c.Output.Directory == "" {
		c.Output.Directory = "."
	}
}

// Validate rejects descriptions the simulation cannot honor.
func (c *Config) Validate() error {
	if c.Energy <= 0 {
		return fmt.Errorf("config: energy is not defined")
	}
	if c.Prism.Enabled && c.Prism.Interpolation < 1 {
		return fmt.Errorf("config: prism interpolation factor must be a positive integer, got %d", c.Prism.Interpolation)
	}
	for i, d := range c.Detectors {
		switch d.Type {
		case "annular":
			if d.Outer <= d.Inner {
				return fmt.Errorf("config: detector %d: annular range [%v, %v] mrad is empty", i, d.Inner, d.Outer)
			}
		case "flexible":
			if d.StepSize <= 0 {
				return fmt.Errorf("config: detector %d: flexible detector needs a positive step_size", i)
			}
		case "segmented":
			if d.NBinsRadial < 1 || d.NBinsAzimuthal < 1 {
				return fmt.Errorf("config: detector %d: segmented detector needs radial and azimuthal bins", i)
			}
			if d.Outer <= d.Inner {
				return fmt.Errorf("config: detector %d: segmented range [%v, %v] mrad is empty", i, d.Inner, d.Outer)
			}
		case "pixelated":
			// Nothing beyond the shared fields.
		default:
			return fmt.Errorf("config: detector %d: unknown type %q", i, d.Type)
		}
	}
	switch c.Scan.Type {
	case "grid":
		if c.Scan.Gpts[0] < 1 || c.Scan.Gpts[1] < 1 {
			return fmt.Errorf("config: grid scan needs gpts")
		}
	case "line":
		if c.Scan.Gpts[0] < 1 {
			return fmt.Errorf("config: line scan needs gpts")
		}
	case "custom":
		if len(c.Scan.Positions) == 0 {
			return fmt.Errorf("config: custom scan needs positions")
		}
	default:
		return fmt.Errorf("config: unknown scan type %q", c.Scan.Type)
	}
	return nil
}

// BuildGrid resolves the simulation grid against a structure extent (Å).
// A zero structExtent uses the configured extent alone.
func (c *Config) BuildGrid(structExtent [2]float64) (*grid.Grid, error) {
	g := &grid.Grid{Extent: c.Grid.Extent, Gpts: c.Grid.Gpts}
	if g.Extent == [2]float64{} {
		g.Extent = structExtent
	}
	if g.Gpts == [2]int{} && c.Grid.Sampling > 0 {
		fromSampling, err := grid.FromSampling(g.Extent, c.Grid.Sampling)
		if err != nil {
			return nil, err
		}
		return fromSampling, nil
	}
	if err := g.Adjust(); err != nil {
		return nil, err
	}
	return g, nil
}

// BuildCTF returns the probe transfer function.
func (c *Config) BuildCTF() wave.CTF {
	return wave.CTF{
		SemiangleCutoff:  c.Probe.SemiangleCutoff,
		Defocus:          c.Probe.Defocus,
		Cs:               c.Probe.Cs,
		Astigmatism:      c.Probe.Astigmatism,
		AstigmatismAngle: c.Probe.AstigmatismAngle,
		FocalSpread:      c.Probe.FocalSpread,
		AngularSpread:    c.Probe.AngularSpread,
	}
}

// BuildDetectors returns one detector per spec entry.
func (c *Config) BuildDetectors() ([]detect.Detector, error) {
	out := make([]detect.Detector, 0, len(c.Detectors))
	for _, d := range c.Detectors {
		switch d.Type {
		case "annular":
			out = append(out, detect.NewAnnularDetector(d.Inner, d.Outer))
		case "flexible":
			out = append(out, detect.NewFlexibleAnnularDetector(d.StepSize))
		case "segmented":
			out = append(out, detect.NewSegmentedDetector(d.Inner, d.Outer, d.NBinsRadial, d.NBinsAzimuthal))
		case "pixelated":
			out = append(out, &detect.PixelatedDetector{MaxAngle: d.MaxAngle, Resample: d.Resample})
		default:
			return nil, fmt.Errorf("config: unknown detector type %q", d.Type)
		}
	}
	return out, nil
}

// BuildScan returns the configured scan.
func (c *Config) BuildScan() (scan.Scan, error) {
	switch c.Scan.Type {
	case "grid":
		return scan.NewGridScan(c.Scan.Start, c.Scan.End, c.Scan.Gpts)
	case "line":
		return scan.NewLineScan(c.Scan.Start, c.Scan.End, c.Scan.Gpts[0])
	case "custom":
		return scan.NewCustomScan(c.Scan.Positions)
	default:
		return nil, fmt.Errorf("config: unknown scan type %q", c.Scan.Type)
	}
}

// Marshal renders the configuration back to YAML, for archiving with a
// run.
func (c *Config) Marshal() (string, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("config: marshal: %w", err)
	}
	return string(data), nil
}
