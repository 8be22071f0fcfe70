// Package measure holds calibrated n-dimensional measurement arrays: the
// output side of every detector and imaging step. A measurement is a flat
// float64 array with a shape and one Calibration per axis.
package measure

import (
	"bytes"
	"compress/gzip"
	"encoding/csv"
	"encoding/gob"
	"fmt"
	"io"
	"strconv"
)

// Calibration describes the physical axis of one measurement dimension.
type Calibration struct {
	Offset   float64 // physical coordinate of index 0
	Sampling float64 // physical step per index
	Units    string  // e.g. "Å", "mrad"
	Name     string  // e.g. "x", "alpha_x"
}

// Value returns the physical coordinate of index i on this axis.
func (c Calibration) Value(i int) float64 {
	return c.Offset + float64(i)*c.Sampling
}

// Measurement is an n-dimensional array with per-axis calibrations.
type Measurement struct {
	Shape        []int
	Data         []float64
	Calibrations []Calibration
	Name         string
}

// New allocates a zeroed measurement with the given shape. Calibrations
// may be nil or must match the shape length.
func New(shape []int, calibrations []Calibration, name string) (*Measurement, error) {
	if calibrations != nil && len(calibrations) != len(shape) {
		return nil, fmt.Errorf("measure: %d calibrations for %d dimensions", len(calibrations), len(shape))
	}
	n := 1
	for _, s := range shape {
		if s < 1 {
			return nil, fmt.Errorf("measure: invalid shape %v", shape)
		}
		n *= s
	}
	return &Measurement{
		Shape:        append([]int(nil), shape...),
		Data:         make([]float64, n),
		Calibrations: calibrations,
		Name:         name,
	}, nil
}

// New2D wraps an existing row-major array as a 2-D measurement.
func New2D(data []float64, gpts [2]int, calibrations []Calibration, name string) *Measurement {
	return &Measurement{
		Shape:        []int{gpts[0], gpts[1]},
		Data:         data,
		Calibrations: calibrations,
		Name:         name,
	}
}

// SpaceCalibrations returns x/y real-space calibrations in Å.
func SpaceCalibrations(sampling [2]float64) []Calibration {
	return []Calibration{
		{Sampling: sampling[0], Units: "Å", Name: "x"},
		{Sampling: sampling[1], Units: "Å", Name: "y"},
	}
}

// FourierCalibrations returns centered angular calibrations in mrad for a
// fftshifted diffraction array of the given shape.
func FourierCalibrations(angularSampling [2]float64, gpts [2]int) []Calibration {
	return []Calibration{
		{
			Offset:   -float64(gpts[0]/2) * angularSampling[0],
			Sampling: angularSampling[0],
			Units:    "mrad",
			Name:     "alpha_x",
		},
		{
			Offset:   -float64(gpts[1]/2) * angularSampling[1],
			Sampling: angularSampling[1],
			Units:    "mrad",
			Name:     "alpha_y",
		},
	}
}

// Dimensions returns the number of axes.
func (m *Measurement) Dimensions() int { return len(m.Shape) }

// Len returns the total element count.
func (m *Measurement) Len() int { return len(m.Data) }

// Index converts multi-dimensional indices to a flat offset.
func (m *Measurement) Index(indices ...int) (int, error) {
	if len(indices) != len(m.Shape) {
		return 0, fmt.Errorf("measure: %d indices for %d dimensions", len(indices), len(m.Shape))
	}
	flat := 0
	for d, idx := range indices {
		if idx < 0 || idx >= m.Shape[d] {
			return 0, fmt.Errorf("measure: index %d out of range [0,%d) on axis %d", idx, m.Shape[d], d)
		}
		flat = flat*m.Shape[d] + idx
	}
	return flat, nil
}

// At returns the value at the given indices.
func (m *Measurement) At(indices ...int) (float64, error) {
	flat, err := m.Index(indices...)
	if err != nil {
		return 0, err
	}
	return m.Data[flat], nil
}

// Set stores a value at the given indices.
func (m *Measurement) Set(value float64, indices ...int) error {
	flat, err := m.Index(indices...)
	if err != nil {
		return err
	}
	m.Data[flat] = value
	return nil
}

// Sum returns the sum of all elements.
func (m *Measurement) Sum() float64 {
	var s float64
	for _, v := range m.Data {
		s += v
	}
	return s
}

// MinMax returns the smallest and largest element.
func (m *Measurement) MinMax() (min, max float64) {
	if len(m.Data) == 0 {
		return 0, 0
	}
	min, max = m.Data[0], m.Data[0]
	for _, v := range m.Data[1:] {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	return min, max
}

// WriteCSV writes a 1-D or 2-D measurement as CSV. 2-D output is one row
// per first-axis index.
func (m *Measurement) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	switch len(m.Shape) {
	case 1:
		for i, v := range m.Data {
			rec := []string{strconv.Itoa(i), strconv.FormatFloat(v, 'g', -1, 64)}
			if m.Calibrations != nil {
				rec[0] = strconv.FormatFloat(m.Calibrations[0].Value(i), 'g', -1, 64)
			}
			if err := cw.Write(rec); err != nil {
				return fmt.Errorf("measure: csv write: %w", err)
			}
		}
	case 2:
		cols := m.Shape[1]
		rec := make([]string, cols)
		for r := 0; r < m.Shape[0]; r++ {
			for c := 0; c < cols; c++ {
				rec[c] = strconv.FormatFloat(m.Data[r*cols+c], 'g', -1, 64)
			}
			if err := cw.Write(rec); err != nil {
				return fmt.Errorf("measure: csv write: %w", err)
			}
		}
	default:
		return fmt.Errorf("measure: csv export supports 1-D and 2-D, got %d-D", len(m.Shape))
	}
	cw.Flush()
	return cw.Error()
}

// Encode serializes the measurement as gzipped gob, the archive payload
// format.
func (m *Measurement) Encode() ([]byte, error) {
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	if err := gob.NewEncoder(gz).Encode(m); err != nil {
		return nil, fmt.Errorf("measure: encode: %w", err)
	}
	if err := gz.Close(); err != nil {
		return nil, fmt.Errorf("measure: encode: %w", err)
	}
	return buf.Bytes(), nil
}

// Decode deserializes a measurement produced by Encode.
func Decode(data []byte) (*Measurement, error) {
	gz, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("measure: decode: %w", err)
	}
	defer gz.Close()
	var m Measurement
	if err := gob.NewDecoder(gz).Decode(&m); err != nil {
		return nil, fmt.Errorf("measure: decode: %w", err)
	}
	return &m, nil
}

// ComplexMeasurement is a calibrated array of complex values, used for
// recorded wave functions.
type ComplexMeasurement struct {
	Shape        []int
	Data         []complex128
	Calibrations []Calibration
	Name         string
}

// NewComplex allocates a zeroed complex measurement.
func NewComplex(shape []int, calibrations []Calibration, name string) (*ComplexMeasurement, error) {
	if calibrations != nil && len(calibrations) != len(shape) {
		return nil, fmt.Errorf("measure: %d calibrations for %d dimensions", len(calibrations), len(shape))
	}
	n := 1
	for _, s := range shape {
		if s < 1 {
			return nil, fmt.Errorf("measure: invalid shape %v", shape)
		}
		n *= s
	}
	return &ComplexMeasurement{
		Shape:        append([]int(nil), shape...),
		Data:         make([]complex128, n),
		Calibrations: calibrations,
		Name:         name,
	}, nil
}

// Intensity returns |z|² of the complex data as a real measurement with
// the same calibrations.
func (m *ComplexMeasurement) Intensity() *Measurement {
	data := make([]float64, len(m.Data))
	for i, v := range m.Data {
		data[i] = real(v)*real(v) + imag(v)*imag(v)
	}
	return &Measurement{
		Shape:        append([]int(nil), m.Shape...),
		Data:         data,
		Calibrations: m.Calibrations,
		Name:         m.Name + " intensity",
	}
}
