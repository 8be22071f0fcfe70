// Package scan generates probe positions for STEM-style acquisition and
// runs them through a wave source and detectors.
package scan

import (
	"fmt"
	"math"

	"github.com/nanobeam-data/exitwave/internal/measure"
)

// Scan is a sequence of probe positions with the measurement geometry
// they map onto.
type Scan interface {
	// Positions returns every probe position (Å) in measurement order.
	Positions() [][2]float64

	// Shape returns the scan dimensions of the resulting measurement.
	Shape() []int

	// Calibrations returns one calibration per scan dimension.
	Calibrations() []measure.Calibration
}

// CustomScan visits an explicit list of positions.
type CustomScan struct {
	positions [][2]float64
}

// NewCustomScan returns a scan over the given positions (Å).
func NewCustomScan(positions [][2]float64) (*CustomScan, error) {
	if len(positions) == 0 {
		return nil, fmt.Errorf("scan: no positions")
	}
	return &CustomScan{positions: append([][2]float64(nil), positions...)}, nil
}

func (s *CustomScan) Positions() [][2]float64 { return s.positions }
func (s *CustomScan) Shape() []int            { return []int{len(s.positions)} }

func (s *CustomScan) Calibrations() []measure.Calibration {
	return []measure.Calibration{{Sampling: 1, Units: "position", Name: "index"}}
}

// LineScan spaces positions evenly along a line segment. The end point
// is excluded, so tiling scans join without duplicates.
type LineScan struct {
	start, end [2]float64
	gpts       int
}

// NewLineScan returns gpts positions from start towards end (Å).
func NewLineScan(start, end [2]float64, gpts int) (*LineScan, error) {
	if gpts < 1 {
		return nil, fmt.Errorf("scan: line scan needs at least one point, got %d", gpts)
	}
	if start == end {
		return nil, fmt.Errorf("scan: line scan start and end coincide")
	}
	return &LineScan{start: start, end: end, gpts: gpts}, nil
}

func (s *LineScan) Positions() [][2]float64 {
	n := float64(s.gpts)
	out := make([][2]float64, s.gpts)
	for i := range out {
		t := float64(i) / n
		out[i] = [2]float64{
			s.start[0] + t*(s.end[0]-s.start[0]),
			s.start[1] + t*(s.end[1]-s.start[1]),
		}
	}
	return out
}

func (s *LineScan) Shape() []int { return []int{s.gpts} }

func (s *LineScan) Calibrations() []measure.Calibration {
	length := math.Hypot(s.end[0]-s.start[0], s.end[1]-s.start[1])
	return []measure.Calibration{{Sampling: length / float64(s.gpts), Units: "Å", Name: "r"}}
}

// GridScan rasters a rectangle row by row. End points are excluded along
// both axes.
type GridScan struct {
	start, end [2]float64
	gpts       [2]int
}

// NewGridScan returns a raster of gpts[0] x gpts[1] positions covering
// the rectangle from start to end (Å).
func NewGridScan(start, end [2]float64, gpts [2]int) (*GridScan, error) {
	if gpts[0] < 1 || gpts[1] < 1 {
		return nil, fmt.Errorf("scan: grid scan needs at least one point per axis, got %v", gpts)
	}
	for i := 0; i < 2; i++ {
		if end[i] <= start[i] {
			return nil, fmt.Errorf("scan: grid scan extent is empty along axis %d", i)
		}
	}
	return &GridScan{start: start, end: end, gpts: gpts}, nil
}

// Sampling returns the step size (Å) along both axes.
func (s *GridScan) Sampling() [2]float64 {
	return [2]float64{
		(s.end[0] - s.start[0]) / float64(s.gpts[0]),
		(s.end[1] - s.start[1]) / float64(s.gpts[1]),
	}
}

func (s *GridScan) Positions() [][2]float64 {
	d := s.Sampling()
	out := make([][2]float64, 0, s.gpts[0]*s.gpts[1])
	for i := 0; i < s.gpts[0]; i++ {
		for j := 0; j < s.gpts[1]; j++ {
			out = append(out, [2]float64{
				s.start[0] + float64(i)*d[0],
				s.start[1] + float64(j)*d[1],
			})
		}
	}
	return out
}

func (s *GridScan) Shape() []int { return []int{s.gpts[0], s.gpts[1]} }

func (s *GridScan) Calibrations() []measure.Calibration {
	d := s.Sampling()
	return []measure.Calibration{
		{Offset: s.start[0], Sampling: d[0], Units: "Å", Name: "x"},
		{Offset: s.start[1], Sampling: d[1], Units: "Å", Name: "y"},
	}
}

var (
	_ Scan = (*CustomScan)(nil)
	_ Scan = (*LineScan)(nil)
	_ Scan = (*GridScan)(nil)
)
