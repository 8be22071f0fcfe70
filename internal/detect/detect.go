// Package detect models the detectors that turn exit wave functions
// into recorded signals: annular and segmented integrating detectors,
// radially binned detectors, pixelated cameras and raw wave capture.
package detect

import (
	"errors"
	"fmt"
	"math"

	"github.com/nanobeam-data/exitwave/internal/fft"
	"github.com/nanobeam-data/exitwave/internal/measure"
	"github.com/nanobeam-data/exitwave/internal/wave"
)

// ErrMaxAngleExceeded reports a detector reaching past the antialiasing
// aperture of the simulation grid.
var ErrMaxAngleExceeded = errors.New("detect: detector max angle exceeds the cutoff scattering angle")

// ErrEmptyRegion reports a detector geometry that covers no pixels of
// the diffraction plane.
var ErrEmptyRegion = errors.New("detect: zero-sized detector region")

// Detector converts a batch of exit waves into per-wave signal values.
type Detector interface {
	// BinShape returns the dimensions and calibrations a single detected
	// value set occupies within a scan measurement. An empty shape means
	// one scalar per probe position.
	BinShape(w *wave.Waves) ([]int, []measure.Calibration, error)

	// Detect returns one flat value block per wave in the batch, laid
	// out according to BinShape.
	Detect(w *wave.Waves) ([][]float64, error)
}

// AllocateMeasurement returns a zeroed measurement sized for a scan of
// the given shape with the detector's bins appended.
func AllocateMeasurement(d Detector, w *wave.Waves, scanShape []int, scanCals []measure.Calibration, name string) (*measure.Measurement, error) {
	binShape, binCals, err := d.BinShape(w)
	if err != nil {
		return nil, err
	}
	shape := append(append([]int(nil), scanShape...), binShape...)
	cals := append(append([]measure.Calibration(nil), scanCals...), binCals...)
	return measure.New(shape, cals, name)
}

// minCutoff returns the smaller of the two antialias-limited scattering
// angles (mrad).
func minCutoff(w *wave.Waves) float64 {
	c := w.CutoffAngles()
	return math.Min(c[0], c[1])
}

// diffractionIntensities returns |FFT ψ|² for every wave in the batch,
// in FFT index order.
func diffractionIntensities(w *wave.Waves) [][]float64 {
	n0, n1 := w.Gr.Gpts[0], w.Gr.Gpts[1]
	plan := fft.NewPlan2(n0, n1)
	out := make([][]float64, w.N)
	buf := make([]complex128, n0*n1)
	for i := 0; i < w.N; i++ {
		copy(buf, w.At(i))
		plan.Forward(buf)
		out[i] = fft.Abs2(buf, nil)
	}
	return out
}

// polarRegions labels every diffraction-plane pixel with its detector
// bin, or -1 outside the detector. Bins are azimuthal-major within each
// radial ring.
func polarRegions(gpts [2]int, angularSampling [2]float64, inner, outer float64, nbinsRadial, nbinsAzimuthal int) []int {
	ax := angles(gpts[0], angularSampling[0])
	ay := angles(gpts[1], angularSampling[1])

	labels := make([]int, gpts[0]*gpts[1])
	for i, axi := range ax {
		for j, ayj := range ay {
			alpha := math.Hypot(axi, ayj)
			if alpha < inner || alpha > outer {
				labels[i*gpts[1]+j] = -1
				continue
			}
			radial := int(float64(nbinsRadial) * (alpha - inner) / (outer - inner))
			if radial >= nbinsRadial {
				radial = nbinsRadial - 1
			}
			phi := math.Mod(math.Atan2(axi, ayj), 2*math.Pi)
			if phi < 0 {
				phi += 2 * math.Pi
			}
			azimuthal := int(math.Floor(float64(nbinsAzimuthal) * phi / (2 * math.Pi)))
			if azimuthal >= nbinsAzimuthal {
				azimuthal = nbinsAzimuthal - 1
			}
			labels[i*gpts[1]+j] = radial*nbinsAzimuthal + azimuthal
		}
	}
	return labels
}

// angles returns the FFT-ordered scattering angles (mrad) along one axis.
func angles(n int, angularSampling float64) []float64 {
	a := make([]float64, n)
	for i := range a {
		signed := i
		if i >= (n+1)/2 {
			signed = i - n
		}
		a[i] = float64(signed) * angularSampling
	}
	return a
}

// polarDetector carries the shared geometry of the ring and segment
// detectors.
type polarDetector struct {
	inner          float64 // mrad
	outer          float64 // mrad; 0 follows the antialias cutoff
	radialSteps    float64 // mrad
	azimuthalSteps float64 // rad; 0 means one azimuthal bin
}

func (d *polarDetector) bins(cutoff float64) (nr, na int, inner, outer float64, err error) {
	inner = d.inner
	outer = d.outer
	if outer == 0 {
		if cutoff <= 0 {
			return 0, 0, 0, 0, fmt.Errorf("detect: the outer integration angle is not set")
		}
		outer = math.Floor(cutoff/d.radialSteps) * d.radialSteps
	}
	if outer <= inner {
		return 0, 0, 0, 0, fmt.Errorf("detect: outer angle %v mrad not larger than inner angle %v mrad", outer, inner)
	}
	nr = int(math.Ceil((outer - inner) / d.radialSteps))
	na = 1
	if d.azimuthalSteps > 0 {
		na = int(math.Ceil(2 * math.Pi / d.azimuthalSteps))
	}
	return nr, na, inner, outer, nil
}

// regions returns the diffraction-plane pixel indices of every bin.
func (d *polarDetector) regions(gpts [2]int, angularSampling [2]float64, cutoff float64) ([][]int, error) {
	nr, na, inner, outer, err := d.bins(cutoff)
	if err != nil {
		return nil, err
	}
	if d.outer > 0 && d.outer > cutoff {
		return nil, ErrMaxAngleExceeded
	}

	labels := polarRegions(gpts, angularSampling, inner, outer, nr, na)
	regions := make([][]int, nr*na)
	empty := true
	for i, l := range labels {
		if l < 0 {
			continue
		}
		regions[l] = append(regions[l], i)
		empty = false
	}
	if empty {
		return nil, ErrEmptyRegion
	}
	return regions, nil
}

// RegionMap returns the detector segmentation on the diffraction plane
// of the given waves: the bin label per pixel, -1 outside the detector,
// centered and calibrated in mrad.
func (d *polarDetector) RegionMap(w *wave.Waves) (*measure.Measurement, error) {
	regions, err := d.regions(w.Gr.Gpts, w.AngularSampling(), minCutoff(w))
	if err != nil {
		return nil, err
	}
	labels := make([]float64, w.Gr.Len())
	for i := range labels {
		labels[i] = -1
	}
	for l, indices := range regions {
		for _, i := range indices {
			labels[i] = float64(l)
		}
	}
	labels = fft.ShiftFloat2(labels, w.Gr.Gpts[0], w.Gr.Gpts[1])
	return measure.New2D(labels, w.Gr.Gpts,
		measure.FourierCalibrations(w.AngularSampling(), w.Gr.Gpts), "detector regions"), nil
}

// AnnularDetector integrates the diffracted intensity between an inner
// and an outer scattering angle, the classic bright-field or
// annular dark-field detector depending on the range.
type AnnularDetector struct {
	polarDetector
}

// NewAnnularDetector returns a detector integrating between inner and
// outer (mrad).
func NewAnnularDetector(inner, outer float64) *AnnularDetector {
	return &AnnularDetector{polarDetector{inner: inner, outer: outer, radialSteps: outer - inner}}
}

// Inner returns the inner integration angle (mrad).
func (d *AnnularDetector) Inner() float64 { return d.inner }

// Outer returns the outer integration angle (mrad).
func (d *AnnularDetector) Outer() float64 { return d.outer }

func (d *AnnularDetector) BinShape(w *wave.Waves) ([]int, []measure.Calibration, error) {
	if _, _, _, _, err := d.bins(minCutoff(w)); err != nil {
		return nil, nil, err
	}
	return nil, nil, nil
}

// Detect integrates every wave's diffracted intensity over the annulus,
// normalized by the total diffracted intensity.
func (d *AnnularDetector) Detect(w *wave.Waves) ([][]float64, error) {
	regions, err := d.regions(w.Gr.Gpts, w.AngularSampling(), minCutoff(w))
	if err != nil {
		return nil, err
	}
	values := make([][]float64, w.N)
	for b, intensity := range diffractionIntensities(w) {
		var sum, total float64
		for _, v := range intensity {
			total += v
		}
		if total == 0 {
			values[b] = []float64{0}
			continue
		}
		for _, i := range regions[0] {
			sum += intensity[i]
		}
		values[b] = []float64{sum / total}
	}
	return values, nil
}

// FlexibleAnnularDetector records the diffracted intensity in concentric
// rings of equal angular width, so any annular signal can be composed
// after the scan.
type FlexibleAnnularDetector struct {
	polarDetector
}

// NewFlexibleAnnularDetector returns a detector binning the whole
// diffraction plane in rings of stepSize (mrad).
func NewFlexibleAnnularDetector(stepSize float64) *FlexibleAnnularDetector {
	return &FlexibleAnnularDetector{polarDetector{radialSteps: stepSize}}
}

// StepSize returns the ring width (mrad).
func (d *FlexibleAnnularDetector) StepSize() float64 { return d.radialSteps }

func (d *FlexibleAnnularDetector) BinShape(w *wave.Waves) ([]int, []measure.Calibration, error) {
	nr, _, inner, _, err := d.bins(minCutoff(w))
	if err != nil {
		return nil, nil, err
	}
	cal := measure.Calibration{Offset: inner, Sampling: d.radialSteps, Units: "mrad", Name: "detector angle"}
	return []int{nr}, []measure.Calibration{cal}, nil
}

// Detect bins every wave's diffracted intensity by ring, normalized by
// the total diffracted intensity.
func (d *FlexibleAnnularDetector) Detect(w *wave.Waves) ([][]float64, error) {
	return detectPolar(&d.polarDetector, w)
}

// SegmentedDetector divides an annular range into radial and azimuthal
// segments, as in a DPC-style quadrant or multi-segment detector.
type SegmentedDetector struct {
	polarDetector
	nbinsRadial    int
	nbinsAzimuthal int
}

// NewSegmentedDetector returns a detector covering inner to outer (mrad)
// with the given number of radial rings and azimuthal segments.
func NewSegmentedDetector(inner, outer float64, nbinsRadial, nbinsAzimuthal int) *SegmentedDetector {
	return &SegmentedDetector{
		polarDetector: polarDetector{
			inner:          inner,
			outer:          outer,
			radialSteps:    (outer - inner) / float64(nbinsRadial),
			azimuthalSteps: 2 * math.Pi / float64(nbinsAzimuthal),
		},
		nbinsRadial:    nbinsRadial,
		nbinsAzimuthal: nbinsAzimuthal,
	}
}

func (d *SegmentedDetector) BinShape(w *wave.Waves) ([]int, []measure.Calibration, error) {
	if _, _, _, _, err := d.bins(minCutoff(w)); err != nil {
		return nil, nil, err
	}
	cals := []measure.Calibration{
		{Offset: d.inner, Sampling: d.radialSteps, Units: "mrad", Name: "detector angle"},
		{Offset: 0, Sampling: d.azimuthalSteps, Units: "rad", Name: "azimuth"},
	}
	return []int{d.nbinsRadial, d.nbinsAzimuthal}, cals, nil
}

// Detect bins every wave's diffracted intensity by radial ring and
// azimuthal segment, normalized by the total diffracted intensity.
func (d *SegmentedDetector) Detect(w *wave.Waves) ([][]float64, error) {
	return detectPolar(&d.polarDetector, w)
}

// detectPolar sums diffracted intensity per region label, normalized by
// the per-wave total.
func detectPolar(d *polarDetector, w *wave.Waves) ([][]float64, error) {
	regions, err := d.regions(w.Gr.Gpts, w.AngularSampling(), minCutoff(w))
	if err != nil {
		return nil, err
	}
	values := make([][]float64, w.N)
	for b, intensity := range diffractionIntensities(w) {
		var total float64
		for _, v := range intensity {
			total += v
		}
		block := make([]float64, len(regions))
		if total == 0 {
			values[b] = block
			continue
		}
		for l, indices := range regions {
			for _, i := range indices {
				block[l] += intensity[i]
			}
			block[l] /= total
		}
		values[b] = block
	}
	return values, nil
}

var (
	_ Detector = (*AnnularDetector)(nil)
	_ Detector = (*FlexibleAnnularDetector)(nil)
	_ Detector = (*SegmentedDetector)(nil)
	_ Detector = (*PixelatedDetector)(nil)
)
