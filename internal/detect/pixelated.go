package detect

import (
	"math"

	"github.com/nanobeam-data/exitwave/internal/fft"
	"github.com/nanobeam-data/exitwave/internal/measure"
	"github.com/nanobeam-data/exitwave/internal/wave"
)

// PixelatedDetector records full diffraction patterns, as a pixelated
// camera does in 4D-STEM.
type PixelatedDetector struct {
	// MaxAngle crops the recorded pattern to this scattering angle
	// (mrad); 0 records out to the antialias cutoff.
	MaxAngle float64

	// Resample interpolates the pattern onto equal angular sampling
	// along both axes, for rectangular simulation cells.
	Resample bool
}

// geometry resolves the cropped pattern shape, the final (possibly
// resampled) shape and its angular sampling for the given waves.
func (d *PixelatedDetector) geometry(w *wave.Waves) (crop, gpts [2]int, ang [2]float64, err error) {
	ang = w.AngularSampling()
	cut := minCutoff(w)

	maxAngle := d.MaxAngle
	if maxAngle == 0 {
		maxAngle = cut
	}
	if maxAngle > cut {
		return crop, gpts, ang, ErrMaxAngleExceeded
	}

	for i := 0; i < 2; i++ {
		n := 2 * int(maxAngle/ang[i])
		if n < 2 {
			n = 2
		}
		if n > w.Gr.Gpts[i] {
			n = w.Gr.Gpts[i]
		}
		crop[i] = n
	}

	gpts = crop
	if d.Resample {
		gpts, ang = resampledGeometry(crop, ang)
	}
	return crop, gpts, ang, nil
}

func (d *PixelatedDetector) BinShape(w *wave.Waves) ([]int, []measure.Calibration, error) {
	_, gpts, ang, err := d.geometry(w)
	if err != nil {
		return nil, nil, err
	}
	return gpts[:], measure.FourierCalibrations(ang, gpts), nil
}

// Detect returns every wave's centered diffracted intensity, cropped to
// the detector's angular range.
func (d *PixelatedDetector) Detect(w *wave.Waves) ([][]float64, error) {
	crop, gpts, _, err := d.geometry(w)
	if err != nil {
		return nil, err
	}

	n0, n1 := w.Gr.Gpts[0], w.Gr.Gpts[1]
	srcAng := w.AngularSampling()
	values := make([][]float64, w.N)
	for b, intensity := range diffractionIntensities(w) {
		centered := fft.ShiftFloat2(intensity, n0, n1)
		cropped := cropCentered(centered, [2]int{n0, n1}, crop)
		if d.Resample {
			cropped = bilinearResample(cropped, crop, gpts, srcAng)
		}
		values[b] = cropped
	}
	return values, nil
}

// cropCentered cuts a centered window out of a centered 2-D array.
func cropCentered(a []float64, from, to [2]int) []float64 {
	if from == to {
		return a
	}
	o0 := from[0]/2 - to[0]/2
	o1 := from[1]/2 - to[1]/2
	out := make([]float64, to[0]*to[1])
	for i := 0; i < to[0]; i++ {
		copy(out[i*to[1]:(i+1)*to[1]], a[(o0+i)*from[1]+o1:(o0+i)*from[1]+o1+to[1]])
	}
	return out
}

// resampledGeometry scales a pattern shape so both axes share the
// coarser angular sampling.
func resampledGeometry(gpts [2]int, ang [2]float64) ([2]int, [2]float64) {
	maxAng := math.Max(ang[0], ang[1])
	scale := [2]float64{ang[0] / maxAng, ang[1] / maxAng}

	newGpts := [2]int{
		int(math.Ceil(float64(gpts[0]) * scale[0])),
		int(math.Ceil(float64(gpts[1]) * scale[1])),
	}
	if abs(newGpts[0]-newGpts[1]) <= 2 {
		n := newGpts[0]
		if newGpts[1] < n {
			n = newGpts[1]
		}
		newGpts = [2]int{n, n}
	}
	return newGpts, [2]float64{ang[0] / scale[0], ang[1] / scale[1]}
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// bilinearResample interpolates a centered pattern from srcGpts at
// srcAng onto dstGpts at the uniform sampling implied by
// resampledGeometry.
func bilinearResample(src []float64, srcGpts, dstGpts [2]int, srcAng [2]float64) []float64 {
	_, dstAng := resampledGeometry(srcGpts, srcAng)

	out := make([]float64, dstGpts[0]*dstGpts[1])
	for i := 0; i < dstGpts[0]; i++ {
		// Angle of the output pixel, mapped back to source index space.
		x := (float64(i-dstGpts[0]/2)*dstAng[0])/srcAng[0] + float64(srcGpts[0]/2)
		i0, fi := splitIndex(x, srcGpts[0])
		for j := 0; j < dstGpts[1]; j++ {
			y := (float64(j-dstGpts[1]/2)*dstAng[1])/srcAng[1] + float64(srcGpts[1]/2)
			j0, fj := splitIndex(y, srcGpts[1])

			v := src[i0*srcGpts[1]+j0]*(1-fi)*(1-fj) +
				src[min(i0+1, srcGpts[0]-1)*srcGpts[1]+j0]*fi*(1-fj) +
				src[i0*srcGpts[1]+min(j0+1, srcGpts[1]-1)]*(1-fi)*fj +
				src[min(i0+1, srcGpts[0]-1)*srcGpts[1]+min(j0+1, srcGpts[1]-1)]*fi*fj
			out[i*dstGpts[1]+j] = v
		}
	}
	return out
}

// splitIndex clamps a fractional index into [0, n-1] and splits it into
// base index and interpolation weight.
func splitIndex(x float64, n int) (int, float64) {
	if x <= 0 {
		return 0, 0
	}
	if x >= float64(n-1) {
		return n - 1, 0
	}
	i := int(math.Floor(x))
	return i, x - float64(i)
}

// WavefunctionDetector captures the raw complex exit waves.
type WavefunctionDetector struct{}

// Allocate returns a zeroed complex measurement sized for a scan with
// the wave grid appended.
func (d *WavefunctionDetector) Allocate(w *wave.Waves, scanShape []int, scanCals []measure.Calibration, name string) (*measure.ComplexMeasurement, error) {
	shape := append(append([]int(nil), scanShape...), w.Gr.Gpts[0], w.Gr.Gpts[1])
	cals := append(append([]measure.Calibration(nil), scanCals...),
		measure.SpaceCalibrations(w.Gr.Sampling)...)
	return measure.NewComplex(shape, cals, name)
}

// DetectWaves returns a copy of every wave function in the batch.
func (d *WavefunctionDetector) DetectWaves(w *wave.Waves) [][]complex128 {
	out := make([][]complex128, w.N)
	for i := 0; i < w.N; i++ {
		out[i] = append([]complex128(nil), w.At(i)...)
	}
	return out
}
