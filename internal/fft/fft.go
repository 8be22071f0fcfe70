// Package fft provides 2-D complex FFTs for wave-function arrays, built
// on gonum's dsp/fourier. Arrays are row-major []complex128 of shape
// rows x cols. Forward transforms are unnormalized; Inverse divides by
// the array length so a Forward/Inverse pair is the identity.
package fft

import (
	"sync"

	"gonum.org/v1/gonum/dsp/fourier"
)

// Plan2 holds the per-size FFT state for transforming rows x cols arrays.
// A Plan2 is not safe for concurrent use; each worker gets its own.
type Plan2 struct {
	rows, cols int
	rowFFT     *fourier.CmplxFFT
	colFFT     *fourier.CmplxFFT
	colBuf     []complex128
}

// NewPlan2 creates a transform plan for rows x cols arrays.
func NewPlan2(rows, cols int) *Plan2 {
	p := &Plan2{
		rows:   rows,
		cols:   cols,
		rowFFT: fourier.NewCmplxFFT(cols),
		colBuf: make([]complex128, rows),
	}
	if rows == cols {
		p.colFFT = p.rowFFT
	} else {
		p.colFFT = fourier.NewCmplxFFT(rows)
	}
	return p
}

// Forward transforms a in place to Fourier space (unnormalized).
func (p *Plan2) Forward(a []complex128) {
	p.transform(a, false)
}

// Inverse transforms a in place back to real space, normalizing by the
// array length.
func (p *Plan2) Inverse(a []complex128) {
	p.transform(a, true)
	scale := complex(1/float64(p.rows*p.cols), 0)
	for i := range a {
		a[i] *= scale
	}
}

func (p *Plan2) transform(a []complex128, inverse bool) {
	if len(a) != p.rows*p.cols {
		panic("fft: array length does not match plan shape")
	}

	for r := 0; r < p.rows; r++ {
		row := a[r*p.cols : (r+1)*p.cols]
		if inverse {
			p.rowFFT.Sequence(row, row)
		} else {
			p.rowFFT.Coefficients(row, row)
		}
	}

	for c := 0; c < p.cols; c++ {
		for r := 0; r < p.rows; r++ {
			p.colBuf[r] = a[r*p.cols+c]
		}
		if inverse {
			p.colFFT.Sequence(p.colBuf, p.colBuf)
		} else {
			p.colFFT.Coefficients(p.colBuf, p.colBuf)
		}
		for r := 0; r < p.rows; r++ {
			a[r*p.cols+c] = p.colBuf[r]
		}
	}
}

var (
	planMu    sync.Mutex
	planCache = map[[2]int]*Plan2{}
)

// plan returns a shared cached plan. Callers must hold no references
// across concurrent use; the package-level helpers lock around it.
func plan(rows, cols int) *Plan2 {
	planMu.Lock()
	defer planMu.Unlock()
	key := [2]int{rows, cols}
	p, ok := planCache[key]
	if !ok {
		p = NewPlan2(rows, cols)
		planCache[key] = p
	}
	return p
}

var sharedMu sync.Mutex

// Forward2 transforms a rows x cols array in place to Fourier space.
func Forward2(a []complex128, rows, cols int) {
	sharedMu.Lock()
	defer sharedMu.Unlock()
	plan(rows, cols).Forward(a)
}

// Inverse2 transforms a rows x cols array in place to real space.
func Inverse2(a []complex128, rows, cols int) {
	sharedMu.Lock()
	defer sharedMu.Unlock()
	plan(rows, cols).Inverse(a)
}

// Shift2 returns a copy of a with the zero-frequency component moved to
// the array center (numpy fftshift layout).
func Shift2(a []complex128, rows, cols int) []complex128 {
	out := make([]complex128, len(a))
	for r := 0; r < rows; r++ {
		nr := (r + rows/2) % rows
		for c := 0; c < cols; c++ {
			nc := (c + cols/2) % cols
			out[nr*cols+nc] = a[r*cols+c]
		}
	}
	return out
}

// ShiftFloat2 is Shift2 for real-valued arrays.
func ShiftFloat2(a []float64, rows, cols int) []float64 {
	out := make([]float64, len(a))
	for r := 0; r < rows; r++ {
		nr := (r + rows/2) % rows
		for c := 0; c < cols; c++ {
			nc := (c + cols/2) % cols
			out[nr*cols+nc] = a[r*cols+c]
		}
	}
	return out
}

// UnshiftFloat2 undoes ShiftFloat2 (numpy ifftshift layout).
func UnshiftFloat2(a []float64, rows, cols int) []float64 {
	out := make([]float64, len(a))
	for r := 0; r < rows; r++ {
		nr := (r + (rows+1)/2) % rows
		for c := 0; c < cols; c++ {
			nc := (c + (cols+1)/2) % cols
			out[nr*cols+nc] = a[r*cols+c]
		}
	}
	return out
}

// Abs2 writes the squared magnitude of each element of a into dst and
// returns dst. If dst is nil a new slice is allocated.
func Abs2(a []complex128, dst []float64) []float64 {
	if dst == nil {
		dst = make([]float64, len(a))
	}
	for i, v := range a {
		re, im := real(v), imag(v)
		dst[i] = re*re + im*im
	}
	return dst
}
