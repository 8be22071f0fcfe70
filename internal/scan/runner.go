package scan

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/nanobeam-data/exitwave/internal/detect"
	"github.com/nanobeam-data/exitwave/internal/grid"
	"github.com/nanobeam-data/exitwave/internal/measure"
	"github.com/nanobeam-data/exitwave/internal/monitoring"
	"github.com/nanobeam-data/exitwave/internal/prism"
	"github.com/nanobeam-data/exitwave/internal/wave"
)

// Source produces exit wave functions for batches of probe positions.
type Source interface {
	// BuildWaves returns one exit wave per position, in order.
	BuildWaves(ctx context.Context, positions [][2]float64) (*wave.Waves, error)

	// Blank returns an empty wave batch on the output grid, used to size
	// detector measurements before the scan starts.
	Blank() (*wave.Waves, error)
}

// ProbeSource builds probes and propagates each batch through the
// potential. This is the direct multislice path; for large scans the
// S-matrix source is much cheaper.
type ProbeSource struct {
	Probe     *wave.Probe
	Potential wave.Potential
}

func (s *ProbeSource) BuildWaves(ctx context.Context, positions [][2]float64) (*wave.Waves, error) {
	w, err := s.Probe.BuildAt(positions)
	if err != nil {
		return nil, err
	}
	if s.Potential != nil {
		if err := w.Multislice(ctx, s.Potential); err != nil {
			return nil, err
		}
	}
	return w, nil
}

func (s *ProbeSource) Blank() (*wave.Waves, error) {
	gr := s.Probe.Gr
	if s.Potential != nil {
		gr = s.Potential.Grid()
	}
	if gr == nil {
		return nil, grid.ErrExtentUndefined
	}
	return wave.NewWaves(gr.Copy(), s.Probe.Energy, 1)
}

// SMatrixSource collapses probes from a scattering matrix that has
// already been propagated through the specimen.
type SMatrixSource struct {
	S   *prism.SMatrix
	CTF *wave.CTF
}

func (s *SMatrixSource) BuildWaves(ctx context.Context, positions [][2]float64) (*wave.Waves, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.S.BuildAt(positions, s.CTF)
}

func (s *SMatrixSource) Blank() (*wave.Waves, error) {
	return wave.NewWaves(s.S.WindowGrid(), s.S.Energy(), 1)
}

// Runner drives a scan through a source and a set of detectors with a
// bounded worker pool.
type Runner struct {
	Source    Source
	Detectors []detect.Detector

	// Workers bounds the number of concurrent batches; 0 means one per
	// CPU.
	Workers int

	// BatchSize is the number of positions built per batch; 0 means 8.
	BatchSize int

	// CaptureWaves additionally records the raw exit wave functions.
	CaptureWaves bool

	// Progress, when set, is called after every finished batch with the
	// number of completed positions. It may be called concurrently.
	Progress func(done, total int)
}

// Results holds one measurement per detector, in detector order, plus
// the captured exit waves when requested.
type Results struct {
	Measurements []*measure.Measurement
	Waves        *measure.ComplexMeasurement
}

// Run executes the scan. Measurements are fully allocated up front;
// workers write disjoint blocks, so no locking is needed on the data.
func (r *Runner) Run(ctx context.Context, sc Scan) (*Results, error) {
	if r.Source == nil {
		return nil, fmt.Errorf("scan: no wave source")
	}
	if len(r.Detectors) == 0 && !r.CaptureWaves {
		return nil, fmt.Errorf("scan: no detectors")
	}

	positions := sc.Positions()
	blank, err := r.Source.Blank()
	if err != nil {
		return nil, err
	}

	res := &Results{Measurements: make([]*measure.Measurement, len(r.Detectors))}
	blockLens := make([]int, len(r.Detectors))
	names := detectorNames(r.Detectors)
	for i, d := range r.Detectors {
		m, err := detect.AllocateMeasurement(d, blank, sc.Shape(), sc.Calibrations(), names[i])
		if err != nil {
			return nil, err
		}
		res.Measurements[i] = m
		blockLens[i] = m.Len() / len(positions)
	}

	var wd *detect.WavefunctionDetector
	if r.CaptureWaves {
		wd = &detect.WavefunctionDetector{}
		res.Waves, err = wd.Allocate(blank, sc.Shape(), sc.Calibrations(), "exit waves")
		if err != nil {
			return nil, err
		}
	}

	workers := r.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	batchSize := r.BatchSize
	if batchSize <= 0 {
		batchSize = 8
	}

	type batch struct {
		offset    int
		positions [][2]float64
	}
	batches := make(chan batch)
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		wg       sync.WaitGroup
		done     atomic.Uint64
		firstErr error
		errOnce  sync.Once
	)
	fail := func(err error) {
		errOnce.Do(func() {
			firstErr = err
			cancel()
		})
	}

	for wk := 0; wk < workers; wk++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for b := range batches {
				waves, err := r.Source.BuildWaves(ctx, b.positions)
				if err != nil {
					fail(err)
					return
				}
				for i, d := range r.Detectors {
					values, err := d.Detect(waves)
					if err != nil {
						fail(err)
						return
					}
					m := res.Measurements[i]
					for p, block := range values {
						copy(m.Data[(b.offset+p)*blockLens[i]:], block)
					}
				}
				if wd != nil {
					waveLen := blank.Gr.Len()
					for p, data := range wd.DetectWaves(waves) {
						copy(res.Waves.Data[(b.offset+p)*waveLen:], data)
					}
				}
				n := done.Add(uint64(len(b.positions)))
				if r.Progress != nil {
					r.Progress(int(n), len(positions))
				}
			}
		}()
	}

	monitoring.Logf("scan: %d positions, %d workers, batch size %d", len(positions), workers, batchSize)

feed:
	for off := 0; off < len(positions); off += batchSize {
		hi := off + batchSize
		if hi > len(positions) {
			hi = len(positions)
		}
		select {
		case batches <- batch{offset: off, positions: positions[off:hi]}:
		case <-ctx.Done():
			break feed
		}
	}
	close(batches)
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return res, nil
}

func detectorName(d detect.Detector) string {
	switch d := d.(type) {
	case *detect.AnnularDetector:
		return fmt.Sprintf("annular-%g-%gmrad", d.Inner(), d.Outer())
	case *detect.FlexibleAnnularDetector:
		return "flexible annular"
	case *detect.SegmentedDetector:
		return "segmented"
	case *detect.PixelatedDetector:
		return "pixelated"
	default:
		return "detector"
	}
}

// detectorNames assigns each detector a distinct measurement name, so two
// detectors of the same kind never collide in the run archive. Duplicate
// base names get an index suffix.
func detectorNames(ds []detect.Detector) []string {
	names := make([]string, len(ds))
	counts := make(map[string]int, len(ds))
	for i, d := range ds {
		names[i] = detectorName(d)
		counts[names[i]]++
	}
	next := make(map[string]int, len(ds))
	for i, n := range names {
		if counts[n] > 1 {
			names[i] = fmt.Sprintf("%s-%d", n, next[n])
			next[n]++
		}
	}
	return names
}
