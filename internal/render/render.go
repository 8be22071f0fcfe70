// Package render turns measurements into images and HTML reports.
package render

import (
	"bytes"
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/nanobeam-data/exitwave/internal/measure"
)

// viridis is the color ramp used across the HTML reports.
var viridis = []string{
	"#440154", "#482777", "#3e4989", "#31688e", "#26828e",
	"#1f9e89", "#35b779", "#6ece58", "#b5de2b", "#fde725",
}

// axisCalibration returns the calibration of axis i, falling back to a
// unit index calibration for uncalibrated measurements.
func axisCalibration(m *measure.Measurement, i int) measure.Calibration {
	if i < len(m.Calibrations) {
		return m.Calibrations[i]
	}
	return measure.Calibration{Sampling: 1}
}

// measurementGrid adapts a 2-D measurement to the plotter heat map.
type measurementGrid struct {
	m    *measure.Measurement
	x, y measure.Calibration
}

func newMeasurementGrid(m *measure.Measurement) measurementGrid {
	return measurementGrid{m: m, x: axisCalibration(m, 1), y: axisCalibration(m, 0)}
}

func (g measurementGrid) Dims() (int, int) { return g.m.Shape[1], g.m.Shape[0] }

func (g measurementGrid) Z(c, r int) float64 { return g.m.Data[r*g.m.Shape[1]+c] }

func (g measurementGrid) X(c int) float64 { return g.x.Value(c) }

func (g measurementGrid) Y(r int) float64 { return g.y.Value(r) }

// SaveHeatmapPNG writes a 2-D measurement as a heat map image. The file
// format follows the path extension.
func SaveHeatmapPNG(m *measure.Measurement, path string) error {
	if m.Dimensions() != 2 {
		return fmt.Errorf("render: heat map needs a 2-D measurement, got %d dimensions", m.Dimensions())
	}

	p := plot.New()
	p.Title.Text = m.Name
	p.X.Label.Text = axisLabel(axisCalibration(m, 1))
	p.Y.Label.Text = axisLabel(axisCalibration(m, 0))

	hm := plotter.NewHeatMap(newMeasurementGrid(m), palette.Heat(64, 1))
	p.Add(hm)

	if err := p.Save(6*vg.Inch, 6*vg.Inch, path); err != nil {
		return fmt.Errorf("render: save heat map: %w", err)
	}
	return nil
}

// SaveLinePNG writes a 1-D measurement as a line plot.
func SaveLinePNG(m *measure.Measurement, path string) error {
	if m.Dimensions() != 1 {
		return fmt.Errorf("render: line plot needs a 1-D measurement, got %d dimensions", m.Dimensions())
	}

	cal := axisCalibration(m, 0)
	pts := make(plotter.XYs, len(m.Data))
	for i, v := range m.Data {
		pts[i] = plotter.XY{X: cal.Value(i), Y: v}
	}
	line, err := plotter.NewLine(pts)
	if err != nil {
		return fmt.Errorf("render: build line: %w", err)
	}
	line.Width = vg.Points(1)

	p := plot.New()
	p.Title.Text = m.Name
	p.X.Label.Text = axisLabel(cal)
	p.Add(line)

	if err := p.Save(8*vg.Inch, 4*vg.Inch, path); err != nil {
		return fmt.Errorf("render: save line plot: %w", err)
	}
	return nil
}

func axisLabel(c measure.Calibration) string {
	if c.Name == "" && c.Units == "" {
		return ""
	}
	if c.Units == "" {
		return c.Name
	}
	return fmt.Sprintf("%s (%s)", c.Name, c.Units)
}

// WriteReport renders an HTML page with one chart per measurement: heat
// maps for 2-D signals, line charts for 1-D signals. Higher-dimensional
// measurements are skipped.
func WriteReport(w io.Writer, title string, measurements []*measure.Measurement) error {
	page := components.NewPage()
	page.PageTitle = title

	for _, m := range measurements {
		switch m.Dimensions() {
		case 1:
			page.AddCharts(lineChart(m))
		case 2:
			page.AddCharts(heatmapChart(m))
		}
	}

	var buf bytes.Buffer
	if err := page.Render(&buf); err != nil {
		return fmt.Errorf("render: report: %w", err)
	}
	_, err := w.Write(buf.Bytes())
	return err
}

func lineChart(m *measure.Measurement) *charts.Line {
	cal := axisCalibration(m, 0)
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: m.Name}),
		charts.WithXAxisOpts(opts.XAxis{Name: axisLabel(cal)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)

	xs := make([]string, len(m.Data))
	data := make([]opts.LineData, len(m.Data))
	for i, v := range m.Data {
		xs[i] = fmt.Sprintf("%.3g", cal.Value(i))
		data[i] = opts.LineData{Value: v}
	}
	line.SetXAxis(xs).AddSeries(m.Name, data)
	return line
}

func heatmapChart(m *measure.Measurement) *charts.HeatMap {
	hm := charts.NewHeatMap()

	minVal, maxVal := m.MinMax()
	if maxVal == minVal {
		maxVal = minVal + 1
	}

	n0, n1 := m.Shape[0], m.Shape[1]
	data := make([]opts.HeatMapData, 0, n0*n1)
	for i := 0; i < n0; i++ {
		for j := 0; j < n1; j++ {
			data = append(data, opts.HeatMapData{Value: [3]interface{}{j, i, m.Data[i*n1+j]}})
		}
	}

	calX, calY := axisCalibration(m, 1), axisCalibration(m, 0)
	xs := make([]string, n1)
	for j := range xs {
		xs[j] = fmt.Sprintf("%.3g", calX.Value(j))
	}
	ys := make([]string, n0)
	for i := range ys {
		ys[i] = fmt.Sprintf("%.3g", calY.Value(i))
	}

	hm.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: m.Name}),
		charts.WithXAxisOpts(opts.XAxis{Type: "category", Name: axisLabel(calX)}),
		charts.WithYAxisOpts(opts.YAxis{Type: "category", Name: axisLabel(calY)}),
		charts.WithVisualMapOpts(opts.VisualMap{
			Show:       opts.Bool(true),
			Calculable: opts.Bool(true),
			Min:        float32(minVal),
			Max:        float32(maxVal),
			InRange:    &opts.VisualMapInRange{Color: viridis},
		}),
	)
	hm.SetXAxis(xs).AddSeries(m.Name, data)
	return hm
}
