package views

import (
	"bytes"
	"errors"
	"fmt"
	"html"

	"quake-observer/src/interfaces"
	"quake-observer/src/models"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

const (
	chartWidth  = 640
	chartHeight = 300
	maxXTicks   = 8
)

var (
	seriesColor    = drawing.ColorFromHex("4575b4")
	histogramColor = drawing.ColorFromHex("fc8d59")
	topColor       = drawing.ColorFromHex("d73027")
)

// -----------------------------------------------------------------------------
// ChartView renders the three dashboard charts to SVG.
// -----------------------------------------------------------------------------

type ChartView struct {
	base
}

func NewChartView(sink interfaces.IViewSink) *ChartView {
	return &ChartView{base: newBase(models.ViewCharts, sink)}
}

// -----------------------------------------------------------------------------

// Render replaces all three charts. A chart that fails to render is replaced
// by a placeholder and the failure is returned; the others are still shown.
func (v *ChartView) Render(ds models.MChartDataset) error {
	var errs []error
	state := models.MChartViewState{}

	svg, err := timeSeriesSVG(ds.TimeLabels, ds.TimeValues)
	state.TimeSeries, errs = orPlaceholder(svg, err, "Events over time", errs)

	svg, err = histogramSVG(ds.MagnitudeCounts)
	state.MagnitudeHistogram, errs = orPlaceholder(svg, err, "Magnitude distribution", errs)

	svg, err = topLocalitiesSVG(ds.TopCountries, ds.TopMagnitudes)
	state.TopLocalities, errs = orPlaceholder(svg, err, "Top localities", errs)

	v.publish(state)
	return errors.Join(errs...)
}

func (v *ChartView) RenderPayload(payload interface{}) error {
	ds, ok := payload.(models.MChartDataset)
	if !ok {
		return payloadError(v.name, "MChartDataset", payload)
	}
	return v.Render(ds)
}

func (v *ChartView) RenderEmpty() {
	v.publish(models.MChartViewState{
		TimeSeries:         placeholderSVG("Events over time"),
		MagnitudeHistogram: placeholderSVG("Magnitude distribution"),
		TopLocalities:      placeholderSVG("Top localities"),
	})
}

func (v *ChartView) State() (models.MChartViewState, bool) {
	s, ok := v.current().(models.MChartViewState)
	return s, ok
}

// -----------------------------------------------------------------------------
// Chart builders
// -----------------------------------------------------------------------------

// errNotEnoughData selects the placeholder without reporting a failure.
var errNotEnoughData = errors.New("not enough data")

func timeSeriesSVG(labels []string, values []float64) (string, error) {
	if len(values) < 2 || len(labels) != len(values) {
		return "", errNotEnoughData
	}

	xs := make([]float64, len(values))
	for i := range xs {
		xs[i] = float64(i)
	}

	step := (len(labels) + maxXTicks - 1) / maxXTicks
	var ticks []chart.Tick
	for i := 0; i < len(labels); i += step {
		ticks = append(ticks, chart.Tick{Value: float64(i), Label: labels[i]})
	}

	ch := chart.Chart{
		Title:      "Events over time",
		Width:      chartWidth,
		Height:     chartHeight,
		Background: chart.Style{Padding: chart.Box{Top: 30, Left: 16, Right: 16, Bottom: 16}},
		XAxis:      chart.XAxis{Ticks: ticks},
		YAxis:      chart.YAxis{Name: "events", Range: &chart.ContinuousRange{Min: 0, Max: axisMax(values)}},
		Series: []chart.Series{
			chart.ContinuousSeries{
				Name:    "events",
				XValues: xs,
				YValues: values,
				Style:   chart.Style{StrokeColor: seriesColor, StrokeWidth: 2},
			},
		},
	}

	var buf bytes.Buffer
	if err := ch.Render(chart.SVG, &buf); err != nil {
		return "", fmt.Errorf("time series: %w", err)
	}
	return buf.String(), nil
}

// -----------------------------------------------------------------------------

func histogramSVG(counts []int) (string, error) {
	if len(counts) != len(models.MagnitudeBucketLabels) {
		return "", errNotEnoughData
	}

	bars := make([]chart.Value, len(counts))
	values := make([]float64, len(counts))
	for i, c := range counts {
		values[i] = float64(c)
		bars[i] = chart.Value{
			Label: models.MagnitudeBucketLabels[i],
			Value: float64(c),
			Style: chart.Style{FillColor: histogramColor, StrokeColor: histogramColor},
		}
	}
	return barSVG("Magnitude distribution", bars, values)
}

// -----------------------------------------------------------------------------

func topLocalitiesSVG(names []string, magnitudes []float64) (string, error) {
	if len(names) == 0 || len(names) != len(magnitudes) {
		return "", errNotEnoughData
	}

	bars := make([]chart.Value, len(names))
	for i := range names {
		bars[i] = chart.Value{
			Label: names[i],
			Value: magnitudes[i],
			Style: chart.Style{FillColor: topColor, StrokeColor: topColor},
		}
	}
	return barSVG("Top localities", bars, magnitudes)
}

// -----------------------------------------------------------------------------

func barSVG(title string, bars []chart.Value, values []float64) (string, error) {
	bc := chart.BarChart{
		Title:      title,
		Width:      chartWidth,
		Height:     chartHeight,
		BarWidth:   40,
		Background: chart.Style{Padding: chart.Box{Top: 40}},
		YAxis:      chart.YAxis{Range: &chart.ContinuousRange{Min: 0, Max: axisMax(values)}},
		Bars:       bars,
	}

	var buf bytes.Buffer
	if err := bc.Render(chart.SVG, &buf); err != nil {
		return "", fmt.Errorf("%s: %w", title, err)
	}
	return buf.String(), nil
}

// -----------------------------------------------------------------------------
// Helpers
// -----------------------------------------------------------------------------

// axisMax leaves 10% headroom and never returns a zero-height range.
func axisMax(values []float64) float64 {
	max := 0.0
	for _, v := range values {
		if v > max {
			max = v
		}
	}
	if max <= 0 {
		return 1
	}
	return max * 1.1
}

func orPlaceholder(svg string, err error, title string, errs []error) (string, []error) {
	if err == nil {
		return svg, errs
	}
	if !errors.Is(err, errNotEnoughData) {
		errs = append(errs, err)
	}
	return placeholderSVG(title), errs
}

func placeholderSVG(title string) string {
	return fmt.Sprintf(
		`<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d"><text x="50%%" y="50%%" text-anchor="middle" fill="#888" font-family="sans-serif" font-size="14">%s: no data</text></svg>`,
		chartWidth, chartHeight, html.EscapeString(title))
}
