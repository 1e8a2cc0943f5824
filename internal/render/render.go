// Package render draws dashboard charts as PNG images.
package render

import (
	"errors"
	"fmt"
	"io"
	"math"
	"time"

	"github.com/wcharczuk/go-chart/v2"

	"github.com/gyaneshwarpardhi/netbench/internal/aggregate"
)

// ErrNoData is returned when there is nothing to plot.
var ErrNoData = errors.New("render: no data to plot")

const (
	defaultWidth  = 1024
	defaultHeight = 512
	barWidth      = 40
	barSpacing    = 12
)

// RegionLatencyBars draws one bar per region with its mean latency, in the
// order given.
func RegionLatencyBars(w io.Writer, stats []aggregate.RegionStat) error {
	if len(stats) == 0 {
		return ErrNoData
	}
	bars := make([]chart.Value, 0, len(stats))
	peak := 0.0
	for _, s := range stats {
		bars = append(bars, chart.Value{Value: s.AvgLatencyMicros, Label: s.DisplayName})
		peak = math.Max(peak, s.AvgLatencyMicros)
	}
	if peak <= 0 {
		peak = 1
	}

	bc := chart.BarChart{
		Title:      "Average Latency by Region (μs)",
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 16, Right: 12, Bottom: 16}},
		Width:      max(defaultWidth, len(bars)*(barWidth+barSpacing)+120),
		Height:     defaultHeight,
		BarWidth:   barWidth,
		BarSpacing: barSpacing,
		YAxis:      chart.YAxis{Range: &chart.ContinuousRange{Min: 0, Max: peak * 1.1}},
		Bars:       bars,
	}
	if err := bc.Render(chart.PNG, w); err != nil {
		return fmt.Errorf("render bar chart: %w", err)
	}
	return nil
}

// SeriesChart draws one line per series. Series without points are skipped;
// a series with a single point is padded to two so go-chart has an x-range.
func SeriesChart(w io.Writer, title string, g aggregate.Granularity, series []aggregate.Series) error {
	var (
		out    []chart.Series
		lo, hi = math.Inf(1), math.Inf(-1)
	)
	for _, s := range series {
		if len(s.Points) == 0 {
			continue
		}
		xs := make([]time.Time, 0, len(s.Points)+1)
		ys := make([]float64, 0, len(s.Points)+1)
		for _, p := range s.Points {
			xs = append(xs, p.Time)
			ys = append(ys, p.Value)
			lo = math.Min(lo, p.Value)
			hi = math.Max(hi, p.Value)
		}
		if len(xs) == 1 {
			xs = append(xs, xs[0].Add(time.Second))
			ys = append(ys, ys[0])
		}
		out = append(out, chart.TimeSeries{Name: s.Label, XValues: xs, YValues: ys})
	}
	if len(out) == 0 {
		return ErrNoData
	}
	if lo == hi {
		lo, hi = lo-1, hi+1
	}

	formatter := chart.TimeDateValueFormatter
	if g == aggregate.Hourly {
		formatter = chart.TimeHourValueFormatter
	}
	ch := chart.Chart{
		Title:      title,
		Width:      defaultWidth,
		Height:     defaultHeight,
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 16, Right: 12, Bottom: 48}},
		XAxis:      chart.XAxis{ValueFormatter: formatter},
		YAxis:      chart.YAxis{Range: &chart.ContinuousRange{Min: lo, Max: hi}},
		Series:     out,
	}
	ch.Elements = []chart.Renderable{chart.Legend(&ch)}
	if err := ch.Render(chart.PNG, w); err != nil {
		return fmt.Errorf("render series chart: %w", err)
	}
	return nil
}
