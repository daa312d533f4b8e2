// Copyright 2024-2026
// SPDX-License-Identifier: Apache-2.0
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package figure renders portfolio histories as dual-axis line charts. The
// left axis carries monetary series, the right axis ratio series such as
// performance, RSI and MFI.
package figure

import (
	"bytes"
	"io"
	"math"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/rs/zerolog/log"

	"github.com/chartfolio/cf-api/portfolio"
)

// Axis assignment for a series
const (
	AxisValue = 0
	AxisRatio = 1
)

// Spec describes how one history column is drawn
type Spec struct {
	Column string
	Label  string
	Axis   int
	Color  string
	Width  float32
	// Fill shades the area between this series and the axis; used for the
	// invested and close series
	Fill bool
	// Dashed draws the line dashed
	Dashed bool
}

// registry maps well-known history columns to their drawing style. Columns
// not listed here fall back to a plain left-axis line.
var registry = map[string]Spec{
	"close":         {Label: "Close", Axis: AxisValue, Color: "#5470c6", Width: 2, Fill: true},
	"price":         {Label: "Invested", Axis: AxisValue, Color: "#91cc75", Width: 2, Fill: true},
	"win":           {Label: "Win", Axis: AxisValue, Color: "#fac858", Width: 1.5},
	"sma":           {Label: "SMA", Axis: AxisValue, Color: "#ee6666", Width: 1},
	"ema":           {Label: "EMA", Axis: AxisValue, Color: "#73c0de", Width: 1},
	"bb_upper":      {Label: "BB Upper", Axis: AxisValue, Color: "#9a60b4", Width: 1, Dashed: true},
	"bb_lower":      {Label: "BB Lower", Axis: AxisValue, Color: "#9a60b4", Width: 1, Dashed: true},
	"perf":          {Label: "Performance", Axis: AxisRatio, Color: "#3ba272", Width: 2},
	"perf_sma":      {Label: "Perf SMA", Axis: AxisRatio, Color: "#ee6666", Width: 1},
	"perf_ema":      {Label: "Perf EMA", Axis: AxisRatio, Color: "#73c0de", Width: 1},
	"perf_bb_upper": {Label: "Perf BB Upper", Axis: AxisRatio, Color: "#9a60b4", Width: 1, Dashed: true},
	"perf_bb_lower": {Label: "Perf BB Lower", Axis: AxisRatio, Color: "#9a60b4", Width: 1, Dashed: true},
	"rsi":           {Label: "RSI", Axis: AxisRatio, Color: "#fc8452", Width: 1.5},
	"macd":          {Label: "MACD", Axis: AxisRatio, Color: "#5470c6", Width: 1.5},
	"signal_line":   {Label: "Signal", Axis: AxisRatio, Color: "#ee6666", Width: 1.5},
	"histogram":     {Label: "Histogram", Axis: AxisRatio, Color: "#fac858", Width: 1},
}

// Default headroom above the tallest series on each axis
const (
	DefaultStretch      = 1.2
	DefaultRatioStretch = 1.2
)

// Figure is a chart under construction over one history. Stretch and
// RatioStretch set the ceiling of the value and ratio axis as a multiple of
// the tallest series drawn on them.
type Figure struct {
	Title        string
	Stretch      float64
	RatioStretch float64

	history *portfolio.History
	specs   []Spec
}

// New creates an empty figure over history
func New(history *portfolio.History, title string) *Figure {
	return &Figure{
		Title:        title,
		Stretch:      DefaultStretch,
		RatioStretch: DefaultRatioStretch,
		history:      history,
	}
}

// Add queues history columns for drawing. A column absent from the history
// is skipped silently so callers can request the full indicator set without
// checking what was computed.
func (f *Figure) Add(columns ...string) *Figure {
	for _, column := range columns {
		if !f.history.Frame.HasCol(column) {
			log.Debug().Str("Column", column).Msg("series not in history; not drawn")
			continue
		}
		spec, ok := registry[column]
		if !ok {
			spec = Spec{Label: column, Axis: AxisValue, Width: 1}
		}
		spec.Column = column
		f.specs = append(f.specs, spec)
	}
	return f
}

// Render writes the chart as a self-contained HTML document
func (f *Figure) Render(w io.Writer) error {
	valueAxis := opts.YAxis{Name: "Value", Type: "value"}
	if max := f.axisMax(AxisValue, f.Stretch); max > 0 {
		valueAxis.Min = 0
		valueAxis.Max = max
	}
	ratioAxis := opts.YAxis{Name: "Ratio", Type: "value"}
	if max := f.axisMax(AxisRatio, f.RatioStretch); max > 0 {
		ratioAxis.Min = 0
		ratioAxis.Max = max
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			Width:  "1280px",
			Height: "640px",
		}),
		charts.WithTitleOpts(opts.Title{Title: f.Title}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Top: "bottom"}),
		charts.WithDataZoomOpts(opts.DataZoom{Type: "slider"}),
		charts.WithYAxisOpts(valueAxis),
	)
	line.ExtendYAxis(ratioAxis)

	line.SetXAxis(f.xAxis())

	for _, spec := range f.specs {
		line.AddSeries(spec.Label, f.lineData(spec.Column), f.seriesOpts(spec)...)
	}

	return line.Render(w)
}

// HTML renders the chart into a byte slice
func (f *Figure) HTML() ([]byte, error) {
	var buf bytes.Buffer
	if err := f.Render(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (f *Figure) xAxis() []string {
	dates := make([]string, 0, f.history.Frame.Len())
	for _, dt := range f.history.Frame.Dates {
		dates = append(dates, dt.Format("2006-01-02"))
	}
	return dates
}

func (f *Figure) lineData(column string) []opts.LineData {
	vals := f.history.Frame.Col(column)
	items := make([]opts.LineData, len(vals))
	for idx, v := range vals {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			items[idx] = opts.LineData{Value: "-"}
			continue
		}
		items[idx] = opts.LineData{Value: v}
	}
	return items
}

func (f *Figure) seriesOpts(spec Spec) []charts.SeriesOpts {
	lineStyle := opts.LineStyle{Color: spec.Color, Width: spec.Width}
	if spec.Dashed {
		lineStyle.Type = "dashed"
	}

	seriesOpts := []charts.SeriesOpts{
		charts.WithLineChartOpts(opts.LineChart{
			YAxisIndex: spec.Axis,
			Symbol:     "none",
		}),
		charts.WithLineStyleOpts(lineStyle),
		charts.WithItemStyleOpts(opts.ItemStyle{Color: spec.Color}),
	}
	if spec.Fill {
		seriesOpts = append(seriesOpts, charts.WithAreaStyleOpts(opts.AreaStyle{
			Color:   spec.Color,
			Opacity: 0.15,
		}))
	}
	return seriesOpts
}

// axisMax returns the ceiling for one axis: the largest finite value of any
// series drawn on it, stretched. Zero when nothing on the axis has a positive
// value, which lets echarts pick its own scale.
func (f *Figure) axisMax(axis int, stretch float64) float64 {
	max := 0.0
	for _, spec := range f.specs {
		if spec.Axis != axis {
			continue
		}
		if colMax := f.history.Frame.Max(spec.Column); colMax > max {
			max = colMax
		}
	}
	if max <= 0 {
		return 0
	}
	return max * stretch
}
