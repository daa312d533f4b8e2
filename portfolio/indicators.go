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

package portfolio

import (
	"errors"
	"fmt"
	"time"

	"github.com/chartfolio/cf-api/dataframe"
)

// DefaultInterval is the lookback window used when none is given
const DefaultInterval = 20

// MACD parameters
const (
	macdFastSpan   = 12
	macdSlowSpan   = 26
	macdSignalSpan = 9
)

// ErrNoHistory indicates indicators were requested before LoadHistory
var ErrNoHistory = errors.New("no history loaded")

// ErrMissingSeries indicates a required aggregate series is absent
var ErrMissingSeries = errors.New("required series missing from history")

// ComputeIndicators derives the technical indicator columns from the
// portfolio-level aggregates (close, price): win, sma, ema, std, Bollinger
// bands, the perf family, rsi and MACD. The first interval-1 rows of every
// rolling column are NaN. When inplace is false the portfolio's history is
// left untouched and a copy carrying the new columns is returned.
func (p *Portfolio) ComputeIndicators(interval int, inplace bool) (*History, error) {
	if p.History == nil {
		return nil, ErrNoHistory
	}
	if interval <= 0 {
		interval = DefaultInterval
	}

	history := p.History
	if !inplace {
		history = history.Copy()
	}

	close := history.Series(SeriesKey{Metric: MetricClose})
	price := history.Series(SeriesKey{Metric: MetricPrice})
	if close == nil || price == nil {
		return nil, fmt.Errorf("%w: aggregate close/price (aggregate to portfolio level first)", ErrMissingSeries)
	}

	win := make([]float64, len(close))
	for idx := range close {
		win[idx] = close[idx] - price[idx]
	}
	history.Insert(SeriesKey{Metric: "win"}, win)

	dates := history.Frame.Dates
	sma := rollingMean(dates, close, interval)
	std := rollingStd(dates, close, interval)
	history.Insert(SeriesKey{Metric: "sma"}, sma)
	history.Insert(SeriesKey{Metric: "ema"}, ewm(dates, close, interval, true))
	history.Insert(SeriesKey{Metric: "std"}, std)
	history.Insert(SeriesKey{Metric: "bb_upper"}, bollinger(sma, std, 2))
	history.Insert(SeriesKey{Metric: "bb_lower"}, bollinger(sma, std, -2))

	perf := make([]float64, len(win))
	for idx := range win {
		perf[idx] = win[idx] / price[idx]
	}
	perfSma := rollingMean(dates, perf, interval)
	perfStd := rollingStd(dates, perf, interval)
	history.Insert(SeriesKey{Metric: "perf"}, perf)
	history.Insert(SeriesKey{Metric: "perf_sma"}, perfSma)
	history.Insert(SeriesKey{Metric: "perf_ema"}, ewm(dates, perf, interval, true))
	history.Insert(SeriesKey{Metric: "perf_std"}, perfStd)
	history.Insert(SeriesKey{Metric: "perf_bb_upper"}, bollinger(perfSma, perfStd, 2))
	history.Insert(SeriesKey{Metric: "perf_bb_lower"}, bollinger(perfSma, perfStd, -2))

	history.Insert(SeriesKey{Metric: "rsi"}, rsi(dates, close, interval))

	macd, signal, hist := macdSeries(dates, close)
	history.Insert(SeriesKey{Metric: "macd"}, macd)
	history.Insert(SeriesKey{Metric: "signal_line"}, signal)
	history.Insert(SeriesKey{Metric: "histogram"}, hist)

	if inplace {
		p.History = history
	}
	return history, nil
}

// ComputeSymbolIndicators derives the money flow index for one symbol from
// its raw ticker-level quotes, so the flow is weighted by the market's daily
// trading volume rather than the holding. The column is named {symbol}_mfi.
func (p *Portfolio) ComputeSymbolIndicators(symbol string, interval int, inplace bool) (*History, error) {
	if p.History == nil {
		return nil, ErrNoHistory
	}
	if interval <= 0 {
		interval = DefaultInterval
	}

	history := p.History
	if !inplace {
		history = history.Copy()
	}

	var series [4][]float64
	for idx, metric := range []string{MetricClose, MetricHigh, MetricLow, MetricVolume} {
		series[idx] = history.Series(SeriesKey{Symbol: symbol, TxID: TickerTx, Metric: metric})
		if series[idx] == nil {
			return nil, fmt.Errorf("%w: %s:raw:%s (load the history first)", ErrMissingSeries, symbol, metric)
		}
	}

	mfi := mfi(history.Frame.Dates, series[0], series[1], series[2], series[3], interval)
	history.Insert(SeriesKey{Symbol: symbol, TxID: AggregateTx, Metric: "mfi"}, mfi)

	if inplace {
		p.History = history
	}
	return history, nil
}

func seriesFrame(dates []time.Time, vals []float64) *dataframe.DataFrame {
	return &dataframe.DataFrame{
		Dates:    dates,
		ColNames: []string{"x"},
		Vals:     [][]float64{vals},
	}
}

func rollingMean(dates []time.Time, vals []float64, lookback int) []float64 {
	return seriesFrame(dates, append([]float64{}, vals...)).RollingMean(lookback).Vals[0]
}

func rollingStd(dates []time.Time, vals []float64, lookback int) []float64 {
	return seriesFrame(dates, append([]float64{}, vals...)).RollingStd(lookback).Vals[0]
}

func ewm(dates []time.Time, vals []float64, span int, adjust bool) []float64 {
	return seriesFrame(dates, append([]float64{}, vals...)).EWM(span, adjust).Vals[0]
}

func bollinger(sma, std []float64, width float64) []float64 {
	out := make([]float64, len(sma))
	for idx := range sma {
		out[idx] = sma[idx] + width*std[idx]
	}
	return out
}

// rsi is 1 - 1/(1 + gain/loss) where gain and loss are rolling means of the
// positive and negative daily changes. The first row and NaN changes count as
// neither gain nor loss, so the series is defined from row interval-1. A zero
// loss drives the ratio to +Inf and the RSI to exactly 1; an all-flat window
// yields 0/0 and a NaN, never a clamped value.
func rsi(dates []time.Time, close []float64, interval int) []float64 {
	gains := make([]float64, len(close))
	losses := make([]float64, len(close))
	for idx := 1; idx < len(close); idx++ {
		delta := close[idx] - close[idx-1]
		switch {
		case delta > 0:
			gains[idx] = delta
		case delta < 0:
			losses[idx] = -delta
		}
	}

	avgGain := rollingMean(dates, gains, interval)
	avgLoss := rollingMean(dates, losses, interval)

	out := make([]float64, len(close))
	for idx := range out {
		rs := avgGain[idx] / avgLoss[idx]
		out[idx] = 1 - 1/(1+rs)
	}
	return out
}

// macdSeries uses the standard 12-26-9 spans with recursive (adjust=false)
// exponential averages
func macdSeries(dates []time.Time, close []float64) (macd, signal, histogram []float64) {
	fast := ewm(dates, close, macdFastSpan, false)
	slow := ewm(dates, close, macdSlowSpan, false)

	macd = make([]float64, len(close))
	for idx := range macd {
		macd[idx] = fast[idx] - slow[idx]
	}

	signal = ewm(dates, macd, macdSignalSpan, false)

	histogram = make([]float64, len(close))
	for idx := range histogram {
		histogram[idx] = macd[idx] - signal[idx]
	}
	return macd, signal, histogram
}

// mfi is 1 - 1/(1 + gain/loss) over the signed typical-price money flow.
// A day counts as positive flow only when its typical price rose; flat days,
// the first row and rows following a quote gap all count as negative flow.
// A NaN flow contributes to neither side. The rolling sums use min_periods=1
// so the series starts as soon as any flow exists; windows without flow are
// 0/0 and yield NaN.
func mfi(dates []time.Time, close, high, low, volume []float64, interval int) []float64 {
	n := len(close)
	typical := make([]float64, n)
	for idx := range typical {
		typical[idx] = (close[idx] + high[idx] + low[idx]) / 3
	}

	posFlow := make([]float64, n)
	negFlow := make([]float64, n)
	for idx := range typical {
		signed := -typical[idx] * volume[idx]
		if idx > 0 && typical[idx] > typical[idx-1] {
			signed = -signed
		}
		switch {
		case signed > 0:
			posFlow[idx] = signed
		case signed < 0:
			negFlow[idx] = -signed
		}
	}

	gain := seriesFrame(dates, posFlow).RollingSumMin(interval, 1).Vals[0]
	loss := seriesFrame(dates, negFlow).RollingSumMin(interval, 1).Vals[0]

	out := make([]float64, n)
	for idx := range out {
		ratio := gain[idx] / loss[idx]
		out[idx] = 1 - 1/(1+ratio)
	}
	return out
}
