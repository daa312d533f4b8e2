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

package dataframe

import (
	"math"

	"github.com/rs/zerolog/log"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// RollingApply computes fn over a sliding window of `lookback` rows for
// every column and returns a new dataframe. The first lookback-1 rows are
// NaN. A NaN inside the window propagates through fn.
// NOTE: lookback is in terms of date periods; if the dataframe is sampled
// daily then the window is in days.
func (df *DataFrame) RollingApply(lookback int, fn func(window []float64) float64) *DataFrame {
	if (lookback > df.Len()) || (lookback <= 0) {
		log.Error().Stack().Int("Lookback", lookback).Int("NRows", df.Len()).Msg("lookback must be: 0 < lookback <= NRows")
		return df.nanFrame()
	}

	filterBank := make([][]float64, df.ColCount())
	for idx := range filterBank {
		filterBank[idx] = make([]float64, lookback)
	}

	outVals := make([][]float64, df.ColCount())
	for idx := range outVals {
		outVals[idx] = make([]float64, df.Len())
	}

	warmup := true
	window := make([]float64, lookback)

	for rowIdx := range df.Dates {
		// row is 0 based, lookback is 1 based
		if rowIdx == (lookback - 1) {
			warmup = false
		}

		filterBankIdx := rowIdx % lookback

		for colIdx := range df.Vals {
			filterBank[colIdx][filterBankIdx] = df.Vals[colIdx][rowIdx]
			if warmup {
				outVals[colIdx][rowIdx] = math.NaN()
			} else {
				copy(window, filterBank[colIdx])
				outVals[colIdx][rowIdx] = fn(window)
			}
		}
	}

	return &DataFrame{
		Dates:    df.Dates,
		Vals:     outVals,
		ColNames: df.ColNames,
	}
}

// RollingMean computes the simple moving average of all columns over the
// lookback period
func (df *DataFrame) RollingMean(lookback int) *DataFrame {
	return df.RollingApply(lookback, func(window []float64) float64 {
		return stat.Mean(window, nil)
	})
}

// RollingStd computes the rolling sample standard deviation of all columns
// over the lookback period
func (df *DataFrame) RollingStd(lookback int) *DataFrame {
	return df.RollingApply(lookback, func(window []float64) float64 {
		return stat.StdDev(window, nil)
	})
}

// RollingSum computes the rolling sum of all columns over the lookback
// period
func (df *DataFrame) RollingSum(lookback int) *DataFrame {
	return df.RollingApply(lookback, func(window []float64) float64 {
		return floats.Sum(window)
	})
}

// RollingSumMin computes a rolling sum that tolerates missing observations:
// NaN entries are skipped and a value is produced as soon as minPeriods
// valid entries are inside the window. Rows before the window ever holds
// minPeriods valid values are NaN.
func (df *DataFrame) RollingSumMin(lookback, minPeriods int) *DataFrame {
	if minPeriods <= 0 {
		minPeriods = 1
	}

	outVals := make([][]float64, df.ColCount())
	for colIdx := range df.Vals {
		out := make([]float64, df.Len())
		col := df.Vals[colIdx]
		for rowIdx := range col {
			begin := rowIdx - lookback + 1
			if begin < 0 {
				begin = 0
			}

			sum := 0.0
			valid := 0
			for ii := begin; ii <= rowIdx; ii++ {
				if !math.IsNaN(col[ii]) {
					sum += col[ii]
					valid++
				}
			}

			if valid >= minPeriods {
				out[rowIdx] = sum
			} else {
				out[rowIdx] = math.NaN()
			}
		}
		outVals[colIdx] = out
	}

	return &DataFrame{
		Dates:    df.Dates,
		Vals:     outVals,
		ColNames: df.ColNames,
	}
}

// EWM computes the exponentially weighted moving average of all columns with
// smoothing factor alpha = 2/(span+1). When adjust is true weights are
// normalized over the observations seen so far (the running weighted average
// of the full history); when false the plain recursive form
// y[t] = (1-alpha)*y[t-1] + alpha*x[t] is used. NaN inputs leave the running
// value unchanged.
func (df *DataFrame) EWM(span int, adjust bool) *DataFrame {
	alpha := 2.0 / (float64(span) + 1.0)
	decay := 1.0 - alpha

	outVals := make([][]float64, df.ColCount())
	for colIdx := range df.Vals {
		out := make([]float64, df.Len())
		col := df.Vals[colIdx]

		if adjust {
			num := 0.0
			den := 0.0
			seen := false
			for rowIdx, v := range col {
				num *= decay
				den *= decay
				if !math.IsNaN(v) {
					num += v
					den++
					seen = true
				}
				if seen {
					out[rowIdx] = num / den
				} else {
					out[rowIdx] = math.NaN()
				}
			}
		} else {
			y := math.NaN()
			for rowIdx, v := range col {
				switch {
				case math.IsNaN(v):
					// hold
				case math.IsNaN(y):
					y = v
				default:
					y = decay*y + alpha*v
				}
				out[rowIdx] = y
			}
		}

		outVals[colIdx] = out
	}

	return &DataFrame{
		Dates:    df.Dates,
		Vals:     outVals,
		ColNames: df.ColNames,
	}
}

// Diff computes the n-period difference x[t] - x[t-n] for every column; the
// first n rows are NaN
func (df *DataFrame) Diff(n int) *DataFrame {
	outVals := make([][]float64, df.ColCount())
	for colIdx := range df.Vals {
		out := make([]float64, df.Len())
		col := df.Vals[colIdx]
		for rowIdx := range col {
			if rowIdx < n {
				out[rowIdx] = math.NaN()
			} else {
				out[rowIdx] = col[rowIdx] - col[rowIdx-n]
			}
		}
		outVals[colIdx] = out
	}

	return &DataFrame{
		Dates:    df.Dates,
		Vals:     outVals,
		ColNames: df.ColNames,
	}
}

// Lag shifts all columns down by n rows, filling the first n rows with NaN,
// and returns a new dataframe
func (df *DataFrame) Lag(n int) *DataFrame {
	df = df.Copy()
	prepend := make([]float64, n)
	for idx := range prepend {
		prepend[idx] = math.NaN()
	}

	for idx := range df.Vals {
		l := len(df.Vals[idx])
		df.Vals[idx] = append(prepend, df.Vals[idx]...)[:l] //nolint:makezero
	}
	return df
}

// Interpolate fills NaN gaps in every column: interior gaps linearly between
// the surrounding observations, trailing gaps with the last observation.
// Leading NaN rows are preserved. The dataframe is modified in place.
func (df *DataFrame) Interpolate() *DataFrame {
	for colIdx := range df.Vals {
		col := df.Vals[colIdx]
		lastValid := -1

		for rowIdx, v := range col {
			if math.IsNaN(v) {
				continue
			}

			if lastValid != -1 && rowIdx-lastValid > 1 {
				// linear fill between lastValid and rowIdx
				step := (v - col[lastValid]) / float64(rowIdx-lastValid)
				for ii := lastValid + 1; ii < rowIdx; ii++ {
					col[ii] = col[lastValid] + step*float64(ii-lastValid)
				}
			}
			lastValid = rowIdx
		}

		// forward fill the tail
		if lastValid != -1 {
			for ii := lastValid + 1; ii < len(col); ii++ {
				col[ii] = col[lastValid]
			}
		}
	}

	return df
}

func (df *DataFrame) nanFrame() *DataFrame {
	nullDf := &DataFrame{
		Dates:    df.Dates,
		Vals:     make([][]float64, df.ColCount()),
		ColNames: df.ColNames,
	}
	for colIdx := range nullDf.Vals {
		nullDf.Vals[colIdx] = make([]float64, df.Len())
		for rowIdx := range nullDf.Vals[colIdx] {
			nullDf.Vals[colIdx][rowIdx] = math.NaN()
		}
	}
	return nullDf
}
