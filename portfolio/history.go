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
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/chartfolio/cf-api/dataframe"
	"github.com/rs/zerolog/log"
)

// Series metrics tracked per transaction and in aggregates
const (
	MetricClose  = "close"
	MetricHigh   = "high"
	MetricLow    = "low"
	MetricPrice  = "price"
	MetricVolume = "volume"
)

// Sentinel transaction IDs for series that do not belong to a single
// transaction
const (
	// TickerTx marks a shared ticker-level series (raw quotes in the
	// native currency, not scaled to a holding)
	TickerTx = -1
	// AggregateTx marks a series produced by aggregation
	AggregateTx = -2
)

// SeriesKey identifies one time series in a history: which symbol it belongs
// to, which transaction produced it (or a sentinel), and the metric it
// carries. A key with an empty Symbol addresses a portfolio-level series.
type SeriesKey struct {
	Symbol string
	TxID   int
	Metric string
}

// ColName renders the key as a history column name
func (k SeriesKey) ColName() string {
	switch {
	case k.Symbol == "":
		return k.Metric
	case k.TxID == AggregateTx:
		return fmt.Sprintf("%s_%s", k.Symbol, k.Metric)
	case k.TxID == TickerTx:
		return fmt.Sprintf("%s:raw:%s", k.Symbol, k.Metric)
	default:
		return fmt.Sprintf("%s:tx%d:%s", k.Symbol, k.TxID, k.Metric)
	}
}

// ParseSeriesKey is the inverse of ColName. Column names that match no
// structured form are treated as portfolio-level metrics so indicator columns
// round-trip through CSV.
func ParseSeriesKey(col string) SeriesKey {
	parts := strings.Split(col, ":")
	if len(parts) == 3 {
		if parts[1] == "raw" {
			return SeriesKey{Symbol: parts[0], TxID: TickerTx, Metric: parts[2]}
		}
		if strings.HasPrefix(parts[1], "tx") {
			if id, err := strconv.Atoi(parts[1][2:]); err == nil {
				return SeriesKey{Symbol: parts[0], TxID: id, Metric: parts[2]}
			}
		}
	}

	if idx := strings.Index(col, "_"); idx > 0 {
		symbol := col[:idx]
		if symbol == strings.ToUpper(symbol) && symbol != strings.ToLower(symbol) {
			return SeriesKey{Symbol: symbol, TxID: AggregateTx, Metric: col[idx+1:]}
		}
	}

	return SeriesKey{Metric: col}
}

// History is the per-transaction value history of a portfolio. All series
// share a single calendar-daily date index; missing values are NaN.
type History struct {
	Frame *dataframe.DataFrame
}

// NewHistory creates an empty history over the given date index
func NewHistory(dates []time.Time) *History {
	return &History{Frame: dataframe.New(dates)}
}

// Insert adds or replaces the series addressed by key
func (h *History) Insert(key SeriesKey, vals []float64) {
	h.Frame.Insert(key.ColName(), vals)
}

// Series returns the values for key, or nil when the series is absent
func (h *History) Series(key SeriesKey) []float64 {
	return h.Frame.Col(key.ColName())
}

// Has reports whether a series exists for key
func (h *History) Has(key SeriesKey) bool {
	return h.Frame.HasCol(key.ColName())
}

// Keys returns the structured keys of every series in the history
func (h *History) Keys() []SeriesKey {
	keys := make([]SeriesKey, 0, len(h.Frame.ColNames))
	for _, col := range h.Frame.ColNames {
		keys = append(keys, ParseSeriesKey(col))
	}
	return keys
}

// TransactionKeys returns the keys of per-transaction series for metric,
// optionally restricted to a symbol (empty = all symbols)
func (h *History) TransactionKeys(symbol, metric string) []SeriesKey {
	keys := make([]SeriesKey, 0, len(h.Frame.ColNames))
	for _, key := range h.Keys() {
		if key.TxID < 0 || key.Metric != metric {
			continue
		}
		if symbol != "" && key.Symbol != symbol {
			continue
		}
		keys = append(keys, key)
	}
	return keys
}

// Remove drops every series whose key matches the predicate
func (h *History) Remove(match func(SeriesKey) bool) {
	doomed := make([]string, 0, len(h.Frame.ColNames))
	for _, col := range h.Frame.ColNames {
		if match(ParseSeriesKey(col)) {
			doomed = append(doomed, col)
		}
	}
	h.Frame.Remove(doomed...)
}

// Copy returns a deep copy of the history
func (h *History) Copy() *History {
	return &History{Frame: h.Frame.Copy()}
}

// ToCSV writes the history with a leading date column. NaN cells are written
// as empty strings.
func (h *History) ToCSV(w io.Writer) error {
	cw := csv.NewWriter(w)

	header := make([]string, 0, len(h.Frame.ColNames)+1)
	header = append(header, "date")
	header = append(header, h.Frame.ColNames...)
	if err := cw.Write(header); err != nil {
		return err
	}

	row := make([]string, len(header))
	for rowIdx, date := range h.Frame.Dates {
		row[0] = date.Format("2006-01-02")
		for colIdx := range h.Frame.ColNames {
			v := h.Frame.Vals[colIdx][rowIdx]
			if math.IsNaN(v) {
				row[colIdx+1] = ""
			} else {
				row[colIdx+1] = strconv.FormatFloat(v, 'f', -1, 64)
			}
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// HistoryFromCSV reads a history written by ToCSV
func HistoryFromCSV(r io.Reader) (*History, error) {
	cr := csv.NewReader(r)
	rows, err := cr.ReadAll()
	if err != nil {
		log.Error().Err(err).Msg("could not parse history csv")
		return nil, err
	}

	if len(rows) == 0 || len(rows[0]) == 0 || rows[0][0] != "date" {
		return nil, fmt.Errorf("history csv must start with a date column")
	}

	header := rows[0]
	dates := make([]time.Time, 0, len(rows)-1)
	vals := make([][]float64, len(header)-1)
	for idx := range vals {
		vals[idx] = make([]float64, 0, len(rows)-1)
	}

	for rowNum, row := range rows[1:] {
		date, err := time.Parse("2006-01-02", row[0])
		if err != nil {
			return nil, fmt.Errorf("invalid date on row %d: %w", rowNum+2, err)
		}
		dates = append(dates, date)

		for colIdx := 1; colIdx < len(header); colIdx++ {
			cell := ""
			if colIdx < len(row) {
				cell = row[colIdx]
			}
			if cell == "" {
				vals[colIdx-1] = append(vals[colIdx-1], math.NaN())
				continue
			}
			v, err := strconv.ParseFloat(cell, 64)
			if err != nil {
				return nil, fmt.Errorf("invalid value %q on row %d: %w", cell, rowNum+2, err)
			}
			vals[colIdx-1] = append(vals[colIdx-1], v)
		}
	}

	return &History{Frame: &dataframe.DataFrame{
		Dates:    dates,
		ColNames: append([]string{}, header[1:]...),
		Vals:     vals,
	}}, nil
}
