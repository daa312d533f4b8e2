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

// aggregateMetrics are the per-transaction metrics summed during aggregation
var aggregateMetrics = []string{MetricClose, MetricHigh, MetricLow, MetricPrice, MetricVolume}

// Aggregate sums the per-transaction series up to symbol or portfolio level.
// Rows where a contributing series is still NaN count as zero, so a symbol's
// value is 0 before its first transaction. Portfolio level also produces the
// symbol aggregates. With cleanup the per-transaction series are dropped
// afterwards; cleanup only takes effect together with inplace, since a
// returned copy still needs them for later re-aggregation. When inplace is
// false the portfolio's history is not modified and an aggregated copy is
// returned.
func (p *Portfolio) Aggregate(level string, symbols []string, cleanup, inplace bool) (*History, error) {
	if p.History == nil {
		return nil, ErrNoHistory
	}
	if level != AggregateSymbol && level != AggregatePortfolio {
		return nil, ErrUnknownAggregateLevel
	}

	history := p.History
	if !inplace {
		history = history.Copy()
	}

	wanted := p.aggregatedSymbols(history, symbols)

	for _, symbol := range wanted {
		for _, metric := range aggregateMetrics {
			cols := make([]string, 0, len(p.Transactions))
			for _, key := range history.TransactionKeys(symbol, metric) {
				cols = append(cols, key.ColName())
			}
			if len(cols) == 0 {
				continue
			}
			history.Insert(
				SeriesKey{Symbol: symbol, TxID: AggregateTx, Metric: metric},
				history.Frame.SumCols(cols...),
			)
		}
	}

	if level == AggregatePortfolio {
		for _, metric := range aggregateMetrics {
			cols := make([]string, 0, len(wanted))
			for _, symbol := range wanted {
				key := SeriesKey{Symbol: symbol, TxID: AggregateTx, Metric: metric}
				if history.Has(key) {
					cols = append(cols, key.ColName())
				}
			}
			if len(cols) == 0 {
				continue
			}
			history.Insert(SeriesKey{Metric: metric}, history.Frame.SumCols(cols...))
		}
	}

	if cleanup && inplace {
		doomed := make(map[string]bool, len(wanted))
		for _, symbol := range wanted {
			doomed[symbol] = true
		}
		history.Remove(func(key SeriesKey) bool {
			return key.TxID >= 0 && doomed[key.Symbol]
		})
	}

	if inplace {
		p.History = history
	}
	return history, nil
}

// aggregatedSymbols lists the symbols with per-transaction series in the
// history, optionally filtered
func (p *Portfolio) aggregatedSymbols(history *History, filter []string) []string {
	allowed := map[string]bool{}
	for _, symbol := range filter {
		allowed[symbol] = true
	}

	seen := map[string]bool{}
	symbols := make([]string, 0, 8)
	for _, key := range history.Keys() {
		if key.TxID < 0 || seen[key.Symbol] {
			continue
		}
		if len(filter) > 0 && !allowed[key.Symbol] {
			continue
		}
		seen[key.Symbol] = true
		symbols = append(symbols, key.Symbol)
	}
	return symbols
}
