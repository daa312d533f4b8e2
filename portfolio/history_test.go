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

package portfolio_test

import (
	"bytes"
	"math"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/chartfolio/cf-api/dataframe"
	"github.com/chartfolio/cf-api/portfolio"
)

var _ = Describe("SeriesKey", func() {
	DescribeTable("ColName and ParseSeriesKey round-trip",
		func(key portfolio.SeriesKey, col string) {
			Expect(key.ColName()).To(Equal(col))
			Expect(portfolio.ParseSeriesKey(col)).To(Equal(key))
		},
		Entry("per-transaction series",
			portfolio.SeriesKey{Symbol: "ASMLF", TxID: 3, Metric: "close"}, "ASMLF:tx3:close"),
		Entry("shared ticker series",
			portfolio.SeriesKey{Symbol: "ASMLF", TxID: portfolio.TickerTx, Metric: "close"}, "ASMLF:raw:close"),
		Entry("symbol aggregate",
			portfolio.SeriesKey{Symbol: "ASMLF", TxID: portfolio.AggregateTx, Metric: "close"}, "ASMLF_close"),
		Entry("symbol aggregate with exchange suffix",
			portfolio.SeriesKey{Symbol: "SIE.DE", TxID: portfolio.AggregateTx, Metric: "volume"}, "SIE.DE_volume"),
		Entry("portfolio metric",
			portfolio.SeriesKey{Metric: "close"}, "close"),
		Entry("portfolio indicator with underscore",
			portfolio.SeriesKey{Metric: "signal_line"}, "signal_line"),
	)
})

var _ = Describe("History", func() {
	var h *portfolio.History

	BeforeEach(func() {
		dates := dataframe.DateRange(
			time.Date(2024, 2, 14, 0, 0, 0, 0, time.UTC),
			time.Date(2024, 2, 16, 0, 0, 0, 0, time.UTC),
		)
		h = portfolio.NewHistory(dates)
	})

	It("stores and retrieves series by structured key", func() {
		key := portfolio.SeriesKey{Symbol: "ASMLF", TxID: 0, Metric: portfolio.MetricClose}
		h.Insert(key, []float64{1, 2, 3})

		Expect(h.Has(key)).To(BeTrue())
		Expect(h.Series(key)).To(Equal([]float64{1, 2, 3}))
		Expect(h.Series(portfolio.SeriesKey{Symbol: "OTHER", TxID: 0, Metric: portfolio.MetricClose})).To(BeNil())
	})

	It("filters per-transaction keys by symbol and metric", func() {
		h.Insert(portfolio.SeriesKey{Symbol: "AAA", TxID: 0, Metric: portfolio.MetricClose}, []float64{1, 1, 1})
		h.Insert(portfolio.SeriesKey{Symbol: "AAA", TxID: 1, Metric: portfolio.MetricClose}, []float64{2, 2, 2})
		h.Insert(portfolio.SeriesKey{Symbol: "AAA", TxID: 0, Metric: portfolio.MetricPrice}, []float64{3, 3, 3})
		h.Insert(portfolio.SeriesKey{Symbol: "BBB", TxID: 2, Metric: portfolio.MetricClose}, []float64{4, 4, 4})
		h.Insert(portfolio.SeriesKey{Symbol: "AAA", TxID: portfolio.TickerTx, Metric: portfolio.MetricClose}, []float64{5, 5, 5})

		keys := h.TransactionKeys("AAA", portfolio.MetricClose)
		Expect(keys).To(HaveLen(2))
		Expect(keys[0].TxID).To(Equal(0))
		Expect(keys[1].TxID).To(Equal(1))
	})

	It("removes series matching a predicate", func() {
		h.Insert(portfolio.SeriesKey{Symbol: "AAA", TxID: 0, Metric: portfolio.MetricClose}, []float64{1, 1, 1})
		h.Insert(portfolio.SeriesKey{Metric: "close"}, []float64{2, 2, 2})

		h.Remove(func(key portfolio.SeriesKey) bool { return key.TxID >= 0 && key.Symbol != "" })

		Expect(h.Frame.ColCount()).To(Equal(1))
		Expect(h.Has(portfolio.SeriesKey{Metric: "close"})).To(BeTrue())
	})

	Describe("CSV round-trip", func() {
		It("preserves dates, values and NaN cells", func() {
			h.Insert(portfolio.SeriesKey{Symbol: "ASMLF", TxID: 0, Metric: portfolio.MetricClose}, []float64{math.NaN(), 2610.5, 2635})
			h.Insert(portfolio.SeriesKey{Metric: "close"}, []float64{0, 2610.5, 2635})

			var buf bytes.Buffer
			Expect(h.ToCSV(&buf)).To(Succeed())

			parsed, err := portfolio.HistoryFromCSV(&buf)
			Expect(err).To(BeNil())

			Expect(parsed.Frame.Dates).To(Equal(h.Frame.Dates))
			Expect(parsed.Frame.ColNames).To(Equal(h.Frame.ColNames))

			col := parsed.Series(portfolio.SeriesKey{Symbol: "ASMLF", TxID: 0, Metric: portfolio.MetricClose})
			Expect(math.IsNaN(col[0])).To(BeTrue())
			Expect(col[1]).To(Equal(2610.5))
			Expect(col[2]).To(Equal(2635.0))
		})

		It("rejects input without a leading date column", func() {
			_, err := portfolio.HistoryFromCSV(bytes.NewReader([]byte("a,b\n1,2\n")))
			Expect(err).To(HaveOccurred())
		})
	})
})
