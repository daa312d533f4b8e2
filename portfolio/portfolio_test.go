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
	"context"
	"math"
	"strings"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/chartfolio/cf-api/common"
	"github.com/chartfolio/cf-api/data"
	"github.com/chartfolio/cf-api/dataframe"
	"github.com/chartfolio/cf-api/portfolio"
)

// fakeOracle serves canned quote frames and profiles
type fakeOracle struct {
	frames     map[string]*dataframe.DataFrame
	currencies map[string]string
	profiles   map[string]*data.AssetProfile
}

func (f *fakeOracle) DataType() string { return "test" }

func (f *fakeOracle) GetHistory(_ context.Context, symbol string, _, _ time.Time) (*dataframe.DataFrame, string, error) {
	df, ok := f.frames[symbol]
	if !ok {
		return nil, "", data.ErrNotFound
	}
	return df, f.currencies[symbol], nil
}

func (f *fakeOracle) GetProfile(_ context.Context, symbol string) (*data.AssetProfile, error) {
	profile, ok := f.profiles[symbol]
	if !ok {
		return nil, data.ErrNotFound
	}
	return profile, nil
}

// constFrame builds an OHLCV frame with a constant close over the dates
func constFrame(dates []time.Time, close float64) *dataframe.DataFrame {
	df := dataframe.New(dates)
	df.InsertConst(string(data.MetricOpen), close)
	df.InsertConst(string(data.MetricHigh), close)
	df.InsertConst(string(data.MetricLow), close)
	df.InsertConst(string(data.MetricClose), close)
	df.InsertConst(string(data.MetricVolume), 1000)
	return df
}

var _ = Describe("Portfolio", func() {
	var (
		ctx     context.Context
		begin   time.Time
		end     time.Time
		dates   []time.Time
		oracle  *fakeOracle
		manager *data.Manager
		p       *portfolio.Portfolio
	)

	BeforeEach(func() {
		ctx = context.Background()
		begin = time.Date(2024, 2, 14, 0, 0, 0, 0, time.UTC)
		end = time.Date(2024, 2, 20, 0, 0, 0, 0, time.UTC)
		dates = dataframe.DateRange(begin, end)

		oracle = &fakeOracle{
			frames:     map[string]*dataframe.DataFrame{"ASMLF": constFrame(dates, 850)},
			currencies: map[string]string{"ASMLF": "EUR"},
			profiles: map[string]*data.AssetProfile{
				"ASMLF": {Symbol: "ASMLF", Name: "ASML Holding N.V.", Currency: "EUR"},
			},
		}

		cache, err := common.NewCache(16, "", time.Hour)
		Expect(err).To(BeNil())
		manager = data.NewManagerWithProviders(cache, oracle, oracle)

		csv := `NAME,VOLUME,PRICE,DATE,SYMBOL
ASML Holding,3,2635,16.02.2024,ASMLF
ASML Holding,6,5270,16.02.2024,ASMLF
`
		p = portfolio.FromCSV(manager, "EUR", strings.NewReader(csv))
		Expect(p.Transactions).To(HaveLen(2))
	})

	Describe("LoadHistory", func() {
		It("fails for an empty portfolio", func() {
			empty := portfolio.NewPortfolio(manager, "EUR")
			_, err := empty.LoadHistory(ctx, portfolio.LoadOptions{Begin: begin, End: end})
			Expect(err).To(MatchError(portfolio.ErrNoTransactions))
		})

		It("scales per-transaction close by volume when the rate is the identity", func() {
			h, err := p.LoadHistory(ctx, portfolio.LoadOptions{
				Begin: begin, End: end, AggregateTo: portfolio.AggregateTransaction,
			})
			Expect(err).To(BeNil())

			firstTx := h.Series(portfolio.SeriesKey{Symbol: "ASMLF", TxID: 0, Metric: portfolio.MetricClose})
			Expect(firstTx).To(HaveLen(7))

			// rows before the transaction date are NaN
			Expect(math.IsNaN(firstTx[0])).To(BeTrue())
			Expect(math.IsNaN(firstTx[1])).To(BeTrue())
			// from 2024-02-16 on: 850 * 3
			for _, v := range firstTx[2:] {
				Expect(v).To(Equal(2550.0))
			}

			secondTx := h.Series(portfolio.SeriesKey{Symbol: "ASMLF", TxID: 1, Metric: portfolio.MetricClose})
			Expect(secondTx[6]).To(Equal(5100.0))

			// the column names the aggregator matches on
			Expect(h.Frame.HasCol("ASMLF:tx0:close")).To(BeTrue())
			Expect(h.Frame.HasCol("ASMLF:tx0:high")).To(BeTrue())
			Expect(h.Frame.HasCol("ASMLF:tx0:low")).To(BeTrue())
		})

		It("stores the raw ticker quotes unscaled", func() {
			h, err := p.LoadHistory(ctx, portfolio.LoadOptions{
				Begin: begin, End: end, AggregateTo: portfolio.AggregateTransaction,
			})
			Expect(err).To(BeNil())

			rawClose := h.Series(portfolio.SeriesKey{Symbol: "ASMLF", TxID: portfolio.TickerTx, Metric: portfolio.MetricClose})
			rawVolume := h.Series(portfolio.SeriesKey{Symbol: "ASMLF", TxID: portfolio.TickerTx, Metric: portfolio.MetricVolume})

			Expect(math.IsNaN(rawClose[0])).To(BeTrue())
			Expect(math.IsNaN(rawVolume[1])).To(BeTrue())
			for idx := 2; idx < 7; idx++ {
				Expect(rawClose[idx]).To(Equal(850.0))
				Expect(rawVolume[idx]).To(Equal(1000.0))
			}
		})

		It("keeps the raw ticker quotes in the native currency", func() {
			oracle.currencies["ASMLF"] = "USD"
			oracle.profiles["ASMLF"].Currency = "USD"

			fx := dataframe.New(dates)
			fx.InsertConst(string(data.MetricOpen), 0.9)
			fx.InsertConst(string(data.MetricHigh), 0.9)
			fx.InsertConst(string(data.MetricLow), 0.9)
			fx.InsertConst(string(data.MetricClose), 0.9)
			fx.InsertConst(string(data.MetricVolume), 0)
			oracle.frames["USDEUR=X"] = fx

			h, err := p.LoadHistory(ctx, portfolio.LoadOptions{
				Begin: begin, End: end, AggregateTo: portfolio.AggregateTransaction,
			})
			Expect(err).To(BeNil())

			rawClose := h.Series(portfolio.SeriesKey{Symbol: "ASMLF", TxID: portfolio.TickerTx, Metric: portfolio.MetricClose})
			Expect(rawClose[2]).To(Equal(850.0))
		})

		It("steps the volume and holds the total price paid from the transaction date", func() {
			h, err := p.LoadHistory(ctx, portfolio.LoadOptions{
				Begin: begin, End: end, AggregateTo: portfolio.AggregateTransaction,
			})
			Expect(err).To(BeNil())

			volume := h.Series(portfolio.SeriesKey{Symbol: "ASMLF", TxID: 0, Metric: portfolio.MetricVolume})
			Expect(volume[0]).To(Equal(0.0))
			Expect(volume[2]).To(Equal(3.0))

			price := h.Series(portfolio.SeriesKey{Symbol: "ASMLF", TxID: 0, Metric: portfolio.MetricPrice})
			Expect(math.IsNaN(price[0])).To(BeTrue())
			Expect(price[2]).To(Equal(2635.0))
			Expect(price[6]).To(Equal(2635.0))
		})

		It("skips transactions whose market data is unavailable", func() {
			csv := `NAME,VOLUME,PRICE,DATE,SYMBOL
ASML Holding,3,2635,16.02.2024,ASMLF
Unknown,1,100,16.02.2024,BOGUS
`
			p = portfolio.FromCSV(manager, "EUR", strings.NewReader(csv))

			h, err := p.LoadHistory(ctx, portfolio.LoadOptions{
				Begin: begin, End: end, AggregateTo: portfolio.AggregateTransaction,
			})
			Expect(err).To(BeNil())

			Expect(h.Has(portfolio.SeriesKey{Symbol: "ASMLF", TxID: 0, Metric: portfolio.MetricClose})).To(BeTrue())
			Expect(h.Has(portfolio.SeriesKey{Symbol: "BOGUS", TxID: 1, Metric: portfolio.MetricClose})).To(BeFalse())
		})

		It("converts foreign quotes with the exchange rate before interpolation", func() {
			oracle.currencies["ASMLF"] = "USD"
			oracle.profiles["ASMLF"].Currency = "USD"

			fx := dataframe.New(dates)
			fx.InsertConst(string(data.MetricOpen), 0.9)
			fx.InsertConst(string(data.MetricHigh), 0.9)
			fx.InsertConst(string(data.MetricLow), 0.9)
			fx.InsertConst(string(data.MetricClose), 0.9)
			fx.InsertConst(string(data.MetricVolume), 0)
			oracle.frames["USDEUR=X"] = fx

			h, err := p.LoadHistory(ctx, portfolio.LoadOptions{
				Begin: begin, End: end, AggregateTo: portfolio.AggregateTransaction,
			})
			Expect(err).To(BeNil())

			firstTx := h.Series(portfolio.SeriesKey{Symbol: "ASMLF", TxID: 0, Metric: portfolio.MetricClose})
			// 850 * 3 * 0.9
			Expect(firstTx[2]).To(BeNumerically("~", 2295.0, 1e-9))
		})
	})

	Describe("symbol indicators on a loaded history", func() {
		It("computes the money flow index from the ticker quotes", func() {
			_, err := p.LoadHistory(ctx, portfolio.LoadOptions{Begin: begin, End: end})
			Expect(err).To(BeNil())

			h, err := p.ComputeSymbolIndicators("ASMLF", 5, true)
			Expect(err).To(BeNil())

			mfi := h.Series(portfolio.SeriesKey{Symbol: "ASMLF", TxID: portfolio.AggregateTx, Metric: "mfi"})
			Expect(mfi).NotTo(BeNil())
			// no quotes before the transaction date means no flow
			Expect(math.IsNaN(mfi[0])).To(BeTrue())
			Expect(math.IsNaN(mfi[1])).To(BeTrue())
			// a flat typical price is pure negative flow
			for idx := 2; idx < 7; idx++ {
				Expect(mfi[idx]).To(Equal(0.0))
			}
		})
	})

	Describe("Aggregate", func() {
		BeforeEach(func() {
			_, err := p.LoadHistory(ctx, portfolio.LoadOptions{
				Begin: begin, End: end, AggregateTo: portfolio.AggregateTransaction,
			})
			Expect(err).To(BeNil())
		})

		It("sums the total price paid to symbol level, zero before the first transaction", func() {
			h, err := p.Aggregate(portfolio.AggregateSymbol, nil, false, true)
			Expect(err).To(BeNil())

			price := h.Series(portfolio.SeriesKey{Symbol: "ASMLF", TxID: portfolio.AggregateTx, Metric: portfolio.MetricPrice})
			Expect(price[0]).To(Equal(0.0))
			Expect(price[1]).To(Equal(0.0))
			for _, v := range price[2:] {
				Expect(v).To(Equal(7905.0))
			}
		})

		It("sums to portfolio level including the symbol aggregates", func() {
			h, err := p.Aggregate(portfolio.AggregatePortfolio, nil, false, true)
			Expect(err).To(BeNil())

			close := h.Series(portfolio.SeriesKey{Metric: portfolio.MetricClose})
			Expect(close[0]).To(Equal(0.0))
			// 9 shares at 850
			Expect(close[6]).To(Equal(7650.0))

			Expect(h.Has(portfolio.SeriesKey{Symbol: "ASMLF", TxID: portfolio.AggregateTx, Metric: portfolio.MetricClose})).To(BeTrue())
		})

		It("drops per-transaction series on cleanup with inplace", func() {
			_, err := p.Aggregate(portfolio.AggregatePortfolio, nil, true, true)
			Expect(err).To(BeNil())

			Expect(p.History.Has(portfolio.SeriesKey{Symbol: "ASMLF", TxID: 0, Metric: portfolio.MetricClose})).To(BeFalse())
			Expect(p.History.Has(portfolio.SeriesKey{Metric: portfolio.MetricClose})).To(BeTrue())
		})

		It("leaves the portfolio history untouched when inplace is false", func() {
			before := p.History.Frame.ColCount()

			h, err := p.Aggregate(portfolio.AggregatePortfolio, nil, false, false)
			Expect(err).To(BeNil())

			Expect(p.History.Frame.ColCount()).To(Equal(before))
			Expect(h.Frame.ColCount()).To(BeNumerically(">", before))
		})

		It("rejects an unknown level", func() {
			_, err := p.Aggregate("galaxy", nil, false, true)
			Expect(err).To(MatchError(portfolio.ErrUnknownAggregateLevel))
		})
	})
})
