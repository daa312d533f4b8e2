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

// Package portfolio builds per-transaction value histories from buy/sell
// records, aggregates them to symbol or portfolio level and computes
// technical indicators on the result.
package portfolio

import (
	"context"
	"errors"
	"io"
	"math"
	"time"

	"github.com/chartfolio/cf-api/common"
	"github.com/chartfolio/cf-api/data"
	"github.com/chartfolio/cf-api/dataframe"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"

	"github.com/chartfolio/cf-api/observability/opentelemetry"
)

// Aggregation levels for LoadHistory and Aggregate
const (
	AggregateTransaction = "transaction"
	AggregateSymbol      = "symbol"
	AggregatePortfolio   = "portfolio"
)

// DefaultCurrency is the target currency used when none is configured
const DefaultCurrency = "EUR"

// ErrNoTransactions indicates a history was requested for an empty portfolio
var ErrNoTransactions = errors.New("portfolio has no transactions")

// ErrUnknownAggregateLevel indicates an unsupported aggregation level
var ErrUnknownAggregateLevel = errors.New("unknown aggregation level")

// Portfolio tracks a set of transactions and the value history derived from
// them. All monetary series are kept in TargetCurrency.
type Portfolio struct {
	TargetCurrency string
	Transactions   TransactionList
	Profiles       map[string]*data.AssetProfile
	History        *History

	manager *data.Manager
	rates   *data.ExchangeRates
}

// LoadOptions controls how a history is built
type LoadOptions struct {
	// Begin and End bound the date index; zero values default to the first
	// transaction date and today
	Begin time.Time
	End   time.Time
	// AggregateTo is one of transaction, symbol or portfolio (default
	// portfolio)
	AggregateTo string
	// Cleanup drops per-transaction series after aggregation
	Cleanup bool
	// Symbols restricts the history to a subset of symbols; empty means all
	Symbols []string
}

// NewPortfolio creates an empty portfolio priced in targetCurrency
func NewPortfolio(manager *data.Manager, targetCurrency string) *Portfolio {
	if targetCurrency == "" {
		targetCurrency = DefaultCurrency
	}
	return &Portfolio{
		TargetCurrency: targetCurrency,
		Transactions:   TransactionList{},
		Profiles:       make(map[string]*data.AssetProfile),
		manager:        manager,
	}
}

// FromCSV creates a portfolio from a transaction CSV. A malformed CSV
// degrades to an empty portfolio.
func FromCSV(manager *data.Manager, targetCurrency string, r io.Reader) *Portfolio {
	p := NewPortfolio(manager, targetCurrency)
	transactions, err := ParseTransactions(r)
	if err != nil {
		log.Warn().Err(err).Msg("transaction csv rejected; starting with an empty portfolio")
		return p
	}
	p.Transactions = transactions
	return p
}

// AddTransaction records a new transaction. The history is not rebuilt
// automatically.
func (p *Portfolio) AddTransaction(trx *Transaction) {
	p.Transactions = p.Transactions.Add(trx)
}

// LoadHistory builds the per-transaction value history over a calendar-daily
// date index and stores it on the portfolio. Transactions whose market data
// cannot be fetched are skipped with a warning; the result is partial rather
// than an error.
func (p *Portfolio) LoadHistory(ctx context.Context, opts LoadOptions) (*History, error) {
	ctx, span := otel.Tracer(opentelemetry.Name).Start(ctx, "portfolio.LoadHistory")
	defer span.End()

	if len(p.Transactions) == 0 {
		return nil, ErrNoTransactions
	}

	begin := opts.Begin
	if begin.IsZero() {
		begin = p.Transactions.StartDate()
	}
	end := opts.End
	if end.IsZero() {
		now := time.Now().In(common.GetTimezone())
		end = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	}

	dates := dataframe.DateRange(begin, end)
	history := NewHistory(dates)

	wanted := p.wantedSymbols(opts.Symbols)
	p.loadProfiles(ctx, wanted)

	currencies := make([]string, 0, len(wanted))
	for symbol := range wanted {
		if profile, ok := p.Profiles[symbol]; ok {
			currencies = append(currencies, profile.Currency)
		}
	}

	rates, err := p.manager.GetExchangeRates(ctx, currencies, p.TargetCurrency, begin, end)
	if err != nil {
		log.Warn().Err(err).Msg("could not load exchange rates")
		rates = data.NewExchangeRates(p.TargetCurrency, dates)
	}
	p.rates = rates

	quotes := p.loadQuotes(ctx, wanted, dates, begin, end)

	for _, trx := range p.Transactions {
		if !wanted[trx.Symbol] {
			continue
		}
		if err := p.buildTransactionSeries(history, trx, quotes, rates); err != nil {
			log.Warn().Err(err).Int("TxID", trx.ID).Str("Symbol", trx.Symbol).
				Msg("skipping transaction; market data unavailable")
		}
	}

	p.History = history

	level := opts.AggregateTo
	if level == "" {
		level = AggregatePortfolio
	}
	if level != AggregateTransaction {
		if _, err := p.Aggregate(level, opts.Symbols, opts.Cleanup, true); err != nil {
			return nil, err
		}
	}

	return p.History, nil
}

// ExchangeRates returns the rates loaded by the last LoadHistory call
func (p *Portfolio) ExchangeRates() *data.ExchangeRates {
	return p.rates
}

// Reset drops the built history and cached profiles but keeps transactions
func (p *Portfolio) Reset() {
	p.History = nil
	p.rates = nil
	p.Profiles = make(map[string]*data.AssetProfile)
}

func (p *Portfolio) wantedSymbols(filter []string) map[string]bool {
	wanted := make(map[string]bool)
	if len(filter) == 0 {
		for _, symbol := range p.Transactions.Symbols() {
			wanted[symbol] = true
		}
		return wanted
	}
	for _, symbol := range filter {
		wanted[symbol] = true
	}
	return wanted
}

func (p *Portfolio) loadProfiles(ctx context.Context, wanted map[string]bool) {
	for symbol := range wanted {
		if _, ok := p.Profiles[symbol]; ok {
			continue
		}
		profile, err := p.manager.GetProfile(ctx, symbol)
		if err != nil {
			log.Warn().Err(err).Str("Symbol", symbol).Msg("could not load asset profile")
			continue
		}
		p.Profiles[symbol] = profile
	}
}

// loadQuotes fetches each symbol's OHLCV once and reindexes it onto the
// calendar date index
func (p *Portfolio) loadQuotes(ctx context.Context, wanted map[string]bool, dates []time.Time, begin, end time.Time) map[string]*dataframe.DataFrame {
	quotes := make(map[string]*dataframe.DataFrame, len(wanted))
	for symbol := range wanted {
		df, _, err := p.manager.GetHistory(ctx, symbol, begin, end)
		if err != nil {
			log.Warn().Err(err).Str("Symbol", symbol).Msg("could not load quote history")
			continue
		}
		quotes[symbol] = df.Reindex(dates)
	}
	return quotes
}

// buildTransactionSeries converts the symbol's raw quotes into the value of
// this holding: raw price x volume x fx, linearly interpolated over exchange
// holidays. Rows before the transaction date stay NaN.
func (p *Portfolio) buildTransactionSeries(history *History, trx *Transaction, quotes map[string]*dataframe.DataFrame, rates *data.ExchangeRates) error {
	raw, ok := quotes[trx.Symbol]
	if !ok {
		return data.ErrNoQuoteData
	}

	profile, ok := p.Profiles[trx.Symbol]
	if !ok {
		return data.ErrNoCurrency
	}

	fx, err := rates.Rate(profile.Currency)
	if err != nil {
		return err
	}

	dates := history.Frame.Dates
	txStart := firstIndexOnOrAfter(dates, trx.Date)

	// quote frames carry capitalized OHLCV column names; history columns use
	// the portfolio metric names
	for _, mm := range []struct {
		quote  data.Metric
		metric string
	}{
		{data.MetricClose, MetricClose},
		{data.MetricHigh, MetricHigh},
		{data.MetricLow, MetricLow},
	} {
		rawVals := raw.Col(string(mm.quote))
		if rawVals == nil {
			return data.ErrNoQuoteData
		}

		vals := make([]float64, len(dates))
		for idx := range vals {
			if idx < txStart {
				vals[idx] = math.NaN()
				continue
			}
			vals[idx] = rawVals[idx] * trx.Volume * fx[idx]
		}
		interpolateSeries(vals)
		history.Insert(SeriesKey{Symbol: trx.Symbol, TxID: trx.ID, Metric: mm.metric}, vals)
	}

	// raw quotes in the native currency, shared across transactions of the
	// same symbol; neither converted nor interpolated. The money flow index
	// is computed from these.
	if !history.Has(SeriesKey{Symbol: trx.Symbol, TxID: TickerTx, Metric: MetricClose}) {
		for _, mm := range []struct {
			quote  data.Metric
			metric string
		}{
			{data.MetricClose, MetricClose},
			{data.MetricHigh, MetricHigh},
			{data.MetricLow, MetricLow},
			{data.MetricVolume, MetricVolume},
		} {
			rawVals := raw.Col(string(mm.quote))
			if rawVals == nil {
				return data.ErrNoQuoteData
			}
			vals := make([]float64, len(dates))
			for idx := range vals {
				if idx < txStart {
					vals[idx] = math.NaN()
					continue
				}
				vals[idx] = rawVals[idx]
			}
			history.Insert(SeriesKey{Symbol: trx.Symbol, TxID: TickerTx, Metric: mm.metric}, vals)
		}
	}

	volume := make([]float64, len(dates))
	price := make([]float64, len(dates))
	for idx := range dates {
		if idx < txStart {
			volume[idx] = 0
			price[idx] = math.NaN()
			continue
		}
		volume[idx] = trx.Volume
		price[idx] = trx.Price
	}
	history.Insert(SeriesKey{Symbol: trx.Symbol, TxID: trx.ID, Metric: MetricVolume}, volume)
	history.Insert(SeriesKey{Symbol: trx.Symbol, TxID: trx.ID, Metric: MetricPrice}, price)

	return nil
}

func firstIndexOnOrAfter(dates []time.Time, date time.Time) int {
	target := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	for idx, dt := range dates {
		cmp := time.Date(dt.Year(), dt.Month(), dt.Day(), 0, 0, 0, 0, time.UTC)
		if !cmp.Before(target) {
			return idx
		}
	}
	return len(dates)
}

// interpolateSeries fills interior NaN runs linearly and forward-fills a
// trailing run; leading NaNs are preserved
func interpolateSeries(vals []float64) {
	df := &dataframe.DataFrame{
		Dates:    make([]time.Time, len(vals)),
		ColNames: []string{"x"},
		Vals:     [][]float64{vals},
	}
	df.Interpolate()
}
