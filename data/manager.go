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

package data

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/chartfolio/cf-api/common"
	"github.com/chartfolio/cf-api/dataframe"
	"github.com/rs/zerolog/log"
)

// Manager is the single access point to the price and FX oracles. Lookups
// are memoized in a bounded byte cache owned by the manager; Invalidate is
// the only eviction operation.
type Manager struct {
	cache    *common.Cache
	quotes   QuoteProvider
	profiles ProfileProvider

	lock        sync.RWMutex
	profileMemo map[string]*AssetProfile
}

// NewManager creates a data manager with the Yahoo oracle registered for
// both quotes and profiles. Cache settings come from viper (cache.*).
func NewManager() (*Manager, error) {
	cache, err := common.NewCacheFromConfig()
	if err != nil {
		return nil, err
	}

	provider := NewYahoo(cache)

	return &Manager{
		cache:       cache,
		quotes:      provider,
		profiles:    provider,
		profileMemo: make(map[string]*AssetProfile),
	}, nil
}

// NewManagerWithProviders creates a manager around explicit providers;
// used in tests and by callers that bring their own oracle
func NewManagerWithProviders(cache *common.Cache, quotes QuoteProvider, profiles ProfileProvider) *Manager {
	return &Manager{
		cache:       cache,
		quotes:      quotes,
		profiles:    profiles,
		profileMemo: make(map[string]*AssetProfile),
	}
}

// GetHistory returns daily OHLCV for symbol in its native currency plus the
// currency code
func (m *Manager) GetHistory(ctx context.Context, symbol string, begin, end time.Time) (*dataframe.DataFrame, string, error) {
	return m.quotes.GetHistory(ctx, symbol, begin, end)
}

// GetProfile returns the base data for symbol, memoized per process
func (m *Manager) GetProfile(ctx context.Context, symbol string) (*AssetProfile, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))

	m.lock.RLock()
	profile, ok := m.profileMemo[symbol]
	m.lock.RUnlock()
	if ok {
		return profile, nil
	}

	profile, err := m.profiles.GetProfile(ctx, symbol)
	if err != nil {
		return nil, err
	}

	m.lock.Lock()
	m.profileMemo[symbol] = profile
	m.lock.Unlock()

	return profile, nil
}

type rateResult struct {
	pair string
	df   *dataframe.DataFrame
	err  error
}

// GetExchangeRates builds the daily conversion table from every listed
// currency into target over [begin, end]. The index is calendar-daily; pair
// columns hold NaN before their first observation and on non-trading days.
// The identity pair is constant 1.0 and never fetched. A pair the oracle
// cannot resolve is logged and omitted from the table.
func (m *Manager) GetExchangeRates(ctx context.Context, currencies []string, target string, begin, end time.Time) (*ExchangeRates, error) {
	if end.Before(begin) {
		return nil, ErrInvalidTimeRange
	}

	target = strings.ToUpper(target)
	dates := dataframe.DateRange(begin, end)
	rates := dataframe.New(dates)

	er := &ExchangeRates{
		Target: target,
		Rates:  rates,
	}

	rates.InsertConst(er.PairSymbol(target), 1.0)

	wanted := make([]string, 0, len(currencies))
	seen := map[string]bool{target: true}
	for _, currency := range currencies {
		currency = strings.ToUpper(currency)
		if !seen[currency] {
			seen[currency] = true
			wanted = append(wanted, currency)
		}
	}

	ch := make(chan rateResult)
	for _, currency := range wanted {
		pair := er.PairSymbol(currency)
		go func(pair string) {
			df, _, err := m.quotes.GetHistory(ctx, pair, begin, end)
			ch <- rateResult{pair: pair, df: df, err: err}
		}(pair)
	}

	for range wanted {
		res := <-ch
		if res.err != nil {
			log.Warn().Err(res.err).Str("Pair", res.pair).Msg("cannot download exchange rate series")
			continue
		}
		aligned := res.df.Reindex(dates)
		if col := aligned.Col(string(MetricClose)); col != nil {
			rates.Insert(res.pair, col)
		}
	}

	return er, nil
}

// Invalidate clears all memoized oracle data; the next lookup refetches
func (m *Manager) Invalidate(ctx context.Context) {
	m.cache.Invalidate(ctx)

	m.lock.Lock()
	m.profileMemo = make(map[string]*AssetProfile)
	m.lock.Unlock()
}

