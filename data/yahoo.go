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
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/chartfolio/cf-api/common"
	"github.com/chartfolio/cf-api/dataframe"
	"github.com/chartfolio/cf-api/observability/opentelemetry"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var yahooAPI = "https://query2.finance.yahoo.com"

type yahoo struct {
	client *http.Client
	cache  *common.Cache
}

// NewYahoo creates a Yahoo Finance data provider. Responses are cached in
// the provided byte cache for the life of the process; there is no per-key
// eviction.
func NewYahoo(cache *common.Cache) *yahoo {
	return &yahoo{
		client: &http.Client{Timeout: 30 * time.Second},
		cache:  cache,
	}
}

func (y *yahoo) DataType() string {
	return "security"
}

type yahooChartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Currency string `json:"currency"`
				Symbol   string `json:"symbol"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []float64 `json:"open"`
					High   []float64 `json:"high"`
					Low    []float64 `json:"low"`
					Close  []float64 `json:"close"`
					Volume []float64 `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

type yahooQuoteSummaryResponse struct {
	QuoteSummary struct {
		Result []struct {
			AssetProfile struct {
				Country  string `json:"country"`
				Sector   string `json:"sector"`
				Industry string `json:"industry"`
			} `json:"assetProfile"`
			Price struct {
				LongName  string `json:"longName"`
				ShortName string `json:"shortName"`
				Currency  string `json:"currency"`
				MarketCap struct {
					Raw float64 `json:"raw"`
				} `json:"marketCap"`
			} `json:"price"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"quoteSummary"`
}

// GetHistory returns the daily OHLCV series for symbol over [begin, end] in
// the symbol's native currency, plus the quote currency code. Dates are
// normalized to midnight in the market reference timezone.
func (y *yahoo) GetHistory(ctx context.Context, symbol string, begin, end time.Time) (*dataframe.DataFrame, string, error) {
	ctx, span := otel.Tracer(opentelemetry.Name).Start(ctx, "yahoo.GetHistory")
	defer span.End()

	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	subLog := log.With().Str("Symbol", symbol).Time("Begin", begin).Time("End", end).Logger()

	if end.Before(begin) {
		return nil, "", ErrInvalidTimeRange
	}

	url := fmt.Sprintf("%s/v8/finance/chart/%s?period1=%d&period2=%d&interval=1d",
		yahooAPI, symbol, begin.Unix(), end.AddDate(0, 0, 1).Unix())

	span.SetAttributes(attribute.String("Url", url), attribute.String("Symbol", symbol))

	body, err := y.cachedGet(ctx, url)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "yahoo chart request failed")
		subLog.Warn().Err(err).Str("Url", url).Msg("failed to load quote history")
		return nil, "", err
	}

	var raw yahooChartResponse
	if err := json.Unmarshal(body, &raw); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "could not unmarshal json")
		subLog.Error().Err(err).Msg("could not unmarshal chart json")
		return nil, "", err
	}

	if raw.Chart.Error != nil {
		subLog.Warn().Str("Code", raw.Chart.Error.Code).Str("Description", raw.Chart.Error.Description).Msg("yahoo rejected chart request")
		return nil, "", ErrNotFound
	}

	if len(raw.Chart.Result) == 0 || len(raw.Chart.Result[0].Timestamp) == 0 {
		subLog.Warn().Msg("no quote data returned")
		return nil, "", ErrNoQuoteData
	}

	res := raw.Chart.Result[0]
	if len(res.Indicators.Quote) == 0 {
		return nil, "", ErrNoQuoteData
	}

	currency := strings.ToUpper(res.Meta.Currency)
	if currency == "" {
		return nil, "", ErrNoCurrency
	}

	quote := res.Indicators.Quote[0]
	tz := common.GetTimezone()

	n := len(res.Timestamp)
	dates := make([]time.Time, 0, n)
	open := make([]float64, 0, n)
	high := make([]float64, 0, n)
	low := make([]float64, 0, n)
	closeCol := make([]float64, 0, n)
	volume := make([]float64, 0, n)

	for idx, ts := range res.Timestamp {
		dt := time.Unix(ts, 0).In(tz)
		dates = append(dates, time.Date(dt.Year(), dt.Month(), dt.Day(), 0, 0, 0, 0, tz))
		open = append(open, quoteValue(quote.Open, idx))
		high = append(high, quoteValue(quote.High, idx))
		low = append(low, quoteValue(quote.Low, idx))
		closeCol = append(closeCol, quoteValue(quote.Close, idx))
		volume = append(volume, rawValue(quote.Volume, idx))
	}

	df := dataframe.New(dates)
	df.Insert(string(MetricOpen), open)
	df.Insert(string(MetricHigh), high)
	df.Insert(string(MetricLow), low)
	df.Insert(string(MetricClose), closeCol)
	df.Insert(string(MetricVolume), volume)

	subLog.Debug().Int("NumRows", df.Len()).Str("Currency", currency).Msg("loaded quote history")
	return df, currency, nil
}

// GetProfile returns the descriptive base data for symbol
func (y *yahoo) GetProfile(ctx context.Context, symbol string) (*AssetProfile, error) {
	ctx, span := otel.Tracer(opentelemetry.Name).Start(ctx, "yahoo.GetProfile")
	defer span.End()

	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	subLog := log.With().Str("Symbol", symbol).Logger()

	url := fmt.Sprintf("%s/v10/finance/quoteSummary/%s?modules=assetProfile%%2Cprice", yahooAPI, symbol)
	span.SetAttributes(attribute.String("Url", url), attribute.String("Symbol", symbol))

	body, err := y.cachedGet(ctx, url)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "yahoo quoteSummary request failed")
		subLog.Warn().Err(err).Msg("failed to load profile")
		return nil, err
	}

	var raw yahooQuoteSummaryResponse
	if err := json.Unmarshal(body, &raw); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "could not unmarshal json")
		subLog.Error().Err(err).Msg("could not unmarshal quoteSummary json")
		return nil, err
	}

	if raw.QuoteSummary.Error != nil || len(raw.QuoteSummary.Result) == 0 {
		subLog.Warn().Msg("no profile data returned")
		return nil, ErrNotFound
	}

	res := raw.QuoteSummary.Result[0]
	name := res.Price.LongName
	if name == "" {
		name = res.Price.ShortName
	}

	return &AssetProfile{
		Symbol:    symbol,
		Name:      name,
		Country:   res.AssetProfile.Country,
		Currency:  strings.ToUpper(res.Price.Currency),
		Sector:    res.AssetProfile.Sector,
		Industry:  res.AssetProfile.Industry,
		MarketCap: res.Price.MarketCap.Raw,
	}, nil
}

// cachedGet performs an HTTP GET memoized on the exact URL
func (y *yahoo) cachedGet(ctx context.Context, url string) ([]byte, error) {
	key := common.CacheKey("GET", url)
	if body, err := y.cache.Get(ctx, key); err == nil {
		return body, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "cfapi/"+common.CurrentVersion.String())

	resp, err := y.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("HTTP request returned invalid status code: %d", resp.StatusCode)
	}

	if err := y.cache.Set(ctx, key, body); err != nil {
		log.Warn().Err(err).Msg("could not store response in cache")
	}

	return body, nil
}

func quoteValue(vals []float64, idx int) float64 {
	if idx >= len(vals) {
		return math.NaN()
	}
	v := vals[idx]
	if v == 0 {
		// yahoo reports missing prices as zeros in some markets
		return math.NaN()
	}
	return v
}

// rawValue is quoteValue without the zero-is-missing rule; volume may
// legitimately be zero
func rawValue(vals []float64, idx int) float64 {
	if idx >= len(vals) {
		return math.NaN()
	}
	return vals[idx]
}
