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

package handler

import (
	"bytes"
	"errors"
	"math"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/chartfolio/cf-api/portfolio"
)

type historyQuery struct {
	opts     portfolio.LoadOptions
	interval int
}

func parseHistoryQuery(c *fiber.Ctx) (*historyQuery, error) {
	q := &historyQuery{
		opts: portfolio.LoadOptions{
			AggregateTo: c.Query("aggregate", portfolio.AggregatePortfolio),
			Cleanup:     c.QueryBool("cleanup", false),
		},
		interval: c.QueryInt("interval", portfolio.DefaultInterval),
	}

	if begin := c.Query("begin"); begin != "" {
		dt, err := time.Parse("2006-01-02", begin)
		if err != nil {
			return nil, fiber.NewError(fiber.StatusBadRequest, "begin must use YYYY-MM-DD")
		}
		q.opts.Begin = dt
	}
	if end := c.Query("end"); end != "" {
		dt, err := time.Parse("2006-01-02", end)
		if err != nil {
			return nil, fiber.NewError(fiber.StatusBadRequest, "end must use YYYY-MM-DD")
		}
		q.opts.End = dt
	}
	if symbols := c.Query("symbols"); symbols != "" {
		for _, symbol := range strings.Split(symbols, ",") {
			symbol = strings.ToUpper(strings.TrimSpace(symbol))
			if symbol != "" {
				q.opts.Symbols = append(q.opts.Symbols, symbol)
			}
		}
	}

	switch q.opts.AggregateTo {
	case portfolio.AggregateTransaction, portfolio.AggregateSymbol, portfolio.AggregatePortfolio:
	default:
		return nil, fiber.NewError(fiber.StatusBadRequest, "aggregate must be one of transaction, symbol, portfolio")
	}

	return q, nil
}

// ensureHistory builds the history for the current request parameters.
// Caller must hold the state lock.
func (s *State) ensureHistory(c *fiber.Ctx, q *historyQuery) error {
	subLog := log.With().Str("Endpoint", c.Route().Path).Logger()

	if _, err := s.portfolio.LoadHistory(c.UserContext(), q.opts); err != nil {
		if errors.Is(err, portfolio.ErrNoTransactions) {
			return fiber.NewError(fiber.StatusConflict, "no transactions loaded; upload a portfolio first")
		}
		subLog.Error().Err(err).Msg("could not build history")
		return fiber.ErrInternalServerError
	}

	if q.opts.AggregateTo == portfolio.AggregatePortfolio {
		if _, err := s.portfolio.ComputeIndicators(q.interval, true); err != nil {
			subLog.Error().Err(err).Msg("could not compute indicators")
			return fiber.ErrInternalServerError
		}
		for _, symbol := range s.portfolio.Transactions.Symbols() {
			if _, err := s.portfolio.ComputeSymbolIndicators(symbol, q.interval, true); err != nil {
				subLog.Warn().Err(err).Str("Symbol", symbol).Msg("could not compute symbol indicators")
			}
		}
	}

	return nil
}

// GetHistory builds the portfolio history and returns it as JSON: the date
// index plus one array per series. NaN and infinities are encoded as null.
func (s *State) GetHistory(c *fiber.Ctx) error {
	q, err := parseHistoryQuery(c)
	if err != nil {
		return err
	}

	s.lock.Lock()
	defer s.lock.Unlock()

	if err := s.ensureHistory(c, q); err != nil {
		return err
	}

	frame := s.portfolio.History.Frame
	dates := make([]string, frame.Len())
	for idx, dt := range frame.Dates {
		dates[idx] = dt.Format("2006-01-02")
	}

	series := make(map[string][]*float64, frame.ColCount())
	for colIdx, colName := range frame.ColNames {
		vals := make([]*float64, frame.Len())
		for rowIdx, v := range frame.Vals[colIdx] {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				continue
			}
			val := v
			vals[rowIdx] = &val
		}
		series[colName] = vals
	}

	return c.JSON(fiber.Map{
		"currency": s.portfolio.TargetCurrency,
		"dates":    dates,
		"series":   series,
	})
}

// GetHistoryCSV builds the portfolio history and returns it as CSV
func (s *State) GetHistoryCSV(c *fiber.Ctx) error {
	q, err := parseHistoryQuery(c)
	if err != nil {
		return err
	}

	s.lock.Lock()
	defer s.lock.Unlock()

	if err := s.ensureHistory(c, q); err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := s.portfolio.History.ToCSV(&buf); err != nil {
		log.Error().Err(err).Msg("could not serialize history")
		return fiber.ErrInternalServerError
	}

	c.Set(fiber.HeaderContentType, "text/csv")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="history.csv"`)
	return c.Send(buf.Bytes())
}
