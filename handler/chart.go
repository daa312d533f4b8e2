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
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/chartfolio/cf-api/figure"
)

// defaultChartSeries is what the chart shows when no series filter is given
var defaultChartSeries = []string{
	"close", "price", "sma", "ema", "bb_upper", "bb_lower", "perf", "rsi",
}

// GetChart builds the history and returns it rendered as an HTML chart.
// Requested series missing from the history are skipped silently.
func (s *State) GetChart(c *fiber.Ctx) error {
	q, err := parseHistoryQuery(c)
	if err != nil {
		return err
	}

	columns := defaultChartSeries
	if series := c.Query("series"); series != "" {
		columns = columns[:0:0]
		for _, column := range strings.Split(series, ",") {
			if column = strings.TrimSpace(column); column != "" {
				columns = append(columns, column)
			}
		}
	}

	s.lock.Lock()
	defer s.lock.Unlock()

	if err := s.ensureHistory(c, q); err != nil {
		return err
	}

	title := c.Query("title", "Portfolio")
	fig := figure.New(s.portfolio.History, title).Add(columns...)

	html, err := fig.HTML()
	if err != nil {
		log.Error().Err(err).Msg("could not render chart")
		return fiber.ErrInternalServerError
	}

	c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
	return c.Send(html)
}
