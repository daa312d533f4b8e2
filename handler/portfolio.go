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
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"

	"github.com/chartfolio/cf-api/portfolio"
)

// UploadPortfolio replaces the active portfolio with one built from the
// transaction CSV in the request body
func (s *State) UploadPortfolio(c *fiber.Ctx) error {
	subLog := log.With().Str("Endpoint", "UploadPortfolio").Logger()

	s.lock.Lock()
	defer s.lock.Unlock()

	body := c.Body()
	if len(bytes.TrimSpace(body)) == 0 {
		return fiber.NewError(fiber.StatusBadRequest, "request body must contain a transaction csv")
	}

	transactions, err := portfolio.ParseTransactions(bytes.NewReader(body))
	if err != nil {
		subLog.Warn().Err(err).Msg("rejected transaction csv")
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	p := portfolio.NewPortfolio(s.manager, viper.GetString("portfolio.currency"))
	p.Transactions = transactions
	s.portfolio = p

	subLog.Info().Int("NumTransactions", len(transactions)).Msg("portfolio loaded")
	return c.JSON(fiber.Map{
		"transactions": len(transactions),
		"symbols":      transactions.Symbols(),
		"currency":     p.TargetCurrency,
	})
}

// GetPortfolio returns the active portfolio's transactions
func (s *State) GetPortfolio(c *fiber.Ctx) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	return c.JSON(fiber.Map{
		"currency":     s.portfolio.TargetCurrency,
		"symbols":      s.portfolio.Transactions.Symbols(),
		"transactions": s.portfolio.Transactions,
	})
}

type transactionRequest struct {
	Name   string  `json:"name"`
	Symbol string  `json:"symbol"`
	Volume float64 `json:"volume"`
	Price  float64 `json:"price"`
	Date   string  `json:"date"`
}

// AddTransaction appends a single transaction to the active portfolio. The
// date uses the day-first layout of the CSV schema.
func (s *State) AddTransaction(c *fiber.Ctx) error {
	subLog := log.With().Str("Endpoint", "AddTransaction").Logger()

	var req transactionRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	if strings.TrimSpace(req.Symbol) == "" {
		return fiber.NewError(fiber.StatusBadRequest, "symbol is required")
	}

	date, err := time.Parse("02.01.2006", req.Date)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "date must use DD.MM.YYYY")
	}

	trx := &portfolio.Transaction{
		Name:   req.Name,
		Symbol: req.Symbol,
		Volume: req.Volume,
		Price:  req.Price,
		Date:   date,
	}

	s.lock.Lock()
	defer s.lock.Unlock()

	s.portfolio.AddTransaction(trx)
	subLog.Info().Object("Transaction", trx).Msg("transaction added")

	return c.Status(fiber.StatusCreated).JSON(trx)
}
