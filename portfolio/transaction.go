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
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// csvDateLayout is day-first, e.g. 16.02.2024
const csvDateLayout = "02.01.2006"

// csvHeader is the canonical transaction CSV schema
var csvHeader = []string{"NAME", "VOLUME", "PRICE", "DATE", "SYMBOL"}

// Transaction is a single buy or sell. Volume is signed (positive = buy);
// Price is the total amount paid in the portfolio's target currency.
type Transaction struct {
	ID     int       `json:"id"`
	Name   string    `json:"name"`
	Symbol string    `json:"symbol"`
	Volume float64   `json:"volume"`
	Price  float64   `json:"price"`
	Date   time.Time `json:"date"`
}

// TransactionList holds all recorded transactions ordered by date
type TransactionList []*Transaction

// ParseTransactions reads the transaction CSV (header
// NAME,VOLUME,PRICE,DATE,SYMBOL with day-first dates) and returns the
// transactions sorted by date. A malformed row fails the whole load; the
// caller degrades to an empty portfolio.
func ParseTransactions(r io.Reader) (TransactionList, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	rows, err := cr.ReadAll()
	if err != nil {
		log.Error().Err(err).Msg("could not parse transaction csv")
		return nil, err
	}

	if len(rows) == 0 {
		return TransactionList{}, nil
	}

	colIdx, err := headerIndex(rows[0])
	if err != nil {
		log.Error().Err(err).Strs("Header", rows[0]).Msg("unexpected transaction csv header")
		return nil, err
	}

	transactions := make(TransactionList, 0, len(rows)-1)
	for rowNum, row := range rows[1:] {
		trx, err := parseRow(row, colIdx)
		if err != nil {
			log.Error().Err(err).Int("Row", rowNum+2).Msg("could not parse transaction row")
			return nil, err
		}
		transactions = append(transactions, trx)
	}

	transactions.sortAndNumber()
	return transactions, nil
}

// Write serializes the list back to CSV. precision is an optional fmt verb
// for floats, e.g. "%.4f"; when empty the shortest representation is used.
func (transactions TransactionList) Write(w io.Writer, precision string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}

	for _, trx := range transactions {
		row := []string{
			trx.Name,
			formatFloat(trx.Volume, precision),
			formatFloat(trx.Price, precision),
			trx.Date.Format(csvDateLayout),
			trx.Symbol,
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// Add appends a transaction keeping the list date-sorted and IDs stable for
// existing entries
func (transactions TransactionList) Add(trx *Transaction) TransactionList {
	trx.Symbol = strings.ToUpper(strings.TrimSpace(trx.Symbol))
	trx.ID = len(transactions)
	out := append(transactions, trx)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.Before(out[j].Date)
	})
	return out
}

// Symbols returns the distinct symbols in transaction order
func (transactions TransactionList) Symbols() []string {
	seen := make(map[string]bool, len(transactions))
	symbols := make([]string, 0, len(transactions))
	for _, trx := range transactions {
		if !seen[trx.Symbol] {
			seen[trx.Symbol] = true
			symbols = append(symbols, trx.Symbol)
		}
	}
	return symbols
}

// StartDate returns the earliest transaction date, or the zero time for an
// empty list
func (transactions TransactionList) StartDate() time.Time {
	if len(transactions) == 0 {
		return time.Time{}
	}
	return transactions[0].Date
}

func (transactions TransactionList) sortAndNumber() {
	sort.SliceStable(transactions, func(i, j int) bool {
		return transactions[i].Date.Before(transactions[j].Date)
	})
	for idx, trx := range transactions {
		trx.ID = idx
	}
}

func headerIndex(header []string) (map[string]int, error) {
	colIdx := make(map[string]int, len(header))
	for idx, name := range header {
		colIdx[strings.ToUpper(strings.TrimSpace(name))] = idx
	}

	for _, want := range csvHeader {
		if _, ok := colIdx[want]; !ok {
			return nil, fmt.Errorf("missing column %q", want)
		}
	}
	return colIdx, nil
}

func parseRow(row []string, colIdx map[string]int) (*Transaction, error) {
	field := func(name string) string {
		idx := colIdx[name]
		if idx >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[idx])
	}

	volume, err := strconv.ParseFloat(field("VOLUME"), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid VOLUME %q: %w", field("VOLUME"), err)
	}

	price, err := strconv.ParseFloat(field("PRICE"), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid PRICE %q: %w", field("PRICE"), err)
	}

	date, err := time.Parse(csvDateLayout, field("DATE"))
	if err != nil {
		return nil, fmt.Errorf("invalid DATE %q: %w", field("DATE"), err)
	}

	symbol := strings.ToUpper(field("SYMBOL"))
	if symbol == "" {
		return nil, fmt.Errorf("empty SYMBOL")
	}

	return &Transaction{
		Name:   field("NAME"),
		Symbol: symbol,
		Volume: volume,
		Price:  price,
		Date:   date,
	}, nil
}

func formatFloat(v float64, precision string) string {
	if precision == "" {
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	return fmt.Sprintf(precision, v)
}
