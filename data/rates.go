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
	"fmt"
	"strings"
	"time"

	"github.com/chartfolio/cf-api/dataframe"
)

// ExchangeRates is a date-indexed table of daily conversion rates into the
// target currency, one column per currency pair. The identity pair
// (target -> target) is always exactly 1.0. Other pairs are NaN before their
// first observation and on non-trading days; conversion interpolates after
// multiplication, not here.
type ExchangeRates struct {
	Target string
	Rates  *dataframe.DataFrame
}

// NewExchangeRates creates a rate table holding only the identity pair
func NewExchangeRates(target string, dates []time.Time) *ExchangeRates {
	er := &ExchangeRates{
		Target: strings.ToUpper(target),
		Rates:  dataframe.New(dates),
	}
	er.Rates.InsertConst(er.PairSymbol(er.Target), 1.0)
	return er
}

// PairSymbol returns the oracle symbol quoting currency in the target
// currency, e.g. PairSymbol("USD") with target EUR is "USDEUR=X"
func (er *ExchangeRates) PairSymbol(currency string) string {
	return fmt.Sprintf("%s%s=X", strings.ToUpper(currency), strings.ToUpper(er.Target))
}

// Rate returns the daily rate series converting the given currency into the
// target currency, aligned to the table's date index. Returns ErrNoRate if
// the currency was not part of the portfolio load.
func (er *ExchangeRates) Rate(currency string) ([]float64, error) {
	col := er.Rates.Col(er.PairSymbol(currency))
	if col == nil {
		return nil, ErrNoRate
	}
	return col, nil
}

// Currencies lists the currencies covered by the table (including the
// target itself)
func (er *ExchangeRates) Currencies() []string {
	suffix := fmt.Sprintf("%s=X", strings.ToUpper(er.Target))
	currencies := make([]string, 0, len(er.Rates.ColNames))
	for _, col := range er.Rates.ColNames {
		currencies = append(currencies, strings.TrimSuffix(col, suffix))
	}
	return currencies
}
