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
	"github.com/rs/zerolog"
)

func (trx *Transaction) MarshalZerologObject(e *zerolog.Event) {
	e.Int("ID", trx.ID).
		Str("Name", trx.Name).
		Str("Symbol", trx.Symbol).
		Float64("Volume", trx.Volume).
		Float64("Price", trx.Price).
		Time("Date", trx.Date)
}

func (p *Portfolio) MarshalZerologObject(e *zerolog.Event) {
	e.Str("TargetCurrency", p.TargetCurrency).
		Int("NumTransactions", len(p.Transactions)).
		Strs("Symbols", p.Transactions.Symbols())
	if p.History != nil {
		e.Int("HistoryRows", p.History.Frame.Len()).
			Int("HistorySeries", p.History.Frame.ColCount())
	}
}
