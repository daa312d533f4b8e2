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
	"time"

	"github.com/chartfolio/cf-api/dataframe"
)

// QuoteProvider is the price oracle: for a symbol and date range it returns
// a daily OHLCV dataframe (columns named by the Metric constants) in the
// symbol's native currency, together with the quote currency code.
type QuoteProvider interface {
	DataType() string
	GetHistory(ctx context.Context, symbol string, begin, end time.Time) (*dataframe.DataFrame, string, error)
}

// ProfileProvider returns descriptive base data for a symbol
type ProfileProvider interface {
	GetProfile(ctx context.Context, symbol string) (*AssetProfile, error)
}
