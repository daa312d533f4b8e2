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

// Metric identifies a quote-level value series
type Metric string

const (
	MetricOpen   Metric = "Open"
	MetricLow    Metric = "Low"
	MetricHigh   Metric = "High"
	MetricClose  Metric = "Close"
	MetricVolume Metric = "Volume"
)

// AssetProfile holds the descriptive base data fetched once per symbol. The
// Currency field drives FX pair resolution for the portfolio's target
// currency.
type AssetProfile struct {
	Symbol    string  `json:"symbol"`
	Name      string  `json:"name"`
	Country   string  `json:"country"`
	Currency  string  `json:"currency"`
	Sector    string  `json:"sector"`
	Industry  string  `json:"industry"`
	MarketCap float64 `json:"marketCap"`
}
