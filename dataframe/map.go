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

package dataframe

import (
	"time"

	"github.com/rs/zerolog/log"
)

// Map is a collection of named dataframes
type Map map[string]*DataFrame

// Align finds the maximum start and minimum end across all dataframes and
// trims them to match
func (dfMap Map) Align() Map {
	var start time.Time
	var end time.Time

	for _, df := range dfMap {
		end = df.End()
		break
	}

	for _, df := range dfMap {
		if df.Start().After(start) {
			start = df.Start()
		}
		if df.End().Before(end) {
			end = df.End()
		}
	}

	dfMapTrimmed := make(Map, len(dfMap))
	for k, df := range dfMap {
		dfMapTrimmed[k] = df.Trim(start, end)
	}

	return dfMapTrimmed
}

// DataFrame merges each item in the map into a single dataframe. If the
// members do not align they are trimmed to the max start and min end first.
func (dfMap Map) DataFrame() *DataFrame {
	df := &DataFrame{}
	first := true
	aligned := dfMap.Align()
	for _, v := range aligned {
		if first {
			df.Dates = v.Dates
			df.ColNames = v.ColNames
			df.Vals = v.Vals
			first = false
			continue
		}

		if len(df.Dates) != len(v.Dates) ||
			!df.Start().Equal(v.Start()) ||
			!df.End().Equal(v.End()) {
			log.Panic().Time("df1.Start", df.Start()).Time("df1.End", df.End()).Time("df2.Start", v.Start()).Time("df2.End", v.End()).Msg("date indexes do not match - cannot merge into single dataframe")
		}

		df.ColNames = append(df.ColNames, v.ColNames...)
		df.Vals = append(df.Vals, v.Vals...)
	}

	return df
}
