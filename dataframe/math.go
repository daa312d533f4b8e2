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
	"gonum.org/v1/gonum/floats"
)

// AddScalar adds the scalar value to all columns in dataframe df and returns
// a new dataframe
func (df *DataFrame) AddScalar(scalar float64) *DataFrame {
	df = df.Copy()

	for colIdx := range df.ColNames {
		for rowIdx := range df.Vals[colIdx] {
			df.Vals[colIdx][rowIdx] += scalar
		}
	}
	return df
}

// MulScalar multiplies all columns in dataframe df by the scalar and returns
// a new dataframe
func (df *DataFrame) MulScalar(scalar float64) *DataFrame {
	df = df.Copy()

	for colIdx := range df.ColNames {
		for rowIdx := range df.Vals[colIdx] {
			df.Vals[colIdx][rowIdx] *= scalar
		}
	}
	return df
}

// Add adds the corresponding column in other to each like-named column of df
// and returns a new dataframe. Columns without a match are left unchanged.
func (df *DataFrame) Add(other *DataFrame) *DataFrame {
	df = df.Copy()

	otherMap := make(map[string]int, len(other.ColNames))
	for idx, val := range other.ColNames {
		otherMap[val] = idx
	}

	for idx, colName := range df.ColNames {
		if otherIdx, ok := otherMap[colName]; ok {
			floats.Add(df.Vals[idx], other.Vals[otherIdx])
		}
	}
	return df
}

// Sub subtracts the corresponding column in other from each like-named
// column of df and returns a new dataframe
func (df *DataFrame) Sub(other *DataFrame) *DataFrame {
	df = df.Copy()

	otherMap := make(map[string]int, len(other.ColNames))
	for idx, val := range other.ColNames {
		otherMap[val] = idx
	}

	for idx, colName := range df.ColNames {
		if otherIdx, ok := otherMap[colName]; ok {
			floats.Sub(df.Vals[idx], other.Vals[otherIdx])
		}
	}
	return df
}

// Mul multiplies all columns in dataframe df by the corresponding column in
// dataframe other and returns a new dataframe
func (df *DataFrame) Mul(other *DataFrame) *DataFrame {
	df = df.Copy()

	otherMap := make(map[string]int, len(other.ColNames))
	for idx, val := range other.ColNames {
		otherMap[val] = idx
	}

	for idx, colName := range df.ColNames {
		if otherIdx, ok := otherMap[colName]; ok {
			floats.Mul(df.Vals[idx], other.Vals[otherIdx])
		}
	}
	return df
}

// Div divides all columns in df by the corresponding column in other and
// returns a new dataframe. Division by zero propagates Inf/NaN per IEEE-754;
// values are not guarded.
func (df *DataFrame) Div(other *DataFrame) *DataFrame {
	df = df.Copy()

	otherMap := make(map[string]int, len(other.ColNames))
	for idx, val := range other.ColNames {
		otherMap[val] = idx
	}

	for idx, colName := range df.ColNames {
		if otherIdx, ok := otherMap[colName]; ok {
			floats.Div(df.Vals[idx], other.Vals[otherIdx])
		}
	}
	return df
}

// SumCols sums the named source columns row-wise into a single new column
// and returns it as a standalone vector. Missing columns contribute nothing;
// NaN entries are treated as zero so an instrument contributes only from its
// first observation onward.
func (df *DataFrame) SumCols(colNames ...string) []float64 {
	sum := make([]float64, df.Len())

	for _, colName := range colNames {
		colIdx := df.ColIndex(colName)
		if colIdx == -1 {
			continue
		}
		col := df.Vals[colIdx]
		for rowIdx, v := range col {
			if v == v { // skip NaN
				sum[rowIdx] += v
			}
		}
	}

	return sum
}
