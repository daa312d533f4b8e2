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
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/rs/zerolog/log"
	"gonum.org/v1/gonum/floats"
)

// Len returns the number of rows in the dataframe
func (df *DataFrame) Len() int {
	return len(df.Dates)
}

// ColCount returns the number of columns in the dataframe
func (df *DataFrame) ColCount() int {
	return len(df.ColNames)
}

// ColIndex returns the index of the specified column; -1 if the column
// doesn't exist
func (df *DataFrame) ColIndex(colName string) int {
	for idx, val := range df.ColNames {
		if colName == val {
			return idx
		}
	}
	return -1
}

// Col returns the values of the named column, or nil if it doesn't exist
func (df *DataFrame) Col(colName string) []float64 {
	idx := df.ColIndex(colName)
	if idx == -1 {
		return nil
	}
	return df.Vals[idx]
}

// HasCol returns true if the named column exists
func (df *DataFrame) HasCol(colName string) bool {
	return df.ColIndex(colName) != -1
}

// Start returns the first date of the dataframe
func (df *DataFrame) Start() time.Time {
	if len(df.Dates) == 0 {
		return time.Time{}
	}
	return df.Dates[0]
}

// End returns the last date of the dataframe
func (df *DataFrame) End() time.Time {
	if len(df.Dates) == 0 {
		return time.Time{}
	}
	return df.Dates[len(df.Dates)-1]
}

// Copy creates a deep copy of the dataframe
func (df *DataFrame) Copy() *DataFrame {
	df2 := &DataFrame{
		ColNames: make([]string, len(df.ColNames)),
		Dates:    make([]time.Time, len(df.Dates)),
		Vals:     make([][]float64, len(df.Vals)),
	}

	copy(df2.ColNames, df.ColNames)
	copy(df2.Dates, df.Dates)

	for idx := range df2.Vals {
		df2.Vals[idx] = make([]float64, len(df.Vals[idx]))
		copy(df2.Vals[idx], df.Vals[idx])
	}

	return df2
}

// Insert adds a column to the end of the dataframe; the column must equal
// the number of rows otherwise panic
func (df *DataFrame) Insert(name string, col []float64) *DataFrame {
	if len(col) != df.Len() {
		log.Panic().Int("NumRows", df.Len()).Int("LenCol", len(col)).Str("ColName", name).Msg("column length must equal number of rows")
	}

	if idx := df.ColIndex(name); idx != -1 {
		df.Vals[idx] = col
		return df
	}

	df.ColNames = append(df.ColNames, name)
	df.Vals = append(df.Vals, col)
	return df
}

// InsertConst adds a column with every row set to val
func (df *DataFrame) InsertConst(name string, val float64) *DataFrame {
	col := make([]float64, df.Len())
	for idx := range col {
		col[idx] = val
	}
	return df.Insert(name, col)
}

// Remove drops the named columns from the dataframe; unknown names are
// ignored
func (df *DataFrame) Remove(colNames ...string) *DataFrame {
	removeMap := make(map[string]bool, len(colNames))
	for _, col := range colNames {
		removeMap[col] = true
	}

	newNames := make([]string, 0, len(df.ColNames))
	newVals := make([][]float64, 0, len(df.Vals))
	for idx, col := range df.ColNames {
		if !removeMap[col] {
			newNames = append(newNames, col)
			newVals = append(newVals, df.Vals[idx])
		}
	}

	df.ColNames = newNames
	df.Vals = newVals
	return df
}

// Split the dataframe into 2, with requested columns in the first dataframe
// and all remaining columns in the second
func (df *DataFrame) Split(columns ...string) (*DataFrame, *DataFrame) {
	one := &DataFrame{
		Dates:    df.Dates,
		ColNames: []string{},
		Vals:     [][]float64{},
	}

	two := &DataFrame{
		Dates:    df.Dates,
		ColNames: []string{},
		Vals:     [][]float64{},
	}

	colMap := make(map[string]bool, len(columns))
	for _, col := range columns {
		colMap[col] = true
	}

	for idx, col := range df.ColNames {
		if colMap[col] {
			one.ColNames = append(one.ColNames, col)
			one.Vals = append(one.Vals, df.Vals[idx])
		} else {
			two.ColNames = append(two.ColNames, col)
			two.Vals = append(two.Vals, df.Vals[idx])
		}
	}

	return one, two
}

// Breakout takes a dataframe with multiple columns and returns a map of
// dataframes, one per column
func (df *DataFrame) Breakout() Map {
	dfMap := Map{}
	for idx, col := range df.ColNames {
		dfMap[col] = &DataFrame{
			Dates:    df.Dates,
			ColNames: []string{col},
			Vals:     [][]float64{df.Vals[idx]},
		}
	}
	return dfMap
}

// AsMap creates a map with the date as the key and the specified column as
// the value
func (df *DataFrame) AsMap(colName string) map[time.Time]float64 {
	res := make(map[time.Time]float64, df.Len())
	colIdx := df.ColIndex(colName)
	if colIdx == -1 {
		return res
	}

	for idx, dt := range df.Dates {
		res[dt] = df.Vals[colIdx][idx]
	}

	return res
}

// Append takes the dates and values from other and appends them to df. Cols
// in df that are not in other are filled with NaN. If the start date of
// other is not greater than df then do nothing
func (df *DataFrame) Append(other *DataFrame) *DataFrame {
	if len(other.Dates) == 0 {
		return df
	}

	if len(df.Dates) != 0 {
		lastDate := df.Dates[len(df.Dates)-1]
		if !other.Dates[0].After(lastDate) {
			return df
		}
	}

	df.Dates = append(df.Dates, other.Dates...)

	colMap := make(map[string]int, len(other.ColNames))
	for colIdx, colName := range other.ColNames {
		colMap[colName] = colIdx
	}

	for colIdx, colName := range df.ColNames {
		if otherColIdx, ok := colMap[colName]; ok {
			df.Vals[colIdx] = append(df.Vals[colIdx], other.Vals[otherColIdx]...)
		} else {
			for ii := 0; ii < len(other.Dates); ii++ {
				df.Vals[colIdx] = append(df.Vals[colIdx], math.NaN())
			}
		}
	}

	return df
}

// Last returns a new dataframe with only the last row of the current
// dataframe
func (df *DataFrame) Last() *DataFrame {
	if df.Len() == 0 {
		return df
	}

	lastVals := make([][]float64, len(df.ColNames))
	lastRow := len(df.Dates) - 1
	for idx, col := range df.Vals {
		lastVals[idx] = []float64{col[lastRow]}
	}

	return &DataFrame{
		ColNames: df.ColNames,
		Dates:    []time.Time{df.Dates[lastRow]},
		Vals:     lastVals,
	}
}

// Drop removes rows that contain the value `val` in any column from the
// dataframe
func (df *DataFrame) Drop(val float64) *DataFrame {
	isNA := math.IsNaN(val)
	newVals := make([][]float64, len(df.Vals))
	newDates := make([]time.Time, 0, len(df.Dates))

	for idx, dt := range df.Dates {
		keep := true
		for _, col := range df.Vals {
			rowVal := col[idx]
			keep = keep && !(rowVal == val || (isNA && math.IsNaN(rowVal)))
			if !keep {
				break
			}
		}

		if keep {
			newDates = append(newDates, dt)
			for colIdx, col := range df.Vals {
				newVals[colIdx] = append(newVals[colIdx], col[idx])
			}
		}
	}

	df.Vals = newVals
	df.Dates = newDates
	return df
}

// Trim the dataframe to the specified date range (inclusive)
func (df *DataFrame) Trim(begin, end time.Time) *DataFrame {
	df2 := &DataFrame{
		ColNames: df.ColNames,
		Dates:    df.Dates,
		Vals:     df.Vals,
	}

	// special case 0: requested range is invalid
	if end.Before(begin) {
		df2.Dates = []time.Time{}
		df2.Vals = make([][]float64, len(df.ColNames))
		return df2
	}

	// special case 1: data frame is empty
	if df.Len() == 0 {
		return df2
	}

	// special case 2: requested range does not overlap the data frame
	if end.Before(df.Dates[0]) || begin.After(df.Dates[len(df.Dates)-1]) {
		df2.Dates = []time.Time{}
		df2.Vals = make([][]float64, len(df.ColNames))
		return df2
	}

	beginIdx := sort.Search(len(df.Dates), func(i int) bool {
		return !df.Dates[i].Before(begin)
	})

	endIdx := sort.Search(len(df.Dates), func(i int) bool {
		return !df.Dates[i].Before(end)
	})

	if endIdx != len(df.Dates) && df.Dates[endIdx].Equal(end) {
		endIdx++
	}

	df2.Dates = df.Dates[beginIdx:endIdx]
	df2.Vals = make([][]float64, len(df.Vals))
	for colIdx, col := range df.Vals {
		df2.Vals[colIdx] = col[beginIdx:endIdx]
	}

	return df2
}

// Max returns the largest non-NaN value in the named column, or NaN if no
// valid value exists
func (df *DataFrame) Max(colName string) float64 {
	colIdx := df.ColIndex(colName)
	if colIdx == -1 {
		return math.NaN()
	}

	max := math.NaN()
	for _, v := range df.Vals[colIdx] {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		if math.IsNaN(max) || v > max {
			max = v
		}
	}
	return max
}

// MaxRow selects the max value for each row across all columns and returns
// a new single-column dataframe
func (df *DataFrame) MaxRow() *DataFrame {
	maxDf := &DataFrame{
		ColNames: []string{"max"},
		Dates:    df.Dates,
		Vals:     [][]float64{make([]float64, len(df.Dates))},
	}

	for rowIdx := range df.Dates {
		row := make([]float64, 0, len(df.ColNames))
		for colIdx := range df.ColNames {
			row = append(row, df.Vals[colIdx][rowIdx])
		}
		maxDf.Vals[0][rowIdx] = floats.Max(row)
	}

	return maxDf
}

// Reindex maps the dataframe onto a new date index and returns a new
// dataframe; dates without an observation are NaN, observations outside the
// new index are dropped
func (df *DataFrame) Reindex(dates []time.Time) *DataFrame {
	pos := make(map[int64]int, len(dates))
	for idx, dt := range dates {
		pos[dayOrdinal(dt)] = idx
	}

	newVals := make([][]float64, len(df.Vals))
	for colIdx := range df.Vals {
		col := make([]float64, len(dates))
		for idx := range col {
			col[idx] = math.NaN()
		}
		for rowIdx, dt := range df.Dates {
			if idx, ok := pos[dayOrdinal(dt)]; ok {
				col[idx] = df.Vals[colIdx][rowIdx]
			}
		}
		newVals[colIdx] = col
	}

	return &DataFrame{
		Dates:    dates,
		ColNames: df.ColNames,
		Vals:     newVals,
	}
}

// dayOrdinal collapses a timestamp to its calendar day, ignoring timezone
// offsets within the day
func dayOrdinal(dt time.Time) int64 {
	return int64(dt.Year())*10000 + int64(dt.Month())*100 + int64(dt.Day())
}

// Table prints an ASCII formatted table to a string
func (df *DataFrame) Table() string {
	if len(df.Dates) == 0 {
		return "<NO DATA>"
	}

	tableCols := append([]string{"Date"}, df.ColNames...)

	s := &strings.Builder{}
	table := tablewriter.NewWriter(s)
	table.SetHeader(tableCols)
	footer := make([]string, len(tableCols))
	footer[0] = "Num Rows"
	footer[1] = fmt.Sprintf("%d", df.Len())
	table.SetFooter(footer)
	table.SetBorder(false)

	for idx, dt := range df.Dates {
		row := make([]string, 0, len(df.Vals)+1)
		row = append(row, dt.Format("2006-01-02"))
		for _, col := range df.Vals {
			row = append(row, fmt.Sprintf("%.4f", col[idx]))
		}
		table.Append(row)
	}

	table.Render()
	return s.String()
}
