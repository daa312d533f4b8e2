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

package dataframe_test

import (
	"math"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/chartfolio/cf-api/dataframe"
)

var _ = Describe("DataFrame", func() {
	var df *dataframe.DataFrame

	Context("with no values", func() {
		BeforeEach(func() {
			df = &dataframe.DataFrame{}
		})

		It("has zero length", func() {
			Expect(df.Len()).To(Equal(0))
		})

		It("has zero columns", func() {
			Expect(df.ColCount()).To(Equal(0))
		})

		It("does not error on trim", func() {
			df = df.Trim(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC))
			Expect(df.Len()).To(Equal(0))
		})
	})

	Context("with a calendar-daily index", func() {
		BeforeEach(func() {
			dates := dataframe.DateRange(
				time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
				time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC),
			)
			df = dataframe.New(dates)
		})

		It("includes both endpoints", func() {
			Expect(df.Len()).To(Equal(10))
			Expect(df.Start()).To(Equal(time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)))
			Expect(df.End()).To(Equal(time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC)))
		})

		It("inserts and reads a column", func() {
			vals := make([]float64, 10)
			for idx := range vals {
				vals[idx] = float64(idx)
			}
			df.Insert("a", vals)
			Expect(df.ColCount()).To(Equal(1))
			Expect(df.Col("a")).To(Equal(vals))
			Expect(df.Col("missing")).To(BeNil())
		})

		It("replaces a column inserted twice under the same name", func() {
			df.InsertConst("a", 1)
			df.InsertConst("a", 2)
			Expect(df.ColCount()).To(Equal(1))
			Expect(df.Col("a")[0]).To(Equal(2.0))
		})

		It("removes columns by name", func() {
			df.InsertConst("a", 1)
			df.InsertConst("b", 2)
			df.Remove("a")
			Expect(df.ColCount()).To(Equal(1))
			Expect(df.HasCol("a")).To(BeFalse())
			Expect(df.HasCol("b")).To(BeTrue())
		})

		It("trims to an interior range", func() {
			df.InsertConst("a", 1)
			out := df.Trim(
				time.Date(2024, 2, 3, 0, 0, 0, 0, time.UTC),
				time.Date(2024, 2, 5, 0, 0, 0, 0, time.UTC),
			)
			Expect(out.Len()).To(Equal(3))
			Expect(out.Start()).To(Equal(time.Date(2024, 2, 3, 0, 0, 0, 0, time.UTC)))
		})

		It("ignores NaN and infinities in Max", func() {
			df.Insert("a", []float64{1, math.NaN(), 99, math.Inf(1), 5, 2, 2, 2, 2, 2})
			Expect(df.Max("a")).To(Equal(99.0))
		})
	})

	Describe("Reindex", func() {
		It("maps values onto a wider calendar index by day", func() {
			// trading days only: a weekend gap between the 2nd and the 5th
			dates := []time.Time{
				time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
				time.Date(2024, 2, 2, 0, 0, 0, 0, time.UTC),
				time.Date(2024, 2, 5, 0, 0, 0, 0, time.UTC),
			}
			df = dataframe.New(dates)
			df.Insert("close", []float64{10, 11, 12})

			calendar := dataframe.DateRange(
				time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
				time.Date(2024, 2, 5, 0, 0, 0, 0, time.UTC),
			)
			out := df.Reindex(calendar)

			Expect(out.Len()).To(Equal(5))
			col := out.Col("close")
			Expect(col[0]).To(Equal(10.0))
			Expect(col[1]).To(Equal(11.0))
			Expect(math.IsNaN(col[2])).To(BeTrue())
			Expect(math.IsNaN(col[3])).To(BeTrue())
			Expect(col[4]).To(Equal(12.0))
		})

		It("matches dates regardless of time zone", func() {
			ny, err := time.LoadLocation("America/New_York")
			Expect(err).To(BeNil())

			df = dataframe.New([]time.Time{time.Date(2024, 2, 1, 0, 0, 0, 0, ny)})
			df.Insert("close", []float64{42})

			out := df.Reindex([]time.Time{time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)})
			Expect(out.Col("close")[0]).To(Equal(42.0))
		})
	})

	Describe("SumCols", func() {
		It("treats NaN as zero so sums start at the first observation", func() {
			dates := dataframe.DateRange(
				time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
				time.Date(2024, 2, 3, 0, 0, 0, 0, time.UTC),
			)
			df = dataframe.New(dates)
			df.Insert("a", []float64{math.NaN(), 1, 2})
			df.Insert("b", []float64{math.NaN(), math.NaN(), 10})

			sum := df.SumCols("a", "b")
			Expect(sum[0]).To(Equal(0.0))
			Expect(sum[1]).To(Equal(1.0))
			Expect(sum[2]).To(Equal(12.0))
		})
	})
})
