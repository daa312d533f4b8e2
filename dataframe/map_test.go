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
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/chartfolio/cf-api/dataframe"
)

var _ = Describe("Map", func() {
	var (
		short *dataframe.DataFrame
		long  *dataframe.DataFrame
	)

	BeforeEach(func() {
		short = dataframe.New(dataframe.DateRange(
			time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC),
			time.Date(2024, 3, 8, 0, 0, 0, 0, time.UTC),
		))
		short.InsertConst("a", 1)

		long = dataframe.New(dataframe.DateRange(
			time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
			time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC),
		))
		long.InsertConst("b", 2)
	})

	Describe("Align", func() {
		It("trims all members to the common date range", func() {
			aligned := dataframe.Map{"short": short, "long": long}.Align()
			Expect(aligned).To(HaveLen(2))
			for _, df := range aligned {
				Expect(df.Start()).To(Equal(time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)))
				Expect(df.End()).To(Equal(time.Date(2024, 3, 8, 0, 0, 0, 0, time.UTC)))
				Expect(df.Len()).To(Equal(5))
			}
		})

		It("leaves already-aligned members intact", func() {
			dfMap := short.Breakout()
			aligned := dfMap.Align()
			Expect(aligned["a"].Len()).To(Equal(short.Len()))
			Expect(aligned["a"].Col("a")).To(Equal(short.Col("a")))
		})
	})

	Describe("DataFrame", func() {
		It("merges members into a single frame over the common range", func() {
			merged := dataframe.Map{"short": short, "long": long}.DataFrame()
			Expect(merged.Len()).To(Equal(5))
			Expect(merged.ColCount()).To(Equal(2))
			Expect(merged.Col("a")).To(Equal([]float64{1, 1, 1, 1, 1}))
			Expect(merged.Col("b")).To(Equal([]float64{2, 2, 2, 2, 2}))
		})

		It("round-trips a breakout", func() {
			short.InsertConst("c", 3)
			merged := short.Breakout().DataFrame()
			Expect(merged.Len()).To(Equal(short.Len()))
			Expect(merged.ColCount()).To(Equal(2))
			Expect(merged.Col("a")).To(Equal(short.Col("a")))
			Expect(merged.Col("c")).To(Equal(short.Col("c")))
		})
	})
})
