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

package portfolio_test

import (
	"bytes"
	"strings"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/chartfolio/cf-api/portfolio"
)

var _ = Describe("Transactions", func() {
	Describe("ParseTransactions", func() {
		It("parses the canonical csv schema with day-first dates", func() {
			csv := `NAME,VOLUME,PRICE,DATE,SYMBOL
ASML Holding,3,2635,16.02.2024,ASMLF
Siemens,10,1700.50,02.01.2024,SIE.DE
`
			transactions, err := portfolio.ParseTransactions(strings.NewReader(csv))
			Expect(err).To(BeNil())
			Expect(transactions).To(HaveLen(2))

			// sorted by date, IDs follow the sort order
			Expect(transactions[0].Symbol).To(Equal("SIE.DE"))
			Expect(transactions[0].ID).To(Equal(0))
			Expect(transactions[0].Date).To(Equal(time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)))
			Expect(transactions[1].Symbol).To(Equal("ASMLF"))
			Expect(transactions[1].ID).To(Equal(1))
			Expect(transactions[1].Volume).To(Equal(3.0))
			Expect(transactions[1].Price).To(Equal(2635.0))
		})

		It("accepts reordered columns", func() {
			csv := `SYMBOL,DATE,NAME,PRICE,VOLUME
ASMLF,16.02.2024,ASML Holding,2635,3
`
			transactions, err := portfolio.ParseTransactions(strings.NewReader(csv))
			Expect(err).To(BeNil())
			Expect(transactions[0].Symbol).To(Equal("ASMLF"))
			Expect(transactions[0].Volume).To(Equal(3.0))
		})

		It("uppercases symbols", func() {
			csv := `NAME,VOLUME,PRICE,DATE,SYMBOL
ASML Holding,3,2635,16.02.2024,asmlf
`
			transactions, err := portfolio.ParseTransactions(strings.NewReader(csv))
			Expect(err).To(BeNil())
			Expect(transactions[0].Symbol).To(Equal("ASMLF"))
		})

		It("rejects a csv with a missing column", func() {
			csv := `NAME,VOLUME,PRICE,DATE
ASML Holding,3,2635,16.02.2024
`
			_, err := portfolio.ParseTransactions(strings.NewReader(csv))
			Expect(err).To(HaveOccurred())
		})

		It("rejects month-first dates that are not valid day-first", func() {
			csv := `NAME,VOLUME,PRICE,DATE,SYMBOL
ASML Holding,3,2635,02.16.2024,ASMLF
`
			_, err := portfolio.ParseTransactions(strings.NewReader(csv))
			Expect(err).To(HaveOccurred())
		})

		It("returns an empty list for empty input", func() {
			transactions, err := portfolio.ParseTransactions(strings.NewReader(""))
			Expect(err).To(BeNil())
			Expect(transactions).To(BeEmpty())
		})
	})

	Describe("Write", func() {
		It("round-trips through the csv format", func() {
			original := portfolio.TransactionList{}
			original = original.Add(&portfolio.Transaction{
				Name: "ASML Holding", Symbol: "ASMLF", Volume: 3, Price: 2635,
				Date: time.Date(2024, 2, 16, 0, 0, 0, 0, time.UTC),
			})
			original = original.Add(&portfolio.Transaction{
				Name: "Siemens", Symbol: "SIE.DE", Volume: 10, Price: 1700.5,
				Date: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
			})

			var buf bytes.Buffer
			Expect(original.Write(&buf, "")).To(Succeed())

			parsed, err := portfolio.ParseTransactions(&buf)
			Expect(err).To(BeNil())
			Expect(parsed).To(HaveLen(2))
			Expect(parsed[0].Symbol).To(Equal("SIE.DE"))
			Expect(parsed[0].Price).To(Equal(1700.5))
			Expect(parsed[1].Symbol).To(Equal("ASMLF"))
		})
	})

	Describe("Symbols", func() {
		It("lists distinct symbols in date order", func() {
			csv := `NAME,VOLUME,PRICE,DATE,SYMBOL
a,1,1,03.01.2024,AAA
b,1,1,01.01.2024,BBB
c,1,1,02.01.2024,AAA
`
			transactions, err := portfolio.ParseTransactions(strings.NewReader(csv))
			Expect(err).To(BeNil())
			Expect(transactions.Symbols()).To(Equal([]string{"BBB", "AAA"}))
		})
	})
})
