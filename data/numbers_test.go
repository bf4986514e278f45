// Copyright 2021-2023
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

package data_test

import (
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/penny-vault/pvdogs/data"
)

var _ = Describe("Numbers", func() {
	DescribeTable("parses german formatted numbers", func(cell string, expected float64, expectedOk bool) {
		val, ok := data.ParseNumber(cell)
		Expect(ok).To(Equal(expectedOk))
		if expectedOk {
			Expect(val).To(BeNumerically("~", expected, 1e-9))
		} else {
			Expect(math.IsNaN(val)).To(BeTrue())
		}
	},
		Entry("thousands and decimal separator", "1.234,5", 1234.5, true),
		Entry("plain integer", "42", 42.0, true),
		Entry("negative number", "-3,25", -3.25, true),
		Entry("multiple thousands separators", "1.234.567", 1234567.0, true),
		Entry("surrounding and non-breaking spaces", "\u00a012,0 ", 12.0, true),
		Entry("missing marker", "-", 0.0, false),
		Entry("empty cell", "", 0.0, false),
		Entry("text", "k.A.", 0.0, false),
	)

	DescribeTable("parses percentages into fractions", func(cell string, expected float64, expectedOk bool) {
		val, ok := data.ParsePercent(cell)
		Expect(ok).To(Equal(expectedOk))
		if expectedOk {
			Expect(val).To(BeNumerically("~", expected, 1e-9))
		} else {
			Expect(math.IsNaN(val)).To(BeTrue())
		}
	},
		Entry("simple percentage", "12,3%", 0.123, true),
		Entry("thousands separator", "1.234,5%", 12.345, true),
		Entry("negative percentage", "-2,4%", -0.024, true),
		Entry("space before sign", "4,2 %", 0.042, true),
		Entry("no percent sign", "3,5", 0.035, true),
		Entry("not available", "n.a.%", 0.0, false),
		Entry("missing marker", "-", 0.0, false),
	)

	Context("cell parsers", func() {
		It("excludes missing market capitalization cells", func() {
			_, keep := data.MarketCapCell("-")
			Expect(keep).To(BeFalse())

			val, keep := data.MarketCapCell("1.234,5")
			Expect(keep).To(BeTrue())
			Expect(val).To(BeNumerically("~", 1234.5, 1e-9))
		})

		It("coerces a missing P/E to zero", func() {
			val, keep := data.PERatioCell("-")
			Expect(keep).To(BeTrue())
			Expect(val).To(Equal(0.0))
		})

		It("keeps missing dividend yields as NaN", func() {
			val, keep := data.DividendYieldCell("-")
			Expect(keep).To(BeTrue())
			Expect(math.IsNaN(val)).To(BeTrue())
		})
	})
})
