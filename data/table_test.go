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
	"bytes"
	"math"
	"strings"

	"github.com/PuerkitoBio/goquery"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/penny-vault/pvdogs/data"
)

func document(content []byte) *goquery.Document {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(content))
	Expect(err).To(BeNil())
	return doc
}

var _ = Describe("Table", func() {
	var (
		tables []*data.Table
	)

	BeforeEach(func() {
		tables = data.ParseTables(document(fixture("fundamental.html")))
	})

	It("finds every table in document order", func() {
		Expect(tables).To(HaveLen(8))
		Expect(tables[0].Header).To(Equal([]string{"Stammdaten", "Wert"}))
		Expect(tables[7].Header).To(Equal([]string{"Bewertung", "2020", "2021", "2022"}))
	})

	It("does not treat the header as a data row", func() {
		Expect(tables[1].Rows).To(HaveLen(2))
		_, ok := tables[1].Row("Gewinn")
		Expect(ok).To(BeFalse())
	})

	It("uses a leading row of th cells as header", func() {
		doc := document([]byte(`<table><tr><th>Zeitraum</th><th>Wert</th></tr><tr><td>1 Jahr</td><td>1,0%</td></tr></table>`))
		parsed := data.ParseTables(doc)
		Expect(parsed).To(HaveLen(1))
		Expect(parsed[0].Header).To(Equal([]string{"Zeitraum", "Wert"}))
		Expect(parsed[0].Rows).To(Equal([][]string{{"1 Jahr", "1,0%"}}))
	})

	It("transposes a row into a series labeled by the header", func() {
		series, err := tables[2].Series("Dividendenrendite", data.DividendYieldCell)
		Expect(err).To(BeNil())
		Expect(series.Labels).To(Equal([]string{"2021", "2022", "2023e", "2024e"}))

		val, ok := series.Get("2023e")
		Expect(ok).To(BeTrue())
		Expect(val).To(BeNumerically("~", 0.042, 1e-9))

		val, ok = series.Get("2022")
		Expect(ok).To(BeTrue())
		Expect(math.IsNaN(val)).To(BeTrue())
	})

	It("leaves rejected cells out of the series", func() {
		series, err := tables[7].Series("Marktkapitalisierung in Mio. EUR", data.MarketCapCell)
		Expect(err).To(BeNil())
		Expect(series.Labels).To(Equal([]string{"2021", "2022"}))
		Expect(series.First()).To(BeNumerically("~", 1234.5, 1e-9))
	})

	It("reports a missing row as a malformed page", func() {
		_, err := tables[3].Series("KGV", data.PERatioCell)
		Expect(err).To(MatchError(data.ErrMalformedPage))
	})

	It("renames columns without modifying the original", func() {
		renamed := tables[1].RenameColumns("Zeitraum", "Performance")
		Expect(renamed.Header[:2]).To(Equal([]string{"Zeitraum", "Performance"}))
		Expect(tables[1].Header[0]).To(Equal("Gewinn"))
	})

	It("looks up a cell by key column", func() {
		tbl := data.ParseTables(document(fixture("technical.html")))
		perf := tbl[len(tbl)-1].RenameColumns("Zeitraum", "Performance")
		val, ok := perf.Value("Zeitraum", "1 Jahr", "Performance")
		Expect(ok).To(BeTrue())
		Expect(val).To(Equal("12,3%"))

		_, ok = perf.Value("Zeitraum", "10 Jahre", "Performance")
		Expect(ok).To(BeFalse())
	})

	It("collapses whitespace inside cells", func() {
		doc := document([]byte("<table><tr><td>Eigen\n   kapital</td><td> 1 </td></tr></table>"))
		parsed := data.ParseTables(doc)
		Expect(strings.Join(parsed[0].Rows[0], "|")).To(Equal("Eigen kapital|1"))
	})
})
