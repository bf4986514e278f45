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
	"context"

	"github.com/jarcoal/httpmock"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/penny-vault/pvdogs/data"
)

var _ = Describe("Index", func() {
	Context("when parsing constituents", func() {
		It("keys every constituent by its normalized name", func() {
			constituents, err := data.ParseConstituents(document(fixture("index.html")))
			Expect(err).To(BeNil())
			Expect(constituents).To(HaveLen(3))
			Expect(constituents).To(HaveKey("DEUTSCHE-POST"))
			Expect(constituents).To(HaveKey("BETA-WERKE"))

			post := constituents["DEUTSCHE-POST"]
			Expect(post.Href).To(Equal("/aktien/Deutsche-Post-Aktie-DE0005552004"))
			Expect(post.Slug).To(Equal("Deutsche-Post-Aktie-DE0005552004"))
			Expect(post.ISIN).To(Equal("DE0005552004"))
		})

		It("uses the title of truncated names", func() {
			constituents, err := data.ParseConstituents(document(fixture("index.html")))
			Expect(err).To(BeNil())
			Expect(constituents).To(HaveKey("ACME-CORP"))
			Expect(constituents).NotTo(HaveKey("ACME-C..."))
		})

		It("recognizes the unicode ellipsis", func() {
			doc := document([]byte(`<a class="TEXT_DICK" href="/aktien/Gamma-Aktie-DE000GAMMA03" title="Gamma Holding">Gamma Ho…</a>`))
			constituents, err := data.ParseConstituents(doc)
			Expect(err).To(BeNil())
			Expect(constituents).To(HaveKey("GAMMA-HOLDING"))
		})

		It("fails when no constituent is listed", func() {
			_, err := data.ParseConstituents(document([]byte(`<html><body><a href="/x">x</a></body></html>`)))
			Expect(err).To(MatchError(data.ErrMalformedPage))
		})

		It("fails when an anchor has no link", func() {
			doc := document([]byte(`<a class="TEXT_DICK" href="/aktien/A-Aktie-DE1">A</a><a class="TEXT_DICK">B</a>`))
			_, err := data.ParseConstituents(doc)
			Expect(err).To(MatchError(data.ErrMalformedPage))
		})

		It("fails on duplicate names", func() {
			doc := document([]byte(`<a class="TEXT_DICK" href="/aktien/A-Aktie-DE1">Alpha AG</a><a class="TEXT_DICK" href="/aktien/A-Aktie-DE2">alpha   ag</a>`))
			_, err := data.ParseConstituents(doc)
			Expect(err).To(MatchError(data.ErrMalformedPage))
		})
	})

	DescribeTable("normalizes display names", func(in, expected string) {
		Expect(data.NormalizeName(in)).To(Equal(expected))
	},
		Entry("single space", "ACME CORP", "ACME-CORP"),
		Entry("mixed case", "Deutsche Post", "DEUTSCHE-POST"),
		Entry("whitespace runs", "  Beta \n Werke ", "BETA-WERKE"),
		Entry("one word", "SAP", "SAP"),
	)

	Context("when looking up an index", func() {
		It("accepts known names regardless of case", func() {
			loc, err := data.LookupIndex("dax")
			Expect(err).To(BeNil())
			Expect(loc).To(Equal(data.IndexLocator("DAX-Index-20735")))

			loc, err = data.LookupIndex("S&P 500")
			Expect(err).To(BeNil())
			Expect(loc).To(Equal(data.IndexLocator("S-P-500-Index-4359526")))
		})

		It("accepts raw locators", func() {
			loc, err := data.LookupIndex("ATX-Index-1234")
			Expect(err).To(BeNil())
			Expect(loc).To(Equal(data.IndexLocator("ATX-Index-1234")))
		})

		It("rejects unknown names", func() {
			_, err := data.LookupIndex("FTSE")
			Expect(err).To(MatchError(data.ErrUnknownIndex))
		})
	})

	Context("when resolving an index", func() {
		var (
			resolver *data.Resolver
		)

		BeforeEach(func() {
			resolver = data.NewResolver(data.NewClient(testBaseURL, data.WithRateLimit(0)))
		})

		It("downloads the member listing", func() {
			registerPage(testBaseURL+"/index/einzelwerte/DAX-Index-20735", fixture("index.html"))

			constituents, err := resolver.Resolve(context.Background(), "DAX-Index-20735")
			Expect(err).To(BeNil())
			Expect(constituents).To(HaveLen(3))
			for name, loc := range constituents {
				Expect(name).NotTo(BeEmpty())
				Expect(loc.Slug).NotTo(BeEmpty())
				Expect(loc.ISIN).NotTo(BeEmpty())
			}
			Expect(httpmock.GetCallCountInfo()["GET "+testBaseURL+"/index/einzelwerte/DAX-Index-20735"]).To(Equal(1))
		})

		It("reports an unavailable portal", func() {
			httpmock.RegisterResponder("GET", testBaseURL+"/index/einzelwerte/DAX-Index-20735", httpmock.NewStringResponder(503, "maintenance"))

			_, err := resolver.Resolve(context.Background(), "DAX-Index-20735")
			Expect(err).To(MatchError(data.ErrUpstreamUnavailable))
		})

		It("reports a page without members as malformed", func() {
			registerPage(testBaseURL+"/index/einzelwerte/DAX-Index-20735", []byte("<html><body>Wartung</body></html>"))

			_, err := resolver.Resolve(context.Background(), "DAX-Index-20735")
			Expect(err).To(MatchError(data.ErrMalformedPage))
		})
	})
})
