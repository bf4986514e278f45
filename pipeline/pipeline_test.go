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

package pipeline_test

import (
	"context"
	"os"
	"path/filepath"

	"github.com/goccy/go-json"
	"github.com/jarcoal/httpmock"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/penny-vault/pvdogs/data"
	"github.com/penny-vault/pvdogs/export"
	"github.com/penny-vault/pvdogs/pipeline"
	"github.com/penny-vault/pvdogs/strategies"
)

const (
	testBaseURL = "https://portal.test"
	daxLocator  = data.IndexLocator("DAX-Index-20735")
)

var stockSlugs = map[string]string{
	"DEUTSCHE-POST": "Deutsche-Post-Aktie-DE0005552004",
	"ACME-CORP":     "Acme-Corp-Aktie-DE000ACME001",
	"BETA-WERKE":    "Beta-Aktie-DE000BETA002",
}

func fixture(name string) []byte {
	content, err := os.ReadFile(filepath.Join("..", "data", "testdata", name))
	Expect(err).To(BeNil())
	return content
}

func serve(path string, content []byte) {
	httpmock.RegisterResponder("GET", testBaseURL+path, httpmock.NewBytesResponder(200, content))
}

// servePortal serves the DAX member list and the pages of every member except those in broken
func servePortal(broken ...string) {
	serve("/index/einzelwerte/"+string(daxLocator), fixture("index.html"))

	skip := make(map[string]bool, len(broken))
	for _, name := range broken {
		skip[name] = true
	}

	for name, slug := range stockSlugs {
		if skip[name] {
			httpmock.RegisterResponder("GET", testBaseURL+"/aktien/fundamental/"+slug, httpmock.NewStringResponder(502, "bad gateway"))
		} else {
			serve("/aktien/fundamental/"+slug, fixture("fundamental.html"))
		}
		serve("/aktien/technische-kennzahlen/"+slug, fixture("technical.html"))
		serve("/aktien/unternehmensprofil/"+slug, fixture("profile.html"))
	}
}

var _ = Describe("Pipeline", func() {
	var (
		ctx  context.Context
		dir  string
		cfg  data.Config
		pipe *pipeline.Pipeline
	)

	BeforeEach(func() {
		var err error
		ctx = context.Background()
		strategies.InitializeStrategyMap()

		dir, err = os.MkdirTemp("", "pvdogs-pipeline")
		Expect(err).To(BeNil())

		cfg = data.DefaultConfig()
		cfg.BaseURL = testBaseURL
		cfg.MaxWorkers = 2
		cfg.RateLimit = 0

		pipe = pipeline.New(data.NewClientFromConfig(cfg), cfg, export.Sink{Dir: dir})
	})

	AfterEach(func() {
		os.RemoveAll(dir)
	})

	It("does nothing without a selected index", func() {
		report, err := pipe.Run(ctx, pipeline.Options{})
		Expect(err).To(BeNil())
		Expect(report.Exports).To(BeEmpty())
		Expect(httpmock.GetTotalCallCount()).To(Equal(0))
	})

	It("ranks an index and exports it under the index locator", func() {
		servePortal("ACME-CORP")

		report, err := pipe.Run(ctx, pipeline.Options{
			Indices:      []data.IndexLocator{daxLocator},
			EstimateYear: 2023,
			Format:       export.KindJSON,
			MinMarketCap: 1,
		})
		Expect(err).To(BeNil())
		Expect(report.RunID.String()).NotTo(BeEmpty())

		Expect(report.FetchFailures).To(HaveLen(1))
		Expect(report.FetchFailures[0].Name).To(Equal("ACME-CORP"))
		Expect(report.FetchFailures[0].Index).To(Equal(daxLocator))
		Expect(report.Fallbacks).To(BeEmpty())
		Expect(report.Clean()).To(BeFalse())

		Expect(report.Exports).To(HaveLen(1))
		Expect(report.Exports[0].Path).To(Equal(filepath.Join(dir, "DAX-Index-20735.json")))
		Expect(report.Exports[0].NumRows).To(Equal(2))

		content, err := os.ReadFile(report.Exports[0].Path)
		Expect(err).To(BeNil())
		var rows []map[string]interface{}
		Expect(json.Unmarshal(content, &rows)).To(Succeed())
		Expect(rows).To(HaveLen(2))
		Expect(rows[0]).To(HaveKeyWithValue("sector", "Industrie"))
		Expect(rows[0]).To(HaveKeyWithValue("DIVe", 0.042))
	})

	It("drops stocks below the default market capitalization threshold", func() {
		servePortal()

		report, err := pipe.Run(ctx, pipeline.Options{
			Indices:      []data.IndexLocator{daxLocator},
			EstimateYear: 2023,
			Format:       export.KindJSON,
		})
		Expect(err).To(BeNil())
		Expect(report.FetchFailures).To(BeEmpty())
		Expect(report.Exports).To(HaveLen(1))
		Expect(report.Exports[0].NumRows).To(Equal(0))
	})

	It("reports estimates taken from a fixed position", func() {
		servePortal()

		report, err := pipe.Run(ctx, pipeline.Options{
			Indices:      []data.IndexLocator{daxLocator},
			EstimateYear: 2030,
			Format:       export.KindHTML,
			MinMarketCap: 1,
		})
		Expect(err).To(BeNil())
		// dividend yield and P/E for each of the three stocks
		Expect(report.Fallbacks).To(HaveLen(6))
		Expect(report.Fallbacks[0].Wanted).To(Equal("2030e"))
		Expect(report.Fallbacks[0].Used).To(Equal("2023e"))
		Expect(report.Exports[0].Path).To(HaveSuffix("DAX-Index-20735.html"))
	})

	It("aborts when an index cannot be resolved", func() {
		httpmock.RegisterResponder("GET", testBaseURL+"/index/einzelwerte/"+string(daxLocator), httpmock.NewStringResponder(404, "not found"))

		report, err := pipe.Run(ctx, pipeline.Options{
			Indices: []data.IndexLocator{daxLocator, "MDAX-Index-323547"},
			Format:  export.KindJSON,
		})
		Expect(err).To(MatchError(data.ErrUpstreamUnavailable))
		Expect(report.Exports).To(BeEmpty())
		Expect(httpmock.GetTotalCallCount()).To(Equal(1))
	})

	It("keeps going when an export fails", func() {
		servePortal()

		blocker := filepath.Join(dir, "blocker")
		Expect(os.WriteFile(blocker, []byte("x"), 0o600)).To(Succeed())
		pipe = pipeline.New(data.NewClientFromConfig(cfg), cfg, export.Sink{Dir: blocker})

		report, err := pipe.Run(ctx, pipeline.Options{
			Indices:      []data.IndexLocator{daxLocator},
			EstimateYear: 2023,
			Format:       export.KindJSON,
		})
		Expect(err).To(BeNil())
		Expect(report.Exports).To(BeEmpty())
		Expect(report.ExportFailures).To(HaveLen(1))
	})

	It("rejects an unknown strategy", func() {
		_, err := pipe.Run(ctx, pipeline.Options{
			Indices:  []data.IndexLocator{daxLocator},
			Strategy: "cats",
		})
		Expect(err).To(MatchError(pipeline.ErrUnknownStrategy))
	})
})
