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

package strategies_test

import (
	"context"

	"github.com/goccy/go-json"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/penny-vault/pvdogs/data"
	"github.com/penny-vault/pvdogs/strategies"
)

var _ = Describe("Discover", func() {
	BeforeEach(func() {
		strategies.InitializeStrategyMap()
	})

	It("registers the dogs strategy with its metadata", func() {
		Expect(strategies.StrategyList).To(HaveLen(1))
		Expect(strategies.StrategyMap).To(HaveKey("dogs"))

		info := strategies.StrategyMap["dogs"]
		Expect(info.Name).To(Equal("Dogs of the Index"))
		Expect(info.Version).To(Equal("1.0.0"))
		Expect(info.LongDescription).To(ContainSubstring("Dogs of the Dow"))
		Expect(info.Arguments).To(HaveKey("minMarketCap"))
		Expect(info.Factory).NotTo(BeNil())
	})

	It("can be initialized more than once", func() {
		strategies.InitializeStrategyMap()
		Expect(strategies.StrategyList).To(HaveLen(1))
	})

	It("provides default arguments the factory accepts", func() {
		info := strategies.StrategyMap["dogs"]
		args := info.DefaultArguments()
		Expect(args).To(HaveKeyWithValue("minMarketCap", json.RawMessage("5")))

		strat, err := info.Factory([]*data.StockRecord{}, args)
		Expect(err).To(BeNil())

		result, err := strat.Compute(context.Background(), 2023)
		Expect(err).To(BeNil())
		Expect(result.Ranking.NRows()).To(Equal(0))
	})
})
