// Copyright 2021-2022
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

package common_test

import (
	"bytes"
	"fmt"
	"sync"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/penny-vault/pvdogs/common"
)

var _ = Describe("Cache", func() {
	var (
		cache *common.PageCache
	)

	BeforeEach(func() {
		var err error
		cache, err = common.NewPageCache(2)
		Expect(err).To(BeNil())
	})

	It("returns what was stored", func() {
		body := bytes.Repeat([]byte("<tr><td>KGV</td><td>11,2</td></tr>"), 100)
		Expect(cache.Set("https://portal.test/a", body)).To(Succeed())

		cached, ok := cache.Get("https://portal.test/a")
		Expect(ok).To(BeTrue())
		Expect(cached).To(Equal(body))
	})

	It("misses unknown keys", func() {
		_, ok := cache.Get("https://portal.test/unknown")
		Expect(ok).To(BeFalse())
	})

	It("evicts the least recently used page", func() {
		Expect(cache.Set("a", []byte("a"))).To(Succeed())
		Expect(cache.Set("b", []byte("b"))).To(Succeed())
		_, ok := cache.Get("a")
		Expect(ok).To(BeTrue())
		Expect(cache.Set("c", []byte("c"))).To(Succeed())

		_, ok = cache.Get("b")
		Expect(ok).To(BeFalse())
		Expect(cache.Len()).To(Equal(2))
	})

	It("rejects a non-positive size", func() {
		_, err := common.NewPageCache(0)
		Expect(err).NotTo(BeNil())
	})

	It("can be used from many goroutines", func() {
		cache, err := common.NewPageCache(64)
		Expect(err).To(BeNil())

		var wg sync.WaitGroup
		for ii := 0; ii < 16; ii++ {
			wg.Add(1)
			go func(ii int) {
				defer GinkgoRecover()
				defer wg.Done()
				key := fmt.Sprintf("page-%d", ii)
				Expect(cache.Set(key, []byte(key))).To(Succeed())
				val, ok := cache.Get(key)
				Expect(ok).To(BeTrue())
				Expect(string(val)).To(Equal(key))
			}(ii)
		}
		wg.Wait()
	})
})

var _ = Describe("Lz4", func() {
	It("round trips data", func() {
		in := bytes.Repeat([]byte("Marktkapitalisierung in Mio. EUR"), 64)
		compressed, err := common.Compress(in)
		Expect(err).To(BeNil())
		Expect(len(compressed)).To(BeNumerically("<", len(in)))

		out, err := common.Decompress(compressed)
		Expect(err).To(BeNil())
		Expect(out).To(Equal(in))
	})
})
