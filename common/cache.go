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

package common

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru"
)

// PageCache keeps lz4 compressed page bodies in a bounded LRU. It is safe for concurrent use.
type PageCache struct {
	lru *lru.Cache
}

// NewPageCache creates a cache holding at most size pages
func NewPageCache(size int) (*PageCache, error) {
	cache, err := lru.New(size)
	if err != nil {
		return nil, fmt.Errorf("could not create LRU cache: %w", err)
	}
	return &PageCache{lru: cache}, nil
}

// Set compresses body and stores it under key
func (pc *PageCache) Set(key string, body []byte) error {
	compressed, err := Compress(body)
	if err != nil {
		return err
	}
	pc.lru.Add(key, compressed)
	return nil
}

// Get returns the decompressed body stored under key
func (pc *PageCache) Get(key string) ([]byte, bool) {
	val, ok := pc.lru.Get(key)
	if !ok {
		return nil, false
	}

	compressed, ok := val.([]byte)
	if !ok {
		return nil, false
	}

	body, err := Decompress(compressed)
	if err != nil {
		return nil, false
	}
	return body, true
}

// Len returns the number of cached pages
func (pc *PageCache) Len() int {
	return pc.lru.Len()
}
