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

package data

import (
	"fmt"
	"net/url"
	"path"
	"strings"
)

const nameSeparator = "-"

var ellipsisMarkers = []string{"...", "…"}

// IndexLocator identifies the member-listing page of an index, e.g. DAX-Index-20735
type IndexLocator string

// StockLocator identifies a stock and carries everything needed to build its detail page URLs
type StockLocator struct {
	// Name is the normalized display name, e.g. DEUTSCHE-POST
	Name string
	// Href is the link found on the index page, e.g. /aktien/Deutsche-Post-Aktie-DE0005552004
	Href string
	// Slug is the last path segment of Href, e.g. Deutsche-Post-Aktie-DE0005552004
	Slug string
	// ISIN is the last dash separated segment of the slug, e.g. DE0005552004
	ISIN string
}

// NewStockLocator parses href into a locator for the stock displayed as name
func NewStockLocator(name, href string) (StockLocator, error) {
	href = strings.TrimSpace(href)
	u, err := url.Parse(href)
	if err != nil {
		return StockLocator{}, fmt.Errorf("%w: invalid stock link %q: %v", ErrMalformedPage, href, err)
	}

	slug := path.Base(strings.TrimRight(u.Path, "/"))
	if slug == "" || slug == "." || slug == "/" {
		return StockLocator{}, fmt.Errorf("%w: stock link %q has no slug", ErrMalformedPage, href)
	}

	parts := strings.Split(slug, "-")

	return StockLocator{
		Name: NormalizeName(name),
		Href: href,
		Slug: slug,
		ISIN: parts[len(parts)-1],
	}, nil
}

// NormalizeName upper-cases s and joins its words with the name separator
func NormalizeName(s string) string {
	return strings.ToUpper(strings.Join(strings.Fields(s), nameSeparator))
}

func containsEllipsis(s string) bool {
	for _, marker := range ellipsisMarkers {
		if strings.Contains(s, marker) {
			return true
		}
	}
	return false
}
