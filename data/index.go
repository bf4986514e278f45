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
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/penny-vault/pvdogs/observability/opentelemetry"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const (
	indexPath            = "index/einzelwerte"
	constituentSelector  = "a.TEXT_DICK"
	rawLocatorIdentifier = "-Index-"
)

// IndexInfo names an index the portal lists constituents for
type IndexInfo struct {
	Name    string
	Locator IndexLocator
}

// KnownIndices lists the indices that can be selected by name
var KnownIndices = []IndexInfo{
	{Name: "DAX", Locator: "DAX-Index-20735"},
	{Name: "MDAX", Locator: "MDAX-Index-323547"},
	{Name: "SDAX", Locator: "SDAX-Index-324724"},
	{Name: "TecDAX", Locator: "TecDAX-Index-6623216"},
	{Name: "E-STOXX 50", Locator: "EURO-STOXX-50-Index-193736"},
	{Name: "Dow Jones", Locator: "Dow-Jones-Index-324977"},
	{Name: "S&P 500", Locator: "S-P-500-Index-4359526"},
	{Name: "Nikkei 225", Locator: "Nikkei-Index-60972397"},
	{Name: "Hang Seng", Locator: "Hang-Seng-Index-8313314"},
}

// LookupIndex finds an index by its display name (case-insensitive) or accepts a raw
// locator such as DAX-Index-20735
func LookupIndex(nameOrLocator string) (IndexLocator, error) {
	key := strings.TrimSpace(nameOrLocator)
	for _, info := range KnownIndices {
		if strings.EqualFold(info.Name, key) || strings.EqualFold(string(info.Locator), key) {
			return info.Locator, nil
		}
	}

	if strings.Contains(key, rawLocatorIdentifier) {
		return IndexLocator(key), nil
	}

	return "", fmt.Errorf("%w: %q", ErrUnknownIndex, nameOrLocator)
}

// Resolver maps an index to its constituent stocks
type Resolver struct {
	client *Client
}

// NewResolver creates a resolver that reads index pages through client
func NewResolver(client *Client) *Resolver {
	return &Resolver{client: client}
}

// URL returns the member-listing page of the index
func (r *Resolver) URL(loc IndexLocator) string {
	return r.client.URL(indexPath, string(loc))
}

// Resolve returns the constituents of the index keyed by their normalized display name
func (r *Resolver) Resolve(ctx context.Context, loc IndexLocator) (map[string]StockLocator, error) {
	ctx, span := otel.Tracer(opentelemetry.Name).Start(ctx, "data.Resolver.Resolve")
	defer span.End()

	span.SetAttributes(attribute.String("Index", string(loc)))
	subLog := log.With().Str("Index", string(loc)).Logger()

	doc, err := r.client.Document(ctx, r.URL(loc))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "could not load index page")
		return nil, err
	}

	constituents, err := ParseConstituents(doc)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "could not parse index page")
		subLog.Error().Err(err).Msg("could not parse index page")
		return nil, err
	}

	subLog.Info().Int("NumConstituents", len(constituents)).Msg("resolved index")
	return constituents, nil
}

// ParseConstituents reads the constituent anchors of an index page. Truncated anchor texts
// (containing an ellipsis) are replaced by the anchor's title attribute.
func ParseConstituents(doc *goquery.Document) (map[string]StockLocator, error) {
	anchors := doc.Find(constituentSelector)
	if anchors.Length() == 0 {
		return nil, fmt.Errorf("%w: no constituent anchors (%s) found", ErrMalformedPage, constituentSelector)
	}

	names := make([]string, 0, anchors.Length())
	hrefs := make([]string, 0, anchors.Length())

	anchors.Each(func(_ int, anchor *goquery.Selection) {
		name := cellText(anchor)
		if containsEllipsis(name) {
			if title, ok := anchor.Attr("title"); ok && strings.TrimSpace(title) != "" {
				name = title
			}
		}
		if name = NormalizeName(name); name != "" {
			names = append(names, name)
		}

		if href, ok := anchor.Attr("href"); ok && strings.TrimSpace(href) != "" {
			hrefs = append(hrefs, href)
		}
	})

	if len(names) != len(hrefs) {
		return nil, fmt.Errorf("%w: found %d constituent names but %d links", ErrMalformedPage, len(names), len(hrefs))
	}

	constituents := make(map[string]StockLocator, len(names))
	for idx, name := range names {
		if _, ok := constituents[name]; ok {
			return nil, fmt.Errorf("%w: duplicate constituent %q", ErrMalformedPage, name)
		}
		loc, err := NewStockLocator(name, hrefs[idx])
		if err != nil {
			return nil, err
		}
		constituents[name] = loc
	}

	return constituents, nil
}
