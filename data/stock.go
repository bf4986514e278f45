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
	"errors"
	"fmt"

	"github.com/penny-vault/pvdogs/observability/opentelemetry"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const (
	fundamentalPath = "aktien/fundamental"
	technicalPath   = "aktien/technische-kennzahlen"
	profilePath     = "aktien/unternehmensprofil"
)

// RawTableSet holds the unprocessed content of the three detail pages of a stock
type RawTableSet struct {
	Fundamentals []*Table
	Technical    []*Table
	Corporate    map[string]string
}

func (raw *RawTableSet) validate() error {
	if raw == nil {
		return ErrNotActivated
	}
	if len(raw.Fundamentals) < fundamentalsMinTables {
		return fmt.Errorf("%w: expected at least %d fundamentals tables, found %d", ErrMalformedPage, fundamentalsMinTables, len(raw.Fundamentals))
	}
	if len(raw.Technical) < technicalMinTables {
		return fmt.Errorf("%w: expected at least %d technical tables, found %d", ErrMalformedPage, technicalMinTables, len(raw.Technical))
	}
	return nil
}

// Stock is a single index constituent. It is created inactive; Activate downloads its pages
// and derives the record.
type Stock struct {
	Locator StockLocator

	raw    *RawTableSet
	record *StockRecord
}

// NewStock creates an inactive stock for loc
func NewStock(loc StockLocator) *Stock {
	return &Stock{Locator: loc}
}

// FundamentalURL returns the page holding P/E, dividend yield and market capitalization
func (s *Stock) FundamentalURL(client *Client) string {
	return client.URL(fundamentalPath, s.Locator.Slug)
}

// TechnicalURL returns the page holding the performance figures
func (s *Stock) TechnicalURL(client *Client) string {
	return client.URL(technicalPath, s.Locator.Slug)
}

// ProfileURL returns the company profile page
func (s *Stock) ProfileURL(client *Client) string {
	return client.URL(profilePath, s.Locator.Slug)
}

// Activate downloads the fundamental, technical and profile pages. All three pages are
// requested even if one of them fails; any failure invalidates the stock.
func (s *Stock) Activate(ctx context.Context, client *Client) error {
	ctx, span := otel.Tracer(opentelemetry.Name).Start(ctx, "data.Stock.Activate")
	defer span.End()

	span.SetAttributes(
		attribute.String("Name", s.Locator.Name),
		attribute.String("ISIN", s.Locator.ISIN),
	)
	subLog := log.With().Str("Name", s.Locator.Name).Str("ISIN", s.Locator.ISIN).Logger()

	raw := &RawTableSet{}
	var errs []error

	if doc, err := client.Document(ctx, s.FundamentalURL(client)); err != nil {
		errs = append(errs, err)
	} else {
		raw.Fundamentals = ParseTables(doc)
	}

	if doc, err := client.Document(ctx, s.TechnicalURL(client)); err != nil {
		errs = append(errs, err)
	} else {
		raw.Technical = ParseTables(doc)
	}

	if doc, err := client.Document(ctx, s.ProfileURL(client)); err != nil {
		errs = append(errs, err)
	} else if profile, err := ParseProfile(doc); err != nil {
		errs = append(errs, err)
	} else {
		raw.Corporate = profile
	}

	if err := errors.Join(errs...); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "could not load stock pages")
		subLog.Warn().Err(err).Msg("could not load stock pages")
		return err
	}

	record, err := NewStockRecord(s.Locator, raw)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "malformed stock pages")
		subLog.Warn().Err(err).Msg("malformed stock pages")
		return err
	}

	s.raw = raw
	s.record = record

	subLog.Debug().Float64("MarketCap", record.MarketCap).Str("Sector", record.Sector).Msg("activated stock")
	return nil
}

// Raw returns the downloaded tables or nil before activation
func (s *Stock) Raw() *RawTableSet {
	return s.raw
}

// Record returns the derived figures; ErrNotActivated before a successful Activate
func (s *Stock) Record() (*StockRecord, error) {
	if s.record == nil {
		return nil, ErrNotActivated
	}
	return s.record, nil
}
