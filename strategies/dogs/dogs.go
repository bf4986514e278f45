// Copyright 2021-2023
// SPDX-License-Identifier: Apache-2.0
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

/*
 * Dogs of the Index v1.0
 * https://www.dogsofthedow.com/
 *
 * A contrarian value strategy: within each sector, large caps with weak recent
 * performance and a low estimated dividend yield sort to the top of the list.
 */

package dogs

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/goccy/go-json"
	"github.com/penny-vault/pvdogs/data"
	"github.com/penny-vault/pvdogs/observability/opentelemetry"
	"github.com/penny-vault/pvdogs/strategies/strategy"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

const ArgMinMarketCap = "minMarketCap"

var (
	ErrInvalidArgument = errors.New("invalid strategy argument")
)

type Dogs struct {
	records      []*data.StockRecord
	minMarketCap float64

	mu        sync.Mutex
	builtYear int
	built     *Table
	failures  FailureList
}

// New creates the strategy for records. The optional minMarketCap argument is the
// market capitalization threshold in billions.
func New(records []*data.StockRecord, args map[string]json.RawMessage) (strategy.Strategy, error) {
	minMarketCap := DefaultMinMarketCap
	if raw, ok := args[ArgMinMarketCap]; ok && len(raw) > 0 {
		if err := json.Unmarshal(raw, &minMarketCap); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidArgument, ArgMinMarketCap, err)
		}
	}

	var dogs strategy.Strategy = &Dogs{
		records:      records,
		minMarketCap: minMarketCap,
	}

	return dogs, nil
}

// MinMarketCap returns the market capitalization threshold in billions
func (dogs *Dogs) MinMarketCap() float64 {
	return dogs.minMarketCap
}

// Table returns the unscored table for estimateYear. The table is built once per year and
// rebuilt when a different year is requested.
func (dogs *Dogs) Table(estimateYear int) (*Table, FailureList) {
	dogs.mu.Lock()
	defer dogs.mu.Unlock()

	if dogs.built == nil || dogs.builtYear != estimateYear {
		dogs.built, dogs.failures = BuildTable(dogs.records, estimateYear)
		dogs.builtYear = estimateYear
	}

	return dogs.built, dogs.failures
}

// Rank returns the scored, filtered and sorted table for estimateYear
func (dogs *Dogs) Rank(estimateYear int) (*Table, FailureList) {
	table, failures := dogs.Table(estimateYear)
	return ApplyStrategy(table, dogs.minMarketCap), failures
}

// Compute ranks the records for estimateYear
func (dogs *Dogs) Compute(ctx context.Context, estimateYear int) (*strategy.Result, error) {
	_, span := otel.Tracer(opentelemetry.Name).Start(ctx, "dogs.Compute")
	defer span.End()

	ranked, failures := dogs.Rank(estimateYear)

	span.SetAttributes(
		attribute.Int("Year", estimateYear),
		attribute.Int("NumRecords", len(dogs.records)),
		attribute.Int("NumRanked", ranked.Len()),
		attribute.Int("NumFallbacks", len(failures)),
	)

	if len(failures) > 0 {
		log.Warn().
			Strs("Corporations", failures.Names()).
			Str("Label", EstimateLabel(estimateYear)).
			Msg("estimate label missing; used the heuristic positional fallback")
	}

	log.Debug().
		Int("Year", estimateYear).
		Int("NumRecords", len(dogs.records)).
		Int("NumRanked", ranked.Len()).
		Float64("MinMarketCap", dogs.minMarketCap).
		Msg("computed dogs ranking")

	return &strategy.Result{
		Ranking:   ranked.DataFrame(),
		Fallbacks: failures,
	}, nil
}
