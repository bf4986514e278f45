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
	"runtime"
	"sort"
	"time"

	"github.com/penny-vault/pvdogs/observability/opentelemetry"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"
)

// FetchFailure describes a stock whose pages could not be loaded or interpreted
type FetchFailure struct {
	Name    string
	Locator StockLocator
	Err     error
}

// Manager activates many stocks concurrently with a bounded number of workers
type Manager struct {
	client      *Client
	maxWorkers  int
	unitTimeout time.Duration
}

// NewManager creates a manager that fetches through client. A MaxWorkers of 0 uses one
// worker per CPU.
func NewManager(client *Client, cfg Config) *Manager {
	workers := cfg.MaxWorkers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	return &Manager{
		client:      client,
		maxWorkers:  workers,
		unitTimeout: cfg.UnitTimeout,
	}
}

// Workers returns the size of the worker pool
func (manager *Manager) Workers() int {
	return manager.maxWorkers
}

// FetchAll activates every stock in locators and returns the records of those that
// succeeded, keyed like the input. A failing stock never affects its siblings; it is left
// out of the records and reported in the failure list (sorted by name).
func (manager *Manager) FetchAll(ctx context.Context, locators map[string]StockLocator) (map[string]*StockRecord, []FetchFailure) {
	ctx, span := otel.Tracer(opentelemetry.Name).Start(ctx, "data.Manager.FetchAll")
	defer span.End()

	start := time.Now()
	span.SetAttributes(attribute.Int("NumStocks", len(locators)), attribute.Int("Workers", manager.maxWorkers))

	names := make([]string, 0, len(locators))
	for name := range locators {
		names = append(names, name)
	}
	sort.Strings(names)

	// each unit owns exactly one slot
	records := make([]*StockRecord, len(names))
	errs := make([]error, len(names))

	var group errgroup.Group
	group.SetLimit(manager.maxWorkers)

	for idx, name := range names {
		stock := NewStock(locators[name])
		group.Go(func() error {
			records[idx], errs[idx] = manager.fetchOne(ctx, stock)
			return nil
		})
	}

	// units never return an error
	_ = group.Wait()

	result := make(map[string]*StockRecord, len(names))
	failures := make([]FetchFailure, 0)
	for idx, name := range names {
		if errs[idx] != nil {
			failures = append(failures, FetchFailure{
				Name:    name,
				Locator: locators[name],
				Err:     errs[idx],
			})
			continue
		}
		result[name] = records[idx]
	}

	span.SetAttributes(attribute.Int("NumFailures", len(failures)))
	log.Info().
		Int("NumStocks", len(names)).
		Int("NumFailures", len(failures)).
		Int("Workers", manager.maxWorkers).
		Dur("Elapsed", time.Since(start)).
		Msg("fetched stocks")

	return result, failures
}

func (manager *Manager) fetchOne(ctx context.Context, stock *Stock) (*StockRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if manager.unitTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, manager.unitTimeout)
		defer cancel()
	}

	if err := stock.Activate(ctx, manager.client); err != nil {
		return nil, err
	}

	return stock.Record()
}
