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

package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/penny-vault/pvdogs/data"
	"github.com/penny-vault/pvdogs/export"
	"github.com/penny-vault/pvdogs/observability/opentelemetry"
	"github.com/penny-vault/pvdogs/strategies"
	"github.com/penny-vault/pvdogs/strategies/dogs"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var (
	ErrUnknownStrategy = errors.New("unknown strategy")
)

// Options selects what a run computes
type Options struct {
	Indices      []data.IndexLocator
	EstimateYear int
	Format       export.Kind
	Strategy     string
	// MinMarketCap overrides the strategy's default threshold when positive
	MinMarketCap float64
}

// Pipeline resolves indices, fetches their constituents, ranks them and exports the result
type Pipeline struct {
	resolver *data.Resolver
	manager  *data.Manager
	sink     export.Sink
}

// New creates a pipeline fetching through client with the pool settings of cfg
func New(client *data.Client, cfg data.Config, sink export.Sink) *Pipeline {
	return &Pipeline{
		resolver: data.NewResolver(client),
		manager:  data.NewManager(client, cfg),
		sink:     sink,
	}
}

func (opts Options) withDefaults() Options {
	if opts.EstimateYear == 0 {
		opts.EstimateYear = time.Now().Year()
	}
	if opts.Strategy == "" {
		opts.Strategy = "dogs"
	}
	return opts
}

// Run processes every selected index. A failure to resolve an index aborts the run; stock
// fetch failures, estimate fallbacks and export failures are collected in the report.
func (p *Pipeline) Run(ctx context.Context, opts Options) (*Report, error) {
	opts = opts.withDefaults()
	report := NewReport(opts.EstimateYear)

	ctx, span := otel.Tracer(opentelemetry.Name).Start(ctx, "pipeline.Run")
	defer span.End()

	span.SetAttributes(
		attribute.String("RunID", report.RunID.String()),
		attribute.Int("NumIndices", len(opts.Indices)),
		attribute.Int("Year", opts.EstimateYear),
	)
	subLog := log.With().Str("RunID", report.RunID.String()).Logger()

	if len(opts.Indices) == 0 {
		subLog.Info().Msg("no index selected; nothing to do")
		return report, nil
	}

	info, ok := strategies.StrategyMap[opts.Strategy]
	if !ok {
		err := fmt.Errorf("%w: %s", ErrUnknownStrategy, opts.Strategy)
		span.RecordError(err)
		span.SetStatus(codes.Error, "unknown strategy")
		return report, err
	}

	args := info.DefaultArguments()
	if opts.MinMarketCap > 0 {
		raw, err := json.Marshal(opts.MinMarketCap)
		if err != nil {
			return report, err
		}
		args[dogs.ArgMinMarketCap] = raw
	}

	for _, loc := range opts.Indices {
		idxLog := subLog.With().Str("Index", string(loc)).Logger()

		locators, err := p.resolver.Resolve(ctx, loc)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "index resolution failed")
			idxLog.Error().Err(err).Msg("could not resolve index; aborting run")
			report.Log()
			return report, fmt.Errorf("resolve %s: %w", loc, err)
		}

		recordMap, failures := p.manager.FetchAll(ctx, locators)
		report.addFetchFailures(loc, failures)

		names := make([]string, 0, len(recordMap))
		for name := range recordMap {
			names = append(names, name)
		}
		sort.Strings(names)

		records := make([]*data.StockRecord, len(names))
		for idx, name := range names {
			records[idx] = recordMap[name]
		}

		strat, err := info.Factory(records, args)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "could not create strategy")
			return report, err
		}

		result, err := strat.Compute(ctx, opts.EstimateYear)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "strategy failed")
			return report, err
		}
		report.addFallbacks(loc, result.Fallbacks)

		path, err := p.sink.Export(ctx, result.Ranking, export.Filename(string(loc), opts.Format))
		if err != nil {
			report.addExportFailure(loc, err)
			continue
		}

		report.Exports = append(report.Exports, ExportedFile{
			Index:   loc,
			Path:    path,
			NumRows: result.Ranking.NRows(),
		})
	}

	report.Log()
	return report, nil
}

// NewRunID returns a fresh identifier for a run
func NewRunID() uuid.UUID {
	return uuid.New()
}
