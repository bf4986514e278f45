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
	"github.com/google/uuid"
	"github.com/penny-vault/pvdogs/data"
	"github.com/penny-vault/pvdogs/strategies/strategy"
	"github.com/rs/zerolog/log"
)

// ExportedFile is a ranking written by the run
type ExportedFile struct {
	Index   data.IndexLocator
	Path    string
	NumRows int
}

// StockFailure is a stock that could not be fetched
type StockFailure struct {
	Index data.IndexLocator
	data.FetchFailure
}

// FallbackNote is an estimate taken from a fixed position instead of its year label
type FallbackNote struct {
	Index data.IndexLocator
	strategy.Fallback
}

// ExportFailure is a ranking that could not be written
type ExportFailure struct {
	Index data.IndexLocator
	Err   error
}

// Report summarizes everything that went wrong (or was substituted) during a run
type Report struct {
	RunID          uuid.UUID
	EstimateYear   int
	Exports        []ExportedFile
	FetchFailures  []StockFailure
	Fallbacks      []FallbackNote
	ExportFailures []ExportFailure
}

// NewReport creates an empty report with a new run id
func NewReport(estimateYear int) *Report {
	return &Report{
		RunID:        NewRunID(),
		EstimateYear: estimateYear,
	}
}

func (r *Report) addFetchFailures(loc data.IndexLocator, failures []data.FetchFailure) {
	for _, f := range failures {
		r.FetchFailures = append(r.FetchFailures, StockFailure{Index: loc, FetchFailure: f})
	}
}

func (r *Report) addFallbacks(loc data.IndexLocator, fallbacks []strategy.Fallback) {
	for _, f := range fallbacks {
		r.Fallbacks = append(r.Fallbacks, FallbackNote{Index: loc, Fallback: f})
	}
}

func (r *Report) addExportFailure(loc data.IndexLocator, err error) {
	r.ExportFailures = append(r.ExportFailures, ExportFailure{Index: loc, Err: err})
}

// Clean reports whether the run finished without failures or fallbacks
func (r *Report) Clean() bool {
	return len(r.FetchFailures) == 0 && len(r.Fallbacks) == 0 && len(r.ExportFailures) == 0
}

// Log writes the report to the global logger
func (r *Report) Log() {
	subLog := log.With().Str("RunID", r.RunID.String()).Logger()

	for _, f := range r.FetchFailures {
		subLog.Warn().
			Str("Index", string(f.Index)).
			Str("Name", f.Name).
			Str("ISIN", f.Locator.ISIN).
			Err(f.Err).
			Msg("stock omitted from ranking")
	}

	for _, f := range r.Fallbacks {
		subLog.Warn().
			Str("Index", string(f.Index)).
			Str("Name", f.Name).
			Str("ISIN", f.ISIN).
			Str("Field", f.Field).
			Str("Wanted", f.Wanted).
			Str("Used", f.Used).
			Msg("estimate taken by heuristic position")
	}

	for _, f := range r.ExportFailures {
		subLog.Error().Str("Index", string(f.Index)).Err(f.Err).Msg("ranking not exported")
	}

	subLog.Info().
		Int("Year", r.EstimateYear).
		Int("NumExports", len(r.Exports)).
		Int("NumFetchFailures", len(r.FetchFailures)).
		Int("NumFallbacks", len(r.Fallbacks)).
		Int("NumExportFailures", len(r.ExportFailures)).
		Msg("run finished")
}
