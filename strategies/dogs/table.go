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

package dogs

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/penny-vault/pvdogs/data"
	"github.com/penny-vault/pvdogs/strategies/strategy"
	"github.com/rocketlaunchr/dataframe-go"
	"gonum.org/v1/gonum/stat"
)

const (
	ColNo            = "no."
	ColCorporation   = "corporation"
	ColISIN          = "isin"
	ColMarketCap     = "market_capitalization"
	ColSector        = "sector"
	ColPerf1Y        = "perf_1y"
	ColPerf5Y        = "perf_5y"
	ColDividendYield = "DIVe"
	ColPERatio       = "PEe"
	ColAggregate     = "aggregate"

	FieldDividendYield = "dividend_yield"
	FieldPERatio       = "pe_ratio"

	// fallbackPosition is the entry used when the estimate year is not among the labels
	fallbackPosition = 2

	DefaultMinMarketCap = 5.0
)

// RankingRow is one stock in the ranking table
type RankingRow struct {
	No            int
	Corporation   string
	ISIN          string
	MarketCap     float64
	Sector        string
	Perf1Y        float64
	Perf5Y        float64
	DividendYield float64
	PERatio       float64
	Aggregate     float64
}

// Table is an ordered list of ranking rows
type Table struct {
	Rows []RankingRow
}

// Len returns the number of rows
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// Copy returns a table with its own row slice
func (t *Table) Copy() *Table {
	rows := make([]RankingRow, len(t.Rows))
	copy(rows, t.Rows)
	return &Table{Rows: rows}
}

// Fallback describes a record whose estimate was not labeled with the estimate year
type Fallback = strategy.Fallback

// FailureList collects the fallbacks of a BuildTable call
type FailureList []Fallback

// Names returns the distinct corporation names in the list in order of appearance
func (fl FailureList) Names() []string {
	seen := make(map[string]bool, len(fl))
	names := make([]string, 0, len(fl))
	for _, f := range fl {
		if !seen[f.Name] {
			seen[f.Name] = true
			names = append(names, f.Name)
		}
	}
	return names
}

// String renders the list for log messages
func (fl FailureList) String() string {
	parts := make([]string, len(fl))
	for idx, f := range fl {
		parts[idx] = fmt.Sprintf("%s (%s) %s: wanted %s, used %s", f.Name, f.ISIN, f.Field, f.Wanted, f.Used)
	}
	return strings.Join(parts, "; ")
}

// EstimateLabel returns the column label the portal uses for estimates of year, e.g. 2023e
func EstimateLabel(year int) string {
	return fmt.Sprintf("%de", year)
}

// BuildTable creates one ranking row per record, numbered from 1 in input order. Dividend
// yield and P/E are looked up under the estimate label of estimateYear; when the label is
// missing the third entry of the series is used and the substitution is reported.
func BuildTable(records []*data.StockRecord, estimateYear int) (*Table, FailureList) {
	label := EstimateLabel(estimateYear)
	table := &Table{Rows: make([]RankingRow, 0, len(records))}
	failures := FailureList{}

	for idx, rec := range records {
		divYield, fb := lookupEstimate(rec, rec.DividendYield, FieldDividendYield, label)
		if fb != nil {
			failures = append(failures, *fb)
		}

		peRatio, fb := lookupEstimate(rec, rec.PERatio, FieldPERatio, label)
		if fb != nil {
			failures = append(failures, *fb)
		}

		table.Rows = append(table.Rows, RankingRow{
			No:            idx + 1,
			Corporation:   rec.Name,
			ISIN:          rec.ISIN,
			MarketCap:     rec.MarketCap,
			Sector:        rec.Sector,
			Perf1Y:        rec.Perf1Y,
			Perf5Y:        rec.Perf5Y,
			DividendYield: divYield,
			PERatio:       peRatio,
			Aggregate:     math.NaN(),
		})
	}

	return table, failures
}

// lookupEstimate returns the value labeled label. On a miss the value at fallbackPosition
// is returned (NaN when the series is too short) together with a Fallback describing it.
func lookupEstimate(rec *data.StockRecord, series *data.Series, field, label string) (float64, *Fallback) {
	if val, ok := series.Get(label); ok {
		return val, nil
	}

	fb := &Fallback{
		Name:   rec.Name,
		ISIN:   rec.ISIN,
		Field:  field,
		Wanted: label,
	}

	usedLabel, val, ok := series.At(fallbackPosition)
	if !ok {
		fb.Used = "-"
		return math.NaN(), fb
	}

	fb.Used = usedLabel
	return val, fb
}

func zeroIfNaN(val float64) float64 {
	if math.IsNaN(val) {
		return 0
	}
	return val
}

// ApplyStrategy scores and filters a copy of table. The aggregate is the mean of the 1 year
// performance, the 5 year performance and the estimated dividend yield with missing values
// counted as 0. Rows whose market capitalization (in millions) does not exceed
// minMarketCapBillions billion are removed. The rest are sorted by sector and then aggregate,
// both ascending; rows that compare equal keep their relative order.
func ApplyStrategy(table *Table, minMarketCapBillions float64) *Table {
	result := &Table{Rows: make([]RankingRow, 0, table.Len())}
	if table == nil {
		return result
	}

	for _, row := range table.Rows {
		row.Aggregate = stat.Mean([]float64{
			zeroIfNaN(row.Perf1Y),
			zeroIfNaN(row.Perf5Y),
			zeroIfNaN(row.DividendYield),
		}, nil)

		// NaN compares false and is dropped as well
		if !(row.MarketCap/1000 > minMarketCapBillions) {
			continue
		}

		result.Rows = append(result.Rows, row)
	}

	sort.SliceStable(result.Rows, func(i, j int) bool {
		a, b := result.Rows[i], result.Rows[j]
		if a.Sector != b.Sector {
			return a.Sector < b.Sector
		}
		return a.Aggregate < b.Aggregate
	})

	return result
}

// DataFrame converts the table into its presentation form
func (t *Table) DataFrame() *dataframe.DataFrame {
	size := &dataframe.SeriesInit{Capacity: t.Len()}

	no := dataframe.NewSeriesInt64(ColNo, size)
	corporation := dataframe.NewSeriesString(ColCorporation, size)
	isin := dataframe.NewSeriesString(ColISIN, size)
	marketCap := dataframe.NewSeriesFloat64(ColMarketCap, size)
	sector := dataframe.NewSeriesString(ColSector, size)
	perf1Y := dataframe.NewSeriesFloat64(ColPerf1Y, size)
	perf5Y := dataframe.NewSeriesFloat64(ColPerf5Y, size)
	divYield := dataframe.NewSeriesFloat64(ColDividendYield, size)
	peRatio := dataframe.NewSeriesFloat64(ColPERatio, size)
	aggregate := dataframe.NewSeriesFloat64(ColAggregate, size)

	df := dataframe.NewDataFrame(no, corporation, isin, marketCap, sector, perf1Y, perf5Y, divYield, peRatio, aggregate)
	if t == nil {
		return df
	}

	for _, row := range t.Rows {
		df.Append(&dataframe.Options{},
			int64(row.No),
			row.Corporation,
			row.ISIN,
			row.MarketCap,
			row.Sector,
			row.Perf1Y,
			row.Perf5Y,
			row.DividendYield,
			row.PERatio,
			row.Aggregate,
		)
	}

	return df
}
